// Package model defines the shared records that flow between pipeline stages.
package model

import "strings"

// FallbackRegion is the income distribution used for regions without their own row.
const FallbackRegion = "others"

// NormalizeRegion trims and lowercases a region identifier. Every region name
// read from an input table goes through this before any join or lookup.
func NormalizeRegion(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
