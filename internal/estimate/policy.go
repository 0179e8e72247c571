package estimate

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

const (
	andOverMarker            = "and_over"
	defaultAndOverMultiplier = 3
)

// Bounds is a numeric income interval.
type Bounds struct {
	Lower float64 `yaml:"lower" json:"lower"`
	Upper float64 `yaml:"upper" json:"upper"`
}

// Policy holds the lookup tables used during bracket assignment.
type Policy struct {
	Exclusions        []string       `yaml:"exclusions" json:"exclusions"`
	AndOverOverrides  map[int]Bounds `yaml:"and_over_overrides" json:"and_over_overrides"`
	AndOverMultiplier float64        `yaml:"and_over_multiplier" json:"and_over_multiplier"`

	excluded map[string]struct{}
}

// DefaultPolicy returns the embedded policy tables.
func DefaultPolicy() (*Policy, error) {
	return ParsePolicy(defaultPolicyYAML)
}

// LoadPolicy reads a policy file. An empty path returns the embedded default.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "estimate: read policy %s", path)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and validates policy YAML.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "estimate: parse policy")
	}
	if p.AndOverMultiplier == 0 {
		p.AndOverMultiplier = defaultAndOverMultiplier
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	p.index()
	return &p, nil
}

func (p *Policy) validate() error {
	if p.AndOverMultiplier < 1 {
		return eris.Errorf("estimate: and_over_multiplier must be at least 1, got %g", p.AndOverMultiplier)
	}
	for d, b := range p.AndOverOverrides {
		if b.Lower < 0 || b.Upper < b.Lower {
			return eris.Errorf("estimate: invalid override for decile %d: [%g, %g]", d, b.Lower, b.Upper)
		}
	}
	return nil
}

func (p *Policy) index() {
	p.excluded = make(map[string]struct{}, len(p.Exclusions))
	for _, s := range p.Exclusions {
		p.excluded[normalizeSubzone(s)] = struct{}{}
	}
}

func normalizeSubzone(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsExcluded reports whether a subzone is in the exclusion set, ignoring case.
func (p *Policy) IsExcluded(subzone string) bool {
	if p.excluded == nil {
		p.index()
	}
	_, ok := p.excluded[normalizeSubzone(subzone)]
	return ok
}

// Bounds resolves the numeric interval for a bracket label at a decile.
//
//	"<n>_and_over"  override row for the decile if any, else [n, n*multiplier]
//	"<a>_<b>"       [a, b]
//
// Any other label, or a label whose numbers do not parse, is a *FormatError.
func (p *Policy) Bounds(label string, decile int) (Bounds, error) {
	if strings.Contains(strings.ToLower(label), andOverMarker) {
		if b, ok := p.AndOverOverrides[decile]; ok {
			return b, nil
		}
		prefix, _, _ := strings.Cut(label, "_")
		lower, err := strconv.Atoi(strings.TrimSpace(prefix))
		if err != nil {
			return Bounds{}, &FormatError{Label: label, Reason: "open-ended bracket has no numeric lower bound"}
		}
		return Bounds{Lower: float64(lower), Upper: float64(lower) * p.AndOverMultiplier}, nil
	}

	if strings.Contains(label, "_") {
		parts := strings.Split(label, "_")
		if len(parts) != 2 {
			return Bounds{}, &FormatError{Label: label, Reason: "expected exactly two bounds"}
		}
		lower, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Bounds{}, &FormatError{Label: label, Reason: "lower bound is not an integer"}
		}
		upper, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Bounds{}, &FormatError{Label: label, Reason: "upper bound is not an integer"}
		}
		return Bounds{Lower: float64(lower), Upper: float64(upper)}, nil
	}

	return Bounds{}, &FormatError{Label: label, Reason: "no bound separator"}
}
