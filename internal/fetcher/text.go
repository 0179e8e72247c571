package fetcher

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// OpenText reads a text file into memory and returns a reader over its UTF-8
// content. A leading byte order mark is dropped, and files that are not valid
// UTF-8 are decoded as ISO-8859-1.
func OpenText(path string) (io.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", path)
	}
	out, err := DecodeText(data)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: decode %s", path)
	}
	return bytes.NewReader(out), nil
}

// DecodeText converts raw bytes to UTF-8.
func DecodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: latin-1 decode")
	}
	return out, nil
}
