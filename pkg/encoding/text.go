// Package encoding decodes OBJ and MTL text files written in legacy
// character sets.
package encoding

import (
	"errors"
	"fmt"
	"io"
	"strings"

	textenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for names htmlindex does not recognize.
var ErrUnknownEncoding = errors.New("unknown text encoding")

// Lookup returns the encoding registered under name ("utf-8", "euc-kr",
// "windows-1252", "shift_jis", ...). An empty name means UTF-8.
func Lookup(name string) (textenc.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Valid reports whether name is a known encoding.
func Valid(name string) bool {
	_, err := Lookup(name)
	return err == nil
}

// NewReader returns a reader that yields UTF-8 text decoded from r. A
// leading byte order mark selects UTF-8 or UTF-16 regardless of name.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// DecodeString converts s from the named encoding to UTF-8.
// Returns s unchanged if conversion fails.
func DecodeString(s, name string) string {
	enc, err := Lookup(name)
	if err != nil {
		return s
	}
	result, _, err := transform.String(enc.NewDecoder(), s)
	if err != nil {
		return s
	}
	return result
}
