// Package format reads the PDF file header: the "%PDF-x.y" version line and
// the binary marker comment that usually follows it.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// HeaderSearchWindow is how far into the file the header may start. Bytes
// before it (mail headers, BOMs, stray whitespace) are skipped.
const HeaderSearchWindow = 1024

// ErrNoHeader is returned when no "%PDF-" line appears in the search window.
var ErrNoHeader = errors.New("no PDF header")

// Version is a PDF version such as 1.7.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// IsZero reports whether v is unset.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0
}

// Less reports whether v is older than w.
func (v Version) Less(w Version) bool {
	if v.Major != w.Major {
		return v.Major < w.Major
	}
	return v.Minor < w.Minor
}

// ParseVersion parses "1.7". A name value such as the catalog's /Version
// uses the same form.
func ParseVersion(s string) (Version, error) {
	major, minor, ok := bytes.Cut([]byte(s), []byte{'.'})
	if !ok {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	maj, err1 := strconv.Atoi(string(major))
	mnr, err2 := strconv.Atoi(string(minor))
	if err1 != nil || err2 != nil || maj < 0 || mnr < 0 {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	return Version{Major: maj, Minor: mnr}, nil
}

// Header describes the start of a PDF file.
type Header struct {
	Version Version
	// Offset is where "%PDF-" starts. Byte offsets in the xref are usually
	// relative to the file start, but some writers count from here.
	Offset int64
	// Binary is set when the second line is a comment of at least four
	// bytes that are all 128 or above.
	Binary bool
}

// Sniff reads the header from the first HeaderSearchWindow bytes of src.
// The "%PDF-" tag is matched case-insensitively.
func Sniff(src io.ReaderAt, size int64) (Header, error) {
	n := int64(HeaderSearchWindow + 64)
	if size < n {
		n = size
	}
	buf := make([]byte, n)
	read, err := src.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return Header{}, fmt.Errorf("reading header: %w", err)
	}
	return SniffBytes(buf[:read])
}

// SniffBytes is Sniff over an in-memory prefix of the file.
func SniffBytes(data []byte) (Header, error) {
	window := data
	if len(window) > HeaderSearchWindow {
		window = window[:HeaderSearchWindow]
	}
	idx := bytes.Index(bytes.ToUpper(window), []byte("%PDF-"))
	if idx < 0 {
		return Header{}, ErrNoHeader
	}

	h := Header{Offset: int64(idx)}
	rest := data[idx+5:]
	end := 0
	for end < len(rest) && (isDigit(rest[end]) || rest[end] == '.') {
		end++
	}
	v, err := ParseVersion(string(rest[:end]))
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrNoHeader, err)
	}
	h.Version = v
	h.Binary = binaryMarker(rest[end:])
	return h, nil
}

// binaryMarker looks at the line after the version line.
func binaryMarker(data []byte) bool {
	i := 0
	for i < len(data) && data[i] != '\r' && data[i] != '\n' {
		i++
	}
	for i < len(data) && isWhite(data[i]) {
		i++
	}
	if i >= len(data) || data[i] != '%' {
		return false
	}
	i++
	start := i
	for i < len(data) && data[i] != '\r' && data[i] != '\n' {
		if data[i] < 128 {
			return false
		}
		i++
	}
	return i-start > 3
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWhite(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}
