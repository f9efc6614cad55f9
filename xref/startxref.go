package xref

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/tsawler/pdfgraph/core"
)

// tailSize is how far from the end of the file startxref is searched for.
const tailSize = 2048 + len("startxref")

var startxrefKeyword = []byte("startxref")

// FindStartXRef returns the offset named by the last "startxref" keyword in
// the final bytes of the file.
func FindStartXRef(src io.ReaderAt, size int64) (int64, error) {
	n := int64(tailSize)
	if size < n {
		n = size
	}
	buf := make([]byte, n)
	if _, err := src.ReadAt(buf, size-n); err != nil && err != io.EOF {
		return 0, fmt.Errorf("read file tail: %w", err)
	}

	idx := bytes.LastIndex(buf, startxrefKeyword)
	if idx < 0 {
		return 0, fmt.Errorf("%w: startxref not found", core.ErrMalformedXref)
	}
	rest := bytes.TrimLeft(buf[idx+len(startxrefKeyword):], " \t\r\n\f\x00")
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("%w: startxref without an offset", core.ErrMalformedXref)
	}
	offset, err := strconv.ParseInt(string(rest[:end]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: startxref offset %q", core.ErrMalformedXref, rest[:end])
	}
	if offset >= size {
		return 0, fmt.Errorf("%w: startxref offset %d beyond end of file (%d bytes)", core.ErrMalformedXref, offset, size)
	}
	return offset, nil
}
