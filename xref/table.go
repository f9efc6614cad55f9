package xref

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/tsawler/pdfgraph/core"
)

// recordLen is the length of a classic entry without its end-of-line.
const recordLen = 18

// tableReader reads a classic table while tracking the absolute position.
type tableReader struct {
	r    *bufio.Reader
	pos  int64
	size int64
}

func newTableReader(src io.ReaderAt, size, offset int64) *tableReader {
	return &tableReader{
		r:    bufio.NewReaderSize(io.NewSectionReader(src, offset, size-offset), 64*1024),
		pos:  offset,
		size: size,
	}
}

func (t *tableReader) skipSpace() {
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			return
		}
		if !isSpace(c) {
			t.r.UnreadByte()
			return
		}
		t.pos++
	}
}

// keyword consumes kw if it comes next.
func (t *tableReader) keyword(kw string) bool {
	b, err := t.r.Peek(len(kw))
	if err != nil || string(b) != kw {
		return false
	}
	t.r.Discard(len(kw))
	t.pos += int64(len(kw))
	return true
}

// uint reads an unsigned decimal number, skipping leading blanks on the
// same line.
func (t *tableReader) uint() (int64, error) {
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			return 0, io.ErrUnexpectedEOF
		}
		if c != ' ' && c != '\t' {
			t.r.UnreadByte()
			break
		}
		t.pos++
	}
	var n int64
	digits := 0
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			break
		}
		if c < '0' || c > '9' {
			t.r.UnreadByte()
			break
		}
		if n > (math.MaxInt64-9)/10 {
			return 0, fmt.Errorf("number too large at offset %d", t.pos)
		}
		n = n*10 + int64(c-'0')
		digits++
		t.pos++
	}
	if digits == 0 {
		return 0, fmt.Errorf("expected a number at offset %d", t.pos)
	}
	return n, nil
}

// record reads one entry and its end-of-line. Both the standard two-byte
// EOL and a single CR or LF are accepted.
func (t *tableReader) record() (core.XRefEntry, error) {
	var rec [recordLen]byte
	if _, err := io.ReadFull(t.r, rec[:]); err != nil {
		return core.XRefEntry{}, fmt.Errorf("truncated entry at offset %d", t.pos)
	}
	start := t.pos
	t.pos += recordLen

	offset, ok1 := digits(rec[0:10])
	gen, ok2 := digits(rec[11:16])
	if !ok1 || !ok2 || rec[10] != ' ' || rec[16] != ' ' {
		return core.XRefEntry{}, fmt.Errorf("bad entry %q at offset %d", rec[:], start)
	}

	eol, _ := t.r.Peek(2)
	switch {
	case len(eol) == 2 && (eol[0] == ' ' || eol[0] == '\r') && (eol[1] == '\r' || eol[1] == '\n'):
		t.r.Discard(2)
		t.pos += 2
	case len(eol) >= 1 && (eol[0] == '\r' || eol[0] == '\n'):
		t.r.Discard(1)
		t.pos++
	default:
		return core.XRefEntry{}, fmt.Errorf("entry at offset %d not followed by end-of-line", start)
	}

	switch rec[17] {
	case 'n':
		return core.InUseEntry(offset, int(gen)), nil
	case 'f':
		return core.FreeEntry(int(offset), int(gen)), nil
	}
	return core.XRefEntry{}, fmt.Errorf("bad entry type %q at offset %d", rec[17], start+17)
}

// parseTable reads a classic table and its trailer starting at offset.
func parseTable(src io.ReaderAt, size, offset int64, limits core.Limits) (*core.XRefSection, error) {
	section, err := readTable(src, size, offset, limits)
	if err != nil {
		return nil, &core.XRefError{Offset: offset, Err: err}
	}
	return section, nil
}

func readTable(src io.ReaderAt, size, offset int64, limits core.Limits) (*core.XRefSection, error) {
	t := newTableReader(src, size, offset)
	t.skipSpace()
	if !t.keyword("xref") {
		return nil, fmt.Errorf("%w: expected 'xref'", core.ErrMalformedXref)
	}

	section := core.NewXRefSection(core.SectionTable, offset)
	for {
		t.skipSpace()
		if t.keyword("trailer") {
			break
		}
		start, err := t.uint()
		if err != nil {
			return nil, fmt.Errorf("%w: subsection header: %v", core.ErrMalformedXref, err)
		}
		count, err := t.uint()
		if err != nil {
			return nil, fmt.Errorf("%w: subsection header: %v", core.ErrMalformedXref, err)
		}
		if start > math.MaxInt32 || count > math.MaxInt32-start {
			return nil, fmt.Errorf("%w: subsection %d+%d out of range", core.ErrMalformedXref, start, count)
		}
		if count*(recordLen+1) > size-t.pos {
			return nil, fmt.Errorf("%w: subsection of %d entries exceeds the remaining %d bytes",
				core.ErrMalformedXref, count, size-t.pos)
		}
		for i := int64(0); i < count; i++ {
			t.skipSpace()
			entry, err := t.record()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", core.ErrMalformedXref, err)
			}
			num := int(start + i)
			if _, dup := section.Entries[num]; !dup {
				section.Entries[num] = entry
			}
		}
	}

	t.skipSpace()
	trailer, err := parseDictAt(src, size, t.pos, limits)
	if err != nil {
		return nil, fmt.Errorf("%w: trailer: %v", core.ErrMalformedXref, err)
	}
	section.Trailer = trailer
	return section, nil
}

// parseDictAt parses the dictionary starting at offset.
func parseDictAt(src io.ReaderAt, size, offset int64, limits core.Limits) (core.Dict, error) {
	if offset >= size {
		return nil, io.ErrUnexpectedEOF
	}
	p := core.NewParserAt(io.NewSectionReader(src, offset, size-offset), offset)
	p.SetLimits(limits)
	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}
	dict, err := core.AsDict(obj)
	if err != nil {
		return nil, err
	}
	return dict, nil
}

func digits(b []byte) (int64, bool) {
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
