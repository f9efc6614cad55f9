// Package pdftest writes small synthetic PDF files for tests.
//
// A Builder appends objects to an in-memory file and remembers their byte
// offsets, so cross-reference sections can be written with correct
// positions. Each call to Table, XRefStream or HybridTable closes a revision;
// objects added afterwards form an incremental update whose section links
// back through /Prev.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/pdfgraph/core"
)

// Member is one object stored inside an object stream.
type Member struct {
	Num  int
	Body string
}

// Builder accumulates a PDF file.
type Builder struct {
	buf      bytes.Buffer
	pending  map[int]core.XRefEntry
	offsets  map[int]int64
	maxNum   int
	prevXRef int64
	first    bool
}

// New starts a file with a "%PDF-version" header and a binary marker line.
func New(version string) *Builder {
	b := &Builder{
		pending:  make(map[int]core.XRefEntry),
		offsets:  make(map[int]int64),
		prevXRef: -1,
		first:    true,
	}
	fmt.Fprintf(&b.buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	return b
}

// Raw appends s verbatim.
func (b *Builder) Raw(s string) *Builder {
	b.buf.WriteString(s)
	return b
}

// Object appends "num 0 obj body endobj".
func (b *Builder) Object(num int, body string) *Builder {
	return b.ObjectGen(num, 0, body)
}

// ObjectGen appends an object with an explicit generation.
func (b *Builder) ObjectGen(num, gen int, body string) *Builder {
	off := b.mark(num, gen)
	fmt.Fprintf(&b.buf, "%d %d obj\n%s\nendobj\n", num, gen, body)
	b.offsets[num] = off
	return b
}

// Stream appends a stream object with raw data. dict holds the dictionary
// entries without brackets; /Length is added.
func (b *Builder) Stream(num int, dict string, data []byte) *Builder {
	off := b.mark(num, 0)
	fmt.Fprintf(&b.buf, "%d 0 obj\n<<%s /Length %d>>\nstream\n", num, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
	b.offsets[num] = off
	return b
}

// FlateStream appends a stream whose data is zlib-compressed.
func (b *Builder) FlateStream(num int, dict string, data []byte) *Builder {
	return b.Stream(num, dict+" /Filter /FlateDecode", Compress(data))
}

// ObjectStream appends a compressed object stream holding members, and
// records them as compressed entries of the current revision.
func (b *Builder) ObjectStream(num int, members ...Member) *Builder {
	var header, body strings.Builder
	for _, m := range members {
		fmt.Fprintf(&header, "%d %d ", m.Num, body.Len())
		body.WriteString(m.Body)
		body.WriteString("\n")
	}
	dict := fmt.Sprintf(" /Type /ObjStm /N %d /First %d", len(members), header.Len())
	b.FlateStream(num, dict, []byte(header.String()+body.String()))
	for i, m := range members {
		b.pending[m.Num] = core.InStreamEntry(num, i)
		b.grow(m.Num)
	}
	return b
}

// Free marks num as free in the current revision.
func (b *Builder) Free(num, gen int) *Builder {
	b.pending[num] = core.FreeEntry(0, gen)
	b.grow(num)
	return b
}

// Offset returns the offset of the latest definition of num.
func (b *Builder) Offset(num int) int64 {
	return b.offsets[num]
}

// Len returns the current file length.
func (b *Builder) Len() int64 {
	return int64(b.buf.Len())
}

// Bytes returns a copy of the file.
func (b *Builder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// Reader returns the file as an io.ReaderAt with its size.
func (b *Builder) Reader() (*bytes.Reader, int64) {
	data := b.Bytes()
	return bytes.NewReader(data), int64(len(data))
}

// Table closes the revision with a classic xref table. trailer holds extra
// trailer entries such as "/Root 1 0 R"; /Size and /Prev are added.
// Compressed entries cannot be listed in a table and are dropped; use
// HybridTable for them.
func (b *Builder) Table(trailer string) *Builder {
	entries := b.take()
	for num, e := range entries {
		if e.Kind == core.EntryInStream {
			delete(entries, num)
		}
	}
	off := b.Len()
	b.buf.WriteString("xref\n")
	for _, run := range runs(entries) {
		fmt.Fprintf(&b.buf, "%d %d\n", run[0], len(run))
		for _, num := range run {
			e := entries[num]
			switch e.Kind {
			case core.EntryInUse:
				fmt.Fprintf(&b.buf, "%010d %05d n\r\n", e.Offset, e.Generation)
			case core.EntryFree:
				fmt.Fprintf(&b.buf, "%010d %05d f\r\n", e.NextFree, e.Generation)
			}
		}
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d%s %s >>\n", b.maxNum+1, b.prevKey(), trailer)
	b.finish(off)
	return b
}

// XRefStream closes the revision with a compressed xref stream stored as
// object num.
func (b *Builder) XRefStream(num int, trailer string) *Builder {
	off := b.mark(num, 0)
	b.offsets[num] = off
	entries := b.take()
	b.writeXRefStream(num, off, entries, fmt.Sprintf(" /Size %d%s %s", b.maxNum+1, b.prevKey(), trailer))
	b.finish(off)
	return b
}

// HybridTable closes the revision with a classic table for uncompressed
// objects plus an xref stream (object streamNum) for compressed ones,
// linked through /XRefStm.
func (b *Builder) HybridTable(streamNum int, trailer string) *Builder {
	compressed := make(map[int]core.XRefEntry)
	for num, e := range b.pending {
		if e.Kind == core.EntryInStream {
			compressed[num] = e
			delete(b.pending, num)
		}
	}
	off := b.mark(streamNum, 0)
	b.offsets[streamNum] = off
	b.writeXRefStream(streamNum, off, compressed, fmt.Sprintf(" /Size %d", b.maxNum+1))
	return b.Table(fmt.Sprintf("/XRefStm %d %s", off, trailer))
}

func (b *Builder) writeXRefStream(num int, off int64, entries map[int]core.XRefEntry, trailer string) {
	var data bytes.Buffer
	var index []string
	for _, run := range runs(entries) {
		index = append(index, fmt.Sprintf("%d %d", run[0], len(run)))
		for _, n := range run {
			e := entries[n]
			var typ byte
			var f2, f3 int
			switch e.Kind {
			case core.EntryFree:
				typ, f2, f3 = 0, e.NextFree, e.Generation
			case core.EntryInUse:
				typ, f2, f3 = 1, int(e.Offset), e.Generation
			case core.EntryInStream:
				typ, f2, f3 = 2, e.Container, e.Index
			}
			data.WriteByte(typ)
			data.Write(binary.BigEndian.AppendUint32(nil, uint32(f2)))
			data.Write(binary.BigEndian.AppendUint16(nil, uint16(f3)))
		}
	}
	packed := Compress(data.Bytes())
	fmt.Fprintf(&b.buf, "%d 0 obj\n<</Type /XRef /W [1 4 2] /Index [%s] /Filter /FlateDecode%s /Length %d>>\nstream\n",
		num, strings.Join(index, " "), trailer, len(packed))
	b.buf.Write(packed)
	b.buf.WriteString("\nendstream\nendobj\n")
}

// mark records an in-use entry for num at the current offset.
func (b *Builder) mark(num, gen int) int64 {
	off := b.Len()
	b.pending[num] = core.InUseEntry(off, gen)
	b.grow(num)
	return off
}

func (b *Builder) grow(num int) {
	if num > b.maxNum {
		b.maxNum = num
	}
}

// take returns and clears the pending entries, adding object 0 to the first
// revision.
func (b *Builder) take() map[int]core.XRefEntry {
	entries := b.pending
	if b.first {
		entries[0] = core.FreeEntry(0, 65535)
	}
	b.pending = make(map[int]core.XRefEntry)
	return entries
}

func (b *Builder) prevKey() string {
	if b.prevXRef < 0 {
		return ""
	}
	return fmt.Sprintf(" /Prev %d", b.prevXRef)
}

func (b *Builder) finish(xrefOffset int64) {
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	b.prevXRef = xrefOffset
	b.first = false
}

// runs groups the entry numbers into ascending contiguous subsections.
func runs(entries map[int]core.XRefEntry) [][]int {
	nums := make([]int, 0, len(entries))
	for n := range entries {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	var out [][]int
	for _, n := range nums {
		if k := len(out); k > 0 && out[k-1][len(out[k-1])-1] == n-1 {
			out[k-1] = append(out[k-1], n)
			continue
		}
		out = append(out, []int{n})
	}
	return out
}

// Compress returns data in zlib format.
func Compress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}
