package xref

import (
	"fmt"
	"io"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/filter"
)

// parseStreamSection reads an xref stream object starting at offset.
func parseStreamSection(src io.ReaderAt, size, offset int64, pipeline *filter.Pipeline, limits core.Limits) (*core.XRefSection, error) {
	section, err := readStreamSection(src, size, offset, pipeline, limits)
	if err != nil {
		return nil, &core.XRefError{Offset: offset, Err: err}
	}
	return section, nil
}

func readStreamSection(src io.ReaderAt, size, offset int64, pipeline *filter.Pipeline, limits core.Limits) (*core.XRefSection, error) {
	p := core.NewParserAt(io.NewSectionReader(src, offset, size-offset), offset)
	p.SetLimits(limits)
	obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedXref, err)
	}
	stream, ok := obj.Object.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("%w: object %s is a %s, not an xref stream", core.ErrMalformedXref, obj.ID, obj.Object.Type())
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "XRef" {
		return nil, fmt.Errorf("%w: object %s has /Type %q, want /XRef", core.ErrMalformedXref, obj.ID, typ)
	}

	data, err := pipeline.DecodeStream(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedXref, err)
	}
	section := core.NewXRefSection(core.SectionStream, offset)
	section.StreamID = obj.ID
	section.Trailer = stream.Dict
	if err := decodeStreamEntries(stream.Dict, data, section.Entries); err != nil {
		return nil, err
	}
	return section, nil
}

// decodeStreamEntries unpacks the binary rows of an xref stream according
// to /W and /Index.
func decodeStreamEntries(dict core.Dict, data []byte, entries map[int]core.XRefEntry) error {
	w, err := fieldWidths(dict)
	if err != nil {
		return err
	}
	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return fmt.Errorf("%w: /W describes empty rows", core.ErrMalformedXref)
	}

	sizeObj := dict.Get("Size")
	if sizeObj == nil {
		return fmt.Errorf("%w: missing /Size", core.ErrMalformedXref)
	}
	size, err := core.AsInt(sizeObj)
	if err != nil || size < 0 {
		return fmt.Errorf("%w: invalid /Size %v", core.ErrMalformedXref, sizeObj)
	}

	index := [][2]int64{{0, size}}
	if obj := dict.Get("Index"); obj != nil {
		if index, err = indexPairs(obj); err != nil {
			return err
		}
	}

	rows := int64(len(data) / rowLen)
	pos := 0
	for _, sub := range index {
		start, count := sub[0], sub[1]
		if count > rows {
			return fmt.Errorf("%w: subsection %d+%d needs %d rows, stream has %d",
				core.ErrMalformedXref, start, count, count, rows)
		}
		rows -= count
		for i := int64(0); i < count; i++ {
			row := data[pos : pos+rowLen]
			pos += rowLen

			typ := int64(1)
			if w[0] > 0 {
				typ = field(row[:w[0]])
			}
			f2 := field(row[w[0] : w[0]+w[1]])
			f3 := field(row[w[0]+w[1]:])

			num := int(start + i)
			switch typ {
			case 0:
				entries[num] = core.FreeEntry(int(f2), int(f3))
			case 1:
				entries[num] = core.InUseEntry(f2, int(f3))
			case 2:
				entries[num] = core.InStreamEntry(int(f2), int(f3))
			default:
				entries[num] = core.XRefEntry{Kind: core.EntryUnsupported, TypeNum: int(typ)}
			}
		}
	}
	return nil
}

func fieldWidths(dict core.Dict) ([3]int, error) {
	var w [3]int
	arr, ok := dict.GetArray("W")
	if !ok || len(arr) != 3 {
		return w, fmt.Errorf("%w: /W must be an array of three integers", core.ErrMalformedXref)
	}
	for i, v := range arr {
		n, err := core.AsInt(v)
		if err != nil || n < 0 || n > 8 {
			return w, fmt.Errorf("%w: /W[%d] = %v", core.ErrMalformedXref, i, v)
		}
		w[i] = int(n)
	}
	return w, nil
}

func indexPairs(obj core.Object) ([][2]int64, error) {
	arr, err := core.AsArray(obj)
	if err != nil || len(arr)%2 != 0 {
		return nil, fmt.Errorf("%w: /Index must hold pairs of integers", core.ErrMalformedXref)
	}
	pairs := make([][2]int64, 0, len(arr)/2)
	for i := 0; i < len(arr); i += 2 {
		start, err1 := core.AsInt(arr[i])
		count, err2 := core.AsInt(arr[i+1])
		if err1 != nil || err2 != nil || start < 0 || count < 0 || start > 1<<31-1-count {
			return nil, fmt.Errorf("%w: /Index pair %v %v", core.ErrMalformedXref, arr[i], arr[i+1])
		}
		pairs = append(pairs, [2]int64{start, count})
	}
	return pairs, nil
}

// field decodes a big-endian unsigned field.
func field(b []byte) int64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return int64(v)
}
