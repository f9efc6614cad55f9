package xref

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/filter"
)

var (
	objHeader  = regexp.MustCompile(`(\d{1,10})[ \t\r\n\f\x00]+(\d{1,5})[ \t\r\n\f\x00]+obj\b`)
	trailerKey = regexp.MustCompile(`trailer[ \t\r\n\f\x00]*<<`)
)

// Recover rebuilds a cross-reference table by scanning the whole file.
//
// Every "N G obj" header becomes an in-use entry; a later definition of the
// same number replaces an earlier one. Objects inside recovered object
// streams are added as compressed entries unless they are defined directly.
// Trailer dictionaries are merged in file order. Without any trailer, the
// dictionaries of recovered xref streams serve instead, and failing that a
// trailer is synthesized whose /Root is the last catalog found. Recover fails
// only when the file holds no objects at all.
func Recover(src io.ReaderAt, size int64, pipeline *filter.Pipeline, limits core.Limits) (*Result, error) {
	limits = limits.WithDefaults()
	if pipeline == nil {
		pipeline = filter.New(nil, filter.WithLimits(limits))
	}
	data := make([]byte, size)
	if _, err := src.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read file: %w", err)
	}

	section := core.NewXRefSection(core.SectionTable, 0)
	res := &Result{StartXRef: -1, Recovered: true}
	if start, err := FindStartXRef(src, size); err == nil {
		res.StartXRef = start
	}

	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		if m[0] > 0 && !isSpace(data[m[0]-1]) && !isDelim(data[m[0]-1]) {
			continue
		}
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil || num == 0 {
			continue
		}
		section.Entries[num] = core.InUseEntry(int64(m[0]), gen)
	}
	if len(section.Entries) == 0 {
		return nil, fmt.Errorf("%w: no objects found while scanning the file", core.ErrMalformedXref)
	}

	trailer := core.Dict{}
	foundTrailer := false
	for _, m := range trailerKey.FindAllIndex(data, -1) {
		dict, err := parseDictAt(src, size, int64(m[1]-2), limits)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Errorf("recovered trailer at offset %d: %w", m[0], err))
			continue
		}
		for k, v := range dict {
			trailer[k] = v
		}
		foundTrailer = true
	}

	// Look at every object once to find containers, xref streams and
	// catalogs.
	var xrefDicts []core.Dict
	lastCatalog := -1
	direct := make(map[int]bool, len(section.Entries))
	nums := make([]int, 0, len(section.Entries))
	for num := range section.Entries {
		direct[num] = true
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool {
		return section.Entries[nums[i]].Offset < section.Entries[nums[j]].Offset
	})

	for _, num := range nums {
		entry := section.Entries[num]
		obj, err := parseRecovered(data, entry.Offset, limits)
		if err != nil {
			res.Warnings = append(res.Warnings, &core.ObjectError{
				ID: core.ObjectID{Number: num, Generation: entry.Generation}, Offset: entry.Offset, Err: err})
			continue
		}
		var dict core.Dict
		switch v := obj.(type) {
		case core.Dict:
			dict = v
		case *core.Stream:
			dict = v.Dict
		default:
			continue
		}
		switch typ, _ := dict.GetName("Type"); typ {
		case "Catalog":
			lastCatalog = num
		case "XRef":
			xrefDicts = append(xrefDicts, dict)
		case "ObjStm":
			stream, ok := obj.(*core.Stream)
			if !ok {
				continue
			}
			if err := relinkContainer(section, direct, num, stream, pipeline, limits); err != nil {
				res.Warnings = append(res.Warnings, &core.ObjectError{
					ID: core.ObjectID{Number: num}, Offset: entry.Offset, Err: err})
			}
		}
	}

	if !foundTrailer {
		for _, d := range xrefDicts {
			for k, v := range d {
				trailer[k] = v
			}
		}
	}
	if _, ok := trailer.GetIndirectRef("Root"); !ok && lastCatalog > 0 {
		trailer["Root"] = core.IndirectRef{Number: lastCatalog, Generation: section.Entries[lastCatalog].Generation}
	}
	maxNum := 0
	for num := range section.Entries {
		if num > maxNum {
			maxNum = num
		}
	}
	if n, ok := trailer.GetInt("Size"); !ok || int(n) <= maxNum {
		trailer["Size"] = core.Int(maxNum + 1)
	}
	trailer.Delete("Prev")
	trailer.Delete("XRefStm")
	section.Trailer = trailer

	res.Table = core.NewXRefTable()
	res.Table.Apply(section)
	res.Trailer = res.Table.Trailer
	res.Sections = []*core.XRefSection{section}
	return res, nil
}

// relinkContainer adds the members of an object stream that have no direct
// definition.
func relinkContainer(section *core.XRefSection, direct map[int]bool, num int, stream *core.Stream,
	pipeline *filter.Pipeline, limits core.Limits) error {
	decoded, err := pipeline.DecodeStream(stream)
	if err != nil {
		return err
	}
	container, err := core.ParseObjectStream(stream.Dict, decoded, limits)
	if err != nil {
		return err
	}
	for i, member := range container.Numbers() {
		if member <= 0 || direct[member] {
			continue
		}
		section.Entries[member] = core.InStreamEntry(num, i)
	}
	return nil
}

func parseRecovered(data []byte, offset int64, limits core.Limits) (core.Object, error) {
	p := core.NewParserAt(bytes.NewReader(data[offset:]), offset)
	p.SetLimits(limits)
	obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, err
	}
	return obj.Object, nil
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
