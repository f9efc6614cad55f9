package core

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidObjectStream reports a /Type /ObjStm container whose dictionary
// or header is unusable.
var ErrInvalidObjectStream = errors.New("invalid object stream")

// ObjectStream is a decoded /Type /ObjStm container: N objects addressed by
// index, preceded by a header of "number offset" pairs. Offsets are relative
// to /First.
type ObjectStream struct {
	n       int
	first   int
	extends *IndirectRef
	data    []byte
	entries []objectStreamEntry

	mu      sync.Mutex
	objects map[int]Object
}

type objectStreamEntry struct {
	number int
	offset int
}

// ParseObjectStream validates the container dictionary and parses the header
// of its decoded bytes. Objects are parsed lazily by ObjectAt.
func ParseObjectStream(dict Dict, decoded []byte, limits Limits) (*ObjectStream, error) {
	limits = limits.WithDefaults()

	if typ, _ := dict.GetName("Type"); typ != "ObjStm" {
		return nil, fmt.Errorf("%w: /Type is %v, want /ObjStm", ErrInvalidObjectStream, dict.Get("Type"))
	}
	n, ok := dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("%w: missing or invalid /N", ErrInvalidObjectStream)
	}
	if int64(n) > int64(limits.MaxObjectStreamObjects) {
		return nil, fmt.Errorf("%w: /N %d exceeds limit %d", ErrInvalidObjectStream, n, limits.MaxObjectStreamObjects)
	}
	first, ok := dict.GetInt("First")
	if !ok || first < 0 || int64(first) > int64(len(decoded)) {
		return nil, fmt.Errorf("%w: /First %v outside decoded data of %d bytes", ErrInvalidObjectStream, dict.Get("First"), len(decoded))
	}

	os := &ObjectStream{
		n:       int(n),
		first:   int(first),
		data:    decoded,
		objects: make(map[int]Object),
	}
	if ref, ok := dict.GetIndirectRef("Extends"); ok {
		os.extends = &ref
	}
	if err := os.parseHeader(); err != nil {
		return nil, err
	}
	return os, nil
}

// parseHeader reads N pairs of integers from the bytes before /First.
func (os *ObjectStream) parseHeader() error {
	parser := NewParser(bytes.NewReader(os.data[:os.first]))
	os.entries = make([]objectStreamEntry, 0, os.n)

	for i := 0; i < os.n; i++ {
		num, err := parser.ParseObject()
		if err != nil {
			return fmt.Errorf("%w: header pair %d: %v", ErrInvalidObjectStream, i, err)
		}
		off, err := parser.ParseObject()
		if err != nil {
			return fmt.Errorf("%w: header pair %d: %v", ErrInvalidObjectStream, i, err)
		}
		numInt, ok1 := num.(Int)
		offInt, ok2 := off.(Int)
		if !ok1 || !ok2 || numInt < 0 || offInt < 0 {
			return fmt.Errorf("%w: header pair %d is %v %v", ErrInvalidObjectStream, i, num, off)
		}
		if int64(os.first)+int64(offInt) > int64(len(os.data)) {
			return fmt.Errorf("%w: object %d offset %d beyond data", ErrInvalidObjectStream, numInt, offInt)
		}
		os.entries = append(os.entries, objectStreamEntry{number: int(numInt), offset: int(offInt)})
	}
	return nil
}

// N returns the declared number of objects.
func (os *ObjectStream) N() int { return os.n }

// First returns the offset of the first object in the decoded data.
func (os *ObjectStream) First() int { return os.first }

// Extends returns the /Extends reference, or nil.
func (os *ObjectStream) Extends() *IndirectRef { return os.extends }

// ObjectAt parses the object stored at index and returns it with the
// object number the header records for that index.
func (os *ObjectStream) ObjectAt(index int) (Object, int, error) {
	if index < 0 || index >= len(os.entries) {
		return nil, 0, fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidObjectStream, index, len(os.entries))
	}
	entry := os.entries[index]

	os.mu.Lock()
	defer os.mu.Unlock()
	if obj, ok := os.objects[index]; ok {
		return obj, entry.number, nil
	}

	start := os.first + entry.offset
	end := len(os.data)
	if index+1 < len(os.entries) {
		if next := os.first + os.entries[index+1].offset; next >= start && next < end {
			end = next
		}
	}

	parser := NewParser(bytes.NewReader(os.data[start:end]))
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, entry.number, fmt.Errorf("object at index %d: %w", index, err)
	}
	os.objects[index] = obj
	return obj, entry.number, nil
}

// Number returns the object number recorded at index.
func (os *ObjectStream) Number(index int) (int, bool) {
	if index < 0 || index >= len(os.entries) {
		return 0, false
	}
	return os.entries[index].number, true
}

// Numbers returns the object numbers in header order.
func (os *ObjectStream) Numbers() []int {
	nums := make([]int, len(os.entries))
	for i, e := range os.entries {
		nums[i] = e.number
	}
	return nums
}

// IndexOf returns the index holding object number num, or -1.
func (os *ObjectStream) IndexOf(num int) int {
	for i, e := range os.entries {
		if e.number == num {
			return i
		}
	}
	return -1
}
