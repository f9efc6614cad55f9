package core

import (
	"fmt"
	"sort"
)

// EntryKind tags a cross-reference entry.
type EntryKind int

const (
	// EntryFree marks a number that is not in use.
	EntryFree EntryKind = iota
	// EntryInUse locates an object by byte offset.
	EntryInUse
	// EntryInStream locates an object inside an object stream.
	EntryInStream
	// EntryUnsupported is an xref stream entry of a type this reader does
	// not know. Such objects read as null.
	EntryUnsupported
)

func (k EntryKind) String() string {
	switch k {
	case EntryFree:
		return "free"
	case EntryInUse:
		return "in-use"
	case EntryInStream:
		return "in-stream"
	case EntryUnsupported:
		return "unsupported"
	}
	return fmt.Sprintf("EntryKind(%d)", int(k))
}

// XRefEntry is one cross-reference entry. Which fields are meaningful
// depends on Kind.
type XRefEntry struct {
	Kind       EntryKind
	Offset     int64 // EntryInUse
	Generation int   // EntryInUse, EntryFree
	Container  int   // EntryInStream: object number of the container
	Index      int   // EntryInStream: index within the container
	NextFree   int   // EntryFree
	TypeNum    int   // EntryUnsupported: the raw type field
}

// InUseEntry returns an entry for an object stored at offset.
func InUseEntry(offset int64, gen int) XRefEntry {
	return XRefEntry{Kind: EntryInUse, Offset: offset, Generation: gen}
}

// InStreamEntry returns an entry for an object stored in a container.
func InStreamEntry(container, index int) XRefEntry {
	return XRefEntry{Kind: EntryInStream, Container: container, Index: index}
}

// FreeEntry returns a free entry.
func FreeEntry(nextFree, gen int) XRefEntry {
	return XRefEntry{Kind: EntryFree, NextFree: nextFree, Generation: gen}
}

// ContainerID returns the id of the container of an in-stream entry.
// Containers always have generation 0.
func (e XRefEntry) ContainerID() ObjectID {
	return ObjectID{Number: e.Container}
}

func (e XRefEntry) String() string {
	switch e.Kind {
	case EntryInUse:
		return fmt.Sprintf("in-use offset=%d gen=%d", e.Offset, e.Generation)
	case EntryInStream:
		return fmt.Sprintf("in-stream container=%d index=%d", e.Container, e.Index)
	case EntryFree:
		return fmt.Sprintf("free next=%d gen=%d", e.NextFree, e.Generation)
	}
	return fmt.Sprintf("unsupported type=%d", e.TypeNum)
}

// SectionKind distinguishes the two cross-reference syntaxes.
type SectionKind int

const (
	SectionTable SectionKind = iota
	SectionStream
)

func (k SectionKind) String() string {
	if k == SectionStream {
		return "stream"
	}
	return "table"
}

// XRefSection is one cross-reference section as read from the file.
type XRefSection struct {
	Kind     SectionKind
	Offset   int64
	StreamID ObjectID // SectionStream only
	Entries  map[int]XRefEntry
	Trailer  Dict
}

// NewXRefSection creates an empty section read from offset.
func NewXRefSection(kind SectionKind, offset int64) *XRefSection {
	return &XRefSection{
		Kind:    kind,
		Offset:  offset,
		Entries: make(map[int]XRefEntry),
		Trailer: make(Dict),
	}
}

// XRefTable is the merged cross-reference view of a document: one entry
// per object number and the merged trailer.
type XRefTable struct {
	Entries map[int]XRefEntry
	Trailer Dict
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum int) (XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or updates an XRef entry
func (x *XRefTable) Set(objNum int, entry XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// Numbers returns the object numbers with an entry, ascending.
func (x *XRefTable) Numbers() []int {
	nums := make([]int, 0, len(x.Entries))
	for n := range x.Entries {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// streamOnlyKeys describe an xref stream itself and never belong in the
// merged trailer.
var streamOnlyKeys = []string{"Type", "Length", "Filter", "DecodeParms", "W", "Index", "DL", "F", "FFilter", "FDecodeParms"}

// Apply overlays a section onto the table: its entries replace older entries
// for the same number and its trailer keys replace older keys.
func (x *XRefTable) Apply(s *XRefSection) {
	for num, entry := range s.Entries {
		x.Entries[num] = entry
	}
	for k, v := range s.Trailer {
		x.Trailer[k] = v
	}
	for _, k := range streamOnlyKeys {
		delete(x.Trailer, k)
	}
}

// Lookup returns the entry visible for id. A free entry yields
// ErrObjectFreed; a number that was never defined, or a generation that
// does not match the live entry, yields ErrObjectNotFound.
func (x *XRefTable) Lookup(id ObjectID) (XRefEntry, error) {
	if id.Number <= 0 {
		if id.Number == 0 {
			return XRefEntry{}, ErrObjectFreed
		}
		return XRefEntry{}, ErrObjectNotFound
	}
	entry, ok := x.Entries[id.Number]
	if !ok {
		return XRefEntry{}, ErrObjectNotFound
	}
	switch entry.Kind {
	case EntryFree:
		return entry, ErrObjectFreed
	case EntryInUse:
		if entry.Generation != id.Generation {
			return entry, fmt.Errorf("%w: live generation is %d", ErrObjectNotFound, entry.Generation)
		}
	case EntryInStream:
		if id.Generation != 0 {
			return entry, fmt.Errorf("%w: compressed objects have generation 0", ErrObjectNotFound)
		}
	}
	return entry, nil
}
