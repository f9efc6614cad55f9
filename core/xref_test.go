package core

import (
	"errors"
	"testing"
)

// TestXRefTableApply tests override semantics across sections
func TestXRefTableApply(t *testing.T) {
	original := NewXRefSection(SectionTable, 100)
	original.Entries[1] = InUseEntry(10, 0)
	original.Entries[2] = InUseEntry(20, 0)
	original.Entries[3] = InUseEntry(30, 0)
	original.Trailer = Dict{"Size": Int(4), "Root": IndirectRef{Number: 1}}

	update := NewXRefSection(SectionStream, 500)
	update.Entries[2] = FreeEntry(0, 1)
	update.Entries[3] = InStreamEntry(7, 2)
	update.Trailer = Dict{
		"Size":   Int(8),
		"Prev":   Int(100),
		"Type":   Name("XRef"),
		"W":      Array{Int(1), Int(2), Int(1)},
		"Filter": Name("FlateDecode"),
		"Length": Int(40),
	}

	table := NewXRefTable()
	table.Apply(original)
	table.Apply(update)

	if n, _ := table.Trailer.GetInt("Size"); n != 8 {
		t.Errorf("Size = %d, want newest value 8", n)
	}
	if !table.Trailer.Has("Root") {
		t.Error("Root from the original trailer should survive")
	}
	for _, k := range []string{"Type", "W", "Filter", "Length"} {
		if table.Trailer.Has(k) {
			t.Errorf("stream key /%s leaked into merged trailer", k)
		}
	}

	tests := []struct {
		name    string
		id      ObjectID
		want    EntryKind
		wantErr error
	}{
		{"untouched", ObjectID{1, 0}, EntryInUse, nil},
		{"freed", ObjectID{2, 0}, EntryFree, ErrObjectFreed},
		{"moved into stream", ObjectID{3, 0}, EntryInStream, nil},
		{"stream gen mismatch", ObjectID{3, 1}, EntryInStream, ErrObjectNotFound},
		{"never defined", ObjectID{9, 0}, 0, ErrObjectNotFound},
		{"object zero", ObjectID{0, 65535}, 0, ErrObjectFreed},
		{"negative", ObjectID{-1, 0}, 0, ErrObjectNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := table.Lookup(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Lookup(%v) error = %v, want %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr == nil && entry.Kind != tt.want {
				t.Errorf("Lookup(%v) kind = %v, want %v", tt.id, entry.Kind, tt.want)
			}
		})
	}

	if got := table.Numbers(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("Numbers() = %v", got)
	}
}

// TestXRefTableGenerationMismatch tests that a stale generation is not found
func TestXRefTableGenerationMismatch(t *testing.T) {
	table := NewXRefTable()
	table.Set(4, InUseEntry(400, 2))

	if _, err := table.Lookup(ObjectID{4, 2}); err != nil {
		t.Fatalf("live generation: %v", err)
	}
	if _, err := table.Lookup(ObjectID{4, 0}); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("stale generation error = %v", err)
	}
}

// TestXRefEntryString tests entry formatting
func TestXRefEntryString(t *testing.T) {
	tests := []struct {
		entry XRefEntry
		want  string
	}{
		{InUseEntry(15, 0), "in-use offset=15 gen=0"},
		{InStreamEntry(9, 3), "in-stream container=9 index=3"},
		{FreeEntry(0, 65535), "free next=0 gen=65535"},
		{XRefEntry{Kind: EntryUnsupported, TypeNum: 7}, "unsupported type=7"},
	}
	for _, tt := range tests {
		if got := tt.entry.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
	if id := InStreamEntry(9, 3).ContainerID(); id != (ObjectID{9, 0}) {
		t.Errorf("ContainerID() = %v", id)
	}
}

// TestParseTrailer tests the typed trailer view
func TestParseTrailer(t *testing.T) {
	d := Dict{
		"Size":    Int(22),
		"Root":    IndirectRef{Number: 1},
		"Info":    IndirectRef{Number: 2},
		"Prev":    Int(1234),
		"XRefStm": Real(99),
		"ID":      Array{String("a"), String("b")},
		"Encrypt": IndirectRef{Number: 30},
	}
	tr, err := ParseTrailer(d)
	if err != nil {
		t.Fatalf("ParseTrailer: %v", err)
	}
	if tr.Size != 22 || tr.Root.Number != 1 || tr.Info.Number != 2 {
		t.Errorf("unexpected trailer %+v", tr)
	}
	if tr.Prev != 1234 || tr.XRefStm != 99 {
		t.Errorf("Prev=%d XRefStm=%d", tr.Prev, tr.XRefStm)
	}
	if len(tr.ID) != 2 || !tr.Encrypted() {
		t.Errorf("ID=%v encrypted=%v", tr.ID, tr.Encrypted())
	}

	empty, err := ParseTrailer(Dict{})
	if err != nil {
		t.Fatalf("empty trailer: %v", err)
	}
	if empty.Prev != -1 || empty.XRefStm != -1 || empty.Root != nil || empty.Encrypted() {
		t.Errorf("unexpected empty trailer %+v", empty)
	}

	bad := []Dict{
		{"Size": Name("x")},
		{"Root": Int(1)},
		{"Prev": Name("x")},
		{"Prev": Int(-5)},
	}
	for _, d := range bad {
		if _, err := ParseTrailer(d); err == nil {
			t.Errorf("ParseTrailer(%v) should fail", d)
		}
	}
}
