package core

import (
	"errors"
	"testing"
)

func objStmDict(n, first int) Dict {
	return Dict{"Type": Name("ObjStm"), "N": Int(n), "First": Int(first)}
}

// TestParseObjectStream tests header parsing and indexed extraction
func TestParseObjectStream(t *testing.T) {
	header := "10 0 11 8 12 15 "
	body := "<</A 1>>[1 2 3]42"
	data := []byte(header + body)

	os, err := ParseObjectStream(objStmDict(3, len(header)), data, Limits{})
	if err != nil {
		t.Fatalf("ParseObjectStream: %v", err)
	}
	if os.N() != 3 || os.First() != len(header) {
		t.Errorf("N=%d First=%d", os.N(), os.First())
	}
	if got := os.Numbers(); len(got) != 3 || got[0] != 10 || got[2] != 12 {
		t.Errorf("Numbers() = %v", got)
	}
	if os.IndexOf(11) != 1 || os.IndexOf(99) != -1 {
		t.Error("IndexOf mismatch")
	}

	tests := []struct {
		index   int
		wantNum int
		want    string
	}{
		{0, 10, "<</A 1>>"},
		{1, 11, "[1 2 3]"},
		{2, 12, "42"},
	}
	for _, tt := range tests {
		obj, num, err := os.ObjectAt(tt.index)
		if err != nil {
			t.Fatalf("ObjectAt(%d): %v", tt.index, err)
		}
		if num != tt.wantNum {
			t.Errorf("ObjectAt(%d) number = %d, want %d", tt.index, num, tt.wantNum)
		}
		if obj.String() != tt.want {
			t.Errorf("ObjectAt(%d) = %s, want %s", tt.index, obj, tt.want)
		}
	}

	// cached objects come back identical
	a, _, _ := os.ObjectAt(1)
	b, _, _ := os.ObjectAt(1)
	if a.(Array)[0] != b.(Array)[0] {
		t.Error("cached object differs")
	}

	if _, _, err := os.ObjectAt(3); !errors.Is(err, ErrInvalidObjectStream) {
		t.Errorf("out of range index error = %v", err)
	}
}

// TestParseObjectStreamExtends tests that /Extends is recorded
func TestParseObjectStreamExtends(t *testing.T) {
	dict := objStmDict(1, 4)
	dict["Extends"] = IndirectRef{Number: 20}
	os, err := ParseObjectStream(dict, []byte("5 0 true"), Limits{})
	if err != nil {
		t.Fatalf("ParseObjectStream: %v", err)
	}
	if os.Extends() == nil || os.Extends().Number != 20 {
		t.Errorf("Extends() = %v", os.Extends())
	}
}

// TestParseObjectStreamErrors tests invalid containers
func TestParseObjectStreamErrors(t *testing.T) {
	tests := []struct {
		name string
		dict Dict
		data string
	}{
		{"wrong type", Dict{"Type": Name("XRef"), "N": Int(1), "First": Int(4)}, "1 0 2"},
		{"missing N", Dict{"Type": Name("ObjStm"), "First": Int(4)}, "1 0 2"},
		{"negative N", objStmDict(-1, 0), ""},
		{"first beyond data", objStmDict(1, 100), "1 0 2"},
		{"short header", objStmDict(2, 4), "1 0 2"},
		{"non-integer header", objStmDict(1, 6), "/A /B 2"},
		{"offset beyond data", objStmDict(1, 6), "1 500 2"},
		{"N over limit", objStmDict(1<<21, 0), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseObjectStream(tt.dict, []byte(tt.data), Limits{})
			if !errors.Is(err, ErrInvalidObjectStream) {
				t.Errorf("expected ErrInvalidObjectStream, got %v", err)
			}
		})
	}
}
