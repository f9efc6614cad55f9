package core

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

// TestObjectType tests the String method of ObjectType
func TestObjectType(t *testing.T) {
	tests := []struct {
		obj  Object
		want string
	}{
		{Null{}, "Null"},
		{Bool(true), "Bool"},
		{Int(1), "Int"},
		{Real(1.5), "Real"},
		{String("s"), "String"},
		{Name("N"), "Name"},
		{Array{}, "Array"},
		{Dict{}, "Dict"},
		{NewStream(nil, nil), "Stream"},
		{IndirectRef{Number: 1}, "IndirectRef"},
	}

	for _, tt := range tests {
		if got := tt.obj.Type().String(); got != tt.want {
			t.Errorf("%T: got %s, want %s", tt.obj, got, tt.want)
		}
	}
	if got := ObjectType(99).String(); got != "Unknown" {
		t.Errorf("unknown type: got %s", got)
	}
}

// TestObjectID tests ordering and formatting of object ids
func TestObjectID(t *testing.T) {
	a := ObjectID{Number: 3, Generation: 0}
	b := ObjectID{Number: 3, Generation: 1}
	c := ObjectID{Number: 10, Generation: 0}

	if !a.Less(b) || !b.Less(c) || c.Less(a) || a.Less(a) {
		t.Error("unexpected ordering")
	}
	if a.String() != "3 0" {
		t.Errorf("String() = %q", a.String())
	}
	if ref := b.Ref(); ref.String() != "3 1 R" || ref.ID() != b {
		t.Errorf("Ref() = %v", ref)
	}
}

// TestDictAccessors tests the typed getters
func TestDictAccessors(t *testing.T) {
	d := Dict{
		"Int":  Int(4),
		"Name": Name("X"),
		"Arr":  Array{Int(1), Name("Y")},
		"Sub":  Dict{"K": Bool(true)},
		"Ref":  IndirectRef{Number: 5},
		"Str":  String("abc"),
	}

	if v, ok := d.GetInt("Int"); !ok || v != 4 {
		t.Errorf("GetInt = %v, %v", v, ok)
	}
	if _, ok := d.GetInt("Name"); ok {
		t.Error("GetInt on a name should fail")
	}
	if v, ok := d.GetName("Name"); !ok || v != "X" {
		t.Errorf("GetName = %v, %v", v, ok)
	}
	if arr, ok := d.GetArray("Arr"); !ok || arr.Len() != 2 {
		t.Errorf("GetArray = %v, %v", arr, ok)
	} else if n, ok := arr.GetName(1); !ok || n != "Y" {
		t.Errorf("arr.GetName(1) = %v", n)
	}
	if sub, ok := d.GetDict("Sub"); !ok || !sub.Has("K") {
		t.Errorf("GetDict = %v, %v", sub, ok)
	}
	if _, ok := d.GetDict("Missing"); ok {
		t.Error("GetDict on a missing key should fail")
	}
	if s, ok := d.GetString("Str"); !ok || s.Text() != "abc" {
		t.Errorf("GetString = %v", s)
	}

	clone := d.Clone()
	clone.Delete("Int")
	if !d.Has("Int") {
		t.Error("Clone should not alias the original")
	}
	if got := len(d.Keys()); got != 6 {
		t.Errorf("Keys() length = %d", got)
	}
}

// TestAccessors tests the total As* accessors
func TestAccessors(t *testing.T) {
	if _, err := AsDict(Int(1)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("AsDict(Int) error = %v", err)
	}
	if d, err := AsDict(Dict{"A": Int(1)}); err != nil || !d.Has("A") {
		t.Errorf("AsDict(Dict) = %v, %v", d, err)
	}
	if _, err := AsStream(Dict{}); err == nil {
		t.Error("AsStream(Dict) should fail")
	}
	if _, err := AsStream((*Stream)(nil)); err == nil {
		t.Error("AsStream(nil stream) should fail")
	}
	if n, err := AsNumber(Int(3)); err != nil || n != 3 {
		t.Errorf("AsNumber(Int) = %v, %v", n, err)
	}
	if n, err := AsNumber(Real(2.5)); err != nil || n != 2.5 {
		t.Errorf("AsNumber(Real) = %v, %v", n, err)
	}
	if _, err := AsRef(nil); err == nil {
		t.Error("AsRef(nil) should fail")
	}

	var te *TypeError
	_, err := AsArray(Name("x"))
	if !errors.As(err, &te) || te.Want != ObjArray {
		t.Fatalf("expected *TypeError wanting Array, got %v", err)
	}
	if te.Error() != "expected Array, got Name" {
		t.Errorf("Error() = %q", te.Error())
	}
	if !IsNull(nil) || !IsNull(Null{}) || IsNull(Int(0)) {
		t.Error("IsNull mismatch")
	}
}

// TestStreamDecodedCache tests that a stream decodes once and caches only successes
func TestStreamDecodedCache(t *testing.T) {
	s := NewStream(Dict{"Length": Int(3)}, []byte("abc"))
	if s.Offset != -1 {
		t.Errorf("Offset = %d, want -1", s.Offset)
	}

	failing := func(*Stream) ([]byte, error) { return nil, ErrFilterDecode }
	if _, err := s.Decoded(failing); !errors.Is(err, ErrFilterDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if s.IsDecoded() {
		t.Fatal("failed decode must not be cached")
	}

	var calls int32
	upper := func(st *Stream) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("ABC"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.Decoded(upper)
			if err != nil || string(out) != "ABC" {
				t.Errorf("Decoded = %q, %v", out, err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("decode ran %d times, want 1", calls)
	}
}

// TestTextString tests text string decoding
func TestTextString(t *testing.T) {
	tests := []struct {
		name string
		in   String
		want string
	}{
		{"ascii", String("Hello"), "Hello"},
		{"utf16be", String("\xfe\xff\x00H\x00i\x20\x14"), "Hi—"},
		{"utf8 bom", String("\xef\xbb\xbfcafé"), "café"},
		{"pdfdoc bullet", String("\x80 x"), "• x"},
		{"latin1", String("caf\xe9"), "café"},
		{"euro", String("\xa0"), "€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}
