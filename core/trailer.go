package core

import "fmt"

// TrailerInfo is a typed view of the standard trailer keys.
type TrailerInfo struct {
	Size    int
	Root    *IndirectRef
	Info    *IndirectRef
	Encrypt Object // reference or direct dictionary; nil when absent
	ID      []String
	Prev    int64 // -1 when absent
	XRefStm int64 // -1 when absent
}

// Encrypted reports whether the trailer names an encryption dictionary.
func (t TrailerInfo) Encrypted() bool {
	return t.Encrypt != nil
}

// ParseTrailer reads the standard keys of a trailer dictionary. Unknown keys
// are ignored; known keys of the wrong type are an error.
func ParseTrailer(d Dict) (TrailerInfo, error) {
	t := TrailerInfo{Prev: -1, XRefStm: -1}

	if obj := d.Get("Size"); obj != nil {
		n, err := AsInt(obj)
		if err != nil || n < 0 {
			return t, fmt.Errorf("trailer /Size: invalid value %v", obj)
		}
		t.Size = int(n)
	}
	if obj := d.Get("Root"); obj != nil {
		ref, err := AsRef(obj)
		if err != nil {
			return t, fmt.Errorf("trailer /Root: %w", err)
		}
		t.Root = &ref
	}
	if obj := d.Get("Info"); obj != nil {
		if ref, err := AsRef(obj); err == nil {
			t.Info = &ref
		}
	}
	if obj := d.Get("Encrypt"); obj != nil {
		t.Encrypt = obj
	}
	if arr, ok := d.GetArray("ID"); ok {
		for _, v := range arr {
			if s, ok := v.(String); ok {
				t.ID = append(t.ID, s)
			}
		}
	}
	var err error
	if t.Prev, err = offsetKey(d, "Prev"); err != nil {
		return t, err
	}
	if t.XRefStm, err = offsetKey(d, "XRefStm"); err != nil {
		return t, err
	}
	return t, nil
}

func offsetKey(d Dict, key string) (int64, error) {
	obj := d.Get(key)
	if obj == nil {
		return -1, nil
	}
	switch v := obj.(type) {
	case Int:
		if v < 0 {
			return -1, fmt.Errorf("trailer /%s: negative offset %d", key, v)
		}
		return int64(v), nil
	case Real:
		// some producers write offsets as reals
		if v < 0 {
			return -1, fmt.Errorf("trailer /%s: negative offset %v", key, v)
		}
		return int64(v), nil
	}
	return -1, fmt.Errorf("trailer /%s: %w", key, &TypeError{Want: ObjInt, Got: obj})
}
