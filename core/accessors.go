package core

// Total accessors: each returns the value in the requested shape or a
// *TypeError. None of them follow references.

// AsDict returns obj as a dictionary.
func AsDict(obj Object) (Dict, error) {
	d, ok := obj.(Dict)
	if !ok {
		return nil, &TypeError{Want: ObjDict, Got: obj}
	}
	return d, nil
}

// AsStream returns obj as a stream.
func AsStream(obj Object) (*Stream, error) {
	s, ok := obj.(*Stream)
	if !ok || s == nil {
		return nil, &TypeError{Want: ObjStream, Got: obj}
	}
	return s, nil
}

// AsArray returns obj as an array.
func AsArray(obj Object) (Array, error) {
	a, ok := obj.(Array)
	if !ok {
		return nil, &TypeError{Want: ObjArray, Got: obj}
	}
	return a, nil
}

// AsInt returns obj as an integer.
func AsInt(obj Object) (int64, error) {
	i, ok := obj.(Int)
	if !ok {
		return 0, &TypeError{Want: ObjInt, Got: obj}
	}
	return int64(i), nil
}

// AsNumber returns an integer or real as a float64.
func AsNumber(obj Object) (float64, error) {
	switch v := obj.(type) {
	case Int:
		return float64(v), nil
	case Real:
		return float64(v), nil
	}
	return 0, &TypeError{Want: ObjReal, Got: obj}
}

// AsName returns obj as a name.
func AsName(obj Object) (Name, error) {
	n, ok := obj.(Name)
	if !ok {
		return "", &TypeError{Want: ObjName, Got: obj}
	}
	return n, nil
}

// AsString returns obj as a string.
func AsString(obj Object) (String, error) {
	s, ok := obj.(String)
	if !ok {
		return "", &TypeError{Want: ObjString, Got: obj}
	}
	return s, nil
}

// AsBool returns obj as a boolean.
func AsBool(obj Object) (bool, error) {
	b, ok := obj.(Bool)
	if !ok {
		return false, &TypeError{Want: ObjBool, Got: obj}
	}
	return bool(b), nil
}

// AsRef returns obj as a reference.
func AsRef(obj Object) (IndirectRef, error) {
	r, ok := obj.(IndirectRef)
	if !ok {
		return IndirectRef{}, &TypeError{Want: ObjIndirect, Got: obj}
	}
	return r, nil
}

// IsNull reports whether obj is absent or the null object.
func IsNull(obj Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(Null)
	return ok
}
