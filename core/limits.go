package core

// Limits bounds the work done on untrusted input.
type Limits struct {
	// MaxXRefChain caps the number of cross-reference sections followed
	// through /Prev links.
	MaxXRefChain int
	// MaxReferenceHops caps the hops of a bounded dereference loop.
	MaxReferenceHops int
	// MaxResolveDepth caps recursion when resolving nested structures.
	MaxResolveDepth int
	// MaxNesting caps array and dictionary nesting in the parser.
	MaxNesting int
	// MaxDecodedSize caps the output of a single filter stage, in bytes.
	MaxDecodedSize int64
	// MaxObjectStreamObjects caps /N of an object stream.
	MaxObjectStreamObjects int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxXRefChain:           50,
		MaxReferenceHops:       32,
		MaxResolveDepth:        100,
		MaxNesting:             256,
		MaxDecodedSize:         100 << 20,
		MaxObjectStreamObjects: 1 << 20,
	}
}

// WithDefaults returns l with every non-positive field replaced by its default.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.MaxXRefChain <= 0 {
		l.MaxXRefChain = d.MaxXRefChain
	}
	if l.MaxReferenceHops <= 0 {
		l.MaxReferenceHops = d.MaxReferenceHops
	}
	if l.MaxResolveDepth <= 0 {
		l.MaxResolveDepth = d.MaxResolveDepth
	}
	if l.MaxNesting <= 0 {
		l.MaxNesting = d.MaxNesting
	}
	if l.MaxDecodedSize <= 0 {
		l.MaxDecodedSize = d.MaxDecodedSize
	}
	if l.MaxObjectStreamObjects <= 0 {
		l.MaxObjectStreamObjects = d.MaxObjectStreamObjects
	}
	return l
}
