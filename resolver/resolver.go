package resolver

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// ObjectReader loads the object an indirect reference points to.
// *store.Store and *reader.Document implement it.
type ObjectReader interface {
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// ObjectResolver follows indirect references, either along a chain of
// references or through a whole object tree. It holds no per-call state and
// is safe for concurrent use when its reader is.
type ObjectResolver struct {
	reader   ObjectReader
	maxDepth int // nesting limit for ResolveDeep
	maxHops  int // chain limit for ResolveChain
}

// Option configures the resolver
type Option func(*ObjectResolver)

// WithMaxDepth sets the maximum recursion depth of ResolveDeep (default: 100)
func WithMaxDepth(depth int) Option {
	return func(r *ObjectResolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithMaxHops sets the maximum length of a reference chain (default: 32)
func WithMaxHops(hops int) Option {
	return func(r *ObjectResolver) {
		if hops > 0 {
			r.maxHops = hops
		}
	}
}

// WithLimits takes both limits from l.
func WithLimits(l core.Limits) Option {
	return func(r *ObjectResolver) {
		l = l.WithDefaults()
		r.maxDepth = l.MaxResolveDepth
		r.maxHops = l.MaxReferenceHops
	}
}

// NewResolver creates a new object resolver
func NewResolver(reader ObjectReader, opts ...Option) *ObjectResolver {
	d := core.DefaultLimits()
	r := &ObjectResolver{
		reader:   reader,
		maxDepth: d.MaxResolveDepth,
		maxHops:  d.MaxReferenceHops,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dereference follows obj one hop. Values other than references are
// returned unchanged.
func (r *ObjectResolver) Dereference(obj core.Object) (core.Object, error) {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj, nil
	}
	resolved, err := r.reader.ResolveReference(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference %s: %w", ref, err)
	}
	return resolved, nil
}

// ResolveChain follows references until it reaches a direct value. A chain
// longer than the hop limit, which includes every cycle, fails with
// core.ErrReferenceChainTooDeep.
func (r *ObjectResolver) ResolveChain(obj core.Object) (core.Object, error) {
	start := obj
	for hops := 0; ; hops++ {
		if _, ok := obj.(core.IndirectRef); !ok {
			return obj, nil
		}
		if hops == r.maxHops {
			return nil, fmt.Errorf("%w: %s still unresolved after %d hops", core.ErrReferenceChainTooDeep, start, hops)
		}
		var err error
		if obj, err = r.Dereference(obj); err != nil {
			return nil, err
		}
	}
}

// Resolve is ResolveChain: it resolves obj itself but not the references
// nested in dictionaries and arrays.
func (r *ObjectResolver) Resolve(obj core.Object) (core.Object, error) {
	return r.ResolveChain(obj)
}

// ResolveDeep returns a copy of obj with every nested reference replaced by
// its target. A reference back to an object already being expanded on the
// current branch (a /Parent link, say) is left in place. Nesting deeper than
// the depth limit fails with core.ErrReferenceChainTooDeep.
func (r *ObjectResolver) ResolveDeep(obj core.Object) (core.Object, error) {
	w := &walk{resolver: r, visiting: make(map[core.ObjectID]bool)}
	return w.resolve(obj, 0)
}

// walk is the state of one ResolveDeep call.
type walk struct {
	resolver *ObjectResolver
	visiting map[core.ObjectID]bool
}

func (w *walk) resolve(obj core.Object, depth int) (core.Object, error) {
	if depth >= w.resolver.maxDepth {
		return nil, fmt.Errorf("%w: maximum recursion depth (%d) exceeded", core.ErrReferenceChainTooDeep, w.resolver.maxDepth)
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		id := v.ID()
		if w.visiting[id] {
			return v, nil
		}
		w.visiting[id] = true
		// Unmark after we're done (allows the same object in different branches)
		defer delete(w.visiting, id)

		resolved, err := w.resolver.Dereference(v)
		if err != nil {
			return nil, err
		}
		return w.resolve(resolved, depth+1)

	case core.Dict:
		resolved := make(core.Dict, len(v))
		for key, value := range v {
			rv, err := w.resolve(value, depth+1)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve dict key %s: %w", key, err)
			}
			resolved[key] = rv
		}
		return resolved, nil

	case core.Array:
		resolved := make(core.Array, len(v))
		for i, elem := range v {
			re, err := w.resolve(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve array element %d: %w", i, err)
			}
			resolved[i] = re
		}
		return resolved, nil

	case *core.Stream:
		dict, err := w.resolve(v.Dict, depth+1)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve stream dict: %w", err)
		}
		out := core.NewStream(dict.(core.Dict), v.Data)
		out.Offset = v.Offset
		return out, nil

	default:
		return obj, nil
	}
}

// ResolveDict is a convenience method for resolving dictionaries
// It resolves the dictionary and all its values (deep resolution)
func (r *ObjectResolver) ResolveDict(dict core.Dict) (core.Dict, error) {
	resolved, err := r.ResolveDeep(dict)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Dict), nil
}

// ResolveArray is a convenience method for resolving arrays
// It resolves all elements in the array (deep resolution)
func (r *ObjectResolver) ResolveArray(arr core.Array) (core.Array, error) {
	resolved, err := r.ResolveDeep(arr)
	if err != nil {
		return nil, err
	}
	return resolved.(core.Array), nil
}

// ResolveDictValue dereferences d[key] along its chain and checks that the
// result is a dictionary. A missing key yields (nil, nil).
func (r *ObjectResolver) ResolveDictValue(d core.Dict, key string) (core.Dict, error) {
	v := d.Get(key)
	if v == nil {
		return nil, nil
	}
	obj, err := r.ResolveChain(v)
	if err != nil {
		return nil, fmt.Errorf("/%s: %w", key, err)
	}
	if core.IsNull(obj) {
		return nil, nil
	}
	dict, err := core.AsDict(obj)
	if err != nil {
		return nil, fmt.Errorf("/%s: %w", key, err)
	}
	return dict, nil
}
