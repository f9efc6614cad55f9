package filter

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

var errExternalData = errors.New("external stream data (/F) is not supported")

// Stage is one filter application: a filter name and its decode parameters
// (nil when the stream gives none).
type Stage struct {
	Name   string
	Params core.Dict
}

// StagesFor extracts the filter chain from a stream dictionary. /Filter may
// be a name or an array of names; /DecodeParms a dictionary, null, or an
// array aligned with the filters. Indirect references among these values
// are followed through r, which may be nil for fully direct dictionaries,
// for at most the default MaxReferenceHops hops.
func StagesFor(dict core.Dict, r core.ReferenceResolver) ([]Stage, error) {
	return StagesWithLimits(dict, r, core.DefaultLimits())
}

// StagesWithLimits is StagesFor with reference chains bounded by
// l.MaxReferenceHops.
func StagesWithLimits(dict core.Dict, r core.ReferenceResolver, l core.Limits) ([]Stage, error) {
	maxHops := l.WithDefaults().MaxReferenceHops
	if dict.Has("F") {
		return nil, &core.FilterError{Stage: 0, Filter: "F", Kind: core.ErrUnsupportedFilter, Err: errExternalData}
	}

	filterObj, err := direct(dict.Get("Filter"), r, maxHops)
	if err != nil {
		return nil, &core.FilterError{Stage: 0, Filter: "Filter", Kind: core.ErrInvalidFilterParams, Err: err}
	}
	paramsObj, err := direct(dict.Get("DecodeParms"), r, maxHops)
	if err != nil {
		return nil, &core.FilterError{Stage: 0, Filter: "DecodeParms", Kind: core.ErrInvalidFilterParams, Err: err}
	}

	var names core.Array
	switch v := filterObj.(type) {
	case nil, core.Null:
		return nil, nil
	case core.Name:
		names = core.Array{v}
	case core.Array:
		names = v
	default:
		return nil, &core.FilterError{Stage: 0, Filter: "Filter", Kind: core.ErrInvalidFilterParams,
			Err: &core.TypeError{Want: core.ObjName, Got: filterObj}}
	}
	if len(names) == 0 {
		return nil, nil
	}

	var paramList core.Array
	switch v := paramsObj.(type) {
	case nil, core.Null:
	case core.Dict:
		if len(names) != 1 {
			return nil, &core.FilterError{Stage: 1, Filter: "DecodeParms", Kind: core.ErrInvalidFilterParams,
				Err: fmt.Errorf("one parameter dictionary for %d filters", len(names))}
		}
		paramList = core.Array{v}
	case core.Array:
		if len(v) != len(names) {
			return nil, &core.FilterError{Stage: min(len(v), len(names)), Filter: "DecodeParms", Kind: core.ErrInvalidFilterParams,
				Err: fmt.Errorf("%d parameter entries for %d filters", len(v), len(names))}
		}
		paramList = v
	default:
		return nil, &core.FilterError{Stage: 0, Filter: "DecodeParms", Kind: core.ErrInvalidFilterParams,
			Err: &core.TypeError{Want: core.ObjDict, Got: paramsObj}}
	}

	stages := make([]Stage, len(names))
	for i, n := range names {
		n, err := direct(n, r, maxHops)
		if err != nil {
			return nil, &core.FilterError{Stage: i, Filter: "Filter", Kind: core.ErrInvalidFilterParams, Err: err}
		}
		name, err := core.AsName(n)
		if err != nil {
			return nil, &core.FilterError{Stage: i, Filter: "Filter", Kind: core.ErrInvalidFilterParams, Err: err}
		}
		stages[i].Name = string(name)

		if paramList == nil {
			continue
		}
		p, err := direct(paramList[i], r, maxHops)
		if err != nil {
			return nil, &core.FilterError{Stage: i, Filter: string(name), Kind: core.ErrInvalidFilterParams, Err: err}
		}
		switch pv := p.(type) {
		case core.Null:
		case core.Dict:
			if stages[i].Params, err = directValues(pv, r, maxHops); err != nil {
				return nil, &core.FilterError{Stage: i, Filter: string(name), Kind: core.ErrInvalidFilterParams, Err: err}
			}
		default:
			return nil, &core.FilterError{Stage: i, Filter: string(name), Kind: core.ErrInvalidFilterParams,
				Err: &core.TypeError{Want: core.ObjDict, Got: p}}
		}
	}
	return stages, nil
}

// direct follows obj through r while it is an indirect reference, for at
// most maxHops hops.
func direct(obj core.Object, r core.ReferenceResolver, maxHops int) (core.Object, error) {
	for hops := 0; ; hops++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj, nil
		}
		if r == nil {
			return nil, fmt.Errorf("cannot follow %s without a resolver", ref)
		}
		if hops >= maxHops {
			return nil, fmt.Errorf("%w: following %s", core.ErrReferenceChainTooDeep, ref)
		}
		var err error
		if obj, err = r.ResolveReference(ref); err != nil {
			return nil, err
		}
	}
}

// directValues returns a copy of d with indirect values replaced.
func directValues(d core.Dict, r core.ReferenceResolver, maxHops int) (core.Dict, error) {
	out := make(core.Dict, len(d))
	for k, v := range d {
		v, err := direct(v, r, maxHops)
		if err != nil {
			return nil, fmt.Errorf("/%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
