package pages

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// PageTree is the validated root node of the page tree. Only the root is
// checked; the kids are left for callers to walk.
type PageTree struct {
	dict  core.Dict
	kids  core.Array
	count int
}

// NewPageTree validates obj as a page-tree root: a dictionary whose /Type,
// when present, is /Pages, with a /Kids array and a /Count no smaller than
// the number of kids.
func NewPageTree(obj core.Object, resolver ObjectResolver) (*PageTree, error) {
	dict, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: /Pages is %s, not a dictionary", ErrInvalidPageTree, typeOf(obj))
	}
	if typ, ok := dict.GetName("Type"); ok && typ != "Pages" {
		return nil, fmt.Errorf("%w: /Type is /%s", ErrInvalidPageTree, typ)
	}

	kidsObj := dict.Get("Kids")
	if kidsObj == nil {
		return nil, fmt.Errorf("%w: missing /Kids", ErrInvalidPageTree)
	}
	kidsObj, err := resolver.ResolveChain(kidsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Kids: %w", err)
	}
	kids, err := core.AsArray(kidsObj)
	if err != nil {
		return nil, fmt.Errorf("%w: /Kids: %w", ErrInvalidPageTree, err)
	}

	countObj := dict.Get("Count")
	if countObj == nil {
		return nil, fmt.Errorf("%w: missing /Count", ErrInvalidPageTree)
	}
	countObj, err = resolver.ResolveChain(countObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Count: %w", err)
	}
	count, err := core.AsInt(countObj)
	if err != nil {
		return nil, fmt.Errorf("%w: /Count: %w", ErrInvalidPageTree, err)
	}
	if count < int64(len(kids)) {
		return nil, fmt.Errorf("%w: /Count %d is less than the %d kids", ErrInvalidPageTree, count, len(kids))
	}

	return &PageTree{dict: dict, kids: kids, count: int(count)}, nil
}

// Dict returns the root dictionary.
func (t *PageTree) Dict() core.Dict {
	return t.dict
}

// Count returns the total number of pages
func (t *PageTree) Count() int {
	return t.count
}

// Kids returns the root's direct children, usually references.
func (t *PageTree) Kids() core.Array {
	return t.kids
}
