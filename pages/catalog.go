package pages

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/format"
)

// ErrInvalidPageTree is returned when the catalog's /Pages entry is not a
// usable page-tree root.
var ErrInvalidPageTree = errors.New("invalid page tree root")

// ObjectResolver follows reference chains to direct values.
type ObjectResolver interface {
	ResolveChain(obj core.Object) (core.Object, error)
}

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	dict     core.Dict
	resolver ObjectResolver
}

// NewCatalog validates obj as the document catalog. When obj is a
// dictionary but its /Type is not /Catalog, the catalog is still returned
// together with an error matching core.ErrInvalidCatalog.
func NewCatalog(obj core.Object, resolver ObjectResolver) (*Catalog, error) {
	dict, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: root object is %s, not a dictionary", core.ErrInvalidCatalog, typeOf(obj))
	}
	c := &Catalog{dict: dict, resolver: resolver}

	typ, ok := dict.GetName("Type")
	if !ok {
		return c, fmt.Errorf("%w: missing /Type", core.ErrInvalidCatalog)
	}
	if typ != "Catalog" {
		return c, fmt.Errorf("%w: /Type is /%s", core.ErrInvalidCatalog, typ)
	}
	return c, nil
}

// Dict returns the catalog dictionary.
func (c *Catalog) Dict() core.Dict {
	return c.dict
}

// Type returns the catalog type (should be "Catalog")
func (c *Catalog) Type() string {
	name, _ := c.dict.GetName("Type")
	return string(name)
}

// Version returns the /Version entry, or the zero version when absent or
// malformed.
func (c *Catalog) Version() format.Version {
	obj, err := c.resolve("Version")
	if err != nil {
		return format.Version{}
	}
	name, ok := obj.(core.Name)
	if !ok {
		return format.Version{}
	}
	v, err := format.ParseVersion(string(name))
	if err != nil {
		return format.Version{}
	}
	return v
}

// EffectiveVersion returns the later of the header version and the
// catalog's /Version.
func (c *Catalog) EffectiveVersion(header format.Version) format.Version {
	if v := c.Version(); !v.IsZero() && header.Less(v) {
		return v
	}
	return header
}

// PageTree returns the validated root of the page tree.
func (c *Catalog) PageTree() (*PageTree, error) {
	if !c.dict.Has("Pages") {
		return nil, fmt.Errorf("%w: catalog missing /Pages entry", ErrInvalidPageTree)
	}
	obj, err := c.resolve("Pages")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Pages: %w", err)
	}
	return NewPageTree(obj, c.resolver)
}

// Names returns the name dictionary, or nil when absent.
func (c *Catalog) Names() (core.Dict, error) {
	return c.optionalDict("Names")
}

// PageLabels returns the page labels number tree root, or nil when absent.
func (c *Catalog) PageLabels() (core.Dict, error) {
	return c.optionalDict("PageLabels")
}

// Metadata returns the metadata stream if present
func (c *Catalog) Metadata() (*core.Stream, error) {
	obj, err := c.resolve("Metadata")
	if err != nil {
		return nil, err
	}
	if core.IsNull(obj) {
		return nil, nil // Optional
	}
	stream, err := core.AsStream(obj)
	if err != nil {
		return nil, fmt.Errorf("/Metadata: %w", err)
	}
	return stream, nil
}

// Lang returns the natural language of the document, if declared.
func (c *Catalog) Lang() string {
	obj, err := c.resolve("Lang")
	if err != nil {
		return ""
	}
	if s, ok := obj.(core.String); ok {
		return s.Text()
	}
	return ""
}

func (c *Catalog) optionalDict(key string) (core.Dict, error) {
	obj, err := c.resolve(key)
	if err != nil {
		return nil, err
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

// resolve returns the direct value of key, or nil when it is absent.
func (c *Catalog) resolve(key string) (core.Object, error) {
	obj := c.dict.Get(key)
	if obj == nil {
		return nil, nil
	}
	resolved, err := c.resolver.ResolveChain(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /%s: %w", key, err)
	}
	return resolved, nil
}

func typeOf(obj core.Object) string {
	if obj == nil {
		return "nothing"
	}
	return obj.Type().String()
}
