package pages

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/format"
)

// mockResolver implements ObjectResolver for testing
type mockResolver struct {
	objects map[int]core.Object
}

func (m *mockResolver) ResolveChain(obj core.Object) (core.Object, error) {
	for i := 0; i < 8; i++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj, nil
		}
		next, found := m.objects[ref.Number]
		if !found {
			return nil, fmt.Errorf("%w: %s", core.ErrObjectNotFound, ref)
		}
		obj = next
	}
	return nil, core.ErrReferenceChainTooDeep
}

func ref(n int) core.IndirectRef { return core.IndirectRef{Number: n} }

func newMock() *mockResolver {
	return &mockResolver{objects: map[int]core.Object{
		2: core.Dict{
			"Type":  core.Name("Pages"),
			"Kids":  core.Array{ref(3), ref(4)},
			"Count": core.Int(2),
		},
		5: core.Name("1.7"),
		6: core.NewStream(core.Dict{"Type": core.Name("Metadata")}, []byte("<x/>")),
	}}
}

// TestNewCatalog tests catalog validation
func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name    string
		obj     core.Object
		wantNil bool
		wantErr bool
	}{
		{"valid", core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2)}, false, false},
		{"wrong type", core.Dict{"Type": core.Name("Pages")}, false, true},
		{"missing type", core.Dict{"Pages": ref(2)}, false, true},
		{"not a dict", core.Int(1), true, true},
		{"nothing", nil, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := NewCatalog(tt.obj, newMock())
			if (cat == nil) != tt.wantNil {
				t.Errorf("catalog nil = %v, want %v", cat == nil, tt.wantNil)
			}
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidCatalog) {
					t.Errorf("expected ErrInvalidCatalog, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestCatalogPageTree tests page-tree root validation
func TestCatalogPageTree(t *testing.T) {
	cat, err := NewCatalog(core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2)}, newMock())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree, err := cat.PageTree()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Count() != 2 || len(tree.Kids()) != 2 {
		t.Errorf("Count = %d, kids = %d", tree.Count(), len(tree.Kids()))
	}
	if tree.Dict()["Type"] != core.Name("Pages") {
		t.Errorf("unexpected root dict %v", tree.Dict())
	}
}

// TestNewPageTreeErrors tests malformed page-tree roots
func TestNewPageTreeErrors(t *testing.T) {
	m := newMock()
	m.objects[7] = core.Array{ref(3)}
	m.objects[8] = core.Int(3)

	tests := []struct {
		name    string
		obj     core.Object
		wantErr error
	}{
		{"not a dict", core.Array{}, ErrInvalidPageTree},
		{"wrong type", core.Dict{"Type": core.Name("Page"), "Kids": core.Array{}, "Count": core.Int(0)}, ErrInvalidPageTree},
		{"missing kids", core.Dict{"Count": core.Int(0)}, ErrInvalidPageTree},
		{"kids not array", core.Dict{"Kids": core.Int(1), "Count": core.Int(0)}, ErrInvalidPageTree},
		{"missing count", core.Dict{"Kids": core.Array{}}, ErrInvalidPageTree},
		{"count too small", core.Dict{"Kids": core.Array{ref(3), ref(4)}, "Count": core.Int(1)}, ErrInvalidPageTree},
		{"unresolvable kids", core.Dict{"Kids": ref(99), "Count": core.Int(0)}, core.ErrObjectNotFound},
		{"indirect kids and count", core.Dict{"Kids": ref(7), "Count": ref(8)}, nil},
		{"untyped root", core.Dict{"Kids": core.Array{}, "Count": core.Int(0)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := NewPageTree(tt.obj, m)
			if tt.wantErr == nil {
				if err != nil || tree == nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestCatalogMissingPages tests a catalog with no /Pages entry
func TestCatalogMissingPages(t *testing.T) {
	cat, _ := NewCatalog(core.Dict{"Type": core.Name("Catalog")}, newMock())
	if _, err := cat.PageTree(); !errors.Is(err, ErrInvalidPageTree) {
		t.Errorf("expected ErrInvalidPageTree, got %v", err)
	}
}

// TestCatalogVersion tests the /Version override
func TestCatalogVersion(t *testing.T) {
	tests := []struct {
		name    string
		version core.Object
		header  format.Version
		want    format.Version
	}{
		{"later catalog version", core.Name("1.7"), format.Version{Major: 1, Minor: 4}, format.Version{Major: 1, Minor: 7}},
		{"earlier catalog version", core.Name("1.3"), format.Version{Major: 1, Minor: 4}, format.Version{Major: 1, Minor: 4}},
		{"indirect", ref(5), format.Version{Major: 1, Minor: 5}, format.Version{Major: 1, Minor: 7}},
		{"malformed", core.Name("seven"), format.Version{Major: 1, Minor: 4}, format.Version{Major: 1, Minor: 4}},
		{"absent", nil, format.Version{Major: 2, Minor: 0}, format.Version{Major: 2, Minor: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dict := core.Dict{"Type": core.Name("Catalog")}
			if tt.version != nil {
				dict["Version"] = tt.version
			}
			cat, err := NewCatalog(dict, newMock())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := cat.EffectiveVersion(tt.header); got != tt.want {
				t.Errorf("EffectiveVersion = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCatalogOptionalEntries tests Names, PageLabels, Metadata and Lang
func TestCatalogOptionalEntries(t *testing.T) {
	m := newMock()
	cat, err := NewCatalog(core.Dict{
		"Type":       core.Name("Catalog"),
		"Names":      core.Dict{"Dests": ref(9)},
		"PageLabels": core.Dict{"Nums": core.Array{core.Int(0), core.Dict{"S": core.Name("r")}}},
		"Metadata":   ref(6),
		"Lang":       core.String("en-US"),
	}, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names, err := cat.Names()
	if err != nil || names == nil || !names.Has("Dests") {
		t.Errorf("Names() = %v, %v", names, err)
	}
	labels, err := cat.PageLabels()
	if err != nil || !labels.Has("Nums") {
		t.Errorf("PageLabels() = %v, %v", labels, err)
	}
	md, err := cat.Metadata()
	if err != nil || md == nil || string(md.Data) != "<x/>" {
		t.Errorf("Metadata() = %v, %v", md, err)
	}
	if cat.Lang() != "en-US" {
		t.Errorf("Lang() = %q", cat.Lang())
	}

	empty, _ := NewCatalog(core.Dict{"Type": core.Name("Catalog")}, m)
	if d, err := empty.Names(); d != nil || err != nil {
		t.Errorf("absent Names: %v, %v", d, err)
	}
	if s, err := empty.Metadata(); s != nil || err != nil {
		t.Errorf("absent Metadata: %v, %v", s, err)
	}

	bad, _ := NewCatalog(core.Dict{"Type": core.Name("Catalog"), "Metadata": core.Int(1), "Names": core.Int(1)}, m)
	if _, err := bad.Metadata(); !errors.Is(err, core.ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := bad.Names(); !errors.Is(err, core.ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}
