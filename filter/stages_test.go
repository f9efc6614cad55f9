package filter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tsawler/pdfgraph/core"
)

// mapResolver resolves references from a fixed map
type mapResolver map[int]core.Object

func (m mapResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	obj, ok := m[ref.Number]
	if !ok {
		return nil, fmt.Errorf("object %d: %w", ref.Number, core.ErrObjectNotFound)
	}
	return obj, nil
}

// TestStagesFor tests /Filter and /DecodeParms extraction
func TestStagesFor(t *testing.T) {
	predictor := core.Dict{"Predictor": core.Int(12), "Columns": core.Int(5)}
	tests := []struct {
		name string
		dict core.Dict
		want []Stage
	}{
		{"no filter", core.Dict{}, nil},
		{"null filter", core.Dict{"Filter": core.Null{}}, nil},
		{"single name", core.Dict{"Filter": core.Name("FlateDecode")}, []Stage{{Name: "FlateDecode"}}},
		{"name with params", core.Dict{"Filter": core.Name("FlateDecode"), "DecodeParms": predictor},
			[]Stage{{Name: "FlateDecode", Params: predictor}}},
		{"array", core.Dict{"Filter": core.Array{core.Name("ASCII85Decode"), core.Name("FlateDecode")}},
			[]Stage{{Name: "ASCII85Decode"}, {Name: "FlateDecode"}}},
		{"aligned params", core.Dict{
			"Filter":      core.Array{core.Name("ASCII85Decode"), core.Name("FlateDecode")},
			"DecodeParms": core.Array{core.Null{}, predictor},
		}, []Stage{{Name: "ASCII85Decode"}, {Name: "FlateDecode", Params: predictor}}},
		{"indirect values", core.Dict{
			"Filter":      core.IndirectRef{Number: 7},
			"DecodeParms": core.Dict{"Columns": core.IndirectRef{Number: 8}},
		}, []Stage{{Name: "LZWDecode", Params: core.Dict{"Columns": core.Int(3)}}}},
	}

	r := mapResolver{7: core.Name("LZWDecode"), 8: core.Int(3)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StagesFor(tt.dict, r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d stages, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Name != tt.want[i].Name {
					t.Errorf("stage %d name = %s, want %s", i, got[i].Name, tt.want[i].Name)
				}
				if got[i].Params.String() != tt.want[i].Params.String() {
					t.Errorf("stage %d params = %s, want %s", i, got[i].Params, tt.want[i].Params)
				}
			}
		})
	}
}

// TestStagesForErrors tests malformed filter entries
func TestStagesForErrors(t *testing.T) {
	tests := []struct {
		name string
		dict core.Dict
		want error
	}{
		{"external file", core.Dict{"F": core.String("data.bin"), "Filter": core.Name("FlateDecode")}, core.ErrUnsupportedFilter},
		{"filter not a name", core.Dict{"Filter": core.Int(3)}, core.ErrInvalidFilterParams},
		{"array element not a name", core.Dict{"Filter": core.Array{core.Int(1)}}, core.ErrInvalidFilterParams},
		{"params length mismatch", core.Dict{
			"Filter":      core.Array{core.Name("A85"), core.Name("Fl")},
			"DecodeParms": core.Array{core.Null{}},
		}, core.ErrInvalidFilterParams},
		{"params not a dict", core.Dict{"Filter": core.Name("Fl"), "DecodeParms": core.Int(1)}, core.ErrInvalidFilterParams},
		{"dangling reference", core.Dict{"Filter": core.IndirectRef{Number: 99}}, core.ErrInvalidFilterParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StagesFor(tt.dict, mapResolver{})
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

// TestStagesForReferenceLoop tests that a self-referencing /Filter stops
func TestStagesForReferenceLoop(t *testing.T) {
	r := mapResolver{}
	r[1] = core.IndirectRef{Number: 1}
	_, err := StagesFor(core.Dict{"Filter": core.IndirectRef{Number: 1}}, r)
	if !errors.Is(err, core.ErrReferenceChainTooDeep) {
		t.Errorf("expected ErrReferenceChainTooDeep, got %v", err)
	}
}

// TestStagesWithLimits tests that the configured hop limit bounds /Filter chains
func TestStagesWithLimits(t *testing.T) {
	// 1 -> 2 -> 3 -> /FlateDecode takes three hops
	r := mapResolver{
		1: core.IndirectRef{Number: 2},
		2: core.IndirectRef{Number: 3},
		3: core.Name("FlateDecode"),
	}
	dict := core.Dict{"Filter": core.IndirectRef{Number: 1}}

	stages, err := StagesWithLimits(dict, r, core.Limits{MaxReferenceHops: 3})
	if err != nil {
		t.Fatalf("limit 3: unexpected error: %v", err)
	}
	if len(stages) != 1 || stages[0].Name != "FlateDecode" {
		t.Errorf("limit 3: got %+v", stages)
	}

	_, err = StagesWithLimits(dict, r, core.Limits{MaxReferenceHops: 2})
	if !errors.Is(err, core.ErrReferenceChainTooDeep) {
		t.Errorf("limit 2: expected ErrReferenceChainTooDeep, got %v", err)
	}

	s := core.NewStream(dict, []byte("x"))
	p := New(nil, WithResolver(r), WithLimits(core.Limits{MaxReferenceHops: 2}))
	if _, err := p.DecodeStream(s); !errors.Is(err, core.ErrReferenceChainTooDeep) {
		t.Errorf("pipeline limit 2: expected ErrReferenceChainTooDeep, got %v", err)
	}
}
