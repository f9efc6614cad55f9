package pdfgraph

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/internal/pdftest"
)

func sample() []byte {
	return pdftest.New("1.7").
		Object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		Object(2, "<< /Type /Pages /Kids [] /Count 0 >>").
		Table("/Root 1 0 R").
		Bytes()
}

// TestEntryPoints tests Open, FromBytes and FromReader
func TestEntryPoints(t *testing.T) {
	data := sample()
	path := filepath.Join(t.TempDir(), "a.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer doc.Close()
	if doc.Catalog() == nil {
		t.Error("Open: no catalog")
	}

	if doc, err := FromBytes(data); err != nil || doc.Catalog() == nil {
		t.Errorf("FromBytes: %v", err)
	}
	if doc, err := FromReader(bytes.NewReader(data), int64(len(data))); err != nil || doc.Catalog() == nil {
		t.Errorf("FromReader: %v", err)
	}
}

// TestMust tests the panic helper
func TestMust(t *testing.T) {
	if got := Must(42, nil); got != 42 {
		t.Errorf("Must returned %d", got)
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, core.ErrMalformedXref) {
			t.Errorf("expected a panic with ErrMalformedXref, got %v", r)
		}
	}()
	Must(FromBytes([]byte("not a pdf")))
}

// TestFormatWarnings tests warning formatting
func TestFormatWarnings(t *testing.T) {
	got := FormatWarnings([]error{errors.New("one"), errors.New("two")})
	if got != "one\ntwo" {
		t.Errorf("got %q", got)
	}
	if FormatWarnings(nil) != "" {
		t.Error("expected empty string")
	}
}
