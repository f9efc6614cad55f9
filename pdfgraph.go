// Package pdfgraph reads PDF files as a lazily loaded graph of objects.
//
// Basic usage:
//
//	doc, err := pdfgraph.Open("document.pdf")
//	if doc == nil {
//	    // handle error
//	}
//	defer doc.Close()
//	if len(doc.Warnings()) > 0 {
//	    log.Println("Warnings:", pdfgraph.FormatWarnings(doc.Warnings()))
//	}
//	catalog := doc.Catalog()
//
// With options:
//
//	doc, err := pdfgraph.Open("report.pdf",
//	    reader.WithLogger(slog.Default()),
//	    reader.WithStrictCatalog(),
//	)
//
// The lower-level packages (xref, store, filter, resolver) can be used on
// their own.
package pdfgraph

import (
	"io"
	"strings"

	"github.com/tsawler/pdfgraph/reader"
)

// Open opens a PDF file. See reader.New for how catalog problems are
// reported.
func Open(filename string, opts ...reader.Option) (*reader.Document, error) {
	return reader.Open(filename, opts...)
}

// FromBytes opens a PDF held in memory.
func FromBytes(data []byte, opts ...reader.Option) (*reader.Document, error) {
	return reader.NewFromBytes(data, opts...)
}

// FromReader opens the PDF in the first size bytes of src.
func FromReader(src io.ReaderAt, size int64, opts ...reader.Option) (*reader.Document, error) {
	return reader.New(src, size, opts...)
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	doc := pdfgraph.Must(pdfgraph.Open("document.pdf"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// FormatWarnings joins warnings into one line each.
func FormatWarnings(warnings []error) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.Error()
	}
	return strings.Join(lines, "\n")
}
