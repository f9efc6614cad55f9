// Package core holds the value model and the low-level syntax layer shared by
// the rest of pdfgraph.
//
// # Values
//
// Every value of the object graph satisfies [Object]: [Null], [Bool], [Int],
// [Real], [String], [Name], [Array], [Dict], [*Stream] and [IndirectRef].
// Objects are addressed by [ObjectID]. The As* functions ([AsDict],
// [AsStream], ...) are total accessors that fail with a [*TypeError] instead
// of returning a zero value of the wrong shape.
//
// # Syntax
//
// [Lexer] and [Parser] turn bytes at an absolute offset into one object or
// one "num gen obj" definition. Stream lengths stored as indirect objects are
// resolved through a [ReferenceResolver].
//
// # Cross-reference model
//
// [XRefEntry], [XRefSection] and [XRefTable] describe where objects live.
// Sections are read by package xref and merged with [XRefTable.Apply], which
// gives later revisions precedence.
//
// # Errors
//
// The error kinds (ErrMalformedXref, ErrObjectFreed, ...) are sentinel values
// matched with errors.Is. [ObjectError], [XRefError] and [FilterError] add the
// object id, byte offset or filter stage to a failure.
package core
