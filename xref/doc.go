// Package xref locates and merges the cross-reference sections of a PDF file.
//
// A file ends with "startxref <offset>". The section at that offset is either
// a classic "xref" table followed by a trailer dictionary, or an xref stream
// object (/Type /XRef). Each section may point to an older one through /Prev,
// and a classic trailer may add a stream section through /XRefStm. The
// Resolver walks this chain from newest to oldest and replays it oldest
// first, so entries from later revisions replace earlier ones:
//
//	res, err := xref.NewResolver(src, size).Resolve()
//	if err != nil {
//	    return err
//	}
//	entry, err := res.Table.Lookup(core.ObjectID{Number: 12})
//
// When the chain cannot be read, the Resolver falls back to Recover, which
// scans the whole file for "N G obj" headers and trailer dictionaries.
package xref
