// Package pages provides typed views of the document catalog and the root
// of the page tree.
//
// # Catalog
//
// [NewCatalog] checks that the trailer's /Root resolves to a dictionary with
// /Type /Catalog. A dictionary with the wrong type is still returned, along
// with an error matching core.ErrInvalidCatalog, so lenient callers can go
// on:
//
//	cat, err := pages.NewCatalog(root, resolver)
//	if cat == nil {
//	    return err
//	}
//	tree, err := cat.PageTree()
//
// # Page Tree
//
// [PageTree] validates the root node only: /Type /Pages (when present), a
// /Kids array and a /Count that covers the kids. Walking the tree is left to
// the caller.
//
// # Object Resolution
//
// The [ObjectResolver] interface abstracts reference chasing:
//
//	type ObjectResolver interface {
//	    ResolveChain(obj core.Object) (core.Object, error)
//	}
//
// *resolver.ObjectResolver and *reader.Document both satisfy it.
package pages
