// Package reader opens PDF files and exposes their object graph.
//
// # Opening Documents
//
// Use [Open] for a file, [New] for any io.ReaderAt, or [NewFromBytes]:
//
//	doc, err := reader.Open("document.pdf")
//	if doc == nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
// Opening reads the header, the cross-reference chain (rebuilding it by a
// file scan when it is damaged) and the catalog. Objects themselves are
// loaded on demand and cached.
//
// A catalog that fails validation does not stop loading: the document is
// returned along with an error matching core.ErrInvalidCatalog. Pass
// [WithStrictCatalog] to make it fatal.
//
// # Document Information
//
//   - Version() - header version, raised by the catalog's /Version
//   - Trailer(), TrailerInfo() - merged trailer
//   - Catalog(), PagesRoot() - validated top-level structures
//   - Info() - document information dictionary as text
//   - Metadata() - fields of the XMP packet
//   - Warnings(), Recovered() - problems met while loading
//
// # Object Resolution
//
//   - Get(id) - load an object by id
//   - Dereference(obj) - follow one reference
//   - ResolveChain(obj) - follow references to a direct value
//   - ResolveDeep(obj) - expand every nested reference
//   - DecodeStream(obj) - run a stream through its filters
//
// A Document is safe for concurrent use.
package reader
