// Package resolver follows indirect references ("5 0 R") to the objects
// they name.
//
// Dereference follows a single hop. ResolveChain follows a reference to a
// reference and so on, and gives up with core.ErrReferenceChainTooDeep after
// a bounded number of hops, which also ends every cycle:
//
//	r := resolver.NewResolver(store)
//	obj, err := r.ResolveChain(core.IndirectRef{Number: 5})
//
// ResolveDeep expands a whole object tree. References that lead back to an
// object still being expanded are left as references, so trees with parent
// links terminate:
//
//	resolved, err := r.ResolveDeep(dict)
//
// Limits are set with WithMaxHops and WithMaxDepth.
package resolver
