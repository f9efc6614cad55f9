// Package store materializes PDF objects on demand.
//
// A Store reads an object the first time it is asked for, using the merged
// cross-reference table to find it either at a byte offset or inside an
// object stream, and keeps the result for later calls. Concurrent requests
// for the same object share one parse. Failures are returned to the caller
// and never cached.
package store
