package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/filter"
	"github.com/tsawler/pdfgraph/resolver"
)

// Stats counts store activity.
type Stats struct {
	Cached int   // objects held in the cache
	Parses int64 // objects read from the byte source
	Hits   int64 // requests answered from the cache
}

// Store lazily loads and memoizes the objects of one document.
type Store struct {
	src      io.ReaderAt
	size     int64
	table    *core.XRefTable
	pipeline *filter.Pipeline
	limits   core.Limits
	logger   *slog.Logger

	mu         sync.RWMutex
	objects    map[core.ObjectID]core.Object
	containers map[int]*core.ObjectStream
	group      singleflight.Group

	parses atomic.Int64
	hits   atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithPipeline sets the pipeline used to decode object streams.
func WithPipeline(p *filter.Pipeline) Option {
	return func(s *Store) {
		if p != nil {
			s.pipeline = p
		}
	}
}

// WithLimits sets parsing and dereference limits.
func WithLimits(l core.Limits) Option {
	return func(s *Store) {
		s.limits = l.WithDefaults()
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a store reading the size bytes of src through table. The
// store borrows src; it must stay readable for the store's lifetime.
func New(src io.ReaderAt, size int64, table *core.XRefTable, opts ...Option) *Store {
	s := &Store{
		src:        src,
		size:       size,
		table:      table,
		limits:     core.DefaultLimits(),
		logger:     slog.New(slog.DiscardHandler),
		objects:    make(map[core.ObjectID]core.Object),
		containers: make(map[int]*core.ObjectStream),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pipeline == nil {
		s.pipeline = filter.New(nil, filter.WithLimits(s.limits), filter.WithLogger(s.logger))
	}
	return s
}

// Table returns the cross-reference table the store reads through.
func (s *Store) Table() *core.XRefTable {
	return s.table
}

// Resolve returns the object with the given id, loading it on first use.
// Free entries fail with core.ErrObjectFreed, unknown ids and generation
// mismatches with core.ErrObjectNotFound, and entries of an unknown xref
// stream type read as null.
func (s *Store) Resolve(id core.ObjectID) (core.Object, error) {
	if obj, ok := s.cached(id); ok {
		s.hits.Add(1)
		return obj, nil
	}
	v, err, _ := s.group.Do(id.String(), func() (interface{}, error) {
		if obj, ok := s.cached(id); ok {
			return obj, nil
		}
		obj, err := s.load(id, &chain{id: id})
		if err != nil {
			return nil, err
		}
		return s.remember(id, obj), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(core.Object), nil
}

// ResolveReference implements core.ReferenceResolver.
func (s *Store) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return s.Resolve(ref.ID())
}

// Dereference follows obj one hop if it is an indirect reference and
// returns other values unchanged.
func (s *Store) Dereference(obj core.Object) (core.Object, error) {
	return resolver.NewResolver(s, resolver.WithLimits(s.limits)).Dereference(obj)
}

// ResolveToDepthLimit follows references until it reaches a direct value.
// More than maxHops hops fail with core.ErrReferenceChainTooDeep; maxHops
// <= 0 uses the store's MaxReferenceHops limit.
func (s *Store) ResolveToDepthLimit(obj core.Object, maxHops int) (core.Object, error) {
	return resolver.NewResolver(s, resolver.WithLimits(s.limits), resolver.WithMaxHops(maxHops)).ResolveChain(obj)
}

// DecodeStream returns the decoded data of a stream owned by this store.
// Indirect /Filter and /DecodeParms values are resolved through the store.
func (s *Store) DecodeStream(stream *core.Stream) ([]byte, error) {
	return s.decode(stream, nil)
}

// Stats returns a snapshot of the store counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	n := len(s.objects)
	s.mu.RUnlock()
	return Stats{Cached: n, Parses: s.parses.Load(), Hits: s.hits.Load()}
}

func (s *Store) cached(id core.ObjectID) (core.Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[id]
	return obj, ok
}

// remember caches obj unless another load got there first, and returns the
// cached value so every caller sees the same object.
func (s *Store) remember(id core.ObjectID, obj core.Object) core.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.objects[id]; ok {
		return prev
	}
	s.objects[id] = obj
	return obj
}

// chain is the list of objects being loaded on the current call path.
type chain struct {
	id     core.ObjectID
	parent *chain
}

func (c *chain) contains(id core.ObjectID) bool {
	for ; c != nil; c = c.parent {
		if c.id == id {
			return true
		}
	}
	return false
}

func (c *chain) push(id core.ObjectID) *chain {
	return &chain{id: id, parent: c}
}

// chainResolver resolves references met while loading an object, such as
// an indirect stream /Length. Loads made through it bypass the singleflight
// group, so a reference back into the call path is refused instead of
// waiting on itself.
type chainResolver struct {
	store *Store
	path  *chain
}

func (r *chainResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	id := ref.ID()
	if r.path.contains(id) {
		return nil, &core.ObjectError{ID: id, Offset: -1,
			Err: fmt.Errorf("%w: %s is already being loaded", core.ErrReferenceChainTooDeep, id)}
	}
	if obj, ok := r.store.cached(id); ok {
		return obj, nil
	}
	obj, err := r.store.load(id, r.path.push(id))
	if err != nil {
		return nil, err
	}
	return r.store.remember(id, obj), nil
}

// load reads id from the byte source without consulting the cache.
func (s *Store) load(id core.ObjectID, path *chain) (core.Object, error) {
	entry, err := s.table.Lookup(id)
	if err != nil {
		return nil, &core.ObjectError{ID: id, Offset: -1, Err: err}
	}
	switch entry.Kind {
	case core.EntryInUse:
		return s.loadDirect(id, entry, path)
	case core.EntryInStream:
		return s.loadCompressed(id, entry, path)
	case core.EntryUnsupported:
		s.logger.Debug("object has unsupported xref type", "object", id.String(), "type", entry.TypeNum)
		return core.Null{}, nil
	}
	return nil, &core.ObjectError{ID: id, Offset: -1, Err: core.ErrObjectNotFound}
}

// loadDirect parses the object stored at entry.Offset.
func (s *Store) loadDirect(id core.ObjectID, entry core.XRefEntry, path *chain) (core.Object, error) {
	off := entry.Offset
	if off < 0 || off >= s.size {
		return nil, &core.ObjectError{ID: id, Offset: off,
			Err: fmt.Errorf("%w: offset outside the file (%d bytes)", core.ErrMalformedXref, s.size)}
	}

	p := core.NewParserAt(io.NewSectionReader(s.src, off, s.size-off), off)
	p.SetLimits(s.limits)
	p.SetReferenceResolver(&chainResolver{store: s, path: path})
	indirect, err := p.ParseIndirectObject()
	if err != nil {
		return nil, &core.ObjectError{ID: id, Offset: off, Err: err}
	}
	if indirect.ID != id {
		return nil, &core.ObjectError{ID: id, Offset: off,
			Err: fmt.Errorf("%w: found object %s", core.ErrObjectIdentityMismatch, indirect.ID)}
	}
	s.parses.Add(1)

	if stream, ok := indirect.Object.(*core.Stream); ok {
		s.logger.Debug("stream loaded", "object", id.String(), "offset", off,
			"size", humanize.Bytes(uint64(len(stream.Data))))
	} else {
		s.logger.Debug("object loaded", "object", id.String(), "offset", off, "type", indirect.Object.Type().String())
	}
	return indirect.Object, nil
}

// loadCompressed extracts an object from its object stream.
func (s *Store) loadCompressed(id core.ObjectID, entry core.XRefEntry, path *chain) (core.Object, error) {
	container, err := s.container(entry.Container, path)
	if err != nil {
		return nil, &core.ObjectError{ID: id, Offset: -1, Err: err}
	}
	num, ok := container.Number(entry.Index)
	if !ok {
		return nil, &core.ObjectError{ID: id, Offset: -1,
			Err: fmt.Errorf("%w: index %d beyond object stream %d", core.ErrObjectNotFound, entry.Index, entry.Container)}
	}
	if num != id.Number {
		return nil, &core.ObjectError{ID: id, Offset: -1,
			Err: fmt.Errorf("%w: index %d of object stream %d holds object %d",
				core.ErrObjectIdentityMismatch, entry.Index, entry.Container, num)}
	}
	obj, _, err := container.ObjectAt(entry.Index)
	if err != nil {
		return nil, &core.ObjectError{ID: id, Offset: -1, Err: err}
	}
	s.parses.Add(1)
	s.logger.Debug("object loaded from object stream", "object", id.String(), "container", entry.Container)
	return obj, nil
}

func (s *Store) cachedContainer(num int) (*core.ObjectStream, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[num]
	return c, ok
}

// container returns the parsed object stream num. A top-level request
// shares one load per container with concurrent requests; loads nested in
// another load go direct so they never wait on the group while holding it.
func (s *Store) container(num int, path *chain) (*core.ObjectStream, error) {
	if c, ok := s.cachedContainer(num); ok {
		return c, nil
	}

	cid := core.ObjectID{Number: num}
	if path.contains(cid) {
		return nil, fmt.Errorf("%w: object stream %d contains itself", core.ErrReferenceChainTooDeep, num)
	}
	if path.parent != nil {
		return s.loadContainer(num, path)
	}
	v, err, _ := s.group.Do("objstm:"+strconv.Itoa(num), func() (interface{}, error) {
		if c, ok := s.cachedContainer(num); ok {
			return c, nil
		}
		return s.loadContainer(num, path)
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.ObjectStream), nil
}

// loadContainer reads, decodes and parses object stream num.
func (s *Store) loadContainer(num int, path *chain) (*core.ObjectStream, error) {
	cid := core.ObjectID{Number: num}
	entry, err := s.table.Lookup(cid)
	if err != nil {
		return nil, &core.ObjectError{ID: cid, Offset: -1, Err: fmt.Errorf("object stream: %w", err)}
	}
	switch entry.Kind {
	case core.EntryInUse:
	case core.EntryInStream:
		return nil, &core.ObjectError{ID: cid, Offset: -1, Err: core.ErrInvalidContainerNesting}
	default:
		return nil, &core.ObjectError{ID: cid, Offset: -1,
			Err: fmt.Errorf("%w: object stream entry is %s", core.ErrObjectNotFound, entry.Kind)}
	}

	obj, ok := s.cached(cid)
	if !ok {
		if obj, err = s.loadDirect(cid, entry, path.push(cid)); err != nil {
			return nil, err
		}
		obj = s.remember(cid, obj)
	}
	stream, err := core.AsStream(obj)
	if err != nil {
		return nil, &core.ObjectError{ID: cid, Offset: entry.Offset, Err: fmt.Errorf("object stream: %w", err)}
	}
	decoded, err := s.decode(stream, path.push(cid))
	if err != nil {
		return nil, &core.ObjectError{ID: cid, Offset: entry.Offset, Err: err}
	}
	c, err := core.ParseObjectStream(stream.Dict, decoded, s.limits)
	if err != nil {
		return nil, &core.ObjectError{ID: cid, Offset: entry.Offset, Err: err}
	}

	s.mu.Lock()
	if prev, ok := s.containers[num]; ok {
		c = prev
	} else {
		s.containers[num] = c
	}
	s.mu.Unlock()
	return c, nil
}

// decode runs the pipeline over stream, resolving indirect filter values
// through the store. The filter chain is resolved before the stream's
// decode lock is taken, so resolving it may itself decode other streams.
func (s *Store) decode(stream *core.Stream, path *chain) ([]byte, error) {
	if stream == nil {
		return nil, errors.New("nil stream")
	}
	var stages []filter.Stage
	if !stream.IsDecoded() {
		var r core.ReferenceResolver = s
		if path != nil {
			r = &chainResolver{store: s, path: path}
		}
		var err error
		if stages, err = filter.StagesWithLimits(stream.Dict, r, s.limits); err != nil {
			return nil, err
		}
	}
	return stream.Decoded(func(st *core.Stream) ([]byte, error) {
		return s.pipeline.Decode(st.Data, stages)
	})
}
