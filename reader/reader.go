package reader

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/filter"
	"github.com/tsawler/pdfgraph/format"
	"github.com/tsawler/pdfgraph/pages"
	"github.com/tsawler/pdfgraph/resolver"
	"github.com/tsawler/pdfgraph/store"
	"github.com/tsawler/pdfgraph/xref"
)

// Document is an opened PDF: a lazily loaded object graph rooted at the
// trailer. It is safe for concurrent use.
type Document struct {
	src  io.ReaderAt
	size int64
	file *os.File // set when the document opened the file itself

	header      format.Header
	version     format.Version
	xref        *xref.Result
	trailerInfo core.TrailerInfo
	store       *store.Store
	pipeline    *filter.Pipeline
	resolver    *resolver.ObjectResolver
	catalog     *pages.Catalog

	warnings []error
	logger   *slog.Logger
	session  uuid.UUID

	fpOnce sync.Once
	fp     [32]byte
	fpErr  error
}

// Ensure Document implements the resolver interfaces
var (
	_ pages.ObjectResolver   = (*Document)(nil)
	_ resolver.ObjectReader  = (*Document)(nil)
	_ core.ReferenceResolver = (*Document)(nil)
)

type config struct {
	logger        *slog.Logger
	limits        core.Limits
	registry      *filter.Registry
	recovery      bool
	strictCatalog bool
}

// Option configures how a document is opened.
type Option func(*config)

// WithLogger sets the logger. Records carry a "session" attribute unique to
// the document. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLimits sets the resource limits used throughout loading.
func WithLimits(l core.Limits) Option {
	return func(c *config) {
		c.limits = l.WithDefaults()
	}
}

// WithRegistry sets the filter registry (default: filter.DefaultRegistry()).
func WithRegistry(r *filter.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithRecovery enables or disables rebuilding a damaged cross-reference
// table by scanning the file (enabled by default).
func WithRecovery(enabled bool) Option {
	return func(c *config) {
		c.recovery = enabled
	}
}

// WithStrictCatalog makes an invalid catalog fatal. By default the document
// is returned together with the catalog error.
func WithStrictCatalog() Option {
	return func(c *config) {
		c.strictCatalog = true
	}
}

// Open opens a PDF file. The returned document owns the file; call Close
// when done.
func Open(filename string, opts ...Option) (*Document, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	doc, err := New(file, info.Size(), opts...)
	if doc == nil {
		file.Close()
		return nil, err
	}
	doc.file = file
	return doc, err
}

// NewFromBytes opens a document held in memory.
func NewFromBytes(data []byte, opts ...Option) (*Document, error) {
	return New(bytes.NewReader(data), int64(len(data)), opts...)
}

// New opens the document in the first size bytes of src.
//
// A catalog that fails validation is not fatal unless WithStrictCatalog is
// given: New then returns a usable document and an error matching
// core.ErrInvalidCatalog. Any other error comes with a nil document.
func New(src io.ReaderAt, size int64, opts ...Option) (*Document, error) {
	cfg := config{
		logger:   slog.New(slog.DiscardHandler),
		limits:   core.DefaultLimits(),
		recovery: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Document{src: src, size: size, session: uuid.New()}
	d.logger = cfg.logger.With("session", d.session.String())
	d.logger.Debug("opening document", "size", humanize.IBytes(uint64(max(size, 0))))

	header, err := format.Sniff(src, size)
	if err != nil {
		d.warn(fmt.Errorf("header: %w", err))
	}
	d.header = header
	d.version = header.Version

	d.pipeline = filter.New(cfg.registry,
		filter.WithLimits(cfg.limits),
		filter.WithLogger(d.logger))

	res, err := xref.NewResolver(src, size,
		xref.WithPipeline(d.pipeline),
		xref.WithLimits(cfg.limits),
		xref.WithLogger(d.logger),
		xref.WithRecovery(cfg.recovery)).Resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to load xref: %w", err)
	}
	d.xref = res
	for _, w := range res.Warnings {
		d.warn(w)
	}

	d.store = store.New(src, size, res.Table,
		store.WithPipeline(d.pipeline),
		store.WithLimits(cfg.limits),
		store.WithLogger(d.logger))
	d.resolver = resolver.NewResolver(d.store, resolver.WithLimits(cfg.limits))

	if d.trailerInfo, err = core.ParseTrailer(res.Trailer); err != nil {
		d.warn(err)
	}
	if d.trailerInfo.Encrypted() {
		d.logger.Warn("document is encrypted; strings and streams are returned as stored")
	}

	catErr := d.loadCatalog()
	if catErr != nil {
		if cfg.strictCatalog {
			return nil, catErr
		}
		d.warn(catErr)
	}

	d.logger.Info("document loaded",
		"version", d.version.String(),
		"objects", res.Table.Size(),
		"sections", len(res.Sections),
		"recovered", res.Recovered,
		"warnings", len(d.warnings))
	return d, catErr
}

// loadCatalog validates the trailer's /Root. On failure d.catalog is left
// as whatever could be salvaged.
func (d *Document) loadCatalog() error {
	root := d.trailerInfo.Root
	if root == nil {
		return fmt.Errorf("%w: trailer has no /Root", core.ErrInvalidCatalog)
	}
	obj, err := d.resolver.ResolveChain(*root)
	if err != nil {
		return fmt.Errorf("%w: /Root %s: %w", core.ErrInvalidCatalog, *root, err)
	}
	cat, err := pages.NewCatalog(obj, d.resolver)
	d.catalog = cat
	if cat != nil {
		d.version = cat.EffectiveVersion(d.header.Version)
	}
	return err
}

func (d *Document) warn(err error) {
	d.warnings = append(d.warnings, err)
	d.logger.Warn("document problem", "error", err)
}

// Close closes the file when the document was opened with Open.
func (d *Document) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}

// Header returns what was read from the file header.
func (d *Document) Header() format.Header {
	return d.header
}

// Version returns the PDF version: the header version, or the catalog's
// /Version when that is later.
func (d *Document) Version() format.Version {
	return d.version
}

// Trailer returns the merged trailer dictionary.
func (d *Document) Trailer() core.Dict {
	return d.xref.Trailer
}

// TrailerInfo returns the standard trailer keys.
func (d *Document) TrailerInfo() core.TrailerInfo {
	return d.trailerInfo
}

// Catalog returns the document catalog dictionary, or nil when /Root does
// not lead to a dictionary.
func (d *Document) Catalog() core.Dict {
	if d.catalog == nil {
		return nil
	}
	return d.catalog.Dict()
}

// PagesRoot returns the validated root of the page tree.
func (d *Document) PagesRoot() (*pages.PageTree, error) {
	if d.catalog == nil {
		return nil, fmt.Errorf("%w: no catalog", core.ErrInvalidCatalog)
	}
	return d.catalog.PageTree()
}

// XRef returns the merged cross-reference table.
func (d *Document) XRef() *core.XRefTable {
	return d.xref.Table
}

// Sections returns the cross-reference sections read, newest first.
func (d *Document) Sections() []*core.XRefSection {
	return d.xref.Sections
}

// Warnings returns the problems met while loading that did not stop it.
func (d *Document) Warnings() []error {
	return append([]error(nil), d.warnings...)
}

// Recovered reports whether the cross-reference table was rebuilt by
// scanning the file.
func (d *Document) Recovered() bool {
	return d.xref.Recovered
}

// Encrypted reports whether the trailer names an encryption dictionary.
func (d *Document) Encrypted() bool {
	return d.trailerInfo.Encrypted()
}

// Get returns the object with the given id.
func (d *Document) Get(id core.ObjectID) (core.Object, error) {
	return d.store.Resolve(id)
}

// ResolveReference returns the object ref points to.
func (d *Document) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return d.store.Resolve(ref.ID())
}

// Dereference follows obj one hop if it is a reference.
func (d *Document) Dereference(obj core.Object) (core.Object, error) {
	return d.resolver.Dereference(obj)
}

// ResolveChain follows references until a direct value, within the hop
// limit.
func (d *Document) ResolveChain(obj core.Object) (core.Object, error) {
	return d.resolver.ResolveChain(obj)
}

// ResolveDeep returns obj with all nested references expanded.
func (d *Document) ResolveDeep(obj core.Object) (core.Object, error) {
	return d.resolver.ResolveDeep(obj)
}

// DecodeStream returns the decoded bytes of a stream, given as the stream
// itself or a reference to it.
func (d *Document) DecodeStream(obj core.Object) ([]byte, error) {
	resolved, err := d.resolver.ResolveChain(obj)
	if err != nil {
		return nil, err
	}
	stream, err := core.AsStream(resolved)
	if err != nil {
		return nil, err
	}
	data, err := d.store.DecodeStream(stream)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("stream decoded", "raw", humanize.IBytes(uint64(len(stream.Data))), "decoded", humanize.IBytes(uint64(len(data))))
	return data, nil
}

// Stats returns the object cache counters.
func (d *Document) Stats() store.Stats {
	return d.store.Stats()
}

// SessionID identifies this opened document in log records.
func (d *Document) SessionID() uuid.UUID {
	return d.session
}

// Fingerprint returns the BLAKE3-256 hash of the whole byte source. It is
// computed on first use.
func (d *Document) Fingerprint() ([32]byte, error) {
	d.fpOnce.Do(func() {
		h := blake3.New()
		if _, err := io.Copy(h, io.NewSectionReader(d.src, 0, d.size)); err != nil {
			d.fpErr = fmt.Errorf("hashing document: %w", err)
			return
		}
		copy(d.fp[:], h.Sum(nil))
	})
	return d.fp, d.fpErr
}
