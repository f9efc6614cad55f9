package xref

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/filter"
)

// Result is the merged cross-reference view of a file.
type Result struct {
	Table *core.XRefTable
	// Trailer is the merged trailer; it is the same map as Table.Trailer.
	Trailer core.Dict
	// Sections lists the sections read, newest first.
	Sections []*core.XRefSection
	// StartXRef is the offset named by startxref, or -1 after recovery
	// when it could not be read.
	StartXRef int64
	// Recovered reports that the table was rebuilt by scanning the file.
	Recovered bool
	// Warnings holds problems that did not prevent loading.
	Warnings []error
}

// Resolver reads the cross-reference chain of one byte source.
type Resolver struct {
	src      io.ReaderAt
	size     int64
	pipeline *filter.Pipeline
	limits   core.Limits
	logger   *slog.Logger
	recovery bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPipeline sets the pipeline used to decode xref and object streams.
func WithPipeline(p *filter.Pipeline) Option {
	return func(r *Resolver) {
		if p != nil {
			r.pipeline = p
		}
	}
}

// WithLimits sets the chain length and parsing limits.
func WithLimits(l core.Limits) Option {
	return func(r *Resolver) {
		r.limits = l.WithDefaults()
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecovery enables or disables the fallback scan (enabled by default).
func WithRecovery(enabled bool) Option {
	return func(r *Resolver) {
		r.recovery = enabled
	}
}

// NewResolver returns a resolver over the size bytes of src.
func NewResolver(src io.ReaderAt, size int64, opts ...Option) *Resolver {
	r := &Resolver{
		src:      src,
		size:     size,
		limits:   core.DefaultLimits(),
		logger:   slog.New(slog.DiscardHandler),
		recovery: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pipeline == nil {
		r.pipeline = filter.New(nil, filter.WithLimits(r.limits), filter.WithLogger(r.logger))
	}
	return r
}

// Resolve reads the chain starting at startxref. If that fails and recovery
// is enabled, the table is rebuilt by scanning the file and the original
// failure is reported as a core.ErrRecoveredWithErrors warning.
func (r *Resolver) Resolve() (*Result, error) {
	res, err := r.resolveChain()
	if err == nil {
		r.logger.Debug("cross-reference chain loaded",
			"sections", len(res.Sections),
			"objects", res.Table.Size(),
			"startxref", res.StartXRef)
		return res, nil
	}
	if !r.recovery {
		return nil, err
	}

	r.logger.Warn("cross-reference chain unreadable, scanning file", "error", err)
	rec, recErr := Recover(r.src, r.size, r.pipeline, r.limits)
	if recErr != nil {
		return nil, errors.Join(err, recErr)
	}
	rec.Warnings = append([]error{fmt.Errorf("%w: %w", core.ErrRecoveredWithErrors, err)}, rec.Warnings...)
	r.logger.Info("cross-reference table recovered", "objects", rec.Table.Size())
	return rec, nil
}

// resolveChain reads the sections newest to oldest, then replays them
// oldest first.
func (r *Resolver) resolveChain() (*Result, error) {
	start, err := FindStartXRef(r.src, r.size)
	if err != nil {
		return nil, err
	}

	res := &Result{StartXRef: start}
	visited := make(map[int64]bool)
	for offset := start; offset >= 0; {
		if visited[offset] {
			return nil, &core.XRefError{Offset: offset, Err: core.ErrCircularXrefChain}
		}
		if len(visited) >= r.limits.MaxXRefChain {
			return nil, &core.XRefError{Offset: offset,
				Err: fmt.Errorf("%w: more than %d sections", core.ErrMalformedXref, r.limits.MaxXRefChain)}
		}
		visited[offset] = true

		section, err := r.readSection(offset)
		if err != nil {
			return nil, err
		}
		res.Sections = append(res.Sections, section)

		info, err := core.ParseTrailer(section.Trailer)
		if err != nil {
			return nil, &core.XRefError{Offset: offset, Err: fmt.Errorf("%w: %v", core.ErrMalformedXref, err)}
		}

		// A hybrid file's stream section sits just below its table.
		if section.Kind == core.SectionTable && info.XRefStm >= 0 && !visited[info.XRefStm] {
			visited[info.XRefStm] = true
			hybrid, err := r.readSection(info.XRefStm)
			if err != nil {
				return nil, err
			}
			if hybrid.Kind != core.SectionStream {
				return nil, &core.XRefError{Offset: info.XRefStm,
					Err: fmt.Errorf("%w: /XRefStm does not point to an xref stream", core.ErrMalformedXref)}
			}
			res.Sections = append(res.Sections, hybrid)
		}
		offset = info.Prev
	}

	res.Table = core.NewXRefTable()
	for i := len(res.Sections) - 1; i >= 0; i-- {
		res.Table.Apply(res.Sections[i])
	}
	res.Trailer = res.Table.Trailer
	return res, nil
}

// readSection parses the table or stream section at offset.
func (r *Resolver) readSection(offset int64) (*core.XRefSection, error) {
	if offset >= r.size {
		return nil, &core.XRefError{Offset: offset, Err: fmt.Errorf("%w: offset beyond end of file", core.ErrMalformedXref)}
	}
	head := make([]byte, 32)
	n, err := r.src.ReadAt(head, offset)
	if err != nil && err != io.EOF {
		return nil, &core.XRefError{Offset: offset, Err: err}
	}
	head = head[:n]
	i := 0
	for i < len(head) && isSpace(head[i]) {
		i++
	}
	switch {
	case i+4 <= len(head) && string(head[i:i+4]) == "xref":
		return parseTable(r.src, r.size, offset, r.limits)
	case i < len(head) && head[i] >= '0' && head[i] <= '9':
		return parseStreamSection(r.src, r.size, offset+int64(i), r.pipeline, r.limits)
	}
	return nil, &core.XRefError{Offset: offset, Err: fmt.Errorf("%w: no table or stream at offset", core.ErrMalformedXref)}
}
