package filter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/internal/filters"
)

// Pipeline applies filter stages using the decoders of a Registry.
type Pipeline struct {
	registry *Registry
	limits   core.Limits
	resolver core.ReferenceResolver
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLimits sets the decode limits (MaxDecodedSize bounds each stage).
func WithLimits(l core.Limits) Option {
	return func(p *Pipeline) {
		p.limits = l.WithDefaults()
	}
}

// WithResolver sets the resolver used for indirect /Filter and
// /DecodeParms values in DecodeStream.
func WithResolver(r core.ReferenceResolver) Option {
	return func(p *Pipeline) {
		p.resolver = r
	}
}

// WithLogger sets the logger for per-stage debug records.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a pipeline over reg. A nil registry means DefaultRegistry().
func New(reg *Registry, opts ...Option) *Pipeline {
	if reg == nil {
		reg = DefaultRegistry()
	}
	p := &Pipeline{
		registry: reg,
		limits:   core.DefaultLimits(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the registry the pipeline looks filters up in.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Decode applies stages to raw from left to right. An empty list returns raw
// unchanged. Every failure is a *core.FilterError.
func (p *Pipeline) Decode(raw []byte, stages []Stage) ([]byte, error) {
	decoders := make([]Decoder, len(stages))
	for i, st := range stages {
		d, ok := p.registry.Lookup(st.Name)
		if !ok {
			return nil, &core.FilterError{Stage: i, Filter: st.Name, Kind: core.ErrUnsupportedFilter}
		}
		if isImage(d) && i != len(stages)-1 {
			return nil, &core.FilterError{Stage: i, Filter: st.Name, Kind: core.ErrInvalidFilterParams,
				Err: errors.New("image filter must be the last stage")}
		}
		decoders[i] = d
	}

	data := raw
	for i, d := range decoders {
		out, err := d.Decode(data, stages[i].Params, p.limits)
		if err != nil {
			return nil, &core.FilterError{Stage: i, Filter: stages[i].Name, Kind: classify(err), Err: err}
		}
		if int64(len(out)) > p.limits.MaxDecodedSize {
			return nil, &core.FilterError{Stage: i, Filter: stages[i].Name, Kind: core.ErrFilterDecode,
				Err: fmt.Errorf("%w: %d bytes", filters.ErrTooLarge, len(out))}
		}
		p.logger.Debug("filter stage decoded",
			"stage", i,
			"filter", stages[i].Name,
			"in", humanize.Bytes(uint64(len(data))),
			"out", humanize.Bytes(uint64(len(out))))
		data = out
	}
	return data, nil
}

// DecodeStream decodes s through its own /Filter chain. The result is cached
// on the stream; later calls return the cached bytes.
func (p *Pipeline) DecodeStream(s *core.Stream) ([]byte, error) {
	if s == nil {
		return nil, &core.TypeError{Want: core.ObjStream}
	}
	var stages []Stage
	if !s.IsDecoded() {
		var err error
		if stages, err = StagesWithLimits(s.Dict, p.resolver, p.limits); err != nil {
			return nil, err
		}
	}
	return s.Decoded(func(s *core.Stream) ([]byte, error) {
		return p.Decode(s.Data, stages)
	})
}

// classify maps a decoder error to its error kind.
func classify(err error) error {
	switch {
	case errors.Is(err, core.ErrInvalidFilterParams), errors.Is(err, filters.ErrInvalidParams):
		return core.ErrInvalidFilterParams
	case errors.Is(err, core.ErrUnsupportedFilter), errors.Is(err, filters.ErrUnsupported):
		return core.ErrUnsupportedFilter
	}
	return core.ErrFilterDecode
}
