package filter

import (
	"sort"
	"sync"

	"github.com/tsawler/pdfgraph/core"
)

// Decoder decodes the output of one filter stage.
type Decoder interface {
	Name() string
	Decode(input []byte, params core.Dict, limits core.Limits) ([]byte, error)
}

// ImageDecoder marks decoders whose output is image data. Such a filter may
// only appear as the last stage of a pipeline.
type ImageDecoder interface {
	Decoder
	Image() bool
}

// Registry maps filter names to decoders. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
	aliases  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]Decoder),
		aliases:  make(map[string]string),
	}
}

// DefaultRegistry returns a new registry holding every built-in filter and
// the standard abbreviations. Each call returns an independent registry.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range builtinDecoders() {
		r.Register(d)
	}
	for alias, name := range map[string]string{
		"Fl":  "FlateDecode",
		"LZW": "LZWDecode",
		"RL":  "RunLengthDecode",
		"AHx": "ASCIIHexDecode",
		"A85": "ASCII85Decode",
		"CCF": "CCITTFaxDecode",
		"DCT": "DCTDecode",
	} {
		r.Alias(alias, name)
	}
	return r
}

// Register adds d under d.Name(), replacing any decoder of that name.
func (r *Registry) Register(d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[d.Name()] = d
}

// Alias makes alias resolve to the decoder registered as name.
func (r *Registry) Alias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = name
}

// Lookup returns the decoder for name, following aliases.
func (r *Registry) Lookup(name string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.decoders[name]; ok {
		return d, true
	}
	if target, ok := r.aliases[name]; ok {
		d, ok := r.decoders[target]
		return d, ok
	}
	return nil, false
}

// Names returns the registered filter names in sorted order, without aliases.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.decoders))
	for name := range r.decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isImage(d Decoder) bool {
	img, ok := d.(ImageDecoder)
	return ok && img.Image()
}
