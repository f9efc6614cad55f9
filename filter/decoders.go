package filter

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/internal/filters"
)

// codec adapts a function from internal/filters to the Decoder interface.
type codec struct {
	name  string
	image bool
	fn    func(data []byte, params filters.Params, maxSize int64) ([]byte, error)
}

func (c codec) Name() string { return c.name }
func (c codec) Image() bool  { return c.image }

func (c codec) Decode(input []byte, params core.Dict, limits core.Limits) ([]byte, error) {
	return c.fn(input, dictToParams(params), limits.MaxDecodedSize)
}

func builtinDecoders() []Decoder {
	return []Decoder{
		codec{name: "FlateDecode", fn: filters.FlateDecode},
		codec{name: "LZWDecode", fn: filters.LZWDecode},
		codec{name: "RunLengthDecode", fn: func(data []byte, _ filters.Params, max int64) ([]byte, error) {
			return filters.RunLengthDecode(data, max)
		}},
		codec{name: "ASCIIHexDecode", fn: func(data []byte, _ filters.Params, _ int64) ([]byte, error) {
			return filters.ASCIIHexDecode(data)
		}},
		codec{name: "ASCII85Decode", fn: func(data []byte, _ filters.Params, _ int64) ([]byte, error) {
			return filters.ASCII85Decode(data)
		}},
		codec{name: "CCITTFaxDecode", image: true, fn: filters.CCITTFaxDecode},
		codec{name: "DCTDecode", image: true, fn: passThrough},
		codec{name: "JPXDecode", image: true, fn: passThrough},
		cryptDecoder{},
	}
}

// passThrough leaves encoded image data for the caller to interpret.
func passThrough(data []byte, _ filters.Params, _ int64) ([]byte, error) {
	return data, nil
}

// cryptDecoder accepts only the Identity crypt filter. Decryption is not
// supported.
type cryptDecoder struct{}

func (cryptDecoder) Name() string { return "Crypt" }

func (cryptDecoder) Decode(input []byte, params core.Dict, _ core.Limits) ([]byte, error) {
	name := "Identity"
	if v := params.Get("Name"); v != nil {
		n, err := core.AsName(v)
		if err != nil {
			return nil, fmt.Errorf("%w: /Name: %v", core.ErrInvalidFilterParams, err)
		}
		name = string(n)
	}
	if name != "Identity" {
		return nil, fmt.Errorf("%w: crypt filter /%s", core.ErrInvalidFilterParams, name)
	}
	return input, nil
}

// dictToParams converts a decode parameter dictionary to filters.Params,
// translating PDF values to Go primitives.
func dictToParams(dict core.Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case core.Int:
			params[k] = int(obj)
		case core.Real:
			params[k] = float64(obj)
		case core.Bool:
			params[k] = bool(obj)
		case core.String:
			params[k] = string(obj)
		case core.Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
