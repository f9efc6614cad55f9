// Package filter decodes PDF stream data through a chain of named filters.
//
// A Registry maps filter names (and their abbreviations) to Decoders. A
// Pipeline applies an ordered list of Stages left to right and reports any
// failure as a *core.FilterError carrying the stage index and filter name:
//
//	p := filter.New(filter.DefaultRegistry())
//	stages, err := filter.StagesFor(stream.Dict, nil)
//	if err != nil {
//	    return err
//	}
//	data, err := p.Decode(stream.Data, stages)
//
// DecodeStream does both steps and caches the result on the stream.
//
// Image filters (DCTDecode, JPXDecode, CCITTFaxDecode) must be the last
// stage. DCTDecode and JPXDecode pass their input through unchanged, leaving
// the encoded image to the caller.
package filter
