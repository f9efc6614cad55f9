package core

import (
	"fmt"
	"sync"
)

// Stream is a dictionary followed by a span of raw (still encoded) bytes.
//
// The decoded form is computed at most once per successful decode and then
// shared by every caller; streams are always handled by pointer.
type Stream struct {
	Dict Dict
	Data []byte
	// Offset is the absolute position of Data in the byte source, or -1
	// when the stream did not come from a file.
	Offset int64

	mu      sync.Mutex
	decoded []byte
	done    bool
}

// NewStream returns a stream over raw data that does not originate from a
// byte source.
func NewStream(dict Dict, data []byte) *Stream {
	if dict == nil {
		dict = Dict{}
	}
	return &Stream{Dict: dict, Data: data, Offset: -1}
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// DecodeFunc turns raw stream bytes into decoded bytes.
type DecodeFunc func(s *Stream) ([]byte, error)

// Decoded returns the cached decoded bytes, running decode on first use.
// Concurrent callers wait for the one in flight. A failed decode is not
// cached, so a later call retries.
func (s *Stream) Decoded(decode DecodeFunc) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return s.decoded, nil
	}
	out, err := decode(s)
	if err != nil {
		return nil, err
	}
	s.decoded = out
	s.done = true
	return out, nil
}

// IsDecoded reports whether the decoded bytes are already cached.
func (s *Stream) IsDecoded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
