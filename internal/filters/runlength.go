package filters

import (
	"errors"
	"fmt"
)

var errRunLengthTruncated = errors.New("runlength: truncated run")

// RunLengthDecode expands byte-oriented run-length data. A length byte L
// in 0..127 copies the next L+1 bytes, 129..255 repeats the next byte
// 257-L times, and 128 ends the data.
func RunLengthDecode(data []byte, maxSize int64) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); {
		l := int(data[i])
		i++
		switch {
		case l == 128:
			return out, nil
		case l < 128:
			n := l + 1
			if i+n > len(data) {
				return nil, fmt.Errorf("%w: literal of %d bytes at %d", errRunLengthTruncated, n, i-1)
			}
			out = append(out, data[i:i+n]...)
			i += n
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("%w: repeat at %d", errRunLengthTruncated, i-1)
			}
			for n := 257 - l; n > 0; n-- {
				out = append(out, data[i])
			}
			i++
		}
		if err := checkSize(len(out), maxSize); err != nil {
			return nil, err
		}
	}
	// missing EOD marker is tolerated
	return out, nil
}
