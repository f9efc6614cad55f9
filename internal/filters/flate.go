package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
)

// FlateDecode inflates zlib data and reverses the predictor named in params.
// Output larger than maxSize bytes fails with ErrTooLarge.
func FlateDecode(data []byte, params Params, maxSize int64) ([]byte, error) {
	pred, err := parsePredictorParams(params)
	if err != nil {
		return nil, err
	}

	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer reader.Close()

	out, err := readAllLimited(reader, maxSize)
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	return unpredict(out, pred)
}
