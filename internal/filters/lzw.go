package filters

import (
	"bytes"
	"compress/lzw"
	"fmt"
	"io"

	tifflzw "golang.org/x/image/tiff/lzw"
)

// LZWDecode expands LZW data with 8-bit literals, MSB first.
//
// /EarlyChange 1 (the default) widens codes one entry early, as TIFF does,
// and is read with x/image's TIFF decoder; /EarlyChange 0 is the GIF-style
// variant that compress/lzw implements.
func LZWDecode(data []byte, params Params, maxSize int64) ([]byte, error) {
	early, err := intParamIn(params, "EarlyChange", 1, 0, 1)
	if err != nil {
		return nil, err
	}
	pred, err := parsePredictorParams(params)
	if err != nil {
		return nil, err
	}

	var reader io.ReadCloser
	if early == 1 {
		reader = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	} else {
		reader = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	}
	defer reader.Close()

	out, err := readAllLimited(reader, maxSize)
	if err != nil {
		return nil, fmt.Errorf("lzw: %w", err)
	}
	return unpredict(out, pred)
}
