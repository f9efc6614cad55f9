package filters

import (
	"bytes"
	"fmt"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes CCITT Group 3 (1-D) and Group 4 fax data into
// packed 1-bit rows.
//
// Parameters:
//   - K: <0 selects Group 4, 0 Group 3 1-D; >0 (mixed 2-D) is unsupported
//   - Columns: image width in pixels (default 1728)
//   - Rows: image height, 0 to detect it from the data
//   - BlackIs1: maps to ccitt.Options.Invert
//   - EncodedByteAlign: maps to ccitt.Options.Align
func CCITTFaxDecode(data []byte, params Params, maxSize int64) ([]byte, error) {
	k := getIntParam(params, "K", 0)
	columns := getIntParam(params, "Columns", 1728)
	rows := getIntParam(params, "Rows", 0)
	if columns < 1 || columns > 1<<20 {
		return nil, fmt.Errorf("%w: /Columns %d", ErrInvalidParams, columns)
	}
	if rows < 0 {
		return nil, fmt.Errorf("%w: /Rows %d", ErrInvalidParams, rows)
	}
	if k > 0 {
		return nil, fmt.Errorf("%w: CCITT Group 3 2-D (K=%d)", ErrUnsupported, k)
	}

	sf := ccitt.Group3
	if k < 0 {
		sf = ccitt.Group4
	}
	if rows == 0 {
		rows = ccitt.AutoDetectHeight
	}
	opts := &ccitt.Options{
		Invert: getBoolParam(params, "BlackIs1", false),
		Align:  getBoolParam(params, "EncodedByteAlign", false),
	}

	reader := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts)
	out, err := readAllLimited(reader, maxSize)
	if err != nil {
		return nil, fmt.Errorf("ccitt: %w", err)
	}
	return out, nil
}
