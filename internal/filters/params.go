package filters

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidParams reports a decode parameter outside the filter's domain.
	ErrInvalidParams = errors.New("invalid decode parameters")
	// ErrUnsupported reports a valid but unimplemented filter variant.
	ErrUnsupported = errors.New("unsupported filter variant")
	// ErrTooLarge reports output beyond the configured size limit.
	ErrTooLarge = errors.New("decoded data exceeds size limit")
)

// Params holds decode parameters with values already converted to Go
// primitives: int, float64, bool, string.
type Params map[string]interface{}

// getIntParam extracts an integer parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to an integer.
func getIntParam(params Params, key string, defaultValue int) int {
	v, ok := params[key]
	if !ok {
		return defaultValue
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return defaultValue
}

// getBoolParam extracts a boolean parameter from Params, returning defaultValue
// if the parameter is missing or not a boolean.
func getBoolParam(params Params, key string, defaultValue bool) bool {
	if b, ok := params[key].(bool); ok {
		return b
	}
	return defaultValue
}

// intParamIn reads key and checks it against the allowed values.
func intParamIn(params Params, key string, def int, allowed ...int) (int, error) {
	v := getIntParam(params, key, def)
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: /%s %d", ErrInvalidParams, key, v)
}

// readAllLimited reads r to the end, failing once more than max bytes
// arrive. A non-positive max means no limit.
func readAllLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if n > max {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, max)
	}
	return buf.Bytes(), nil
}

// checkSize fails when n exceeds a positive max.
func checkSize(n int, max int64) error {
	if max > 0 && int64(n) > max {
		return fmt.Errorf("%w (%d bytes)", ErrTooLarge, max)
	}
	return nil
}
