package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"testing"
)

// zlibCompress compresses data for testing
func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// TestFlateDecode tests plain inflation
func TestFlateDecode(t *testing.T) {
	original := []byte("Hello, World! This is test data for FlateDecode.")

	for _, params := range []Params{nil, {"Predictor": 1}} {
		decoded, err := FlateDecode(zlibCompress(original), params, 0)
		if err != nil {
			t.Fatalf("FlateDecode(%v): %v", params, err)
		}
		if !bytes.Equal(decoded, original) {
			t.Errorf("got %q, want %q", decoded, original)
		}
	}
}

// TestFlateDecodeCorrupt tests that corrupt and truncated data fail
func TestFlateDecodeCorrupt(t *testing.T) {
	compressed := zlibCompress(bytes.Repeat([]byte("abc"), 100))

	if _, err := FlateDecode([]byte("not zlib"), nil, 0); err == nil {
		t.Error("expected error for bad header")
	}
	if _, err := FlateDecode(compressed[:len(compressed)/2], nil, 0); err == nil {
		t.Error("expected error for truncated data")
	}
}

// TestFlateDecodeSizeLimit tests the decompression bomb guard
func TestFlateDecodeSizeLimit(t *testing.T) {
	compressed := zlibCompress(make([]byte, 10000))

	if _, err := FlateDecode(compressed, nil, 10000); err != nil {
		t.Fatalf("exact limit should pass: %v", err)
	}
	_, err := FlateDecode(compressed, nil, 9999)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

// TestPredictorParamValidation tests out-of-domain parameters
func TestPredictorParamValidation(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"predictor 3", Params{"Predictor": 3}},
		{"predictor 16", Params{"Predictor": 16}},
		{"bpc 3", Params{"Predictor": 12, "BitsPerComponent": 3}},
		{"zero colors", Params{"Predictor": 12, "Colors": 0}},
		{"zero columns", Params{"Predictor": 12, "Columns": 0}},
	}

	data := zlibCompress([]byte{0, 1, 2})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FlateDecode(data, tt.params, 0)
			if !errors.Is(err, ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

// TestPNGPredictor tests each PNG row filter
func TestPNGPredictor(t *testing.T) {
	params := Params{"Predictor": 12, "Columns": 3}
	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{"none", []byte{0, 1, 2, 3, 0, 4, 5, 6}, []byte{1, 2, 3, 4, 5, 6}},
		{"sub", []byte{1, 1, 1, 1}, []byte{1, 2, 3}},
		{"up", []byte{0, 1, 2, 3, 2, 1, 1, 1}, []byte{1, 2, 3, 2, 3, 4}},
		{"up first row", []byte{2, 5, 6, 7}, []byte{5, 6, 7}},
		{"average", []byte{0, 2, 4, 6, 3, 1, 1, 1}, []byte{2, 4, 6, 2, 4, 6}},
		{"paeth", []byte{0, 1, 2, 3, 4, 1, 1, 1}, []byte{1, 2, 3, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlateDecode(zlibCompress(tt.data), params, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestPNGPredictorErrors tests malformed predicted data
func TestPNGPredictorErrors(t *testing.T) {
	params := Params{"Predictor": 12, "Columns": 3}
	if _, err := FlateDecode(zlibCompress([]byte{0, 1, 2}), params, 0); !errors.Is(err, errShortRow) {
		t.Errorf("short row: got %v", err)
	}
	if _, err := FlateDecode(zlibCompress([]byte{7, 1, 2, 3}), params, 0); err == nil {
		t.Error("expected error for unknown row filter")
	}
}

// TestPNGPredictorMultiByte tests pixel stride with several colors
func TestPNGPredictorMultiByte(t *testing.T) {
	// two RGB pixels, Sub filter: second pixel adds to the first
	params := Params{"Predictor": 11, "Columns": 2, "Colors": 3}
	data := []byte{1, 10, 20, 30, 1, 2, 3}
	got, err := FlateDecode(zlibCompress(data), params, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{10, 20, 30, 11, 22, 33}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestTIFFPredictor tests TIFF Predictor 2 at several sample depths
func TestTIFFPredictor(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		data   []byte
		want   []byte
	}{
		{"8 bit", Params{"Predictor": 2, "Columns": 4}, []byte{1, 1, 1, 1}, []byte{1, 2, 3, 4}},
		{"8 bit two colors", Params{"Predictor": 2, "Columns": 2, "Colors": 2}, []byte{1, 2, 1, 1}, []byte{1, 2, 2, 3}},
		{"16 bit", Params{"Predictor": 2, "Columns": 2, "BitsPerComponent": 16}, []byte{0x00, 0xff, 0x00, 0x01}, []byte{0x00, 0xff, 0x01, 0x00}},
		{"4 bit", Params{"Predictor": 2, "Columns": 2, "BitsPerComponent": 4}, []byte{0x12}, []byte{0x13}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlateDecode(zlibCompress(tt.data), tt.params, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %x, want %x", got, tt.want)
			}
		})
	}
}

// TestPaethPredictor tests the Paeth selection rule
func TestPaethPredictor(t *testing.T) {
	tests := []struct {
		a, b, c, want byte
	}{
		{0, 0, 0, 0},
		{10, 20, 10, 20},
		{20, 10, 10, 20},
		{10, 10, 20, 10},
		{5, 9, 7, 7},
	}
	for _, tt := range tests {
		if got := paethPredictor(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paeth(%d,%d,%d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}
