package filters

import (
	"errors"
	"fmt"
)

var errShortRow = errors.New("truncated predictor row")

// predictorParams are the /DecodeParms shared by FlateDecode and LZWDecode.
type predictorParams struct {
	predictor int
	colors    int
	bpc       int
	columns   int
}

func parsePredictorParams(params Params) (predictorParams, error) {
	var p predictorParams
	var err error
	if p.predictor, err = intParamIn(params, "Predictor", 1, 1, 2, 10, 11, 12, 13, 14, 15); err != nil {
		return p, err
	}
	if p.bpc, err = intParamIn(params, "BitsPerComponent", 8, 1, 2, 4, 8, 16); err != nil {
		return p, err
	}
	p.colors = getIntParam(params, "Colors", 1)
	if p.colors < 1 || p.colors > 32 {
		return p, fmt.Errorf("%w: /Colors %d", ErrInvalidParams, p.colors)
	}
	p.columns = getIntParam(params, "Columns", 1)
	if p.columns < 1 || p.columns > 1<<24 {
		return p, fmt.Errorf("%w: /Columns %d", ErrInvalidParams, p.columns)
	}
	return p, nil
}

// rowBytes is the size of one row of samples, without the PNG tag byte.
func (p predictorParams) rowBytes() int {
	return (p.columns*p.colors*p.bpc + 7) / 8
}

// pixelBytes is the distance to the corresponding byte of the previous
// pixel, at least 1.
func (p predictorParams) pixelBytes() int {
	return (p.colors*p.bpc + 7) / 8
}

// unpredict reverses the predictor named by p.
func unpredict(data []byte, p predictorParams) ([]byte, error) {
	switch {
	case p.predictor == 1:
		return data, nil
	case p.predictor == 2:
		return unpredictTIFF(data, p)
	default:
		// 10..15 all mean "PNG, tag byte per row"
		return unpredictPNG(data, p)
	}
}

// unpredictTIFF reverses TIFF Predictor 2: each sample is stored as the
// difference from the same component of the pixel to its left.
func unpredictTIFF(data []byte, p predictorParams) ([]byte, error) {
	rowSize := p.rowBytes()
	if len(data)%rowSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of row size %d", errShortRow, len(data), rowSize)
	}

	out := make([]byte, len(data))
	copy(out, data)

	for start := 0; start < len(out); start += rowSize {
		row := out[start : start+rowSize]
		switch p.bpc {
		case 8:
			for i := p.colors; i < len(row); i++ {
				row[i] += row[i-p.colors]
			}
		case 16:
			stride := 2 * p.colors
			for i := stride; i+1 < len(row); i += 2 {
				prev := uint16(row[i-stride])<<8 | uint16(row[i-stride+1])
				cur := uint16(row[i])<<8 | uint16(row[i+1])
				cur += prev
				row[i], row[i+1] = byte(cur>>8), byte(cur)
			}
		default:
			unpredictTIFFBits(row, p)
		}
	}
	return out, nil
}

// unpredictTIFFBits handles sub-byte samples (1, 2 or 4 bits).
func unpredictTIFFBits(row []byte, p predictorParams) {
	mask := byte(1<<p.bpc - 1)
	samples := p.columns * p.colors
	get := func(i int) byte {
		bit := i * p.bpc
		shift := 8 - p.bpc - bit%8
		return (row[bit/8] >> shift) & mask
	}
	set := func(i int, v byte) {
		bit := i * p.bpc
		shift := 8 - p.bpc - bit%8
		row[bit/8] = row[bit/8]&^(mask<<shift) | (v&mask)<<shift
	}
	for i := p.colors; i < samples; i++ {
		set(i, get(i)+get(i-p.colors))
	}
}

// unpredictPNG reverses PNG filtering. Every row starts with a tag byte
// selecting None, Sub, Up, Average or Paeth for that row.
func unpredictPNG(data []byte, p predictorParams) ([]byte, error) {
	rowSize := p.rowBytes()
	stride := rowSize + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of row size %d", errShortRow, len(data), stride)
	}

	bpp := p.pixelBytes()
	rows := len(data) / stride
	out := make([]byte, rows*rowSize)
	prev := make([]byte, rowSize)

	for r := 0; r < rows; r++ {
		tag := data[r*stride]
		in := data[r*stride+1 : (r+1)*stride]
		cur := out[r*rowSize : (r+1)*rowSize]

		for i := range in {
			var left, upLeft byte
			up := prev[i]
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			switch tag {
			case 0:
				cur[i] = in[i]
			case 1:
				cur[i] = in[i] + left
			case 2:
				cur[i] = in[i] + up
			case 3:
				cur[i] = in[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = in[i] + paethPredictor(left, up, upLeft)
			default:
				return nil, fmt.Errorf("row %d: unknown PNG filter type %d", r, tag)
			}
		}
		prev = cur
	}
	return out, nil
}

// paethPredictor picks the neighbour (left, above, upper-left) closest to
// left + above - upper-left.
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
