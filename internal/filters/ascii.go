package filters

import (
	"bytes"
	"fmt"
)

// ASCIIHexDecode decodes pairs of hexadecimal digits. Whitespace is ignored,
// '>' ends the data, and a final odd digit is read as if followed by 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	odd := false
	for i, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, ok := hexDigitToByte(c)
		if !ok {
			return nil, fmt.Errorf("asciihex: invalid digit %q at %d", c, i)
		}
		if odd {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		odd = !odd
	}
	if odd {
		out = append(out, hi<<4)
	}
	return out, nil
}

// ASCII85Decode decodes base-85 data: five characters '!'..'u' encode four
// bytes, 'z' stands for four zero bytes, and "~>" ends the data. A leading
// "<~" is skipped.
func ASCII85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimLeft(data, " \t\r\n\f\x00")
	data = bytes.TrimPrefix(data, []byte("<~"))

	var out bytes.Buffer
	var group [5]byte
	n := 0

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			if i+1 < len(data) && data[i+1] != '>' {
				return nil, fmt.Errorf("ascii85: '~' not followed by '>' at %d", i)
			}
			i = len(data)
			continue
		case c == 'z':
			if n != 0 {
				return nil, fmt.Errorf("ascii85: 'z' inside a group at %d", i)
			}
			out.Write([]byte{0, 0, 0, 0})
			continue
		case c < '!' || c > 'u':
			return nil, fmt.Errorf("ascii85: invalid character %q at %d", c, i)
		}

		group[n] = c - '!'
		n++
		if n == 5 {
			if err := writeA85Group(&out, group, 4); err != nil {
				return nil, err
			}
			n = 0
		}
	}

	switch n {
	case 0:
	case 1:
		return nil, fmt.Errorf("ascii85: final group has a single character")
	default:
		// pad a partial group with 'u' and keep n-1 bytes
		for j := n; j < 5; j++ {
			group[j] = 84
		}
		if err := writeA85Group(&out, group, n-1); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

func writeA85Group(out *bytes.Buffer, group [5]byte, keep int) error {
	var v uint64
	for _, d := range group {
		v = v*85 + uint64(d)
	}
	if v > 0xffffffff {
		return fmt.Errorf("ascii85: group value overflows 32 bits")
	}
	for j := 0; j < keep; j++ {
		out.WriteByte(byte(v >> (24 - 8*j)))
	}
	return nil
}

// hexDigitToByte converts a hexadecimal character to its numeric value (0-15).
func hexDigitToByte(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
