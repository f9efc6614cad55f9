package core

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// pdfDocDiffs holds the PDFDocEncoding code points that differ from Latin-1.
var pdfDocDiffs = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1a: 'ˆ', 0x1b: '˙',
	0x1c: '˝', 0x1d: '˛', 0x1e: '˚', 0x1f: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8a: '−', 0x8b: '‰',
	0x8c: '„', 0x8d: '“', 0x8e: '”', 0x8f: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9a: 'ı', 0x9b: 'ł',
	0x9c: 'œ', 0x9d: 'š', 0x9e: 'ž', 0xa0: '€',
}

// Text interprets the string as a text string: UTF-16 or UTF-8 when it
// starts with a byte order mark, PDFDocEncoding otherwise.
func (s String) Text() string {
	if hasBOM(string(s)) {
		out, _, err := transform.String(unicode.BOMOverride(transform.Nop), string(s))
		if err == nil {
			return out
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if r, ok := pdfDocDiffs[c]; ok {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(charmap.ISO8859_1.DecodeByte(c))
	}
	return b.String()
}

func hasBOM(s string) bool {
	return strings.HasPrefix(s, "\xfe\xff") ||
		strings.HasPrefix(s, "\xff\xfe") ||
		strings.HasPrefix(s, "\xef\xbb\xbf")
}
