package core

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // true, false, null, obj, endobj, stream, endstream, xref, trailer
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // R (after two numbers)
)

var tokenNames = [...]string{
	TokenEOF:         "EOF",
	TokenComment:     "comment",
	TokenKeyword:     "keyword",
	TokenInteger:     "integer",
	TokenReal:        "real",
	TokenString:      "string",
	TokenHexString:   "hex string",
	TokenName:        "name",
	TokenArrayStart:  "'['",
	TokenArrayEnd:    "']'",
	TokenDictStart:   "'<<'",
	TokenDictEnd:     "'>>'",
	TokenIndirectRef: "'R'",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "unknown"
}

// Token is one lexical unit. Pos is the absolute offset of its first byte.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64
}

// Is reports whether the token is the keyword kw.
func (t *Token) Is(kw string) bool {
	return t != nil && t.Type == TokenKeyword && string(t.Value) == kw
}

// Lexer splits object syntax into tokens. Positions are absolute: a lexer
// created with NewLexerAt reports offsets relative to the start of the
// byte source, not of the reader it was handed.
type Lexer struct {
	reader *bufio.Reader
	pos    int64
}

// NewLexer creates a lexer whose first byte is at offset 0.
func NewLexer(r io.Reader) *Lexer {
	return NewLexerAt(r, 0)
}

// NewLexerAt creates a lexer whose first byte is at offset base.
func NewLexerAt(r io.Reader, base int64) *Lexer {
	return &Lexer{reader: bufio.NewReader(r), pos: base}
}

// Pos returns the absolute offset of the next unread byte.
func (l *Lexer) Pos() int64 { return l.pos }

// NextToken returns the next token, skipping whitespace. At end of input
// it returns a TokenEOF token and a nil error.
func (l *Lexer) NextToken() (*Token, error) {
	if err := l.skipWhitespace(); err != nil && err != io.EOF {
		return nil, err
	}

	b, err := l.peek()
	if err == io.EOF {
		return &Token{Type: TokenEOF, Pos: l.pos}, nil
	}
	if err != nil {
		return nil, err
	}

	start := l.pos
	switch b {
	case '%':
		return l.readComment()
	case '[':
		l.readByte()
		return &Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: start}, nil
	case ']':
		l.readByte()
		return &Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: start}, nil
	case '(':
		return l.readString()
	case '<':
		if next, err := l.reader.Peek(2); err == nil && next[1] == '<' {
			l.discard(2)
			return &Token{Type: TokenDictStart, Value: []byte("<<"), Pos: start}, nil
		}
		return l.readHexString()
	case '>':
		if next, err := l.reader.Peek(2); err == nil && next[1] == '>' {
			l.discard(2)
			return &Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: start}, nil
		}
		return nil, syntaxErrorf(start, "unexpected '>'")
	case '/':
		return l.readName()
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber()
	}
	if isRegular(b) {
		return l.readKeyword()
	}
	return nil, syntaxErrorf(start, "unexpected character %q", b)
}

func (l *Lexer) readByte() (byte, error) {
	b, err := l.reader.ReadByte()
	if err != nil {
		return 0, err
	}
	l.pos++
	return b, nil
}

func (l *Lexer) peek() (byte, error) {
	b, err := l.reader.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (l *Lexer) discard(n int) {
	d, _ := l.reader.Discard(n)
	l.pos += int64(d)
}

// skipWhitespace skips space, tab, LF, CR, FF and NUL.
func (l *Lexer) skipWhitespace() error {
	for {
		b, err := l.peek()
		if err != nil {
			return err
		}
		if !isWhitespace(b) {
			return nil
		}
		l.discard(1)
	}
}

// readComment reads from '%' to the end of the line; the EOL is consumed
// but not included.
func (l *Lexer) readComment() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if b == '\r' || b == '\n' {
			l.discard(1)
			if b == '\r' {
				if next, err := l.peek(); err == nil && next == '\n' {
					l.discard(1)
				}
			}
			break
		}
		l.discard(1)
		buf.WriteByte(b)
	}
	return &Token{Type: TokenComment, Value: buf.Bytes(), Pos: start}, nil
}

// readString reads a literal string with balanced parentheses and escapes.
func (l *Lexer) readString() (*Token, error) {
	start := l.pos
	l.discard(1)

	var buf bytes.Buffer
	depth := 1
	for depth > 0 {
		b, err := l.readByte()
		if err != nil {
			return nil, l.unterminated(start, "string", err)
		}
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(b)
			}
		case '\\':
			if err := l.readEscape(&buf); err != nil {
				return nil, l.unterminated(start, "string", err)
			}
		case '\r':
			// An unescaped EOL in a string reads as a single LF.
			if next, err := l.peek(); err == nil && next == '\n' {
				l.discard(1)
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
	return &Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
}

func (l *Lexer) readEscape(buf *bytes.Buffer) error {
	next, err := l.readByte()
	if err != nil {
		return err
	}
	switch next {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		// line continuation
		if p, err := l.peek(); err == nil && p == '\n' {
			l.discard(1)
		}
	case '\n':
	case '0', '1', '2', '3', '4', '5', '6', '7':
		val := next - '0'
		for i := 0; i < 2; i++ {
			p, err := l.peek()
			if err != nil || !isOctalDigit(p) {
				break
			}
			l.discard(1)
			val = val*8 + (p - '0')
		}
		buf.WriteByte(val)
	default:
		// unknown escapes keep the character: \( \) \\ and anything else
		buf.WriteByte(next)
	}
	return nil
}

// readHexString reads <...>. Whitespace inside is ignored; the digits are
// returned undecoded.
func (l *Lexer) readHexString() (*Token, error) {
	start := l.pos
	l.discard(1)

	var buf bytes.Buffer
	for {
		b, err := l.readByte()
		if err != nil {
			return nil, l.unterminated(start, "hex string", err)
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			return nil, syntaxErrorf(l.pos-1, "invalid hex digit %q", b)
		}
		buf.WriteByte(b)
	}
	return &Token{Type: TokenHexString, Value: buf.Bytes(), Pos: start}, nil
}

// readName reads /Name, decoding #xx escapes.
func (l *Lexer) readName() (*Token, error) {
	start := l.pos
	l.discard(1)

	var buf bytes.Buffer
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !isRegular(b) {
			break
		}
		l.discard(1)
		if b != '#' {
			buf.WriteByte(b)
			continue
		}
		hex, err := l.reader.Peek(2)
		if err != nil || !isHexDigit(hex[0]) || !isHexDigit(hex[1]) {
			// a lone '#' is kept literally
			buf.WriteByte('#')
			continue
		}
		buf.WriteByte(hexValue(hex[0])<<4 | hexValue(hex[1]))
		l.discard(2)
	}
	return &Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

// readNumber reads an integer or real. A second '.' ends the number.
func (l *Lexer) readNumber() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer
	hasDecimal := false
loop:
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch {
		case b == '.' && !hasDecimal:
			hasDecimal = true
		case isDigit(b):
		case (b == '-' || b == '+') && buf.Len() == 0:
		default:
			break loop
		}
		l.discard(1)
		buf.WriteByte(b)
	}
	tokenType := TokenInteger
	if hasDecimal {
		tokenType = TokenReal
	}
	return &Token{Type: tokenType, Value: buf.Bytes(), Pos: start}, nil
}

// readKeyword reads a run of regular characters.
func (l *Lexer) readKeyword() (*Token, error) {
	start := l.pos
	var buf bytes.Buffer
	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !isRegular(b) {
			break
		}
		l.discard(1)
		buf.WriteByte(b)
	}

	value := buf.Bytes()
	if len(value) == 1 && value[0] == 'R' {
		return &Token{Type: TokenIndirectRef, Value: value, Pos: start}, nil
	}
	return &Token{Type: TokenKeyword, Value: value, Pos: start}, nil
}

func (l *Lexer) unterminated(start int64, what string, err error) error {
	if errors.Is(err, io.EOF) {
		return syntaxErrorf(start, "unterminated %s", what)
	}
	return err
}

// SkipStreamEOL consumes the end-of-line marker that follows the "stream"
// keyword: CRLF or LF, and a lone CR as a common producer mistake. Spaces
// before the EOL are tolerated.
func (l *Lexer) SkipStreamEOL() error {
	for {
		b, err := l.peek()
		if err != nil {
			return err
		}
		if b != ' ' && b != '\t' {
			break
		}
		l.discard(1)
	}
	b, err := l.peek()
	if err != nil {
		return err
	}
	switch b {
	case '\n':
		l.discard(1)
	case '\r':
		l.discard(1)
		if next, err := l.peek(); err == nil && next == '\n' {
			l.discard(1)
		}
	}
	return nil
}

// ReadBytes reads exactly n bytes of binary data. The buffer grows with the
// bytes actually read, so a length far beyond the source fails at its end
// without allocating n bytes up front.
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, syntaxErrorf(l.pos, "negative length %d", n)
	}
	var buf bytes.Buffer
	read, err := io.CopyN(&buf, l.reader, int64(n))
	l.pos += read
	if err != nil {
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), syntaxErrorf(l.pos, "unexpected end of data: expected %d bytes, got %d", n, read)
		}
		return buf.Bytes(), err
	}
	return buf.Bytes(), nil
}

// Unread pushes data back in front of the unread input and moves the
// position back by its length. data must be the bytes most recently read.
func (l *Lexer) Unread(data []byte) {
	if len(data) == 0 {
		return
	}
	l.reader = bufio.NewReader(io.MultiReader(bytes.NewReader(data), l.reader))
	l.pos -= int64(len(data))
}

// AtEndstream reports whether the next non-whitespace bytes are the
// "endstream" keyword. Nothing is consumed.
func (l *Lexer) AtEndstream() bool {
	next, _ := l.reader.Peek(64)
	i := 0
	for i < len(next) && isWhitespace(next[i]) {
		i++
	}
	return bytes.HasPrefix(next[i:], endstreamKeyword)
}

var endstreamKeyword = []byte("endstream")

// ReadUntilEndstream reads binary data up to the "endstream" keyword,
// dropping the EOL that precedes it. The keyword itself is left unread.
// It backs the recovery path for streams whose /Length is missing or wrong.
func (l *Lexer) ReadUntilEndstream(limit int64) ([]byte, error) {
	var buf bytes.Buffer
	for {
		if limit > 0 && int64(buf.Len()) > limit {
			return nil, syntaxErrorf(l.pos, "no endstream within %d bytes", limit)
		}
		b, err := l.peek()
		if err != nil {
			return nil, l.unterminated(l.pos, "stream", err)
		}
		if b == 'e' {
			if next, err := l.reader.Peek(len(endstreamKeyword)); err == nil && bytes.Equal(next, endstreamKeyword) {
				break
			}
		}
		l.discard(1)
		buf.WriteByte(b)
	}
	data := buf.Bytes()
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
	}
	if n := len(data); n > 0 && data[n-1] == '\r' {
		data = data[:n-1]
	}
	return data, nil
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
