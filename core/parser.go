package core

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver resolves indirect references met while parsing, such as
// a stream /Length stored in another object.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser parses objects from a token stream with two tokens of lookahead.
type Parser struct {
	lexer        *Lexer
	currentToken *Token
	peekToken    *Token
	err          error
	resolver     ReferenceResolver
	maxNesting   int
	maxScan      int64
	depth        int
}

// NewParser creates a parser reading from r, with offsets starting at 0.
func NewParser(r io.Reader) *Parser {
	return NewParserAt(r, 0)
}

// NewParserAt creates a parser whose first byte sits at absolute offset base
// in the byte source, so positions in errors and streams are absolute.
func NewParserAt(r io.Reader, base int64) *Parser {
	limits := DefaultLimits()
	p := &Parser{
		lexer:      NewLexerAt(r, base),
		maxNesting: limits.MaxNesting,
		maxScan:    limits.MaxDecodedSize,
	}
	p.nextToken()
	p.nextToken()
	return p
}

// SetReferenceResolver sets the resolver used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// SetLimits applies the nesting and scan limits from l.
func (p *Parser) SetLimits(l Limits) {
	l = l.WithDefaults()
	p.maxNesting = l.MaxNesting
	p.maxScan = l.MaxDecodedSize
}

// Offset returns the absolute position of the next unconsumed token.
func (p *Parser) Offset() int64 {
	if p.currentToken != nil {
		return p.currentToken.Pos
	}
	return p.lexer.Pos()
}

// nextToken shifts the lookahead. Lexer errors are kept and reported when
// the parser next needs a token.
func (p *Parser) nextToken() {
	p.currentToken = p.peekToken

	// Bytes after "stream" are binary; parseStream reads them directly.
	if p.currentToken.Is("stream") {
		p.peekToken = nil
		return
	}
	if p.err != nil {
		p.peekToken = nil
		return
	}
	token, err := p.lexer.NextToken()
	if err != nil {
		p.err = err
		p.peekToken = nil
		return
	}
	p.peekToken = token
}

func (p *Parser) skipComments() {
	for p.currentToken != nil && p.currentToken.Type == TokenComment {
		p.nextToken()
	}
}

// current returns the current token, or the pending lexer error.
func (p *Parser) current() (*Token, error) {
	p.skipComments()
	if p.currentToken == nil {
		if p.err != nil {
			return nil, p.err
		}
		return nil, syntaxErrorf(p.lexer.Pos(), "unexpected end of input")
	}
	return p.currentToken, nil
}

// ParseObject parses the next direct object. It returns io.EOF at end of input.
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.current()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			p.nextToken()
			return Null{}, nil
		case "true":
			p.nextToken()
			return Bool(true), nil
		case "false":
			p.nextToken()
			return Bool(false), nil
		}
		return nil, syntaxErrorf(tok.Pos, "unexpected keyword %q", tok.Value)

	case TokenInteger:
		return p.parseNumber()

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, syntaxErrorf(tok.Pos, "invalid real %q", tok.Value)
		}
		p.nextToken()
		return Real(val), nil

	case TokenString:
		p.nextToken()
		return String(tok.Value), nil

	case TokenHexString:
		digits := tok.Value
		if len(digits)%2 != 0 {
			digits = append(digits, '0')
		}
		out := make([]byte, len(digits)/2)
		if _, err := hex.Decode(out, digits); err != nil {
			return nil, syntaxErrorf(tok.Pos, "invalid hex string: %v", err)
		}
		p.nextToken()
		return String(out), nil

	case TokenName:
		p.nextToken()
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()
	}
	return nil, syntaxErrorf(tok.Pos, "unexpected %s", tok.Type)
}

// parseNumber parses an integer, real, or "num gen R" reference.
func (p *Parser) parseNumber() (Object, error) {
	tok := p.currentToken
	first, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		// "-" or "+" alone, or an integer that overflows int64
		f, ferr := strconv.ParseFloat(string(tok.Value), 64)
		if ferr != nil {
			return nil, syntaxErrorf(tok.Pos, "invalid number %q", tok.Value)
		}
		p.nextToken()
		return Real(f), nil
	}

	if first >= 0 && p.peekToken != nil && p.peekToken.Type == TokenInteger {
		second, err := strconv.ParseInt(string(p.peekToken.Value), 10, 64)
		if err == nil && second >= 0 {
			p.nextToken()
			if p.peekToken != nil && p.peekToken.Type == TokenIndirectRef {
				p.nextToken()
				p.nextToken()
				return IndirectRef{Number: int(first), Generation: int(second)}, nil
			}
			// the second integer is now current and stays unconsumed
			return Int(first), nil
		}
	}

	p.nextToken()
	return Int(first), nil
}

func (p *Parser) enter(pos int64) error {
	p.depth++
	if p.depth > p.maxNesting {
		return syntaxErrorf(pos, "nesting deeper than %d", p.maxNesting)
	}
	return nil
}

// parseArray parses "[obj1 obj2 ...]".
func (p *Parser) parseArray() (Object, error) {
	start := p.currentToken.Pos
	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.nextToken()

	arr := Array{}
	for {
		tok, err := p.current()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			p.nextToken()
			return arr, nil
		case TokenEOF:
			return nil, syntaxErrorf(start, "unterminated array")
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", len(arr), err)
		}
		arr = append(arr, obj)
	}
}

// parseDict parses "<< /Key value ... >>". A repeated key keeps its last value.
func (p *Parser) parseDict() (Object, error) {
	start := p.currentToken.Pos
	if err := p.enter(start); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()
	p.nextToken()

	dict := make(Dict)
	for {
		tok, err := p.current()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			p.nextToken()
			return dict, nil
		case TokenEOF:
			return nil, syntaxErrorf(start, "unterminated dictionary")
		case TokenName:
		default:
			return nil, syntaxErrorf(tok.Pos, "dictionary key must be a name, got %s", tok.Type)
		}
		key := string(tok.Value)
		p.nextToken()

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("dictionary value for /%s: %w", key, err)
		}
		// A null value is equivalent to an absent key.
		if _, isNull := value.(Null); isNull {
			delete(dict, key)
			continue
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", including a
// stream body when the object is a dictionary followed by "stream".
// A missing endobj is tolerated.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	tok, err := p.current()
	if err != nil {
		return nil, err
	}
	offset := tok.Pos

	num, err := p.expectUint("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.expectUint("generation number")
	if err != nil {
		return nil, err
	}
	tok, err = p.current()
	if err != nil {
		return nil, err
	}
	if !tok.Is("obj") {
		return nil, syntaxErrorf(tok.Pos, "expected 'obj', got %s %q", tok.Type, tok.Value)
	}
	p.nextToken()

	id := ObjectID{Number: num, Generation: gen}
	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", id, err)
	}

	if p.currentToken.Is("stream") {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, syntaxErrorf(p.currentToken.Pos, "stream must follow a dictionary")
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", id, err)
		}
		obj = stream
	}

	if p.currentToken.Is("endobj") {
		p.nextToken()
	}
	return &IndirectObject{ID: id, Object: obj, Offset: offset}, nil
}

func (p *Parser) expectUint(what string) (int, error) {
	tok, err := p.current()
	if err != nil {
		return 0, err
	}
	if tok.Type != TokenInteger {
		return 0, syntaxErrorf(tok.Pos, "expected %s, got %s", what, tok.Type)
	}
	n, err := strconv.Atoi(string(tok.Value))
	if err != nil || n < 0 {
		return 0, syntaxErrorf(tok.Pos, "invalid %s %q", what, tok.Value)
	}
	p.nextToken()
	return n, nil
}

// parseStream reads the stream body following the "stream" keyword.
//
// The body length comes from /Length, resolved through the reference
// resolver when indirect. When the length is absent, unresolvable, or does
// not land on "endstream", the body is taken to be everything up to the
// "endstream" keyword instead.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, syntaxErrorf(p.lexer.Pos(), "stream without data")
	}
	dataOffset := p.lexer.Pos()

	var data []byte
	found := false
	if length, ok := p.streamLength(dict); ok && length <= p.maxScan {
		buf, err := p.lexer.ReadBytes(int(length))
		if err == nil && p.lexer.AtEndstream() {
			data, found = buf, true
		} else {
			// The declared length is wrong; scan from the start of the data.
			p.lexer.Unread(buf)
		}
	}
	if !found {
		buf, err := p.lexer.ReadUntilEndstream(p.maxScan)
		if err != nil {
			return nil, err
		}
		data = buf
	}

	token, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	if !token.Is("endstream") {
		return nil, syntaxErrorf(token.Pos, "expected 'endstream', got %s %q", token.Type, token.Value)
	}

	p.currentToken = nil
	p.peekToken = nil
	p.nextToken()
	p.nextToken()

	return &Stream{Dict: dict, Data: data, Offset: dataOffset}, nil
}

func (p *Parser) streamLength(dict Dict) (int64, bool) {
	switch v := dict.Get("Length").(type) {
	case Int:
		return int64(v), v >= 0
	case IndirectRef:
		if p.resolver == nil {
			return 0, false
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			return 0, false
		}
		n, ok := resolved.(Int)
		return int64(n), ok && n >= 0
	}
	return 0, false
}
