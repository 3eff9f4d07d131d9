package frontend

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/typeforge/typeforge/internal/location"
	"github.com/typeforge/typeforge/internal/rawnode"
)

// ParseGraphQL parses GraphQL SDL type definitions into raw nodes. This is
// a deliberately thin front-end: object/input/interface types become
// object nodes, enums become enum nodes, unions become oneOf nodes, and
// custom scalars become untyped scalars. Execution semantics are ignored.
func ParseGraphQL(docID string, data []byte) (*rawnode.Document, error) {
	lx := &sdlLexer{src: string(data)}
	toks, err := lx.lex()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", docID, err)
	}
	p := &sdlParser{docID: docID, toks: toks}
	return p.parse()
}

type sdlTokKind int

const (
	tokIdent sdlTokKind = iota
	tokPunct
	tokString
	tokInt
	tokFloat
)

type sdlTok struct {
	kind sdlTokKind
	text string
	line int
}

type sdlLexer struct {
	src  string
	pos  int
	line int
}

func (l *sdlLexer) lex() ([]sdlTok, error) {
	l.line = 1
	var out []sdlTok
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == ',':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '"':
			s, err := l.lexString()
			if err != nil {
				return nil, err
			}
			out = append(out, sdlTok{kind: tokString, text: s, line: l.line})
		case isIdentStart(rune(c)):
			start := l.pos
			for l.pos < len(l.src) && isIdentPart(rune(l.src[l.pos])) {
				l.pos++
			}
			out = append(out, sdlTok{kind: tokIdent, text: l.src[start:l.pos], line: l.line})
		case c == '-' || (c >= '0' && c <= '9'):
			start := l.pos
			l.pos++
			kind := tokInt
			for l.pos < len(l.src) && (l.src[l.pos] == '.' || l.src[l.pos] == 'e' || l.src[l.pos] == 'E' ||
				l.src[l.pos] == '+' || l.src[l.pos] == '-' || (l.src[l.pos] >= '0' && l.src[l.pos] <= '9')) {
				if l.src[l.pos] == '.' || l.src[l.pos] == 'e' || l.src[l.pos] == 'E' {
					kind = tokFloat
				}
				l.pos++
			}
			out = append(out, sdlTok{kind: kind, text: l.src[start:l.pos], line: l.line})
		case strings.ContainsRune("{}[]()!:=|&@", rune(c)):
			out = append(out, sdlTok{kind: tokPunct, text: string(c), line: l.line})
			l.pos++
		default:
			return nil, fmt.Errorf("line %d: unexpected character %q", l.line, c)
		}
	}
	return out, nil
}

func (l *sdlLexer) lexString() (string, error) {
	if strings.HasPrefix(l.src[l.pos:], `"""`) {
		end := strings.Index(l.src[l.pos+3:], `"""`)
		if end < 0 {
			return "", fmt.Errorf("line %d: unterminated block string", l.line)
		}
		s := l.src[l.pos+3 : l.pos+3+end]
		l.line += strings.Count(s, "\n")
		l.pos += end + 6
		return strings.TrimSpace(s), nil
	}
	end := l.pos + 1
	for end < len(l.src) && l.src[end] != '"' {
		if l.src[end] == '\\' {
			end++
		}
		if l.src[end] == '\n' {
			return "", fmt.Errorf("line %d: unterminated string", l.line)
		}
		end++
	}
	if end >= len(l.src) {
		return "", fmt.Errorf("line %d: unterminated string", l.line)
	}
	s := l.src[l.pos+1 : end]
	l.pos = end + 1
	return s, nil
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

type sdlParser struct {
	docID string
	toks  []sdlTok
	pos   int
}

func (p *sdlParser) peek() (sdlTok, bool) {
	if p.pos >= len(p.toks) {
		return sdlTok{}, false
	}
	return p.toks[p.pos], true
}

func (p *sdlParser) next() (sdlTok, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *sdlParser) expect(kind sdlTokKind, text string) (sdlTok, error) {
	t, ok := p.next()
	if !ok {
		return t, fmt.Errorf("unexpected end of input, want %q", text)
	}
	if t.kind != kind || (text != "" && t.text != text) {
		return t, fmt.Errorf("line %d: unexpected %q, want %q", t.line, t.text, text)
	}
	return t, nil
}

func (p *sdlParser) parse() (*rawnode.Document, error) {
	doc := &rawnode.Document{ID: p.docID, Anchors: map[string]location.Location{}}
	root := &rawnode.Node{Loc: location.Root(p.docID)}
	doc.Root = root

	pendingDoc := ""
	for {
		t, ok := p.next()
		if !ok {
			break
		}
		if t.kind == tokString {
			pendingDoc = t.text
			continue
		}
		if t.kind != tokIdent {
			return nil, fmt.Errorf("line %d: unexpected %q at top level", t.line, t.text)
		}
		var (
			n   *rawnode.Node
			err error
		)
		switch t.text {
		case "type", "interface", "input":
			n, err = p.parseObject()
		case "enum":
			n, err = p.parseEnum()
		case "union":
			n, err = p.parseUnion()
		case "scalar":
			n, err = p.parseScalar()
		case "schema", "directive", "extend":
			err = p.skipDefinition()
			pendingDoc = ""
			continue
		default:
			return nil, fmt.Errorf("line %d: unknown definition keyword %q", t.line, t.text)
		}
		if err != nil {
			return nil, err
		}
		n.Description = pendingDoc
		pendingDoc = ""
		name := n.Title
		root.Defs = append(root.Defs, rawnode.Prop{Name: name, Schema: n})
		doc.Roots = append(doc.Roots, rawnode.Root{Loc: n.Loc, NameHint: name})
	}
	root.Anchors = doc.Anchors
	return doc, nil
}

func (p *sdlParser) typeLoc(name string) location.Location {
	return location.Root(p.docID).Push("types").Push(name)
}

// parseObject handles type/interface/input definitions.
func (p *sdlParser) parseObject() (*rawnode.Node, error) {
	name, err := p.expect(tokIdent, "")
	if err != nil {
		return nil, err
	}
	n := &rawnode.Node{Loc: p.typeLoc(name.text), Type: "object", Title: name.text}

	// implements A & B becomes allOf base references.
	if t, ok := p.peek(); ok && t.kind == tokIdent && t.text == "implements" {
		p.next()
		for {
			base, err := p.expect(tokIdent, "")
			if err != nil {
				return nil, err
			}
			n.AllOf = append(n.AllOf, &rawnode.Node{
				Loc: n.Loc.Push("implements").Push(base.text),
				Ref: "#/types/" + base.text,
			})
			if t, ok := p.peek(); ok && t.kind == tokPunct && t.text == "&" {
				p.next()
				continue
			}
			break
		}
	}
	p.skipDirectives()

	if _, err := p.expect(tokPunct, "{"); err != nil {
		return nil, err
	}
	fieldDoc := ""
	for {
		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated type %s", name.text)
		}
		if t.kind == tokPunct && t.text == "}" {
			p.next()
			break
		}
		if t.kind == tokString {
			p.next()
			fieldDoc = t.text
			continue
		}
		fname, err := p.expect(tokIdent, "")
		if err != nil {
			return nil, err
		}
		// Field arguments have no data-model meaning; skip them.
		if t, ok := p.peek(); ok && t.kind == tokPunct && t.text == "(" {
			if err := p.skipParens(); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(tokPunct, ":"); err != nil {
			return nil, err
		}
		ft, required, err := p.parseTypeRef(n.Loc.Push("properties").Push(fname.text))
		if err != nil {
			return nil, err
		}
		ft.Description = fieldDoc
		fieldDoc = ""
		if t, ok := p.peek(); ok && t.kind == tokPunct && t.text == "=" {
			p.next()
			def, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			ft.Default = def
			ft.HasDefault = true
		}
		p.skipDirectives()
		n.Properties = append(n.Properties, rawnode.Prop{Name: fname.text, Schema: ft})
		if required {
			n.Required = append(n.Required, fname.text)
		}
	}
	return n, nil
}

// parseTypeRef parses `T`, `[T]`, with `!` markers. The returned bool
// reports outer non-nullability (required).
func (p *sdlParser) parseTypeRef(loc location.Location) (*rawnode.Node, bool, error) {
	t, ok := p.next()
	if !ok {
		return nil, false, fmt.Errorf("unexpected end of type reference")
	}
	var n *rawnode.Node
	switch {
	case t.kind == tokPunct && t.text == "[":
		item, itemRequired, err := p.parseTypeRef(loc.Push("items"))
		if err != nil {
			return nil, false, err
		}
		if !itemRequired {
			item.Nullable = true
		}
		if _, err := p.expect(tokPunct, "]"); err != nil {
			return nil, false, err
		}
		n = &rawnode.Node{Loc: loc, Type: "array", Items: []*rawnode.Node{item}}
	case t.kind == tokIdent:
		n = namedTypeNode(loc, t.text)
	default:
		return nil, false, fmt.Errorf("line %d: unexpected %q in type reference", t.line, t.text)
	}
	required := false
	if t, ok := p.peek(); ok && t.kind == tokPunct && t.text == "!" {
		p.next()
		required = true
	}
	return n, required, nil
}

// namedTypeNode maps built-in scalars onto raw scalar types and everything
// else onto a same-document reference.
func namedTypeNode(loc location.Location, name string) *rawnode.Node {
	switch name {
	case "Int":
		return &rawnode.Node{Loc: loc, Type: "integer"}
	case "Float":
		return &rawnode.Node{Loc: loc, Type: "number"}
	case "String":
		return &rawnode.Node{Loc: loc, Type: "string"}
	case "Boolean":
		return &rawnode.Node{Loc: loc, Type: "boolean"}
	case "ID":
		return &rawnode.Node{Loc: loc, Type: "string"}
	default:
		return &rawnode.Node{Loc: loc, Ref: "#/types/" + name}
	}
}

func (p *sdlParser) parseEnum() (*rawnode.Node, error) {
	name, err := p.expect(tokIdent, "")
	if err != nil {
		return nil, err
	}
	p.skipDirectives()
	if _, err := p.expect(tokPunct, "{"); err != nil {
		return nil, err
	}
	n := &rawnode.Node{Loc: p.typeLoc(name.text), Type: "string", Title: name.text}
	for {
		t, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("unterminated enum %s", name.text)
		}
		if t.kind == tokPunct && t.text == "}" {
			break
		}
		if t.kind == tokString {
			continue
		}
		if t.kind != tokIdent {
			return nil, fmt.Errorf("line %d: unexpected %q in enum", t.line, t.text)
		}
		n.Enum = append(n.Enum, t.text)
		p.skipDirectives()
	}
	return n, nil
}

func (p *sdlParser) parseUnion() (*rawnode.Node, error) {
	name, err := p.expect(tokIdent, "")
	if err != nil {
		return nil, err
	}
	p.skipDirectives()
	if _, err := p.expect(tokPunct, "="); err != nil {
		return nil, err
	}
	n := &rawnode.Node{Loc: p.typeLoc(name.text), Title: name.text}
	for i := 0; ; i++ {
		v, err := p.expect(tokIdent, "")
		if err != nil {
			return nil, err
		}
		n.OneOf = append(n.OneOf, &rawnode.Node{
			Loc: n.Loc.Push("oneOf").PushIndex(i),
			Ref: "#/types/" + v.text,
		})
		if t, ok := p.peek(); ok && t.kind == tokPunct && t.text == "|" {
			p.next()
			continue
		}
		break
	}
	return n, nil
}

func (p *sdlParser) parseScalar() (*rawnode.Node, error) {
	name, err := p.expect(tokIdent, "")
	if err != nil {
		return nil, err
	}
	p.skipDirectives()
	// Custom scalars carry no structure; they compile to Any.
	return &rawnode.Node{Loc: p.typeLoc(name.text), Title: name.text}, nil
}

func (p *sdlParser) parseValue() (any, error) {
	t, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("unexpected end of default value")
	}
	switch t.kind {
	case tokString:
		return t.text, nil
	case tokInt, tokFloat:
		return Number(t.text), nil
	case tokIdent:
		switch t.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		default:
			return t.text, nil // enum literal
		}
	case tokPunct:
		if t.text == "[" {
			var arr []any
			for {
				if nt, ok := p.peek(); ok && nt.kind == tokPunct && nt.text == "]" {
					p.next()
					return arr, nil
				}
				v, err := p.parseValue()
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
		}
	}
	return nil, fmt.Errorf("line %d: unsupported default value %q", t.line, t.text)
}

// skipDirectives consumes any @directive(...) sequence.
func (p *sdlParser) skipDirectives() {
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokPunct || t.text != "@" {
			return
		}
		p.next()
		p.next() // directive name
		if t, ok := p.peek(); ok && t.kind == tokPunct && t.text == "(" {
			_ = p.skipParens()
		}
	}
}

func (p *sdlParser) skipParens() error {
	if _, err := p.expect(tokPunct, "("); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		t, ok := p.next()
		if !ok {
			return fmt.Errorf("unterminated argument list")
		}
		if t.kind == tokPunct {
			switch t.text {
			case "(":
				depth++
			case ")":
				depth--
			}
		}
	}
	return nil
}

// skipDefinition consumes a braced or simple definition body.
func (p *sdlParser) skipDefinition() error {
	depth := 0
	for {
		t, ok := p.peek()
		if !ok {
			return nil
		}
		if t.kind == tokPunct && t.text == "{" {
			depth++
		}
		if t.kind == tokPunct && t.text == "}" {
			depth--
			p.next()
			if depth <= 0 {
				return nil
			}
			continue
		}
		if depth == 0 && t.kind == tokIdent && isDefinitionKeyword(t.text) {
			return nil
		}
		p.next()
	}
}

func isDefinitionKeyword(s string) bool {
	switch s {
	case "type", "interface", "input", "enum", "union", "scalar", "schema", "directive", "extend":
		return true
	}
	return false
}
