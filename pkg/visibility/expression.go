package visibility

import (
	"bytes"
	"fmt"
)

// NodeType is the kind of a parsed expression node.
type NodeType int

const (
	// EmptyNode is the empty expression, visible to everyone.
	EmptyNode NodeType = iota
	// TermNode is a single label.
	TermNode
	// AndNode requires all children.
	AndNode
	// OrNode requires any child.
	OrNode
)

// Node is one element of a parsed expression tree.
type Node struct {
	Type     NodeType
	Children []*Node

	// token holds the term exactly as written, quotes and escapes included.
	token []byte
	// parens counts the redundant parentheses wrapping this node.
	parens int
}

// Label returns the unquoted label of a term node.
func (n *Node) Label() []byte {
	if n.Type != TermNode {
		return nil
	}
	if len(n.token) >= 2 && n.token[0] == '"' {
		return unquote(n.token[1 : len(n.token)-1])
	}
	return n.token
}

// Expression is a parsed visibility label.
type Expression struct {
	root *Node
}

// ParseError describes where and why an expression failed to parse.
type ParseError struct {
	Expression []byte
	Offset     int
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Reason, e.Offset, e.Expression)
}

// Parse parses a visibility label. The empty label is valid.
func Parse(expr []byte) (*Expression, error) {
	p := &parser{expr: expr}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Expression{root: root}, nil
}

// MustParse is Parse that panics on error. Intended for literals.
func MustParse(expr string) *Expression {
	e, err := Parse([]byte(expr))
	if err != nil {
		panic(err)
	}
	return e
}

// Root returns the top node of the expression tree.
func (e *Expression) Root() *Node {
	return e.root
}

// Bytes serializes the expression tree. For any input accepted by Parse
// the result is byte-identical to that input.
func (e *Expression) Bytes() []byte {
	var buf bytes.Buffer
	writeNode(&buf, e.root)
	return buf.Bytes()
}

// String returns the canonical string form of the expression.
func (e *Expression) String() string {
	return string(e.Bytes())
}

// IsEmpty reports whether the expression places no restriction.
func (e *Expression) IsEmpty() bool {
	return e.root.Type == EmptyNode
}

// Evaluate reports whether auths satisfy the expression.
func (e *Expression) Evaluate(auths Authorizations) bool {
	return evaluate(e.root, auths)
}

func evaluate(n *Node, auths Authorizations) bool {
	switch n.Type {
	case EmptyNode:
		return true
	case TermNode:
		return auths.Contains(n.Label())
	case AndNode:
		for _, c := range n.Children {
			if !evaluate(c, auths) {
				return false
			}
		}
		return true
	case OrNode:
		for _, c := range n.Children {
			if evaluate(c, auths) {
				return true
			}
		}
		return false
	}
	return false
}

func writeNode(buf *bytes.Buffer, n *Node) {
	for i := 0; i < n.parens; i++ {
		buf.WriteByte('(')
	}
	switch n.Type {
	case TermNode:
		buf.Write(n.token)
	case AndNode, OrNode:
		op := byte('&')
		if n.Type == OrNode {
			op = '|'
		}
		for i, c := range n.Children {
			if i > 0 {
				buf.WriteByte(op)
			}
			writeNode(buf, c)
		}
	}
	for i := 0; i < n.parens; i++ {
		buf.WriteByte(')')
	}
}

type parser struct {
	expr []byte
	pos  int
}

func (p *parser) fail(reason string) error {
	return &ParseError{Expression: p.expr, Offset: p.pos, Reason: reason}
}

func (p *parser) parse() (*Node, error) {
	if len(p.expr) == 0 {
		return &Node{Type: EmptyNode}, nil
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.expr) {
		if p.expr[p.pos] == ')' {
			return nil, p.fail("unbalanced parenthesis")
		}
		return nil, p.fail("unexpected character")
	}
	return n, nil
}

// parseExpr parses terms joined by a single operator kind. Mixing & and |
// without parentheses is rejected.
func (p *parser) parseExpr() (*Node, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	var node *Node
	for p.pos < len(p.expr) {
		c := p.expr[p.pos]
		if c != '&' && c != '|' {
			break
		}
		typ := AndNode
		if c == '|' {
			typ = OrNode
		}
		if node == nil {
			node = &Node{Type: typ, Children: []*Node{first}}
		} else if node.Type != typ {
			return nil, p.fail("cannot mix & and |")
		}
		p.pos++
		next, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, next)
	}
	if node == nil {
		return first, nil
	}
	return node, nil
}

func (p *parser) parseTerm() (*Node, error) {
	if p.pos >= len(p.expr) {
		return nil, p.fail("missing term")
	}
	switch c := p.expr[p.pos]; {
	case c == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.expr) || p.expr[p.pos] != ')' {
			return nil, p.fail("unbalanced parenthesis")
		}
		p.pos++
		inner.parens++
		return inner, nil
	case c == '"':
		return p.parseQuoted()
	case isLabelChar(c):
		start := p.pos
		for p.pos < len(p.expr) && isLabelChar(p.expr[p.pos]) {
			p.pos++
		}
		return &Node{Type: TermNode, token: p.expr[start:p.pos]}, nil
	case c == ')':
		return nil, p.fail("empty expression or term")
	default:
		return nil, p.fail(fmt.Sprintf("invalid character %q", c))
	}
}

func (p *parser) parseQuoted() (*Node, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.expr) {
		switch p.expr[p.pos] {
		case '\\':
			if p.pos+1 >= len(p.expr) || (p.expr[p.pos+1] != '"' && p.expr[p.pos+1] != '\\') {
				return nil, p.fail("invalid escape in quoted label")
			}
			p.pos += 2
		case '"':
			p.pos++
			if p.pos-start == 2 {
				return nil, p.fail("empty quoted label")
			}
			return &Node{Type: TermNode, token: p.expr[start:p.pos]}, nil
		default:
			p.pos++
		}
	}
	return nil, p.fail("unterminated quoted label")
}

func isLabelChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '_' || c == '-' || c == ':' || c == '.' || c == '/'
}

func unquote(b []byte) []byte {
	if bytes.IndexByte(b, '\\') < 0 {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) {
			i++
		}
		out = append(out, b[i])
	}
	return out
}

// Quote returns label in a form usable as a term, quoting it when it
// contains characters outside the bare label alphabet.
func Quote(label string) string {
	bare := label != ""
	for i := 0; i < len(label); i++ {
		if !isLabelChar(label[i]) {
			bare = false
			break
		}
	}
	if bare {
		return label
	}
	var buf bytes.Buffer
	buf.WriteByte('"')
	for i := 0; i < len(label); i++ {
		if label[i] == '"' || label[i] == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(label[i])
	}
	buf.WriteByte('"')
	return buf.String()
}
