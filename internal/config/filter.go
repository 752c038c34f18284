package config

import (
	"fmt"
	"strconv"
	"strings"

	"blue-railroad-bot/internal/domain"
)

// Attribute is a Token attribute a filter clause can test.
type Attribute string

const (
	AttrOwner   Attribute = "owner"
	AttrSource  Attribute = "source"
	AttrVersion Attribute = "version"
	AttrSong    Attribute = "song"
	AttrID      Attribute = "id"
)

// Operator compares an attribute with a literal.
type Operator string

const (
	OpEqual    Operator = "=="
	OpNotEqual Operator = "!="
)

// Clause is one "attr op value" test.
type Clause struct {
	Attr  Attribute
	Op    Operator
	Value string
}

// Filter is a conjunction of clauses. A nil Filter matches every token.
type Filter struct {
	Expr    string
	Clauses []Clause
}

// ParseFilter parses expressions like `song == "5" and owner != 0xabc`.
// An empty expression returns a nil Filter. Unknown attributes and operators fail.
func ParseFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	f := &Filter{Expr: expr}
	for i := 0; i < len(toks); {
		if len(f.Clauses) > 0 {
			if toks[i].kind != tokWord || !strings.EqualFold(toks[i].text, "and") {
				return nil, fmt.Errorf("expected \"and\" at %q", toks[i].text)
			}
			i++
		}
		if i+3 > len(toks) {
			return nil, fmt.Errorf("incomplete clause in %q", expr)
		}
		c, err := parseClause(toks[i], toks[i+1], toks[i+2])
		if err != nil {
			return nil, err
		}
		f.Clauses = append(f.Clauses, c)
		i += 3
	}
	return f, nil
}

func parseClause(attr, op, val token) (Clause, error) {
	if attr.kind != tokWord {
		return Clause{}, fmt.Errorf("expected attribute, got %q", attr.text)
	}
	a := Attribute(strings.ToLower(attr.text))
	switch a {
	case AttrOwner, AttrSource, AttrVersion, AttrSong, AttrID:
	default:
		return Clause{}, fmt.Errorf("unsupported attribute %q", attr.text)
	}

	if op.kind != tokOp {
		return Clause{}, fmt.Errorf("expected operator after %q, got %q", attr.text, op.text)
	}
	o := Operator(op.text)
	if o != OpEqual && o != OpNotEqual {
		return Clause{}, fmt.Errorf("unsupported operator %q", op.text)
	}

	if val.kind == tokOp {
		return Clause{}, fmt.Errorf("expected value after %q, got %q", op.text, val.text)
	}
	v := val.text
	switch a {
	case AttrVersion:
		v = strings.ToUpper(v)
		if !domain.Version(v).IsValid() {
			return Clause{}, fmt.Errorf("unknown version %q", val.text)
		}
	case AttrID:
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			return Clause{}, fmt.Errorf("id must be an integer, got %q", val.text)
		}
	}
	return Clause{Attr: a, Op: o, Value: v}, nil
}

// Match reports whether the token satisfies every clause.
func (f *Filter) Match(t *domain.Token) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Clauses {
		if c.match(t) != (c.Op == OpEqual) {
			return false
		}
	}
	return true
}

func (c Clause) match(t *domain.Token) bool {
	switch c.Attr {
	case AttrOwner:
		return strings.EqualFold(t.Owner, c.Value)
	case AttrSource:
		return t.SourceKey == c.Value
	case AttrVersion:
		return string(t.Version) == c.Value
	case AttrSong:
		return t.SongID() == c.Value
	case AttrID:
		return strconv.FormatInt(t.ID, 10) == c.Value
	}
	return false
}

// RequestsUnknownOwner reports whether the filter explicitly selects tokens without owner.
func (f *Filter) RequestsUnknownOwner() bool {
	if f == nil {
		return false
	}
	for _, c := range f.Clauses {
		if c.Attr == AttrOwner && c.Op == OpEqual && c.Value == "" {
			return true
		}
	}
	return false
}

// SongID returns the song a filter pins with `song == X`, or "".
func (f *Filter) SongID() string {
	if f == nil {
		return ""
	}
	for _, c := range f.Clauses {
		if c.Attr == AttrSong && c.Op == OpEqual {
			return c.Value
		}
	}
	return ""
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.Expr
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
}

const opChars = "=!<>~&|"

func tokenize(expr string) ([]token, error) {
	var toks []token
	for i := 0; i < len(expr); {
		ch := expr[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '"':
			var sb strings.Builder
			j := i + 1
			for ; j < len(expr) && expr[j] != '"'; j++ {
				if expr[j] == '\\' && j+1 < len(expr) {
					j++
				}
				sb.WriteByte(expr[j])
			}
			if j >= len(expr) {
				return nil, fmt.Errorf("unterminated string in %q", expr)
			}
			toks = append(toks, token{kind: tokString, text: sb.String()})
			i = j + 1
		case strings.IndexByte(opChars, ch) >= 0:
			j := i
			for j < len(expr) && strings.IndexByte(opChars, expr[j]) >= 0 {
				j++
			}
			toks = append(toks, token{kind: tokOp, text: expr[i:j]})
			i = j
		default:
			j := i
			for j < len(expr) && !strings.ContainsRune(" \t\r\n\""+opChars, rune(expr[j])) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: expr[i:j]})
			i = j
		}
	}
	return toks, nil
}
