//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package expr

import (
	"math/big"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ErrSyntax is returned for malformed expressions and assignments.
var ErrSyntax = errors.New("syntax error")

type tokenType int

const (
	tIdentifier tokenType = iota
	tMul
	tAdd
	tEOF
)

type token struct {
	t   tokenType
	val string
	col int
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '*':
			tokens = append(tokens, token{t: tMul, col: i})
			i++

		case r == '+':
			tokens = append(tokens, token{t: tAdd, col: i})
			i++

		case isIDStart(r):
			start := i
			for i < len(runes) && isIDPart(runes[i]) {
				i++
			}
			tokens = append(tokens, token{
				t:   tIdentifier,
				val: string(runes[start:i]),
				col: start,
			})

		default:
			return nil, errors.Wrapf(ErrSyntax, "%d: unexpected character '%c'",
				i, r)
		}
	}
	return append(tokens, token{t: tEOF, col: len(runes)}), nil
}

// Parse parses a sum-of-products expression such as
//
//	x0*x1 + x2*x3
//
// into terms. The terms get IDs t1, t2, ... in their order of
// appearance.
func Parse(input string) (Terms, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}

	var terms Terms
	var pos int

	next := func(expected tokenType) (token, error) {
		tok := tokens[pos]
		if tok.t != expected {
			if tok.t == tEOF {
				return tok, errors.Wrapf(ErrSyntax, "%d: unexpected end",
					tok.col)
			}
			return tok, errors.Wrapf(ErrSyntax, "%d: unexpected token",
				tok.col)
		}
		pos++
		return tok, nil
	}

	for {
		term := Term{
			ID: TermID(len(terms)),
		}
		for {
			tok, err := next(tIdentifier)
			if err != nil {
				return nil, err
			}
			term.Members = append(term.Members, tok.val)
			if tokens[pos].t != tMul {
				break
			}
			pos++
		}
		terms = append(terms, term)

		switch tokens[pos].t {
		case tAdd:
			pos++
		case tEOF:
			return terms, nil
		default:
			return nil, errors.Wrapf(ErrSyntax, "%d: unexpected token",
				tokens[pos].col)
		}
	}
}

// ParseAssignments parses input assignments of the form id=value.
// Values are decimal or 0x-prefixed hexadecimal integers.
func ParseAssignments(assignments []string) (Inputs, error) {
	inputs := make(Inputs)
	for _, a := range assignments {
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Wrapf(ErrSyntax, "assignment '%s'", a)
		}
		id := strings.TrimSpace(parts[0])
		if !isIdentifier(id) {
			return nil, errors.Wrapf(ErrSyntax, "invalid input ID '%s'", id)
		}
		v, err := ParseInt(parts[1])
		if err != nil {
			return nil, err
		}
		if _, ok := inputs[id]; ok {
			return nil, errors.Wrapf(ErrDuplicateInputID, "input %s", id)
		}
		inputs[id] = v
	}
	return inputs, nil
}

// ParseInt parses a decimal or 0x-prefixed hexadecimal integer.
func ParseInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, errors.Wrapf(ErrSyntax, "invalid integer '%s'", s)
	}
	return v, nil
}

func isIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i, r := range s {
		if isIDStart(r) || (i > 0 && isIDPart(r)) {
			continue
		}
		return false
	}
	return true
}

// Identifiers are ASCII: [A-Za-z_][A-Za-z0-9_]*.
func isIDStart(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isIDPart(r rune) bool {
	return isIDStart(r) || ('0' <= r && r <= '9')
}
