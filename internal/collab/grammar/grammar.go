// Package grammar wraps github.com/alecthomas/participle/v2 behind a
// small add_terminals/add_production/start_symbol/generate_parser
// contract shaped like the original ppci.pcc grammar-builder API, so a
// front end can describe a grammar as data (not as Go struct tags) and
// still get participle's lexer for the raw-text entry point.
//
// participle itself builds parsers from a typed Go grammar (struct
// tags), which does not fit a grammar assembled at runtime from
// strings. The recognizer this package drives for dynamically-built
// grammars is a standard Earley chart parser, which participle does not
// provide; participle.Lexer still does the tokenizing for ParseString.
package grammar

import (
	"fmt"
	"regexp"
)

type terminal struct {
	name    string
	pattern string
	re      *regexp.Regexp
}

type production struct {
	lhs string
	rhs []string // symbol names in order; nil/empty means the epsilon alternative
}

// Grammar accumulates terminals and productions before GenerateParser
// freezes them into a Parser, the way ppci's pcc.Grammar is built up
// rule by rule before generate_parser() compiles it.
type Grammar struct {
	terminals   map[string]*terminal
	termOrder   []string
	productions map[string][]*production
	prodOrder   []string
	start       string
}

// New returns an empty Grammar.
func New() *Grammar {
	return &Grammar{
		terminals:   map[string]*terminal{},
		productions: map[string][]*production{},
	}
}

// AddTerminal registers a named terminal matched against raw tokens by
// the regular expression pattern. Inline quoted literals such as 'a'
// used directly in a production's RHS do not need a corresponding
// AddTerminal call; see literalName.
func (g *Grammar) AddTerminal(name, pattern string) error {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return fmt.Errorf("grammar: terminal %s: %w", name, err)
	}
	if _, exists := g.terminals[name]; !exists {
		g.termOrder = append(g.termOrder, name)
	}
	g.terminals[name] = &terminal{name: name, pattern: pattern, re: re}
	return nil
}

// AddProduction registers one alternative for lhs. Call it once per
// alternative, the way pcc.add_production is called once per rule line
// (res: aa becomes one call, aa: /*empty*/ | aa 'a' becomes two calls
// with the same lhs). Pass no rhs symbols for the empty alternative.
func (g *Grammar) AddProduction(lhs string, rhs ...string) {
	if _, seen := g.productions[lhs]; !seen {
		g.prodOrder = append(g.prodOrder, lhs)
	}
	alt := append([]string(nil), rhs...)
	g.productions[lhs] = append(g.productions[lhs], &production{lhs: lhs, rhs: alt})
}

// SetStartSymbol names the grammar's start (goal) non-terminal.
func (g *Grammar) SetStartSymbol(name string) { g.start = name }

func (g *Grammar) isNonTerminal(name string) bool {
	_, ok := g.productions[name]
	return ok
}

// literalName reports whether sym is an inline quoted literal like 'a',
// returning its unquoted text.
func literalName(sym string) (string, bool) {
	if len(sym) >= 2 && sym[0] == '\'' && sym[len(sym)-1] == '\'' {
		return sym[1 : len(sym)-1], true
	}
	return "", false
}

// GenerateParser validates the accumulated grammar (every RHS symbol is
// either an inline literal, a declared terminal, or a non-terminal with
// at least one production, and the start symbol is defined) and returns
// a Parser ready to recognize token sequences against it.
func (g *Grammar) GenerateParser() (*Parser, error) {
	if g.start == "" {
		return nil, fmt.Errorf("grammar: no start symbol set")
	}
	if _, ok := g.productions[g.start]; !ok {
		return nil, fmt.Errorf("grammar: start symbol %q has no production", g.start)
	}
	for _, lhs := range g.prodOrder {
		for _, alt := range g.productions[lhs] {
			for _, sym := range alt.rhs {
				if _, lit := literalName(sym); lit {
					continue
				}
				if g.isNonTerminal(sym) {
					continue
				}
				if _, ok := g.terminals[sym]; ok {
					continue
				}
				return nil, fmt.Errorf("grammar: production %s: undefined symbol %q", lhs, sym)
			}
		}
	}
	return &Parser{g: g}, nil
}

func (g *Grammar) matches(sym, token string) bool {
	if lit, ok := literalName(sym); ok {
		return token == lit
	}
	if t, ok := g.terminals[sym]; ok {
		return t.re.MatchString(token)
	}
	return false
}
