package grammar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

const whitespaceRule = "Whitespace"

// buildLexer assembles a participle stateful lexer from the grammar's
// declared terminals plus every inline quoted literal harvested from its
// productions, mirroring the lexer.Rules table shape of the
// teacher-adjacent corpus's own grammar.KansoLexer (internal/collab/
// grammar is grounded on kanso-lang-kanso's grammar/lexer.go for this).
// Declared terminals are tried before literals, and literals before
// whitespace, so where a declared terminal's pattern also matches a
// literal's text, the terminal wins.
func (g *Grammar) buildLexer() (lexer.Definition, error) {
	var root []lexer.Rule
	for _, name := range g.termOrder {
		root = append(root, lexer.Rule{Name: name, Pattern: g.terminals[name].pattern})
	}

	seen := map[string]bool{}
	for _, lhs := range g.prodOrder {
		for _, alt := range g.productions[lhs] {
			for _, sym := range alt.rhs {
				lit, ok := literalName(sym)
				if !ok || seen[lit] {
					continue
				}
				seen[lit] = true
				root = append(root, lexer.Rule{Name: lit, Pattern: regexp.QuoteMeta(lit)})
			}
		}
	}

	root = append(root, lexer.Rule{Name: whitespaceRule, Pattern: `[ \t\r\n]+`})

	def, err := lexer.Stateful(lexer.Rules{"Root": root})
	if err != nil {
		return nil, fmt.Errorf("grammar: building lexer: %w", err)
	}
	return def, nil
}

// ParseString tokenizes src with the grammar's participle lexer, elides
// whitespace, and parses the resulting token text sequence the same way
// Parse does. filename is used only for lexer error positions.
func (p *Parser) ParseString(filename, src string) ([]string, error) {
	def, err := p.g.buildLexer()
	if err != nil {
		return nil, err
	}
	lex, err := def.Lex(filename, strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("grammar: lexing %s: %w", filename, err)
	}

	symbols := def.Symbols()
	names := make(map[lexer.TokenType]string, len(symbols))
	for name, t := range symbols {
		names[t] = name
	}

	var tokens []string
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("grammar: lexing %s: %w", filename, err)
		}
		if tok.EOF() {
			break
		}
		if names[tok.Type] == whitespaceRule {
			continue
		}
		tokens = append(tokens, tok.Value)
	}
	return p.Parse(tokens)
}
