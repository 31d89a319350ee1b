package grammar

import (
	"fmt"
	"strings"
)

// item is one Earley chart entry: production prod with the dot before
// rhs[dot], started at column origin.
type item struct {
	prod   *production
	dot    int
	origin int
}

func (it *item) finished() bool     { return it.dot >= len(it.prod.rhs) }
func (it *item) nextSymbol() string { return it.prod.rhs[it.dot] }
func (it *item) key() string        { return fmt.Sprintf("%p:%d:%d", it.prod, it.dot, it.origin) }

// Parser recognizes token sequences against a frozen Grammar using a
// standard Earley chart: predict non-terminals, scan terminals against
// the next token, complete finished items back into their waiting
// parents. Earley handles the grammar's left recursion (aa: aa 'a')
// directly, unlike a naive recursive-descent translation of the same
// rules.
type Parser struct {
	g *Grammar
}

// Parse recognizes tokens against the grammar's start symbol. On
// success it returns tokens unchanged, confirming the round-trip the S6
// scenario pins; on failure it reports how many tokens were consumed
// before the chart ran dry.
func (p *Parser) Parse(tokens []string) ([]string, error) {
	g := p.g
	n := len(tokens)
	chart := make([]map[string]*item, n+1)
	for i := range chart {
		chart[i] = map[string]*item{}
	}

	addAt := func(col int, it *item, queue *[]*item, curCol int) {
		if _, ok := chart[col][it.key()]; ok {
			return
		}
		chart[col][it.key()] = it
		if col == curCol {
			*queue = append(*queue, it)
		}
	}

	var seedQueue []*item
	for _, alt := range g.productions[g.start] {
		it := &item{prod: alt, dot: 0, origin: 0}
		addAt(0, it, &seedQueue, 0)
	}

	for i := 0; i <= n; i++ {
		queue := make([]*item, 0, len(chart[i]))
		for _, it := range chart[i] {
			queue = append(queue, it)
		}
		for len(queue) > 0 {
			it := queue[0]
			queue = queue[1:]

			if it.finished() {
				// Completer: wake every item in the origin column waiting
				// on this production's LHS.
				for _, waiting := range chart[it.origin] {
					if waiting.finished() || waiting.nextSymbol() != it.prod.lhs {
						continue
					}
					nit := &item{prod: waiting.prod, dot: waiting.dot + 1, origin: waiting.origin}
					addAt(i, nit, &queue, i)
				}
				continue
			}

			sym := it.nextSymbol()
			if g.isNonTerminal(sym) {
				for _, alt := range g.productions[sym] {
					nit := &item{prod: alt, dot: 0, origin: i}
					addAt(i, nit, &queue, i)
				}
				continue
			}

			// Scanner: try to consume tokens[i] as sym.
			if i < n && g.matches(sym, tokens[i]) {
				nit := &item{prod: it.prod, dot: it.dot + 1, origin: it.origin}
				addAt(i+1, nit, &queue, i)
			}
		}
	}

	for _, it := range chart[n] {
		if it.finished() && it.origin == 0 && it.prod.lhs == g.start {
			return tokens, nil
		}
	}
	consumed := 0
	for i := n; i > 0; i-- {
		if len(chart[i]) > 0 {
			consumed = i
			break
		}
	}
	return nil, fmt.Errorf("grammar: %q not accepted as %s (consumed %d of %d tokens)",
		strings.Join(tokens, " "), g.start, consumed, n)
}
