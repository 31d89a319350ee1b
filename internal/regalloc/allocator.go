package regalloc

import "fmt"

// AllocationFailure is the spec.md §7 AllocationFailure kind: the
// allocator cannot converge, e.g. a class with only pre-colored nodes
// overflows K.
type AllocationFailure struct {
	Class  RegClass
	Reason string
}

func (e *AllocationFailure) Error() string {
	return fmt.Sprintf("register allocation failed for class %s: %s", e.Class, e.Reason)
}

// Coalescing selects which conservative test(s) the allocator applies.
type Coalescing byte

const (
	CoalesceConservative Coalescing = iota // Briggs, falling back to George
	CoalesceOff
)

// Allocator runs the iterated register-coalescing pipeline of spec.md
// §4.4 over one frame's abstract instructions at a time.
type Allocator struct {
	Info       *RegisterInfo
	Coalescing Coalescing
}

// New returns an Allocator bound to the given ISA register file.
func New(info *RegisterInfo) *Allocator {
	return &Allocator{Info: info, Coalescing: CoalesceConservative}
}

// Run allocates physical registers for fn, rewriting it in place
// (inserting spill loads/stores and renaming operands) until every
// virtual register is colored or mapped to a frame slot, per spec.md
// §4.4 step 8: "restart the entire pipeline" after each round that
// produces an actual spill.
func (a *Allocator) Run(fn Function) error {
	for class := RegClass(1); class < NumRegClass; class++ {
		if a.Info.K(class) == 0 {
			continue
		}
		if err := a.runClass(fn, class); err != nil {
			return err
		}
	}
	return nil
}

// runClass repeats build→simplify→coalesce→freeze→spill→select→rewrite
// for one register class until a round colors everything without
// producing new actual spills.
func (a *Allocator) runClass(fn Function, class RegClass) error {
	const maxRounds = 64 // rewriting strictly shortens live ranges; this bounds pathological input
	for round := 0; round < maxRounds; round++ {
		lv := computeLiveness(fn)
		g := build(fn, a.Info, lv)

		r := newRound(g, a.Info, class, a.Coalescing)
		r.run()

		// Select (assignColorsAndRewriteOperands) must run before the
		// spill check: the simplify/freeze/spill worklists only push
		// *potential* spills onto the select stack, and a node pushed
		// there by selectSpill may still find a free color during
		// Select. Actual spills are only known once Select has tried
		// and failed to color a node, so the spill check below has to
		// come after this call, not before it.
		r.assignColorsAndRewriteOperands(fn)
		if len(r.spilledNodes) == 0 {
			return nil
		}
		if err := a.rewriteSpills(fn, r, class); err != nil {
			return err
		}
	}
	return &AllocationFailure{Class: class, Reason: "did not converge after maximum rewrite rounds"}
}

// round holds all the worklists for one build/simplify/.../select pass,
// implementing the state machine spec.md §4.4 describes:
//
//	initial -> simplifyWL -> selectStack -> colored
//	       \-> freezeWL  ---^
//	       \-> spillWL -> (actualSpill -> rewritten) | selectStack
type round struct {
	g          *graph
	info       *RegisterInfo
	class      RegClass
	coalescing Coalescing

	simplifyWL   []*node
	freezeWL     []*node
	spillWL      []*node
	selectStack  []*node
	spilledNodes []*node
	coalescedMoves []*move
	k            int
}

func newRound(g *graph, info *RegisterInfo, class RegClass, coalescing Coalescing) *round {
	r := &round{g: g, info: info, class: class, coalescing: coalescing, k: info.K(class)}
	for _, n := range g.nodes {
		if n.v.Class() != class || n.state == statePrecolored {
			continue
		}
		r.classify(n)
	}
	return r
}

// classify places a freshly-built node on the correct initial worklist
// based on degree and move-relatedness (spec.md step 3's "simplify:
// non-move-related nodes of degree < K").
func (r *round) classify(n *node) {
	if r.g.degreeOf(n) >= r.k {
		n.state = stateSpillWL
		r.spillWL = append(r.spillWL, n)
	} else if r.moveRelated(n) {
		n.state = stateFreezeWL
		r.freezeWL = append(r.freezeWL, n)
	} else {
		n.state = stateSimplifyWL
		r.simplifyWL = append(r.simplifyWL, n)
	}
}

func (r *round) moveRelated(n *node) bool {
	for mv := range n.moves {
		if mv.state == moveWorklist || mv.state == moveActive {
			return true
		}
	}
	return false
}

// run drives the worklist algorithm to completion: simplify and coalesce
// whenever possible, otherwise freeze a move, otherwise select a
// potential spill, until every node has reached the select stack.
func (r *round) run() {
	for {
		if len(r.simplifyWL) > 0 {
			r.simplify()
		} else if r.coalescing != CoalesceOff && r.hasWorklistMove() {
			r.coalesce()
		} else if len(r.freezeWL) > 0 {
			r.freeze()
		} else if len(r.spillWL) > 0 {
			r.selectSpill()
		} else {
			break
		}
	}
}

func (r *round) hasWorklistMove() bool {
	for _, mv := range r.g.moves {
		if mv.state == moveWorklist {
			return true
		}
	}
	return false
}

func removeNode(list []*node, n *node) []*node {
	for i, x := range list {
		if x == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// simplify pops a non-move-related, low-degree node and pushes it on the
// select stack, decrementing its neighbors' degree and reclassifying any
// neighbor that drops below K.
func (r *round) simplify() {
	n := r.simplifyWL[len(r.simplifyWL)-1]
	r.simplifyWL = r.simplifyWL[:len(r.simplifyWL)-1]
	n.state = stateSelectStack
	r.selectStack = append(r.selectStack, n)
	for nb := range n.neighbors {
		r.decrementDegree(nb)
	}
}

func (r *round) decrementDegree(n *node) {
	if n.state == statePrecolored || n.state == stateSelectStack || n.state == stateCoalesced {
		return
	}
	wasHigh := n.degree >= r.k
	n.degree--
	if wasHigh && n.degree < r.k {
		r.enableMovesAround(n)
		r.spillWL = removeNode(r.spillWL, n)
		if r.moveRelated(n) {
			n.state = stateFreezeWL
			r.freezeWL = append(r.freezeWL, n)
		} else {
			n.state = stateSimplifyWL
			r.simplifyWL = append(r.simplifyWL, n)
		}
	}
}

func (r *round) enableMovesAround(n *node) {
	r.enableMovesOf(n)
	for nb := range n.neighbors {
		r.enableMovesOf(nb)
	}
}

func (r *round) enableMovesOf(n *node) {
	for mv := range n.moves {
		if mv.state == moveActive {
			mv.state = moveWorklist
		}
	}
}

// coalesce applies the conservative coalescing test named by r.coalescing
// (spec.md §4.4 step 4): Briggs tried first (the merged node would have
// fewer than K neighbors of degree >= K), falling back to George (every
// high-degree neighbor of the non-precolored side already interferes
// with the other side) — refusing and freezing the move when neither
// applies, per "conservatively refuse when in doubt."
func (r *round) coalesce() {
	var mv *move
	for _, m := range r.g.moves {
		if m.state == moveWorklist {
			mv = m
			break
		}
	}
	x, y := getAlias(mv.src), getAlias(mv.dst)
	if y.state == statePrecolored {
		x, y = y, x
	}
	switch {
	case x == y:
		mv.state = moveCoalesced
		r.addWorklist(x)
	case y.state == statePrecolored || x.neighbors[y]:
		mv.state = moveConstrained
		r.addWorklist(x)
		r.addWorklist(y)
	case r.briggsOK(x, y) || (x.state == statePrecolored && r.georgeOK(x, y)):
		mv.state = moveCoalesced
		r.coalescedMoves = append(r.coalescedMoves, mv)
		r.combine(x, y)
		r.addWorklist(x)
	default:
		mv.state = moveActive
	}
}

// addWorklist moves a node off the freeze worklist onto simplify once it
// is no longer move-related and has low degree, called after a
// coalescing decision may have changed its move-relatedness.
func (r *round) addWorklist(n *node) {
	if n.state != statePrecolored && !r.moveRelated(n) && r.g.degreeOf(n) < r.k {
		r.freezeWL = removeNode(r.freezeWL, n)
		n.state = stateSimplifyWL
		r.simplifyWL = append(r.simplifyWL, n)
	}
}

// briggsOK is the Briggs conservative test: the combined node u+v is
// colorable if the number of neighbors (of either, union, deduplicated)
// with degree >= K is itself less than K.
func (r *round) briggsOK(u, v *node) bool {
	seen := map[*node]bool{}
	k := 0
	count := func(n *node) {
		for nb := range n.neighbors {
			if seen[nb] {
				continue
			}
			seen[nb] = true
			if r.g.degreeOf(nb) >= r.k {
				k++
			}
		}
	}
	count(u)
	count(v)
	return k < r.k
}

// georgeOK is the George conservative test: safe if every neighbor of v
// either already interferes with u or has degree < K.
func (r *round) georgeOK(u, v *node) bool {
	for t := range v.neighbors {
		if r.g.degreeOf(t) >= r.k && !u.neighbors[t] && t != u {
			return false
		}
	}
	return true
}

// combine merges v into u: u gains v's neighbors (and the resulting
// interference edges) and v's moves, then v is marked coalesced with u
// as its alias.
func (r *round) combine(u, v *node) {
	if v.state == stateFreezeWL {
		r.freezeWL = removeNode(r.freezeWL, v)
	} else {
		r.spillWL = removeNode(r.spillWL, v)
	}
	v.state = stateCoalesced
	v.alias = u
	for mv := range v.moves {
		u.moves[mv] = true
	}
	for t := range v.neighbors {
		r.g.addEdge(t, u)
		r.decrementDegree(t)
	}
	if r.g.degreeOf(u) >= r.k && u.state == stateFreezeWL {
		r.freezeWL = removeNode(r.freezeWL, u)
		u.state = stateSpillWL
		r.spillWL = append(r.spillWL, u)
	}
}

// freeze picks a low-degree move-related node, gives up on coalescing
// its moves (spec.md step 5: "mark its moves non-coalesceable"), and
// returns it to simplify.
func (r *round) freeze() {
	n := r.freezeWL[len(r.freezeWL)-1]
	r.freezeWL = r.freezeWL[:len(r.freezeWL)-1]
	n.state = stateSimplifyWL
	r.simplifyWL = append(r.simplifyWL, n)
	r.freezeMoves(n)
}

func (r *round) freezeMoves(n *node) {
	for mv := range n.moves {
		if mv.state != moveActive && mv.state != moveWorklist {
			continue
		}
		var other *node
		if getAlias(mv.src) == getAlias(n) {
			other = getAlias(mv.dst)
		} else {
			other = getAlias(mv.src)
		}
		mv.state = moveFrozen
		if !r.moveRelated(other) && r.g.degreeOf(other) < r.k && other.state == stateFreezeWL {
			r.freezeWL = removeNode(r.freezeWL, other)
			other.state = stateSimplifyWL
			r.simplifyWL = append(r.simplifyWL, other)
		}
	}
}

// selectSpill picks the spill-worklist node with the lowest spillCost
// divided by degree as a potential spill and moves it to the simplify
// worklist. spillCost is the node's move count plus one: uses and defs
// by other instructions are not counted and loop depth is not modeled.
func (r *round) selectSpill() {
	var best *node
	bestCost := -1.0
	for _, n := range r.spillWL {
		cost := spillCost(n) / float64(r.g.degreeOf(n))
		if best == nil || cost < bestCost {
			best, bestCost = n, cost
		}
	}
	r.spillWL = removeNode(r.spillWL, best)
	best.state = stateSimplifyWL // "potential spill" rides the simplify worklist per step 6
	r.simplifyWL = append(r.simplifyWL, best)
	r.freezeMoves(best)
}

func spillCost(n *node) float64 {
	// The node's move count plus one; instructions other than moves that
	// use or define the node are not counted.
	return float64(len(n.moves) + 1)
}
