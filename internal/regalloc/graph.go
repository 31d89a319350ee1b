package regalloc

// node is one interference-graph node, one per distinct VReg (including
// pre-colored real registers, which participate with infinite degree).
type node struct {
	v         VReg
	neighbors map[*node]bool
	moves     map[*move]bool // moveList: moves this node is an endpoint of
	degree    int
	// color is set once Select succeeds; RealRegInvalid until then.
	color RealReg
	// alias points at the node this one was coalesced into, set once
	// Combine has merged it away.
	alias *node
	// state tracks which worklist (if any) currently owns this node, for
	// O(1) membership checks instead of scanning slices.
	state nodeState
}

type nodeState byte

const (
	stateInitial nodeState = iota
	stateSimplifyWL
	stateFreezeWL
	stateSpillWL
	stateSelectStack
	stateCoalesced
	stateColored
	stateSpilled
	statePrecolored
)

// move is one register-to-register copy instruction, a coalescing
// candidate until proven otherwise.
type move struct {
	instr      Instr
	src, dst   *node
	state      moveState
}

type moveState byte

const (
	moveWorklist moveState = iota
	moveActive
	moveCoalesced
	moveConstrained
	moveFrozen
)

// graph is the interference graph plus move list for one allocation
// round, scoped to that round and discarded once it rewrites or finishes
// (spec.md §5: "scoped to ... a single allocation round ... and
// discarded").
type graph struct {
	info  *RegisterInfo
	nodes map[VReg]*node
	moves []*move
}

func newGraph(info *RegisterInfo) *graph {
	return &graph{info: info, nodes: map[VReg]*node{}}
}

func (g *graph) nodeFor(v VReg) *node {
	key := v
	if v.IsRealReg() {
		// Pre-colored registers of the same class/real-reg collapse to
		// one node regardless of the rest of the VReg bit pattern.
		key = FromRealReg(v.RealReg(), v.Class())
	}
	n, ok := g.nodes[key]
	if !ok {
		n = &node{v: key, neighbors: map[*node]bool{}, moves: map[*move]bool{}, color: RealRegInvalid}
		if key.IsRealReg() {
			n.state = statePrecolored
			n.color = key.RealReg()
		}
		g.nodes[key] = n
	}
	return n
}

func (g *graph) addEdge(a, b *node) {
	if a == b {
		return
	}
	if a.v.Class() != b.v.Class() {
		return // interference only within a register class (spec.md §4.4 Build)
	}
	if !a.neighbors[b] {
		a.neighbors[b] = true
		b.neighbors[a] = true
		if a.state != statePrecolored {
			a.degree++
		}
		if b.state != statePrecolored {
			b.degree++
		}
	}
}

// degreeOf reports a node's degree, treating pre-colored nodes as having
// infinite degree so they are never simplified, coalesced away, or
// spilled (spec.md §4.4: "they participate in the graph with infinite
// degree and a fixed color").
func (g *graph) degreeOf(n *node) int {
	if n.state == statePrecolored {
		return 1 << 30
	}
	return n.degree
}

// getAlias follows the coalesce chain to the representative node.
func getAlias(n *node) *node {
	for n.state == stateCoalesced {
		n = n.alias
	}
	return n
}

// build walks every block backward, maintaining the live set, adding an
// interference edge between each definition and everything else live at
// that point (except its own move source, handled specially so a copy's
// source and destination don't spuriously interfere and block
// coalescing), and recording move instructions in the move list.
func build(fn Function, info *RegisterInfo, lv *liveness) *graph {
	g := newGraph(info)
	blocks := fn.Blocks()
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		live := map[VReg]bool{}
		for v := range lv.blockLiveOut(i) {
			live[v] = true
		}
		instrs := b.Instrs()
		for k := len(instrs) - 1; k >= 0; k-- {
			in := instrs[k]
			defs := in.Defs()
			uses := in.Uses()

			if in.IsCopy() && len(uses) == 1 && len(defs) == 1 {
				delete(live, uses[0])
				mv := &move{instr: in, src: g.nodeFor(uses[0]), dst: g.nodeFor(defs[0])}
				g.moves = append(g.moves, mv)
				mv.src.moves[mv] = true
				mv.dst.moves[mv] = true
			}

			for _, d := range defs {
				if !d.Valid() {
					continue
				}
				dn := g.nodeFor(d)
				for l := range live {
					g.addEdge(dn, g.nodeFor(l))
				}
			}
			for _, d := range defs {
				if d.Valid() {
					delete(live, d)
				}
			}
			if in.IsCall() {
				for _, r := range allRealRegs(info) {
					if info.CallerSaved[r] {
						rn := g.nodeFor(FromRealReg(r, classOfReal(info, r)))
						for l := range live {
							g.addEdge(rn, g.nodeFor(l))
						}
					}
				}
			}
			for _, u := range uses {
				if u.Valid() {
					live[u] = true
				}
			}
		}
	}
	return g
}

func allRealRegs(info *RegisterInfo) []RealReg {
	var out []RealReg
	for c := RegClass(0); c < NumRegClass; c++ {
		out = append(out, info.Allocatable[c]...)
	}
	return out
}

func classOfReal(info *RegisterInfo, r RealReg) RegClass {
	for c := RegClass(0); c < NumRegClass; c++ {
		for _, rr := range info.Allocatable[c] {
			if rr == r {
				return c
			}
		}
	}
	return ClassInt
}
