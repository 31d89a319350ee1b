package regalloc

// assignColorsAndRewriteOperands pops the select stack, assigns each node
// a color distinct from its already-colored neighbors (spec.md step 7),
// resolves coalesced nodes to their alias's color, deletes instructions
// whose source and destination were coalesced (step "Move instructions
// whose source and destination were coalesced are deleted"), and writes
// the resulting physical registers back into every instruction's operand
// list. When any node is left uncolored, it stops after the coloring loop:
// no operand is rewritten and no move is deleted in that round.
//
// This is the Select step itself, so it is what actually discovers real
// spills (a node the coloring loop below cannot assign a free register
// to): the caller must inspect r.spilledNodes only after this returns,
// and hand any to rewriteSpills before starting the next round.
func (r *round) assignColorsAndRewriteOperands(fn Function) {
	for i := len(r.selectStack) - 1; i >= 0; i-- {
		n := r.selectStack[i]
		used := map[RealReg]bool{}
		for nb := range n.neighbors {
			a := getAlias(nb)
			if a.state == stateColored || a.state == statePrecolored {
				used[a.color] = true
			}
		}
		assigned := RealRegInvalid
		for _, reg := range r.info.Allocatable[r.class] {
			if !used[reg] {
				assigned = reg
				break
			}
		}
		if assigned == RealRegInvalid {
			n.state = stateSpilled
			r.spilledNodes = append(r.spilledNodes, n)
			continue
		}
		n.color = assigned
		n.state = stateColored
	}
	if len(r.spilledNodes) > 0 {
		return
	}
	for _, n := range r.g.nodes {
		if n.state == stateCoalesced {
			n.color = getAlias(n).color
		}
	}

	deleted := map[Instr]bool{}
	for _, mv := range r.coalescedMoves {
		deleted[mv.instr] = true
	}

	colorOf := func(v VReg) VReg {
		n, ok := r.g.nodes[keyFor(v)]
		if !ok {
			return v
		}
		a := getAlias(n)
		if a.color == RealRegInvalid {
			return v
		}
		return v.SetRealReg(a.color)
	}

	for _, b := range fn.Blocks() {
		kept := b.Instrs()[:0]
		for _, in := range b.Instrs() {
			if deleted[in] {
				continue
			}
			defs := in.Defs()
			for i, d := range defs {
				if d.Valid() && d.Class() == r.class {
					defs[i] = colorOf(d)
				}
			}
			in.SetDefs(defs)
			uses := in.Uses()
			for i, u := range uses {
				if u.Valid() && u.Class() == r.class {
					uses[i] = colorOf(u)
				}
			}
			in.SetUses(uses)
			kept = append(kept, in)
		}
		setBlockInstrs(b, kept)
	}
}

func keyFor(v VReg) VReg {
	if v.IsRealReg() {
		return FromRealReg(v.RealReg(), v.Class())
	}
	return v
}

// setBlockInstrs is implemented per-target in the Block type (assigning
// back to its own backing slice); the regalloc package only needs a
// narrow mutator, exposed via the blockInstrSetter optional interface so
// targets that store instructions as a simple slice can opt in without
// widening the core Block interface for everyone.
func setBlockInstrs(b Block, instrs []Instr) {
	if s, ok := b.(blockInstrSetter); ok {
		s.SetInstrs(instrs)
	}
}

// blockInstrSetter lets a Block accept a rewritten instruction slice
// after coalesced moves have been deleted.
type blockInstrSetter interface {
	SetInstrs([]Instr)
}
