package regalloc

// rewriteSpills implements spec.md §4.4 step 8: for each actually
// spilled virtual register, allocate a frame slot, insert a reload
// before every use and a store after every def, each through a fresh
// short-lived virtual register (so the new temporaries themselves have
// tiny live ranges and are trivially colorable next round), and rewrite
// the instruction operand lists to reference the temporaries instead of
// the spilled VReg. The caller restarts the whole class from Build.
func (a *Allocator) rewriteSpills(fn Function, r *round, class RegClass) error {
	slotOf := map[VReg]int{}
	for _, n := range r.spilledNodes {
		slotOf[n.v] = fn.AllocSlot(class)
	}
	if len(slotOf) == 0 {
		return nil
	}

	for _, b := range fn.Blocks() {
		instrs := append([]Instr(nil), b.Instrs()...)
		for _, in := range instrs {
			uses := in.Uses()
			for i, u := range uses {
				if !u.Valid() {
					continue
				}
				if slot, ok := slotOf[keyFor(u)]; ok {
					tmp := fn.NewSpillTemp(class)
					fn.InsertLoadBefore(tmp, in, slot)
					uses[i] = tmp
				}
			}
			in.SetUses(uses)

			defs := in.Defs()
			for i, d := range defs {
				if !d.Valid() {
					continue
				}
				if slot, ok := slotOf[keyFor(d)]; ok {
					tmp := fn.NewSpillTemp(class)
					defs[i] = tmp
					fn.InsertStoreAfter(tmp, in, slot)
				}
			}
			in.SetDefs(defs)
		}
	}
	return nil
}
