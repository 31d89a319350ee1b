// Package split implements the block splitter: any basic block whose
// instruction count exceeds a target-supplied threshold is repeatedly cut
// at that threshold so later stages can address literal pools with a
// short PC-relative offset from anywhere in a block.
package split

import (
	"fmt"

	"github.com/kestrel-lang/kestrelcc/internal/ir"
)

// MaxLen returns the split threshold for fn's function, supplied by the
// target rather than hard-coded (spec.md §9's resolved open question:
// no literal 500).
type MaxLen func() int

// Function splits every oversize block of fn in place, mutating fn.Blocks.
// It returns an *ir.StructureError if a split would sever a terminator
// from operands it needs that cannot be reconstructed as a block
// parameter (this only happens for malformed input; well-formed IR always
// splits cleanly).
func Function(fn *ir.Function, maxLen MaxLen) error {
	threshold := maxLen()
	if threshold <= 0 {
		return &ir.StructureError{Function: fn.Name, Reason: "max_block_len must be positive"}
	}
	if threshold < 2 {
		// A cut always adds one synthesized fall-through jump to the head,
		// so a head can hold at most threshold-1 original instructions;
		// threshold must leave room for at least one.
		return &ir.StructureError{Function: fn.Name, Reason: "max_block_len must be at least 2"}
	}
	// Walk with an index rather than ranging over fn.Blocks. splitAt
	// inserts the new successor immediately after index i, so advancing i
	// by the loop's own increment is enough to reach and, if necessary,
	// re-split that successor; b itself never needs revisiting once cut,
	// since splitAt always leaves it at exactly threshold instructions.
	for i := 0; i < len(fn.Blocks); i++ {
		b := fn.Blocks[i]
		if len(b.Instrs) > threshold {
			if _, err := splitAt(fn, i, threshold-1); err != nil {
				return err
			}
		}
	}
	return nil
}

// splitAt cuts fn.Blocks[i] at position pos: the first pos instructions
// (pos is never the terminator, since threshold < len(b.Instrs) implies
// at least one non-terminator instruction remains after the cut) stay in
// the original block, which falls through unconditionally into a freshly
// inserted successor holding the rest, including the original terminator.
// The caller must pass pos one less than its length budget: splitAt always
// appends one synthesized jump to the head, so the resulting head has
// pos+1 instructions.
//
// Any value defined in the first half and used in the second half becomes
// a block parameter of the successor and a matching argument on the
// synthesized fall-through jump, preserving data-flow across the cut.
func splitAt(fn *ir.Function, i, pos int) (*ir.Block, error) {
	b := fn.Blocks[i]
	if pos <= 0 || pos >= len(b.Instrs) {
		return nil, &ir.StructureError{Function: fn.Name, Block: b.Name, Reason: "split position out of range"}
	}
	head := b.Instrs[:pos]
	tail := b.Instrs[pos:]

	crossing := liveAcross(head, tail)

	succIdx := i + 1
	succName := fmt.Sprintf("%s_split%d", b.Name, succIdx)
	succ := &ir.Block{Name: succName, Instrs: tail, Params: crossing}

	jump := &ir.Instruction{Op: ir.OpJump, Args: append([]ir.ValueID(nil), crossing...), Targets: []int{succIdx}}
	b.Instrs = append(append([]*ir.Instruction(nil), head...), jump)

	// Insert succ right after b, shifting later blocks and their branch
	// target indices up by one.
	fn.Blocks = append(fn.Blocks, nil)
	copy(fn.Blocks[succIdx+1:], fn.Blocks[succIdx:len(fn.Blocks)-1])
	fn.Blocks[succIdx] = succ
	for _, blk := range fn.Blocks {
		for ti, t := range blk.Instrs[len(blk.Instrs)-1].Targets {
			if blk == b {
				continue // the synthesized jump already targets succIdx correctly
			}
			if t >= succIdx {
				blk.Instrs[len(blk.Instrs)-1].Targets[ti] = t + 1
			}
		}
	}
	return succ, nil
}

// liveAcross returns, in a stable order, the ValueIDs defined in head and
// referenced by any instruction in tail — these must cross the new block
// boundary as parameters/arguments.
func liveAcross(head, tail []*ir.Instruction) []ir.ValueID {
	definedInHead := make(map[ir.ValueID]bool, len(head))
	for _, in := range head {
		if in.HasResult {
			definedInHead[in.ID()] = true
		}
	}
	seen := make(map[ir.ValueID]bool)
	var out []ir.ValueID
	for _, in := range tail {
		for _, arg := range in.Args {
			if definedInHead[arg] && !seen[arg] {
				seen[arg] = true
				out = append(out, arg)
			}
		}
	}
	return out
}
