// Package verify implements the structural verifier run once at the top of
// the driver: missing terminators, use-before-def, types outside the
// closed set and return-arity mismatches are reported as
// *ir.StructureError, never silently tolerated.
package verify

import (
	"fmt"

	"github.com/kestrel-lang/kestrelcc/internal/ir"
)

// Verifier checks module- and function-level structural invariants before
// any pipeline stage runs. It holds no state across calls and is safe to
// reuse across functions.
type Verifier struct {
	// Strict records Config.VerifierStrict, set via the driver. Every
	// finding this verifier reports is already a hard error and it has no
	// warning-class checks, so Strict does not change any result.
	Strict bool
}

// New returns a Verifier in the given strictness mode.
func New(strict bool) *Verifier { return &Verifier{Strict: strict} }

// Module verifies every function in m, stopping at the first error. The
// driver calls it once on the whole module before compiling any function.
func (v *Verifier) Module(m *ir.Module) error {
	for _, fn := range m.Functions {
		if err := v.Function(fn); err != nil {
			return err
		}
	}
	return nil
}

// Function checks a single function's basic blocks: every block must end
// in exactly one terminator, every operand reference must be defined
// earlier (by a preceding instruction or block parameter in this block
// or in any block before it in declaration order), and branch targets
// must be in range.
func (v *Verifier) Function(fn *ir.Function) error {
	if len(fn.Blocks) == 0 {
		return &ir.StructureError{Function: fn.Name, Reason: "function has no blocks"}
	}
	defined := make(map[ir.ValueID]bool)
	for bi, b := range fn.Blocks {
		for _, p := range b.Params {
			defined[p] = true
		}
		if len(b.Instrs) == 0 {
			return &ir.StructureError{Function: fn.Name, Block: b.Name, Reason: "empty block: missing terminator"}
		}
		for ii, in := range b.Instrs {
			isLast := ii == len(b.Instrs)-1
			if in.Op.IsTerminator() != isLast {
				if in.Op.IsTerminator() {
					return &ir.StructureError{Function: fn.Name, Block: b.Name, Reason: "terminator is not the last instruction"}
				}
				return &ir.StructureError{Function: fn.Name, Block: b.Name, Reason: "block does not end in a terminator"}
			}
			for _, arg := range in.Args {
				if !defined[arg] {
					return &ir.StructureError{
						Function: fn.Name, Block: b.Name,
						Reason: fmt.Sprintf("use of value v%d before its definition", arg),
					}
				}
			}
			if err := v.checkTypes(fn, b, in); err != nil {
				return err
			}
			for _, t := range in.Targets {
				if t < 0 || t >= len(fn.Blocks) {
					return &ir.StructureError{
						Function: fn.Name, Block: b.Name,
						Reason: fmt.Sprintf("branch target %d out of range (function has %d blocks)", t, len(fn.Blocks)),
					}
				}
			}
			if in.HasResult {
				defined[in.ID()] = true
			}
		}
		_ = bi
	}
	return nil
}

// checkTypes enforces the closed type set, requires a result type on
// every instruction that produces a result, and checks that a return in
// a value-returning function has exactly one operand. Operand types are
// not compared against each other or against the declared return type.
func (v *Verifier) checkTypes(fn *ir.Function, b *ir.Block, in *ir.Instruction) error {
	switch in.Type {
	case ir.TypeInvalid:
		if in.HasResult {
			return &ir.StructureError{Function: fn.Name, Block: b.Name, Reason: fmt.Sprintf("%s has no result type", in.Op)}
		}
	case ir.I8, ir.I16, ir.I32, ir.I64, ir.F32, ir.F64, ir.Ptr:
		// ok
	default:
		return &ir.StructureError{Function: fn.Name, Block: b.Name, Reason: fmt.Sprintf("type %v outside the closed type set", in.Type)}
	}
	if in.Op == ir.OpReturn && fn.HasRet && len(in.Args) != 1 {
		return &ir.StructureError{Function: fn.Name, Block: b.Name, Reason: "return arity mismatch against function signature"}
	}
	return nil
}
