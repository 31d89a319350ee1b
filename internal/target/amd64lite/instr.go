package amd64lite

import (
	"fmt"
	"strings"

	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
)

// Op is an amd64lite mnemonic.
type Op byte

const (
	OpMovRR Op = iota // mov dst, src
	OpMovIR           // mov dst, $imm
	OpLoad            // mov dst, [src+imm]
	OpStore           // mov [dst+imm], src
	OpAdd
	OpSub
	OpIMul
	OpCmp
	OpJmp
	OpJcc
	OpCall
	OpRet
	OpLabel
	OpSetcc
)

var mnemonics = [...]string{
	"mov", "mov", "mov", "mov", "add", "sub", "imul", "cmp",
	"jmp", "jcc", "call", "ret", "label", "setcc",
}

// Instr is one amd64lite abstract instruction.
type Instr struct {
	Op      Op
	Dst     []regalloc.VReg
	Src     []regalloc.VReg
	Imm     int64
	Target  string // jump/call target label
	Cond    string // condition code text for OpJcc/OpSetcc (e.g. "e", "l")
}

// Defs implements regalloc.Instr.
func (i *Instr) Defs() []regalloc.VReg { return i.Dst }

// Uses implements regalloc.Instr.
func (i *Instr) Uses() []regalloc.VReg { return i.Src }

// SetDefs implements regalloc.Instr.
func (i *Instr) SetDefs(v []regalloc.VReg) { i.Dst = v }

// SetUses implements regalloc.Instr.
func (i *Instr) SetUses(v []regalloc.VReg) { i.Src = v }

// IsCopy implements regalloc.Instr: plain register-to-register moves are
// coalescing candidates.
func (i *Instr) IsCopy() bool { return i.Op == OpMovRR }

// IsCall implements regalloc.Instr.
func (i *Instr) IsCall() bool { return i.Op == OpCall }

// IsReturn reports whether this is the function return instruction.
func (i *Instr) IsReturn() bool { return i.Op == OpRet }

// SpillStore implements frame.SpillCodec: a store of tmp to the frame
// slot reserved for a spilled definition, addressed off the frame
// pointer the way the load/store tiles address any other memory operand.
func (i *Instr) SpillStore(tmp regalloc.VReg, slot int) regalloc.Instr {
	return &Instr{Op: OpStore, Dst: []regalloc.VReg{regalloc.FromRealReg(BP, regalloc.ClassInt)}, Src: []regalloc.VReg{tmp}, Imm: spillOffset(slot)}
}

// SpillLoad implements frame.SpillCodec: a reload of the frame slot
// reserved for a spilled use into tmp.
func (i *Instr) SpillLoad(tmp regalloc.VReg, slot int) regalloc.Instr {
	return &Instr{Op: OpLoad, Dst: []regalloc.VReg{tmp}, Src: []regalloc.VReg{regalloc.FromRealReg(BP, regalloc.ClassInt)}, Imm: spillOffset(slot)}
}

// spillOffset gives every spill slot a distinct negative frame-pointer
// offset; it does not need SlotSize's final layout since the store and
// load tiles only need byte-identical, stable addressing for the same
// slot index, not an offset consistent with any other part of the frame.
func spillOffset(slot int) int64 { return -8 * int64(slot+1) }

func (i *Instr) String() string {
	var b strings.Builder
	switch i.Op {
	case OpLabel:
		return i.Target + ":"
	case OpRet:
		return "\tret"
	case OpJmp:
		return fmt.Sprintf("\tjmp %s", i.Target)
	case OpJcc:
		return fmt.Sprintf("\tj%s %s", i.Cond, i.Target)
	case OpCall:
		return fmt.Sprintf("\tcall %s", i.Target)
	case OpMovIR:
		return fmt.Sprintf("\tmov %s, $%d", i.Dst[0], i.Imm)
	case OpLoad:
		return fmt.Sprintf("\tmov %s, [%s+%d]", i.Dst[0], i.Src[0], i.Imm)
	case OpStore:
		return fmt.Sprintf("\tmov [%s+%d], %s", i.Dst[0], i.Imm, i.Src[0])
	case OpSetcc:
		return fmt.Sprintf("\tset%s %s", i.Cond, i.Dst[0])
	default:
		b.WriteByte('\t')
		b.WriteString(mnemonics[i.Op])
		b.WriteByte(' ')
		if len(i.Dst) > 0 {
			fmt.Fprintf(&b, "%s", i.Dst[0])
		}
		for _, s := range i.Src {
			fmt.Fprintf(&b, ", %s", s)
		}
		if len(i.Src) == 0 && i.Imm != 0 {
			fmt.Fprintf(&b, ", $%d", i.Imm)
		}
		return b.String()
	}
}
