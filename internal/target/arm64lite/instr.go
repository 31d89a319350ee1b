package arm64lite

import (
	"fmt"
	"strings"

	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
)

// Op is an arm64lite mnemonic.
type Op byte

const (
	OpMovRR Op = iota // mov dst, src
	OpMovIR           // mov dst, #imm
	OpLdr             // ldr dst, [src, #imm]
	OpStr             // str src, [dst, #imm]
	OpAdd
	OpSub
	OpMul
	OpCmp
	OpB
	OpBcond
	OpBl
	OpRet
	OpLabel
	OpCset
)

// Instr is one arm64lite abstract instruction.
type Instr struct {
	Op     Op
	Dst    []regalloc.VReg
	Src    []regalloc.VReg
	Imm    int64
	Target string
	Cond   string
}

func (i *Instr) Defs() []regalloc.VReg   { return i.Dst }
func (i *Instr) Uses() []regalloc.VReg   { return i.Src }
func (i *Instr) SetDefs(v []regalloc.VReg) { i.Dst = v }
func (i *Instr) SetUses(v []regalloc.VReg) { i.Src = v }
func (i *Instr) IsCopy() bool            { return i.Op == OpMovRR }
func (i *Instr) IsCall() bool            { return i.Op == OpBl }
func (i *Instr) IsReturn() bool          { return i.Op == OpRet }

func (i *Instr) String() string {
	switch i.Op {
	case OpLabel:
		return i.Target + ":"
	case OpRet:
		return "\tret"
	case OpB:
		return fmt.Sprintf("\tb %s", i.Target)
	case OpBcond:
		return fmt.Sprintf("\tb.%s %s", i.Cond, i.Target)
	case OpBl:
		return fmt.Sprintf("\tbl %s", i.Target)
	case OpMovIR:
		return fmt.Sprintf("\tmov %s, #%d", i.Dst[0], i.Imm)
	case OpLdr:
		return fmt.Sprintf("\tldr %s, [%s, #%d]", i.Dst[0], i.Src[0], i.Imm)
	case OpStr:
		return fmt.Sprintf("\tstr %s, [%s, #%d]", i.Src[0], i.Dst[0], i.Imm)
	case OpCset:
		return fmt.Sprintf("\tcset %s, %s", i.Dst[0], i.Cond)
	default:
		var b strings.Builder
		b.WriteByte('\t')
		b.WriteString(mnemonic(i.Op))
		if len(i.Dst) > 0 {
			fmt.Fprintf(&b, " %s,", i.Dst[0])
		}
		for idx, s := range i.Src {
			if idx > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, " %s", s)
		}
		if len(i.Src) == 0 && i.Imm != 0 {
			fmt.Fprintf(&b, " #%d", i.Imm)
		}
		return b.String()
	}
}

func mnemonic(op Op) string {
	switch op {
	case OpMovRR:
		return "mov"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpCmp:
		return "cmp"
	default:
		return "?"
	}
}

// SpillStore implements frame.SpillCodec.
func (i *Instr) SpillStore(tmp regalloc.VReg, slot int) regalloc.Instr {
	return &Instr{Op: OpStr, Dst: []regalloc.VReg{regalloc.FromRealReg(X29, regalloc.ClassInt)}, Src: []regalloc.VReg{tmp}, Imm: spillOffset(slot)}
}

// SpillLoad implements frame.SpillCodec.
func (i *Instr) SpillLoad(tmp regalloc.VReg, slot int) regalloc.Instr {
	return &Instr{Op: OpLdr, Dst: []regalloc.VReg{tmp}, Src: []regalloc.VReg{regalloc.FromRealReg(X29, regalloc.ClassInt)}, Imm: spillOffset(slot)}
}

func spillOffset(slot int) int64 { return -16 * int64(slot+1) }
