package amd64lite

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/kestrel-lang/kestrelcc/internal/frame"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
)

// regTable maps this package's RealReg numbering to golang-asm's x86
// register constants, grounded on the corpus's own
// castAsGolangAsmRegister table (internal/integration_test/asm/amd64_debug).
var regTable = [...]int16{
	AX: x86.REG_AX, CX: x86.REG_CX, DX: x86.REG_DX, BX: x86.REG_BX,
	SP: x86.REG_SP, BP: x86.REG_BP, SI: x86.REG_SI, DI: x86.REG_DI,
	R8: x86.REG_R8, R9: x86.REG_R9, R10: x86.REG_R10, R11: x86.REG_R11,
	R12: x86.REG_R12, R13: x86.REG_R13, R14: x86.REG_R14, R15: x86.REG_R15,
}

func x86Reg(v regalloc.VReg) int16 {
	if !v.IsRealReg() {
		return 0
	}
	return regTable[v.RealReg()]
}

// ccJump maps condCode's text codes to golang-asm's conditional jump
// mnemonics.
var ccJump = map[string]obj.As{
	"e": x86.AJEQ, "ne": x86.AJNE,
	"l": x86.AJLT, "le": x86.AJLE, "g": x86.AJGT, "ge": x86.AJGE,
	"b": x86.AJCS, "be": x86.AJLS, "a": x86.AJHI, "ae": x86.AJCC,
}

// ccSet maps condCode's text codes to golang-asm's byte-set-on-condition
// mnemonics (SETcc), used by the icmp tile's result materialization.
var ccSet = map[string]obj.As{
	"e": x86.ASETEQ, "ne": x86.ASETNE,
	"l": x86.ASETLT, "le": x86.ASETLE, "g": x86.ASETGT, "ge": x86.ASETGE,
	"b": x86.ASETCS, "be": x86.ASETLS, "a": x86.ASETHI, "ae": x86.ASETPC,
}

// Encoder turns a fully allocated amd64lite Frame into real amd64 machine
// code via golang-asm's obj.Prog builder, the same library the teacher
// wires into internal/integration_test/asm/golang_asm for its own amd64
// backend's debug/verification path. This is a demonstrative encoder for
// the tile set Tiles() produces (register-only operands; no scale-index
// addressing, no PLT/relocation entries), not a general assembler: an
// instruction shape Tiles() never emits is out of scope, consistent with
// the module's Non-goal of linking/object-file relocation.
type Encoder struct {
	b *goasm.Builder
}

// NewEncoder allocates a fresh golang-asm builder sized for n instructions.
func NewEncoder(n int) (*Encoder, error) {
	b, err := goasm.NewBuilder("amd64", n*8+64)
	if err != nil {
		return nil, fmt.Errorf("amd64lite: new golang-asm builder: %w", err)
	}
	return &Encoder{b: b}, nil
}

// Encode assembles f's (already-finalized) instruction stream into a flat
// byte slice of real amd64 machine code. Labels are resolved in a first
// pass (recording each OpLabel's first following *obj.Prog), then wired
// as jump/branch targets in a second pass, mirroring the two-pass
// SetJumpTargetOnNext discipline the teacher's own golang_asm wrapper
// uses for forward branches.
func (e *Encoder) Encode(f *frame.Frame) ([]byte, error) {
	labelPos := map[string]*obj.Prog{}
	var pendingLabel string
	type fixup struct {
		prog   *obj.Prog
		target string
	}
	var fixups []fixup

	for _, raw := range f.Instrs {
		in, ok := raw.(*Instr)
		if !ok {
			continue
		}
		if in.Op == OpLabel {
			pendingLabel = in.Target
			continue
		}

		p := e.b.NewProg()
		switch in.Op {
		case OpMovRR:
			p.As = x86.AMOVQ
			p.From.Type = obj.TYPE_REG
			p.From.Reg = x86Reg(in.Src[0])
			p.To.Type = obj.TYPE_REG
			p.To.Reg = x86Reg(in.Dst[0])
		case OpMovIR:
			p.As = x86.AMOVQ
			p.From.Type = obj.TYPE_CONST
			p.From.Offset = in.Imm
			p.To.Type = obj.TYPE_REG
			p.To.Reg = x86Reg(in.Dst[0])
		case OpLoad:
			p.As = x86.AMOVQ
			p.From.Type = obj.TYPE_MEM
			p.From.Reg = x86Reg(in.Src[0])
			p.From.Offset = in.Imm
			p.To.Type = obj.TYPE_REG
			p.To.Reg = x86Reg(in.Dst[0])
		case OpStore:
			p.As = x86.AMOVQ
			p.From.Type = obj.TYPE_REG
			p.From.Reg = x86Reg(in.Src[0])
			p.To.Type = obj.TYPE_MEM
			p.To.Reg = x86Reg(in.Dst[0])
			p.To.Offset = in.Imm
		case OpAdd:
			p.As = x86.AADDQ
			p.From.Type = obj.TYPE_REG
			p.From.Reg = x86Reg(in.Src[0])
			p.To.Type = obj.TYPE_REG
			p.To.Reg = x86Reg(in.Dst[0])
		case OpSub:
			p.As = x86.ASUBQ
			p.To.Type = obj.TYPE_REG
			p.To.Reg = x86Reg(in.Dst[0])
			if len(in.Src) > 0 {
				p.From.Type = obj.TYPE_REG
				p.From.Reg = x86Reg(in.Src[0])
			} else {
				// The frame-size stack adjustment (EntryExitGlue3)
				// subtracts an immediate rather than a register.
				p.From.Type = obj.TYPE_CONST
				p.From.Offset = in.Imm
			}
		case OpIMul:
			p.As = x86.AIMULQ
			p.From.Type = obj.TYPE_REG
			p.From.Reg = x86Reg(in.Src[0])
			p.To.Type = obj.TYPE_REG
			p.To.Reg = x86Reg(in.Dst[0])
		case OpCmp:
			p.As = x86.ACMPQ
			p.From.Type = obj.TYPE_REG
			p.From.Reg = x86Reg(in.Src[0])
			p.To.Type = obj.TYPE_REG
			p.To.Reg = x86Reg(in.Src[1])
		case OpSetcc:
			as, ok := ccSet[in.Cond]
			if !ok {
				as = x86.ASETEQ
			}
			p.As = as
			p.To.Type = obj.TYPE_REG
			p.To.Reg = x86Reg(in.Dst[0])
		case OpJmp:
			p.As = x86.AJMP
			fixups = append(fixups, fixup{p, in.Target})
		case OpJcc:
			as, ok := ccJump[in.Cond]
			if !ok {
				as = x86.AJEQ
			}
			p.As = as
			fixups = append(fixups, fixup{p, in.Target})
		case OpCall:
			p.As = x86.ACALL
			// amd64lite never resolves a real callee address (no
			// linking, per Non-goals); the call target is recorded as
			// a same-function label only so self-recursive test
			// fixtures encode without error.
			if target, ok := labelPos[in.Target]; ok {
				p.To.SetTarget(target)
			}
		case OpRet:
			p.As = x86.ARET
		default:
			p.As = obj.ANOP
		}

		e.b.AddInstruction(p)
		if pendingLabel != "" {
			labelPos[pendingLabel] = p
			pendingLabel = ""
		}
	}

	for _, fx := range fixups {
		target, ok := labelPos[fx.target]
		if !ok {
			return nil, fmt.Errorf("amd64lite: unresolved branch target %q", fx.target)
		}
		fx.prog.To.Type = obj.TYPE_BRANCH
		fx.prog.To.SetTarget(target)
	}

	return e.b.Assemble(), nil
}
