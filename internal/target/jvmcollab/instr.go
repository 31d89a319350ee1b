// Package jvmcollab is the deliberately partial JVM-bytecode collaborator
// target (spec.md §6's opcode-table contract): a stack machine with no
// register file, wired as a third target.Machine purely to demonstrate
// that the selector/allocator core makes no amd64- or register-file-
// specific assumption. Register allocation never runs for this target
// (RegisterInfo's K is zero for every class), so its tiles never read
// the virtual registers the selector hands them — only the DAG node's
// own shape (opcode, immediate) — and its lowering walks the opcode
// table in internal/collab/jvmopcodes for the mnemonic/byte pairing.
package jvmcollab

import (
	"fmt"

	"github.com/kestrel-lang/kestrelcc/internal/collab/jvmopcodes"
	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
)

// Instr is one JVM bytecode instruction: a mnemonic (looked up in
// jvmopcodes for its byte), plus an optional immediate/branch operand.
// Defs/Uses are always empty: results and operands live on the JVM
// operand stack, never in named registers, so this target gives the
// allocator nothing to color.
type Instr struct {
	Mnemonic string
	Imm      int64
	HasImm   bool
	Target   string
}

func (i *Instr) Defs() []regalloc.VReg     { return nil }
func (i *Instr) Uses() []regalloc.VReg     { return nil }
func (i *Instr) SetDefs([]regalloc.VReg)   {}
func (i *Instr) SetUses([]regalloc.VReg)   {}
func (i *Instr) IsCopy() bool              { return false }
func (i *Instr) IsCall() bool              { return i.Mnemonic == "invokestatic" }
func (i *Instr) IsReturn() bool            { return i.Mnemonic == "return" || i.Mnemonic == "ireturn" }

func (i *Instr) String() string {
	code, known := jvmopcodes.ByMnemonic(i.Mnemonic)
	switch {
	case i.Target != "":
		return fmt.Sprintf("\t%s %s", i.Mnemonic, i.Target)
	case i.HasImm && known:
		return fmt.Sprintf("\t%s %d ; 0x%02x", i.Mnemonic, i.Imm, code)
	case known:
		return fmt.Sprintf("\t%s ; 0x%02x", i.Mnemonic, code)
	default:
		return fmt.Sprintf("\t%s ; unlisted in jvmopcodes", i.Mnemonic)
	}
}
