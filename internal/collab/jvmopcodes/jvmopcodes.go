// Package jvmopcodes is the one process-wide immutable-after-init lookup
// table this repo carries (spec.md §9's "global mutable state" note,
// resolved as "none except this"), transcribed from the original
// implementation's opcode list (ppci/arch/jvm/opcodes.py) since the
// distilled spec only describes the table's shape in prose. It is
// consumed exclusively by target/jvmcollab; the core pipeline never
// imports this package.
package jvmopcodes

// ArgKind identifies the operand encoding an instruction's trailing
// bytes carry, as the original table's per-opcode arg-type tuple.
type ArgKind byte

const (
	ArgNone ArgKind = iota
	ArgI8
	ArgI16
	ArgIdx8
	ArgIdx16
	ArgIdx
)

// OpcodeInfo is one JVM bytecode's static description: its mnemonic and
// the operand bytes that follow it in the instruction stream.
type OpcodeInfo struct {
	Mnemonic string
	Args     []ArgKind
}

// ByCode is the immutable byte -> OpcodeInfo table, built once at init.
var ByCode map[byte]OpcodeInfo

func entry(mnemonic string, code byte, args ...ArgKind) struct {
	mnemonic string
	code     byte
	args     []ArgKind
} {
	return struct {
		mnemonic string
		code     byte
		args     []ArgKind
	}{mnemonic, code, args}
}

func init() {
	entries := []struct {
		mnemonic string
		code     byte
		args     []ArgKind
	}{
		entry("nop", 0x00),
		entry("aconst_null", 0x01),
		entry("iconst_m1", 0x02),
		entry("iconst_0", 0x03),
		entry("iconst_1", 0x04),
		entry("iconst_2", 0x05),
		entry("iconst_3", 0x06),
		entry("iconst_4", 0x07),
		entry("iconst_5", 0x08),
		entry("lconst_0", 0x09),
		entry("lconst_1", 0x0a),
		entry("fconst_0", 0x0b),
		entry("fconst_1", 0x0c),
		entry("fconst_2", 0x0d),
		entry("dconst_0", 0x0e),
		entry("dconst_1", 0x0f),
		entry("bipush", 0x10, ArgI8),
		entry("sipush", 0x11, ArgI16),
		entry("ldc", 0x12, ArgIdx8),
		entry("ldc_w", 0x13, ArgIdx16),
		entry("ldc2_w", 0x14, ArgIdx16),
		entry("iload", 0x15, ArgIdx8),
		entry("lload", 0x16, ArgIdx8),
		entry("fload", 0x17, ArgIdx8),
		entry("dload", 0x18, ArgIdx8),
		entry("aload", 0x19, ArgIdx8),
		entry("iload_0", 0x1a),
		entry("iload_1", 0x1b),
		entry("iload_2", 0x1c),
		entry("iload_3", 0x1d),

		entry("istore", 0x36, ArgIdx8),
		entry("lstore", 0x37, ArgIdx8),
		entry("fstore", 0x38, ArgIdx8),
		entry("dstore", 0x39, ArgIdx8),

		entry("istore_0", 0x3b),
		entry("istore_1", 0x3c),
		entry("istore_2", 0x3d),
		entry("istore_3", 0x3e),
		entry("lstore_0", 0x3f),
		entry("lstore_1", 0x40),
		entry("lstore_2", 0x41),
		entry("lstore_3", 0x42),
		entry("fstore_0", 0x43),
		entry("fstore_1", 0x44),
		entry("fstore_2", 0x45),
		entry("fstore_3", 0x46),
		entry("dstore_0", 0x47),
		entry("dstore_1", 0x48),
		entry("dstore_2", 0x49),
		entry("dstore_3", 0x4a),
		entry("astore_0", 0x4b),
		entry("astore_1", 0x4c),
		entry("astore_2", 0x4d),
		entry("astore_3", 0x4e),
		entry("iastore", 0x4f),
		entry("lastore", 0x50),
		entry("fastore", 0x51),
		entry("dastore", 0x52),
		entry("aastore", 0x53),
		entry("bastore", 0x54),
		entry("castore", 0x55),
		entry("sastore", 0x56),
		entry("pop", 0x57),
		entry("pop2", 0x58),
		entry("dup", 0x59),

		entry("iadd", 0x60),
		entry("ladd", 0x61),
		entry("fadd", 0x62),
		entry("dadd", 0x63),
		entry("isub", 0x64),
		entry("lsub", 0x65),
		entry("fsub", 0x66),
		entry("dsub", 0x67),
		entry("imul", 0x68),
		entry("lmul", 0x69),
		entry("fmul", 0x6a),
		entry("dmul", 0x6b),
		entry("idiv", 0x6c),
		entry("ldiv", 0x6d),
		entry("fdiv", 0x6e),
		entry("ddiv", 0x6f),
		entry("irem", 0x70),
		entry("lrem", 0x71),
		entry("frem", 0x72),
		entry("drem", 0x73),
		entry("ineg", 0x74),
		entry("lneg", 0x75),
		entry("fneg", 0x76),
		entry("dneg", 0x77),
		entry("ishl", 0x78),
		entry("lshl", 0x79),
		entry("ishr", 0x7a),
		entry("lshr", 0x7b),
		entry("iushr", 0x7c),
		entry("lushr", 0x7d),
		entry("iand", 0x7e),
		entry("land", 0x7f),
		entry("ior", 0x80),
		entry("lor", 0x81),
		entry("ixor", 0x82),
		entry("lxor", 0x83),

		entry("i2l", 0x85),
		entry("i2f", 0x86),
		entry("i2d", 0x87),
		entry("l2i", 0x88),
		entry("l2f", 0x89),
		entry("l2d", 0x8a),
		entry("f2i", 0x8b),
		entry("f2l", 0x8c),
		entry("f2d", 0x8d),
		entry("d2i", 0x8e),
		entry("d2l", 0x8f),
		entry("d2f", 0x90),
		entry("i2b", 0x91),
		entry("i2c", 0x92),
		entry("i2s", 0x93),

		entry("ireturn", 0xac),
		entry("lreturn", 0xad),
		entry("freturn", 0xae),
		entry("dreturn", 0xaf),
		entry("areturn", 0xb0),
		entry("return", 0xb1),

		entry("getstatic", 0xb2, ArgIdx16),
		entry("putstatic", 0xb3, ArgIdx16),
		entry("getfield", 0xb4, ArgIdx16),
		entry("putfield", 0xb5, ArgIdx16),
		entry("invokevirtual", 0xb6, ArgIdx16),
		entry("invokespecial", 0xb7, ArgIdx16),
		entry("invokestatic", 0xb8, ArgIdx16),

		entry("new", 0xbb, ArgIdx),
	}

	ByCode = make(map[byte]OpcodeInfo, len(entries))
	for _, e := range entries {
		ByCode[e.code] = OpcodeInfo{Mnemonic: e.mnemonic, Args: e.args}
	}
}

// ByMnemonic finds the opcode byte for name, used by jvmcollab's
// selector tiles to emit the right byte for an IR opcode without
// hand-rolling a second copy of the table in reverse.
func ByMnemonic(name string) (byte, bool) {
	for code, info := range ByCode {
		if info.Mnemonic == name {
			return code, true
		}
	}
	return 0, false
}
