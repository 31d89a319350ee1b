// Package regalloc implements the iterated register-coalescing allocator:
// build the interference graph, simplify/coalesce/freeze low-degree
// nodes, pick potential spills, then color and rewrite actual spills,
// restarting until every virtual register is colored or mapped to a
// frame slot. It is parameterized over any ISA through the Function/
// Block/Instr interfaces in api.go, grounded on the teacher's
// backend/regalloc package and generalized to implement the explicit
// simplify/coalesce/freeze/spill state machine spec.md §4.4 names.
package regalloc

import "fmt"

// VReg packs a register identity, its class and (once colored) the real
// register backing it into one machine word, mirroring the teacher's
// bit-packed VReg encoding.
type VReg uint64

// VRegID is the pure identifier portion of a VReg, stable across
// allocation rounds (rewriting allocates new VRegIDs for spill-load/store
// temporaries, never reuses one).
type VRegID uint32

// RegClass distinguishes disjoint colorable register files (e.g. integer
// vs. floating point); K is computed per class.
type RegClass byte

const (
	ClassInvalid RegClass = iota
	ClassInt
	ClassFloat
	NumRegClass
)

func (c RegClass) String() string {
	switch c {
	case ClassInt:
		return "int"
	case ClassFloat:
		return "float"
	default:
		return "invalid"
	}
}

// RealReg is a physical register, ABI-numbered by the target.
type RealReg byte

// RealRegInvalid marks a VReg as not (yet) backed by a physical register.
const RealRegInvalid RealReg = 0xff

const vRegIDInvalid VRegID = 1<<32 - 1

// VRegInvalid is the zero-value-safe invalid virtual register.
var VRegInvalid = NewVReg(vRegIDInvalid, ClassInvalid)

// NewVReg creates a fresh, uncolored virtual register.
func NewVReg(id VRegID, class RegClass) VReg {
	return VReg(id) | VReg(class)<<32 | VReg(RealRegInvalid)<<40
}

// FromRealReg returns the pre-colored VReg representing physical register
// r, used to seed the interference graph with ABI-fixed registers (call
// clobbers, argument/return registers, divide operands).
func FromRealReg(r RealReg, class RegClass) VReg {
	return VReg(r) | VReg(class)<<32 | VReg(r)<<40
}

// ID returns the virtual register identifier.
func (v VReg) ID() VRegID { return VRegID(v) }

// Class returns the register class.
func (v VReg) Class() RegClass { return RegClass(v >> 32) }

// RealReg returns the physical register backing v, or RealRegInvalid.
func (v VReg) RealReg() RealReg { return RealReg(v >> 40) }

// IsRealReg reports whether v is pre-colored (an ABI-fixed physical
// register participating in the graph, never simplified or spilled).
func (v VReg) IsRealReg() bool { return v.RealReg() != RealRegInvalid }

// SetRealReg returns a copy of v colored with r; used by the allocator's
// Select step.
func (v VReg) SetRealReg(r RealReg) VReg {
	return VReg(v.ID()) | VReg(v.Class())<<32 | VReg(r)<<40
}

// Valid reports whether v is a usable register reference.
func (v VReg) Valid() bool { return v.ID() != vRegIDInvalid }

func (v VReg) String() string {
	if v.IsRealReg() {
		return fmt.Sprintf("r%d", v.RealReg())
	}
	return fmt.Sprintf("v%d", v.ID())
}
