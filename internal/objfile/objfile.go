// Package objfile implements a minimal, deliberately linker-less object
// container: one flat code blob, one flat data blob, and a symbol table
// mapping names to (section, offset, size) triples. It exists to give
// internal/stream's ObjectOutputStream something concrete to materialize
// into for the end-to-end tests, not to compete with a real object
// format (ELF/Mach-O relocation is an explicit Non-goal).
package objfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// Section identifies which flat blob a symbol's bytes live in.
type Section byte

const (
	SectionCode Section = iota
	SectionData
)

func (s Section) String() string {
	if s == SectionData {
		return "data"
	}
	return "code"
}

// Symbol records where one named global or function landed in its
// section's blob.
type Symbol struct {
	Name    string
	Section Section
	Offset  int
	Size    int
}

// File is the in-memory object: two section blobs plus the symbols
// placed within them, appended in the order callers call PutCode/PutData.
type File struct {
	Code    []byte
	Data    []byte
	Symbols []Symbol
}

// New returns an empty File.
func New() *File { return &File{} }

// PutCode appends a function's machine code to the code blob and records
// its symbol, returning the offset it was placed at.
func (f *File) PutCode(name string, code []byte) int {
	off := len(f.Code)
	f.Code = append(f.Code, code...)
	f.Symbols = append(f.Symbols, Symbol{Name: name, Section: SectionCode, Offset: off, Size: len(code)})
	return off
}

// PutData reserves size zero-initialized bytes in the data blob for a
// global and records its symbol.
func (f *File) PutData(name string, size int64) int {
	off := len(f.Data)
	f.Data = append(f.Data, make([]byte, size)...)
	f.Symbols = append(f.Symbols, Symbol{Name: name, Section: SectionData, Offset: off, Size: int(size)})
	return off
}

// Lookup returns the symbol named name, if present.
func (f *File) Lookup(name string) (Symbol, bool) {
	for _, s := range f.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// magic identifies the flat container format; kept tiny since this is
// never read back by a real loader, only by this package's own Decode
// (used by tests asserting round-trip symbol placement).
const magic = "KCC1"

// Encode serializes f into the flat container: a header (magic, section
// lengths, symbol count), the symbol table (name length + name +
// section + offset + size per entry, symbols sorted by name for
// deterministic output), then the code blob, then the data blob.
func (f *File) Encode() []byte {
	symbols := append([]Symbol(nil), f.Symbols...)
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Name < symbols[j].Name })

	var buf bytes.Buffer
	buf.WriteString(magic)
	writeU32(&buf, uint32(len(f.Code)))
	writeU32(&buf, uint32(len(f.Data)))
	writeU32(&buf, uint32(len(symbols)))
	for _, s := range symbols {
		writeU32(&buf, uint32(len(s.Name)))
		buf.WriteString(s.Name)
		buf.WriteByte(byte(s.Section))
		writeU32(&buf, uint32(s.Offset))
		writeU32(&buf, uint32(s.Size))
	}
	buf.Write(f.Code)
	buf.Write(f.Data)
	return buf.Bytes()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// Decode parses the format Encode produces.
func Decode(b []byte) (*File, error) {
	if len(b) < len(magic)+12 || string(b[:len(magic)]) != magic {
		return nil, fmt.Errorf("objfile: bad magic")
	}
	p := len(magic)
	codeLen := readU32(b, &p)
	dataLen := readU32(b, &p)
	symCount := readU32(b, &p)

	f := New()
	for i := uint32(0); i < symCount; i++ {
		nameLen := readU32(b, &p)
		name := string(b[p : p+int(nameLen)])
		p += int(nameLen)
		section := Section(b[p])
		p++
		offset := readU32(b, &p)
		size := readU32(b, &p)
		f.Symbols = append(f.Symbols, Symbol{Name: name, Section: section, Offset: int(offset), Size: int(size)})
	}
	f.Code = append([]byte(nil), b[p:p+int(codeLen)]...)
	p += int(codeLen)
	f.Data = append([]byte(nil), b[p:p+int(dataLen)]...)
	return f, nil
}

func readU32(b []byte, p *int) uint32 {
	v := binary.LittleEndian.Uint32(b[*p : *p+4])
	*p += 4
	return v
}
