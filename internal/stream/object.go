package stream

import (
	"strconv"
	"strings"

	"github.com/kestrel-lang/kestrelcc/internal/objfile"
)

// ObjectOutputStream accumulates emitted labels/directives into an
// objfile.File. Unlike TextOutputStream it cannot derive machine code
// from Emit(Item) alone — abstract/final instruction Items carry no byte
// encoding — so the driver calls PutFunctionCode directly once a
// target's Encoder has produced a function's real bytes; Emit only
// tracks data-section labels and their `.skip N` sizing so
// EmitGlobal-produced globals still land in the container.
type ObjectOutputStream struct {
	file        *objfile.File
	section     string
	pendingName string
}

// NewObject returns an ObjectOutputStream backed by a fresh objfile.File.
func NewObject() *ObjectOutputStream {
	return &ObjectOutputStream{file: objfile.New()}
}

func (o *ObjectOutputStream) SelectSection(name string) { o.section = name }

func (o *ObjectOutputStream) Emit(item Item) {
	switch v := item.(type) {
	case Label:
		o.pendingName = v.Name
	case Directive:
		if o.section != "data" || o.pendingName == "" {
			return
		}
		size := parseSkip(string(v))
		if size >= 0 {
			o.file.PutData(o.pendingName, size)
			o.pendingName = ""
		}
	}
}

// PutFunctionCode records name's already-encoded machine code in the
// code section, as produced by a target.Machine's Encoder.
func (o *ObjectOutputStream) PutFunctionCode(name string, code []byte) {
	o.file.PutCode(name, code)
}

// File returns the accumulated container.
func (o *ObjectOutputStream) File() *objfile.File { return o.file }

// parseSkip extracts N from a "\t.skip N" directive, as emitted by
// amd64lite.Machine.EmitGlobal; returns -1 if d isn't a recognized skip
// directive.
func parseSkip(d string) int64 {
	const prefix = ".skip"
	i := strings.Index(d, prefix)
	if i < 0 {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(d[i+len(prefix):]), 10, 64)
	if err != nil {
		return -1
	}
	return n
}
