package stream

import (
	"bufio"
	"fmt"
	"io"
)

// TextOutputStream writes one mnemonic per line to w, with a header line
// whenever the active section changes.
type TextOutputStream struct {
	w       *bufio.Writer
	section string
}

// NewText returns a TextOutputStream writing to w.
func NewText(w io.Writer) *TextOutputStream {
	return &TextOutputStream{w: bufio.NewWriter(w)}
}

func (t *TextOutputStream) SelectSection(name string) {
	if name == t.section {
		return
	}
	t.section = name
	fmt.Fprintf(t.w, "\t.section %s\n", name)
}

func (t *TextOutputStream) Emit(item Item) {
	fmt.Fprintln(t.w, item.String())
}

// Flush must be called once writing is done; no pipeline stage or the
// driver calls it, so the owner of the stream (the compile command, after
// the whole module's output has been produced) does.
func (t *TextOutputStream) Flush() error { return t.w.Flush() }

// Label is a section-relative symbol definition, the simplest Item kind,
// used for both function entry labels and global-variable labels.
type Label struct{ Name string }

func (l Label) String() string { return l.Name + ":" }

// Directive is a raw assembler directive line (e.g. a `.size` or
// `.skip`), used by emit_global implementations.
type Directive string

func (d Directive) String() string { return string(d) }
