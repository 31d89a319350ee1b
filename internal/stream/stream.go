// Package stream implements the composable output sink: select_section to
// switch between the recognized "data" and "code" sections, and emit to
// append one item, per spec.md §6.
package stream

// Item is anything an OutputStream can emit: an abstract or final
// instruction, a label, or a directive. Targets define their own concrete
// item types; the stream only needs to pass them through.
type Item interface {
	String() string
}

// OutputStream is the sink contract every concrete stream implements.
type OutputStream interface {
	SelectSection(name string)
	Emit(item Item)
}

// MasterOutputStream fans out every SelectSection/Emit call to a list of
// child sinks, in declaration order, so e.g. a function's instruction
// list can be captured in memory at the same time it is written to a
// text or object stream.
type MasterOutputStream struct {
	Children []OutputStream
}

// NewMaster returns a MasterOutputStream fanning out to children, in the
// order given.
func NewMaster(children ...OutputStream) *MasterOutputStream {
	return &MasterOutputStream{Children: children}
}

func (m *MasterOutputStream) SelectSection(name string) {
	for _, c := range m.Children {
		c.SelectSection(name)
	}
}

func (m *MasterOutputStream) Emit(item Item) {
	for _, c := range m.Children {
		c.Emit(item)
	}
}

// FunctionOutputStream appends every emitted item to a caller-provided
// collector, ignoring section changes; used to retrieve one function's
// instruction list in-memory without re-parsing a serialized stream.
type FunctionOutputStream struct {
	Collect func(Item)
}

// NewFunctionStream returns a FunctionOutputStream that calls collect for
// every emitted item.
func NewFunctionStream(collect func(Item)) *FunctionOutputStream {
	return &FunctionOutputStream{Collect: collect}
}

func (f *FunctionOutputStream) SelectSection(string) {}
func (f *FunctionOutputStream) Emit(item Item)       { f.Collect(item) }
