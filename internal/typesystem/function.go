package typesystem

import "sync"

// FunctionData is the parser-produced signature of a function: name,
// modifiers, attributes, arguments, optional declared return type, and
// generic parameters with their resolved bounds (empty until the
// signature has been resolved).
type FunctionData struct {
	Name       string
	Modifiers  Modifier
	Attributes *AttrSet
	Args       []MemberField
	Return     *Type // nil = inferred/void
	Generics   []GenericBound
}

// SimpleName returns the last segment of fd's qualified name.
func (fd *FunctionData) SimpleName() string { return SimpleName(fd.Name) }

// IsOperator reports whether fd carries the Operator modifier bit and an
// `operation` attribute, i.e. participates in the rewriter (§4.4).
func (fd *FunctionData) IsOperator() bool {
	if !fd.Modifiers.Has(Operator) {
		return false
	}
	_, ok := fd.Attributes.Get(AttrOperation)
	return ok
}

// Operation returns fd's `operation` attribute string, e.g. "{}+{}".
func (fd *FunctionData) Operation() string { return fd.Attributes.String(AttrOperation) }

// Priority returns fd's `priority` attribute.
func (fd *FunctionData) Priority() int64 { return fd.Attributes.Int(AttrPriority) }

// ParseLeft returns fd's `parse_left` attribute.
func (fd *FunctionData) ParseLeft() bool { return fd.Attributes.Bool(AttrParseLeft) }

// CodelessFinalizedFunction is fd with every argument/return/bound type
// finalized, but no checked body yet -- the form used everywhere before
// the body is checked (call-site resolution, degenericing, vtable
// construction). Instances are shared by reference (the spec's `Arc`);
// in Go that's simply "hand out the pointer, never mutate after
// publish."
type CodelessFinalizedFunction struct {
	handle *Handle

	Data     *FunctionData
	Args     []MemberField // finalized types
	Return   Type
	Generics []GenericBound // finalized bounds

	mu        sync.Mutex
	bodyReady bool
}

// NewCodelessFinalizedFunction constructs and hands out a fresh handle.
func NewCodelessFinalizedFunction(data *FunctionData, args []MemberField, ret Type, generics []GenericBound) *CodelessFinalizedFunction {
	f := &CodelessFinalizedFunction{Data: data, Args: args, Return: ret, Generics: generics}
	f.handle = &Handle{id: newHandle(), Func: data}
	return f
}

// Handle returns f's correlation handle.
func (f *CodelessFinalizedFunction) Handle() *Handle { return f.handle }

// Name returns the function's qualified name.
func (f *CodelessFinalizedFunction) Name() string { return f.Data.Name }

// MarkBodyScheduled records that a body-finalization task has been
// issued for f, so callers don't schedule it twice (relevant for
// degenericed instances reached from multiple call sites concurrently).
func (f *CodelessFinalizedFunction) MarkBodyScheduled() (first bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	first = !f.bodyReady
	f.bodyReady = true
	return first
}
