package typesystem

import "github.com/google/uuid"

// Handle wraps a published symbol-table entry with an internal
// correlation id. The id does not participate in lookup or equality; it
// exists purely so diagnostics can refer to a specific registration
// event (§3, "Handle identity").
type Handle struct {
	id      uuid.UUID
	Struct  *StructData
	Func    *FunctionData
}

func newHandle() uuid.UUID { return uuid.New() }

// ID returns the handle's correlation id.
func (h *Handle) ID() uuid.UUID { return h.id }

// StructData is a nominally-identified aggregate, frozen at registration.
type StructData struct {
	handle *Handle

	Name       string // fully qualified, `::`-separated
	Modifiers  Modifier
	Attributes *AttrSet
	Functions  []string // qualified names of member functions, registration order
}

// NewStructData constructs a StructData and assigns it a fresh handle.
func NewStructData(name string, mods Modifier, attrs *AttrSet, functions []string) *StructData {
	sd := &StructData{Name: name, Modifiers: mods, Attributes: attrs, Functions: functions}
	sd.handle = &Handle{id: newHandle(), Struct: sd}
	return sd
}

// Handle returns sd's correlation handle.
func (sd *StructData) Handle() *Handle { return sd.handle }

// IsTrait reports whether sd is declared with the Trait modifier bit.
func (sd *StructData) IsTrait() bool { return sd.Modifiers.Has(Trait) }

// SimpleName returns the last segment of sd's qualified name.
func (sd *StructData) SimpleName() string { return SimpleName(sd.Name) }

// Field is a (name, type) pair, the minimal shape shared by struct fields
// and function parameters.
type Field struct {
	Name string
	Type Type
}

// MemberField extends Field with the modifiers and attributes a struct
// field or function argument carries.
type MemberField struct {
	Field
	Modifiers  Modifier
	Attributes *AttrSet
}

// GenericBound pairs a generic parameter name with its ordered trait
// bounds, finalized to concrete Types.
type GenericBound struct {
	Name   string
	Bounds []Type
}

// FinalizedStruct is sd resolved: every field has a finalized type, and
// every generic parameter's bounds are finalized types. Produced once
// per StructData; immutable thereafter.
type FinalizedStruct struct {
	Data     *StructData
	Fields   []MemberField
	Generics []GenericBound // declaration order
}

// FieldIndex returns the positional index of the field named name, or -1
// if the struct has no such field (used by CreateStruct resolution,
// §4.3).
func (fs *FinalizedStruct) FieldIndex(name string) int {
	for i, f := range fs.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// VTable returns the trait's member functions in registration order --
// a trait's vtable order is exactly its StructData.Functions order (§3).
func (fs *FinalizedStruct) VTable() []string {
	return fs.Data.Functions
}
