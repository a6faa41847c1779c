package typesystem

import "strings"

// SimpleName returns the last `::`-separated segment of a qualified name.
func SimpleName(qualified string) string {
	idx := strings.LastIndex(qualified, "::")
	if idx < 0 {
		return qualified
	}
	return qualified[idx+2:]
}

// Join builds a qualified name from segments, separated by `::`.
func Join(segments ...string) string {
	return strings.Join(segments, "::")
}

// UnresolvedKind tags the shape of a parser-produced, not-yet-checked type
// reference. This is the "names + unresolved generic arguments" phase of
// §3's two-phase type representation.
type UnresolvedKind int

const (
	UnresolvedNamed UnresolvedKind = iota
	UnresolvedReference
	UnresolvedArray
	UnresolvedGeneric // a bare type-parameter reference, e.g. `T`
)

// UnresolvedType is the parser's view of a type: a name plus unresolved
// generic arguments, carrying no handle into the symbol table yet.
type UnresolvedType struct {
	Kind     UnresolvedKind
	Name     string           // qualified or bare name, for UnresolvedNamed/UnresolvedGeneric
	Args     []UnresolvedType // generic arguments for UnresolvedNamed, e.g. Box<T>
	Inner    *UnresolvedType  // element type for Reference/Array
	Bounds   []UnresolvedType // trait bounds, for UnresolvedGeneric
}

// Kind tags the variant of a finalized Type.
type Kind int

const (
	KindStruct Kind = iota
	KindReference
	KindArray
	KindGeneric
)

// Type is the finalized, structural form of a type: a handle into the
// symbol table rather than a name. It is a single tagged-variant struct
// per §9's guidance (avoids virtual dispatch over a type trait).
type Type struct {
	Kind Kind

	// KindStruct
	Struct   *StructData
	TypeArgs []Type // generic arguments applied to Struct, e.g. Box<u64>

	// KindReference, KindArray
	Inner *Type

	// KindGeneric
	Name   string
	Bounds []Type
}

// NewStructType builds a (possibly generic-instantiated) struct type.
func NewStructType(s *StructData, args ...Type) Type {
	return Type{Kind: KindStruct, Struct: s, TypeArgs: args}
}

// NewReferenceType builds a reference-indirection type.
func NewReferenceType(inner Type) Type {
	return Type{Kind: KindReference, Inner: &inner}
}

// NewArrayType builds an array type.
func NewArrayType(inner Type) Type {
	return Type{Kind: KindArray, Inner: &inner}
}

// NewGenericType builds an unresolved type-parameter reference carrying
// its trait bounds.
func NewGenericType(name string, bounds ...Type) Type {
	return Type{Kind: KindGeneric, Name: name, Bounds: bounds}
}

// Unwrap strips Reference indirections, returning the innermost type.
func (t Type) Unwrap() Type {
	for t.Kind == KindReference {
		t = *t.Inner
	}
	return t
}

// QualifiedName returns the struct's qualified name for KindStruct types,
// the parameter name for KindGeneric, or "" otherwise.
func (t Type) QualifiedName() string {
	switch t.Kind {
	case KindStruct:
		if t.Struct != nil {
			return t.Struct.Name
		}
	case KindGeneric:
		return t.Name
	}
	return ""
}

// String renders a human/deterministic representation of t, used both for
// diagnostics and as the basis of the degenericing name suffix (§4.2).
func (t Type) String() string {
	switch t.Kind {
	case KindStruct:
		if t.Struct == nil {
			return "<unknown>"
		}
		if len(t.TypeArgs) == 0 {
			return t.Struct.Name
		}
		parts := make([]string, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			parts[i] = a.String()
		}
		return t.Struct.Name + "<" + strings.Join(parts, ",") + ">"
	case KindReference:
		return "&" + t.Inner.String()
	case KindArray:
		return "[" + t.Inner.String() + "]"
	case KindGeneric:
		return t.Name
	default:
		return "<invalid>"
	}
}

// Equal reports structural equality between two finalized types. Generic
// types compare equal only by name (bounds do not participate, matching
// the spec's syntactic-inclusion treatment of bounds elsewhere).
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindStruct:
		if a.Struct != b.Struct {
			return false
		}
		if len(a.TypeArgs) != len(b.TypeArgs) {
			return false
		}
		for i := range a.TypeArgs {
			if !Equal(a.TypeArgs[i], b.TypeArgs[i]) {
				return false
			}
		}
		return true
	case KindReference, KindArray:
		return Equal(*a.Inner, *b.Inner)
	case KindGeneric:
		return a.Name == b.Name
	default:
		return false
	}
}
