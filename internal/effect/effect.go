// Package effect implements the effect checker (spec §4.3): it walks
// the unchecked expression IR and produces finalized effects, performing
// argument typechecking, implicit downcasting, and generics
// instantiation of call targets along the way.
package effect

import (
	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

// Kind tags the variant of an unchecked Effect. A single tagged-variant
// struct is used instead of a polymorphic effect interface, per §9's
// guidance: this turns verify_effect's per-variant dispatch into a
// switch on Kind and makes generics substitution a plain structural
// walk.
type Kind int

const (
	KindNOP Kind = iota
	KindParen
	KindCodeBody
	KindMethodCall
	KindImplementationCall
	KindOperation
	KindCreateStruct
	KindLoad
	KindLoadVariable
	KindCreateVariable
	KindSet
	KindCompareJump
	KindJump
	KindCreateArray
	KindLitFloat
	KindLitInt
	KindLitUInt
	KindLitBool
	KindLitString
	KindLitChar
)

// FieldInit is one (name, initializer) pair in a struct literal.
type FieldInit struct {
	Name string
	Init *Effect
}

// Effect is a node in the unchecked expression IR (§3).
type Effect struct {
	Kind Kind
	Span diag.Span

	// Prechecked short-circuits VerifyEffect: when set, the checker
	// returns it unchanged instead of dispatching on Kind. Used to splice
	// already-finalized operator-rewriter arguments back into a
	// synthetic ImplementationCall effect without re-checking them.
	Prechecked *FinalizedEffect

	Child *Effect // Paren

	// MethodCall / ImplementationCall
	Callee     *Effect // nil = no receiver
	TraitName  string  // ImplementationCall only
	Name       string  // method/function simple or qualified name
	Args       []*Effect
	ReturnHint *typesystem.UnresolvedType

	// Operation
	Op     string
	OpArgs []*Effect

	// CreateStruct
	TypeName   string
	FieldInits []FieldInit

	// Load
	Receiver *Effect
	Field    string

	// LoadVariable / CreateVariable
	VarName string
	Init    *Effect

	// Set
	Lhs, Rhs *Effect

	// CompareJump / Jump
	Cond      *Effect
	ThenLabel string
	ElseLabel string
	Label     string

	// CreateArray
	Elements []*Effect

	// CodeBody
	Body *CodeBody

	// Literals
	FloatVal  float64
	IntVal    int64
	UIntVal   uint64
	BoolVal   bool
	StringVal string
	CharVal   rune
}

// StmtKind tags the shape of one statement in a CodeBody (§4.3).
type StmtKind int

const (
	StmtLine StmtKind = iota
	StmtReturn
	StmtBreak
	StmtLabel // a jump target; Effect is nil, LabelName names the target
)

// Stmt is one statement of an unchecked CodeBody.
type Stmt struct {
	Kind      StmtKind
	Effect    *Effect
	LabelName string
	Span      diag.Span
}

// CodeBody is an ordered list of statements, owning the effects it
// contains until the checker consumes them.
type CodeBody struct {
	Stmts []Stmt
}

// FKind tags the variant of a FinalizedEffect.
type FKind int

const (
	FHeapAllocate FKind = iota
	FHeapStore
	FCreateStruct
	FMethodCall
	FVirtualCall
	FGenericVirtualCall
	FGenericMethodCall
	FDowncast
	FLoad
	FCreateVariable
	FLoadVariable
	FCompareJump
	FJump
	FSet
	FCodeBody
	FLitInt
	FLitUInt
	FLitFloat
	FLitBool
	FLitString
	FLitChar
	FCreateArray
)

// PositionalInit is one (field index, finalized value) pair in a
// finalized CreateStruct.
type PositionalInit struct {
	Index int
	Value *FinalizedEffect
}

// FinalizedEffect is the checked, typed form of an Effect (§3). Every
// variant except the terminal forms (Jump, CompareJump, a CodeBody whose
// tail returns) carries a determinable Type.
type FinalizedEffect struct {
	Kind FKind
	Type typesystem.Type
	Span diag.Span

	Inner *FinalizedEffect // HeapStore payload, Downcast source

	// CreateStruct
	Alloc           *FinalizedEffect // the HeapAllocate node
	StructType      *typesystem.FinalizedStruct
	PositionalInits []PositionalInit

	// MethodCall / VirtualCall / GenericVirtualCall / GenericMethodCall
	CallReceiver *FinalizedEffect // nil for a free function call
	Fn           *typesystem.CodelessFinalizedFunction
	ConcreteFn   *typesystem.CodelessFinalizedFunction // GenericVirtualCall's dispatched-to concrete fn
	Trait        *typesystem.FinalizedStruct
	VTableIndex  int
	FinalArgs    []*FinalizedEffect

	// Downcast
	Target typesystem.Type

	// Load
	LoadField    string
	StructHandle *typesystem.FinalizedStruct

	// CreateVariable / LoadVariable
	VarName string

	// CompareJump / Jump
	Cond      *FinalizedEffect
	ThenLabel string
	ElseLabel string
	Label     string

	// Set
	Lhs, Rhs *FinalizedEffect

	// CodeBody
	Body *FinalizedCodeBody

	// CreateArray
	Elements []*FinalizedEffect

	// Literals
	IntVal    int64
	UIntVal   uint64
	FloatVal  float64
	BoolVal   bool
	StringVal string
	CharVal   rune
}

// FinalizedStmt is one checked statement.
type FinalizedStmt struct {
	Kind      StmtKind
	Effect    *FinalizedEffect
	LabelName string
	Span      diag.Span
}

// FinalizedCodeBody is a checked CodeBody: ordered statements plus
// whether the body's tail unconditionally returns (§4.3).
type FinalizedCodeBody struct {
	Stmts     []FinalizedStmt
	Returning bool
}

// GetReturn computes fe's determinable return type. Terminal forms
// (Jump, CompareJump) have no static return type and return the zero
// Type; callers must not call GetReturn on them.
func (fe *FinalizedEffect) GetReturn() typesystem.Type {
	return fe.Type
}
