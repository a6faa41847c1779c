package effect

import (
	"github.com/veyra-lang/veyra/internal/symtab"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

// Builtins are the primitive struct types every literal resolves to
// (testable property 5). They are registered in the symbol table like
// any other struct so OfType/downcast machinery treats them uniformly.
type Builtins struct {
	Bool typesystem.Type
	U64  typesystem.Type
	I64  typesystem.Type
	F64  typesystem.Type
	Str  typesystem.Type // &str: a Reference over the `str` struct
	Char typesystem.Type
}

// RegisterBuiltins declares the primitive types on table and returns
// handles to them.
func RegisterBuiltins(table *symtab.Table) *Builtins {
	mk := func(name string) typesystem.Type {
		sd := typesystem.NewStructData(name, typesystem.Public, nil, nil)
		table.RegisterStruct(sd)
		return typesystem.NewStructType(sd)
	}
	b := &Builtins{
		Bool: mk("bool"),
		U64:  mk("u64"),
		I64:  mk("i64"),
		F64:  mk("f64"),
		Char: mk("char"),
	}
	b.Str = typesystem.NewReferenceType(mk("str"))
	return b
}

// Env is the variable environment threaded through verify_code /
// verify_effect: a binding from name to its finalized type.
type Env struct {
	vars map[string]typesystem.Type
}

// NewEnv constructs an empty environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]typesystem.Type)}
}

// Clone returns an independent copy, used when entering a nested
// CodeBody so bindings introduced inside it don't escape (§4.3).
func (e *Env) Clone() *Env {
	clone := make(map[string]typesystem.Type, len(e.vars))
	for k, v := range e.vars {
		clone[k] = v
	}
	return &Env{vars: clone}
}

// Bind introduces or overwrites name's type.
func (e *Env) Bind(name string, t typesystem.Type) {
	e.vars[name] = t
}

// Lookup returns the type bound to name, if any.
func (e *Env) Lookup(name string) (typesystem.Type, bool) {
	t, ok := e.vars[name]
	return t, ok
}
