package effect

import (
	"context"

	"github.com/veyra-lang/veyra/internal/ast"
	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/symtab"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

// UnfinalizedFunction carries a function declaration through to the point
// its body is checked: its FunctionData is registered in the symbol table
// with untyped arguments before any body has been walked, the signature's
// types are resolved later by ResolveSignature, and the CodeBody is
// lowered lazily from the stored ast.FnDecl (§4.3).
type UnfinalizedFunction struct {
	Decl      *ast.FnDecl
	Owner     string // enclosing struct/trait/impl qualified name, "" for free functions
	Data      *typesystem.FunctionData
	argsRaw   []typesystem.UnresolvedType
	returnRaw typesystem.UnresolvedType
	generics  []rawGenericBound
}

// UnfinalizedStruct carries a struct declaration the same way.
type UnfinalizedStruct struct {
	Decl      *ast.StructDecl
	Data      *typesystem.StructData
	fieldsRaw []typesystem.UnresolvedType
	generics  []rawGenericBound
}

// rawGenericBound pairs a generic parameter name with its unresolved
// trait bounds, in declaration order. Bounds can only be resolved once
// the table holds every struct/trait declared in the program, so they
// stay unresolved until ResolveSignature/ResolveFields runs.
type rawGenericBound struct {
	Name      string
	BoundsRaw []typesystem.UnresolvedType
}

// genericScope maps a declaration's own type parameter names to their
// (still unresolved) bounds, so lowerTypeExpr can tell a bare type
// parameter reference from a named struct/trait and carry its bounds
// along for later resolution -- §4.5's generic method dispatch needs a
// parameter's resolved Type to carry its bounds, not just its name.
type genericScope map[string][]typesystem.UnresolvedType

// buildGenericParams lowers a declaration's type parameter list in two
// passes: first every name is registered with no bounds yet (so a bound
// expression referencing a sibling parameter, or the parameter itself,
// still lowers to UnresolvedGeneric rather than UnresolvedNamed), then
// each bound expression is lowered against that name set.
func buildGenericParams(params []ast.GenericParam) []rawGenericBound {
	names := make(genericScope, len(params))
	for _, p := range params {
		if tp, ok := p.(*ast.TypeParam); ok {
			names[tp.Name.Name] = nil
		}
	}
	out := make([]rawGenericBound, 0, len(params))
	for _, p := range params {
		tp, ok := p.(*ast.TypeParam)
		if !ok {
			continue
		}
		bounds := make([]typesystem.UnresolvedType, 0, len(tp.Bounds))
		for _, b := range tp.Bounds {
			bounds = append(bounds, lowerTypeExpr(b, names))
		}
		out = append(out, rawGenericBound{Name: tp.Name.Name, BoundsRaw: bounds})
	}
	return out
}

func scopeOf(params []rawGenericBound) genericScope {
	scope := make(genericScope, len(params))
	for _, p := range params {
		scope[p.Name] = p.BoundsRaw
	}
	return scope
}

// lowerTypeExpr converts a parsed type annotation into the two-phase
// type system's Unresolved form (§3), given the declaration's own
// generic type parameters.
func lowerTypeExpr(t ast.TypeExpr, generics genericScope) typesystem.UnresolvedType {
	switch tt := t.(type) {
	case nil:
		return typesystem.UnresolvedType{Kind: typesystem.UnresolvedNamed, Name: "unit"}
	case *ast.NamedType:
		name := tt.Name.Name
		if bounds, ok := generics[name]; ok {
			return typesystem.UnresolvedType{Kind: typesystem.UnresolvedGeneric, Name: name, Bounds: bounds}
		}
		return typesystem.UnresolvedType{Kind: typesystem.UnresolvedNamed, Name: name}
	case *ast.GenericTypeExpr:
		return lowerGenericTypeExpr(tt.Base, tt.Args, generics)
	case *ast.GenericType:
		return lowerGenericTypeExpr(tt.Base, tt.Args, generics)
	default:
		// Tuple/record/function-type annotations are not surfaced as
		// first-class checker types; every such annotation lowers to the
		// same opaque named type "<unsupported-type>" (rather than
		// crashing the lowerer), so different unsupported shapes are not
		// told apart.
		return typesystem.UnresolvedType{Kind: typesystem.UnresolvedNamed, Name: "<unsupported-type>"}
	}
}

func lowerGenericTypeExpr(base ast.TypeExpr, args []ast.TypeExpr, generics genericScope) typesystem.UnresolvedType {
	baseName := ""
	if nt, ok := base.(*ast.NamedType); ok {
		baseName = nt.Name.Name
	}
	switch baseName {
	case "Array", "Slice":
		if len(args) == 1 {
			inner := lowerTypeExpr(args[0], generics)
			return typesystem.UnresolvedType{Kind: typesystem.UnresolvedArray, Inner: &inner}
		}
	case "Ref", "Reference":
		if len(args) == 1 {
			inner := lowerTypeExpr(args[0], generics)
			return typesystem.UnresolvedType{Kind: typesystem.UnresolvedReference, Inner: &inner}
		}
	}
	unresolvedArgs := make([]typesystem.UnresolvedType, len(args))
	for i, a := range args {
		unresolvedArgs[i] = lowerTypeExpr(a, generics)
	}
	return typesystem.UnresolvedType{Kind: typesystem.UnresolvedNamed, Name: baseName, Args: unresolvedArgs}
}

// genericParamNames returns the bare name set of a declaration's type
// parameters, for callers (e.g. impl-block lowering) that only need to
// distinguish "is a generic" from "is a named type" and have no bounds
// of their own to thread through.
func genericParamNames(params []ast.GenericParam) genericScope {
	return scopeOf(buildGenericParams(params))
}

// resolveGenericBounds finalizes a declaration's type parameters against
// table, suspending on GetStruct for every named trait bound.
func resolveGenericBounds(ctx context.Context, table *symtab.Table, params []rawGenericBound, sp diag.Span) ([]typesystem.GenericBound, error) {
	out := make([]typesystem.GenericBound, 0, len(params))
	for _, p := range params {
		bounds := make([]typesystem.Type, 0, len(p.BoundsRaw))
		for _, raw := range p.BoundsRaw {
			t, err := ResolveType(ctx, table, raw, sp)
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, t)
		}
		out = append(out, typesystem.GenericBound{Name: p.Name, Bounds: bounds})
	}
	return out, nil
}

// LowerFunction builds an UnfinalizedFunction from its declaration: the
// signature's types stay unresolved until ResolveSignature runs. owner is the qualified name of the enclosing
// struct/trait/impl, or "" for a free function.
func LowerFunction(decl *ast.FnDecl, owner string) *UnfinalizedFunction {
	generics := buildGenericParams(decl.TypeParams)
	scope := scopeOf(generics)
	args := make([]typesystem.MemberField, len(decl.Params))
	argsRaw := make([]typesystem.UnresolvedType, len(decl.Params))
	for i, p := range decl.Params {
		args[i] = typesystem.MemberField{Field: typesystem.Field{Name: p.Name.Name}}
		argsRaw[i] = lowerTypeExpr(p.Type, scope)
	}
	name := decl.Name.Name
	if owner != "" {
		name = typesystem.Join(owner, name)
	}
	var mod typesystem.Modifier
	if decl.Pub {
		mod |= typesystem.Public
	}
	data := &typesystem.FunctionData{
		Name:      name,
		Modifiers: mod,
		Args:      args,
	}
	return &UnfinalizedFunction{
		Decl: decl, Owner: owner, Data: data,
		argsRaw: argsRaw, returnRaw: lowerTypeExpr(decl.ReturnType, scope),
		generics: generics,
	}
}

// LowerStruct builds an UnfinalizedStruct from its declaration
// (fields are not yet typed -- that happens once the table has every
// struct registered and of_type queries can resolve field annotations).
func LowerStruct(decl *ast.StructDecl) *UnfinalizedStruct {
	generics := buildGenericParams(decl.TypeParams)
	scope := scopeOf(generics)
	var mod typesystem.Modifier
	if decl.Pub {
		mod |= typesystem.Public
	}
	data := typesystem.NewStructData(decl.Name.Name, mod, nil, nil)
	fieldsRaw := make([]typesystem.UnresolvedType, len(decl.Fields))
	for i, f := range decl.Fields {
		fieldsRaw[i] = lowerTypeExpr(f.Type, scope)
	}
	return &UnfinalizedStruct{Decl: decl, Data: data, fieldsRaw: fieldsRaw, generics: generics}
}

// ResolveType finalizes an UnresolvedType into a structural typesystem.Type,
// suspending on GetStruct as needed (§4.1's of_type_sync/of_type dichotomy
// starts here: every annotation in source text must pass through a
// suspending struct lookup before a body can be checked against it).
func ResolveType(ctx context.Context, table *symtab.Table, u typesystem.UnresolvedType, span diag.Span) (typesystem.Type, error) {
	switch u.Kind {
	case typesystem.UnresolvedGeneric:
		bounds := make([]typesystem.Type, 0, len(u.Bounds))
		for _, b := range u.Bounds {
			bt, err := ResolveType(ctx, table, b, span)
			if err != nil {
				return typesystem.Type{}, err
			}
			bounds = append(bounds, bt)
		}
		return typesystem.NewGenericType(u.Name, bounds...), nil
	case typesystem.UnresolvedReference:
		inner, err := ResolveType(ctx, table, *u.Inner, span)
		if err != nil {
			return typesystem.Type{}, err
		}
		return typesystem.NewReferenceType(inner), nil
	case typesystem.UnresolvedArray:
		inner, err := ResolveType(ctx, table, *u.Inner, span)
		if err != nil {
			return typesystem.Type{}, err
		}
		return typesystem.NewArrayType(inner), nil
	default:
		sd, err := table.GetStruct(ctx, u.Name, span)
		if err != nil {
			return typesystem.Type{}, err
		}
		args := make([]typesystem.Type, len(u.Args))
		for i, a := range u.Args {
			at, err := ResolveType(ctx, table, a, span)
			if err != nil {
				return typesystem.Type{}, err
			}
			args[i] = at
		}
		return typesystem.NewStructType(sd, args...), nil
	}
}

// ResolveSignature finalizes f's parameter and return types, and its
// generic parameters' bounds, against table, producing the
// CodelessFinalizedFunction every call site resolves to. Must run after
// f.Data has been registered via RegisterFunction, so a mutually-recursive
// signature (f's own return type referencing f's enclosing struct) can
// still resolve.
func (f *UnfinalizedFunction) ResolveSignature(ctx context.Context, table *symtab.Table) (*typesystem.CodelessFinalizedFunction, error) {
	sp := span(f.Decl.Span())
	args := make([]typesystem.MemberField, len(f.argsRaw))
	for i, raw := range f.argsRaw {
		t, err := ResolveType(ctx, table, raw, sp)
		if err != nil {
			return nil, err
		}
		args[i] = typesystem.MemberField{Field: typesystem.Field{Name: f.Data.Args[i].Name, Type: t}}
	}
	ret, err := ResolveType(ctx, table, f.returnRaw, sp)
	if err != nil {
		return nil, err
	}
	generics, err := resolveGenericBounds(ctx, table, f.generics, sp)
	if err != nil {
		return nil, err
	}
	f.Data.Args = args
	f.Data.Return = &ret
	f.Data.Generics = generics
	return typesystem.NewCodelessFinalizedFunction(f.Data, args, ret, generics), nil
}

// ResolveFields finalizes s's field types against table, producing the
// FinalizedStruct the checker's Load/CreateStruct handling needs.
func (s *UnfinalizedStruct) ResolveFields(ctx context.Context, table *symtab.Table) (*typesystem.FinalizedStruct, error) {
	sp := span(s.Decl.Span())
	fields := make([]typesystem.MemberField, len(s.fieldsRaw))
	for i, raw := range s.fieldsRaw {
		t, err := ResolveType(ctx, table, raw, sp)
		if err != nil {
			return nil, err
		}
		fields[i] = typesystem.MemberField{Field: typesystem.Field{Name: s.Decl.Fields[i].Name.Name, Type: t}}
	}
	generics, err := resolveGenericBounds(ctx, table, s.generics, sp)
	if err != nil {
		return nil, err
	}
	return &typesystem.FinalizedStruct{Data: s.Data, Fields: fields, Generics: generics}, nil
}

// Body lowers this function's block into the unchecked CodeBody IR. This
// is deferred until the function's signature is published, so a
// recursive or mutually-recursive call site can already resolve the
// callee's CodelessFinalizedFunction while the body itself is still being
// lowered.
func (f *UnfinalizedFunction) Body() *CodeBody {
	if f.Decl.Body == nil {
		return &CodeBody{}
	}
	return NewLowerer().LowerFunctionBody(f.Decl.Body)
}

// ParamNames returns the function's parameter names in declaration order,
// for binding into Env when its body is checked.
func (f *UnfinalizedFunction) ParamNames() []string {
	names := make([]string, len(f.Decl.Params))
	for i, p := range f.Decl.Params {
		names[i] = p.Name.Name
	}
	return names
}
