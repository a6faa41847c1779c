package effect

import (
	"context"
	"fmt"

	"github.com/veyra-lang/veyra/internal/ast"
	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/symtab"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

// implSite is one `impl Trait for Target` (or inherent `impl Target`)
// block, recorded during the signature pass and resolved once every
// struct in the file has been declared.
type implSite struct {
	decl      *ast.ImplDecl
	targetRaw typesystem.UnresolvedType
	traitRaw  *typesystem.UnresolvedType // nil for an inherent impl
	methods   []*UnfinalizedFunction
}

// traitSite is one trait declaration, recorded during the signature pass.
// A trait is registered in the symbol table as a StructData with the
// Trait modifier (§3), but -- unlike a struct -- it has no fields to
// resolve; it still needs a FinalizedStruct entry (fields nil, bounds
// resolved) so method.go's virtual-dispatch lookups can find it.
type traitSite struct {
	decl     *ast.TraitDecl
	data     *typesystem.StructData
	generics []rawGenericBound
}

// Loader walks parsed files into the symbol table, driving the
// declare-then-finalize pipeline described in §4.1/§5: every struct and
// function signature is registered as soon as it is seen (so mutually
// recursive declarations across files can resolve each other), and the
// expensive work -- field/signature finalization, body checking -- runs
// as scheduled tasks after the whole program has been declared.
type Loader struct {
	Table     *symtab.Table
	Scheduler *symtab.Scheduler
	Checker   *Checker

	structs []*UnfinalizedStruct
	traits  []*traitSite
	fns     []*UnfinalizedFunction
	impls   []*implSite
}

// NewLoader builds a Loader around a fresh table/scheduler/checker triple.
func NewLoader(ctx context.Context) *Loader {
	table := symtab.NewTable()
	scheduler := symtab.NewScheduler(ctx)
	return &Loader{
		Table:     table,
		Scheduler: scheduler,
		Checker:   NewChecker(table, scheduler),
	}
}

// LoadFile registers every top-level declaration in file: struct and
// function signatures are published immediately; impl blocks are staged
// until Finalize, since they need every struct name in scope.
func (l *Loader) LoadFile(file *ast.File) {
	for _, decl := range file.Decls {
		l.loadDecl(decl)
	}
}

func (l *Loader) loadDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.StructDecl:
		l.loadStruct(d)
	case *ast.TraitDecl:
		l.loadTrait(d)
	case *ast.FnDecl:
		l.loadFunction(d, "")
	case *ast.ImplDecl:
		l.loadImpl(d)
	}
}

func (l *Loader) loadStruct(d *ast.StructDecl) *UnfinalizedStruct {
	us := LowerStruct(d)
	l.Table.RegisterStruct(us.Data)
	l.structs = append(l.structs, us)
	return us
}

// loadTrait registers a trait the same way as a struct (it is, in the
// symbol table, a StructData with the Trait modifier and a Functions
// list that doubles as its vtable, per §3), then each declared method as
// a member function so virtual dispatch can find it by qualified name.
func (l *Loader) loadTrait(d *ast.TraitDecl) {
	mod := typesystem.Trait
	if d.Pub {
		mod |= typesystem.Public
	}
	names := make([]string, len(d.Methods))
	for i, m := range d.Methods {
		names[i] = typesystem.Join(d.Name.Name, m.Name.Name)
	}
	data := typesystem.NewStructData(d.Name.Name, mod, nil, names)
	l.Table.RegisterStruct(data)
	l.traits = append(l.traits, &traitSite{decl: d, data: data, generics: buildGenericParams(d.TypeParams)})
	for _, m := range d.Methods {
		l.loadFunction(m, d.Name.Name)
	}
}

func (l *Loader) loadFunction(d *ast.FnDecl, owner string) *UnfinalizedFunction {
	uf := LowerFunction(d, owner)
	l.Table.RegisterFunction(uf.Data)
	l.fns = append(l.fns, uf)
	return uf
}

func (l *Loader) loadImpl(d *ast.ImplDecl) {
	generics := genericParamNames(d.TypeParams)
	targetRaw := lowerTypeExpr(d.Target, generics)
	var traitRaw *typesystem.UnresolvedType
	if d.Trait != nil {
		tr := lowerTypeExpr(d.Trait, generics)
		traitRaw = &tr
	}
	owner := targetRaw.Name
	if traitRaw != nil {
		owner = traitRaw.Name
	}
	methods := make([]*UnfinalizedFunction, len(d.Methods))
	for i, m := range d.Methods {
		methods[i] = l.loadFunction(m, owner)
	}
	l.impls = append(l.impls, &implSite{decl: d, targetRaw: targetRaw, traitRaw: traitRaw, methods: methods})
}

// Finalize schedules every remaining resolution task (struct fields,
// function signatures/bodies, impl registration) and blocks until the
// whole program is resolved or a task fails. It sets the finished-impls
// flag once every registration task has been scheduled, per §4.1: the
// flag must flip only after the declare pass is complete, or a waiter
// could observe "finished" before its symbol had a chance to arrive.
func (l *Loader) Finalize(ctx context.Context) error {
	for _, us := range l.structs {
		us := us
		l.Scheduler.Spawn("finalize_struct:"+us.Data.Name, func(ctx context.Context) error {
			fs, err := us.ResolveFields(ctx, l.Table)
			if err != nil {
				return err
			}
			l.Table.RegisterFinalizedStruct(fs)
			return nil
		})
	}

	for _, ts := range l.traits {
		ts := ts
		l.Scheduler.Spawn("finalize_trait:"+ts.data.Name, func(ctx context.Context) error {
			return l.finalizeTrait(ctx, ts)
		})
	}

	for _, uf := range l.fns {
		uf := uf
		l.Scheduler.Spawn("finalize_fn:"+uf.Data.Name, func(ctx context.Context) error {
			return l.finalizeFunction(ctx, uf)
		})
	}

	for _, site := range l.impls {
		site := site
		l.Scheduler.Spawn("finalize_impl:"+site.targetRaw.Name, func(ctx context.Context) error {
			return l.finalizeImpl(ctx, site)
		})
	}

	l.Table.SetFinishedImpls()
	return l.Scheduler.Wait()
}

func (l *Loader) finalizeFunction(ctx context.Context, uf *UnfinalizedFunction) error {
	codeless, err := uf.ResolveSignature(ctx, l.Table)
	if err != nil {
		return err
	}
	l.Table.RegisterCodeless(codeless)
	if uf.Decl.Body == nil {
		return nil // extern/trait-signature-only declaration
	}
	body := uf.Body()
	l.Checker.PendingBodies.Register(uf.Data.Name, uf.ParamNames(), body)

	if len(codeless.Generics) > 0 {
		return nil // generic bodies are checked lazily, once a call site degenerics them
	}
	env := NewEnv()
	for i, name := range uf.ParamNames() {
		if i < len(codeless.Args) {
			env.Bind(name, codeless.Args[i].Type)
		}
	}
	ret := codeless.Return
	fin, err := l.Checker.VerifyCode(ctx, body, &ret, env, true)
	if err != nil {
		return err
	}
	l.Checker.Outputs.store(&FinalizedFunction{Codeless: codeless, Body: fin})
	return nil
}

func (l *Loader) finalizeImpl(ctx context.Context, site *implSite) error {
	implementer, err := ResolveType(ctx, l.Table, site.targetRaw, diag.Span{})
	if err != nil {
		return err
	}
	trait := implementer
	if site.traitRaw != nil {
		t, err := ResolveType(ctx, l.Table, *site.traitRaw, diag.Span{})
		if err != nil {
			return err
		}
		trait = t
	}
	methods := make([]*typesystem.CodelessFinalizedFunction, 0, len(site.methods))
	for _, uf := range site.methods {
		fn, err := l.Table.AsyncDataGetter(ctx, uf.Data.Name)
		if err != nil {
			return fmt.Errorf("impl method %s: %w", uf.Data.Name, err)
		}
		methods = append(methods, fn)
	}
	l.Table.RegisterImpl(implementer, trait, methods)
	return nil
}

// finalizeTrait resolves a trait's generic bounds and registers its
// FinalizedStruct -- fields always nil, since a trait declares methods,
// not data -- so resolveVirtualCall/resolveConcreteMethod/
// resolveGenericMethodCall can find its vtable via Table.FinalizedStruct.
func (l *Loader) finalizeTrait(ctx context.Context, ts *traitSite) error {
	generics, err := resolveGenericBounds(ctx, l.Table, ts.generics, span(ts.decl.Span()))
	if err != nil {
		return err
	}
	l.Table.RegisterFinalizedStruct(&typesystem.FinalizedStruct{Data: ts.data, Fields: nil, Generics: generics})
	return nil
}
