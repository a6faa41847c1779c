package effect

import (
	"context"
	"sync"

	"github.com/veyra-lang/veyra/internal/typesystem"
)

// FinalizedFunction is a CodelessFinalizedFunction with its body checked
// (§3). It is the terminal form handed to codegen.
type FinalizedFunction struct {
	Codeless *typesystem.CodelessFinalizedFunction
	Body     *FinalizedCodeBody
}

// bodySource is what Degeneric needs to check a specialized function's
// body once its signature has been published: the original, unchecked
// CodeBody plus the parameter names it binds (positionally matched to
// fn.Args).
type bodySource struct {
	params []string
	body   *CodeBody
}

// PendingBodies is populated by the driver as it walks unfinalized
// function declarations, keyed by the function's undecorated qualified
// name -- Degeneric consults it to clone a generic function's body for
// each concrete instantiation.
type PendingBodies struct {
	mu      sync.Mutex
	sources map[string]bodySource
}

// NewPendingBodies constructs an empty registry.
func NewPendingBodies() *PendingBodies {
	return &PendingBodies{sources: make(map[string]bodySource)}
}

// Register associates name's unchecked body with its parameter names.
func (p *PendingBodies) Register(name string, params []string, body *CodeBody) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources[name] = bodySource{params: params, body: body}
}

func (p *PendingBodies) lookup(name string) (bodySource, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sources[name]
	return s, ok
}

// FinalizedFunctions collects every FinalizedFunction produced, keyed by
// qualified name (including degenericed suffixes) -- the checker's
// output set handed to codegen.
type FinalizedFunctions struct {
	mu  sync.Mutex
	fns map[string]*FinalizedFunction
}

// NewFinalizedFunctions constructs an empty output set.
func NewFinalizedFunctions() *FinalizedFunctions {
	return &FinalizedFunctions{fns: make(map[string]*FinalizedFunction)}
}

func (f *FinalizedFunctions) store(ff *FinalizedFunction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns[ff.Codeless.Name()] = ff
}

// Get returns the finalized function named name, if checked.
func (f *FinalizedFunctions) Get(name string) (*FinalizedFunction, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ff, ok := f.fns[name]
	return ff, ok
}

// Degeneric implements §4.2's degenericing: given a generic
// CodelessFinalizedFunction and concrete argument effects, it produces
// (and registers, if not already present) a specialized
// CodelessFinalizedFunction, then schedules degenericHeader -- a
// separate task that clones and rewrites the body -- to avoid the cycle
// where checking fn's body would itself need to resolve fn.
func (c *Checker) Degeneric(ctx context.Context, fn *typesystem.CodelessFinalizedFunction, args []*FinalizedEffect, returnHint *typesystem.Type) (*typesystem.CodelessFinalizedFunction, error) {
	params := paramTypes(fn.Args)
	subst, err := typesystem.ExtractGenerics(params, argTypes(args))
	if err != nil {
		return nil, err
	}
	if returnHint != nil {
		if rs, rerr := typesystem.ExtractGenerics([]typesystem.Type{fn.Return}, []typesystem.Type{*returnHint}); rerr == nil {
			for k, v := range rs {
				if _, ok := subst[k]; !ok {
					subst[k] = v
				}
			}
		}
	}

	order := typesystem.GenericOrder(fn.Generics)
	suffix := typesystem.DegenericSuffix(order, subst)
	newName := fn.Name() + suffix

	if existing, ok := c.Table.LookupCodeless(newName); ok {
		return existing, nil
	}

	newArgs := make([]typesystem.MemberField, len(fn.Args))
	for i, a := range fn.Args {
		newArgs[i] = typesystem.MemberField{
			Field:      typesystem.Field{Name: a.Name, Type: typesystem.SetGeneric(a.Type, subst)},
			Modifiers:  a.Modifiers,
			Attributes: a.Attributes,
		}
	}
	newReturn := typesystem.SetGeneric(fn.Return, subst)

	newData := &typesystem.FunctionData{
		Name:       newName,
		Modifiers:  fn.Data.Modifiers,
		Attributes: fn.Data.Attributes,
		Args:       newArgs,
		Return:     &newReturn,
	}
	newFn := typesystem.NewCodelessFinalizedFunction(newData, newArgs, newReturn, nil)

	c.Table.RegisterFunction(newData)
	c.Table.RegisterCodeless(newFn)

	if c.PendingBodies != nil && newFn.MarkBodyScheduled() {
		c.scheduleDegenericHeader(fn.Name(), newFn)
	}
	return newFn, nil
}

// scheduleDegenericHeader issues the body-rewrite task as a separate
// scheduled unit, per §4.2/§9: checking fn's own body must not be on the
// same call stack as resolving fn's call site.
func (c *Checker) scheduleDegenericHeader(originalName string, newFn *typesystem.CodelessFinalizedFunction) {
	if c.Scheduler == nil {
		return
	}
	c.Scheduler.Spawn("degeneric_header:"+newFn.Name(), func(ctx context.Context) error {
		return c.degenericHeader(ctx, originalName, newFn)
	})
}

func (c *Checker) degenericHeader(ctx context.Context, originalName string, newFn *typesystem.CodelessFinalizedFunction) error {
	src, ok := c.PendingBodies.lookup(originalName)
	if !ok {
		return nil // no body on record (e.g. an extern signature) -- nothing to check
	}
	env := NewEnv()
	for i, name := range src.params {
		if i < len(newFn.Args) {
			env.Bind(name, newFn.Args[i].Type)
		}
	}
	ret := newFn.Return
	body, err := c.VerifyCode(ctx, src.body, &ret, env, true)
	if err != nil {
		return err
	}
	if c.Outputs != nil {
		c.Outputs.store(&FinalizedFunction{Codeless: newFn, Body: body})
	}
	return nil
}
