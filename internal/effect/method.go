package effect

import (
	"context"
	"fmt"

	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/symtab"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

// verifyMethodCall implements §4.5's MethodCall dispatch.
func (c *Checker) verifyMethodCall(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	var recv *FinalizedEffect
	var err error
	if eff.Callee != nil {
		recv, err = c.VerifyEffect(ctx, eff.Callee, vars)
		if err != nil {
			return nil, err
		}
	}
	args, err := c.verifyArgList(ctx, eff.Args, vars)
	if err != nil {
		return nil, err
	}

	if recv == nil {
		return c.resolveFreeFunction(ctx, eff, args)
	}
	return c.resolveMethod(ctx, eff, recv, args)
}

func (c *Checker) verifyArgList(ctx context.Context, args []*Effect, vars *Env) ([]*FinalizedEffect, error) {
	out := make([]*FinalizedEffect, len(args))
	for i, a := range args {
		fin, err := c.VerifyEffect(ctx, a, vars)
		if err != nil {
			return nil, err
		}
		out[i] = fin
	}
	return out, nil
}

// resolveFreeFunction is §4.5 case 1: no receiver.
func (c *Checker) resolveFreeFunction(ctx context.Context, eff *Effect, args []*FinalizedEffect) (*FinalizedEffect, error) {
	fd, err := c.Table.GetFunction(ctx, eff.Name, false)
	if err != nil {
		if _, ok := err.(*symtab.NotFoundError); ok {
			return nil, newError(diag.CodeUnresolvedSymbol, eff.Span, fmt.Sprintf("unresolved symbol %q", eff.Name))
		}
		return nil, err
	}
	codeless, err := c.Table.AsyncDataGetter(ctx, fd.Name)
	if err != nil {
		return nil, err
	}
	checkedArgs, err := c.checkArgs(ctx, eff.Span, codeless, args)
	if err != nil {
		return nil, err
	}
	if len(codeless.Generics) > 0 {
		codeless, err = c.Degeneric(ctx, codeless, checkedArgs, nil)
		if err != nil {
			return nil, err
		}
	}
	return &FinalizedEffect{Kind: FMethodCall, Type: codeless.Return, Span: eff.Span, Fn: codeless, FinalArgs: checkedArgs}, nil
}

// resolveMethod implements §4.5 cases 2-4: dispatch on the receiver's
// kind.
func (c *Checker) resolveMethod(ctx context.Context, eff *Effect, recv *FinalizedEffect, args []*FinalizedEffect) (*FinalizedEffect, error) {
	recvType := recv.Type.Unwrap()

	switch {
	case recvType.Kind == typesystem.KindGeneric:
		return c.resolveGenericMethodCall(ctx, eff, recv, recvType, args)
	case recvType.Kind == typesystem.KindStruct && recvType.Struct != nil && recvType.Struct.IsTrait():
		return c.resolveVirtualCall(ctx, eff, recv, recvType, args)
	case recvType.Kind == typesystem.KindStruct:
		return c.resolveConcreteMethod(ctx, eff, recv, recvType, args)
	default:
		return nil, newError(diag.CodeUnknownMethod, eff.Span, fmt.Sprintf("cannot call method %q on %s", eff.Name, recv.Type.String()))
	}
}

// resolveGenericMethodCall is §4.5 case 2: the receiver is a bare
// generic, so the method must come from one of its trait bounds.
func (c *Checker) resolveGenericMethodCall(ctx context.Context, eff *Effect, recv *FinalizedEffect, recvType typesystem.Type, args []*FinalizedEffect) (*FinalizedEffect, error) {
	var matches []struct {
		trait typesystem.Type
		fn    string
	}
	for _, bound := range recvType.Bounds {
		if bound.Unwrap().Kind != typesystem.KindStruct || bound.Unwrap().Struct == nil {
			continue
		}
		traitStruct := bound.Unwrap().Struct
		for _, fname := range traitStruct.Functions {
			if typesystem.SimpleName(fname) == eff.Name {
				matches = append(matches, struct {
					trait typesystem.Type
					fn    string
				}{bound, fname})
			}
		}
	}
	if len(matches) == 0 {
		return nil, newError(diag.CodeUnknownMethod, eff.Span, fmt.Sprintf("no bound of %s provides method %q", recvType.Name, eff.Name))
	}
	if len(matches) > 1 {
		return nil, newError(diag.CodeAmbiguousMethod, eff.Span, fmt.Sprintf("multiple bounds of %s provide method %q", recvType.Name, eff.Name))
	}
	m := matches[0]
	fn, err := c.Table.AsyncDataGetter(ctx, m.fn)
	if err != nil {
		return nil, err
	}
	checkedArgs, err := c.checkArgs(ctx, eff.Span, fn, withReceiver(recv, args))
	if err != nil {
		return nil, err
	}
	traitFs, _ := c.Table.FinalizedStruct(m.trait.Unwrap().Struct.Name)
	return &FinalizedEffect{Kind: FGenericMethodCall, Type: fn.Return, Span: eff.Span, Fn: fn, Trait: traitFs, FinalArgs: checkedArgs}, nil
}

// resolveVirtualCall is §4.5 case 3: the receiver's static type is a
// trait; dispatch through its vtable.
func (c *Checker) resolveVirtualCall(ctx context.Context, eff *Effect, recv *FinalizedEffect, recvType typesystem.Type, args []*FinalizedEffect) (*FinalizedEffect, error) {
	qualified := typesystem.Join(recvType.Struct.Name, eff.Name)
	fn, err := c.Table.AsyncDataGetter(ctx, qualified)
	if err != nil {
		return nil, newError(diag.CodeUnknownMethod, eff.Span, fmt.Sprintf("trait %s has no method %q", recvType.Struct.Name, eff.Name))
	}
	fs, ok := c.Table.FinalizedStruct(recvType.Struct.Name)
	if !ok {
		return nil, newError(diag.CodeUnresolvedSymbol, eff.Span, fmt.Sprintf("trait %q is not yet finalized", recvType.Struct.Name))
	}
	index := indexOf(fs.VTable(), qualified)
	if index < 0 {
		return nil, newError(diag.CodeUnknownMethod, eff.Span, fmt.Sprintf("%s is not part of %s's vtable", qualified, recvType.Struct.Name))
	}
	checkedArgs, err := c.checkArgs(ctx, eff.Span, fn, withReceiver(recv, args))
	if err != nil {
		return nil, err
	}
	return &FinalizedEffect{Kind: FVirtualCall, Type: fn.Return, Span: eff.Span, CallReceiver: recv, Fn: fn, Trait: fs, VTableIndex: index, FinalArgs: checkedArgs}, nil
}

// resolveConcreteMethod is §4.5 case 4: the receiver is a concrete
// struct. Direct function lookup first, then trait-impl fallback.
func (c *Checker) resolveConcreteMethod(ctx context.Context, eff *Effect, recv *FinalizedEffect, recvType typesystem.Type, args []*FinalizedEffect) (*FinalizedEffect, error) {
	direct := typesystem.Join(recvType.Struct.Name, eff.Name)
	if fn, ok := c.Table.LookupCodeless(direct); ok {
		checkedArgs, err := c.checkArgs(ctx, eff.Span, fn, withReceiver(recv, args))
		if err != nil {
			return nil, err
		}
		fn, err = c.maybeDegeneric(ctx, fn, checkedArgs, nil)
		if err != nil {
			return nil, err
		}
		return &FinalizedEffect{Kind: FMethodCall, Type: fn.Return, Span: eff.Span, CallReceiver: recv, Fn: fn, FinalArgs: checkedArgs}, nil
	}

	matches, err := c.Table.TraitImplWaiter(ctx, recvType, eff.Name, func(f *typesystem.CodelessFinalizedFunction) bool {
		return len(f.Args) == len(args)+1 || len(f.Args) == len(args)
	}, eff.Span)
	if err != nil {
		return nil, newError(diag.CodeUnknownMethod, eff.Span, fmt.Sprintf("no method %q on %s", eff.Name, recvType.Struct.Name))
	}
	if len(matches) > 1 {
		return nil, newError(diag.CodeAmbiguousMethod, eff.Span, fmt.Sprintf("multiple impls provide method %q for %s", eff.Name, recvType.Struct.Name))
	}
	match := matches[0]
	checkedArgs, err := c.checkArgs(ctx, eff.Span, match.Method, withReceiver(recv, args))
	if err != nil {
		return nil, err
	}
	traitStruct := match.Target.Unwrap().Struct
	qualified := typesystem.Join(traitStruct.Name, typesystem.SimpleName(match.Method.Name()))
	if indexOf(traitStruct.Functions, qualified) >= 0 {
		fs, _ := c.Table.FinalizedStruct(traitStruct.Name)
		index := indexOf(fs.VTable(), qualified)
		return &FinalizedEffect{Kind: FVirtualCall, Type: match.Method.Return, Span: eff.Span, CallReceiver: recv, Fn: match.Method, Trait: fs, VTableIndex: index, FinalArgs: checkedArgs}, nil
	}
	return &FinalizedEffect{Kind: FMethodCall, Type: match.Method.Return, Span: eff.Span, CallReceiver: recv, Fn: match.Method, FinalArgs: checkedArgs}, nil
}

// verifyImplementationCall drives the operator rewriter's dispatch and
// trait-call syntax: it's step 3 when the receiver's type equals the
// trait, step 4 otherwise, and may emit GenericVirtualCall when the
// receiver is still Generic (§4.5).
func (c *Checker) verifyImplementationCall(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	var recv *FinalizedEffect
	var err error
	if eff.Callee != nil {
		recv, err = c.VerifyEffect(ctx, eff.Callee, vars)
		if err != nil {
			return nil, err
		}
	}
	args, err := c.verifyArgList(ctx, eff.Args, vars)
	if err != nil {
		return nil, err
	}

	trait, err := c.Table.GetStruct(ctx, eff.TraitName, eff.Span)
	if err != nil {
		return nil, err
	}
	traitType := typesystem.NewStructType(trait)

	if recv == nil {
		return c.resolveFreeFunction(ctx, &Effect{Name: typesystem.Join(trait.Name, eff.Name), Span: eff.Span}, args)
	}

	recvType := recv.Type.Unwrap()
	if recvType.Kind == typesystem.KindGeneric {
		fn, err := c.Table.AsyncDataGetter(ctx, typesystem.Join(trait.Name, eff.Name))
		if err != nil {
			return nil, err
		}
		matches, err := c.Table.TraitImplWaiter(ctx, recvType, eff.Name, nil, eff.Span)
		var concrete *typesystem.CodelessFinalizedFunction
		if err == nil && len(matches) > 0 {
			concrete = matches[0].Method
		}
		checkedArgs, cErr := c.checkArgs(ctx, eff.Span, fn, withReceiver(recv, args))
		if cErr != nil {
			return nil, cErr
		}
		fs, _ := c.Table.FinalizedStruct(trait.Name)
		index := indexOf(fs.VTable(), typesystem.Join(trait.Name, eff.Name))
		return &FinalizedEffect{Kind: FGenericVirtualCall, Type: fn.Return, Span: eff.Span, CallReceiver: recv, Fn: fn, ConcreteFn: concrete, Trait: fs, VTableIndex: index, FinalArgs: checkedArgs}, nil
	}

	if typesystem.Equal(recvType, traitType) {
		return c.resolveVirtualCall(ctx, &Effect{Name: eff.Name, Span: eff.Span}, recv, recvType, args)
	}
	return c.resolveConcreteMethod(ctx, &Effect{Name: eff.Name, Span: eff.Span}, recv, recvType, args)
}

func withReceiver(recv *FinalizedEffect, args []*FinalizedEffect) []*FinalizedEffect {
	return append([]*FinalizedEffect{recv}, args...)
}

func indexOf(xs []string, v string) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

func (c *Checker) maybeDegeneric(ctx context.Context, fn *typesystem.CodelessFinalizedFunction, args []*FinalizedEffect, returnHint *typesystem.Type) (*typesystem.CodelessFinalizedFunction, error) {
	if len(fn.Generics) == 0 {
		return fn, nil
	}
	return c.Degeneric(ctx, fn, args, returnHint)
}

// checkArgs implements §4.5's check_args: arity, fix_generics, of_type,
// and downcast-if-not-equal.
func (c *Checker) checkArgs(ctx context.Context, span diag.Span, fn *typesystem.CodelessFinalizedFunction, args []*FinalizedEffect) ([]*FinalizedEffect, error) {
	if len(fn.Args) != len(args) {
		return nil, newErrorOn(diag.CodeArgArityMismatch, span,
			fmt.Sprintf("%s expects %d arguments, got %d", fn.Name(), len(fn.Args), len(args)), fn.Handle())
	}

	subst, _ := typesystem.ExtractGenerics(paramTypes(fn.Args), argTypes(args))

	out := make([]*FinalizedEffect, len(args))
	for i, arg := range args {
		param := fn.Args[i].Type
		if subst != nil {
			param = typesystem.SetGeneric(param, subst)
		}
		if typesystem.Equal(arg.Type, param) {
			out[i] = arg
			continue
		}
		ok, err := typesystem.OfType(ctx, arg.Type, param, c.Table)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newError(diag.CodeArgTypeMismatch, span,
				fmt.Sprintf("argument %d of %s: expected %s, found %s", i, fn.Name(), param.String(), arg.Type.String()))
		}
		out[i] = &FinalizedEffect{Kind: FDowncast, Type: param, Span: arg.Span, Inner: arg, Target: param}
	}
	return out, nil
}

func paramTypes(fields []typesystem.MemberField) []typesystem.Type {
	out := make([]typesystem.Type, len(fields))
	for i, f := range fields {
		out[i] = f.Type
	}
	return out
}

func argTypes(args []*FinalizedEffect) []typesystem.Type {
	out := make([]typesystem.Type, len(args))
	for i, a := range args {
		out[i] = a.Type
	}
	return out
}
