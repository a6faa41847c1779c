package effect

import (
	"context"
	"fmt"

	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/symtab"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

// Checker walks unchecked effects and produces finalized ones (§4.3).
type Checker struct {
	Table         *symtab.Table
	Scheduler     *symtab.Scheduler
	Builtins      *Builtins
	Warnings      []diag.Diagnostic
	PendingBodies *PendingBodies      // generic function bodies, for Degeneric
	Outputs       *FinalizedFunctions // checked functions, including degenericed instances
}

// NewChecker builds a checker bound to table/scheduler, registering the
// primitive types it needs for literal resolution.
func NewChecker(table *symtab.Table, scheduler *symtab.Scheduler) *Checker {
	return &Checker{
		Table:         table,
		Scheduler:     scheduler,
		Builtins:      RegisterBuiltins(table),
		PendingBodies: NewPendingBodies(),
		Outputs:       NewFinalizedFunctions(),
	}
}

// VerifyCode is the top-level entry point (§4.3): it walks body's
// statements in order against expectedReturn, producing a
// FinalizedCodeBody. top indicates this is a function's top-level body
// (as opposed to a nested CodeBody effect), which relaxes the
// trailing-terminator invariant.
func (c *Checker) VerifyCode(ctx context.Context, body *CodeBody, expectedReturn *typesystem.Type, vars *Env, top bool) (*FinalizedCodeBody, error) {
	out := &FinalizedCodeBody{}
	for i, stmt := range body.Stmts {
		last := i == len(body.Stmts)-1
		fin, err := c.verifyStatement(ctx, stmt, expectedReturn, vars)
		if err != nil {
			return nil, err
		}
		out.Stmts = append(out.Stmts, fin)

		if stmt.Kind == StmtReturn && last {
			out.Returning = true
		}
	}

	if !out.Returning && !top {
		if len(out.Stmts) == 0 || !isTerminatingJump(out.Stmts[len(out.Stmts)-1].Effect) {
			return nil, newError(diag.CodeInternalInvariant, body.span(), "non-top code body does not end in a Return or a terminating jump")
		}
	}
	return out, nil
}

func (b *CodeBody) span() diag.Span {
	if len(b.Stmts) == 0 {
		return diag.Span{}
	}
	return b.Stmts[len(b.Stmts)-1].Span
}

func isTerminatingJump(fe *FinalizedEffect) bool {
	if fe == nil {
		return false
	}
	return fe.Kind == FJump || fe.Kind == FCompareJump
}

func (c *Checker) verifyStatement(ctx context.Context, stmt Stmt, expectedReturn *typesystem.Type, vars *Env) (FinalizedStmt, error) {
	switch stmt.Kind {
	case StmtLabel:
		return FinalizedStmt{Kind: StmtLabel, LabelName: stmt.LabelName, Span: stmt.Span}, nil
	case StmtReturn:
		fin, err := c.verifyReturn(ctx, stmt.Effect, expectedReturn, vars)
		if err != nil {
			return FinalizedStmt{}, err
		}
		return FinalizedStmt{Kind: StmtReturn, Effect: fin, Span: stmt.Span}, nil
	case StmtBreak, StmtLine:
		var fin *FinalizedEffect
		var err error
		if stmt.Effect != nil {
			fin, err = c.VerifyEffect(ctx, stmt.Effect, vars)
			if err != nil {
				return FinalizedStmt{}, err
			}
		}
		return FinalizedStmt{Kind: stmt.Kind, Effect: fin, Span: stmt.Span}, nil
	default:
		return FinalizedStmt{}, newError(diag.CodeInternalInvariant, stmt.Span, "unknown statement kind")
	}
}

// verifyReturn checks a Return's effect against expectedReturn,
// inserting a Downcast when the produced type is a true-but-not-equal
// match (§4.3).
func (c *Checker) verifyReturn(ctx context.Context, eff *Effect, expectedReturn *typesystem.Type, vars *Env) (*FinalizedEffect, error) {
	fin, err := c.VerifyEffect(ctx, eff, vars)
	if err != nil {
		return nil, err
	}
	if expectedReturn == nil {
		return fin, nil
	}
	if typesystem.Equal(fin.Type, *expectedReturn) {
		return fin, nil
	}
	ok, err := typesystem.OfType(ctx, fin.Type, *expectedReturn, c.Table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(diag.CodeReturnTypeMismatch, eff.Span,
			fmt.Sprintf("Expected %s, found %s", expectedReturn.String(), fin.Type.String()))
	}
	return &FinalizedEffect{Kind: FDowncast, Type: *expectedReturn, Span: eff.Span, Inner: fin, Target: *expectedReturn}, nil
}

// VerifyEffect dispatches on eff's Kind and returns a finalized form.
func (c *Checker) VerifyEffect(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	if eff.Prechecked != nil {
		return eff.Prechecked, nil
	}
	switch eff.Kind {
	case KindNOP:
		return nil, newError(diag.CodeInternalInvariant, eff.Span, "verifying a NOP effect")
	case KindParen:
		return c.VerifyEffect(ctx, eff.Child, vars)
	case KindSet:
		return c.verifySet(ctx, eff, vars)
	case KindCodeBody:
		return c.verifyNestedCodeBody(ctx, eff, vars)
	case KindCreateVariable:
		return c.verifyCreateVariable(ctx, eff, vars)
	case KindLoadVariable:
		return c.verifyLoadVariable(eff, vars)
	case KindLoad:
		return c.verifyLoad(ctx, eff, vars)
	case KindCreateStruct:
		return c.verifyCreateStruct(ctx, eff, vars)
	case KindCreateArray:
		return c.verifyCreateArray(ctx, eff, vars)
	case KindCompareJump:
		return c.verifyCompareJump(ctx, eff, vars)
	case KindJump:
		return &FinalizedEffect{Kind: FJump, Label: eff.Label, Span: eff.Span}, nil
	case KindOperation:
		return c.verifyOperation(ctx, eff, vars)
	case KindMethodCall:
		return c.verifyMethodCall(ctx, eff, vars)
	case KindImplementationCall:
		return c.verifyImplementationCall(ctx, eff, vars)
	case KindLitFloat:
		return &FinalizedEffect{Kind: FHeapStore, Type: c.Builtins.F64, Span: eff.Span,
			Inner: &FinalizedEffect{Kind: FLitFloat, Type: c.Builtins.F64, FloatVal: eff.FloatVal, Span: eff.Span}}, nil
	case KindLitInt:
		return &FinalizedEffect{Kind: FHeapStore, Type: c.Builtins.I64, Span: eff.Span,
			Inner: &FinalizedEffect{Kind: FLitInt, Type: c.Builtins.I64, IntVal: eff.IntVal, Span: eff.Span}}, nil
	case KindLitUInt:
		return &FinalizedEffect{Kind: FHeapStore, Type: c.Builtins.U64, Span: eff.Span,
			Inner: &FinalizedEffect{Kind: FLitUInt, Type: c.Builtins.U64, UIntVal: eff.UIntVal, Span: eff.Span}}, nil
	case KindLitBool:
		return &FinalizedEffect{Kind: FHeapStore, Type: c.Builtins.Bool, Span: eff.Span,
			Inner: &FinalizedEffect{Kind: FLitBool, Type: c.Builtins.Bool, BoolVal: eff.BoolVal, Span: eff.Span}}, nil
	case KindLitString:
		return &FinalizedEffect{Kind: FHeapStore, Type: c.Builtins.Str, Span: eff.Span,
			Inner: &FinalizedEffect{Kind: FLitString, Type: c.Builtins.Str, StringVal: eff.StringVal, Span: eff.Span}}, nil
	case KindLitChar:
		return &FinalizedEffect{Kind: FHeapStore, Type: c.Builtins.Char, Span: eff.Span,
			Inner: &FinalizedEffect{Kind: FLitChar, Type: c.Builtins.Char, CharVal: eff.CharVal, Span: eff.Span}}, nil
	default:
		return nil, newError(diag.CodeInternalInvariant, eff.Span, "unhandled effect kind")
	}
}

func (c *Checker) verifySet(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	lhs, err := c.VerifyEffect(ctx, eff.Lhs, vars)
	if err != nil {
		return nil, err
	}
	rhs, err := c.VerifyEffect(ctx, eff.Rhs, vars)
	if err != nil {
		return nil, err
	}
	return &FinalizedEffect{Kind: FSet, Type: lhs.Type, Span: eff.Span, Lhs: lhs, Rhs: rhs}, nil
}

func (c *Checker) verifyNestedCodeBody(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	clone := vars.Clone()
	fin, err := c.VerifyCode(ctx, eff.Body, nil, clone, false)
	if err != nil {
		return nil, err
	}
	var t typesystem.Type
	if n := len(fin.Stmts); n > 0 && fin.Stmts[n-1].Effect != nil {
		t = fin.Stmts[n-1].Effect.Type
	}
	return &FinalizedEffect{Kind: FCodeBody, Type: t, Span: eff.Span, Body: fin}, nil
}

func (c *Checker) verifyCreateVariable(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	init, err := c.VerifyEffect(ctx, eff.Init, vars)
	if err != nil {
		return nil, err
	}
	vars.Bind(eff.VarName, init.Type)
	return &FinalizedEffect{Kind: FCreateVariable, Type: init.Type, Span: eff.Span, VarName: eff.VarName, Inner: init}, nil
}

func (c *Checker) verifyLoadVariable(eff *Effect, vars *Env) (*FinalizedEffect, error) {
	t, ok := vars.Lookup(eff.VarName)
	if !ok {
		return nil, newError(diag.CodeUnresolvedSymbol, eff.Span, fmt.Sprintf("undeclared variable %q", eff.VarName))
	}
	return &FinalizedEffect{Kind: FLoadVariable, Type: t, Span: eff.Span, VarName: eff.VarName}, nil
}

func (c *Checker) verifyLoad(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	recv, err := c.VerifyEffect(ctx, eff.Receiver, vars)
	if err != nil {
		return nil, err
	}
	structType := recv.Type.Unwrap()
	if structType.Kind != typesystem.KindStruct || structType.Struct == nil {
		return nil, newError(diag.CodeUnknownField, eff.Span, fmt.Sprintf("cannot load field %q from non-struct type %s", eff.Field, recv.Type.String()))
	}
	fs, ok := c.Table.FinalizedStruct(structType.Struct.Name)
	if !ok {
		return nil, newErrorOn(diag.CodeUnresolvedSymbol, eff.Span, fmt.Sprintf("struct %q is not yet finalized", structType.Struct.Name), structType.Struct.Handle())
	}
	idx := fs.FieldIndex(eff.Field)
	if idx < 0 {
		return nil, newError(diag.CodeUnknownField, eff.Span, fmt.Sprintf("%s has no field %q", structType.Struct.Name, eff.Field))
	}
	return &FinalizedEffect{Kind: FLoad, Type: fs.Fields[idx].Type, Span: eff.Span, Inner: recv, LoadField: eff.Field, StructHandle: fs}, nil
}

func (c *Checker) verifyCompareJump(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	cond, err := c.VerifyEffect(ctx, eff.Cond, vars)
	if err != nil {
		return nil, err
	}
	// Open Question 3: the condition must be bool-typed.
	if !typesystem.Equal(cond.Type.Unwrap(), c.Builtins.Bool.Unwrap()) {
		return nil, newError(diag.CodeCompareJumpNotBool, eff.Span,
			fmt.Sprintf("compare-jump condition must be bool, found %s", cond.Type.String()))
	}
	return &FinalizedEffect{Kind: FCompareJump, Span: eff.Span, Cond: cond, ThenLabel: eff.ThenLabel, ElseLabel: eff.ElseLabel}, nil
}

func (c *Checker) verifyCreateArray(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	if len(eff.Elements) == 0 {
		return &FinalizedEffect{Kind: FHeapStore, Span: eff.Span}, nil
	}
	finalized := make([]*FinalizedEffect, len(eff.Elements))
	first, err := c.VerifyEffect(ctx, eff.Elements[0], vars)
	if err != nil {
		return nil, err
	}
	finalized[0] = first
	elemType := first.Type
	for i := 1; i < len(eff.Elements); i++ {
		fin, err := c.VerifyEffect(ctx, eff.Elements[i], vars)
		if err != nil {
			return nil, err
		}
		ok, err := typesystem.OfType(ctx, fin.Type, elemType, c.Table)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, newError(diag.CodeArrayHeterogeneous, eff.Elements[i].Span,
				fmt.Sprintf("array element %d has type %s, expected %s", i, fin.Type.String(), elemType.String()))
		}
		finalized[i] = fin
	}
	arrType := typesystem.NewArrayType(elemType)
	inner := &FinalizedEffect{Kind: FCreateArray, Type: arrType, Span: eff.Span, Elements: finalized}
	return &FinalizedEffect{Kind: FHeapStore, Type: arrType, Span: eff.Span, Inner: inner}, nil
}

func (c *Checker) verifyCreateStruct(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	sd, err := c.Table.GetStruct(ctx, eff.TypeName, eff.Span)
	if err != nil {
		return nil, err
	}
	fs, ok := c.Table.FinalizedStruct(sd.Name)
	if !ok {
		return nil, newErrorOn(diag.CodeUnresolvedSymbol, eff.Span, fmt.Sprintf("struct %q is not yet finalized", sd.Name), sd.Handle())
	}
	var inits []PositionalInit
	for _, fi := range eff.FieldInits {
		idx := fs.FieldIndex(fi.Name)
		if idx < 0 {
			return nil, newError(diag.CodeUnknownField, eff.Span, fmt.Sprintf("%s has no field %q", sd.Name, fi.Name))
		}
		finInit, err := c.VerifyEffect(ctx, fi.Init, vars)
		if err != nil {
			return nil, err
		}
		inits = append(inits, PositionalInit{Index: idx, Value: finInit})
	}
	if len(inits) < len(fs.Fields) {
		// Open Question 2: partial CreateStruct is implementation-defined;
		// zero-position the rest and warn rather than error.
		c.Warnings = append(c.Warnings, newWarning(diag.CodePartialStructInit, eff.Span,
			fmt.Sprintf("struct literal for %s omits %d of %d fields", sd.Name, len(fs.Fields)-len(inits), len(fs.Fields))))
	}
	t := typesystem.NewStructType(sd)
	alloc := &FinalizedEffect{Kind: FHeapAllocate, Type: t, Span: eff.Span}
	return &FinalizedEffect{Kind: FCreateStruct, Type: t, Span: eff.Span, Alloc: alloc, StructType: fs, PositionalInits: inits}, nil
}
