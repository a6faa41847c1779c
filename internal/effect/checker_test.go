package effect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/symtab"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

func newTestChecker() *Checker {
	table := symtab.NewTable()
	sched := symtab.NewScheduler(context.Background())
	return NewChecker(table, sched)
}

func litInt(v int64) *Effect { return &Effect{Kind: KindLitInt, IntVal: v} }
func litBool(v bool) *Effect { return &Effect{Kind: KindLitBool, BoolVal: v} }

// checkCode asserts err is a *CheckError carrying the given diagnostic code.
func checkCode(t *testing.T, err error, want diag.Code) {
	t.Helper()
	require.Error(t, err)
	ce, ok := err.(*CheckError)
	require.True(t, ok, "expected *CheckError, got %T", err)
	require.Equal(t, want, ce.Diagnostic.Code)
}

func registerPoint(c *Checker) *typesystem.StructData {
	sd := typesystem.NewStructData("Point", typesystem.Public, nil, nil)
	c.Table.RegisterStruct(sd)
	c.Table.RegisterFinalizedStruct(&typesystem.FinalizedStruct{
		Data: sd,
		Fields: []typesystem.MemberField{
			{Field: typesystem.Field{Name: "x", Type: c.Builtins.I64}},
		},
	})
	return sd
}

func TestVerifyLoad_UnknownField(t *testing.T) {
	c := newTestChecker()
	registerPoint(c)

	eff := &Effect{
		Kind:     KindLoad,
		Receiver: &Effect{Kind: KindCreateStruct, TypeName: "Point"},
		Field:    "y",
	}

	_, err := c.VerifyEffect(context.Background(), eff, NewEnv())
	checkCode(t, err, diag.CodeUnknownField)
}

func TestVerifyLoad_OK(t *testing.T) {
	c := newTestChecker()
	registerPoint(c)

	eff := &Effect{
		Kind:     KindLoad,
		Receiver: &Effect{Kind: KindCreateStruct, TypeName: "Point"},
		Field:    "x",
	}

	fin, err := c.VerifyEffect(context.Background(), eff, NewEnv())
	require.NoError(t, err)
	require.Equal(t, FLoad, fin.Kind)
	require.True(t, typesystem.Equal(fin.Type, c.Builtins.I64))
}

func TestCheckArgs_ArityMismatch(t *testing.T) {
	c := newTestChecker()
	data := &typesystem.FunctionData{Name: "f"}
	fn := typesystem.NewCodelessFinalizedFunction(data, []typesystem.MemberField{
		{Field: typesystem.Field{Name: "a", Type: c.Builtins.I64}},
	}, c.Builtins.I64, nil)

	_, err := c.checkArgs(context.Background(), diag.Span{}, fn, nil)
	checkCode(t, err, diag.CodeArgArityMismatch)
}

func TestCheckArgs_TypeMismatch(t *testing.T) {
	c := newTestChecker()
	data := &typesystem.FunctionData{Name: "f"}
	fn := typesystem.NewCodelessFinalizedFunction(data, []typesystem.MemberField{
		{Field: typesystem.Field{Name: "a", Type: c.Builtins.I64}},
	}, c.Builtins.I64, nil)

	arg := &FinalizedEffect{Kind: FHeapStore, Type: c.Builtins.Bool}
	_, err := c.checkArgs(context.Background(), diag.Span{}, fn, []*FinalizedEffect{arg})
	checkCode(t, err, diag.CodeArgTypeMismatch)
}

func TestCheckArgs_OK(t *testing.T) {
	c := newTestChecker()
	data := &typesystem.FunctionData{Name: "f"}
	fn := typesystem.NewCodelessFinalizedFunction(data, []typesystem.MemberField{
		{Field: typesystem.Field{Name: "a", Type: c.Builtins.I64}},
	}, c.Builtins.I64, nil)

	arg := &FinalizedEffect{Kind: FHeapStore, Type: c.Builtins.I64}
	out, err := c.checkArgs(context.Background(), diag.Span{}, fn, []*FinalizedEffect{arg})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Same(t, arg, out[0])
}

func TestVerifyReturn_TypeMismatch(t *testing.T) {
	c := newTestChecker()
	body := &CodeBody{Stmts: []Stmt{
		{Kind: StmtReturn, Effect: litInt(1)},
	}}
	boolType := c.Builtins.Bool
	_, err := c.VerifyCode(context.Background(), body, &boolType, NewEnv(), true)
	checkCode(t, err, diag.CodeReturnTypeMismatch)
}

func TestVerifyReturn_OK(t *testing.T) {
	c := newTestChecker()
	body := &CodeBody{Stmts: []Stmt{
		{Kind: StmtReturn, Effect: litInt(1)},
	}}
	i64 := c.Builtins.I64
	fin, err := c.VerifyCode(context.Background(), body, &i64, NewEnv(), true)
	require.NoError(t, err)
	require.True(t, fin.Returning)
}

func TestVerifyCreateArray_Heterogeneous(t *testing.T) {
	c := newTestChecker()
	eff := &Effect{Kind: KindCreateArray, Elements: []*Effect{litInt(1), litBool(true)}}
	_, err := c.VerifyEffect(context.Background(), eff, NewEnv())
	checkCode(t, err, diag.CodeArrayHeterogeneous)
}

func TestVerifyCreateArray_Homogeneous(t *testing.T) {
	c := newTestChecker()
	eff := &Effect{Kind: KindCreateArray, Elements: []*Effect{litInt(1), litInt(2)}}
	fin, err := c.VerifyEffect(context.Background(), eff, NewEnv())
	require.NoError(t, err)
	require.Equal(t, typesystem.KindArray, fin.Type.Kind)
}

func TestVerifyCompareJump_NotBool(t *testing.T) {
	c := newTestChecker()
	eff := &Effect{Kind: KindCompareJump, Cond: litInt(1), ThenLabel: "t", ElseLabel: "e"}
	_, err := c.VerifyEffect(context.Background(), eff, NewEnv())
	checkCode(t, err, diag.CodeCompareJumpNotBool)
}

func TestVerifyCompareJump_OK(t *testing.T) {
	c := newTestChecker()
	eff := &Effect{Kind: KindCompareJump, Cond: litBool(true), ThenLabel: "t", ElseLabel: "e"}
	fin, err := c.VerifyEffect(context.Background(), eff, NewEnv())
	require.NoError(t, err)
	require.Equal(t, FCompareJump, fin.Kind)
}
