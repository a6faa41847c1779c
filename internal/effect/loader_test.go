package effect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veyra-lang/veyra/internal/ast"
	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/lexer"
	"github.com/veyra-lang/veyra/internal/symtab"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

func namedType(name string) ast.TypeExpr {
	return ast.NewNamedType(ast.NewIdent(name, lexer.Span{}), lexer.Span{})
}

// sigOnlyFn builds a body-less (extern-style) function declaration, the
// shape finalizeFunction short-circuits on, so loader tests can exercise
// declare/finalize without building a statement IR by hand.
func sigOnlyFn(name string, params []*ast.Param, ret ast.TypeExpr) *ast.FnDecl {
	return ast.NewFnDecl(true, false, ast.NewIdent(name, lexer.Span{}), nil, params, ret, nil, nil, nil, lexer.Span{})
}

func TestLoader_StructFunctionTraitImpl(t *testing.T) {
	pointFields := []*ast.StructField{
		ast.NewStructField(ast.NewIdent("x", lexer.Span{}), namedType("i64"), lexer.Span{}),
	}
	pointDecl := ast.NewStructDecl(true, ast.NewIdent("Point", lexer.Span{}), nil, nil, pointFields, lexer.Span{})

	makePoint := sigOnlyFn("make_point",
		[]*ast.Param{ast.NewParam(ast.NewIdent("n", lexer.Span{}), namedType("i64"), lexer.Span{})},
		namedType("Point"))

	shapeArea := sigOnlyFn("area", nil, namedType("i64"))
	shapeDecl := ast.NewTraitDecl(true, ast.NewIdent("Shape", lexer.Span{}), nil, []*ast.FnDecl{shapeArea}, nil, lexer.Span{})

	implArea := sigOnlyFn("area", nil, namedType("i64"))
	implDecl := ast.NewImplDecl(true, nil, namedType("Shape"), namedType("Point"), []*ast.FnDecl{implArea}, nil, nil, lexer.Span{})

	file := &ast.File{Decls: []ast.Decl{pointDecl, makePoint, shapeDecl, implDecl}}

	loader := NewLoader(context.Background())
	loader.LoadFile(file)
	require.NoError(t, loader.Finalize(context.Background()))

	fs, ok := loader.Table.FinalizedStruct("Point")
	require.True(t, ok)
	require.Len(t, fs.Fields, 1)
	require.Equal(t, "x", fs.Fields[0].Name)
	require.True(t, typesystem.Equal(fs.Fields[0].Type, loader.Checker.Builtins.I64))

	pointType := typesystem.NewStructType(fs.Data)

	codeless, err := loader.Table.AsyncDataGetter(context.Background(), "make_point")
	require.NoError(t, err)
	require.True(t, typesystem.Equal(codeless.Return, pointType))

	shapeFs, ok := loader.Table.FinalizedStruct("Shape")
	require.True(t, ok)
	shapeType := typesystem.NewStructType(shapeFs.Data)

	require.True(t, loader.Table.ImplExistsSync(pointType, shapeType))

	areaFn, err := loader.Table.AsyncDataGetter(context.Background(), "Shape::area")
	require.NoError(t, err)
	require.True(t, typesystem.Equal(areaFn.Return, loader.Checker.Builtins.I64))
}

func TestLoader_UnresolvedFieldType(t *testing.T) {
	fields := []*ast.StructField{
		ast.NewStructField(ast.NewIdent("owner", lexer.Span{}), namedType("Ghost"), lexer.Span{}),
	}
	decl := ast.NewStructDecl(true, ast.NewIdent("Leash", lexer.Span{}), nil, nil, fields, lexer.Span{})

	loader := NewLoader(context.Background())
	loader.LoadFile(&ast.File{Decls: []ast.Decl{decl}})

	err := loader.Finalize(context.Background())
	require.Error(t, err)

	_, isCheckErr := err.(*CheckError)
	require.False(t, isCheckErr, "an unresolved-symbol failure should surface as a *symtab.NotFoundError, not a *CheckError")

	require.Equal(t, "Ghost", extractUnresolvedName(t, err))
	require.Equal(t, diag.CodeUnresolvedSymbol, DiagnosticFor(err).Code)
}

// extractUnresolvedName pulls the symbol name out of a *symtab.NotFoundError
// so the assertion above doesn't depend on the exact error-message format.
func extractUnresolvedName(t *testing.T, err error) string {
	t.Helper()
	nfe, ok := err.(*symtab.NotFoundError)
	require.True(t, ok, "expected *symtab.NotFoundError, got %T", err)
	return nfe.Name
}
