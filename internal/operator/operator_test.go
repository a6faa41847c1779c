package operator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyra-lang/veyra/internal/symtab"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

func registerOp(t *testing.T, table *symtab.Table, name, op string, priority int64, parseLeft bool) {
	t.Helper()
	attrs := typesystem.NewAttrSet(
		typesystem.Attribute{Name: typesystem.AttrOperation, Kind: typesystem.AttrString, S: op},
		typesystem.Attribute{Name: typesystem.AttrPriority, Kind: typesystem.AttrInt, I: priority},
		typesystem.Attribute{Name: typesystem.AttrParseLeft, Kind: typesystem.AttrBool, B: parseLeft},
	)
	table.RegisterFunction(&typesystem.FunctionData{Name: name, Modifiers: typesystem.Operator, Attributes: attrs})
}

// TestPrecedence_MultiplyBindsTighter implements E3: with `+` priority 5
// left-assoc and `*` priority 10 left-assoc, `1 + 2 * 3` lowers to
// `+(1, *(2, 3))`.
func TestPrecedence_MultiplyBindsTighter(t *testing.T) {
	table := symtab.NewTable()
	registerOp(t, table, "ops::add", "{}+{}", 5, true)
	registerOp(t, table, "ops::mul", "{}*{}", 10, true)
	table.SetFinishedImpls()

	// 1 + 2 * 3 in the parser's right-nested shape: +(1, <2 * 3>).
	node := &Node{
		Op: "{}+{}",
		Args: []Arg{
			leaf(1),
			inner(&Node{Op: "{}*{}", Args: []Arg{leaf(2), leaf(3)}}),
		},
	}

	result, err := Rewrite(context.Background(), table, node)
	require.NoError(t, err)
	assert.Equal(t, "ops::add", result.Fn.Name)
	inner, ok := result.Args[1].(*Resolved)
	require.True(t, ok, "expected the * to stay an argument of +")
	assert.Equal(t, "ops::mul", inner.Fn.Name)
}

func TestPrecedence_TieBreaksOnLeftAssociativity(t *testing.T) {
	table := symtab.NewTable()
	registerOp(t, table, "ops::add", "{}+{}", 5, true)
	registerOp(t, table, "ops::sub", "{}-{}", 5, true)
	table.SetFinishedImpls()

	// x + y - z in the parser's right-nested shape +(x, <y - z>); the
	// priorities tie and + is left-associative, so it regroups as
	// -(+(x,y), z).
	node := &Node{
		Op: "{}+{}",
		Args: []Arg{
			leaf("x"),
			inner(&Node{Op: "{}-{}", Args: []Arg{leaf("y"), leaf("z")}}),
		},
	}

	result, err := Rewrite(context.Background(), table, node)
	require.NoError(t, err)
	assert.Equal(t, "ops::sub", result.Fn.Name)
	lhs, ok := result.Args[0].(*Resolved)
	require.True(t, ok, "expected + to become the left argument of -")
	assert.Equal(t, "ops::add", lhs.Fn.Name)
}

func TestVariadicWrapsSingletonIntoArray(t *testing.T) {
	table := symtab.NewTable()
	attrs := typesystem.NewAttrSet(
		typesystem.Attribute{Name: typesystem.AttrOperation, Kind: typesystem.AttrString, S: "print({+})"},
		typesystem.Attribute{Name: typesystem.AttrPriority, Kind: typesystem.AttrInt, I: 0},
		typesystem.Attribute{Name: typesystem.AttrParseLeft, Kind: typesystem.AttrBool, B: true},
	)
	table.RegisterFunction(&typesystem.FunctionData{Name: "ops::print", Modifiers: typesystem.Operator, Attributes: attrs})
	table.SetFinishedImpls()

	node := &Node{Op: "print({+})", Args: []Arg{leaf("hello")}}
	result, err := Rewrite(context.Background(), table, node)
	require.NoError(t, err)
	require.Len(t, result.Args, 1)
	wrapped, ok := result.Args[0].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"hello"}, wrapped)
}
