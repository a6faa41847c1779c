package symtab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

func TestGetStructSuspendsUntilRegistered(t *testing.T) {
	tbl := NewTable()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan *typesystem.StructData, 1)
	go func() {
		sd, err := tbl.GetStruct(ctx, "pkg::Dog", diag.Span{})
		require.NoError(t, err)
		done <- sd
	}()

	time.Sleep(20 * time.Millisecond)
	sd := typesystem.NewStructData("pkg::Dog", typesystem.Public, nil, nil)
	tbl.RegisterStruct(sd)

	select {
	case got := <-done:
		assert.Same(t, sd, got)
	case <-ctx.Done():
		t.Fatal("GetStruct never resolved")
	}
}

func TestGetStructNotFoundAfterFinished(t *testing.T) {
	tbl := NewTable()
	tbl.SetFinishedImpls()

	_, err := tbl.GetStruct(context.Background(), "pkg::Missing", diag.Span{})
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestGetStructSuspendedWaiterWokenByFinish(t *testing.T) {
	tbl := NewTable()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		_, err := tbl.GetStruct(ctx, "pkg::Never", diag.Span{})
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	tbl.SetFinishedImpls()

	select {
	case err := <-errc:
		require.Error(t, err)
	case <-ctx.Done():
		t.Fatal("waiter never woke on finish")
	}
}

func makeOperatorFn(name, operation string, priority int64, parseLeft bool) *typesystem.FunctionData {
	attrs := typesystem.NewAttrSet(
		typesystem.Attribute{Name: typesystem.AttrOperation, Kind: typesystem.AttrString, S: operation},
		typesystem.Attribute{Name: typesystem.AttrPriority, Kind: typesystem.AttrInt, I: priority},
		typesystem.Attribute{Name: typesystem.AttrParseLeft, Kind: typesystem.AttrBool, B: parseLeft},
	)
	return &typesystem.FunctionData{Name: name, Modifiers: typesystem.Operator, Attributes: attrs}
}

func TestGetOperatorLongestMatchWins(t *testing.T) {
	tbl := NewTable()
	tbl.RegisterFunction(makeOperatorFn("ops::add", "{}+{}", 5, true))
	tbl.RegisterFunction(makeOperatorFn("ops::addAssoc", "{}+{}+{}", 5, true))
	tbl.SetFinishedImpls()

	fd, err := tbl.GetOperator(context.Background(), []string{"{}+{}", "{}+{}+{}"})
	require.NoError(t, err)
	assert.Equal(t, "ops::addAssoc", fd.Name)
}

func TestGetOperatorTieBreaksByRegistrationOrder(t *testing.T) {
	tbl := NewTable()
	tbl.RegisterFunction(makeOperatorFn("ops::first", "{}+{}", 5, true))
	tbl.RegisterFunction(makeOperatorFn("ops::second", "{}+{}", 5, true))
	tbl.SetFinishedImpls()

	fd, err := tbl.GetOperator(context.Background(), []string{"{}+{}"})
	require.NoError(t, err)
	assert.Equal(t, "ops::first", fd.Name)
}

func TestImplWaiterFinalAttemptAfterFinish(t *testing.T) {
	tbl := NewTable()
	dog := typesystem.NewStructType(typesystem.NewStructData("pkg::Dog", typesystem.Public, nil, nil))
	animal := typesystem.NewStructType(typesystem.NewStructData("pkg::Animal", typesystem.Trait, nil, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		_, err := tbl.ImplWaiter(ctx, dog, animal, diag.Span{})
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	tbl.SetFinishedImpls()

	select {
	case err := <-errc:
		require.Error(t, err)
	case <-ctx.Done():
		t.Fatal("impl waiter never settled after finish")
	}
}

func TestImplExistsSyncUsesOnlyRegisteredImpls(t *testing.T) {
	tbl := NewTable()
	dog := typesystem.NewStructType(typesystem.NewStructData("pkg::Dog", typesystem.Public, nil, nil))
	animalData := typesystem.NewStructData("pkg::Animal", typesystem.Trait, nil, nil)
	animal := typesystem.NewStructType(animalData)

	assert.False(t, tbl.ImplExistsSync(dog, animal))
	tbl.RegisterImpl(dog, animal, nil)
	assert.True(t, tbl.ImplExistsSync(dog, animal))
}
