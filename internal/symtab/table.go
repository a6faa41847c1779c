package symtab

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

// NotFoundError is produced by a waiter that could not resolve a symbol
// after the finished-impls flag was set (§4.1, §7 UnresolvedSymbol).
type NotFoundError struct {
	Name string
	Span diag.Span
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unresolved symbol %q at %s", e.Name, e.Span)
}

// implEntry records one `impl Target for Source` registration.
type implEntry struct {
	source  typesystem.Type
	target  typesystem.Type
	methods []*typesystem.CodelessFinalizedFunction
	seq     int
}

// Table is the process-wide registry of top-level items (§4.1): a
// single coarse lock guards every map and waiter subscription so that
// "observe absent, then subscribe" is atomic (losing a wakeup would
// strand a suspended task forever).
type Table struct {
	mu sync.Mutex

	structs     map[string]*typesystem.StructData
	finalStruct map[string]*typesystem.FinalizedStruct
	functions   map[string]*typesystem.FunctionData
	codeless    map[string]*typesystem.CodelessFinalizedFunction
	operators   []*typesystem.FunctionData // registration order
	impls       []*implEntry

	structWaiters   map[string][]*future[*typesystem.StructData]
	funcWaiters     map[string][]*future[*typesystem.FunctionData]
	operatorWaiter  map[string][]*future[*typesystem.FunctionData]
	codelessWaiters map[string][]*future[*typesystem.CodelessFinalizedFunction]
	implWaiters     []chan struct{} // woken on every impl registration and on finish

	finished     bool
	finishedCh   chan struct{}
	registerSeq  int

	sf singleflight.Group
}

// NewTable constructs an empty symbol table.
func NewTable() *Table {
	return &Table{
		structs:        make(map[string]*typesystem.StructData),
		finalStruct:    make(map[string]*typesystem.FinalizedStruct),
		functions:      make(map[string]*typesystem.FunctionData),
		codeless:       make(map[string]*typesystem.CodelessFinalizedFunction),
		structWaiters:   make(map[string][]*future[*typesystem.StructData]),
		funcWaiters:     make(map[string][]*future[*typesystem.FunctionData]),
		operatorWaiter:  make(map[string][]*future[*typesystem.FunctionData]),
		codelessWaiters: make(map[string][]*future[*typesystem.CodelessFinalizedFunction]),
		finishedCh:      make(chan struct{}),
	}
}

// RegisterStruct publishes sd, moving it to the Declared state and
// waking any waiters subscribed to its qualified name.
func (t *Table) RegisterStruct(sd *typesystem.StructData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.structs[sd.Name] = sd
	for _, f := range t.structWaiters[sd.Name] {
		f.resolve(sd, nil)
	}
	delete(t.structWaiters, sd.Name)
}

// RegisterFinalizedStruct publishes the finalized field/generics form of
// an already-Declared struct.
func (t *Table) RegisterFinalizedStruct(fs *typesystem.FinalizedStruct) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finalStruct[fs.Data.Name] = fs
}

// FinalizedStruct looks up an already-finalized struct by qualified
// name, non-suspending.
func (t *Table) FinalizedStruct(name string) (*typesystem.FinalizedStruct, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fs, ok := t.finalStruct[name]
	return fs, ok
}

// RegisterFunction publishes fd and wakes name-subscribed waiters.
func (t *Table) RegisterFunction(fd *typesystem.FunctionData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.functions[fd.Name] = fd
	if fd.IsOperator() {
		t.operators = append(t.operators, fd)
	}
	for _, f := range t.funcWaiters[fd.Name] {
		f.resolve(fd, nil)
	}
	delete(t.funcWaiters, fd.Name)
	t.wakeOperatorWaitersLocked()
}

// RegisterCodeless publishes a signature-finalized function (keyed by
// qualified name) for async_data_getter lookups and degenericing.
func (t *Table) RegisterCodeless(f *typesystem.CodelessFinalizedFunction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.codeless[f.Name()] = f
	for _, w := range t.codelessWaiters[f.Name()] {
		w.resolve(f, nil)
	}
	delete(t.codelessWaiters, f.Name())
}

// LookupCodeless is the non-suspending counterpart, used by callers that
// already know the symbol must be present (e.g. re-entrant degeneric
// checks).
func (t *Table) LookupCodeless(name string) (*typesystem.CodelessFinalizedFunction, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.codeless[name]
	return f, ok
}

// RegisterImpl adds `impl target for source` with its exposed method
// instances, and wakes every pending impl/trait-impl waiter.
func (t *Table) RegisterImpl(source, target typesystem.Type, methods []*typesystem.CodelessFinalizedFunction) {
	t.mu.Lock()
	t.registerSeq++
	t.impls = append(t.impls, &implEntry{source: source, target: target, methods: methods, seq: t.registerSeq})
	waiters := t.implWaiters
	t.implWaiters = nil
	t.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

// SetFinishedImpls marks the implementation graph as closed: no more
// impls can be registered. It wakes every waiter for their final
// attempt (§4.1's double-poll ordering).
func (t *Table) SetFinishedImpls() {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	implWaiters := t.implWaiters
	t.implWaiters = nil
	structWaiters := t.structWaiters
	t.structWaiters = make(map[string][]*future[*typesystem.StructData])
	funcWaiters := t.funcWaiters
	t.funcWaiters = make(map[string][]*future[*typesystem.FunctionData])
	opWaiters := t.operatorWaiter
	t.operatorWaiter = make(map[string][]*future[*typesystem.FunctionData])
	codelessWaiters := t.codelessWaiters
	t.codelessWaiters = make(map[string][]*future[*typesystem.CodelessFinalizedFunction])
	close(t.finishedCh)
	t.mu.Unlock()

	for _, ch := range implWaiters {
		close(ch)
	}
	for _, ws := range structWaiters {
		for _, w := range ws {
			w.resolve(nil, nil)
		}
	}
	for _, ws := range funcWaiters {
		for _, w := range ws {
			w.resolve(nil, nil)
		}
	}
	for _, ws := range opWaiters {
		for _, w := range ws {
			w.resolve(nil, nil)
		}
	}
	for _, ws := range codelessWaiters {
		for _, w := range ws {
			w.resolve(nil, nil)
		}
	}
}

// Finished reports whether SetFinishedImpls has been called.
func (t *Table) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// GetStruct suspends until a struct named name is Declared, or returns
// NotFoundError once the finished-impls flag is set and it still isn't.
func (t *Table) GetStruct(ctx context.Context, name string, span diag.Span) (*typesystem.StructData, error) {
	t.mu.Lock()
	if sd, ok := t.structs[name]; ok {
		t.mu.Unlock()
		return sd, nil
	}
	finished := t.finished
	if finished {
		t.mu.Unlock()
		return nil, &NotFoundError{Name: name, Span: span}
	}
	f := newFuture[*typesystem.StructData]()
	t.structWaiters[name] = append(t.structWaiters[name], f)
	t.mu.Unlock()

	sd, err := f.get(ctx)
	if err != nil {
		return nil, err
	}
	if sd != nil {
		return sd, nil
	}
	// Woken with nothing published (finish fired while we were waiting):
	// one final synchronous attempt per the double-poll rule.
	t.mu.Lock()
	defer t.mu.Unlock()
	if sd, ok := t.structs[name]; ok {
		return sd, nil
	}
	return nil, &NotFoundError{Name: name, Span: span}
}

// GetFunction suspends until a function named name is Declared, or fails
// with NotFound once the finished flag is set. allowUnresolved is
// accepted for callers' use but does not change the lookup: the raw
// FunctionData is returned as soon as it is declared either way.
func (t *Table) GetFunction(ctx context.Context, name string, allowUnresolved bool) (*typesystem.FunctionData, error) {
	t.mu.Lock()
	if fd, ok := t.functions[name]; ok {
		t.mu.Unlock()
		return fd, nil
	}
	if t.finished {
		t.mu.Unlock()
		return nil, &NotFoundError{Name: name}
	}
	f := newFuture[*typesystem.FunctionData]()
	t.funcWaiters[name] = append(t.funcWaiters[name], f)
	t.mu.Unlock()

	fd, err := f.get(ctx)
	if err != nil {
		return nil, err
	}
	if fd != nil {
		return fd, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if fd, ok := t.functions[name]; ok {
		return fd, nil
	}
	return nil, &NotFoundError{Name: name}
}

// candidateKey canonicalizes a set of operator candidate strings into a
// stable singleflight/waiter key.
func candidateKey(candidates []string) string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	key := ""
	for _, c := range sorted {
		key += c + "\x00"
	}
	return key
}

// GetOperator implements §4.1's get_operator: given a set of syntactic
// candidates, returns the struct-bearing function registered as an
// operator whose `operation` attribute literally equals one of them.
// Longest match wins; ties break by registration order. Concurrent
// identical lookups are deduplicated via singleflight.
func (t *Table) GetOperator(ctx context.Context, candidates []string) (*typesystem.FunctionData, error) {
	key := candidateKey(candidates)
	v, err, _ := t.sf.Do(key, func() (interface{}, error) {
		return t.getOperatorOnce(ctx, candidates)
	})
	if err != nil {
		return nil, err
	}
	return v.(*typesystem.FunctionData), nil
}

func (t *Table) getOperatorOnce(ctx context.Context, candidates []string) (*typesystem.FunctionData, error) {
	for {
		t.mu.Lock()
		if fd := t.matchOperatorLocked(candidates); fd != nil {
			t.mu.Unlock()
			return fd, nil
		}
		if t.finished {
			t.mu.Unlock()
			return nil, &NotFoundError{Name: candidateKey(candidates)}
		}
		key := candidateKey(candidates)
		f := newFuture[*typesystem.FunctionData]()
		t.operatorWaiter[key] = append(t.operatorWaiter[key], f)
		t.mu.Unlock()

		if _, err := f.get(ctx); err != nil {
			return nil, err
		}
		// Loop: re-check under lock (may have been woken by an
		// unrelated registration, or by finish).
	}
}

func (t *Table) matchOperatorLocked(candidates []string) *typesystem.FunctionData {
	var best *typesystem.FunctionData
	bestLen := -1
	bestSeq := -1
	for seq, fd := range t.operators {
		op := fd.Operation()
		for _, c := range candidates {
			if op != c {
				continue
			}
			if len(op) > bestLen || (len(op) == bestLen && seq < bestSeq) {
				best = fd
				bestLen = len(op)
				bestSeq = seq
			}
		}
	}
	return best
}

func (t *Table) wakeOperatorWaitersLocked() {
	for key, ws := range t.operatorWaiter {
		for _, f := range ws {
			f.resolve(nil, nil)
		}
		delete(t.operatorWaiter, key)
	}
}

// ImplWaiter suspends until the implementation graph proves source
// implements target, or the graph is finished. Returns the trait method
// instances exposed to the implementer.
func (t *Table) ImplWaiter(ctx context.Context, source, target typesystem.Type, span diag.Span) ([]*typesystem.CodelessFinalizedFunction, error) {
	for {
		t.mu.Lock()
		if e := t.matchImplLocked(source, target); e != nil {
			t.mu.Unlock()
			return e.methods, nil
		}
		if t.finished {
			t.mu.Unlock()
			return nil, &NotFoundError{Name: target.String(), Span: span}
		}
		ch := make(chan struct{})
		t.implWaiters = append(t.implWaiters, ch)
		t.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (t *Table) matchImplLocked(source, target typesystem.Type) *implEntry {
	for _, e := range t.impls {
		if typesystem.Equal(e.source.Unwrap(), source.Unwrap()) && typesystem.Equal(e.target.Unwrap(), target.Unwrap()) {
			return e
		}
	}
	return nil
}

// ImplExists satisfies typesystem.ImplResolver.
func (t *Table) ImplExists(ctx context.Context, source, target typesystem.Type) (bool, error) {
	if target.Unwrap().Kind != typesystem.KindStruct || target.Unwrap().Struct == nil || !target.Unwrap().Struct.IsTrait() {
		return false, nil
	}
	_, err := t.ImplWaiter(ctx, source, target, diag.Span{})
	if err != nil {
		if _, ok := err.(*NotFoundError); ok {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ImplExistsSync satisfies typesystem.ImplResolver's non-suspending half.
func (t *Table) ImplExistsSync(source, target typesystem.Type) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.matchImplLocked(source, target) != nil
}

// TraitImplPredicate filters candidate impl methods, e.g. by arity.
type TraitImplPredicate func(*typesystem.CodelessFinalizedFunction) bool

// TraitImplMatch is one impl method found by TraitImplWaiter.
type TraitImplMatch struct {
	Source typesystem.Type
	Target typesystem.Type
	Method *typesystem.CodelessFinalizedFunction
}

// TraitImplWaiter scans every impl whose method's simple name matches
// methodName for receiver type source, filtering with predicate, and
// suspends like ImplWaiter until at least one exists or the graph is
// finished.
func (t *Table) TraitImplWaiter(ctx context.Context, source typesystem.Type, methodName string, predicate TraitImplPredicate, span diag.Span) ([]TraitImplMatch, error) {
	for {
		t.mu.Lock()
		matches := t.matchTraitImplsLocked(source, methodName, predicate)
		if len(matches) > 0 {
			t.mu.Unlock()
			return matches, nil
		}
		if t.finished {
			t.mu.Unlock()
			return nil, &NotFoundError{Name: methodName, Span: span}
		}
		ch := make(chan struct{})
		t.implWaiters = append(t.implWaiters, ch)
		t.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (t *Table) matchTraitImplsLocked(source typesystem.Type, methodName string, predicate TraitImplPredicate) []TraitImplMatch {
	var out []TraitImplMatch
	for _, e := range t.impls {
		if !typesystem.Equal(e.source.Unwrap(), source.Unwrap()) {
			continue
		}
		for _, m := range e.methods {
			if m.Data.SimpleName() != methodName {
				continue
			}
			if predicate != nil && !predicate(m) {
				continue
			}
			out = append(out, TraitImplMatch{Source: e.source, Target: e.target, Method: m})
		}
	}
	return out
}

// AsyncDataGetter returns the signature-finalized form of a function
// given its qualified name handle, deduplicating concurrent identical
// lookups via singleflight.
func (t *Table) AsyncDataGetter(ctx context.Context, name string) (*typesystem.CodelessFinalizedFunction, error) {
	v, err, _ := t.sf.Do("codeless:"+name, func() (interface{}, error) {
		// The raw declaration must exist before a codeless form can ever
		// be published; waiting on it first avoids registering a
		// codeless-waiter for a name that will never be declared.
		if _, err := t.GetFunction(ctx, name, true); err != nil {
			return nil, err
		}
		t.mu.Lock()
		if f, ok := t.codeless[name]; ok {
			t.mu.Unlock()
			return f, nil
		}
		if t.finished {
			t.mu.Unlock()
			return nil, &NotFoundError{Name: name}
		}
		w := newFuture[*typesystem.CodelessFinalizedFunction]()
		t.codelessWaiters[name] = append(t.codelessWaiters[name], w)
		t.mu.Unlock()

		f, err := w.get(ctx)
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		if f, ok := t.codeless[name]; ok {
			return f, nil
		}
		return nil, &NotFoundError{Name: name}
	})
	if err != nil {
		return nil, err
	}
	return v.(*typesystem.CodelessFinalizedFunction), nil
}
