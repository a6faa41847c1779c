// Package operator implements the precedence rewriter (spec §4.4): it
// collapses adjacent operator effects into a single, correctly
// associated tree using each operator function's `operation`,
// `priority`, and `parse_left` attributes.
package operator

import (
	"context"
	"strings"

	"github.com/veyra-lang/veyra/internal/symtab"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

// Node is the minimal shape the rewriter needs from an operator effect:
// the syntactic operator string and its argument list. internal/effect
// adapts its Operation effect to this shape and back.
type Node struct {
	Op   string
	Args []Arg
}

// Arg is either a plain operand or a nested operator node awaiting
// re-association.
type Arg struct {
	Inner *Node // non-nil for a nested Operation
	Leaf  interface{}
}

func leaf(v interface{}) Arg { return Arg{Leaf: v} }
func inner(n *Node) Arg      { return Arg{Inner: n} }

// Resolved is the rewriter's terminal output: a single operator call
// ready to be re-emitted as an ImplementationCall (§4.4 step 4).
type Resolved struct {
	Fn   *typesystem.FunctionData
	Args []interface{}
}

// splice checks whether outer's pattern ends with "{}" and inner's
// pattern begins with "{}", in which case the two patterns can be
// concatenated into a single combined operator candidate.
func splice(outer, innerOp string) (string, bool) {
	if !strings.HasSuffix(outer, "{}") || !strings.HasPrefix(innerOp, "{}") {
		return "", false
	}
	return outer + innerOp[2:], true
}

// hasVariadic reports whether operation declares a `{+}` trailing
// variadic placeholder.
func hasVariadic(operation string) bool {
	return strings.Contains(operation, "{+}")
}

// Rewrite re-associates a node of adjacent operator effects per §4.4's
// algorithm, terminating in a single Resolved operator call.
func Rewrite(ctx context.Context, table *symtab.Table, n *Node) (*Resolved, error) {
	if len(n.Args) == 0 {
		return nil, errNoArgs(n.Op)
	}
	last := n.Args[len(n.Args)-1]

	if last.Inner != nil {
		if combined, ok := splice(n.Op, last.Inner.Op); ok {
			if fd, err := table.GetOperator(ctx, []string{combined}); err == nil {
				args := append(append([]interface{}{}, flattenLeaves(n.Args[:len(n.Args)-1])...), flattenLeaves(last.Inner.Args)...)
				return finish(ctx, table, fd, args)
			}
		}

		outerFd, err := table.GetOperator(ctx, []string{n.Op})
		if err != nil {
			return nil, err
		}
		innerFd, err := table.GetOperator(ctx, []string{last.Inner.Op})
		if err != nil {
			return nil, err
		}

		pOuter, pInner := outerFd.Priority(), innerFd.Priority()
		innerBindsTighter := pInner > pOuter || (pInner == pOuter && !outerFd.ParseLeft())

		if innerBindsTighter {
			// outer(lhs_args..., inner(innerArgs))
			rewritten, err := Rewrite(ctx, table, last.Inner)
			if err != nil {
				return nil, err
			}
			args := append(append([]interface{}{}, flattenLeaves(n.Args[:len(n.Args)-1])...), callValue(rewritten))
			return finish(ctx, table, outerFd, args)
		}

		// inner becomes the root: inner(outer(args\last) ++ first(innerArgs), rest(innerArgs)...)
		if len(last.Inner.Args) == 0 {
			return nil, errNoArgs(last.Inner.Op)
		}
		newOuterArgs := append(append([]Arg{}, n.Args[:len(n.Args)-1]...), last.Inner.Args[0])
		outerNode := &Node{Op: n.Op, Args: newOuterArgs}
		rewrittenOuter, err := Rewrite(ctx, table, outerNode)
		if err != nil {
			return nil, err
		}
		args := append([]interface{}{callValue(rewrittenOuter)}, flattenLeaves(last.Inner.Args[1:])...)
		return finish(ctx, table, innerFd, args)
	}

	fd, err := table.GetOperator(ctx, []string{n.Op})
	if err != nil {
		return nil, err
	}
	return finish(ctx, table, fd, flattenLeaves(n.Args))
}

// finish applies the `{+}` variadic wrap (step 3) and returns the
// resolved call.
func finish(ctx context.Context, table *symtab.Table, fd *typesystem.FunctionData, args []interface{}) (*Resolved, error) {
	if hasVariadic(fd.Operation()) && len(args) == 1 {
		args = []interface{}{args}
	}
	return &Resolved{Fn: fd, Args: args}, nil
}

// callValue marshals a fully-Resolved nested call back into an opaque
// leaf value for the caller (internal/effect) to re-expand into an
// ImplementationCall effect.
func callValue(r *Resolved) interface{} { return r }

func flattenLeaves(args []Arg) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		if a.Inner != nil {
			out[i] = a.Inner
		} else {
			out[i] = a.Leaf
		}
	}
	return out
}

// NewLeafArg wraps a checked argument value as an operator Arg.
func NewLeafArg(v interface{}) Arg { return leaf(v) }

// NewInnerArg wraps a nested operator node as an operator Arg.
func NewInnerArg(n *Node) Arg { return inner(n) }

type rewriteError struct{ msg string }

func (e *rewriteError) Error() string { return e.msg }

func errNoArgs(op string) error {
	return &rewriteError{msg: "operator " + op + " has no arguments to rewrite"}
}
