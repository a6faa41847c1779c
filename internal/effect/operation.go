package effect

import (
	"context"

	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/operator"
)

// verifyOperation bridges an unchecked Operation effect through the
// precedence rewriter (internal/operator) and dispatches the resolved
// call through verifyImplementationCall (§4.4 step 4).
func (c *Checker) verifyOperation(ctx context.Context, eff *Effect, vars *Env) (*FinalizedEffect, error) {
	node := toOperatorNode(eff)
	resolved, err := operator.Rewrite(ctx, c.Table, node)
	if err != nil {
		return nil, err
	}
	return c.dispatchResolvedOperator(ctx, resolved, eff, vars)
}

// toOperatorNode converts an Operation effect tree into the rewriter's
// Node shape, wrapping nested Operation effects and leaving everything
// else as opaque leaves.
func toOperatorNode(eff *Effect) *operator.Node {
	args := make([]operator.Arg, len(eff.OpArgs))
	for i, a := range eff.OpArgs {
		if a.Kind == KindOperation {
			args[i] = operator.NewInnerArg(toOperatorNode(a))
		} else {
			args[i] = operator.NewLeafArg(a)
		}
	}
	return &operator.Node{Op: eff.Op, Args: args}
}

// dispatchResolvedOperator finishes checking a rewriter result: each
// leaf is either an unchecked *Effect (verified now) or a nested
// *operator.Resolved (recursively dispatched first), then the whole
// call is routed through verifyImplementationCall against the
// operator's declaring trait.
func (c *Checker) dispatchResolvedOperator(ctx context.Context, r *operator.Resolved, site *Effect, vars *Env) (*FinalizedEffect, error) {
	checkedArgs := make([]*FinalizedEffect, 0, len(r.Args))
	for _, a := range r.Args {
		fin, err := c.resolveOperatorLeaf(ctx, a, site, vars)
		if err != nil {
			return nil, err
		}
		checkedArgs = append(checkedArgs, fin)
	}

	traitName, methodName := operatorOwner(r)
	if len(checkedArgs) == 0 {
		return nil, newError(diag.CodeInternalInvariant, site.Span, "operator call resolved with no arguments")
	}
	var recv *Effect
	rest := make([]*Effect, 0, len(checkedArgs)-1)
	for i, fin := range checkedArgs {
		placeholder := preverified(fin)
		if i == 0 {
			recv = placeholder
			continue
		}
		rest = append(rest, placeholder)
	}
	implCall := &Effect{Kind: KindImplementationCall, Span: site.Span, Callee: recv, TraitName: traitName, Name: methodName, Args: rest}
	return c.verifyImplementationCall(ctx, implCall, vars)
}

// resolveOperatorLeaf recursively checks a rewriter leaf, which is
// either a raw *Effect or a nested *operator.Resolved awaiting the same
// dispatch.
func (c *Checker) resolveOperatorLeaf(ctx context.Context, v interface{}, site *Effect, vars *Env) (*FinalizedEffect, error) {
	switch x := v.(type) {
	case *Effect:
		return c.VerifyEffect(ctx, x, vars)
	case *operator.Resolved:
		return c.dispatchResolvedOperator(ctx, x, site, vars)
	case []interface{}:
		// {+} variadic wrap: check each and re-emit as a CreateArray.
		elems := make([]*Effect, len(x))
		for i, e := range x {
			elems[i] = preverifiedLeaf(e)
		}
		return c.verifyCreateArray(ctx, &Effect{Kind: KindCreateArray, Span: site.Span, Elements: elems}, vars)
	default:
		return preverifiedLeaf(x), nil
	}
}

// operatorOwner derives (trait, method) from the resolved operator
// function's qualified name: the trait is every segment but the last.
func operatorOwner(r *operator.Resolved) (trait, method string) {
	name := r.Fn.Name
	idx := lastSep(name)
	if idx < 0 {
		return name, name
	}
	return name[:idx], name[idx+2:]
}

func lastSep(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] == ':' && s[i+1] == ':' {
			return i
		}
	}
	return -1
}

// preverified wraps an already-finalized effect so it survives a second
// pass through VerifyEffect unchanged (used when composing a synthetic
// ImplementationCall effect from already-checked operator arguments).
func preverified(fin *FinalizedEffect) *Effect {
	return &Effect{Kind: KindNOP, Span: fin.Span, Prechecked: fin}
}

func preverifiedLeaf(v interface{}) *Effect {
	if fin, ok := v.(*FinalizedEffect); ok {
		return preverified(fin)
	}
	if e, ok := v.(*Effect); ok {
		return e
	}
	return &Effect{Kind: KindNOP}
}
