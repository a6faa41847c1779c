package typesystem

import (
	"fmt"
	"sort"
	"strings"
)

// SetGeneric descends t, rewriting any Generic(name, _) whose name is a
// key of subst into the substituted type (§4.2). Structural, non-generic
// subterms (Struct type arguments, Reference/Array inner types) are
// substituted recursively.
func SetGeneric(t Type, subst map[string]Type) Type {
	switch t.Kind {
	case KindGeneric:
		if repl, ok := subst[t.Name]; ok {
			return repl
		}
		return t
	case KindReference:
		inner := SetGeneric(*t.Inner, subst)
		return NewReferenceType(inner)
	case KindArray:
		inner := SetGeneric(*t.Inner, subst)
		return NewArrayType(inner)
	case KindStruct:
		if len(t.TypeArgs) == 0 {
			return t
		}
		args := make([]Type, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			args[i] = SetGeneric(a, subst)
		}
		return Type{Kind: KindStruct, Struct: t.Struct, TypeArgs: args}
	default:
		return t
	}
}

// ExtractGenerics infers a substitution map by unifying each parameter
// type against its corresponding argument type, producing concrete
// bindings for every free generic mentioned in params.
func ExtractGenerics(params, args []Type) (map[string]Type, error) {
	if len(params) != len(args) {
		return nil, fmt.Errorf("typesystem: generic extraction arity mismatch: %d params, %d args", len(params), len(args))
	}
	subst := make(map[string]Type)
	for i := range params {
		if err := unify(params[i], args[i], subst); err != nil {
			return nil, err
		}
	}
	return subst, nil
}

func unify(param, arg Type, subst map[string]Type) error {
	switch param.Kind {
	case KindGeneric:
		if existing, ok := subst[param.Name]; ok {
			if !Equal(existing, arg) {
				// The first binding is kept; a genuine mismatch is
				// caught later by check_args's of_type check, so we
				// don't hard-fail unification.
				return nil
			}
			return nil
		}
		subst[param.Name] = arg
		return nil
	case KindReference:
		argU := arg
		if argU.Kind == KindReference {
			return unify(*param.Inner, *argU.Inner, subst)
		}
		return unify(*param.Inner, arg, subst)
	case KindArray:
		if arg.Kind != KindArray {
			return fmt.Errorf("typesystem: cannot unify array parameter with %s", arg.String())
		}
		return unify(*param.Inner, *arg.Inner, subst)
	case KindStruct:
		if arg.Kind != KindStruct || len(param.TypeArgs) != len(arg.TypeArgs) {
			return nil
		}
		for i := range param.TypeArgs {
			if err := unify(param.TypeArgs[i], arg.TypeArgs[i], subst); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// DegenericSuffix builds the deterministic name suffix appended to a
// degenericed function's qualified name: "$<T1>,<T2>,..." with bound
// types rendered in declaration order (testable property 2: idempotent
// across repeated calls with the same substitution).
func DegenericSuffix(order []string, subst map[string]Type) string {
	if len(order) == 0 {
		return ""
	}
	parts := make([]string, 0, len(order))
	for _, name := range order {
		t, ok := subst[name]
		if !ok {
			continue
		}
		parts = append(parts, t.String())
	}
	if len(parts) == 0 {
		return ""
	}
	return "$" + strings.Join(parts, ",")
}

// GenericOrder returns the declaration-order parameter names of bounds.
func GenericOrder(bounds []GenericBound) []string {
	names := make([]string, len(bounds))
	for i, b := range bounds {
		names[i] = b.Name
	}
	return names
}

// sortedKeys is a small helper kept for deterministic iteration when a
// substitution map must be walked without an explicit declaration order
// (e.g. diagnostics).
func sortedKeys(m map[string]Type) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
