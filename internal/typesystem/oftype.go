package typesystem

import "context"

// ImplResolver answers "does an impl exist proving source implements
// target" without typesystem needing to import the symbol table (which
// itself imports typesystem for Type). symtab.Table satisfies this
// interface structurally.
type ImplResolver interface {
	// ImplExists suspends (per §4.1's impl_waiter double-poll) until an
	// impl is registered or the finished-impls flag rules one out.
	ImplExists(ctx context.Context, source, target Type) (bool, error)
	// ImplExistsSync consults only currently-registered impls, never
	// suspending -- used to decide whether a Downcast is needed.
	ImplExistsSync(source, target Type) bool
}

// OfType implements §4.2's of_type query: sub is of-type super iff
//   - they name the same struct (after reference unwrapping), or
//   - super is a trait and an impl proves sub implements it, or
//   - sub is a Generic whose bounds include super, or
//   - sub is a Reference and its referent matches super.
func OfType(ctx context.Context, sub, super Type, r ImplResolver) (bool, error) {
	subU := sub.Unwrap()
	superU := super.Unwrap()

	if subU.Kind == KindStruct && superU.Kind == KindStruct && subU.Struct == superU.Struct {
		return true, nil
	}

	if subU.Kind == KindGeneric {
		for _, b := range subU.Bounds {
			if typesEqualIgnoringRef(b, superU) {
				return true, nil
			}
		}
	}

	if superU.Kind == KindStruct && superU.Struct != nil && superU.Struct.IsTrait() {
		ok, err := r.ImplExists(ctx, subU, superU)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	return false, nil
}

// OfTypeSync is the non-suspending variant used to decide whether a call
// site needs to insert a Downcast. It returns whether sub is of-type
// super, and whether that conclusion relied on an impl (as opposed to
// structural/bound equality) -- callers insert a Downcast exactly when
// usedImpl is true or the two types are merely unequal-but-compatible.
func OfTypeSync(sub, super Type, r ImplResolver) (ok bool, usedImpl bool) {
	subU := sub.Unwrap()
	superU := super.Unwrap()

	if subU.Kind == KindStruct && superU.Kind == KindStruct && subU.Struct == superU.Struct {
		return true, false
	}
	if subU.Kind == KindGeneric {
		for _, b := range subU.Bounds {
			if typesEqualIgnoringRef(b, superU) {
				return true, false
			}
		}
	}
	if superU.Kind == KindStruct && superU.Struct != nil && superU.Struct.IsTrait() {
		if r.ImplExistsSync(subU, superU) {
			return true, true
		}
	}
	return false, false
}

func typesEqualIgnoringRef(a, b Type) bool {
	return Equal(a.Unwrap(), b.Unwrap())
}
