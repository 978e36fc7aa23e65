package cmp

func SliceEq[T comparable](a []T, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for nth, va := range a {
		if va != b[nth] {
			return false
		}
	}
	return true
}

func SliceEqWith[T any, U any](a []T, b []U, pred func(a T, b U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for nth := range a {
		if !pred(a[nth], b[nth]) {
			return false
		}
	}
	return true
}

// SliceContentEq tests a and b have same elements, ignoring ordering.
//
// Both slices should not contain duplicated elements.
func SliceContentEq[T comparable](a []T, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	bset := map[T]struct{}{}
	for _, vb := range b {
		bset[vb] = struct{}{}
	}
	for _, va := range a {
		if _, ok := bset[va]; !ok {
			return false
		}
	}
	return true
}

// SliceContentEqWith is SliceContentEq with an explicit equality predicate.
func SliceContentEqWith[T any, U any](a []T, b []U, pred func(a T, b U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	matched := make([]bool, len(b))
A:
	for _, va := range a {
		for nth, vb := range b {
			if matched[nth] {
				continue
			}
			if pred(va, vb) {
				matched[nth] = true
				continue A
			}
		}
		return false
	}
	return true
}

func MapEq[K comparable, V comparable](a map[K]V, b map[K]V) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || va != vb {
			return false
		}
	}
	return true
}
