package cmp

// SliceEq reports whether a and b hold the same elements in the same order.
func SliceEq[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SliceContentEq reports whether a and b hold the same elements,
// ignoring order and multiplicity of matching.
func SliceContentEq[T comparable](a, b []T) bool {
	return SliceContentEqWith(a, b, func(x, y T) bool { return x == y })
}

// SliceContentEqWith is SliceContentEq with a custom element equality.
func SliceContentEqWith[T any, U any](a []T, b []U, eq func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}

	rest := append([]U(nil), b...)

A:
	for _, x := range a {
		for i, y := range rest {
			if eq(x, y) {
				rest = append(rest[:i], rest[i+1:]...)
				continue A
			}
		}
		return false
	}

	return len(rest) == 0
}

// MapEq reports whether a and b hold the same key-value pairs.
func MapEq[K comparable, V comparable](a, b map[K]V) bool {
	return MapEqWith(a, b, func(x, y V) bool { return x == y })
}

// MapEqWith is MapEq with a custom value equality.
func MapEqWith[K comparable, V any](a, b map[K]V, eq func(V, V) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !eq(va, vb) {
			return false
		}
	}
	return true
}
