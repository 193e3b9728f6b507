package slices

// Map applies f to each element of sl and returns the results.
func Map[T any, R any](sl []T, f func(T) R) []R {
	ret := make([]R, len(sl))
	for i, v := range sl {
		ret[i] = f(v)
	}
	return ret
}

// Filter returns the elements of sl for which pred holds, keeping order.
func Filter[T any](sl []T, pred func(T) bool) []T {
	ret := []T{}
	for _, v := range sl {
		if pred(v) {
			ret = append(ret, v)
		}
	}
	return ret
}

// First returns the first element of sl for which pred holds.
func First[T any](sl []T, pred func(T) bool) (T, bool) {
	for _, v := range sl {
		if pred(v) {
			return v, true
		}
	}
	return *new(T), false
}

// Last returns the last element of sl for which pred holds.
func Last[T any](sl []T, pred func(T) bool) (T, bool) {
	for i := len(sl) - 1; 0 <= i; i-- {
		if pred(sl[i]) {
			return sl[i], true
		}
	}
	return *new(T), false
}
