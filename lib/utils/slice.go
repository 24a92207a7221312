package utils

// Clone returns a copy of a that never aliases the input, nil stays nil.
func Clone[T any](a []T) []T {
	if a == nil {
		return nil
	}
	res := make([]T, len(a))
	copy(res, a)
	return res
}
