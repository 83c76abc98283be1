// Package mathx holds the small numeric helpers used by drawing,
// smoothing and touch calibration.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]; swapped bounds are accepted.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	lo, hi = Min(lo, hi), Max(lo, hi)
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

func Min[T constraints.Ordered](a, b T) T {
	if b < a {
		return b
	}
	return a
}

func Max[T constraints.Ordered](a, b T) T {
	if b > a {
		return b
	}
	return a
}
