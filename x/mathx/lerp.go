package mathx

// Lerp blends a towards b by t, where t is clamped to [0..1].
// t=0 yields a, t=1 yields b.
func Lerp(a, b, t float64) float64 {
	t = Clamp(t, 0, 1)
	return a*(1-t) + b*t
}

// RoundInt rounds half away from zero.
func RoundInt(v float64) int {
	if v < 0 {
		return -int(-v + 0.5)
	}
	return int(v + 0.5)
}
