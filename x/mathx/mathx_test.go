package mathx

import "testing"

func TestClampAcceptsSwappedBounds(t *testing.T) {
	if Clamp(5, 10, 0) != 5 || Clamp(-1, 10, 0) != 0 || Clamp(11.5, 0.0, 10.0) != 10 {
		t.Fatal("clamp mismatch")
	}
	if Min(3, -2) != -2 || Max(uint8(3), 7) != 7 {
		t.Fatal("min/max mismatch")
	}
}

func TestLerpEndpointsAndClamp(t *testing.T) {
	if Lerp(10, 20, 0) != 10 || Lerp(10, 20, 1) != 20 || Lerp(10, 20, 0.5) != 15 {
		t.Fatal("lerp mismatch")
	}
	if Lerp(10, 20, 7) != 20 || Lerp(10, 20, -1) != 10 {
		t.Fatal("t should be clamped")
	}
}

func TestRoundInt(t *testing.T) {
	cases := map[float64]int{0.4: 0, 0.5: 1, 49.5: 50, -0.5: -1, -1.4: -1}
	for in, want := range cases {
		if got := RoundInt(in); got != want {
			t.Fatalf("RoundInt(%v)=%d want %d", in, got, want)
		}
	}
}

func TestMapU16(t *testing.T) {
	cases := []struct {
		name                  string
		x, inLo, inHi, lo, hi uint16
		want                  uint16
	}{
		{"midpoint", 50, 0, 100, 0, 255, 127},
		{"above input", 150, 0, 100, 0, 255, 255},
		{"below input", 0, 10, 100, 10, 255, 10},
		{"descending input", 3900, 3900, 200, 0, 479, 0},
		{"descending input end", 200, 3900, 200, 0, 479, 479},
		{"descending output", 0, 0, 100, 255, 0, 255},
		{"degenerate input", 7, 5, 5, 9, 20, 9},
	}
	for _, c := range cases {
		if got := MapU16(c.x, c.inLo, c.inHi, c.lo, c.hi); got != c.want {
			t.Errorf("%s: MapU16(%d)=%d want %d", c.name, c.x, got, c.want)
		}
	}
}
