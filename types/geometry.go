package types

// Rect is a widget's on-screen area in panel pixels.
type Rect struct {
	X, Y int16
	W, H int16
}

// Contains reports whether (x, y) lies inside r. The right and bottom
// edges are exclusive.
func (r Rect) Contains(x, y int16) bool {
	return x >= r.X && y >= r.Y && int32(x) < int32(r.X)+int32(r.W) && int32(y) < int32(r.Y)+int32(r.H)
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }
