package surface

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	"tinygo.org/x/drivers/touch"
)

// Framebuffer is an in-memory drivers.Displayer used when no panel is
// attached (host runs, tests). Writes go to a back buffer; Display copies
// it to the front buffer that snapshots read.
//
// It also acts as a touch.Pointer fed by Press.
type Framebuffer struct {
	back *image.RGBA

	mu      sync.Mutex
	front   *image.RGBA
	flushes int
	pending []touch.Point
}

// NewFramebuffer creates a w×h framebuffer.
func NewFramebuffer(w, h int16) *Framebuffer {
	r := image.Rect(0, 0, int(w), int(h))
	return &Framebuffer{back: image.NewRGBA(r), front: image.NewRGBA(r)}
}

func (f *Framebuffer) Size() (x, y int16) {
	b := f.back.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	f.back.SetRGBA(int(x), int(y), c)
}

// FillRectangle is the accelerated fill path.
func (f *Framebuffer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	r := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height)).Intersect(f.back.Bounds())
	for yy := r.Min.Y; yy < r.Max.Y; yy++ {
		for xx := r.Min.X; xx < r.Max.X; xx++ {
			f.back.SetRGBA(xx, yy, c)
		}
	}
	return nil
}

func (f *Framebuffer) Display() error {
	f.mu.Lock()
	copy(f.front.Pix, f.back.Pix)
	f.flushes++
	f.mu.Unlock()
	return nil
}

// At returns the pixel last written at (x, y), flushed or not.
// Only call it from the goroutine that draws.
func (f *Framebuffer) At(x, y int16) color.RGBA {
	return f.back.RGBAAt(int(x), int(y))
}

// Flushes counts Display calls.
func (f *Framebuffer) Flushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

// WritePNG encodes the last flushed frame.
func (f *Framebuffer) WritePNG(w io.Writer) error {
	f.mu.Lock()
	img := image.NewRGBA(f.front.Rect)
	copy(img.Pix, f.front.Pix)
	f.mu.Unlock()
	return png.Encode(w, img)
}

// Press queues a touch at (x, y) that the next ReadTouchPoint returns.
func (f *Framebuffer) Press(x, y int) {
	f.mu.Lock()
	f.pending = append(f.pending, touch.Point{X: x, Y: y, Z: 0xffff})
	f.mu.Unlock()
}

func (f *Framebuffer) ReadTouchPoint() touch.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return touch.Point{}
	}
	p := f.pending[0]
	f.pending = f.pending[1:]
	return p
}
