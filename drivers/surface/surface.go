// Package surface adapts a raw panel driver to the drawing, touch and
// backlight operations the render pipeline needs.
//
// Nothing here is safe for concurrent use: callers serialise access
// through a Lock.
package surface

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/touch"

	"hwpanel-go/errcode"
	"hwpanel-go/x/mathx"
)

// Canvas is the drawing subset widgets use.
type Canvas interface {
	Size() (w, h int16)
	FillRect(x, y, w, h int16, c color.RGBA)
	FillScreen(c color.RGBA)
	DrawString(x, y int16, s string, c color.RGBA)
	TextSize(s string) (w, h int16)
}

// rectFiller is implemented by drivers with an accelerated fill
// (ili9341, st7789, ...).
type rectFiller interface {
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

// Options tunes a Panel. Zero values select the defaults.
type Options struct {
	// Touch is the optional touch controller.
	Touch touch.Pointer
	// TouchThreshold is the minimum pressure (Point.Z) counted as a touch.
	TouchThreshold int
	// Calibration maps raw touch readings to panel pixels; nil keeps raw values.
	Calibration *Calibration
	// Backlight drives the backlight with a level in [0..255]; nil means fixed.
	Backlight func(level uint8) error
	// Init is called once by Panel.Init, e.g. to configure the SPI bus.
	Init func() error
	// Face is the text face; defaults to basicfont.Face7x13.
	Face font.Face
}

// Calibration describes the raw touch range reported by the controller.
type Calibration struct {
	MinX, MaxX, MinY, MaxY uint16
	SwapXY                 bool
}

// Panel is the display surface: a drivers.Displayer plus touch and backlight.
type Panel struct {
	dev  drivers.Displayer
	opts Options

	w, h    int16
	ascent  int
	lineH   int16
	scratch *image.RGBA

	brightness uint8
	ready      bool
}

// NewPanel wraps dev. dev must not be nil.
func NewPanel(dev drivers.Displayer, opts Options) *Panel {
	if opts.Face == nil {
		opts.Face = basicfont.Face7x13
	}
	m := opts.Face.Metrics()
	return &Panel{
		dev:        dev,
		opts:       opts,
		ascent:     m.Ascent.Ceil(),
		lineH:      int16(m.Height.Ceil()),
		brightness: 100,
	}
}

// Init prepares the panel. It is safe to call more than once.
func (p *Panel) Init() error {
	if p.dev == nil {
		return errcode.DisplayInit
	}
	if p.opts.Init != nil && !p.ready {
		if err := p.opts.Init(); err != nil {
			return errcode.Wrap(errcode.DisplayInit, "panel.init", err)
		}
	}
	p.w, p.h = p.dev.Size()
	if p.w <= 0 || p.h <= 0 {
		return &errcode.E{C: errcode.DisplayInit, Op: "panel.init", Msg: "zero-sized display"}
	}
	p.ready = true
	return p.SetBrightness(p.brightness)
}

func (p *Panel) Size() (w, h int16) {
	if !p.ready {
		return p.dev.Size()
	}
	return p.w, p.h
}

// FillRect paints the clipped rectangle.
func (p *Panel) FillRect(x, y, w, h int16, c color.RGBA) {
	x0, y0, x1, y1, ok := p.clip(x, y, w, h)
	if !ok {
		return
	}
	if f, ok := p.dev.(rectFiller); ok {
		if f.FillRectangle(x0, y0, x1-x0, y1-y0, c) == nil {
			return
		}
	}
	for yy := y0; yy < y1; yy++ {
		for xx := x0; xx < x1; xx++ {
			p.dev.SetPixel(xx, yy, c)
		}
	}
}

func (p *Panel) FillScreen(c color.RGBA) {
	w, h := p.Size()
	p.FillRect(0, 0, w, h, c)
}

// TextSize returns the pixel extent of s in the panel face.
func (p *Panel) TextSize(s string) (w, h int16) {
	return int16(font.MeasureString(p.opts.Face, s).Ceil()), p.lineH
}

// DrawString renders s with its top-left corner at (x, y). Only glyph
// pixels are written; the background is left as is.
func (p *Panel) DrawString(x, y int16, s string, c color.RGBA) {
	if s == "" {
		return
	}
	tw, th := p.TextSize(s)
	if tw <= 0 {
		return
	}
	buf := p.scratchFor(int(tw), int(th))
	d := font.Drawer{
		Dst:  buf,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 0xff}),
		Face: p.opts.Face,
		Dot:  fixed.P(0, p.ascent),
	}
	d.DrawString(s)

	sw, sh := p.Size()
	for py := 0; py < int(th); py++ {
		yy := int(y) + py
		if yy < 0 || yy >= int(sh) {
			continue
		}
		for px := 0; px < int(tw); px++ {
			xx := int(x) + px
			if xx < 0 || xx >= int(sw) {
				continue
			}
			if buf.RGBAAt(px, py).A >= 0x80 {
				p.dev.SetPixel(int16(xx), int16(yy), c)
			}
		}
	}
}

// Flush pushes buffered pixels to the glass.
func (p *Panel) Flush() error { return p.dev.Display() }

// Touch reads one touch sample. ok is false when nothing is pressed or no
// touch controller is attached.
func (p *Panel) Touch() (x, y int16, ok bool) {
	if p.opts.Touch == nil {
		return 0, 0, false
	}
	pt := p.opts.Touch.ReadTouchPoint()
	if pt.Z <= p.opts.TouchThreshold {
		return 0, 0, false
	}
	w, h := p.Size()
	if cal := p.opts.Calibration; cal != nil {
		rx, ry := uint16(mathx.Clamp(pt.X, 0, 0xffff)), uint16(mathx.Clamp(pt.Y, 0, 0xffff))
		if cal.SwapXY {
			rx, ry = ry, rx
		}
		x = int16(mathx.MapU16(rx, cal.MinX, cal.MaxX, 0, uint16(w-1)))
		y = int16(mathx.MapU16(ry, cal.MinY, cal.MaxY, 0, uint16(h-1)))
		return x, y, true
	}
	if pt.X < 0 || pt.Y < 0 || pt.X >= int(w) || pt.Y >= int(h) {
		return 0, 0, false
	}
	return int16(pt.X), int16(pt.Y), true
}

// SetBrightness sets the backlight as a percentage in [0..100].
func (p *Panel) SetBrightness(percent uint8) error {
	percent = mathx.Min(percent, 100)
	p.brightness = percent
	if p.opts.Backlight == nil {
		return nil
	}
	return p.opts.Backlight(uint8(mathx.MapU16(uint16(percent), 0, 100, 0, 255)))
}

func (p *Panel) Brightness() uint8 { return p.brightness }

func (p *Panel) clip(x, y, w, h int16) (x0, y0, x1, y1 int16, ok bool) {
	sw, sh := p.Size()
	x0, y0 = mathx.Max(x, 0), mathx.Max(y, 0)
	x1 = int16(mathx.Min(int32(x)+int32(w), int32(sw)))
	y1 = int16(mathx.Min(int32(y)+int32(h), int32(sh)))
	return x0, y0, x1, y1, x1 > x0 && y1 > y0
}

func (p *Panel) scratchFor(w, h int) *image.RGBA {
	if p.scratch == nil || p.scratch.Rect.Dx() < w || p.scratch.Rect.Dy() < h {
		p.scratch = image.NewRGBA(image.Rect(0, 0, mathx.Max(w, 64), mathx.Max(h, 16)))
	}
	draw.Draw(p.scratch, p.scratch.Rect, image.Transparent, image.Point{}, draw.Src)
	return p.scratch
}
