package widget

import (
	"image/color"

	"hwpanel-go/drivers/surface"
	"hwpanel-go/types"
	"hwpanel-go/x/strx"
)

type Align uint8

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// fit truncates s so it renders within w pixels.
func fit(c surface.Canvas, s string, w int16) string {
	tw, _ := c.TextSize(s)
	if tw <= w {
		return s
	}
	cw, _ := c.TextSize("M")
	if cw <= 0 {
		return ""
	}
	return strx.Truncate(s, int(w/cw))
}

// drawText renders s inside r with horizontal alignment a, vertically centred.
func drawText(c surface.Canvas, r types.Rect, s string, a Align, col color.RGBA) {
	s = fit(c, s, r.W)
	if s == "" {
		return
	}
	tw, th := c.TextSize(s)
	x := r.X
	switch a {
	case AlignCenter:
		x += (r.W - tw) / 2
	case AlignRight:
		x += r.W - tw
	}
	y := r.Y + (r.H-th)/2
	c.DrawString(x, y, s, col)
}

func fillRect(c surface.Canvas, r types.Rect, col color.RGBA) {
	c.FillRect(r.X, r.Y, r.W, r.H, col)
}

// outline draws a one pixel border just inside r.
func outline(c surface.Canvas, r types.Rect, col color.RGBA) {
	c.FillRect(r.X, r.Y, r.W, 1, col)
	c.FillRect(r.X, r.Y+r.H-1, r.W, 1, col)
	c.FillRect(r.X, r.Y, 1, r.H, col)
	c.FillRect(r.X+r.W-1, r.Y, 1, r.H, col)
}
