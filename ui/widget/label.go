package widget

import (
	"image/color"

	"hwpanel-go/drivers/surface"
)

type LabelConfig struct {
	Common
	Text  string
	Align Align
	// Color overrides the theme foreground when non-zero.
	Color color.RGBA
	Muted bool
}

// Label is a single line of text.
type Label struct {
	Base
	noHooks
	text  string
	align Align
	color color.RGBA
	muted bool
}

func NewLabel(cfg LabelConfig) *Label {
	l := &Label{text: cfg.Text, align: cfg.Align, color: cfg.Color, muted: cfg.Muted}
	l.bind(cfg.Common, l)
	return l
}

func (l *Label) Text() string { return l.text }

func (l *Label) SetText(s string) {
	if s == l.text {
		return
	}
	l.text = s
	l.MarkDirty()
}

func (l *Label) SetColor(c color.RGBA) {
	if c == l.color {
		return
	}
	l.color = c
	l.MarkDirty()
}

func (l *Label) drawStatic(c surface.Canvas) error {
	th := l.theme()
	col := th.Foreground
	switch {
	case l.color.A != 0:
		col = l.color
	case l.muted:
		col = th.Muted
	}
	fillRect(c, l.Rect(), th.Background)
	drawText(c, l.Rect(), l.text, l.align, col)
	return nil
}
