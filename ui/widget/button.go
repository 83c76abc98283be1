package widget

import (
	"hwpanel-go/drivers/surface"
)

type ButtonConfig struct {
	Common
	Label   string
	OnPress func()
}

// Button runs OnPress when touched.
type Button struct {
	Base
	noHooks
	label   string
	onPress func()
	presses int
}

func NewButton(cfg ButtonConfig) *Button {
	b := &Button{label: cfg.Label, onPress: cfg.OnPress}
	b.bind(cfg.Common, b)
	return b
}

func (b *Button) Label() string { return b.label }
func (b *Button) Presses() int  { return b.presses }

func (b *Button) SetLabel(s string) {
	if s == b.label {
		return
	}
	b.label = s
	b.MarkDirty()
}

func (b *Button) drawStatic(c surface.Canvas) error {
	th := b.theme()
	r := b.Rect()
	fillRect(c, r, th.ButtonFace)
	outline(c, r, th.Accent)
	drawText(c, r, b.label, AlignCenter, th.ButtonText)
	return nil
}

func (b *Button) onTouch(x, y int16) (bool, error) {
	b.presses++
	if b.onPress != nil {
		b.onPress()
	}
	return true, nil
}
