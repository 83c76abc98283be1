// Package widget implements the widget lifecycle shared by every visual
// element on the panel and the Manager that drives a screen's widgets.
//
// Widgets are not safe for concurrent use. They are only touched from the
// render context while it holds the display lock.
package widget

import (
	"image/color"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/drivers/surface"
	"hwpanel-go/types"
)

type State uint8

const (
	StateUninitialized State = iota
	StateReady
	StateHidden
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateHidden:
		return "hidden"
	case StateError:
		return "error"
	}
	return "unknown"
}

// DefaultDebounce absorbs panel bounce after an accepted touch.
const DefaultDebounce = 200 * time.Millisecond

// Context carries what a widget needs once initialised.
type Context struct {
	Canvas surface.Canvas
	Log    zerolog.Logger
	Theme  Theme
	Now    func() time.Time
}

func (c Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

type Theme struct {
	Background color.RGBA
	Foreground color.RGBA
	Muted      color.RGBA
	Accent     color.RGBA
	Warn       color.RGBA
	Critical   color.RGBA
	ButtonFace color.RGBA
	ButtonText color.RGBA
}

func DefaultTheme() Theme {
	return Theme{
		Background: color.RGBA{0x00, 0x00, 0x00, 0xff},
		Foreground: color.RGBA{0xe8, 0xe8, 0xe8, 0xff},
		Muted:      color.RGBA{0x70, 0x70, 0x70, 0xff},
		Accent:     color.RGBA{0x2e, 0x9c, 0xd8, 0xff},
		Warn:       color.RGBA{0xf0, 0xb0, 0x20, 0xff},
		Critical:   color.RGBA{0xe0, 0x30, 0x30, 0xff},
		ButtonFace: color.RGBA{0x20, 0x30, 0x40, 0xff},
		ButtonText: color.RGBA{0xff, 0xff, 0xff, 0xff},
	}
}

// Widget is the lifecycle every visual element obeys.
type Widget interface {
	Name() string
	Rect() types.Rect
	State() State
	Initialize(ctx Context) error
	Draw(force bool)
	SetVisible(visible bool)
	HandleTouch(x, y int16) bool
	MarkDirty()
	MarkDataStale()
	MarkDataFresh()
	Cleanup()
}

// Common is the configuration shared by all widgets.
type Common struct {
	Name string
	Rect types.Rect
	// Hidden creates the widget in StateHidden.
	Hidden bool
	// Interval forces a dynamic redraw this often; zero redraws on change only.
	Interval time.Duration
	// Debounce is the per-widget touch window; zero selects DefaultDebounce.
	Debounce time.Duration
}
