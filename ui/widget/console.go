package widget

import (
	"image/color"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/drivers/surface"
	"hwpanel-go/services/logging"
	"hwpanel-go/types"
)

// LineSource provides console lines and a counter that changes with them.
type LineSource interface {
	Lines() []logging.Line
	Version() uint64
}

type ConsoleConfig struct {
	Common
	Source LineSource
	// TimeLayout prefixes each line; empty omits the time.
	TimeLayout string
}

// Console renders the newest log lines that fit, oldest at the top.
type Console struct {
	Base
	noHooks
	src     LineSource
	layout  string
	version uint64
	painted bool
}

func NewConsole(cfg ConsoleConfig) *Console {
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	w := &Console{src: cfg.Source, layout: cfg.TimeLayout}
	w.bind(cfg.Common, w)
	return w
}

func (w *Console) drawStatic(c surface.Canvas) error {
	fillRect(c, w.Rect(), w.theme().Background)
	w.painted = false
	return nil
}

func (w *Console) drawDynamic(c surface.Canvas) error {
	if w.src == nil {
		return nil
	}
	v := w.src.Version()
	if w.painted && v == w.version {
		return nil
	}
	th := w.theme()
	r := w.Rect()
	_, lh := c.TextSize("M")
	if lh <= 0 {
		return nil
	}
	rows := int(r.H / lh)
	lines := w.src.Lines()
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	fillRect(c, r, th.Background)
	for i, l := range lines {
		text := l.Message
		if w.layout != "" {
			text = l.Time.Format(w.layout) + " " + text
		}
		row := types.Rect{X: r.X, Y: r.Y + int16(i)*lh, W: r.W, H: lh}
		drawText(c, row, text, AlignLeft, levelColor(l.Level, th))
	}
	w.version = v
	w.painted = true
	return nil
}

func levelColor(l zerolog.Level, th Theme) color.RGBA {
	switch {
	case l >= zerolog.ErrorLevel:
		return th.Critical
	case l == zerolog.WarnLevel:
		return th.Warn
	case l <= zerolog.DebugLevel:
		return th.Muted
	}
	return th.Foreground
}
