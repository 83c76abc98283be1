package widget

import (
	"time"

	"hwpanel-go/drivers/surface"
)

type ClockConfig struct {
	Common
	// Layout is a time.Format layout; defaults to "15:04:05".
	Layout string
	// Now supplies the displayed time; defaults to the widget context clock.
	Now   func() time.Time
	Align Align
}

// Clock shows the current time, redrawn when the text changes.
type Clock struct {
	Base
	noHooks
	layout string
	now    func() time.Time
	align  Align
	shown  string
}

func NewClock(cfg ClockConfig) *Clock {
	if cfg.Layout == "" {
		cfg.Layout = time.TimeOnly
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	w := &Clock{layout: cfg.Layout, now: cfg.Now, align: cfg.Align}
	w.bind(cfg.Common, w)
	return w
}

func (w *Clock) Text() string { return w.shown }

func (w *Clock) drawStatic(c surface.Canvas) error {
	fillRect(c, w.Rect(), w.theme().Background)
	w.shown = ""
	return nil
}

func (w *Clock) drawDynamic(c surface.Canvas) error {
	now := w.now
	if now == nil {
		now = w.ctx.now
	}
	s := now().Format(w.layout)
	if s == w.shown {
		return nil
	}
	th := w.theme()
	fillRect(c, w.Rect(), th.Background)
	drawText(c, w.Rect(), s, w.align, th.Foreground)
	w.shown = s
	return nil
}
