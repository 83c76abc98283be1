package widget

import (
	"fmt"
	"image/color"

	"hwpanel-go/drivers/surface"
	"hwpanel-go/types"
	"hwpanel-go/x/mathx"
)

// Placeholder is shown instead of a value while data is stale.
const Placeholder = "--"

type MetricConfig struct {
	Common
	Label string
	// Format renders the value, e.g. "%.0f%%". Defaults to "%.0f".
	Format string
	// Max is the full scale of the bar drawn under the text; zero hides it.
	Max float64
	// Warn and Critical colour the value once reached; zero disables.
	Warn, Critical float64
}

// Metric shows one labelled reading, optionally with a bar.
type Metric struct {
	Base
	noHooks
	cfg   MetricConfig
	value float64
	text  string
}

func NewMetric(cfg MetricConfig) *Metric {
	if cfg.Format == "" {
		cfg.Format = "%.0f"
	}
	m := &Metric{cfg: cfg, text: Placeholder}
	m.bind(cfg.Common, m)
	return m
}

func (m *Metric) Value() float64 { return m.value }
func (m *Metric) Text() string   { return m.text }

// SetValue updates the reading; a redraw is only scheduled when the
// rendered text changes.
func (m *Metric) SetValue(v float64) {
	s := fmt.Sprintf(m.cfg.Format, v)
	m.value = v
	if s == m.text {
		return
	}
	m.text = s
	m.refresh()
}

func (m *Metric) rows(c surface.Canvas) (label, value, bar types.Rect) {
	r := m.Rect()
	_, lh := c.TextSize(m.cfg.Label)
	lh = mathx.Min(lh, r.H)
	lw, _ := c.TextSize(m.cfg.Label + " ")
	lw = mathx.Min(lw, r.W)
	label = types.Rect{X: r.X, Y: r.Y, W: lw, H: lh}
	value = types.Rect{X: r.X + lw, Y: r.Y, W: r.W - lw, H: lh}
	if m.cfg.Max > 0 && r.H > lh+2 {
		bar = types.Rect{X: r.X, Y: r.Y + lh + 2, W: r.W, H: mathx.Min(r.H-lh-2, 6)}
	}
	return
}

func (m *Metric) drawStatic(c surface.Canvas) error {
	th := m.theme()
	fillRect(c, m.Rect(), th.Background)
	label, _, bar := m.rows(c)
	drawText(c, label, m.cfg.Label, AlignLeft, th.Muted)
	if !bar.Empty() {
		outline(c, bar, th.Muted)
	}
	return nil
}

func (m *Metric) drawDynamic(c surface.Canvas) error {
	th := m.theme()
	_, value, bar := m.rows(c)
	fillRect(c, value, th.Background)

	if m.Stale() {
		drawText(c, value, Placeholder, AlignRight, th.Muted)
		if !bar.Empty() {
			fillRect(c, inset(bar), th.Background)
		}
		return nil
	}

	col := m.colorFor(m.value, th)
	drawText(c, value, m.text, AlignRight, col)
	if !bar.Empty() {
		in := inset(bar)
		fillRect(c, in, th.Background)
		frac := mathx.Clamp(m.value/m.cfg.Max, 0, 1)
		w := int16(mathx.RoundInt(frac * float64(in.W)))
		if w > 0 {
			c.FillRect(in.X, in.Y, w, in.H, col)
		}
	}
	return nil
}

func (m *Metric) colorFor(v float64, th Theme) color.RGBA {
	switch {
	case m.cfg.Critical > 0 && v >= m.cfg.Critical:
		return th.Critical
	case m.cfg.Warn > 0 && v >= m.cfg.Warn:
		return th.Warn
	}
	return th.Foreground
}

func inset(r types.Rect) types.Rect {
	if r.W <= 2 || r.H <= 2 {
		return types.Rect{}
	}
	return types.Rect{X: r.X + 1, Y: r.Y + 1, W: r.W - 2, H: r.H - 2}
}
