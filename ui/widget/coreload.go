package widget

import (
	"image/color"
	"slices"

	"hwpanel-go/drivers/surface"
	"hwpanel-go/services/telemetry"
	"hwpanel-go/types"
)

type CoreLoadConfig struct {
	Common
	// Cores is the maximum number of bars.
	Cores int
	// Up and Down are the smoothing factors for rising and falling load.
	Up, Down float64
}

// CoreLoad draws one smoothed load bar per CPU core.
type CoreLoad struct {
	Base
	noHooks
	smoother *telemetry.Smoother
	values   []int
}

func NewCoreLoad(cfg CoreLoadConfig) *CoreLoad {
	w := &CoreLoad{smoother: telemetry.NewSmoother(cfg.Cores, cfg.Up, cfg.Down)}
	w.bind(cfg.Common, w)
	return w
}

// Values are the smoothed loads currently shown.
func (w *CoreLoad) Values() []int { return w.values }

// SetLoads folds a new sample into the smoother.
func (w *CoreLoad) SetLoads(loads []float64) {
	n := min(len(loads), w.smoother.Channels())
	v := w.smoother.Update(loads)[:n]
	if len(v) != len(w.values) {
		w.values = v
		w.MarkDirty()
		return
	}
	if !slices.Equal(v, w.values) {
		w.values = v
		w.refresh()
	}
}

// MarkDataStale also drops smoothing history so fresh data seeds anew.
func (w *CoreLoad) MarkDataStale() {
	if !w.Stale() {
		w.smoother.Reset()
		w.values = nil
	}
	w.Base.MarkDataStale()
}

func (w *CoreLoad) drawStatic(c surface.Canvas) error {
	th := w.theme()
	r := w.Rect()
	fillRect(c, r, th.Background)
	c.FillRect(r.X, r.Y+r.H-1, r.W, 1, th.Muted)
	return nil
}

func (w *CoreLoad) drawDynamic(c surface.Canvas) error {
	th := w.theme()
	r := w.Rect()
	plot := types.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H - 1}

	if w.Stale() || len(w.values) == 0 {
		fillRect(c, plot, th.Background)
		drawText(c, plot, "no data", AlignCenter, th.Muted)
		return nil
	}

	n := int16(len(w.values))
	gap := int16(1)
	if plot.W < n*2 {
		gap = 0
	}
	bw := (plot.W - (n-1)*gap) / n
	if bw < 1 {
		bw = 1
	}
	for i, v := range w.values {
		x := plot.X + int16(i)*(bw+gap)
		if x >= plot.X+plot.W {
			break
		}
		h := int16(int(plot.H) * min(max(v, 0), 100) / 100)
		c.FillRect(x, plot.Y, bw, plot.H-h, th.Background)
		if h > 0 {
			c.FillRect(x, plot.Y+plot.H-h, bw, h, loadColor(v, th))
		}
	}
	return nil
}

func loadColor(v int, th Theme) color.RGBA {
	switch {
	case v >= 90:
		return th.Critical
	case v >= 70:
		return th.Warn
	}
	return th.Accent
}
