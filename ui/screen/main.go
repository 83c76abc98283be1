package screen

import (
	"fmt"
	"time"

	"hwpanel-go/bus"
	"hwpanel-go/services/telemetry"
	"hwpanel-go/types"
	"hwpanel-go/ui/widget"
	"hwpanel-go/x/strx"
)

// Main is the metrics dashboard.
type Main struct {
	*page
	metrics MetricsSource
	net     Connectivity
	now     func() time.Time
	stale   time.Duration

	cpu, gpu  deviceRow
	ram       *widget.Metric
	cores     *widget.CoreLoad
	status    *widget.Label
	wasFresh  bool
	firstDraw bool
	// coresFed is the UpdatedMs of the last sample given to the core bars.
	coresFed int64
}

type deviceRow struct {
	load, temp, power, fan *widget.Metric
}

func (r deviceRow) all() []*widget.Metric { return []*widget.Metric{r.load, r.temp, r.power, r.fan} }

func (r deviceRow) set(v types.DeviceReadings) {
	r.load.SetValue(v.Load)
	r.temp.SetValue(v.Temp)
	r.power.SetValue(v.Power)
	r.fan.SetValue(v.Fan)
}

func NewMain(d Deps) (Screen, error) {
	w, h, err := canvasSize(d)
	if err != nil {
		return nil, err
	}
	now := d.Clock
	if now == nil {
		now = time.Now
	}
	stale := d.Info.StaleTimeout
	if stale <= 0 {
		stale = 5 * time.Second
	}
	s := &Main{page: newPage(types.ScreenMain, d), metrics: d.Metrics, net: d.Network, now: now, stale: stale, firstDraw: true}

	s.mgr.Add(widget.NewLabel(widget.LabelConfig{
		Common: widget.Common{Name: "title", Rect: types.Rect{X: 4, Y: 2, W: w/2 - 4, H: 14}},
		Text:   strx.Coalesce(d.Info.Title, "hwpanel"),
		Color:  d.Widgets.Theme.Accent,
	}))
	s.mgr.Add(widget.NewClock(widget.ClockConfig{
		Common: widget.Common{Name: "clock", Rect: types.Rect{X: w / 2, Y: 2, W: w/2 - 4, H: 14}},
		Now:    now,
		Align:  widget.AlignRight,
	}))

	colW := (w - 12) / 2
	s.cpu = newDeviceRow("cpu", "CPU", 4, 20, colW)
	s.gpu = newDeviceRow("gpu", "GPU", 8+colW, 20, colW)
	for _, m := range append(s.cpu.all(), s.gpu.all()...) {
		s.mgr.Add(m)
	}

	s.ram = widget.NewMetric(widget.MetricConfig{
		Common: widget.Common{Name: "ram", Rect: types.Rect{X: 4, Y: 96, W: w - 8, H: 22}},
		Label:  "RAM", Format: "%.0f%%", Max: 100, Warn: 80, Critical: 95,
	})
	s.mgr.Add(s.ram)

	coresY := int16(124)
	coresH := h - coresY - 34
	if coresH > 8 {
		s.cores = widget.NewCoreLoad(widget.CoreLoadConfig{
			Common: widget.Common{Name: "cores", Rect: types.Rect{X: 4, Y: coresY, W: w - 8, H: coresH}},
			Cores:  max(d.Info.Cores, 1),
			Up:     d.Info.Up,
			Down:   d.Info.Down,
		})
		s.mgr.Add(s.cores)
	}

	s.status = widget.NewLabel(widget.LabelConfig{
		Common: widget.Common{Name: "status", Rect: types.Rect{X: 4, Y: h - 28, W: w - 104, H: 24}},
		Muted:  true,
	})
	s.mgr.Add(s.status)
	s.mgr.Add(widget.NewButton(widget.ButtonConfig{
		Common:  widget.Common{Name: "settings", Rect: types.Rect{X: w - 94, Y: h - 30, W: 90, H: 28}},
		Label:   "Settings",
		OnPress: s.publish(d.Bus, bus.ActionShowSettings),
	}))
	return s, nil
}

func newDeviceRow(name, label string, x, y, w int16) deviceRow {
	m := func(key, text, format string, ry, rh int16, bar bool, warn, crit float64) *widget.Metric {
		cfg := widget.MetricConfig{
			Common: widget.Common{Name: name + "." + key, Rect: types.Rect{X: x, Y: ry, W: w, H: rh}},
			Label:  text, Format: format, Warn: warn, Critical: crit,
		}
		if bar {
			cfg.Max = 100
		}
		return widget.NewMetric(cfg)
	}
	return deviceRow{
		load:  m("load", label, "%.0f%%", y, 22, true, 75, 90),
		temp:  m("temp", "temp", "%.0fC", y+26, 14, false, 75, 90),
		power: m("power", "power", "%.0fW", y+42, 14, false, 0, 0),
		fan:   m("fan", "fan", "%.0f%%", y+58, 14, false, 0, 0),
	}
}

func (s *Main) metricWidgets() []*widget.Metric {
	return append(append(s.cpu.all(), s.gpu.all()...), s.ram)
}

func (s *Main) Draw(force bool) {
	var snap *types.MetricsSnapshot
	if s.metrics != nil {
		snap = s.metrics.Load()
	}
	now := s.now()
	fresh := telemetry.IsFresh(snap, now.UnixMilli(), s.stale.Milliseconds())

	if fresh {
		s.cpu.set(snap.CPU)
		s.gpu.set(snap.GPU)
		s.ram.SetValue(snap.RAMLoad)
		for _, m := range s.metricWidgets() {
			m.MarkDataFresh()
		}
		if s.cores != nil {
			s.cores.MarkDataFresh()
			// Each sample is smoothed once, not once per frame.
			if snap.UpdatedMs != s.coresFed {
				s.cores.SetLoads(snap.CoreLoads)
				s.coresFed = snap.UpdatedMs
			}
		}
	} else {
		for _, m := range s.metricWidgets() {
			m.MarkDataStale()
		}
		if s.cores != nil {
			s.cores.MarkDataStale()
			s.coresFed = 0
		}
	}
	if fresh != s.wasFresh || s.firstDraw {
		s.firstDraw = false
		s.wasFresh = fresh
		s.log.Debug().Bool("fresh", fresh).Msg("metrics freshness changed")
	}
	s.status.SetText(s.statusText(snap, fresh, now))
	s.mgr.UpdateAndDraw(force)
}

func (s *Main) statusText(snap *types.MetricsSnapshot, fresh bool, now time.Time) string {
	net := "net ?"
	if s.net != nil {
		net = onOff(s.net.IsConnected(), "online", "offline")
	}
	switch {
	case fresh:
		return net
	case snap == nil || snap.UpdatedMs == 0:
		return net + " | no data"
	default:
		age := now.Sub(time.UnixMilli(snap.UpdatedMs)).Truncate(time.Second)
		return fmt.Sprintf("%s | stale %s", net, age)
	}
}
