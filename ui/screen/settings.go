package screen

import (
	"fmt"

	"hwpanel-go/bus"
	"hwpanel-go/types"
	"hwpanel-go/ui/widget"
	"hwpanel-go/x/strx"
)

// Settings exposes brightness, refresh, navigation and reset.
type Settings struct {
	*page
	brightness func() uint8
	net        Connectivity
	core       *types.CoreState

	level   *widget.Label
	netInfo *widget.Label
	timeInf *widget.Label
}

func NewSettings(d Deps) (Screen, error) {
	w, h, err := canvasSize(d)
	if err != nil {
		return nil, err
	}
	s := &Settings{page: newPage(types.ScreenSettings, d), brightness: d.Brightness, net: d.Network, core: d.Core}

	label := func(name, text string, y int16) *widget.Label {
		l := widget.NewLabel(widget.LabelConfig{
			Common: widget.Common{Name: name, Rect: types.Rect{X: 4, Y: y, W: w - 8, H: 14}},
			Text:   text,
		})
		s.mgr.Add(l)
		return l
	}
	button := func(name, text string, r types.Rect, a bus.Action) {
		s.mgr.Add(widget.NewButton(widget.ButtonConfig{
			Common:  widget.Common{Name: name, Rect: r},
			Label:   text,
			OnPress: s.publish(d.Bus, a),
		}))
	}

	s.mgr.Add(widget.NewLabel(widget.LabelConfig{
		Common: widget.Common{Name: "title", Rect: types.Rect{X: 4, Y: 4, W: w - 8, H: 16}},
		Text:   "Settings",
		Align:  widget.AlignCenter,
		Color:  d.Widgets.Theme.Accent,
	}))

	s.level = widget.NewLabel(widget.LabelConfig{
		Common: widget.Common{Name: "brightness", Rect: types.Rect{X: 4, Y: 30, W: w - 120, H: 32}},
	})
	s.mgr.Add(s.level)
	button("dimmer", "-", types.Rect{X: w - 112, Y: 30, W: 52, H: 32}, bus.ActionBrightnessDown)
	button("brighter", "+", types.Rect{X: w - 56, Y: 30, W: 52, H: 32}, bus.ActionBrightnessUp)

	label("endpoint", "src "+strx.Coalesce(d.Info.Endpoint, "?"), 72)
	s.netInfo = label("network", "", 88)
	s.timeInf = label("time", "", 104)

	bw := (w - 16) / 3
	by := h - 36
	button("back", "Back", types.Rect{X: 4, Y: by, W: bw, H: 32}, bus.ActionShowMain)
	button("refresh", "Refresh", types.Rect{X: 8 + bw, Y: by, W: bw, H: 32}, bus.ActionRefreshMetrics)
	button("reset", "Reset", types.Rect{X: 12 + 2*bw, Y: by, W: bw, H: 32}, bus.ActionResetDevice)
	return s, nil
}

func (s *Settings) Draw(force bool) {
	if s.brightness != nil {
		s.level.SetText(fmt.Sprintf("Brightness %d%%", s.brightness()))
	} else {
		s.level.SetText("Brightness fixed")
	}
	net := "unknown"
	if s.net != nil {
		net = onOff(s.net.IsConnected(), "online", "offline")
	}
	s.netInfo.SetText("network " + net)
	tm := "unknown"
	if s.core != nil {
		tm = onOff(s.core.TimeSynced(), "synced", "not synced")
	}
	s.timeInf.SetText("time " + tm)
	s.mgr.UpdateAndDraw(force)
}
