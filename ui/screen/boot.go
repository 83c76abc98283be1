package screen

import (
	"hwpanel-go/types"
	"hwpanel-go/ui/widget"
	"hwpanel-go/x/strx"
)

// Boot shows bring-up progress and the on-screen log.
type Boot struct {
	*page
	status  *widget.Label
	getStat func() string
}

func NewBoot(d Deps) (Screen, error) {
	w, h, err := canvasSize(d)
	if err != nil {
		return nil, err
	}
	s := &Boot{page: newPage(types.ScreenBoot, d), getStat: d.BootStatus}

	title := strx.Coalesce(d.Info.Title, "hwpanel")
	if d.Info.Version != "" {
		title += " " + d.Info.Version
	}
	s.mgr.Add(widget.NewLabel(widget.LabelConfig{
		Common: widget.Common{Name: "title", Rect: types.Rect{X: 4, Y: 4, W: w - 8, H: 16}},
		Text:   title,
		Align:  widget.AlignCenter,
		Color:  d.Widgets.Theme.Accent,
	}))
	s.status = widget.NewLabel(widget.LabelConfig{
		Common: widget.Common{Name: "status", Rect: types.Rect{X: 4, Y: 22, W: w - 8, H: 14}},
		Text:   "starting",
		Align:  widget.AlignCenter,
		Muted:  true,
	})
	s.mgr.Add(s.status)
	s.mgr.Add(widget.NewConsole(widget.ConsoleConfig{
		Common:     widget.Common{Name: "console", Rect: types.Rect{X: 4, Y: 40, W: w - 8, H: h - 44}},
		Source:     d.Console,
		TimeLayout: "15:04:05",
	}))
	return s, nil
}

func (s *Boot) Draw(force bool) {
	if s.getStat != nil {
		s.status.SetText(s.getStat())
	}
	s.mgr.UpdateAndDraw(force)
}
