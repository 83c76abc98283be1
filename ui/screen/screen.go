// Package screen composes widgets into the panel's screens and runs the
// transition pipeline that swaps them.
package screen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hwpanel-go/bus"
	"hwpanel-go/errcode"
	"hwpanel-go/types"
	"hwpanel-go/ui/widget"
)

// Screen is a named composition of widgets.
type Screen interface {
	ID() types.ScreenID
	// OnEnter initialises the widgets. The display lock is held.
	OnEnter(ctx context.Context) error
	// OnExit releases the widgets. The display lock is held.
	OnExit() error
	Draw(force bool)
	HandleTouch(x, y int16) bool
}

// Publisher is the slice of the bus widgets publish actions on.
type Publisher interface {
	Publish(a bus.Action)
}

type MetricsSource interface {
	Load() *types.MetricsSnapshot
}

type Connectivity interface {
	IsConnected() bool
}

// Info is static text and tuning shown or used by the screens.
type Info struct {
	Title        string
	Version      string
	Endpoint     string
	StaleTimeout time.Duration
	Cores        int
	Up, Down     float64
}

// Deps is everything a Builder may wire into a screen. Nil sources are
// shown as unknown.
type Deps struct {
	Widgets    widget.Context
	Log        zerolog.Logger
	Bus        Publisher
	Console    widget.LineSource
	Metrics    MetricsSource
	Network    Connectivity
	Core       *types.CoreState
	Clock      func() time.Time
	BootStatus func() string
	Brightness func() uint8
	Info       Info
}

// Builder constructs a screen.
type Builder func(d Deps) (Screen, error)

// Factory maps screen IDs to builders.
type Factory struct {
	mu       sync.RWMutex
	builders map[types.ScreenID]Builder
}

func NewFactory() *Factory {
	return &Factory{builders: make(map[types.ScreenID]Builder)}
}

// Standard returns a factory with the boot, main and settings screens.
func Standard() *Factory {
	f := NewFactory()
	f.Register(types.ScreenBoot, NewBoot)
	f.Register(types.ScreenMain, NewMain)
	f.Register(types.ScreenSettings, NewSettings)
	return f
}

// Register installs b for id. It panics on duplicates to catch wiring
// mistakes at start-up.
func (f *Factory) Register(id types.ScreenID, b Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == types.ScreenUnset || b == nil {
		panic("screen: invalid builder registration")
	}
	if _, exists := f.builders[id]; exists {
		panic(fmt.Sprintf("screen: builder already registered for %q", id))
	}
	f.builders[id] = b
}

func (f *Factory) lookup(id types.ScreenID) (Builder, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	b, ok := f.builders[id]
	return b, ok
}

// Build constructs the screen registered for id.
func (f *Factory) Build(id types.ScreenID, d Deps) (Screen, error) {
	b, ok := f.lookup(id)
	if !ok {
		return nil, &errcode.E{C: errcode.ScreenMissing, Op: "screen.build", Msg: id.String()}
	}
	s, err := b(d)
	if err != nil {
		return nil, errcode.Wrap(errcode.ScreenMissing, "screen.build", err)
	}
	return s, nil
}

// page is the widget plumbing shared by the built-in screens.
type page struct {
	id  types.ScreenID
	mgr *widget.Manager
	log zerolog.Logger
}

func newPage(id types.ScreenID, d Deps) *page {
	return &page{id: id, mgr: widget.NewManager(d.Widgets), log: d.Log.With().Str("screen", id.String()).Logger()}
}

func (p *page) ID() types.ScreenID { return p.id }

func (p *page) OnEnter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.mgr.InitializeWidgets(); err != nil {
		p.log.Warn().Err(err).Msg("some widgets failed to initialise")
	}
	return nil
}

func (p *page) OnExit() error {
	p.mgr.Cleanup()
	return nil
}

func (p *page) HandleTouch(x, y int16) bool { return p.mgr.HandleTouch(x, y) }

func (p *page) publish(pub Publisher, a bus.Action) func() {
	return func() {
		if pub == nil {
			return
		}
		p.log.Debug().Stringer("action", a).Msg("publish")
		pub.Publish(a)
	}
}

func canvasSize(d Deps) (int16, int16, error) {
	if d.Widgets.Canvas == nil {
		return 0, 0, &errcode.E{C: errcode.WidgetNotReady, Op: "screen.layout", Msg: "no canvas"}
	}
	w, h := d.Widgets.Canvas.Size()
	if w < 160 || h < 120 {
		return 0, 0, &errcode.E{C: errcode.Unsupported, Op: "screen.layout", Msg: fmt.Sprintf("display %dx%d too small", w, h)}
	}
	return w, h, nil
}

func onOff(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
