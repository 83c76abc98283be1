package logging

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Line is one message shown on the panel console.
type Line struct {
	Time    time.Time
	Level   zerolog.Level
	Message string
}

// Console keeps the most recent on-screen log lines. Loggers returned by
// Wrap feed it through a zerolog hook, so a message is written to the
// regular log output and shown on the boot screen.
type Console struct {
	mu      sync.Mutex
	lines   []Line
	max     int
	version uint64
}

// NewConsole creates a console keeping at most max lines (default 12).
func NewConsole(max int) *Console {
	if max <= 0 {
		max = 12
	}
	return &Console{lines: make([]Line, 0, max), max: max}
}

// Run implements zerolog.Hook.
func (c *Console) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if msg == "" {
		return
	}
	c.Append(level, msg)
}

// Append adds a line directly, dropping the oldest when full.
func (c *Console) Append(level zerolog.Level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == c.max {
		copy(c.lines, c.lines[1:])
		c.lines = c.lines[:c.max-1]
	}
	c.lines = append(c.lines, Line{Time: time.Now(), Level: level, Message: msg})
	c.version++
}

// Wrap returns l with the console attached: everything it logs also goes on screen.
func (c *Console) Wrap(l zerolog.Logger) zerolog.Logger {
	return l.Hook(c)
}

// Lines returns a copy of the buffered lines, oldest first.
func (c *Console) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// Version changes every time a line is added.
func (c *Console) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}
