package types

import "sync/atomic"

// ScreenID names one of the fixed screens.
type ScreenID uint8

const (
	ScreenUnset ScreenID = iota
	ScreenBoot
	ScreenMain
	ScreenSettings
)

func (id ScreenID) String() string {
	switch id {
	case ScreenBoot:
		return "boot"
	case ScreenMain:
		return "main"
	case ScreenSettings:
		return "settings"
	default:
		return "unset"
	}
}

// ParseScreenID maps a screen name back to its ID; unknown names yield ScreenUnset.
func ParseScreenID(s string) ScreenID {
	switch s {
	case "boot":
		return ScreenBoot
	case "main":
		return ScreenMain
	case "settings":
		return ScreenSettings
	default:
		return ScreenUnset
	}
}

// ScreenState is read from every context but written only by the
// transition controller while it activates a screen.
type ScreenState struct {
	initialized atomic.Bool
	active      atomic.Uint32
}

func (s *ScreenState) Initialized() bool { return s.initialized.Load() }
func (s *ScreenState) Active() ScreenID  { return ScreenID(s.active.Load()) }

// Activate records id as the visible screen.
func (s *ScreenState) Activate(id ScreenID) {
	s.active.Store(uint32(id))
	s.initialized.Store(true)
}
