// internal/models/mode.go
package models

import "github.com/pkg/errors"

// Mode selects the rule variant a game is played under.
type Mode string

const (
	ModeClassic Mode = "CLASSIC"
	ModeNoMercy Mode = "NO_MERCY"
	ModeFlip    Mode = "FLIP"
	ModeSpeed   Mode = "SPEED"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeClassic, ModeNoMercy, ModeFlip, ModeSpeed:
		return m, nil
	}
	return "", errors.Errorf("unknown game mode %q", s)
}

// Side is the face of every card currently in effect.
type Side string

const (
	SideLight Side = "light"
	SideDark  Side = "dark"
)

// Toggle returns the other side.
func (s Side) Toggle() Side {
	if s == SideDark {
		return SideLight
	}
	return SideDark
}

// Palette returns the four colors a player may name while s is active.
func (s Side) Palette() []Color {
	if s == SideDark {
		return DarkColors
	}
	return LightColors
}

// Status is the lifecycle stage of a game.
type Status string

const (
	StatusLobby   Status = "LOBBY"
	StatusWaiting Status = "WAITING"
	StatusPlaying Status = "PLAYING"
	StatusOver    Status = "GAME_OVER"
)
