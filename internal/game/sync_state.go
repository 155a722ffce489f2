// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/models"
)

// Snapshot is the replicated subset of GameState written to the shared
// document store. Local-only fields (own identity, pending interrupt, bot busy
// flag) never leave the process.
type Snapshot struct {
	Mode               models.Mode     `json:"gameMode"`
	Status             models.Status   `json:"status"`
	HostID             uuid.UUID       `json:"hostId"`
	Players            []models.Player `json:"players"`
	Deck               []models.Card   `json:"deck"`
	DiscardPile        []models.Card   `json:"discardPile"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
	Direction          int             `json:"direction"`
	ActiveSide         models.Side     `json:"activeSide"`
	DrawStack          int             `json:"drawStack"`
	CurrentColor       models.Color    `json:"currentColor"`
	RouletteColor      models.Color    `json:"rouletteColor"`
	WinnerID           uuid.UUID       `json:"winnerId"`
	LastAction         string          `json:"lastActionDescription"`

	// WriterID is the client that wrote this document. Subscribers skip
	// their own echoes. Documents edited by the store itself carry uuid.Nil.
	WriterID uuid.UUID `json:"writerId"`
}

// Snapshot copies the networked fields of s.
func (s *GameState) Snapshot() Snapshot {
	c := s.Clone()
	return Snapshot{
		Mode:               c.Mode,
		Status:             c.Status,
		HostID:             c.HostID,
		Players:            c.Players,
		Deck:               c.Deck,
		DiscardPile:        c.DiscardPile,
		CurrentPlayerIndex: c.CurrentPlayerIndex,
		Direction:          c.Direction,
		ActiveSide:         c.ActiveSide,
		DrawStack:          c.DrawStack,
		CurrentColor:       c.CurrentColor,
		RouletteColor:      c.RouletteColor,
		WinnerID:           c.WinnerID,
		LastAction:         c.LastAction,
	}
}

// merge returns a copy of s with every networked field replaced by snap.
// A zero direction or side in snap (a freshly created room document) falls
// back to the defaults.
func (snap Snapshot) merge(s *GameState) *GameState {
	next := s.Clone()
	next.Mode = snap.Mode
	next.Status = snap.Status
	next.HostID = snap.HostID
	next.Players = make([]models.Player, len(snap.Players))
	for i, p := range snap.Players {
		next.Players[i] = p.Clone()
	}
	next.Deck = append([]models.Card(nil), snap.Deck...)
	next.DiscardPile = append([]models.Card(nil), snap.DiscardPile...)
	next.CurrentPlayerIndex = snap.CurrentPlayerIndex
	next.Direction = snap.Direction
	if next.Direction == 0 {
		next.Direction = 1
	}
	next.ActiveSide = snap.ActiveSide
	if next.ActiveSide == "" {
		next.ActiveSide = models.SideLight
	}
	next.DrawStack = snap.DrawStack
	next.CurrentColor = snap.CurrentColor
	next.RouletteColor = snap.RouletteColor
	next.WinnerID = snap.WinnerID
	next.LastAction = snap.LastAction
	return next
}
