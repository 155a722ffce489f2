// internal/game/state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/models"
)

const (
	// HandSize is the number of cards dealt to each player.
	HandSize = 7
	// MercyLimit is the No-Mercy hand size at which a player is eliminated.
	MercyLimit = 25
	// UnoPenalty is the number of cards drawn by a player caught not calling UNO.
	UnoPenalty = 2
	// MaxPlayers bounds the table so every mode can deal a full round.
	MaxPlayers = 10
)

// PendingKind identifies the interrupt a play is waiting on.
type PendingKind uint8

const (
	PendingNone PendingKind = iota
	PendingColorChoice
	PendingSwapTarget
)

func (k PendingKind) String() string {
	switch k {
	case PendingColorChoice:
		return "PICK_COLOR"
	case PendingSwapTarget:
		return "SWAP_HANDS"
	default:
		return "NONE"
	}
}

// PendingAction holds the card whose play is suspended until its owner
// names a color or a swap target. The card stays in the owner's hand meanwhile.
type PendingAction struct {
	Kind     PendingKind
	CardID   uuid.UUID
	PlayerID uuid.UUID
}

// Active reports whether an interrupt is pending.
func (p PendingAction) Active() bool {
	return p.Kind != PendingNone
}

// GameState is the single authoritative aggregate for one game.
type GameState struct {
	Mode               models.Mode
	Status             models.Status
	HostID             uuid.UUID
	Players            []models.Player
	Deck               []models.Card // draw pile, popped from the end
	DiscardPile        []models.Card // last element is the top card
	CurrentPlayerIndex int
	Direction          int
	ActiveSide         models.Side
	CurrentColor       models.Color
	DrawStack          int
	RouletteColor      models.Color // ColorNone unless a roulette draw is pending
	Pending            PendingAction
	WinnerID           uuid.UUID
	LastAction         string
}

// NewGameState returns a blank lobby state for the given mode.
func NewGameState(mode models.Mode) *GameState {
	return &GameState{
		Mode:         mode,
		Status:       models.StatusLobby,
		Direction:    1,
		ActiveSide:   models.SideLight,
		CurrentColor: models.ColorRed,
		LastAction:   "Welcome to Chaos UNO",
	}
}

// Clone returns a deep copy; transitions only ever mutate clones.
func (s *GameState) Clone() *GameState {
	cp := *s
	cp.Players = make([]models.Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.Clone()
	}
	cp.Deck = append([]models.Card(nil), s.Deck...)
	cp.DiscardPile = append([]models.Card(nil), s.DiscardPile...)
	return &cp
}

// TopCard returns the top of the discard pile.
func (s *GameState) TopCard() (models.Card, bool) {
	if len(s.DiscardPile) == 0 {
		return models.Card{}, false
	}
	return s.DiscardPile[len(s.DiscardPile)-1], true
}

// PlayerIndex returns the seat of the player with the given id, or -1.
func (s *GameState) PlayerIndex(id uuid.UUID) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player whose turn it is.
func (s *GameState) CurrentPlayer() (models.Player, bool) {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return models.Player{}, false
	}
	return s.Players[s.CurrentPlayerIndex], true
}

// Winner returns the winning player once the game is over.
func (s *GameState) Winner() (models.Player, bool) {
	if s.WinnerID == uuid.Nil {
		return models.Player{}, false
	}
	if i := s.PlayerIndex(s.WinnerID); i >= 0 {
		return s.Players[i], true
	}
	return models.Player{}, false
}

// CardCount is |deck| + |discard| + every hand. It is constant for a mode
// from the deal until the game is reset.
func (s *GameState) CardCount() int {
	n := len(s.Deck) + len(s.DiscardPile)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// mod is the non-negative remainder of a divided by n.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// nextIndex walks steps seats from current in direction dir.
func nextIndex(total, current, dir, steps int) int {
	if total == 0 {
		return 0
	}
	return mod(current+steps*dir, total)
}

// setWinner ends the game in favor of the given player.
func (s *GameState) setWinner(id uuid.UUID) {
	s.WinnerID = id
	s.Status = models.StatusOver
}
