// internal/game/draw.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/chaos-uno/internal/models"
)

// DrawResult is the outcome of a draw request.
type DrawResult struct {
	State *GameState
	Drawn []models.Card

	// AutoPlay is a freshly drawn card that must now be played through the
	// normal play path (including any color or swap interrupt). The turn has
	// not passed when it is set.
	AutoPlay *models.Card
}

// performDraw moves up to count cards from the deck tail into the hand of the
// player at idx, reshuffling the discard pile when the deck runs dry. Drawing
// always clears the player's UNO call. It mutates s.
func performDraw(s *GameState, idx, count int, r Rand) []models.Card {
	drawn := make([]models.Card, 0, count)
	for i := 0; i < count; i++ {
		if len(s.Deck) == 0 && !s.reshuffle(r) {
			break
		}
		last := len(s.Deck) - 1
		drawn = append(drawn, s.Deck[last])
		s.Deck = s.Deck[:last]
	}
	p := &s.Players[idx]
	p.Hand = append(p.Hand, drawn...)
	p.HasCalledUno = false
	return drawn
}

// reshuffle rebuilds the deck from every discard but the top card. It
// reports false when the discard pile cannot supply a card.
func (s *GameState) reshuffle(r Rand) bool {
	if len(s.DiscardPile) <= 1 {
		return false
	}
	top := s.DiscardPile[len(s.DiscardPile)-1]
	s.Deck = append(s.Deck, s.DiscardPile[:len(s.DiscardPile)-1]...)
	Shuffle(r, s.Deck)
	s.DiscardPile = []models.Card{top}
	return true
}

// ResolveDraw computes a draw by the player at idx. The three regimes are
// exclusive and checked in order: a pending roulette, a pending draw stack,
// then a voluntary draw.
func ResolveDraw(s *GameState, idx int, r Rand) (DrawResult, error) {
	if idx < 0 || idx >= len(s.Players) {
		return DrawResult{State: s}, ErrPlayerNotFound
	}
	switch {
	case s.RouletteColor != models.ColorNone:
		return drawRoulette(s, idx, r), nil
	case s.DrawStack > 0:
		return drawStack(s, idx, r), nil
	case s.Mode == models.ModeNoMercy:
		return drawUntilPlayable(s, idx, r), nil
	default:
		return drawOne(s, idx, r), nil
	}
}

func overLimit(s *GameState, idx int) bool {
	return s.Mode == models.ModeNoMercy && len(s.Players[idx].Hand) >= MercyLimit
}

// drawRoulette draws one card at a time until the roulette color or a wild shows up.
func drawRoulette(s *GameState, idx int, r Rand) DrawResult {
	next := s.Clone()
	name := next.Players[idx].Name
	target := s.RouletteColor
	var drawn []models.Card
	for {
		d := performDraw(next, idx, 1, r)
		if len(d) == 0 {
			break
		}
		drawn = append(drawn, d[0])
		f := d[0].Face(next.ActiveSide)
		if f.Color == target || f.IsWild() {
			break
		}
		if overLimit(next, idx) {
			break
		}
	}

	if overLimit(next, idx) {
		next.LastAction = next.eliminate(idx)
		return DrawResult{State: next, Drawn: drawn}
	}

	next.RouletteColor = models.ColorNone
	next.CurrentPlayerIndex = nextIndex(len(next.Players), idx, next.Direction, 1)
	next.LastAction = fmt.Sprintf("%s drew %d cards for Roulette!", name, len(drawn))
	return DrawResult{State: next, Drawn: drawn}
}

// drawStack takes the whole accumulated penalty in one lump.
func drawStack(s *GameState, idx int, r Rand) DrawResult {
	next := s.Clone()
	name := next.Players[idx].Name
	drawn := performDraw(next, idx, s.DrawStack, r)

	if overLimit(next, idx) {
		next.LastAction = next.eliminate(idx)
		return DrawResult{State: next, Drawn: drawn}
	}

	next.DrawStack = 0
	next.CurrentPlayerIndex = nextIndex(len(next.Players), idx, next.Direction, 1)
	next.LastAction = fmt.Sprintf("%s took +%d penalty!", name, s.DrawStack)
	return DrawResult{State: next, Drawn: drawn}
}

// drawUntilPlayable is the No-Mercy voluntary draw.
func drawUntilPlayable(s *GameState, idx int, r Rand) DrawResult {
	next := s.Clone()
	name := next.Players[idx].Name
	var drawn []models.Card
	for {
		d := performDraw(next, idx, 1, r)
		if len(d) == 0 {
			break
		}
		drawn = append(drawn, d[0])
		if overLimit(next, idx) {
			next.LastAction = next.eliminate(idx)
			return DrawResult{State: next, Drawn: drawn}
		}
		if IsPlayable(d[0], next) {
			card := d[0]
			next.LastAction = fmt.Sprintf("%s drew until playable: %s", name, card.Face(next.ActiveSide).Value)
			return DrawResult{State: next, Drawn: drawn, AutoPlay: &card}
		}
	}

	// supply exhausted without a playable card
	next.CurrentPlayerIndex = nextIndex(len(next.Players), idx, next.Direction, 1)
	next.LastAction = fmt.Sprintf("%s drew %d and passed", name, len(drawn))
	return DrawResult{State: next, Drawn: drawn}
}

// drawOne is the Classic, Flip and Speed voluntary draw.
func drawOne(s *GameState, idx int, r Rand) DrawResult {
	next := s.Clone()
	name := next.Players[idx].Name
	drawn := performDraw(next, idx, 1, r)

	if len(drawn) == 1 && IsPlayable(drawn[0], next) {
		card := drawn[0]
		if card.Face(next.ActiveSide).IsWild() {
			next.LastAction = fmt.Sprintf("%s drew a Playable Wild!", name)
		} else {
			next.LastAction = fmt.Sprintf("%s drew a playable %s", name, card.Face(next.ActiveSide))
		}
		return DrawResult{State: next, Drawn: drawn, AutoPlay: &card}
	}

	next.CurrentPlayerIndex = nextIndex(len(next.Players), idx, next.Direction, 1)
	next.LastAction = fmt.Sprintf("%s drew and passed", name)
	return DrawResult{State: next, Drawn: drawn}
}
