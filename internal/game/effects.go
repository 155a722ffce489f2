// internal/game/effects.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/pkg/errors"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrCardNotInHand  = errors.New("card not in hand")
)

// ApplyPlay resolves a legal play and returns the next state. s is never
// mutated. The caller has already checked IsPlayable and, for wild faces and
// No-Mercy sevens, resolved chosen and swapTarget.
//
// chosen is the color named for a wild (ColorNone keeps the face color);
// swapTarget is the player whose hand a No-Mercy seven takes (uuid.Nil for none).
func ApplyPlay(s *GameState, playerIdx int, cardID uuid.UUID, chosen models.Color, swapTarget uuid.UUID) (*GameState, error) {
	if playerIdx < 0 || playerIdx >= len(s.Players) {
		return s, ErrPlayerNotFound
	}
	pos := s.Players[playerIdx].FindCard(cardID)
	if pos < 0 {
		return s, errors.Wrapf(ErrCardNotInHand, "card %s", cardID)
	}

	next := s.Clone()
	next.Pending = PendingAction{}
	actor := &next.Players[playerIdx]
	card := actor.Hand[pos]
	actor.Hand = append(actor.Hand[:pos], actor.Hand[pos+1:]...)
	next.DiscardPile = append(next.DiscardPile, card)

	face := card.Face(s.ActiveSide)
	nextColor := chosen
	if nextColor == models.ColorNone {
		nextColor = face.Color
	}
	noMercy := s.Mode == models.ModeNoMercy
	steps := 1
	holdTurn := false
	next.RouletteColor = models.ColorNone
	desc := fmt.Sprintf("%s played %s", actor.Name, face.Value)

	if sv := StackValue(face.Value); sv > 0 {
		next.DrawStack += sv
		desc += fmt.Sprintf(" (+%d)", next.DrawStack)
	}

	switch face.Value {
	case models.ValueSkip:
		steps = 2
		desc += " (Skip)"

	case models.ValueReverse:
		next.Direction = -next.Direction
		if len(next.Players) == 2 {
			steps = 2
		}
		desc += " (Reverse)"

	case models.ValueWildDrawFour:
		if noMercy {
			next.Direction = -next.Direction
			if len(next.Players) == 2 {
				steps = 2
			}
			desc += " (Reverse +4)"
		}

	case models.ValueSkipEveryone:
		holdTurn = true
		desc += " (SKIP ALL)"

	case models.ValueFlip:
		next.ActiveSide = next.ActiveSide.Toggle()
		nextColor = nextColor.Flipped()
		desc += " (FLIP)"

	case models.ValueDiscardAll:
		if noMercy {
			tossed := discardMatching(next, playerIdx, nextColor)
			desc += fmt.Sprintf(" (Discarded %d)", tossed)
		}

	case models.ValueZero:
		if noMercy {
			rotateHands(next.Players, next.Direction)
			desc += " (Hands Rotated)"
		}

	case models.ValueSeven:
		if noMercy && swapTarget != uuid.Nil {
			if t := next.PlayerIndex(swapTarget); t >= 0 && t != playerIdx {
				target := &next.Players[t]
				actor.Hand, target.Hand = target.Hand, actor.Hand
				desc += fmt.Sprintf(" (Swapped with %s)", target.Name)
			}
		}

	case models.ValueWildColorRoulette:
		if noMercy {
			next.RouletteColor = chosen
			desc += fmt.Sprintf(" (Roulette: %s)", chosen)
		}

	case models.ValueOne, models.ValueTwo, models.ValueThree, models.ValueFour,
		models.ValueFive, models.ValueSix, models.ValueEight, models.ValueNine,
		models.ValueDrawTwo, models.ValueDrawFive, models.ValueWild,
		models.ValueWildDrawSix, models.ValueWildDrawTen, models.ValueWildDrawColor:
		// color and stack only
	}

	next.CurrentColor = nextColor

	if len(actor.Hand) == 0 {
		next.setWinner(actor.ID)
		next.LastAction = desc + fmt.Sprintf(" %s Wins!", actor.Name)
		return next, nil
	}

	if noMercy && len(actor.Hand) >= MercyLimit {
		next.LastAction = desc + " " + next.eliminate(playerIdx)
		return next, nil
	}

	if holdTurn {
		next.CurrentPlayerIndex = playerIdx
	} else {
		next.CurrentPlayerIndex = nextIndex(len(next.Players), playerIdx, next.Direction, steps)
	}
	next.LastAction = desc
	return next, nil
}

// discardMatching moves every non-wild card of color out of the player's
// hand into the discard pile beneath the top card. It returns the count moved.
func discardMatching(s *GameState, idx int, color models.Color) int {
	p := &s.Players[idx]
	kept := p.Hand[:0:0]
	var tossed []models.Card
	for _, c := range p.Hand {
		f := c.Face(s.ActiveSide)
		if f.Color == color && !f.IsWild() {
			tossed = append(tossed, c)
			continue
		}
		kept = append(kept, c)
	}
	p.Hand = kept
	s.buryUnderTop(tossed)
	return len(tossed)
}

// rotateHands passes every hand one seat along dir: with dir = +1 seat i
// receives the hand of seat i-1.
func rotateHands(players []models.Player, dir int) {
	n := len(players)
	if n < 2 {
		return
	}
	hands := make([][]models.Card, n)
	for i := range players {
		hands[i] = players[i].Hand
	}
	for i := range players {
		players[i].Hand = hands[mod(i-dir, n)]
	}
}

// buryUnderTop inserts cards into the discard pile just below the top card.
func (s *GameState) buryUnderTop(cards []models.Card) {
	if len(cards) == 0 {
		return
	}
	if len(s.DiscardPile) == 0 {
		s.DiscardPile = append(s.DiscardPile, cards...)
		return
	}
	top := s.DiscardPile[len(s.DiscardPile)-1]
	s.DiscardPile = append(s.DiscardPile[:len(s.DiscardPile)-1], cards...)
	s.DiscardPile = append(s.DiscardPile, top)
}

// eliminate removes the player at idx under the mercy rule. Their hand goes
// to the discard pile, any pending penalty is cleared and the turn passes to
// the next living seat. It returns the action description.
func (s *GameState) eliminate(idx int) string {
	out := s.Players[idx]
	s.buryUnderTop(out.Hand)
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	s.DrawStack = 0
	s.RouletteColor = models.ColorNone
	s.Pending = PendingAction{}

	desc := fmt.Sprintf("%s ELIMINATED (Mercy Rule)!", out.Name)
	n := len(s.Players)
	switch {
	case n == 0:
		s.CurrentPlayerIndex = 0
	case n == 1:
		s.CurrentPlayerIndex = 0
		s.setWinner(s.Players[0].ID)
		desc += fmt.Sprintf(" %s Wins!", s.Players[0].Name)
	case s.Direction > 0:
		s.CurrentPlayerIndex = mod(idx, n)
	default:
		s.CurrentPlayerIndex = mod(idx-1, n)
	}
	return desc
}
