// internal/game/rules.go
package game

import "github.com/jason-s-yu/chaos-uno/internal/models"

// StackValue is the forced-draw weight of a card value, 0 for non-penalty cards.
func StackValue(v models.Value) int {
	switch v {
	case models.ValueDrawTwo:
		return 2
	case models.ValueWildDrawFour:
		return 4
	case models.ValueDrawFive:
		return 5
	case models.ValueWildDrawSix:
		return 6
	case models.ValueWildDrawTen:
		return 10
	default:
		return 0
	}
}

// IsPlayable reports whether card may be played on the current state.
// The face on the active side is evaluated. Checks run in order and the first
// regime that applies decides:
//
//  1. a pending roulette draw blocks every card;
//  2. a pending draw stack only admits stacking cards (mode dependent);
//  3. otherwise wilds, the current color, or the top card's value match.
func IsPlayable(card models.Card, s *GameState) bool {
	top, ok := s.TopCard()
	if !ok {
		return false
	}
	if s.RouletteColor != models.ColorNone {
		return false
	}

	face := card.Face(s.ActiveSide)
	topFace := top.Face(s.ActiveSide)

	if s.DrawStack > 0 {
		if s.Mode == models.ModeNoMercy {
			topValue := StackValue(topFace.Value)
			if topValue == 0 {
				topValue = 2
			}
			return StackValue(face.Value) >= topValue
		}
		return face.Value == models.ValueDrawTwo && topFace.Value == models.ValueDrawTwo
	}

	if face.IsWild() {
		return true
	}
	if face.Color == s.CurrentColor {
		return true
	}
	return face.Value == topFace.Value
}

// PlayableCards filters a hand down to the cards IsPlayable admits.
func PlayableCards(hand []models.Card, s *GameState) []models.Card {
	var out []models.Card
	for _, c := range hand {
		if IsPlayable(c, s) {
			out = append(out, c)
		}
	}
	return out
}

// needsColorChoice reports whether playing face must first resolve a color.
func needsColorChoice(face models.CardFace) bool {
	return face.IsWild()
}

// needsSwapTarget reports whether playing face must first resolve a swap target.
func needsSwapTarget(mode models.Mode, face models.CardFace) bool {
	return mode == models.ModeNoMercy && face.Value == models.ValueSeven
}
