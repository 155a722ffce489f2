// internal/game/uno.go
package game

import "fmt"

// DeclareUno marks the player at idx as having called UNO. Only a player
// holding two cards or fewer who has not yet called may declare.
func DeclareUno(s *GameState, idx int) (*GameState, bool) {
	if idx < 0 || idx >= len(s.Players) {
		return s, false
	}
	p := s.Players[idx]
	if p.HasCalledUno || len(p.Hand) > 2 {
		return s, false
	}
	next := s.Clone()
	next.Players[idx].HasCalledUno = true
	next.LastAction = fmt.Sprintf("%s shouted UNO!", p.Name)
	return next, true
}

// Vulnerable reports whether the player at idx can be caught: one card left
// and no UNO call.
func Vulnerable(s *GameState, idx int) bool {
	p := s.Players[idx]
	return len(p.Hand) == 1 && !p.HasCalledUno
}

// ChallengeUno makes every vulnerable player other than the challenger draw
// the UNO penalty. Turn order and every other field are left untouched.
func ChallengeUno(s *GameState, challengerIdx int, r Rand) (*GameState, bool) {
	if challengerIdx < 0 || challengerIdx >= len(s.Players) {
		return s, false
	}
	next := s.Clone()
	caught := false
	for i := range next.Players {
		if i == challengerIdx || !Vulnerable(next, i) {
			continue
		}
		performDraw(next, i, UnoPenalty, r)
		next.LastAction = fmt.Sprintf("%s caught not saying UNO! (+%d)", next.Players[i].Name, UnoPenalty)
		caught = true
	}
	if !caught {
		return s, false
	}
	return next, true
}
