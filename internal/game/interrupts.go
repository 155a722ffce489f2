// internal/game/interrupts.go
package game

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/models"
)

// suspend parks a play until its owner answers the interrupt. The card stays
// in hand; only local state changes, so nothing is replicated.
func (e *Engine) suspend(kind PendingKind, playerID, cardID uuid.UUID) {
	next := e.state.Clone()
	next.Pending = PendingAction{Kind: kind, CardID: cardID, PlayerID: playerID}
	e.commit(next, OriginPending, playerID, "", nil)
}

// ResolveColor completes a suspended wild play with the named color. The
// color must belong to the active side's palette.
func (e *Engine) ResolveColor(playerID uuid.UUID, color models.Color) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p := e.state.Pending; p.Kind != PendingColorChoice || p.PlayerID != playerID {
		return e.reject(models.ActionPickColor, playerID, "no color choice pending")
	}
	ok := e.resolveColor(color)
	e.kickBots()
	return ok
}

func (e *Engine) resolveColor(color models.Color) bool {
	s := e.state
	p := s.Pending
	if !slices.Contains(s.ActiveSide.Palette(), color) {
		return e.reject(models.ActionPickColor, p.PlayerID, "color not on the active side")
	}
	idx, _, ok := e.pendingCard(models.ActionPickColor)
	if !ok {
		return false
	}
	next, err := ApplyPlay(s, idx, p.CardID, color, uuid.Nil)
	if err != nil {
		e.clearPending()
		return e.reject(models.ActionPickColor, p.PlayerID, err.Error())
	}
	e.commit(next, OriginLocal, p.PlayerID, models.ActionPickColor, map[string]interface{}{
		"card":  p.CardID.String(),
		"color": color.String(),
	})
	return true
}

// ResolveSwap completes a suspended No-Mercy seven by swapping hands with
// target, who must be another seated player.
func (e *Engine) ResolveSwap(playerID, target uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p := e.state.Pending; p.Kind != PendingSwapTarget || p.PlayerID != playerID {
		return e.reject(models.ActionPickSwap, playerID, "no swap pending")
	}
	ok := e.resolveSwap(target)
	e.kickBots()
	return ok
}

func (e *Engine) resolveSwap(target uuid.UUID) bool {
	s := e.state
	p := s.Pending
	if target == p.PlayerID || s.PlayerIndex(target) < 0 {
		return e.reject(models.ActionPickSwap, p.PlayerID, "invalid swap target")
	}
	idx, card, ok := e.pendingCard(models.ActionPickSwap)
	if !ok {
		return false
	}
	color := card.Face(s.ActiveSide).Color
	next, err := ApplyPlay(s, idx, p.CardID, color, target)
	if err != nil {
		e.clearPending()
		return e.reject(models.ActionPickSwap, p.PlayerID, err.Error())
	}
	e.commit(next, OriginLocal, p.PlayerID, models.ActionPickSwap, map[string]interface{}{
		"card":   p.CardID.String(),
		"target": target.String(),
	})
	return true
}

// pendingCard locates the suspended card and checks it can still be played
// on the current table. A stale interrupt is dropped.
func (e *Engine) pendingCard(action string) (int, models.Card, bool) {
	s := e.state
	p := s.Pending
	idx := s.PlayerIndex(p.PlayerID)
	if idx < 0 {
		e.clearPending()
		return -1, models.Card{}, e.reject(action, p.PlayerID, "unknown player")
	}
	pos := s.Players[idx].FindCard(p.CardID)
	if pos < 0 {
		e.clearPending()
		return -1, models.Card{}, e.reject(action, p.PlayerID, "card not in hand")
	}
	card := s.Players[idx].Hand[pos]
	if !IsPlayable(card, s) {
		e.clearPending()
		return -1, models.Card{}, e.reject(action, p.PlayerID, "card no longer playable")
	}
	return idx, card, true
}

// firstOther is the lowest seat that is not id, the fixed swap target of bots.
func firstOther(s *GameState, id uuid.UUID) uuid.UUID {
	for _, p := range s.Players {
		if p.ID != id {
			return p.ID
		}
	}
	return uuid.Nil
}

// clearPending drops a pending interrupt whose card can no longer be played.
func (e *Engine) clearPending() {
	next := e.state.Clone()
	next.Pending = PendingAction{}
	e.commit(next, OriginPending, uuid.Nil, "", nil)
}
