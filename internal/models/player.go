package models

import "github.com/google/uuid"

// Player is a seat at the table. Hand order is insertion order.
type Player struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	IsBot        bool      `json:"isBot"`
	Hand         []Card    `json:"hand"`
	HasCalledUno bool      `json:"hasCalledUno"`
}

// CardCount is the number of cards in the player's hand.
func (p Player) CardCount() int {
	return len(p.Hand)
}

// FindCard returns the index of the card with the given id, or -1.
func (p Player) FindCard(id uuid.UUID) int {
	for i, c := range p.Hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of the player that shares no hand storage with p.
func (p Player) Clone() Player {
	cp := p
	cp.Hand = append([]Card(nil), p.Hand...)
	return cp
}
