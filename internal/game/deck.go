// internal/game/deck.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/models"
)

// newCard binds a light face and a dark face under a fresh id. A zero dark
// face is replaced by the inert fallback used by non-Flip decks.
func newCard(light models.CardFace, dark *models.CardFace) models.Card {
	c := models.Card{ID: uuid.New(), Light: light, Dark: models.InertDarkFace}
	if dark != nil {
		c.Dark = *dark
	}
	return c
}

// DeckSize is the number of cards GenerateDeck builds for mode.
func DeckSize(mode models.Mode) int {
	n := 4*25 + 8
	switch mode {
	case models.ModeFlip:
		n += 4 * 2
	case models.ModeNoMercy:
		n += 4 + 4*3
	}
	return n
}

// GenerateDeck builds the multiset of cards for mode and returns it shuffled.
func GenerateDeck(mode models.Mode, r Rand) []models.Card {
	deck := make([]models.Card, 0, DeckSize(mode))

	for _, color := range models.LightColors {
		dark := color.Flipped()

		// one zero, two of each 1-9
		for v := models.ValueZero; v <= models.ValueNine; v++ {
			count := 2
			if v == models.ValueZero {
				count = 1
			}
			for i := 0; i < count; i++ {
				df := models.NewNumberFace(dark, v)
				deck = append(deck, newCard(models.NewNumberFace(color, v), &df))
			}
		}

		for _, action := range []models.Value{models.ValueSkip, models.ValueReverse, models.ValueDrawTwo} {
			darkValue := models.ValueSkipEveryone
			if action == models.ValueDrawTwo {
				darkValue = models.ValueDrawFive
			}
			for i := 0; i < 2; i++ {
				df := models.NewActionFace(dark, darkValue)
				deck = append(deck, newCard(models.NewActionFace(color, action), &df))
			}
		}
	}

	for i := 0; i < 4; i++ {
		wild := models.NewWildFace(models.ColorWildDark, models.ValueWild)
		deck = append(deck, newCard(models.NewWildFace(models.ColorWild, models.ValueWild), &wild))
		drawColor := models.NewWildFace(models.ColorWildDark, models.ValueWildDrawColor)
		deck = append(deck, newCard(models.NewWildFace(models.ColorWild, models.ValueWildDrawFour), &drawColor))
	}

	switch mode {
	case models.ModeFlip:
		for _, color := range models.LightColors {
			for i := 0; i < 2; i++ {
				df := models.NewActionFace(color.Flipped(), models.ValueFlip)
				deck = append(deck, newCard(models.NewActionFace(color, models.ValueFlip), &df))
			}
		}
	case models.ModeNoMercy:
		for _, color := range models.LightColors {
			deck = append(deck, newCard(models.NewActionFace(color, models.ValueDiscardAll), nil))
		}
		for i := 0; i < 4; i++ {
			deck = append(deck,
				newCard(models.NewWildFace(models.ColorWild, models.ValueWildDrawSix), nil),
				newCard(models.NewWildFace(models.ColorWild, models.ValueWildDrawTen), nil),
				newCard(models.NewWildFace(models.ColorWild, models.ValueWildColorRoulette), nil),
			)
		}
	}

	Shuffle(r, deck)
	return deck
}
