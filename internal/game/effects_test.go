package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hand(cards ...models.Card) []models.Card { return cards }

func TestClassicPlayScenario(t *testing.T) {
	red5 := mkCard(models.ColorRed, models.ValueFive)
	blue2 := mkCard(models.ColorBlue, models.ValueTwo)
	s := tableState(models.ModeClassic, mkCard(models.ColorRed, models.ValueFive),
		hand(red5, blue2), hand(mkCard(models.ColorGreen, models.ValueOne)))
	before := s.CardCount()

	next, err := ApplyPlay(s, 0, red5.ID, models.ColorNone, uuid.Nil)
	require.NoError(t, err)

	top, _ := next.TopCard()
	assert.Equal(t, red5.ID, top.ID)
	assert.Equal(t, []models.Card{blue2}, next.Players[0].Hand)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Equal(t, 0, next.DrawStack)
	assert.Equal(t, models.ColorRed, next.CurrentColor)
	assert.Equal(t, before, next.CardCount())

	assert.Len(t, s.Players[0].Hand, 2, "input state must not change")
	assert.Len(t, s.DiscardPile, 1)
}

func TestNoMercyStackScenario(t *testing.T) {
	wd6 := mkCard(models.ColorWild, models.ValueWildDrawSix)
	s := tableState(models.ModeNoMercy, mkCard(models.ColorRed, models.ValueDrawTwo),
		hand(wd6, mkCard(models.ColorRed, models.ValueOne)),
		hand(mkCard(models.ColorBlue, models.ValueOne), mkCard(models.ColorRed, models.ValueDrawTwo)),
		hand(mkCard(models.ColorGreen, models.ValueOne)))
	s.DrawStack = 2
	before := s.CardCount()

	require.True(t, IsPlayable(wd6, s))
	next, err := ApplyPlay(s, 0, wd6.ID, models.ColorBlue, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 8, next.DrawStack)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Equal(t, models.ColorBlue, next.CurrentColor)
	assert.Len(t, next.Players[0].Hand, 1, "the player did not draw")

	assert.Empty(t, PlayableCards(next.Players[1].Hand, next))

	res, err := ResolveDraw(next, 1, NewRand(1))
	require.NoError(t, err)
	after := res.State
	assert.Len(t, res.Drawn, 8)
	assert.Len(t, after.Players[1].Hand, 10)
	assert.Equal(t, 0, after.DrawStack)
	assert.Equal(t, 2, after.CurrentPlayerIndex)
	assert.Equal(t, "P1 took +8 penalty!", after.LastAction)
	assert.Equal(t, before, after.CardCount())
}

func TestSkip(t *testing.T) {
	skip := mkCard(models.ColorRed, models.ValueSkip)
	s := tableState(models.ModeClassic, mkCard(models.ColorRed, models.ValueFive),
		hand(skip, mkCard(models.ColorRed, models.ValueOne)), nil, nil, nil)

	next, err := ApplyPlay(s, 0, skip.ID, models.ColorNone, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 2, next.CurrentPlayerIndex)
}

func TestReverse(t *testing.T) {
	t.Run("four players", func(t *testing.T) {
		rev := mkCard(models.ColorRed, models.ValueReverse)
		s := tableState(models.ModeClassic, mkCard(models.ColorRed, models.ValueFive),
			hand(rev, mkCard(models.ColorRed, models.ValueOne)), nil, nil, nil)

		next, err := ApplyPlay(s, 0, rev.ID, models.ColorNone, uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, -1, next.Direction)
		assert.Equal(t, 3, next.CurrentPlayerIndex)
	})
	t.Run("two players acts as skip", func(t *testing.T) {
		rev := mkCard(models.ColorRed, models.ValueReverse)
		s := tableState(models.ModeClassic, mkCard(models.ColorRed, models.ValueFive),
			hand(rev, mkCard(models.ColorRed, models.ValueOne)), nil)

		next, err := ApplyPlay(s, 0, rev.ID, models.ColorNone, uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, -1, next.Direction)
		assert.Equal(t, 0, next.CurrentPlayerIndex)
	})
}

func TestSkipEveryoneHoldsTurn(t *testing.T) {
	top := mkCard(models.ColorRed, models.ValueFive)
	top.Dark = models.NewNumberFace(models.ColorTeal, models.ValueFive)
	skipAll := mkCard(models.ColorRed, models.ValueSkip)
	skipAll.Dark = models.NewActionFace(models.ColorTeal, models.ValueSkipEveryone)
	s := tableState(models.ModeFlip, top, hand(skipAll, mkCard(models.ColorRed, models.ValueOne)), nil, nil)
	s.ActiveSide = models.SideDark
	s.CurrentColor = models.ColorTeal
	s.CurrentPlayerIndex = 0

	next, err := ApplyPlay(s, 0, skipAll.ID, models.ColorNone, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 0, next.CurrentPlayerIndex)
}

func TestFlipTogglesSide(t *testing.T) {
	flip := mkCard(models.ColorRed, models.ValueFlip)
	flip.Dark = models.NewActionFace(models.ColorTeal, models.ValueFlip)
	s := tableState(models.ModeFlip, mkCard(models.ColorRed, models.ValueFive),
		hand(flip, mkCard(models.ColorRed, models.ValueOne)), nil)

	next, err := ApplyPlay(s, 0, flip.ID, models.ColorNone, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, models.SideDark, next.ActiveSide)
	assert.Equal(t, models.ColorTeal, next.CurrentColor)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
}

func TestWinOnLastCard(t *testing.T) {
	last := mkCard(models.ColorRed, models.ValueThree)
	s := tableState(models.ModeClassic, mkCard(models.ColorRed, models.ValueFive), hand(last), nil)

	next, err := ApplyPlay(s, 0, last.ID, models.ColorNone, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOver, next.Status)
	assert.Equal(t, s.Players[0].ID, next.WinnerID)
	assert.Contains(t, next.LastAction, "P0 Wins!")
}

func TestNoMercyZeroRotatesHands(t *testing.T) {
	zero := mkCard(models.ColorRed, models.ValueZero)
	keep := mkCard(models.ColorRed, models.ValueOne)
	b := hand(mkCard(models.ColorBlue, models.ValueOne))
	c := hand(mkCard(models.ColorGreen, models.ValueOne), mkCard(models.ColorGreen, models.ValueTwo))
	s := tableState(models.ModeNoMercy, mkCard(models.ColorRed, models.ValueFive), hand(zero, keep), b, c)

	next, err := ApplyPlay(s, 0, zero.ID, models.ColorNone, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, c, next.Players[0].Hand)
	assert.Equal(t, []models.Card{keep}, next.Players[1].Hand)
	assert.Equal(t, b, next.Players[2].Hand)
}

func TestNoMercySevenSwapsHands(t *testing.T) {
	seven := mkCard(models.ColorRed, models.ValueSeven)
	x, y := mkCard(models.ColorRed, models.ValueOne), mkCard(models.ColorRed, models.ValueTwo)
	z := mkCard(models.ColorBlue, models.ValueOne)
	s := tableState(models.ModeNoMercy, mkCard(models.ColorRed, models.ValueFive), hand(seven, x, y), hand(z), nil)

	next, err := ApplyPlay(s, 0, seven.ID, models.ColorNone, s.Players[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Card{z}, next.Players[0].Hand)
	assert.Equal(t, []models.Card{x, y}, next.Players[1].Hand)
	assert.Contains(t, next.LastAction, "Swapped with P1")
}

func TestNoMercyDiscardAll(t *testing.T) {
	da := mkCard(models.ColorRed, models.ValueDiscardAll)
	blue := mkCard(models.ColorBlue, models.ValueFour)
	wild := mkCard(models.ColorWild, models.ValueWild)
	s := tableState(models.ModeNoMercy, mkCard(models.ColorRed, models.ValueFive),
		hand(da, mkCard(models.ColorRed, models.ValueTwo), blue, mkCard(models.ColorRed, models.ValueThree), wild), nil)
	before := s.CardCount()

	next, err := ApplyPlay(s, 0, da.ID, models.ColorNone, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, []models.Card{blue, wild}, next.Players[0].Hand)
	top, _ := next.TopCard()
	assert.Equal(t, da.ID, top.ID, "discarded cards go beneath the played card")
	assert.Len(t, next.DiscardPile, 4)
	assert.Equal(t, before, next.CardCount())
}

func TestNoMercyWildDrawFourReverses(t *testing.T) {
	wd4 := mkCard(models.ColorWild, models.ValueWildDrawFour)
	s := tableState(models.ModeNoMercy, mkCard(models.ColorRed, models.ValueFive),
		hand(wd4, mkCard(models.ColorRed, models.ValueOne)), nil, nil)

	next, err := ApplyPlay(s, 0, wd4.ID, models.ColorGreen, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, -1, next.Direction)
	assert.Equal(t, 2, next.CurrentPlayerIndex)
	assert.Equal(t, 4, next.DrawStack)
	assert.Equal(t, models.ColorGreen, next.CurrentColor)
}

func TestMercyEliminationOnForcedDraw(t *testing.T) {
	s := tableState(models.ModeNoMercy, mkCard(models.ColorWild, models.ValueWildDrawTen),
		hand(mkCard(models.ColorRed, models.ValueOne)),
		filler(20),
		hand(mkCard(models.ColorGreen, models.ValueOne)))
	s.Deck = filler(15)
	s.DrawStack = 10
	s.CurrentPlayerIndex = 1
	before := s.CardCount()
	out := s.Players[1].ID
	survivor := s.Players[2].ID

	res, err := ResolveDraw(s, 1, NewRand(1))
	require.NoError(t, err)
	next := res.State
	assert.Len(t, next.Players, 2)
	assert.Equal(t, -1, next.PlayerIndex(out))
	assert.Equal(t, 0, next.DrawStack)
	assert.Equal(t, survivor, next.Players[next.CurrentPlayerIndex].ID)
	assert.Contains(t, next.LastAction, "ELIMINATED")
	assert.Equal(t, before, next.CardCount())
	assert.Equal(t, models.StatusPlaying, next.Status)
}

func TestEliminationLeavesLastPlayerWinner(t *testing.T) {
	s := tableState(models.ModeNoMercy, mkCard(models.ColorWild, models.ValueWildDrawTen),
		hand(mkCard(models.ColorRed, models.ValueOne)), filler(20))
	s.DrawStack = 10
	s.CurrentPlayerIndex = 1

	res, err := ResolveDraw(s, 1, NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, models.StatusOver, res.State.Status)
	assert.Equal(t, s.Players[0].ID, res.State.WinnerID)
}

func TestMercyEliminationAfterSevenSwap(t *testing.T) {
	seven := mkCard(models.ColorRed, models.ValueSeven)
	x := mkCard(models.ColorRed, models.ValueOne)
	s := tableState(models.ModeNoMercy, mkCard(models.ColorRed, models.ValueFive),
		hand(seven, x), filler(MercyLimit), hand(mkCard(models.ColorGreen, models.ValueOne)))
	before := s.CardCount()
	actor, target := s.Players[0].ID, s.Players[1].ID

	next, err := ApplyPlay(s, 0, seven.ID, models.ColorRed, target)
	require.NoError(t, err)
	require.Len(t, next.Players, 2)
	assert.Equal(t, -1, next.PlayerIndex(actor))
	assert.Equal(t, target, next.Players[next.CurrentPlayerIndex].ID, "turn passes to the next living seat")
	assert.Equal(t, []models.Card{x}, next.Players[0].Hand)
	top, _ := next.TopCard()
	assert.Equal(t, seven.ID, top.ID, "the eliminated hand goes under the seven")
	assert.Equal(t, before, next.CardCount())
	assert.Equal(t, models.StatusPlaying, next.Status)
	assert.Equal(t, "P0 played 7 (Swapped with P1) P0 ELIMINATED (Mercy Rule)!", next.LastAction)
}

func TestMercyEliminationAfterZeroRotation(t *testing.T) {
	zero := mkCard(models.ColorRed, models.ValueZero)
	x := mkCard(models.ColorRed, models.ValueOne)
	y := mkCard(models.ColorGreen, models.ValueOne)
	s := tableState(models.ModeNoMercy, mkCard(models.ColorRed, models.ValueFive),
		hand(zero, x), hand(y), filler(MercyLimit))
	before := s.CardCount()
	p1, p2 := s.Players[1].ID, s.Players[2].ID

	next, err := ApplyPlay(s, 0, zero.ID, models.ColorRed, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, next.Players, 2)
	assert.Equal(t, p1, next.Players[next.CurrentPlayerIndex].ID)
	assert.Equal(t, []models.Card{x}, next.Players[next.PlayerIndex(p1)].Hand)
	assert.Equal(t, []models.Card{y}, next.Players[next.PlayerIndex(p2)].Hand)
	assert.Contains(t, next.LastAction, "ELIMINATED")
	assert.Equal(t, before, next.CardCount())
}
