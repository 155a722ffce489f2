// internal/game/bot.go
package game

import (
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	botChallengeChance = 0.3
	botUnoChance       = 0.8
)

// kickBots schedules one automated move when the current player is a bot and
// nothing else is in flight. Callers hold e.mu.
func (e *Engine) kickBots() {
	s := e.state
	if !e.driveBots || e.botBusy {
		return
	}
	if s.Status != models.StatusPlaying || s.Pending.Active() {
		return
	}
	cur, ok := s.CurrentPlayer()
	if !ok || !cur.IsBot {
		return
	}
	e.botBusy = true
	idx := s.CurrentPlayerIndex
	e.schedule(e.botDelay, func() { e.runBot(idx) })
}

// runBot plays one turn for the bot seated at idx. If the table moved on
// while the move was scheduled, it only re-arms the scheduler.
func (e *Engine) runBot(idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.botBusy = false
	if !e.driveBots {
		return
	}

	s := e.state
	cur, ok := s.CurrentPlayer()
	if s.Status != models.StatusPlaying || s.Pending.Active() || !ok || !cur.IsBot || s.CurrentPlayerIndex != idx {
		e.kickBots()
		return
	}

	log := e.log.WithFields(logrus.Fields{"bot": cur.Name, "seat": idx})

	for i := range s.Players {
		if i != idx && Vulnerable(s, i) && e.rng.Float64() < botChallengeChance {
			log.Debug("bot challenges")
			e.challengeUno(cur.ID)
			break
		}
	}

	s = e.state
	if me := s.PlayerIndex(cur.ID); me >= 0 && len(s.Players[me].Hand) == 2 && e.rng.Float64() < botUnoChance {
		e.declareUno(cur.ID)
	}

	s = e.state
	me := s.PlayerIndex(cur.ID)
	if me < 0 {
		e.kickBots()
		return
	}
	if playable := PlayableCards(s.Players[me].Hand, s); len(playable) > 0 {
		card := playable[e.rng.IntN(len(playable))]
		log.WithField("card", card.Face(s.ActiveSide)).Debug("bot plays")
		e.playCard(cur.ID, card.ID)
	} else {
		log.Debug("bot draws")
		e.drawCard(cur.ID)
	}
	e.kickBots()
}
