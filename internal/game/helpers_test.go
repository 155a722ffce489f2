package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// mkCard builds a card whose light face is c/v. The kind follows the color and value.
func mkCard(c models.Color, v models.Value) models.Card {
	kind := models.KindAction
	switch {
	case c.IsWild():
		kind = models.KindWild
	case v.IsNumber():
		kind = models.KindNumber
	}
	return models.Card{
		ID:    uuid.New(),
		Light: models.CardFace{Color: c, Value: v, Kind: kind},
		Dark:  models.InertDarkFace,
	}
}

func filler(n int) []models.Card {
	out := make([]models.Card, n)
	for i := range out {
		out[i] = mkCard(models.ColorBlue, models.ValueNine)
	}
	return out
}

// tableState seats one player per hand, puts top on the discard pile and
// leaves twenty blue nines in the deck. Player 0 is the host and on turn.
func tableState(mode models.Mode, top models.Card, hands ...[]models.Card) *GameState {
	s := NewGameState(mode)
	s.Status = models.StatusPlaying
	for i, h := range hands {
		s.Players = append(s.Players, models.Player{
			ID:   uuid.New(),
			Name: fmt.Sprintf("P%d", i),
			Hand: h,
		})
	}
	s.HostID = s.Players[0].ID
	s.DiscardPile = []models.Card{top}
	s.CurrentColor = top.Light.Color
	s.Deck = filler(20)
	return s
}

// manualScheduler queues bot moves until the test runs them.
type manualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (m *manualScheduler) schedule(_ time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, f)
}

func (m *manualScheduler) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// runNext runs the oldest queued move. It reports false when none is queued.
func (m *manualScheduler) runNext() bool {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return false
	}
	f := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()
	f()
	return true
}

// recorder collects observer notifications and action records.
type recorder struct {
	mu      sync.Mutex
	origins []Origin
	actions []models.ActionRecord
}

func (r *recorder) observe(_ *GameState, o Origin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.origins = append(r.origins, o)
}

func (r *recorder) onAction(a models.ActionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}

func (r *recorder) lastOrigin() Origin {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.origins) == 0 {
		return Origin(255)
	}
	return r.origins[len(r.origins)-1]
}

// setupEngine wraps s in an engine with a seeded generator and a manual scheduler.
func setupEngine(t *testing.T, s *GameState, driveBots bool) (*Engine, *manualScheduler, *recorder) {
	t.Helper()
	require.NotNil(t, s)

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	sched := &manualScheduler{}
	rec := &recorder{}

	e := NewEngine(Config{
		Mode:      s.Mode,
		RoomID:    "TEST",
		Rand:      NewRand(42),
		Logger:    logrus.NewEntry(log),
		Schedule:  sched.schedule,
		DriveBots: driveBots,
		OnAction:  rec.onAction,
	})
	e.state = s
	e.Observe(rec.observe)
	return e, sched, rec
}
