// internal/game/engine.go
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/sirupsen/logrus"
)

// Origin tells observers where a state change came from.
type Origin uint8

const (
	// OriginLocal is a transition computed by this engine; it should be replicated.
	OriginLocal Origin = iota
	// OriginPending only touched local interrupt state; nothing to replicate.
	OriginPending
	// OriginRemote is a snapshot received from the shared store.
	OriginRemote
)

// Observer receives a private copy of the state after every change. Observers
// run while the engine is locked and must not call back into it.
type Observer func(state *GameState, origin Origin)

// Scheduler runs f after d. time.AfterFunc is the default.
type Scheduler func(d time.Duration, f func())

// Config wires an Engine to its collaborators. Zero values get defaults.
type Config struct {
	Mode     models.Mode
	RoomID   string
	Rand     Rand
	Logger   *logrus.Entry
	BotDelay time.Duration
	Schedule Scheduler

	// DriveBots lets this engine move automated players. Only the host (or a
	// local game) should drive bots.
	DriveBots bool

	// OnAction receives a record of every committed intent. It must not block.
	OnAction func(models.ActionRecord)
}

// Engine owns the authoritative GameState of one game and applies intents to it.
// Every transition is computed on a clone; the current state is swapped only
// after the transition succeeded. Invalid intents leave the state untouched
// and report false.
type Engine struct {
	mu sync.Mutex

	state *GameState
	rng   Rand
	log   *logrus.Entry

	roomID    string
	botDelay  time.Duration
	schedule  Scheduler
	driveBots bool
	botBusy   bool

	observers   []Observer
	onAction    func(models.ActionRecord)
	actionIndex int
}

// NewEngine builds an engine holding a blank lobby state.
func NewEngine(cfg Config) *Engine {
	if cfg.Mode == "" {
		cfg.Mode = models.ModeClassic
	}
	if cfg.Rand == nil {
		cfg.Rand = NewRand(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.BotDelay == 0 {
		cfg.BotDelay = time.Second
	}
	if cfg.Schedule == nil {
		cfg.Schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return &Engine{
		state:     NewGameState(cfg.Mode),
		rng:       cfg.Rand,
		log:       cfg.Logger.WithField("mode", cfg.Mode),
		roomID:    cfg.RoomID,
		botDelay:  cfg.BotDelay,
		schedule:  cfg.Schedule,
		driveBots: cfg.DriveBots,
		onAction:  cfg.OnAction,
	}
}

// State returns a copy of the current state.
func (e *Engine) State() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Observe registers an observer for every future state change.
func (e *Engine) Observe(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// SetDriveBots turns automated play on or off for this engine.
func (e *Engine) SetDriveBots(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.driveBots = on
	e.kickBots()
}

// AddPlayer seats a player while the game has not started.
func (e *Engine) AddPlayer(p models.Player) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	if s.Status != models.StatusLobby && s.Status != models.StatusWaiting {
		return e.reject("add_player", p.ID, "game already started")
	}
	if len(s.Players) >= MaxPlayers {
		return e.reject("add_player", p.ID, "table is full")
	}
	if s.PlayerIndex(p.ID) >= 0 {
		return e.reject("add_player", p.ID, "already seated")
	}
	next := s.Clone()
	p.Hand = nil
	p.HasCalledUno = false
	next.Players = append(next.Players, p)
	if next.HostID == uuid.Nil {
		next.HostID = p.ID
	}
	e.commit(next, OriginLocal, p.ID, "add_player", map[string]interface{}{"name": p.Name, "isBot": p.IsBot})
	return true
}

// StartGame deals a fresh deck to every seated player and starts play.
func (e *Engine) StartGame() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	if s.Status != models.StatusLobby && s.Status != models.StatusWaiting {
		return e.reject(models.ActionStartGame, uuid.Nil, "game already started")
	}
	if len(s.Players) < 2 || len(s.Players) > MaxPlayers {
		return e.reject(models.ActionStartGame, uuid.Nil, "need between 2 and 10 players")
	}

	next := Deal(s, e.rng)
	e.commit(next, OriginLocal, s.HostID, models.ActionStartGame, map[string]interface{}{
		"players": len(next.Players),
		"deck":    len(next.Deck),
	})
	e.log.WithField("players", len(next.Players)).Info("game started")
	e.kickBots()
	return true
}

// Deal returns s with a new shuffled deck, seven cards per player and a
// non-wild starting discard.
func Deal(s *GameState, r Rand) *GameState {
	next := s.Clone()
	deck := GenerateDeck(s.Mode, r)

	for i := range next.Players {
		next.Players[i].Hand = append([]models.Card(nil), deck[:HandSize]...)
		next.Players[i].HasCalledUno = false
		deck = deck[HandSize:]
	}

	start := deck[len(deck)-1]
	deck = deck[:len(deck)-1]
	for start.Light.IsWild() {
		deck = append([]models.Card{start}, deck...)
		start = deck[len(deck)-1]
		deck = deck[:len(deck)-1]
	}

	next.Deck = deck
	next.DiscardPile = []models.Card{start}
	next.Status = models.StatusPlaying
	next.CurrentPlayerIndex = 0
	next.Direction = 1
	next.ActiveSide = models.SideLight
	next.CurrentColor = start.Light.Color
	next.DrawStack = 0
	next.RouletteColor = models.ColorNone
	next.Pending = PendingAction{}
	next.WinnerID = uuid.Nil
	next.LastAction = "Game Started!"
	return next
}

// PlayCard plays cardID from the hand of playerID. Wild faces and No-Mercy
// sevens suspend on an interrupt instead; automated players resolve it at once.
func (e *Engine) PlayCard(playerID, cardID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.playCard(playerID, cardID)
	e.kickBots()
	return ok
}

func (e *Engine) playCard(playerID, cardID uuid.UUID) bool {
	s := e.state
	idx, ok := e.actorIndex(models.ActionPlayCard, playerID)
	if !ok {
		return false
	}
	player := s.Players[idx]
	pos := player.FindCard(cardID)
	if pos < 0 {
		return e.reject(models.ActionPlayCard, playerID, "card not in hand")
	}
	card := player.Hand[pos]
	if !IsPlayable(card, s) {
		return e.reject(models.ActionPlayCard, playerID, "card not playable")
	}

	face := card.Face(s.ActiveSide)
	switch {
	case needsColorChoice(face):
		e.suspend(PendingColorChoice, playerID, cardID)
		if player.IsBot {
			return e.resolveColor(randomColor(e.rng, s.ActiveSide))
		}
		return true
	case needsSwapTarget(s.Mode, face):
		e.suspend(PendingSwapTarget, playerID, cardID)
		if player.IsBot {
			return e.resolveSwap(firstOther(s, playerID))
		}
		return true
	}

	next, err := ApplyPlay(s, idx, cardID, face.Color, uuid.Nil)
	if err != nil {
		return e.reject(models.ActionPlayCard, playerID, err.Error())
	}
	e.commit(next, OriginLocal, playerID, models.ActionPlayCard, map[string]interface{}{
		"card":  cardID.String(),
		"value": face.Value.String(),
		"color": face.Color.String(),
	})
	return true
}

// DrawCard draws for playerID under whichever draw regime is active. A
// voluntary draw that turns up a playable card plays it immediately.
func (e *Engine) DrawCard(playerID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.drawCard(playerID)
	e.kickBots()
	return ok
}

func (e *Engine) drawCard(playerID uuid.UUID) bool {
	idx, ok := e.actorIndex(models.ActionDrawCard, playerID)
	if !ok {
		return false
	}
	res, err := ResolveDraw(e.state, idx, e.rng)
	if err != nil {
		return e.reject(models.ActionDrawCard, playerID, err.Error())
	}
	e.commit(res.State, OriginLocal, playerID, models.ActionDrawCard, map[string]interface{}{
		"drawn": len(res.Drawn),
	})
	if res.AutoPlay != nil {
		e.playCard(playerID, res.AutoPlay.ID)
	}
	return true
}

// DeclareUno records playerID calling UNO.
func (e *Engine) DeclareUno(playerID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.declareUno(playerID)
}

func (e *Engine) declareUno(playerID uuid.UUID) bool {
	s := e.state
	if s.Status != models.StatusPlaying || s.Pending.Active() {
		return e.reject(models.ActionDeclareUno, playerID, "not accepting declarations")
	}
	next, ok := DeclareUno(s, s.PlayerIndex(playerID))
	if !ok {
		return e.reject(models.ActionDeclareUno, playerID, "cannot declare")
	}
	e.commit(next, OriginLocal, playerID, models.ActionDeclareUno, nil)
	return true
}

// ChallengeUno penalizes every opponent of challengerID caught holding one
// card without having called UNO.
func (e *Engine) ChallengeUno(challengerID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challengeUno(challengerID)
}

func (e *Engine) challengeUno(challengerID uuid.UUID) bool {
	s := e.state
	if s.Status != models.StatusPlaying || s.Pending.Active() {
		return e.reject(models.ActionChallenge, challengerID, "not accepting challenges")
	}
	next, ok := ChallengeUno(s, s.PlayerIndex(challengerID), e.rng)
	if !ok {
		return e.reject(models.ActionChallenge, challengerID, "nobody to catch")
	}
	e.commit(next, OriginLocal, challengerID, models.ActionChallenge, nil)
	return true
}

// Reset ends the current game. A networked room goes back to Waiting with
// its players seated; a local game returns to a blank lobby.
func (e *Engine) Reset(networked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	var next *GameState
	if networked {
		next = s.Clone()
		next.Status = models.StatusWaiting
		for i := range next.Players {
			next.Players[i].Hand = nil
			next.Players[i].HasCalledUno = false
		}
		next.Deck = nil
		next.DiscardPile = nil
		next.DrawStack = 0
		next.RouletteColor = models.ColorNone
		next.Pending = PendingAction{}
		next.WinnerID = uuid.Nil
		next.LastAction = "Game reset"
	} else {
		next = NewGameState(s.Mode)
	}
	e.commit(next, OriginLocal, uuid.Nil, models.ActionResetGame, nil)
}

// Restore merges a snapshot received from the shared store. The local
// pending interrupt survives only if its card is still in its owner's hand
// and still playable on the new table.
func (e *Engine) Restore(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := snap.merge(e.state)
	if p := next.Pending; p.Active() {
		idx := next.PlayerIndex(p.PlayerID)
		if next.Status != models.StatusPlaying || idx < 0 {
			next.Pending = PendingAction{}
		} else if pos := next.Players[idx].FindCard(p.CardID); pos < 0 || !IsPlayable(next.Players[idx].Hand[pos], next) {
			next.Pending = PendingAction{}
		}
	}
	e.state = next
	e.notify(OriginRemote)
	e.kickBots()
}

// actorIndex validates that playerID may act now and returns their seat.
// Outside Speed mode only the current player may act.
func (e *Engine) actorIndex(action string, playerID uuid.UUID) (int, bool) {
	s := e.state
	if s.Status != models.StatusPlaying {
		return -1, e.reject(action, playerID, "game not in progress")
	}
	if s.Pending.Active() {
		return -1, e.reject(action, playerID, "interrupt pending")
	}
	if s.Mode != models.ModeSpeed {
		cur, ok := s.CurrentPlayer()
		if !ok || cur.ID != playerID {
			return -1, e.reject(action, playerID, "not your turn")
		}
	}
	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return -1, e.reject(action, playerID, "unknown player")
	}
	return idx, true
}

// commit swaps in next, records the action and notifies observers.
func (e *Engine) commit(next *GameState, origin Origin, actor uuid.UUID, action string, payload map[string]interface{}) {
	prev := e.state
	e.state = next
	if origin != OriginLocal {
		e.notify(origin)
		return
	}

	e.record(actor, action, payload)
	if next.Status == models.StatusPlaying || next.Status == models.StatusOver {
		for _, p := range prev.Players {
			if next.PlayerIndex(p.ID) < 0 {
				e.log.WithField("player", p.Name).Info("player eliminated")
				e.record(p.ID, models.ActionEliminated, map[string]interface{}{"cards": len(p.Hand)})
			}
		}
	}
	if next.Status == models.StatusOver && prev.Status != models.StatusOver {
		if w, ok := next.Winner(); ok {
			e.log.WithFields(logrus.Fields{"winner": w.ID, "name": w.Name}).Info("game over")
			e.record(w.ID, models.ActionGameOver, map[string]interface{}{"winner": w.Name})
		}
	}
	e.notify(origin)
}

func (e *Engine) notify(origin Origin) {
	for _, o := range e.observers {
		o(e.state.Clone(), origin)
	}
}

func (e *Engine) record(actor uuid.UUID, action string, payload map[string]interface{}) {
	if e.onAction == nil {
		return
	}
	e.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	e.onAction(models.ActionRecord{
		RoomID:      e.roomID,
		ActionIndex: e.actionIndex,
		ActorID:     actor,
		ActionType:  action,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	})
}

// reject logs a declined intent and reports false.
func (e *Engine) reject(action string, playerID uuid.UUID, reason string) bool {
	e.log.WithFields(logrus.Fields{
		"action": action,
		"player": playerID,
		"reason": reason,
	}).Debug("intent declined")
	return false
}
