// internal/room/session.go
package room

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/game"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/jason-s-yu/chaos-uno/internal/replica"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LocalRoomID names the room of a game played entirely in this process.
const LocalRoomID = "LOCAL"

// localBotNames are seated next to the caller by StartLocalGame.
var localBotNames = []string{"Bot Alpha", "Bot Beta", "Bot Gamma"}

// maxCodeAttempts bounds retries when a generated room code is taken.
const maxCodeAttempts = 5

// Config wires a Session to the shared store and to the engine defaults.
type Config struct {
	Store    replica.Store
	Logger   *logrus.Entry
	Rand     game.Rand
	BotDelay time.Duration
	Schedule game.Scheduler

	// Identity returns this client's player id. Defaults to uuid.NewRandom.
	Identity func() (uuid.UUID, error)

	// OnAction receives every action committed by this client's engine.
	OnAction func(models.ActionRecord)

	// Autopilot seats this client as an automated player.
	Autopilot bool
}

// Session is one client's view of one room: it owns the local engine,
// replicates committed transitions to the store and applies snapshots
// written by others. Only the host's session drives bots.
type Session struct {
	cfg Config
	log *logrus.Entry

	mu          sync.Mutex
	myID        uuid.UUID
	roomID      string
	networked   bool
	engine      *game.Engine
	pub         *publisher
	unsubscribe func()
	cancel      context.CancelFunc
}

// NewSession returns a session that is not yet in any room.
func NewSession(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.Rand == nil {
		cfg.Rand = game.NewRand(0)
	}
	if cfg.Identity == nil {
		cfg.Identity = uuid.NewRandom
	}
	return &Session{cfg: cfg, log: cfg.Logger}
}

// identity returns this client's id, acquiring it on first use.
func (s *Session) identity() (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.myID != uuid.Nil {
		return s.myID, nil
	}
	id, err := s.cfg.Identity()
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "acquire identity")
	}
	s.myID = id
	return id, nil
}

// MyID is this client's player id, uuid.Nil before the first room.
func (s *Session) MyID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.myID
}

// RoomID is the current room code, empty outside a room.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// State returns a copy of the current game state, or nil outside a room.
func (s *Session) State() *game.GameState {
	if e := s.current(); e != nil {
		return e.State()
	}
	return nil
}

func (s *Session) current() *game.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// CreateRoom opens a networked room hosted by this client and returns its code.
func (s *Session) CreateRoom(ctx context.Context, mode models.Mode, name string) (string, error) {
	if s.cfg.Store == nil {
		return "", errors.New("no replication store configured")
	}
	id, err := s.identity()
	if err != nil {
		return "", err
	}
	s.LeaveRoom()

	st := game.NewGameState(mode)
	st.Status = models.StatusWaiting
	st.HostID = id
	st.Players = []models.Player{{ID: id, Name: name, IsBot: s.cfg.Autopilot}}
	snap := st.Snapshot()
	snap.WriterID = id

	var code string
	for attempt := 0; ; attempt++ {
		code = NewCode(s.cfg.Rand)
		err = s.cfg.Store.Create(ctx, code, snap)
		if err == nil {
			break
		}
		if !errors.Is(err, replica.ErrRoomExists) || attempt+1 >= maxCodeAttempts {
			return "", errors.Wrap(err, "create room")
		}
	}

	if err := s.attach(ctx, code, mode, true); err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"room": code, "mode": mode}).Info("room created")
	return code, nil
}

// JoinRoom seats this client in room code. It reports false when the room
// does not exist, is full, or has a game running that this client is not
// part of. A seated player may rejoin at any time.
func (s *Session) JoinRoom(ctx context.Context, code, name string) (bool, error) {
	if s.cfg.Store == nil {
		return false, errors.New("no replication store configured")
	}
	id, err := s.identity()
	if err != nil {
		return false, err
	}

	snap, err := s.cfg.Store.Get(ctx, code)
	if errors.Is(err, replica.ErrRoomNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "read room")
	}

	err = s.cfg.Store.AppendPlayer(ctx, code, models.Player{ID: id, Name: name, IsBot: s.cfg.Autopilot})
	switch {
	case errors.Is(err, replica.ErrRoomNotFound), errors.Is(err, replica.ErrGameInProgress), errors.Is(err, replica.ErrRoomFull):
		s.log.WithError(err).WithField("room", code).Info("join declined")
		return false, nil
	case err != nil:
		return false, errors.Wrap(err, "join room")
	}

	s.LeaveRoom()
	if err := s.attach(ctx, code, snap.Mode, snap.HostID == id); err != nil {
		return false, err
	}
	s.log.WithField("room", code).Info("joined room")
	return true, nil
}

// attach builds the engine for a networked room and wires it both ways.
func (s *Session) attach(ctx context.Context, code string, mode models.Mode, host bool) error {
	log := s.log.WithField("room", code)
	e := game.NewEngine(game.Config{
		Mode:      mode,
		RoomID:    code,
		Rand:      s.cfg.Rand,
		Logger:    log,
		BotDelay:  s.cfg.BotDelay,
		Schedule:  s.cfg.Schedule,
		DriveBots: host,
		OnAction:  s.cfg.OnAction,
	})

	runCtx, cancel := context.WithCancel(context.Background())
	pub := newPublisher(s.cfg.Store, code, log)
	go pub.run(runCtx)

	s.mu.Lock()
	myID := s.myID
	s.roomID = code
	s.networked = true
	s.engine = e
	s.pub = pub
	s.cancel = cancel
	s.mu.Unlock()

	e.Observe(func(state *game.GameState, origin game.Origin) {
		if origin != game.OriginLocal {
			return
		}
		snap := state.Snapshot()
		snap.WriterID = myID
		pub.push(snap)
	})

	first := true
	var firstMu sync.Mutex
	unsubscribe, err := s.cfg.Store.Subscribe(ctx, code, func(snap game.Snapshot) {
		firstMu.Lock()
		initial := first
		first = false
		firstMu.Unlock()
		if !initial && snap.WriterID == myID {
			return
		}
		e.Restore(snap)
	})
	if err != nil {
		s.LeaveRoom()
		return errors.Wrap(err, "subscribe to room")
	}

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return nil
}

// StartLocalGame starts an offline game against three bots.
func (s *Session) StartLocalGame(mode models.Mode, name string) (bool, error) {
	id, err := s.identity()
	if err != nil {
		return false, err
	}
	s.LeaveRoom()

	e := game.NewEngine(game.Config{
		Mode:      mode,
		RoomID:    LocalRoomID,
		Rand:      s.cfg.Rand,
		Logger:    s.log.WithField("room", LocalRoomID),
		BotDelay:  s.cfg.BotDelay,
		Schedule:  s.cfg.Schedule,
		DriveBots: true,
		OnAction:  s.cfg.OnAction,
	})
	e.AddPlayer(models.Player{ID: id, Name: name, IsBot: s.cfg.Autopilot})
	for _, bot := range localBotNames {
		e.AddPlayer(models.Player{ID: uuid.New(), Name: bot, IsBot: true})
	}

	s.mu.Lock()
	s.roomID = LocalRoomID
	s.networked = false
	s.engine = e
	s.mu.Unlock()

	return e.StartGame(), nil
}

// isHost reports whether this client may run host-only operations. Every
// local game is hosted by its only human.
func (s *Session) isHost(e *game.Engine) bool {
	return e.State().HostID == s.MyID()
}

// StartGame deals the cards. Only the host may start.
func (s *Session) StartGame() bool {
	e := s.current()
	if e == nil || !s.isHost(e) {
		return false
	}
	return e.StartGame()
}

// AddBot seats an automated player while the room waits. Host only.
func (s *Session) AddBot(ctx context.Context, name string) bool {
	e := s.current()
	if e == nil || !s.isHost(e) {
		return false
	}
	bot := models.Player{ID: uuid.New(), Name: name, IsBot: true}

	s.mu.Lock()
	networked, code := s.networked, s.roomID
	s.mu.Unlock()
	if !networked {
		return e.AddPlayer(bot)
	}

	st := e.State()
	if st.Status != models.StatusLobby && st.Status != models.StatusWaiting {
		return false
	}
	if err := s.cfg.Store.AppendPlayer(ctx, code, bot); err != nil {
		s.log.WithError(err).WithField("room", code).Warn("failed to add bot")
		return false
	}
	return true
}

func (s *Session) PlayCard(playerID, cardID uuid.UUID) bool {
	e := s.current()
	return e != nil && e.PlayCard(playerID, cardID)
}

func (s *Session) DrawCard(playerID uuid.UUID) bool {
	e := s.current()
	return e != nil && e.DrawCard(playerID)
}

// ResolveColor answers this client's pending color choice.
func (s *Session) ResolveColor(color models.Color) bool {
	e := s.current()
	return e != nil && e.ResolveColor(s.MyID(), color)
}

// ResolveSwap answers this client's pending swap target.
func (s *Session) ResolveSwap(target uuid.UUID) bool {
	e := s.current()
	return e != nil && e.ResolveSwap(s.MyID(), target)
}

func (s *Session) DeclareUno(playerID uuid.UUID) bool {
	e := s.current()
	return e != nil && e.DeclareUno(playerID)
}

func (s *Session) ChallengeUno(challengerID uuid.UUID) bool {
	e := s.current()
	return e != nil && e.ChallengeUno(challengerID)
}

// ResetGame ends the game. In a networked room only the host may reset and
// the players stay seated; a local game goes back to an empty lobby.
func (s *Session) ResetGame() bool {
	e := s.current()
	if e == nil {
		return false
	}
	s.mu.Lock()
	networked := s.networked
	s.mu.Unlock()
	if networked && !s.isHost(e) {
		return false
	}
	e.Reset(networked)
	return true
}

// LeaveRoom detaches from the current room. Queued writes are flushed first.
// The document stays in the store.
func (s *Session) LeaveRoom() {
	s.mu.Lock()
	e, pub, unsubscribe, cancel, code := s.engine, s.pub, s.unsubscribe, s.cancel, s.roomID
	s.engine, s.pub, s.unsubscribe, s.cancel = nil, nil, nil, nil
	s.roomID = ""
	s.networked = false
	s.mu.Unlock()

	if e == nil {
		return
	}
	e.SetDriveBots(false)
	if unsubscribe != nil {
		unsubscribe()
	}
	if pub != nil {
		pub.stop()
	}
	if cancel != nil {
		cancel()
	}
	s.log.WithField("room", code).Debug("left room")
}
