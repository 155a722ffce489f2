// internal/replica/memory.go
package replica

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jason-s-yu/chaos-uno/internal/game"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/pkg/errors"
)

// MemoryStore is an in-process Store. Documents are kept JSON-encoded so
// that every reader decodes a private copy, as with a remote backend.
type MemoryStore struct {
	mu      sync.Mutex
	rooms   map[string]*memoryRoom
	nextSub int
}

type memoryRoom struct {
	doc  []byte
	subs map[int]func(game.Snapshot)
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*memoryRoom)}
}

func (m *MemoryStore) Create(_ context.Context, roomID string, snap game.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encode room")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; ok {
		return ErrRoomExists
	}
	m.rooms[roomID] = &memoryRoom{doc: doc, subs: make(map[int]func(game.Snapshot))}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, roomID string) (game.Snapshot, error) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	var doc []byte
	if ok {
		doc = room.doc
	}
	m.mu.Unlock()
	if !ok {
		return game.Snapshot{}, ErrRoomNotFound
	}
	return decode(doc)
}

func (m *MemoryStore) Update(_ context.Context, roomID string, snap game.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encode room")
	}
	subs, err := m.replace(roomID, func([]byte) ([]byte, error) { return doc, nil })
	if err != nil {
		return err
	}
	m.deliver(doc, subs)
	return nil
}

func (m *MemoryStore) AppendPlayer(_ context.Context, roomID string, p models.Player) error {
	var changed bool
	var out []byte
	subs, err := m.replace(roomID, func(cur []byte) ([]byte, error) {
		snap, err := decode(cur)
		if err != nil {
			return nil, err
		}
		if changed, err = SeatPlayer(&snap, p); err != nil || !changed {
			return cur, err
		}
		out, err = json.Marshal(snap)
		return out, errors.Wrap(err, "encode room")
	})
	if err != nil || !changed {
		return err
	}
	m.deliver(out, subs)
	return nil
}

func (m *MemoryStore) Subscribe(_ context.Context, roomID string, fn func(game.Snapshot)) (func(), error) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	m.nextSub++
	id := m.nextSub
	room.subs[id] = fn
	doc := room.doc
	m.mu.Unlock()

	if snap, err := decode(doc); err == nil {
		fn(snap)
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(room.subs, id)
	}, nil
}

// replace swaps the document of roomID for edit(current) under the lock and
// returns the subscribers to notify.
func (m *MemoryStore) replace(roomID string, edit func([]byte) ([]byte, error)) ([]func(game.Snapshot), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	doc, err := edit(room.doc)
	if err != nil {
		return nil, err
	}
	room.doc = doc
	subs := make([]func(game.Snapshot), 0, len(room.subs))
	for _, fn := range room.subs {
		subs = append(subs, fn)
	}
	return subs, nil
}

// deliver runs outside the lock so callbacks may call back into the store.
func (m *MemoryStore) deliver(doc []byte, subs []func(game.Snapshot)) {
	for _, fn := range subs {
		snap, err := decode(doc)
		if err != nil {
			return
		}
		fn(snap)
	}
}

func decode(doc []byte) (game.Snapshot, error) {
	var snap game.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return game.Snapshot{}, errors.Wrap(err, "decode room")
	}
	return snap, nil
}
