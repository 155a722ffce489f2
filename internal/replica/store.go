// internal/replica/store.go
package replica

import (
	"context"

	"github.com/google/uuid"
	"github.com/jason-s-yu/chaos-uno/internal/game"
	"github.com/jason-s-yu/chaos-uno/internal/models"
	"github.com/pkg/errors"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomExists     = errors.New("room already exists")
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game already in progress")
)

// Store is a shared document store holding one snapshot per room code.
// Writes are whole-document and last-writer-wins.
type Store interface {
	// Create writes the initial document for roomID. It fails with
	// ErrRoomExists if the code is taken.
	Create(ctx context.Context, roomID string, snap game.Snapshot) error
	Get(ctx context.Context, roomID string) (game.Snapshot, error)
	// Update replaces the whole document and notifies subscribers.
	Update(ctx context.Context, roomID string, snap game.Snapshot) error
	// AppendPlayer adds p to the player list atomically without touching any
	// other field. Seating an already seated player is a no-op.
	AppendPlayer(ctx context.Context, roomID string, p models.Player) error
	// Subscribe calls fn with the current document, then again after every
	// change, until the returned cancel func is called.
	Subscribe(ctx context.Context, roomID string, fn func(game.Snapshot)) (cancel func(), err error)
}

// SeatPlayer applies the AppendPlayer rules to snap. It reports false when p
// was already seated and nothing changed.
func SeatPlayer(snap *game.Snapshot, p models.Player) (bool, error) {
	for _, existing := range snap.Players {
		if existing.ID == p.ID {
			return false, nil
		}
	}
	if snap.Status != models.StatusLobby && snap.Status != models.StatusWaiting {
		return false, ErrGameInProgress
	}
	if len(snap.Players) >= game.MaxPlayers {
		return false, ErrRoomFull
	}
	p.Hand = nil
	p.HasCalledUno = false
	snap.Players = append(snap.Players, p)
	snap.WriterID = uuid.Nil
	return true, nil
}
