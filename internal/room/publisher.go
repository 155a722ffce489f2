// internal/room/publisher.go
package room

import (
	"context"
	"sync"

	"github.com/jason-s-yu/chaos-uno/internal/game"
	"github.com/jason-s-yu/chaos-uno/internal/replica"
	"github.com/sirupsen/logrus"
)

// publisher writes snapshots of one room to the store from a single
// goroutine. Only the newest unsent snapshot is kept; older ones are
// superseded since every write replaces the whole document.
type publisher struct {
	store  replica.Store
	roomID string
	log    *logrus.Entry

	mu     sync.Mutex
	latest *game.Snapshot
	signal chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

func newPublisher(store replica.Store, roomID string, log *logrus.Entry) *publisher {
	return &publisher{
		store:  store,
		roomID: roomID,
		log:    log,
		signal: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// push queues snap without blocking.
func (p *publisher) push(snap game.Snapshot) {
	p.mu.Lock()
	p.latest = &snap
	p.mu.Unlock()
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *publisher) take() (game.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return game.Snapshot{}, false
	}
	snap := *p.latest
	p.latest = nil
	return snap, true
}

func (p *publisher) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-p.signal:
			p.flush(ctx)
		case <-p.quit:
			p.flush(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *publisher) flush(ctx context.Context) {
	snap, ok := p.take()
	if !ok {
		return
	}
	if err := p.store.Update(ctx, p.roomID, snap); err != nil {
		p.log.WithError(err).WithField("room", p.roomID).Error("failed to publish room state")
	}
}

// stop writes any queued snapshot and waits for the goroutine to exit.
func (p *publisher) stop() {
	close(p.quit)
	<-p.done
}
