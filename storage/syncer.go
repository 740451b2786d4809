package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/judgegodwins/goban-server/coordinator"
)

const (
	defaultQueueSize = 1024
	defaultOpTimeout = 2 * time.Second
)

// directory is the part of RoomStore the syncer writes through.
type directory interface {
	SaveRoom(ctx context.Context, room coordinator.RoomSnapshot) error
	DeleteRoom(ctx context.Context, name string) error
}

type syncOp struct {
	room    coordinator.RoomSnapshot
	removed bool
}

// Syncer mirrors coordinator room changes into the room directory. Changes are
// queued and applied in order by Run, so a removed room is never written back
// by an older update.
type Syncer struct {
	store     directory
	ops       chan syncOp
	opTimeout time.Duration
	log       *slog.Logger
}

type SyncerOption func(*Syncer)

func WithQueueSize(n int) SyncerOption {
	return func(s *Syncer) {
		if n > 0 {
			s.ops = make(chan syncOp, n)
		}
	}
}

func WithOpTimeout(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

func WithSyncerLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if l != nil {
			s.log = l
		}
	}
}

func NewSyncer(store directory, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		store:     store,
		ops:       make(chan syncOp, defaultQueueSize),
		opTimeout: defaultOpTimeout,
		log:       slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RoomUpdated implements coordinator.RoomObserver.
func (s *Syncer) RoomUpdated(room coordinator.RoomSnapshot) {
	s.enqueue(syncOp{room: room})
}

// RoomRemoved implements coordinator.RoomObserver.
func (s *Syncer) RoomRemoved(name string) {
	s.enqueue(syncOp{room: coordinator.RoomSnapshot{Name: name}, removed: true})
}

func (s *Syncer) enqueue(op syncOp) {
	select {
	case s.ops <- op:
	default:
		s.log.Warn("room directory queue full, dropping update", "room", op.room.Name, "removed", op.removed)
	}
}

// Run applies queued changes until ctx is done, then applies whatever is
// still queued before returning. Stop it only after the last room change has
// been made, or that change is lost.
func (s *Syncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return
		case op := <-s.ops:
			s.apply(op)
		}
	}
}

func (s *Syncer) drain() {
	for {
		select {
		case op := <-s.ops:
			s.apply(op)
		default:
			return
		}
	}
}

// apply runs one op with its own timeout so a drain after shutdown still
// reaches Redis.
func (s *Syncer) apply(op syncOp) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	var err error
	if op.removed {
		err = s.store.DeleteRoom(ctx, op.room.Name)
	} else {
		err = s.store.SaveRoom(ctx, op.room)
	}

	if err != nil {
		s.log.Error("room directory sync failed", "room", op.room.Name, "removed", op.removed, "error", err)
		return
	}

	s.log.Debug("room directory synced", "room", op.room.Name, "removed", op.removed)
}
