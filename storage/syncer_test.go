package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judgegodwins/goban-server/coordinator"
	"github.com/judgegodwins/goban-server/util"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingDirectory struct {
	sync.Mutex
	ops  []string
	fail bool
}

func (d *recordingDirectory) SaveRoom(ctx context.Context, room coordinator.RoomSnapshot) error {
	d.Lock()
	defer d.Unlock()

	d.ops = append(d.ops, "save:"+room.Name)
	if d.fail {
		return errors.New("unavailable")
	}
	return nil
}

func (d *recordingDirectory) DeleteRoom(ctx context.Context, name string) error {
	d.Lock()
	defer d.Unlock()

	d.ops = append(d.ops, "delete:"+name)
	if d.fail {
		return errors.New("unavailable")
	}
	return nil
}

func (d *recordingDirectory) recorded() []string {
	d.Lock()
	defer d.Unlock()

	return append([]string(nil), d.ops...)
}

func runSyncer(t *testing.T, s *Syncer) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		s.Run(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestSyncer_AppliesInOrder(t *testing.T) {
	dir := &recordingDirectory{}
	s := NewSyncer(dir, WithSyncerLogger(discardLogger))

	s.RoomUpdated(coordinator.RoomSnapshot{Name: "r1"})
	s.RoomUpdated(coordinator.RoomSnapshot{Name: "r2"})
	s.RoomRemoved("r1")
	s.RoomUpdated(coordinator.RoomSnapshot{Name: "r1"})

	runSyncer(t, s)

	want := []string{"save:r1", "save:r2", "delete:r1", "save:r1"}
	require.Eventually(t, func() bool {
		return len(dir.recorded()) == len(want)
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, want, dir.recorded())
}

func TestSyncer_DropsWhenQueueFull(t *testing.T) {
	dir := &recordingDirectory{}
	s := NewSyncer(dir, WithQueueSize(2), WithSyncerLogger(discardLogger))

	s.RoomUpdated(coordinator.RoomSnapshot{Name: "r1"})
	s.RoomUpdated(coordinator.RoomSnapshot{Name: "r2"})
	s.RoomUpdated(coordinator.RoomSnapshot{Name: "r3"})

	runSyncer(t, s)

	require.Eventually(t, func() bool {
		return len(dir.recorded()) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"save:r1", "save:r2"}, dir.recorded())
}

func TestSyncer_KeepsGoingAfterFailure(t *testing.T) {
	dir := &recordingDirectory{fail: true}
	s := NewSyncer(dir, WithOpTimeout(100*time.Millisecond), WithSyncerLogger(discardLogger))

	runSyncer(t, s)

	s.RoomUpdated(coordinator.RoomSnapshot{Name: "r1"})
	s.RoomRemoved("r1")

	require.Eventually(t, func() bool {
		return len(dir.recorded()) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSyncer_MirrorsCoordinator(t *testing.T) {
	store, mr := newTestRoomStore(t, time.Hour)
	s := NewSyncer(store, WithSyncerLogger(discardLogger))
	runSyncer(t, s)

	c := coordinator.New(nopTransport{}, coordinator.WithObserver(s), coordinator.WithLogger(discardLogger))

	_, err := c.Join("a", "r1")
	require.NoError(t, err)
	_, err = c.Join("b", "r1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		data, err := store.LoadRoom(context.Background(), "r1")
		return err == nil && data[util.RoomWhiteKey] == "b"
	}, time.Second, 5*time.Millisecond)

	c.Disconnect("a")
	c.Disconnect("b")

	require.Eventually(t, func() bool {
		return !mr.Exists(util.GetRoomKey("r1"))
	}, time.Second, 5*time.Millisecond)
}

type nopTransport struct{}

func (nopTransport) JoinGroup(string, string)                   {}
func (nopTransport) EmitToRoom(string, string, json.RawMessage) {}
func (nopTransport) EmitTo(string, string, json.RawMessage)     {}

func TestSyncer_DrainsQueueWhenStopped(t *testing.T) {
	dir := &recordingDirectory{}
	s := NewSyncer(dir, WithSyncerLogger(discardLogger))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.RoomUpdated(coordinator.RoomSnapshot{Name: "r1"})
	s.RoomUpdated(coordinator.RoomSnapshot{Name: "r2"})
	s.RoomRemoved("r1")

	s.Run(ctx)

	assert.Equal(t, []string{"save:r1", "save:r2", "delete:r1"}, dir.recorded())
}

func TestSyncer_ShutdownRemovesRooms(t *testing.T) {
	store, mr := newTestRoomStore(t, time.Hour)
	s := NewSyncer(store, WithSyncerLogger(discardLogger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		s.Run(ctx)
		close(done)
	}()

	c := coordinator.New(nopTransport{}, coordinator.WithObserver(s), coordinator.WithLogger(discardLogger))

	_, err := c.Join("a", "r1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return mr.Exists(util.GetRoomKey("r1"))
	}, time.Second, 5*time.Millisecond)

	// the last player leaves as the server goes down, then the syncer stops
	c.Disconnect("a")
	cancel()
	<-done

	assert.False(t, mr.Exists(util.GetRoomKey("r1")), "room hash is deleted before the syncer returns")
}
