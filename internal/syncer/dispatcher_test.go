package syncer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/sajda/internal/db"
	"github.com/Nixie-Tech-LLC/sajda/internal/model"
	"github.com/Nixie-Tech-LLC/sajda/internal/syncer"
)

type memQueue struct {
	mu      sync.Mutex
	items   []model.SyncQueueItem
	nextID  int64
	listErr error
}

func (q *memQueue) Enqueue(_ context.Context, date model.Date, payload model.PrayerPayload) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.items = append(q.items, model.SyncQueueItem{ID: q.nextID, Date: date, Payload: payload, CreatedAt: time.Now()})
	return q.nextID, nil
}

func (q *memQueue) ListPending(context.Context) ([]model.SyncQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.listErr != nil {
		return nil, q.listErr
	}
	out := make([]model.SyncQueueItem, len(q.items))
	copy(out, q.items)
	return out, nil
}

func (q *memQueue) Remove(_ context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (q *memQueue) dates() []model.Date {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []model.Date
	for _, it := range q.items {
		out = append(out, it.Date)
	}
	return out
}

type fakeRemote struct {
	mu       sync.Mutex
	calls    []model.Date
	got      map[model.Date]model.PrayerPayload
	failOn   map[model.Date]error
	probeErr error
	block    chan struct{}
	entered  chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{got: map[model.Date]model.PrayerPayload{}, failOn: map[model.Date]error{}}
}

func (r *fakeRemote) UpsertDay(_ context.Context, date model.Date, payload model.PrayerPayload) error {
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, date)
	if err := r.failOn[date]; err != nil {
		return err
	}
	r.got[date] = payload
	return nil
}

func (r *fakeRemote) Probe(context.Context) error { return r.probeErr }

func seed(t *testing.T, q *memQueue, dates ...model.Date) {
	t.Helper()
	for i, d := range dates {
		_, err := q.Enqueue(context.Background(), d, model.PrayerPayload{Fajr: i%2 == 0, Isha: true})
		require.NoError(t, err)
	}
}

func TestSyncPendingItems_DrainsInOrder(t *testing.T) {
	q := &memQueue{}
	seed(t, q, "2026-03-01", "2026-03-02", "2026-03-03")
	remote := newFakeRemote()

	res := syncer.NewDispatcher(q, remote, zerolog.Nop()).SyncPendingItems(context.Background())

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.SyncedCount)
	assert.Zero(t, res.FailedCount)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []model.Date{"2026-03-01", "2026-03-02", "2026-03-03"}, remote.calls)
	assert.Equal(t, model.PrayerPayload{Fajr: true, Isha: true}, remote.got["2026-03-01"])
	assert.Empty(t, q.dates())
}

func TestSyncPendingItems_FailureDoesNotAbortPass(t *testing.T) {
	q := &memQueue{}
	seed(t, q, "2026-03-01", "2026-03-02", "2026-03-03")
	remote := newFakeRemote()
	remote.failOn["2026-03-02"] = errors.New("503 service unavailable")

	res := syncer.NewDispatcher(q, remote, zerolog.Nop()).SyncPendingItems(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.SyncedCount)
	assert.Equal(t, 1, res.FailedCount)
	assert.Equal(t, 3, res.SyncedCount+res.FailedCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "2026-03-02")
	assert.Equal(t, []model.Date{"2026-03-01", "2026-03-02", "2026-03-03"}, remote.calls)
	assert.Equal(t, []model.Date{"2026-03-02"}, q.dates())

	// the next pass retries the leftover item
	delete(remote.failOn, "2026-03-02")
	res = syncer.NewDispatcher(q, remote, zerolog.Nop()).SyncPendingItems(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.SyncedCount)
	assert.Empty(t, q.dates())
}

func TestSyncPendingItems_EmptyQueue(t *testing.T) {
	res := syncer.NewDispatcher(&memQueue{}, newFakeRemote(), zerolog.Nop()).SyncPendingItems(context.Background())
	assert.True(t, res.Success)
	assert.Zero(t, res.SyncedCount)
	assert.Zero(t, res.FailedCount)
}

func TestSyncPendingItems_Offline(t *testing.T) {
	q := &memQueue{}
	seed(t, q, "2026-03-01")
	remote := newFakeRemote()
	remote.probeErr = errors.New("dial tcp: no route to host")

	res := syncer.NewDispatcher(q, remote, zerolog.Nop()).SyncPendingItems(context.Background())

	assert.False(t, res.Success)
	assert.Zero(t, res.SyncedCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], syncer.ErrOffline.Error())
	assert.Empty(t, remote.calls)
	assert.Len(t, q.dates(), 1)
}

func TestSyncPendingItems_QueueReadError(t *testing.T) {
	q := &memQueue{listErr: errors.New("disk I/O error")}

	res := syncer.NewDispatcher(q, newFakeRemote(), zerolog.Nop()).SyncPendingItems(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, []string{"disk I/O error"}, res.Errors)
}

func TestSyncPendingItems_RejectsConcurrentPass(t *testing.T) {
	q := &memQueue{}
	seed(t, q, "2026-03-01")
	remote := newFakeRemote()
	remote.block = make(chan struct{})
	remote.entered = make(chan struct{}, 1)
	d := syncer.NewDispatcher(q, remote, zerolog.Nop())

	first := make(chan syncer.Result, 1)
	go func() { first <- d.SyncPendingItems(context.Background()) }()

	<-remote.entered
	assert.True(t, d.InProgress())

	second := d.SyncPendingItems(context.Background())
	assert.False(t, second.Success)
	assert.Zero(t, second.SyncedCount)
	assert.Equal(t, []string{syncer.ErrDispatchInProgress.Error()}, second.Errors)

	close(remote.block)
	res := <-first
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.SyncedCount)
	assert.False(t, d.InProgress())
}

func TestSyncPendingItems_AgainstSQLiteQueue(t *testing.T) {
	conn, err := db.Open(db.DriverSQLite, t.TempDir()+"/queue.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	store := db.NewStore(conn)

	ctx := context.Background()
	_, err = store.Enqueue(ctx, "2026-04-10", model.PrayerPayload{Fajr: true})
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, "2026-04-11", model.PrayerPayload{Dhuhr: true})
	require.NoError(t, err)

	remote := newFakeRemote()
	res := syncer.NewDispatcher(store, remote, zerolog.Nop()).SyncPendingItems(ctx)
	require.True(t, res.Success)
	assert.Equal(t, 2, res.SyncedCount)

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, model.PrayerPayload{Dhuhr: true}, remote.got["2026-04-11"])
}
