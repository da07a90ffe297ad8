package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/redis"
)

type memOutbox struct {
	mu     sync.Mutex
	msgs   []*models.OutboxEmail
	sent   map[uuid.UUID]bool
	errors map[uuid.UUID]string
}

func newMemOutbox(recipients ...string) *memOutbox {
	o := &memOutbox{sent: map[uuid.UUID]bool{}, errors: map[uuid.UUID]string{}}
	for _, r := range recipients {
		o.msgs = append(o.msgs, &models.OutboxEmail{ID: uuid.New(), RecipientEmail: r, EmailType: models.EmailTypePasswordReset})
	}
	return o
}

func (o *memOutbox) add(recipient string) *models.OutboxEmail {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := &models.OutboxEmail{ID: uuid.New(), RecipientEmail: recipient, EmailType: models.EmailTypePasswordReset}
	o.msgs = append(o.msgs, m)
	return m
}

// ListUnsent orders like the SQL store: fewest attempts first, then insertion order.
func (o *memOutbox) ListUnsent(_ context.Context, limit int) ([]*models.OutboxEmail, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*models.OutboxEmail
	for _, m := range o.msgs {
		if !o.sent[m.ID] {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Attempts < out[j].Attempts })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (o *memOutbox) MarkSent(_ context.Context, id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent[id] = true
	return nil
}

func (o *memOutbox) MarkFailed(_ context.Context, id uuid.UUID, sendErr string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors[id] = sendErr
	for _, m := range o.msgs {
		if m.ID == id {
			m.Attempts++
		}
	}
	return nil
}

type fakeSender struct {
	mu     sync.Mutex
	failTo map[string]bool
	got    []string
	after  func(m *models.OutboxEmail)
}

func (s *fakeSender) Send(_ context.Context, m *models.OutboxEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.after != nil {
		defer s.after(m)
	}
	if s.failTo[m.RecipientEmail] {
		return errors.New("550 mailbox unavailable")
	}
	s.got = append(s.got, m.RecipientEmail)
	return nil
}

func TestDispatchOnce_SendsAndKeepsFailuresQueued(t *testing.T) {
	store := newMemOutbox("a@example.com", "broken@example.com", "c@example.com")
	sender := &fakeSender{failTo: map[string]bool{"broken@example.com": true}}
	d := NewDispatcher(store, sender, nil, time.Minute, 10, nil)

	sent, err := d.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"a@example.com", "c@example.com"}, sender.got)

	broken := store.msgs[1]
	assert.False(t, store.sent[broken.ID])
	assert.Equal(t, "550 mailbox unavailable", store.errors[broken.ID])
	assert.Equal(t, 1, broken.Attempts)

	delete(sender.failTo, "broken@example.com")
	sent, err = d.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.True(t, store.sent[broken.ID])
}

func TestDispatchOnce_BatchLimit(t *testing.T) {
	store := newMemOutbox("a@example.com", "b@example.com", "c@example.com")
	d := NewDispatcher(store, &fakeSender{}, nil, time.Minute, 2, nil)
	sent, err := d.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}

func TestDispatchOnce_FailingMailsDoNotBlockNewOnes(t *testing.T) {
	store := newMemOutbox("bad1@invalid", "bad2@invalid", "bad3@invalid")
	sender := &fakeSender{failTo: map[string]bool{"bad1@invalid": true, "bad2@invalid": true, "bad3@invalid": true}}
	d := NewDispatcher(store, sender, nil, time.Minute, 2, nil)
	ctx := context.Background()

	sent, err := d.DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	fresh := store.add("new@example.com")
	sent, err = d.DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.True(t, store.sent[fresh.ID])
	assert.Equal(t, []string{"new@example.com"}, sender.got)
}

func TestDispatchOnce_StopsWhenLeaseLost(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	store := newMemOutbox("a@example.com", "b@example.com", "c@example.com")
	sender := &fakeSender{after: func(*models.OutboxEmail) {
		// The lease expires and another instance takes over.
		mr.Set("lock:"+dispatchLock, "other")
	}}
	d := NewDispatcher(store, sender, redis.NewLocker(client), time.Minute, 10, nil)

	sent, err := d.DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"a@example.com"}, sender.got)

	got, err := mr.Get("lock:" + dispatchLock)
	require.NoError(t, err)
	assert.Equal(t, "other", got, "new holder keeps the lock")
}

func TestDispatchOnce_SkipsWhileLeaseHeldElsewhere(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := redis.NewLocker(client)
	ctx := context.Background()

	other, err := locker.Acquire(ctx, dispatchLock, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, other)

	store := newMemOutbox("a@example.com")
	d := NewDispatcher(store, &fakeSender{}, locker, time.Minute, 10, nil)
	sent, err := d.DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	require.NoError(t, other.Release(ctx))
	sent, err = d.DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	lease, err := locker.Acquire(ctx, dispatchLock, time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, lease, "dispatcher must release its lease")
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := newMemOutbox("a@example.com")
	sender := &fakeSender{}
	d := NewDispatcher(store, sender, nil, 10*time.Millisecond, 10, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.sent[store.msgs[0].ID]
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
