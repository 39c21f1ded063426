// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/audit"
)

// captureStore collects inserted entries. The optional gate blocks the first
// insert until released, which lets tests fill the queue deterministically.
type captureStore struct {
	mu      sync.Mutex
	entries []*audit.Entry

	gate     chan struct{}
	gateOnce sync.Once
	started  chan struct{}
}

func newCaptureStore() *captureStore {
	return &captureStore{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
}

func (store *captureStore) Insert(_ context.Context, entry *audit.Entry) error {
	select {
	case store.started <- struct{}{}:
	default:
	}
	<-store.gate

	store.mu.Lock()
	defer store.mu.Unlock()
	store.entries = append(store.entries, entry)
	return nil
}

func (store *captureStore) List(_ context.Context, _ audit.Filter, _, _ int) ([]*audit.Entry, int, error) {
	return nil, 0, nil
}

// release opens the gate so pending and future inserts run through.
func (store *captureStore) release() {
	store.gateOnce.Do(func() { close(store.gate) })
}

func (store *captureStore) kinds() []audit.Kind {
	store.mu.Lock()
	defer store.mu.Unlock()

	kinds := make([]audit.Kind, 0, len(store.entries))
	for _, entry := range store.entries {
		kinds = append(kinds, entry.EventType)
	}
	return kinds
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestJournal_RecordAndDrain verifies that recorded events reach the store with
identity assigned and that Close waits for the worker.
*/
func TestJournal_RecordAndDrain(t *testing.T) {
	store := newCaptureStore()
	store.release()

	journal := audit.NewJournal(store, discardLogger(), 16)

	journal.Record(audit.Event{
		Kind:      audit.KindLoginSuccess,
		UserID:    "user-1",
		TenantID:  "tenant-1",
		IPAddress: "10.0.0.1",
		Details:   map[string]any{"device": "laptop"},
	})
	journal.Record(audit.Event{Kind: audit.KindLogout, UserID: "user-1"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, journal.Close(ctx))

	require.Len(t, store.entries, 2)

	first := store.entries[0]
	assert.Equal(t, audit.KindLoginSuccess, first.EventType)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	require.NotNil(t, first.UserID)
	assert.Equal(t, "user-1", *first.UserID)
	require.NotNil(t, first.IPAddress)
	assert.Equal(t, "10.0.0.1", *first.IPAddress)
	assert.Equal(t, "laptop", first.Details["device"])

	// Empty transport fields persist as NULL, not as empty strings.
	second := store.entries[1]
	assert.Nil(t, second.TenantID)
	assert.Nil(t, second.IPAddress)
}

/*
TestJournal_SaturationDropsOldest verifies the drop-oldest admission policy:
when the queue is full the newest event survives at the expense of the oldest
queued one.
*/
func TestJournal_SaturationDropsOldest(t *testing.T) {
	store := newCaptureStore()
	journal := audit.NewJournal(store, discardLogger(), 1)

	// The worker picks this up and blocks inside the store.
	journal.Record(audit.Event{Kind: audit.KindLoginSuccess})
	select {
	case <-store.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first event")
	}

	// Queue now holds LOGIN_FAILED; recording LOGOUT evicts it.
	journal.Record(audit.Event{Kind: audit.KindLoginFailed})
	journal.Record(audit.Event{Kind: audit.KindLogout})

	store.release()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, journal.Close(ctx))

	assert.Equal(t, []audit.Kind{audit.KindLoginSuccess, audit.KindLogout}, store.kinds())
}

/*
TestJournal_RecordAfterClose verifies that late producers are ignored rather
than panicking on the closed queue.
*/
func TestJournal_RecordAfterClose(t *testing.T) {
	store := newCaptureStore()
	store.release()

	journal := audit.NewJournal(store, discardLogger(), 4)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, journal.Close(ctx))

	assert.NotPanics(t, func() {
		journal.Record(audit.Event{Kind: audit.KindLoginSuccess})
	})
	assert.Empty(t, store.kinds())

	// Closing twice is harmless.
	require.NoError(t, journal.Close(ctx))
}

/*
TestJournal_RecordDenial verifies the role-guard observer contract.
*/
func TestJournal_RecordDenial(t *testing.T) {
	store := newCaptureStore()
	store.release()

	journal := audit.NewJournal(store, discardLogger(), 4)
	journal.RecordDenial("user-1", "tenant-1", "/api/admin/audit-logs", "10.0.0.9", "curl/8.0")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, journal.Close(ctx))

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, audit.KindPermissionDenied, entry.EventType)
	assert.Equal(t, "/api/admin/audit-logs", entry.Details["path"])
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "user-1", *entry.UserID)
}

/*
TestKind_IsValid verifies the closed event-kind set.
*/
func TestKind_IsValid(t *testing.T) {
	for _, kind := range audit.Kinds() {
		assert.True(t, kind.IsValid(), "kind %s", kind)
	}

	assert.False(t, audit.Kind("NOT_A_KIND").IsValid())
	assert.False(t, audit.Kind("").IsValid())
}
