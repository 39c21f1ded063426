// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/aegis/pkg/uuidv7"
)

// persistTimeout bounds each background write. A stuck database must not
// wedge the worker forever; the entry is logged and dropped instead.
const persistTimeout = 5 * time.Second

// # Journal

// Journal accepts events on the request path and persists them from a single
// background worker.
//
// # Contract
//
//   - Record returns immediately; it never blocks on the database.
//   - Write failures are logged locally and the event is dropped. The trail
//     is best-effort durable, not transactional.
//   - When the queue is full, the oldest queued event is evicted to make room
//     for the newest one.
type Journal struct {
	store Repository
	log   *slog.Logger
	queue chan *Entry
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	now func() time.Time
}

// NewJournal creates a Journal with the given queue capacity and starts its
// persistence worker.
func NewJournal(store Repository, log *slog.Logger, queueSize int) *Journal {
	if queueSize < 1 {
		queueSize = 1
	}

	journal := &Journal{
		store: store,
		log:   log,
		queue: make(chan *Entry, queueSize),
		done:  make(chan struct{}),
		now:   time.Now,
	}

	go journal.worker()
	return journal
}

/*
Record enqueues one audit event for asynchronous persistence.

Description: Assigns the entry ID and creation timestamp at call time, so
timestamps preserve the caller's local ordering even though writes happen
later. Safe for concurrent use. Calls after Close are silently ignored.

Parameters:
  - event: Event (only Kind is mandatory)
*/
func (journal *Journal) Record(event Event) {
	journal.mu.RLock()
	defer journal.mu.RUnlock()

	if journal.closed {
		return
	}

	journal.enqueue(&Entry{
		ID:        uuidv7.New(),
		EventType: event.Kind,
		UserID:    nullable(event.UserID),
		TenantID:  nullable(event.TenantID),
		IPAddress: nullable(event.IPAddress),
		UserAgent: nullable(event.UserAgent),
		Details:   event.Details,
		CreatedAt: journal.now().UTC(),
	})
}

// RecordDenial reports a role-guard rejection. It satisfies the middleware's
// denial observer contract without the middleware importing this package.
func (journal *Journal) RecordDenial(userID, tenantID, path, ip, userAgent string) {
	journal.Record(Event{
		Kind:      KindPermissionDenied,
		UserID:    userID,
		TenantID:  tenantID,
		IPAddress: ip,
		UserAgent: userAgent,
		Details:   map[string]any{"path": path},
	})
}

/*
Close stops intake, drains the queue, and waits for the worker to finish.

Description: Record calls racing with Close are either enqueued and drained
or ignored; they never panic. Draining is bounded by queue depth times the
per-write timeout, but the caller's context can cut the wait short.

Parameters:
  - context: context.Context

Returns:
  - error: The context error when the drain was abandoned early
*/
func (journal *Journal) Close(context context.Context) error {
	journal.mu.Lock()
	if journal.closed {
		journal.mu.Unlock()
		return nil
	}
	journal.closed = true
	close(journal.queue)
	journal.mu.Unlock()

	select {
	case <-journal.done:
		return nil
	case <-context.Done():
		return context.Err()
	}
}

// # Internal Mechanics

// enqueue performs the drop-oldest admission. Caller holds the read lock.
func (journal *Journal) enqueue(entry *Entry) {
	select {
	case journal.queue <- entry:
		return
	default:
	}

	// Queue is full. Evict the oldest queued entry to keep the newest.
	select {
	case dropped := <-journal.queue:
		journal.log.Warn("audit_queue_saturated",
			slog.String("dropped_event", string(dropped.EventType)),
		)
	default:
	}

	select {
	case journal.queue <- entry:
	default:
		// Racing producers refilled the queue between evict and send.
		journal.log.Warn("audit_event_dropped",
			slog.String("event", string(entry.EventType)),
		)
	}
}

// worker drains the queue until Close. Each write gets a fresh background
// context; request cancellation never reaches audit persistence.
func (journal *Journal) worker() {
	defer close(journal.done)

	for entry := range journal.queue {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)

		if err := journal.store.Insert(ctx, entry); err != nil {
			journal.log.Error("audit_write_failed",
				slog.String("event", string(entry.EventType)),
				slog.Any("error", err),
			)
		}

		cancel()
	}
}

// nullable maps the empty string to NULL so filters can distinguish
// "absent" from "empty".
func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
