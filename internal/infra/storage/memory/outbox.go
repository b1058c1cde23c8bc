package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "venuebook/internal/app/outbox"
	infraoutbox "venuebook/internal/infra/outbox"
)

type outboxEntry struct {
	record    appoutbox.EventRecord
	state     string
	attempts  int
	next      time.Time
	claimedBy string
	lastError string
}

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// OutboxLog holds committed outbox records for the relay worker.
type OutboxLog struct {
	mu      sync.Mutex
	entries []*outboxEntry
	index   map[string]*outboxEntry
}

func NewOutboxLog() *OutboxLog {
	return &OutboxLog{index: make(map[string]*outboxEntry)}
}

func (l *OutboxLog) append(records []appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	for _, rec := range records {
		e := &outboxEntry{record: rec, state: stateNew, next: now}
		l.entries = append(l.entries, e)
		l.index[rec.ID] = e
	}
}

func (l *OutboxLog) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	for _, e := range l.entries {
		if (e.state != stateNew && e.state != stateFailed) || e.next.After(now) {
			continue
		}
		e.state = stateClaimed
		e.claimedBy = workerID
		return &infraoutbox.Message{
			ID:         e.record.ID,
			Name:       e.record.Name,
			Payload:    e.record.Payload,
			OccurredAt: e.record.OccurredAt,
			Aggregate:  e.record.Aggregate,
			Headers:    e.record.Headers,
			Attempts:   e.attempts,
		}, nil
	}
	return nil, nil
}

func (l *OutboxLog) MarkSent(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.index[id]; ok {
		e.state = stateSent
	}
	return nil
}

func (l *OutboxLog) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.index[id]; ok {
		e.state = stateFailed
		e.next = next
		e.lastError = errMsg
		e.attempts++
	}
	return nil
}

// Records returns every committed record in commit order.
func (l *OutboxLog) Records() []appoutbox.EventRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.record)
	}
	return out
}

// Pending counts records not yet sent.
func (l *OutboxLog) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.state != stateSent {
			n++
		}
	}
	return n
}

var _ infraoutbox.Store = (*OutboxLog)(nil)
