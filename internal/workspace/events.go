package workspace

import (
	"fmt"
	"sync"
	"time"
)

// Event types published by a workspace.
const (
	EventAssetChanged      = "asset.changed"
	EventAnalysisStarted   = "analysis.started"
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisCancelled = "analysis.cancelled"
	EventAnalysisFailed    = "analysis.failed"
	EventSelectionChanged  = "selection.changed"
	EventViewportChanged   = "viewport.changed"
	EventLedgerUpdated     = "ledger.updated"
	EventExportCompleted   = "export.completed"
)

// subscriberBuffer is the per-subscriber queue length. Slow readers lose events.
const subscriberBuffer = 64

// Event is a state change notification.
type Event struct {
	Type        string      `json:"type"`
	WorkspaceID string      `json:"workspaceId"`
	Payload     interface{} `json:"payload,omitempty"`
	Timestamp   int64       `json:"timestamp"`
}

// broker fans events out to subscribers without blocking the publisher.
type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

func (b *broker) publish(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			fmt.Printf("[Workspace %s] Dropping %s event for slow subscriber %d\n", shortID(ev.WorkspaceID), ev.Type, id)
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
