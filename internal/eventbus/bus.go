// Package eventbus is the per-job event fan-out: every stage/log/asset
// change the reporter records gets published here, and every SSE or
// WebSocket client subscribes here to receive it.
package eventbus

import (
	"sync"

	"github.com/yungbote/media-orchestrator/internal/platform/logger"
)

// EventName enumerates the kinds of event a job can emit.
type EventName string

const (
	// EventStatus carries every stage/progress/queue-position transition —
	// anything that changes a job's status, stage, or progress fields
	// without being a terminal done/failed event.
	EventStatus   EventName = "status"
	EventLog      EventName = "log"
	EventAsset    EventName = "asset"
	EventDone     EventName = "done"
	EventFailed   EventName = "failed"
	EventSnapshot EventName = "snapshot"
)

// Event is one message published on a job's channel.
type Event struct {
	JobID string    `json:"job_id"`
	Name  EventName `json:"event"`
	Data  any       `json:"data,omitempty"`
}

const subscriberBuffer = 32

// Subscriber is a single listener's inbound queue. Publish never blocks on
// a slow subscriber: a full buffer drops the message rather than stall the
// job that produced it.
type Subscriber struct {
	ch   chan Event
	done chan struct{}
}

func (s *Subscriber) Events() <-chan Event { return s.ch }

// Bus is the process-local fan-out registry, keyed by job id.
type Bus struct {
	mu     sync.RWMutex
	log    *logger.Logger
	subs   map[string]map[*Subscriber]bool
	mirror Mirror
}

// Mirror is the optional cross-process forwarder (see redismirror.go). A
// nil Mirror means the bus only fans out within this process.
type Mirror interface {
	Publish(evt Event)
}

func New(log *logger.Logger) *Bus {
	return &Bus{
		log:  log.With("component", "eventbus"),
		subs: make(map[string]map[*Subscriber]bool),
	}
}

// SetMirror attaches a cross-process mirror. It does not make scheduling
// distributed: only event delivery crosses processes, not stage execution.
func (b *Bus) SetMirror(m Mirror) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mirror = m
}

// Subscribe registers a new listener for jobID. Call Unsubscribe when done.
func (b *Bus) Subscribe(jobID string) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &Subscriber{ch: make(chan Event, subscriberBuffer), done: make(chan struct{})}
	set, ok := b.subs[jobID]
	if !ok {
		set = make(map[*Subscriber]bool)
		b.subs[jobID] = set
	}
	set[sub] = true
	return sub
}

// Unsubscribe removes sub from jobID's listener set and closes its channel.
func (b *Bus) Unsubscribe(jobID string, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[jobID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, jobID)
		}
	}
	select {
	case <-sub.done:
	default:
		close(sub.done)
		close(sub.ch)
	}
}

// Publish fans evt out to every subscriber of evt.JobID, non-blocking. If a
// mirror is attached, the event is also forwarded for cross-process
// delivery.
func (b *Bus) Publish(evt Event) {
	b.publishLocal(evt)
	b.mu.RLock()
	mirror := b.mirror
	b.mu.RUnlock()
	if mirror != nil {
		mirror.Publish(evt)
	}
}

// PublishLocal fans evt out to local subscribers only, without forwarding
// to the mirror. It's what a RedisMirror's forwarder calls for events it
// received from elsewhere, so a relayed event never gets re-published back
// onto Redis.
func (b *Bus) PublishLocal(evt Event) {
	b.publishLocal(evt)
}

func (b *Bus) publishLocal(evt Event) {
	b.mu.RLock()
	set := b.subs[evt.JobID]
	b.mu.RUnlock()

	for sub := range set {
		select {
		case sub.ch <- evt:
		default:
			b.log.Warn("dropping event; subscriber buffer full", "job_id", evt.JobID, "event", evt.Name)
		}
	}
}

// SubscriberCount reports how many listeners jobID currently has, used by
// callers deciding whether it's worth computing a snapshot to seed a new
// subscriber.
func (b *Bus) SubscriberCount(jobID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[jobID])
}
