package eventbus

import (
	"testing"
	"time"

	"github.com/yungbote/media-orchestrator/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() { log.Sync() })
	return log
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New(testLogger(t))
	sub := b.Subscribe("job-1")
	defer b.Unsubscribe("job-1", sub)

	b.Publish(Event{JobID: "job-1", Name: EventStatus, Data: map[string]any{"progress": 0.5}})

	select {
	case evt := <-sub.Events():
		if evt.Name != EventStatus {
			t.Fatalf("want event=%s got=%s", EventStatus, evt.Name)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestPublishDoesNotCrossJobBoundaries(t *testing.T) {
	b := New(testLogger(t))
	sub := b.Subscribe("job-1")
	defer b.Unsubscribe("job-1", sub)

	b.Publish(Event{JobID: "job-2", Name: EventStatus})

	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected event delivered across job boundary: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := New(testLogger(t))
	sub := b.Subscribe("job-1")
	defer b.Unsubscribe("job-1", sub)

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(Event{JobID: "job-1", Name: EventLog})
	}
	// Must not block or panic; draining confirms the buffer stayed bounded.
	drained := 0
	for {
		select {
		case <-sub.Events():
			drained++
		default:
			if drained > subscriberBuffer {
				t.Fatalf("expected buffer to stay capped at %d, drained %d", subscriberBuffer, drained)
			}
			return
		}
	}
}

func TestUnsubscribeRemovesListener(t *testing.T) {
	b := New(testLogger(t))
	sub := b.Subscribe("job-1")
	if got := b.SubscriberCount("job-1"); got != 1 {
		t.Fatalf("SubscriberCount: want=1 got=%d", got)
	}
	b.Unsubscribe("job-1", sub)
	if got := b.SubscriberCount("job-1"); got != 0 {
		t.Fatalf("SubscriberCount after unsubscribe: want=0 got=%d", got)
	}
}

type recordingMirror struct {
	events []Event
}

func (m *recordingMirror) Publish(evt Event) {
	m.events = append(m.events, evt)
}

func TestPublishForwardsToMirror(t *testing.T) {
	b := New(testLogger(t))
	mirror := &recordingMirror{}
	b.SetMirror(mirror)

	b.Publish(Event{JobID: "job-1", Name: EventDone})
	if len(mirror.events) != 1 {
		t.Fatalf("expected mirror to receive 1 event, got %d", len(mirror.events))
	}
}

func TestPublishLocalDoesNotForwardToMirror(t *testing.T) {
	b := New(testLogger(t))
	mirror := &recordingMirror{}
	b.SetMirror(mirror)

	b.PublishLocal(Event{JobID: "job-1", Name: EventDone})
	if len(mirror.events) != 0 {
		t.Fatalf("expected PublishLocal to skip the mirror, got %d events", len(mirror.events))
	}
}
