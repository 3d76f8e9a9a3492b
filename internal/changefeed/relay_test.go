package changefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"kioskcms/internal/logger"
	"kioskcms/models"

	"github.com/redis/go-redis/v9"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (s *recordingSink) Publish(event models.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestDecodeMessage(t *testing.T) {
	values, err := encodeEvent(models.ChangeEvent{Type: "speaker.updated", Resource: "speaker", ID: "abc"}, "host-1")
	if err != nil {
		t.Fatalf("encodeEvent: %v", err)
	}
	if values["origin"] != "host-1" {
		t.Errorf("origin not recorded: %v", values)
	}
	event, err := decodeMessage(values)
	if err != nil || event.Type != "speaker.updated" || event.ID != "abc" {
		t.Errorf("decodeMessage = %+v, %v", event, err)
	}

	bad := []map[string]interface{}{
		{},
		{"data": 42},
		{"data": "{not json"},
		{"data": `{"resource":"bubble"}`},
	}
	for _, values := range bad {
		if _, err := decodeMessage(values); err == nil {
			t.Errorf("expected %v to be rejected", values)
		}
	}
}

func TestPublishFallsBackToLocalSink(t *testing.T) {
	sink := &recordingSink{}
	relay := NewRelay(unreachableRedis(t), "", sink, logger.Nop())
	if relay.stream != DefaultStream {
		t.Errorf("expected default stream, got %q", relay.stream)
	}

	relay.Publish(models.ChangeEvent{Type: "home.updated", Resource: "home"})

	if len(sink.events) != 1 || sink.events[0].Type != "home.updated" {
		t.Errorf("expected local delivery, got %+v", sink.events)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	relay := NewRelay(unreachableRedis(t), "test:events", &recordingSink{}, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
