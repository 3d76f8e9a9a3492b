package changefeed

import (
	"testing"

	"kioskcms/models"
)

func TestFanoutDeliversToLateSinks(t *testing.T) {
	hub := &recordingSink{}
	feed := NewFanout(hub)

	var invalidated []string
	feed.Add(SinkFunc(func(e models.ChangeEvent) { invalidated = append(invalidated, e.Resource) }))

	feed.Publish(models.ChangeEvent{Type: "media.deleted", Resource: "media"})

	if len(hub.events) != 1 || len(invalidated) != 1 || invalidated[0] != "media" {
		t.Errorf("expected both sinks to see the event, got %v and %v", hub.events, invalidated)
	}
}
