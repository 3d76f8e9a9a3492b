package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"kioskcms/internal/logger"
	"kioskcms/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream every instance writes change events to.
const DefaultStream = "kiosk:events"

// Sink receives events read back from the stream, normally the local
// KioskHub.
type Sink interface {
	Publish(event models.ChangeEvent)
}

// Relay carries change events between server instances through a Redis
// stream. Each instance publishes to the stream and tails it, so kiosks
// connected anywhere see every mutation.
type Relay struct {
	rdb        *redis.Client
	stream     string
	instanceID string
	sink       Sink
	log        *logger.Logger
}

func NewRelay(rdb *redis.Client, stream string, sink Sink, log *logger.Logger) *Relay {
	if stream == "" {
		stream = DefaultStream
	}
	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	return &Relay{
		rdb:        rdb,
		stream:     stream,
		instanceID: instanceID,
		sink:       sink,
		log:        log.With("component", "ChangeFeedRelay", "instance", instanceID),
	}
}

// Publish appends the event to the stream. When Redis is unreachable the
// event goes straight to the local sink so this instance's kiosks still
// refresh.
func (r *Relay) Publish(event models.ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.append(ctx, event); err != nil {
		r.log.Warn("Failed to relay change event; delivering locally", "type", event.Type, "error", err)
		r.sink.Publish(event)
	}
}

func (r *Relay) append(ctx context.Context, event models.ChangeEvent) error {
	values, err := encodeEvent(event, r.instanceID)
	if err != nil {
		return err
	}
	err = r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: values,
		MaxLen: 1000,
		Approx: true,
	}).Err()
	return errors.WithStack(err)
}

// Run tails the stream from its current end until ctx is cancelled. Every
// instance reads every entry, so no consumer group is used.
func (r *Relay) Run(ctx context.Context) {
	lastID := "$"
	for {
		if ctx.Err() != nil {
			return
		}
		streams, err := r.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{r.stream, lastID},
			Count:   100,
			Block:   time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			r.log.Warn("Failed to read change stream", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				lastID = message.ID
				event, err := decodeMessage(message.Values)
				if err != nil {
					r.log.Warn("Skipping malformed change event", "id", message.ID, "error", err)
					continue
				}
				r.sink.Publish(event)
			}
		}
	}
}

func encodeEvent(event models.ChangeEvent, origin string) (map[string]interface{}, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal change event")
	}
	return map[string]interface{}{
		"data":   string(data),
		"origin": origin,
	}, nil
}

func decodeMessage(values map[string]interface{}) (models.ChangeEvent, error) {
	var event models.ChangeEvent
	data, ok := values["data"].(string)
	if !ok {
		return event, errors.New("invalid message format: missing data field")
	}
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return event, errors.Wrap(err, "failed to unmarshal change event")
	}
	if event.Type == "" {
		return event, errors.New("change event has no type")
	}
	return event, nil
}
