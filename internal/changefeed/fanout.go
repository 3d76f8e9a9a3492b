package changefeed

import (
	"sync"

	"kioskcms/models"
)

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(event models.ChangeEvent)

func (f SinkFunc) Publish(event models.ChangeEvent) { f(event) }

// Fanout delivers each event to every registered sink in registration order.
// Sinks may be added after the relay starts.
type Fanout struct {
	mu    sync.RWMutex
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Add(sink Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, sink)
}

func (f *Fanout) Publish(event models.ChangeEvent) {
	f.mu.RLock()
	sinks := append([]Sink(nil), f.sinks...)
	f.mu.RUnlock()
	for _, sink := range sinks {
		sink.Publish(event)
	}
}
