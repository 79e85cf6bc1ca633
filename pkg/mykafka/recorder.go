package mykafka

import (
	"context"
	"encoding/json"
	"sync"
)

type Recorded struct {
	Topic string
	Key   string
	Value []byte
}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
	Err    error
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	if r.Err != nil {
		return r.Err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Topic: topic, Key: key, Value: data})
	return nil
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}
