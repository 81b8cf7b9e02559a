package pubsub

import (
	"context"
	"encoding/json"
	"sync"
)

// InMemoryPubSub is a process-local PubSub double for tests (§10.5), the
// same role store.Fake plays for Store: same interface, no network
// dependency.
type InMemoryPubSub struct {
	mu   sync.Mutex
	subs map[string][]chan string
}

// NewInMemoryPubSub builds an empty InMemoryPubSub.
func NewInMemoryPubSub() *InMemoryPubSub {
	return &InMemoryPubSub{subs: make(map[string][]chan string)}
}

func (p *InMemoryPubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs[channel] {
		select {
		case ch <- string(data):
		default:
		}
	}
	return nil
}

func (p *InMemoryPubSub) Subscribe(ctx context.Context, channel string) <-chan string {
	ch := make(chan string, 8)
	p.mu.Lock()
	p.subs[channel] = append(p.subs[channel], ch)
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		subs := p.subs[channel]
		for i, c := range subs {
			if c == ch {
				p.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch
}

var _ PubSub = (*InMemoryPubSub)(nil)
