package notify

import (
	"context"
	"sync"
)

const subscriberBuffer = 32

// Local is an in-process Broker for single-instance runs and tests.
// A subscriber that falls behind misses notifications beyond its buffer.
type Local struct {
	mu     sync.Mutex
	subs   map[chan string]struct{}
	closed bool
}

func NewLocal() *Local {
	return &Local{subs: make(map[chan string]struct{})}
}

func (l *Local) Publish(ctx context.Context, collection string) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs {
		select {
		case ch <- collection:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, subscriberBuffer)
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		close(ch)
		return ch, nil
	}
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.remove(ch)
	}()
	return ch, nil
}

func (l *Local) remove(ch chan string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.subs[ch]; ok {
		delete(l.subs, ch)
		close(ch)
	}
}

// Close ends every subscription.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs {
		delete(l.subs, ch)
		close(ch)
	}
	l.closed = true
	return nil
}
