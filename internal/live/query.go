package live

import (
	"context"
	"errors"
	"sync"
)

// Stream delivers the latest result of a fetch each time its topics change.
// Only the newest value is buffered; a slow reader skips stale ones. C is
// closed when the stream ends.
type Stream[T any] struct {
	C <-chan T

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Watch subscribes to topics before the first fetch so that no change between
// the initial read and the subscription is lost.
func Watch[T any](ctx context.Context, hub *Hub, fetch func(ctx context.Context) (T, error), topics ...string) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan T, 1)
	s := &Stream[T]{C: out, cancel: cancel, done: make(chan struct{})}
	sub := hub.Subscribe(topics...)

	go func() {
		defer close(s.done)
		defer close(out)
		defer sub.Close()

		for {
			v, err := fetch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.setErr(err)
				}
				return
			}
			select {
			case <-out:
			default:
			}
			out <- v

			select {
			case <-ctx.Done():
				return
			case <-sub.C:
				if err := sub.Err(); err != nil {
					s.setErr(err)
					return
				}
			}
		}
	}()
	return s
}

func (s *Stream[T]) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Err returns why the stream ended. It is nil for streams ended by Close or
// by their context.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(s.err, ErrClosed) {
		return nil
	}
	return s.err
}

// Done is closed once the stream has released its subscription.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Close stops the stream and waits for it to release its subscription.
func (s *Stream[T]) Close() {
	s.cancel()
	<-s.done
}
