package services

import "context"

// turn is the actor's cooperative execution slot. A task holds it while it
// touches state and hands it over only while waiting on a cross-service reply.
type turn struct {
	slot chan struct{}
}

func newTurn() *turn {
	return &turn{slot: make(chan struct{}, 1)}
}

// acquire waits for the slot. The context only matters before the task starts.
func (t *turn) acquire(ctx context.Context) error {
	select {
	case t.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *turn) release() {
	<-t.slot
}

// resume takes the slot back after a suspension. It cannot be cancelled.
func (t *turn) resume() {
	t.slot <- struct{}{}
}

// suspend runs fn without holding the slot.
func suspend[T any](t *turn, fn func() (T, error)) (T, error) {
	t.release()
	defer t.resume()
	return fn()
}
