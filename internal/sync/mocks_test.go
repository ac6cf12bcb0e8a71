package sync

import (
	"context"
	"fmt"
	"sync"

	"github.com/adrian08041/cardapio/internal/order"
)

// fakeAPI is an in-memory stand-in for the Order API client.
type fakeAPI struct {
	mu     sync.Mutex
	orders map[string]*order.Order

	listErr    error
	advanceErr error
	cancelErr  error

	advanceCalls []string
	cancelCalls  []string
}

func newFakeAPI(orders ...*order.Order) *fakeAPI {
	f := &fakeAPI{orders: make(map[string]*order.Order)}
	for _, o := range orders {
		clone := *o
		f.orders[o.ID] = &clone
	}
	return f
}

func (f *fakeAPI) List(ctx context.Context) ([]*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	result := make([]*order.Order, 0, len(f.orders))
	for _, o := range f.orders {
		clone := *o
		result = append(result, &clone)
	}
	return result, nil
}

func (f *fakeAPI) Get(ctx context.Context, id string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *o
	return &clone, nil
}

func (f *fakeAPI) Advance(ctx context.Context, id, action string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.advanceCalls = append(f.advanceCalls, id+":"+action)
	if f.advanceErr != nil {
		return nil, f.advanceErr
	}

	o := f.orders[id]
	var err error
	switch action {
	case "prepare":
		err = o.MarkAsPreparing()
	case "ready":
		err = o.MarkAsReady()
	case "deliver":
		err = o.MarkAsDelivered()
	default:
		err = fmt.Errorf("unknown action %s", action)
	}
	if err != nil {
		return nil, err
	}
	clone := *o
	return &clone, nil
}

func (f *fakeAPI) Cancel(ctx context.Context, id, reason string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelCalls = append(f.cancelCalls, id+":"+reason)
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}

	o := f.orders[id]
	if err := o.Cancel(); err != nil {
		return nil, err
	}
	clone := *o
	return &clone, nil
}

// setStatus mutates the server-side order directly, simulating a
// change made by another surface.
func (f *fakeAPI) setStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[id].Status = status
}

// fakePublisher records published event payloads.
type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, msg)
	return nil
}

func (f *fakePublisher) published() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads...)
}
