// Package rpc correlates outgoing requests with their asynchronous responses
// over a message channel shared with a remote host.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned for calls made on, or pending in, a closed Bridge.
var ErrClosed = errors.New("rpc: bridge closed")

// ErrNilTransport is returned when a Bridge is created without a transport.
var ErrNilTransport = errors.New("rpc: transport is nil")

type result struct {
	msg Message
	err error
}

// Bridge sends requests through a Transport and resolves each one when the
// response with the matching ID is delivered.
type Bridge struct {
	out Transport

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan result
	closed  error
}

// NewBridge creates a Bridge writing to the given transport.
func NewBridge(out Transport) (*Bridge, error) {
	if out == nil {
		return nil, ErrNilTransport
	}
	return &Bridge{
		out:     out,
		pending: make(map[uint64]chan result),
	}, nil
}

// Send transmits {id, action, data} and waits for the matching response.
//
// There is no timeout at this layer. When ctx ends first the pending entry is
// dropped and a late response is ignored.
func (b *Bridge) Send(ctx context.Context, action string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal %s payload: %w", action, err)
	}

	ch := make(chan result, 1)

	b.mu.Lock()
	if b.closed != nil {
		err := b.closed
		b.mu.Unlock()
		return nil, err
	}
	b.nextID++
	id := b.nextID
	b.pending[id] = ch
	b.mu.Unlock()

	if err := b.out.WriteMessage(Message{ID: id, Action: action, Data: data}); err != nil {
		b.forget(id)
		return nil, fmt.Errorf("rpc: send %s: %w", action, err)
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		if res.msg.Error != nil {
			return nil, &RemoteError{Action: action, Fields: res.msg.Error}
		}
		return res.msg.Data, nil
	case <-ctx.Done():
		b.forget(id)
		return nil, ctx.Err()
	}
}

// Deliver resolves the pending call matching msg.ResponseID.
// It reports false when no call is waiting for that ID.
func (b *Bridge) Deliver(msg Message) bool {
	if !msg.IsResponse() {
		return false
	}
	b.mu.Lock()
	ch, ok := b.pending[msg.ResponseID]
	if ok {
		delete(b.pending, msg.ResponseID)
	}
	b.mu.Unlock()
	if !ok {
		return false
	}
	ch <- result{msg: msg}
	return true
}

// Pending returns the number of calls still waiting for a response.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close fails every pending call with err (ErrClosed when nil) and rejects
// later calls.
func (b *Bridge) Close(err error) {
	if err == nil {
		err = ErrClosed
	} else if !errors.Is(err, ErrClosed) {
		err = fmt.Errorf("%w: %w", ErrClosed, err)
	}

	b.mu.Lock()
	if b.closed != nil {
		b.mu.Unlock()
		return
	}
	b.closed = err
	pending := b.pending
	b.pending = make(map[uint64]chan result)
	b.mu.Unlock()

	for _, ch := range pending {
		ch <- result{err: err}
	}
}

func (b *Bridge) forget(id uint64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}
