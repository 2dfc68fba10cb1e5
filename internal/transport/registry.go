package transport

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rs/zerolog/log"
)

// ListenOption configures an event registration.
type ListenOption func(*listenOptions)

type listenOptions struct {
	ctx context.Context
}

// WithContext scopes the registration to ctx: when ctx is cancelled the
// callback is unregistered. This is how call sites avoid leaking handlers
// across session teardowns.
func WithContext(ctx context.Context) ListenOption {
	return func(o *listenOptions) { o.ctx = ctx }
}

// EmitOption configures an emission.
type EmitOption func(*emitOptions)

type emitOptions struct {
	queue bool
}

// WithQueue buffers the emission while disconnected and replays it in FIFO
// order on the next open. Without it, emitting while disconnected is a
// silent no-op; delivery-critical emissions must opt in.
func WithQueue() EmitOption {
	return func(o *emitOptions) { o.queue = true }
}

// On registers a callback for an inbound event. Multiple independent
// callbacks per event are supported; the returned func removes this one.
func (t *Transport) On(event string, fn Handler, opts ...ListenOption) (cancel func()) {
	return t.register(event, fn, false, opts...)
}

// Once registers a callback that unregisters itself after its first
// invocation.
func (t *Transport) Once(event string, fn Handler, opts ...ListenOption) (cancel func()) {
	return t.register(event, fn, true, opts...)
}

func (t *Transport) register(event string, fn Handler, once bool, opts ...ListenOption) func() {
	var o listenOptions
	for _, opt := range opts {
		opt(&o)
	}

	t.mu.Lock()
	id := t.nextHandlerID
	t.nextHandlerID++
	if t.handlers[event] == nil {
		t.handlers[event] = make(map[int64]*handlerEntry)
	}
	t.handlers[event][id] = &handlerEntry{fn: fn, ctx: o.ctx, once: once}
	t.mu.Unlock()

	remove := func() { t.removeHandler(event, id) }
	if o.ctx != nil {
		if o.ctx.Err() != nil {
			remove()
		} else {
			go func() {
				<-o.ctx.Done()
				remove()
			}()
		}
	}
	return remove
}

// Off removes every callback registered for an event. Individual callbacks
// are removed through the cancel func returned by On/Once.
func (t *Transport) Off(event string) {
	t.mu.Lock()
	delete(t.handlers, event)
	t.mu.Unlock()
}

func (t *Transport) removeHandler(event string, id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.handlers[event]
	if entries == nil {
		return
	}
	delete(entries, id)
	if len(entries) == 0 {
		delete(t.handlers, event)
	}
}

// dispatch invokes the callbacks registered for event, in registration
// order. A missing handler is a no-op: listeners for an event family may
// register after the connection completes, depending on mount order.
func (t *Transport) dispatch(event string, data json.RawMessage) {
	t.mu.Lock()
	entries := t.handlers[event]
	if len(entries) == 0 {
		t.mu.Unlock()
		log.Debug().Str("conn", t.id).Msgf("[transport] no handler for %s", event)
		return
	}

	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fns := make([]Handler, 0, len(entries))
	for _, id := range ids {
		e := entries[id]
		if e.ctx != nil && e.ctx.Err() != nil {
			delete(entries, id)
			continue
		}
		if e.once {
			delete(entries, id)
		}
		fns = append(fns, e.fn)
	}
	if len(entries) == 0 {
		delete(t.handlers, event)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}

// Emit sends a named event to the server. When the connection is not open
// the emission is dropped unless WithQueue was given.
func (t *Transport) Emit(event string, data any, opts ...EmitOption) {
	var o emitOptions
	for _, opt := range opts {
		opt(&o)
	}

	t.mu.Lock()
	if t.state != StateOpen {
		if o.queue {
			t.queue = append(t.queue, queuedEmit{event: event, data: data})
		}
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.writeFrame(event, data)
}
