package events

import (
	"fmt"
	"sync"

	"github.com/exmod-team/exiled-installer/internal/messages"
)

// Handler receives one event.
type Handler[T Event] func(ev T)

// HandlerPanicError reports a handler that panicked.
type HandlerPanicError struct {
	Event string
	// Index is the handler's position in the invocation order.
	Index int
	Value any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf(messages.EventHandlerPanicFmt, e.Index, e.Event, e.Value)
}

type subscription[T Event] struct {
	id int
	fn Handler[T]
}

// Hook is an ordered list of handlers for one event type.
// The zero value is ready to use. Subscribe and Invoke are safe for concurrent use.
type Hook[T Event] struct {
	mu       sync.RWMutex
	nextID   int
	handlers []subscription[T]
	onError  func(error)
}

// NewHook returns a Hook that reports handler panics to onError (nil drops them).
func NewHook[T Event](onError func(error)) *Hook[T] {
	return &Hook[T]{onError: onError}
}

// Subscribe appends fn and returns a function that removes it again.
func (h *Hook[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.handlers = append(h.handlers, subscription[T]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hook[T]) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.handlers {
		if s.id == id {
			h.handlers = append(h.handlers[:i:i], h.handlers[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribed handlers.
func (h *Hook[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers)
}

// Invoke calls every handler in subscription order. A panicking handler is
// reported and the remaining handlers still run.
func (h *Hook[T]) Invoke(ev T) {
	h.mu.RLock()
	handlers := make([]subscription[T], len(h.handlers))
	copy(handlers, h.handlers)
	onError := h.onError
	h.mu.RUnlock()

	for i, s := range handlers {
		if err := call(s.fn, ev, i); err != nil && onError != nil {
			onError(err)
		}
	}
}

func call[T Event](fn Handler[T], ev T, index int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerPanicError{Event: ev.Name(), Index: index, Value: r}
		}
	}()
	fn(ev)
	return nil
}

// InvokeDeniable runs h and reports whether ev is still allowed afterwards.
func InvokeDeniable[T DeniableEvent](h *Hook[T], ev T) bool {
	h.Invoke(ev)
	return ev.IsAllowed()
}
