package event

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Bus is a synchronous typed notification sink. Publish delivers to the
// handlers registered at that moment, on the caller's goroutine. A panicking
// handler is logged and skipped; the publisher never sees it.
//
// Handlers run while the publisher may hold the world lock, so they must not
// call back into locked world queries.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]func(any)
	log      *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]func(any)),
		log:      log,
	}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Publish delivers event to every handler subscribed to T.
func Publish[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	b.dispatch(reflect.TypeOf((*T)(nil)).Elem(), event)
}

// Emit is Publish for an event held as an interface value; handlers are
// matched on its dynamic type.
func (b *Bus) Emit(event any) {
	if b == nil || event == nil {
		return
	}
	b.dispatch(reflect.TypeOf(event), event)
}

func (b *Bus) dispatch(t reflect.Type, event any) {
	b.mu.RLock()
	handlers := b.handlers[t]
	b.mu.RUnlock()
	for _, h := range handlers {
		b.call(t, h, event)
	}
}

func (b *Bus) call(t reflect.Type, h func(any), event any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("event", t.String()),
				zap.Any("panic", r))
		}
	}()
	h(event)
}
