package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mmynk/splitledger/internal/calculator"
)

// EventKind names an expense mutation.
type EventKind string

const (
	ExpenseCreated EventKind = "expense.created"
	ExpenseUpdated EventKind = "expense.updated"
	ExpenseDeleted EventKind = "expense.deleted"
)

// Event is published after an expense mutation has been persisted.
type Event struct {
	Kind      EventKind
	GroupID   string
	ExpenseID string
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event) error

// Bus is a synchronous in-process publish/subscribe hub.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
}

// NewBus returns a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventKind][]Handler)}
}

// Subscribe registers h for events of the given kind.
func (b *Bus) Subscribe(kind EventKind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish runs every handler of ev.Kind in subscription order and returns
// their joined errors. One failing handler does not stop the others.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	handlers := b.handlers[ev.Kind]
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", ev.Kind, err))
		}
	}
	return errors.Join(errs...)
}

// Recalculator recomputes a group's settlements.
type Recalculator interface {
	Recalculate(ctx context.Context, groupID string) ([]calculator.Transaction, error)
}

// Trigger recomputes a group's settlements whenever one of its expenses changes.
type Trigger struct {
	recalc Recalculator
}

// NewTrigger creates a trigger driving r.
func NewTrigger(r Recalculator) *Trigger {
	return &Trigger{recalc: r}
}

// Register subscribes the trigger to every expense event on bus.
func (t *Trigger) Register(bus *Bus) {
	for _, kind := range []EventKind{ExpenseCreated, ExpenseUpdated, ExpenseDeleted} {
		bus.Subscribe(kind, t.handle)
	}
}

func (t *Trigger) handle(ctx context.Context, ev Event) error {
	if ev.GroupID == "" {
		return fmt.Errorf("event %s for expense %s has no group", ev.Kind, ev.ExpenseID)
	}
	_, err := t.recalc.Recalculate(ctx, ev.GroupID)
	return err
}
