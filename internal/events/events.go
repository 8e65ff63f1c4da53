// Package events publishes storefront domain events after state changes
// are persisted.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TicketCreated   Type = "ticket.created"
	TicketPaid      Type = "ticket.paid"
	TicketDelivered Type = "ticket.delivered"
	TicketClosed    Type = "ticket.closed"
	CartCheckout    Type = "cart.checkout"
)

type Event struct {
	ID           string           `json:"id"`
	Type         Type             `json:"type"`
	At           time.Time        `json:"at"`
	ChannelID    string           `json:"channel_id,omitempty"`
	BuyerID      string           `json:"buyer_id,omitempty"`
	ActorID      string           `json:"actor_id,omitempty"`
	TicketNumber int              `json:"ticket_number,omitempty"`
	Total        *decimal.Decimal `json:"total,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type) Event {
	return Event{ID: uuid.NewString(), Type: t, At: time.Now().UTC()}
}

// Publisher delivers events. Implementations must be safe for concurrent
// use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Recorder keeps events in memory, for tests and the admin snapshot.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
