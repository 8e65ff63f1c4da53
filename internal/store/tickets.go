package store

import (
	"context"
	"fmt"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/docstore"
)

type ticketDoc map[string]common.Ticket

// Tickets maps ticket channels to their records.
type Tickets struct {
	s *docstore.Store
}

// Find returns the ticket stored for channel, or common.ErrNotTicket.
func (r *Tickets) Find(ctx context.Context, channel common.ID) (common.Ticket, error) {
	d, err := docstore.Read[ticketDoc](ctx, r.s, TicketsDoc)
	if err != nil {
		return common.Ticket{}, err
	}
	t, ok := d[channel.String()]
	if !ok {
		return common.Ticket{}, common.ErrNotTicket
	}
	return t, nil
}

// List returns every stored ticket keyed by channel id.
func (r *Tickets) List(ctx context.Context) (map[string]common.Ticket, error) {
	d, err := docstore.Read[ticketDoc](ctx, r.s, TicketsDoc)
	if d == nil {
		d = ticketDoc{}
	}
	return d, err
}

func (r *Tickets) Put(ctx context.Context, channel common.ID, t common.Ticket) error {
	return docstore.Update(ctx, r.s, TicketsDoc, func(d *ticketDoc) error {
		if *d == nil {
			*d = ticketDoc{}
		}
		(*d)[channel.String()] = t
		return nil
	})
}

// Update applies fn to the stored ticket and saves it. Nothing is written
// when the channel holds no ticket or fn fails.
func (r *Tickets) Update(ctx context.Context, channel common.ID, fn func(*common.Ticket) error) (common.Ticket, error) {
	var out common.Ticket
	err := docstore.Update(ctx, r.s, TicketsDoc, func(d *ticketDoc) error {
		t, ok := (*d)[channel.String()]
		if !ok {
			return common.ErrNotTicket
		}
		if err := fn(&t); err != nil {
			return fmt.Errorf("ticket %d: %w", t.Number, err)
		}
		(*d)[channel.String()] = t
		out = t
		return nil
	})
	return out, err
}

// Delete removes the ticket and returns the removed record.
func (r *Tickets) Delete(ctx context.Context, channel common.ID) (common.Ticket, error) {
	var out common.Ticket
	err := docstore.Update(ctx, r.s, TicketsDoc, func(d *ticketDoc) error {
		t, ok := (*d)[channel.String()]
		if !ok {
			return common.ErrNotTicket
		}
		delete(*d, channel.String())
		out = t
		return nil
	})
	return out, err
}
