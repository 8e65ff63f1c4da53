package store

import (
	"context"

	"github.com/gogogo1024/storefront-bot/internal/docstore"
)

type counterDoc struct {
	Count int `json:"count"`
}

// Counter allocates ticket numbers. Numbers are never reused, even after
// the ticket is closed.
type Counter struct {
	s *docstore.Store
}

func (r *Counter) Next(ctx context.Context) (int, error) {
	var n int
	err := docstore.Update(ctx, r.s, CounterDoc, func(d *counterDoc) error {
		d.Count++
		n = d.Count
		return nil
	})
	return n, err
}

func (r *Counter) Current(ctx context.Context) (int, error) {
	d, err := docstore.Read[counterDoc](ctx, r.s, CounterDoc)
	return d.Count, err
}
