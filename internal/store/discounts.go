package store

import (
	"context"
	"fmt"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/docstore"
)

type discountDoc map[string]int

// Discounts holds the flat per-ticket discount, keyed by channel id.
type Discounts struct {
	s *docstore.Store
}

// Get returns the channel's discount, 0 when none is set.
func (r *Discounts) Get(ctx context.Context, channel common.ID) (int, error) {
	d, err := docstore.Read[discountDoc](ctx, r.s, DiscountsDoc)
	if err != nil {
		return 0, err
	}
	return d[channel.String()], nil
}

func (r *Discounts) Set(ctx context.Context, channel common.ID, amount int) error {
	if amount < 0 {
		return fmt.Errorf("discount cannot be negative: %w", common.ErrValidation)
	}
	return docstore.Update(ctx, r.s, DiscountsDoc, func(d *discountDoc) error {
		if *d == nil {
			*d = discountDoc{}
		}
		(*d)[channel.String()] = amount
		return nil
	})
}

// Clear drops the channel's entry. Clearing an unset discount is a no-op
// and writes nothing.
func (r *Discounts) Clear(ctx context.Context, channel common.ID) error {
	err := docstore.Update(ctx, r.s, DiscountsDoc, func(d *discountDoc) error {
		if _, ok := (*d)[channel.String()]; !ok {
			return errUnchanged
		}
		delete(*d, channel.String())
		return nil
	})
	if err == errUnchanged {
		return nil
	}
	return err
}
