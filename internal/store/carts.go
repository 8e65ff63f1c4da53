package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/docstore"
)

type cartDoc map[string]common.Cart

// Carts is the per-user cart repository. A cart never holds a
// non-positive quantity.
type Carts struct {
	s *docstore.Store
}

// Get returns the user's cart; an unknown user has an empty cart.
func (r *Carts) Get(ctx context.Context, user common.ID) (common.Cart, error) {
	d, err := docstore.Read[cartDoc](ctx, r.s, CartsDoc)
	if err != nil {
		return nil, err
	}
	if c, ok := d[user.String()]; ok && c != nil {
		return c, nil
	}
	return common.Cart{}, nil
}

// Set replaces the user's cart. Non-positive lines are dropped.
func (r *Carts) Set(ctx context.Context, user common.ID, cart common.Cart) error {
	clean := common.Cart{}
	for k, q := range cart {
		if q > 0 {
			clean[k] = q
		}
	}
	return r.update(ctx, user, func(c common.Cart) (common.Cart, error) { return clean, nil })
}

func (r *Carts) update(ctx context.Context, user common.ID, fn func(common.Cart) (common.Cart, error)) error {
	return docstore.Update(ctx, r.s, CartsDoc, func(d *cartDoc) error {
		if *d == nil {
			*d = cartDoc{}
		}
		cur := (*d)[user.String()].Clone()
		next, err := fn(cur)
		if err != nil {
			return err
		}
		(*d)[user.String()] = next
		return nil
	})
}

// AddItem increases the quantity of product by qty (at least 1).
func (r *Carts) AddItem(ctx context.Context, user common.ID, product, qty int) (common.Cart, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d: %w", qty, common.ErrValidation)
	}
	var out common.Cart
	err := r.update(ctx, user, func(c common.Cart) (common.Cart, error) {
		c[strconv.Itoa(product)] += qty
		out = c.Clone()
		return c, nil
	})
	return out, err
}

// RemoveItem decrements the line by qty, deleting it when it reaches zero.
// A qty of zero or less removes the whole line.
func (r *Carts) RemoveItem(ctx context.Context, user common.ID, product, qty int) (common.Cart, error) {
	key := strconv.Itoa(product)
	var out common.Cart
	err := r.update(ctx, user, func(c common.Cart) (common.Cart, error) {
		cur, ok := c[key]
		if !ok {
			return nil, fmt.Errorf("product %d not in cart: %w", product, common.ErrNotFound)
		}
		if qty <= 0 || cur-qty <= 0 {
			delete(c, key)
		} else {
			c[key] = cur - qty
		}
		out = c.Clone()
		return c, nil
	})
	return out, err
}

// Clear stores an empty cart for the user.
func (r *Carts) Clear(ctx context.Context, user common.ID) error {
	return r.update(ctx, user, func(common.Cart) (common.Cart, error) { return common.Cart{}, nil })
}
