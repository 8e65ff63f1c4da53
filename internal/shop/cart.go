package shop

import (
	"context"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/events"
	"github.com/gogogo1024/storefront-bot/internal/observability"
	"github.com/gogogo1024/storefront-bot/internal/pricing"
)

// Quote prices user's cart with the flat discount stored for channel.
// An empty channel prices without a discount.
func (s *Service) Quote(ctx context.Context, user, channel common.ID) (pricing.Totals, error) {
	cart, err := s.repos.Carts.Get(ctx, user)
	if err != nil {
		return pricing.Totals{}, err
	}
	catalog, err := s.repos.Products.List(ctx)
	if err != nil {
		return pricing.Totals{}, err
	}
	discount := 0
	if !channel.IsZero() {
		if discount, err = s.repos.Discounts.Get(ctx, channel); err != nil {
			return pricing.Totals{}, err
		}
	}
	return pricing.Compute(cart, catalog, discount), nil
}

// CartAdd puts qty of an existing product into the caller's cart.
func (s *Service) CartAdd(ctx context.Context, sc Scope, productID, qty int) (common.Product, common.Cart, error) {
	if err := s.requireHere(ctx, sc); err != nil {
		return common.Product{}, nil, err
	}
	p, err := s.repos.Products.FindByID(ctx, productID)
	if err != nil {
		return common.Product{}, nil, err
	}
	cart, err := s.repos.Carts.AddItem(ctx, sc.Actor.UserID, productID, qty)
	if err != nil {
		return common.Product{}, nil, err
	}
	observability.CartItemsAdded.Add(int64(qty))
	return p, cart, nil
}

// CartView prices the caller's cart with this channel's discount.
func (s *Service) CartView(ctx context.Context, sc Scope) (pricing.Totals, error) {
	if err := s.requireHere(ctx, sc); err != nil {
		return pricing.Totals{}, err
	}
	return s.Quote(ctx, sc.Actor.UserID, sc.ChannelID)
}

// CartOther lets staff inspect another user's cart. No discount applies.
func (s *Service) CartOther(ctx context.Context, sc Scope, user common.ID) (pricing.Totals, error) {
	if err := s.requireStaff(ctx, sc); err != nil {
		return pricing.Totals{}, err
	}
	return s.Quote(ctx, user, "")
}

// CartRemove deletes the product's line from the caller's cart.
func (s *Service) CartRemove(ctx context.Context, sc Scope, productID int) error {
	if err := s.requireHere(ctx, sc); err != nil {
		return err
	}
	_, err := s.repos.Carts.RemoveItem(ctx, sc.Actor.UserID, productID, 0)
	return err
}

func (s *Service) CartClear(ctx context.Context, sc Scope) error {
	if err := s.requireHere(ctx, sc); err != nil {
		return err
	}
	return s.repos.Carts.Clear(ctx, sc.Actor.UserID)
}

// Checkout prices the caller's cart inside a ticket channel.
func (s *Service) Checkout(ctx context.Context, sc Scope) (pricing.Totals, error) {
	if err := s.requireHere(ctx, sc); err != nil {
		return pricing.Totals{}, err
	}
	cart, err := s.repos.Carts.Get(ctx, sc.Actor.UserID)
	if err != nil {
		return pricing.Totals{}, err
	}
	if len(cart) == 0 {
		return pricing.Totals{}, ErrEmptyCart
	}
	tk, err := s.requireTicket(ctx, sc)
	if err != nil {
		return pricing.Totals{}, err
	}
	totals, err := s.Quote(ctx, sc.Actor.UserID, sc.ChannelID)
	if err != nil {
		return pricing.Totals{}, err
	}
	observability.CartCheckouts.Add(1)
	e := ticketEvent(events.CartCheckout, sc.ChannelID, tk, sc.Actor.UserID)
	e.BuyerID = sc.Actor.UserID.String()
	total := totals.Total
	e.Total = &total
	s.publish(ctx, e)
	return totals, nil
}
