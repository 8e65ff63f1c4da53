package shop

import (
	"context"
	"fmt"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/observability"
)

// DiscountSet stores a flat discount for the invoking ticket. The discounts
// document is authoritative; the ticket record mirrors the amount.
func (s *Service) DiscountSet(ctx context.Context, sc Scope, amount int) error {
	if _, err := s.staffTicket(ctx, sc); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("discount cannot be negative: %w", common.ErrValidation)
	}
	if err := s.repos.Discounts.Set(ctx, sc.ChannelID, amount); err != nil {
		return err
	}
	observability.DiscountsSet.Add(1)
	return s.mirrorDiscount(ctx, sc.ChannelID, amount)
}

func (s *Service) DiscountClear(ctx context.Context, sc Scope) error {
	if _, err := s.staffTicket(ctx, sc); err != nil {
		return err
	}
	if err := s.repos.Discounts.Clear(ctx, sc.ChannelID); err != nil {
		return err
	}
	return s.mirrorDiscount(ctx, sc.ChannelID, 0)
}

func (s *Service) DiscountView(ctx context.Context, sc Scope) (int, error) {
	if _, err := s.staffTicket(ctx, sc); err != nil {
		return 0, err
	}
	return s.repos.Discounts.Get(ctx, sc.ChannelID)
}

func (s *Service) mirrorDiscount(ctx context.Context, channel common.ID, amount int) error {
	_, err := s.repos.Tickets.Update(ctx, channel, func(t *common.Ticket) error {
		t.Discount = amount
		return nil
	})
	if isNotTicket(err) {
		// closed concurrently; the discount entry is removed with it
		return nil
	}
	return err
}
