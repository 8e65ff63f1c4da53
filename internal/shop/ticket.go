package shop

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/events"
	"github.com/gogogo1024/storefront-bot/internal/observability"
)

// NewTicket allocates the next ticket number, creates the private channel
// and stores the record keyed by the new channel.
func (s *Service) NewTicket(ctx context.Context, sc Scope) (common.ID, common.Ticket, error) {
	if err := s.requireGuild(sc); err != nil {
		return "", common.Ticket{}, err
	}
	settings, err := s.repos.Settings.Get(ctx)
	if err != nil {
		return "", common.Ticket{}, err
	}
	category := settings.TicketCategory
	if !category.IsZero() && !s.channels.IsCategory(ctx, sc.GuildID, category) {
		s.log.Warn("configured ticket category is gone", zap.String("category", category.String()))
		category = ""
	}
	n, err := s.repos.Counter.Next(ctx)
	if err != nil {
		return "", common.Ticket{}, err
	}
	tk := common.Ticket{BuyerID: sc.Actor.UserID, Number: n, Status: common.TicketOpen}
	channel, err := s.channels.CreateTicketChannel(ctx, TicketChannel{
		GuildID:    sc.GuildID,
		Name:       tk.ChannelName(),
		BuyerID:    sc.Actor.UserID,
		StaffRoles: settings.StaffRoles,
		CategoryID: category,
		Reason:     fmt.Sprintf("Ticket created by %s (%s)", sc.Actor.Name, sc.Actor.UserID),
	})
	if err != nil {
		return "", common.Ticket{}, fmt.Errorf("create ticket channel: %w", err)
	}
	if err := s.repos.Tickets.Put(ctx, channel, tk); err != nil {
		return "", common.Ticket{}, err
	}
	observability.TicketsCreated.Add(1)
	s.sideEffect("announce_ticket", channel, s.channels.AnnounceTicket(ctx, channel, sc.Actor.UserID, tk, settings.StaffRoles))
	s.publish(ctx, ticketEvent(events.TicketCreated, channel, tk, sc.Actor.UserID))
	return channel, tk, nil
}

// advance moves the invoking ticket forward to status, then renames the
// channel. Re-marking the current status is allowed; moving back is a
// conflict.
func (s *Service) advance(ctx context.Context, sc Scope, status common.TicketStatus) (common.Ticket, error) {
	if _, err := s.staffTicket(ctx, sc); err != nil {
		return common.Ticket{}, err
	}
	tk, err := s.repos.Tickets.Update(ctx, sc.ChannelID, func(t *common.Ticket) error {
		if !t.Status.CanAdvanceTo(status) {
			return fmt.Errorf("cannot move from %s to %s: %w", t.Status, status, common.ErrConflict)
		}
		t.Status = status
		if status == common.TicketDelivered {
			t.Delivered = true
		}
		return nil
	})
	if err != nil {
		return tk, err
	}
	s.sideEffect("rename_channel", sc.ChannelID, s.channels.RenameChannel(ctx, sc.ChannelID, tk.ChannelName()))
	return tk, nil
}

func (s *Service) MarkPaid(ctx context.Context, sc Scope) (common.Ticket, error) {
	tk, err := s.advance(ctx, sc, common.TicketPaid)
	if err != nil {
		return tk, err
	}
	observability.TicketsPaid.Add(1)
	s.publish(ctx, ticketEvent(events.TicketPaid, sc.ChannelID, tk, sc.Actor.UserID))
	return tk, nil
}

func (s *Service) MarkDelivered(ctx context.Context, sc Scope) (common.Ticket, error) {
	tk, err := s.advance(ctx, sc, common.TicketDelivered)
	if err != nil {
		return tk, err
	}
	observability.TicketsDelivered.Add(1)
	s.publish(ctx, ticketEvent(events.TicketDelivered, sc.ChannelID, tk, sc.Actor.UserID))
	return tk, nil
}

// SetCategory stores where new ticket channels are created.
func (s *Service) SetCategory(ctx context.Context, sc Scope, category common.ID) error {
	if err := s.requireStaff(ctx, sc); err != nil {
		return err
	}
	if category.IsZero() {
		return fmt.Errorf("category required: %w", common.ErrValidation)
	}
	return s.repos.Settings.SetTicketCategory(ctx, category)
}

// CheckPayment is a hook for external payment detection. It changes nothing.
func (s *Service) CheckPayment(ctx context.Context, sc Scope) (common.Ticket, error) {
	return s.staffTicket(ctx, sc)
}

func (s *Service) TicketInfo(ctx context.Context, sc Scope) (common.Ticket, error) {
	return s.staffTicket(ctx, sc)
}

// CloseTicket removes the ticket record and its discount entry. The
// channel itself is removed afterwards by DeleteTicketChannel, so a failed
// deletion never leaves a tracked ticket without a channel.
func (s *Service) CloseTicket(ctx context.Context, sc Scope) (common.Ticket, error) {
	if _, err := s.staffTicket(ctx, sc); err != nil {
		return common.Ticket{}, err
	}
	tk, err := s.repos.Tickets.Delete(ctx, sc.ChannelID)
	if err != nil {
		return tk, err
	}
	if err := s.repos.Discounts.Clear(ctx, sc.ChannelID); err != nil {
		s.log.Warn("discount cleanup failed", zap.String("channel", sc.ChannelID.String()), zap.Error(err))
	}
	observability.TicketsClosed.Add(1)
	s.publish(ctx, ticketEvent(events.TicketClosed, sc.ChannelID, tk, sc.Actor.UserID))
	return tk, nil
}

// DeleteTicketChannel deletes a closed ticket's channel, best effort.
func (s *Service) DeleteTicketChannel(ctx context.Context, channel common.ID) {
	s.sideEffect("delete_channel", channel, s.channels.DeleteChannel(ctx, channel))
}
