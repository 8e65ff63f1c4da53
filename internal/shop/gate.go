package shop

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
)

var (
	ErrStaffOnly       = fmt.Errorf("staff only: %w", common.ErrPermissionDenied)
	ErrOutsideTicket   = fmt.Errorf("only usable inside your ticket: %w", common.ErrPermissionDenied)
	ErrGuildNotAllowed = fmt.Errorf("server not allowed: %w", common.ErrPermissionDenied)
)

// IsStaff reports whether actor is the owner or holds a whitelisted role.
func (s *Service) IsStaff(ctx context.Context, actor common.Actor) (bool, error) {
	if !s.cfg.OwnerID.IsZero() && actor.UserID == s.cfg.OwnerID {
		return true, nil
	}
	settings, err := s.repos.Settings.Get(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range actor.RoleIDs {
		if settings.HasStaffRole(r) {
			return true, nil
		}
	}
	return false, nil
}

// AllowedHere reports whether actor may use buyer commands in channel:
// staff anywhere, anyone else inside any stored ticket channel.
func (s *Service) AllowedHere(ctx context.Context, actor common.Actor, channel common.ID) (bool, error) {
	staff, err := s.IsStaff(ctx, actor)
	if err != nil || staff {
		return staff, err
	}
	_, err = s.repos.Tickets.Find(ctx, channel)
	if isNotTicket(err) {
		return false, nil
	}
	return err == nil, err
}

// GuildAllowed reports whether guild passes the allowed-guilds list.
func (s *Service) GuildAllowed(guild common.ID) bool {
	if guild.IsZero() {
		return false
	}
	if len(s.cfg.AllowedGuilds) == 0 {
		return true
	}
	for _, g := range s.cfg.AllowedGuilds {
		if g == guild {
			return true
		}
	}
	return false
}

func (s *Service) requireStaff(ctx context.Context, sc Scope) error {
	ok, err := s.IsStaff(ctx, sc.Actor)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStaffOnly
	}
	return nil
}

func (s *Service) requireHere(ctx context.Context, sc Scope) error {
	ok, err := s.AllowedHere(ctx, sc.Actor, sc.ChannelID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOutsideTicket
	}
	return nil
}

func (s *Service) requireGuild(sc Scope) error {
	if !s.GuildAllowed(sc.GuildID) {
		s.log.Debug("guild rejected", zap.String("guild", sc.GuildID.String()))
		return ErrGuildNotAllowed
	}
	return nil
}

// requireTicket loads the ticket stored for the invoking channel.
func (s *Service) requireTicket(ctx context.Context, sc Scope) (common.Ticket, error) {
	return s.repos.Tickets.Find(ctx, sc.ChannelID)
}

// staffTicket runs the staff gate, then the ticket lookup.
func (s *Service) staffTicket(ctx context.Context, sc Scope) (common.Ticket, error) {
	if err := s.requireStaff(ctx, sc); err != nil {
		return common.Ticket{}, err
	}
	return s.requireTicket(ctx, sc)
}
