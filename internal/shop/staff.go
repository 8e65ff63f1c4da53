package shop

import (
	"context"
	"fmt"

	"github.com/gogogo1024/storefront-bot/internal/common"
)

// StaffAddRole whitelists role. Adding a present role is a no-op.
func (s *Service) StaffAddRole(ctx context.Context, sc Scope, role common.ID) (bool, error) {
	if err := s.requireStaff(ctx, sc); err != nil {
		return false, err
	}
	if role.IsZero() {
		return false, fmt.Errorf("role required: %w", common.ErrValidation)
	}
	return s.repos.Settings.AddStaffRole(ctx, role)
}

// StaffRemoveRole drops role from the whitelist. Removing an absent role
// is a no-op.
func (s *Service) StaffRemoveRole(ctx context.Context, sc Scope, role common.ID) (bool, error) {
	if err := s.requireStaff(ctx, sc); err != nil {
		return false, err
	}
	return s.repos.Settings.RemoveStaffRole(ctx, role)
}
