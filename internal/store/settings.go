package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/docstore"
)

// errUnchanged aborts an update that would write identical contents.
var errUnchanged = errors.New("unchanged")

var knownSettingsKeys = []string{"staff_roles", "ticket_category", "image_storage_channel"}

// settingsDoc keeps keys the bot does not understand so that hand-edited
// settings survive a rewrite.
type settingsDoc struct {
	common.Settings
	rest map[string]json.RawMessage
}

func (d *settingsDoc) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(b, &d.Settings); err != nil {
		return err
	}
	for _, k := range knownSettingsKeys {
		delete(raw, k)
	}
	d.rest = raw
	return nil
}

func (d settingsDoc) MarshalJSON() ([]byte, error) {
	s := d.Settings
	if s.StaffRoles == nil {
		s.StaffRoles = []common.ID{}
	}
	known, err := json.Marshal(s)
	if err != nil || len(d.rest) == 0 {
		return known, err
	}
	merged := map[string]json.RawMessage{}
	for k, v := range d.rest {
		merged[k] = v
	}
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// Settings is the staff-editable runtime configuration document.
type Settings struct {
	s    *docstore.Store
	name string
}

func (r *Settings) Get(ctx context.Context) (common.Settings, error) {
	d, err := docstore.Read[settingsDoc](ctx, r.s, r.name)
	return d.Settings, err
}

func (r *Settings) update(ctx context.Context, fn func(*common.Settings) bool) (bool, error) {
	err := docstore.Update(ctx, r.s, r.name, func(d *settingsDoc) error {
		if !fn(&d.Settings) {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	return err == nil, err
}

// AddStaffRole whitelists role. It reports false when the role was
// already present.
func (r *Settings) AddStaffRole(ctx context.Context, role common.ID) (bool, error) {
	return r.update(ctx, func(s *common.Settings) bool {
		if s.HasStaffRole(role) {
			return false
		}
		s.StaffRoles = append(s.StaffRoles, role)
		return true
	})
}

// RemoveStaffRole reports false when the role was not whitelisted.
func (r *Settings) RemoveStaffRole(ctx context.Context, role common.ID) (bool, error) {
	return r.update(ctx, func(s *common.Settings) bool {
		kept := s.StaffRoles[:0:0]
		for _, id := range s.StaffRoles {
			if id != role {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(s.StaffRoles) {
			return false
		}
		s.StaffRoles = kept
		return true
	})
}

func (r *Settings) SetTicketCategory(ctx context.Context, category common.ID) error {
	_, err := r.update(ctx, func(s *common.Settings) bool {
		s.TicketCategory = category
		return true
	})
	return err
}

func (r *Settings) SetImageStorageChannel(ctx context.Context, channel common.ID) error {
	_, err := r.update(ctx, func(s *common.Settings) bool {
		s.ImageStorageChannel = channel
		return true
	})
	return err
}
