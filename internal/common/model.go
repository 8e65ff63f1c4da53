package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Documents written by earlier releases keep prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ID is a platform snowflake. Legacy documents store IDs as JSON numbers,
// so ID accepts both numbers and strings and writes numeric IDs back as
// numbers. The empty ID is written as null.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == "" }

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	// only canonical decimals are valid JSON numbers; "0123" stays a string
	if n, err := strconv.ParseUint(string(id), 10, 64); err == nil && strconv.FormatUint(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Product is a catalog entry.
type Product struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Stock           *int            `json:"stock"`
	Image           string          `json:"image"`
	MessageID       ID              `json:"message_id"`
	ChannelID       ID              `json:"channel_id"`
	PaymentMethods  []string        `json:"payment_methods"`
	DiscountPercent int             `json:"discount_percent"`
}

// StockLabel renders stock for display; nil stock is unbounded.
func (p *Product) StockLabel() string {
	if p.Stock == nil {
		return "∞"
	}
	return strconv.Itoa(*p.Stock)
}

// Cart maps product id (decimal string) to a positive quantity.
type Cart map[string]int

// Clone returns a copy of the cart that shares no state with c.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

type TicketStatus string

const (
	TicketOpen      TicketStatus = "open"
	TicketPaid      TicketStatus = "paid"
	TicketDelivered TicketStatus = "delivered"
)

// rank orders statuses along the forward-only lifecycle.
func (s TicketStatus) rank() int {
	switch s {
	case TicketOpen:
		return 0
	case TicketPaid:
		return 1
	case TicketDelivered:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether moving from s to next keeps the lifecycle
// forward-only. Staying on the same status is allowed.
func (s TicketStatus) CanAdvanceTo(next TicketStatus) bool {
	from, to := s.rank(), next.rank()
	if to < 0 {
		return false
	}
	// unknown legacy statuses may only move forward into a known one
	return from <= to
}

// Ticket is keyed by its channel id in the tickets document.
type Ticket struct {
	BuyerID   ID           `json:"buyer_id"`
	Number    int          `json:"number"`
	Status    TicketStatus `json:"status"`
	Delivered bool         `json:"delivered"`
	Discount  int          `json:"discount"`
}

// ChannelName is the channel name that reflects the ticket's status.
func (t *Ticket) ChannelName() string {
	prefix := "ticket"
	switch t.Status {
	case TicketPaid:
		prefix = "paid"
	case TicketDelivered:
		prefix = "delivered"
	}
	return fmt.Sprintf("%s-%d", prefix, t.Number)
}

// Settings is the runtime configuration document edited by staff commands.
type Settings struct {
	StaffRoles          []ID `json:"staff_roles"`
	TicketCategory      ID   `json:"ticket_category"`
	ImageStorageChannel ID   `json:"image_storage_channel"`
}

// HasStaffRole reports whether role is whitelisted.
func (s *Settings) HasStaffRole(role ID) bool {
	for _, r := range s.StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the caller of a command.
type Actor struct {
	UserID  ID
	Name    string
	RoleIDs []ID
}

// ParseMethods splits a comma-separated payment method list, trimming
// whitespace and dropping empty entries.
func ParseMethods(raw string) []string {
	out := []string{}
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
