package observability

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// Counter is a monotonically increasing domain counter exposed by Snapshot.
type Counter struct {
	name string
	help string
	v    atomic.Int64
}

func (c *Counter) Add(n int64)  { c.v.Add(n) }
func (c *Counter) Load() int64  { return c.v.Load() }
func (c *Counter) Name() string { return c.name }

var domainCounters []*Counter

func counter(name, help string) *Counter {
	c := &Counter{name: "storefront_" + name + "_total", help: help}
	domainCounters = append(domainCounters, c)
	return c
}

var (
	TicketsCreated   = counter("tickets_created", "Ticket channels opened.")
	TicketsPaid      = counter("tickets_paid", "Tickets moved to paid.")
	TicketsDelivered = counter("tickets_delivered", "Tickets moved to delivered.")
	TicketsClosed    = counter("tickets_closed", "Tickets closed and their channels removed.")
	CartItemsAdded   = counter("cart_items_added", "Units added to carts.")
	CartCheckouts    = counter("cart_checkouts", "Checkout summaries produced.")
	ProductsAdded    = counter("products_added", "Catalog entries created.")
	ProductsRemoved  = counter("products_removed", "Catalog entries removed by message.")
	DiscountsSet     = counter("discounts_set", "Flat ticket discounts set.")
	PermissionDenied = counter("permission_denied", "Commands refused by the permission gate.")
	SideEffectErrors = counter("side_effect_errors", "Failed platform calls after state was saved.")
	EventsFailed     = counter("events_failed", "Domain events that could not be delivered.")
	EventsDropped    = counter("events_dropped", "Domain events dropped on a full publish queue.")
)

// Snapshot renders the domain counters in the Prometheus text format.
func Snapshot() string {
	var b strings.Builder
	for _, c := range domainCounters {
		b.WriteString("# HELP " + c.name + " " + c.help + "\n")
		b.WriteString("# TYPE " + c.name + " counter\n")
		b.WriteString(c.name + " " + strconv.FormatInt(c.Load(), 10) + "\n")
	}
	return b.String()
}
