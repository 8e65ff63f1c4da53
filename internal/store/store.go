// Package store holds the typed repositories layered over the document
// store. Each repository owns one document and rewrites it whole on every
// mutation.
package store

import (
	"github.com/gogogo1024/storefront-bot/internal/docstore"
)

// Document names relative to the data root.
const (
	ProductsDoc        = "products.json"
	CartsDoc           = "carts.json"
	TicketsDoc         = "tickets.json"
	DiscountsDoc       = "discounts.json"
	CounterDoc         = "ticket_counter.json"
	DefaultSettingsDoc = "config.json"
)

// Repos bundles every repository over one document store.
type Repos struct {
	Products  *Products
	Carts     *Carts
	Tickets   *Tickets
	Discounts *Discounts
	Counter   *Counter
	Settings  *Settings
}

// New builds the repositories. settingsDoc defaults to DefaultSettingsDoc.
func New(s *docstore.Store, settingsDoc string) *Repos {
	if settingsDoc == "" {
		settingsDoc = DefaultSettingsDoc
	}
	return &Repos{
		Products:  &Products{s: s},
		Carts:     &Carts{s: s},
		Tickets:   &Tickets{s: s},
		Discounts: &Discounts{s: s},
		Counter:   &Counter{s: s},
		Settings:  &Settings{s: s, name: settingsDoc},
	}
}
