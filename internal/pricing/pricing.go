// Package pricing derives cart and checkout totals.
package pricing

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gogogo1024/storefront-bot/internal/common"
)

// Line is one priced cart entry.
type Line struct {
	Product   common.Product  `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Totals is the outcome of pricing a cart. Discount is the flat amount
// requested for the ticket; DiscountApplied is what was actually taken off
// after clamping the total at zero.
type Totals struct {
	Lines           []Line          `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        int             `json:"discount"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethods  []string        `json:"payment_methods"`
}

// Empty reports whether no cart line resolved to a product.
func (t Totals) Empty() bool { return len(t.Lines) == 0 }

// Compute prices cart against catalog. Entries whose product is missing
// from the catalog are skipped. Per-product discount percentages are not
// applied; only the flat discount is. Lines are ordered by product id and
// payment methods keep first-seen order.
func Compute(cart common.Cart, catalog []common.Product, flatDiscount int) Totals {
	byID := make(map[int]common.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}
	if flatDiscount < 0 {
		flatDiscount = 0
	}

	ids := make([]int, 0, len(cart))
	qty := make(map[int]int, len(cart))
	for k, q := range cart {
		id, err := strconv.Atoi(k)
		if err != nil || q <= 0 {
			continue
		}
		if _, ok := byID[id]; !ok {
			continue
		}
		ids = append(ids, id)
		qty[id] = q
	}
	sort.Ints(ids)

	t := Totals{
		Lines:          make([]Line, 0, len(ids)),
		Subtotal:       decimal.Zero,
		Discount:       flatDiscount,
		PaymentMethods: []string{},
	}
	seen := map[string]bool{}
	for _, id := range ids {
		p := byID[id]
		lt := p.Price.Mul(decimal.NewFromInt(int64(qty[id])))
		t.Lines = append(t.Lines, Line{Product: p, Quantity: qty[id], LineTotal: lt})
		t.Subtotal = t.Subtotal.Add(lt)
		for _, m := range p.PaymentMethods {
			if !seen[m] {
				seen[m] = true
				t.PaymentMethods = append(t.PaymentMethods, m)
			}
		}
	}
	t.Total = decimal.Max(decimal.Zero, t.Subtotal.Sub(decimal.NewFromInt(int64(flatDiscount))))
	t.DiscountApplied = t.Subtotal.Sub(t.Total)
	return t
}
