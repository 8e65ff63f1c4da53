package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/docstore"
)

// productDoc is the products document. Older files sometimes hold an
// object keyed by id instead of a list; those read as the object's values
// ordered by id.
type productDoc []common.Product

func (d *productDoc) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var m map[string]common.Product
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		out := make(productDoc, 0, len(m))
		for _, p := range m {
			out = append(out, p)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		*d = out
		return nil
	}
	var l []common.Product
	if err := json.Unmarshal(b, &l); err != nil {
		return err
	}
	*d = l
	return nil
}

func (d productDoc) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]common.Product(d))
}

func (d productDoc) index(pred func(*common.Product) bool) int {
	for i := range d {
		if pred(&d[i]) {
			return i
		}
	}
	return -1
}

// Products is the catalog repository.
type Products struct {
	s *docstore.Store
}

func (r *Products) List(ctx context.Context) ([]common.Product, error) {
	d, err := docstore.Read[productDoc](ctx, r.s, ProductsDoc)
	return []common.Product(d), err
}

func (r *Products) FindByID(ctx context.Context, id int) (common.Product, error) {
	d, err := docstore.Read[productDoc](ctx, r.s, ProductsDoc)
	if err != nil {
		return common.Product{}, err
	}
	i := d.index(func(p *common.Product) bool { return p.ID == id })
	if i < 0 {
		return common.Product{}, fmt.Errorf("product %d: %w", id, common.ErrNotFound)
	}
	return d[i], nil
}

// Add appends a product with id max+1 (1 for an empty catalog). Price is
// rounded to cents.
func (r *Products) Add(ctx context.Context, name string, price decimal.Decimal, stock *int, description, image string) (common.Product, error) {
	if price.IsNegative() {
		return common.Product{}, fmt.Errorf("price must not be negative: %w", common.ErrValidation)
	}
	if stock != nil && *stock < 0 {
		return common.Product{}, fmt.Errorf("stock must not be negative: %w", common.ErrValidation)
	}
	var added common.Product
	err := docstore.Update(ctx, r.s, ProductsDoc, func(d *productDoc) error {
		next := 0
		for _, p := range *d {
			if p.ID > next {
				next = p.ID
			}
		}
		added = common.Product{
			ID:             next + 1,
			Name:           name,
			Description:    description,
			Price:          price.Round(2),
			Stock:          stock,
			Image:          image,
			PaymentMethods: []string{},
		}
		*d = append(*d, added)
		return nil
	})
	return added, err
}

// mutate applies fn to product id and saves the catalog.
func (r *Products) mutate(ctx context.Context, id int, fn func(*common.Product)) (common.Product, error) {
	var out common.Product
	err := docstore.Update(ctx, r.s, ProductsDoc, func(d *productDoc) error {
		i := d.index(func(p *common.Product) bool { return p.ID == id })
		if i < 0 {
			return fmt.Errorf("product %d: %w", id, common.ErrNotFound)
		}
		fn(&(*d)[i])
		out = (*d)[i]
		return nil
	})
	return out, err
}

func (r *Products) SetStock(ctx context.Context, id, stock int) (common.Product, error) {
	if stock < 0 {
		return common.Product{}, fmt.Errorf("stock must not be negative: %w", common.ErrValidation)
	}
	return r.mutate(ctx, id, func(p *common.Product) { p.Stock = &stock })
}

// SetDiscountPercent validates the range before looking the product up.
func (r *Products) SetDiscountPercent(ctx context.Context, id, percent int) (common.Product, error) {
	if percent < 0 || percent > 100 {
		return common.Product{}, fmt.Errorf("discount percent must be between 0 and 100: %w", common.ErrValidation)
	}
	return r.mutate(ctx, id, func(p *common.Product) { p.DiscountPercent = percent })
}

func (r *Products) SetPaymentMethods(ctx context.Context, id int, methods []string) (common.Product, error) {
	if methods == nil {
		methods = []string{}
	}
	return r.mutate(ctx, id, func(p *common.Product) { p.PaymentMethods = methods })
}

// SetMessageRef records where the product's embed was posted.
func (r *Products) SetMessageRef(ctx context.Context, id int, channel, message common.ID) error {
	_, err := r.mutate(ctx, id, func(p *common.Product) {
		p.ChannelID = channel
		p.MessageID = message
	})
	return err
}

// RemoveByMessageRef deletes every product posted as message and returns
// the first one removed. Carts are not touched.
func (r *Products) RemoveByMessageRef(ctx context.Context, message common.ID) (common.Product, error) {
	var removed common.Product
	err := docstore.Update(ctx, r.s, ProductsDoc, func(d *productDoc) error {
		if message.IsZero() {
			return fmt.Errorf("message ref empty: %w", common.ErrNotFound)
		}
		kept := make(productDoc, 0, len(*d))
		found := false
		for _, p := range *d {
			if p.MessageID == message {
				if !found {
					removed = p
					found = true
				}
				continue
			}
			kept = append(kept, p)
		}
		if !found {
			return fmt.Errorf("product posted as %s: %w", message, common.ErrNotFound)
		}
		*d = kept
		return nil
	})
	return removed, err
}
