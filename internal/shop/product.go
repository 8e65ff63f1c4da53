package shop

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/observability"
)

type NewProduct struct {
	Name        string
	Price       decimal.Decimal
	Stock       *int
	Description string
	Image       *Attachment
}

// AddProduct stores a product and posts its embed into the invoking
// channel. Posted reports whether the embed went out.
func (s *Service) AddProduct(ctx context.Context, sc Scope, in NewProduct) (p common.Product, posted bool, err error) {
	if err := s.requireGuild(sc); err != nil {
		return p, false, err
	}
	if err := s.requireStaff(ctx, sc); err != nil {
		return p, false, err
	}
	if in.Image == nil {
		return p, false, fmt.Errorf("an image attachment is required: %w", common.ErrValidation)
	}
	image := s.relayImage(ctx, *in.Image)
	p, err = s.repos.Products.Add(ctx, in.Name, in.Price, in.Stock, in.Description, image)
	if err != nil {
		return p, false, err
	}
	observability.ProductsAdded.Add(1)
	if s.showcase == nil {
		return p, false, nil
	}
	msg, err := s.showcase.PostProduct(ctx, sc.ChannelID, p)
	if err != nil {
		s.sideEffect("post_product", sc.ChannelID, err)
		return p, false, nil
	}
	if err := s.repos.Products.SetMessageRef(ctx, p.ID, sc.ChannelID, msg); err != nil {
		return p, true, err
	}
	p.ChannelID, p.MessageID = sc.ChannelID, msg
	return p, true, nil
}

// relayImage picks the product image URL: a copy in the storage channel,
// else the attachment URL, else the placeholder.
func (s *Service) relayImage(ctx context.Context, a Attachment) string {
	settings, err := s.repos.Settings.Get(ctx)
	if err == nil && !settings.ImageStorageChannel.IsZero() && s.media != nil {
		url, err := s.media.Store(ctx, settings.ImageStorageChannel, a)
		if err == nil && url != "" {
			return url
		}
		s.sideEffect("image_relay", settings.ImageStorageChannel, err)
	}
	if a.URL != "" {
		return a.URL
	}
	return s.cfg.PlaceholderImage
}

// ListProducts posts one embed per product into the invoking channel and
// returns the catalog.
func (s *Service) ListProducts(ctx context.Context, sc Scope) ([]common.Product, error) {
	if err := s.requireGuild(sc); err != nil {
		return nil, err
	}
	list, err := s.repos.Products.List(ctx)
	if err != nil || s.showcase == nil {
		return list, err
	}
	for _, p := range list {
		if _, err := s.showcase.PostProduct(ctx, sc.ChannelID, p); err != nil {
			s.sideEffect("post_product", sc.ChannelID, err)
		}
	}
	return list, nil
}

func (s *Service) EditStock(ctx context.Context, sc Scope, id, stock int) (common.Product, error) {
	if err := s.staffGuild(ctx, sc); err != nil {
		return common.Product{}, err
	}
	p, err := s.repos.Products.SetStock(ctx, id, stock)
	if err != nil {
		return p, err
	}
	s.refresh(ctx, p)
	return p, nil
}

// RemoveProduct deletes the product posted as message, then its message.
// Carts keep referencing the id and skip it when priced.
func (s *Service) RemoveProduct(ctx context.Context, sc Scope, message common.ID) (common.Product, error) {
	if err := s.staffGuild(ctx, sc); err != nil {
		return common.Product{}, err
	}
	p, err := s.repos.Products.RemoveByMessageRef(ctx, message)
	if err != nil {
		return p, err
	}
	observability.ProductsRemoved.Add(1)
	if s.showcase != nil && !p.ChannelID.IsZero() {
		s.sideEffect("delete_product_message", p.ChannelID, s.showcase.DeleteProductMessage(ctx, p.ChannelID, message))
	}
	return p, nil
}

// SetPaymentMethods parses a comma-separated method list.
func (s *Service) SetPaymentMethods(ctx context.Context, sc Scope, id int, raw string) (common.Product, error) {
	if err := s.staffGuild(ctx, sc); err != nil {
		return common.Product{}, err
	}
	return s.repos.Products.SetPaymentMethods(ctx, id, common.ParseMethods(raw))
}

func (s *Service) SetDiscountPercent(ctx context.Context, sc Scope, id, percent int) (common.Product, error) {
	if err := s.staffGuild(ctx, sc); err != nil {
		return common.Product{}, err
	}
	p, err := s.repos.Products.SetDiscountPercent(ctx, id, percent)
	if err != nil {
		return p, err
	}
	s.refresh(ctx, p)
	return p, nil
}

func (s *Service) staffGuild(ctx context.Context, sc Scope) error {
	if err := s.requireGuild(sc); err != nil {
		return err
	}
	return s.requireStaff(ctx, sc)
}

// refresh re-renders a posted product embed, best effort.
func (s *Service) refresh(ctx context.Context, p common.Product) {
	if s.showcase == nil || p.MessageID.IsZero() || p.ChannelID.IsZero() {
		return
	}
	if err := s.showcase.UpdateProduct(ctx, p); err != nil {
		s.sideEffect("update_product", p.ChannelID, err)
		return
	}
	s.log.Debug("product embed refreshed", zap.Int("product", p.ID))
}
