package admin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/shop"
)

// fail writes err in the shared error envelope. Internal errors are logged
// and their text withheld.
func fail(c context.Context, ctx *app.RequestContext, err error) {
	code, status := common.ErrorCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		common.L().Error("admin request failed", zap.String("path", string(ctx.Path())), zap.Error(err))
		msg = "internal error"
	}
	common.WriteError(c, ctx, status, code, msg)
}

func RegisterCatalog(h *server.Hertz, svc *shop.Service) {
	products := svc.Repos().Products
	h.GET(PathProducts, func(c context.Context, ctx *app.RequestContext) {
		list, err := products.List(c)
		if err != nil {
			fail(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, map[string]any{"products": list, "count": len(list)})
	})
	h.GET(PathProductID, func(c context.Context, ctx *app.RequestContext) {
		id, err := strconv.Atoi(ctx.Param("id"))
		if err != nil {
			common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "product id must be an integer")
			return
		}
		p, err := products.FindByID(c, id)
		if err != nil {
			fail(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, p)
	})
}

func RegisterTickets(h *server.Hertz, svc *shop.Service) {
	tickets := svc.Repos().Tickets
	h.GET(PathTickets, func(c context.Context, ctx *app.RequestContext) {
		all, err := tickets.List(c)
		if err != nil {
			fail(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, map[string]any{"tickets": all, "count": len(all)})
	})
	h.GET(PathTicketChannel, func(c context.Context, ctx *app.RequestContext) {
		channel := common.ID(ctx.Param("channel"))
		t, err := tickets.Find(c, channel)
		if err != nil {
			fail(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, map[string]any{"channel_id": channel, "ticket": t})
	})
}

type cartLine struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// RegisterCarts serves a user's cart priced like cart_view; ?channel= picks
// the ticket whose discount applies.
func RegisterCarts(h *server.Hertz, svc *shop.Service) {
	h.GET(PathCart, func(c context.Context, ctx *app.RequestContext) {
		user := common.ID(ctx.Param("user"))
		channel := common.ID(ctx.Query("channel"))
		cart, err := svc.Repos().Carts.Get(c, user)
		if err != nil {
			fail(c, ctx, err)
			return
		}
		t, err := svc.Quote(c, user, channel)
		if err != nil {
			fail(c, ctx, err)
			return
		}
		lines := make([]cartLine, 0, len(t.Lines))
		for _, l := range t.Lines {
			lines = append(lines, cartLine{ProductID: l.Product.ID, Name: l.Product.Name, Quantity: l.Quantity, Price: l.Product.Price, LineTotal: l.LineTotal})
		}
		ctx.JSON(http.StatusOK, map[string]any{
			"user_id":          user,
			"cart":             cart,
			"lines":            lines,
			"subtotal":         t.Subtotal,
			"discount":         t.Discount,
			"discount_applied": t.DiscountApplied,
			"total":            t.Total,
			"payment_methods":  t.PaymentMethods,
		})
	})
}
