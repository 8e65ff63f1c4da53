package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/gogogo1024/storefront-bot/internal/shop"
)

// Handlers adapts invocations to shop operations and formats the replies.
type Handlers struct {
	svc *shop.Service
}

func NewHandlers(svc *shop.Service) *Handlers { return &Handlers{svc: svc} }

func embeds(e ...*discordgo.MessageEmbed) []*discordgo.MessageEmbed { return e }

func (h *Handlers) CartAdd(ctx context.Context, inv *Invocation) (Reply, error) {
	id, _ := inv.Options.Int("product_id")
	qty := 1
	if n, ok := inv.Options.Int("quantity"); ok {
		qty = n
	}
	p, cart, err := h.svc.CartAdd(ctx, inv.Scope, id, qty)
	if err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("🛒 Added **%d × %s** to your cart (now %d).", qty, p.Name, cart[fmt.Sprint(p.ID)])), nil
}

func (h *Handlers) CartView(ctx context.Context, inv *Invocation) (Reply, error) {
	t, err := h.svc.CartView(ctx, inv.Scope)
	if err != nil {
		return Reply{}, err
	}
	if t.Empty() {
		return private("🛒 Your cart is empty."), nil
	}
	return Reply{Embeds: embeds(CartEmbed(t)), Ephemeral: true}, nil
}

func (h *Handlers) CartOther(ctx context.Context, inv *Invocation) (Reply, error) {
	t, err := h.svc.CartOther(ctx, inv.Scope, inv.Options.ID("user"))
	if err != nil {
		return Reply{}, err
	}
	return Reply{Embeds: embeds(OtherCartEmbed(inv.Options.UserLabel("user"), t))}, nil
}

func (h *Handlers) CartRemove(ctx context.Context, inv *Invocation) (Reply, error) {
	id, _ := inv.Options.Int("product_id")
	if err := h.svc.CartRemove(ctx, inv.Scope, id); err != nil {
		return Reply{}, err
	}
	return private("🗑 Removed item from your cart."), nil
}

func (h *Handlers) CartClear(ctx context.Context, inv *Invocation) (Reply, error) {
	if err := h.svc.CartClear(ctx, inv.Scope); err != nil {
		return Reply{}, err
	}
	return private("🧹 Cleared your cart."), nil
}

func (h *Handlers) Checkout(ctx context.Context, inv *Invocation) (Reply, error) {
	t, err := h.svc.Checkout(ctx, inv.Scope)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Embeds: embeds(CheckoutEmbed(t))}, nil
}

func (h *Handlers) DiscountSet(ctx context.Context, inv *Invocation) (Reply, error) {
	amount, _ := inv.Options.Int("amount")
	if err := h.svc.DiscountSet(ctx, inv.Scope, amount); err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("💲 Set a **%d** discount for this ticket.", amount)), nil
}

func (h *Handlers) DiscountClear(ctx context.Context, inv *Invocation) (Reply, error) {
	if err := h.svc.DiscountClear(ctx, inv.Scope); err != nil {
		return Reply{}, err
	}
	return private("🗑 Cleared the discount for this ticket."), nil
}

func (h *Handlers) DiscountView(ctx context.Context, inv *Invocation) (Reply, error) {
	amount, err := h.svc.DiscountView(ctx, inv.Scope)
	if err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("💲 Current discount: **%d**", amount)), nil
}

func (h *Handlers) StaffAddRole(ctx context.Context, inv *Invocation) (Reply, error) {
	role := inv.Options.ID("role")
	if _, err := h.svc.StaffAddRole(ctx, inv.Scope, role); err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("✅ Added %s as staff.", roleMention(role))), nil
}

func (h *Handlers) StaffRemoveRole(ctx context.Context, inv *Invocation) (Reply, error) {
	role := inv.Options.ID("role")
	if _, err := h.svc.StaffRemoveRole(ctx, inv.Scope, role); err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("🗑 Removed %s from staff.", roleMention(role))), nil
}

func (h *Handlers) AddProduct(ctx context.Context, inv *Invocation) (Reply, error) {
	price, _ := inv.Options.Decimal("price")
	in := shop.NewProduct{
		Name:        inv.Options.String("name"),
		Price:       price,
		Description: inv.Options.String("description"),
		Image:       inv.Options.Attachment("image"),
	}
	if n, ok := inv.Options.Int("stock"); ok {
		in.Stock = &n
	}
	p, posted, err := h.svc.AddProduct(ctx, inv.Scope, in)
	if err != nil {
		return Reply{}, err
	}
	if !posted {
		return private(fmt.Sprintf("✅ Product **%s** (id %d) added. Posting the embed failed.", p.Name, p.ID)), nil
	}
	return private(fmt.Sprintf("✅ Product **%s** (id %d) added and posted.", p.Name, p.ID)), nil
}

func (h *Handlers) ListProducts(ctx context.Context, inv *Invocation) (Reply, error) {
	list, err := h.svc.ListProducts(ctx, inv.Scope)
	if err != nil {
		return Reply{}, err
	}
	if len(list) == 0 {
		return private("No products available."), nil
	}
	return private("Posted product list."), nil
}

func (h *Handlers) EditStock(ctx context.Context, inv *Invocation) (Reply, error) {
	id, _ := inv.Options.Int("product_id")
	stock, _ := inv.Options.Int("new_stock")
	p, err := h.svc.EditStock(ctx, inv.Scope, id, stock)
	if err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("✅ Updated stock for **%s** to %d.", p.Name, stock)), nil
}

func (h *Handlers) RemoveProduct(ctx context.Context, inv *Invocation) (Reply, error) {
	msg := inv.Options.ID("message_id")
	p, err := h.svc.RemoveProduct(ctx, inv.Scope, msg)
	if err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("✅ Removed product **%s**. Existing carts were NOT modified.", p.Name)), nil
}

func (h *Handlers) SetPaymentMethods(ctx context.Context, inv *Invocation) (Reply, error) {
	id, _ := inv.Options.Int("product_id")
	p, err := h.svc.SetPaymentMethods(ctx, inv.Scope, id, inv.Options.String("methods"))
	if err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("✅ Payment methods set for **%s**: %s", p.Name, strings.Join(p.PaymentMethods, ", "))), nil
}

func (h *Handlers) SetDiscount(ctx context.Context, inv *Invocation) (Reply, error) {
	id, _ := inv.Options.Int("product_id")
	pct, _ := inv.Options.Int("percent")
	p, err := h.svc.SetDiscountPercent(ctx, inv.Scope, id, pct)
	if err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("✅ Set discount for **%s** to %d%%.", p.Name, pct)), nil
}

func (h *Handlers) TicketNew(ctx context.Context, inv *Invocation) (Reply, error) {
	channel, _, err := h.svc.NewTicket(ctx, inv.Scope)
	if err != nil {
		return Reply{}, err
	}
	return private("🎫 Ticket created: " + channelMention(channel)), nil
}

func (h *Handlers) TicketPaid(ctx context.Context, inv *Invocation) (Reply, error) {
	t, err := h.svc.MarkPaid(ctx, inv.Scope)
	if err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("✅ Ticket %d marked as **paid**.", t.Number)), nil
}

func (h *Handlers) TicketDelivered(ctx context.Context, inv *Invocation) (Reply, error) {
	t, err := h.svc.MarkDelivered(ctx, inv.Scope)
	if err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("📦 Ticket %d marked as **delivered**.", t.Number)), nil
}

func (h *Handlers) TicketSetCategory(ctx context.Context, inv *Invocation) (Reply, error) {
	category := inv.Options.ID("category")
	if err := h.svc.SetCategory(ctx, inv.Scope, category); err != nil {
		return Reply{}, err
	}
	return private(fmt.Sprintf("✅ Ticket category set to **%s**.", channelMention(category))), nil
}

func (h *Handlers) TicketCheckPayment(ctx context.Context, inv *Invocation) (Reply, error) {
	if _, err := h.svc.CheckPayment(ctx, inv.Scope); err != nil {
		return Reply{}, err
	}
	return private("ℹ️ Payment check placeholder executed, no change (manual webhook integration required)."), nil
}

// TicketClose drops the records, then deletes the channel once the reply
// is out, since the reply goes to that channel.
func (h *Handlers) TicketClose(ctx context.Context, inv *Invocation) (Reply, error) {
	if _, err := h.svc.CloseTicket(ctx, inv.Scope); err != nil {
		return Reply{}, err
	}
	channel := inv.Scope.ChannelID
	r := private("🗑 Closing ticket...")
	r.After = func(ctx context.Context) { h.svc.DeleteTicketChannel(ctx, channel) }
	return r, nil
}

func (h *Handlers) TicketInfo(ctx context.Context, inv *Invocation) (Reply, error) {
	t, err := h.svc.TicketInfo(ctx, inv.Scope)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Embeds: embeds(TicketEmbed(t)), Ephemeral: true}, nil
}
