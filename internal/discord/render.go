package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/pricing"
)

const (
	colorBlurple = 0x5865F2
	colorGold    = 0xF1C40F
	colorGreen   = 0x2ECC71
	colorBlue    = 0x3498DB
)

func money(d decimal.Decimal) string { return "$" + d.StringFixed(2) }

// ProductEmbed renders a catalog entry.
func ProductEmbed(p common.Product) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "🛍️ " + p.Name,
		Description: p.Description,
		Color:       colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Price", Value: money(p.Price), Inline: true},
			{Name: "Stock", Value: p.StockLabel(), Inline: true},
			{Name: "ID", Value: strconv.Itoa(p.ID), Inline: true},
		},
	}
	if p.DiscountPercent > 0 {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Discount", Value: fmt.Sprintf("%d%% off", p.DiscountPercent)})
	}
	if len(p.PaymentMethods) > 0 {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Payment methods", Value: strings.Join(p.PaymentMethods, ", ")})
	}
	if p.Image != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: p.Image}
	}
	return e
}

func lineFields(t pricing.Totals) []*discordgo.MessageEmbedField {
	out := make([]*discordgo.MessageEmbedField, 0, len(t.Lines)+4)
	for _, l := range t.Lines {
		out = append(out, &discordgo.MessageEmbedField{
			Name:  l.Product.Name,
			Value: fmt.Sprintf("Quantity: **%d**\nPrice: **%s** each", l.Quantity, money(l.Product.Price)),
		})
	}
	return out
}

// discountValue shows the requested flat discount and, when the total was
// clamped, the part actually taken off.
func discountValue(t pricing.Totals) string {
	requested := decimal.NewFromInt(int64(t.Discount))
	v := "💲 " + money(requested)
	if !t.DiscountApplied.Equal(requested) {
		v += " (applied " + money(t.DiscountApplied) + ")"
	}
	return v
}

// CartEmbed renders the caller's cart with this channel's discount.
func CartEmbed(t pricing.Totals) *discordgo.MessageEmbed {
	fields := lineFields(t)
	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "Subtotal", Value: "💰 " + money(t.Subtotal)},
		&discordgo.MessageEmbedField{Name: "Discount", Value: discountValue(t)},
		&discordgo.MessageEmbedField{Name: "Total", Value: "✅ " + money(t.Total)},
	)
	return &discordgo.MessageEmbed{Title: "🛒 Your Cart", Color: colorBlurple, Fields: fields}
}

// OtherCartEmbed renders another user's cart for staff, subtotal only.
func OtherCartEmbed(user string, t pricing.Totals) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{Title: "🛒 Cart of " + user, Color: colorGold}
	if t.Empty() {
		e.Description = "Cart is empty."
		return e
	}
	e.Fields = append(lineFields(t), &discordgo.MessageEmbedField{Name: "Subtotal", Value: "💰 " + money(t.Subtotal)})
	return e
}

// CheckoutEmbed renders the amount due and accepted payment methods.
func CheckoutEmbed(t pricing.Totals) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(t.Lines)+4)
	for _, l := range t.Lines {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  l.Product.Name,
			Value: fmt.Sprintf("%d × %s = **%s**", l.Quantity, money(l.Product.Price), money(l.LineTotal)),
		})
	}
	methods := strings.Join(t.PaymentMethods, "\n")
	if methods == "" {
		methods = "No methods configured"
	}
	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "Subtotal", Value: "💰 " + money(t.Subtotal)},
		&discordgo.MessageEmbedField{Name: "Discount", Value: discountValue(t)},
		&discordgo.MessageEmbedField{Name: "Total Due", Value: "✅ " + money(t.Total)},
		&discordgo.MessageEmbedField{Name: "Accepted Payments", Value: methods},
	)
	return &discordgo.MessageEmbed{Title: "💳 Checkout", Color: colorGreen, Fields: fields}
}

// TicketEmbed renders the stored ticket record for staff.
func TicketEmbed(t common.Ticket) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Ticket #%d", t.Number),
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Buyer", Value: fmt.Sprintf("%s (%s)", userMention(t.BuyerID), t.BuyerID)},
			{Name: "Status", Value: string(t.Status)},
			{Name: "Delivered", Value: strconv.FormatBool(t.Delivered)},
			{Name: "Discount", Value: strconv.Itoa(t.Discount)},
		},
	}
}

// WelcomeMessage is posted into a new ticket channel. Staff roles are
// pinged through the content; thumbnail may be empty.
func WelcomeMessage(buyer common.ID, t common.Ticket, staffRoles []common.ID, thumbnail string) *discordgo.MessageSend {
	mentions := make([]string, 0, len(staffRoles))
	roles := make([]string, 0, len(staffRoles))
	for _, r := range staffRoles {
		mentions = append(mentions, roleMention(r))
		roles = append(roles, r.String())
	}
	e := &discordgo.MessageEmbed{
		Title: "🛒 Purchase Ticket Created",
		Description: fmt.Sprintf("Buyer: %s\nTicket Number: **%d**\n\nA staff member will assist you shortly.",
			userMention(buyer), t.Number),
		Color: colorGreen,
	}
	if thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}
	return &discordgo.MessageSend{
		Content: strings.Join(mentions, " "),
		Embeds:  []*discordgo.MessageEmbed{e},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Roles: roles,
			Users: []string{buyer.String()},
		},
	}
}
