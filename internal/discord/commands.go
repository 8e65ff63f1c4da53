package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// HandlerFunc runs one command invocation.
type HandlerFunc func(ctx context.Context, inv *Invocation) (Reply, error)

// Command binds a slash command definition to its handler.
type Command struct {
	Def *discordgo.ApplicationCommand
	// Deferred commands acknowledge first and answer with a follow-up edit,
	// for handlers that call out to the platform.
	Deferred bool
	// NotFound replaces the generic not-found rejection.
	NotFound string
	Handler  HandlerFunc
}

func (c *Command) Name() string { return c.Def.Name }

func intOpt(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionInteger, Name: name, Description: desc, Required: required}
}

func strOpt(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionString, Name: name, Description: desc, Required: required}
}

func def(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: name, Description: desc, Options: opts}
}

// Commands builds the command table served by h.
func Commands(h *Handlers) []*Command {
	minQty := 1.0
	return []*Command{
		// cart
		{Def: def("cart_add", "Add a product to your cart.",
			intOpt("product_id", "Product id", true),
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionInteger, Name: "quantity", Description: "Quantity (default 1)", MinValue: &minQty}),
			NotFound: "❌ Product not found.", Handler: h.CartAdd},
		{Def: def("cart_view", "View your cart contents."), Handler: h.CartView},
		{Def: def("cart_other", "(Staff) View another user's cart.",
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User", Required: true}),
			Handler: h.CartOther},
		{Def: def("cart_remove", "Remove a product from your cart using its product ID.",
			intOpt("product_id", "Product id", true)),
			NotFound: "❌ That product is not in your cart.", Handler: h.CartRemove},
		{Def: def("cart_clear", "Clear your entire cart."), Handler: h.CartClear},
		{Def: def("cart_checkout", "Checkout: shows total and payment instructions."), Handler: h.Checkout},

		// discounts
		{Def: def("discount_set", "Set a discount amount for this ticket. (Staff Only)",
			intOpt("amount", "Flat discount amount", true)), Handler: h.DiscountSet},
		{Def: def("discount_clear", "Clear the discount applied to this ticket. (Staff Only)"), Handler: h.DiscountClear},
		{Def: def("discount_view", "View the discount applied to this ticket. (Staff Only)"), Handler: h.DiscountView},

		// staff roles
		{Def: def("staff_addrole", "Add a staff role.",
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role", Required: true}),
			Handler: h.StaffAddRole},
		{Def: def("staff_removerole", "Remove a staff role.",
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role", Required: true}),
			Handler: h.StaffRemoveRole},

		// products
		{Def: def("add", "Add a product (image attachment required).",
			strOpt("name", "Product name", true),
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionNumber, Name: "price", Description: "Price", Required: true},
			intOpt("stock", "Stock", true),
			strOpt("description", "Description", true),
			&discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionAttachment, Name: "image", Description: "Product image", Required: true}),
			Deferred: true, Handler: h.AddProduct},
		{Def: def("list", "Post embed messages for all products."), Deferred: true, Handler: h.ListProducts},
		{Def: def("editstock", "Edit product stock by product id.",
			intOpt("product_id", "Product id", true), intOpt("new_stock", "New stock", true)),
			Deferred: true, NotFound: "❌ Product ID not found.", Handler: h.EditStock},
		// message ids exceed float64 precision, so they travel as strings
		{Def: def("remove", "Remove a product by its posted message ID (does not modify carts).",
			strOpt("message_id", "Posted message id", true)),
			Deferred: true, NotFound: "❌ No product found with that message ID.", Handler: h.RemoveProduct},
		{Def: def("setpaymentmethods", "Set payment methods for a product (comma-separated).",
			intOpt("product_id", "Product id", true), strOpt("methods", "Comma-separated methods", true)),
			Deferred: true, NotFound: "❌ Product not found.", Handler: h.SetPaymentMethods},
		{Def: def("setdiscount", "Set per-product discount percent (0-100).",
			intOpt("product_id", "Product id", true), intOpt("percent", "Percent 0-100", true)),
			Deferred: true, NotFound: "❌ Product not found.", Handler: h.SetDiscount},

		// tickets
		{Def: def("ticket_new", "Create a new purchase ticket (private channel)."), Deferred: true, Handler: h.TicketNew},
		{Def: def("ticket_paid", "Mark this ticket as paid (staff only)."), Deferred: true, Handler: h.TicketPaid},
		{Def: def("ticket_delivered", "Mark this ticket as delivered (staff only)."), Deferred: true, Handler: h.TicketDelivered},
		{Def: def("ticket_setcategory", "Set the category where new tickets are created (staff only).",
			&discordgo.ApplicationCommandOption{
				Type: discordgo.ApplicationCommandOptionChannel, Name: "category", Description: "Category", Required: true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
			}),
			Deferred: true, Handler: h.TicketSetCategory},
		{Def: def("ticket_checkpayment", "(Placeholder) Check external payment status for this ticket."), Deferred: true, Handler: h.TicketCheckPayment},
		{Def: def("ticket_close", "Close and delete this ticket (staff only)."), Deferred: true, Handler: h.TicketClose},
		{Def: def("ticket_info", "Show stored info for this ticket (staff only)."), Handler: h.TicketInfo},
	}
}

// Definitions lists the definitions for bulk registration.
func Definitions(cmds []*Command) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Def)
	}
	return out
}
