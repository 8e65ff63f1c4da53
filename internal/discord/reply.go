package discord

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/shop"
)

// Reply is what a handler answers with.
type Reply struct {
	Content   string
	Embeds    []*discordgo.MessageEmbed
	Ephemeral bool
	// After runs once the response has been sent.
	After func(ctx context.Context)
}

func private(format string) Reply { return Reply{Content: format, Ephemeral: true} }

// rejection turns a command error into the user-facing reply. ok is false
// for errors that are not a rejection (internal failures).
func rejection(cmd *Command, err error) (Reply, bool) {
	switch {
	case errors.Is(err, common.ErrNotTicket):
		return private("❌ This channel is not a stored ticket."), true
	case errors.Is(err, shop.ErrOutsideTicket):
		return private("❌ You can only use this command inside your ticket."), true
	case errors.Is(err, shop.ErrEmptyCart):
		return private("❌ Your cart is empty."), true
	case errors.Is(err, shop.ErrGuildNotAllowed):
		return private("❌ This command is not available in this server."), true
	case errors.Is(err, common.ErrPermissionDenied):
		return private("❌ You cannot use this."), true
	case errors.Is(err, common.ErrNotFound):
		if cmd != nil && cmd.NotFound != "" {
			return private(cmd.NotFound), true
		}
		return private("❌ Not found."), true
	case errors.Is(err, common.ErrValidation):
		return private("❌ " + describe(err, common.ErrValidation)), true
	case errors.Is(err, common.ErrConflict):
		return private("❌ " + describe(err, common.ErrConflict)), true
	}
	return private("⚠️ Something went wrong. Please try again later."), false
}

// describe strips the trailing sentinel text from err and formats the rest
// as a sentence.
func describe(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if r, n := utf8.DecodeRuneInString(msg); n > 0 {
		msg = string(unicode.ToUpper(r)) + msg[n:]
	}
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}
