package discord

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/shop"
)

// Invocation is one slash command call, detached from the session.
type Invocation struct {
	Command string
	Scope   shop.Scope
	Options Options
	// CorrelationID tags every log line of this dispatch.
	CorrelationID string
}

// Options holds command option values by name. Snowflake options (user,
// role, channel, attachment) carry their id as a string.
type Options struct {
	values      map[string]any
	attachments map[string]*discordgo.MessageAttachment
	users       map[string]*discordgo.User
}

// NewInvocation extracts actor, location and options from a command
// interaction.
func NewInvocation(i *discordgo.Interaction) *Invocation {
	data := i.ApplicationCommandData()
	inv := &Invocation{
		Command:       data.Name,
		CorrelationID: uuid.NewString(),
		Options:       Options{values: map[string]any{}},
		Scope: shop.Scope{
			GuildID:   common.ID(i.GuildID),
			ChannelID: common.ID(i.ChannelID),
		},
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		inv.Scope.Actor = common.Actor{UserID: common.ID(i.Member.User.ID), Name: i.Member.User.Username}
		for _, r := range i.Member.Roles {
			inv.Scope.Actor.RoleIDs = append(inv.Scope.Actor.RoleIDs, common.ID(r))
		}
	case i.User != nil:
		inv.Scope.Actor = common.Actor{UserID: common.ID(i.User.ID), Name: i.User.Username}
	}
	for _, o := range data.Options {
		inv.Options.values[o.Name] = o.Value
	}
	if data.Resolved != nil {
		inv.Options.attachments = data.Resolved.Attachments
		inv.Options.users = data.Resolved.Users
	}
	return inv
}

// Set assigns an option value, mainly for tests.
func (o *Options) Set(name string, v any) {
	if o.values == nil {
		o.values = map[string]any{}
	}
	o.values[name] = v
}

func (o Options) Has(name string) bool {
	_, ok := o.values[name]
	return ok
}

// Int reads an integer option. JSON numbers arrive as float64.
func (o Options) Int(name string) (int, bool) {
	switch v := o.values[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

// Decimal reads a number option as a decimal.
func (o Options) Decimal(name string) (decimal.Decimal, bool) {
	switch v := o.values[name].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case string:
		d, err := decimal.NewFromString(v)
		return d, err == nil
	}
	return decimal.Zero, false
}

func (o Options) String(name string) string {
	switch v := o.values[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ID reads a snowflake option (user, role, channel or string id).
func (o Options) ID(name string) common.ID { return common.ID(o.String(name)) }

// Attachment resolves an attachment option.
func (o Options) Attachment(name string) *shop.Attachment {
	a, ok := o.attachments[o.String(name)]
	if !ok || a == nil {
		return nil
	}
	return &shop.Attachment{URL: a.URL, Filename: a.Filename, ContentType: a.ContentType}
}

// UserLabel is the resolved username for a user option, else a mention.
func (o Options) UserLabel(name string) string {
	id := o.String(name)
	if u, ok := o.users[id]; ok && u != nil && u.Username != "" {
		return u.Username
	}
	return userMention(common.ID(id))
}

func userMention(id common.ID) string    { return "<@" + id.String() + ">" }
func roleMention(id common.ID) string    { return "<@&" + id.String() + ">" }
func channelMention(id common.ID) string { return "<#" + id.String() + ">" }
