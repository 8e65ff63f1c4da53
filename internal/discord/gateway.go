package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/shop"
)

// maxAttachmentBytes caps relayed uploads at Discord's default file limit.
const maxAttachmentBytes = 25 << 20

const ticketMemberPerms = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory

// restAPI is the REST surface of *discordgo.Session used for side effects.
type restAPI interface {
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelEdit(channelID string, data *discordgo.ChannelEdit, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Gateway performs the shop's platform side effects over the Discord REST
// API. It implements shop.Channels, shop.Showcase and shop.Media.
type Gateway struct {
	api       restAPI
	http      *http.Client
	thumbnail string
}

var (
	_ shop.Channels = (*Gateway)(nil)
	_ shop.Showcase = (*Gateway)(nil)
	_ shop.Media    = (*Gateway)(nil)
)

// NewGateway wraps a session. thumbnail decorates ticket welcome messages.
func NewGateway(s *discordgo.Session, thumbnail string) *Gateway {
	return newGateway(s, s.Client, thumbnail)
}

func newGateway(api restAPI, client *http.Client, thumbnail string) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{api: api, http: client, thumbnail: thumbnail}
}

// CreateTicketChannel creates a text channel hidden from everyone but the
// buyer and the staff roles that still exist in the guild.
func (g *Gateway) CreateTicketChannel(ctx context.Context, req shop.TicketChannel) (common.ID, error) {
	guild := req.GuildID.String()
	overwrites := []*discordgo.PermissionOverwrite{
		// the @everyone role shares the guild id
		{ID: guild, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: req.BuyerID.String(), Type: discordgo.PermissionOverwriteTypeMember, Allow: ticketMemberPerms},
	}
	if len(req.StaffRoles) > 0 {
		roles, err := g.api.GuildRoles(guild, discordgo.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("list roles: %w", err)
		}
		existing := make(map[string]bool, len(roles))
		for _, r := range roles {
			existing[r.ID] = true
		}
		for _, r := range req.StaffRoles {
			if existing[r.String()] {
				overwrites = append(overwrites, &discordgo.PermissionOverwrite{ID: r.String(), Type: discordgo.PermissionOverwriteTypeRole, Allow: ticketMemberPerms})
			}
		}
	}
	data := discordgo.GuildChannelCreateData{
		Name:                 req.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             req.CategoryID.String(),
		PermissionOverwrites: overwrites,
	}
	ch, err := g.api.GuildChannelCreateComplex(guild, data, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(req.Reason))
	if err != nil {
		return "", err
	}
	return common.ID(ch.ID), nil
}

func (g *Gateway) IsCategory(ctx context.Context, guild, channel common.ID) bool {
	ch, err := g.api.Channel(channel.String(), discordgo.WithContext(ctx))
	if err != nil || ch == nil {
		return false
	}
	return ch.Type == discordgo.ChannelTypeGuildCategory && ch.GuildID == guild.String()
}

func (g *Gateway) RenameChannel(ctx context.Context, channel common.ID, name string) error {
	_, err := g.api.ChannelEdit(channel.String(), &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return err
}

func (g *Gateway) DeleteChannel(ctx context.Context, channel common.ID) error {
	_, err := g.api.ChannelDelete(channel.String(), discordgo.WithContext(ctx))
	return err
}

func (g *Gateway) AnnounceTicket(ctx context.Context, channel, buyer common.ID, t common.Ticket, staffRoles []common.ID) error {
	_, err := g.api.ChannelMessageSendComplex(channel.String(), WelcomeMessage(buyer, t, staffRoles, g.thumbnail), discordgo.WithContext(ctx))
	return err
}

func (g *Gateway) PostProduct(ctx context.Context, channel common.ID, p common.Product) (common.ID, error) {
	msg, err := g.api.ChannelMessageSendEmbed(channel.String(), ProductEmbed(p), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return common.ID(msg.ID), nil
}

func (g *Gateway) UpdateProduct(ctx context.Context, p common.Product) error {
	_, err := g.api.ChannelMessageEditEmbed(p.ChannelID.String(), p.MessageID.String(), ProductEmbed(p), discordgo.WithContext(ctx))
	return err
}

func (g *Gateway) DeleteProductMessage(ctx context.Context, channel, message common.ID) error {
	return g.api.ChannelMessageDelete(channel.String(), message.String(), discordgo.WithContext(ctx))
}

// Store downloads the attachment and re-uploads it into channel, returning
// the URL of the stored copy.
func (g *Gateway) Store(ctx context.Context, channel common.ID, a shop.Attachment) (string, error) {
	if a.URL == "" {
		return "", errors.New("attachment has no url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download attachment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download attachment: status %d", resp.StatusCode)
	}
	msg, err := g.api.ChannelMessageSendComplex(channel.String(), &discordgo.MessageSend{
		Files: []*discordgo.File{{
			Name:        a.Filename,
			ContentType: a.ContentType,
			Reader:      io.LimitReader(resp.Body, maxAttachmentBytes),
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	if len(msg.Attachments) == 0 {
		return "", errors.New("upload returned no attachment")
	}
	return msg.Attachments[0].URL, nil
}
