package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// NewSession builds a bot session subscribed to guild events only.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	return s, nil
}

// Bot owns the gateway connection and command registration.
type Bot struct {
	session *discordgo.Session
	router  *Router
	cmds    []*Command
	appID   string
	guildID string
	log     *zap.Logger
	remove  func()
}

func NewBot(s *discordgo.Session, router *Router, cmds []*Command, appID, guildID string, log *zap.Logger) *Bot {
	return &Bot{session: s, router: router, cmds: cmds, appID: appID, guildID: guildID, log: log}
}

// Start opens the gateway and overwrites the registered commands. An empty
// guild id registers them globally.
func (b *Bot) Start(ctx context.Context) error {
	b.remove = b.session.AddHandler(b.router.OnInteraction)
	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("discord ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	appID := b.appID
	if appID == "" && b.session.State != nil && b.session.State.User != nil {
		appID = b.session.State.User.ID
	}
	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, Definitions(b.cmds), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	b.log.Info("commands registered", zap.Int("count", len(registered)), zap.String("guild", b.guildID))
	return nil
}

func (b *Bot) Close() error {
	if b.remove != nil {
		b.remove()
	}
	return b.session.Close()
}
