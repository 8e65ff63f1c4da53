package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/observability"
)

const defaultCommandTimeout = 10 * time.Second

// interactionAPI is the part of *discordgo.Session the router answers with.
type interactionAPI interface {
	InteractionRespond(i *discordgo.Interaction, r *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, e *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Router dispatches application command interactions to their handlers.
type Router struct {
	api     interactionAPI
	cmds    map[string]*Command
	timeout time.Duration
	log     *zap.Logger
}

func NewRouter(api interactionAPI, cmds []*Command, timeout time.Duration, log *zap.Logger) *Router {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	if log == nil {
		log = common.L()
	}
	r := &Router{api: api, cmds: make(map[string]*Command, len(cmds)), timeout: timeout, log: log}
	for _, c := range cmds {
		r.cmds[c.Name()] = c
	}
	return r
}

// OnInteraction is the discordgo event handler.
func (r *Router) OnInteraction(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic == nil || ic.Interaction == nil || ic.Type != discordgo.InteractionApplicationCommand {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("panic recovered", zap.Any("err", p), zap.String("interaction", ic.ID))
		}
	}()
	r.Dispatch(context.Background(), ic.Interaction)
}

// Dispatch runs one command interaction end to end: optional deferral,
// the handler under the command timeout, then the reply and any After hook.
func (r *Router) Dispatch(ctx context.Context, i *discordgo.Interaction) {
	inv := NewInvocation(i)
	log := r.log.With(
		zap.String("command", inv.Command),
		zap.String("correlation_id", inv.CorrelationID),
		zap.String("user", inv.Scope.Actor.UserID.String()),
		zap.String("channel", inv.Scope.ChannelID.String()),
	)
	cmd, ok := r.cmds[inv.Command]
	if !ok {
		log.Warn("unknown command")
		r.send(ctx, log, i, false, private("❌ Unknown command."))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if cmd.Deferred {
		err := r.api.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		}, discordgo.WithContext(ctx))
		if err != nil {
			log.Error("defer response failed", zap.Error(err))
			return
		}
	}

	var reply Reply
	start := time.Now()
	err := observability.Track(ctx, inv.Command, func(ctx context.Context) error {
		var err error
		reply, err = cmd.Handler(ctx, inv)
		return err
	})
	if err != nil {
		var rejected bool
		reply, rejected = rejection(cmd, err)
		if rejected {
			log.Info("command rejected", zap.String("outcome", observability.Outcome(err)), zap.Error(err))
		} else {
			log.Error("command failed", zap.Error(err))
		}
	} else {
		log.Debug("command handled", zap.Duration("latency", time.Since(start)))
	}

	r.send(ctx, log, i, cmd.Deferred, reply)
	if reply.After != nil {
		reply.After(ctx)
	}
}

func (r *Router) send(ctx context.Context, log *zap.Logger, i *discordgo.Interaction, deferred bool, reply Reply) {
	if deferred {
		content := reply.Content
		embeds := reply.Embeds
		edit := &discordgo.WebhookEdit{Content: &content}
		if len(embeds) > 0 {
			edit.Embeds = &embeds
		}
		if _, err := r.api.InteractionResponseEdit(i, edit, discordgo.WithContext(ctx)); err != nil {
			log.Error("follow-up edit failed", zap.Error(err))
		}
		return
	}
	data := &discordgo.InteractionResponseData{Content: reply.Content, Embeds: reply.Embeds}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error("response failed", zap.Error(err))
	}
}
