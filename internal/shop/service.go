// Package shop implements the storefront operations behind the slash
// commands. It owns every decision (permissions, validation, state changes,
// totals) and reaches the chat platform only through the Channels,
// Showcase and Media interfaces.
package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/events"
	"github.com/gogogo1024/storefront-bot/internal/observability"
	"github.com/gogogo1024/storefront-bot/internal/store"
)

// ErrEmptyCart rejects a checkout with nothing in the cart.
var ErrEmptyCart = fmt.Errorf("cart is empty: %w", common.ErrValidation)

// Scope is where and by whom an operation was invoked.
type Scope struct {
	Actor     common.Actor
	GuildID   common.ID
	ChannelID common.ID
}

// TicketChannel describes the private channel backing a new ticket.
type TicketChannel struct {
	GuildID    common.ID
	Name       string
	BuyerID    common.ID
	StaffRoles []common.ID
	// CategoryID is empty when the ticket goes to the guild root.
	CategoryID common.ID
	Reason     string
}

// Channels performs channel side effects on the chat platform.
type Channels interface {
	CreateTicketChannel(ctx context.Context, req TicketChannel) (common.ID, error)
	IsCategory(ctx context.Context, guild, channel common.ID) bool
	RenameChannel(ctx context.Context, channel common.ID, name string) error
	DeleteChannel(ctx context.Context, channel common.ID) error
	// AnnounceTicket posts the welcome message mentioning staff roles.
	AnnounceTicket(ctx context.Context, channel common.ID, buyer common.ID, t common.Ticket, staffRoles []common.ID) error
}

// Showcase posts and maintains product embeds.
type Showcase interface {
	PostProduct(ctx context.Context, channel common.ID, p common.Product) (common.ID, error)
	UpdateProduct(ctx context.Context, p common.Product) error
	DeleteProductMessage(ctx context.Context, channel, message common.ID) error
}

// Attachment is an uploaded file referenced by a command.
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
}

// Media relays attachments to long-lived storage and returns the stored URL.
type Media interface {
	Store(ctx context.Context, channel common.ID, a Attachment) (string, error)
}

type Config struct {
	OwnerID common.ID
	// AllowedGuilds restricts product and ticket-new commands; empty allows every guild.
	AllowedGuilds []common.ID
	// PlaceholderImage is used when an image cannot be stored or referenced.
	PlaceholderImage string
	// EventTimeout bounds each event delivery; zero uses the queue default.
	EventTimeout time.Duration
}

type Deps struct {
	Channels Channels
	Showcase Showcase
	Media    Media
	// Events receives domain events from a background queue; the service
	// closes it in Close.
	Events events.Publisher
	Logger *zap.Logger
}

type Service struct {
	repos    *store.Repos
	cfg      Config
	channels Channels
	showcase Showcase
	media    Media
	events   *events.Queue
	log      *zap.Logger
}

func New(repos *store.Repos, cfg Config, deps Deps) *Service {
	s := &Service{
		repos:    repos,
		cfg:      cfg,
		channels: deps.Channels,
		showcase: deps.Showcase,
		media:    deps.Media,
		log:      deps.Logger,
	}
	if s.log == nil {
		s.log = common.L()
	}
	next := deps.Events
	if next == nil {
		next = events.Noop{}
	}
	s.events = events.NewQueue(next, events.QueueConfig{Timeout: cfg.EventTimeout, OnError: s.publishFailed})
	return s
}

// Close drains pending events and closes the publisher.
func (s *Service) Close() error { return s.events.Close() }

// Repos exposes the repositories for read-only surfaces.
func (s *Service) Repos() *store.Repos { return s.repos }

// publish hands e to the queue; delivery failures surface in publishFailed.
func (s *Service) publish(ctx context.Context, e events.Event) {
	_ = s.events.Publish(ctx, e)
}

func (s *Service) publishFailed(e events.Event, err error) {
	if errors.Is(err, events.ErrQueueFull) {
		observability.EventsDropped.Add(1)
	} else {
		observability.EventsFailed.Add(1)
	}
	s.log.Warn("event publish failed", zap.String("type", string(e.Type)), zap.String("event_id", e.ID), zap.Error(err))
}

// sideEffect logs a failed platform call. The stored state stays authoritative.
func (s *Service) sideEffect(op string, channel common.ID, err error) {
	if err == nil {
		return
	}
	observability.SideEffectErrors.Add(1)
	s.log.Warn("platform side effect failed",
		zap.String("op", op), zap.String("channel", channel.String()), zap.Error(err))
}

func ticketEvent(t events.Type, channel common.ID, tk common.Ticket, actor common.ID) events.Event {
	e := events.New(t)
	e.ChannelID = channel.String()
	e.BuyerID = tk.BuyerID.String()
	e.ActorID = actor.String()
	e.TicketNumber = tk.Number
	return e
}

func isNotTicket(err error) bool { return errors.Is(err, common.ErrNotTicket) }
