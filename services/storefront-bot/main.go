// Storefront bot entrypoint: discord gateway, admin HTTP and metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gogogo1024/storefront-bot/internal/admin"
	"github.com/gogogo1024/storefront-bot/internal/botconf"
	"github.com/gogogo1024/storefront-bot/internal/common"
	"github.com/gogogo1024/storefront-bot/internal/discord"
	"github.com/gogogo1024/storefront-bot/internal/docstore"
	"github.com/gogogo1024/storefront-bot/internal/events"
	"github.com/gogogo1024/storefront-bot/internal/shop"
	"github.com/gogogo1024/storefront-bot/internal/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := botconf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	if err := botconf.InitLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = common.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		common.L().Error("storefront bot stopped", zap.Error(err))
		os.Exit(1)
	}
}

// run starts every component and blocks until ctx is done.
func run(ctx context.Context, cfg *botconf.Config) error {
	log := common.L()
	hooks := botconf.InitRuntime(ctx, cfg)
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hooks.Shutdown(c)
	}()

	backend, closeBackend, err := buildBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeBackend()
	repos := store.New(docstore.New(backend), cfg.Store.SettingsFile)

	publisher, err := buildPublisher(cfg.Events)
	if err != nil {
		return err
	}

	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		return err
	}
	gw := discord.NewGateway(session, cfg.Discord.PlaceholderImage)
	svc := shop.New(repos, shopConfig(cfg.Discord), shop.Deps{
		Channels: gw,
		Showcase: gw,
		Media:    gw,
		Events:   publisher,
		Logger:   log.Named("shop"),
	})
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn("event publisher close failed", zap.Error(err))
		}
	}()

	cmds := discord.Commands(discord.NewHandlers(svc))
	router := discord.NewRouter(session, cmds, cfg.Discord.CommandTimeout, log.Named("discord"))
	bot := discord.NewBot(session, router, cmds, cfg.Discord.AppID, cfg.Discord.GuildID, log)
	if err := bot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			log.Warn("discord close failed", zap.Error(err))
		}
	}()

	if addr := cfg.Admin.Address; addr != "" {
		h := admin.BuildServer(addr, admin.Deps{Shop: svc, Backend: backend, BackendName: cfg.Store.Backend})
		go func() {
			if err := h.Run(); err != nil {
				log.Error("admin server error", zap.Error(err))
			}
		}()
		log.Info("admin server listening", zap.String("addr", addr))
		defer func() {
			c, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = h.Shutdown(c)
		}()
	}

	log.Info("storefront bot running", zap.String("env", cfg.Env), zap.String("config", cfg.RawPath))
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func buildBackend(ctx context.Context, cfg botconf.StoreConfig) (docstore.Backend, func(), error) {
	switch cfg.Backend {
	case "", "file":
		root, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		b := docstore.NewFileBackend(root)
		if err := b.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("data dir %s: %w", root, err)
		}
		return b, func() {}, nil
	case "redis":
		b, err := docstore.NewRedisBackend(ctx, docstore.RedisConfig{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	}
	return nil, nil, errors.New("unknown store backend " + cfg.Backend)
}

// buildPublisher picks the event sink. The shop service owns it and closes
// it on shutdown.
func buildPublisher(cfg botconf.EventsConfig) (events.Publisher, error) {
	if !cfg.KafkaEnabled() {
		return events.Noop{}, nil
	}
	p, err := events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.Brokers, Topic: cfg.Topic})
	if err != nil {
		return nil, err
	}
	common.L().Info("publishing events to kafka", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return p, nil
}

func shopConfig(d botconf.DiscordConfig) shop.Config {
	cfg := shop.Config{OwnerID: common.ID(d.OwnerID), PlaceholderImage: d.PlaceholderImage}
	for _, g := range d.AllowedGuilds {
		cfg.AllowedGuilds = append(cfg.AllowedGuilds, common.ID(g))
	}
	return cfg
}
