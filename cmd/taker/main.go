package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"go-taker/internal/app"
	"go-taker/internal/config"
	"go-taker/internal/identity"
	"go-taker/internal/keys"
	"go-taker/internal/logger"
	"go-taker/internal/order"
	"go-taker/internal/relay"
	"go-taker/internal/submit"
	"go-taker/internal/take"
	"go-taker/internal/ui"
	"go-taker/internal/wrap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", config.DefaultPath(), "yaml settings path")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer logg.Sync()

	if err := run(cfg, configPath, logg); err != nil {
		logg.Errorw("taker exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, configPath string, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := identity.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	phrase, created, err := store.EnsureSeedPhrase()
	if err != nil {
		return err
	}
	if created {
		logg.Infow("new identity created", "db", cfg.DBPath())
	}
	idKeys, err := keys.FromSeedPhrase(phrase, 0)
	if err != nil {
		return err
	}
	tradeIndex, err := store.NextTradeIndex()
	if err != nil {
		return err
	}
	tradeKeys, err := keys.FromSeedPhrase(phrase, uint32(tradeIndex))
	if err != nil {
		return err
	}
	operator, err := keys.ParsePublicKey(cfg.OperatorPubKey)
	if err != nil {
		return fmt.Errorf("operator key: %w", err)
	}
	logg.Infow("identity ready",
		"pubkey", idKeys.PublicHex(),
		"trade_index", tradeIndex,
	)

	pool, err := relay.Connect(ctx, cfg.Relays, logg)
	if err != nil {
		return err
	}
	defer pool.Close()

	orders, err := pool.Subscribe("orders", relay.Filter{
		Authors: []string{cfg.OperatorPubKey},
		Kinds:   []int{relay.KindOrderBoard},
		Since:   time.Now().Add(-cfg.LookbackWindow).Unix(),
		Limit:   cfg.SubscriptionLimit,
		Tags:    map[string][]string{"z": {"order"}},
	})
	if err != nil {
		return err
	}
	dms, err := pool.Subscribe("dms", relay.Filter{
		Kinds: []int{relay.KindGiftWrap},
		Tags:  map[string][]string{"p": {tradeKeys.PublicHex()}},
	})
	if err != nil {
		return err
	}

	notices := make(chan struct{}, 1)
	err = config.Watch(ctx, configPath, func() {
		select {
		case notices <- struct{}{}:
		default:
		}
	}, func(err error) {
		logg.Warnw("settings watch error", "err", err)
	})
	if err != nil {
		logg.Warnw("settings watch unavailable", "err", err)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	a := app.New(cfg, logg, app.Deps{
		Book:      order.NewBook(),
		Session:   take.NewSession(tradeIndex),
		Orders:    orders,
		Messages:  dms,
		Submitter: submit.New(pool, operator, logg),
		TradeKeys: func(index int64) (*keys.Keys, error) {
			return keys.FromSeedPhrase(phrase, uint32(index))
		},
		Advance: store.Advance,
		Unwrap: func(ev relay.Event) (string, error) {
			return wrap.Unwrap(ev, tradeKeys.Private())
		},
		Notices:  notices,
		Renderer: ui.NewRenderer(os.Stdout),
	})
	return a.Run(ctx, ui.ReadKeys(ctx, os.Stdin))
}
