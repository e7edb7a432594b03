// Package app wires the stores, the API gateway and the dashboards into
// one context object handed to every command.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"agromart/cart"
	"agromart/checkout"
	"agromart/config"
	"agromart/dashboard"
	"agromart/db"
	"agromart/gateway"
	"agromart/pay"
	"agromart/rdx"
	"agromart/session"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// storeTTL is how long an untouched session or cart survives in Redis.
const storeTTL = 30 * 24 * time.Hour

type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     db.Store
	API       *gateway.Client
	Session   *session.Store
	Cart      *cart.Cart
	Dashboard *dashboard.Dashboard

	unsubscribe func()
}

// OpenStore opens the durable store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (db.Store, error) {
	switch cfg.Driver {
	case "file":
		s, err := db.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s, err := rdx.NewStore(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, "agromart", storeTTL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongo":
		s, err := db.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return db.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// New opens the configured store and builds the App on it.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	a, err := NewWithStore(ctx, cfg, store, logger)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return a, nil
}

// NewWithStore builds the App on an already opened store. The persisted
// session and its cart are restored before it returns.
func NewWithStore(ctx context.Context, cfg *config.Config, store db.Store, logger zerolog.Logger) (*App, error) {
	var sess *session.Store
	api := gateway.New(gateway.Options{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		RatePerSecond:   cfg.API.RatePerSecond,
		Burst:           cfg.API.Burst,
		BreakerFailures: cfg.API.BreakerFailures,
		BreakerCooldown: cfg.API.BreakerCooldown,
		Token: func() string {
			if sess == nil {
				return ""
			}
			return sess.Token()
		},
		OnUnauthorized: func() {
			if sess != nil {
				sess.Expire()
			}
		},
		Logger: logger.With().Str("component", "gateway").Logger(),
	})

	sess, err := session.Open(ctx, store, api, session.Options{
		Secret: cfg.Session.Secret,
		Logger: logger.With().Str("component", "session").Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	c := cart.New(store, logger.With().Str("component", "cart").Logger())
	if snap := sess.Current(); snap.LoggedIn() {
		if err := c.Bind(ctx, snap.User.ID); err != nil {
			return nil, fmt.Errorf("restore cart: %w", err)
		}
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		API:       api,
		Session:   sess,
		Cart:      c,
		Dashboard: dashboard.New(api, sess, logger.With().Str("component", "dashboard").Logger()),
	}
	a.unsubscribe = sess.Subscribe(a.followSession)
	return a, nil
}

// followSession binds the cart to whoever is signed in and drops it on
// logout or expiry.
func (a *App) followSession(snap session.Snapshot) {
	ctx := context.Background()
	if !snap.LoggedIn() {
		a.Cart.Unbind(ctx)
		return
	}
	if err := a.Cart.Bind(ctx, snap.User.ID); err != nil {
		a.Logger.Warn().Err(err).Msg("load cart")
	}
}

// CheckoutOptions carries the configured pricing and the signed-in buyer.
func (a *App) CheckoutOptions() checkout.Options {
	surcharge, _ := a.Config.Checkout.Surcharge()
	return checkout.Options{
		Surcharge: &surcharge,
		Currency:  a.Config.Checkout.Currency,
		Merchant:  a.Config.Payment.MerchantName,
		Buyer:     a.Session.Current().User,
		Logger:    a.Logger.With().Str("component", "checkout").Logger(),
	}
}

// Widget is the payment widget for interactive use; out receives the URL
// and QR code.
func (a *App) Widget(out io.Writer) pay.Widget {
	return &pay.LoopbackWidget{
		Addr:   a.Config.Payment.CallbackAddr,
		Out:    out,
		Logger: a.Logger.With().Str("component", "pay").Logger(),
	}
}

func (a *App) Close(ctx context.Context) error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	return a.Store.Close(ctx)
}
