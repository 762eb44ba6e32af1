package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/printloft/storefront/pkg/cart"
	"github.com/printloft/storefront/pkg/checkout"
	"github.com/printloft/storefront/pkg/config"
	"github.com/printloft/storefront/pkg/events"
	"github.com/printloft/storefront/pkg/log"
	"github.com/printloft/storefront/pkg/mail"
	"github.com/printloft/storefront/pkg/metrics"
	"github.com/printloft/storefront/pkg/notify"
	"github.com/printloft/storefront/pkg/remote"
	"github.com/printloft/storefront/pkg/session"
	"github.com/printloft/storefront/pkg/storage"
)

// Engine is a fully wired storefront: device store, remote backend, session,
// cart store, checkout coordinator and notification channel.
type Engine struct {
	Config   *config.Config
	Broker   *events.Broker
	Notifier *notify.Channel
	Local    *storage.BoltStore
	Remote   remote.Store
	Session  *session.Session
	Cart     *cart.Store
	Handler  *session.Handler
	Checkout *checkout.Coordinator

	closers []func() error
}

// New opens every backend named by cfg and wires the components together.
// Call Start before use and Close when done.
func New(ctx context.Context, cfg *config.Config) (*Engine, error) {
	e := &Engine{Config: cfg}

	e.Broker = events.NewBroker()
	e.Broker.Start()
	e.closers = append(e.closers, func() error {
		e.Broker.Stop()
		return nil
	})

	local, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	e.Local = local
	e.closers = append(e.closers, local.Close)
	metrics.RegisterComponent(metrics.ComponentLocalStore, true, local.Path())

	rb, closeRemote, err := OpenRemote(ctx, cfg.Remote, local)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.Remote = rb
	if closeRemote != nil {
		e.closers = append(e.closers, closeRemote)
	}
	metrics.RegisterComponent(metrics.ComponentRemoteBackend, true, cfg.Remote.Kind)
	if cfg.Remote.Kind == config.RemoteMemory {
		log.Warn("Signed-in carts are held in memory and lost on exit")
	}

	e.Notifier = notify.New(
		notify.WithTimeout(cfg.Notifications.Timeout),
		notify.WithPublisher(e.Broker),
	)
	e.closers = append(e.closers, func() error {
		e.Notifier.Close()
		return nil
	})

	e.Session = session.New(session.WithStore(local))
	e.Cart = cart.New(local, e.Notifier, cart.WithPublisher(e.Broker))
	e.Handler = session.NewHandler(e.Session, e.Cart, local, rb,
		session.WithNotifier(e.Notifier),
		session.WithPublisher(e.Broker),
	)

	opts := []checkout.Option{
		checkout.WithOrderRecorder(rb),
		checkout.WithPublisher(e.Broker),
	}
	if cfg.Mail.Enabled() {
		sender := mail.NewSendGridClient(cfg.Mail.APIKey)
		opts = append(opts, checkout.WithMailer(mail.NewOrderMailer(sender, cfg.Mail.From, cfg.Mail.FromName)))
	} else {
		log.Debug("Order confirmation mail disabled")
	}
	e.Checkout = checkout.New(e.Cart, e.Session, e.Notifier, opts...)

	return e, nil
}

// Start restores the persisted identity and loads the matching cart
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Session.Restore(); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if err := e.Handler.Attach(ctx); err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	e.closers = append(e.closers, func() error {
		e.Handler.Detach()
		return nil
	})

	logger := log.WithComponent("engine")
	logger.Info().
		Str("mode", string(e.Cart.Mode())).
		Str("remote", e.Config.Remote.Kind).
		Int("lines", e.Cart.Len()).
		Msg("Storefront engine started")
	return nil
}

// Close releases everything in reverse order of acquisition
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// OpenRemote creates the remote backend named by cfg. The bolt kind keeps its
// buckets in local's database. The returned close function is nil when there
// is nothing to release.
func OpenRemote(ctx context.Context, cfg config.RemoteConfig, local *storage.BoltStore) (remote.Store, func() error, error) {
	switch cfg.Kind {
	case config.RemoteBolt:
		if local == nil {
			return nil, nil, errors.New("bolt remote requires the local store")
		}
		b, err := remote.NewBoltBackend(local.DB())
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil

	case config.RemoteMemory:
		return remote.NewMemoryBackend(), nil, nil

	case config.RemotePostgres:
		pg, err := remote.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
		}
		return pg, pg.Close, nil

	case config.RemoteFirestore:
		fs, err := remote.OpenFirestore(ctx, cfg.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Collection != "" {
			fs.CartsCollection = cfg.Collection
		}
		if cfg.OrdersCollection != "" {
			fs.OrderCollection = cfg.OrdersCollection
		}
		return fs, fs.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown remote kind %q", cfg.Kind)
	}
}
