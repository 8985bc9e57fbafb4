package goToken

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goToken/jwt"
	"github.com/MrEthical07/goToken/revocation"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build, which validates the config, hydrates the key ring, and starts the
// alert dispatcher.
type Builder struct {
	config    Config
	redis     *redis.Client
	alertSink AlertSink
	logger    *slog.Logger
	keyStore  jwt.KeyStore

	built bool
}

// New returns a builder seeded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis injects the shared store handle. Required.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAlertSink sets the destination for security alerts.
func (b *Builder) WithAlertSink(sink AlertSink) *Builder {
	b.alertSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithKeyStore overrides key persistence, bypassing Config.Keys.Persist.
func (b *Builder) WithKeyStore(store jwt.KeyStore) *Builder {
	b.keyStore = store
	return b
}

// Build wires and returns the engine. A builder builds exactly once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	b.built = true

	keyStore := b.keyStore
	if keyStore == nil {
		if b.config.Keys.Persist {
			keyStore = newRedisKeyStore(b.redis, b.config.Store.RedisPrefix)
		} else {
			keyStore = jwt.NewMemoryKeyStore()
		}
	}

	keyring, err := jwt.NewKeyring(keyStore, b.config.Keys.GraceWindow)
	if err != nil {
		return nil, err
	}
	if err := keyring.Hydrate(context.Background()); err != nil {
		return nil, err
	}

	manager, err := jwt.NewManager(jwt.Config{
		Issuer:   b.config.JWT.Issuer,
		Audience: b.config.JWT.Audience,
		Leeway:   b.config.JWT.Leeway,
	}, keyring)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		config:  b.config,
		logger:  logger,
		keyring: keyring,
		tokens:  manager,
		store:   revocation.NewStore(b.redis, b.config.Store.RedisPrefix, b.config.JWT.RefreshTTL),
		alerts:  newAlertDispatcher(b.config.Alert, b.alertSink),
		metrics: newMetrics(),
	}, nil
}
