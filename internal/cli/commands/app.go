package commands

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conduit-lang/compound/internal/config"
	"github.com/conduit-lang/compound/internal/jsonapi"
	"github.com/conduit-lang/compound/internal/orm/schema"
	"github.com/conduit-lang/compound/internal/orm/store"
	"github.com/conduit-lang/compound/internal/web/handler"
	"github.com/conduit-lang/compound/internal/web/middleware"
	"github.com/conduit-lang/compound/internal/web/router"
)

// app is the wired engine: routes, assembler and HTTP endpoints
type app struct {
	router    *router.Router
	assembler *jsonapi.Assembler
}

func newApp(cfg *config.Config, registry *schema.Registry, st store.Store, logger *zap.Logger) (*app, error) {
	r := router.NewRouter()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.Recovery(logger),
	)

	opts := []jsonapi.Option{jsonapi.WithLogger(logger)}
	if !cfg.Document.Cache {
		opts = append(opts, jsonapi.WithoutCache())
	}
	if cfg.Document.PathTokens {
		opts = append(opts, jsonapi.WithTemplateOptions(jsonapi.WithPathTokens()))
	}
	assembler := jsonapi.NewAssembler(registry, st, r, opts...)

	h := handler.New(registry, assembler, logger, handler.Config{
		Prefix:           cfg.Server.APIPrefix,
		Compound:         cfg.Document.Compound,
		SelfLink:         cfg.Document.SelfLink,
		AbsoluteURLs:     cfg.Document.AbsoluteURLs,
		ShowErrorDetails: cfg.Document.ShowErrorDetails,
	})
	if err := h.Register(r); err != nil {
		return nil, err
	}

	return &app{router: r, assembler: assembler}, nil
}

// backend is the opened store together with the connections behind it
type backend struct {
	store store.Store
	db    *sql.DB
	redis *redis.Client
}

// Close closes the redis client and the database
func (b *backend) Close() error {
	var firstErr error
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openBackend opens the configured database and, when configured, wraps it
// with the redis record cache
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required")
	}

	dialect, err := store.DialectForDriver(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlStore := store.NewSQLStore(db, dialect)

	b := &backend{store: sqlStore, db: db}
	if !cfg.Redis.Enabled() {
		return b, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	b.redis = client
	b.store = store.NewRedisStore(client, sqlStore, store.RedisConfig{
		TTL:    cfg.Redis.TTL,
		Prefix: cfg.Redis.Prefix,
	})
	logger.Info("redis record cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))

	return b, nil
}
