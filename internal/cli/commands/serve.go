package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/compound/internal/config"
	"github.com/conduit-lang/compound/internal/logging"
	"github.com/conduit-lang/compound/internal/web/server"
)

type serveOptions struct {
	configPath  string
	port        int
	driver      string
	databaseURL string
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve configured resources over HTTP",
		Long: `Start an HTTP server exposing every configured resource:

  GET /<type>                list all entities
  GET /<type>/<id>[,<id>]    one or several entities

Query parameters:
  fields=a,b     restrict emitted attributes and relationships
  compound       side-load linked resources`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to compound.yaml (default: ./compound.yaml)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (overrides server.port)")
	cmd.Flags().StringVar(&opts.driver, "driver", "", "Database driver: pgx, postgres or sqlite3")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", "", "Database connection URL (overrides database.url)")

	return cmd
}

func (o *serveOptions) apply(cfg *config.Config) {
	if o.port != 0 {
		cfg.Server.Port = o.port
	}
	if o.driver != "" {
		cfg.Database.Driver = o.driver
	}
	if o.databaseURL != "" {
		cfg.Database.URL = o.databaseURL
	}
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cfg)

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry, err := cfg.BuildRegistry()
	if err != nil {
		return fmt.Errorf("invalid resources: %w", err)
	}
	if registry.Count() == 0 {
		return fmt.Errorf("no resources configured")
	}

	b, err := openBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, registry, b.store, logger)
	if err != nil {
		b.Close()
		return err
	}

	srvConfig := server.DefaultConfig(a.router)
	srvConfig.Address = cfg.Server.Address()
	srvConfig.Database = &server.DatabaseConfig{
		DB:              b.db,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Hour,
	}

	srv, err := server.New(srvConfig)
	if err != nil {
		b.Close()
		return err
	}

	gs := server.NewGracefulShutdown(srv, cfg.Server.ShutdownTimeout, logger)
	gs.RegisterHook(func(ctx context.Context) error {
		return b.Close()
	})

	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)
	successColor.Fprintf(cmd.OutOrStdout(), "✓ Serving %d resources\n", registry.Count())
	infoColor.Fprintf(cmd.OutOrStdout(), "  http://%s%s\n", srvConfig.Address, cfg.Server.APIPrefix)

	logger.Info("server configured",
		zap.Strings("resources", registry.List()),
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled()))

	return gs.Start()
}
