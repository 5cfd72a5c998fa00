// @title Pet Run Board API
// @version 1.0
// @description Runs, asignaciones por día y roster de check-in.
// @BasePath /
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pet-run-board/internal/adapters/auth/iam"
	"pet-run-board/internal/adapters/queue/rabbitmq"
	pg "pet-run-board/internal/adapters/storage/postgres"
	"pet-run-board/internal/config"
	"pet-run-board/internal/platform/logger"
	"pet-run-board/internal/platform/metrics"
	"pet-run-board/internal/platform/server"
	"pet-run-board/internal/ports/auth"
	"pet-run-board/internal/router"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "api",
		Short:         "Backend de runs y asignaciones por día",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("RUNBOARD_CONFIG"), "archivo YAML de configuración")
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el API HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer syncLogger(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			opts := router.Options{
				Logger:   log,
				Metrics:  metrics.New(),
				Location: loc,
			}

			// Sin DB_DSN: repos in-memory (modo dev).
			if cfg.Database.DSN != "" {
				db, err := pg.Open(cfg.Database.DSN)
				if err != nil {
					return fmt.Errorf("open db: %w", err)
				}
				defer db.Close()
				if migrate {
					if err := pg.Migrate(ctx, db); err != nil {
						return err
					}
				}
				opts.DB = db
			}

			if cfg.RabbitMQ.URL != "" {
				pub, err := rabbitmq.Dial(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
				if err != nil {
					// los eventos son best-effort: el API arranca igual
					log.Warn("rabbitmq unavailable, board events disabled", map[string]any{"error": err.Error()})
				} else {
					defer pub.Close()
					opts.Publisher = pub
				}
			}

			verifier, err := iamVerifier(cfg)
			if err != nil {
				return err
			}
			opts.AuthVerifier = verifier

			return server.Serve(ctx, server.Config{
				Addr:         cfg.API.Addr,
				ReadTimeout:  cfg.API.ReadTimeout,
				WriteTimeout: cfg.API.WriteTimeout,
			}, router.NewRouter(opts), log)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "aplica el schema antes de arrancar")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el schema de Postgres (idempotente)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer syncLogger(log)

			if cfg.Database.DSN == "" {
				return fmt.Errorf("DB_DSN required")
			}
			db, err := pg.Open(cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := pg.Migrate(ctx, db); err != nil {
				return err
			}
			log.Info("schema applied", nil)
			return nil
		},
	}
}

func bootstrap() (config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})
	return cfg, log, nil
}

// iamVerifier: sin IAM configurado queda nil (modo dev con X-Debug-User-ID).
func iamVerifier(cfg config.Config) (auth.AuthVerifier, error) {
	if cfg.IAM.BaseURL == "" {
		return nil, nil
	}
	client, err := iam.NewClient(iam.Config{
		BaseURL: cfg.IAM.BaseURL,
		APIKey:  cfg.IAM.APIKey,
		Timeout: cfg.IAM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("iam client: %w", err)
	}
	return iam.NewVerifier(client), nil
}

func syncLogger(log logger.Logger) {
	if z, ok := log.(*logger.ZapLogger); ok {
		_ = z.Sync()
	}
}
