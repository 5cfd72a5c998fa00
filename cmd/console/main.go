package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pet-run-board/internal/adapters/auth/iam"
	"pet-run-board/internal/adapters/backend"
	"pet-run-board/internal/config"
	"pet-run-board/internal/domain/console"
	"pet-run-board/internal/domain/runboard"
	"pet-run-board/internal/platform/logger"
	"pet-run-board/internal/platform/metrics"
	"pet-run-board/internal/platform/server"
	"pet-run-board/internal/ports/auth"
	"pet-run-board/internal/router"
)

const (
	janitorEvery   = time.Minute
	sessionMaxIdle = 8 * time.Hour // un turno
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "console",
		Short:         "Consola de operadores: board de runs por día",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("RUNBOARD_CONFIG"), "archivo YAML de configuración")
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el API de la consola",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := logger.New(logger.Options{
				Level:  logger.ParseLevel(cfg.Log.Level),
				Format: logger.ParseFormat(cfg.Log.Format),
				App:    cfg.App.Name + "-console",
			})
			defer syncLogger(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gw, err := backend.NewClient(backend.Config{
				BaseURL:    cfg.Backend.URL,
				APIKey:     cfg.Backend.APIKey,
				OperatorID: cfg.Backend.DebugUser,
				Timeout:    cfg.Backend.Timeout,
			})
			if err != nil {
				return fmt.Errorf("backend client: %w", err)
			}

			m := metrics.New()
			manager := console.NewManager(gw, gw, runboard.Options{
				Logger:               log,
				Metrics:              m,
				Timeout:              cfg.Backend.Timeout,
				ReseedOnEpochAdvance: cfg.Board.ReseedOnEpochAdvance,
			})
			go manager.RunJanitor(ctx, janitorEvery, sessionMaxIdle)

			verifier, err := iamVerifier(cfg)
			if err != nil {
				return err
			}

			log.Info("console configured", map[string]any{
				"backend_url":             cfg.Backend.URL,
				"reseed_on_epoch_advance": cfg.Board.ReseedOnEpochAdvance,
			})
			return server.Serve(ctx, server.Config{
				Addr:         cfg.Console.Addr,
				ReadTimeout:  cfg.Console.ReadTimeout,
				WriteTimeout: cfg.Console.WriteTimeout,
			}, router.NewConsoleRouter(router.ConsoleOptions{
				AuthVerifier: verifier,
				Manager:      manager,
				Logger:       log,
				Metrics:      m,
			}), log)
		},
	}
}

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
