package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"pet-run-board/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Serve atiende hasta que ctx se cancele y después hace shutdown ordenado.
func Serve(ctx context.Context, cfg Config, h http.Handler, log logger.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return serveListener(ctx, ln, cfg, h, log)
}

func serveListener(ctx context.Context, ln net.Listener, cfg Config, h http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": ln.Addr().String()})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server", nil)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
