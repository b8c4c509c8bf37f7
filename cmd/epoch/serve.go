package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/epoch/internal/cli"
	"github.com/nulzo/epoch/internal/server"
	"github.com/nulzo/epoch/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}

	// Resolve eagerly so a bad environment is reported at startup. The
	// server still starts; /v1/provider keeps reporting the problem.
	if p, err := a.factory.Provider(ctx); err != nil {
		a.log.Warn("LLM provider unavailable", zap.Error(err))
	} else {
		fmt.Println(cli.Banner("epoch "+version.Version,
			cli.KeyValue("provider", string(p.ID()))+"\n"+
				cli.KeyValue("model", p.Model())+"\n"+
				cli.KeyValue("listen", ":"+a.cfg.Server.Port)))
	}

	srv := server.New(a.cfg, a.log, a.service).HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	a.close(shutdownCtx)
	return err
}
