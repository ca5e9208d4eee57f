package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rkirkendall/prompt-perfect/internal/config"
	"github.com/rkirkendall/prompt-perfect/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the node declaration and prompt building over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(viper.GetViper())
			if err != nil {
				return err
			}
			if !cfg.Debug {
				gin.SetMode(gin.ReleaseMode)
			}
			h := server.NewHandler(newBuilder(cfg), cfg.RequestConfig(), slog.Default())
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           h.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			errCh := make(chan error, 1)
			go func() {
				slog.Info("listening", "addr", cfg.Addr, "provider", cfg.Provider)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			slog.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
		Example: `prompt-perfect serve --addr :8188`,
	}
	cmd.Flags().String("addr", config.DefaultAddr, "Listen address")
	_ = viper.BindPFlag(config.KeyAddr, cmd.Flags().Lookup("addr"))
	return cmd
}

func init() { rootCmd.AddCommand(newServeCmd()) }
