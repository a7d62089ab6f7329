package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/repaso/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := buildDeps(cmd, depsOptions{})
		if err != nil {
			return err
		}
		defer d.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			d.cfg.HTTP.Addr = addr
		}
		if d.cfg.Env == "prod" {
			gin.SetMode(gin.ReleaseMode)
		}
		if d.cfg.HTTP.JWTSecret == "" {
			d.log.Warn("REPASO_JWT_SECRET not set; every request acts as the local user")
		}

		srv := server.New(d.cfg.HTTP, d.svc, d.metrics, d.log)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(gctx)
		})
		g.Go(func() error {
			// Load the encoder before the first request needs it.
			if _, err := d.emb.Embed(gctx, "repaso"); err != nil {
				d.log.Error("embedder warm-up failed", "error", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides REPASO_HTTP_ADDR)")
}
