package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/longkey1/shopadvice/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the advisor over HTTP",
	Long: `Serve the advisor over HTTP. Each visitor gets their own session, keyed by cookie.

Endpoints:
  GET  /api/transcript   current turns and busy flag
  POST /api/messages     {"message": "..."}; 409 while a reply is pending
  GET  /api/products     catalog, filtered by ?category= and ?q=
  GET  /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		adv, err := newAdvisor(ctx, cmd)
		if err != nil {
			return err
		}

		addr := adv.cfg.ListenAddr
		if cmd.Flags().Changed("listen") {
			addr = listenAddr
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           server.New(adv.newSession, adv.products, adv.log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		eg, egCtx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			adv.log.WithField("addr", addr).Info("starting advice server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server listen error: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-egCtx.Done()
			adv.log.Info("shutting down advice server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(egCtx), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown error: %w", err)
			}
			return nil
		})

		return eg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Address to listen on (default from listen_addr)")
	serveCmd.Flags().StringArray("arg", []string{}, "Key-value pairs for the prompt template (format: key:value)")
	serveCmd.Flags().StringP("model", "m", "", "Model to use (format: provider:model)")
}
