package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/openregistry/filings-api/internal/app"
)

func main() {
	cmd := &cli.Command{
		Name:  "filings-api",
		Usage: "Corporate registry filings API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: ":8080",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "db-path",
				Value: "./filings.sqlite",
				Usage: "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "bootstrap-api-key",
				Sources: cli.EnvVars("FILINGS_BOOTSTRAP_API_KEY"),
				Usage:   "Optional API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-client",
				Value:   "default",
				Sources: cli.EnvVars("FILINGS_BOOTSTRAP_CLIENT"),
				Usage:   "Client label for bootstrap API key",
			},
			&cli.StringFlag{
				Name:    "bootstrap-key-name",
				Value:   "bootstrap",
				Sources: cli.EnvVars("FILINGS_BOOTSTRAP_KEY_NAME"),
				Usage:   "Name for bootstrap API key",
			},
			&cli.StringFlag{
				Name:    "namex-url",
				Sources: cli.EnvVars("FILINGS_NAMEX_URL"),
				Usage:   "Name-request service base URL",
			},
			&cli.StringFlag{
				Name:    "object-store-url",
				Sources: cli.EnvVars("FILINGS_OBJECT_STORE_URL"),
				Usage:   "Object storage base URL for uploaded documents",
			},
			&cli.StringFlag{
				Name:    "notify-url",
				Sources: cli.EnvVars("FILINGS_NOTIFY_URL"),
				Usage:   "Notify endpoint for rendered filing emails",
			},
			&cli.StringFlag{
				Name:    "notify-secret",
				Sources: cli.EnvVars("FILINGS_NOTIFY_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for notify requests",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("FILINGS_WEBHOOK_URL"),
				Usage:   "Filing event webhook target URL",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("FILINGS_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for outbound webhook requests",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := app.Config{
				Addr:             c.String("addr"),
				DBPath:           c.String("db-path"),
				BootstrapAPIKey:  c.String("bootstrap-api-key"),
				BootstrapClient:  c.String("bootstrap-client"),
				BootstrapKeyName: c.String("bootstrap-key-name"),
				NamexURL:         c.String("namex-url"),
				ObjectStoreURL:   c.String("object-store-url"),
				NotifyURL:        c.String("notify-url"),
				NotifySecret:     c.String("notify-secret"),
				WebhookURL:       c.String("webhook-url"),
				WebhookSecret:    c.String("webhook-secret"),
			}

			server, closer, err := app.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.Printf("close resources: %v", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", cfg.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				log.Printf("received signal %s", sig)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
