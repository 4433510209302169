package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/valeevte/OfferMonitor/internal/auth"
	"github.com/valeevte/OfferMonitor/internal/config"
	"github.com/valeevte/OfferMonitor/internal/logging"
	"github.com/valeevte/OfferMonitor/internal/products"
	"github.com/valeevte/OfferMonitor/internal/server"
)

const appName = "offermonitor"

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("offermonitor stopped with error")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config

	root := &cobra.Command{
		Use:           appName,
		Short:         "Offer synchronization and price trend service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load() // .env is optional
			cfg = config.Load()
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
		},
	}

	var (
		port     string
		interval time.Duration
	)
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the background offer sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.Port = port
			}
			if interval > 0 {
				cfg.Sync.Interval = interval
			}
			return serve(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().DurationVar(&interval, "interval", 0, "sync interval (overrides SYNC_INTERVAL_SECONDS)")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a single offer sync pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return syncOnce(cmd.Context(), cfg)
		},
	}

	var (
		username string
		ttl      time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the protected product routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.InternalToken == "" {
				return fmt.Errorf("APP_INTERNAL_TOKEN must be set")
			}
			token, err := auth.NewTokens(cfg.InternalToken).Issue(username, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&username, "username", "admin", "username embedded in the token")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	root.AddCommand(serveCmd, syncCmd, tokenCmd)
	// running the binary without a subcommand serves
	root.RunE = serveCmd.RunE
	root.Flags().AddFlagSet(serveCmd.Flags())
	return root
}

func serve(parent context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	// graceful shutdown coordination
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// no sync and no product creation is possible without a provider token
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.GinMode == "" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	svc := products.NewService(a.store, a.client, logging.Component("products"))
	router := server.NewRouter(
		products.NewHandler(svc, logging.Component("http")),
		auth.NewTokens(cfg.InternalToken),
		svc,
		server.Info{Name: appName, Version: version},
		logging.Component("http"),
	)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		// scheduler runs until ctx is cancelled
		a.scheduler.Run(ctx)
	}()

	err = server.Serve(ctx, ":"+cfg.Port, router, logging.Component("http"))
	log.Info().Msg("shutdown signal received")
	stop()

	// wait for the scheduler to finish its pass
	wg.Wait()
	log.Info().Msg("graceful shutdown complete")
	return err
}

func syncOnce(parent context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.scheduler.RunPass(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Str("pass_id", res.ID.String()).
		Int("products", res.Products).
		Int("fetched", res.Fetched).
		Int("failed", res.Failed).
		Int64("inserted", res.Inserted).
		Msg("sync pass finished")
	return nil
}
