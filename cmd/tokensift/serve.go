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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tokensift/tokensift/pkg/config"
	"github.com/tokensift/tokensift/pkg/logging"
	"github.com/tokensift/tokensift/pkg/rule"
	"github.com/tokensift/tokensift/pkg/serve"
	"github.com/tokensift/tokensift/pkg/types"
)

var (
	serveRulesDir string
	serveBuiltin  bool
	serveAddr     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scan API server",
	Long: `Run a long-lived HTTP server that classifies tokens on request.

The server loads the rule collection once at startup and, when watching is
enabled, rebuilds it whenever the rules directory changes. A rebuild that
yields no usable rules keeps the previous collection, so the server never
downgrades to answering nothing.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveRulesDir, "rules", "d", "", "Directory of .yml/.yaml rule files (overrides config)")
	serveCmd.Flags().BoolVar(&serveBuiltin, "builtin", false, "Serve the embedded builtin rules (disables watching)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	loaderOpts := []rule.LoaderOption{
		rule.WithMaxRulesPerFile(cfg.MaxRulesPerFile),
		rule.WithMatchTimeout(cfg.MatchTimeout),
	}

	var (
		coll     *types.RuleCollection
		rulesDir string
	)
	if serveBuiltin {
		coll, err = rule.BuildBuiltinCollection(loaderOpts...)
	} else {
		rulesDir = cfg.RulesDir
		if serveRulesDir != "" {
			rulesDir = serveRulesDir
		}
		coll, err = rule.BuildCollection(rulesDir, loaderOpts...)
	}
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	server, err := serve.New(cfg, coll, rulesDir, log, loaderOpts...)
	if err != nil {
		return err
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		<-serverErrors
	}
	return nil
}
