package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/pharmaledger/pharmaledger/internal/adapter/inbound/http"
	"github.com/pharmaledger/pharmaledger/internal/adapter/outbound/memory"
	"github.com/pharmaledger/pharmaledger/internal/config"
	"github.com/pharmaledger/pharmaledger/internal/domain/login"
	"github.com/pharmaledger/pharmaledger/internal/domain/ratelimit"
	"github.com/pharmaledger/pharmaledger/internal/service"
)

var serveDevMode bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the PharmaLedger HTTP API.

Examples:
  # Start with config file settings
  pharmaledger serve

  # Start with demo accounts and batches
  pharmaledger serve --dev

  # Start with a specific config file
  pharmaledger --config /path/to/pharmaledger.yaml serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveDevMode, "dev", false, "Enable development mode (debug logging, demo accounts and batches)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	a, err := setup(ctx, serveDevMode)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.DevMode {
		a.logger.Warn("development mode: demo accounts are enabled, do not expose this server")
	}

	if err := serve(ctx, a); err != nil {
		return err
	}
	a.logger.Info("pharmaledger stopped")
	return nil
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, a *app) error {
	cfg := a.cfg

	if mem, ok := a.records.(*memory.RecordStore); ok {
		mem.StartCleanup(ctx)
		defer mem.Stop()
	}

	logins := service.NewLoginRegistry(func(clientID string) *login.Flow {
		return a.loginFlow(a.sessions.ForKey(httpapi.ClientSessionKey(a.sessions.Key(), clientID)))
	}, service.DefaultFlowIdleTTL)
	logins.StartCleanup(ctx)
	defer logins.Stop()

	apiOpts := []httpapi.APIOption{
		httpapi.WithStatsService(service.NewStatsService()),
		httpapi.WithAPILogger(a.logger),
	}

	var limiter *memory.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = memory.NewRateLimiterWithConfig(
			config.Duration(cfg.RateLimit.CleanupInterval, 5*time.Minute),
			config.Duration(cfg.RateLimit.MaxTTL, time.Hour),
		)
		limiter.SetLogger(a.logger)
		limiter.StartCleanup(ctx)
		defer limiter.Stop()

		apiOpts = append(apiOpts, httpapi.WithLoginRateLimit(limiter, ratelimit.Config{
			Rate:   cfg.RateLimit.LoginRate,
			Burst:  cfg.RateLimit.LoginRate,
			Period: time.Minute,
		}))
	}

	healthOpts := []httpapi.HealthOption{
		httpapi.WithRecordProbe(a.records),
		httpapi.WithRegistryProbe(a.verifier),
		httpapi.WithGauge("login_flows", logins.Len),
	}
	if limiter != nil {
		healthOpts = append(healthOpts, httpapi.WithGauge("rate_limit_keys", limiter.Size))
	}

	api := httpapi.NewAPI(logins, a.sessions, a.verificationFlow(), apiOpts...)
	server := httpapi.NewServer(api,
		httpapi.WithAddr(cfg.Server.HTTPAddr),
		httpapi.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		httpapi.WithLogger(a.logger),
		httpapi.WithHealthChecker(httpapi.NewHealthChecker(Version, healthOpts...)),
	)

	printBanner(Version, cfg.Server.HTTPAddr, cfg.DevMode, cfg.Session.Backend, cfg.Catalog.Mode)
	return server.Start(ctx)
}

func printBanner(version, httpAddr string, devMode bool, sessionBackend, catalogMode string) {
	const (
		reset  = "\033[0m"
		bold   = "\033[1m"
		cyan   = "\033[36m"
		green  = "\033[32m"
		yellow = "\033[33m"
		dim    = "\033[2m"
	)

	apiURL := fmt.Sprintf("http://%s/api", httpAddr)
	if strings.HasPrefix(httpAddr, ":") {
		apiURL = fmt.Sprintf("http://localhost%s/api", httpAddr)
	}

	modeStr := green + "production" + reset
	if devMode {
		modeStr = yellow + "development" + reset + dim + " (demo accounts)" + reset
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  %s%s PharmaLedger %s%s\n", bold, cyan, version, reset)
	fmt.Fprintf(os.Stderr, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "API:", apiURL)
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Mode:", modeStr)
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Sessions:", sessionBackend)
	fmt.Fprintf(os.Stderr, "  %-14s %s\n", "Catalog:", catalogMode)
	fmt.Fprintf(os.Stderr, "  %s─────────────────────────────────────%s\n", dim, reset)
	fmt.Fprintf(os.Stderr, "\n")
}
