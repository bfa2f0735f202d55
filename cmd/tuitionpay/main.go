package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sentrygo "github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibanking/tuitionpay/pkg/account"
	"github.com/ibanking/tuitionpay/pkg/app"
	"github.com/ibanking/tuitionpay/pkg/config"
	"github.com/ibanking/tuitionpay/pkg/gateway"
	"github.com/ibanking/tuitionpay/pkg/lookup"
	"github.com/ibanking/tuitionpay/pkg/payment"
	"github.com/ibanking/tuitionpay/pkg/sentry"
	"github.com/ibanking/tuitionpay/pkg/session"
	"github.com/ibanking/tuitionpay/pkg/tuition"
	"github.com/ibanking/tuitionpay/pkg/workflow"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "tuitionpay",
		Short:   "Pay tuition from an iBanking account",
		Version: Version,
		RunE:    runInteractive,
	}
	rootCmd.Flags().StringP("username", "u", "", "Account username (prompted when empty)")
	rootCmd.Flags().StringP("password", "p", "", "Account password (prompted when empty)")

	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Parse(nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "API URL:        %s\n", cfg.API.URL)
			fmt.Fprintf(out, "HTTP timeout:   %s\n", cfg.API.Timeout)
			fmt.Fprintf(out, "Payment path:   %s\n", cfg.API.PaymentPath)
			fmt.Fprintf(out, "Quiet period:   %s\n", cfg.Lookup.QuietPeriod)
			fmt.Fprintf(out, "Lookup timeout: %s\n", cfg.Lookup.Timeout)
			fmt.Fprintf(out, "Cache:          %d entries, ttl %s\n", cfg.Lookup.CacheSize, cfg.Lookup.CacheTTL)
			fmt.Fprintf(out, "Language:       %s\n", cfg.App.Language)
			fmt.Fprintf(out, "Metrics port:   %d\n", cfg.App.MetricsPort)
			fmt.Fprintf(out, "Sentry:         %v\n", cfg.App.SentryDSN != "")
			return nil
		},
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := app.Logger(cfg.App.LogLevel)

	if err := sentry.Init(cfg.App.SentryDSN); err != nil {
		log.Warn("sentry init", zap.Error(err))
	}
	defer sentry.Flush()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore()
	gw := gateway.New(cfg.API.URL, store,
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithLogger(log),
		gateway.WithReporter(sentry.Reporter(sentrygo.LevelError)),
	)
	accounts := account.NewClient(gw, store)
	resolver := tuition.NewResolver(gw,
		tuition.WithLogger(log),
		tuition.WithCache(cfg.Lookup.CacheSize, cfg.Lookup.CacheTTL),
	)
	initiator := payment.NewInitiator(gw,
		payment.WithPath(cfg.API.PaymentPath),
		payment.WithLogger(log),
	)

	sh := newShell(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.App.Language, accounts, store)
	ctl := workflow.New(store, accounts, resolver, initiator,
		workflow.WithLogger(log),
		workflow.WithLanguage(cfg.App.Language),
		workflow.WithOnChange(sh.render),
		workflow.WithBillCache(resolver),
		workflow.WithLookupOptions(
			lookup.WithQuietPeriod(cfg.Lookup.QuietPeriod),
			lookup.WithTimeout(cfg.Lookup.Timeout),
		),
	)
	defer ctl.Close()
	sh.ctl = ctl

	metrics := app.StartMetrics(cfg.App.MetricsPort, log)

	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	err := sh.run(ctx, username, password)

	if shutdownErr := app.Shutdown(log, metrics); shutdownErr != nil {
		log.Debug("shutdown", zap.Error(shutdownErr))
	}
	return err
}
