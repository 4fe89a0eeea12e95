// Command paydash runs the payments dashboard client against a blockchain payments backend.
//
// Usage:
//
//	paydash [flags] serve       web dashboard with auto-refresh (default)
//	paydash [flags] show        print wallets, transactions, rates and vaults
//	paydash [flags] export      write the transaction history to CSV
//	paydash [flags] send        interactive transfer form
//	paydash [flags] register    interactive wallet registration
//	paydash [flags] vault       interactive family vault creation
//	paydash [flags] setup       write config.gen.yaml interactively
//
// The backend base URL comes from --api, PAYDASH_API_BASE (also read from .env)
// or the api_base key of the --config yaml file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/paydash/config"
	"github.com/vadiminshakov/paydash/internal/clients"
	"github.com/vadiminshakov/paydash/internal/dashboard"
	"github.com/vadiminshakov/paydash/internal/setup"
	"github.com/vadiminshakov/paydash/internal/storage/preferences"
	"github.com/vadiminshakov/paydash/internal/view"
	"github.com/vadiminshakov/paydash/internal/web"
)

const generatedConfig = "config.gen.yaml"

func main() {
	cfg, err := config.Get()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	if cfg.Debug {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	if cfg.Command == "setup" {
		if err := setup.RunConfigWizard(generatedConfig); err != nil {
			logger.Fatal("setup failed", zap.Error(err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("command failed", zap.String("command", cfg.Command), zap.Error(err))
		stop()
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	prefs, err := preferences.NewWALStore(cfg.PreferencesDir)
	if err != nil {
		return errors.Wrap(err, "failed to open preferences")
	}
	defer prefs.Close()

	backend := clients.NewBackendClient(cfg.APIBase, cfg.HTTPTimeout, logger)
	d := dashboard.New(backend, logger, dashboard.Options{
		RefreshInterval: cfg.RefreshInterval,
		NotificationTTL: cfg.NotificationTTL,
		ExportDir:       cfg.ExportDir,
		Preferences:     prefs,
	})

	switch cfg.Command {
	case "serve":
		return serve(ctx, cfg, d, logger)
	case "show":
		if err := d.Load(ctx); err != nil {
			return err
		}
		show(d)
		return nil
	case "export":
		if err := d.Load(ctx); err != nil {
			return err
		}
		path, err := d.ExportFile()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "send":
		return interactive(ctx, d, setup.RunTransfer)
	case "register":
		return interactive(ctx, d, setup.RunRegistration)
	case "vault":
		return interactive(ctx, d, setup.RunVault)
	default:
		return errors.Errorf("unknown command %q", cfg.Command)
	}
}

func serve(ctx context.Context, cfg config.Config, d *dashboard.Dashboard, logger *zap.Logger) error {
	d.Start(ctx)
	defer d.Stop()

	logger.Info("dashboard started",
		zap.String("api", cfg.APIBase),
		zap.String("addr", cfg.ListenAddr),
		zap.Duration("refresh", cfg.RefreshInterval))

	return web.NewServer(cfg.ListenAddr, d, logger).Start(ctx)
}

func show(d *dashboard.Dashboard) {
	s := d.Snapshot()

	fmt.Println("Wallets")
	view.WriteUsersTable(os.Stdout, s.Users)
	fmt.Println("\nTransactions")
	view.WriteTransactionsTable(os.Stdout, s.Transactions)
	fmt.Println("\nExchange rates")
	view.WriteRatesTable(os.Stdout, s.Rates)
	fmt.Println("\nFamily vaults")
	view.WriteVaultsTable(os.Stdout, s.Vaults)
}

func interactive(ctx context.Context, d *dashboard.Dashboard, form func(context.Context, setup.Dashboard) error) error {
	if err := d.Load(ctx); err != nil {
		return err
	}
	return form(ctx, d)
}
