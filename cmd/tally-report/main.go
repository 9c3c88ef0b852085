// Command tally-report prints each ledger's member balances and the minimal
// settlement plan that zeroes them out. With TALLY_REPORT_INTERVAL set it
// keeps re-running on a timer; with TALLY_METRICS_ADDR set it serves
// Prometheus metrics alongside.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"tally/internal/config"
	"tally/internal/currency"
	"tally/internal/models"
	"tally/internal/money"
	"tally/internal/service"
	"tally/internal/storage"
	"tally/internal/storage/sqlite"
	"tally/pkg/logging"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized",
		"database", cfg.SQLiteDBPath,
		"currencies", cfg.SupportedCurrencies(),
	)

	svc := service.NewLedgerService(store, currency.NewStaticRates(nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			slog.Info("Metrics server starting", "address", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	if err := runReport(ctx, store, svc, cfg.MoneyFormat); err != nil {
		slog.Error("Report failed", "error", err)
		os.Exit(1)
	}

	if cfg.ReportInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.ReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down")
			return
		case <-ticker.C:
			if err := runReport(ctx, store, svc, cfg.MoneyFormat); err != nil {
				slog.Error("Report failed", "error", err)
			}
		}
	}
}

// ledgerReport is the computed output for one ledger.
type ledgerReport struct {
	ledger    models.Ledger
	members   map[string]string
	balances  []models.Balance
	transfers []models.Transfer
}

// runReport computes balances and settlement plans for every ledger. Ledgers
// are independent, so they compute concurrently; writers serialize inside the
// service, not here.
func runReport(ctx context.Context, store storage.Store, svc *service.LedgerService, format string) error {
	ledgers, err := store.ListLedgers(ctx)
	if err != nil {
		return fmt.Errorf("list ledgers: %w", err)
	}
	if len(ledgers) == 0 {
		slog.Info("No ledgers to report on")
		return nil
	}

	reports := make([]ledgerReport, len(ledgers))
	g, gctx := errgroup.WithContext(ctx)
	for i, ledger := range ledgers {
		g.Go(func() error {
			members, err := store.ListMembers(gctx, ledger.ID)
			if err != nil {
				return fmt.Errorf("ledger %s: %w", ledger.ID, err)
			}
			names := make(map[string]string, len(members))
			for _, m := range members {
				names[m.ID] = m.Name
			}

			balances, err := svc.Balances(gctx, ledger.ID)
			if err != nil {
				return fmt.Errorf("ledger %s balances: %w", ledger.ID, err)
			}
			transfers, err := svc.SettlementPlan(gctx, ledger.ID)
			if err != nil {
				return fmt.Errorf("ledger %s settlement: %w", ledger.ID, err)
			}
			reports[i] = ledgerReport{ledger: ledger, members: names, balances: balances, transfers: transfers}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range reports {
		if err := printReport(r, format); err != nil {
			return err
		}
	}
	return nil
}

func printReport(r ledgerReport, format string) error {
	fmt.Printf("\n%s (%s)\n", r.ledger.Name, r.ledger.Currency)
	for _, b := range r.balances {
		paid, err := money.Format(b.PaidCents, format)
		if err != nil {
			return err
		}
		owed, err := money.Format(b.OwedCents, format)
		if err != nil {
			return err
		}
		net, err := money.Format(b.NetCents, format)
		if err != nil {
			return err
		}
		fmt.Printf("  %-20s paid %10s  owed %10s  net %10s\n", memberName(r.members, b.MemberID), paid, owed, net)
	}
	if len(r.transfers) == 0 {
		fmt.Println("  all settled")
		return nil
	}
	fmt.Println("  to settle:")
	for _, t := range r.transfers {
		amount, err := money.Format(t.AmountCents, format)
		if err != nil {
			return err
		}
		fmt.Printf("    %s -> %s: %s\n", memberName(r.members, t.PayerID), memberName(r.members, t.PayeeID), amount)
	}
	return nil
}

func memberName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}
