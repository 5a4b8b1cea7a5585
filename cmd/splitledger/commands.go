package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/httpapi"
)

type ServeCmd struct {
	Addr string `help:"Listen address." env:"ADDR" default:":8080"`
}

func (cmd *ServeCmd) Run(cfg *config.Config) error {
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	server := &http.Server{
		Addr:         cmd.Addr,
		Handler:      httpapi.NewRouter(httpapi.NewHandler(a.ledger, a.reporter), jwtManager, a.registry),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cmd.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

type RecomputeCmd struct {
	User string `help:"User whose rows to rebuild." required:""`
}

func (cmd *RecomputeCmd) Run(ctx *kong.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ledger.Recompute(context.Background(), cmd.User); err != nil {
		return err
	}
	return printBalances(ctx, a, cmd.User)
}

type RebuildCmd struct {
	User string `help:"User whose pairs to replay." required:""`
}

func (cmd *RebuildCmd) Run(ctx *kong.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ledger.Rebuild(context.Background(), cmd.User); err != nil {
		return err
	}
	return printBalances(ctx, a, cmd.User)
}

type BalancesCmd struct {
	User string `help:"User to report on." required:""`
}

func (cmd *BalancesCmd) Run(ctx *kong.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return printBalances(ctx, a, cmd.User)
}

type DebtsCmd struct {
	User string `help:"User to report on." required:""`
}

func (cmd *DebtsCmd) Run(ctx *kong.Context, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	debts, err := a.reporter.SimplifiedDebts(context.Background(), cmd.User)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(ctx.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FROM\tTO\tAMOUNT")
	for _, d := range debts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.FromUserID, d.ToUserID, d.Amount.StringFixed(2))
	}
	return w.Flush()
}

type TokenCmd struct {
	User string `help:"User the token identifies." required:""`
}

func (cmd *TokenCmd) Run(ctx *kong.Context, cfg *config.Config) error {
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}
	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL).Generate(cmd.User)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.Stdout, token)
	return err
}

func printBalances(ctx *kong.Context, a *app, userID string) error {
	summary, err := a.reporter.Report(context.Background(), userID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(ctx.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COUNTERPARTY\tOWED TO ME\tI OWE\tNET")
	for _, b := range summary.Balances {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.CounterpartyID, b.Owed.StringFixed(2), b.Owes.StringFixed(2), b.Net.StringFixed(2))
	}
	fmt.Fprintf(w, "TOTAL\t%s\t%s\t%s\n",
		summary.Summary.TotalOwedToMe.StringFixed(2),
		summary.Summary.TotalIOwe.StringFixed(2),
		summary.Summary.Net.StringFixed(2),
	)
	return w.Flush()
}
