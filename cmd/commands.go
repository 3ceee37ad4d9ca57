package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/NgigiN/walletsync/internal/discord"
	"github.com/NgigiN/walletsync/internal/expense"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errSyncOffline = errors.New("sync needs the expenses service, run it without --offline")

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot with background sync",
		Long: `Run the Discord bot. Connectivity to the expenses service is probed
continuously; every time it comes back, pending expenses are pushed and
the local cache is refreshed from the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
			defer stop()

			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			bot, err := discord.NewBot(opts.cfg, a.ledger, opts.logger.Named("discord"))
			if err != nil {
				return fmt.Errorf("failed to initialize the discord bot: %w", err)
			}
			if err := bot.Start(); err != nil {
				return fmt.Errorf("failed to start bot: %w", err)
			}

			g, gctx := errgroup.WithContext(ctx)
			if a.prober != nil {
				g.Go(func() error {
					a.prober.Run(gctx)
					return nil
				})
			}

			fmt.Println("Bot is running...")
			<-gctx.Done()

			bot.Stop()
			fmt.Println("Bot stopped.")
			return g.Wait()
		},
	}
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <amount> <category> <description...>",
		Short: "Record an expense",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			a, err := openApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.ledger.Create(cmd.Context(), expense.Draft{
				Amount:      amount,
				Description: strings.Join(args[2:], " "),
				Category:    args[1],
			})
			if err != nil {
				return err
			}
			fmt.Printf("Tracked %s: Ksh%.2f %s in %s (%s)\n", rec.Identity(), rec.Amount, rec.Description, rec.Category, rec.State)
			return nil
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show cached expenses, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			records := a.ledger.Snapshot()
			if len(records) == 0 {
				fmt.Println("No expenses yet.")
				return nil
			}
			for _, r := range records {
				fmt.Printf("%-36s  %10.2f  %-12s  %-8s  %s  %s\n",
					r.Identity(), r.Amount, r.Category, r.State,
					r.OccurredAt.Local().Format("2006-01-02 15:04"), r.Description)
			}
			return nil
		},
	}
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an expense locally and, if synced, on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending expenses, then replace the cache with the server's list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.offline {
				return errSyncOffline
			}

			a, err := openApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.ledger.Reconcile(cmd.Context())
			fmt.Printf("Pushed: %d\nFailed: %d\n", res.Pushed, res.Failed)
			if err != nil {
				return fmt.Errorf("server list not refreshed: %w", err)
			}
			fmt.Printf("On server: %d\n", res.Pulled)
			if res.Dropped > 0 {
				fmt.Fprintf(os.Stderr, "Warning: %d pending expenses were rejected or unreachable and are no longer cached\n", res.Dropped)
			}
			return nil
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and pending expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			records := a.ledger.Snapshot()
			pending := 0
			for _, r := range records {
				if r.IsPending() {
					pending++
				}
			}
			conn := "offline"
			if a.ledger.Online() {
				conn = "online"
			}
			fmt.Printf("Service:  %s (%s)\n", opts.cfg.RemoteBaseURL, conn)
			fmt.Printf("Owner:    %s\n", opts.cfg.Owner)
			fmt.Printf("Cache:    %s\n", opts.cfg.DBPath)
			fmt.Printf("Expenses: %d (%d pending)\n", len(records), pending)
			return nil
		},
	}
}
