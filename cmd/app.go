package main

import (
	"context"
	"fmt"

	"github.com/NgigiN/walletsync/internal/connectivity"
	"github.com/NgigiN/walletsync/internal/ledger"
	"github.com/NgigiN/walletsync/internal/remote"
	"github.com/NgigiN/walletsync/internal/storage"
	"go.uber.org/zap"
)

// app holds the wired components behind every command.
type app struct {
	db      *storage.Database
	client  *remote.Client
	monitor connectivity.Monitor
	prober  *connectivity.Prober
	ledger  *ledger.Engine
	logger  *zap.Logger
}

// openApp wires storage, remote client, monitor and engine. With probeNow the
// connectivity verdict is settled by one probe before the engine starts, which
// one-shot commands need; serve leaves probing to the running prober.
func openApp(ctx context.Context, opts *rootOptions, probeNow bool) (*app, error) {
	cfg, logger := opts.cfg, opts.logger

	db, err := storage.NewDatabase(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize the database: %w", err)
	}

	client, err := remote.New(cfg.RemoteBaseURL, cfg.Owner,
		remote.WithTimeout(cfg.HTTPTimeout),
		remote.WithLogger(logger.Named("remote")),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create remote client: %w", err)
	}

	a := &app{db: db, client: client, logger: logger}
	if opts.offline {
		a.monitor = connectivity.NewManual(false)
	} else {
		a.prober = connectivity.NewProber(client.Ping, cfg.ProbeInterval, logger.Named("connectivity"))
		a.monitor = a.prober
		if probeNow {
			a.prober.Check(ctx)
		}
	}

	a.ledger = ledger.New(db, client, a.monitor, ledger.WithLogger(logger.Named("ledger")))
	if err := a.ledger.Start(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to start ledger: %w", err)
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.ledger.Close(); err != nil {
		a.logger.Warn("failed to close ledger", zap.Error(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
}
