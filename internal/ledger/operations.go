package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/NgigiN/walletsync/internal/expense"
	"go.uber.org/zap"
)

// Result summarises one reconcile pass.
type Result struct {
	// Pushed and Failed count pending records offered to the remote service.
	Pushed int
	Failed int
	// Pulled is the size of the collection after the refresh.
	Pulled int
	// Dropped counts pending records that failed to push and are gone from
	// the local view after the refresh.
	Dropped int
}

// Create records a new expense locally and, when online, pushes it to the
// remote service. Only validation errors are returned; remote failures leave
// the expense pending.
func (e *Engine) Create(ctx context.Context, draft expense.Draft) (expense.Record, error) {
	if err := draft.Validate(); err != nil {
		return expense.Record{}, err
	}

	var created expense.Record
	err := e.submit(ctx, func(ctx context.Context) {
		created = e.create(ctx, draft)
	})
	if err != nil {
		return expense.Record{}, err
	}
	return created, nil
}

func (e *Engine) create(ctx context.Context, draft expense.Draft) expense.Record {
	rec := draft.Record(e.newID(), e.now())
	e.records = slices.Insert(e.records, 0, rec)
	e.commit(ctx, EventCreated)

	log := e.logger.With(zap.String("local_id", rec.LocalID))
	log.Info("expense created", zap.Float64("amount", rec.Amount), zap.String("category", rec.Category))

	if !e.Online() {
		return rec
	}

	confirmed, err := e.remote.Create(ctx, rec)
	if err != nil {
		log.Warn("failed to push expense, keeping it pending", zap.Error(err))
		return rec
	}

	if _, err := e.refresh(ctx); err != nil {
		// Without a refresh, keep the server's copy in place of the optimistic
		// one so the next reconcile does not push it again.
		log.Warn("failed to refresh after push", zap.String("remote_id", confirmed.RemoteID), zap.Error(err))
		e.confirm(ctx, []expense.Record{confirmed})
		return confirmed
	}

	if i := e.indexOf(confirmed.RemoteID); i >= 0 {
		return e.records[i]
	}
	return confirmed
}

// Delete removes the expense with the given identity. The local removal is
// final; the remote delete, issued only for expenses the server knows, is
// best effort.
func (e *Engine) Delete(ctx context.Context, identity string) error {
	var found bool
	err := e.submit(ctx, func(ctx context.Context) {
		found = e.delete(ctx, identity)
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", expense.ErrNotFound, identity)
	}
	return nil
}

func (e *Engine) delete(ctx context.Context, identity string) bool {
	i := e.indexOf(identity)
	if i < 0 {
		return false
	}
	rec := e.records[i]
	e.records = slices.Delete(e.records, i, i+1)
	e.commit(ctx, EventDeleted)

	log := e.logger.With(zap.String("identity", identity))
	log.Info("expense deleted")

	if rec.RemoteID == "" || !e.Online() {
		return true
	}
	if err := e.remote.Delete(ctx, rec.RemoteID); err != nil {
		log.Warn("failed to delete expense remotely", zap.Error(err))
	}
	return true
}

// Reconcile pushes every pending expense and then replaces the local
// collection with the remote one. The error is non-nil only when the refresh
// failed; the collection then only changes by marking the pushed expenses
// synced.
func (e *Engine) Reconcile(ctx context.Context) (Result, error) {
	var (
		res     Result
		passErr error
	)
	err := e.submit(ctx, func(ctx context.Context) {
		res, passErr = e.reconcilePass(ctx)
	})
	if err != nil {
		return Result{}, err
	}
	return res, passErr
}

func (e *Engine) reconcilePass(ctx context.Context) (Result, error) {
	var res Result
	pending := make([]expense.Record, 0)
	for _, r := range e.records {
		if r.IsPending() {
			pending = append(pending, r)
		}
	}

	e.logger.Info("reconcile started", zap.Int("pending", len(pending)))

	var unpushed, confirmed []expense.Record
	for _, r := range pending {
		if r.OccurredAt.IsZero() {
			r.OccurredAt = e.now().UTC()
		}
		c, err := e.remote.Create(ctx, r)
		if err != nil {
			e.logger.Warn("failed to push pending expense",
				zap.String("local_id", r.LocalID), zap.Error(err))
			res.Failed++
			unpushed = append(unpushed, r)
			continue
		}
		res.Pushed++
		confirmed = append(confirmed, c)
	}

	pulled, err := e.refresh(ctx)
	if err != nil {
		e.logger.Warn("reconcile refresh failed, keeping local expenses", zap.Error(err))
		e.confirm(ctx, confirmed)
		return res, err
	}
	res.Pulled = pulled

	for _, r := range unpushed {
		if e.indexOf(r.Identity()) < 0 {
			res.Dropped++
			e.logger.Warn("pending expense dropped by remote refresh",
				zap.String("local_id", r.LocalID),
				zap.Float64("amount", r.Amount),
				zap.String("description", r.Description))
		}
	}

	e.logger.Info("reconcile finished",
		zap.Int("pushed", res.Pushed), zap.Int("failed", res.Failed),
		zap.Int("pulled", res.Pulled), zap.Int("dropped", res.Dropped))
	return res, nil
}

// confirm swaps pushed records for the server's copies so a later pass does
// not push them again.
func (e *Engine) confirm(ctx context.Context, confirmed []expense.Record) {
	changed := false
	for _, c := range confirmed {
		if i := e.indexOf(c.LocalID); i >= 0 {
			e.records[i] = c
			changed = true
		}
	}
	if changed {
		e.commit(ctx, EventReconciled)
	}
}

// refresh replaces the collection with the remote list and persists it.
func (e *Engine) refresh(ctx context.Context) (int, error) {
	remote, err := e.remote.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list remote expenses: %w", err)
	}

	e.replace(canonical(remote, e.logger))
	e.commit(ctx, EventReconciled)
	return len(e.records), nil
}

// canonical keeps the first record per server identity, skips records the
// server did not identify and orders the rest most recent first.
func canonical(remote []expense.Record, logger *zap.Logger) []expense.Record {
	seen := make(map[string]struct{}, len(remote))
	out := make([]expense.Record, 0, len(remote))
	for _, r := range remote {
		if r.RemoteID == "" {
			logger.Warn("skipping remote expense without id", zap.String("description", r.Description))
			continue
		}
		if _, dup := seen[r.RemoteID]; dup {
			continue
		}
		seen[r.RemoteID] = struct{}{}
		r.LocalID = ""
		r.State = expense.Synced
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b expense.Record) int {
		return cmp.Compare(b.OccurredAt.UnixNano(), a.OccurredAt.UnixNano())
	})
	return out
}
