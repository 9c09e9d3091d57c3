package usecase

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/internal/infrastructure/metrics"
	"hitrank/pkg/errors"
	"hitrank/pkg/logger"
)

const (
	outcomeOK         = "ok"
	outcomeRejected   = "rejected"
	outcomeContention = "contention"
	outcomeError      = "error"
)

// TxRunner runs every multi-document read-modify-write of the engine. A
// transaction that loses an optimistic conflict is rerun from its first read
// up to maxAttempts times, then surfaced as a Contention error. Any other
// error aborts immediately.
type TxRunner struct {
	store       repository.Store
	maxAttempts int
	backoff     time.Duration
}

func NewTxRunner(store repository.Store, maxAttempts int, backoff time.Duration) *TxRunner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TxRunner{
		store:       store,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

func (r *TxRunner) Store() repository.Store {
	return r.store
}

// Run executes fn in a store transaction. fn must not keep state across
// attempts other than through its return value and the values it overwrites.
func (r *TxRunner) Run(ctx context.Context, operation string, fn func(ctx context.Context, tx repository.Tx) error) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		metrics.Metrics.TxAttempts.WithLabelValues(operation).Inc()

		err = r.store.RunTransaction(ctx, fn)
		if err == nil {
			recordOutcome(operation, nil)
			return nil
		}
		if !stderrors.Is(err, repository.ErrConflict) {
			recordOutcome(operation, err)
			return err
		}

		metrics.Metrics.TxConflicts.WithLabelValues(operation).Inc()
		logger.LogTransactionError(operation, attempt, err)

		if attempt < r.maxAttempts {
			if waitErr := r.wait(ctx, attempt); waitErr != nil {
				return waitErr
			}
		}
	}

	metrics.Metrics.TxContention.WithLabelValues(operation).Inc()
	contention := errors.Contention(operation, err)
	recordOutcome(operation, contention)
	return contention
}

func (r *TxRunner) wait(ctx context.Context, attempt int) error {
	if r.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(r.backoff * time.Duration(attempt))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recordOutcome(operation string, err error) {
	outcome := outcomeOK
	switch {
	case err == nil:
	case errors.IsContention(err):
		outcome = outcomeContention
	case errors.IsInvalidOperation(err), errors.IsNotFound(err):
		outcome = outcomeRejected
	default:
		outcome = outcomeError
	}
	metrics.Metrics.Operations.WithLabelValues(operation, outcome).Inc()
}

func newNotification(userID, kind, pinID, challengeID string, now time.Time) *entity.Notification {
	return &entity.Notification{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        kind,
		PinID:       pinID,
		ChallengeID: challengeID,
		CreatedAt:   now,
	}
}

func dispatch(notifier Notifier, notifications []*entity.Notification) {
	for _, n := range notifications {
		notifier.Notify(n)
	}
}

func invalidate(ctx context.Context, cache PinViewCache, pinID string) {
	if err := cache.Invalidate(ctx, pinID); err != nil {
		logger.Warn("Failed to invalidate pin %s view: %v", pinID, err)
	}
}
