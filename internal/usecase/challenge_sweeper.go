package usecase

import (
	"context"
	"time"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/internal/infrastructure/metrics"
	"hitrank/pkg/logger"
)

// SweeperActor is recorded as ResolvedBy on challenges finalized by the sweep.
const SweeperActor = "system:sweeper"

// ChallengeSweeper finalizes challenges whose voting window has closed. The
// window is only a deadline on data; nothing waits on it.
type ChallengeSweeper struct {
	challenges *ChallengeUseCase
	store      repository.Store
	interval   time.Duration
	batchLimit int
	now        func() time.Time
}

func NewChallengeSweeper(challenges *ChallengeUseCase, store repository.Store, interval time.Duration, batchLimit int) *ChallengeSweeper {
	if batchLimit <= 0 {
		batchLimit = 100
	}
	return &ChallengeSweeper{
		challenges: challenges,
		store:      store,
		interval:   interval,
		batchLimit: batchLimit,
		now:        time.Now,
	}
}

// SweepExpired finalizes one batch of expired challenges and returns how many
// it resolved. A failure on one challenge is logged and does not stop the batch.
func (s *ChallengeSweeper) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.store.ListChallenges(ctx, repository.ChallengeQuery{
		Status:           entity.ChallengeVoting,
		VotingEndsBefore: &now,
		Limit:            s.batchLimit,
	})
	if err != nil {
		return 0, err
	}

	finalized := 0
	for _, c := range expired {
		result, err := s.challenges.Finalize(ctx, SweeperActor, c.PinID, c.ID)
		if err != nil {
			metrics.Metrics.SweptChallenges.WithLabelValues("error").Inc()
			logger.Error("Failed to finalize challenge %s on pin %s: %v", c.ID, c.PinID, err)
			continue
		}
		if result.Outcome == OutcomeAlreadyResolved {
			metrics.Metrics.SweptChallenges.WithLabelValues("skipped").Inc()
			continue
		}
		metrics.Metrics.SweptChallenges.WithLabelValues("finalized").Inc()
		finalized++
	}
	return finalized, nil
}

// Start runs the sweep on a ticker until ctx is done.
func (s *ChallengeSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				n, err := s.SweepExpired(ctx)
				if err != nil {
					logger.Error("Challenge sweep error: %v", err)
				} else if n > 0 {
					logger.Info("Challenge sweep finalized %d challenges", n)
				}
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	logger.Info("Challenge sweeper started (checking every %s)", s.interval)
}
