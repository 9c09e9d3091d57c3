package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hitrank/internal/domain/entity"
)

func TestChallengeSweeper_FinalizesExpiredOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	env.user(t, "rider")
	env.user(t, "queen")

	expiredPin := env.pin(t, "king")
	expired := env.votingChallenge(t, expiredPin.ID, "rider")
	castVotes(t, env, expiredPin.ID, expired.ID, 1, 2)

	env.challenges.now = func() time.Time { return testNow.Add(20 * time.Hour) }
	freshPin := env.pin(t, "queen")
	fresh := env.votingChallenge(t, freshPin.ID, "rider")

	sweeper := NewChallengeSweeper(env.challenges, env.store, time.Minute, 10)
	sweeper.now = func() time.Time { return testNow.Add(25 * time.Hour) }

	n, err := sweeper.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := env.challenges.GetChallenge(ctx, expiredPin.ID, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChallengeSuccessful, got.Status)
	assert.Equal(t, SweeperActor, got.ResolvedBy)
	assert.Equal(t, "rider", env.getPin(t, expiredPin.ID).OwnerID)

	got, err = env.challenges.GetChallenge(ctx, freshPin.ID, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChallengeVoting, got.Status)

	n, err = sweeper.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChallengeSweeper_StartStopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewChallengeSweeper(env.challenges, env.store, 5*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	sweeper.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
}
