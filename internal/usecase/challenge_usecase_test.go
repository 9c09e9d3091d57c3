package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/pkg/errors"
)

func castVotes(t *testing.T, env *testEnv, pinID, challengeID string, keep, dethrone int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < keep+dethrone; i++ {
		voter := fmt.Sprintf("voter-%d", i)
		env.user(t, voter)
		choice := entity.VoteKeep
		if i >= keep {
			choice = entity.VoteDethrone
		}
		_, err := env.challenges.CastVote(ctx, voter, pinID, challengeID, choice)
		require.NoError(t, err)
	}
}

func TestChallenge_DethroneScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	env.user(t, "rider")
	pin := env.pin(t, "king")

	c, err := env.challenges.Create(ctx, "rider", pin.ID, CreateChallengeInput{MediaRef: "https://youtu.be/abc"})
	require.NoError(t, err)
	assert.Equal(t, entity.ChallengePending, c.Status)
	assert.Equal(t, "gs://clips/king.mp4", c.OriginalMediaRef)
	assert.Equal(t, "king", c.OriginalOwnerID)
	assert.Nil(t, c.VotingEndsAt)
	assert.Equal(t, 1, env.getUser(t, "rider").DethroneAttemptsCount)

	c, err = env.challenges.Approve(ctx, "admin", pin.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChallengeVoting, c.Status)
	require.NotNil(t, c.VotingEndsAt)
	assert.Equal(t, testNow.Add(24*time.Hour), *c.VotingEndsAt)

	castVotes(t, env, pin.ID, c.ID, 3, 5)

	result, err := env.challenges.Finalize(ctx, "admin", pin.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.True(t, result.ChallengerWon)
	assert.Equal(t, entity.ChallengeSuccessful, result.Challenge.Status)
	assert.Equal(t, 3, result.Challenge.Upvotes)
	assert.Equal(t, 5, result.Challenge.Downvotes)

	got := env.getPin(t, pin.ID)
	assert.Equal(t, "rider", got.OwnerID)
	assert.Equal(t, "king", got.OriginalOwnerID)
	assert.Equal(t, []string{"king"}, got.OwnershipHistory)
	assert.Equal(t, []string{"https://youtu.be/abc"}, got.Media)

	assert.Equal(t, 1, env.getUser(t, "rider").DethroneSuccessCount)
	assert.Equal(t, 1, env.getUser(t, "king").DethroneLostCount)
	assert.Equal(t, []string{
		entity.NotificationDethroneApproved,
		entity.NotificationDethroneWon,
		entity.NotificationCrownLost,
	}, env.notifier.types())
}

func TestChallenge_TieKeepsIncumbent(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "king")
	env.user(t, "rider")
	pin := env.pin(t, "king")
	c := env.votingChallenge(t, pin.ID, "rider")

	castVotes(t, env, pin.ID, c.ID, 4, 4)

	result, err := env.challenges.Finalize(context.Background(), "admin", pin.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, result.ChallengerWon)
	assert.Equal(t, entity.ChallengeFailed, result.Challenge.Status)

	got := env.getPin(t, pin.ID)
	assert.Equal(t, "king", got.OwnerID)
	assert.Empty(t, got.OwnershipHistory)
	assert.Zero(t, env.getUser(t, "king").DethroneLostCount)
	assert.Contains(t, env.notifier.types(), entity.NotificationDethroneFailed)
}

func TestChallenge_FinalizeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	env.user(t, "rider")
	pin := env.pin(t, "king")
	c := env.votingChallenge(t, pin.ID, "rider")
	castVotes(t, env, pin.ID, c.ID, 0, 1)

	first, err := env.challenges.Finalize(ctx, "admin", pin.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, first.Outcome)
	commits := env.store.Commits()

	second, err := env.challenges.Finalize(ctx, "admin", pin.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyResolved, second.Outcome)
	assert.True(t, second.ChallengerWon)
	assert.Equal(t, commits, env.store.Commits())

	got := env.getPin(t, pin.ID)
	assert.Equal(t, []string{"king"}, got.OwnershipHistory)
	assert.Equal(t, 1, env.getUser(t, "rider").DethroneSuccessCount)
}

func TestChallenge_FinalizeWithMissingOwnerProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "rider")

	// A pin whose owner never created a reputation profile, as on pins
	// imported from before profiles existed.
	env.put(t, func(tx repository.Tx) error {
		return tx.PutPin(&entity.Pin{
			ID:               "legacy",
			OwnerID:          "departed",
			OriginalOwnerID:  "departed",
			ResortID:         "whistler",
			FeatureName:      "Old Gap",
			Media:            []string{"gs://clips/departed.mp4"},
			OwnershipHistory: []string{},
			TagCounts:        map[string]int{},
			TopTags:          []string{},
		})
	})
	c := env.votingChallenge(t, "legacy", "rider")
	castVotes(t, env, "legacy", c.ID, 0, 2)

	result, err := env.challenges.Finalize(ctx, "admin", "legacy", c.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.True(t, result.ChallengerWon)

	got := env.getPin(t, "legacy")
	assert.Equal(t, "rider", got.OwnerID)
	assert.Equal(t, []string{"departed"}, got.OwnershipHistory)
	assert.Equal(t, 1, env.getUser(t, "rider").DethroneSuccessCount)

	// No profile is created for the missing owner, but the crown_lost
	// notification is still recorded for them.
	_, err = env.store.GetUser(ctx, "departed")
	assert.True(t, errors.IsNotFound(err))
	notes, err := env.profiles.ListNotifications(ctx, "departed", 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationCrownLost, notes[0].Type)
}

func TestChallenge_SingleActivePerPin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	env.user(t, "rider")
	env.user(t, "other")
	pin := env.pin(t, "king")

	pending, err := env.challenges.Create(ctx, "other", pin.ID, CreateChallengeInput{MediaRef: "https://youtu.be/o"})
	require.NoError(t, err)
	env.votingChallenge(t, pin.ID, "rider")

	_, err = env.challenges.Create(ctx, "other", pin.ID, CreateChallengeInput{MediaRef: "https://youtu.be/o2"})
	assert.True(t, errors.Is(err, errors.CodeChallengeInProgress))
	assert.True(t, errors.IsInvalidOperation(err))

	_, err = env.challenges.Approve(ctx, "admin", pin.ID, pending.ID)
	assert.True(t, errors.Is(err, errors.CodeChallengeInProgress))
}

func TestChallenge_ConcurrentApprovalsOnlyOneVoting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	pin := env.pin(t, "king")

	var ids []string
	for i := 0; i < 4; i++ {
		challenger := fmt.Sprintf("rider-%d", i)
		env.user(t, challenger)
		c, err := env.challenges.Create(ctx, challenger, pin.ID, CreateChallengeInput{MediaRef: "https://youtu.be/" + challenger})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	results := make(chan error, len(ids))
	for _, id := range ids {
		go func(id string) {
			_, err := env.challenges.Approve(ctx, "admin", pin.ID, id)
			results <- err
		}(id)
	}

	approved := 0
	for range ids {
		err := <-results
		if err == nil {
			approved++
			continue
		}
		assert.True(t, errors.Is(err, errors.CodeChallengeInProgress), "got %v", err)
	}
	assert.Equal(t, 1, approved)

	voting, err := env.challenges.ListChallenges(ctx, string(entity.ChallengeVoting), 0)
	require.NoError(t, err)
	assert.Len(t, voting, 1)
}

func TestChallenge_OwnerCannotChallenge(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "king")
	pin := env.pin(t, "king")

	_, err := env.challenges.Create(context.Background(), "king", pin.ID, CreateChallengeInput{MediaRef: "x"})
	assert.True(t, errors.Is(err, errors.CodeInvalidOperation))
}

func TestChallenge_VoteExclusivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	env.user(t, "rider")
	env.user(t, "fan")
	pin := env.pin(t, "king")
	c := env.votingChallenge(t, pin.ID, "rider")

	_, err := env.challenges.CastVote(ctx, "fan", pin.ID, c.ID, entity.VoteKeep)
	require.NoError(t, err)
	_, err = env.challenges.CastVote(ctx, "fan", pin.ID, c.ID, entity.VoteDethrone)
	assert.True(t, errors.Is(err, errors.CodeAlreadyVoted))

	got, err := env.challenges.GetChallenge(ctx, pin.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes)
	assert.Equal(t, 0, got.Downvotes)
}

func TestChallenge_ConcurrentVotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	env.user(t, "rider")
	pin := env.pin(t, "king")
	c := env.votingChallenge(t, pin.ID, "rider")

	const voters = 12
	for i := 0; i < voters; i++ {
		env.user(t, fmt.Sprintf("v%d", i))
	}

	var g errgroup.Group
	for i := 0; i < voters; i++ {
		voter := fmt.Sprintf("v%d", i)
		choice := entity.VoteKeep
		if i%3 == 0 {
			choice = entity.VoteDethrone
		}
		g.Go(func() error {
			_, err := env.challenges.CastVote(ctx, voter, pin.ID, c.ID, choice)
			return err
		})
	}
	// The same voter racing itself is counted once.
	dupes := make(chan error, 4)
	env.user(t, "dup")
	for i := 0; i < 4; i++ {
		go func() {
			_, err := env.challenges.CastVote(ctx, "dup", pin.ID, c.ID, entity.VoteKeep)
			dupes <- err
		}()
	}
	require.NoError(t, g.Wait())

	accepted := 0
	for i := 0; i < 4; i++ {
		if err := <-dupes; err == nil {
			accepted++
		} else {
			assert.True(t, errors.Is(err, errors.CodeAlreadyVoted))
		}
	}
	assert.Equal(t, 1, accepted)

	got, err := env.challenges.GetChallenge(ctx, pin.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Downvotes)
	assert.Equal(t, 8+1, got.Upvotes)
}

func TestChallenge_InvalidStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	env.user(t, "rider")
	env.user(t, "fan")
	pin := env.pin(t, "king")

	c, err := env.challenges.Create(ctx, "rider", pin.ID, CreateChallengeInput{MediaRef: "https://youtu.be/r"})
	require.NoError(t, err)

	_, err = env.challenges.CastVote(ctx, "fan", pin.ID, c.ID, entity.VoteKeep)
	assert.True(t, errors.Is(err, errors.CodeInvalidState), "vote on pending")

	_, err = env.challenges.Finalize(ctx, "admin", pin.ID, c.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState), "finalize pending")

	_, err = env.challenges.Cancel(ctx, "admin", pin.ID, c.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState), "cancel pending")

	_, err = env.challenges.CastVote(ctx, "fan", pin.ID, c.ID, entity.VoteChoice("sideways"))
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	rejected, err := env.challenges.Reject(ctx, "admin", pin.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChallengeRejected, rejected.Status)

	_, err = env.challenges.Approve(ctx, "admin", pin.ID, c.ID)
	assert.True(t, errors.Is(err, errors.CodeInvalidState), "approve rejected")

	result, err := env.challenges.Finalize(ctx, "admin", pin.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyResolved, result.Outcome)

	_, err = env.challenges.Approve(ctx, "admin", pin.ID, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestChallenge_CancelRacesFinalize(t *testing.T) {
	for round := 0; round < 10; round++ {
		env := newTestEnv(t)
		ctx := context.Background()
		env.user(t, "king")
		env.user(t, "rider")
		pin := env.pin(t, "king")
		c := env.votingChallenge(t, pin.ID, "rider")
		castVotes(t, env, pin.ID, c.ID, 0, 2)

		var cancelRes, finalizeRes *ResolutionResult
		var g errgroup.Group
		g.Go(func() error {
			var err error
			cancelRes, err = env.challenges.Cancel(ctx, "admin", pin.ID, c.ID)
			return err
		})
		g.Go(func() error {
			var err error
			finalizeRes, err = env.challenges.Finalize(ctx, "admin", pin.ID, c.ID)
			return err
		})
		require.NoError(t, g.Wait())

		applied := 0
		for _, r := range []*ResolutionResult{cancelRes, finalizeRes} {
			if r.Outcome == OutcomeApplied {
				applied++
			}
		}
		assert.Equal(t, 1, applied)

		final, err := env.challenges.GetChallenge(ctx, pin.ID, c.ID)
		require.NoError(t, err)
		got := env.getPin(t, pin.ID)
		switch final.Status {
		case entity.ChallengeCancelled:
			assert.Equal(t, "king", got.OwnerID)
			assert.Empty(t, got.OwnershipHistory)
		case entity.ChallengeSuccessful:
			assert.Equal(t, "rider", got.OwnerID)
			assert.Equal(t, []string{"king"}, got.OwnershipHistory)
		default:
			t.Fatalf("unexpected status %s", final.Status)
		}
	}
}

func TestChallenge_ContentionSurfacesWithoutWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	env.user(t, "rider")
	pin := env.pin(t, "king")
	c := env.votingChallenge(t, pin.ID, "rider")
	castVotes(t, env, pin.ID, c.ID, 0, 1)

	short := NewTxRunner(env.store, 3, 0)
	challenges := NewChallengeUseCase(short, env.notifier, nil, nil)
	env.store.InjectConflicts(3)

	_, err := challenges.Finalize(ctx, "admin", pin.ID, c.ID)
	assert.True(t, errors.IsContention(err))
	assert.Equal(t, "king", env.getPin(t, pin.ID).OwnerID)

	result, err := challenges.Finalize(ctx, "admin", pin.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
}

type stubVerifier struct{ err error }

func (v stubVerifier) Verify(context.Context, string) error { return v.err }

func TestChallenge_MediaVerified(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "king")
	env.user(t, "rider")
	pin := env.pin(t, "king")
	env.challenges.verifier = stubVerifier{err: errors.BadRequest("media not found", nil)}

	_, err := env.challenges.Create(context.Background(), "rider", pin.ID, CreateChallengeInput{MediaRef: "gs://clips/missing.mp4"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
	assert.Zero(t, env.getUser(t, "rider").DethroneAttemptsCount)
}

func TestListChallenges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "king")
	env.user(t, "rider")
	pin := env.pin(t, "king")
	env.votingChallenge(t, pin.ID, "rider")

	_, err := env.challenges.ListChallenges(ctx, "bogus", 10)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	pending, err := env.challenges.ListChallenges(ctx, "pending", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := env.challenges.ListChallenges(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
