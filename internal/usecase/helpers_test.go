package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hitrank/internal/adapter/repository/memstore"
	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (n *recordingNotifier) Notify(notification *entity.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Type)
	}
	return out
}

type testEnv struct {
	store      *memstore.Store
	runner     *TxRunner
	notifier   *recordingNotifier
	profiles   *ProfileUseCase
	ratings    *RatingUseCase
	vouches    *VouchUseCase
	challenges *ChallengeUseCase
	interacts  *InteractionUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	runner := NewTxRunner(store, 50, 0)
	notifier := &recordingNotifier{}

	env := &testEnv{
		store:      store,
		runner:     runner,
		notifier:   notifier,
		profiles:   NewProfileUseCase(runner, nil),
		ratings:    NewRatingUseCase(runner, nil),
		vouches:    NewVouchUseCase(runner, nil),
		challenges: NewChallengeUseCase(runner, notifier, nil, nil),
		interacts:  NewInteractionUseCase(runner, nil),
	}
	clock := func() time.Time { return testNow }
	env.profiles.now = clock
	env.ratings.now = clock
	env.vouches.now = clock
	env.challenges.now = clock
	env.interacts.now = clock
	return env
}

func (e *testEnv) put(t *testing.T, fn func(tx repository.Tx) error) {
	t.Helper()
	err := e.store.RunTransaction(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return fn(tx)
	})
	require.NoError(t, err)
}

func (e *testEnv) user(t *testing.T, id string) *entity.User {
	t.Helper()
	u, err := e.profiles.EnsureProfile(context.Background(), id, id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) userWithReputation(t *testing.T, id, resortID string, reputation float64) {
	t.Helper()
	u := e.user(t, id)
	u.ResortReputation[resortID] = reputation
	e.put(t, func(tx repository.Tx) error { return tx.PutUser(u) })
}

func (e *testEnv) pin(t *testing.T, ownerID string) *entity.Pin {
	t.Helper()
	pin, err := e.profiles.CreatePin(context.Background(), ownerID, CreatePinInput{
		ResortID:    "whistler",
		FeatureName: "Air Jordan",
		Media:       []string{"gs://clips/" + ownerID + ".mp4"},
	})
	require.NoError(t, err)
	return pin
}

func (e *testEnv) getPin(t *testing.T, id string) *entity.Pin {
	t.Helper()
	pin, err := e.store.GetPin(context.Background(), id)
	require.NoError(t, err)
	return pin
}

func (e *testEnv) getUser(t *testing.T, id string) *entity.User {
	t.Helper()
	u, err := e.store.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

// votingChallenge creates and approves a challenge by challengerID.
func (e *testEnv) votingChallenge(t *testing.T, pinID, challengerID string) *entity.Challenge {
	t.Helper()
	ctx := context.Background()
	c, err := e.challenges.Create(ctx, challengerID, pinID, CreateChallengeInput{MediaRef: "https://youtu.be/" + challengerID})
	require.NoError(t, err)
	c, err = e.challenges.Approve(ctx, "admin", pinID, c.ID)
	require.NoError(t, err)
	return c
}
