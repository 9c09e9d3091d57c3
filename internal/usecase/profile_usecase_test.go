package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/internal/domain/service"
	"hitrank/pkg/errors"
)

type mapCache struct {
	mu          sync.Mutex
	views       map[string]*PinView
	generations map[string]int64
	invalidated []string
	// beforeSet runs at the start of Set, outside the lock.
	beforeSet func()
}

func newMapCache() *mapCache {
	return &mapCache{views: map[string]*PinView{}, generations: map[string]int64{}}
}

func (c *mapCache) Get(_ context.Context, pinID string, dst interface{}) (bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[pinID]
	if !ok {
		return false, c.generations[pinID], nil
	}
	*dst.(*PinView) = *v
	return true, c.generations[pinID], nil
}

func (c *mapCache) Set(_ context.Context, pinID string, generation int64, view interface{}) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[pinID] != generation {
		return nil
	}
	c.views[pinID] = view.(*PinView)
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, pinID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, pinID)
	c.generations[pinID]++
	c.invalidated = append(c.invalidated, pinID)
	return nil
}

func TestEnsureProfile_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.profiles.EnsureProfile(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", first.Username)
	assert.Zero(t, first.GlobalCredibility)

	first.GlobalCredibility = 40
	env.put(t, func(tx repository.Tx) error { return tx.PutUser(first) })

	again, err := env.profiles.EnsureProfile(ctx, "alice", "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Username)
	assert.Equal(t, 40.0, again.GlobalCredibility)
}

func TestCreatePin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.profiles.CreatePin(ctx, "ghost", CreatePinInput{ResortID: "r", FeatureName: "f"})
	assert.True(t, errors.IsNotFound(err))

	_, err = env.profiles.CreatePin(ctx, "ghost", CreatePinInput{})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	env.user(t, "alice")
	pin := env.pin(t, "alice")
	assert.Equal(t, "alice", pin.OwnerID)
	assert.Equal(t, "alice", pin.OriginalOwnerID)
	assert.Zero(t, pin.RatingCount)
	assert.Empty(t, pin.OwnershipHistory)
}

func TestGetPinView_ActiveChallengeAndCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cache := newMapCache()
	env.profiles.cache = cache
	env.challenges.cache = cache

	env.user(t, "alice")
	env.user(t, "bob")
	pin := env.pin(t, "alice")

	view, err := env.profiles.GetPinView(ctx, pin.ID)
	require.NoError(t, err)
	assert.Nil(t, view.ActiveChallenge)
	assert.Contains(t, cache.views, pin.ID)

	c := env.votingChallenge(t, pin.ID, "bob")
	assert.Contains(t, cache.invalidated, pin.ID)

	view, err = env.profiles.GetPinView(ctx, pin.ID)
	require.NoError(t, err)
	require.NotNil(t, view.ActiveChallenge)
	assert.Equal(t, c.ID, view.ActiveChallenge.ID)

	_, err = env.profiles.GetPinView(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestListNotifications(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "alice")
	env.user(t, "bob")
	pin := env.pin(t, "alice")
	env.votingChallenge(t, pin.ID, "bob")

	notes, err := env.profiles.ListNotifications(context.Background(), "bob", 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "dethrone_approved", notes[0].Type)
}

func TestGetPinView_DoesNotCacheViewOlderThanInvalidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cache := newMapCache()
	env.profiles.cache = cache
	env.interacts.cache = cache

	env.user(t, "alice")
	pin := env.pin(t, "alice")

	// A like commits and invalidates after the reader loaded the pin but
	// before it stored the view.
	cache.beforeSet = func() {
		cache.beforeSet = nil
		_, err := env.interacts.React(ctx, "bob", pin.ID, entity.ReactionLike)
		require.NoError(t, err)
	}

	stale, err := env.profiles.GetPinView(ctx, pin.ID)
	require.NoError(t, err)
	assert.Zero(t, stale.Pin.LikeCount)
	assert.NotContains(t, cache.views, pin.ID)

	fresh, err := env.profiles.GetPinView(ctx, pin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Pin.LikeCount)
	assert.Contains(t, cache.views, pin.ID)
}

func TestCreatePin_Geofence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "alice")
	env.profiles.UseGeofence(service.NewGeofence(map[string]service.Ring{
		"solitude": {{-111.60, 40.61}, {-111.58, 40.61}, {-111.58, 40.63}, {-111.60, 40.63}},
	}))

	inside := &entity.GeoPoint{Lat: 40.62, Lng: -111.59}
	pin, err := env.profiles.CreatePin(ctx, "alice", CreatePinInput{ResortID: "solitude", FeatureName: "Cliff", Location: inside})
	require.NoError(t, err)
	assert.Equal(t, inside, env.getPin(t, pin.ID).Location)

	_, err = env.profiles.CreatePin(ctx, "alice", CreatePinInput{
		ResortID:    "solitude",
		FeatureName: "Cliff",
		Location:    &entity.GeoPoint{Lat: 40.70, Lng: -111.59},
	})
	assert.True(t, errors.IsInvalidOperation(err))

	// No location, or a resort without a boundary, is not checked.
	_, err = env.profiles.CreatePin(ctx, "alice", CreatePinInput{ResortID: "solitude", FeatureName: "Cliff"})
	require.NoError(t, err)
	_, err = env.profiles.CreatePin(ctx, "alice", CreatePinInput{
		ResortID:    "brighton",
		FeatureName: "Cliff",
		Location:    &entity.GeoPoint{Lat: 40.70, Lng: -111.59},
	})
	require.NoError(t, err)
}
