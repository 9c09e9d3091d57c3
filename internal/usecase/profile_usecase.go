package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/internal/domain/service"
	"hitrank/pkg/errors"
	"hitrank/pkg/logger"
)

const defaultNotificationLimit = 50

type ProfileUseCase struct {
	runner   *TxRunner
	store    repository.Store
	cache    PinViewCache
	geofence *service.Geofence
	now      func() time.Time
}

func NewProfileUseCase(runner *TxRunner, cache PinViewCache) *ProfileUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	return &ProfileUseCase{
		runner: runner,
		store:  runner.Store(),
		cache:  cache,
		now:    time.Now,
	}
}

// UseGeofence rejects new pins whose location falls outside their resort's
// boundary. Without one, any location is accepted.
func (uc *ProfileUseCase) UseGeofence(geofence *service.Geofence) {
	uc.geofence = geofence
}

// PinView is a pin with its presentation difficulty and the challenge
// currently in voting, if any.
type PinView struct {
	Pin               *entity.Pin       `json:"pin"`
	DisplayDifficulty int               `json:"display_difficulty"`
	ActiveChallenge   *entity.Challenge `json:"active_challenge,omitempty"`
}

// EnsureProfile creates the user's reputation document on first sign-in.
// Calling it again returns the existing profile unchanged.
func (uc *ProfileUseCase) EnsureProfile(ctx context.Context, userID, username string) (*entity.User, error) {
	var user *entity.User
	err := uc.runner.Run(ctx, "ensure_profile", func(ctx context.Context, tx repository.Tx) error {
		existing, err := tx.GetUser(userID)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.IsNotFound(err) {
			return err
		}

		now := uc.now()
		user = &entity.User{
			ID:               userID,
			Username:         strings.TrimSpace(username),
			ResortReputation: map[string]float64{},
			VouchesGiven:     map[string]int{},
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return tx.PutUser(user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type CreatePinInput struct {
	ResortID    string
	FeatureName string
	Media       []string
	Location    *entity.GeoPoint
}

func (uc *ProfileUseCase) CreatePin(ctx context.Context, ownerID string, input CreatePinInput) (*entity.Pin, error) {
	if input.ResortID == "" || input.FeatureName == "" {
		return nil, errors.BadRequest("resort and feature name are required", nil)
	}
	if input.Location != nil && !uc.geofence.Allows(input.ResortID, *input.Location) {
		return nil, errors.InvalidOperation("pin location is outside the resort boundary")
	}

	pinID := uuid.NewString()
	var pin *entity.Pin
	err := uc.runner.Run(ctx, "create_pin", func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetUser(ownerID); err != nil {
			return err
		}

		now := uc.now()
		pin = &entity.Pin{
			ID:               pinID,
			OwnerID:          ownerID,
			OriginalOwnerID:  ownerID,
			ResortID:         input.ResortID,
			FeatureName:      input.FeatureName,
			Media:            input.Media,
			Location:         input.Location,
			OwnershipHistory: []string{},
			TagCounts:        map[string]int{},
			TopTags:          []string{},
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return tx.PutPin(pin)
	})
	if err != nil {
		return nil, err
	}
	return pin, nil
}

// GetPinView reads the pin and its active challenge in parallel, through the
// view cache.
func (uc *ProfileUseCase) GetPinView(ctx context.Context, pinID string) (*PinView, error) {
	var cached PinView
	found, generation, err := uc.cache.Get(ctx, pinID, &cached)
	if err != nil {
		logger.Warn("Pin view cache read failed for %s: %v", pinID, err)
	} else if found {
		return &cached, nil
	}

	view := &PinView{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pin, err := uc.store.GetPin(gctx, pinID)
		if err != nil {
			return err
		}
		view.Pin = pin
		return nil
	})
	g.Go(func() error {
		active, err := uc.store.FindChallengeByStatus(gctx, pinID, entity.ChallengeVoting)
		if err != nil {
			return err
		}
		view.ActiveChallenge = active
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	view.DisplayDifficulty = service.DisplayDifficulty(view.Pin.Difficulty)

	if err := uc.cache.Set(ctx, pinID, generation, view); err != nil {
		logger.Warn("Pin view cache write failed for %s: %v", pinID, err)
	}
	return view, nil
}

func (uc *ProfileUseCase) GetUserReputation(ctx context.Context, userID string) (*entity.User, error) {
	return uc.store.GetUser(ctx, userID)
}

func (uc *ProfileUseCase) ListNotifications(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	return uc.store.ListNotifications(ctx, userID, limit)
}
