package usecase

import (
	"context"
	"time"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/pkg/errors"
)

const defaultFlagReason = "flagged"

// InteractionUseCase handles the per-user toggles on a pin: like or dislike,
// favorite and flag. Each is one document per user, so a repeated request
// undoes the previous one.
type InteractionUseCase struct {
	runner *TxRunner
	store  repository.Store
	cache  PinViewCache
	now    func() time.Time
}

func NewInteractionUseCase(runner *TxRunner, cache PinViewCache) *InteractionUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	return &InteractionUseCase{
		runner: runner,
		store:  runner.Store(),
		cache:  cache,
		now:    time.Now,
	}
}

type ReactionResult struct {
	// Reaction is empty once the user's reaction has been removed.
	Reaction     entity.Reaction `json:"reaction,omitempty"`
	LikeCount    int             `json:"like_count"`
	DislikeCount int             `json:"dislike_count"`
}

type FavoriteResult struct {
	Favorited bool `json:"favorited"`
}

type FlagResult struct {
	Flagged   bool `json:"flagged"`
	FlagCount int  `json:"flag_count"`
}

// InteractionState is what the user has currently set on a pin.
type InteractionState struct {
	Reaction  entity.Reaction `json:"reaction,omitempty"`
	Favorited bool            `json:"favorited"`
	Flagged   bool            `json:"flagged"`
}

// React records the user's like or dislike. Repeating the current reaction
// removes it; choosing the other one switches, moving the count across.
func (uc *InteractionUseCase) React(ctx context.Context, userID, pinID string, reaction entity.Reaction) (*ReactionResult, error) {
	if !reaction.Valid() {
		return nil, errors.BadRequest("reaction must be like or dislike", nil)
	}

	var result *ReactionResult
	err := uc.runner.Run(ctx, "react", func(ctx context.Context, tx repository.Tx) error {
		pin, err := tx.GetPin(pinID)
		if err != nil {
			return err
		}
		existing, err := tx.GetPinReaction(pinID, userID)
		if err != nil {
			return err
		}

		now := uc.now()
		if existing != nil {
			adjustReactionCount(pin, existing.Reaction, -1)
		}
		current := reaction
		if existing != nil && existing.Reaction == reaction {
			current = ""
			if err := tx.DeletePinReaction(pinID, userID); err != nil {
				return err
			}
		} else {
			adjustReactionCount(pin, reaction, 1)
			createdAt := now
			if existing != nil {
				createdAt = existing.CreatedAt
			}
			if err := tx.PutPinReaction(&entity.PinReaction{
				PinID:     pinID,
				UserID:    userID,
				Reaction:  reaction,
				CreatedAt: createdAt,
			}); err != nil {
				return err
			}
		}
		pin.UpdatedAt = now
		if err := tx.PutPin(pin); err != nil {
			return err
		}

		result = &ReactionResult{Reaction: current, LikeCount: pin.LikeCount, DislikeCount: pin.DislikeCount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, uc.cache, pinID)
	return result, nil
}

func adjustReactionCount(pin *entity.Pin, reaction entity.Reaction, delta int) {
	count := &pin.LikeCount
	if reaction == entity.ReactionDislike {
		count = &pin.DislikeCount
	}
	*count += delta
	if *count < 0 {
		*count = 0
	}
}

// ToggleFavorite adds the pin to the user's favorites or removes it. The pin
// itself is not written.
func (uc *InteractionUseCase) ToggleFavorite(ctx context.Context, userID, pinID string) (*FavoriteResult, error) {
	var result *FavoriteResult
	err := uc.runner.Run(ctx, "toggle_favorite", func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetPin(pinID); err != nil {
			return err
		}
		existing, err := tx.GetFavorite(pinID, userID)
		if err != nil {
			return err
		}

		if existing != nil {
			result = &FavoriteResult{Favorited: false}
			return tx.DeleteFavorite(pinID, userID)
		}
		result = &FavoriteResult{Favorited: true}
		return tx.CreateFavorite(&entity.Favorite{
			PinID:     pinID,
			UserID:    userID,
			CreatedAt: uc.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ToggleFlag reports the pin for review, or withdraws the user's report.
func (uc *InteractionUseCase) ToggleFlag(ctx context.Context, userID, pinID, reason string) (*FlagResult, error) {
	if reason == "" {
		reason = defaultFlagReason
	}

	var result *FlagResult
	err := uc.runner.Run(ctx, "toggle_flag", func(ctx context.Context, tx repository.Tx) error {
		pin, err := tx.GetPin(pinID)
		if err != nil {
			return err
		}
		existing, err := tx.GetFlag(pinID, userID)
		if err != nil {
			return err
		}

		now := uc.now()
		flagged := existing == nil
		if flagged {
			pin.FlagCount++
			err = tx.CreateFlag(&entity.Flag{PinID: pinID, UserID: userID, Reason: reason, CreatedAt: now})
		} else {
			if pin.FlagCount > 0 {
				pin.FlagCount--
			}
			err = tx.DeleteFlag(pinID, userID)
		}
		if err != nil {
			return err
		}
		pin.UpdatedAt = now
		if err := tx.PutPin(pin); err != nil {
			return err
		}

		result = &FlagResult{Flagged: flagged, FlagCount: pin.FlagCount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, uc.cache, pinID)
	return result, nil
}

// State reads the user's reaction, favorite and flag on the pin in one
// read-only transaction.
func (uc *InteractionUseCase) State(ctx context.Context, userID, pinID string) (*InteractionState, error) {
	var state *InteractionState
	err := uc.runner.Run(ctx, "interaction_state", func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetPin(pinID); err != nil {
			return err
		}
		reaction, err := tx.GetPinReaction(pinID, userID)
		if err != nil {
			return err
		}
		favorite, err := tx.GetFavorite(pinID, userID)
		if err != nil {
			return err
		}
		flag, err := tx.GetFlag(pinID, userID)
		if err != nil {
			return err
		}

		state = &InteractionState{Favorited: favorite != nil, Flagged: flag != nil}
		if reaction != nil {
			state.Reaction = reaction.Reaction
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (uc *InteractionUseCase) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	pinIDs, err := uc.store.ListFavoritePinIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pinIDs == nil {
		pinIDs = []string{}
	}
	return pinIDs, nil
}
