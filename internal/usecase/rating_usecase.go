package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/internal/domain/service"
	"hitrank/pkg/errors"
)

const maxCommentLength = 1000

type RatingUseCase struct {
	runner *TxRunner
	cache  PinViewCache
	now    func() time.Time
}

func NewRatingUseCase(runner *TxRunner, cache PinViewCache) *RatingUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	return &RatingUseCase{
		runner: runner,
		cache:  cache,
		now:    time.Now,
	}
}

type SubmitRatingInput struct {
	Technicality int
	Exposure     int
	Entry        int
	Fall         bool
	Comment      string
	Tags         []string
}

type RatingResult struct {
	Rating *entity.Rating `json:"rating"`
	Pin    *entity.Pin    `json:"pin"`
}

// SubmitRating records a rating event, folds it into the pin's weighted
// aggregates and credits the reviewer, all in one transaction. The weight is
// computed from the reviewer's reputation as read in that transaction and is
// stored on the rating for good.
func (uc *RatingUseCase) SubmitRating(ctx context.Context, reviewerID, pinID string, input SubmitRatingInput) (*RatingResult, error) {
	scores := service.Scores{
		Technicality: input.Technicality,
		Exposure:     input.Exposure,
		Entry:        input.Entry,
	}
	if !scores.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("scores must be between %d and %d", entity.MinDimensionScore, entity.MaxDimensionScore), nil)
	}
	if len(input.Tags) > entity.MaxRatingTags {
		return nil, errors.BadRequest(fmt.Sprintf("at most %d tags are allowed", entity.MaxRatingTags), nil)
	}
	tags, ok := service.NormalizeTags(input.Tags)
	if !ok {
		return nil, errors.BadRequest("unknown tag", nil)
	}
	comment := strings.TrimSpace(input.Comment)
	if len(comment) > maxCommentLength {
		return nil, errors.BadRequest("comment is too long", nil)
	}

	ratingID := uuid.NewString()
	var result *RatingResult
	err := uc.runner.Run(ctx, "submit_rating", func(ctx context.Context, tx repository.Tx) error {
		pin, err := tx.GetPin(pinID)
		if err != nil {
			return err
		}
		reviewer, err := tx.GetUser(reviewerID)
		if err != nil {
			return err
		}

		now := uc.now()
		weight := service.ComputeReviewWeight(reviewer.ReputationAt(pin.ResortID), reviewer.GlobalCredibility)
		service.ApplyRating(pin, scores, weight)
		service.ApplyTags(pin, tags)
		pin.UpdatedAt = now

		service.GrantReviewCredit(reviewer)
		reviewer.UpdatedAt = now

		rating := &entity.Rating{
			ID:             ratingID,
			PinID:          pinID,
			ReviewerID:     reviewerID,
			Technicality:   input.Technicality,
			Exposure:       input.Exposure,
			Entry:          input.Entry,
			ComputedWeight: weight,
			Fall:           input.Fall,
			Comment:        comment,
			Tags:           tags,
			CreatedAt:      now,
		}

		if err := tx.CreateRating(rating); err != nil {
			return err
		}
		if err := tx.PutPin(pin); err != nil {
			return err
		}
		if err := tx.PutUser(reviewer); err != nil {
			return err
		}

		result = &RatingResult{Rating: rating, Pin: pin}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, uc.cache, pinID)
	return result, nil
}

func (uc *RatingUseCase) GetRating(ctx context.Context, pinID, ratingID string) (*entity.Rating, error) {
	return uc.runner.Store().GetRating(ctx, pinID, ratingID)
}
