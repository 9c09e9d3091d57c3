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

const (
	OutcomeApplied         = "applied"
	OutcomeAlreadyResolved = "already_resolved"

	defaultChallengeListLimit = 50
	maxChallengeListLimit     = 200
)

type ChallengeUseCase struct {
	runner   *TxRunner
	notifier Notifier
	cache    PinViewCache
	verifier MediaVerifier
	now      func() time.Time
}

func NewChallengeUseCase(runner *TxRunner, notifier Notifier, cache PinViewCache, verifier MediaVerifier) *ChallengeUseCase {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &ChallengeUseCase{
		runner:   runner,
		notifier: notifier,
		cache:    cache,
		verifier: verifier,
		now:      time.Now,
	}
}

// ResolutionResult reports what a finalize or cancel did. A challenge that
// was already resolved comes back with OutcomeAlreadyResolved and nothing
// written.
type ResolutionResult struct {
	Challenge     *entity.Challenge `json:"challenge"`
	Outcome       string            `json:"outcome"`
	ChallengerWon bool              `json:"challenger_won"`
}

type CreateChallengeInput struct {
	MediaRef string
}

// Create files a pending challenge against the pin's current owner. Both media
// references are snapshotted now.
func (uc *ChallengeUseCase) Create(ctx context.Context, challengerID, pinID string, input CreateChallengeInput) (*entity.Challenge, error) {
	mediaRef := strings.TrimSpace(input.MediaRef)
	if mediaRef == "" {
		return nil, errors.BadRequest("media reference is required", nil)
	}
	if uc.verifier != nil {
		if err := uc.verifier.Verify(ctx, mediaRef); err != nil {
			return nil, err
		}
	}

	challengeID := uuid.NewString()
	var challenge *entity.Challenge
	err := uc.runner.Run(ctx, "create_challenge", func(ctx context.Context, tx repository.Tx) error {
		pin, err := tx.GetPin(pinID)
		if err != nil {
			return err
		}
		challenger, err := tx.GetUser(challengerID)
		if err != nil {
			return err
		}
		active, err := tx.FindChallengeByStatus(pinID, entity.ChallengeVoting)
		if err != nil {
			return err
		}
		if active != nil {
			return errors.ChallengeInProgress()
		}
		if pin.OwnerID == challengerID {
			return errors.InvalidOperation("You already own this pin")
		}

		now := uc.now()
		challenge = &entity.Challenge{
			ID:                 challengeID,
			PinID:              pinID,
			ChallengerID:       challengerID,
			ChallengerMediaRef: mediaRef,
			OriginalMediaRef:   pin.PrimaryMedia(),
			OriginalOwnerID:    pin.OwnerID,
			Status:             entity.ChallengePending,
			SubmittedAt:        now,
		}
		challenger.DethroneAttemptsCount++
		challenger.UpdatedAt = now

		if err := tx.PutChallenge(challenge); err != nil {
			return err
		}
		return tx.PutUser(challenger)
	})
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// Approve opens the fixed voting window on a pending challenge.
func (uc *ChallengeUseCase) Approve(ctx context.Context, adminID, pinID, challengeID string) (*entity.Challenge, error) {
	var challenge *entity.Challenge
	var notifications []*entity.Notification
	err := uc.runner.Run(ctx, "approve_challenge", func(ctx context.Context, tx repository.Tx) error {
		notifications = nil

		c, err := tx.GetChallenge(pinID, challengeID)
		if err != nil {
			return err
		}
		if !service.CanTransition(c.Status, entity.ChallengeVoting) {
			return errors.InvalidState(fmt.Sprintf("challenge is %s, not pending", c.Status))
		}
		pin, err := tx.GetPin(pinID)
		if err != nil {
			return err
		}
		active, err := tx.FindChallengeByStatus(pinID, entity.ChallengeVoting)
		if err != nil {
			return err
		}
		if active != nil {
			return errors.ChallengeInProgress()
		}
		if pin.OwnerID == c.ChallengerID {
			return errors.InvalidOperation("challenger already owns this pin")
		}

		now := uc.now()
		ends := service.VotingDeadline(now)
		c.Status = entity.ChallengeVoting
		c.VotingEndsAt = &ends
		c.ReviewedBy = adminID

		n := newNotification(c.ChallengerID, entity.NotificationDethroneApproved, pinID, c.ID, now)
		if err := tx.PutChallenge(c); err != nil {
			return err
		}
		if err := tx.CreateNotification(n); err != nil {
			return err
		}

		challenge = c
		notifications = []*entity.Notification{n}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dispatch(uc.notifier, notifications)
	invalidate(ctx, uc.cache, pinID)
	return challenge, nil
}

// Reject closes a pending challenge without a vote.
func (uc *ChallengeUseCase) Reject(ctx context.Context, adminID, pinID, challengeID string) (*entity.Challenge, error) {
	var challenge *entity.Challenge
	var notifications []*entity.Notification
	err := uc.runner.Run(ctx, "reject_challenge", func(ctx context.Context, tx repository.Tx) error {
		notifications = nil

		c, err := tx.GetChallenge(pinID, challengeID)
		if err != nil {
			return err
		}
		if !service.CanTransition(c.Status, entity.ChallengeRejected) {
			return errors.InvalidState(fmt.Sprintf("challenge is %s, not pending", c.Status))
		}

		now := uc.now()
		c.Status = entity.ChallengeRejected
		c.ReviewedBy = adminID
		c.ResolvedBy = adminID
		c.ResolvedAt = &now

		n := newNotification(c.ChallengerID, entity.NotificationDethroneRejected, pinID, c.ID, now)
		if err := tx.PutChallenge(c); err != nil {
			return err
		}
		if err := tx.CreateNotification(n); err != nil {
			return err
		}

		challenge = c
		notifications = []*entity.Notification{n}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dispatch(uc.notifier, notifications)
	return challenge, nil
}

// CastVote counts one vote per voter. The uniqueness check and the tally
// increment commit together, so concurrent voters never lose an update.
// Votes are accepted until the challenge is finalized, even past its window.
func (uc *ChallengeUseCase) CastVote(ctx context.Context, voterID, pinID, challengeID string, choice entity.VoteChoice) (*entity.Challenge, error) {
	if !choice.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("vote must be %q or %q", entity.VoteKeep, entity.VoteDethrone), nil)
	}

	var challenge *entity.Challenge
	err := uc.runner.Run(ctx, "cast_vote", func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.GetChallenge(pinID, challengeID)
		if err != nil {
			return err
		}
		if c.Status != entity.ChallengeVoting {
			return errors.InvalidState(fmt.Sprintf("challenge is %s, not open for voting", c.Status))
		}
		if _, err := tx.GetUser(voterID); err != nil {
			return err
		}
		voted, err := tx.HasChallengeVote(pinID, challengeID, voterID)
		if err != nil {
			return err
		}
		if voted {
			return errors.AlreadyVoted()
		}

		if choice == entity.VoteDethrone {
			c.Downvotes++
		} else {
			c.Upvotes++
		}

		vote := &entity.ChallengeVote{
			PinID:       pinID,
			ChallengeID: challengeID,
			VoterID:     voterID,
			Vote:        choice,
			CreatedAt:   uc.now(),
		}
		if err := tx.CreateChallengeVote(vote); err != nil {
			return err
		}
		if err := tx.PutChallenge(c); err != nil {
			return err
		}

		challenge = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, uc.cache, pinID)
	return challenge, nil
}

// Finalize resolves a challenge in voting from its tally. The challenger wins
// only with strictly more dethrone votes than keep votes. A challenge that is
// already resolved is reported as such and left untouched, so the ownership
// transfer applies at most once.
func (uc *ChallengeUseCase) Finalize(ctx context.Context, actorID, pinID, challengeID string) (*ResolutionResult, error) {
	var result *ResolutionResult
	var notifications []*entity.Notification
	err := uc.runner.Run(ctx, "finalize_challenge", func(ctx context.Context, tx repository.Tx) error {
		notifications = nil

		c, err := tx.GetChallenge(pinID, challengeID)
		if err != nil {
			return err
		}
		if c.Status.IsTerminal() {
			result = &ResolutionResult{Challenge: c, Outcome: OutcomeAlreadyResolved, ChallengerWon: c.Status == entity.ChallengeSuccessful}
			return nil
		}
		if c.Status != entity.ChallengeVoting {
			return errors.InvalidState(fmt.Sprintf("challenge is %s, not in voting", c.Status))
		}

		pin, err := tx.GetPin(pinID)
		if err != nil {
			return err
		}
		won := service.ChallengerWins(c.Upvotes, c.Downvotes) && pin.OwnerID != c.ChallengerID
		now := uc.now()
		c.ResolvedAt = &now
		c.ResolvedBy = actorID

		if !won {
			c.Status = entity.ChallengeFailed
			n := newNotification(c.ChallengerID, entity.NotificationDethroneFailed, pinID, c.ID, now)
			if err := tx.PutChallenge(c); err != nil {
				return err
			}
			if err := tx.CreateNotification(n); err != nil {
				return err
			}
			result = &ResolutionResult{Challenge: c, Outcome: OutcomeApplied}
			notifications = []*entity.Notification{n}
			return nil
		}

		challenger, err := tx.GetUser(c.ChallengerID)
		if err != nil {
			return err
		}
		previousOwnerID := pin.OwnerID
		previousOwner, err := tx.GetUser(previousOwnerID)
		if err != nil && !errors.IsNotFound(err) {
			return err
		}

		service.TransferOwnership(pin, c)
		pin.UpdatedAt = now
		challenger.DethroneSuccessCount++
		challenger.UpdatedAt = now
		c.Status = entity.ChallengeSuccessful

		wonNote := newNotification(c.ChallengerID, entity.NotificationDethroneWon, pinID, c.ID, now)
		lost := newNotification(previousOwnerID, entity.NotificationCrownLost, pinID, c.ID, now)

		if err := tx.PutPin(pin); err != nil {
			return err
		}
		if err := tx.PutChallenge(c); err != nil {
			return err
		}
		if err := tx.PutUser(challenger); err != nil {
			return err
		}
		if previousOwner != nil {
			previousOwner.DethroneLostCount++
			previousOwner.UpdatedAt = now
			if err := tx.PutUser(previousOwner); err != nil {
				return err
			}
		}
		if err := tx.CreateNotification(wonNote); err != nil {
			return err
		}
		if err := tx.CreateNotification(lost); err != nil {
			return err
		}

		result = &ResolutionResult{Challenge: c, Outcome: OutcomeApplied, ChallengerWon: true}
		notifications = []*entity.Notification{wonNote, lost}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeApplied {
		dispatch(uc.notifier, notifications)
		invalidate(ctx, uc.cache, pinID)
	}
	return result, nil
}

// Cancel ends voting without a tally. Racing a finalize, whichever commits
// first wins and the other sees a resolved challenge.
func (uc *ChallengeUseCase) Cancel(ctx context.Context, adminID, pinID, challengeID string) (*ResolutionResult, error) {
	var result *ResolutionResult
	err := uc.runner.Run(ctx, "cancel_challenge", func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.GetChallenge(pinID, challengeID)
		if err != nil {
			return err
		}
		if c.Status.IsTerminal() {
			result = &ResolutionResult{Challenge: c, Outcome: OutcomeAlreadyResolved, ChallengerWon: c.Status == entity.ChallengeSuccessful}
			return nil
		}
		if !service.CanTransition(c.Status, entity.ChallengeCancelled) {
			return errors.InvalidState(fmt.Sprintf("challenge is %s, not in voting", c.Status))
		}

		now := uc.now()
		c.Status = entity.ChallengeCancelled
		c.ResolvedAt = &now
		c.ResolvedBy = adminID
		if err := tx.PutChallenge(c); err != nil {
			return err
		}

		result = &ResolutionResult{Challenge: c, Outcome: OutcomeApplied}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeApplied {
		invalidate(ctx, uc.cache, pinID)
	}
	return result, nil
}

func (uc *ChallengeUseCase) GetChallenge(ctx context.Context, pinID, challengeID string) (*entity.Challenge, error) {
	return uc.runner.Store().GetChallenge(ctx, pinID, challengeID)
}

// ListChallenges lists challenges across all pins, newest first.
func (uc *ChallengeUseCase) ListChallenges(ctx context.Context, status string, limit int) ([]*entity.Challenge, error) {
	s := entity.ChallengeStatus(status)
	if status != "" && !s.Valid() {
		return nil, errors.BadRequest("unknown challenge status", nil)
	}
	if limit <= 0 {
		limit = defaultChallengeListLimit
	}
	if limit > maxChallengeListLimit {
		limit = maxChallengeListLimit
	}
	return uc.runner.Store().ListChallenges(ctx, repository.ChallengeQuery{Status: s, Limit: limit})
}
