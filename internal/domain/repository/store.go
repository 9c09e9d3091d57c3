package repository

import (
	"context"
	"errors"
	"time"

	"hitrank/internal/domain/entity"
)

// ErrConflict is returned by Store.RunTransaction when a document read by the
// transaction was modified by another writer before commit. Callers retry the
// whole transaction from its first read.
var ErrConflict = errors.New("repository: transaction conflict")

// Store is the transactional document store the engine runs on.
type Store interface {
	// RunTransaction makes a single attempt at fn. All reads must happen
	// before the first write. Writes are applied atomically on commit, or not
	// at all when fn returns an error or the commit conflicts.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetUser(ctx context.Context, userID string) (*entity.User, error)
	GetPin(ctx context.Context, pinID string) (*entity.Pin, error)
	GetRating(ctx context.Context, pinID, ratingID string) (*entity.Rating, error)
	GetChallenge(ctx context.Context, pinID, challengeID string) (*entity.Challenge, error)
	// FindChallengeByStatus returns nil, nil when the pin has no challenge in status.
	FindChallengeByStatus(ctx context.Context, pinID string, status entity.ChallengeStatus) (*entity.Challenge, error)
	// ListChallenges queries challenges across all pins.
	ListChallenges(ctx context.Context, query ChallengeQuery) ([]*entity.Challenge, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]*entity.Notification, error)
	// ListFavoritePinIDs returns the IDs of every pin userID has favorited.
	ListFavoritePinIDs(ctx context.Context, userID string) ([]string, error)
}

type ChallengeQuery struct {
	Status entity.ChallengeStatus
	// VotingEndsBefore restricts to challenges whose voting window closed at
	// or before the given time, ordered by deadline. Otherwise results are
	// ordered by submission time, newest first.
	VotingEndsBefore *time.Time
	Limit            int
}

// Tx is the typed view of one store transaction. Getters return a NotFound
// AppError for missing users, pins and challenges.
type Tx interface {
	GetUser(userID string) (*entity.User, error)
	GetPin(pinID string) (*entity.Pin, error)
	GetChallenge(pinID, challengeID string) (*entity.Challenge, error)
	// GetVouch returns nil, nil when the voucher has no active vouch.
	GetVouch(pinID, voucherID string) (*entity.Vouch, error)
	HasChallengeVote(pinID, challengeID, voterID string) (bool, error)
	// GetPinReaction, GetFavorite and GetFlag return nil, nil when the user
	// has none on the pin.
	GetPinReaction(pinID, userID string) (*entity.PinReaction, error)
	GetFavorite(pinID, userID string) (*entity.Favorite, error)
	GetFlag(pinID, userID string) (*entity.Flag, error)
	FindChallengeByStatus(pinID string, status entity.ChallengeStatus) (*entity.Challenge, error)

	PutUser(user *entity.User) error
	PutPin(pin *entity.Pin) error
	PutChallenge(challenge *entity.Challenge) error
	CreateRating(rating *entity.Rating) error
	CreateVouch(vouch *entity.Vouch) error
	DeleteVouch(pinID, voucherID string) error
	CreateChallengeVote(vote *entity.ChallengeVote) error
	PutPinReaction(reaction *entity.PinReaction) error
	DeletePinReaction(pinID, userID string) error
	CreateFavorite(favorite *entity.Favorite) error
	DeleteFavorite(pinID, userID string) error
	CreateFlag(flag *entity.Flag) error
	DeleteFlag(pinID, userID string) error
	CreateNotification(notification *entity.Notification) error
}
