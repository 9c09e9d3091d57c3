package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/pkg/errors"
)

const (
	usersCollection         = "users"
	notificationsCollection = "notifications"
	pinsCollection          = "pins"
	reviewsCollection       = "reviews"
	vouchesCollection       = "vouches"
	challengesCollection    = "challenges"
	votesCollection         = "votes"
	favoritesCollection     = "favorites"
	flagsCollection         = "flags"
)

type firestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) repository.Store {
	return &firestoreStore{
		client: client,
	}
}

// RunTransaction makes exactly one attempt. Retries belong to the caller so
// contention is counted and surfaced in one place. Each retry is a new
// transaction: the client keeps transaction IDs private, so the lock priority
// its own retry loop would carry over is not available here.
func (s *firestoreStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{client: s.client, tx: tx})
	}, firestore.MaxAttempts(1))
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	switch status.Code(err) {
	case codes.Aborted:
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	case codes.AlreadyExists:
		return errors.InvalidOperation("document already exists")
	}
	return err
}

func (s *firestoreStore) pin(pinID string) *firestore.DocumentRef {
	return s.client.Collection(pinsCollection).Doc(pinID)
}

func (s *firestoreStore) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	doc, err := s.client.Collection(usersCollection).Doc(userID).Get(ctx)
	var user entity.User
	if err := decode(doc, err, "User", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *firestoreStore) GetPin(ctx context.Context, pinID string) (*entity.Pin, error) {
	doc, err := s.pin(pinID).Get(ctx)
	var pin entity.Pin
	if err := decode(doc, err, "Pin", &pin); err != nil {
		return nil, err
	}
	return &pin, nil
}

func (s *firestoreStore) GetRating(ctx context.Context, pinID, ratingID string) (*entity.Rating, error) {
	doc, err := s.pin(pinID).Collection(reviewsCollection).Doc(ratingID).Get(ctx)
	var rating entity.Rating
	if err := decode(doc, err, "Rating", &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

func (s *firestoreStore) GetChallenge(ctx context.Context, pinID, challengeID string) (*entity.Challenge, error) {
	doc, err := s.pin(pinID).Collection(challengesCollection).Doc(challengeID).Get(ctx)
	var challenge entity.Challenge
	if err := decode(doc, err, "Challenge", &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (s *firestoreStore) FindChallengeByStatus(ctx context.Context, pinID string, status entity.ChallengeStatus) (*entity.Challenge, error) {
	query := s.pin(pinID).Collection(challengesCollection).Where("status", "==", string(status)).Limit(1)
	return firstChallenge(query.Documents(ctx))
}

func (s *firestoreStore) ListChallenges(ctx context.Context, q repository.ChallengeQuery) ([]*entity.Challenge, error) {
	query := s.client.CollectionGroup(challengesCollection).Query
	if q.Status != "" {
		query = query.Where("status", "==", string(q.Status))
	}
	if q.VotingEndsBefore != nil {
		query = query.Where("votingEnds", "<=", *q.VotingEndsBefore).OrderBy("votingEnds", firestore.Asc)
	} else {
		query = query.OrderBy("submittedAt", firestore.Desc)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var challenges []*entity.Challenge
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var challenge entity.Challenge
		if err := doc.DataTo(&challenge); err != nil {
			return nil, err
		}
		challenges = append(challenges, &challenge)
	}
	return challenges, nil
}

func (s *firestoreStore) ListNotifications(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	query := s.client.Collection(usersCollection).Doc(userID).Collection(notificationsCollection).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	notifications := make([]*entity.Notification, 0, len(docs))
	for _, doc := range docs {
		var n entity.Notification
		if err := doc.DataTo(&n); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, nil
}

// ListFavoritePinIDs needs a single-field collection group index on
// favorites.userId.
func (s *firestoreStore) ListFavoritePinIDs(ctx context.Context, userID string) ([]string, error) {
	iter := s.client.CollectionGroup(favoritesCollection).Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	var pinIDs []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		// pins/{pinId}/favorites/{userId}
		pinIDs = append(pinIDs, doc.Ref.Parent.Parent.ID)
	}
	return pinIDs, nil
}

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *firestoreTx) user(userID string) *firestore.DocumentRef {
	return t.client.Collection(usersCollection).Doc(userID)
}

func (t *firestoreTx) pin(pinID string) *firestore.DocumentRef {
	return t.client.Collection(pinsCollection).Doc(pinID)
}

func (t *firestoreTx) challenge(pinID, challengeID string) *firestore.DocumentRef {
	return t.pin(pinID).Collection(challengesCollection).Doc(challengeID)
}

func (t *firestoreTx) vouch(pinID, voucherID string) *firestore.DocumentRef {
	return t.pin(pinID).Collection(vouchesCollection).Doc(voucherID)
}

func (t *firestoreTx) perUser(pinID, collection, userID string) *firestore.DocumentRef {
	return t.pin(pinID).Collection(collection).Doc(userID)
}

func (t *firestoreTx) GetUser(userID string) (*entity.User, error) {
	doc, err := t.tx.Get(t.user(userID))
	var user entity.User
	if err := decode(doc, err, "User", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (t *firestoreTx) GetPin(pinID string) (*entity.Pin, error) {
	doc, err := t.tx.Get(t.pin(pinID))
	var pin entity.Pin
	if err := decode(doc, err, "Pin", &pin); err != nil {
		return nil, err
	}
	return &pin, nil
}

func (t *firestoreTx) GetChallenge(pinID, challengeID string) (*entity.Challenge, error) {
	doc, err := t.tx.Get(t.challenge(pinID, challengeID))
	var challenge entity.Challenge
	if err := decode(doc, err, "Challenge", &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (t *firestoreTx) GetVouch(pinID, voucherID string) (*entity.Vouch, error) {
	doc, err := t.tx.Get(t.vouch(pinID, voucherID))
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	var vouch entity.Vouch
	if err := decode(doc, err, "Vouch", &vouch); err != nil {
		return nil, err
	}
	return &vouch, nil
}

func (t *firestoreTx) HasChallengeVote(pinID, challengeID, voterID string) (bool, error) {
	_, err := t.tx.Get(t.challenge(pinID, challengeID).Collection(votesCollection).Doc(voterID))
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *firestoreTx) GetPinReaction(pinID, userID string) (*entity.PinReaction, error) {
	var reaction entity.PinReaction
	found, err := t.getOptional(t.perUser(pinID, votesCollection, userID), &reaction)
	if err != nil || !found {
		return nil, err
	}
	return &reaction, nil
}

func (t *firestoreTx) GetFavorite(pinID, userID string) (*entity.Favorite, error) {
	var favorite entity.Favorite
	found, err := t.getOptional(t.perUser(pinID, favoritesCollection, userID), &favorite)
	if err != nil || !found {
		return nil, err
	}
	return &favorite, nil
}

func (t *firestoreTx) GetFlag(pinID, userID string) (*entity.Flag, error) {
	var flag entity.Flag
	found, err := t.getOptional(t.perUser(pinID, flagsCollection, userID), &flag)
	if err != nil || !found {
		return nil, err
	}
	return &flag, nil
}

func (t *firestoreTx) getOptional(ref *firestore.DocumentRef, dst interface{}) (bool, error) {
	doc, err := t.tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, doc.DataTo(dst)
}

func (t *firestoreTx) FindChallengeByStatus(pinID string, status entity.ChallengeStatus) (*entity.Challenge, error) {
	query := t.pin(pinID).Collection(challengesCollection).Where("status", "==", string(status)).Limit(1)
	return firstChallenge(t.tx.Documents(query))
}

func (t *firestoreTx) PutUser(user *entity.User) error {
	return t.tx.Set(t.user(user.ID), user)
}

func (t *firestoreTx) PutPin(pin *entity.Pin) error {
	return t.tx.Set(t.pin(pin.ID), pin)
}

func (t *firestoreTx) PutChallenge(challenge *entity.Challenge) error {
	return t.tx.Set(t.challenge(challenge.PinID, challenge.ID), challenge)
}

func (t *firestoreTx) CreateRating(rating *entity.Rating) error {
	return t.tx.Create(t.pin(rating.PinID).Collection(reviewsCollection).Doc(rating.ID), rating)
}

func (t *firestoreTx) CreateVouch(vouch *entity.Vouch) error {
	return t.tx.Create(t.vouch(vouch.PinID, vouch.VoucherID), vouch)
}

func (t *firestoreTx) DeleteVouch(pinID, voucherID string) error {
	return t.tx.Delete(t.vouch(pinID, voucherID))
}

func (t *firestoreTx) CreateChallengeVote(vote *entity.ChallengeVote) error {
	ref := t.challenge(vote.PinID, vote.ChallengeID).Collection(votesCollection).Doc(vote.VoterID)
	return t.tx.Create(ref, vote)
}

func (t *firestoreTx) PutPinReaction(reaction *entity.PinReaction) error {
	return t.tx.Set(t.perUser(reaction.PinID, votesCollection, reaction.UserID), reaction)
}

func (t *firestoreTx) DeletePinReaction(pinID, userID string) error {
	return t.tx.Delete(t.perUser(pinID, votesCollection, userID))
}

func (t *firestoreTx) CreateFavorite(favorite *entity.Favorite) error {
	return t.tx.Create(t.perUser(favorite.PinID, favoritesCollection, favorite.UserID), favorite)
}

func (t *firestoreTx) DeleteFavorite(pinID, userID string) error {
	return t.tx.Delete(t.perUser(pinID, favoritesCollection, userID))
}

func (t *firestoreTx) CreateFlag(flag *entity.Flag) error {
	return t.tx.Create(t.perUser(flag.PinID, flagsCollection, flag.UserID), flag)
}

func (t *firestoreTx) DeleteFlag(pinID, userID string) error {
	return t.tx.Delete(t.perUser(pinID, flagsCollection, userID))
}

func (t *firestoreTx) CreateNotification(notification *entity.Notification) error {
	ref := t.user(notification.UserID).Collection(notificationsCollection).Doc(notification.ID)
	return t.tx.Create(ref, notification)
}

func decode(doc *firestore.DocumentSnapshot, err error, resource string, dst interface{}) error {
	if status.Code(err) == codes.NotFound {
		return errors.NotFound(resource, err)
	}
	if err != nil {
		return err
	}
	return doc.DataTo(dst)
}

func firstChallenge(iter *firestore.DocumentIterator) (*entity.Challenge, error) {
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var challenge entity.Challenge
	if err := doc.DataTo(&challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}
