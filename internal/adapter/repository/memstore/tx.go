package memstore

import (
	"encoding/json"
	"fmt"

	"hitrank/internal/domain/entity"
	"hitrank/pkg/errors"
)

type write struct {
	path   string
	data   []byte
	create bool
}

type memTx struct {
	store     *Store
	reads     map[string]uint64
	collReads map[string]uint64
	writes    []write
}

func (t *memTx) read(path string, dst interface{}) (bool, error) {
	if len(t.writes) > 0 {
		return false, errors.Internal("transaction reads must happen before writes", nil)
	}
	found, version, err := t.store.load(path, dst)
	if err != nil {
		return false, err
	}
	if _, seen := t.reads[path]; !seen {
		t.reads[path] = version
	}
	return found, nil
}

func (t *memTx) put(path string, v interface{}, create bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Internal(fmt.Sprintf("Failed to encode %s", path), err)
	}
	t.writes = append(t.writes, write{path: path, data: data, create: create})
	return nil
}

func (t *memTx) delete(path string) error {
	t.writes = append(t.writes, write{path: path})
	return nil
}

func (t *memTx) GetUser(userID string) (*entity.User, error) {
	var user entity.User
	found, err := t.read(userPath(userID), &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NotFound("User", nil)
	}
	return &user, nil
}

func (t *memTx) GetPin(pinID string) (*entity.Pin, error) {
	var pin entity.Pin
	found, err := t.read(pinPath(pinID), &pin)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NotFound("Pin", nil)
	}
	return &pin, nil
}

func (t *memTx) GetChallenge(pinID, challengeID string) (*entity.Challenge, error) {
	var challenge entity.Challenge
	found, err := t.read(challengePath(pinID, challengeID), &challenge)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NotFound("Challenge", nil)
	}
	return &challenge, nil
}

func (t *memTx) GetVouch(pinID, voucherID string) (*entity.Vouch, error) {
	var vouch entity.Vouch
	found, err := t.read(vouchPath(pinID, voucherID), &vouch)
	if err != nil || !found {
		return nil, err
	}
	return &vouch, nil
}

func (t *memTx) HasChallengeVote(pinID, challengeID, voterID string) (bool, error) {
	var vote entity.ChallengeVote
	return t.read(challengeVotePath(pinID, challengeID, voterID), &vote)
}

func (t *memTx) GetPinReaction(pinID, userID string) (*entity.PinReaction, error) {
	var reaction entity.PinReaction
	found, err := t.read(pinReactionPath(pinID, userID), &reaction)
	if err != nil || !found {
		return nil, err
	}
	return &reaction, nil
}

func (t *memTx) GetFavorite(pinID, userID string) (*entity.Favorite, error) {
	var favorite entity.Favorite
	found, err := t.read(favoritePath(pinID, userID), &favorite)
	if err != nil || !found {
		return nil, err
	}
	return &favorite, nil
}

func (t *memTx) GetFlag(pinID, userID string) (*entity.Flag, error) {
	var flag entity.Flag
	found, err := t.read(flagPath(pinID, userID), &flag)
	if err != nil || !found {
		return nil, err
	}
	return &flag, nil
}

func (t *memTx) FindChallengeByStatus(pinID string, status entity.ChallengeStatus) (*entity.Challenge, error) {
	if len(t.writes) > 0 {
		return nil, errors.Internal("transaction reads must happen before writes", nil)
	}
	coll := challengesPath(pinID)
	docs, version := t.store.scan(coll)
	if _, seen := t.collReads[coll]; !seen {
		t.collReads[coll] = version
	}
	return firstWithStatus(docs, status)
}

func (t *memTx) PutUser(user *entity.User) error {
	return t.put(userPath(user.ID), user, false)
}

func (t *memTx) PutPin(pin *entity.Pin) error {
	return t.put(pinPath(pin.ID), pin, false)
}

func (t *memTx) PutChallenge(challenge *entity.Challenge) error {
	return t.put(challengePath(challenge.PinID, challenge.ID), challenge, false)
}

func (t *memTx) CreateRating(rating *entity.Rating) error {
	return t.put(ratingPath(rating.PinID, rating.ID), rating, true)
}

func (t *memTx) CreateVouch(vouch *entity.Vouch) error {
	return t.put(vouchPath(vouch.PinID, vouch.VoucherID), vouch, true)
}

func (t *memTx) DeleteVouch(pinID, voucherID string) error {
	return t.delete(vouchPath(pinID, voucherID))
}

func (t *memTx) PutPinReaction(reaction *entity.PinReaction) error {
	return t.put(pinReactionPath(reaction.PinID, reaction.UserID), reaction, false)
}

func (t *memTx) DeletePinReaction(pinID, userID string) error {
	return t.delete(pinReactionPath(pinID, userID))
}

func (t *memTx) CreateFavorite(favorite *entity.Favorite) error {
	return t.put(favoritePath(favorite.PinID, favorite.UserID), favorite, true)
}

func (t *memTx) DeleteFavorite(pinID, userID string) error {
	return t.delete(favoritePath(pinID, userID))
}

func (t *memTx) CreateFlag(flag *entity.Flag) error {
	return t.put(flagPath(flag.PinID, flag.UserID), flag, true)
}

func (t *memTx) DeleteFlag(pinID, userID string) error {
	return t.delete(flagPath(pinID, userID))
}

func (t *memTx) CreateChallengeVote(vote *entity.ChallengeVote) error {
	return t.put(challengeVotePath(vote.PinID, vote.ChallengeID, vote.VoterID), vote, true)
}

func (t *memTx) CreateNotification(notification *entity.Notification) error {
	return t.put(notificationsPath(notification.UserID)+"/"+notification.ID, notification, true)
}
