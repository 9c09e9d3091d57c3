// Package memstore is an in-process implementation of repository.Store with
// the same optimistic transaction semantics as Firestore: every document read
// inside a transaction is version-checked at commit, and a stale read fails
// the commit with repository.ErrConflict.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"hitrank/internal/domain/entity"
	"hitrank/internal/domain/repository"
	"hitrank/pkg/errors"
)

type record struct {
	version uint64
	data    []byte // nil once deleted
}

type Store struct {
	mu          sync.Mutex
	seq         uint64
	docs        map[string]*record
	collections map[string]uint64

	injectConflicts int
	commits         int
}

func New() *Store {
	return &Store{
		docs:        make(map[string]*record),
		collections: make(map[string]uint64),
	}
}

// InjectConflicts makes the next n commits fail with repository.ErrConflict.
func (s *Store) InjectConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injectConflicts = n
}

// Commits returns the number of successfully committed transactions.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &memTx{
		store:     s,
		reads:     make(map[string]uint64),
		collReads: make(map[string]uint64),
	}
	if err := fn(ctx, t); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.injectConflicts > 0 {
		s.injectConflicts--
		return repository.ErrConflict
	}

	for path, seen := range t.reads {
		if s.versionOf(path) != seen {
			return fmt.Errorf("%w: %s changed", repository.ErrConflict, path)
		}
	}
	for coll, seen := range t.collReads {
		if s.collections[coll] != seen {
			return fmt.Errorf("%w: collection %s changed", repository.ErrConflict, coll)
		}
	}
	for _, w := range t.writes {
		if w.create && s.exists(w.path) {
			return errors.InvalidOperation(fmt.Sprintf("document %s already exists", w.path))
		}
	}

	for _, w := range t.writes {
		s.seq++
		rec, ok := s.docs[w.path]
		if !ok {
			rec = &record{}
			s.docs[w.path] = rec
		}
		rec.version = s.seq
		rec.data = w.data
		s.collections[parentOf(w.path)] = s.seq
	}
	if len(t.writes) > 0 {
		s.commits++
	}
	return nil
}

func (s *Store) versionOf(path string) uint64 {
	if rec, ok := s.docs[path]; ok {
		return rec.version
	}
	return 0
}

func (s *Store) exists(path string) bool {
	rec, ok := s.docs[path]
	return ok && rec.data != nil
}

// load decodes the document at path into dst. Caller holds no lock.
func (s *Store) load(path string, dst interface{}) (bool, uint64, error) {
	s.mu.Lock()
	rec, ok := s.docs[path]
	var version uint64
	var data []byte
	if ok {
		version = rec.version
		data = rec.data
	}
	s.mu.Unlock()

	if data == nil {
		return false, version, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, version, errors.Internal("Failed to decode "+path, err)
	}
	return true, version, nil
}

// scan returns the live documents directly under collection, sorted by path.
func (s *Store) scan(collection string) (map[string][]byte, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := collection + "/"
	out := make(map[string][]byte)
	for path, rec := range s.docs {
		if rec.data == nil || !strings.HasPrefix(path, prefix) {
			continue
		}
		if strings.Contains(path[len(prefix):], "/") {
			continue
		}
		out[path] = rec.data
	}
	return out, s.collections[collection]
}

func (s *Store) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	var user entity.User
	found, _, err := s.load(userPath(userID), &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NotFound("User", nil)
	}
	return &user, nil
}

func (s *Store) GetPin(ctx context.Context, pinID string) (*entity.Pin, error) {
	var pin entity.Pin
	found, _, err := s.load(pinPath(pinID), &pin)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NotFound("Pin", nil)
	}
	return &pin, nil
}

func (s *Store) GetRating(ctx context.Context, pinID, ratingID string) (*entity.Rating, error) {
	var rating entity.Rating
	found, _, err := s.load(ratingPath(pinID, ratingID), &rating)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NotFound("Rating", nil)
	}
	return &rating, nil
}

func (s *Store) GetChallenge(ctx context.Context, pinID, challengeID string) (*entity.Challenge, error) {
	var challenge entity.Challenge
	found, _, err := s.load(challengePath(pinID, challengeID), &challenge)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NotFound("Challenge", nil)
	}
	return &challenge, nil
}

func (s *Store) FindChallengeByStatus(ctx context.Context, pinID string, status entity.ChallengeStatus) (*entity.Challenge, error) {
	docs, _ := s.scan(challengesPath(pinID))
	return firstWithStatus(docs, status)
}

func (s *Store) ListChallenges(ctx context.Context, query repository.ChallengeQuery) ([]*entity.Challenge, error) {
	s.mu.Lock()
	var raw [][]byte
	for path, rec := range s.docs {
		parts := strings.Split(path, "/")
		if rec.data == nil || len(parts) != 4 || parts[0] != "pins" || parts[2] != "challenges" {
			continue
		}
		raw = append(raw, rec.data)
	}
	s.mu.Unlock()

	var out []*entity.Challenge
	for _, data := range raw {
		var c entity.Challenge
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, errors.Internal("Failed to decode challenge", err)
		}
		if query.Status != "" && c.Status != query.Status {
			continue
		}
		if query.VotingEndsBefore != nil {
			if c.VotingEndsAt == nil || c.VotingEndsAt.After(*query.VotingEndsBefore) {
				continue
			}
		}
		out = append(out, &c)
	}

	if query.VotingEndsBefore != nil {
		sort.Slice(out, func(i, j int) bool { return out[i].VotingEndsAt.Before(*out[j].VotingEndsAt) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	}
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	docs, _ := s.scan(notificationsPath(userID))
	out := make([]*entity.Notification, 0, len(docs))
	for _, data := range docs {
		var n entity.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, errors.Internal("Failed to decode notification", err)
		}
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListFavoritePinIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	var raw [][]byte
	for path, rec := range s.docs {
		parts := strings.Split(path, "/")
		if rec.data == nil || len(parts) != 4 || parts[0] != "pins" || parts[2] != "favorites" {
			continue
		}
		raw = append(raw, rec.data)
	}
	s.mu.Unlock()

	var pinIDs []string
	for _, data := range raw {
		var f entity.Favorite
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, errors.Internal("Failed to decode favorite", err)
		}
		if f.UserID == userID {
			pinIDs = append(pinIDs, f.PinID)
		}
	}
	sort.Strings(pinIDs)
	return pinIDs, nil
}

func firstWithStatus(docs map[string][]byte, status entity.ChallengeStatus) (*entity.Challenge, error) {
	paths := make([]string, 0, len(docs))
	for path := range docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		var c entity.Challenge
		if err := json.Unmarshal(docs[path], &c); err != nil {
			return nil, errors.Internal("Failed to decode challenge", err)
		}
		if c.Status == status {
			return &c, nil
		}
	}
	return nil, nil
}

func userPath(userID string) string { return "users/" + userID }

func notificationsPath(userID string) string { return userPath(userID) + "/notifications" }

func pinPath(pinID string) string { return "pins/" + pinID }

func ratingPath(pinID, ratingID string) string { return pinPath(pinID) + "/reviews/" + ratingID }

func vouchPath(pinID, voucherID string) string { return pinPath(pinID) + "/vouches/" + voucherID }

func pinReactionPath(pinID, userID string) string { return pinPath(pinID) + "/votes/" + userID }

func favoritePath(pinID, userID string) string { return pinPath(pinID) + "/favorites/" + userID }

func flagPath(pinID, userID string) string { return pinPath(pinID) + "/flags/" + userID }

func challengesPath(pinID string) string { return pinPath(pinID) + "/challenges" }

func challengePath(pinID, challengeID string) string {
	return challengesPath(pinID) + "/" + challengeID
}

func challengeVotePath(pinID, challengeID, voterID string) string {
	return challengePath(pinID, challengeID) + "/votes/" + voterID
}

func parentOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}
