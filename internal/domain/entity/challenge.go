package entity

import (
	"time"
)

type ChallengeStatus string

const (
	ChallengePending    ChallengeStatus = "pending"
	ChallengeVoting     ChallengeStatus = "voting"
	ChallengeSuccessful ChallengeStatus = "successful"
	ChallengeFailed     ChallengeStatus = "failed"
	ChallengeCancelled  ChallengeStatus = "cancelled"
	ChallengeRejected   ChallengeStatus = "rejected"
)

func (s ChallengeStatus) IsTerminal() bool {
	switch s {
	case ChallengeSuccessful, ChallengeFailed, ChallengeCancelled, ChallengeRejected:
		return true
	}
	return false
}

func (s ChallengeStatus) Valid() bool {
	return s == ChallengePending || s == ChallengeVoting || s.IsTerminal()
}

// Challenge is an ownership contest on a pin. Media references are
// snapshotted at submission.
type Challenge struct {
	ID                 string          `json:"id" firestore:"id"`
	PinID              string          `json:"pin_id" firestore:"pinId"`
	ChallengerID       string          `json:"challenger_id" firestore:"challengerId"`
	ChallengerMediaRef string          `json:"challenger_media_ref" firestore:"challengerMediaUrl"`
	OriginalMediaRef   string          `json:"original_media_ref" firestore:"originalMediaUrl"`
	OriginalOwnerID    string          `json:"original_owner_id" firestore:"originalSubmitterId"`
	Status             ChallengeStatus `json:"status" firestore:"status"`
	Upvotes            int             `json:"upvotes" firestore:"upvotes"`
	Downvotes          int             `json:"downvotes" firestore:"downvotes"`

	SubmittedAt  time.Time  `json:"submitted_at" firestore:"submittedAt"`
	VotingEndsAt *time.Time `json:"voting_ends_at,omitempty" firestore:"votingEnds,omitempty"`
	ReviewedBy   string     `json:"reviewed_by,omitempty" firestore:"reviewedBy,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty" firestore:"resolvedAt,omitempty"`
	ResolvedBy   string     `json:"resolved_by,omitempty" firestore:"resolvedBy,omitempty"`
}

type VoteChoice string

const (
	// VoteKeep supports the current king.
	VoteKeep VoteChoice = "up"
	// VoteDethrone supports the challenger.
	VoteDethrone VoteChoice = "down"
)

func (v VoteChoice) Valid() bool {
	return v == VoteKeep || v == VoteDethrone
}

// ChallengeVote is keyed by (ChallengeID, VoterID) and immutable.
type ChallengeVote struct {
	PinID       string     `json:"pin_id" firestore:"pinId"`
	ChallengeID string     `json:"challenge_id" firestore:"challengeId"`
	VoterID     string     `json:"voter_id" firestore:"userId"`
	Vote        VoteChoice `json:"vote" firestore:"vote"`
	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
}
