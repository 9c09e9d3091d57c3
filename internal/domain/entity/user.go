package entity

import (
	"time"
)

const RoleAdmin = "admin"

type User struct {
	ID       string `json:"id" firestore:"id"`
	Username string `json:"username" firestore:"username"`
	Role     string `json:"role,omitempty" firestore:"role,omitempty"`

	// Reputation ledger. Every score is >= 0.
	GlobalCredibility float64            `json:"credibility_score" firestore:"credibilityScore"`
	ResortReputation  map[string]float64 `json:"resort_reputation" firestore:"resortReputation"`
	// VouchesGiven counts vouches this user has given to each beneficiary.
	// It is never decremented, so re-vouching the same owner keeps decaying.
	VouchesGiven map[string]int `json:"vouches_given" firestore:"vouchesGiven"`

	ReviewCount           int `json:"pins_reviewed_count" firestore:"pinsReviewedCount"`
	DethroneSuccessCount  int `json:"dethrone_success_count" firestore:"dethroneSuccessCount"`
	DethroneLostCount     int `json:"dethrone_lost_count" firestore:"dethroneLostCount"`
	DethroneAttemptsCount int `json:"dethrone_attempts_count" firestore:"dethroneAttemptsCount"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// ReputationAt returns the user's reputation at a resort, 0 when unknown.
func (u *User) ReputationAt(resortID string) float64 {
	if u.ResortReputation == nil {
		return 0
	}
	return u.ResortReputation[resortID]
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
