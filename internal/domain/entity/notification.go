package entity

import (
	"time"
)

const (
	NotificationDethroneApproved = "dethrone_approved"
	NotificationDethroneRejected = "dethrone_rejected"
	NotificationDethroneWon      = "dethrone_won"
	NotificationDethroneFailed   = "dethrone_failed"
	NotificationCrownLost        = "crown_lost"
)

type Notification struct {
	ID          string    `json:"id" firestore:"id"`
	UserID      string    `json:"user_id" firestore:"userId"`
	Type        string    `json:"type" firestore:"type"`
	PinID       string    `json:"pin_id" firestore:"pinId"`
	ChallengeID string    `json:"challenge_id,omitempty" firestore:"challengeId,omitempty"`
	Read        bool      `json:"read" firestore:"read"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
