package entity

import (
	"time"
)

// Rating is a write-once rating event. ComputedWeight is snapshotted when the
// rating is submitted and never recomputed.
type Rating struct {
	ID             string    `json:"id" firestore:"id"`
	PinID          string    `json:"pin_id" firestore:"pinId"`
	ReviewerID     string    `json:"reviewer_id" firestore:"userId"`
	Technicality   int       `json:"technicality" firestore:"technicality"`
	Exposure       int       `json:"exposure" firestore:"exposure"`
	Entry          int       `json:"entry" firestore:"entry"`
	ComputedWeight float64   `json:"computed_weight" firestore:"computedWeight"`
	Fall           bool      `json:"fall" firestore:"fall"`
	Comment        string    `json:"comment,omitempty" firestore:"comment,omitempty"`
	Tags           []string  `json:"tags,omitempty" firestore:"tags,omitempty"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}

const (
	MinDimensionScore = 1
	MaxDimensionScore = 5
	MaxRatingTags     = 5
)
