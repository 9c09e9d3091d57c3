package entity

import (
	"time"
)

type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

func (r Reaction) Valid() bool {
	return r == ReactionLike || r == ReactionDislike
}

// PinReaction is a user's like or dislike of a pin, one per (PinID, UserID).
// Choosing the same reaction again removes it.
type PinReaction struct {
	PinID     string    `json:"pin_id" firestore:"pinId"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Reaction  Reaction  `json:"reaction" firestore:"vote"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// Favorite marks a pin in a user's collection. UserID is stored on the
// document so favorites can be queried across all pins.
type Favorite struct {
	PinID     string    `json:"pin_id" firestore:"pinId"`
	UserID    string    `json:"user_id" firestore:"userId"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// Flag is a user's report of a pin for moderator review.
type Flag struct {
	PinID     string    `json:"pin_id" firestore:"pinId"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Reason    string    `json:"reason" firestore:"reason"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

type GeoPoint struct {
	Lat float64 `json:"lat" firestore:"lat"`
	Lng float64 `json:"lng" firestore:"lng"`
}
