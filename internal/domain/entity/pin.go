package entity

import (
	"time"
)

// DimensionStats is the running weighted aggregate of one difficulty
// dimension. TotalWeight only grows.
type DimensionStats struct {
	WeightedSum float64 `json:"weighted_sum" firestore:"weightedSum"`
	TotalWeight float64 `json:"total_weight" firestore:"totalWeight"`
	Average     float64 `json:"average" firestore:"average"`
}

// Pin is a rated feature whose ownership ("king of the hill") can be contested.
type Pin struct {
	ID              string    `json:"id" firestore:"id"`
	OwnerID         string    `json:"owner_id" firestore:"createdBy"`
	OriginalOwnerID string    `json:"original_owner_id" firestore:"originalCreatedBy"`
	ResortID        string    `json:"resort_id" firestore:"resortId"`
	FeatureName     string    `json:"feature_name" firestore:"featureName"`
	Media           []string  `json:"media" firestore:"media"`
	Location        *GeoPoint `json:"location,omitempty" firestore:"location,omitempty"`

	Technicality DimensionStats `json:"technicality" firestore:"technicality"`
	Exposure     DimensionStats `json:"exposure" firestore:"exposure"`
	Entry        DimensionStats `json:"entry" firestore:"entry"`
	// Difficulty is the exact mean of the three dimension averages.
	Difficulty float64 `json:"difficulty" firestore:"difficulty"`

	RatingCount      int      `json:"rating_count" firestore:"ratingCount"`
	VouchCount       int      `json:"vouch_count" firestore:"vouchCount"`
	OwnershipHistory []string `json:"ownership_history" firestore:"previousKings"`

	LikeCount    int `json:"like_count" firestore:"likeCount"`
	DislikeCount int `json:"dislike_count" firestore:"dislikeCount"`
	FlagCount    int `json:"flag_count" firestore:"flagCount"`

	TagCounts map[string]int `json:"tag_counts" firestore:"tagCounts"`
	TopTags   []string       `json:"top_tags" firestore:"topTags"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// PrimaryMedia is the media reference of the current king, empty if none.
func (p *Pin) PrimaryMedia() string {
	if len(p.Media) == 0 {
		return ""
	}
	return p.Media[0]
}
