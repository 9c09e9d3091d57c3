package service

import (
	"sort"

	"hitrank/internal/domain/entity"
)

const topTagCount = 3

// Scores are the raw 1-5 values of one rating.
type Scores struct {
	Technicality int
	Exposure     int
	Entry        int
}

func (s Scores) Valid() bool {
	return inRange(s.Technicality) && inRange(s.Exposure) && inRange(s.Entry)
}

func inRange(v int) bool {
	return v >= entity.MinDimensionScore && v <= entity.MaxDimensionScore
}

// ApplyRating folds one weighted rating into the pin's running aggregates.
// The result is independent of the order ratings are applied in.
func ApplyRating(pin *entity.Pin, scores Scores, weight float64) {
	applyDimension(&pin.Technicality, scores.Technicality, weight)
	applyDimension(&pin.Exposure, scores.Exposure, weight)
	applyDimension(&pin.Entry, scores.Entry, weight)
	pin.Difficulty = (pin.Technicality.Average + pin.Exposure.Average + pin.Entry.Average) / 3
	pin.RatingCount++
}

func applyDimension(d *entity.DimensionStats, raw int, weight float64) {
	d.WeightedSum += float64(raw) * weight
	d.TotalWeight += weight
	if d.TotalWeight <= 0 {
		d.Average = float64(raw)
		return
	}
	d.Average = d.WeightedSum / d.TotalWeight
}

// DisplayDifficulty rounds the stored difficulty for presentation only.
func DisplayDifficulty(difficulty float64) int {
	return int(difficulty + 0.5)
}

// ApplyTags counts the rating's tags on the pin and recomputes its top tags.
func ApplyTags(pin *entity.Pin, tags []string) {
	if len(tags) == 0 {
		return
	}
	if pin.TagCounts == nil {
		pin.TagCounts = make(map[string]int)
	}
	for _, tag := range tags {
		pin.TagCounts[tag]++
	}
	pin.TopTags = TopTags(pin.TagCounts, topTagCount)
}

// TopTags returns the n most used tags, ties broken alphabetically.
func TopTags(counts map[string]int, n int) []string {
	tags := make([]string, 0, len(counts))
	for tag, count := range counts {
		if count > 0 {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > n {
		tags = tags[:n]
	}
	return tags
}

// NormalizeTags drops duplicates and reports whether every tag is known.
func NormalizeTags(tags []string) ([]string, bool) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !entity.IsObjectiveTag(tag) {
			return nil, false
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out, true
}
