package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// BackfillReport counts the documents a backfill scanned and patched.
type BackfillReport struct {
	UsersScanned int
	UsersPatched int
	PinsScanned  int
	PinsPatched  int
}

type fieldDefault struct {
	path  string
	value func() interface{}
}

var userDefaults = []fieldDefault{
	{"credibilityScore", func() interface{} { return 0.0 }},
	{"resortReputation", func() interface{} { return map[string]interface{}{} }},
	{"vouchesGiven", func() interface{} { return map[string]interface{}{} }},
	{"pinsReviewedCount", func() interface{} { return 0 }},
	{"dethroneSuccessCount", func() interface{} { return 0 }},
	{"dethroneLostCount", func() interface{} { return 0 }},
	{"dethroneAttemptsCount", func() interface{} { return 0 }},
}

var pinDefaults = []fieldDefault{
	{"ratingCount", func() interface{} { return 0 }},
	{"vouchCount", func() interface{} { return 0 }},
	{"likeCount", func() interface{} { return 0 }},
	{"dislikeCount", func() interface{} { return 0 }},
	{"flagCount", func() interface{} { return 0 }},
	{"tagCounts", func() interface{} { return map[string]interface{}{} }},
	{"topTags", func() interface{} { return []string{} }},
	{"previousKings", func() interface{} { return []string{} }},
}

var pinDimensions = []string{"technicality", "exposure", "entry"}

// Backfill adds reputation and aggregate fields missing from user and pin
// documents written before they existed. Present fields are never touched, so
// it is safe to re-run. With dryRun nothing is written.
func Backfill(ctx context.Context, client *firestore.Client, dryRun bool) (*BackfillReport, error) {
	report := &BackfillReport{}
	bw := client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob

	patch := func(collection string, defaults func(map[string]interface{}) []firestore.Update, scanned, patched *int) error {
		iter := client.Collection(collection).Documents(ctx)
		defer iter.Stop()

		for {
			doc, err := iter.Next()
			if stderrors.Is(err, iterator.Done) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("scan %s: %w", collection, err)
			}

			*scanned++
			updates := defaults(doc.Data())
			if len(updates) == 0 {
				continue
			}
			*patched++
			if dryRun {
				continue
			}

			job, err := bw.Update(doc.Ref, updates)
			if err != nil {
				return fmt.Errorf("queue update for %s: %w", doc.Ref.Path, err)
			}
			jobs = append(jobs, job)
		}
	}

	if err := patch(usersCollection, MissingUserFields, &report.UsersScanned, &report.UsersPatched); err != nil {
		bw.End()
		return report, err
	}
	if err := patch(pinsCollection, MissingPinFields, &report.PinsScanned, &report.PinsPatched); err != nil {
		bw.End()
		return report, err
	}

	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return report, err
		}
	}

	return report, nil
}

// MissingUserFields returns updates for the reputation fields absent from a
// user document.
func MissingUserFields(data map[string]interface{}) []firestore.Update {
	return missing(data, userDefaults)
}

// MissingPinFields returns updates for the aggregate fields absent from a pin
// document. A legacy pin's difficulty seeds the average of each missing
// dimension; its weights start at zero so the first rating replaces it.
func MissingPinFields(data map[string]interface{}) []firestore.Update {
	updates := missing(data, pinDefaults)

	if _, ok := data["originalCreatedBy"]; !ok {
		if owner, ok := data["createdBy"].(string); ok && owner != "" {
			updates = append(updates, firestore.Update{Path: "originalCreatedBy", Value: owner})
		}
	}

	legacy := toFloat(data["difficulty"])
	for _, dim := range pinDimensions {
		if _, ok := data[dim]; ok {
			continue
		}
		updates = append(updates, firestore.Update{
			Path: dim,
			Value: map[string]interface{}{
				"weightedSum": 0.0,
				"totalWeight": 0.0,
				"average":     legacy,
			},
		})
	}

	return updates
}

func missing(data map[string]interface{}, defaults []fieldDefault) []firestore.Update {
	var updates []firestore.Update
	for _, d := range defaults {
		if _, ok := data[d.path]; ok {
			continue
		}
		updates = append(updates, firestore.Update{Path: d.path, Value: d.value()})
	}
	return updates
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
