package entity

// ObjectiveTags are the feature types a rating may be tagged with.
var ObjectiveTags = []string{
	"Cliff",
	"Jump",
	"Drop",
	"Chute",
	"Side-Hit",
	"Pillow Line",
	"Tree Tap",
	"Rail",
	"Box",
	"Gap",
	"Technical",
	"Natural Feature",
	"Man-Made",
	"Hiking Required",
}

var objectiveTagSet = func() map[string]bool {
	set := make(map[string]bool, len(ObjectiveTags))
	for _, t := range ObjectiveTags {
		set[t] = true
	}
	return set
}()

func IsObjectiveTag(tag string) bool {
	return objectiveTagSet[tag]
}
