package timetable

import (
	"strings"
	"unicode/utf8"
)

// DefaultMinContentLength is the length a cell's text must exceed before it
// is read as a scheduled class. Placeholder cells ("-", "free", "") stay
// under it.
const DefaultMinContentLength = 5

// Classifier decides from raw cell text whether a slot is occupied.
type Classifier interface {
	Classify(raw string) (content string, occupied bool)
}

// LengthThresholdClassifier marks a slot occupied when its normalized text is
// longer than MinLength runes.
type LengthThresholdClassifier struct {
	MinLength int
}

// DefaultClassifier is the length heuristic with the default threshold.
var DefaultClassifier Classifier = LengthThresholdClassifier{MinLength: DefaultMinContentLength}

// Classify implements Classifier.
func (c LengthThresholdClassifier) Classify(raw string) (string, bool) {
	content := CollapseSpace(raw)
	return content, utf8.RuneCountInString(content) > c.MinLength
}

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NewEntry classifies raw cell text into an entry for slot.
func NewEntry(c Classifier, slot, raw string) Entry {
	content, occupied := c.Classify(raw)
	return Entry{TimeSlot: slot, Content: content, Occupied: occupied}
}
