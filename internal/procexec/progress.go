package procexec

import "strings"

const (
	// HeuristicStep is the progress increment granted per marker-bearing chunk.
	HeuristicStep = 0.002
	// HeuristicCeiling caps progress earned from output heuristics; only an
	// explicit phase completion moves progress past it.
	HeuristicCeiling = 0.95
)

var progressMarkers = []string{"%", "]", "Saving #", "Item complete"}

// Classifier inspects a chunk of stdout and returns a progress delta when the
// chunk indicates forward motion.
type Classifier func(chunk string) (float64, bool)

// MarkerClassifier reports HeuristicStep for any chunk containing one of the
// decoder's progress markers.
func MarkerClassifier(chunk string) (float64, bool) {
	for _, marker := range progressMarkers {
		if strings.Contains(chunk, marker) {
			return HeuristicStep, true
		}
	}
	return 0, false
}
