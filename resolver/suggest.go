package resolver

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tbxark/formwizard/types"
)

// Suggest returns the option whose label is closest to text, if it is within
// maxDistance edits. Matching ignores case and surrounding space.
func Suggest(options []types.Option, text string, maxDistance int) (types.Option, bool) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" || len(options) == 0 {
		return types.Option{}, false
	}
	best := -1
	bestDist := maxDistance + 1
	for i, o := range options {
		label := strings.ToLower(o.Label)
		if label == needle || strings.ToLower(o.Value) == needle {
			return o, true
		}
		if d := levenshtein.ComputeDistance(needle, label); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return types.Option{}, false
	}
	return options[best], true
}
