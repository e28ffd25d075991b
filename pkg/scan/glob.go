// KEYS filters key names against a glob pattern; the following module implements glob matching.

package scan

import (
	"fmt"
	"iter"

	"github.com/nobletooth/circle/pkg/utils"
	"v.io/v23/glob"
)

// MatchGlob filters the `names` stream down to the entries whose key matches `pattern`.
func MatchGlob[V any](pattern string, names iter.Seq[utils.Pair[string, V]],
) (iter.Seq[utils.Pair[string, V]], error) {
	parsedPattern, err := glob.Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	matcher := parsedPattern.Head()
	return func(yield func(utils.Pair[string, V]) bool) {
		for pair := range names {
			if matcher.Match(pair.Key) {
				if !yield(pair) {
					return
				}
			}
		}
	}, nil
}
