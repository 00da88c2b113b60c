package wind

import (
	"sort"
	"time"
)

// AsOf returns the latest observation at or before t from a series sorted by
// time ascending. The second return is false when every observation is later
// than t (or the series is empty).
func AsOf(series []Observation, t time.Time) (Observation, bool) {
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Time.After(t)
	})
	if idx == 0 {
		return Observation{}, false
	}
	return series[idx-1], true
}
