package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/blagnacoscope/blagnacoscope/internal/tracker"
)

// Segmenter splits each aircraft's ping history into contiguous sub-flights
type Segmenter struct {
	gap time.Duration
}

// NewSegmenter creates a segmenter that starts a new sub-flight whenever the
// time between consecutive pings exceeds gap. A delta exactly equal to the
// gap stays in the same sub-flight.
func NewSegmenter(gap time.Duration) *Segmenter {
	return &Segmenter{gap: gap}
}

// Segment groups pings by aircraft and splits each group at gaps. Sub-flight
// IDs are "{aircraft}_{seq}" with seq counted per aircraft from zero.
// Output is ordered by aircraft ID then sequence so repeated runs over the
// same data produce identical results.
func (s *Segmenter) Segment(pings []tracker.Ping) []SubFlight {
	byAircraft := make(map[string][]tracker.Ping)
	for _, p := range pings {
		byAircraft[p.FRID] = append(byAircraft[p.FRID], p)
	}

	aircraftIDs := make([]string, 0, len(byAircraft))
	for id := range byAircraft {
		aircraftIDs = append(aircraftIDs, id)
	}
	sort.Strings(aircraftIDs)

	gapSecs := int64(s.gap / time.Second)

	var subFlights []SubFlight
	for _, id := range aircraftIDs {
		group := byAircraft[id]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Time < group[j].Time
		})

		seq := 0
		current := SubFlight{
			ID:         fmt.Sprintf("%s_%d", id, seq),
			AircraftID: id,
			Seq:        seq,
		}
		for i, p := range group {
			if i > 0 && p.Time-group[i-1].Time > gapSecs {
				subFlights = append(subFlights, current)
				seq++
				current = SubFlight{
					ID:         fmt.Sprintf("%s_%d", id, seq),
					AircraftID: id,
					Seq:        seq,
				}
			}
			current.Pings = append(current.Pings, p)
		}
		if len(current.Pings) > 0 {
			subFlights = append(subFlights, current)
		}
	}

	return subFlights
}
