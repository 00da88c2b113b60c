package wind

import "time"

// Observation is one surface wind report from the ASOS archive
type Observation struct {
	Time         time.Time `json:"time"`
	DirectionDeg float64   `json:"direction_deg"`
	SpeedKts     float64   `json:"speed_kts"`
}
