package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPingValid(t *testing.T) {
	valid := Ping{FRID: "abc123", Lat: 43.63, Lon: 1.36, Time: 1000}
	assert.True(t, valid.Valid())

	noID := valid
	noID.FRID = ""
	assert.False(t, noID.Valid())

	noTime := valid
	noTime.Time = 0
	assert.False(t, noTime.Valid())

	badLat := valid
	badLat.Lat = 91
	assert.False(t, badLat.Valid())

	badLon := valid
	badLon.Lon = -181
	assert.False(t, badLon.Valid())
}

func TestPingTimestamp(t *testing.T) {
	p := Ping{Time: 1740000000}
	assert.Equal(t, time.Unix(1740000000, 0).UTC(), p.Timestamp())
	assert.Equal(t, time.UTC, p.Timestamp().Location())
}

func TestFeedFlightToPing(t *testing.T) {
	f := FeedFlight{
		ID:          "abc123",
		Heading:     142,
		OnGround:    1,
		Lat:         43.63,
		Lon:         1.36,
		Time:        1000,
		AirlineIATA: "AF",
	}

	p := f.ToPing()
	assert.Equal(t, "abc123", p.FRID)
	assert.True(t, p.OnGround)
	assert.Equal(t, 142, p.Heading)
	assert.Equal(t, "AF", p.AirlineIATA)
}

func TestFeedFlightToPingNormalizesHeading(t *testing.T) {
	over := FeedFlight{ID: "a", Heading: 365}
	assert.Equal(t, 5, over.ToPing().Heading)

	negative := FeedFlight{ID: "a", Heading: -10}
	assert.Equal(t, 350, negative.ToPing().Heading)
}
