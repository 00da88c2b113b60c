package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRangeRFC3339(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/events?from=2026-03-01T10:00:00Z&to=2026-03-01T12:00:00Z", nil)

	from, to, err := timeRange(r)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), to)
}

func TestTimeRangeUnixSeconds(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/events?from=1740000000&to=1740003600", nil)

	from, to, err := timeRange(r)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1740000000, 0).UTC(), from)
	assert.Equal(t, time.Unix(1740003600, 0).UTC(), to)
}

func TestTimeRangeDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/events", nil)

	from, to, err := timeRange(r)
	require.NoError(t, err)
	assert.InDelta(t, 24*time.Hour, to.Sub(from), float64(time.Minute))
	assert.WithinDuration(t, time.Now().UTC(), to, time.Minute)
}

func TestTimeRangeInvalid(t *testing.T) {
	for _, q := range []string{"from=yesterday", "to=-5", "from=2026-03-01"} {
		r := httptest.NewRequest("GET", "/api/v1/events?"+q, nil)
		_, _, err := timeRange(r)
		assert.Error(t, err, q)
	}
}
