package settlement

import (
	"testing"

	"parlayhouse/internal/exchange"

	"github.com/stretchr/testify/assert"
)

func TestFindFill_MatchesByVenueOrderID(t *testing.T) {
	fills := []exchange.Fill{
		{VenueOrderID: "v-1", FilledCount: 2},
		{VenueOrderID: "v-2", FilledCount: 3},
	}

	f, ok := findFill(fills, "v-2")
	assert.True(t, ok)
	assert.Equal(t, 3, f.FilledCount)

	_, ok = findFill(fills, "v-3")
	assert.False(t, ok)

	_, ok = findFill(nil, "v-1")
	assert.False(t, ok)
}
