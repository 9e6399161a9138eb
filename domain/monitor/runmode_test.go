package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRunMode(t *testing.T) {
	tests := []struct {
		input string
		want  RunMode
		ok    bool
	}{
		{"priority", RunModePriority, true},
		{"discovery", RunModeDiscovery, true},
		{"both", RunModeBoth, true},
		{"refresh24h", RunModeRefresh, true},
		{"manual", RunModeManual, true},
		{"refresh-24h", RunModeRefresh, true},
		{"refresh_24h", RunModeRefresh, true},
		{"  Priority ", RunModePriority, true},
		{"nightly", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseRunMode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		input string
		want  Tier
		ok    bool
	}{
		{"teammate", TierTeammate, true},
		{"Influencer", TierInfluencer, true},
		{" ecosystem ", TierEcosystem, true},
		{"vip", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTier(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountersConsistent(t *testing.T) {
	c := Counters{Received: 5, Inserted: 2, Updated: 1, Skipped: 1, Errors: 1}
	assert.True(t, c.Consistent())

	c.Errors++
	assert.False(t, c.Consistent())
}
