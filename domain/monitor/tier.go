package monitor

import "strings"

// Tier classifies a watched account.
type Tier string

// Tier values.
const (
	TierTeammate   Tier = "teammate"
	TierInfluencer Tier = "influencer"
	TierEcosystem  Tier = "ecosystem"
)

// ParseTier lower-cases and validates a tier value. Invalid or empty input
// is reported as absent; the caller decides whether absence is fatal.
func ParseTier(raw string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierTeammate:
		return TierTeammate, true
	case TierInfluencer:
		return TierInfluencer, true
	case TierEcosystem:
		return TierEcosystem, true
	default:
		return "", false
	}
}
