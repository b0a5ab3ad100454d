package verification

// Score thresholds and weights. These are load-bearing for downstream
// consumers that bucket on exact values; do not tune without coordinating.
const (
	identityLengthThreshold = 10
	needsLengthThreshold    = 5
	componentWeight         = 50
	maxScore                = 100
)

// eligibilityScore awards componentWeight for each attribute whose decrypted
// length clears its threshold, capped at maxScore.
func eligibilityScore(identity, needs []byte) int {
	score := 0
	if len(identity) > identityLengthThreshold {
		score += componentWeight
	}
	if len(needs) > needsLengthThreshold {
		score += componentWeight
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}

// priorityScore is the percentage of positions where the decrypted needs and
// resources bytes agree, over the length of needs. Positions beyond the
// shorter input never match.
func priorityScore(needs, resources []byte) int {
	matches := 0
	for i := 0; i < len(needs) && i < len(resources); i++ {
		if needs[i] == resources[i] {
			matches++
		}
	}
	denom := len(needs)
	if denom < 1 {
		denom = 1
	}
	return maxScore * matches / denom
}
