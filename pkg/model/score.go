package model

import "math"

// Final score weights: content is half, each paralinguistic signal a quarter
const (
	weightResponse = 0.5
	weightVoice    = 0.25
	weightBody     = 0.25
)

// DefaultSignalScore is used when the analysis service is unavailable
const DefaultSignalScore = 50.0

const (
	// WeaknessThreshold: final scores strictly below are weaknesses
	WeaknessThreshold = 60.0
	// StrengthThreshold: final scores strictly above are strengths
	StrengthThreshold = 80.0
)

// WeightedFinalScore combines content and paralinguistic scores into the
// final answer score, rounded to two decimals.
func WeightedFinalScore(response, voiceTone, bodyLanguage float64) float64 {
	score := response*weightResponse + voiceTone*weightVoice + bodyLanguage*weightBody
	return Round2(score)
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClassifyScore maps a final score to a memory type. The second return value
// is false for mid-range scores, which are neither weakness nor strength.
func ClassifyScore(finalScore float64) (MemoryType, bool) {
	switch {
	case finalScore < WeaknessThreshold:
		return MemoryWeakness, true
	case finalScore > StrengthThreshold:
		return MemoryStrength, true
	default:
		return "", false
	}
}
