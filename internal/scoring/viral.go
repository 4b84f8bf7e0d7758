// Package scoring estimates how likely a post is to spread. The score is a
// pure function of the text, platform and declared hooks.
package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf16"

	"synapse/internal/types"
)

const baseScore = 50.0

// optimalLength is the ideal post length per platform, in UTF-16 units.
var optimalLength = map[types.Platform]float64{
	types.PlatformX:         240,
	types.PlatformLinkedIn:  1000,
	types.PlatformFacebook:  500,
	types.PlatformInstagram: 1500,
	types.PlatformPinterest: 400,
}

// TriggerWeights is the bonus per psychological trigger. Unknown triggers earn defaultBonus.
var TriggerWeights = map[string]float64{
	"curiosity_gap":     15,
	"social_proof":      12,
	"scarcity":          14,
	"authority":         10,
	"novelty":           13,
	"fomo":              16,
	"loss_aversion":     11,
	"aspiration":        12,
	"nostalgia":         9,
	"surprise":          14,
	"controversy":       18,
	"pattern_interrupt": 15,
	"storytelling":      13,
	"reciprocity":       10,
	"bandwagon":         11,
	"anchoring":         9,
	"contrast":          12,
	"exclusivity":       14,
	"urgency":           13,
	"humor":             12,
	"empathy":           11,
	"fear":              10,
	"joy":               13,
	"anger":             8,
	"commitment":        9,
}

// PatternWeights is the bonus for a viral hook pattern. Unknown patterns earn defaultBonus.
var PatternWeights = map[string]float64{
	"question_hook":       8,
	"statistic_hook":      10,
	"story_hook":          12,
	"controversy_hook":    15,
	"prediction_hook":     9,
	"secret_hook":         11,
	"mistake_hook":        8,
	"transformation_hook": 13,
}

const defaultBonus = 5.0

var platformMultiplier = map[types.Platform]float64{
	types.PlatformX:         1.2,
	types.PlatformLinkedIn:  1.1,
	types.PlatformFacebook:  1.0,
	types.PlatformInstagram: 1.15,
	types.PlatformPinterest: 0.95,
}

var (
	emotionalWords = []string{"amazing", "incredible", "shocking", "revolutionary", "breakthrough", "secret", "exclusive"}
	ctaWords       = []string{"comment", "share", "tag", "save", "click", "join", "follow", "subscribe"}
	hashtagRe      = regexp.MustCompile(`#\w+`)
)

// ViralScore scores content for platform in [1, 100]. triggers and pattern
// are the hooks the post claims to use; pattern may be empty.
func ViralScore(content string, platform types.Platform, triggers []string, pattern string) int {
	score := baseScore

	if opt, ok := optimalLength[platform]; ok {
		length := float64(len(utf16.Encode([]rune(content))))
		lengthFit := math.Max(0, 100-math.Abs(length-opt)/opt*100)
		score += lengthFit * 0.15
	}

	for _, t := range triggers {
		score += weightOr(TriggerWeights, t)
	}
	if pattern != "" {
		score += weightOr(PatternWeights, pattern)
	}

	if mult, ok := platformMultiplier[platform]; ok {
		score *= mult
	}

	lower := strings.ToLower(content)
	for _, w := range emotionalWords {
		if strings.Contains(lower, w) {
			score += 3
		}
	}
	for _, w := range ctaWords {
		if strings.Contains(lower, w) {
			score += 8
			break
		}
	}

	if platform != types.PlatformLinkedIn {
		n := float64(len(hashtagRe.FindAllString(content, -1)))
		score += math.Max(0, 10-math.Abs(n-optimalHashtags(platform)))
	}

	return Clamp(int(math.Floor(score + 0.5)))
}

func optimalHashtags(p types.Platform) float64 {
	switch p {
	case types.PlatformX:
		return 2
	case types.PlatformInstagram:
		return 10
	default:
		return 3
	}
}

func weightOr(weights map[string]float64, key string) float64 {
	if w, ok := weights[key]; ok && w != 0 {
		return w
	}
	return defaultBonus
}

// Clamp forces a score into [1, 100].
func Clamp(score int) int {
	return min(100, max(1, score))
}

// Valid reports whether a model-reported score is usable as is.
func Valid(score int) bool {
	return score >= 1 && score <= 100
}

// ForPost returns the post's own score when valid, otherwise the heuristic
// score of its primary variant.
func ForPost(p types.Post) int {
	if Valid(p.ViralScore) {
		return p.ViralScore
	}
	return ViralScore(p.VersionA, p.Platform, p.Triggers(), p.ViralPattern)
}
