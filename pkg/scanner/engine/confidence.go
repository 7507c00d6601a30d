package engine

import (
	"math"
	"regexp"
	"strings"

	"github.com/CompassSecurity/harleek/pkg/scanner/types"
)

var (
	restNounRegex    = regexp.MustCompile(`/(users|auth|login|posts|products|orders)`)
	assetSuffixRegex = regexp.MustCompile(`(?i)\.(js|css|png|jpg|jpeg|gif|svg|ico|woff|ttf|eot)$`)

	credentialKeywordRegex = regexp.MustCompile(`(?i)key|secret|token|passw|auth|credential`)
	placeholderRegex       = regexp.MustCompile(`(?i)example|x{4,}|your_|changeme|dummy|sample|<[^>]*>|\$\{[^}]*\}`)
)

// minEntropy is the Shannon entropy (bits per byte) below which a low or
// medium rule hit is considered a likely false positive.
const minEntropy = 3.0

// ScoreEndpoint rates how likely value is a real API endpoint.
func ScoreEndpoint(value string, method string, context string) int {
	score := 50

	if strings.HasPrefix(value, "/api/") {
		score += 30
	}
	if strings.HasPrefix(value, "/v1/") || strings.HasPrefix(value, "/v2/") {
		score += 25
	}
	if strings.EqualFold(value, "/graphql") || strings.EqualFold(value, "/gql") {
		score += 30
	}
	if method != "GET" || strings.Contains(context, "method") {
		score += 15
	}
	if strings.ContainsAny(value, "{:") {
		score += 10
	}
	if restNounRegex.MatchString(value) {
		score += 15
	}
	if strings.HasPrefix(value, "http") {
		score += 20
	}
	if len(value) < 4 {
		score -= 20
	}
	if !strings.Contains(value, "/") {
		score -= 15
	}
	if assetSuffixRegex.MatchString(value) {
		score -= 40
	}

	return clamp(score)
}

// ScoreSecret rates a secret hit from the confidence label of the rule that
// produced it and the text around it.
func ScoreSecret(value string, confidence string, context string) int {
	score := baseSecretScore(confidence)

	if credentialKeywordRegex.MatchString(context) {
		score += 10
	}
	if placeholderRegex.MatchString(value) {
		score -= 25
	}
	if (confidence == types.ConfidenceLow || confidence == types.ConfidenceMedium) && ShannonEntropy(value) < minEntropy {
		score -= 15
	}

	return clamp(score)
}

func baseSecretScore(confidence string) int {
	switch confidence {
	case types.ConfidenceVerified:
		return 100
	case types.ConfidenceHigh:
		return 80
	case types.ConfidenceUnverified:
		return 70
	case types.ConfidenceMedium:
		return 60
	case types.ConfidenceLow:
		return 40
	}
	return 50
}

// ShannonEntropy returns the entropy of s in bits per byte.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}

	entropy := 0.0
	n := float64(len(s))
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func clamp(score int) int {
	return max(0, min(100, score))
}
