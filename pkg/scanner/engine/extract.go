package engine

import (
	"context"
	"strings"

	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/rs/zerolog/log"
	"github.com/trufflesecurity/trufflehog/v3/pkg/detectors"
)

// claim is a validated candidate in discovery order. Accepted is false when
// the score is under the threshold; the claim still owns its dedup key.
type claim struct {
	finding  types.Finding
	accepted bool
}

// Candidates returns every non-overlapping match of pattern in content.
func Candidates(pattern types.Pattern, content string, source string) []types.Candidate {
	matches := pattern.Matcher.FindAllStringSubmatchIndex(content, -1)
	candidates := make([]types.Candidate, 0, len(matches))

	slots := pattern.CaptureSlots
	if len(slots) == 0 {
		slots = defaultSlots(pattern)
	}

	for _, m := range matches {
		value, valueIndex := firstNonEmptySlot(content, m, slots)
		if value == "" {
			continue
		}
		candidates = append(candidates, types.Candidate{
			RawValue:    value,
			MatchIndex:  m[0],
			ValueIndex:  valueIndex,
			MatchLength: len(value),
			PatternName: pattern.Name,
			Source:      source,
		})
	}
	return candidates
}

func defaultSlots(pattern types.Pattern) []int {
	if pattern.Matcher.NumSubexp() > 0 {
		return []int{1}
	}
	return []int{0}
}

func firstNonEmptySlot(content string, m []int, slots []int) (string, int) {
	for _, slot := range slots {
		start, end := 2*slot, 2*slot+1
		if end >= len(m) || m[start] < 0 {
			continue
		}
		if value := content[m[start]:m[end]]; value != "" {
			return value, m[start]
		}
	}
	return "", -1
}

// extractEndpoints runs the endpoint patterns over one script.
func (e *Engine) extractEndpoints(content string, source string, baseURL string, dedup *Deduplicator, emit func(claim)) {
	for _, pattern := range e.endpointPatterns {
		for _, c := range Candidates(pattern, content, source) {
			value := NormalizeEndpoint(c.RawValue)
			if !ValidEndpoint(value) {
				continue
			}
			if !dedup.Claim(value, source) {
				continue
			}

			methodCtx := Window(content, c.MatchIndex, len(value), methodRadius, methodRadius)
			method := InferMethod(value, methodCtx.Text)

			scoreCtx := Window(content, c.MatchIndex, 0, scoreRadiusBefore, scoreRadiusAfter)
			score := ScoreEndpoint(value, method, scoreCtx.Text)

			emit(claim{
				finding: types.Finding{
					Value:       value,
					Kind:        types.KindEndpoint,
					Method:      method,
					Confidence:  score,
					SourceFile:  source,
					BaseURL:     baseURL,
					PatternName: c.PatternName,
				},
				accepted: score >= e.opts.MinConfidence,
			})
		}
	}
}

// extractSecrets runs the regex secret rules over one resource.
func (e *Engine) extractSecrets(content string, source string, dedup *Deduplicator, emit func(claim)) {
	for _, pattern := range e.secretPatterns {
		for _, c := range Candidates(pattern, content, source) {
			value := NormalizeSecret(c.RawValue)
			if !ValidSecret(value) {
				continue
			}
			if !dedup.Claim(value, source) {
				continue
			}

			ctx := Window(content, c.ValueIndex, c.MatchLength, secretRadius, secretRadius)
			score := ScoreSecret(value, pattern.Confidence, ctx.Text)
			emit(secretClaim(value, source, c.PatternName, score, e.opts.MinConfidence))
		}
	}
}

// extractDetectorHits runs the TruffleHog detectors whose keywords occur in content.
func (e *Engine) extractDetectorHits(ctx context.Context, content string, source string, dedup *Deduplicator, emit func(claim)) {
	if len(e.detectors) == 0 {
		return
	}

	lowered := strings.ToLower(content)
	data := []byte(content)

	for _, detector := range e.detectors {
		if !hasKeyword(lowered, detector) {
			continue
		}

		results, err := detector.FromData(ctx, e.opts.VerifySecrets, data)
		if err != nil {
			log.Debug().Err(err).Str("detector", detectorName(detector)).Str("url", source).Msg("TruffleHog detector failed")
			continue
		}

		for _, result := range results {
			raw := result.Raw
			if len(result.RawV2) > 0 {
				raw = result.RawV2
			}

			confidence, verification := types.ConfidenceVerified, types.VerificationVerified
			if !result.Verified {
				confidence, verification = types.ConfidenceUnverified, types.VerificationUnverified
			}

			value := NormalizeSecret(string(raw))
			if !ValidSecret(value) {
				continue
			}
			if !dedup.Claim(value, source) {
				continue
			}

			index := max(strings.Index(content, value), 0)
			window := Window(content, index, len(value), secretRadius, secretRadius)
			score := ScoreSecret(value, confidence, window.Text)
			if result.Verified {
				score = 100
			}
			hit := secretClaim(value, source, result.DetectorType.String(), score, e.opts.MinConfidence)
			hit.finding.Verification = verification
			emit(hit)
		}
	}
}

func secretClaim(value string, source string, patternName string, score int, minConfidence int) claim {
	return claim{
		finding: types.Finding{
			Value:       value,
			Kind:        types.KindSecret,
			Confidence:  score,
			SourceFile:  source,
			PatternName: patternName,
		},
		accepted: score >= minConfidence,
	}
}

func hasKeyword(lowered string, detector detectors.Detector) bool {
	keywords := detector.Keywords()
	if len(keywords) == 0 {
		return true
	}
	for _, keyword := range keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func detectorName(detector detectors.Detector) string {
	return detector.Type().String()
}
