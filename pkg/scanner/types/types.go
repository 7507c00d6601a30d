package types

import (
	"context"
	"regexp"
)

// Kind is the class of artifact a pattern targets.
type Kind string

const (
	KindEndpoint Kind = "endpoint"
	KindSecret   Kind = "secret"
)

// Confidence labels used by secret rules. They mirror the labels of the
// secrets-patterns-db rule file.
const (
	ConfidenceHigh       = "high"
	ConfidenceMedium     = "medium"
	ConfidenceLow        = "low"
	ConfidenceVerified   = "high-verified"
	ConfidenceUnverified = "trufflehog-unverified"
)

// Verification states of TruffleHog detector hits. Regex hits carry none.
const (
	VerificationVerified   = "verified"
	VerificationUnverified = "unverified"
)

// Resource is one captured network exchange. Implementations are owned by the
// host; FetchContent is called at most once per resource per scan and may
// return an empty string when no body is available.
type Resource interface {
	URL() string
	MimeType() string
	FetchContent(ctx context.Context) (string, error)
}

// ProgressFunc receives (processed, total) after each eligible resource.
type ProgressFunc func(processed int, total int)

type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// SecretsPatterns is the on-disk rules file layout.
type SecretsPatterns struct {
	Patterns []PatternElement `json:"patterns" yaml:"patterns"`
}

type PatternElement struct {
	Pattern PatternPattern `json:"pattern" yaml:"pattern"`
}

type PatternPattern struct {
	Name       string `json:"name" yaml:"name"`
	Regex      string `json:"regex" yaml:"regex"`
	Confidence string `json:"confidence" yaml:"confidence"`
}

// Pattern is a compiled extraction pattern. CaptureSlots lists the submatch
// indexes to try in order; the first non-empty one is the candidate value.
type Pattern struct {
	Name         string
	Kind         Kind
	Regex        string
	CaptureSlots []int
	Confidence   string
	Matcher      *regexp.Regexp
}

// Candidate is a raw match before validation and scoring. MatchIndex is the
// start of the whole match, ValueIndex the start of the captured value.
type Candidate struct {
	RawValue    string
	MatchIndex  int
	ValueIndex  int
	MatchLength int
	PatternName string
	Source      string
}

// Context is a bounded window of text around a candidate.
type Context struct {
	Text        string
	StartOffset int
}

// Finding is a scored, validated and deduplicated extraction result.
type Finding struct {
	Value        string `json:"value" yaml:"value"`
	Kind         Kind   `json:"kind" yaml:"kind"`
	Method       string `json:"method,omitempty" yaml:"method,omitempty"`
	Confidence   int    `json:"confidence" yaml:"confidence"`
	SourceFile   string `json:"sourceFile" yaml:"sourceFile"`
	BaseURL      string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	PatternName  string `json:"patternName" yaml:"patternName"`
	// Verification is set on TruffleHog detector hits only.
	Verification string `json:"verification,omitempty" yaml:"verification,omitempty"`
}
