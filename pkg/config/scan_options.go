// Package config holds the scan options shared by all harleek scan commands
// and the helpers validating them.
package config

import (
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
)

// Output formats for result files.
const (
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// ScanOptions is what every scan subcommand binds its flags to.
type ScanOptions struct {
	// Kinds lists the artifact classes to extract.
	Kinds []string
	// MinConfidence drops findings scoring below it.
	MinConfidence int
	// MaxScanGoRoutines is the number of resources scanned in parallel.
	MaxScanGoRoutines int
	// MaxContentSize is a human readable size ("5MB"); larger resources are skipped.
	MaxContentSize string
	// ConfidenceFilter restricts secret rules to these confidence labels.
	ConfidenceFilter []string
	// RulesFile is an additional secrets-patterns-db rules file.
	RulesFile string
	// TruffleHog enables the TruffleHog detectors.
	TruffleHog bool
	// TruffleHogVerification verifies TruffleHog hits, dropping unverified ones.
	TruffleHogVerification bool
	// OutputFile receives the findings when set.
	OutputFile   string
	OutputFormat string
}

func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Kinds:                  []string{string(types.KindEndpoint), string(types.KindSecret)},
		MinConfidence:          30,
		MaxScanGoRoutines:      1,
		MaxContentSize:         "50MB",
		ConfidenceFilter:       []string{},
		TruffleHog:             false,
		TruffleHogVerification: false,
		OutputFormat:           OutputFormatJSON,
	}
}

// Validate checks every option and returns the first problem found.
func (o ScanOptions) Validate() error {
	if _, err := ParseKinds(o.Kinds); err != nil {
		return err
	}
	if err := ValidateMinConfidence(o.MinConfidence); err != nil {
		return err
	}
	if err := ValidateThreadCount(o.MaxScanGoRoutines); err != nil {
		return err
	}
	if _, err := ParseMaxContentSize(o.MaxContentSize); err != nil {
		return err
	}
	if err := ValidateConfidenceFilter(o.ConfidenceFilter); err != nil {
		return err
	}
	return ValidateOutputFormat(o.OutputFormat)
}
