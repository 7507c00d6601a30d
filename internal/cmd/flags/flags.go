// Package flags binds the scan flags shared by all scan subcommands.
package flags

import (
	"github.com/CompassSecurity/harleek/pkg/config"
	"github.com/spf13/cobra"
)

// AddScanFlags registers the engine, rules and output flags on cmd.
func AddScanFlags(cmd *cobra.Command, opts *config.ScanOptions) {
	cmd.Flags().StringSliceVarP(&opts.Kinds, "kinds", "k", opts.Kinds, "Artifact kinds to extract: endpoint, secret")
	cmd.Flags().IntVarP(&opts.MinConfidence, "min-confidence", "m", opts.MinConfidence, "Drop findings scoring below this value (0-100)")
	cmd.Flags().IntVarP(&opts.MaxScanGoRoutines, "threads", "", opts.MaxScanGoRoutines, "Number of resources scanned in parallel")
	cmd.Flags().StringVarP(&opts.MaxContentSize, "max-content-size", "", opts.MaxContentSize, "Skip resources larger than this, e.g. 5MB; 0 disables the limit")
	cmd.Flags().StringSliceVarP(&opts.ConfidenceFilter, "confidence", "", opts.ConfidenceFilter, "Keep only secret rules with these confidence labels: high, medium, low, high-verified, trufflehog-unverified")
	cmd.Flags().StringVarP(&opts.RulesFile, "rules", "r", opts.RulesFile, "Additional secrets-patterns-db rules file")
	cmd.Flags().BoolVarP(&opts.TruffleHog, "trufflehog", "", opts.TruffleHog, "Run the TruffleHog detectors on secret-eligible content")
	cmd.Flags().BoolVarP(&opts.TruffleHogVerification, "verify", "", opts.TruffleHogVerification, "Verify TruffleHog hits and drop unverified ones, implies --trufflehog")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", opts.OutputFile, "Write findings to this file")
	cmd.Flags().StringVarP(&opts.OutputFormat, "format", "f", opts.OutputFormat, "Result file format: json, yaml")
}
