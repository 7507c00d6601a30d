// Package runner drives one scan from parsed command line options to
// reported findings. The source-specific commands only load resources.
package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/CompassSecurity/harleek/pkg/config"
	"github.com/CompassSecurity/harleek/pkg/logging"
	"github.com/CompassSecurity/harleek/pkg/scan/result"
	"github.com/CompassSecurity/harleek/pkg/scanner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// Source names the resource origin in hits and result files.
	Source         string
	Library        scanner.LibraryOptions
	Engine         scanner.Options
	// DropUnverified removes TruffleHog hits the issuing service did not confirm.
	DropUnverified bool
	OutputFile     string
	OutputFormat   string
}

// InitializeOptions validates the command line options and converts them.
func InitializeOptions(source string, opts config.ScanOptions) (Options, error) {
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}

	kinds, err := config.ParseKinds(opts.Kinds)
	if err != nil {
		return Options{}, err
	}
	maxContentSize, err := config.ParseMaxContentSize(opts.MaxContentSize)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Source: source,
		Library: scanner.LibraryOptions{
			RulesFile:        opts.RulesFile,
			ConfidenceFilter: opts.ConfidenceFilter,
			TruffleHog:       opts.TruffleHog || opts.TruffleHogVerification,
		},
		Engine: scanner.Options{
			Kinds:          kinds,
			MinConfidence:  opts.MinConfidence,
			Workers:        opts.MaxScanGoRoutines,
			MaxContentSize: maxContentSize,
			VerifySecrets:  opts.TruffleHogVerification,
		},
		DropUnverified: opts.TruffleHogVerification,
		OutputFile:     opts.OutputFile,
		OutputFormat:   opts.OutputFormat,
	}, nil
}

// Runner owns a compiled engine and the progress of its current scan.
type Runner struct {
	options   Options
	engine    *scanner.Engine
	processed atomic.Int64
	total     atomic.Int64
}

func New(opts Options) (*Runner, error) {
	lib, err := scanner.NewLibrary(opts.Library)
	if err != nil {
		return nil, fmt.Errorf("failed building pattern library: %w", err)
	}

	eng, err := scanner.New(lib, opts.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed creating scan engine: %w", err)
	}

	return &Runner{options: opts, engine: eng}, nil
}

// Run scans the resources, logs every finding as a hit and writes the result
// file when one is configured.
func (r *Runner) Run(ctx context.Context, resources []scanner.Resource) (result.Report, error) {
	r.processed.Store(0)
	r.total.Store(0)
	logging.RegisterStatusHook(r.status)
	defer logging.RegisterStatusHook(nil)

	log.Info().Int("resources", len(resources)).Str("source", r.options.Source).Msg("Scanning resources")
	start := time.Now()

	findings := r.engine.Scan(ctx, resources, r.progress)
	if r.options.DropUnverified {
		findings = dropUnverified(findings)
	}
	result.ReportFindings(findings, result.ReportOptions{Source: r.options.Source})

	report := result.NewReport(r.options.Source, len(resources), findings)
	log.Info().
		Int("endpoints", report.Summary.Endpoints).
		Int("secrets", report.Summary.Secrets).
		Str("duration", time.Since(start).Round(time.Millisecond).String()).
		Msg("Scan finished")

	if r.options.OutputFile != "" {
		if err := result.WriteFile(r.options.OutputFile, r.options.OutputFormat, report); err != nil {
			return report, err
		}
		log.Info().Str("file", r.options.OutputFile).Str("format", r.options.OutputFormat).Msg("Wrote results")
	}

	return report, nil
}

func dropUnverified(findings []scanner.Finding) []scanner.Finding {
	kept := findings[:0]
	for _, finding := range findings {
		if finding.Verification == scanner.VerificationUnverified {
			log.Debug().Str("detector", finding.PatternName).Str("url", finding.SourceFile).Msg("Dropped unverified TruffleHog hit")
			continue
		}
		kept = append(kept, finding)
	}
	return kept
}

func (r *Runner) progress(processed int, total int) {
	r.processed.Store(int64(processed))
	r.total.Store(int64(total))
	log.Debug().Int("processed", processed).Int("total", total).Msg("Progress")
}

func (r *Runner) status() *zerolog.Event {
	return log.Info().Int64("processed", r.processed.Load()).Int64("total", r.total.Load())
}
