package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/CompassSecurity/harleek/pkg/config"
	"github.com/CompassSecurity/harleek/pkg/scan/runner"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewScanRootCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [command]",
		Short: "Extract endpoints and secrets from captured resources",
		Long: `Extract candidate API endpoints and leaked secrets from JavaScript bundles and other text resources.

Every finding is scored between 0 and 100. Findings below --min-confidence are dropped, the rest are logged as hits ordered by confidence.`,
	}

	scanCmd.AddCommand(NewHarCmd())
	scanCmd.AddCommand(NewUrlsCmd())
	scanCmd.AddCommand(NewFilesCmd())

	return scanCmd
}

// newRunner validates the options and compiles the patterns. Commands call it
// before loading resources so a bad flag never leaves temp files behind.
func newRunner(source string, options config.ScanOptions) (*runner.Runner, error) {
	scanOpts, err := runner.InitializeOptions(source, options)
	if err != nil {
		return nil, fmt.Errorf("invalid scan options: %w", err)
	}
	return runner.New(scanOpts)
}

// execute runs the scan; Ctrl+C cancels pending fetches.
func execute(ctx context.Context, r *runner.Runner, resources []types.Resource) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	_, err := r.Run(ctx, resources)
	return err
}

func finish(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}
	log.Info().Msg("Scan Finished, Bye Bye 🏳️‍🌈🔥")
}
