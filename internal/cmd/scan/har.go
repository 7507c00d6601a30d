package scan

import (
	"context"
	"fmt"

	"github.com/CompassSecurity/harleek/internal/cmd/flags"
	"github.com/CompassSecurity/harleek/pkg/config"
	"github.com/CompassSecurity/harleek/pkg/har"
	"github.com/CompassSecurity/harleek/pkg/scanner/types"
	"github.com/spf13/cobra"
)

type HarScanOptions struct {
	config.ScanOptions
	InlineScripts bool
}

func NewHarCmd() *cobra.Command {
	options := HarScanOptions{ScanOptions: config.DefaultScanOptions()}

	harCmd := &cobra.Command{
		Use:   "har <file.har>...",
		Short: "Scan the responses of HAR captures",
		Long: `Scan the response bodies recorded in HTTP Archive (HAR) files, e.g. exported from the browser developer tools or an intercepting proxy.
Base64 encoded bodies and non UTF-8 charsets are decoded before scanning.`,
		Example: `
# Scan a browser export for endpoints and secrets
harleek scan har app.example.com.har

# Include inline <script> blocks of HTML pages and write the findings to a file
harleek scan har capture.har --inline-scripts -o findings.json

# Only endpoints with a high score
harleek scan har capture.har --kinds endpoint --min-confidence 70
		`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			finish(scanHar(cmd.Context(), args, options))
		},
	}

	flags.AddScanFlags(harCmd, &options.ScanOptions)
	harCmd.Flags().BoolVarP(&options.InlineScripts, "inline-scripts", "", false, "Scan inline <script> blocks of HTML responses as separate resources")

	return harCmd
}

func scanHar(ctx context.Context, paths []string, options HarScanOptions) error {
	r, err := newRunner("har", options.ScanOptions)
	if err != nil {
		return err
	}

	resources := []types.Resource{}
	for _, path := range paths {
		loaded, err := har.Load(path, har.Options{InlineScripts: options.InlineScripts})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		resources = append(resources, loaded...)
	}
	return execute(ctx, r, resources)
}
