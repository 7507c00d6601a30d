package scan

import (
	"context"

	"github.com/CompassSecurity/harleek/internal/cmd/flags"
	"github.com/CompassSecurity/harleek/pkg/config"
	"github.com/CompassSecurity/harleek/pkg/localfs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type FilesScanOptions struct {
	config.ScanOptions
	Archives        bool
	MaxArchiveDepth int
}

func NewFilesCmd() *cobra.Command {
	options := FilesScanOptions{
		ScanOptions:     config.DefaultScanOptions(),
		Archives:        localfs.DefaultOptions().Archives,
		MaxArchiveDepth: localfs.DefaultMaxArchiveDepth,
	}

	filesCmd := &cobra.Command{
		Use:   "files <path>...",
		Short: "Scan saved files, directories and archives",
		Long: `Scan files on disk, e.g. a mirrored web root or the sources saved from the browser.
Directories are walked recursively, dependency folders such as node_modules are skipped. Archives (zip, tar, 7z, ...) are extracted to a temporary directory and their members are scanned.`,
		Example: `
# Scan a mirrored site
harleek scan files ./mirror/app.example.com

# Scan a downloaded bundle without unpacking archives
harleek scan files bundle.zip static/ --archives=false
		`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			finish(scanFiles(cmd.Context(), args, options))
		},
	}

	flags.AddScanFlags(filesCmd, &options.ScanOptions)
	filesCmd.Flags().BoolVarP(&options.Archives, "archives", "a", options.Archives, "Extract archives and scan their members")
	filesCmd.Flags().IntVarP(&options.MaxArchiveDepth, "max-archive-depth", "", options.MaxArchiveDepth, "Maximum depth of nested archives")

	return filesCmd
}

// scanFiles removes extracted archives before returning, also on errors.
func scanFiles(ctx context.Context, paths []string, options FilesScanOptions) error {
	r, err := newRunner("files", options.ScanOptions)
	if err != nil {
		return err
	}

	collection, err := localfs.Collect(paths, localfs.Options{
		Archives:        options.Archives,
		MaxArchiveDepth: options.MaxArchiveDepth,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := collection.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed removing extracted archives")
		}
	}()

	return execute(ctx, r, collection.Resources)
}
