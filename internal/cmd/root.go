// Package cmd assembles the harleek command tree.
package cmd

import (
	"github.com/CompassSecurity/harleek/internal/cmd/common"
	"github.com/CompassSecurity/harleek/internal/cmd/rules"
	"github.com/CompassSecurity/harleek/internal/cmd/scan"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "harleek",
		Short:   "💎 Extract API endpoints and secrets from captured web traffic 💎",
		Long:    `Harleek scans HAR captures, URL lists and saved script bundles for API endpoints and leaked secrets and ranks them by confidence.`,
		Version: common.Version,
	}

	rootCmd.AddCommand(scan.NewScanRootCmd())
	rootCmd.AddCommand(rules.NewRulesRootCmd())

	common.SetupPersistentPreRun(rootCmd)
	common.AddCommonFlags(rootCmd)

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	return rootCmd
}
