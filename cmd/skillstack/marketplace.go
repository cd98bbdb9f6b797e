package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/freshtechbro/skillstack/pkg/catalog"
	"github.com/freshtechbro/skillstack/pkg/marketplace"
	"github.com/freshtechbro/skillstack/pkg/presenter"
)

type MarketplaceConfig struct {
	PluginsPath  string
	ManifestPath string
	CatalogPath  string
}

func NewMarketplaceConfig() *MarketplaceConfig {
	return &MarketplaceConfig{
		PluginsPath:  viper.GetString("plugins_dir"),
		ManifestPath: viper.GetString("marketplace_file"),
		CatalogPath:  viper.GetString("catalog_file"),
	}
}

var marketplaceCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "Generate and validate the marketplace manifest",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var marketplaceGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate the marketplace manifest from the plugins on disk",
	Long: `Scan the plugins root and rebuild the marketplace manifest from the
plugin manifests found there. Plugins that cannot be indexed are excluded
and reported; the manifest is still written with everything that could be
indexed.

Examples:
  skillstack marketplace generate
  skillstack marketplace generate --plugins-dir plugins --out marketplace.json`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getMarketplaceGenerateConfigFromFlags(cmd)

		cat, err := catalog.Load(config.CatalogPath)
		if err != nil {
			presenter.Error(err, "Failed to load catalog")
			os.Exit(1)
		}

		result, err := marketplace.Generate(cmd.Context(), config.PluginsPath, config.ManifestPath, cat)
		if err != nil {
			presenter.Error(err, "Failed to write marketplace manifest")
			os.Exit(1)
		}

		for _, item := range result.Errors {
			presenter.Fail(item.Plugin, item.Err.Error())
		}
		presenter.Pass(fmt.Sprintf("%d plugins indexed -> %s", len(result.Entries), result.ManifestPath))

		if len(result.Errors) > 0 {
			os.Exit(1)
		}
	},
}

var marketplaceValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Cross-check the marketplace manifest against the plugins on disk",
	Long: `Validate the marketplace manifest: every listed plugin must exist on
disk with a well-formed manifest and valid skills, and every plugin on disk
must be listed. All findings are reported in one pass.

Examples:
  skillstack marketplace validate
  skillstack marketplace validate --manifest marketplace.json`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getMarketplaceValidateConfigFromFlags(cmd)

		report, err := marketplace.Validate(cmd.Context(), config.ManifestPath, config.PluginsPath)
		if err != nil {
			presenter.Error(err, "Failed to validate marketplace manifest")
			os.Exit(1)
		}

		passed, failed := 0, 0
		for _, result := range report.Results {
			if result.OK() {
				presenter.Pass(result.Plugin)
				passed++
				continue
			}

			failed++
			for _, issue := range result.Issues {
				presenter.Fail(result.Plugin, issue)
			}
		}

		for _, issue := range report.Global {
			presenter.Fail("marketplace", issue)
		}

		presenter.Summary(passed, failed)
		if !report.OK() {
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewMarketplaceConfig()

	marketplaceGenerateCmd.Flags().String("plugins-dir", defaults.PluginsPath, "Plugins root directory")
	marketplaceGenerateCmd.Flags().String("out", defaults.ManifestPath, "Marketplace manifest output path")
	marketplaceGenerateCmd.Flags().String("catalog", defaults.CatalogPath, "Catalog file (defaults to the embedded catalog)")

	marketplaceValidateCmd.Flags().String("plugins-dir", defaults.PluginsPath, "Plugins root directory")
	marketplaceValidateCmd.Flags().String("manifest", defaults.ManifestPath, "Marketplace manifest path")

	marketplaceCmd.AddCommand(marketplaceGenerateCmd)
	marketplaceCmd.AddCommand(marketplaceValidateCmd)
	rootCmd.AddCommand(marketplaceCmd)
}

func getMarketplaceGenerateConfigFromFlags(cmd *cobra.Command) *MarketplaceConfig {
	config := NewMarketplaceConfig()
	if path, err := cmd.Flags().GetString("plugins-dir"); err == nil && path != "" {
		config.PluginsPath = path
	}
	if path, err := cmd.Flags().GetString("out"); err == nil && path != "" {
		config.ManifestPath = path
	}
	if path, err := cmd.Flags().GetString("catalog"); err == nil && path != "" {
		config.CatalogPath = path
	}
	return config
}

func getMarketplaceValidateConfigFromFlags(cmd *cobra.Command) *MarketplaceConfig {
	config := NewMarketplaceConfig()
	if path, err := cmd.Flags().GetString("plugins-dir"); err == nil && path != "" {
		config.PluginsPath = path
	}
	if path, err := cmd.Flags().GetString("manifest"); err == nil && path != "" {
		config.ManifestPath = path
	}
	return config
}
