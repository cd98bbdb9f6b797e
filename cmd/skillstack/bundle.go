package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/freshtechbro/skillstack/pkg/catalog"
	"github.com/freshtechbro/skillstack/pkg/plugins"
	"github.com/freshtechbro/skillstack/pkg/presenter"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Generate bundle plugins that combine multiple skills",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var bundleGenerateCmd = &cobra.Command{
	Use:   "generate [bundle-name]",
	Short: "Generate a bundle plugin from its catalog definition",
	Long: `Generate a bundle plugin combining the skills listed in the catalog:
all member skills, their commands prefixed with the owning skill id, member
agents plus an integration agent, and the bundle archive.

Examples:
  skillstack bundle generate core-3d-animation
  skillstack bundle generate --all`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getPluginGenerateConfigFromFlags(cmd)

		cat, err := catalog.Load(config.CatalogPath)
		if err != nil {
			presenter.Error(err, "Failed to load catalog")
			os.Exit(1)
		}
		generator := plugins.NewGenerator(config.SkillsPath, config.PluginsPath, cat)

		if config.All {
			generateAllBundlesCmd(cmd.Context(), generator, cat)
			return
		}

		if len(args) != 1 {
			cmd.Help()
			os.Exit(1)
		}

		result, err := generator.GenerateBundle(cmd.Context(), args[0])
		if err != nil {
			presenter.Fail(args[0], err.Error())
			os.Exit(1)
		}
		presenter.Pass(fmt.Sprintf("%s (%d skills) -> %s", result.Name, len(result.Skills), result.Archive))
	},
}

func init() {
	defaults := NewPluginGenerateConfig()
	bundleGenerateCmd.Flags().Bool("all", defaults.All, "Generate every bundle defined in the catalog")
	bundleGenerateCmd.Flags().String("path", defaults.SkillsPath, "Skills root directory")
	bundleGenerateCmd.Flags().String("plugins-dir", defaults.PluginsPath, "Plugins output root directory")
	bundleGenerateCmd.Flags().String("catalog", defaults.CatalogPath, "Catalog file (defaults to the embedded catalog)")

	bundleCmd.AddCommand(bundleGenerateCmd)
	rootCmd.AddCommand(bundleCmd)
}

func generateAllBundlesCmd(ctx context.Context, generator *plugins.Generator, cat *catalog.Catalog) {
	names := make([]string, 0, len(cat.Bundles))
	for name := range cat.Bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	passed, failed := 0, 0
	for _, name := range names {
		result, err := generator.GenerateBundle(ctx, name)
		if err != nil {
			presenter.Fail(name, err.Error())
			failed++
			continue
		}

		presenter.Pass(fmt.Sprintf("%s (%d skills) -> %s", result.Name, len(result.Skills), result.Archive))
		passed++
	}

	presenter.Summary(passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
