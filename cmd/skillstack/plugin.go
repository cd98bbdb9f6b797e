package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/freshtechbro/skillstack/pkg/catalog"
	"github.com/freshtechbro/skillstack/pkg/plugins"
	"github.com/freshtechbro/skillstack/pkg/presenter"
	"github.com/freshtechbro/skillstack/pkg/skills"
)

type PluginGenerateConfig struct {
	All         bool
	SkillsPath  string
	PluginsPath string
	CatalogPath string
}

func NewPluginGenerateConfig() *PluginGenerateConfig {
	return &PluginGenerateConfig{
		All:         false,
		SkillsPath:  viper.GetString("skills_dir"),
		PluginsPath: viper.GetString("plugins_dir"),
		CatalogPath: viper.GetString("catalog_file"),
	}
}

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Generate individual plugins from skills",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var pluginGenerateCmd = &cobra.Command{
	Use:   "generate [skill-name]",
	Short: "Generate a plugin from a skill",
	Long: `Generate a complete plugin from a skill: the plugin manifest, a copy
of the skill content, derived command files (one per automation script), a
domain agent file, and the plugin archive. Generation is deterministic;
re-running on unchanged input produces byte-identical output.

Examples:
  skillstack plugin generate gsap-scrolltrigger
  skillstack plugin generate --all`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getPluginGenerateConfigFromFlags(cmd)

		generator, err := newGenerator(config.SkillsPath, config.PluginsPath, config.CatalogPath)
		if err != nil {
			presenter.Error(err, "Failed to initialize generator")
			os.Exit(1)
		}

		if config.All {
			generateAllPluginsCmd(cmd.Context(), generator, config)
			return
		}

		if len(args) != 1 {
			cmd.Help()
			os.Exit(1)
		}

		result, err := generator.GeneratePlugin(cmd.Context(), args[0])
		if err != nil {
			presenter.Fail(args[0], err.Error())
			os.Exit(1)
		}
		presenter.Pass(fmt.Sprintf("%s (%d commands, %d agents) -> %s", result.Name, len(result.Commands), len(result.Agents), result.Archive))
	},
}

func init() {
	defaults := NewPluginGenerateConfig()
	pluginGenerateCmd.Flags().Bool("all", defaults.All, "Generate plugins for every skill under the skills root")
	pluginGenerateCmd.Flags().String("path", defaults.SkillsPath, "Skills root directory")
	pluginGenerateCmd.Flags().String("plugins-dir", defaults.PluginsPath, "Plugins output root directory")
	pluginGenerateCmd.Flags().String("catalog", defaults.CatalogPath, "Catalog file (defaults to the embedded catalog)")

	pluginCmd.AddCommand(pluginGenerateCmd)
	rootCmd.AddCommand(pluginCmd)
}

func getPluginGenerateConfigFromFlags(cmd *cobra.Command) *PluginGenerateConfig {
	config := NewPluginGenerateConfig()
	if all, err := cmd.Flags().GetBool("all"); err == nil {
		config.All = all
	}
	if path, err := cmd.Flags().GetString("path"); err == nil && path != "" {
		config.SkillsPath = path
	}
	if path, err := cmd.Flags().GetString("plugins-dir"); err == nil && path != "" {
		config.PluginsPath = path
	}
	if path, err := cmd.Flags().GetString("catalog"); err == nil && path != "" {
		config.CatalogPath = path
	}
	return config
}

func newGenerator(skillsPath, pluginsPath, catalogPath string) (*plugins.Generator, error) {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, err
	}
	return plugins.NewGenerator(skillsPath, pluginsPath, cat), nil
}

func generateAllPluginsCmd(ctx context.Context, generator *plugins.Generator, config *PluginGenerateConfig) {
	discovery, err := skills.NewDiscovery(skills.WithSkillDirs(config.SkillsPath))
	if err != nil {
		presenter.Error(err, "Failed to initialize skill discovery")
		os.Exit(1)
	}

	names, err := discovery.ListSkillNames()
	if err != nil {
		presenter.Error(err, "Failed to discover skills")
		os.Exit(1)
	}
	sort.Strings(names)

	passed, failed := 0, 0
	for _, name := range names {
		result, err := generator.GeneratePlugin(ctx, name)
		if err != nil {
			presenter.Fail(name, err.Error())
			failed++
			continue
		}

		presenter.Pass(fmt.Sprintf("%s -> %s", result.Name, result.Archive))
		passed++
	}

	presenter.Summary(passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
