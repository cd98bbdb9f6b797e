package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/freshtechbro/skillstack/pkg/archive"
	"github.com/freshtechbro/skillstack/pkg/presenter"
)

type PackageConfig struct {
	All  bool
	Path string
	Dest string
}

func NewPackageConfig() *PackageConfig {
	return &PackageConfig{
		All:  false,
		Path: viper.GetString("skills_dir"),
		Dest: "",
	}
}

var packageCmd = &cobra.Command{
	Use:   "package [skill-dir]",
	Short: "Build a distributable archive for a skill",
	Long: `Package a skill directory into a zip archive with SKILL.md at the
archive root. The skill is validated first; an archive is never built from
invalid metadata. The destination defaults to the parent of the skill
directory so earlier archives are never packaged into new ones.

Examples:
  skillstack package skills/threejs-webgl
  skillstack package --all
  skillstack package skills/threejs-webgl --dest dist/`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getPackageConfigFromFlags(cmd)

		if config.All {
			packageAllCmd(config)
			return
		}

		if len(args) != 1 {
			cmd.Help()
			os.Exit(1)
		}

		name := filepath.Base(args[0])
		archivePath, err := archive.BuildSkill(args[0], config.Dest)
		if err != nil {
			presenter.Fail(name, err.Error())
			os.Exit(1)
		}
		presenter.Pass(name + " -> " + archivePath)
	},
}

func init() {
	defaults := NewPackageConfig()
	packageCmd.Flags().Bool("all", defaults.All, "Package every skill under the skills root")
	packageCmd.Flags().String("path", defaults.Path, "Skills root directory")
	packageCmd.Flags().String("dest", defaults.Dest, "Destination directory for archives (defaults to the skill's parent)")
	rootCmd.AddCommand(packageCmd)
}

func getPackageConfigFromFlags(cmd *cobra.Command) *PackageConfig {
	config := NewPackageConfig()
	if all, err := cmd.Flags().GetBool("all"); err == nil {
		config.All = all
	}
	if path, err := cmd.Flags().GetString("path"); err == nil && path != "" {
		config.Path = path
	}
	if dest, err := cmd.Flags().GetString("dest"); err == nil {
		config.Dest = dest
	}
	return config
}

func packageAllCmd(config *PackageConfig) {
	entries, err := os.ReadDir(config.Path)
	if err != nil {
		presenter.Error(err, "Failed to read skills root")
		os.Exit(1)
	}

	passed, failed := 0, 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(config.Path, entry.Name())
		archivePath, err := archive.BuildSkill(dir, config.Dest)
		if err != nil {
			presenter.Fail(entry.Name(), err.Error())
			failed++
			continue
		}

		presenter.Pass(entry.Name() + " -> " + archivePath)
		passed++
	}

	presenter.Summary(passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
