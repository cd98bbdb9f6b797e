package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/freshtechbro/skillstack/pkg/presenter"
	"github.com/freshtechbro/skillstack/pkg/skills"
)

type ValidateConfig struct {
	All  bool
	Path string
}

func NewValidateConfig() *ValidateConfig {
	return &ValidateConfig{
		All:  false,
		Path: viper.GetString("skills_dir"),
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate [skill-dir]",
	Short: "Validate skill metadata and naming rules",
	Long: `Validate one skill directory, or every skill under the skills root
with --all. Each skill's SKILL.md frontmatter is checked against the naming
and content rules; every broken rule is reported.

Examples:
  skillstack validate skills/gsap-scrolltrigger
  skillstack validate --all
  skillstack validate --all --path ./skills`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getValidateConfigFromFlags(cmd)

		if config.All {
			validateAllCmd(config)
			return
		}

		if len(args) != 1 {
			cmd.Help()
			os.Exit(1)
		}
		validateOneCmd(args[0])
	},
}

func init() {
	defaults := NewValidateConfig()
	validateCmd.Flags().Bool("all", defaults.All, "Validate every skill under the skills root")
	validateCmd.Flags().String("path", defaults.Path, "Skills root directory")
	rootCmd.AddCommand(validateCmd)
}

func getValidateConfigFromFlags(cmd *cobra.Command) *ValidateConfig {
	config := NewValidateConfig()
	if all, err := cmd.Flags().GetBool("all"); err == nil {
		config.All = all
	}
	if path, err := cmd.Flags().GetString("path"); err == nil && path != "" {
		config.Path = path
	}
	return config
}

// validateSkillDir checks one skill directory and returns the failure
// reason, or "" when the skill is valid.
func validateSkillDir(dir string) string {
	skill, err := skills.Load(dir)
	if err != nil {
		return err.Error()
	}

	violations := skills.Validate(skill.Metadata(), filepath.Base(dir))
	if len(violations) > 0 {
		return skills.FormatViolations(violations)
	}

	return ""
}

func validateOneCmd(dir string) {
	name := filepath.Base(dir)

	if reason := validateSkillDir(dir); reason != "" {
		presenter.Fail(name, reason)
		os.Exit(1)
	}

	presenter.Pass(name)
}

func validateAllCmd(config *ValidateConfig) {
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
		if reason := validateSkillDir(dir); reason != "" {
			presenter.Fail(entry.Name(), reason)
			failed++
			continue
		}

		presenter.Pass(entry.Name())
		passed++
	}

	presenter.Summary(passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
