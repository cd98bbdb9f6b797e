package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/freshtechbro/skillstack/pkg/logger"
	"github.com/freshtechbro/skillstack/pkg/presenter"
)

var rootCmd = &cobra.Command{
	Use:   "skillstack",
	Short: "Packaging and distribution tools for the design skillstack",
	Long: `skillstack validates skill documents, packages them into distributable
archives, generates plugins and bundles, and maintains the marketplace
manifest that indexes everything.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			return err
		}
		logger.SetLogFormat(viper.GetString("log_format"))
		presenter.SetQuiet(viper.GetBool("quiet"))
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func init() {
	viper.SetEnvPrefix("SKILLSTACK")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./.skillstack")
	viper.AddConfigPath("$HOME/.skillstack")
	_ = viper.ReadInConfig()

	viper.SetDefault("skills_dir", "skills")
	viper.SetDefault("plugins_dir", "plugins")
	viper.SetDefault("marketplace_file", "marketplace.json")
	viper.SetDefault("catalog_file", "")
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("log_format", "fmt")

	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress non-error output")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		presenter.Error(err, "Command failed")
		os.Exit(1)
	}
}
