package main

import (
	"github.com/spf13/cobra"

	"github.com/freshtechbro/skillstack/pkg/presenter"
	"github.com/freshtechbro/skillstack/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		presenter.Info(version.Get().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
