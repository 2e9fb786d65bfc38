package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Front office jobs sync engine",
	Long: "Fetches postings from ATS boards, feeds, and aggregators, classifies " +
		"front office finance roles, and syncs them into the jobs table.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSync,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the engine version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("frontoffice-engine " + version)
		},
	})
}
