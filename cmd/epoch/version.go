package main

import (
	"fmt"

	"github.com/nulzo/epoch/internal/cli"
	"github.com/nulzo/epoch/internal/version"
	"github.com/spf13/cobra"
)

var checkUpdates bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally checking for a newer release",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Println(version.Version)
		if !checkUpdates {
			return nil
		}

		u, err := version.NewChecker().Check(cmd.Context(), version.Version)
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		if u.Available {
			fmt.Println(cli.Arrow(), cli.KeyValue("update", fmt.Sprintf("%s is available (running %s)", u.Latest, u.Current)))
		} else {
			fmt.Println(cli.CheckMark(), "up to date")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&checkUpdates, "check", false, "Compare against the latest GitHub release")
}
