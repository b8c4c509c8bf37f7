package main

import (
	"fmt"

	"github.com/nulzo/epoch/internal/cli"
	"github.com/nulzo/epoch/internal/config"
	"github.com/spf13/cobra"
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Print the resolved provider identity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		pc, err := config.NewResolverFrom(cfg).Resolve()
		if err != nil {
			fmt.Println(cli.CrossMark(), err)
			return err
		}

		fmt.Println(cli.KeyValue("provider", string(pc.Provider())))
		fmt.Println(cli.KeyValue("model", pc.Model()))
		if c, ok := pc.(config.OpenAICompatibleConfig); ok {
			fmt.Println(cli.KeyValue("base url", c.BaseURL))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providerCmd)
}
