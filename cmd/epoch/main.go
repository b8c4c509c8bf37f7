package main

import (
	"fmt"
	"os"

	"github.com/nulzo/epoch/internal/platform/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "epoch",
	Short: "Epoch - structured generation gateway for the Epoch simulation",
	Long: `Epoch exposes one LLM backend, chosen by LLM_PROVIDER, through a uniform
structured-JSON contract.

Supported providers: gemini, lm_studio, lm_proxy, openrouter.
Settings are read from the environment, a .env file or config.yaml.`,
	SilenceUsage: true,
}

func main() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
