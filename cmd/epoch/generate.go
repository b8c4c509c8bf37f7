package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nulzo/epoch/internal/cli"
	"github.com/nulzo/epoch/internal/llm"
	"github.com/nulzo/epoch/internal/schema"
	"github.com/spf13/cobra"
)

var (
	genPrompt   string
	genSystem   string
	genSchema   string
	genPreset   string
	genMIMEType string
	genShowJSON bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one structured generation and print the JSON result",
	Long: `Run one structured generation against the configured provider.

Examples:
  epoch generate --prompt "Create a scenario set on a river delta" --preset scenario
  epoch generate --prompt "Say hi" --schema ./hello.schema.json
  epoch generate --preset phase --show-schema`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&genPrompt, "prompt", "p", "", "User prompt")
	generateCmd.Flags().StringVarP(&genSystem, "system", "s", "", "System instruction")
	generateCmd.Flags().StringVar(&genSchema, "schema", "", "Path to a response schema in the vendor format")
	generateCmd.Flags().StringVar(&genPreset, "preset", "", "Built-in response schema: "+strings.Join(schema.PresetNames(), ", "))
	generateCmd.Flags().StringVar(&genMIMEType, "mime-type", "", "Response MIME type (default application/json)")
	generateCmd.Flags().BoolVar(&genShowJSON, "show-schema", false, "Print the translated JSON Schema and exit")
}

func loadSchema() (*schema.Schema, error) {
	switch {
	case genSchema != "":
		raw, err := os.ReadFile(genSchema)
		if err != nil {
			return nil, err
		}
		s, err := schema.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", genSchema, err)
		}
		if s == nil {
			return nil, fmt.Errorf("%s: schema must be a JSON object", genSchema)
		}
		return s, nil
	case genPreset != "":
		s, ok := schema.Preset(genPreset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (have %s)", genPreset, strings.Join(schema.PresetNames(), ", "))
		}
		return s, nil
	}
	return nil, nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	s, err := loadSchema()
	if err != nil {
		return err
	}

	if genShowJSON {
		js := schema.Translate(s)
		if js == nil {
			return fmt.Errorf("no schema given")
		}
		raw, err := schema.Pretty(js)
		if err != nil {
			return err
		}
		fmt.Print(cli.HighlightJSON([]byte(raw)))
		return nil
	}

	if strings.TrimSpace(genPrompt) == "" {
		return fmt.Errorf("--prompt is required")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	res, err := a.service.Generate(ctx, &llm.GenerateRequest{
		Prompt:            genPrompt,
		SystemInstruction: genSystem,
		ResponseSchema:    s,
		ResponseMIMEType:  genMIMEType,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.CrossMark(), err)
		return err
	}

	fmt.Fprintln(os.Stderr, cli.CheckMark(), cli.KeyValue(res.Provider, fmt.Sprintf("%s in %s", res.Model, res.Latency.Round(time.Millisecond))))
	fmt.Print(cli.HighlightJSON(res.Output))
	return nil
}
