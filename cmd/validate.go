package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

var strict bool

var validateCmd = &cobra.Command{
	Use:   "validate-config [config-file]",
	Short: "Validate a configuration file",
	Long: `Decode a configuration file and report every value the decoder had to
repair: fields of the wrong type, unknown enum names and entries that were dropped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvePath(args)
		if err != nil {
			return err
		}
		return validateConfig(cmd.OutOrStdout(), path, strict)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&strict, "strict", false, "fail if any value was repaired")
}

func validateConfig(w io.Writer, path string, strict bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}

	doc, err := vmconfig.Parse(data)
	if err != nil {
		return fmt.Errorf("configuration file has errors: %w", err)
	}

	cfg, repairs := vmconfig.DecodeReport(doc)

	if len(repairs) > 0 {
		messages := make([]string, 0, len(repairs))
		for _, r := range repairs {
			messages = append(messages, r.String())
		}
		if strict {
			return fmt.Errorf("validation failed:\n%s", joinErrors(messages))
		}
		fmt.Fprintf(w, "! %d value(s) repaired:\n%s\n", len(repairs), joinErrors(messages))
	} else {
		fmt.Fprintln(w, "✓ Configuration is valid")
	}

	fmt.Fprintf(w, "✓ Name: %s\n", cfg.Name)
	fmt.Fprintf(w, "✓ Anti-detection profile: %s\n", cfg.AntiDetectionProfile)

	if !doc.Equal(vmconfig.Encode(cfg)) {
		fmt.Fprintln(w, "  - saving will rewrite the document in normalized form")
	}
	return nil
}

func joinErrors(errors []string) string {
	result := ""
	for i, err := range errors {
		if i > 0 {
			result += "\n"
		}
		result += fmt.Sprintf("  • %s", err)
	}
	return result
}
