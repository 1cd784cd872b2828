package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/internal/template"
)

func newSynthCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate the CloudFormation template",
		Long: `Synth assembles the topology and prints its CloudFormation template.

Examples:
    wetwire-albwaf synth
    wetwire-albwaf synth -o template.json
    wetwire-albwaf synth --format yaml --image my-image`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, plan, err := opts.loadPlan(cmd.Context())
			if err != nil {
				return err
			}

			result := albwaf.BuildResult{Success: true}
			tmpl, err := plan.Template(s.conf.Stack.Description)
			if err != nil {
				result = albwaf.BuildResult{Success: false, Errors: []string{err.Error()}}
			} else {
				result.Template = *tmpl
				for _, r := range plan.Resources() {
					result.Resources = append(result.Resources, r.LogicalID)
				}
			}

			return outputResult(cmd.OutOrStdout(), result, outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// encodeTemplate renders t in the given format.
func encodeTemplate(t *albwaf.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(t)
	case "yaml":
		return template.ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

func outputResult(w io.Writer, result albwaf.BuildResult, format, outputFile string) error {
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("synth failed")
	}

	data, err := encodeTemplate(&result.Template, format)
	if err != nil {
		return err
	}

	if outputFile == "" {
		fmt.Fprintln(w, string(data))
		return nil
	}

	return os.WriteFile(outputFile, data, 0644)
}
