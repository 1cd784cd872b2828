package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand.
func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		skipCfnLint  bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the topology and lint the template",
		Long: `Validate assembles the topology and checks it.

Checks performed:
  - Topology: nine declarations, four bindings, one NAT gateway, two
    ingress rules, unique rule priorities, log group name prefix
  - cfn-lint: CloudFormation rules on the synthesised template

Examples:
    wetwire-albwaf validate
    wetwire-albwaf validate --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, plan, err := opts.loadPlan(cmd.Context())
			if err != nil {
				return err
			}

			result := validation.Validate(plan, validation.Options{
				Description: s.conf.Stack.Description,
				SkipCfnLint: skipCfnLint,
			})
			return outputValidateResult(cmd.OutOrStdout(), *result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&skipCfnLint, "skip-cfn-lint", false, "Only run the topology checks")

	return cmd
}

func outputValidateResult(w io.Writer, result albwaf.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warning)
		}
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d declarations, %d resources OK\n", result.Declarations, result.Resources)
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", errMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return fmt.Errorf("validation failed")
	}
	return nil
}
