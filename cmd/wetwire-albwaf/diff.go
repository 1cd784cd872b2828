package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-albwaf-go/internal/differ"
)

func newDiffCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> [template2]",
		Short: "Compare two CloudFormation templates",
		Long: `Diff compares two templates resource by resource. When only one template
is given it is compared with the template synth would produce now.

Examples:
    wetwire-albwaf diff deployed.json
    wetwire-albwaf diff old.yaml new.json --ignore-order
    wetwire-albwaf diff old.json new.json --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			diffOpts := differ.Options{IgnoreOrder: ignoreOrder}

			var (
				result *differ.Result
				err    error
			)
			if len(args) == 2 {
				result, err = differ.CompareFiles(args[0], args[1], diffOpts)
			} else {
				result, err = diffAgainstSynth(cmd, opts, args[0], diffOpts)
			}
			if err != nil {
				return err
			}

			return outputDiffResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore list element order")

	return cmd
}

func diffAgainstSynth(cmd *cobra.Command, opts *globalOptions, path string, diffOpts differ.Options) (*differ.Result, error) {
	deployed, err := differ.LoadTemplate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	s, plan, err := opts.loadPlan(cmd.Context())
	if err != nil {
		return nil, err
	}
	current, err := plan.Template(s.conf.Stack.Description)
	if err != nil {
		return nil, err
	}

	// Compare the parsed forms so numbers and intrinsics share a shape.
	data, err := encodeTemplate(current, "json")
	if err != nil {
		return nil, err
	}
	current, err = differ.ParseTemplate(data)
	if err != nil {
		return nil, err
	}

	return differ.Compare(deployed, current, diffOpts)
}

func outputDiffResult(w io.Writer, result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Diff    any `json:"diff"`
			Summary any `json:"summary"`
		}{result.Diff, result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Empty() {
			fmt.Fprintln(w, "No differences.")
			return nil
		}
		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
			for _, change := range e.Changes {
				fmt.Fprintf(w, "    %s\n", change)
			}
		}
		fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n",
			result.Summary.Added, result.Summary.Removed, result.Summary.Modified)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
