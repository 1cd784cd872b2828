package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/internal/topology"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declarations",
		Long: `List assembles the topology and displays its declarations, their
upstream declarations and the CloudFormation resources each one owns.

Examples:
    wetwire-albwaf list
    wetwire-albwaf list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, plan, err := opts.loadPlan(cmd.Context())
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), listPlan(plan), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func listPlan(plan *topology.Plan) albwaf.ListResult {
	var result albwaf.ListResult
	for _, d := range plan.Declarations() {
		entry := albwaf.ListDeclaration{
			ID:        d.ID(),
			Kind:      string(d.Kind()),
			DependsOn: d.DependsOn(),
		}
		for _, r := range d.Resources() {
			entry.Resources = append(entry.Resources, r.LogicalID)
		}
		result.Declarations = append(result.Declarations, entry)
	}
	return result
}

func outputListResult(w io.Writer, result albwaf.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Declarations) == 0 {
			fmt.Fprintln(w, "No declarations found.")
			return nil
		}

		table := tablewriter.NewWriter(w)
		table.Header("ID", "KIND", "DEPENDS ON", "RESOURCES")
		for _, d := range result.Declarations {
			if err := table.Append([]string{
				d.ID,
				d.Kind,
				strings.Join(d.DependsOn, ", "),
				fmt.Sprint(len(d.Resources)),
			}); err != nil {
				return err
			}
		}
		return table.Render()

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
