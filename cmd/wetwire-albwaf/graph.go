package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-albwaf-go/internal/graph"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		resources    bool
		cluster      bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of the topology",
		Long: `Generate a DOT or Mermaid graph of the declarations and their bindings.

The output can be rendered with Graphviz:
    wetwire-albwaf graph | dot -Tpng -o topology.png

Or used in GitHub markdown (Mermaid format):
    wetwire-albwaf graph -f mermaid

Examples:
    wetwire-albwaf graph
    wetwire-albwaf graph -r              # CloudFormation resources
    wetwire-albwaf graph -r -c           # clustered by declaration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			_, plan, err := opts.loadPlan(cmd.Context())
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:         graphFormat,
				Resources:      resources,
				ClusterByOwner: cluster,
			}
			return gen.Generate(plan, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&resources, "resources", "r", false, "Draw CloudFormation resources instead of declarations")
	cmd.Flags().BoolVarP(&cluster, "cluster", "c", false, "Cluster resources by declaration (with --resources)")

	return cmd
}
