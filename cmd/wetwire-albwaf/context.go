package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-albwaf-go/internal/lookup"
)

// newContextCmd manages the lookup context file.
func newContextCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage recorded lookups",
		Long: `Context shows, refreshes or clears the lookups recorded in the context
file (wetwire.context.json by default).

Examples:
    wetwire-albwaf context show
    wetwire-albwaf context warm
    wetwire-albwaf context clear
    wetwire-albwaf context clear availability-zones:account=123456789012:region=us-east-1`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "List recorded lookups",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				file, err := opts.contextFile()
				if err != nil {
					return err
				}
				return showContext(cmd.OutOrStdout(), file)
			},
		},
		&cobra.Command{
			Use:   "clear [key...]",
			Short: "Remove recorded lookups (all when no key is given)",
			RunE: func(cmd *cobra.Command, args []string) error {
				file, err := opts.contextFile()
				if err != nil {
					return err
				}
				if len(args) == 0 {
					file.Clear()
				}
				for _, key := range args {
					if !file.Delete(key) {
						return fmt.Errorf("no recorded lookup for %s", key)
					}
				}
				if err := file.Save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d lookups left in %s\n", file.Len(), file.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "warm [image...]",
			Short: "Record zone and image lookups without synthesising",
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := opts.newSession(cmd.Context())
				if err != nil {
					return err
				}
				images := args
				if len(images) == 0 {
					images = []string{s.conf.Instance.ImageName}
				}
				if err := s.provider.Warm(cmd.Context(), images...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d lookups recorded in %s\n", s.context.Len(), s.context.Path())
				return nil
			},
		},
	)

	return cmd
}

// contextFile opens the context file named by the config without touching
// AWS.
func (o *globalOptions) contextFile() (*lookup.ContextFile, error) {
	conf, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return lookup.LoadContextFile(conf.Lookup.ContextFile)
}

func showContext(w io.Writer, file *lookup.ContextFile) error {
	keys := file.Keys()
	if len(keys) == 0 {
		fmt.Fprintf(w, "No lookups recorded in %s.\n", file.Path())
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("KEY", "VALUE")
	for _, key := range keys {
		if err := table.Append([]string{key, file.Raw(key)}); err != nil {
			return err
		}
	}
	return table.Render()
}
