// Command wetwire-albwaf synthesises the CloudFormation template of a
// WAF-protected application load balancer in front of one EC2 instance.
//
// Usage:
//
//	wetwire-albwaf synth                 Print the CloudFormation template
//	wetwire-albwaf validate              Check the topology and lint the template
//	wetwire-albwaf list                  List declarations
//	wetwire-albwaf graph                 Print the dependency graph
//	wetwire-albwaf version               Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "wetwire-albwaf",
		Short: "Synthesise a WAF-protected load balancer topology",
		Long: `wetwire-albwaf assembles a VPC, a security group, one EC2 instance, an
internet-facing application load balancer, a WAFv2 web ACL and its log
group, and synthesises them into a CloudFormation template.

Image and availability zone lookups are recorded in a context file
(wetwire.context.json) so later runs are reproducible:

    wetwire-albwaf synth --image nginx-server -o template.json`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: wetwire.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&opts.imageName, "image", "", "Image lookup key (overrides config and "+envImageName+")")
	rootCmd.PersistentFlags().StringVar(&opts.region, "region", "", "AWS region for lookups")
	rootCmd.PersistentFlags().BoolVar(&opts.noLookups, "no-lookups", false, "Answer lookups from the context file only")

	rootCmd.AddCommand(
		newSynthCmd(opts),
		newValidateCmd(opts),
		newListCmd(opts),
		newGraphCmd(opts),
		newDiffCmd(opts),
		newContextCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wetwire-albwaf %s\n", getVersion())
		},
	}
}
