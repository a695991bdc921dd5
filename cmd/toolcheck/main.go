// Command toolcheck inspects the MCP tool catalogue without starting a
// server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"binance-mcp/internal/tools"

	"github.com/spf13/cobra"
)

var catalogueFunc = tools.AllTools

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toolcheck",
		Short:         "Inspect and validate the Binance MCP tool catalogue",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newListCmd(), newValidateCmd())
	return root
}

func newListCmd() *cobra.Command {
	var domain string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filtered := filterDomain(catalogueFunc(), domain)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}
			return writeTable(cmd.OutOrStdout(), filtered)
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "only list tools in this domain")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print descriptors as JSON")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Compile every input schema and check the catalogue invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors := catalogueFunc()
			problems := checkCatalogue(descriptors)
			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, "✗", p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problem(s) in %d tools", len(problems), len(descriptors))
			}
			fmt.Fprintf(out, "✓ %d tools valid\n", len(descriptors))
			return nil
		},
	}
}

func filterDomain(in []tools.Descriptor, domain string) []tools.Descriptor {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return in
	}
	out := make([]tools.Descriptor, 0, len(in))
	for _, d := range in {
		if string(d.Domain) == domain {
			out = append(out, d)
		}
	}
	return out
}

func writeTable(w io.Writer, descriptors []tools.Descriptor) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDOMAIN\tREQUIRED\tARGUMENTS")
	for _, d := range descriptors {
		required := strings.Join(d.Required(), ",")
		if required == "" {
			required = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Domain, required, strings.Join(propertyNames(d), ","))
	}
	return tw.Flush()
}
