package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kiln/internal/modules"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the built-in compile modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		name := color.New(color.FgCyan, color.Bold)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, e := range modules.Default().Entries() {
			if _, err := fmt.Fprintf(tw, "%s\t%s\n", name.Sprint(e.Name), e.Summary); err != nil {
				return err
			}
		}
		return tw.Flush()
	},
}
