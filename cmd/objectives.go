package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/metaheuristics/internal/bench"
)

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "List available benchmark objectives",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDIM\tBOUNDS")
		for _, name := range bench.Names() {
			p, err := bench.New(name, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t[%g, %g]\n", name, p.Dim(), p.LB()[0], p.UB()[0])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(objectivesCmd)
}
