package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sahasra-iot/meterlink/obis"
)

func newCodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List the OBIS catalogue",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tCLASS\tNAME\tUNIT")
			for _, c := range obis.All() {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c, c.ClassID, c.Name, c.Unit)
			}
			w.Flush()
		},
	}
}
