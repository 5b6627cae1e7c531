package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rasoi-group/market-intel/internal/store"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Print the canonical price table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		records, err := st.ListPrices(ctx)
		if err != nil {
			return eris.Wrap(err, "list prices")
		}
		if len(records) == 0 {
			fmt.Println("price table is empty, run `market-intel sync` first")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tUNIT\tMARKET\tBEST\tPLATFORM\tSAVINGS\tSOURCE\tDATE")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t₹%d\t₹%d\t%s\t%d%%\t%s\t%s\n",
				rec.Name, rec.Unit, rec.MarketPrice, rec.BestPrice,
				rec.Platform, rec.Savings, rec.Source,
				rec.Date.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(pricesCmd)
}
