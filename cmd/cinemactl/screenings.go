package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adam-Grimes/CINEMA/internal/service"
)

var screeningsCmd = &cobra.Command{
	Use:   "screenings <filmID>",
	Short: "List the screenings of a film",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		docs, err := service.NewCatalog(store, nil).ScreeningsForFilm(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(docs)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SCREENING\tTHEATRE\tDATE\tTIME\tSEATS")
		for _, d := range docs {
			fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", d["ScreeningID"], d["TheatreID"], d["Date"], d["StartTime"], d["SeatsRemaining"])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(screeningsCmd)
}
