package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adam-Grimes/CINEMA/internal/service"
)

var peek bool

var nextIDCmd = &cobra.Command{
	Use:   "next-id <sequence>",
	Short: "Mint (or with --peek, show) the next identifier of a sequence",
	Long: `Increments the named counter exactly like a create would and prints the
resulting identifier, e.g. "Screening8".  --peek only prints the last value
handed out and leaves the counter untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		counter := service.NewCounter(store)
		seq := args[0]
		var n int64
		if peek {
			n, err = counter.Current(ctx, seq)
		} else {
			n, err = counter.Next(ctx, seq)
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]any{"sequence": seq, "count": n, "id": service.FormatID(seq, n)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), service.FormatID(seq, n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nextIDCmd)
	nextIDCmd.Flags().BoolVar(&peek, "peek", false, "Show the current value without incrementing")
}
