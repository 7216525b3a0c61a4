package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adam-Grimes/CINEMA/internal/repository"
	"github.com/Adam-Grimes/CINEMA/internal/service"
)

// sampleData is inserted in order so references resolve.
var sampleData = []struct {
	collection string
	body       map[string]any
}{
	{"TicketType", map[string]any{"TicketTypeID": "adult", "Cost": 9.5}},
	{"TicketType", map[string]any{"TicketTypeID": "child", "Cost": 6.0}},
	{"TicketType", map[string]any{"TicketTypeID": "concession", "Cost": 7.25}},
	{"Theatre", map[string]any{"TheatreID": "Theatre1", "Capacity": 100, "Rows": 10, "Columns": 10}},
	{"Film", map[string]any{"FilmID": "Film1", "Name": "Sample Film", "Category": "PG", "Genre": "Drama", "Duration": 120}},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample ticket types, a theatre and a film",
	Long: `Creates the sample documents through the same validation as the API.
Documents that already exist are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		return seed(ctx, store, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seed(ctx context.Context, store repository.DocumentRepo, out io.Writer) error {
	catalog := service.NewCatalog(store, nil)
	for _, s := range sampleData {
		res, err := catalog.Service(s.collection).Create(ctx, s.body)
		switch {
		case errors.Is(err, service.ErrConflict):
			fmt.Fprintf(out, "skip   %s (exists)\n", s.collection)
		case err != nil:
			return fmt.Errorf("seed %s: %w", s.collection, err)
		default:
			fmt.Fprintf(out, "create %s %s\n", s.collection, res.ID)
		}
	}
	return nil
}
