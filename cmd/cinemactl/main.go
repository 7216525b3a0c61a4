// Command cinemactl runs operator tasks against the document store:
// schema migration, sample data, counter inspection and film lookups.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adam-Grimes/CINEMA/internal/config"
	"github.com/Adam-Grimes/CINEMA/internal/database"
	"github.com/Adam-Grimes/CINEMA/internal/repository"
)

var (
	// Global flags
	storeDriver string
	envFile     string
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:   "cinemactl",
	Short: "Operator tool for the cinema admin API",
	Long: `cinemactl talks to the same document store as the API server and reads
the same environment variables (STORE_DRIVER, DB_*, POSTGRES_URL).

Examples:
  cinemactl migrate                       # create the documents table
  cinemactl seed                          # insert sample ticket types, a theatre and a film
  cinemactl next-id Screening --peek      # show the last minted screening number
  cinemactl screenings Film1 --json       # list screenings of a film`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Override STORE_DRIVER (mysql, postgres, memory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file to load first")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore loads configuration the way the server does and opens the
// selected store.  Migrations are left to the migrate command.
func openStore(ctx context.Context) (repository.DocumentRepo, error) {
	config.LoadDotEnv(envFile)
	if storeDriver != "" {
		if err := os.Setenv("STORE_DRIVER", storeDriver); err != nil {
			return nil, err
		}
	}
	cfg := config.Load()
	cfg.AutoMigrate = false
	return database.OpenStore(ctx, cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
