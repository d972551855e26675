// arena is a real-time pong match server.
//
// Usage:
//
//	arena serve              - Start the websocket match server
//	arena results            - Show recently recorded match results
//
// Global flags:
//
//	--config <path>  - Path to a YAML config file
//	--db <path>      - Path to results database (default: ~/.arena/results.db)
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfig string
	flagDBPath string
)

func main() {
	// Optional .env for local development; no file is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Pong Arena - real-time two-player pong match server",
	Long: `Pong Arena hosts real-time pong matches over websocket.

It serves every game mode on its own endpoint: local and AI practice,
remote matchmaking, friend invites, and single-host or remote tournaments.
Finished matches are recorded in a SQLite database.

Available commands:
  serve    - Start the websocket match server
  results  - View recently recorded match results

Examples:
  arena serve
  arena serve --addr :8090 --config ./configs/arena.yaml
  arena results
  arena results --player alice --limit 5`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to results database (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resultsCmd)
}
