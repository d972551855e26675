package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/storage"
)

var (
	flagResultsPlayer string
	flagResultsLimit  int
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show recently recorded match results",
	Long: `Display recently recorded match results from the results database.

Examples:
  arena results
  arena results --limit 5
  arena results --player alice`,
	Args: cobra.NoArgs,
	Run:  runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&flagResultsPlayer, "player", "", "Only show matches involving this player id")
	resultsCmd.Flags().IntVar(&flagResultsLimit, "limit", 10, "Maximum number of results to show")
}

func runResults(_ *cobra.Command, _ []string) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	dbPath := cfg.Server.DBPath
	if flagDBPath != "" {
		dbPath = flagDBPath
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening results database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var results []storage.ResultEntry
	if flagResultsPlayer != "" {
		results, err = store.PlayerResults(flagResultsPlayer, flagResultsLimit)
	} else {
		results, err = store.RecentResults(flagResultsLimit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving results: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Recent Matches")
	fmt.Println()

	if len(results) == 0 {
		fmt.Println("No matches recorded yet.")
		return
	}

	fmt.Printf("  %-19s  %-18s  %-24s  %-7s  %s\n", "Mode", "Date", "Winner", "Score", "Loser")
	fmt.Printf("  %-19s  %-18s  %-24s  %-7s  %s\n", "----", "----", "------", "-----", "-----")

	for _, e := range results {
		dateStr := e.CreatedAt.Format("2006-01-02 15:04")
		score := fmt.Sprintf("%d:%d", e.WinnerScore, e.LoserScore)
		fmt.Printf("  %-19s  %-18s  %-24s  %-7s  %s\n", e.Mode, dateStr, e.WinnerName, score, e.LoserName)
	}

	if flagResultsPlayer != "" {
		wins, err := store.WinCount(flagResultsPlayer)
		if err == nil {
			fmt.Println()
			fmt.Printf("Wins for %s: %d\n", flagResultsPlayer, wins)
		}
	}
}
