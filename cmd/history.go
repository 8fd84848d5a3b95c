package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/user/image-update-checker/internal/config"
	"github.com/user/image-update-checker/internal/history"
)

// newHistoryCmd crea el comando history
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded check runs",
		Long: `Show the results of past check runs recorded in the local history
database. Entries can be filtered by reference and pruned by age.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().StringP("reference", "r", "", "Only show entries for this reference")
	cmd.Flags().IntP("limit", "l", 20, "Maximum number of entries to show")
	cmd.Flags().Duration("prune", 0, "Delete entries older than this age (e.g. 720h) instead of listing")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled in the configuration")
	}

	store, err := history.NewStore(cfg.History.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	pruneAge, _ := cmd.Flags().GetDuration("prune")
	if pruneAge > 0 {
		deleted, err := store.Prune(pruneAge)
		if err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		cmd.Printf("Deleted %d history entries older than %s\n", deleted, pruneAge)
		return nil
	}

	ref, _ := cmd.Flags().GetString("reference")
	limit, _ := cmd.Flags().GetInt("limit")

	entries, err := store.List(history.ListOptions{Reference: ref, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		cmd.Println("No history entries found")
		return nil
	}

	for _, entry := range entries {
		printHistoryEntry(cmd, entry)
	}

	return nil
}

// printHistoryEntry imprime una entrada del histórico en una línea
func printHistoryEntry(cmd *cobra.Command, entry history.Entry) {
	when := entry.CheckedAt.Local().Format("2006-01-02 15:04")

	switch {
	case entry.Error != "":
		cmd.Printf("%s  %s  error: %s\n", when, entry.Reference, entry.Error)
	case entry.LatestTag != "":
		cmd.Printf("%s  %s  %s -> %s [%s]\n",
			when, entry.Reference, entry.CurrentTag, entry.LatestTag, entry.UpdateType)
	default:
		cmd.Printf("%s  %s  up to date\n", when, entry.Reference)
	}
}
