package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tamahiro5/iotlab-edge/internal/journal"
)

func journalCommand() *cobra.Command {
	journalRoot := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the publish journal",
		Long: "Inspect the local journal of publish attempts recorded by a\n" +
			"device run with --journal set.",
	}

	journalRoot.AddCommand(
		journalListCmd(),
		journalCountCmd(),
	)

	return journalRoot
}

func openJournal() (*journal.Store, error) {
	path := viper.GetString("journal")
	if path == "" {
		return nil, fmt.Errorf("--journal is required")
	}
	return journal.Open(path)
}

func journalListCmd() *cobra.Command {
	var (
		entryType string
		limit     int
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent journal entries",
		Example: `  # Last 20 entries, newest first
  iotlab-device journal list --journal device.journal

  # Only state publishes
  iotlab-device journal list --journal device.journal --type state`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()

			var entries []journal.Entry
			if entryType != "" {
				entries, err = store.ByType(ctx, entryType, limit)
			} else {
				entries, err = store.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return outputJSON(entries)
			}

			if len(entries) == 0 {
				fmt.Println("No journal entries found.")
				return nil
			}

			return printEntriesTable(entries)
		},
	}
	cmd.Flags().StringVar(&entryType, "type", "", "entry type filter (event, state)")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")

	return cmd
}

func journalCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count journal entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(n)
			return nil
		},
	}
}
