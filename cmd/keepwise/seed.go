package main

import (
	"context"
	"fmt"

	"keepwise/application/commands"
	"keepwise/application/commands/bus"
	"keepwise/infrastructure/di"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a small sample set of links and ideas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			container, cleanup, err := di.InitializeContainer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := seedMemories(cmd.Context(), container.CommandBus, userID)
			if err != nil {
				return err
			}
			container.Logger.Info("Seeded memories", zap.String("owner", userID), zap.Int("count", n))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d memories for %s\n", n, userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Owner id of the sample memories")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func sampleCommands(userID string) []bus.Command {
	return []bus.Command{
		commands.SaveLinkCommand{
			OwnerID:     userID,
			Title:       "The Go Blog",
			URL:         "https://go.dev/blog",
			Description: "News and articles from the Go team",
			Category:    "Reading",
			Tags:        "go, blog",
			Source:      "go.dev",
			Priority:    "HIGH",
		},
		commands.SaveLinkCommand{
			OwnerID:  userID,
			Title:    "Effective Go",
			URL:      "https://go.dev/doc/effective_go",
			Category: "Reading",
			Tags:     "go, docs",
		},
		commands.SaveIdeaCommand{
			OwnerID:  userID,
			Title:    "Weekly review",
			Content:  "Go through saved links every Friday and archive what is done.",
			Category: "Habits",
			Tags:     "routine",
			Priority: "LOW",
		},
	}
}

// seedMemories saves the sample set through the command bus so the same
// reconciliation rules apply as for API writes.
func seedMemories(ctx context.Context, commandBus *bus.CommandBus, userID string) (int, error) {
	saved := 0
	for _, cmd := range sampleCommands(userID) {
		if _, err := commandBus.Send(ctx, cmd); err != nil {
			return saved, fmt.Errorf("failed to seed %T: %w", cmd, err)
		}
		saved++
	}
	return saved, nil
}
