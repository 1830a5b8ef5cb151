package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriChat/internal/app"
	"github.com/Rorical/RoriChat/internal/config"
	"github.com/Rorical/RoriChat/internal/models"
)

var historyYesFlag bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear the saved conversation",
}

var showHistoryCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved conversation",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		store, st, err := app.OpenStore(ctx, cfg, config.NewLogger(cfg.Dir()))
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer st.Close()

		transcript := store.Hydrate(ctx)
		if len(transcript) == 0 {
			fmt.Println("No messages yet.")
			return
		}
		for _, msg := range transcript {
			label := "You"
			if msg.Role == models.Assistant {
				label = "AI"
			}
			fmt.Printf("%s: %s\n\n", label, msg.Content)
		}
	},
}

var clearHistoryCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved conversation",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		if !historyYesFlag {
			confirmPrompt := promptui.Prompt{
				Label:     "Clear the saved conversation? (y/N)",
				IsConfirm: true,
			}
			if _, err := confirmPrompt.Run(); err != nil {
				fmt.Println("Clear cancelled")
				return
			}
		}

		store, st, err := app.OpenStore(ctx, cfg, config.NewLogger(cfg.Dir()))
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer st.Close()

		store.Clear(ctx)
		fmt.Println("Conversation cleared")
	},
}

func init() {
	clearHistoryCmd.Flags().BoolVarP(&historyYesFlag, "yes", "y", false, "skip the confirmation prompt")

	historyCmd.AddCommand(showHistoryCmd)
	historyCmd.AddCommand(clearHistoryCmd)
	rootCmd.AddCommand(historyCmd)
}
