package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriChat/internal/app"
	"github.com/Rorical/RoriChat/internal/config"
	"github.com/Rorical/RoriChat/internal/core"
)

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Send one message and print the reply",
	Long:  `Send one message through the saved conversation and print the reply. Both are added to the history, as in the chat app.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()
		logger := config.NewLogger(cfg.Dir())

		b := app.NewBackend(cfg)
		if b == nil {
			log.Fatalf("Profile '%s' has no usable backend; run 'rorichat profile edit %s'", cfg.ActiveProfile, cfg.ActiveProfile)
		}

		store, st, err := app.OpenStore(ctx, cfg, logger)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer st.Close()
		store.Hydrate(ctx)

		model := parseModelFlag()
		if model == "" {
			model = cfg.GetModel()
		}

		coordinator := core.NewCoordinator(store, b,
			core.WithSessionID(cfg.GetSessionID()),
			core.WithCoordinatorLogger(logger),
		)
		reply, err := coordinator.Submit(ctx, strings.Join(args, " "), model)
		if err != nil {
			log.Fatalf("%v", err)
		}

		fmt.Println(reply.Content)
		if lastErr := coordinator.LastError(); lastErr != nil {
			fmt.Fprintf(os.Stderr, "%v\n", lastErr)
			st.Close()
			os.Exit(1)
		}
	},
}

func init() {
	askCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "model to ask (default: the profile's model)")
	rootCmd.AddCommand(askCmd)
}
