package cmd

import (
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriChat/internal/app"
	"github.com/Rorical/RoriChat/internal/config"
	"github.com/Rorical/RoriChat/internal/models"
)

var (
	profileFlag    string
	modelFlag      string
	newSessionFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "rorichat",
	Short: "Terminal chat client for multiple models",
	Long:  `RoriChat is a terminal chat client that keeps your conversation across restarts and lets you switch models on the fly.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.LoadDotEnv(); err != nil {
			log.Printf("Failed to load .env: %v", err)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		runChat(cfg)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

// loadConfig loads the config and applies --profile for this run only.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if profileFlag != "" {
		if err := cfg.UseProfile(profileFlag); err != nil {
			log.Fatalf("%v", err)
		}
	}
	return cfg
}

func parseModelFlag() models.ModelID {
	if modelFlag == "" {
		return ""
	}
	id, err := models.ParseModel(modelFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return id
}

func runChat(cfg *config.Config) {
	opts := app.Options{Model: parseModelFlag()}
	if newSessionFlag {
		opts.SessionID = uuid.NewString()
	}

	application, err := app.NewApplication(cfg, config.NewLogger(cfg.Dir()), opts)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "profile to use for this run")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "model to start with")
	rootCmd.Flags().BoolVar(&newSessionFlag, "new-session", false, "use a fresh backend session id")

	rootCmd.AddCommand(profileCmd)
}
