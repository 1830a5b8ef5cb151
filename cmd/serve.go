package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/server"
	"github.com/Rorical/RoriChat/internal/storage"
)

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference chat backend",
	Long:  `Serve the chat API the client talks to. Messages are kept per session in SQLite and relayed to an OpenAI-compatible upstream.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := log.New(os.Stderr, "", log.LstdFlags)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := storage.OpenSQLite(ctx, cfg.ServerDatabase())
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		history, err := server.NewHistory(ctx, db)
		if err != nil {
			log.Fatalf("%v", err)
		}

		if cfg.ServerAPIKey() == "" {
			logger.Printf("[server] no upstream API key set; requests will fail until server.upstream_api_key or RORICHAT_API_KEY is set")
		}
		upstream := backend.NewOpenAIBackend(cfg.ServerAPIKey(), cfg.Server.UpstreamBaseURL, cfg.ServerRoutes())

		addr := cfg.Server.Addr
		if serveAddrFlag != "" {
			addr = serveAddrFlag
		}

		srv := server.New(history, upstream, server.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Logger:         logger,
		})
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address (default from config, :8000)")
	rootCmd.AddCommand(serveCmd)
}
