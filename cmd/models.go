package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriChat/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models you can chat with",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range models.Models() {
			marker := ""
			if id == models.DefaultModel {
				marker = " (default)"
			}
			fmt.Printf("  %-20s %s%s\n", id, id.Label(), marker)
		}
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
