package cmd

import (
	"fmt"
	"log"
	"slices"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/config"
	"github.com/Rorical/RoriChat/internal/models"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage backend profiles",
	Long:  `Manage profiles: which backend to talk to, its credentials, the starting model and the session id.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		fmt.Printf("Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Println("Available Profiles:")
		for _, name := range cfg.ProfileNames() {
			profile := cfg.Profiles[name]
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Printf("  %s%s\n", name, marker)
			fmt.Printf("    Backend: %s\n", profile.Backend)
			fmt.Printf("    Model: %s\n", profile.Model)
			if profile.Endpoint != "" {
				fmt.Printf("    Endpoint: %s\n", profile.Endpoint)
			}
			if profile.Backend == config.BackendOpenAI {
				fmt.Printf("    API Key: %s\n", yesNo(profile.APIKey != ""))
			}
			fmt.Println()
		}
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		profileName := args[0]
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		fmt.Printf("Profile: %s\n", profileName)
		fmt.Printf("Backend: %s\n", profile.Backend)
		fmt.Printf("Endpoint: %s\n", profile.Endpoint)
		fmt.Printf("Model: %s\n", profile.Model)
		fmt.Printf("Session ID: %s\n", profile.SessionID)
		hasKey := "Not set"
		if profile.APIKey != "" {
			hasKey = "Set (hidden for security)"
		}
		fmt.Printf("API Key: %s\n", hasKey)
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			prompt := promptui.Prompt{
				Label: "Profile name",
			}
			profileName, err = prompt.Run()
			if err != nil {
				log.Fatalf("Prompt failed: %v", err)
			}
		}

		if _, exists := cfg.Profiles[profileName]; exists {
			log.Fatalf("Profile '%s' already exists", profileName)
		}

		profile, err := promptProfile(config.DefaultProfile())
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}

		cfg.Profiles[profileName] = profile
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' added successfully!\n", profileName)
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit [profile-name]",
	Short: "Edit an existing profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		profileName := pickProfile(cfg, args, "Select profile to edit", "")
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		profile, err = promptProfile(profile)
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}

		cfg.Profiles[profileName] = profile
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' updated successfully!\n", profileName)
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete [profile-name]",
	Short: "Delete a profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		profileName := pickProfile(cfg, args, "Select profile to delete", "")
		if _, exists := cfg.Profiles[profileName]; !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete profile '%s'? (y/N)", profileName),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Deletion cancelled")
			return
		}

		delete(cfg.Profiles, profileName)
		if len(cfg.Profiles) == 0 {
			cfg.Profiles["default"] = config.DefaultProfile()
		}
		if cfg.ActiveProfile == profileName {
			cfg.ActiveProfile = cfg.ProfileNames()[0]
		}

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' deleted successfully!\n", profileName)
	},
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch [profile-name]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		if len(args) == 0 && len(cfg.Profiles) < 2 {
			fmt.Println("No other profiles available to switch to")
			return
		}
		profileName := pickProfile(cfg, args, "Select profile to switch to", cfg.ActiveProfile)

		if err := cfg.UseProfile(profileName); err != nil {
			log.Fatalf("%v", err)
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Switched to profile '%s'\n", profileName)
	},
}

// pickProfile returns args[0], or asks the user to choose among the
// profiles other than skip.
func pickProfile(cfg *config.Config, args []string, label, skip string) string {
	if len(args) > 0 {
		return args[0]
	}

	names := make([]string, 0, len(cfg.Profiles))
	for _, name := range cfg.ProfileNames() {
		if name != skip {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		log.Fatalf("No profiles available")
	}

	prompt := promptui.Select{
		Label: label,
		Items: names,
	}
	_, name, err := prompt.Run()
	if err != nil {
		log.Fatalf("Selection failed: %v", err)
	}
	return name
}

// promptProfile walks through every profile field, starting from current.
func promptProfile(current config.Profile) (config.Profile, error) {
	profile := current

	kinds := []string{config.BackendServer, config.BackendOpenAI}
	kindPrompt := promptui.Select{
		Label:     "Backend",
		Items:     kinds,
		CursorPos: max(slices.Index(kinds, current.Backend), 0),
	}
	_, kind, err := kindPrompt.Run()
	if err != nil {
		return profile, err
	}
	if kind != current.Backend {
		profile.Endpoint = ""
	}
	profile.Backend = kind

	defaultEndpoint := backend.DefaultEndpoint
	if kind == config.BackendOpenAI {
		defaultEndpoint = backend.DefaultOpenAIBaseURL
	}
	if profile.Endpoint == "" {
		profile.Endpoint = defaultEndpoint
	}
	endpointPrompt := promptui.Prompt{
		Label:   "Endpoint",
		Default: profile.Endpoint,
	}
	if profile.Endpoint, err = endpointPrompt.Run(); err != nil {
		return profile, err
	}

	if kind == config.BackendOpenAI {
		apiKeyPrompt := promptui.Prompt{
			Label:   "API Key",
			Default: profile.APIKey,
			Mask:    '*',
		}
		if profile.APIKey, err = apiKeyPrompt.Run(); err != nil {
			return profile, err
		}
	}

	ids := make([]string, 0, len(models.Models()))
	for _, id := range models.Models() {
		ids = append(ids, string(id))
	}
	modelPrompt := promptui.Select{
		Label:     "Model",
		Items:     ids,
		CursorPos: max(slices.Index(ids, current.Model), 0),
	}
	if _, profile.Model, err = modelPrompt.Run(); err != nil {
		return profile, err
	}

	sessionPrompt := promptui.Prompt{
		Label:   "Session ID",
		Default: profile.SessionID,
	}
	if profile.SessionID, err = sessionPrompt.Run(); err != nil {
		return profile, err
	}

	return profile, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func init() {
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)
}
