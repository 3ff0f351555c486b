package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mark3labs/applywiz/internal/config"
)

var setupFlags struct {
	project bool
	force   bool
	apiURL  string
	userID  string
	name    string
	email   string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create applywiz configuration file",
	Long: `Create an applywiz configuration file with sensible defaults.

By default, creates a global config at ~/.config/applywiz/applywiz.yml.
Use --project to create a project-local config in the current directory.
The API token is never written here; set APPLYWIZ_TOKEN instead.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().StringVar(&setupFlags.apiURL, "api-url", "http://localhost:8080/api", "Base URL of the wizard API")
	setupCmd.Flags().StringVar(&setupFlags.userID, "user-id", "", "Your user ID")
	setupCmd.Flags().StringVar(&setupFlags.name, "name", "", "Your display name")
	setupCmd.Flags().StringVar(&setupFlags.email, "email", "", "Your email address")
}

func runSetup(cmd *cobra.Command, args []string) error {
	// Determine target path
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := &config.Config{
		APIURL:           setupFlags.apiURL,
		UserID:           setupFlags.userID,
		UserName:         setupFlags.name,
		UserEmail:        setupFlags.email,
		UserRole:         "student",
		AutosaveInterval: 30 * time.Second,
		RequestTimeout:   15 * time.Second,
		DataDir:          ".applywiz",
		LogLevel:         "info",
		ListenAddr:       ":8080",
		NATSDir:          ".applywiz/nats",
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Run 'applywiz apply --scholarship <id>' to get started.")
	return nil
}

// fileExists checks if a file exists (helper for setup command).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
