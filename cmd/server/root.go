package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "postflow",
	Short: "Postflow publishes scheduled social media posts",
	Long: `Postflow stores posts for small businesses and publishes them to their
Facebook pages when they are due.

Commands:
  serve    - Run the HTTP API, the cron sweep and the task worker
  sweep    - Publish every due post once and print the summary
  migrate  - Apply the SQL schema
  token    - Issue an API token or generate a secret key`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")

	rootCmd.AddCommand(serveCmd, sweepCmd, migrateCmd, tokenCmd)
}

// loadConfig reads the env file, if present, then the environment.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}
