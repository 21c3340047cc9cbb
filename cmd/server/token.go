package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	tokenUserID   string
	tokenDuration time.Duration
	generateKey   bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token or generate a secret key",
	Long: `Issue a signed API token for a user, for clients that cannot use the
session cookie, or print a fresh random key for SECRET_KEY or CRON_SECRET.

Examples:
  postflow token --user u_123 --ttl 720h
  postflow token --generate-key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateKey {
			key, err := utils.GenerateRandomKey(24)
			if err != nil {
				return err
			}
			fmt.Println(key)
			return nil
		}

		if tokenUserID == "" {
			return fmt.Errorf("--user is required")
		}

		_ = godotenv.Load(envFile)
		cfg := config.LoadConfig()
		if len(cfg.SecretKey) != 32 {
			return fmt.Errorf("SECRET_KEY must be exactly 32 bytes")
		}

		token, err := utils.GenerateToken(cfg.SecretKey, tokenUserID, tokenDuration)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User id to issue the token for")
	tokenCmd.Flags().DurationVar(&tokenDuration, "ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.Flags().BoolVar(&generateKey, "generate-key", false, "Print a random 32 character key")
}
