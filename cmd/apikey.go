package cmd

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"example.com/tripplanner/config"
	"example.com/tripplanner/internal/database"
	"example.com/tripplanner/internal/models"
	"example.com/tripplanner/internal/repositories"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	apiKeyName     string
	apiKeyUserID   string
	expirationDays int
)

// apiKeyCmd represents the apikey command
var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
	Long:  `Create API keys for the external binding. A key acts as its owning user.`,
}

var generateKeyCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new API key",
	Long:  `Generate a new API key bound to a user. The key grants the external binding full access to that user's trips.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateAPIKey()
	},
}

func init() {
	rootCmd.AddCommand(apiKeyCmd)
	apiKeyCmd.AddCommand(generateKeyCmd)

	generateKeyCmd.Flags().StringVarP(&apiKeyName, "name", "n", "", "Name for the API key (required)")
	generateKeyCmd.Flags().StringVarP(&apiKeyUserID, "user", "u", "", "User ID the key acts as (required)")
	generateKeyCmd.Flags().IntVarP(&expirationDays, "expiration", "e", 365, "Expiration in days (0 for never)")
	generateKeyCmd.MarkFlagRequired("name")
	generateKeyCmd.MarkFlagRequired("user")
}

// generateSecureKey generates a secure random API key
func generateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func generateAPIKey() error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(apiKeyUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	repo := repositories.NewAPIKeyRepository(db, readOnlyDB)

	key, err := generateSecureKey(32)
	if err != nil {
		return fmt.Errorf("failed to generate secure key: %w", err)
	}

	apiKey := &models.APIKey{
		ID:     uuid.New(),
		Key:    key,
		Name:   apiKeyName,
		UserID: userID,
	}

	if expirationDays > 0 {
		expiry := time.Now().AddDate(0, 0, expirationDays)
		apiKey.ExpiresAt = &expiry
	}

	if err := repo.Create(context.Background(), apiKey); err != nil {
		return err
	}

	fmt.Println("=================================================================")
	fmt.Println("API Key generated successfully!")
	fmt.Println("=================================================================")
	fmt.Printf("Name: %s\n", apiKey.Name)
	fmt.Printf("User: %s\n", apiKey.UserID)
	if apiKey.ExpiresAt != nil {
		fmt.Printf("Expires: %s\n", apiKey.ExpiresAt.Format(time.RFC3339))
	} else {
		fmt.Println("Expires: Never")
	}
	fmt.Println("-----------------------------------------------------------------")
	fmt.Printf("API Key: %s\n", apiKey.Key)
	fmt.Println("-----------------------------------------------------------------")
	fmt.Println("IMPORTANT: Store this key securely. It won't be displayed again.")
	fmt.Println("=================================================================")

	return nil
}
