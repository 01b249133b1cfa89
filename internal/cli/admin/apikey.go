package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/repository"
	"github.com/curiolabs/curio/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func resolveOwnerID(ctx context.Context, ownerRepo *repository.OwnerRepository, ownerRef string) (string, error) {
	if _, err := uuid.Parse(ownerRef); err == nil {
		owner, err := ownerRepo.GetByID(ctx, ownerRef)
		if err != nil {
			return "", fmt.Errorf("owner not found: %s", ownerRef)
		}
		return owner.ID, nil
	}

	owner, err := ownerRepo.GetByName(ctx, ownerRef)
	if err != nil {
		if err == domain.ErrOwnerNotFound {
			return "", fmt.Errorf("owner not found: %s", ownerRef)
		}
		return "", err
	}
	return owner.ID, nil
}

func APIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
		Long:  "Create, list, and revoke API keys",
	}

	cmd.AddCommand(APIKeyCreateCmd())
	cmd.AddCommand(APIKeyListCmd())
	cmd.AddCommand(APIKeyRevokeCmd())

	return cmd
}

func APIKeyCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Create a new API key for an owner",
		RunE:  runAPIKeyCreate,
	}

	cmd.Flags().StringP("owner", "o", "", "Owner ID or name (required)")
	cmd.Flags().StringP("name", "n", "", "API key name (required)")
	cmd.Flags().StringP("output", "", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ownerRef, _ := cmd.Flags().GetString("owner")
	name, _ := cmd.Flags().GetString("name")
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	ownerRepo := repository.NewOwnerRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(ownerRepo, apiKeyRepo, uuidGen)

	ownerID, err := resolveOwnerID(ctx, ownerRepo, ownerRef)
	if err != nil {
		return err
	}

	plaintext, err := authSvc.CreateAPIKey(ctx, ownerID, name)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	keys, err := authSvc.ListAPIKeys(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to retrieve created key: %w", err)
	}

	var keyID string
	if len(keys) > 0 {
		keyID = keys[len(keys)-1].ID
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":    keyID,
			"name":  name,
			"owner": ownerID,
			"token": plaintext,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("API key created for owner %s\n", ownerID)
		fmt.Printf("Key ID: %s\n", keyID)
		fmt.Printf("Key Name: %s\n", name)
		fmt.Printf("Token: %s\n", plaintext)
		fmt.Println("\n⚠️  Save this token now. You won't be able to see it again!")
	}

	return nil
}

func APIKeyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys for an owner",
		Long:  "List all API keys for a specific owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerRef, _ := cmd.Flags().GetString("owner")
			outputFormat, _ := cmd.Flags().GetString("output")
			return runAPIKeyList(ownerRef, outputFormat)
		},
	}

	cmd.Flags().StringP("owner", "o", "", "Owner ID or name (required)")
	cmd.Flags().StringP("output", "", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("owner")

	return cmd
}

func runAPIKeyList(ownerRef, outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	ownerRepo := repository.NewOwnerRepository(pool)
	apiKeyRepo := repository.NewAPIKeyRepository(pool)

	ownerID, err := resolveOwnerID(ctx, ownerRepo, ownerRef)
	if err != nil {
		return err
	}

	keys, err := apiKeyRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list API keys: %w", err)
	}

	if outputFormat == "json" {
		data := make([]map[string]interface{}, len(keys))
		for i, key := range keys {
			data[i] = map[string]interface{}{
				"id":         key.ID,
				"name":       key.Name,
				"owner_id":   key.OwnerID,
				"created_at": key.CreatedAt,
				"revoked_at": key.RevokedAt,
				"revoked":    key.IsRevoked(),
			}
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(keys) == 0 {
			fmt.Printf("No API keys found for owner %s\n", ownerID)
			return nil
		}
		fmt.Printf("API keys for owner %s:\n", ownerID)
		for _, key := range keys {
			status := "active"
			if key.IsRevoked() {
				status = "revoked"
			}
			fmt.Printf("  %s: %s (%s, created: %s)\n", key.ID, key.Name, status, key.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	return nil
}

func APIKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Long:  "Revoke an API key by its ID",
		Args:  cobra.ExactArgs(1),
		RunE:  runAPIKeyRevoke,
	}

	cmd.Flags().StringP("output", "", "text", "Output format (text or json)")

	return cmd
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	keyID := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	apiKeyRepo := repository.NewAPIKeyRepository(pool)
	err = apiKeyRepo.Revoke(ctx, keyID)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":      keyID,
			"revoked": true,
			"message": "API key revoked successfully",
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("API key %s revoked successfully\n", keyID)
	}

	return nil
}
