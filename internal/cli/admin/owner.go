package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/curiolabs/curio/internal/config"
	"github.com/curiolabs/curio/internal/repository"
	"github.com/curiolabs/curio/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func OwnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage owners",
		Long:  "Create and list owners",
	}

	cmd.AddCommand(OwnerCreateCmd())
	cmd.AddCommand(OwnerListCmd())

	return cmd
}

func OwnerCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new owner",
		Long:  "Create a new owner with the specified name",
		Args:  cobra.ExactArgs(1),
		RunE:  runOwnerCreate,
	}

	cmd.Flags().StringP("email", "e", "", "Owner email address")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runOwnerCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]
	email, _ := cmd.Flags().GetString("email")
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	ownerRepo := repository.NewOwnerRepository(pool)
	uuidGen := &service.DefaultUUIDGenerator{}
	authSvc := service.NewAuthService(ownerRepo, nil, uuidGen)

	owner, err := authSvc.CreateOwner(ctx, name, email)
	if err != nil {
		return fmt.Errorf("failed to create owner: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":         owner.ID,
			"name":       owner.Name,
			"email":      owner.Email,
			"created_at": owner.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Owner created: %s (%s)\n", owner.Name, owner.ID)
	}

	return nil
}

func OwnerListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all owners",
		Long:  "List all owners in the system",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runOwnerList(outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runOwnerList(outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	ownerRepo := repository.NewOwnerRepository(pool)

	owners, err := ownerRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list owners: %w", err)
	}

	if outputFormat == "json" {
		data := make([]map[string]interface{}, len(owners))
		for i, owner := range owners {
			data[i] = map[string]interface{}{
				"id":         owner.ID,
				"name":       owner.Name,
				"email":      owner.Email,
				"created_at": owner.CreatedAt,
			}
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(owners) == 0 {
			fmt.Println("No owners found")
			return nil
		}
		fmt.Println("Owners:")
		for _, owner := range owners {
			fmt.Printf("  %s: %s (created: %s)\n", owner.ID, owner.Name, owner.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
