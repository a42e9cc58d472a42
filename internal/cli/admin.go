package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"go-project-finance/internal/auth"
	"go-project-finance/internal/database"
	"go-project-finance/internal/logger"
	"go-project-finance/internal/models"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return database.Connect(cfg.Database, cfg.Log.Level)
	},
}

var seedAdminCmd = &cobra.Command{
	Use:     "seed-admin",
	Short:   "Create an admin account, or reset its password if it exists",
	Example: `  finance seed-admin --username admin --password 'change-me-now'`,
	RunE:    runSeedAdmin,
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedAdminCmd)
	seedAdminCmd.Flags().String("username", "admin", "Admin username")
	seedAdminCmd.Flags().String("password", "", "Admin password (at least 8 characters)")
	seedAdminCmd.Flags().String("email", "", "Admin email")
	_ = seedAdminCmd.MarkFlagRequired("password")
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("seed")

	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	email, _ := cmd.Flags().GetString("email")
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	if err := database.Connect(cfg.Database, cfg.Log.Level); err != nil {
		return err
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var user models.User
	err = database.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Username: username, Email: email, PasswordHash: hashed, Role: auth.RoleAdmin, IsActive: true}
		if err := database.DB.WithContext(ctx).Create(&user).Error; err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		log.Info().Str("username", username).Msg("admin created")
	case err != nil:
		return err
	default:
		err := database.DB.WithContext(ctx).Model(&user).Updates(map[string]any{
			"password_hash": hashed,
			"role":          auth.RoleAdmin,
			"is_active":     true,
		}).Error
		if err != nil {
			return fmt.Errorf("update admin: %w", err)
		}
		log.Info().Str("username", username).Msg("admin password reset")
	}
	return nil
}
