package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/frahmantamala/school-records/internal"
	userDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/user"
	"github.com/frahmantamala/school-records/internal/user"
	"github.com/spf13/cobra"
)

var (
	seedUsername      string
	seedPassword      string
	seedOrganizations string
	seedRole          string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the initial administrator",
	Long:  `Provision the base tables and create a user (an admin by default) unless it already exists.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		lg := initLogger(cfg)

		if seedPassword == "" {
			seedPassword = os.Getenv("SEED_PASSWORD")
		}
		if seedPassword == "" {
			lg.Error("a password is required: --password or SEED_PASSWORD")
			os.Exit(1)
		}

		ctx := context.Background()
		deps, err := initializeDependencies(ctx, cfg, lg)
		if err != nil {
			lg.Error("failed to initialize dependencies", "error", err)
			os.Exit(1)
		}
		defer deps.Close()

		if err := provisionTables(ctx, deps, false); err != nil {
			lg.Error("failed to provision tables", "error", err)
			os.Exit(1)
		}

		orgs := user.OrgList(userDatamodel.ParseOrganizations(seedOrganizations))
		_, err = deps.UserService.Create(ctx, user.CreateUserDTO{
			Username:      seedUsername,
			Password:      seedPassword,
			Role:          seedRole,
			Organizations: orgs,
		})
		switch {
		case errors.Is(err, internal.ErrUserAlreadyExists):
			lg.Info("user already exists, nothing to do", "usuario", seedUsername)
		case err != nil:
			lg.Error("failed to seed user", "usuario", seedUsername, "error", err)
			deps.Drain(ctx)
			os.Exit(1)
		default:
			lg.Info("seeded user", "usuario", seedUsername, "rol", seedRole)
		}
		deps.Drain(ctx)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedUsername, "usuario", "admin", "username to create")
	seedCmd.Flags().StringVar(&seedPassword, "password", "", "password for the new user")
	seedCmd.Flags().StringVar(&seedRole, "rol", internal.RoleAdmin, "role of the new user (admin or user)")
	seedCmd.Flags().StringVar(&seedOrganizations, "escuelas", "", "comma separated schools for the new user")
}
