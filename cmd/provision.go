package cmd

import (
	"context"
	"fmt"
	"os"

	auditlogDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/auditlog"
	recordDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/record"
	userDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/user"
	"github.com/spf13/cobra"
)

var provisionOrganizations bool

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create missing tables and repair header rows",
	Long: `Ensure the users and logs tables exist with the expected header row. With --escuelas,
also ensure one record table for every school assigned to any user.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		lg := initLogger(cfg)

		ctx := context.Background()
		deps, err := initializeDependencies(ctx, cfg, lg)
		if err != nil {
			lg.Error("failed to initialize dependencies", "error", err)
			os.Exit(1)
		}
		defer deps.Close()

		if err := provisionTables(ctx, deps, provisionOrganizations); err != nil {
			lg.Error("provisioning failed", "error", err)
			os.Exit(1)
		}
		lg.Info("provisioning finished")
	},
}

func provisionTables(ctx context.Context, deps *Dependencies, organizations bool) error {
	if err := deps.Reconciler.EnsureTable(ctx, userDatamodel.TableName, userDatamodel.Headers); err != nil {
		return fmt.Errorf("%s: %w", userDatamodel.TableName, err)
	}
	if err := deps.Reconciler.EnsureTable(ctx, auditlogDatamodel.TableName, auditlogDatamodel.Headers); err != nil {
		return fmt.Errorf("%s: %w", auditlogDatamodel.TableName, err)
	}
	if !organizations {
		return nil
	}

	orgs, err := deps.UserService.AllOrganizations(ctx)
	if err != nil {
		return err
	}
	for _, org := range orgs {
		if err := deps.Reconciler.EnsureTable(ctx, org, recordDatamodel.Headers); err != nil {
			return fmt.Errorf("%s: %w", org, err)
		}
		deps.Logger.Info("school table ready", "escuela", org)
	}
	return nil
}

func init() {
	provisionCmd.Flags().BoolVar(&provisionOrganizations, "escuelas", false, "also provision one table per assigned school")
}
