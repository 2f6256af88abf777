package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/school-records/internal/audit"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log commands",
	Long:  `Inspect and annotate the audit log`,
}

var (
	noteUsername     string
	noteOrganization string
	tailLimit        int
)

var auditNoteCmd = &cobra.Command{
	Use:   "note [message]",
	Short: "Append an operator note to the audit log",
	Long:  `Write a "Nota de operador" row to the logs table, for example before a manual spreadsheet edit.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withAuditService(func(ctx context.Context, svc *audit.Service) error {
			entry, err := svc.Record(ctx, noteUsername, audit.ActionOperatorNote, noteOrganization, strings.Join(args, " "), time.Time{})
			if err != nil {
				return err
			}
			fmt.Printf("%s %s %s: %s\n", entry.Date, entry.Time, entry.Username, entry.Detail)
			return nil
		})
	},
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the latest audit log entries",
	Run: func(cmd *cobra.Command, args []string) {
		withAuditService(func(ctx context.Context, svc *audit.Service) error {
			entries, err := svc.List(ctx, audit.ListQuery{Limit: tailLimit, NewestFirst: true})
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s %s\t%s\t%s\t%s\t%s\n", e.Date, e.Time, e.Username, e.Action, e.Organization, e.Detail)
			}
			return nil
		})
	},
}

func withAuditService(fn func(ctx context.Context, svc *audit.Service) error) {
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

	if err := fn(ctx, deps.AuditService); err != nil {
		lg.Error("audit command failed", "error", err)
		deps.Close()
		os.Exit(1)
	}
}

func init() {
	auditNoteCmd.Flags().StringVar(&noteUsername, "usuario", "sistema", "author of the note")
	auditNoteCmd.Flags().StringVar(&noteOrganization, "escuela", "", "school the note refers to")
	auditTailCmd.Flags().IntVarP(&tailLimit, "limit", "n", 20, "number of entries")

	auditCmd.AddCommand(auditNoteCmd)
	auditCmd.AddCommand(auditTailCmd)
}
