package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/techbeetle/news-router/internal/content"
)

// NewMigrateCommand creates or updates the content tables.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the content schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := startSession(cmd.Context(), "migrate", false)
			if err != nil {
				return err
			}
			defer s.close()

			if s.cfg.DBDSN == "" {
				return errors.New("db_dsn is not configured")
			}
			db, err := content.Open(content.Options{Driver: s.cfg.DBDriver, DSN: s.cfg.DBDSN})
			if err != nil {
				return err
			}
			defer content.Close(db)

			if err := content.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			s.log.InfoObj("content schema migrated", "db_driver", s.cfg.DBDriver)
			return nil
		},
	}
}
