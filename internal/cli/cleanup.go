package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/config"
	pginfra "quiz-progression-service/internal/infra/postgres"
)

// NewCleanupCmd deactivates expired attempt-ledger rows once and
// exits. Intended to run from cron between deploys; the HTTP admin
// endpoint does the same work on demand.
func NewCleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Deactivate expired attempt-ledger rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				logrus.Warn("postgres not configured, nothing to clean")
				return nil
			}

			db := openBunDB(cfg.Postgres.URL)
			defer db.Close()

			window := config.TTLDuration(cfg.Attempts.LedgerWindow, app.DefaultLedgerWindow)
			policy := app.NewLedgerPolicy(pginfra.NewLedgerStore(db), window)

			n, err := policy.CleanupExpired(cmd.Context())
			if err != nil {
				return err
			}
			logrus.WithField("deactivated", n).Info("ledger cleanup finished")
			return nil
		},
	}
}
