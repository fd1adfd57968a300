package migrations

import (
	_ "embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_users.sql
var createUsersSQL string

//go:embed 0002_create_attempt_ledger.sql
var createAttemptLedgerSQL string

//go:embed 0003_create_catalog.sql
var createCatalogSQL string

var Migrations = migrate.NewMigrations()
