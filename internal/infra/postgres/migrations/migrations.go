// Package migrations holds the bun migrations for the quest schema. Each
// migration takes its name from the file that registers it.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
