// Package migrations embeds the SQLite schema for the sqlite store backend.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
