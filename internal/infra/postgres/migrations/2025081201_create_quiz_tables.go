package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const createQuizTablesSQL = `
CREATE TABLE IF NOT EXISTS question_sets (
	tier TEXT PRIMARY KEY,
	data JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id TEXT PRIMARY KEY,
	total_games INTEGER NOT NULL DEFAULT 0,
	total_score INTEGER NOT NULL DEFAULT 0,
	average_score DOUBLE PRECISION NOT NULL DEFAULT 0
);
`

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createQuizTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`DROP TABLE IF EXISTS user_profiles; DROP TABLE IF EXISTS question_sets`)
			return err
		},
	)
}
