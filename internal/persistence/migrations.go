package persistence

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/modular"
	"github.com/GoCodeAlone/modular/modules/database"
)

// migrations holds the schema in apply order. The DDL targets Postgres; the
// migration service records each applied ID so reruns are no-ops.
var migrations = []database.Migration{
	{
		ID:      "001_create_message_topic",
		Version: "1",
		SQL: `CREATE TABLE message_topic (
			id BIGSERIAL PRIMARY KEY,
			topic_name TEXT NOT NULL UNIQUE,
			data_index BIGINT NOT NULL DEFAULT 0
		)`,
		Up: true,
	},
	{
		ID:      "002_create_message_topic_subscriber",
		Version: "1",
		SQL: `CREATE TABLE message_topic_subscriber (
			id BIGSERIAL PRIMARY KEY,
			message_topic_id BIGINT NOT NULL REFERENCES message_topic (id) ON DELETE CASCADE,
			subscriber_name TEXT NOT NULL,
			subscriber_index BIGINT NOT NULL DEFAULT 0
		)`,
		Up: true,
	},
	{
		ID:      "003_create_message_topic_publisher",
		Version: "1",
		SQL: `CREATE TABLE message_topic_publisher (
			id BIGSERIAL PRIMARY KEY,
			message_topic_id BIGINT NOT NULL REFERENCES message_topic (id) ON DELETE CASCADE,
			publisher_name TEXT NOT NULL
		)`,
		Up: true,
	},
	{
		ID:      "004_create_task_topic",
		Version: "1",
		SQL: `CREATE TABLE task_topic (
			id BIGSERIAL PRIMARY KEY,
			topic_name TEXT NOT NULL UNIQUE
		)`,
		Up: true,
	},
	{
		ID:      "005_create_task_topic_subscriber",
		Version: "1",
		SQL: `CREATE TABLE task_topic_subscriber (
			id BIGSERIAL PRIMARY KEY,
			task_topic_id BIGINT NOT NULL REFERENCES task_topic (id) ON DELETE CASCADE,
			subscriber_name TEXT NOT NULL
		)`,
		Up: true,
	},
	{
		ID:      "006_create_task_topic_publisher",
		Version: "1",
		SQL: `CREATE TABLE task_topic_publisher (
			id BIGSERIAL PRIMARY KEY,
			task_topic_id BIGINT NOT NULL REFERENCES task_topic (id) ON DELETE CASCADE,
			publisher_name TEXT NOT NULL
		)`,
		Up: true,
	},
}

// RunMigrations applies any schema migrations not yet recorded by the
// database module's migration service.
func RunMigrations(ctx context.Context, db database.DatabaseService, logger modular.Logger) error {
	if err := db.CreateMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	applied, err := db.GetAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	done := make(map[string]struct{}, len(applied))
	for _, id := range applied {
		done[id] = struct{}{}
	}

	for _, migration := range migrations {
		if _, ok := done[migration.ID]; ok {
			continue
		}
		logger.Info("applying schema migration", "migration", migration.ID)
		if err := db.RunMigration(ctx, migration); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.ID, err)
		}
	}
	return nil
}
