// Package migration applies numbered QuestDB schema files.
package migration

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/muhammadchandra19/orderbook-view/pkg/questdb"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"

	createTableQuery = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id STRING,
			name STRING,
			applied_at TIMESTAMP
		) TIMESTAMP(applied_at) PARTITION BY YEAR;
	`
	appliedQuery = `SELECT id FROM schema_migrations ORDER BY applied_at`
	recordQuery  = `INSERT INTO schema_migrations VALUES ($1, $2, now())`
	removeQuery  = `DELETE FROM schema_migrations WHERE id = $1`
)

// Migration is one schema step. Files are named <id>.up.sql and <id>.down.sql,
// where id is "<sequence>_<name>".
type Migration struct {
	ID      string
	Name    string
	UpSQL   string
	DownSQL string
}

// Runner applies migrations read from a file system.
type Runner struct {
	client questdb.QuestDBClient
	files  fs.FS
	logger *logger.Logger
}

// NewRunner creates a migration runner over files.
func NewRunner(client questdb.QuestDBClient, files fs.FS, log *logger.Logger) *Runner {
	return &Runner{
		client: client,
		files:  files,
		logger: log,
	}
}

// EnsureMigrationTable creates the schema_migrations table if it doesn't exist.
func (r *Runner) EnsureMigrationTable(ctx context.Context) error {
	return r.client.Exec(ctx, createTableQuery)
}

// Applied returns the ids of applied migrations.
func (r *Runner) Applied(ctx context.Context) (map[string]bool, error) {
	rows, err := r.client.Query(ctx, appliedQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}

	return applied, rows.Err()
}

// Load reads every migration sorted by id.
func (r *Runner) Load() ([]Migration, error) {
	upFiles, err := fs.Glob(r.files, "*"+upSuffix)
	if err != nil {
		return nil, err
	}
	sort.Strings(upFiles)

	migrations := make([]Migration, 0, len(upFiles))
	for _, upFile := range upFiles {
		m, err := r.parse(upFile)
		if err != nil {
			return nil, fmt.Errorf("failed to parse migration %s: %w", upFile, err)
		}
		migrations = append(migrations, m)
	}

	return migrations, nil
}

func (r *Runner) parse(upFile string) (Migration, error) {
	upContent, err := fs.ReadFile(r.files, upFile)
	if err != nil {
		return Migration{}, err
	}

	id := strings.TrimSuffix(path.Base(upFile), upSuffix)
	name := id
	if _, rest, ok := strings.Cut(id, "_"); ok {
		name = rest
	}

	// A missing down file leaves the migration irreversible.
	downContent, _ := fs.ReadFile(r.files, strings.TrimSuffix(upFile, upSuffix)+downSuffix)

	return Migration{
		ID:      id,
		Name:    name,
		UpSQL:   strings.TrimSpace(string(upContent)),
		DownSQL: strings.TrimSpace(string(downContent)),
	}, nil
}

// MigrateUp applies pending migrations. steps <= 0 applies all of them.
func (r *Runner) MigrateUp(ctx context.Context, steps int) error {
	migrations, err := r.Load()
	if err != nil {
		return err
	}

	applied, err := r.Applied(ctx)
	if err != nil {
		return err
	}

	var pending []Migration
	for _, m := range migrations {
		if !applied[m.ID] {
			pending = append(pending, m)
		}
	}
	if steps > 0 && len(pending) > steps {
		pending = pending[:steps]
	}

	for _, m := range pending {
		if m.UpSQL == "" {
			r.logger.Warn("migration has no up statement", logger.NewField("migration", m.ID))
			continue
		}
		if err := r.client.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		if err := r.client.Exec(ctx, recordQuery, m.ID, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
		r.logger.Info("applied migration", logger.NewField("migration", m.ID))
	}

	return nil
}

// MigrateDown reverts the last steps applied migrations.
func (r *Runner) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0 for down migrations")
	}

	migrations, err := r.Load()
	if err != nil {
		return err
	}

	applied, err := r.Applied(ctx)
	if err != nil {
		return err
	}

	var revert []Migration
	for i := len(migrations) - 1; i >= 0 && len(revert) < steps; i-- {
		if applied[migrations[i].ID] {
			revert = append(revert, migrations[i])
		}
	}

	for _, m := range revert {
		if m.DownSQL == "" {
			return fmt.Errorf("no down statement for migration %s", m.ID)
		}
		if err := r.client.Exec(ctx, m.DownSQL); err != nil {
			return fmt.Errorf("failed to revert migration %s: %w", m.ID, err)
		}
		if err := r.client.Exec(ctx, removeQuery, m.ID); err != nil {
			return fmt.Errorf("failed to remove migration record %s: %w", m.ID, err)
		}
		r.logger.Info("reverted migration", logger.NewField("migration", m.ID))
	}

	return nil
}
