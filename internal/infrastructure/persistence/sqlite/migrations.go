package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/bnema/flashota/internal/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrSchemaTooNew is returned when the journal was migrated by a newer build,
// which happens after the device falls back to its backup image.
var ErrSchemaTooNew = errors.New("journal schema is newer than this build")

// SchemaStatus describes the journal schema of a database.
type SchemaStatus struct {
	// Current is the version recorded in the database, 0 for a fresh file.
	Current int64
	// Latest is the newest version shipped with this build.
	Latest int64
}

// Pending reports whether migrations remain to be applied.
func (s SchemaStatus) Pending() bool {
	return s.Current < s.Latest
}

func newMigrationProvider(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("journal migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, nil
}

func schemaStatus(ctx context.Context, provider *goose.Provider) (SchemaStatus, error) {
	var status SchemaStatus
	for _, src := range provider.ListSources() {
		status.Latest = max(status.Latest, src.Version)
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return status, fmt.Errorf("read journal schema version: %w", err)
	}
	status.Current = current
	return status, nil
}

// RunMigrations brings the update_sessions schema up to date. A database
// migrated past the newest known version is refused rather than touched.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	log := logging.FromContext(ctx)

	provider, err := newMigrationProvider(db)
	if err != nil {
		return err
	}

	before, err := schemaStatus(ctx, provider)
	if err != nil {
		return err
	}
	if before.Current > before.Latest {
		return fmt.Errorf("%w: database at version %d, build knows %d", ErrSchemaTooNew, before.Current, before.Latest)
	}
	if !before.Pending() {
		log.Debug().Int64("version", before.Current).Msg("journal schema up to date")
		return nil
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	for _, r := range results {
		log.Debug().
			Int64("version", r.Source.Version).
			Dur("took", r.Duration).
			Msg("journal migration applied")
	}

	log.Info().
		Int64("from_version", before.Current).
		Int64("to_version", before.Latest).
		Msg("journal schema migrated")
	return nil
}

// GetSchemaStatus reports the journal schema version of db against this build.
func GetSchemaStatus(ctx context.Context, db *sql.DB) (SchemaStatus, error) {
	provider, err := newMigrationProvider(db)
	if err != nil {
		return SchemaStatus{}, err
	}
	return schemaStatus(ctx, provider)
}
