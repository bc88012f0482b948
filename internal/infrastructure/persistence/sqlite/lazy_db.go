package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/bnema/flashota/internal/logging"
)

// LazyDB defers opening the journal database until first use, so CLI
// commands that never touch the journal skip the WASM compilation and
// migration overhead.
type LazyDB struct {
	dbPath string
	db     *sql.DB
	err    error
	once   sync.Once
	mu     sync.RWMutex
}

// NewLazyDB creates a new lazy database provider.
func NewLazyDB(dbPath string) *LazyDB {
	return &LazyDB{dbPath: dbPath}
}

// DB returns the database connection, initializing it on the first call.
func (l *LazyDB) DB(ctx context.Context) (*sql.DB, error) {
	l.once.Do(func() {
		log := logging.FromContext(ctx)
		log.Debug().Str("path", l.dbPath).Msg("lazy database initialization starting")

		db, err := NewConnection(ctx, l.dbPath)
		l.mu.Lock()
		l.db, l.err = db, err
		l.mu.Unlock()
		if err != nil {
			log.Error().Err(err).Msg("lazy database initialization failed")
		}
	})

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.err != nil {
		return nil, fmt.Errorf("database initialization failed: %w", l.err)
	}
	return l.db, nil
}

// Close closes the database connection if it was initialized.
func (l *LazyDB) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// IsInitialized returns true if the database has been initialized.
func (l *LazyDB) IsInitialized() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.db != nil
}

// Path returns the database path.
func (l *LazyDB) Path() string {
	return l.dbPath
}

// LazyJournal is a port.SessionJournal that opens the database on first use.
type LazyJournal struct {
	provider *LazyDB
	repo     port.SessionJournal
	once     sync.Once
	initErr  error
}

// NewLazyJournal creates a journal backed by provider.
func NewLazyJournal(provider *LazyDB) *LazyJournal {
	return &LazyJournal{provider: provider}
}

func (j *LazyJournal) init(ctx context.Context) error {
	j.once.Do(func() {
		db, err := j.provider.DB(ctx)
		if err != nil {
			j.initErr = err
			return
		}
		j.repo = NewJournalRepository(db)
	})
	return j.initErr
}

func (j *LazyJournal) Record(ctx context.Context, session *entity.UpdateSession) error {
	if err := j.init(ctx); err != nil {
		return err
	}
	return j.repo.Record(ctx, session)
}

func (j *LazyJournal) Recent(ctx context.Context, limit int) ([]*entity.UpdateSession, error) {
	if err := j.init(ctx); err != nil {
		return nil, err
	}
	return j.repo.Recent(ctx, limit)
}
