package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/db"
	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

// MediaStore owns the media cache file. Incremental writes go to the live
// handle; Rebuild replaces the whole file and swaps the handle underneath
// readers.
type MediaStore struct {
	path string
	log  hclog.Logger

	mu sync.RWMutex
	db *gorm.DB
}

func OpenMediaStore(path string, log hclog.Logger) (*MediaStore, error) {
	gdb, err := db.OpenMedia(path)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &MediaStore{path: path, log: log, db: gdb}, nil
}

func (s *MediaStore) Path() string { return s.path }

func (s *MediaStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := db.Close(s.db)
	s.db = nil
	return err
}

// Save upserts the dataset into the live store.
func (s *MediaStore) Save(ctx context.Context, ds *Dataset) error {
	return s.view(func(gdb *gorm.DB) error {
		return Load(gdb.WithContext(ctx), ds)
	})
}

// Rebuild writes the dataset into a fresh file next to the store and moves
// it over the live one. Until the rename the live file is untouched; a
// failure while building leaves it exactly as it was.
func (s *MediaStore) Rebuild(ctx context.Context, ds *Dataset) error {
	tmp := s.path + ".rebuild"
	removeSQLiteFiles(tmp)

	next, err := db.OpenMedia(tmp)
	if err != nil {
		return err
	}
	if err := Load(next.WithContext(ctx), ds); err != nil {
		_ = db.Close(next)
		removeSQLiteFiles(tmp)
		return err
	}
	// fold the WAL into the main file so the rename carries every row
	if err := next.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		s.log.Warn("checkpoint of rebuilt store failed", "error", err)
	}
	if err := db.Close(next); err != nil {
		removeSQLiteFiles(tmp)
		return fmt.Errorf("close rebuilt store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := db.Close(s.db); err != nil {
		s.log.Warn("closing live store failed", "error", err)
	}
	s.db = nil
	_ = os.Remove(s.path + "-wal")
	_ = os.Remove(s.path + "-shm")

	if err := os.Rename(tmp, s.path); err != nil {
		// reopen whatever is still there so reads keep working
		if gdb, openErr := db.OpenMedia(s.path); openErr == nil {
			s.db = gdb
		}
		return fmt.Errorf("replace media store: %w", err)
	}
	_ = os.Remove(tmp + "-wal")
	_ = os.Remove(tmp + "-shm")

	gdb, err := db.OpenMedia(s.path)
	if err != nil {
		return fmt.Errorf("reopen media store: %w", err)
	}
	s.db = gdb
	s.log.Info("media store rebuilt", "rows", ds.Rows())
	return nil
}

// Snapshot writes a consistent copy of the live store to dest, which must
// not exist yet.
func (s *MediaStore) Snapshot(ctx context.Context, dest string) error {
	return s.view(func(gdb *gorm.DB) error {
		return gdb.WithContext(ctx).Exec("VACUUM INTO ?", dest).Error
	})
}

func (s *MediaStore) view(fn func(gdb *gorm.DB) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return errors.New("media store is closed")
	}
	return fn(s.db)
}

func removeSQLiteFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}
