package store

import (
	"fmt"

	"github.com/pokerjest/stamper/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

// PersistenceError wraps a failed relation write. The relation's batch has
// been rolled back; relations written before it stay committed.
type PersistenceError struct {
	Relation string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Relation, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Dataset holds canonical rows for every relation of the media store.
type Dataset struct {
	FeaturedMovies []model.FeaturedMovie
	FeaturedTV     []model.FeaturedTV
	Media          []model.Media
	Seasons        []model.Season
	Episodes       []model.Episode
	Anime          []model.Anime
	AnimeEpisodes  []model.AnimeEpisode
}

// Rows counts all rows of the dataset.
func (d *Dataset) Rows() int {
	return len(d.FeaturedMovies) + len(d.FeaturedTV) + len(d.Media) + len(d.Seasons) +
		len(d.Episodes) + len(d.Anime) + len(d.AnimeEpisodes)
}

// Upsert writes rows keyed by primary key, overwriting every other column
// on conflict. The whole slice is one transaction. Empty input writes nothing.
func Upsert[T any](gdb *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	err := gdb.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&rows, batchSize).Error
	})
	if err != nil {
		return &PersistenceError{Relation: relationName(rows[0]), Err: err}
	}
	return nil
}

// Load upserts the dataset relation by relation in a fixed order:
// featured movies, featured tv, media, seasons, episodes, anime, anime episodes.
// It stops at the first failing relation.
func Load(gdb *gorm.DB, ds *Dataset) error {
	steps := []func() error{
		func() error { return Upsert(gdb, ds.FeaturedMovies) },
		func() error { return Upsert(gdb, ds.FeaturedTV) },
		func() error { return Upsert(gdb, ds.Media) },
		func() error { return Upsert(gdb, ds.Seasons) },
		func() error { return Upsert(gdb, ds.Episodes) },
		func() error { return Upsert(gdb, ds.Anime) },
		func() error { return Upsert(gdb, ds.AnimeEpisodes) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func relationName(v interface{}) string {
	if t, ok := v.(interface{ TableName() string }); ok {
		return t.TableName()
	}
	return fmt.Sprintf("%T", v)
}
