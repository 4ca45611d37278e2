// Package store persists the dataset and favorites as JSON blobs under fixed
// keys, in SQLite or Postgres.
package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sichef/sichef/internal/model"
)

// Storage keys.
const (
	DatasetKey   = "scrapedData"
	FavoritesKey = "sichef_favorites"
)

// Store defines the persistence interface for the dataset.
type Store interface {
	// Dataset
	Load(ctx context.Context) ([]model.ScrapedData, error)
	Save(ctx context.Context, records []model.ScrapedData) error

	// Favorites
	Favorites(ctx context.Context) ([]string, error)
	ToggleFavorite(ctx context.Context, id string) (bool, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and locates the backend.
type Config struct {
	Driver      string
	DatabaseURL string
}

// Open creates the configured store and migrates it.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// blobs is the key/value primitive each backend provides. get returns nil
// without error for a missing key.
type blobs interface {
	get(ctx context.Context, key string) ([]byte, error)
	put(ctx context.Context, key string, value []byte) error
}

// blobStore implements the dataset and favorites operations over blobs.
type blobStore struct {
	b  blobs
	mu sync.Mutex
}

func (s *blobStore) Load(ctx context.Context) ([]model.ScrapedData, error) {
	raw, err := s.b.get(ctx, DatasetKey)
	if err != nil {
		return nil, err
	}
	records := make([]model.ScrapedData, 0)
	if len(raw) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, eris.Wrap(err, "store: decode dataset")
	}
	if records == nil {
		records = make([]model.ScrapedData, 0)
	}
	return records, nil
}

func (s *blobStore) Save(ctx context.Context, records []model.ScrapedData) error {
	if records == nil {
		records = []model.ScrapedData{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "store: encode dataset")
	}
	return s.b.put(ctx, DatasetKey, raw)
}

func (s *blobStore) Favorites(ctx context.Context) ([]string, error) {
	raw, err := s.b.get(ctx, FavoritesKey)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	if len(raw) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, eris.Wrap(err, "store: decode favorites")
	}
	if ids == nil {
		ids = make([]string, 0)
	}
	return ids, nil
}

// ToggleFavorite adds id to the favorites or removes it if present. It
// reports whether id is a favorite afterwards.
func (s *blobStore) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, eris.New("store: favorite id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.Favorites(ctx)
	if err != nil {
		return false, err
	}
	var now bool
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, id)
		now = true
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return false, eris.Wrap(err, "store: encode favorites")
	}
	if err := s.b.put(ctx, FavoritesKey, raw); err != nil {
		return false, err
	}
	return now, nil
}
