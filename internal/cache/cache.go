package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/buntdb"
)

// Bunt memoizes analysis results in a BuntDB keyspace with native TTL
// expiry. Values are stored as JSON so a cache hit decodes into exactly the
// same bytes a fresh computation would have produced. Two callers racing on
// an expired key may both recompute once; the last write wins, which is an
// accepted tradeoff over single-flight machinery.
type Bunt struct {
	db     *buntdb.DB
	logger zerolog.Logger
}

// NewMemory opens an in-memory cache.
func NewMemory() (*Bunt, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening buntdb: %w", err)
	}
	if err := db.SetConfig(buntdb.Config{SyncPolicy: buntdb.Never}); err != nil {
		return nil, fmt.Errorf("configuring buntdb: %w", err)
	}
	return &Bunt{
		db:     db,
		logger: log.With().Str("component", "cache").Logger(),
	}, nil
}

// Close releases the underlying database.
func (c *Bunt) Close() error {
	return c.db.Close()
}

// GetOrCompute returns the cached entry for key when one is still fresh,
// otherwise runs compute, stores its JSON encoding under the TTL, and
// populates dest from that encoding.
func (c *Bunt) GetOrCompute(key string, ttl time.Duration, dest any, compute func() (any, error)) error {
	var raw string
	err := c.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if err == nil {
		c.logger.Debug().Str("key", key).Msg("Cache hit")
		return json.Unmarshal([]byte(raw), dest)
	}
	if !errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("cache read: %w", err)
	}

	value, err := compute()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	err = c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(encoded), &buntdb.SetOptions{Expires: true, TTL: ttl})
		return err
	})
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	c.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cache fill")

	return json.Unmarshal(encoded, dest)
}
