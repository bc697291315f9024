package xmlfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/repository"
)

// collection is one XML document guarded by its own lock.
type collection[T any] struct {
	mu     sync.RWMutex
	path   string
	layout layout
	logger zerolog.Logger
}

func newCollection[T any](db *DB, l layout) *collection[T] {
	return &collection[T]{
		path:   filepath.Join(db.dir, l.file),
		layout: l,
		logger: db.logger.With().Str("file", l.file).Logger(),
	}
}

func (c *collection[T]) read() ([]byte, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.layout.file, err)
	}
	return data, nil
}

func (c *collection[T]) load() ([]T, error) {
	data, err := c.read()
	if err != nil {
		return nil, err
	}
	return decodeDocument[T](data, c.layout)
}

// List returns a snapshot of the document's records.
func (c *collection[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.load()
}

// Update rewrites the whole document with the result of fn.
func (c *collection[T]) Update(ctx context.Context, fn repository.Mutator[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}

	updated, err := fn(items)
	if err != nil {
		return err
	}

	data, err := encodeDocument(updated, c.layout)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.layout.file, err)
	}
	if err := writeFileAtomic(c.path, data); err != nil {
		c.logger.Error().Err(err).Msg("failed to write document")
		return fmt.Errorf("failed to write %s: %w", c.layout.file, err)
	}

	c.logger.Debug().Int("records", len(updated)).Msg("document rewritten")
	return nil
}

// Append inserts item before the closing root tag and rewrites the file.
func (c *collection[T]) Append(ctx context.Context, item T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.read()
	if err != nil {
		return err
	}

	out, err := appendRecord(data, item, c.layout)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(c.path, out); err != nil {
		c.logger.Error().Err(err).Msg("failed to append record")
		return fmt.Errorf("failed to write %s: %w", c.layout.file, err)
	}
	return nil
}
