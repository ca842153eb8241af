package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmcdole/chordpick/internal/domain"
)

// AddEntry validates and saves a new song. Empty song names are rejected
// with domain.ErrValidation before the store is touched. On a store
// failure the in-memory list and index are left unchanged.
func (c *Controller) AddEntry(ctx context.Context, song, brand string) (domain.Entry, error) {
	e, err := domain.NewEntry(c.newID(), song, brand, c.now())
	if err != nil {
		return domain.Entry{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return domain.Entry{}, ErrNotStarted
	}

	c.setState(StateMutating)
	defer c.setState(StateReady)

	if err := c.store.Insert(ctx, e); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			c.logger.Error("duplicate entry id, discarding add", "id", e.ID, "error", err)
		} else {
			c.logger.Error("failed to save entry", "song", e.Song, "error", err)
		}
		c.raise(NoticeError, fmt.Sprintf("Could not save %q", e.Song))
		return domain.Entry{}, err
	}

	c.index.Add(e)

	c.viewMu.Lock()
	c.entries = append([]domain.Entry{e}, c.entries...)
	c.viewMu.Unlock()

	c.logger.Debug("added entry", "id", e.ID, "song", e.Song)
	return e, nil
}

// RemoveEntry deletes a song. Unknown ids are a no-op.
func (c *Controller) RemoveEntry(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return ErrNotStarted
	}

	c.setState(StateMutating)
	defer c.setState(StateReady)

	if err := c.store.Remove(ctx, id); err != nil {
		c.logger.Error("failed to remove entry", "id", id, "error", err)
		c.raise(NoticeError, "Could not remove song")
		return err
	}

	c.index.Remove(id)

	c.viewMu.Lock()
	for i, e := range c.entries {
		if e.ID == id {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			break
		}
	}
	c.viewMu.Unlock()

	c.logger.Debug("removed entry", "id", id)
	return nil
}

// SetQuery sets the search text. An empty query shows the full list.
func (c *Controller) SetQuery(text string) {
	c.viewMu.Lock()
	c.query = text
	c.viewMu.Unlock()
}

// SetSort sets the sort key of the visible list.
func (c *Controller) SetSort(key domain.SortKey) {
	c.viewMu.Lock()
	c.sortKey = key
	c.viewMu.Unlock()
}
