package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/chordpick/internal/domain"
	"github.com/mmcdole/chordpick/internal/legacy"
	"github.com/mmcdole/chordpick/internal/search"
	"github.com/mmcdole/chordpick/internal/store"
)

// ErrNotStarted is returned by commands issued before Start.
var ErrNotStarted = errors.New("song list not loaded")

// State is the controller lifecycle state.
type State int

const (
	StateLoading State = iota
	StateMigrating
	StateReady
	StateMutating
)

// String returns the display name for the state
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateMigrating:
		return "migrating"
	case StateReady:
		return "ready"
	case StateMutating:
		return "mutating"
	default:
		return "unknown"
	}
}

// NoticeLevel classifies a transient notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

// Notice is a transient user-facing message. Failures are reported this
// way instead of leaving the controller in an error state.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Config configures a Controller.
type Config struct {
	Open      domain.OpenFunc     // opens the record store
	Legacy    domain.LegacySource // nil disables migration
	Threshold float64             // fuzzy match threshold
	Sort      domain.SortKey      // initial sort key
	Notify    func(Notice)        // optional
	Now       func() time.Time    // defaults to time.Now
}

// Controller sequences startup (open, migrate, index) and mediates every
// mutation so the record store and the search index stay in sync.
type Controller struct {
	open   domain.OpenFunc
	legacy domain.LegacySource
	notify func(Notice)
	logger *slog.Logger

	now   func() time.Time
	newID func() string

	// mu serializes startup and mutations: store write, then index, then list
	mu    sync.Mutex
	store domain.RecordStore
	index *search.Index

	// viewMu guards the in-memory projection read by queries
	viewMu     sync.RWMutex
	state      State
	entries    []domain.Entry // newest first
	query      string
	sortKey    domain.SortKey
	persistent bool
}

// New creates a controller in the Loading state. Call Start before issuing
// commands.
func New(cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Sort == "" {
		cfg.Sort = domain.SortLatest
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Open == nil {
		cfg.Open = func(context.Context) (domain.RecordStore, error) { return store.NewMemory(), nil }
	}
	return &Controller{
		open:    cfg.Open,
		legacy:  cfg.Legacy,
		notify:  cfg.Notify,
		logger:  logger,
		now:     cfg.Now,
		newID:   uuid.NewString,
		index:   search.NewIndex(cfg.Threshold, logger),
		state:   StateLoading,
		sortKey: cfg.Sort,
	}
}

// Start opens the store, imports legacy data when a persistent store is
// empty, and builds the search index. Storage failures never fail startup: an
// unavailable store is replaced by a non-persistent one for the session.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		return nil
	}
	c.setState(StateLoading)

	s, err := c.open(ctx)
	persistent := err == nil
	if err != nil {
		c.logger.Error("storage unavailable, using memory store", "error", err)
		c.raise(NoticeWarn, "Storage unavailable: songs will not be saved after you quit")
		s = store.NewMemory()
	}
	c.store = s
	if persistent && domain.IsVolatile(s) {
		persistent = false
	}

	entries, err := s.List(ctx)
	switch {
	case err != nil:
		c.logger.Error("failed to load entries", "error", err)
		c.raise(NoticeError, "Could not load saved songs")
		entries = nil
	case len(entries) == 0 && persistent:
		entries = c.migrate(ctx)
	case len(entries) == 0 && c.legacy != nil:
		// The legacy copy stays on disk until a durable store can take it
		c.logger.Info("skipping legacy migration, store is not persistent")
	}

	entries = domain.SortEntries(entries, domain.SortLatest)
	c.index.Build(entries)

	c.viewMu.Lock()
	c.entries = entries
	c.persistent = persistent
	c.state = StateReady
	c.viewMu.Unlock()

	c.logger.Info("song list ready", "entries", len(entries), "persistent", persistent)
	return ctx.Err()
}

// migrate imports legacy entries into the empty store. Any failure is
// treated as "no legacy data".
func (c *Controller) migrate(ctx context.Context) []domain.Entry {
	if c.legacy == nil {
		return nil
	}
	c.setState(StateMigrating)

	n, err := legacy.NewMigrator(c.legacy, c.store, c.logger).Run(ctx)
	if err != nil {
		c.logger.Warn("legacy migration failed", "error", err)
		return nil
	}
	if n == 0 {
		return nil
	}

	entries, err := c.store.List(ctx)
	if err != nil {
		c.logger.Error("failed to reload entries after migration", "error", err)
		c.raise(NoticeError, "Could not load saved songs")
		return nil
	}
	c.raise(NoticeInfo, fmt.Sprintf("Imported %d songs from the old list", n))
	return entries
}

// Close releases the record store.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func (c *Controller) setState(s State) {
	c.viewMu.Lock()
	c.state = s
	c.viewMu.Unlock()
}

func (c *Controller) raise(level NoticeLevel, msg string) {
	if c.notify != nil {
		c.notify(Notice{Level: level, Message: msg})
	}
}
