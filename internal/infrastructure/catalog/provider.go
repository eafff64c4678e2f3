package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cartpilot/backend/internal/domain"
)

// ErrNoCatalogFile is returned by Watch when the provider serves the embedded catalog
var ErrNoCatalogFile = errors.New("catalog has no backing file to watch")

// Provider holds the current catalog snapshot. Readers never block; a reload
// swaps in a complete new snapshot.
type Provider struct {
	path    string
	current atomic.Pointer[domain.Catalog]
	logger  *zap.Logger
}

// NewProvider loads the catalog at path (embedded default when empty)
func NewProvider(path string, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	p := &Provider{path: path, logger: logger}
	p.current.Store(c)

	logger.Info("catalog loaded",
		zap.String("version", c.Version),
		zap.Int("entries", c.Len()),
		zap.String("path", displayPath(path)))

	return p, nil
}

// NewStaticProvider serves a fixed snapshot
func NewStaticProvider(c *domain.Catalog) *Provider {
	p := &Provider{logger: zap.NewNop()}
	p.current.Store(c)
	return p
}

// Current returns the active snapshot
func (p *Provider) Current() *domain.Catalog {
	return p.current.Load()
}

// Reload re-reads the backing file. On failure the previous snapshot stays active.
func (p *Provider) Reload() error {
	if p.path == "" {
		return ErrNoCatalogFile
	}

	c, err := Load(p.path)
	if err != nil {
		return err
	}

	prev := p.current.Swap(c)
	p.logger.Info("catalog reloaded",
		zap.String("previous_version", prev.Version),
		zap.String("version", c.Version),
		zap.Int("entries", c.Len()))
	return nil
}

// Watch reloads the catalog whenever its file changes, until ctx is cancelled.
// The parent directory is watched so editors that replace the file by rename
// are picked up too.
func (p *Provider) Watch(ctx context.Context) error {
	if p.path == "" {
		return ErrNoCatalogFile
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(p.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := p.Reload(); err != nil {
				p.logger.Warn("catalog reload failed, keeping previous snapshot",
					zap.String("path", p.path),
					zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

func displayPath(path string) string {
	if path == "" {
		return "<embedded>"
	}
	return path
}
