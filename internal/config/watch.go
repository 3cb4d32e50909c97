package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors emit per save.
const reloadDebounce = 100 * time.Millisecond

// FileProvider serves a configuration loaded from a file and reloads it when
// the file changes. Invalid reloads are logged and the previous
// configuration stays in effect.
type FileProvider struct {
	path      string
	overrides []func(*ServerConfig)
	current   atomic.Pointer[ServerConfig]

	mu        sync.Mutex
	listeners []func(ServerConfig)
}

// NewFileProvider loads the configuration at path. An empty path yields the
// defaults plus environment, with nothing to watch.
func NewFileProvider(path string, overrides ...func(*ServerConfig)) (*FileProvider, error) {
	cfg, err := Load(path, overrides...)
	if err != nil {
		return nil, err
	}
	p := &FileProvider{path: path, overrides: overrides}
	p.current.Store(&cfg)
	return p, nil
}

func (p *FileProvider) Current() ServerConfig { return *p.current.Load() }

// OnChange registers fn to run after every successful reload.
func (p *FileProvider) OnChange(fn func(ServerConfig)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Reload re-reads the file.
func (p *FileProvider) Reload() error {
	cfg, err := Load(p.path, p.overrides...)
	if err != nil {
		return err
	}
	p.current.Store(&cfg)

	p.mu.Lock()
	listeners := append([]func(ServerConfig){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Watch reloads the file whenever it changes, until ctx is done. The parent
// directory is watched so that editors replacing the file by rename are
// noticed.
func (p *FileProvider) Watch(ctx context.Context) error {
	if p.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(p.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			reload = timer.C
		case <-reload:
			reload = nil
			if err := p.Reload(); err != nil {
				slog.Warn("config reload rejected", slog.String("path", target), slog.String("error", err.Error()))
				continue
			}
			slog.Info("config reloaded", slog.String("path", target))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}
