package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tinyland-inc/obridge/pkg/logger"
)

// debounce coalesces the event bursts editors produce on save.
const debounce = 200 * time.Millisecond

// Watch re-reads the config file whenever it changes and calls onChange
// with the fresh config. Unparseable intermediate states are logged and
// skipped; the previous config stays in effect. Watch blocks until the
// context is canceled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which would
	// silently detach a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	var timer *time.Timer
	reload := func() {
		cfg, err := LoadConfig(path)
		if err != nil {
			logger.WarnCF("config", "reload failed", map[string]any{
				"path": path, "error": err.Error(),
			})
			return
		}
		logger.InfoCF("config", "reloaded", map[string]any{"path": path})
		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnCF("config", "watch error", map[string]any{"error": err.Error()})
		}
	}
}
