package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"climate-api/pkg/logging"
)

// Watch monitors path and calls onChange with the reloaded Config each time
// the file is written or replaced. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file itself, so saves that
// rename a temporary file over path keep being observed. A reload that fails
// to parse or validate is logged and skipped.
func Watch(ctx context.Context, path string, logger *logging.StructuredLogger, onChange func(*Config)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("config: watch %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	logger.Info(ctx, "[CONFIG_WATCH] Watching config file", logging.Fields{"path": path})

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
			// A rename over path arrives as Create; the old inode's
			// Rename/Remove carries no new content.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(target)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				logger.Error(ctx, "[CONFIG_RELOAD_ERROR] Reload failed, keeping previous config", logging.Fields{
					"path": path,
				}, err)
				continue
			}

			logger.Info(ctx, "[CONFIG_RELOAD] Config reloaded", logging.Fields{"path": path})
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(ctx, "[CONFIG_WATCH_ERROR] Watcher error", logging.Fields{}, err)
		}
	}
}
