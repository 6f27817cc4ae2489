package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the file must stay quiet before it is read again.
const settle = 100 * time.Millisecond

// Watch calls onChange with every valid new version of cfile until ctx is
// done. Invalid versions are logged and skipped. The directory is watched
// so that editors replacing the file are noticed too.
func Watch(ctx context.Context, cfile string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	target, err := filepath.Abs(cfile)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to resolve config path %s: %w", cfile, err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()
		reload := time.NewTimer(settle)
		reload.Stop()
		defer reload.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Ending config watcher")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					slog.Debug("Config file changed", "event", event.Op.String())
					reload.Reset(settle)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Config watcher error", "error", err)
			case <-reload.C:
				conf, err := ReadConfig(target)
				if err != nil {
					slog.Error("Ignoring invalid config change", "error", err)
					continue
				}
				slog.Info("Config file reloaded", "file", target)
				onChange(conf)
			}
		}
	}()
	return nil
}
