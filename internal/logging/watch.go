package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig reloads the logging config whenever the workspace's
// .fenjing/config.json changes, so an operator can flip debug_mode or a
// category on mid-run without restarting a long crack session. Initialize
// must have run first. The returned stop function shuts the watcher down;
// it is safe to call more than once.
func WatchConfig() (stop func(), err error) {
	if workspace == "" {
		return nil, fmt.Errorf("logging not initialized")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors and `fenjing config`-style
	// writers replace config.json by rename, which drops a file-level watch.
	dir := filepath.Join(workspace, ".fenjing")
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != "config.json" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := ReloadConfig(); err != nil {
					Get(CategoryBoot).Warn("config reload failed: %v", err)
					continue
				}
				// Initialize only creates the logs directory when debug mode
				// is on at startup; create it here if it was switched on since.
				if IsDebugMode() {
					_ = os.MkdirAll(logsDir, 0755)
				}
				Get(CategoryBoot).Info("config reloaded, debug=%v", IsDebugMode())
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		watcher.Close()
		<-done
	}, nil
}
