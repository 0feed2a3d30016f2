package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is the time rapid changes of a configuration file are merged into one.
const debounce = 100 * time.Millisecond

// Watch watches a configuration file and reloads it after it has been written.
// onChange receives each successfully reloaded configuration, onError each
// failure to reload; onError may be nil. Watching stops when ctx is done.
//
// The directory of the file is watched, as editors often replace files instead
// of writing them in place.
func Watch(ctx context.Context, path string, getenv func(string) string,
	onChange func(*Config), onError func(error)) error {
	//
	if path == "" {
		return fmt.Errorf("no configuration file to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err = w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch config dir %s: %w", dir, err)
	}
	if onError == nil {
		onError = func(err error) {
			tracer().Errorf("%v", err)
		}
	}
	tracer().Infof("watching configuration %s", path)
	go func() {
		defer w.Close()
		var last time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if time.Since(last) < debounce {
					continue
				}
				last = time.Now()
				time.Sleep(debounce) // let the writer finish
				cfg, err := Load(path, getenv)
				if err != nil {
					onError(err)
					continue
				}
				tracer().Infof("configuration %s reloaded", path)
				onChange(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				onError(fmt.Errorf("watcher error: %w", err))
			}
		}
	}()
	return nil
}
