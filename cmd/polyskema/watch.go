package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watch validates the files once, then again whenever one of them is written
// or recreated, until the command context is cancelled.
func (a *app) watch(cmd *cobra.Command, files []string) error {
	run := func(name string) {
		b, err := a.readInput(name)
		if err != nil {
			a.log.Error().Err(err).Str("file", name).Msg("read")
			return
		}
		// Failures are already reported on stdout; keep watching.
		_ = a.validateAll(cmd, []input{{name: name, data: b}})
	}
	for _, f := range files {
		run(f)
	}
	return watchFiles(cmd.Context(), files, a.cfg.Debounce, run, func(err error) {
		a.log.Error().Err(err).Msg("watcher")
	})
}

// watchFiles calls onChange (debounced per file, one call at a time) for Write/Create events on
// any of files. Directories are watched so editors that replace files are
// still observed.
func watchFiles(ctx context.Context, files []string, delay time.Duration, onChange func(string), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	wanted := make(map[string]string, len(files))
	dirs := map[string]struct{}{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		wanted[abs] = f
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return err
		}
	}

	// Timers only hand names back to this loop, so onChange calls are
	// serialized and none is running once watchFiles returns.
	var (
		fired  = make(chan string)
		done   = make(chan struct{})
		timers = map[string]*time.Timer{}
	)
	defer func() {
		close(done)
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case name := <-fired:
			delete(timers, name)
			onChange(name)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			name, ok := wanted[abs]
			if !ok {
				continue
			}
			if t := timers[name]; t != nil {
				t.Stop()
			}
			timers[name] = time.AfterFunc(delay, func() {
				select {
				case fired <- name:
				case <-done:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(err)
		}
	}
}
