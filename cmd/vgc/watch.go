package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchLoop compiles, then recompiles whenever a file the last run read
// changes. It watches the directories holding those files, so a save that
// replaces the file by renaming is seen too, and waits one interval after
// the last event before checking what changed. Without file notifications
// it falls back to polling. It returns when ctx is cancelled.
func (c *cli) watchLoop(ctx context.Context) int {
	files, _ := c.once(ctx)
	stamps := c.stat(files)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		c.log.Warn("file notifications unavailable, polling", "err", err)
		return c.pollLoop(ctx, files, stamps)
	}
	defer w.Close()
	c.watchDirs(w, files)
	c.log.Info("watching", "files", len(stamps))

	settle := time.NewTimer(c.interval)
	settle.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("stopped watching")
			return exitOK
		case ev, ok := <-w.Events:
			if !ok {
				return exitOK
			}
			if c.tracked(files, ev.Name) {
				settle.Reset(c.interval)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return exitOK
			}
			c.log.Warn("watch error", "err", err)
		case <-settle.C:
			now := c.stat(files)
			if changed := diffStamps(stamps, now); changed != "" {
				c.log.Info("change detected", "file", changed)
				files, _ = c.once(ctx)
				c.watchDirs(w, files)
				now = c.stat(files)
			}
			stamps = now
		}
	}
}

// pollLoop checks the files every interval.
func (c *cli) pollLoop(ctx context.Context, files []string, stamps map[string]stamp) int {
	c.log.Info("watching", "files", len(stamps), "interval", c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("stopped watching")
			return exitOK
		case <-ticker.C:
		}
		now := c.stat(files)
		if changed := diffStamps(stamps, now); changed != "" {
			c.log.Info("change detected", "file", changed)
			files, _ = c.once(ctx)
			now = c.stat(files)
		}
		stamps = now
	}
}

// watchDirs adds the directory of every file. Adding a watched directory
// again is harmless.
func (c *cli) watchDirs(w *fsnotify.Watcher, files []string) {
	for _, f := range files {
		dir := filepath.Dir(c.path(f))
		if err := w.Add(dir); err != nil {
			c.log.Debug("cannot watch directory", "dir", dir, "err", err)
		}
	}
}

// tracked reports whether an event path names one of the files.
func (c *cli) tracked(files []string, name string) bool {
	name = filepath.Clean(name)
	for _, f := range files {
		if c.path(f) == name {
			return true
		}
	}
	return false
}

func (c *cli) path(f string) string {
	return filepath.Join(c.root, filepath.FromSlash(f))
}

// stamp identifies one version of a file; a missing file has the zero stamp.
type stamp struct {
	mod  time.Time
	size int64
}

func (c *cli) stat(files []string) map[string]stamp {
	out := make(map[string]stamp, len(files))
	for _, f := range files {
		var st stamp
		if info, err := os.Stat(c.path(f)); err == nil {
			st = stamp{mod: info.ModTime(), size: info.Size()}
		}
		out[f] = st
	}
	return out
}

// diffStamps returns a file whose stamp differs, or "" when none does.
func diffStamps(prev, next map[string]stamp) string {
	for f, st := range next {
		if old, ok := prev[f]; !ok || !old.mod.Equal(st.mod) || old.size != st.size {
			return f
		}
	}
	for f := range prev {
		if _, ok := next[f]; !ok {
			return f
		}
	}
	return ""
}
