package selector

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// listing reads one directory for a DirView and keeps the entry set live via
// a filesystem watcher until stopped. Each folder change creates a fresh
// listing; deliveries from a superseded listing are discarded by the view.
type listing struct {
	view   *DirView
	folder string
	ctx    context.Context
	cancel context.CancelFunc
}

func newListing(view *DirView, folder string) *listing {
	ctx, cancel := context.WithCancel(context.Background())
	return &listing{view: view, folder: folder, ctx: ctx, cancel: cancel}
}

func (l *listing) stop() {
	l.cancel()
}

func (l *listing) run() {
	entries, err := readEntries(l.folder)
	if l.ctx.Err() != nil {
		return
	}
	if err != nil {
		l.view.listingFailed(l, err)
		return
	}
	l.view.listingLoaded(l, entries)

	l.watch()
}

func (l *listing) watch() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug().Err(err).Msg("no watcher, listing stays static")
		return
	}
	defer w.Close()

	if err := w.Add(l.folder); err != nil {
		logger.Debug().Err(err).Str("folder", l.folder).Msg("cannot watch folder")
		return
	}

	for {
		select {
		case <-l.ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			l.handleEvent(ev)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Str("folder", l.folder).Msg("watch error")
		}
	}
}

func (l *listing) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		name := filepath.Base(ev.Name)
		info, err := os.Lstat(filepath.Join(l.folder, name))
		if err != nil {
			// Gone again before we could stat it.
			l.view.entryRemoved(l, PathToURI(ev.Name))
			return
		}
		l.view.entryUpserted(l, newEntry(l.folder, info))
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		l.view.entryRemoved(l, PathToURI(ev.Name))
	}
}

func readEntries(folder string) ([]*Entry, error) {
	dirents, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(dirents))
	for _, de := range dirents {
		info, err := de.Info()
		if err != nil {
			// Entry raced away between ReadDir and Info.
			continue
		}
		entries = append(entries, newEntry(folder, info))
	}
	return entries, nil
}
