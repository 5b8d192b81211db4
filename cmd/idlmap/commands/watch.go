package commands

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ifabos/go-idlmap/errors"
	"github.com/ifabos/go-idlmap/logger"
)

// fileWatcher calls a function after one of a set of files changed.
// Rapid changes are collapsed into one call.
type fileWatcher struct {
	files          map[string]bool
	debouncePeriod time.Duration
	log            *zap.SugaredLogger
}

func newFileWatcher(paths []string) (*fileWatcher, error) {
	fw := &fileWatcher{
		files:          make(map[string]bool, len(paths)),
		debouncePeriod: 300 * time.Millisecond,
		log:            logger.Named("watch"),
	}
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve %s", path)
		}
		fw.files[abs] = true
	}
	return fw, nil
}

// Run watches until ctx is done. The directories of the files are watched
// so that editors replacing a file are noticed.
func (fw *fileWatcher) Run(ctx context.Context, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer watcher.Close()

	dirs := make(map[string]bool)
	for file := range fw.files {
		dir := filepath.Dir(file)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
		dirs[dir] = true
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !fw.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.log.Debugw("change detected", logger.FieldFile, event.Name, "op", event.Op.String())
			debounce = time.After(fw.debouncePeriod)

		case <-debounce:
			debounce = nil
			if err := onChange(); err != nil {
				// keep watching, the next change may fix it
				fw.log.Warnw("rebuild failed", logger.FieldError, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fw.log.Warnw("watcher error", logger.FieldError, err)
		}
	}
}
