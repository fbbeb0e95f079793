package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch imports every supported file created or rewritten in dir until ctx is
// done. Events for the same file are coalesced so a file is imported once it
// stops changing.
func (im *Importer) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	im.logger.Info("watching for recipe files", zap.String("dir", dir))

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
		ready   = make(chan string)
	)
	defer func() {
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
	}()

	schedule := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[name]; ok {
			t.Reset(im.debounce)
			return
		}
		pending[name] = time.AfterFunc(im.debounce, func() {
			select {
			case ready <- name:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !Supported(event.Name) {
				continue
			}
			schedule(event.Name)

		case name := <-ready:
			mu.Lock()
			delete(pending, name)
			mu.Unlock()

			report, err := im.ImportFile(ctx, name)
			if err != nil {
				im.logger.Error("failed to import file", zap.String("file", name), zap.Error(err))
				continue
			}
			im.logger.Info("imported file",
				zap.String("file", name),
				zap.Int("imported", len(report.Imported)),
				zap.Int("duplicates", len(report.Duplicates)),
			)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
