package watcher

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/model"
)

// Watcher reloads the design model when a definition file in the model
// directory changes. A failed reload keeps the previous snapshot.
type Watcher struct {
	watcher *fsnotify.Watcher
	loader  *model.Loader
	holder  *model.Holder
	logger  *slog.Logger
	done    chan struct{}

	// OnReload, if set, is called after every successful reload.
	OnReload func(*model.Snapshot)
}

// NewWatcher watches dir and reloads through loader into holder.
func NewWatcher(dir string, loader *model.Loader, holder *model.Holder, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		watcher: fw,
		loader:  loader,
		holder:  holder,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start begins the event loop in a separate goroutine.
func (w *Watcher) Start() {
	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watcher error", "err", err)
			}
		}
	}()
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !model.IsDefinitionFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	w.reload(event.Name)
}

func (w *Watcher) reload(trigger string) {
	snap, err := w.holder.Reload(w.loader)
	if err != nil {
		w.logger.Error("design model reload failed, keeping previous snapshot",
			"file", trigger, "err", err)
		return
	}
	w.logger.Info("design model reloaded", "file", trigger, "fingerprint", snap.Fingerprint)
	if w.OnReload != nil {
		w.OnReload(snap)
	}
}
