package rag

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
)

// settleDelay is how long to wait after a file event before reading the
// file, so editors and copies can finish writing.
const settleDelay = 2 * time.Second

// fileStamp identifies a file version so bursts of events for the same
// save are ingested once.
type fileStamp struct {
	size int64
	mod  time.Time
}

// Watcher ingests supported files dropped into a directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	ingestor *Ingestor
	dir      string
	settle   time.Duration
	seen     map[string]fileStamp
	ctx      context.Context
	cancel   context.CancelFunc
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	mu       sync.Mutex
	log      zerolog.Logger
}

// NewWatcher creates a watcher over dir. Files already present are not
// ingested; only new writes trigger ingestion.
func NewWatcher(ingestor *Ingestor, dir string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	log := logging.Component("rag.watch")
	log.Info().Str("dir", dir).Msg("ingest watcher initialized")

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:  w,
		ingestor: ingestor,
		dir:      dir,
		settle:   settleDelay,
		seen:     make(map[string]fileStamp),
		ctx:      ctx,
		cancel:   cancel,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      log,
	}, nil
}

// Start begins watching for new documents.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 && SupportedFile(ev.Name) {
				w.ingest(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("ingest watcher error")
		}
	}
}

func (w *Watcher) ingest(path string) {
	select {
	case <-w.stopCh:
		return
	case <-time.After(w.settle):
	}

	info, err := os.Stat(path)
	if err != nil {
		// The file was removed before it settled.
		return
	}

	stamp := fileStamp{size: info.Size(), mod: info.ModTime()}
	if prev, ok := w.seen[path]; ok && prev == stamp {
		return
	}
	w.seen[path] = stamp

	n, err := w.ingestor.IngestFile(w.ctx, path)
	if err != nil {
		w.log.Error().Err(err).Str("file", path).Msg("failed to ingest file")
		return
	}
	w.log.Info().Str("file", path).Int("chunks", n).Msg("file ingested")
}

// Stop stops the watcher and waits for any in-flight ingestion.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	w.cancel()

	select {
	case <-w.stopCh:
		// Already stopped
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}
