package inspector

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watcher reports changes to the asset's files. Directories are watched
// rather than the files themselves so that editors saving through a rename
// are still seen. Bursts of events are collapsed into one notification
// after the debounce interval.
type watcher struct {
	fs       *fsnotify.Watcher
	log      *zap.Logger
	debounce time.Duration
	notify   chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}
	timer *time.Timer
}

func newWatcher(files []string, debounce time.Duration, log *zap.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{
		fs:       fsw,
		log:      log,
		debounce: debounce,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		dirs:     make(map[string]struct{}),
	}
	if err := w.setFiles(files); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// setFiles replaces the watched file set, adding directory watches as needed.
func (w *watcher) setFiles(files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.files = make(map[string]struct{}, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		w.files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = struct{}{}
	}
	return nil
}

func (w *watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if w.tracked(e.Name) {
				w.log.Debug("asset file changed", zap.String("file", e.Name), zap.Stringer("op", e.Op))
				w.schedule()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watch error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

func (w *watcher) tracked(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[abs]
	return ok
}

// schedule (re)starts the debounce timer.
func (w *watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.notify <- struct{}{}:
		default:
		}
	})
}

// Changes delivers one value per debounced burst of changes.
func (w *watcher) Changes() <-chan struct{} {
	return w.notify
}

// Close stops watching and waits for the event loop to exit.
func (w *watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}
