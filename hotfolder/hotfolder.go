// Package hotfolder implements a polling watcher that reports files once
// they have stopped changing.
//
// Every interval the folder is listed and each entry is fingerprinted by
// size and modification time. An entry whose fingerprint stays the same for
// Settle consecutive scans is handed to the Subscriber exactly once; it is
// reported again only after it has been released, either through the
// Release token passed with the notification or Hotfolder.Release.
package hotfolder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/logutil"
	"github.com/ebogdum/hotfs/metrics"
)

// Defaults applied by New to zero Options fields
const (
	DefaultInterval    = 15 * time.Second
	DefaultSettle      = 4
	DefaultStopTimeout = 10 * time.Second
)

var (
	// ErrNoFolder is returned by Start when no target folder is configured
	ErrNoFolder = errors.New("hotfolder has no target folder")

	// ErrFolderMissing is recorded when the target folder does not exist
	ErrFolderMissing = errors.New("hotfolder target does not exist")
)

// Options configures a Hotfolder
type Options struct {
	ID     string
	Folder backends.File

	Interval    time.Duration
	Settle      int
	StopTimeout time.Duration

	Grab    backends.GrabFilter
	Move    backends.MoveFilter
	Compare backends.Comparator
}

// tracker is the per-file state kept between scans
type tracker struct {
	file     backends.File
	size     int64
	modified int64
	stable   int
	launched bool
}

// Hotfolder watches one folder. It is safe for concurrent use.
type Hotfolder struct {
	id         string
	folder     backends.File
	interval   time.Duration
	settle     int
	timeout    time.Duration
	grab       backends.GrabFilter
	move       backends.MoveFilter
	compare    backends.Comparator
	subscriber Subscriber
	logger     *zap.Logger

	// lifecycle serializes Start and Stop
	lifecycle sync.Mutex

	mu       sync.Mutex
	trackers map[string]*tracker
	gen      uint64 // bumped by Stop; scans of an older generation are discarded
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	ticks    int64
	lastScan time.Time
	lastErr  error
}

// New creates a stopped Hotfolder. Zero options take the package defaults:
// every visible entry of the folder itself, default name ordering.
func New(opts Options, subscriber Subscriber, logger *zap.Logger) (*Hotfolder, error) {
	if subscriber == nil {
		return nil, fmt.Errorf("%w: hotfolder needs a subscriber", backends.ErrInvalidInput)
	}
	if opts.Interval < 0 || opts.Settle < 0 || opts.StopTimeout < 0 {
		return nil, fmt.Errorf("%w: negative hotfolder timing", backends.ErrInvalidInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hotfolder{
		id:         opts.ID,
		folder:     opts.Folder,
		interval:   opts.Interval,
		settle:     opts.Settle,
		timeout:    opts.StopTimeout,
		grab:       opts.Grab,
		move:       opts.Move,
		compare:    opts.Compare,
		subscriber: subscriber,
		trackers:   make(map[string]*tracker),
	}
	if h.id == "" {
		h.id = uuid.NewString()
	}
	if h.interval == 0 {
		h.interval = DefaultInterval
	}
	if h.settle == 0 {
		h.settle = DefaultSettle
	}
	if h.timeout == 0 {
		h.timeout = DefaultStopTimeout
	}
	if h.grab == nil {
		h.grab = backends.AllVisible
	}
	if h.move == nil {
		h.move = backends.OnlyThisDirectory
	}
	if h.compare == nil {
		h.compare = backends.DefaultComparator
	}
	h.logger = logger.With(zap.String("hotfolder", h.id))

	return h, nil
}

// ID returns the hotfolder identifier
func (h *Hotfolder) ID() string { return h.id }

// Folder returns the watched folder
func (h *Hotfolder) Folder() backends.File { return h.folder }

// Start begins polling. The first scan runs one interval after Start and
// each following scan one interval after the previous one completed.
// Starting a running Hotfolder does nothing.
func (h *Hotfolder) Start() error {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	if h.folder == nil {
		return ErrNoFolder
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	h.running = true
	h.ticks = 0
	h.cancel = cancel
	h.done = done
	gen := h.gen
	h.mu.Unlock()

	h.logger.Info("Hotfolder started",
		logutil.URI("folder", h.folder.URI()),
		zap.Duration("interval", h.interval),
		zap.Int("settle", h.settle))

	go h.run(ctx, gen, done)
	return nil
}

func (h *Hotfolder) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(h.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		h.tick(ctx, gen)
		timer.Reset(h.interval)
	}
}

// Stop cancels polling, waits up to the stop timeout for an in-flight scan
// and forgets every tracked file. Stopping a stopped Hotfolder does nothing.
func (h *Hotfolder) Stop() {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.gen++
	cancel, done := h.cancel, h.done
	dropped := h.trackers
	h.trackers = make(map[string]*tracker)
	h.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(h.timeout):
		h.logger.Warn("Hotfolder scan did not finish before stop timeout",
			zap.Duration("timeout", h.timeout))
	}

	closeTrackers(dropped)
	metrics.HotfolderTrackedFiles.WithLabelValues(h.id).Set(0)
	h.logger.Info("Hotfolder stopped")
}

// Close stops the Hotfolder and closes its folder handle
func (h *Hotfolder) Close() error {
	h.Stop()
	if h.folder == nil {
		return nil
	}
	return h.folder.Close()
}

// Running reports whether the Hotfolder is polling
func (h *Hotfolder) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// Release forgets f so that it is tracked from scratch, and reported
// again once settled, if it is still present on a later scan.
func (h *Hotfolder) Release(f backends.File) {
	if f == nil {
		return
	}
	h.release(backends.Key(f), nil)
}

// release drops the tracker for key. With a non-nil want only that exact
// tracker is dropped, so a stale token cannot discard a newer tracker.
func (h *Hotfolder) release(key string, want *tracker) {
	h.mu.Lock()
	tr, ok := h.trackers[key]
	if !ok || (want != nil && tr != want) {
		h.mu.Unlock()
		return
	}
	delete(h.trackers, key)
	count := len(h.trackers)
	h.mu.Unlock()

	metrics.HotfolderTrackedFiles.WithLabelValues(h.id).Set(float64(count))
	h.logger.Debug("Released file", zap.String("uri", logutil.RedactString(key)))
	tr.file.Close()
}

func (h *Hotfolder) tick(ctx context.Context, gen uint64) {
	start := time.Now()
	metrics.HotfolderTicksTotal.WithLabelValues(h.id).Inc()

	h.mu.Lock()
	h.ticks++
	h.mu.Unlock()

	err := h.scan(ctx, gen)

	h.mu.Lock()
	if h.gen == gen {
		h.lastScan = start
		h.lastErr = err
	}
	h.mu.Unlock()

	metrics.HotfolderTickDuration.WithLabelValues(h.id).Observe(time.Since(start).Seconds())
}

// fingerprint is a listed file with its current size and mtime
type fingerprint struct {
	file     backends.File
	key      string
	size     int64
	modified int64
}

// scan runs one polling pass. State is only touched once the listing and
// every fingerprint were read successfully.
func (h *Hotfolder) scan(ctx context.Context, gen uint64) error {
	if h.folder == nil {
		h.logger.Warn("Hotfolder has no target folder, skipping scan")
		return ErrNoFolder
	}

	exists, err := h.folder.Exists(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.logger.Warn("Failed to check hotfolder target, skipping scan", zap.Error(err))
		metrics.HotfolderErrorsTotal.WithLabelValues(h.id, "folder").Inc()
		return err
	}
	if !exists {
		h.logger.Warn("Hotfolder target does not exist, skipping scan", logutil.URI("folder", h.folder.URI()))
		metrics.HotfolderErrorsTotal.WithLabelValues(h.id, "folder").Inc()
		return ErrFolderMissing
	}

	listed, err := h.snapshot(ctx)
	if err != nil {
		// Stop cancels in-flight scans
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.logger.Error("Hotfolder scan failed", zap.Error(err))
		metrics.HotfolderErrorsTotal.WithLabelValues(h.id, "list").Inc()
		return err
	}

	due, unused := h.update(gen, listed)
	for _, f := range unused {
		f.Close()
	}

	for _, tr := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.notify(ctx, gen, tr)
	}
	return nil
}

// snapshot lists the folder and fingerprints every entry
func (h *Hotfolder) snapshot(ctx context.Context) ([]fingerprint, error) {
	files, err := backends.List(ctx, h.folder, h.grab, h.move, h.compare)
	if err != nil {
		return nil, err
	}

	listed := make([]fingerprint, 0, len(files))
	for _, f := range files {
		fp := fingerprint{file: f, key: backends.Key(f)}
		if fp.size, err = f.Length(ctx); err == nil {
			fp.modified, err = f.LastModified(ctx)
		}
		if err != nil {
			for _, f := range files {
				f.Close()
			}
			return nil, fmt.Errorf("failed to fingerprint %s: %w", logutil.RedactString(fp.key), err)
		}
		listed = append(listed, fp)
	}
	return listed, nil
}

// update reconciles the trackers with a fresh listing. It returns the
// trackers due for notification, in listing order, and the listed handles
// that were not adopted by a new tracker.
func (h *Hotfolder) update(gen uint64, listed []fingerprint) (due []*tracker, unused []backends.File) {
	h.mu.Lock()
	if h.gen != gen {
		h.mu.Unlock()
		for _, fp := range listed {
			unused = append(unused, fp.file)
		}
		return nil, unused
	}

	present := make(map[string]bool, len(listed))
	for _, fp := range listed {
		present[fp.key] = true
	}

	// Files that vanished are forgotten without notice
	var dropped []*tracker
	for key, tr := range h.trackers {
		if !present[key] {
			delete(h.trackers, key)
			dropped = append(dropped, tr)
		}
	}

	for _, fp := range listed {
		tr, ok := h.trackers[fp.key]
		if !ok {
			h.trackers[fp.key] = &tracker{file: fp.file, size: fp.size, modified: fp.modified}
			continue
		}
		unused = append(unused, fp.file)
		if tr.launched {
			continue
		}

		if tr.size == fp.size && tr.modified == fp.modified {
			tr.stable++
		} else {
			tr.stable = 0
			tr.size, tr.modified = fp.size, fp.modified
		}
		if tr.stable >= h.settle {
			due = append(due, tr)
		}
	}
	count := len(h.trackers)
	h.mu.Unlock()

	for _, tr := range dropped {
		h.logger.Debug("Tracked file vanished", logutil.URI("uri", tr.file.URI()))
		unused = append(unused, tr.file)
	}
	metrics.HotfolderTrackedFiles.WithLabelValues(h.id).Set(float64(count))
	return due, unused
}

// notify hands a settled file to the subscriber and marks it launched if
// the notification succeeded and the tracker was not released meanwhile
func (h *Hotfolder) notify(ctx context.Context, gen uint64, tr *tracker) {
	key := backends.Key(tr.file)

	h.mu.Lock()
	current := h.gen == gen && h.trackers[key] == tr
	h.mu.Unlock()
	if !current {
		return
	}

	release := Release(func() { h.release(key, tr) })

	if err := h.deliver(ctx, tr.file, release); err != nil {
		h.logger.Error("Subscriber failed, will retry on next scan",
			logutil.URI("uri", tr.file.URI()),
			zap.Error(err))
		metrics.HotfolderErrorsTotal.WithLabelValues(h.id, "subscriber").Inc()
		return
	}
	metrics.HotfolderNotificationsTotal.WithLabelValues(h.id).Inc()

	h.mu.Lock()
	if h.gen == gen && h.trackers[key] == tr {
		tr.launched = true
	}
	h.mu.Unlock()
}

// deliver calls the subscriber, turning a panic into an error
func (h *Hotfolder) deliver(ctx context.Context, f backends.File, release Release) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return h.subscriber.OnAdded(ctx, f, release)
}

func closeTrackers(trackers map[string]*tracker) {
	for _, tr := range trackers {
		tr.file.Close()
	}
}

// Status is a point-in-time summary of a Hotfolder
type Status struct {
	ID        string        `json:"id"`
	Folder    string        `json:"folder"`
	Running   bool          `json:"running"`
	Interval  time.Duration `json:"interval"`
	Settle    int           `json:"settle"`
	Ticks     int64         `json:"ticks"`
	Tracked   int           `json:"tracked"`
	Launched  int           `json:"launched"`
	LastScan  time.Time     `json:"last_scan,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// Status returns the current state of the Hotfolder
func (h *Hotfolder) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Status{
		ID:       h.id,
		Running:  h.running,
		Interval: h.interval,
		Settle:   h.settle,
		Ticks:    h.ticks,
		Tracked:  len(h.trackers),
		LastScan: h.lastScan,
	}
	if h.folder != nil {
		s.Folder = logutil.RedactURI(h.folder.URI())
	}
	if h.lastErr != nil {
		s.LastError = h.lastErr.Error()
	}
	for _, tr := range h.trackers {
		if tr.launched {
			s.Launched++
		}
	}
	return s
}

// TrackedFile describes one tracked entry
type TrackedFile struct {
	URI      string `json:"uri"`
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
	Stable   int    `json:"stable"`
	Launched bool   `json:"launched"`
}

// Tracked returns a snapshot of the tracked files ordered by URI
func (h *Hotfolder) Tracked() []TrackedFile {
	h.mu.Lock()
	out := make([]TrackedFile, 0, len(h.trackers))
	for key, tr := range h.trackers {
		out = append(out, TrackedFile{
			URI:      logutil.RedactString(key),
			Size:     tr.size,
			Modified: tr.modified,
			Stable:   tr.stable,
			Launched: tr.launched,
		})
	}
	h.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}
