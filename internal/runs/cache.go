package runs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"bridge/internal/logging"
	"bridge/internal/types"
)

// ErrNotLoaded marks a read whose key is disabled because the
// identifier is empty. No network call was made.
var ErrNotLoaded = errors.New("not yet loaded")

var ErrCacheClosed = errors.New("cache is closed")

const (
	defaultRunPollInterval    = 2 * time.Second
	defaultActivePollInterval = 5 * time.Second
)

// CacheAPI is the slice of the RPC boundary the cache reads from.
type CacheAPI interface {
	ListThreadRuns(ctx context.Context, threadID string) ([]types.AgentRun, error)
	GetRun(ctx context.Context, runID string) (*types.AgentRun, error)
	ListActiveRuns(ctx context.Context) ([]types.AgentRun, error)
}

type CacheOptions struct {
	// RunPollInterval is the delay between reads of a watched run
	// while its last observed status is active.
	RunPollInterval time.Duration
	// ActivePollInterval is the fixed cadence of the global
	// active-run listing.
	ActivePollInterval time.Duration
	Logger             logging.Logger
}

// RunUpdate carries the latest observation of a watched run. Err is
// set when the read failed; the prior snapshot stays in place.
type RunUpdate struct {
	Run *types.AgentRun
	Err error
}

// ActiveUpdate carries the latest global active-run listing.
type ActiveUpdate struct {
	Runs []types.AgentRun
	Err  error
}

type runEntry struct {
	runID    string
	watchers map[int]chan RunUpdate
	nextID   int
	snapshot *types.AgentRun
	err      error
	running  bool
	loopStop chan struct{}
	wakeCh   chan struct{}
}

type activeEntry struct {
	watchers map[int]chan ActiveUpdate
	nextID   int
	snapshot []types.AgentRun
	loaded   bool
	err      error
	running  bool
	loopStop chan struct{}
	wakeCh   chan struct{}
}

// Cache is the keyed read model for runs. A watched run is re-read on
// a short interval for as long as its last observed status is active
// and never again once a terminal status lands. The global active-run
// listing refreshes on a fixed interval for as long as anyone watches
// it. Each key runs at most one poll goroutine; reads within a key are
// strictly sequential.
type Cache struct {
	api    CacheAPI
	logger logging.Logger

	runInterval    time.Duration
	activeInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	closed     bool
	runEntries map[string]*runEntry
	threadRuns map[string][]types.AgentRun
	active     activeEntry
}

func NewCache(api CacheAPI, opts CacheOptions) *Cache {
	if api == nil {
		return nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	runInterval := opts.RunPollInterval
	if runInterval <= 0 {
		runInterval = defaultRunPollInterval
	}
	activeInterval := opts.ActivePollInterval
	if activeInterval <= 0 {
		activeInterval = defaultActivePollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		api:            api,
		logger:         logger,
		runInterval:    runInterval,
		activeInterval: activeInterval,
		ctx:            ctx,
		cancel:         cancel,
		runEntries:     map[string]*runEntry{},
		threadRuns:     map[string][]types.AgentRun{},
		active: activeEntry{
			watchers: map[int]chan ActiveUpdate{},
			wakeCh:   make(chan struct{}, 1),
		},
	}
}

// ThreadRuns fetches the runs of a thread, retrying the read once
// before surfacing the error. An empty thread id disables the key.
func (c *Cache) ThreadRuns(ctx context.Context, threadID string) ([]types.AgentRun, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, ErrNotLoaded
	}
	runs, err := c.api.ListThreadRuns(ctx, threadID)
	if err != nil {
		runs, err = c.api.ListThreadRuns(ctx, threadID)
	}
	if err != nil {
		c.logger.Warn("thread runs read failed", logging.F("thread_id", threadID), logging.F("error", err))
		return nil, err
	}
	c.mu.Lock()
	c.threadRuns[threadID] = append([]types.AgentRun(nil), runs...)
	c.mu.Unlock()
	return runs, nil
}

// CachedThreadRuns peeks at the last fetched runs of a thread without
// touching the network.
func (c *Cache) CachedThreadRuns(threadID string) ([]types.AgentRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	runs, ok := c.threadRuns[strings.TrimSpace(threadID)]
	if !ok {
		return nil, false
	}
	return append([]types.AgentRun(nil), runs...), true
}

func (c *Cache) InvalidateThreadRuns(threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.threadRuns, strings.TrimSpace(threadID))
}

// Run reads a single run through the cache. A frozen terminal snapshot
// is served without a network call; anything else is re-read.
func (c *Cache) Run(ctx context.Context, runID string) (*types.AgentRun, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, ErrNotLoaded
	}
	c.mu.Lock()
	if e := c.runEntries[runID]; e != nil && e.snapshot != nil && e.snapshot.Status.IsTerminal() {
		run := *e.snapshot
		c.mu.Unlock()
		return &run, nil
	}
	c.mu.Unlock()

	run, err := c.api.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	e := c.ensureRunEntryLocked(runID)
	e.snapshot = run
	e.err = nil
	c.publishRunLocked(e)
	if run.Status.IsTerminal() && e.running {
		e.running = false
		close(e.loopStop)
		e.loopStop = nil
	}
	c.mu.Unlock()
	out := *run
	return &out, nil
}

// WatchRun subscribes to the closed-loop polling of one run. The
// returned channel holds the latest update; slow receivers only ever
// miss intermediate states. The cancel func releases the subscription
// and stops the poll loop when the last watcher is gone.
func (c *Cache) WatchRun(runID string) (<-chan RunUpdate, func(), error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, nil, ErrNotLoaded
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, nil, ErrCacheClosed
	}
	e := c.ensureRunEntryLocked(runID)
	id := e.nextID
	e.nextID++
	ch := make(chan RunUpdate, 1)
	e.watchers[id] = ch
	if e.snapshot != nil || e.err != nil {
		sendRunUpdate(ch, RunUpdate{Run: cloneRun(e.snapshot), Err: e.err})
	}
	settled := e.snapshot != nil && e.snapshot.Status.IsTerminal()
	if !e.running && !settled {
		e.running = true
		e.loopStop = make(chan struct{})
		go c.runLoop(runID, e.loopStop, e.wakeCh)
	}
	return ch, func() { c.unwatchRun(runID, id) }, nil
}

func (c *Cache) unwatchRun(runID string, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.runEntries[runID]
	if e == nil {
		return
	}
	ch, ok := e.watchers[id]
	if !ok {
		return
	}
	delete(e.watchers, id)
	close(ch)
	if len(e.watchers) == 0 && e.running {
		e.running = false
		close(e.loopStop)
		e.loopStop = nil
	}
}

func (c *Cache) runLoop(runID string, stopCh chan struct{}, wakeCh chan struct{}) {
	for {
		run, err := c.api.GetRun(c.ctx, runID)

		c.mu.Lock()
		e := c.runEntries[runID]
		if e == nil || e.loopStop != stopCh {
			c.mu.Unlock()
			return
		}
		if err != nil {
			e.err = err
			c.publishRunLocked(e)
			if e.snapshot == nil || !e.snapshot.Status.IsActive() {
				e.running = false
				e.loopStop = nil
				c.mu.Unlock()
				c.logger.Warn("run poll stopped after read failure",
					logging.F("run_id", runID), logging.F("error", err))
				return
			}
		} else {
			e.err = nil
			e.snapshot = run
			c.publishRunLocked(e)
			if run.Status.IsTerminal() {
				e.running = false
				e.loopStop = nil
				c.mu.Unlock()
				c.logger.Debug("run poll settled",
					logging.F("run_id", runID), logging.F("status", string(run.Status)))
				return
			}
		}
		interval := c.runInterval
		c.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-wakeCh:
			timer.Stop()
		case <-stopCh:
			timer.Stop()
			return
		case <-c.ctx.Done():
			timer.Stop()
			return
		}
	}
}

// RefreshRun forces the next read of a run to hit the network. A live
// poll loop is woken immediately; a loop that stopped on a failed read
// is restarted for its remaining watchers. A frozen terminal snapshot
// is left alone.
func (c *Cache) RefreshRun(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.runEntries[strings.TrimSpace(runID)]
	if e == nil {
		return
	}
	if e.running {
		select {
		case e.wakeCh <- struct{}{}:
		default:
		}
		return
	}
	if e.snapshot != nil && e.snapshot.Status.IsTerminal() {
		return
	}
	e.snapshot = nil
	e.err = nil
	if len(e.watchers) > 0 && !c.closed {
		e.running = true
		e.loopStop = make(chan struct{})
		go c.runLoop(e.runID, e.loopStop, e.wakeCh)
	}
}

// ActiveRuns reads the global active-run listing through the cache. A
// snapshot maintained by a live watch loop is served as is; otherwise
// the listing is fetched and cached.
func (c *Cache) ActiveRuns(ctx context.Context) ([]types.AgentRun, error) {
	c.mu.Lock()
	if c.active.running && c.active.loaded {
		runs := append([]types.AgentRun(nil), c.active.snapshot...)
		c.mu.Unlock()
		return runs, nil
	}
	c.mu.Unlock()

	runs, err := c.api.ListActiveRuns(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.active.snapshot = append([]types.AgentRun(nil), runs...)
	c.active.loaded = true
	c.active.err = nil
	c.publishActiveLocked()
	c.mu.Unlock()
	return runs, nil
}

// WatchActive subscribes to the fixed-interval refresh of the global
// active-run listing. The loop keeps its cadence regardless of what
// the listing contains and stops only when the last watcher is gone.
func (c *Cache) WatchActive() (<-chan ActiveUpdate, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, nil, ErrCacheClosed
	}
	id := c.active.nextID
	c.active.nextID++
	ch := make(chan ActiveUpdate, 1)
	c.active.watchers[id] = ch
	if c.active.loaded || c.active.err != nil {
		sendActiveUpdate(ch, ActiveUpdate{
			Runs: append([]types.AgentRun(nil), c.active.snapshot...),
			Err:  c.active.err,
		})
	}
	if !c.active.running {
		c.active.running = true
		c.active.loopStop = make(chan struct{})
		go c.activeLoop(c.active.loopStop, c.active.wakeCh)
	}
	return ch, func() { c.unwatchActive(id) }, nil
}

func (c *Cache) unwatchActive(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.active.watchers[id]
	if !ok {
		return
	}
	delete(c.active.watchers, id)
	close(ch)
	if len(c.active.watchers) == 0 && c.active.running {
		c.active.running = false
		close(c.active.loopStop)
		c.active.loopStop = nil
	}
}

func (c *Cache) activeLoop(stopCh chan struct{}, wakeCh chan struct{}) {
	for {
		runs, err := c.api.ListActiveRuns(c.ctx)

		c.mu.Lock()
		if c.active.loopStop != stopCh {
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.active.err = err
			c.logger.Warn("active runs read failed", logging.F("error", err))
		} else {
			c.active.err = nil
			c.active.snapshot = append([]types.AgentRun(nil), runs...)
			c.active.loaded = true
		}
		c.publishActiveLocked()
		interval := c.activeInterval
		c.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-wakeCh:
			timer.Stop()
		case <-stopCh:
			timer.Stop()
			return
		case <-c.ctx.Done():
			timer.Stop()
			return
		}
	}
}

// InvalidateActiveRuns marks the active-run listing stale. A live
// watch loop re-reads immediately; otherwise the cached snapshot is
// dropped so the next read fetches fresh state.
func (c *Cache) InvalidateActiveRuns() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active.running {
		select {
		case c.active.wakeCh <- struct{}{}:
		default:
		}
		return
	}
	c.active.snapshot = nil
	c.active.loaded = false
	c.active.err = nil
}

// Close stops every poll loop and closes all watcher channels. The
// cache rejects new watches afterwards.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	for _, e := range c.runEntries {
		if e.running {
			e.running = false
			close(e.loopStop)
			e.loopStop = nil
		}
		for id, ch := range e.watchers {
			delete(e.watchers, id)
			close(ch)
		}
	}
	if c.active.running {
		c.active.running = false
		close(c.active.loopStop)
		c.active.loopStop = nil
	}
	for id, ch := range c.active.watchers {
		delete(c.active.watchers, id)
		close(ch)
	}
}

func (c *Cache) ensureRunEntryLocked(runID string) *runEntry {
	e := c.runEntries[runID]
	if e == nil {
		e = &runEntry{
			runID:    runID,
			watchers: map[int]chan RunUpdate{},
			wakeCh:   make(chan struct{}, 1),
		}
		c.runEntries[runID] = e
	}
	return e
}

func (c *Cache) publishRunLocked(e *runEntry) {
	update := RunUpdate{Run: cloneRun(e.snapshot), Err: e.err}
	for _, ch := range e.watchers {
		sendRunUpdate(ch, update)
	}
}

func (c *Cache) publishActiveLocked() {
	update := ActiveUpdate{
		Runs: append([]types.AgentRun(nil), c.active.snapshot...),
		Err:  c.active.err,
	}
	for _, ch := range c.active.watchers {
		sendActiveUpdate(ch, update)
	}
}

func sendRunUpdate(ch chan RunUpdate, update RunUpdate) {
	for {
		select {
		case ch <- update:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func sendActiveUpdate(ch chan ActiveUpdate, update ActiveUpdate) {
	for {
		select {
		case ch <- update:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func cloneRun(run *types.AgentRun) *types.AgentRun {
	if run == nil {
		return nil
	}
	out := *run
	return &out
}
