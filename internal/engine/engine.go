// Package engine is the asynchronous query engine between the
// interactive UI and the blocking repository backend.
//
// The engine accepts fire-and-forget job requests, runs at most one
// worker per kind (single-flight, latest request wins), caches results
// versioned by a repository-state generation, coalesces bursts of
// change signals into one refresh wave, and tells the consumer when
// fresh data is ready. The consumer renders from the cache only; it
// never blocks on a query.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/interpretive-systems/gitscope/internal/gitx"
)

// Config carries the policy constants the engine leaves tunable.
type Config struct {
	// DebounceWindow is the quiet period a Debouncer waits for before
	// firing an invalidation wave.
	DebounceWindow time.Duration
	// NetworkTimeout bounds fetch and push.
	NetworkTimeout time.Duration
	// ProgressInterval is the minimum spacing between Progress events
	// for one job.
	ProgressInterval time.Duration
	// NotifyBuffer is the capacity of the notification channel.
	NotifyBuffer int
}

// DefaultConfig returns the engine defaults. They are deliberately
// conservative; the config file can override them.
func DefaultConfig() Config {
	return Config{
		DebounceWindow:   250 * time.Millisecond,
		NetworkTimeout:   30 * time.Second,
		ProgressInterval: 150 * time.Millisecond,
		NotifyBuffer:     64,
	}
}

func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = d.DebounceWindow
	}
	if c.NetworkTimeout <= 0 {
		c.NetworkTimeout = d.NetworkTimeout
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = d.ProgressInterval
	}
	if c.NotifyBuffer <= 0 {
		c.NotifyBuffer = d.NotifyBuffer
	}
}

// slot is the per-kind single-flight record.
type slot struct {
	running    bool
	startedGen uint64
	cancel     context.CancelFunc
	pending    *Request // most recent superseding request, if any
}

// Engine owns all scheduler state: the generation counter, the result
// cache, the in-flight slots and the notification channel. One
// instance per repository; it is shared by reference between the
// consumer and its workers, there are no package globals.
type Engine struct {
	backend Backend
	cfg     Config
	log     *slog.Logger

	gen   atomic.Uint64
	cache *cache
	notes *notifier

	mu       sync.Mutex
	slots    map[Kind]*slot
	lastReq  map[Kind]Params
	credsFn  CredentialsFunc
	closed   bool
	rootCtx  context.Context
	rootStop context.CancelFunc

	// excl serializes operations that need the repository handle to
	// themselves (fetch, push, consumer mutations). Held for the
	// duration of the call, released on every exit path.
	excl sync.Mutex

	wg sync.WaitGroup
}

// New creates an engine over the given backend. log may be nil.
func New(backend Backend, cfg Config, log *slog.Logger) *Engine {
	cfg.fillDefaults()
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Engine{
		backend:  backend,
		cfg:      cfg,
		log:      log,
		cache:    newCache(),
		notes:    newNotifier(cfg.NotifyBuffer, log),
		slots:    make(map[Kind]*slot),
		lastReq:  make(map[Kind]Params),
		rootCtx:  ctx,
		rootStop: stop,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Generation returns the current repository-state generation.
func (e *Engine) Generation() uint64 { return e.gen.Load() }

// Bump increments the generation counter and returns the new value.
// Call it whenever the repository is known or suspected to have
// changed.
func (e *Engine) Bump() uint64 { return e.gen.Add(1) }

// NewRequest builds a request stamped with the current generation.
func (e *Engine) NewRequest(kind Kind, p Params) Request {
	return Request{Kind: kind, Params: p, RequestedAt: e.gen.Load()}
}

// Notifications returns the event channel. It is drained by a single
// consumer and closed by Close.
func (e *Engine) Notifications() <-chan Event { return e.notes.ch }

// Lookup returns the committed entry for (kind, params), if any. It
// never blocks on in-flight work.
func (e *Engine) Lookup(kind Kind, p Params) (Entry, bool) {
	return e.cache.get(kind, p.Fingerprint())
}

// Latest returns the freshest committed entry for the kind regardless
// of parameters.
func (e *Engine) Latest(kind Kind) (Entry, bool) {
	return e.cache.getLatest(kind)
}

// Submit schedules a job. If no job of the same kind is in flight a
// worker starts immediately; otherwise the request is parked as the
// slot's pending successor (replacing any previous one) and the
// running worker is asked to wind down. The caller observes the
// outcome through Notifications and the cache.
func (e *Engine) Submit(req Request) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.lastReq[req.Kind] = req.Params

	s := e.slots[req.Kind]
	if s == nil {
		s = &slot{}
		e.slots[req.Kind] = s
	}
	if s.running {
		s.pending = &req
		cancel := s.cancel
		e.mu.Unlock()
		e.log.Debug("superseding in-flight job", "kind", req.Kind)
		cancel()
		return
	}
	s.running = true
	s.startedGen = e.gen.Load()
	ctx, cancel := context.WithCancel(e.rootCtx)
	s.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(ctx, cancel, req)
}

// Invalidate bumps the generation once and re-issues every refreshable
// kind that has been asked for before, using its most recent
// parameters. This is the firing edge of the debounced watcher and the
// tail of every consumer mutation.
func (e *Engine) Invalidate() {
	gen := e.Bump()
	e.log.Debug("invalidation wave", "generation", gen)
	for _, k := range e.cache.kinds() {
		if !k.refreshable() {
			continue
		}
		e.mu.Lock()
		p := e.lastReq[k]
		e.mu.Unlock()
		e.Submit(Request{Kind: k, Params: p, RequestedAt: gen})
	}
}

// Mutate runs a consumer-issued write operation (stage, commit,
// checkout, ...) under the exclusive backend scope, then bumps the
// generation and refreshes on success. The error is returned to the
// caller; failed mutations do not disturb the cache.
func (e *Engine) Mutate(fn func() error) error {
	e.excl.Lock()
	err := fn()
	e.excl.Unlock()
	if err != nil {
		return err
	}
	e.Invalidate()
	return nil
}

// Close cancels all in-flight work, waits for workers to drain and
// closes the notification channel.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.rootStop()
	e.wg.Wait()
	e.notes.close()
}

// run executes one job on a worker goroutine.
func (e *Engine) run(ctx context.Context, cancel context.CancelFunc, req Request) {
	defer e.wg.Done()
	defer cancel()

	if req.Kind.network() {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, e.cfg.NetworkTimeout)
		defer tcancel()
	}

	if req.Kind.exclusive() {
		// The handle is not reentrant for these. A collision is the
		// transient Busy condition: wait for the scope, never surface.
		if !e.excl.TryLock() {
			e.log.Debug("exclusive scope busy, waiting", "kind", req.Kind)
			e.excl.Lock()
		}
	}
	payload, err := e.execute(ctx, req)
	if req.Kind.exclusive() {
		e.excl.Unlock()
	}

	// Generation at completion, not at start: mutations that landed
	// while we ran must make this result look stale.
	genDone := e.gen.Load()

	// Release the slot before publishing so a successor can start.
	e.mu.Lock()
	s := e.slots[req.Kind]
	s.running = false
	s.cancel = nil
	pending := s.pending
	s.pending = nil
	e.mu.Unlock()

	e.publish(ctx, req, payload, genDone, err)

	if pending != nil {
		e.Submit(*pending)
	}
}

func (e *Engine) publish(ctx context.Context, req Request, payload any, gen uint64, err error) {
	if err == nil && ctx.Err() == nil {
		if e.cache.commit(req.Kind, req.Params.Fingerprint(), gen, payload) {
			e.notes.send(Event{Type: EventDataReady, Kind: req.Kind})
		} else {
			e.log.Debug("stale result dropped", "kind", req.Kind, "generation", gen)
		}
		return
	}
	if err == nil {
		// Ran to completion after being marked cancelled; the result
		// is discarded rather than cached.
		e.log.Debug("cancelled result dropped", "kind", req.Kind)
		return
	}
	ek := classify(ctx, err)
	if !ek.surfaces() {
		e.log.Debug("job ended internally", "kind", req.Kind, "cause", ek)
		return
	}
	e.log.Debug("job failed", "kind", req.Kind, "cause", ek, "err", err)
	e.notes.send(Event{Type: EventFailed, Kind: req.Kind, Err: ek, Detail: err.Error()})
}

// execute maps a kind onto its backend call. The kind set is closed,
// so a plain switch beats any dispatch table.
func (e *Engine) execute(ctx context.Context, req Request) (any, error) {
	p := req.Params
	switch req.Kind {
	case KindStatus:
		return e.backend.Status(ctx)
	case KindDiff:
		return e.backend.Diff(ctx, p.Path, p.Staged)
	case KindBlame:
		return e.backend.Blame(ctx, p.Path, e.progressFor(KindBlame))
	case KindLog:
		opts := gitx.LogOptions{Rev: p.Rev, Author: p.Author, Limit: p.Limit}
		return e.backend.Log(ctx, opts, e.progressFor(KindLog))
	case KindTags:
		return e.backend.Tags(ctx)
	case KindBranches:
		return e.backend.Branches(ctx)
	case KindRemotes:
		return e.backend.Remotes(ctx)
	case KindStashes:
		return e.backend.Stashes(ctx)
	case KindSubmodules:
		return e.backend.Submodules(ctx)
	case KindFetch:
		return e.backend.Fetch(ctx, p.Remote, e.creds, e.progressFor(KindFetch))
	case KindPush:
		return e.backend.Push(ctx, p.Remote, p.Branch, e.creds, e.progressFor(KindPush))
	}
	return nil, fmt.Errorf("unknown job kind %d", uint8(req.Kind))
}

// progressFor wraps the notifier in a rate limit so a chatty backend
// cannot flood the channel. Terminal progress (>= 1) always goes out.
func (e *Engine) progressFor(kind Kind) ProgressFunc {
	var last time.Time
	return func(fraction float64) {
		now := time.Now()
		if fraction < 1 && now.Sub(last) < e.cfg.ProgressInterval {
			return
		}
		last = now
		e.notes.send(Event{Type: EventProgress, Kind: kind, Fraction: fraction})
	}
}

// creds is the credentials callback handed to network jobs. Installed
// by the consumer via SetCredentials; nil until then.
func (e *Engine) creds(remote string) (string, string, error) {
	e.mu.Lock()
	fn := e.credsFn
	e.mu.Unlock()
	if fn == nil {
		return "", "", nil
	}
	return fn(remote)
}

// SetCredentials installs the callback invoked from worker threads
// when a remote asks for authentication.
func (e *Engine) SetCredentials(fn CredentialsFunc) {
	e.mu.Lock()
	e.credsFn = fn
	e.mu.Unlock()
}
