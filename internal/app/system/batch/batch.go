// internal/app/system/batch/batch.go
//
// Package batch coalesces near-simultaneous identical mutating calls into one
// record-store round trip. Rapid UI interaction (an accidental double-click on
// "mark overdue") otherwise produces two independent writes; the batcher opens
// a short window per operation key, collects callers, and executes once per
// distinct argument tuple when the window closes.
//
// Like the cache, a Batcher is constructed by the composition root and
// injected; there is no package-level instance.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults for Options zero values.
const (
	DefaultWindow      = 100 * time.Millisecond
	DefaultExecTimeout = 30 * time.Second
)

// Executor performs the underlying write for one distinct argument tuple.
type Executor func(ctx context.Context, args []any) (any, error)

// Options configures a Batcher.
type Options struct {
	Window      time.Duration // coalescing delay after the first call
	ExecTimeout time.Duration // deadline handed to executors at flush
	Logger      *zap.Logger
}

type outcome struct {
	value any
	err   error
}

type call struct {
	args    []any
	argsKey string
	done    chan outcome
}

type window struct {
	exec    Executor
	pending []*call
	timer   *time.Timer
}

// Batcher coalesces calls per operation key. Safe for concurrent use.
type Batcher struct {
	mu      sync.Mutex
	windows map[string]*window
	closed  bool
	wg      sync.WaitGroup

	delay       time.Duration
	execTimeout time.Duration
	log         *zap.Logger
}

// New constructs a Batcher. Zero option fields take the package defaults.
func New(opts Options) *Batcher {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.ExecTimeout <= 0 {
		opts.ExecTimeout = DefaultExecTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Batcher{
		windows:     make(map[string]*window),
		delay:       opts.Window,
		execTimeout: opts.ExecTimeout,
		log:         opts.Logger,
	}
}

// Do joins the pending window for key, opening one if none exists, and blocks
// until the window closes and this caller's argument tuple has been executed.
// Calls sharing key and an identical argument tuple inside one window share a
// single executor invocation and receive the same result. Distinct tuples in
// the same window execute independently; one tuple failing does not affect
// the others.
//
// The executor of the first call in a window is the one used at flush. ctx
// only governs this caller's wait: cancellation abandons the result, it does
// not cancel the underlying write.
func (b *Batcher) Do(ctx context.Context, key string, exec Executor, args ...any) (any, error) {
	c := &call{
		args:    args,
		argsKey: serializeArgs(args),
		done:    make(chan outcome, 1),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, fmt.Errorf("batch: closed")
	}
	w, ok := b.windows[key]
	if !ok {
		w = &window{exec: exec}
		w.timer = time.AfterFunc(b.delay, func() { b.flush(key) })
		b.windows[key] = w
	}
	w.pending = append(w.pending, c)
	b.mu.Unlock()

	select {
	case out := <-c.done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// flush closes the window for key: groups its pending calls by argument
// tuple, executes once per distinct tuple, and fans results out. If the
// grouping machinery itself fails, every caller in the window is rejected.
func (b *Batcher) flush(key string) {
	b.mu.Lock()
	w, ok := b.windows[key]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.windows, key)
	b.wg.Add(1)
	b.mu.Unlock()
	defer b.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("batch: dispatch failed for %s: %v", key, r)
			b.log.Error("batch dispatch panicked", zap.String("key", key), zap.Any("panic", r))
			for _, c := range w.pending {
				// Buffered; at most one send per call.
				select {
				case c.done <- outcome{err: err}:
				default:
				}
			}
		}
	}()

	groups := make(map[string][]*call)
	order := make([]string, 0, len(w.pending))
	for _, c := range w.pending {
		if _, seen := groups[c.argsKey]; !seen {
			order = append(order, c.argsKey)
		}
		groups[c.argsKey] = append(groups[c.argsKey], c)
	}

	for _, argsKey := range order {
		calls := groups[argsKey]
		out := b.execute(key, w.exec, calls[0].args)
		for _, c := range calls {
			c.done <- out
		}
	}
}

// execute runs one tuple's executor with a detached, bounded context and
// converts a panic into an error for that tuple only.
func (b *Batcher) execute(key string, exec Executor, args []any) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("batch executor panicked", zap.String("key", key), zap.Any("panic", r))
			out = outcome{err: fmt.Errorf("batch: executor panicked for %s: %v", key, r)}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), b.execTimeout)
	defer cancel()
	v, err := exec(ctx, args)
	return outcome{value: v, err: err}
}

// PendingWindows reports how many operation keys currently have an open
// window. Exposed for the admin cache/batch stats surface.
func (b *Batcher) PendingWindows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.windows)
}

// Close fires every open window immediately and waits for in-flight
// executions to finish. Called from the application shutdown hook.
func (b *Batcher) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	keys := make([]string, 0, len(b.windows))
	for key, w := range b.windows {
		w.timer.Stop()
		keys = append(keys, key)
	}
	b.mu.Unlock()

	for _, key := range keys {
		b.flush(key)
	}
	b.wg.Wait()
}

// serializeArgs produces a stable identity for an argument tuple. JSON keeps
// identical values identical regardless of pointer identity; anything that
// fails to marshal falls back to its verbose Go representation.
func serializeArgs(args []any) string {
	buf, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%#v", args)
	}
	return string(buf)
}
