package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Action is the unit of work a Task runs on every cycle. The context is
// cancelled when the task is force-cancelled; implementations should honor it
// on long operations.
type Action func(ctx context.Context) error

// Task is a named periodic job. The zero value is not usable; construct with
// New. A Task can be restarted after Shutdown or Cancel.
type Task struct {
	name         string
	initialDelay time.Duration
	repeat       time.Duration
	action       Action
	logger       *slog.Logger

	mu          sync.Mutex
	running     bool
	keepRunning bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// Option configures a Task.
type Option func(*Task)

// WithInitialDelay delays the first run after Start.
func WithInitialDelay(d time.Duration) Option {
	return func(t *Task) { t.initialDelay = d }
}

// WithRepeat sets the repeat interval. A non-positive interval makes the task
// one-shot: the action runs once and the task stops.
func WithRepeat(d time.Duration) Option {
	return func(t *Task) { t.repeat = d }
}

// WithLogger sets the logger for action failures and lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(t *Task) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Task that runs action according to the configured schedule.
// Panics on a nil action to fail fast during initialization.
func New(name string, action Action, opts ...Option) *Task {
	if action == nil {
		panic("scheduler: action is required")
	}
	t := &Task{
		name:   name,
		action: action,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the task's background goroutine. Calling Start on a running
// task has no effect.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.running = true
	t.keepRunning = true
	t.done = make(chan struct{})

	go t.loop(ctx, t.done)
	t.logger.Info("scheduler task started",
		slog.String("task", t.name),
		slog.Duration("repeat", t.repeat))
}

// Shutdown initiates an orderly stop: a run already in progress completes,
// but no further run begins. It has no additional effect once requested.
func (t *Task) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.keepRunning {
		return
	}
	t.keepRunning = false
	t.logger.Info("scheduler task shutting down", slog.String("task", t.name))
}

// Cancel stops the task immediately, interrupting the inter-cycle wait and
// cancelling the context of a run in progress.
func (t *Task) Cancel() {
	t.mu.Lock()
	t.keepRunning = false
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.logger.Info("scheduler task cancelled", slog.String("task", t.name))
}

// Running reports whether the task's goroutine is alive. It is safe against
// concurrent Start/Shutdown/Cancel.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Wait blocks until the task's goroutine exits. It returns immediately for a
// task that was never started.
func (t *Task) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (t *Task) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		close(done)
	}()

	if !sleep(ctx, t.initialDelay) {
		return
	}

	if t.repeat <= 0 {
		if t.shouldRun(ctx) {
			t.tryAction(ctx)
		}
		return
	}

	for t.shouldRun(ctx) {
		began := time.Now()
		t.tryAction(ctx)
		elapsed := time.Since(began)

		// A run longer than the interval starts the next one immediately
		// instead of accumulating negative wait.
		wait := t.repeat - elapsed
		if wait < 0 {
			wait = 0
		}
		if !t.shouldRun(ctx) {
			return
		}
		if !sleep(ctx, wait) {
			return
		}
	}
}

func (t *Task) shouldRun(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.keepRunning
}

// tryAction runs one cycle, containing errors and panics so a bad cycle never
// kills the schedule.
func (t *Task) tryAction(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("scheduler task panicked",
				slog.String("task", t.name),
				slog.Any("panic", r))
		}
	}()

	if err := t.action(ctx); err != nil {
		t.logger.Warn("scheduler task action failed",
			slog.String("task", t.name),
			slog.String("error", err.Error()))
	}
}

// sleep waits for d or until ctx is cancelled; it reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
