package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/correlation"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/device"
	"github.com/flhxer703/Newmar-Lighting-Scheduler/internal/protocol"
)

// DefaultBudget is the overall time allowed for one pass.
const DefaultBudget = 10 * time.Second

// State is the discovery lifecycle state.
type State int

// Discovery states.
const (
	StateIdle State = iota
	StateCounting
	StateFetching
	StateReady
	StateFailed
)

var stateNames = [...]string{"idle", "counting", "fetching", "ready", "failed"}

// String returns the lower-case state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Result summarises one discovery pass.
type Result struct {
	State      State         `json:"state"`
	Advertised int           `json:"advertised"`
	Inserted   int           `json:"inserted"`
	Skipped    int           `json:"skipped"`
	Missing    int           `json:"missing"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Partial reports whether fewer devices were inserted than advertised.
func (r Result) Partial() bool {
	return r.Inserted < r.Advertised
}

// Sender writes one text frame to the controller.
type Sender interface {
	Send(ctx context.Context, msg string) error
}

// Logger defines the logging interface used by the Workflow.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Workflow runs discovery passes against one controller connection.
//
// Thread Safety: all methods are safe for concurrent use; at most one pass
// runs at a time.
type Workflow struct {
	registry  *device.Registry
	sender    Sender
	responses *correlation.Engine
	budget    time.Duration
	logger    Logger

	mu      sync.Mutex
	state   State
	running bool
	last    Result
}

// New creates a workflow. A zero budget uses DefaultBudget; a nil logger
// discards output.
func New(registry *device.Registry, sender Sender, responses *correlation.Engine, budget time.Duration, logger Logger) *Workflow {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Workflow{
		registry:  registry,
		sender:    sender,
		responses: responses,
		budget:    budget,
		logger:    logger,
		state:     StateIdle,
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastResult returns the result of the most recent completed pass.
func (w *Workflow) LastResult() Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Run performs one discovery pass. The registry is cleared once the count
// is known and refilled as objects arrive.
//
// It returns ErrInProgress if another pass is running, ErrTimeout if the
// count never arrives and ErrInvalidCount if it cannot be parsed. A pass
// that received the count always ends Ready, even with missing objects.
func (w *Workflow) Run(ctx context.Context) (Result, error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return Result{}, ErrInProgress
	}
	w.running = true
	w.mu.Unlock()

	start := time.Now()
	res, err := w.run(ctx)
	res.Elapsed = time.Since(start)

	w.mu.Lock()
	w.running = false
	w.state = res.State
	w.last = res
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("discovery failed", "error", err, "elapsed", res.Elapsed)
	} else {
		w.logger.Info("discovery complete",
			"advertised", res.Advertised,
			"inserted", res.Inserted,
			"skipped", res.Skipped,
			"missing", res.Missing,
			"elapsed", res.Elapsed,
		)
	}
	return res, err
}

func (w *Workflow) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Workflow) run(ctx context.Context) (Result, error) {
	dctx, cancel := context.WithTimeout(ctx, w.budget)
	defer cancel()

	w.setState(StateCounting)
	value, err := w.responses.Request(dctx, protocol.CountTag, 0, func() error {
		return w.sender.Send(dctx, protocol.CountRequest())
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{State: StateFailed}, fmt.Errorf("%w after %v", ErrTimeout, w.budget)
		}
		return Result{State: StateFailed}, fmt.Errorf("requesting device count: %w", err)
	}

	count, err := protocol.ParseCount(value)
	if err != nil {
		return Result{State: StateFailed}, fmt.Errorf("%w: %w", ErrInvalidCount, err)
	}

	w.registry.Clear()
	res := Result{State: StateReady, Advertised: count}
	if count == 0 {
		return res, nil
	}

	w.setState(StateFetching)
	w.fetch(dctx, count, &res)
	return res, nil
}

type objectResponse struct {
	index int
	value string
	err   error
}

// fetch registers every object tag before sending any request, then
// collects responses in arrival order until all have reported or the
// budget ends.
func (w *Workflow) fetch(ctx context.Context, count int, res *Result) {
	waiters := make([]*correlation.Waiter, count)
	for i := range waiters {
		waiters[i] = w.responses.Register(protocol.ObjectTag(i))
	}

	results := make(chan objectResponse, count)
	for i, waiter := range waiters {
		if err := w.sender.Send(ctx, protocol.ObjectRequest(i)); err != nil {
			waiter.Cancel()
			results <- objectResponse{index: i, err: err}
			continue
		}
		go func(i int, waiter *correlation.Waiter) {
			v, err := waiter.Wait(ctx, 0)
			results <- objectResponse{index: i, value: v, err: err}
		}(i, waiter)
	}

	for received := 0; received < count; received++ {
		r := <-results
		if r.err != nil {
			res.Missing++
			w.logger.Debug("device object not received", "index", r.index, "error", r.err)
			continue
		}

		obj, err := protocol.ParseDeviceObject(r.value)
		if err != nil {
			res.Skipped++
			w.logger.Warn("skipping unparseable device object", "index", r.index, "error", err)
			continue
		}

		if w.registry.Insert(device.FromObject(obj)) {
			res.Inserted++
		}
	}
}
