package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultTickPeriod is how often an active schedule is evaluated.
const DefaultTickPeriod = time.Minute

// Dispatcher carries out a firing event's action.
type Dispatcher interface {
	Dispatch(ctx context.Context, schedule string, action Action) error
}

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Options tune the engine. The zero value gives a one-minute tick in local
// time with minute de-duplication off.
type Options struct {
	TickPeriod time.Duration

	// DedupeMinute suppresses a second firing of the same schedule within
	// one wall-clock minute.
	DedupeMinute bool

	Location *time.Location

	// Now replaces time.Now in tests.
	Now func() time.Time
}

// evaluator is the per-schedule ticking goroutine. done is closed when
// run returns, after any in-progress dispatch.
type evaluator struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newEvaluator() *evaluator {
	return &evaluator{stop: make(chan struct{}), done: make(chan struct{})}
}

func (ev *evaluator) halt() {
	ev.once.Do(func() { close(ev.stop) })
}

// Engine stores schedules and runs one evaluator goroutine per active
// schedule.
//
// Enabled and active are independent: a schedule's evaluator may be running
// while the schedule is disabled, in which case each tick dispatches
// nothing.
//
// Thread Safety: all methods are safe for concurrent use.
type Engine struct {
	repo       Repository
	dispatcher Dispatcher
	logger     Logger

	period time.Duration
	dedupe bool
	loc    *time.Location
	now    func() time.Time

	mu         sync.Mutex
	schedules  map[string]*Schedule
	evaluators map[string]*evaluator
	// retiring holds halted evaluators whose goroutine has not returned yet.
	retiring   map[string]*evaluator
	lastMinute map[string]string
	stopped    bool

	// dispatchCtx outlives evaluators so an in-progress dispatch completes
	// after Deactivate.
	dispatchCtx context.Context
	wg          sync.WaitGroup
}

// NewEngine creates a schedule engine. A nil logger discards output.
func NewEngine(repo Repository, dispatcher Dispatcher, opts Options, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = DefaultTickPeriod
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		repo:        repo,
		dispatcher:  dispatcher,
		logger:      logger,
		period:      opts.TickPeriod,
		dedupe:      opts.DedupeMinute,
		loc:         opts.Location,
		now:         opts.Now,
		schedules:   make(map[string]*Schedule),
		evaluators:  make(map[string]*evaluator),
		retiring:    make(map[string]*evaluator),
		lastMinute:  make(map[string]string),
		dispatchCtx: context.Background(),
	}
}

// RefreshCache reloads every schedule from the repository. Rows that fail
// validation are skipped with a warning.
func (e *Engine) RefreshCache(ctx context.Context) error {
	schedules, err := e.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading schedules: %w", err)
	}

	next := make(map[string]*Schedule, len(schedules))
	for i := range schedules {
		s := schedules[i].DeepCopy()
		if err := ValidateSchedule(s); err != nil {
			e.logger.Warn("skipping invalid stored schedule", "schedule", s.Name, "error", err)
			continue
		}
		next[s.Name] = s
	}

	e.mu.Lock()
	e.schedules = next
	e.mu.Unlock()

	e.logger.Info("schedule cache refreshed", "count", len(next))
	return nil
}

// Create validates and stores a schedule, enabled. Overwriting an existing
// schedule keeps its creation time and its active state; a running
// evaluator picks up the new events on its next tick.
func (e *Engine) Create(ctx context.Context, name string, events []Event) (*Schedule, error) {
	return e.put(ctx, &Schedule{Name: name, Enabled: true, Events: events})
}

// Put stores s as given, including its Enabled flag. Import uses it.
func (e *Engine) Put(ctx context.Context, s *Schedule) (*Schedule, error) {
	return e.put(ctx, s.DeepCopy())
}

func (e *Engine) put(ctx context.Context, s *Schedule) (*Schedule, error) {
	if err := ValidateSchedule(s); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if existing, ok := e.schedules[s.Name]; ok {
		s.CreatedAt = existing.CreatedAt
	}
	e.mu.Unlock()

	if err := e.repo.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving schedule %q: %w", s.Name, err)
	}

	e.mu.Lock()
	// lastMinute survives the overwrite so re-storing a schedule during the
	// minute it fired does not fire it again.
	e.schedules[s.Name] = s.DeepCopy()
	e.mu.Unlock()

	e.logger.Info("schedule stored", "schedule", s.Name, "events", len(s.Events), "enabled", s.Enabled)
	return s, nil
}

// Get returns a copy of the named schedule.
func (e *Engine) Get(name string) (*Schedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.schedules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrScheduleNotFound, name)
	}
	return s.DeepCopy(), nil
}

// List returns every schedule sorted by name.
func (e *Engine) List() []Schedule {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Schedule, 0, len(e.schedules))
	for _, s := range e.schedules {
		out = append(out, *s.DeepCopy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetEnabled changes the Enabled flag without touching the evaluator.
func (e *Engine) SetEnabled(ctx context.Context, name string, enabled bool) error {
	if _, err := e.Get(name); err != nil {
		return err
	}
	if err := e.repo.SetEnabled(ctx, name, enabled); err != nil {
		return fmt.Errorf("updating schedule %q: %w", name, err)
	}

	e.mu.Lock()
	if s, ok := e.schedules[name]; ok {
		s.Enabled = enabled
	}
	e.mu.Unlock()

	e.logger.Info("schedule enabled changed", "schedule", name, "enabled", enabled)
	return nil
}

// Delete deactivates and removes the named schedule and reports whether it
// existed.
func (e *Engine) Delete(ctx context.Context, name string) (bool, error) {
	e.Deactivate(name)

	removed, err := e.repo.Delete(ctx, name)
	if err != nil {
		return false, fmt.Errorf("deleting schedule %q: %w", name, err)
	}

	e.mu.Lock()
	_, cached := e.schedules[name]
	delete(e.schedules, name)
	delete(e.lastMinute, name)
	e.mu.Unlock()

	if removed || cached {
		e.logger.Info("schedule deleted", "schedule", name)
	}
	return removed || cached, nil
}

// Activate starts the evaluator for name. The first evaluation runs
// immediately, then once per tick period. Activating an active schedule
// does nothing.
//
// If name was deactivated while a dispatch was in flight, Activate waits for
// that evaluator to exit first, so at most one evaluator ticks per name.
func (e *Engine) Activate(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		if e.stopped {
			return ErrStopped
		}
		if _, ok := e.schedules[name]; !ok {
			return fmt.Errorf("%w: %q", ErrScheduleNotFound, name)
		}
		if _, running := e.evaluators[name]; running {
			return nil
		}

		prev, ok := e.retiring[name]
		if !ok {
			break
		}
		e.mu.Unlock()
		<-prev.done
		e.mu.Lock()
	}

	ev := newEvaluator()
	e.evaluators[name] = ev
	e.wg.Add(1)
	go e.run(name, ev)

	e.logger.Info("schedule activated", "schedule", name, "period", e.period)
	return nil
}

// Deactivate stops future ticks of name. A dispatch already in progress
// runs to completion; Deactivate does not wait for it. Deactivating an
// inactive schedule does nothing.
func (e *Engine) Deactivate(name string) {
	e.mu.Lock()
	ev, ok := e.evaluators[name]
	if ok {
		delete(e.evaluators, name)
		e.retiring[name] = ev
	}
	e.mu.Unlock()

	if ok {
		ev.halt()
		e.logger.Info("schedule deactivated", "schedule", name)
	}
}

// IsActive reports whether name has a running evaluator.
func (e *Engine) IsActive(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.evaluators[name]
	return ok
}

// Active returns the names of schedules with running evaluators, sorted.
func (e *Engine) Active() []string {
	e.mu.Lock()
	names := make([]string, 0, len(e.evaluators))
	for name := range e.evaluators {
		names = append(names, name)
	}
	e.mu.Unlock()

	sort.Strings(names)
	return names
}

// ActivateEnabled starts an evaluator for every enabled schedule and
// returns how many were started.
func (e *Engine) ActivateEnabled() int {
	started := 0
	for _, s := range e.List() {
		if !s.Enabled || e.IsActive(s.Name) {
			continue
		}
		if err := e.Activate(s.Name); err != nil {
			e.logger.Warn("schedule activation failed", "schedule", s.Name, "error", err)
			continue
		}
		started++
	}
	return started
}

// Stop halts every evaluator and waits for in-progress dispatches. The
// engine refuses further activations.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	evaluators := e.evaluators
	e.evaluators = make(map[string]*evaluator)
	e.mu.Unlock()

	for _, ev := range evaluators {
		ev.halt()
	}
	e.wg.Wait()
}

func (e *Engine) run(name string, ev *evaluator) {
	defer e.wg.Done()
	defer e.retire(name, ev)

	e.tick(name, ev)

	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-ev.stop:
			return
		case <-ticker.C:
			e.tick(name, ev)
		}
	}
}

// retire drops ev from the retiring set and wakes any Activate waiting on it.
func (e *Engine) retire(name string, ev *evaluator) {
	e.mu.Lock()
	if e.retiring[name] == ev {
		delete(e.retiring, name)
	}
	e.mu.Unlock()
	close(ev.done)
}

func (e *Engine) tick(name string, ev *evaluator) {
	select {
	case <-ev.stop:
		return
	default:
	}

	if _, err := e.Evaluate(e.dispatchCtx, name, e.now()); err != nil {
		e.logger.Debug("schedule tick skipped", "schedule", name, "error", err)
	}
}

// Evaluate runs one tick of name at now and returns how many actions were
// dispatched successfully. Matching events fire sequentially in list order.
// A disabled schedule dispatches nothing.
func (e *Engine) Evaluate(ctx context.Context, name string, now time.Time) (int, error) {
	s, err := e.Get(name)
	if err != nil {
		return 0, err
	}
	if !s.Enabled {
		return 0, nil
	}

	local := now.In(e.loc)
	clock := local.Format(clockLayout)
	day := DayTag(local.Weekday())

	var due []Event
	for _, event := range s.Events {
		if event.Matches(clock, day) {
			due = append(due, event)
		}
	}
	if len(due) == 0 {
		return 0, nil
	}

	if e.dedupe && !e.claimMinute(name, local.Format("2006-01-02 15:04")) {
		e.logger.Debug("schedule already fired this minute", "schedule", name, "minute", clock)
		return 0, nil
	}

	dispatched := 0
	for _, event := range due {
		if err := e.dispatcher.Dispatch(ctx, name, event.Action); err != nil {
			e.logger.Warn("schedule action failed",
				"schedule", name, "time", event.Time, "action", event.Action.String(), "error", err)
			continue
		}
		dispatched++
		e.logger.Info("schedule fired", "schedule", name, "time", event.Time, "action", event.Action.String())
	}
	return dispatched, nil
}

// claimMinute records minute as fired for name and reports whether it was
// new.
func (e *Engine) claimMinute(name, minute string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lastMinute[name] == minute {
		return false
	}
	e.lastMinute[name] = minute
	return true
}
