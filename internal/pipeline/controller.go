package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/video-summarizer/internal/videoid"
)

// User-visible failure messages.
const (
	MsgInvalidURL = "Invalid video URL"
	MsgTranscript = "Error fetching transcript"
	MsgSummary    = "Error fetching summary"
)

// ErrNotAwaitingConfirm is returned by Confirm when no run is parked in
// DescriptionReady waiting for confirmation.
var ErrNotAwaitingConfirm = errors.New("pipeline is not awaiting confirmation")

// ErrRunAborted is returned by Wait when the run's context ended before the
// run could start its first call.
var ErrRunAborted = errors.New("run aborted before it started")

// Backend performs the two external calls of a run.
type Backend interface {
	FetchDescription(ctx context.Context, id videoid.VideoID) (string, error)
	FetchSummary(ctx context.Context, description, instruction string) (string, error)
}

// Request is one submission.
type Request struct {
	VideoURL    string `json:"videoUrl"`
	Instruction string `json:"prompt"`
}

// Snapshot is a consistent copy of the controller's state.
type Snapshot struct {
	RunID        string          `json:"runId,omitempty"`
	State        State           `json:"state"`
	Loading      bool            `json:"loading"`
	VideoID      videoid.VideoID `json:"videoId,omitempty"`
	Description  string          `json:"description,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	ErrorMessage string          `json:"error,omitempty"`
	Err          error           `json:"-"`
}

// Event describes one applied transition.
type Event struct {
	RunID string    `json:"runId"`
	From  State     `json:"from"`
	To    State     `json:"to"`
	At    time.Time `json:"at"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithScrollNotifier sets the function called once when a summary arrives.
func WithScrollNotifier(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.onScroll = fn
	}
}

// WithObserver adds a function called for every applied transition.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// WithAwaitConfirm makes runs park in DescriptionReady until Confirm is called.
func WithAwaitConfirm(await bool) Option {
	return func(c *Controller) {
		c.awaitConfirm = await
	}
}

// Controller owns the state of the current run. A new Submit supersedes the
// previous run: its context is cancelled and any result it still produces is
// discarded.
type Controller struct {
	backend      Backend
	awaitConfirm bool
	onScroll     func(Snapshot)
	observers    []func(Event)

	mu      sync.Mutex
	snap    Snapshot
	cancel  context.CancelFunc
	confirm chan struct{}
	done    chan struct{}
}

// NewController creates an idle controller over backend.
func NewController(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		snap:    Snapshot{State: Idle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit starts a new run and returns its id. The previous run, if any, is
// cancelled and its description and summary are cleared.
//
// The new run makes no external call until the previous run's goroutine has
// returned, so a Backend that ignores cancellation delays it for as long as
// its call takes. Only ctx bounds that wait; when ctx ends first the run is
// abandoned in Idle and Wait reports ErrRunAborted.
func (c *Controller) Submit(ctx context.Context, req Request) string {
	runID := uuid.New().String()
	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	prev := c.done
	from := c.snap.State
	to, _ := next(from, trigReset)
	c.snap = Snapshot{RunID: runID, State: to}
	c.cancel = cancel
	c.done = make(chan struct{})
	c.confirm = make(chan struct{}, 1)
	if !c.awaitConfirm {
		c.confirm <- struct{}{}
	}
	done, confirm := c.done, c.confirm
	c.mu.Unlock()

	c.emit(Event{RunID: runID, From: from, To: to, At: time.Now()})
	go c.run(runCtx, runID, req, prev, confirm, done)
	return runID
}

// Confirm releases a run parked in DescriptionReady.
func (c *Controller) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.State != DescriptionReady || c.confirm == nil {
		return ErrNotAwaitingConfirm
	}
	select {
	case c.confirm <- struct{}{}:
		return nil
	default:
		return ErrNotAwaitingConfirm
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Wait blocks until the current run finishes. If the run is superseded while
// waiting, Wait follows the newer run. A run that ended without reaching a
// terminal state yields ErrRunAborted.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	for {
		c.mu.Lock()
		done := c.done
		c.mu.Unlock()

		if done == nil {
			return c.Snapshot(), nil
		}

		select {
		case <-done:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}

		c.mu.Lock()
		current, snap := c.done == done, c.snap
		c.mu.Unlock()
		if current {
			if !snap.State.Terminal() {
				return snap, ErrRunAborted
			}
			return snap, nil
		}
	}
}

// Close cancels the current run.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Controller) run(ctx context.Context, runID string, req Request, prev, confirm, done chan struct{}) {
	defer close(done)

	// The superseded run must release its external call first.
	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return
		}
	}

	if !c.apply(runID, trigSubmit, nil) {
		return
	}

	id, err := videoid.Extract(req.VideoURL)
	if err != nil {
		c.fail(runID, MsgInvalidURL, err)
		return
	}
	if !c.apply(runID, trigExtracted, func(s *Snapshot) { s.VideoID = id }) {
		return
	}

	description, err := c.backend.FetchDescription(ctx, id)
	if err != nil {
		c.fail(runID, MsgTranscript, err)
		return
	}
	if !c.apply(runID, trigDescription, func(s *Snapshot) { s.Description = description }) {
		return
	}

	select {
	case <-confirm:
	case <-ctx.Done():
		c.fail(runID, MsgSummary, ctx.Err())
		return
	}
	if !c.apply(runID, trigConfirm, nil) {
		return
	}

	summary, err := c.backend.FetchSummary(ctx, description, req.Instruction)
	if err != nil {
		c.fail(runID, MsgSummary, err)
		return
	}
	c.apply(runID, trigSummary, func(s *Snapshot) { s.Summary = summary })
}

func (c *Controller) fail(runID, message string, err error) {
	if c.apply(runID, trigFail, func(s *Snapshot) {
		s.ErrorMessage = message
		s.Err = err
	}) {
		slog.Warn("pipeline run failed",
			slog.String("run_id", runID),
			slog.String("message", message),
			slog.Any("error", err))
	}
}

// apply runs the transition for runID and reports whether it was applied.
// Inputs from a superseded run are dropped.
func (c *Controller) apply(runID string, t trigger, update func(*Snapshot)) bool {
	c.mu.Lock()
	if c.snap.RunID != runID {
		c.mu.Unlock()
		return false
	}
	from := c.snap.State
	to, err := next(from, t)
	if err != nil {
		c.mu.Unlock()
		slog.Error("pipeline transition rejected",
			slog.String("run_id", runID),
			slog.Any("error", err))
		return false
	}
	c.snap.State = to
	c.snap.Loading = to.Loading()
	if update != nil {
		update(&c.snap)
	}
	snap := c.snap
	c.mu.Unlock()

	c.emit(Event{RunID: runID, From: from, To: to, At: time.Now()})
	if from == FetchingSummary && to == SummaryReady && c.onScroll != nil {
		c.onScroll(snap)
	}
	return true
}

func (c *Controller) emit(ev Event) {
	for _, fn := range c.observers {
		fn(ev)
	}
}
