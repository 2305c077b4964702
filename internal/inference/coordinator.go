package inference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llama-chat/llama-chat/internal/conversation"
)

// State is the coordinator's position in the request lifecycle.
type State int

const (
	StateIdle State = iota
	StateDispatching
	StateDelivering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateDelivering:
		return "delivering"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PendingRequest is an accepted submission awaiting its backend result.
type PendingRequest struct {
	ID     uint64
	Prompt string
	// SubmittedAtSequence is the sequence number of the user turn that
	// carried the prompt.
	SubmittedAtSequence uint64
	SubmittedAt         time.Time
}

// Options tunes a Coordinator.
type Options struct {
	// UseTemplate is passed through to Backend.Generate.
	UseTemplate bool
	// Timeout bounds each backend call. Zero means no limit.
	Timeout  time.Duration
	Logger   *zap.Logger
	Observer Observer
}

type job struct {
	req    PendingRequest
	ctx    context.Context
	cancel context.CancelFunc
}

// Coordinator runs submissions against a Backend without blocking the
// interactive context.
//
// Submit, CancelPending, State and Pending must be called on the interactive
// context, the same one the Poster delivers to. Complete may be called from
// anywhere.
type Coordinator struct {
	store    *conversation.Store
	backend  Backend
	poster   Poster
	opts     Options
	logger   *zap.Logger
	observer Observer
	name     string

	// owned by the interactive context
	nextID  uint64
	current *PendingRequest
	state   State

	// dispatch slot shared with the worker
	mu      sync.Mutex
	queued  *job
	running *job
	closed  bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wake       chan struct{}
	wg         sync.WaitGroup
}

// NewCoordinator starts a coordinator and its background worker. backend may
// be nil, in which case submissions are recorded but never dispatched.
func NewCoordinator(store *conversation.Store, backend Backend, poster Poster, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := opts.Observer
	if observer == nil {
		observer = NoopObserver{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		store:      store,
		backend:    backend,
		poster:     poster,
		opts:       opts,
		logger:     logger.Named("coordinator"),
		observer:   observer,
		baseCtx:    ctx,
		baseCancel: cancel,
		wake:       make(chan struct{}, 1),
	}
	if backend != nil {
		c.name = backend.Name()
		c.wg.Add(1)
		go c.run()
	}
	return c
}

// BackendName returns the configured backend's name, or "" if none.
func (c *Coordinator) BackendName() string {
	return c.name
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return c.state
}

// Pending returns the current, non-superseded request.
func (c *Coordinator) Pending() (PendingRequest, bool) {
	if c.current == nil {
		return PendingRequest{}, false
	}
	return *c.current, true
}

// Submit records text as a user turn and schedules it for inference. It
// returns the new request ID without waiting for the backend.
//
// Empty input fails with conversation.ErrEmptyInput before anything is
// appended. Without a backend the turn is appended and ErrNoBackend is
// returned. A request that is still pending is superseded.
func (c *Coordinator) Submit(text string) (uint64, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}

	turn, err := c.store.AppendUserTurn(text)
	if err != nil {
		return 0, err
	}
	if c.backend == nil {
		c.logger.Debug("message recorded without backend", zap.Uint64("sequence", turn.Sequence))
		return 0, ErrNoBackend
	}

	if prev := c.current; prev != nil {
		c.emit(Event{Type: EventSuperseded, RequestID: prev.ID})
	}

	c.nextID++
	req := PendingRequest{
		ID:                  c.nextID,
		Prompt:              turn.Text,
		SubmittedAtSequence: turn.Sequence,
		SubmittedAt:         time.Now(),
	}
	c.current = &req
	c.state = StateDispatching
	c.emit(Event{Type: EventSubmitted, RequestID: req.ID})

	c.enqueue(req)
	return req.ID, nil
}

// CancelPending supersedes the current request. Its result, if one ever
// arrives, is discarded. The backend call is asked to stop through its
// context but may keep running. It reports whether a request was pending.
func (c *Coordinator) CancelPending() bool {
	if c.current == nil {
		return false
	}
	id := c.current.ID
	c.current = nil
	c.state = StateIdle

	c.mu.Lock()
	if c.queued != nil && c.queued.req.ID == id {
		c.queued.cancel()
		c.queued = nil
	}
	if c.running != nil && c.running.req.ID == id {
		c.running.cancel()
	}
	c.mu.Unlock()

	c.emit(Event{Type: EventCancelled, RequestID: id})
	return true
}

// Complete delivers the result for request id. It may be called from any
// goroutine; the transcript is updated on the interactive context.
func (c *Coordinator) Complete(id uint64, res Result) {
	c.poster.Post(func() { c.deliver(id, res) })
}

// Close stops the worker. It cancels any queued or running backend call and
// waits for the worker to return.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.queued = nil
	c.mu.Unlock()

	c.baseCancel()
	c.wg.Wait()
}

func (c *Coordinator) enqueue(req PendingRequest) {
	ctx, cancel := context.WithCancel(c.baseCtx)

	c.mu.Lock()
	if c.queued != nil {
		// never dispatched, replaced by a newer submission
		c.queued.cancel()
	}
	c.queued = &job{req: req, ctx: ctx, cancel: cancel}
	if c.running != nil {
		c.running.cancel()
	}
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Coordinator) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.baseCtx.Done():
			return
		case <-c.wake:
		}

		for {
			c.mu.Lock()
			j := c.queued
			c.queued = nil
			c.running = j
			c.mu.Unlock()
			if j == nil {
				break
			}

			c.dispatch(j)

			c.mu.Lock()
			c.running = nil
			c.mu.Unlock()
		}
	}
}

func (c *Coordinator) dispatch(j *job) {
	defer j.cancel()
	if j.ctx.Err() != nil {
		return
	}

	ctx := j.ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	c.emit(Event{Type: EventDispatched, RequestID: j.req.ID})
	start := time.Now()
	text, err := c.generate(ctx, j.req.Prompt)
	res := Result{Text: text, Duration: time.Since(start)}
	if err != nil {
		res.Err = &BackendError{Backend: c.name, Err: err}
	}
	c.Complete(j.req.ID, res)
}

func (c *Coordinator) generate(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()
	return c.backend.Generate(ctx, prompt, c.opts.UseTemplate)
}

func (c *Coordinator) deliver(id uint64, res Result) {
	if c.current == nil || c.current.ID != id {
		c.emit(Event{Type: EventDiscarded, RequestID: id, Duration: res.Duration})
		return
	}

	c.state = StateDelivering
	if res.Err != nil {
		c.store.AppendErrorTurn(id, ErrorText(res.Err))
		c.emit(Event{Type: EventFailed, RequestID: id, Duration: res.Duration, Err: res.Err})
	} else {
		c.store.AppendResponse(id, res.Text)
		c.emit(Event{Type: EventCompleted, RequestID: id, Duration: res.Duration})
	}

	// a newer Submit from an append observer may have replaced current
	if c.current != nil && c.current.ID == id {
		c.current = nil
		c.state = StateIdle
	}
}

func (c *Coordinator) emit(event Event) {
	event.Backend = c.name
	event.Timestamp = time.Now()
	c.observer.OnEvent(event)
}
