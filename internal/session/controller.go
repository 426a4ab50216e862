// Package session implements the edit session controller: it checks the
// submission preconditions, sends one edit request at a time, and turns the
// outcome into a state and a user-facing status line.
//
// A submission is split in three steps so surfaces can run the network call
// off their event loop:
//
//	ticket, ok := c.Begin(src, prompt)   // synchronous transition
//	outcome := c.Execute(ctx, ticket)    // the only blocking step
//	c.Complete(outcome)                  // applied only if still current
//
// Every Begin issues a new token; Complete discards outcomes whose token is
// no longer current, so a slow response can never overwrite a newer one.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fpang/warm-edit-studio/internal/apperr"
	"github.com/fpang/warm-edit-studio/internal/editclient"
	"github.com/fpang/warm-edit-studio/internal/intake"
	"github.com/fpang/warm-edit-studio/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Editor performs one edit request.
type Editor interface {
	Edit(ctx context.Context, req editclient.Request) (*editclient.Response, error)
}

// Ticket is an accepted submission waiting to be executed.
type Ticket struct {
	Token   uint64
	Request editclient.Request
	started time.Time
}

// Outcome is the result of executing a Ticket.
type Outcome struct {
	Token    uint64
	Response *editclient.Response
	Err      error
	Elapsed  time.Duration
	upload   int
}

// Controller is the edit session controller. Safe for concurrent use.
type Controller struct {
	editor     Editor
	baseURL    string
	metricsOut io.Writer
	surface    string

	mu      sync.Mutex
	state   State
	status  string
	result  *EditResult
	lastErr error
	token   uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithMetrics writes one metrics line per completed submission to w.
func WithMetrics(w io.Writer) Option {
	return func(c *Controller) {
		c.metricsOut = w
	}
}

// WithSurface names the driving surface in metrics ("tui", "headless").
func WithSurface(name string) Option {
	return func(c *Controller) {
		c.surface = name
	}
}

// NewController creates a controller. baseURL resolves relative result
// references and must be absolute.
func NewController(editor Editor, baseURL string, opts ...Option) *Controller {
	c := &Controller{
		editor:  editor,
		baseURL: strings.TrimRight(baseURL, "/"),
		surface: "unknown",
		state:   Idle,
		status:  MsgWelcome,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin checks preconditions and, if they hold, moves to Submitting and
// returns the ticket to execute. On a missing image or blank prompt it sets
// the status line, records an InvalidInput error and leaves the state
// unchanged. Begin does not refuse a call while Submitting; the newer ticket
// supersedes the older one.
func (c *Controller) Begin(src *intake.SourceImage, prompt string) (*Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if src == nil {
		c.status = MsgNeedImage
		c.lastErr = apperr.InvalidInput(MsgNeedImage)
		log.Info().Str("state", c.state.String()).Msg("Submit refused: no image")
		return nil, false
	}
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		c.status = MsgNeedPrompt
		c.lastErr = apperr.InvalidInput(MsgNeedPrompt)
		log.Info().Str("state", c.state.String()).Msg("Submit refused: blank prompt")
		return nil, false
	}

	c.token++
	c.state = Submitting
	c.result = nil
	c.lastErr = nil
	c.status = MsgWorking

	log.Info().
		Uint64("token", c.token).
		Str("name", src.Name).
		Int("prompt_length", len(trimmed)).
		Msg("Submission started")

	return &Ticket{
		Token: c.token,
		Request: editclient.Request{
			Filename: src.Name,
			MIMEType: src.MIMEType,
			Image:    src.Data,
			Prompt:   trimmed,
		},
		started: time.Now(),
	}, true
}

// Execute performs the edit request for t. It does not touch controller
// state and may run on any goroutine.
func (c *Controller) Execute(ctx context.Context, t *Ticket) Outcome {
	resp, err := c.editor.Edit(ctx, t.Request)
	return Outcome{
		Token:    t.Token,
		Response: resp,
		Err:      err,
		Elapsed:  time.Since(t.started),
		upload:   len(t.Request.Image),
	}
}

// Complete applies o if its token is still current and the controller is
// Submitting. It reports whether the outcome was applied.
func (c *Controller) Complete(o Outcome) bool {
	c.mu.Lock()
	if o.Token != c.token || c.state != Submitting {
		current := c.token
		c.mu.Unlock()
		log.Info().
			Uint64("token", o.Token).
			Uint64("current", current).
			Msg("Discarding stale edit response")
		return false
	}

	switch {
	case o.Err == nil && o.Response != nil:
		c.state = Succeeded
		c.result = &EditResult{Reference: o.Response.Image, Filename: o.Response.Filename}
		c.status = MsgSucceeded
		c.lastErr = nil
	case apperr.Is(o.Err, apperr.KindRequestRejected):
		c.state = Failed
		c.result = nil
		c.status = rejectionMessage(o.Err)
		c.lastErr = o.Err
	default:
		err := o.Err
		if err == nil {
			err = apperr.Transport("empty response", nil)
		} else if _, ok := apperr.KindOf(err); !ok {
			err = apperr.Transport(MsgTransportFailure, err)
		}
		c.state = Failed
		c.result = nil
		c.status = MsgTransportFailure
		c.lastErr = err
	}
	state := c.state
	lastErr := c.lastErr
	c.mu.Unlock()

	if lastErr != nil {
		log.Warn().Err(lastErr).Uint64("token", o.Token).Dur("elapsed", o.Elapsed).Msg("Edit failed")
	} else {
		log.Info().Uint64("token", o.Token).Dur("elapsed", o.Elapsed).Msg("Edit succeeded")
	}
	c.recordMetrics(o, state)
	return true
}

// Submit runs Begin, Execute and Complete in one call and returns the
// resulting state.
func (c *Controller) Submit(ctx context.Context, src *intake.SourceImage, prompt string) State {
	t, ok := c.Begin(src, prompt)
	if !ok {
		return c.State()
	}
	c.Complete(c.Execute(ctx, t))
	return c.State()
}

func rejectionMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return MsgGenericFailure
}

func (c *Controller) recordMetrics(o Outcome, state State) {
	rec := metrics.New(c.metricsOut).
		Dimension("Outcome", state.String()).
		Dimension("Surface", c.surface).
		Duration("EditLatencyMs", o.Elapsed).
		Metric("UploadBytes", float64(o.upload), metrics.UnitBytes)
	if o.Response != nil {
		rec.Property("requestId", o.Response.RequestID)
		rec.Property("statusCode", o.Response.StatusCode)
	}
	var e *apperr.Error
	if errors.As(o.Err, &e) {
		rec.Property("errorKind", e.Kind.String())
		if e.StatusCode != 0 {
			rec.Property("statusCode", e.StatusCode)
		}
	}
	rec.Flush()
}

// InputsChanged re-validates the state after the image or prompt changed.
// While Submitting the state is left alone.
func (c *Controller) InputsChanged(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Submitting {
		return
	}
	if ready {
		c.state = Ready
	} else {
		c.state = Idle
	}
}

// SourceReplaced drops the previous result after a new image was selected.
// A request still in flight belongs to the old image, so its token is
// retired and the state leaves Submitting; InputsChanged then settles it.
func (c *Controller) SourceReplaced() {
	c.mu.Lock()
	c.result = nil
	abandoned := c.state == Submitting
	if abandoned {
		c.token++
		c.state = Idle
	}
	token := c.token
	c.mu.Unlock()

	if abandoned {
		log.Info().Uint64("token", token).Msg("Source replaced during edit, in-flight response will be discarded")
	}
}

// Notify sets the status line.
func (c *Controller) Notify(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// ClearResult drops the current EditResult.
func (c *Controller) ClearResult() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the current status line.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Result returns the current EditResult, if any.
func (c *Controller) Result() (EditResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return EditResult{}, false
	}
	return *c.result, true
}

// ResolvedResult returns the current result resolved against the base URL.
func (c *Controller) ResolvedResult() (string, bool) {
	r, ok := c.Result()
	if !ok {
		return "", false
	}
	return c.ResolveResult(r.Reference), true
}

// ResolveResult resolves ref against the configured base URL.
func (c *Controller) ResolveResult(ref string) string {
	return ResolveResult(c.baseURL, ref)
}

// LastError returns the error behind the current status line, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// BaseURL returns the configured result base.
func (c *Controller) BaseURL() string {
	return c.baseURL
}

var _ intake.Observer = (*Controller)(nil)
