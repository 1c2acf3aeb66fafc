// Package controller implements the terminal's session state machine: card
// identification, presence confirmation inside a timeout window, one-shot
// report delivery. The controller is a step function driven by an external
// ticker; each Tick takes the current samples and clock reading and
// advances the single in-flight session. It holds no timers and never
// sleeps, so the only blocking inside a tick is the bounded report request
// and whatever the feedback devices take to sound a tone.
package controller

import (
	"context"
	"log/slog"
	"time"

	"gotap/card"
	"gotap/clock"
	"gotap/feedback"
	"gotap/motion"
	"gotap/report"
)

// Display texts. The reference surface is sixteen characters wide; wider
// backends center, narrower ones truncate.
const (
	msgPromptL1  = "Scan your card"
	msgPromptL2  = ""
	msgWaitL2    = "Wave to confirm"
	msgSendingL1 = "Motion detected"
	msgSendingL2 = "Sending report"
	msgSentL1    = "Report sent"
	msgSentL2    = "Thank you"
	msgSendErrL1 = "Send failed"
	msgSendErrL2 = "See the office"
	msgOfflineL1 = "Network offline"
	msgOfflineL2 = "Try again later"
	msgTimeoutL1 = "No motion seen"
	msgTimeoutL2 = "Scan to retry"
)

// Tone plan: two shorts arm a session, three shorts confirm delivery, one
// long marks any failure. Audible backends append their own inter-tone
// gap, so sequences are plain consecutive calls.
const (
	toneShort = 120 * time.Millisecond
	toneLong  = 600 * time.Millisecond
)

// Session outcomes as reported through Hooks.OnComplete.
const (
	OutcomeDelivered    = "delivered"
	OutcomeTransportErr = "transport_error"
	OutcomeOffline      = "offline"
	OutcomeTimeout      = "timeout"
)

// Event describes one completed session.
type Event struct {
	Token   string    `json:"token"`
	Outcome string    `json:"outcome"`
	Status  int       `json:"status,omitempty"`
	When    time.Time `json:"when"`
}

// Config carries the controller's fixed run parameters.
type Config struct {
	// Endpoint is the report URL prefix. The token is appended to it
	// verbatim, no escaping, exactly as the legacy endpoint expects.
	Endpoint string

	// Block is the card data block holding the identity.
	Block int

	// MotionTimeout is the presence window measured from the card read.
	// Default 10s.
	MotionTimeout time.Duration

	// HoldDwell is how long terminal messages stay on the display before
	// the idle prompt returns. Default 3s.
	HoldDwell time.Duration
}

// Deps are the capabilities the controller drives. Clock and Logger may be
// nil; everything else is required.
type Deps struct {
	Reader   card.Reader
	Motion   motion.Monitor
	Sink     report.Sink
	Feedback feedback.Emitter
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Hooks are optional observation points. Fields may be nil.
type Hooks struct {
	// OnComplete fires after a session ends, whether in a report attempt
	// or a timeout. It runs on the tick goroutine; keep it short.
	OnComplete func(Event)
}

// Controller owns the one-at-a-time session state machine. It is not safe
// for concurrent use: exactly one goroutine calls Tick.
type Controller struct {
	cfg    Config
	reader card.Reader
	motion motion.Monitor
	sink   report.Sink
	out    feedback.Emitter
	clk    clock.Clock
	hooks  Hooks
	logger *slog.Logger

	session   Session
	holdUntil time.Time
}

// New wires a controller.
func New(cfg Config, deps Deps, hooks Hooks) *Controller {
	if cfg.MotionTimeout <= 0 {
		cfg.MotionTimeout = 10 * time.Second
	}
	if cfg.HoldDwell <= 0 {
		cfg.HoldDwell = 3 * time.Second
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:    cfg,
		reader: deps.Reader,
		motion: deps.Motion,
		sink:   deps.Sink,
		out:    deps.Feedback,
		clk:    clk,
		hooks:  hooks,
		logger: logger,
	}
}

// Session returns a copy of the current session state. Callers must not
// mutate the payload.
func (c *Controller) Session() Session { return c.session }

// Tick advances the state machine one step. The caller owns the cadence.
func (c *Controller) Tick(ctx context.Context) {
	now := c.clk.Now()
	switch c.session.Phase {
	case PhaseIdle:
		c.tickIdle(now)
	case PhaseAwaitingMotion:
		c.tickArmed(ctx, now)
	}
}

func (c *Controller) tickIdle(now time.Time) {
	if now.Before(c.holdUntil) {
		return // keep the last terminal message up for its dwell
	}
	c.out.Show(msgPromptL1, msgPromptL2)

	h, ok := c.reader.Poll()
	if !ok {
		return
	}
	payload, err := c.reader.ReadIdentity(h, c.cfg.Block)
	if err != nil {
		// Auth and read failures alike are non-fatal: stay idle and
		// wait for the next presentation, no reader reset needed.
		c.logger.Warn("card read failed", "error", err)
		return
	}

	c.session = Session{Phase: PhaseAwaitingMotion, Payload: payload, ArmedAt: now}
	c.out.Tone(toneShort)
	c.out.Tone(toneShort)
	c.out.Show("Hi "+payload.Token(), msgWaitL2)
	c.logger.Info("session armed", "token", payload.Token())
}

func (c *Controller) tickArmed(ctx context.Context, now time.Time) {
	// Motion is checked before the window, so when both fire on the same
	// tick the report still goes out.
	if c.motion.Sample() {
		c.report(ctx, now)
		return
	}
	if now.Sub(c.session.ArmedAt) >= c.cfg.MotionTimeout {
		token := c.session.Payload.Token()
		c.logger.Info("presence timeout", "token", token,
			"window", c.cfg.MotionTimeout)
		c.finish(now, Event{Token: token, Outcome: OutcomeTimeout, When: now},
			msgTimeoutL1, msgTimeoutL2)
	}
}

// report runs the transient Reporting phase: connectivity precondition, one
// GET, operator feedback. It always lands back in Idle before returning.
func (c *Controller) report(ctx context.Context, now time.Time) {
	c.session.Phase = PhaseReporting
	token := c.session.Payload.Token()
	c.out.Show(msgSendingL1, msgSendingL2)

	if !c.sink.Connected() {
		c.logger.Warn("report skipped", "token", token, "error", report.ErrNotConnected)
		c.finish(now, Event{Token: token, Outcome: OutcomeOffline, When: now},
			msgOfflineL1, msgOfflineL2)
		return
	}

	url := c.cfg.Endpoint + token
	status, err := c.sink.Submit(ctx, url)
	if err != nil {
		c.logger.Error("report failed", "url", url, "error", err)
		c.finish(now, Event{Token: token, Outcome: OutcomeTransportErr, When: now},
			msgSendErrL1, msgSendErrL2)
		return
	}

	// Any response at all counts as delivered, error statuses included.
	c.logger.Info("report delivered", "token", token, "status", status)
	c.out.Show(msgSentL1, msgSentL2)
	c.out.Tone(toneShort)
	c.out.Tone(toneShort)
	c.out.Tone(toneShort)
	c.session = Session{}
	c.holdUntil = now.Add(c.cfg.HoldDwell)
	c.emit(Event{Token: token, Outcome: OutcomeDelivered, Status: status, When: now})
}

// finish closes a session on a failure path: message, long tone, dwell.
func (c *Controller) finish(now time.Time, ev Event, line1, line2 string) {
	c.out.Show(line1, line2)
	c.out.Tone(toneLong)
	c.session = Session{}
	c.holdUntil = now.Add(c.cfg.HoldDwell)
	c.emit(ev)
}

func (c *Controller) emit(ev Event) {
	if c.hooks.OnComplete != nil {
		c.hooks.OnComplete(ev)
	}
}
