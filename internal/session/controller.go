// Package session runs the lifecycle of a single speech-recognition
// session: Idle -> Listening -> (result | error | end) -> Idle.
package session

import (
	"log/slog"
	"sync"

	"violet/internal/settings"
)

type State int

const (
	Idle State = iota
	Listening
)

// Recognizer is the injected capture capability. Start begins one
// recognition attempt in the given language; Stop cancels it.
// Implementations report back through the Sink the controller binds.
type Recognizer interface {
	Start(lang string) error
	Stop()
}

// Sink receives capture lifecycle events. The controller implements it.
type Sink interface {
	Result(transcript string)
	Err(err error)
	End()
}

type Config struct {
	Recognizer Recognizer
	Settings   *settings.Store

	// Send is the orchestrator's send path, used when autoSend is on.
	Send func(text string)
	// Stage holds a transcript for the user to review before sending.
	Stage func(text string)
	// Busy reports whether a send is already in flight; toggling is a
	// no-op while it returns true.
	Busy func() bool
}

// Controller gates session starts on the live settings and reconciles
// capture events with user-driven stops. At most one session is
// active; a toggle while listening stops it, and events arriving after
// a manual stop are dropped by the state check.
type Controller struct {
	mu    sync.Mutex
	state State
	cfg   Config
}

func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Toggle starts a session when idle and stops it when listening.
// The recognition language is bound from the settings value read now,
// not from anything cached at construction.
func (c *Controller) Toggle() {
	c.mu.Lock()

	if c.state == Listening {
		c.state = Idle
		c.mu.Unlock()
		c.cfg.Recognizer.Stop()
		slog.Debug("listening stopped by toggle")
		return
	}

	if c.cfg.Busy != nil && c.cfg.Busy() {
		c.mu.Unlock()
		slog.Debug("toggle ignored, send in flight")
		return
	}

	cur := c.cfg.Settings.Current()
	if !cur.VoiceEnabled {
		c.mu.Unlock()
		slog.Debug("toggle ignored, voice disabled")
		return
	}

	lang := cur.Language.Tag()
	c.state = Listening
	c.mu.Unlock()

	if err := c.cfg.Recognizer.Start(lang); err != nil {
		slog.Error("capture start failed", "err", err)
		c.mu.Lock()
		c.state = Idle
		c.mu.Unlock()
		return
	}
	slog.Info("listening", "lang", lang)
}

// Result delivers a final transcript. autoSend is re-read from the
// live settings here, so a flip during the session takes effect.
func (c *Controller) Result(transcript string) {
	c.mu.Lock()
	if c.state != Listening {
		c.mu.Unlock()
		slog.Debug("dropping transcript, session not listening")
		return
	}
	c.state = Idle
	c.mu.Unlock()

	slog.Info("transcript", "text", transcript)
	if c.cfg.Settings.Current().AutoSend {
		c.cfg.Send(transcript)
	} else {
		c.cfg.Stage(transcript)
	}
}

// Err records a capture failure. Recoverable and silent: the session
// just returns to idle.
func (c *Controller) Err(err error) {
	c.mu.Lock()
	was := c.state
	c.state = Idle
	c.mu.Unlock()
	if was == Listening {
		slog.Warn("capture error", "err", err)
	}
}

// End handles the capture finishing without a transcript.
func (c *Controller) End() {
	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()
}
