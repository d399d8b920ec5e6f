// Package assistant sequences the conversation: try the local brain,
// otherwise call the remote backend, append the outcome to history and
// speak it.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"violet/internal/brain"
	"violet/internal/settings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the append-only conversation history.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Backend is the remote chat boundary.
type Backend interface {
	Send(ctx context.Context, message string) (string, error)
	Health(ctx context.Context) error
	Endpoint() string
}

// Speaker is the synthesis boundary. Speak replaces any currently
// playing utterance.
type Speaker interface {
	Speak(text string) error
	Cancel()
}

// Sound plays the short notification sample.
type Sound interface {
	Play() error
}

type Config struct {
	Resolver *brain.Resolver
	Backend  Backend
	Speaker  Speaker
	Settings *settings.Store
	Sound    Sound // optional

	// LocalDelay paces locally resolved answers so they do not land
	// instantly. Zero means the 300ms default.
	LocalDelay time.Duration
}

const defaultLocalDelay = 300 * time.Millisecond

type Assistant struct {
	cfg Config

	mu      sync.Mutex
	history []Message
	loading bool
	pending string

	muted     atomic.Bool
	connected atomic.Bool
}

func New(cfg Config) *Assistant {
	if cfg.LocalDelay == 0 {
		cfg.LocalDelay = defaultLocalDelay
	}
	return &Assistant{cfg: cfg}
}

// Send submits an utterance. Fire-and-forget: completion shows up in
// the history and the loading flag. Blank input and sends issued while
// one is already in flight are dropped.
func (a *Assistant) Send(text string) {
	text = strings.TrimSpace(text)

	a.mu.Lock()
	if text == "" || a.loading {
		a.mu.Unlock()
		return
	}
	a.loading = true
	a.history = append(a.history, Message{Role: RoleUser, Content: text, Timestamp: time.Now()})
	a.mu.Unlock()

	go a.process(text)
}

func (a *Assistant) process(text string) {
	defer a.clearLoading()

	if answer, err := a.cfg.Resolver.Resolve(text); err == nil {
		time.Sleep(a.cfg.LocalDelay)
		a.appendAssistant(answer)
		a.speak(answer)
		return
	}

	reply, err := a.cfg.Backend.Send(context.Background(), text)
	if err != nil {
		slog.Error("chat request failed", "endpoint", a.cfg.Backend.Endpoint(), "err", err)
		// Surfaced in the transcript so the user sees the assistant
		// is unreachable instead of silently getting nothing.
		a.appendAssistant(fmt.Sprintf("Connection error to %s: %v. Check the daemon log for details.",
			a.cfg.Backend.Endpoint(), err))
		return
	}

	a.appendAssistant(reply)
	a.speak(reply)
}

// StageInput holds a transcript for review; SendStaged submits it.
func (a *Assistant) StageInput(text string) {
	a.mu.Lock()
	a.pending = text
	a.mu.Unlock()
	slog.Info("staged input", "text", text)
}

func (a *Assistant) PendingInput() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

func (a *Assistant) SendStaged() {
	a.mu.Lock()
	text := a.pending
	a.pending = ""
	a.mu.Unlock()
	a.Send(text)
}

// Loading reports whether a send is in flight.
func (a *Assistant) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Connected reports the last health probe outcome. Display only.
func (a *Assistant) Connected() bool {
	return a.connected.Load()
}

// History returns a copy of the conversation so far.
func (a *Assistant) History() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message(nil), a.history...)
}

// ToggleMute flips the mute flag; muting cancels current speech.
func (a *Assistant) ToggleMute() {
	if a.muted.CompareAndSwap(false, true) {
		a.cfg.Speaker.Cancel()
		slog.Info("muted")
		return
	}
	a.muted.Store(false)
	slog.Info("unmuted")
}

func (a *Assistant) Muted() bool {
	return a.muted.Load()
}

// RunHealthProbe polls the backend on the given interval and keeps the
// connected flag up to date. Decoupled from the send path.
func (a *Assistant) RunHealthProbe(ctx context.Context, interval time.Duration) {
	a.probe(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.probe(ctx)
		}
	}
}

func (a *Assistant) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := a.cfg.Backend.Health(ctx)
	was := a.connected.Swap(err == nil)
	if was != (err == nil) {
		slog.Info("backend connectivity changed", "connected", err == nil)
	}
}

func (a *Assistant) appendAssistant(content string) {
	a.mu.Lock()
	a.history = append(a.history, Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()})
	a.mu.Unlock()
}

func (a *Assistant) speak(text string) {
	if a.muted.Load() {
		return
	}
	if err := a.cfg.Speaker.Speak(text); err != nil {
		slog.Error("speech synthesis failed", "err", err)
	}
}

func (a *Assistant) clearLoading() {
	a.mu.Lock()
	a.loading = false
	a.mu.Unlock()
}
