// Package audio provides the microphone-backed recognizer: a
// silence-terminated portaudio take piped through a transcriber.
package audio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"violet/internal/session"
)

// Transcriber turns 16 kHz mono PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32, lang string) (string, error)
}

const transcribeTimeout = 60 * time.Second

// Capture implements session.Recognizer over a Recorder and a
// Transcriber. One take at a time; Stop cancels the active one.
type Capture struct {
	rec *Recorder
	tr  Transcriber

	mu   sync.Mutex
	sink session.Sink
	stop chan struct{}
}

func NewCapture(rec *Recorder, tr Transcriber) *Capture {
	return &Capture{rec: rec, tr: tr}
}

// Bind wires the event sink. Must be called before Start.
func (c *Capture) Bind(sink session.Sink) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
}

func (c *Capture) Start(lang string) error {
	c.mu.Lock()
	if c.sink == nil {
		c.mu.Unlock()
		return errors.New("capture not bound")
	}
	if c.stop != nil {
		c.mu.Unlock()
		return errors.New("capture already active")
	}
	stop := make(chan struct{})
	c.stop = stop
	sink := c.sink
	c.mu.Unlock()

	go c.run(lang, stop, sink)
	return nil
}

func (c *Capture) Stop() {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.mu.Unlock()
}

func (c *Capture) run(lang string, stop chan struct{}, sink session.Sink) {
	defer c.clear(stop)

	pcm, ok, err := c.rec.Record(stop)
	if !ok {
		// Cancelled by Stop; the controller already left Listening.
		sink.End()
		return
	}
	if err != nil {
		sink.Err(err)
		return
	}

	slog.Debug("recorded", "samples", len(pcm))

	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	text, err := c.tr.Transcribe(ctx, pcm, primarySubtag(lang))
	if err != nil {
		sink.Err(err)
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		sink.End()
		return
	}
	sink.Result(text)
}

func (c *Capture) clear(stop chan struct{}) {
	c.mu.Lock()
	if c.stop == stop {
		c.stop = nil
	}
	c.mu.Unlock()
}

// primarySubtag reduces a BCP-47 tag like "en-US" to the bare language
// code the transcriber expects.
func primarySubtag(tag string) string {
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return tag[:i]
	}
	if tag == "" {
		return "auto"
	}
	return tag
}
