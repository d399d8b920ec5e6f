// Package notify plays the short notification sample used for sound
// effects (clap events, listen prompts).
package notify

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

type Player struct {
	path string
	once sync.Once
	init error
}

func NewPlayer(path string) *Player {
	return &Player{path: path}
}

// Play decodes and plays the sample, blocking until it finishes.
func (p *Player) Play() error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("open sample: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode sample: %w", err)
	}
	defer streamer.Close()

	p.once.Do(func() {
		p.init = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if p.init != nil {
		return fmt.Errorf("speaker init: %w", p.init)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done

	return nil
}
