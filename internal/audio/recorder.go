package audio

import (
	"errors"
	"math"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate = 16000
	frameSize  = 320 // 20ms

	silenceThreshRMS = 0.015
	silenceFrames    = 30  // 600ms of trailing silence ends the take
	maxSeconds       = 15  // hard cap per session
	leadInFrames     = 500 // max 10s of waiting for speech to begin
)

// Recorder captures mono 16 kHz PCM from the default input device.
// Init/Close bracket the portaudio runtime once per process.
type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures until trailing silence, the stop signal, or the
// length cap. ok=false means the take was cancelled through stop
// rather than completed.
func (r *Recorder) Record(stop <-chan struct{}) (pcm []float32, ok bool, err error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, sampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
	if err != nil {
		return nil, true, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, true, err
	}
	defer stream.Stop()

	var (
		speaking bool
		silent   int
		waited   int
	)

	maxFrames := maxSeconds * sampleRate / frameSize

	for i := 0; i < maxFrames; i++ {
		select {
		case <-stop:
			return nil, false, nil
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, true, err
		}

		if frameRMS(buf) > silenceThreshRMS {
			speaking = true
			silent = 0
			out = append(out, buf...)
			continue
		}

		if !speaking {
			waited++
			if waited >= leadInFrames {
				return nil, true, errors.New("no speech detected")
			}
			continue
		}

		silent++
		if silent >= silenceFrames {
			break
		}
		out = append(out, buf...)
	}

	if len(out) == 0 {
		return nil, true, errors.New("no audio recorded")
	}
	return out, true, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
