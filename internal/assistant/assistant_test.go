package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"violet/internal/brain"
	"violet/internal/settings"
)

type fakeBackend struct {
	mu      sync.Mutex
	calls   int
	reply   string
	sendErr error
	health  error
}

func (f *fakeBackend) Send(ctx context.Context, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.sendErr
}

func (f *fakeBackend) Health(ctx context.Context) error { return f.health }
func (f *fakeBackend) Endpoint() string                 { return "http://backend.test/chat" }

func (f *fakeBackend) sendCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (f *fakeSpeaker) Speak(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSpeaker) Cancel() {}

func (f *fakeSpeaker) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func newTestAssistant(t *testing.T, backend *fakeBackend) (*Assistant, *fakeSpeaker) {
	t.Helper()

	store, err := settings.NewStore("")
	require.NoError(t, err)

	speaker := &fakeSpeaker{}
	a := New(Config{
		Resolver: brain.NewResolver(brain.NewStoreFrom([]brain.Record{
			{Question: "Hello", Answer: "Greetings from the dataset."},
		})),
		Backend:    backend,
		Speaker:    speaker,
		Settings:   store,
		LocalDelay: time.Millisecond,
	})
	return a, speaker
}

func waitSettled(t *testing.T, a *Assistant) {
	t.Helper()
	require.Eventually(t, func() bool { return !a.Loading() },
		time.Second, time.Millisecond)
}

func TestLocalAnswerSkipsBackend(t *testing.T) {
	backend := &fakeBackend{reply: "never used"}
	a, speaker := newTestAssistant(t, backend)

	a.Send("hello")
	waitSettled(t, a)

	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.Equal(t, "Greetings from the dataset.", history[1].Content)

	// Locality is an interception: the backend is never contacted.
	assert.Zero(t, backend.sendCalls())
	assert.Equal(t, []string{"Greetings from the dataset."}, speaker.all())
}

func TestUnresolvedGoesToBackend(t *testing.T) {
	backend := &fakeBackend{reply: "backend says hi"}
	a, speaker := newTestAssistant(t, backend)

	a.Send("explain quantum tunneling")
	waitSettled(t, a)

	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, "backend says hi", history[1].Content)
	assert.Equal(t, 1, backend.sendCalls())
	assert.Equal(t, []string{"backend says hi"}, speaker.all())
}

func TestBackendFailureSurfacesInTranscript(t *testing.T) {
	backend := &fakeBackend{sendErr: errors.New("connection refused")}
	a, speaker := newTestAssistant(t, backend)

	a.Send("explain quantum tunneling")
	waitSettled(t, a)

	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.Contains(t, history[1].Content, "http://backend.test/chat")
	assert.Contains(t, history[1].Content, "connection refused")
	// Diagnostics are not spoken.
	assert.Empty(t, speaker.all())
	// No automatic retry.
	assert.Equal(t, 1, backend.sendCalls())
}

func TestBlankSendIsDropped(t *testing.T) {
	backend := &fakeBackend{}
	a, _ := newTestAssistant(t, backend)

	a.Send("   ")
	a.Send("")

	assert.False(t, a.Loading())
	assert.Empty(t, a.History())
	assert.Zero(t, backend.sendCalls())
}

func TestSingleFlight(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	a, _ := newTestAssistant(t, backend)
	a.cfg.LocalDelay = 50 * time.Millisecond

	a.Send("hello")
	// Second send while the first is still pacing must be dropped.
	a.Send("hello again")
	waitSettled(t, a)

	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Content)
}

func TestLoadingClearsOnAllPaths(t *testing.T) {
	for name, backend := range map[string]*fakeBackend{
		"local answer":    {},
		"backend success": {reply: "ok"},
		"backend failure": {sendErr: errors.New("boom")},
	} {
		t.Run(name, func(t *testing.T) {
			a, _ := newTestAssistant(t, backend)
			if name == "local answer" {
				a.Send("hello")
			} else {
				a.Send("something remote")
			}
			waitSettled(t, a)
			assert.False(t, a.Loading())
		})
	}
}

func TestStagedInput(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	a, _ := newTestAssistant(t, backend)

	a.StageInput("hello")
	assert.Equal(t, "hello", a.PendingInput())
	assert.Empty(t, a.History())

	a.SendStaged()
	waitSettled(t, a)

	assert.Empty(t, a.PendingInput())
	require.NotEmpty(t, a.History())
	assert.Equal(t, "hello", a.History()[0].Content)
}

func TestMuteSuppressesSpeech(t *testing.T) {
	backend := &fakeBackend{}
	a, speaker := newTestAssistant(t, backend)

	a.ToggleMute()
	a.Send("hello")
	waitSettled(t, a)

	require.Len(t, a.History(), 2)
	assert.Empty(t, speaker.all())

	a.ToggleMute()
	assert.False(t, a.Muted())
}

func TestHealthProbeUpdatesConnected(t *testing.T) {
	backend := &fakeBackend{}
	a, _ := newTestAssistant(t, backend)

	a.probe(context.Background())
	assert.True(t, a.Connected())

	backend.health = errors.New("unreachable")
	a.probe(context.Background())
	assert.False(t, a.Connected())
}
