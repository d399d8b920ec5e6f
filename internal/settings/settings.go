// Package settings owns the user preferences shared by the voice
// session controller, the orchestrator and the speaker. Readers must
// always take a fresh snapshot via Current at the moment of use;
// holding on to an old snapshot reintroduces the stale-language and
// stale-autosend bugs this store exists to prevent.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

type Language string

const (
	LangEnglish Language = "en"
	LangSpanish Language = "es"
	LangFrench  Language = "fr"
	LangGerman  Language = "de"
)

// Tag returns the BCP-47 recognition tag for the language, defaulting
// to en-US for anything unknown.
func (l Language) Tag() string {
	switch l {
	case LangSpanish:
		return "es-ES"
	case LangFrench:
		return "fr-FR"
	case LangGerman:
		return "de-DE"
	default:
		return "en-US"
	}
}

type VoiceSpeed string

const (
	SpeedSlow   VoiceSpeed = "slow"
	SpeedNormal VoiceSpeed = "normal"
	SpeedFast   VoiceSpeed = "fast"
)

// Rate maps the speed to a synthesis rate multiplier.
func (s VoiceSpeed) Rate() float64 {
	switch s {
	case SpeedSlow:
		return 0.8
	case SpeedFast:
		return 1.2
	default:
		return 1.0
	}
}

type Settings struct {
	VoiceEnabled  bool       `json:"voiceEnabled"`
	AutoSend      bool       `json:"autoSend"`
	SoundEffects  bool       `json:"soundEffects"`
	Language      Language   `json:"language"`
	VoiceSpeed    VoiceSpeed `json:"voiceSpeed"`
	Notifications bool       `json:"notifications"`
}

func Defaults() Settings {
	return Settings{
		VoiceEnabled:  true,
		AutoSend:      false,
		SoundEffects:  true,
		Language:      LangEnglish,
		VoiceSpeed:    SpeedNormal,
		Notifications: true,
	}
}

// Store is a small observable cell around Settings. Updates persist to
// disk and notify subscribers; Current always returns the live value.
type Store struct {
	mu      sync.Mutex
	path    string
	current Settings
	subs    []func(Settings)
}

// NewStore loads settings from path, falling back to defaults when the
// file does not exist yet. An empty path disables persistence.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, current: Defaults()}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &s.current); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Current returns a snapshot of the live settings.
func (s *Store) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update applies a mutation, persists the result and notifies
// subscribers with the new value.
func (s *Store) Update(apply func(*Settings)) error {
	s.mu.Lock()
	apply(&s.current)
	cur := s.current
	subs := append(([]func(Settings))(nil), s.subs...)
	err := s.save(cur)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(cur)
	}
	return err
}

// Subscribe registers a change listener. Listeners run synchronously
// on the updating goroutine and must not call back into the store.
func (s *Store) Subscribe(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) save(cur Settings) error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(cur, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
