package brain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNoLocalAnswer signals that the utterance must go to the remote
// backend instead.
var ErrNoLocalAnswer = errors.New("no local answer")

var mathTriggers = []string{"+", "-", "*", "/", "calculate", "solve"}

// Emoji decoration, checked in order against the response text. At
// most one suffix is appended. Pure presentation.
var emojiTable = []struct {
	keys  []string
	emoji string
}{
	{[]string{"time"}, " ⏰"},
	{[]string{"date", "today"}, " 📅"},
	{[]string{"math", "answer", "calculated"}, " 🔢"},
	{[]string{"hello", "hi ", "hey"}, " 👋"},
	{[]string{"violet"}, " 💜"},
	{[]string{"weather"}, " 🌤️"},
	{[]string{"sorry"}, " 😓"},
	{[]string{"help"}, " 🤝"},
	{[]string{"cool", "nice"}, " 😎"},
}

// Resolver classifies an utterance into a locally answerable command
// or defers to the backend. Branch order encodes precedence.
type Resolver struct {
	store *Store
	now   func() time.Time
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Resolve answers time, date, arithmetic and dataset questions
// locally. It returns ErrNoLocalAnswer when nothing matched; the
// caller then forwards the utterance to the remote backend.
func (r *Resolver) Resolve(utterance string) (string, error) {
	low := strings.ToLower(strings.TrimSpace(utterance))

	if strings.Contains(low, "time") &&
		(strings.Contains(low, "what") || strings.Contains(low, "current")) {
		return decorate(fmt.Sprintf("It's %s.", r.now().Format("3:04 PM"))), nil
	}

	// "news" and "weather" carry date-ish phrasing that belongs to
	// the backend, so they mask the date branch.
	if (strings.Contains(low, "date") || strings.Contains(low, "day is it") || strings.Contains(low, "today")) &&
		!strings.Contains(low, "news") && !strings.Contains(low, "weather") {
		return decorate(fmt.Sprintf("Today is %s.", r.now().Format("Monday, January 2, 2006"))), nil
	}

	if strings.ContainsAny(low, "0123456789") && containsAny(low, mathTriggers) {
		if v, err := Evaluate(utterance); err == nil {
			return decorate(fmt.Sprintf("The answer is %s.", formatNumber(v))), nil
		}
		// Not an expression after all; knowledge lookup still applies.
	}

	if answer, err := r.store.Lookup(utterance); err == nil {
		return decorate(answer), nil
	}

	return "", ErrNoLocalAnswer
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func decorate(text string) string {
	low := strings.ToLower(text)
	for _, e := range emojiTable {
		if containsAny(low, e.keys) {
			return text + e.emoji
		}
	}
	return text
}
