package brain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore() *Store {
	conversation := []Record{
		{Question: "Hello", Answer: "Hello! How can I help you today?"},
		{Question: "Hello there, friend", Answer: "Well hello to you too!"},
		{Question: "Who are you?", Answer: "I am Violet."},
	}
	knowledge := []Record{
		{Question: "What is the capital of France?", Answer: "The capital of France is Paris."},
		{Question: "Who are you?", Answer: "A shadowing duplicate that must never win."},
	}
	return NewStoreFrom(conversation, knowledge)
}

func TestLookupExactBeatsFuzzy(t *testing.T) {
	s := testStore()

	// "hello" is a substring of "Hello there, friend" as well, but
	// the exact pass must win first.
	answer, err := s.Lookup("hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help you today?", answer)
}

func TestLookupExactIsCaseInsensitive(t *testing.T) {
	s := testStore()

	answer, err := s.Lookup("WHO ARE YOU?")
	require.NoError(t, err)
	assert.Equal(t, "I am Violet.", answer)
}

func TestLookupCategoryOrder(t *testing.T) {
	s := testStore()

	// The same question exists in both categories; the conversation
	// category is scanned first.
	answer, err := s.Lookup("who are you?")
	require.NoError(t, err)
	assert.Equal(t, "I am Violet.", answer)
}

func TestLookupFuzzySubstring(t *testing.T) {
	s := testStore()

	// No exact record for this query; the fuzzy pass matches the
	// stored question that contains it.
	answer, err := s.Lookup("capital of france")
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", answer)
}

func TestLookupFuzzyIsAsymmetric(t *testing.T) {
	s := testStore()

	// The query containing a stored question is not a match; only
	// the stored question containing the query is.
	_, err := s.Lookup("hello there, friend, how is the weather")
	assert.ErrorIs(t, err, ErrNoMatch)
}

// Documented quirk of the matching rule: a very short query matches any
// stored question containing it as a raw substring, even mid-word.
// "hi" hits "Hello t[hi]s..." style questions. Preserved behavior.
func TestLookupShortQuerySubstringQuirk(t *testing.T) {
	s := NewStoreFrom([]Record{
		{Question: "Is this thing on?", Answer: "Loud and clear."},
	})

	answer, err := s.Lookup("hi")
	require.NoError(t, err)
	assert.Equal(t, "Loud and clear.", answer)
}

func TestLookupNoMatch(t *testing.T) {
	s := testStore()

	_, err := s.Lookup("what is the airspeed velocity of an unladen swallow")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestLookupIdempotent(t *testing.T) {
	s := testStore()

	first, err := s.Lookup("hello")
	require.NoError(t, err)
	second, err := s.Lookup("hello")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmbeddedDatasetLoads(t *testing.T) {
	s, err := NewStore()
	require.NoError(t, err)

	answer, err := s.Lookup("who are you?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
}
