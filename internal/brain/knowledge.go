package brain

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch signals that no stored record answers the query.
var ErrNoMatch = errors.New("no knowledge match")

// Record is one question/answer pair from the static dataset.
type Record struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

//go:embed dataset.json
var datasetJSON []byte

type dataset struct {
	Conversation   []Record `json:"normal_conversation"`
	WorldKnowledge []Record `json:"real_world_knowledge"`
}

// Store holds the categorized records. Category order is meaningful:
// exact matching scans categories first to last, and the fuzzy pass
// runs over their concatenation in the same order.
type Store struct {
	categories [][]Record
	all        []Record
}

// NewStore loads the embedded dataset.
func NewStore() (*Store, error) {
	var ds dataset
	if err := json.Unmarshal(datasetJSON, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return NewStoreFrom(ds.Conversation, ds.WorldKnowledge), nil
}

// NewStoreFrom builds a store from explicit categories, in priority order.
func NewStoreFrom(categories ...[]Record) *Store {
	s := &Store{categories: categories}
	for _, c := range categories {
		s.all = append(s.all, c...)
	}
	return s
}

// Lookup resolves a query against the dataset: exact case-insensitive
// equality per category first, then a substring pass over everything.
// The fuzzy pass matches when a stored question contains the query,
// not the other way around, so a short query like "hello" hits a
// longer stored question.
func (s *Store) Lookup(query string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	for _, cat := range s.categories {
		for _, rec := range cat {
			if strings.ToLower(rec.Question) == q {
				return rec.Answer, nil
			}
		}
	}

	for _, rec := range s.all {
		if strings.Contains(strings.ToLower(rec.Question), q) {
			return rec.Answer, nil
		}
	}

	return "", ErrNoMatch
}
