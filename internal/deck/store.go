// Package deck holds the read-only card collections players draw from.
package deck

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/jason-s-yu/gpcards/internal/models"
	"github.com/sirupsen/logrus"
)

// Deck names as they appear in decks.json.
const (
	Scenarios   = "scenarios"
	Constraints = "constraints"
	Twists      = "twists"
)

// Store holds the named collections. It is never mutated after construction,
// so Draw is safe for concurrent use.
type Store struct {
	decks map[string][]models.Card
}

// file mirrors the layout of decks.json.
type file struct {
	Scenarios   []models.Card `json:"scenarios"`
	Constraints []models.Card `json:"constraints"`
	Twists      []models.Card `json:"twists"`
}

// NewStore copies the given collections into a Store.
func NewStore(decks map[string][]models.Card) *Store {
	s := &Store{decks: make(map[string][]models.Card, len(decks))}
	for name, cards := range decks {
		s.decks[name] = append([]models.Card(nil), cards...)
	}
	return s
}

// Empty returns a Store with no cards. Every Draw reports false.
func Empty() *Store {
	return NewStore(nil)
}

// Parse decodes the decks.json layout. Missing keys become empty decks.
func Parse(data []byte) (*Store, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode decks: %w", err)
	}
	return NewStore(map[string][]models.Card{
		Scenarios:   f.Scenarios,
		Constraints: f.Constraints,
		Twists:      f.Twists,
	}), nil
}

// Load reads decks from path. A missing or malformed file is logged and
// yields an empty Store so the server can still start.
func Load(path string, logger *logrus.Logger) *Store {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnf("Could not read decks from %s; falling back to empty decks: %v", path, err)
		return Empty()
	}
	s, err := Parse(data)
	if err != nil {
		logger.Warnf("Could not parse decks from %s; falling back to empty decks: %v", path, err)
		return Empty()
	}
	counts := s.Counts()
	logger.WithFields(logrus.Fields{
		"scenarios":   counts[Scenarios],
		"constraints": counts[Constraints],
		"twists":      counts[Twists],
	}).Info("Loaded decks")
	return s
}

// Draw picks a card uniformly at random, with replacement. It returns false
// when the deck is unknown or empty.
func (s *Store) Draw(name string) (models.Card, bool) {
	cards := s.decks[name]
	if len(cards) == 0 {
		return models.Card{}, false
	}
	return cards[rand.Intn(len(cards))], true
}

// Counts reports the number of cards per deck.
func (s *Store) Counts() map[string]int {
	out := map[string]int{Scenarios: 0, Constraints: 0, Twists: 0}
	for name, cards := range s.decks {
		out[name] = len(cards)
	}
	return out
}
