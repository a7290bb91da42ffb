package corpus

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cookassist/backend/pkg/logger"
)

// Document is one unit of cooking knowledge, a fact snippet or a recipe
// excerpt. Immutable once loaded.
type Document struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	SourceType string `json:"sourceType,omitempty"`
}

// Store holds the corpus in insertion order and is read-only after Load.
// Query-time access needs no locking; any reload goes through the vector
// index rebuild path, which owns the writer lock.
type Store struct {
	documents []Document
	byID      map[string]int
}

func NewStore(documents []Document) *Store {
	byID := make(map[string]int, len(documents))
	for i, d := range documents {
		byID[d.ID] = i
	}
	return &Store{documents: documents, byID: byID}
}

// Load reads the corpus JSON file: an array of records with at least
// {id, text}. Malformed records are skipped and reported; an unreadable
// file or a corpus with zero valid documents is a startup failure.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}

	var raw []Document
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file %s: %w", path, err)
	}

	documents := make([]Document, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	skipped := 0
	for i, rec := range raw {
		if rec.ID == "" || rec.Text == "" {
			skipped++
			logger.Warn("Skipping malformed corpus record",
				zap.Int("index", i),
				zap.String("id", rec.ID),
			)
			continue
		}
		if seen[rec.ID] {
			skipped++
			logger.Warn("Skipping duplicate corpus record", zap.String("id", rec.ID))
			continue
		}
		seen[rec.ID] = true
		if rec.SourceType == "" {
			rec.SourceType = "fact"
		}
		documents = append(documents, rec)
	}

	if len(documents) == 0 {
		return nil, fmt.Errorf("corpus file %s contains no valid documents", path)
	}

	logger.Info("Corpus loaded",
		zap.String("path", path),
		zap.Int("documents", len(documents)),
		zap.Int("skipped", skipped),
	)

	return NewStore(documents), nil
}

// Get looks a document up by ID.
func (s *Store) Get(id string) (Document, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Document{}, false
	}
	return s.documents[i], true
}

// All returns the documents in insertion order. Callers must not mutate
// the returned slice.
func (s *Store) All() []Document {
	return s.documents
}

func (s *Store) Len() int {
	return len(s.documents)
}
