package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/metrics"
	"github.com/yamdb/yamdb-server/internal/store"
)

// SearchIndex wraps a Bleve index of titles.
//
// All public methods are safe for concurrent use. The mutex keeps writers out
// while Rebuild swaps the underlying index.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

var _ store.SearchIndexer = (*SearchIndex)(nil)

// Options configures the search index.
type Options struct {
	IndexPath string       // directory holding the Bleve index
	Logger    *slog.Logger // uses discard if nil
}

// mappingVersion is bumped whenever buildIndexMapping changes. A mismatch with
// the version file next to the index forces a rebuild on open.
const mappingVersion = "1"

// NewSearchIndex opens the index at opts.IndexPath, creating it when missing and
// recreating it when it is unreadable or was built with another mapping version.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	indexPath := opts.IndexPath
	versionPath := indexPath + ".version"

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	s := &SearchIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}
	s.updateGauge()
	return s, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexTitle adds or replaces the document for t.
func (s *SearchIndex) IndexTitle(_ context.Context, t *domain.Title) error {
	s.mu.RLock()
	err := s.index.Index(docID(t.ID), NewTitleDocument(t).ToMap())
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("index title %d: %w", t.ID, err)
	}
	s.updateGauge()
	return nil
}

// DeleteTitle removes the document for a title. Deleting a missing document is not an error.
func (s *SearchIndex) DeleteTitle(_ context.Context, id int64) error {
	s.mu.RLock()
	err := s.index.Delete(docID(id))
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("delete title %d: %w", id, err)
	}
	s.updateGauge()
	return nil
}

// IndexTitles indexes titles in batches.
func (s *SearchIndex) IndexTitles(titles []domain.Title) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(titles); i += batchSize {
		end := min(i+batchSize, len(titles))

		batch := s.index.NewBatch()
		for j := i; j < end; j++ {
			t := &titles[j]
			if err := batch.Index(docID(t.ID), NewTitleDocument(t).ToMap()); err != nil {
				return fmt.Errorf("batch index %d: %w", t.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DocumentCount returns the number of indexed titles.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and creates an empty one with the current mapping.
// It holds the exclusive lock for its whole duration.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	metrics.SearchIndexedDocuments.Set(0)

	return nil
}

func (s *SearchIndex) updateGauge() {
	if n, err := s.DocumentCount(); err == nil {
		metrics.SearchIndexedDocuments.Set(float64(n))
	}
}
