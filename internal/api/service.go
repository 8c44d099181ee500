package api

import (
	"context"

	"github.com/starford/mimir/internal/docstore"
	"github.com/starford/mimir/internal/metastore"
	"github.com/starford/mimir/internal/models"
)

// Service coordinates metadata store and document store reads for the API
// layer. The API surface is read-only; documents enter the index through the
// watcher and the reindex command, never through HTTP.
type Service struct {
	store metastore.Store
	docs  docstore.Provider
}

// NewService creates a new API service.
func NewService(store metastore.Store, docs docstore.Provider) *Service {
	return &Service{store: store, docs: docs}
}

// DocumentDetail is the response payload for a single document: the indexed
// record plus the raw content.
type DocumentDetail struct {
	models.DocumentRecord
	Content string `json:"content"`
}

// GetDocument returns the indexed record for path together with its content.
func (s *Service) GetDocument(ctx context.Context, path string) (*DocumentDetail, error) {
	rec, err := s.store.GetDocument(path)
	if err != nil {
		return nil, err
	}
	data, err := s.docs.Get(path)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{DocumentRecord: *rec, Content: string(data)}, nil
}

// ByTag returns the paths of documents carrying tag.
func (s *Service) ByTag(ctx context.Context, tag string) ([]string, error) {
	paths, err := s.store.QueryByTag(tag)
	if err != nil {
		return nil, err
	}
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

// ByClassification returns the records labeled with label, most recently
// modified first.
func (s *Service) ByClassification(ctx context.Context, label string) ([]models.DocumentRecord, error) {
	recs, err := s.store.QueryByClassification(label)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.DocumentRecord{}
	}
	return recs, nil
}

// ByEntity returns the mention rows for one entity.
func (s *Service) ByEntity(ctx context.Context, entityType, entityName string) ([]models.Mention, error) {
	mentions, err := s.store.Mentions(entityType, entityName)
	if err != nil {
		return nil, err
	}
	if mentions == nil {
		mentions = []models.Mention{}
	}
	return mentions, nil
}

// Activity returns documents modified at or after since, most recent first.
func (s *Service) Activity(ctx context.Context, since string, limit int) ([]models.DocumentRecord, error) {
	recs, err := s.store.ScanModifiedSince(since, limit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.DocumentRecord{}
	}
	return recs, nil
}
