package store

import (
	"context"
	"fmt"
	"sync"

	"certgen/internal/catalog"
	"certgen/internal/certificate/models"
	id "certgen/pkg/domain"
	"certgen/pkg/platform/sentinel"
	"certgen/pkg/requestcontext"
)

// InMemoryStore keeps records per organization table in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	rows   map[string][]models.CertificateRecord
	certID map[string]map[string]struct{}
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rows:   make(map[string][]models.CertificateRecord),
		certID: make(map[string]map[string]struct{}),
	}
}

func (s *InMemoryStore) Insert(ctx context.Context, owner id.OwnerID, org catalog.OrgKey, rec models.NormalizedRecord) error {
	key, table, err := resolve(org)
	if err != nil {
		return models.NewPersistenceError("insert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.certID[table]
	if ids == nil {
		ids = make(map[string]struct{})
		s.certID[table] = ids
	}
	if _, dup := ids[rec.CertificateID]; dup {
		return models.NewPersistenceError("insert", fmt.Errorf("certificate id %s: %w", rec.CertificateID, sentinel.ErrConflict))
	}
	ids[rec.CertificateID] = struct{}{}
	s.rows[table] = append(s.rows[table], models.CertificateRecord{
		NormalizedRecord: rec,
		OwnerID:          owner,
		Organization:     key,
		Status:           models.StatusPendingReview,
		CreatedAt:        requestcontext.Now(ctx),
	})
	return nil
}

func (s *InMemoryStore) ListByOwnerAndStatus(_ context.Context, owner id.OwnerID, org catalog.OrgKey, status models.Status) ([]models.CertificateRecord, error) {
	_, table, err := resolve(org)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.CertificateRecord
	for _, r := range s.rows[table] {
		if r.OwnerID == owner && r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

// SetStatus stands in for the external reviewer in tests and development
// runs.
func (s *InMemoryStore) SetStatus(_ context.Context, org catalog.OrgKey, certificateID string, status models.Status) error {
	_, table, err := resolve(org)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows[table] {
		if s.rows[table][i].CertificateID == certificateID {
			s.rows[table][i].Status = status
			return nil
		}
	}
	return sentinel.ErrNotFound
}
