package service

import (
	"context"
	"errors"
	"strings"

	"certgen/internal/certificate/archivecache"
	"certgen/internal/certificate/models"
	id "certgen/pkg/domain"
	dErrors "certgen/pkg/domain-errors"
	"certgen/pkg/platform/sentinel"
)

// ListRecords returns the owner's records in one organization with the given
// status. An empty status means pending_review.
func (s *Service) ListRecords(ctx context.Context, owner id.OwnerID, organization, status string) ([]models.CertificateRecord, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "owner is required")
	}
	org, err := s.organization(organization)
	if err != nil {
		return nil, err
	}
	st := models.StatusPendingReview
	if strings.TrimSpace(status) != "" {
		if st, err = models.ParseStatus(status); err != nil {
			return nil, err
		}
	}
	records, err := s.repo.ListByOwnerAndStatus(ctx, owner, org.Key, st)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return records, nil
}

// FetchArchive returns a cached roster archive. Archives of other owners
// read as not found.
func (s *Service) FetchArchive(ctx context.Context, owner id.OwnerID, batchID id.BatchID) (archivecache.Entry, error) {
	if s.cache == nil {
		return archivecache.Entry{}, dErrors.New(dErrors.CodeNotFound, "archive not found or expired")
	}
	entry, err := s.cache.Get(ctx, batchID)
	if errors.Is(err, sentinel.ErrNotFound) || (err == nil && entry.Owner != owner) {
		s.metrics.IncrementCacheMiss()
		return archivecache.Entry{}, dErrors.New(dErrors.CodeNotFound, "archive not found or expired")
	}
	if err != nil {
		return archivecache.Entry{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load archive")
	}
	return entry, nil
}
