// Package service drives roster rows through ID generation, rendering,
// persistence and packaging, one isolated row at a time.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"

	"certgen/internal/catalog"
	"certgen/internal/certificate/archivecache"
	"certgen/internal/certificate/metrics"
	"certgen/internal/certificate/models"
	"certgen/internal/certificate/normalize"
	"certgen/internal/certificate/render"
	id "certgen/pkg/domain"
	audit "certgen/pkg/platform/audit"
)

const (
	defaultActivity = "Internship"
	defaultDuration = "15 Weeks"
	defaultProgram  = "Certificates"

	approvedArchiveName = "approved_certificates.zip"

	flowRoster   = "roster"
	flowApproved = "approved"
)

type Repository interface {
	Insert(ctx context.Context, owner id.OwnerID, org catalog.OrgKey, rec models.NormalizedRecord) error
	ListByOwnerAndStatus(ctx context.Context, owner id.OwnerID, org catalog.OrgKey, status models.Status) ([]models.CertificateRecord, error)
}

type Renderer interface {
	Render(ctx context.Context, c render.Content, o render.Options) ([]byte, error)
}

type ArchiveCache interface {
	Put(ctx context.Context, batchID id.BatchID, e archivecache.Entry) error
	Get(ctx context.Context, batchID id.BatchID) (archivecache.Entry, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates certificate batches.
type Service struct {
	catalog        *catalog.Catalog
	normalizer     *normalize.Normalizer
	repo           Repository
	renderer       Renderer
	cache          ArchiveCache
	auditPublisher AuditPublisher
	assetDir       string
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithArchiveCache keeps finished roster archives for later download.
func WithArchiveCache(c ArchiveCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithAssetDir resolves organization image paths against dir.
func WithAssetDir(dir string) Option {
	return func(s *Service) {
		s.assetDir = dir
	}
}

// New constructs a Service. The catalog, normalizer, repository and renderer
// are required.
func New(cat *catalog.Catalog, normalizer *normalize.Normalizer, repo Repository, renderer Renderer, opts ...Option) (*Service, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if normalizer == nil {
		return nil, errors.New("normalizer is required")
	}
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}
	s := &Service{
		catalog:    cat,
		normalizer: normalizer,
		repo:       repo,
		renderer:   renderer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Catalog exposes the configuration tables for presentation.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

var tracer = otel.Tracer("certgen/internal/certificate/service")

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"owner_id", event.OwnerID.String(),
			"error", err,
		)
	}
}
