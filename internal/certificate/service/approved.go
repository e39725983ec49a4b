package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"certgen/internal/certificate/archive"
	"certgen/internal/certificate/metrics"
	"certgen/internal/certificate/models"
	"certgen/internal/certificate/render"
	id "certgen/pkg/domain"
	dErrors "certgen/pkg/domain-errors"
	audit "certgen/pkg/platform/audit"
	"certgen/pkg/requestcontext"
)

// GenerateApproved renders every reviewed record of the owner as a final
// certificate. Records are neither re-normalized nor re-inserted.
func (s *Service) GenerateApproved(ctx context.Context, req models.ApprovedRequest) (*models.BatchReport, error) {
	start := time.Now()
	now := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, now)

	if req.OwnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "owner is required")
	}
	org, err := s.organization(req.Organization)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "certificate.GenerateApproved")
	defer span.End()
	span.SetAttributes(attribute.String("batch.organization", string(org.Key)))

	records, err := s.repo.ListByOwnerAndStatus(ctx, req.OwnerID, org.Key, models.StatusReviewCompleted)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing approved records failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list approved records")
	}
	if len(records) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no approved certificates found")
	}

	b := &batch{
		id:       id.NewBatchID(),
		owner:    req.OwnerID,
		org:      org,
		options:  s.renderOptions(org, models.TypeFinal, req.ActivityType, req.Duration),
		packager: archive.New(archive.WithModTime(now)),
	}
	report := &models.BatchReport{BatchID: b.id, ArchiveName: approvedArchiveName}

	for i, rec := range records {
		row := i + 1
		doc, err := s.renderApproved(ctx, b, row, rec)
		if err != nil {
			s.recordFailure(ctx, report, b, row, rec.NormalizedRecord, err)
			continue
		}
		report.Generated = append(report.Generated, doc)
		s.metrics.ObserveRow(string(org.Key), metrics.OutcomeGenerated)
	}

	data, err := b.packager.Close()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive finalization failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize archive")
	}
	report.Archive = data

	s.metrics.ObserveBatch(flowApproved, start, len(data))
	s.emit(ctx, audit.Event{
		OwnerID:      b.owner,
		Action:       string(audit.EventApprovedBundleGenerated),
		Organization: string(org.Key),
		BatchID:      b.id.String(),
		Subject:      report.ArchiveName,
		Count:        len(report.Generated),
		RequestID:    requestcontext.RequestID(ctx),
	})
	s.logger.InfoContext(ctx, "approved certificates bundled",
		"request_id", requestcontext.RequestID(ctx),
		"batch_id", b.id.String(),
		"owner_id", b.owner.String(),
		"organization", string(org.Key),
		"generated", len(report.Generated),
		"failed", len(report.Failures),
	)
	return report, nil
}

func (s *Service) renderApproved(ctx context.Context, b *batch, row int, rec models.CertificateRecord) (doc models.GeneratedDocument, err error) {
	ctx, span := tracer.Start(ctx, "certificate.approved_row")
	defer span.End()
	span.SetAttributes(
		attribute.Int("row.index", row),
		attribute.String("certificate.id", rec.CertificateID),
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "row failed")
		}
	}()

	pdf, err := s.renderer.Render(ctx, render.ContentFor(rec.NormalizedRecord), b.options)
	if err != nil {
		return doc, fmt.Errorf("render: %w", err)
	}
	filename := models.DocumentFilename(rec.Name.String(), rec.CertificateID)
	if err := b.packager.Add(filename, pdf); err != nil {
		return doc, err
	}
	return models.GeneratedDocument{
		Row:           row,
		Name:          rec.Name.String(),
		CertificateID: rec.CertificateID,
		Filename:      filename,
	}, nil
}
