package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"certgen/internal/catalog"
	"certgen/internal/certificate/archive"
	"certgen/internal/certificate/archivecache"
	"certgen/internal/certificate/certid"
	"certgen/internal/certificate/metrics"
	"certgen/internal/certificate/models"
	"certgen/internal/certificate/render"
	id "certgen/pkg/domain"
	dErrors "certgen/pkg/domain-errors"
	audit "certgen/pkg/platform/audit"
	"certgen/pkg/requestcontext"
)

const archiveTimeLayout = "20060102_150405"

// batch is the per-call state shared by every row.
type batch struct {
	id       id.BatchID
	owner    id.OwnerID
	org      catalog.Organization
	domain   string
	options  render.Options
	packager *archive.Packager
}

// GenerateBatch issues one certificate per row. Rows fail independently;
// the call itself fails only when the batch cannot be set up or the archive
// cannot be finalized. Nothing is rolled back.
func (s *Service) GenerateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchReport, error) {
	start := time.Now()
	now := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, now)

	b, err := s.prepareBatch(req, now)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "certificate.GenerateBatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.id", b.id.String()),
		attribute.String("batch.organization", string(b.org.Key)),
		attribute.String("batch.certificate_type", string(b.options.Type)),
		attribute.Int("batch.rows", len(req.Rows)),
	)

	records := s.normalizer.NormalizeAll(req.Rows)
	report := &models.BatchReport{
		BatchID:     b.id,
		ArchiveName: archiveName(b.org.Key, records, now),
	}

	for i, rec := range records {
		row := i + 1
		doc, err := s.generateRow(ctx, b, row, rec)
		if err != nil {
			s.recordFailure(ctx, report, b, row, rec, err)
			continue
		}
		report.Generated = append(report.Generated, doc)
		s.metrics.ObserveRow(string(b.org.Key), metrics.OutcomeGenerated)
		s.emit(ctx, audit.Event{
			OwnerID:      b.owner,
			Action:       string(audit.EventCertificateIssued),
			Organization: string(b.org.Key),
			BatchID:      b.id.String(),
			Subject:      doc.CertificateID,
			RequestID:    requestcontext.RequestID(ctx),
		})
	}

	data, err := b.packager.Close()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive finalization failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize archive")
	}
	report.Archive = data
	s.cacheArchive(ctx, report, b.owner)

	s.metrics.ObserveBatch(flowRoster, start, len(data))
	s.emit(ctx, audit.Event{
		OwnerID:      b.owner,
		Action:       string(audit.EventBatchCompleted),
		Organization: string(b.org.Key),
		BatchID:      b.id.String(),
		Subject:      report.ArchiveName,
		Count:        len(report.Generated),
		RequestID:    requestcontext.RequestID(ctx),
	})
	span.SetAttributes(
		attribute.Int("batch.generated", len(report.Generated)),
		attribute.Int("batch.failed", len(report.Failures)),
	)
	s.logger.InfoContext(ctx, "certificate batch completed",
		"request_id", requestcontext.RequestID(ctx),
		"batch_id", b.id.String(),
		"owner_id", b.owner.String(),
		"organization", string(b.org.Key),
		"generated", len(report.Generated),
		"failed", len(report.Failures),
		"archive", report.ArchiveName,
	)
	return report, nil
}

func (s *Service) prepareBatch(req models.BatchRequest, now time.Time) (*batch, error) {
	if req.OwnerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "owner is required")
	}
	org, err := s.organization(req.Organization)
	if err != nil {
		return nil, err
	}
	typ, err := models.ParseCertificateType(req.CertificateType)
	if err != nil {
		return nil, err
	}
	domain := strings.TrimSpace(req.Domain)
	return &batch{
		id:       id.NewBatchID(),
		owner:    req.OwnerID,
		org:      org,
		domain:   domain,
		options:  s.renderOptions(org, typ, req.ActivityType, req.Duration),
		packager: archive.New(archive.WithModTime(now)),
	}, nil
}

func (s *Service) organization(key string) (catalog.Organization, error) {
	org, err := s.catalog.Organization(strings.TrimSpace(key))
	if err != nil {
		return catalog.Organization{}, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("unknown organization %q", key))
	}
	return org.WithAssetDir(s.assetDir), nil
}

func (s *Service) renderOptions(org catalog.Organization, typ models.CertificateType, activity, duration string) render.Options {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		activity = defaultActivity
	}
	duration = strings.TrimSpace(duration)
	if duration == "" {
		duration = defaultDuration
	}
	return render.Options{Organization: org, Type: typ, Activity: activity, Duration: duration}
}

// generateRow runs the five steps for one record. Panics are converted to
// errors so one bad row cannot end the batch.
func (s *Service) generateRow(ctx context.Context, b *batch, row int, rec models.NormalizedRecord) (doc models.GeneratedDocument, err error) {
	ctx, span := tracer.Start(ctx, "certificate.row")
	defer span.End()
	span.SetAttributes(attribute.Int("row.index", row))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "row failed")
		}
	}()

	if b.domain != "" {
		rec.Domain = models.Present(b.domain)
	}
	code, err := s.catalog.DomainCode(rec.Domain.String())
	if err != nil {
		return doc, err
	}
	issued, ok := rec.Date(models.FieldEndDate)
	if !ok {
		return doc, models.ErrMissingIssueDate
	}
	rec.CertificateID = certid.Generate(code, rec.USN.String(), issued, b.org.Key)
	span.SetAttributes(attribute.String("certificate.id", rec.CertificateID))

	pdf, err := s.renderer.Render(ctx, render.ContentFor(rec), b.options)
	if err != nil {
		return doc, fmt.Errorf("render: %w", err)
	}
	if err := s.repo.Insert(ctx, b.owner, b.org.Key, rec); err != nil {
		return doc, err
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

func (s *Service) recordFailure(ctx context.Context, report *models.BatchReport, b *batch, row int, rec models.NormalizedRecord, err error) {
	name := rec.Name.String()
	report.Failures = append(report.Failures, models.RowFailure{
		Row:     row,
		Name:    name,
		Message: failureMessage(err),
		Err:     err,
	})
	s.metrics.ObserveRow(string(b.org.Key), metrics.OutcomeFailed)
	s.logger.WarnContext(ctx, "certificate row failed",
		"request_id", requestcontext.RequestID(ctx),
		"batch_id", b.id.String(),
		"row", row,
		"name", name,
		"error", err,
	)
	s.emit(ctx, audit.Event{
		OwnerID:      b.owner,
		Action:       string(audit.EventCertificateFailed),
		Organization: string(b.org.Key),
		BatchID:      b.id.String(),
		Subject:      name,
		Reason:       failureMessage(err),
		RequestID:    requestcontext.RequestID(ctx),
	})
}

// failureMessage turns a row error into text fit for the report.
func failureMessage(err error) string {
	var pe *models.PersistenceError
	switch {
	case errors.Is(err, catalog.ErrUnresolvedDomain):
		return err.Error()
	case errors.Is(err, models.ErrMissingIssueDate):
		return "end date is missing or unparsable"
	case errors.Is(err, archive.ErrDuplicateEntry):
		return "another row produced the same file name"
	case errors.As(err, &pe):
		return "could not save record: " + pe.Err.Error()
	}
	return err.Error()
}

func (s *Service) cacheArchive(ctx context.Context, report *models.BatchReport, owner id.OwnerID) {
	if s.cache == nil {
		return
	}
	err := s.cache.Put(ctx, report.BatchID, archivecache.Entry{
		Owner: owner,
		Name:  report.ArchiveName,
		Data:  report.Archive,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to cache archive",
			"request_id", requestcontext.RequestID(ctx),
			"batch_id", report.BatchID.String(),
			"error", err,
		)
		return
	}
	report.Cached = true
}

// archiveName builds "{org}_{program}_{YYYYmmdd_HHMMSS}.zip" with spaces
// replaced by underscores. The program is the first one present in the
// roster.
func archiveName(org catalog.OrgKey, records []models.NormalizedRecord, at time.Time) string {
	program := defaultProgram
	for _, rec := range records {
		if rec.Program.IsPresent() {
			program = rec.Program.String()
			break
		}
	}
	name := fmt.Sprintf("%s_%s_%s.zip", org, program, at.Format(archiveTimeLayout))
	return strings.ReplaceAll(name, " ", "_")
}
