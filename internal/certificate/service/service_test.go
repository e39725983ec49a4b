package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Repository,Renderer,ArchiveCache,AuditPublisher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"certgen/internal/catalog"
	"certgen/internal/certificate/archivecache"
	"certgen/internal/certificate/metrics"
	"certgen/internal/certificate/models"
	"certgen/internal/certificate/normalize"
	"certgen/internal/certificate/render"
	"certgen/internal/certificate/service/mocks"
	"certgen/internal/certificate/store"
	id "certgen/pkg/domain"
	dErrors "certgen/pkg/domain-errors"
	audit "certgen/pkg/platform/audit"
	"certgen/pkg/platform/audit/publisher"
	auditmemory "certgen/pkg/platform/audit/store/memory"
	"certgen/pkg/requestcontext"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// Batch Service Test Suite
// =============================================================================
// The suite runs the real normalizer, renderer, in-memory store and cache so
// archive contents and persisted state can be asserted end to end. Mocks are
// used where a collaborator must fail on demand.

type ServiceSuite struct {
	suite.Suite
	cat      *catalog.Catalog
	norm     *normalize.Normalizer
	store    *store.InMemoryStore
	cache    *archivecache.InMemoryCache
	audit    *publisher.Publisher
	auditLog *auditmemory.InMemoryStore
	metrics  *metrics.Metrics
	service  *Service
	owner    id.OwnerID
	ctx      context.Context
	now      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.cat = catalog.Default()
	norm, err := normalize.New(s.cat.Aliases())
	s.Require().NoError(err)
	s.norm = norm
	s.store = store.NewInMemoryStore()
	s.cache = archivecache.NewInMemoryCache(time.Hour)
	s.auditLog = auditmemory.NewInMemoryStore()
	s.audit = publisher.NewPublisher(s.auditLog)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = s.newService(s.store, render.New(discardLogger(), render.WithCompression(false)),
		WithArchiveCache(s.cache),
		WithAuditPublisher(s.audit),
	)
	s.owner = id.OwnerID(uuid.New())
	s.now = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), s.now), "req-1")
}

func (s *ServiceSuite) TearDownTest() {
	s.audit.Close()
}

func (s *ServiceSuite) newService(repo Repository, renderer Renderer, opts ...Option) *Service {
	base := []Option{
		WithLogger(discardLogger()),
		WithMetrics(s.metrics),
		WithAssetDir(s.T().TempDir()),
	}
	svc, err := New(s.cat, s.norm, repo, renderer, append(base, opts...)...)
	s.Require().NoError(err)
	return svc
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func row(name, usn, domain, end string) models.RawRow {
	return models.RawRow{
		"Prefix":     "Ms",
		"Name":       name,
		"USN":        usn,
		"College":    "RVCE",
		"Start Date": "01-12-2023",
		"End Date":   end,
		"Program":    "Summer Internship",
		"Topic":      "Inventory app",
		"Domain":     domain,
	}
}

func fiveRows() []models.RawRow {
	return []models.RawRow{
		row("Asha K", "1RV20CS001", "Web Development", "15-03-2024"),
		row("Bhavya R", "1RV20CS002", "Python Fullstack", "15-03-2024"),
		row("Chetan M", "1RV20CS003", "Blockchain", "15-03-2024"),
		row("Divya P", "1RV20CS004", "Cybersecurity", "2024-03-15"),
		row("Eshan T", "1RV20CS005", "Internet of Things", "March 15, 2024"),
	}
}

func (s *ServiceSuite) request(rows []models.RawRow) models.BatchRequest {
	return models.BatchRequest{
		OwnerID:         s.owner,
		Organization:    "DLithe",
		CertificateType: "provisional",
		Rows:            rows,
	}
}

func zipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = b
	}
	return out
}

// =============================================================================
// Constructor
// =============================================================================

func (s *ServiceSuite) TestNew() {
	renderer := render.New(discardLogger())

	s.Run("nil catalog returns error", func() {
		_, err := New(nil, s.norm, s.store, renderer)
		s.ErrorContains(err, "catalog is required")
	})

	s.Run("nil normalizer returns error", func() {
		_, err := New(s.cat, nil, s.store, renderer)
		s.ErrorContains(err, "normalizer is required")
	})

	s.Run("nil repository returns error", func() {
		_, err := New(s.cat, s.norm, nil, renderer)
		s.ErrorContains(err, "repository is required")
	})

	s.Run("nil renderer returns error", func() {
		_, err := New(s.cat, s.norm, s.store, nil)
		s.ErrorContains(err, "renderer is required")
	})

	s.Run("options are applied", func() {
		logger := discardLogger()
		svc, err := New(s.cat, s.norm, s.store, renderer, WithLogger(logger), WithArchiveCache(s.cache))
		s.Require().NoError(err)
		s.Equal(logger, svc.logger)
		s.Equal(s.cache, svc.cache)
		s.Same(s.cat, svc.Catalog())
	})
}

// =============================================================================
// Roster batches
// =============================================================================

func (s *ServiceSuite) TestGenerateBatchIsolatesFailingRow() {
	report, err := s.service.GenerateBatch(s.ctx, s.request(fiveRows()))
	s.Require().NoError(err)

	s.Len(report.Generated, 4)
	s.Require().Len(report.Failures, 1)
	s.Equal(3, report.Failures[0].Row)
	s.Equal("Chetan M", report.Failures[0].Name)
	s.Contains(report.Failures[0].Message, "Blockchain")
	s.ErrorIs(report.Failures[0].Err, catalog.ErrUnresolvedDomain)

	entries := zipEntries(s.T(), report.Archive)
	s.Len(entries, 4)
	s.Contains(entries, "Asha_K_DLWD1RV20CS001MAR24.pdf")
	s.Contains(entries, "Bhavya_R_DLPY1RV20CS002MAR24.pdf")
	s.Contains(entries, "Divya_P_DLCS1RV20CS004MAR24.pdf")
	s.Contains(entries, "Eshan_T_DLIOT1RV20CS005MAR24.pdf")
	for name, pdf := range entries {
		s.True(bytes.HasPrefix(pdf, []byte("%PDF-")), name)
		s.Contains(string(pdf), "PROVISIONAL CERTIFICATE", name)
	}

	s.Equal("DLithe_Summer_Internship_20240315_103000.zip", report.ArchiveName)
	s.True(report.Cached)

	pending, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Len(pending, 4)
	s.Equal("DLWD1RV20CS001MAR24", pending[0].CertificateID)
	s.Equal("2024-03-15", pending[0].EndDate.String())
	s.Equal(s.now, pending[0].CreatedAt)

	s.Equal(4.0, testutil.ToFloat64(s.metrics.Rows.WithLabelValues("DLithe", metrics.OutcomeGenerated)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Rows.WithLabelValues("DLithe", metrics.OutcomeFailed)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Batches.WithLabelValues(flowRoster)))
}

func (s *ServiceSuite) TestGenerateBatchEmitsAuditEvents() {
	report, err := s.service.GenerateBatch(s.ctx, s.request(fiveRows()))
	s.Require().NoError(err)

	events, err := s.audit.List(s.ctx, s.owner)
	s.Require().NoError(err)

	counts := map[string]int{}
	for _, e := range events {
		counts[e.Action]++
		s.Equal(report.BatchID.String(), e.BatchID)
		s.Equal("req-1", e.RequestID)
	}
	s.Equal(4, counts[string(audit.EventCertificateIssued)])
	s.Equal(1, counts[string(audit.EventCertificateFailed)])
	s.Equal(1, counts[string(audit.EventBatchCompleted)])

	last := events[len(events)-1]
	s.Equal(string(audit.EventBatchCompleted), last.Action)
	s.Equal(4, last.Count)
	s.Equal(report.ArchiveName, last.Subject)
}

func (s *ServiceSuite) TestGenerateBatchRowFailures() {
	s.Run("missing end date", func() {
		rows := []models.RawRow{row("Asha K", "1RV20CS001", "Web Development", "someday")}
		report, err := s.service.GenerateBatch(s.ctx, s.request(rows))
		s.Require().NoError(err)
		s.Empty(report.Generated)
		s.Require().Len(report.Failures, 1)
		s.ErrorIs(report.Failures[0].Err, models.ErrMissingIssueDate)
		s.Equal("end date is missing or unparsable", report.Failures[0].Message)
		s.Empty(zipEntries(s.T(), report.Archive))
	})

	s.Run("duplicate certificate id is a persistence failure", func() {
		rows := []models.RawRow{
			row("Farah N", "1RV20CS010", "Web Development", "15-03-2024"),
			row("Farah N", "1RV20CS010", "Web Development", "15-03-2024"),
		}
		report, err := s.service.GenerateBatch(s.ctx, s.request(rows))
		s.Require().NoError(err)
		s.Len(report.Generated, 1)
		s.Require().Len(report.Failures, 1)
		s.Equal(2, report.Failures[0].Row)

		var pe *models.PersistenceError
		s.Require().ErrorAs(report.Failures[0].Err, &pe)
		s.Contains(report.Failures[0].Message, "could not save record")
	})

	s.Run("absent name still renders", func() {
		rows := []models.RawRow{{"USN": "1RV20CS011", "Domain": "Cybersecurity", "End Date": "15/03/2024"}}
		report, err := s.service.GenerateBatch(s.ctx, s.request(rows))
		s.Require().NoError(err)
		s.Require().Len(report.Generated, 1)
		s.Equal("_DLCS1RV20CS011MAR24.pdf", report.Generated[0].Filename)
		s.Equal("DLithe_Certificates_20240315_103000.zip", report.ArchiveName)
	})
}

func (s *ServiceSuite) TestGenerateBatchRecoversPanics() {
	ctrl := gomock.NewController(s.T())
	renderer := mocks.NewMockRenderer(ctrl)
	svc := s.newService(s.store, renderer)

	gomock.InOrder(
		renderer.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, render.Content, render.Options) ([]byte, error) {
				panic("font table corrupted")
			}),
		renderer.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("%PDF-1.3"), nil),
	)

	rows := []models.RawRow{
		row("Asha K", "1RV20CS001", "Web Development", "15-03-2024"),
		row("Bhavya R", "1RV20CS002", "Python Fullstack", "15-03-2024"),
	}
	report, err := svc.GenerateBatch(s.ctx, s.request(rows))
	s.Require().NoError(err)
	s.Require().Len(report.Failures, 1)
	s.Equal(1, report.Failures[0].Row)
	s.Contains(report.Failures[0].Message, "font table corrupted")
	s.Require().Len(report.Generated, 1)
	s.Equal("Bhavya R", report.Generated[0].Name)
}

func (s *ServiceSuite) TestGenerateBatchRenderErrorSkipsInsert() {
	ctrl := gomock.NewController(s.T())
	renderer := mocks.NewMockRenderer(ctrl)
	repo := mocks.NewMockRepository(ctrl)
	svc := s.newService(repo, renderer)

	renderer.EXPECT().Render(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("out of memory"))
	repo.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	report, err := svc.GenerateBatch(s.ctx, s.request(fiveRows()[:1]))
	s.Require().NoError(err)
	s.Require().Len(report.Failures, 1)
	s.Equal("render: out of memory", report.Failures[0].Message)
}

func (s *ServiceSuite) TestGenerateBatchDomainOverride() {
	req := s.request(fiveRows())
	req.Domain = "Cybersecurity"

	report, err := s.service.GenerateBatch(s.ctx, req)
	s.Require().NoError(err)
	s.Empty(report.Failures)
	s.Require().Len(report.Generated, 5)
	for _, doc := range report.Generated {
		s.Contains(doc.CertificateID, "DLCS")
	}

	pending, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Equal("Cybersecurity", pending[2].Domain.String())
}

func (s *ServiceSuite) TestGenerateBatchUnknownDomainOverrideFailsEachRow() {
	req := s.request(fiveRows())
	req.Domain = "Blockchain"

	report, err := s.service.GenerateBatch(s.ctx, req)
	s.Require().NoError(err)
	s.Empty(report.Generated)
	s.Require().Len(report.Failures, 5)
	for i, f := range report.Failures {
		s.Equal(i+1, f.Row)
		s.ErrorIs(f.Err, catalog.ErrUnresolvedDomain)
	}
	s.Empty(zipEntries(s.T(), report.Archive))

	pending, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *ServiceSuite) TestGenerateBatchEmptyRoster() {
	for _, rows := range [][]models.RawRow{nil, {}} {
		report, err := s.service.GenerateBatch(s.ctx, s.request(rows))
		s.Require().NoError(err)
		s.Empty(report.Generated)
		s.Empty(report.Failures)
		s.Empty(zipEntries(s.T(), report.Archive))
		s.Equal("DLithe_Certificates_20240315_103000.zip", report.ArchiveName)
	}
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Batches.WithLabelValues(flowRoster)))
}

func (s *ServiceSuite) TestGenerateBatchReadsAmbiguousDatesDayFirst() {
	report, err := s.service.GenerateBatch(s.ctx, s.request([]models.RawRow{
		row("Asha K", "1RV20CS001", "Web Development", "5.3.24"),
	}))
	s.Require().NoError(err)
	s.Require().Len(report.Generated, 1)
	s.Equal("DLWD1RV20CS001MAR24", report.Generated[0].CertificateID)
	s.Contains(zipEntries(s.T(), report.Archive), "Asha_K_DLWD1RV20CS001MAR24.pdf")
}

func (s *ServiceSuite) TestGenerateBatchNxtAlign() {
	req := s.request(fiveRows()[:1])
	req.Organization = "nxtalign"
	req.CertificateType = "Final"

	report, err := s.service.GenerateBatch(s.ctx, req)
	s.Require().NoError(err)
	s.Require().Len(report.Generated, 1)
	s.Equal("NXTWD1RV20CS001MAR24", report.Generated[0].CertificateID)
	s.Equal("nxtAlign_Summer_Internship_20240315_103000.zip", report.ArchiveName)

	pdf := zipEntries(s.T(), report.Archive)["Asha_K_NXTWD1RV20CS001MAR24.pdf"]
	s.NotContains(string(pdf), "PROVISIONAL CERTIFICATE")

	nxt, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgNxtAlign, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Len(nxt, 1)
	dl, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Empty(dl)
}

func (s *ServiceSuite) TestGenerateBatchSetupErrors() {
	cases := []struct {
		name   string
		mutate func(*models.BatchRequest)
		code   dErrors.Code
	}{
		{"missing owner", func(r *models.BatchRequest) { r.OwnerID = id.OwnerID{} }, dErrors.CodeUnauthorized},
		{"unknown organization", func(r *models.BatchRequest) { r.Organization = "Acme" }, dErrors.CodeValidation},
		{"unknown certificate type", func(r *models.BatchRequest) { r.CertificateType = "draft" }, dErrors.CodeValidation},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := s.request(fiveRows())
			tc.mutate(&req)
			report, err := s.service.GenerateBatch(s.ctx, req)
			s.Nil(report)
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}

	pending, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *ServiceSuite) TestGenerateBatchCollaboratorFailuresAreNotFatal() {
	ctrl := gomock.NewController(s.T())
	cache := mocks.NewMockArchiveCache(ctrl)
	pub := mocks.NewMockAuditPublisher(ctrl)
	svc := s.newService(s.store, render.New(discardLogger()), WithArchiveCache(cache), WithAuditPublisher(pub))

	cache.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	pub.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).AnyTimes()

	report, err := svc.GenerateBatch(s.ctx, s.request(fiveRows()[:2]))
	s.Require().NoError(err)
	s.Len(report.Generated, 2)
	s.False(report.Cached)
	s.NotEmpty(report.Archive)
}

func TestArchiveName(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		name    string
		records []models.NormalizedRecord
		want    string
	}{
		{"no program", []models.NormalizedRecord{{}}, "DLithe_Certificates_20240102_030405.zip"},
		{"first present program wins", []models.NormalizedRecord{
			{},
			{Program: models.Present("Web Dev Bootcamp")},
			{Program: models.Present("Other")},
		}, "DLithe_Web_Dev_Bootcamp_20240102_030405.zip"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := archiveName(catalog.OrgDLithe, tc.records, at); got != tc.want {
				t.Errorf("archiveName() = %q, want %q", got, tc.want)
			}
		})
	}
}

// =============================================================================
// Approved bundles
// =============================================================================

func (s *ServiceSuite) TestGenerateApproved() {
	_, err := s.service.GenerateBatch(s.ctx, s.request(fiveRows()))
	s.Require().NoError(err)
	s.Require().NoError(s.store.SetStatus(s.ctx, catalog.OrgDLithe, "DLWD1RV20CS001MAR24", models.StatusReviewCompleted))
	s.Require().NoError(s.store.SetStatus(s.ctx, catalog.OrgDLithe, "DLCS1RV20CS004MAR24", models.StatusReviewCompleted))

	report, err := s.service.GenerateApproved(s.ctx, models.ApprovedRequest{
		OwnerID:      s.owner,
		Organization: "DLithe",
		ActivityType: "Bootcamp",
	})
	s.Require().NoError(err)
	s.Equal("approved_certificates.zip", report.ArchiveName)
	s.Empty(report.Failures)
	s.Len(report.Generated, 2)

	entries := zipEntries(s.T(), report.Archive)
	s.Require().Len(entries, 2)
	pdf := entries["Asha_K_DLWD1RV20CS001MAR24.pdf"]
	s.NotContains(string(pdf), "PROVISIONAL CERTIFICATE")
	s.Contains(string(pdf), "Bootcamp")
	s.Contains(entries, "Divya_P_DLCS1RV20CS004MAR24.pdf")

	pending, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Len(pending, 2, "approved flow must not insert records")

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Batches.WithLabelValues(flowApproved)))
}

func (s *ServiceSuite) TestGenerateApprovedNothingReviewed() {
	_, err := s.service.GenerateBatch(s.ctx, s.request(fiveRows()))
	s.Require().NoError(err)

	report, err := s.service.GenerateApproved(s.ctx, models.ApprovedRequest{OwnerID: s.owner, Organization: "DLithe"})
	s.Nil(report)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGenerateApprovedOtherOwnerSeesNothing() {
	_, err := s.service.GenerateBatch(s.ctx, s.request(fiveRows()))
	s.Require().NoError(err)
	s.Require().NoError(s.store.SetStatus(s.ctx, catalog.OrgDLithe, "DLWD1RV20CS001MAR24", models.StatusReviewCompleted))

	_, err = s.service.GenerateApproved(s.ctx, models.ApprovedRequest{
		OwnerID:      id.OwnerID(uuid.New()),
		Organization: "DLithe",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGenerateApprovedRepositoryError() {
	ctrl := gomock.NewController(s.T())
	repo := mocks.NewMockRepository(ctrl)
	svc := s.newService(repo, render.New(discardLogger()))

	repo.EXPECT().
		ListByOwnerAndStatus(gomock.Any(), s.owner, catalog.OrgNxtAlign, models.StatusReviewCompleted).
		Return(nil, errors.New("connection reset"))

	_, err := svc.GenerateApproved(s.ctx, models.ApprovedRequest{OwnerID: s.owner, Organization: "NXTALIGN"})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

// =============================================================================
// Records and archives
// =============================================================================

func (s *ServiceSuite) TestListRecords() {
	_, err := s.service.GenerateBatch(s.ctx, s.request(fiveRows()))
	s.Require().NoError(err)
	s.Require().NoError(s.store.SetStatus(s.ctx, catalog.OrgDLithe, "DLWD1RV20CS001MAR24", models.StatusReviewCompleted))

	s.Run("empty status means pending review", func() {
		records, err := s.service.ListRecords(s.ctx, s.owner, "DLithe", "")
		s.Require().NoError(err)
		s.Len(records, 3)
	})

	s.Run("status is case insensitive", func() {
		records, err := s.service.ListRecords(s.ctx, s.owner, "dlithe", "Review_Completed")
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal("Asha K", records[0].Name.String())
	})

	s.Run("unknown status lists nothing", func() {
		records, err := s.service.ListRecords(s.ctx, s.owner, "DLithe", "archived")
		s.Require().NoError(err)
		s.Empty(records)
	})

	s.Run("malformed status is rejected", func() {
		_, err := s.service.ListRecords(s.ctx, s.owner, "DLithe", "pending-review")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown organization is rejected", func() {
		_, err := s.service.ListRecords(s.ctx, s.owner, "Acme", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing owner is unauthorized", func() {
		_, err := s.service.ListRecords(s.ctx, id.OwnerID{}, "DLithe", "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestFetchArchive() {
	report, err := s.service.GenerateBatch(s.ctx, s.request(fiveRows()))
	s.Require().NoError(err)

	s.Run("owner downloads cached archive", func() {
		entry, err := s.service.FetchArchive(s.ctx, s.owner, report.BatchID)
		s.Require().NoError(err)
		s.Equal(report.ArchiveName, entry.Name)
		s.Equal(report.Archive, entry.Data)
	})

	s.Run("other owner gets not found", func() {
		_, err := s.service.FetchArchive(s.ctx, id.OwnerID(uuid.New()), report.BatchID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown batch gets not found", func() {
		_, err := s.service.FetchArchive(s.ctx, s.owner, id.NewBatchID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("expired batch gets not found", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))
		_, err := s.service.FetchArchive(later, s.owner, report.BatchID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Equal(3.0, testutil.ToFloat64(s.metrics.CacheMisses))
}

func (s *ServiceSuite) TestFetchArchiveWithoutCache() {
	svc := s.newService(s.store, render.New(discardLogger()))
	_, err := svc.FetchArchive(s.ctx, s.owner, id.NewBatchID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestFetchArchiveCacheError() {
	ctrl := gomock.NewController(s.T())
	cache := mocks.NewMockArchiveCache(ctrl)
	svc := s.newService(s.store, render.New(discardLogger()), WithArchiveCache(cache))

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(archivecache.Entry{}, errors.New("timeout"))

	_, err := svc.FetchArchive(s.ctx, s.owner, id.NewBatchID())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
