package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"certgen/internal/catalog"
	"certgen/internal/certificate/models"
	id "certgen/pkg/domain"
	"certgen/pkg/platform/sentinel"
	"certgen/pkg/requestcontext"
)

type repository interface {
	Insert(ctx context.Context, owner id.OwnerID, org catalog.OrgKey, rec models.NormalizedRecord) error
	ListByOwnerAndStatus(ctx context.Context, owner id.OwnerID, org catalog.OrgKey, status models.Status) ([]models.CertificateRecord, error)
}

// statusSetter plays the external reviewer for a store under test.
type statusSetter func(t *testing.T, org catalog.OrgKey, certificateID string, status models.Status)

// RepositorySuite is the behaviour every store implementation shares.
type RepositorySuite struct {
	suite.Suite
	open func(t *testing.T) (repository, statusSetter)

	store     repository
	setStatus statusSetter
	ctx       context.Context
	now       time.Time
	owner     id.OwnerID
	other     id.OwnerID
}

func (s *RepositorySuite) SetupTest() {
	s.store, s.setStatus = s.open(s.T())
	s.now = time.Date(2024, 3, 16, 10, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.owner = id.OwnerID(uuid.New())
	s.other = id.OwnerID(uuid.New())
}

func record(name, certID string) models.NormalizedRecord {
	return models.NormalizedRecord{
		Prefix:        models.Present("Ms"),
		Name:          models.Present(name),
		USN:           models.Present("1RV20CS001"),
		College:       models.Present("RVCE"),
		StartDate:     models.Present("2023-12-01"),
		EndDate:       models.Present("2024-03-15"),
		Program:       models.Present("Summer Internship"),
		Domain:        models.Present("Web Development"),
		CertificateID: certID,
	}
}

func (s *RepositorySuite) TestInsertStoresPendingReview() {
	s.Require().NoError(s.store.Insert(s.ctx, s.owner, catalog.OrgDLithe, record("Asha K", "DLWD1RV20CS001MAR24")))

	got, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Require().Len(got, 1)

	rec := got[0]
	s.Equal(s.owner, rec.OwnerID)
	s.Equal(catalog.OrgDLithe, rec.Organization)
	s.Equal(models.StatusPendingReview, rec.Status)
	s.Equal("DLWD1RV20CS001MAR24", rec.CertificateID)
	s.Equal("Asha K", rec.Name.String())
	s.Equal("2024-03-15", rec.EndDate.String())
	s.Equal("2023-12-01", rec.StartDate.String())
	s.True(rec.CreatedAt.Equal(s.now), rec.CreatedAt)
}

func (s *RepositorySuite) TestAbsentFieldsStayAbsent() {
	rec := models.NormalizedRecord{Name: models.Present("Ravi"), CertificateID: "DLCSMAR24"}
	s.Require().NoError(s.store.Insert(s.ctx, s.owner, catalog.OrgDLithe, rec))

	got, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.False(got[0].USN.IsPresent())
	s.False(got[0].EndDate.IsPresent())
	s.False(got[0].Topic.IsPresent())
}

func (s *RepositorySuite) TestQueryIsolation() {
	s.Require().NoError(s.store.Insert(s.ctx, s.owner, catalog.OrgDLithe, record("A", "DLWD1MAR24")))
	s.Require().NoError(s.store.Insert(s.ctx, s.owner, catalog.OrgDLithe, record("B", "DLWD2MAR24")))
	s.Require().NoError(s.store.Insert(s.ctx, s.other, catalog.OrgDLithe, record("C", "DLWD3MAR24")))
	s.Require().NoError(s.store.Insert(s.ctx, s.owner, catalog.OrgNxtAlign, record("D", "NXTWD4MAR24")))
	s.setStatus(s.T(), catalog.OrgDLithe, "DLWD2MAR24", models.StatusReviewCompleted)
	s.setStatus(s.T(), catalog.OrgDLithe, "DLWD3MAR24", models.StatusReviewCompleted)

	s.Run("by owner and status", func() {
		got, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusReviewCompleted)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("DLWD2MAR24", got[0].CertificateID)
		s.Equal(models.StatusReviewCompleted, got[0].Status)
	})

	s.Run("pending excludes reviewed", func() {
		got, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, models.StatusPendingReview)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("DLWD1MAR24", got[0].CertificateID)
	})

	s.Run("by organization", func() {
		got, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgNxtAlign, models.StatusPendingReview)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("NXTWD4MAR24", got[0].CertificateID)
		s.Equal(catalog.OrgNxtAlign, got[0].Organization)
	})

	s.Run("unknown owner sees nothing", func() {
		got, err := s.store.ListByOwnerAndStatus(s.ctx, id.OwnerID(uuid.New()), catalog.OrgDLithe, models.StatusPendingReview)
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("external states are queryable", func() {
		s.setStatus(s.T(), catalog.OrgDLithe, "DLWD1MAR24", "rejected")
		got, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, catalog.OrgDLithe, "rejected")
		s.Require().NoError(err)
		s.Len(got, 1)
	})
}

func (s *RepositorySuite) TestDuplicateCertificateID() {
	s.Require().NoError(s.store.Insert(s.ctx, s.owner, catalog.OrgDLithe, record("A", "DLWD1MAR24")))

	s.Run("same organization conflicts", func() {
		err := s.store.Insert(s.ctx, s.other, catalog.OrgDLithe, record("B", "DLWD1MAR24"))
		s.Require().Error(err)
		var pe *models.PersistenceError
		s.Require().ErrorAs(err, &pe)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("other organization is independent", func() {
		s.NoError(s.store.Insert(s.ctx, s.owner, catalog.OrgNxtAlign, record("A", "DLWD1MAR24")))
	})

	got, err := s.store.ListByOwnerAndStatus(s.ctx, s.other, catalog.OrgDLithe, models.StatusPendingReview)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *RepositorySuite) TestOrganizationKeys() {
	s.Run("keys match case-insensitively", func() {
		s.Require().NoError(s.store.Insert(s.ctx, s.owner, "NXTALIGN", record("A", "NXTPY1JAN24")))
		got, err := s.store.ListByOwnerAndStatus(s.ctx, s.owner, "nxtalign", models.StatusPendingReview)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(catalog.OrgNxtAlign, got[0].Organization)
	})

	s.Run("unknown organizations are rejected", func() {
		err := s.store.Insert(s.ctx, s.owner, "Acme", record("A", "X"))
		var pe *models.PersistenceError
		s.Require().ErrorAs(err, &pe)
		s.ErrorIs(err, catalog.ErrUnknownOrganization)

		_, err = s.store.ListByOwnerAndStatus(s.ctx, s.owner, "Acme", models.StatusPendingReview)
		s.ErrorIs(err, catalog.ErrUnknownOrganization)
	})
}

func TestTableName(t *testing.T) {
	for org, want := range map[catalog.OrgKey]string{
		catalog.OrgDLithe:   "certificate_data_dlithe",
		"dlithe":            "certificate_data_dlithe",
		catalog.OrgNxtAlign: "certificate_data_nxtalign",
	} {
		got, err := TableName(org)
		if err != nil || got != want {
			t.Fatalf("TableName(%q) = %q, %v; want %q", org, got, err, want)
		}
	}
	if _, err := TableName("certificate_data_dlithe; DROP TABLE x"); err == nil {
		t.Fatal("expected error for unknown organization")
	}
}
