// Package store persists generated certificates with their review status.
// Each organization has its own table; a certificate ID is unique within it.
package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"certgen/internal/catalog"
	"certgen/internal/certificate/models"
	id "certgen/pkg/domain"
)

const tablePrefix = "certificate_data_"

// TableName maps an organization to its table. Only the closed set of
// organizations is accepted, so the result is safe to splice into SQL.
func TableName(org catalog.OrgKey) (string, error) {
	_, table, err := resolve(org)
	return table, err
}

// resolve returns the canonical key and table for org.
func resolve(org catalog.OrgKey) (catalog.OrgKey, string, error) {
	switch {
	case strings.EqualFold(string(org), string(catalog.OrgDLithe)):
		return catalog.OrgDLithe, tablePrefix + "dlithe", nil
	case strings.EqualFold(string(org), string(catalog.OrgNxtAlign)):
		return catalog.OrgNxtAlign, tablePrefix + "nxtalign", nil
	}
	return "", "", fmt.Errorf("%w: %q", catalog.ErrUnknownOrganization, org)
}

// Tables lists every organization table.
func Tables() []string {
	return []string{tablePrefix + "dlithe", tablePrefix + "nxtalign"}
}

// certificateRow is the column layout shared by the SQL stores. Absent
// fields are NULL.
type certificateRow struct {
	ID                    uint      `gorm:"column:id;primaryKey;autoIncrement"`
	OwnerID               string    `gorm:"column:owner_id;not null"`
	Prefix                *string   `gorm:"column:prefix"`
	Name                  *string   `gorm:"column:name"`
	USN                   *string   `gorm:"column:usn"`
	College               *string   `gorm:"column:college"`
	Email                 *string   `gorm:"column:email"`
	Phone                 *string   `gorm:"column:phone"`
	Registered            *string   `gorm:"column:registered"`
	StartDate             *string   `gorm:"column:start_date"`
	EndDate               *string   `gorm:"column:end_date"`
	Program               *string   `gorm:"column:program"`
	Mode                  *string   `gorm:"column:mode"`
	PaymentStatus         *string   `gorm:"column:payment_status"`
	CertificateIssuedDate *string   `gorm:"column:certificate_issued_date"`
	Topic                 *string   `gorm:"column:topic"`
	Domain                *string   `gorm:"column:domain"`
	CertificateID         string    `gorm:"column:certificate_id;not null"`
	Status                string    `gorm:"column:status;not null;default:pending_review"`
	CreatedAt             time.Time `gorm:"column:created_at;not null"`
}

func nullable(f models.Field) *string {
	if !f.IsPresent() {
		return nil
	}
	s := f.String()
	return &s
}

func field(s *string) models.Field {
	if s == nil {
		return models.Absent()
	}
	return models.Present(*s)
}

func newRow(owner id.OwnerID, rec models.NormalizedRecord, createdAt time.Time) certificateRow {
	return certificateRow{
		OwnerID:               owner.String(),
		Prefix:                nullable(rec.Prefix),
		Name:                  nullable(rec.Name),
		USN:                   nullable(rec.USN),
		College:               nullable(rec.College),
		Email:                 nullable(rec.Email),
		Phone:                 nullable(rec.Phone),
		Registered:            nullable(rec.RegisteredDate),
		StartDate:             nullable(rec.StartDate),
		EndDate:               nullable(rec.EndDate),
		Program:               nullable(rec.Program),
		Mode:                  nullable(rec.Mode),
		PaymentStatus:         nullable(rec.PaymentStatus),
		CertificateIssuedDate: nullable(rec.CertificateIssuedDate),
		Topic:                 nullable(rec.Topic),
		Domain:                nullable(rec.Domain),
		CertificateID:         rec.CertificateID,
		Status:                string(models.StatusPendingReview),
		CreatedAt:             createdAt,
	}
}

func (r certificateRow) record(org catalog.OrgKey) (models.CertificateRecord, error) {
	owner, err := uuid.Parse(r.OwnerID)
	if err != nil {
		return models.CertificateRecord{}, fmt.Errorf("row %d has invalid owner id: %w", r.ID, err)
	}
	return models.CertificateRecord{
		NormalizedRecord: models.NormalizedRecord{
			Prefix:                field(r.Prefix),
			Name:                  field(r.Name),
			USN:                   field(r.USN),
			College:               field(r.College),
			Email:                 field(r.Email),
			Phone:                 field(r.Phone),
			RegisteredDate:        field(r.Registered),
			StartDate:             field(r.StartDate),
			EndDate:               field(r.EndDate),
			Program:               field(r.Program),
			Mode:                  field(r.Mode),
			PaymentStatus:         field(r.PaymentStatus),
			CertificateIssuedDate: field(r.CertificateIssuedDate),
			Topic:                 field(r.Topic),
			Domain:                field(r.Domain),
			CertificateID:         r.CertificateID,
		},
		OwnerID:      id.OwnerID(owner),
		Organization: org,
		Status:       models.Status(r.Status),
		CreatedAt:    r.CreatedAt,
	}, nil
}
