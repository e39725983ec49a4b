package handler

import (
	"strings"

	"certgen/internal/certificate/models"
	id "certgen/pkg/domain"
	dErrors "certgen/pkg/domain-errors"
)

// GenerateBatchRequest is the body of POST /certificates/batches. Multipart
// uploads fill Rows from the CSV file; JSON clients send rows directly.
type GenerateBatchRequest struct {
	Organization    string          `json:"organization"`
	Domain          string          `json:"domain"`
	CertificateType string          `json:"certificate_type"`
	ActivityType    string          `json:"activity_type"`
	Duration        string          `json:"duration"`
	Rows            []models.RawRow `json:"rows"`
}

// Validate trims the scalar fields and checks the required ones.
func (r *GenerateBatchRequest) Validate() error {
	r.Organization = strings.TrimSpace(r.Organization)
	r.Domain = strings.TrimSpace(r.Domain)
	r.CertificateType = strings.TrimSpace(r.CertificateType)
	r.ActivityType = strings.TrimSpace(r.ActivityType)
	r.Duration = strings.TrimSpace(r.Duration)

	if r.Organization == "" {
		return dErrors.New(dErrors.CodeValidation, "organization is required")
	}
	if r.CertificateType == "" {
		return dErrors.New(dErrors.CodeValidation, "certificate_type is required")
	}
	return nil
}

func (r *GenerateBatchRequest) toModel(owner id.OwnerID) models.BatchRequest {
	return models.BatchRequest{
		OwnerID:         owner,
		Organization:    r.Organization,
		Domain:          r.Domain,
		CertificateType: r.CertificateType,
		ActivityType:    r.ActivityType,
		Duration:        r.Duration,
		Rows:            r.Rows,
	}
}
