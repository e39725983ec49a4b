package handler

import (
	"certgen/internal/catalog"
	"certgen/internal/certificate/models"
)

type BatchResponse struct {
	BatchID     string                     `json:"batch_id"`
	ArchiveName string                     `json:"archive_name"`
	Generated   []models.GeneratedDocument `json:"generated"`
	Failures    []models.RowFailure        `json:"failures"`
	DownloadURL string                     `json:"download_url,omitempty"`
}

func toBatchResponse(report *models.BatchReport) BatchResponse {
	resp := BatchResponse{
		BatchID:     report.BatchID.String(),
		ArchiveName: report.ArchiveName,
		Generated:   report.Generated,
		Failures:    report.Failures,
	}
	if resp.Generated == nil {
		resp.Generated = []models.GeneratedDocument{}
	}
	if resp.Failures == nil {
		resp.Failures = []models.RowFailure{}
	}
	if report.Cached {
		resp.DownloadURL = "/certificates/batches/" + resp.BatchID + "/archive"
	}
	return resp
}

type RecordsResponse struct {
	Records []models.CertificateRecord `json:"records"`
	Count   int                        `json:"count"`
}

func toRecordsResponse(records []models.CertificateRecord) RecordsResponse {
	if records == nil {
		records = []models.CertificateRecord{}
	}
	return RecordsResponse{Records: records, Count: len(records)}
}

type OrganizationResponse struct {
	Key       string `json:"key"`
	LegalName string `json:"legal_name"`
}

type DomainResponse struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type CatalogResponse struct {
	Organizations    []OrganizationResponse `json:"organizations"`
	Domains          []DomainResponse       `json:"domains"`
	ActivityTypes    []string               `json:"activity_types"`
	Durations        []string               `json:"durations"`
	CertificateTypes []string               `json:"certificate_types"`
}

func toCatalogResponse(c *catalog.Catalog) CatalogResponse {
	resp := CatalogResponse{
		ActivityTypes:    c.ActivityTypes(),
		Durations:        c.Durations(),
		CertificateTypes: []string{string(models.TypeProvisional), string(models.TypeFinal)},
	}
	for _, org := range c.Organizations() {
		resp.Organizations = append(resp.Organizations, OrganizationResponse{Key: string(org.Key), LegalName: org.LegalName})
	}
	for _, d := range c.Domains() {
		resp.Domains = append(resp.Domains, DomainResponse{Name: d.Name, Code: d.Code})
	}
	return resp
}
