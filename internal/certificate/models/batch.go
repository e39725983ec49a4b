package models

import (
	id "certgen/pkg/domain"
)

// RawRow is one untrusted roster row keyed by its original column header.
type RawRow map[string]any

// BatchRequest asks for one certificate per roster row.
type BatchRequest struct {
	OwnerID      id.OwnerID
	Organization string
	// Domain, when set, replaces every row's own domain.
	Domain          string
	CertificateType string
	ActivityType    string
	Duration        string
	Rows            []RawRow
}

// ApprovedRequest asks for final certificates of every reviewed record.
type ApprovedRequest struct {
	OwnerID      id.OwnerID
	Organization string
	ActivityType string
	Duration     string
}

// GeneratedDocument describes one archive entry.
type GeneratedDocument struct {
	Row           int    `json:"row"`
	Name          string `json:"name"`
	CertificateID string `json:"certificate_id"`
	Filename      string `json:"filename"`
}

// RowFailure reports a row that produced no document. Row is 1-based.
type RowFailure struct {
	Row     int    `json:"row"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// BatchReport is the outcome of a batch: the archive plus what went into it
// and what did not.
type BatchReport struct {
	BatchID     id.BatchID
	ArchiveName string
	Archive     []byte
	Cached      bool
	Generated   []GeneratedDocument
	Failures    []RowFailure
}
