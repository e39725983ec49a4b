package models

import (
	"strings"
	"time"

	"certgen/internal/catalog"
	id "certgen/pkg/domain"
	dErrors "certgen/pkg/domain-errors"
)

// CanonicalField names a field of the normalized record. The values match the
// "field" keys of the catalog alias table.
type CanonicalField string

const (
	FieldPrefix                CanonicalField = "Prefix"
	FieldName                  CanonicalField = "Name"
	FieldUSN                   CanonicalField = "USN"
	FieldCollege               CanonicalField = "College"
	FieldEmail                 CanonicalField = "Email"
	FieldPhone                 CanonicalField = "Phone"
	FieldRegistered            CanonicalField = "Registered"
	FieldStartDate             CanonicalField = "Start Date"
	FieldEndDate               CanonicalField = "End Date"
	FieldProgram               CanonicalField = "Program"
	FieldMode                  CanonicalField = "Mode"
	FieldPaymentStatus         CanonicalField = "Payment Status"
	FieldCertificateIssuedDate CanonicalField = "Certificate Issued Date"
	FieldTopic                 CanonicalField = "Topic"
	FieldDomain                CanonicalField = "Domain"
)

var canonicalFields = []CanonicalField{
	FieldPrefix, FieldName, FieldUSN, FieldCollege, FieldEmail, FieldPhone,
	FieldRegistered, FieldStartDate, FieldEndDate, FieldProgram, FieldMode,
	FieldPaymentStatus, FieldCertificateIssuedDate, FieldTopic, FieldDomain,
}

// CanonicalFields lists every field of the normalized record in schema order.
func CanonicalFields() []CanonicalField {
	return append([]CanonicalField(nil), canonicalFields...)
}

// ParseCanonicalField validates a field name from configuration.
func ParseCanonicalField(s string) (CanonicalField, bool) {
	for _, f := range canonicalFields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// IsDate reports whether the field is normalized to YYYY-MM-DD.
func (f CanonicalField) IsDate() bool {
	return f == FieldStartDate || f == FieldEndDate || f == FieldCertificateIssuedDate
}

// DateLayout is the canonical layout of normalized date fields.
const DateLayout = "2006-01-02"

// NormalizedRecord is one roster row in canonical shape. Every field exists;
// any of them may be absent. CertificateID stays empty until generation.
type NormalizedRecord struct {
	Prefix                Field  `json:"prefix"`
	Name                  Field  `json:"name"`
	USN                   Field  `json:"usn"`
	College               Field  `json:"college"`
	Email                 Field  `json:"email"`
	Phone                 Field  `json:"phone"`
	RegisteredDate        Field  `json:"registered"`
	StartDate             Field  `json:"start_date"`
	EndDate               Field  `json:"end_date"`
	Program               Field  `json:"program"`
	Mode                  Field  `json:"mode"`
	PaymentStatus         Field  `json:"payment_status"`
	CertificateIssuedDate Field  `json:"certificate_issued_date"`
	Topic                 Field  `json:"topic"`
	Domain                Field  `json:"domain"`
	CertificateID         string `json:"certificate_id,omitempty"`
}

func (r *NormalizedRecord) slot(f CanonicalField) *Field {
	switch f {
	case FieldPrefix:
		return &r.Prefix
	case FieldName:
		return &r.Name
	case FieldUSN:
		return &r.USN
	case FieldCollege:
		return &r.College
	case FieldEmail:
		return &r.Email
	case FieldPhone:
		return &r.Phone
	case FieldRegistered:
		return &r.RegisteredDate
	case FieldStartDate:
		return &r.StartDate
	case FieldEndDate:
		return &r.EndDate
	case FieldProgram:
		return &r.Program
	case FieldMode:
		return &r.Mode
	case FieldPaymentStatus:
		return &r.PaymentStatus
	case FieldCertificateIssuedDate:
		return &r.CertificateIssuedDate
	case FieldTopic:
		return &r.Topic
	case FieldDomain:
		return &r.Domain
	}
	return nil
}

// Get returns the named field; unknown names read as absent.
func (r NormalizedRecord) Get(f CanonicalField) Field {
	if p := r.slot(f); p != nil {
		return *p
	}
	return Absent()
}

// Set assigns the named field. Unknown names are ignored.
func (r *NormalizedRecord) Set(f CanonicalField, v Field) {
	if p := r.slot(f); p != nil {
		*p = v
	}
}

// Date parses a normalized date field. ok is false when the field is absent
// or not in canonical form.
func (r NormalizedRecord) Date(f CanonicalField) (time.Time, bool) {
	v := r.Get(f)
	if !v.IsPresent() {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, v.String())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Status is the review lifecycle stage of a persisted record.
type Status string

const (
	StatusPendingReview   Status = "pending_review"
	StatusReviewCompleted Status = "review_completed"
)

// ParseStatus accepts the known stages and any other lowercase identifier an
// external reviewer may have written.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "status is required")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeValidation, "status must be at most 64 characters")
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '_' {
			return "", dErrors.New(dErrors.CodeValidation, "status may contain only letters and underscores")
		}
	}
	return Status(s), nil
}

// CertificateType selects the body wording of a document.
type CertificateType string

const (
	TypeProvisional CertificateType = "provisional"
	TypeFinal       CertificateType = "final"
)

// ParseCertificateType parses the type flag case-insensitively.
func ParseCertificateType(s string) (CertificateType, error) {
	switch CertificateType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeProvisional:
		return TypeProvisional, nil
	case TypeFinal:
		return TypeFinal, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "certificate_type must be provisional or final")
}

// CertificateRecord is the persisted form of a generated certificate.
type CertificateRecord struct {
	NormalizedRecord
	OwnerID      id.OwnerID     `json:"owner_id"`
	Organization catalog.OrgKey `json:"organization"`
	Status       Status         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CertificateDocument is rendered content plus the identity used to name it.
type CertificateDocument struct {
	Name          string
	CertificateID string
	Content       []byte
}

// DocumentExt is the extension of rendered documents.
const DocumentExt = ".pdf"

// Filename returns "{name with spaces replaced by _}_{certificate ID}.pdf".
func (d CertificateDocument) Filename() string {
	return DocumentFilename(d.Name, d.CertificateID)
}

// DocumentFilename builds the archive entry name for a subject and ID.
func DocumentFilename(name, certificateID string) string {
	return strings.ReplaceAll(name, " ", "_") + "_" + certificateID + DocumentExt
}
