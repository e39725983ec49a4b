package domain

import (
	"github.com/google/uuid"

	dErrors "certgen/pkg/domain-errors"
)

// OwnerID identifies the account that uploaded a roster and owns the
// resulting certificate records.
type OwnerID uuid.UUID

// BatchID identifies one generation run and its cached archive.
type BatchID uuid.UUID

func (id OwnerID) String() string { return uuid.UUID(id).String() }
func (id OwnerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText encodes the canonical UUID form.
func (id OwnerID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText parses the canonical UUID form.
func (id *OwnerID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id BatchID) String() string { return uuid.UUID(id).String() }
func (id BatchID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id BatchID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// NewBatchID returns a random batch identifier.
func NewBatchID() BatchID { return BatchID(uuid.New()) }

// ParseOwnerID validates an owner identifier received at a trust boundary.
func ParseOwnerID(s string) (OwnerID, error) {
	u, err := parseUUID(s, "owner ID")
	return OwnerID(u), err
}

// ParseBatchID validates a batch identifier received at a trust boundary.
func ParseBatchID(s string) (BatchID, error) {
	u, err := parseUUID(s, "batch ID")
	return BatchID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
