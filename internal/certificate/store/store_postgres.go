package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"certgen/internal/catalog"
	"certgen/internal/certificate/models"
	id "certgen/pkg/domain"
	"certgen/pkg/platform/sentinel"
	"certgen/pkg/requestcontext"
)

const uniqueViolation = "23505"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id                      BIGSERIAL PRIMARY KEY,
	owner_id                UUID NOT NULL,
	prefix                  TEXT,
	name                    TEXT,
	usn                     TEXT,
	college                 TEXT,
	email                   TEXT,
	phone                   TEXT,
	registered              TEXT,
	start_date              DATE,
	end_date                DATE,
	program                 TEXT,
	mode                    TEXT,
	payment_status          TEXT,
	certificate_issued_date DATE,
	topic                   TEXT,
	domain                  TEXT,
	certificate_id          TEXT NOT NULL,
	status                  TEXT NOT NULL DEFAULT 'pending_review',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT %[1]s_certificate_id_key UNIQUE (certificate_id)
);
CREATE INDEX IF NOT EXISTS %[1]s_owner_status_idx ON %[1]s (owner_id, status);
`

const postgresColumns = `id, owner_id, prefix, name, usn, college, email, phone, registered,
	to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'), program, mode, payment_status,
	to_char(certificate_issued_date, 'YYYY-MM-DD'), topic, domain, certificate_id, status, created_at`

// PostgresStore persists certificates in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed certificate store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the organization tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, table := range Tables() {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(postgresSchema, table)); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, owner id.OwnerID, org catalog.OrgKey, rec models.NormalizedRecord) error {
	_, table, err := resolve(org)
	if err != nil {
		return models.NewPersistenceError("insert", err)
	}
	row := newRow(owner, rec, requestcontext.Now(ctx))
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, prefix, name, usn, college, email, phone, registered,
			start_date, end_date, program, mode, payment_status, certificate_issued_date,
			topic, domain, certificate_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`, table)
	_, err = s.db.ExecContext(ctx, query,
		row.OwnerID, row.Prefix, row.Name, row.USN, row.College, row.Email, row.Phone, row.Registered,
		row.StartDate, row.EndDate, row.Program, row.Mode, row.PaymentStatus, row.CertificateIssuedDate,
		row.Topic, row.Domain, row.CertificateID, row.Status, row.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.NewPersistenceError("insert", fmt.Errorf("certificate id %s: %w", rec.CertificateID, sentinel.ErrConflict))
		}
		return models.NewPersistenceError("insert", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwnerAndStatus(ctx context.Context, owner id.OwnerID, org catalog.OrgKey, status models.Status) ([]models.CertificateRecord, error) {
	key, table, err := resolve(org)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE owner_id = $1 AND status = $2 ORDER BY id`, postgresColumns, table)
	rows, err := s.db.QueryContext(ctx, query, owner.String(), string(status))
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var out []models.CertificateRecord
	for rows.Next() {
		var r certificateRow
		if err := rows.Scan(
			&r.ID, &r.OwnerID, &r.Prefix, &r.Name, &r.USN, &r.College, &r.Email, &r.Phone, &r.Registered,
			&r.StartDate, &r.EndDate, &r.Program, &r.Mode, &r.PaymentStatus,
			&r.CertificateIssuedDate, &r.Topic, &r.Domain, &r.CertificateID, &r.Status, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		rec, err := r.record(key)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return out, nil
}
