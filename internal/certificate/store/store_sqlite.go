package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"certgen/internal/catalog"
	"certgen/internal/certificate/models"
	id "certgen/pkg/domain"
	"certgen/pkg/platform/sentinel"
	"certgen/pkg/requestcontext"
)

// SQLiteStore persists certificates in a single SQLite file. It backs the
// command line tool.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database at path and prepares the
// organization tables.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" a
	// single database.
	sqlDB.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, table := range Tables() {
		if err := s.db.Table(table).AutoMigrate(&certificateRow{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
		stmts := []string{
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_certificate_id ON %[1]s (certificate_id)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_owner_status ON %[1]s (owner_id, status)`, table),
		}
		for _, stmt := range stmts {
			if err := s.db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index %s: %w", table, err)
			}
		}
	}
	return nil
}

// Ping checks the database handle.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, owner id.OwnerID, org catalog.OrgKey, rec models.NormalizedRecord) error {
	_, table, err := resolve(org)
	if err != nil {
		return models.NewPersistenceError("insert", err)
	}
	row := newRow(owner, rec, requestcontext.Now(ctx))
	if err := s.db.WithContext(ctx).Table(table).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewPersistenceError("insert", fmt.Errorf("certificate id %s: %w", rec.CertificateID, sentinel.ErrConflict))
		}
		return models.NewPersistenceError("insert", err)
	}
	return nil
}

func (s *SQLiteStore) ListByOwnerAndStatus(ctx context.Context, owner id.OwnerID, org catalog.OrgKey, status models.Status) ([]models.CertificateRecord, error) {
	key, table, err := resolve(org)
	if err != nil {
		return nil, err
	}
	var rows []certificateRow
	err = s.db.WithContext(ctx).Table(table).
		Where("owner_id = ? AND status = ?", owner.String(), string(status)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	out := make([]models.CertificateRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record(key)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SetStatus moves one record to a review stage. certctl uses it to mark
// records reviewed on a local database.
func (s *SQLiteStore) SetStatus(ctx context.Context, org catalog.OrgKey, certificateID string, status models.Status) error {
	_, table, err := resolve(org)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Table(table).
		Where("certificate_id = ?", certificateID).
		Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("set status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
