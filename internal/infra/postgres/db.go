// Package postgres is the self-hosted data backend: the same stores the
// remote gateway offers, persisted with GORM on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// Store implements every entity port plus port.AuthGateway over GORM.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to dsn and migrates the schema.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := New(db, log)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection without migrating.
func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, logger: log}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&userRow{}, &clientRow{}, &developmentRow{}, &saleRow{}, &installmentRow{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

// Check pings the database.
func (s *Store) Check(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mapError translates GORM errors into domain errors.
func mapError(resource, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &domain.ErrNotFound{Resource: resource, ID: id}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &domain.ErrConflict{Message: fmt.Sprintf("%s já cadastrado", resource)}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &domain.ErrConflict{Message: fmt.Sprintf("%s possui registros vinculados", resource)}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: resource}
	}
	return &domain.ErrExternalService{Service: "postgres", Err: err}
}
