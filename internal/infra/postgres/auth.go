package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// ============================================================
// Auth (implements port.AuthGateway)
// ============================================================

const minPasswordLength = 6

var errInvalidCredentials = &domain.ErrUnauthorized{Message: "Email ou senha inválidos"}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("A senha deve ter pelo menos %d caracteres", minPasswordLength)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// opaqueToken stands in for the upstream bearer token in this backend.
func opaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Login verifies the bcrypt hash and stamps last_login. Inactive accounts
// are rejected with the same message as bad credentials.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.UpstreamLogin, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", normalizeEmail(email)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, mapError("user", email, err)
	}
	if !row.Active || !checkPassword(row.PasswordHash, password) {
		return nil, errInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", row.ID).Update("last_login", now).Error; err != nil {
		s.logger.Warn("postgres: failed to stamp last login", zap.String("user_id", row.ID), zap.Error(err))
	} else {
		row.LastLogin = &now
	}

	tok, err := opaqueToken()
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	return &domain.UpstreamLogin{Token: tok, User: row.toDomain()}, nil
}

func (s *Store) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", userID).Error; err != nil {
		return mapError("user", userID, err)
	}
	if !checkPassword(row.PasswordHash, currentPassword) {
		return &domain.ErrValidation{Field: "currentPassword", Message: "Senha atual incorreta"}
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *Store) AdminResetPassword(ctx context.Context, userID, newPassword string) error {
	return s.setPassword(ctx, userID, newPassword)
}

func (s *Store) setPassword(ctx context.Context, userID, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return mapError("user", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// adminRow builds the bootstrap admin with the same email normalization
// user writes get.
func adminRow(name, email, hash string) userRow {
	return userRow{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Role:         string(domain.RoleAdmin),
		Active:       true,
	}
}

// EnsureAdmin creates the bootstrap admin account when no user with that
// email exists yet.
func (s *Store) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	var count int64
	if err := s.db.WithContext(ctx).Model(&userRow{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return mapError("user", email, err)
	}
	if count > 0 {
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	row := adminRow(name, email, hash)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return mapError("usuário", row.ID, err)
	}
	s.logger.Info("postgres: bootstrap admin created", zap.String("email", email))
	return nil
}
