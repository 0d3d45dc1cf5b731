// Package service holds the application services: commissions, catalog
// management and authentication.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/port"
)

var authTracer = otel.Tracer("service/auth")

const (
	tokenIssuer       = "comissoes-bfa"
	minPasswordLength = 6
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	gateway   port.AuthGateway
	sessions  port.SessionStore
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(gateway port.AuthGateway, sessions port.SessionStore, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		gateway:   gateway,
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
	}
}

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "Email e senha são obrigatórios"}
	}
	span.SetAttributes(attribute.String("email", email))

	up, err := s.gateway.Login(ctx, email, req.Password)
	if err != nil {
		var unauth *domain.ErrUnauthorized
		if errors.As(err, &unauth) {
			s.logger.Warn("login: rejected", zap.String("email", email))
			return nil, &domain.ErrUnauthorized{Message: "Email ou senha inválidos"}
		}
		s.logger.Error("login: backend unavailable", zap.String("email", email), zap.Error(err))
		return nil, connectionError(err)
	}

	sess := &domain.Session{
		ID:            uuid.NewString(),
		UpstreamToken: up.Token,
		User:          up.User,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.sessions.Save(ctx, sess, s.accessTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.signAccessToken(&up.User, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Info("user logged in",
		zap.String("user_id", up.User.ID),
		zap.String("role", string(up.User.Role)),
	)

	return &domain.LoginResponse{
		Token:     token,
		ExpiresIn: int(s.accessTTL.Seconds()),
		User:      up.User,
	}, nil
}

// ============================================================
// Logout: POST /v1/auth/logout
// ============================================================

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ============================================================
// Passwords
// ============================================================

// ChangePassword handles POST /v1/auth/change-password
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, req *domain.ChangePasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ChangePassword")
	defer span.End()

	if actor == nil {
		return &domain.ErrUnauthorized{Message: "Usuário não autenticado"}
	}
	if req.CurrentPassword == "" {
		return &domain.ErrValidation{Field: "currentPassword", Message: "Informe a senha atual"}
	}
	if err := validateNewPassword(req.NewPassword); err != nil {
		return err
	}

	if err := s.gateway.ChangePassword(ctx, actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.logger.Warn("change password failed", zap.String("user_id", actor.ID), zap.Error(err))
		return passwordError("Falha ao alterar a senha", err)
	}
	s.logger.Info("password changed", zap.String("user_id", actor.ID))
	return nil
}

// AdminResetPassword handles POST /v1/auth/admin/reset-password
func (s *AuthService) AdminResetPassword(ctx context.Context, actor *domain.User, req *domain.AdminResetPasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.AdminResetPassword")
	defer span.End()

	if err := requireAdmin(actor, "reset passwords"); err != nil {
		return err
	}
	if strings.TrimSpace(req.UserID) == "" {
		return &domain.ErrValidation{Field: "userId", Message: "Usuário é obrigatório"}
	}
	if err := validateNewPassword(req.NewPassword); err != nil {
		return err
	}

	if err := s.gateway.AdminResetPassword(ctx, req.UserID, req.NewPassword); err != nil {
		s.logger.Warn("admin reset password failed", zap.String("target_user_id", req.UserID), zap.Error(err))
		return passwordError("Falha ao redefinir a senha", err)
	}
	if err := s.sessions.DeleteByUser(ctx, req.UserID); err != nil {
		s.logger.Error("failed to revoke sessions after reset", zap.String("target_user_id", req.UserID), zap.Error(err))
	}
	s.logger.Info("password reset by admin",
		zap.String("admin_id", actor.ID),
		zap.String("target_user_id", req.UserID),
	)
	return nil
}

func validateNewPassword(pw string) error {
	if len(pw) < minPasswordLength {
		return &domain.ErrValidation{Field: "newPassword", Message: fmt.Sprintf("A nova senha deve ter pelo menos %d caracteres", minPasswordLength)}
	}
	return nil
}

// passwordError keeps typed client errors and turns anything else into
// an external-service failure carrying msg.
func passwordError(msg string, err error) error {
	var (
		verr   *domain.ErrValidation
		unauth *domain.ErrUnauthorized
		forb   *domain.ErrForbidden
		nf     *domain.ErrNotFound
	)
	if errors.As(err, &verr) || errors.As(err, &unauth) || errors.As(err, &forb) || errors.As(err, &nf) {
		return err
	}
	return &domain.ErrExternalService{Service: "auth", Err: fmt.Errorf("%s: %w", msg, err)}
}

func connectionError(err error) error {
	return &domain.ErrExternalService{Service: "auth", Err: fmt.Errorf("Erro de conexão com o servidor: %w", err)}
}

// ============================================================
// Tokens (used by middleware)
// ============================================================

// JWTClaims represents the custom claims in access tokens. The jti
// (RegisteredClaims.ID) keys the server-side session.
type JWTClaims struct {
	Sub       string `json:"sub"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// Actor rebuilds the user the token was issued for.
func (c *JWTClaims) Actor() *domain.User {
	return &domain.User{
		ID:        c.Sub,
		Name:      c.Name,
		Email:     c.Email,
		Role:      domain.Role(c.Role),
		Active:    true,
		CreatedAt: c.CreatedAt,
	}
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}

	if claims.Type != "access" || claims.ID == "" {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}

	return claims, nil
}

// Authenticate validates the token and loads its session.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*JWTClaims, *domain.Session, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, nil, &domain.ErrUnauthorized{Message: "Sessão expirada"}
	}
	return claims, sess, nil
}

func (s *AuthService) signAccessToken(u *domain.User, sessionID string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:       u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		Type:      "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
