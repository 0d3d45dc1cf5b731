package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// ============================================================
// Users (admin only)
// ============================================================

func (s *CatalogService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListUsers")
	defer span.End()

	if err := requireAdmin(actor, "list users"); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx)
}

func validateUser(in *domain.UserInput, creating bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := required("name", in.Name); err != nil {
		return err
	}
	if err := required("email", in.Email); err != nil {
		return err
	}
	if !strings.Contains(in.Email, "@") {
		return &domain.ErrValidation{Field: "email", Message: "email inválido"}
	}
	if !in.Role.Valid() {
		return &domain.ErrValidation{Field: "role", Message: "perfil inválido"}
	}
	if creating || in.Password != "" {
		if len(in.Password) < minPasswordLength {
			return &domain.ErrValidation{Field: "password", Message: "A senha deve ter pelo menos 6 caracteres"}
		}
	}
	return nil
}

func (s *CatalogService) CreateUser(ctx context.Context, actor *domain.User, in *domain.UserInput) (*domain.User, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CreateUser")
	defer span.End()

	if err := requireAdmin(actor, "create users"); err != nil {
		return nil, err
	}
	if err := validateUser(in, true); err != nil {
		return nil, err
	}

	u, err := s.users.CreateUser(ctx, in)
	if err != nil {
		s.logger.Error("failed to create user", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}
	s.logger.Info("user created",
		zap.String("user_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.String("admin_id", actor.ID),
	)
	return u, nil
}

func (s *CatalogService) UpdateUser(ctx context.Context, actor *domain.User, id string, in *domain.UserInput) (*domain.User, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.UpdateUser")
	defer span.End()

	if err := requireAdmin(actor, "update users"); err != nil {
		return nil, err
	}
	if err := validateUser(in, false); err != nil {
		return nil, err
	}
	u, err := s.users.UpdateUser(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if id != actor.ID {
		s.revokeSessions(ctx, id, "updated")
	}
	return u, nil
}

func (s *CatalogService) DeleteUser(ctx context.Context, actor *domain.User, id string) error {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.DeleteUser")
	defer span.End()

	if err := requireAdmin(actor, "delete users"); err != nil {
		return err
	}
	if id == actor.ID {
		return &domain.ErrValidation{Field: "id", Message: "não é possível excluir o próprio usuário"}
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.revokeSessions(ctx, id, "deleted")
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("admin_id", actor.ID))
	return nil
}

// ToggleUserStatus flips the active flag of an account.
func (s *CatalogService) ToggleUserStatus(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ToggleUserStatus")
	defer span.End()

	if err := requireAdmin(actor, "toggle users"); err != nil {
		return nil, err
	}
	if id == actor.ID {
		return nil, &domain.ErrValidation{Field: "id", Message: "não é possível desativar o próprio usuário"}
	}
	u, err := s.users.ToggleUserStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		s.revokeSessions(ctx, id, "deactivated")
	}
	return u, nil
}

// revokeSessions ends the user's live sessions. Failures are logged only.
func (s *CatalogService) revokeSessions(ctx context.Context, userID, reason string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke user sessions",
			zap.String("user_id", userID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("user sessions revoked", zap.String("user_id", userID), zap.String("reason", reason))
}
