package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// ============================================================
// Auth (implements port.AuthGateway)
// ============================================================

// Login exchanges credentials for an upstream token. A 401 here means bad
// credentials, not an expired session.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.UpstreamLogin, error) {
	var out domain.UpstreamLogin
	err := c.do(ctx, call{
		op:     "Login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   domain.LoginRequest{Email: email, Password: password},
		out:    &out,
	})
	if err != nil {
		var unauth *domain.ErrUnauthorized
		if errors.As(err, &unauth) {
			return nil, &domain.ErrUnauthorized{Message: "Email ou senha inválidos"}
		}
		return nil, err
	}
	if out.Token == "" {
		return nil, &domain.ErrExternalService{Service: serviceName, Err: errors.New("login response without token")}
	}
	return &out, nil
}

// ChangePassword relies on the bearer token in ctx to identify the user.
func (c *Client) ChangePassword(ctx context.Context, _ string, currentPassword, newPassword string) error {
	return c.do(ctx, call{
		op:     "ChangePassword",
		method: http.MethodPost,
		path:   "/auth/change-password",
		body:   domain.ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword},
	})
}

func (c *Client) AdminResetPassword(ctx context.Context, userID, newPassword string) error {
	return c.do(ctx, call{
		op:       "AdminResetPassword",
		method:   http.MethodPost,
		path:     "/auth/admin/reset-password",
		resource: "user",
		id:       userID,
		body:     domain.AdminResetPasswordRequest{UserID: userID, NewPassword: newPassword},
	})
}
