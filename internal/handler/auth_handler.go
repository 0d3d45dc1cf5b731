package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/format"
	"github.com/boddenberg/comissoes-bfa/internal/service"
)

// ============================================================
// Autenticação
// ============================================================

func authLoginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func authLogoutHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		if err := authSvc.Logout(ctx, SessionIDFromContext(ctx)); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type meResponse struct {
	domain.User
	DisplayName      string `json:"displayName"`
	CreatedAtDisplay string `json:"createdAtDisplay"`
	LastLoginDisplay string `json:"lastLoginDisplay,omitempty"`
}

func authMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFromContext(r.Context())
		if actor == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, meResponse{
			User:             *actor,
			DisplayName:      format.DisplayName(actor.Name),
			CreatedAtDisplay: format.DateDisplay(actor.CreatedAt),
			LastLoginDisplay: format.DateTimeDisplay(actor.LastLogin),
		})
	}
}

func authChangePasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/change-password")
		defer span.End()

		var req domain.ChangePasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := authSvc.ChangePassword(ctx, ActorFromContext(ctx), &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Senha alterada com sucesso"})
	}
}

func authAdminResetPasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/admin/reset-password")
		defer span.End()

		var req domain.AdminResetPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := authSvc.AdminResetPassword(ctx, ActorFromContext(ctx), &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Senha redefinida com sucesso", ID: req.UserID})
	}
}
