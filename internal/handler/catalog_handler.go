package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/service"
)

// ============================================================
// Clientes
// ============================================================

func listClientsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients")
		defer span.End()

		clients, err := svc.ListClients(ctx, ActorFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, clients)
	}
}

func createClientHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients")
		defer span.End()

		var in domain.ClientInput
		if !decodeBody(w, r, &in) {
			return
		}
		c, err := svc.CreateClient(ctx, ActorFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func updateClientHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{id}")
		defer span.End()

		var in domain.ClientInput
		if !decodeBody(w, r, &in) {
			return
		}
		c, err := svc.UpdateClient(ctx, ActorFromContext(ctx), chi.URLParam(r, "id"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteClientHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{id}")
		defer span.End()

		if err := svc.DeleteClient(ctx, ActorFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Empreendimentos
// ============================================================

func listDevelopmentsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/developments")
		defer span.End()

		devs, err := svc.ListDevelopments(ctx, ActorFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, devs)
	}
}

func createDevelopmentHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/developments")
		defer span.End()

		var in domain.DevelopmentInput
		if !decodeBody(w, r, &in) {
			return
		}
		d, err := svc.CreateDevelopment(ctx, ActorFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	}
}

func updateDevelopmentHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/developments/{id}")
		defer span.End()

		var in domain.DevelopmentInput
		if !decodeBody(w, r, &in) {
			return
		}
		d, err := svc.UpdateDevelopment(ctx, ActorFromContext(ctx), chi.URLParam(r, "id"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func deleteDevelopmentHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/developments/{id}")
		defer span.End()

		if err := svc.DeleteDevelopment(ctx, ActorFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Vendas
// ============================================================

func listSalesHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/sales")
		defer span.End()

		sales, err := svc.ListSales(ctx, ActorFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sales)
	}
}

func createSaleHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sales")
		defer span.End()

		var in domain.SaleInput
		if !decodeBody(w, r, &in) {
			return
		}
		sale, err := svc.CreateSale(ctx, ActorFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, sale)
	}
}

func updateSaleHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/sales/{id}")
		defer span.End()

		var in domain.SaleInput
		if !decodeBody(w, r, &in) {
			return
		}
		sale, err := svc.UpdateSale(ctx, ActorFromContext(ctx), chi.URLParam(r, "id"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sale)
	}
}

func deleteSaleHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/sales/{id}")
		defer span.End()

		if err := svc.DeleteSale(ctx, ActorFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updateInstallmentHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/sales/{id}/installments/{n}")
		defer span.End()

		n, ok := intParam(r, "n")
		if !ok {
			writeError(w, http.StatusBadRequest, "número da parcela inválido")
			return
		}
		var in domain.InstallmentUpdate
		if !decodeBody(w, r, &in) {
			return
		}
		inst, err := svc.UpdateInstallment(ctx, ActorFromContext(ctx), chi.URLParam(r, "id"), n, &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, inst)
	}
}

// ============================================================
// Usuários
// ============================================================

func listUsersHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users")
		defer span.End()

		users, err := svc.ListUsers(ctx, ActorFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func createUserHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users")
		defer span.End()

		var in domain.UserInput
		if !decodeBody(w, r, &in) {
			return
		}
		u, err := svc.CreateUser(ctx, ActorFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func updateUserHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/{id}")
		defer span.End()

		var in domain.UserInput
		if !decodeBody(w, r, &in) {
			return
		}
		u, err := svc.UpdateUser(ctx, ActorFromContext(ctx), chi.URLParam(r, "id"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func deleteUserHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/{id}")
		defer span.End()

		if err := svc.DeleteUser(ctx, ActorFromContext(ctx), chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toggleUserStatusHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/users/{id}/toggle-status")
		defer span.End()

		u, err := svc.ToggleUserStatus(ctx, ActorFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
