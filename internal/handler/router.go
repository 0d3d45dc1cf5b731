package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/infra/observability"
	"github.com/boddenberg/comissoes-bfa/internal/service"
)

var tracer = otel.Tracer("handler")

// HealthChecker is a dependency reported by /healthz and /readyz.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// Services groups what the API serves. A nil Auth disables /v1 except
// the metrics snapshot.
type Services struct {
	Auth        *service.AuthService
	Commissions *service.CommissionService
	Catalog     *service.CatalogService
}

type Options struct {
	CORSOrigins []string
	Checkers    []HealthChecker
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(corsMiddleware(opts.CORSOrigins))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(opts.Checkers))
	r.Get("/readyz", readyzHandler(opts.Checkers, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/gateway", gatewayMetricsHandler(metrics))

		if svcs.Auth == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			}))
			return
		}

		// =============================================
		// Autenticação
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authLoginHandler(svcs.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(svcs.Auth, logger))
				r.Post("/logout", authLogoutHandler(svcs.Auth, logger))
				r.Get("/me", authMeHandler())
				r.Post("/change-password", authChangePasswordHandler(svcs.Auth, logger))
				r.Post("/admin/reset-password", authAdminResetPasswordHandler(svcs.Auth, logger))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			// =============================================
			// Comissões
			// =============================================
			r.Route("/commissions", func(r chi.Router) {
				r.Get("/", commissionsHandler(svcs.Commissions, logger))
				r.Get("/summary", commissionsSummaryHandler(svcs.Commissions, logger))
			})

			// =============================================
			// Cadastros
			// =============================================
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", listClientsHandler(svcs.Catalog, logger))
				r.Post("/", createClientHandler(svcs.Catalog, logger))
				r.Put("/{id}", updateClientHandler(svcs.Catalog, logger))
				r.Delete("/{id}", deleteClientHandler(svcs.Catalog, logger))
			})
			r.Route("/developments", func(r chi.Router) {
				r.Get("/", listDevelopmentsHandler(svcs.Catalog, logger))
				r.Post("/", createDevelopmentHandler(svcs.Catalog, logger))
				r.Put("/{id}", updateDevelopmentHandler(svcs.Catalog, logger))
				r.Delete("/{id}", deleteDevelopmentHandler(svcs.Catalog, logger))
			})
			r.Route("/sales", func(r chi.Router) {
				r.Get("/", listSalesHandler(svcs.Catalog, logger))
				r.Post("/", createSaleHandler(svcs.Catalog, logger))
				r.Put("/{id}", updateSaleHandler(svcs.Catalog, logger))
				r.Delete("/{id}", deleteSaleHandler(svcs.Catalog, logger))
				r.Patch("/{id}/installments/{n}", updateInstallmentHandler(svcs.Catalog, logger))
			})
			r.Route("/users", func(r chi.Router) {
				r.Get("/", listUsersHandler(svcs.Catalog, logger))
				r.Post("/", createUserHandler(svcs.Catalog, logger))
				r.Put("/{id}", updateUserHandler(svcs.Catalog, logger))
				r.Delete("/{id}", deleteUserHandler(svcs.Catalog, logger))
				r.Patch("/{id}/toggle-status", toggleUserStatusHandler(svcs.Catalog, logger))
			})
		})
	})

	return r
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: origins[0] != "*",
		MaxAge:           300,
	}).Handler
}

// ============================================================
// Operational
// ============================================================

func probe(ctx context.Context, checkers []HealthChecker) []domain.ServiceHealth {
	now := time.Now().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: "bfa-api", Status: "healthy", LastChecked: now},
	}
	for _, c := range checkers {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		start := time.Now()
		err := c.Check(cctx)
		cancel()
		status := "healthy"
		if err != nil {
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name:        c.Name(),
			Status:      status,
			LatencyMs:   time.Since(start).Milliseconds(),
			LastChecked: now,
		})
	}
	return services
}

func healthzHandler(checkers []HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := probe(r.Context(), checkers)

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = "degraded"
				break
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(checkers []HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, s := range probe(r.Context(), checkers) {
			if s.Status != "healthy" {
				logger.Warn("readiness check failed", zap.String("service", s.Name))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "service": s.Name})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func gatewayMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetGatewaySnapshot())
	}
}
