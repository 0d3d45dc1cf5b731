package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/handler"
	"github.com/boddenberg/comissoes-bfa/internal/infra/cache"
	"github.com/boddenberg/comissoes-bfa/internal/infra/events"
	"github.com/boddenberg/comissoes-bfa/internal/infra/gateway"
	"github.com/boddenberg/comissoes-bfa/internal/infra/observability"
	"github.com/boddenberg/comissoes-bfa/internal/infra/resilience"
	"github.com/boddenberg/comissoes-bfa/internal/infra/session"
	"github.com/boddenberg/comissoes-bfa/internal/service"
)

// upstream fakes the commission REST API the gateway talks to.
type upstream struct {
	expired atomic.Bool
	role    string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/auth/login" {
		var req domain.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		if req.Email == "admin@example.com" {
			_, _ = w.Write([]byte(`{"token":"up-tok","user":{"id":"admin-1","name":"Admin","email":"admin@example.com","role":"admin","active":true}}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"up-tok","user":{"id":"broker-1","name":"Ana Maria Souza","email":"ana@example.com","role":"` +
			u.role + `","active":true,"createdAt":"2025-02-01T12:00:00Z"}}`))
		return
	}

	if r.Header.Get("Authorization") != "Bearer up-tok" || u.expired.Load() {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"jwt expired"}`))
		return
	}

	switch r.URL.Path {
	case "/sales":
		_, _ = w.Write([]byte(`[
			{"id":"s1","clientId":"c1","developmentId":"d1","brokerId":"broker-1","blockNumber":"A","lotNumber":"1",
			 "totalValue":"120000.50","commissionValue":6000,"status":"paid","purchaseDate":"2025-06-01"},
			{"id":"s2","clientId":"c2","developmentId":"d1","brokerId":"broker-1","blockNumber":"B","lotNumber":"2",
			 "totalValue":80000,"commissionValue":"4000","status":"waiting_invoice","purchaseDate":"2026-01-20T02:00:00Z"},
			{"id":"s3","clientId":"c1","developmentId":"d1","brokerId":"broker-9","blockNumber":"C","lotNumber":"3",
			 "totalValue":1,"commissionValue":1,"status":"paid","purchaseDate":"2026-02-01"}
		]`))
	case "/clients":
		_, _ = w.Write([]byte(`[{"id":"c1","name":"Maria Lima"},{"id":"c2","name":"João Alves"}]`))
	case "/developments":
		_, _ = w.Write([]byte(`[{"id":"d1","name":"Jardim das Flores"}]`))
	case "/users/broker-1/toggle-status":
		_, _ = w.Write([]byte(`{"id":"broker-1","name":"Ana Maria Souza","role":"broker","active":false}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newAPI(t *testing.T, up *upstream) http.Handler {
	t.Helper()
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	gw := gateway.NewClient(srv.Client(), srv.URL, resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}, metrics, logger)

	sessions := session.NewMemory(time.Hour)
	snapshotCache := cache.New[any](time.Minute)
	t.Cleanup(snapshotCache.Close)

	stores := service.NewEntityStores(gw, gw, gw, snapshotCache, metrics, logger)
	return handler.NewRouter(handler.Services{
		Auth:        service.NewAuthService(gw, sessions, "test-secret", time.Hour, logger),
		Commissions: service.NewCommissionService(stores, metrics, logger),
		Catalog:     service.NewCatalogService(gw, stores, events.Nop{}, metrics, logger).WithSessions(sessions),
	}, handler.Options{}, metrics, logger)
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	return loginAs(t, h, "ana@example.com")
}

func loginAs(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/auth/login", "", domain.LoginRequest{Email: email, Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAPI_LoginAndCommissions(t *testing.T) {
	api := newAPI(t, &upstream{role: "broker"})
	token := login(t, api)

	rec := do(t, api, http.MethodGet, "/v1/commissions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Records []domain.CommissionRecord `json:"records"`
		Summary struct {
			TotalSales       float64 `json:"totalSales"`
			TotalCommissions float64 `json:"totalCommissions"`
			NumberOfSales    int     `json:"numberOfSales"`
		} `json:"summary"`
		TotalOwned  int                 `json:"totalOwned"`
		YearOptions []domain.YearOption `json:"yearOptions"`
		Complete    bool                `json:"complete"`
		Display     struct {
			Summary struct {
				TotalSales string `json:"totalSales"`
			} `json:"summary"`
		} `json:"display"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.True(t, body.Complete)
	assert.Equal(t, 2, body.TotalOwned)
	require.Len(t, body.Records, 2)
	assert.Equal(t, "Maria Lima", body.Records[0].ClientName)
	assert.Equal(t, 2, body.Summary.NumberOfSales)
	assert.InDelta(t, 200000.50, body.Summary.TotalSales, 0.001)
	assert.InDelta(t, 10000, body.Summary.TotalCommissions, 0.001)
	assert.Equal(t, "R$ 200.000,50", body.Display.Summary.TotalSales)
	require.NotEmpty(t, body.YearOptions)
	assert.Equal(t, domain.AllYearsLabel, body.YearOptions[0].Label)
	assert.Equal(t, "2025", body.YearOptions[1].ID)
}

func TestAPI_CommissionFiltersFromQuery(t *testing.T) {
	api := newAPI(t, &upstream{role: "broker"})
	token := login(t, api)

	rec := do(t, api, http.MethodGet, "/v1/commissions/summary?year=2026&search=jo%C3%A3o", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sum struct {
		NumberOfSales    int     `json:"numberOfSales"`
		TotalCommissions float64 `json:"totalCommissions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sum))
	assert.Equal(t, 1, sum.NumberOfSales)
	assert.InDelta(t, 4000, sum.TotalCommissions, 0.001)
}

func TestAPI_UpstreamSessionExpiry(t *testing.T) {
	up := &upstream{role: "broker"}
	api := newAPI(t, up)
	token := login(t, api)
	up.expired.Store(true)

	rec := do(t, api, http.MethodGet, "/v1/commissions", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sessão expirada")
}

func TestAPI_RoleGates(t *testing.T) {
	api := newAPI(t, &upstream{role: "admin"})
	token := login(t, api)

	assert.Equal(t, http.StatusForbidden, do(t, api, http.MethodGet, "/v1/commissions", token, nil).Code)

	broker := newAPI(t, &upstream{role: "broker"})
	brokerToken := login(t, broker)
	assert.Equal(t, http.StatusForbidden, do(t, broker, http.MethodGet, "/v1/users", brokerToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, broker, http.MethodPost, "/v1/sales", brokerToken, domain.SaleInput{}).Code)
}

func TestAPI_AuthFailures(t *testing.T) {
	api := newAPI(t, &upstream{role: "broker"})

	rec := do(t, api, http.MethodPost, "/v1/auth/login", "", domain.LoginRequest{Email: "ana@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email ou senha inválidos")

	assert.Equal(t, http.StatusUnauthorized, do(t, api, http.MethodGet, "/v1/commissions", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, api, http.MethodGet, "/v1/commissions", "garbage", nil).Code)
}

func TestAPI_MeAndLogout(t *testing.T) {
	api := newAPI(t, &upstream{role: "broker"})
	token := login(t, api)

	rec := do(t, api, http.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, "Ana Maria", me["displayName"])
	assert.Equal(t, "01/02/2025", me["createdAtDisplay"])

	assert.Equal(t, http.StatusNoContent, do(t, api, http.MethodPost, "/v1/auth/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, api, http.MethodGet, "/v1/auth/me", token, nil).Code)
}

func TestAPI_DeactivatedUserLosesSession(t *testing.T) {
	api := newAPI(t, &upstream{role: "broker"})
	brokerToken := login(t, api)
	adminToken := loginAs(t, api, "admin@example.com")

	rec := do(t, api, http.MethodGet, "/v1/commissions", brokerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, api, http.MethodPatch, "/v1/users/broker-1/toggle-status", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, api, http.MethodGet, "/v1/commissions", brokerToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, api, http.MethodGet, "/v1/auth/me", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
