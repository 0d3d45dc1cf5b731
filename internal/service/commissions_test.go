package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/infra/cache"
	"github.com/boddenberg/comissoes-bfa/internal/infra/observability"
	"github.com/boddenberg/comissoes-bfa/internal/service"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func seededBackend() *fakeBackend {
	return &fakeBackend{
		sales: []domain.Sale{
			{ID: "s1", ClientID: "c1", DevelopmentID: "d1", BrokerID: "broker-1", BlockNumber: "A", LotNumber: "12",
				TotalValue: domain.NewAmount(100000), CommissionValue: domain.NewAmount(5000),
				Status: domain.StatusPaid, PurchaseDate: "2025-05-10"},
			{ID: "s2", ClientID: "c2", DevelopmentID: "d1", BrokerID: "broker-1", BlockNumber: "B", LotNumber: "3",
				TotalValue: domain.NewAmount(200000), CommissionValue: domain.NewAmount(10000),
				Status: domain.StatusWaitingContract, PurchaseDate: "2026-02-01"},
			{ID: "s3", ClientID: "c1", DevelopmentID: "d1", BrokerID: "broker-2", BlockNumber: "C", LotNumber: "1",
				TotalValue: domain.NewAmount(999), CommissionValue: domain.NewAmount(9),
				Status: domain.StatusPaid, PurchaseDate: "2026-03-01"},
		},
		clients: []domain.Client{
			{ID: "c1", Name: "Maria Lima"},
			{ID: "c2", Name: "João Alves"},
		},
		developments: []domain.Development{{ID: "d1", Name: "Jardim das Flores"}},
	}
}

func newCommissionService(b *fakeBackend) (*service.CommissionService, *observability.Metrics) {
	m := observability.NewMetrics()
	stores := service.NewEntityStores(b, b, b, cache.New[any](5*time.Minute), m, zap.NewNop())
	svc := service.NewCommissionService(stores, m, zap.NewNop()).WithClock(func() time.Time { return fixedNow })
	return svc, m
}

func TestMyCommissions_OwnedRecordsAndSummary(t *testing.T) {
	svc, _ := newCommissionService(seededBackend())

	report, err := svc.MyCommissions(context.Background(), broker, domain.CommissionFilter{})
	require.NoError(t, err)

	assert.True(t, report.Complete)
	assert.Equal(t, 2, report.TotalOwned)
	require.Len(t, report.Records, 2)
	assert.Equal(t, "Maria Lima", report.Records[0].ClientName)
	assert.Equal(t, "Jardim das Flores", report.Records[0].DevelopmentName)
	assert.Equal(t, 2, report.Summary.NumberOfSales)
	assert.True(t, report.Summary.TotalSales.Equal(domain.NewAmount(300000)))
	assert.True(t, report.Summary.TotalCommissions.Equal(domain.NewAmount(15000)))

	assert.Equal(t, "2026", report.DefaultYear)
	require.NotEmpty(t, report.YearOptions)
	assert.Equal(t, domain.YearOption{ID: "", Label: domain.AllYearsLabel}, report.YearOptions[0])
	assert.Equal(t, domain.AllStatusesLabel, report.StatusOptions[0].Label)
	assert.Len(t, report.StatusOptions, len(domain.SaleStatuses)+1)
	assert.Equal(t, []domain.Option{
		{ID: "", Label: domain.AllDevelopmentsLabel},
		{ID: "d1", Label: "Jardim das Flores"},
	}, report.DevelopmentOptions)
}

func TestMyCommissions_FilterByYear(t *testing.T) {
	svc, _ := newCommissionService(seededBackend())

	report, err := svc.MyCommissions(context.Background(), broker, domain.CommissionFilter{Year: "2026"})
	require.NoError(t, err)

	require.Len(t, report.Records, 1)
	assert.Equal(t, "s2", report.Records[0].ID)
	assert.Equal(t, 2, report.TotalOwned)
	assert.Equal(t, "2026", report.Filter.Year)
}

func TestMyCommissions_DegradedSource(t *testing.T) {
	b := seededBackend()
	b.clientsErr = &domain.ErrExternalService{Service: "gateway", Err: errors.New("boom")}
	svc, m := newCommissionService(b)

	report, err := svc.MyCommissions(context.Background(), broker, domain.CommissionFilter{})
	require.NoError(t, err)

	assert.False(t, report.Complete)
	assert.False(t, report.Sources[service.ResourceClients].Loaded)
	assert.NotEmpty(t, report.Sources[service.ResourceClients].Error)
	assert.True(t, report.Sources[service.ResourceSales].Loaded)
	assert.Empty(t, report.Records)
	assert.NotNil(t, report.Records)
	assert.Equal(t, 0, report.Summary.NumberOfSales)
	assert.EqualValues(t, 1, m.GetGatewaySnapshot().DegradedReports)
}

func TestMyCommissions_DanglingClientReference(t *testing.T) {
	b := seededBackend()
	b.clients = []domain.Client{{ID: "c2", Name: "João Alves"}}
	svc, _ := newCommissionService(b)

	report, err := svc.MyCommissions(context.Background(), broker, domain.CommissionFilter{})
	require.NoError(t, err)

	require.Len(t, report.Records, 2)
	assert.Equal(t, domain.ClientNotFound, report.Records[0].ClientName)
	assert.Equal(t, "João Alves", report.Records[1].ClientName)
}

func TestMyCommissions_ExpiredUpstreamSession(t *testing.T) {
	b := seededBackend()
	b.salesErr = &domain.ErrUnauthorized{Message: "Sessão expirada"}
	svc, _ := newCommissionService(b)

	_, err := svc.MyCommissions(context.Background(), broker, domain.CommissionFilter{})

	var unauth *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, "Sessão expirada", unauth.Message)
}

func TestMyCommissions_RoleChecks(t *testing.T) {
	svc, _ := newCommissionService(seededBackend())

	_, err := svc.MyCommissions(context.Background(), admin, domain.CommissionFilter{})
	var forbidden *domain.ErrForbidden
	assert.ErrorAs(t, err, &forbidden)

	_, err = svc.MyCommissions(context.Background(), nil, domain.CommissionFilter{})
	var unauth *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauth)

	leader := &domain.User{ID: "broker-2", Role: domain.RoleTeamLeader, CreatedAt: "2025-01-01T12:00:00Z"}
	report, err := svc.MyCommissions(context.Background(), leader, domain.CommissionFilter{})
	require.NoError(t, err)
	assert.Len(t, report.Records, 1)
}

func TestMyCommissions_UsesCachedSnapshots(t *testing.T) {
	b := seededBackend()
	svc, m := newCommissionService(b)

	_, err := svc.MyCommissions(context.Background(), broker, domain.CommissionFilter{})
	require.NoError(t, err)
	_, err = svc.MyCommissions(context.Background(), broker, domain.CommissionFilter{Status: "paid"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, b.salesCalls.Load())
	snap := m.GetGatewaySnapshot()
	assert.EqualValues(t, 3, snap.CacheHits)
	assert.EqualValues(t, 3, snap.CacheMisses)
}

func TestMyCommissions_FailuresAreNotCached(t *testing.T) {
	b := seededBackend()
	b.salesErr = errors.New("temporary")
	svc, _ := newCommissionService(b)

	report, err := svc.MyCommissions(context.Background(), broker, domain.CommissionFilter{})
	require.NoError(t, err)
	assert.Empty(t, report.Records)

	b.salesErr = nil
	report, err = svc.MyCommissions(context.Background(), broker, domain.CommissionFilter{})
	require.NoError(t, err)
	assert.Len(t, report.Records, 2)
	assert.EqualValues(t, 2, b.salesCalls.Load())
}

func TestSummary(t *testing.T) {
	svc, _ := newCommissionService(seededBackend())

	sum, err := svc.Summary(context.Background(), broker, domain.CommissionFilter{Status: string(domain.StatusPaid)})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.NumberOfSales)
	assert.True(t, sum.TotalCommissions.Equal(domain.NewAmount(5000)))
}
