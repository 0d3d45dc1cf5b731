package commission

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// ============================================================
// Fixtures
// ============================================================

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func sale(id, broker, client, dev string, total, commission string, status domain.SaleStatus, date string) domain.Sale {
	return domain.Sale{
		ID:              id,
		BrokerID:        broker,
		ClientID:        client,
		DevelopmentID:   dev,
		BlockNumber:     "Q" + id,
		LotNumber:       "L" + id,
		TotalValue:      domain.ParseAmount(total),
		CommissionValue: domain.ParseAmount(commission),
		Status:          status,
		PurchaseDate:    date,
	}
}

func fixtures() ([]domain.Sale, []domain.Client, []domain.Development) {
	sales := []domain.Sale{
		sale("s1", "u1", "c1", "d1", "100000", "5000", domain.StatusPaid, "2024-03-10"),
		sale("s2", "u2", "c1", "d1", "90000", "4500", domain.StatusPaid, "2024-04-10"),
		sale("s3", "u1", "c2", "d2", "250000.50", "12500.25", domain.StatusWaitingInvoice, "2023-12-31T22:00:00Z"),
		sale("s4", "u1", "c404", "d404", "abc", "", domain.StatusCanceled, "2023-05-01T10:00:00Z"),
	}
	clients := []domain.Client{{ID: "c1", Name: "Ana"}, {ID: "c2", Name: "Bruno Lima"}}
	devs := []domain.Development{{ID: "d1", Name: "Jardins"}, {ID: "d2", Name: "Parque das Águas"}}
	return sales, clients, devs
}

// ============================================================
// Join
// ============================================================

func TestJoin_OnlyActorSalesInOrder(t *testing.T) {
	sales, clients, devs := fixtures()

	got := Join(sales, clients, devs, &domain.User{ID: "u1"})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"s1", "s3", "s4"}, ids(got))
	assert.Equal(t, "Ana", got[0].ClientName)
	assert.Equal(t, "Jardins", got[0].DevelopmentName)
	assert.Equal(t, "Parque das Águas", got[1].DevelopmentName)
}

func TestJoin_DanglingReferencesUsePlaceholders(t *testing.T) {
	sales, clients, devs := fixtures()

	got := Join(sales, clients, devs, &domain.User{ID: "u1"})

	last := got[2]
	assert.Equal(t, domain.ClientNotFound, last.ClientName)
	assert.Equal(t, domain.DevelopmentNotFound, last.DevelopmentName)
	assert.Equal(t, "d404", last.DevelopmentID)
	assert.True(t, last.TotalValue.IsZero())
	assert.True(t, last.CommissionValue.IsZero())
}

func TestJoin_EmptyNameUsesPlaceholder(t *testing.T) {
	sales := []domain.Sale{sale("s1", "u1", "c1", "d1", "1", "1", domain.StatusPaid, "2024-01-01")}
	got := Join(sales, []domain.Client{{ID: "c1"}}, []domain.Development{{ID: "d1", Name: "X"}}, &domain.User{ID: "u1"})

	require.Len(t, got, 1)
	assert.Equal(t, domain.ClientNotFound, got[0].ClientName)
}

func TestJoin_FirstDuplicateWins(t *testing.T) {
	sales := []domain.Sale{sale("s1", "u1", "c1", "d1", "1", "1", domain.StatusPaid, "2024-01-01")}
	clients := []domain.Client{{ID: "c1", Name: "First"}, {ID: "c1", Name: "Second"}}
	devs := []domain.Development{{ID: "d1", Name: "Alpha"}, {ID: "d1", Name: "Beta"}}

	got := Join(sales, clients, devs, &domain.User{ID: "u1"})

	assert.Equal(t, "First", got[0].ClientName)
	assert.Equal(t, "Alpha", got[0].DevelopmentName)
}

func TestJoin_EarlyExit(t *testing.T) {
	sales, clients, devs := fixtures()
	actor := &domain.User{ID: "u1"}

	tests := []struct {
		name  string
		sales []domain.Sale
		cl    []domain.Client
		dv    []domain.Development
		actor *domain.User
	}{
		{"no sales", nil, clients, devs, actor},
		{"no clients", sales, nil, devs, actor},
		{"no developments", sales, clients, []domain.Development{}, actor},
		{"no actor", sales, clients, devs, nil},
		{"anonymous actor", sales, clients, devs, &domain.User{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Join(tt.sales, tt.cl, tt.dv, tt.actor)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestJoin_LengthEqualsOwnedSales(t *testing.T) {
	sales, clients, devs := fixtures()
	for _, broker := range []string{"u1", "u2", "u3"} {
		owned := 0
		for _, s := range sales {
			if s.BrokerID == broker {
				owned++
			}
		}
		assert.Len(t, Join(sales, clients, devs, &domain.User{ID: broker}), owned, broker)
	}
}

func TestJoin_DoesNotMutateInputs(t *testing.T) {
	sales, clients, devs := fixtures()
	before := fmt.Sprintf("%v %v %v", sales, clients, devs)

	Join(sales, clients, devs, &domain.User{ID: "u1"})

	assert.Equal(t, before, fmt.Sprintf("%v %v %v", sales, clients, devs))
}

// ============================================================
// Filter
// ============================================================

func TestFilter(t *testing.T) {
	sales, clients, devs := fixtures()
	records := Join(sales, clients, devs, &domain.User{ID: "u1"})

	tests := []struct {
		name   string
		filter domain.CommissionFilter
		want   []string
	}{
		{"no criteria", domain.CommissionFilter{}, []string{"s1", "s3", "s4"}},
		{"search client case-insensitive", domain.CommissionFilter{Search: "BRUNO"}, []string{"s3"}},
		{"search block", domain.CommissionFilter{Search: "qs1"}, []string{"s1"}},
		{"search lot", domain.CommissionFilter{Search: "ls4"}, []string{"s4"}},
		{"search placeholder name", domain.CommissionFilter{Search: "não encontrado"}, []string{"s4"}},
		{"search not trimmed", domain.CommissionFilter{Search: " ana"}, []string{}},
		{"development", domain.CommissionFilter{DevelopmentID: "d2"}, []string{"s3"}},
		{"status", domain.CommissionFilter{Status: "paid"}, []string{"s1"}},
		{"year with offset rollover", domain.CommissionFilter{Year: "2024"}, []string{"s1", "s3"}},
		{"year 2023", domain.CommissionFilter{Year: "2023"}, []string{"s4"}},
		{"conjunction", domain.CommissionFilter{Year: "2024", Status: "waiting_invoice"}, []string{"s3"}},
		{"nothing matches", domain.CommissionFilter{DevelopmentID: "d9"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(records, tt.filter)))
		})
	}
}

func TestFilter_IdempotentAndOrderPreserving(t *testing.T) {
	sales, clients, devs := fixtures()
	records := Join(sales, clients, devs, &domain.User{ID: "u1"})
	f := domain.CommissionFilter{Search: "s"}

	once := Filter(records, f)
	twice := Filter(once, f)

	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"s1", "s3", "s4"}, ids(once))
}

func TestMatches(t *testing.T) {
	r := domain.CommissionRecord{ClientName: "Ana", PurchaseDate: "2024-03-10"}
	assert.True(t, Matches(r, domain.CommissionFilter{Search: "an", Year: "2024"}))
	assert.False(t, Matches(r, domain.CommissionFilter{Year: "2023"}))
	assert.False(t, Matches(domain.CommissionRecord{}, domain.CommissionFilter{Year: "2024"}))
}

// ============================================================
// Summary
// ============================================================

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.TotalSales.IsZero())
	assert.True(t, s.TotalCommissions.IsZero())
	assert.Equal(t, 0, s.NumberOfSales)
}

func TestSummarize_Additive(t *testing.T) {
	sales, clients, devs := fixtures()
	records := Join(sales, clients, devs, &domain.User{ID: "u1"})
	a, b := records[:1], records[1:]

	whole := Summarize(append(append([]domain.CommissionRecord{}, a...), b...))
	parts := Summarize(a).Add(Summarize(b))

	assert.True(t, whole.TotalSales.Equal(parts.TotalSales))
	assert.True(t, whole.TotalCommissions.Equal(parts.TotalCommissions))
	assert.Equal(t, whole.NumberOfSales, parts.NumberOfSales)
	assert.Equal(t, "350000.5", whole.TotalSales.String())
	assert.Equal(t, "17500.25", whole.TotalCommissions.String())
}

// ============================================================
// Year options
// ============================================================

func TestYearOptions(t *testing.T) {
	assert.Equal(t, []domain.YearOption{{ID: "2026", Label: "2026"}}, YearOptions(2026, now))

	four := YearOptions(2023, now)
	require.Len(t, four, 4)
	assert.Equal(t, "2023", four[0].ID)
	assert.Equal(t, "2026", four[3].ID)

	assert.Equal(t, []domain.YearOption{{ID: "2026", Label: "2026"}}, YearOptions(2030, now))
	assert.Len(t, YearOptions(0, now), 1)
}

func TestCreationYear(t *testing.T) {
	assert.Equal(t, 2022, CreationYear(&domain.User{CreatedAt: "2022-12-31T20:00:00Z"}, now.AddDate(-3, 0, 0)))
	assert.Equal(t, 2021, CreationYear(&domain.User{CreatedAt: "2021-05-05"}, now))
	assert.Equal(t, 2026, CreationYear(&domain.User{CreatedAt: "garbage"}, now))
	assert.Equal(t, 2026, CreationYear(nil, now))
}

// ============================================================
// Pipeline
// ============================================================

func TestBuild_EndToEnd(t *testing.T) {
	in := Inputs{
		Sales:        []domain.Sale{sale("s1", "u1", "c1", "d1", "100000", "5000", domain.StatusPaid, "2024-03-10")},
		Clients:      []domain.Client{{ID: "c1", Name: "Ana"}},
		Developments: []domain.Development{{ID: "d1", Name: "Jardins"}},
		Actor:        &domain.User{ID: "u1", CreatedAt: "2024-01-05"},
	}

	kept := Build(in, domain.CommissionFilter{Year: "2024"}, now)
	require.Len(t, kept.Records, 1)
	assert.Equal(t, "Ana", kept.Records[0].ClientName)
	assert.Equal(t, "Jardins", kept.Records[0].DevelopmentName)
	assert.Equal(t, "100000", kept.Summary.TotalSales.String())
	assert.Equal(t, "5000", kept.Summary.TotalCommissions.String())
	assert.Equal(t, 1, kept.Summary.NumberOfSales)
	assert.Len(t, kept.YearOptions, 3)

	dropped := Build(in, domain.CommissionFilter{Year: "2023"}, now)
	assert.Empty(t, dropped.Records)
	assert.Equal(t, 1, dropped.TotalOwned)
	assert.Equal(t, 0, dropped.Summary.NumberOfSales)
}

func TestBuild_MissingDevelopmentStillSummed(t *testing.T) {
	in := Inputs{
		Sales:        []domain.Sale{sale("s1", "u1", "c1", "d404", "100000", "5000", domain.StatusPaid, "2024-03-10")},
		Clients:      []domain.Client{{ID: "c1", Name: "Ana"}},
		Developments: []domain.Development{{ID: "d1", Name: "Jardins"}},
		Actor:        &domain.User{ID: "u1"},
	}

	r := Build(in, domain.CommissionFilter{}, now)

	require.Len(t, r.Records, 1)
	assert.Equal(t, domain.DevelopmentNotFound, r.Records[0].DevelopmentName)
	assert.Equal(t, "100000", r.Summary.TotalSales.String())
}

func ids(records []domain.CommissionRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
