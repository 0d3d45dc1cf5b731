package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/commission"
	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/infra/observability"
)

var tracer = otel.Tracer("service/commissions")

// CommissionService serves the commission view of the logged-in broker.
type CommissionService struct {
	stores  *EntityStores
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewCommissionService(stores *EntityStores, metrics *observability.Metrics, logger *zap.Logger) *CommissionService {
	return &CommissionService{
		stores:  stores,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the time source.
func (s *CommissionService) WithClock(now func() time.Time) *CommissionService {
	s.now = now
	return s
}

// MyCommissions builds the commission report of actor. Collections that
// fail to load are treated as empty and flagged in Sources, except for an
// expired upstream session, which is returned as ErrUnauthorized.
func (s *CommissionService) MyCommissions(ctx context.Context, actor *domain.User, f domain.CommissionFilter) (*domain.CommissionReport, error) {
	ctx, span := tracer.Start(ctx, "CommissionService.MyCommissions")
	defer span.End()

	if actor == nil || actor.ID == "" {
		return nil, &domain.ErrUnauthorized{Message: "Usuário não autenticado"}
	}
	if !actor.Role.CanViewCommissions() {
		return nil, &domain.ErrForbidden{Action: "view commissions"}
	}
	span.SetAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("commissions", time.Since(start))
	}()

	snaps := s.stores.Load(ctx, actor.ID)
	for _, err := range []error{snaps.Sales.Err, snaps.Clients.Err, snaps.Developments.Err} {
		var unauth *domain.ErrUnauthorized
		if errors.As(err, &unauth) {
			return nil, unauth
		}
	}

	now := s.now()
	built := commission.Build(commission.Inputs{
		Sales:        snaps.Sales.Usable(),
		Clients:      snaps.Clients.Usable(),
		Developments: snaps.Developments.Usable(),
		Actor:        actor,
	}, f, now)

	sources := map[string]domain.SourceStatus{
		ResourceSales:        snaps.Sales.Status(),
		ResourceClients:      snaps.Clients.Status(),
		ResourceDevelopments: snaps.Developments.Status(),
	}
	complete := true
	for name, st := range sources {
		if !st.Loaded {
			complete = false
			s.metrics.IncrDegradedReport(name)
		}
	}
	if !complete {
		s.logger.Warn("commission report degraded",
			zap.String("actor_id", actor.ID),
			zap.Any("sources", sources),
		)
	}

	s.metrics.AddCommissionRecords(len(built.Records))
	span.SetAttributes(attribute.Int("records", len(built.Records)))

	return &domain.CommissionReport{
		Records:            built.Records,
		Summary:            built.Summary,
		TotalOwned:         built.TotalOwned,
		Filter:             f,
		DefaultYear:        strconv.Itoa(now.Year()),
		YearOptions:        append([]domain.YearOption{{ID: "", Label: domain.AllYearsLabel}}, built.YearOptions...),
		StatusOptions:      statusOptions(),
		DevelopmentOptions: developmentOptions(snaps.Developments.Usable()),
		Sources:            sources,
		Complete:           complete,
		GeneratedAt:        now.UTC().Format(time.RFC3339),
	}, nil
}

// Summary returns only the totals of the filtered view.
func (s *CommissionService) Summary(ctx context.Context, actor *domain.User, f domain.CommissionFilter) (*domain.CommissionSummary, error) {
	report, err := s.MyCommissions(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	return &report.Summary, nil
}

func statusOptions() []domain.Option {
	opts := make([]domain.Option, 0, len(domain.SaleStatuses)+1)
	opts = append(opts, domain.Option{ID: "", Label: domain.AllStatusesLabel})
	for _, st := range domain.SaleStatuses {
		opts = append(opts, domain.Option{ID: string(st), Label: st.Label()})
	}
	return opts
}

func developmentOptions(devs []domain.Development) []domain.Option {
	opts := make([]domain.Option, 0, len(devs)+1)
	opts = append(opts, domain.Option{ID: "", Label: domain.AllDevelopmentsLabel})
	for _, d := range devs {
		opts = append(opts, domain.Option{ID: d.ID, Label: d.Name})
	}
	return opts
}
