package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/format"
	"github.com/boddenberg/comissoes-bfa/internal/infra/observability"
	"github.com/boddenberg/comissoes-bfa/internal/port"
)

var catalogTracer = otel.Tracer("service/catalog")

// CatalogService manages clients, developments, sales and accounts.
// Writes go straight to the backend and then drop the cached snapshots
// of the touched collection.
type CatalogService struct {
	clients      port.ClientStore
	developments port.DevelopmentStore
	sales        port.SaleStore
	users        port.UserStore
	stores       *EntityStores
	events       port.EventPublisher
	sessions     port.SessionStore
	metrics      *observability.Metrics
	logger       *zap.Logger
}

func NewCatalogService(
	backend port.DataBackend,
	stores *EntityStores,
	events port.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		clients:      backend,
		developments: backend,
		sales:        backend,
		users:        backend,
		stores:       stores,
		events:       events,
		metrics:      metrics,
		logger:       logger,
	}
}

// WithSessions lets user writes revoke the live sessions of the account
// they change.
func (s *CatalogService) WithSessions(sessions port.SessionStore) *CatalogService {
	s.sessions = sessions
	return s
}

func requireCatalogRole(actor *domain.User, action string) error {
	if actor == nil {
		return &domain.ErrUnauthorized{Message: "Usuário não autenticado"}
	}
	if !actor.Role.CanManageCatalog() {
		return &domain.ErrForbidden{Action: action}
	}
	return nil
}

func requireAdmin(actor *domain.User, action string) error {
	if actor == nil {
		return &domain.ErrUnauthorized{Message: "Usuário não autenticado"}
	}
	if actor.Role != domain.RoleAdmin {
		return &domain.ErrForbidden{Action: action}
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ErrValidation{Field: field, Message: "campo obrigatório"}
	}
	return nil
}

// publish emits evt. Delivery failures are logged and counted but never
// fail the write that produced them.
func (s *CatalogService) publish(ctx context.Context, actor *domain.User, typ, entityID string, payload any) {
	evt := domain.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		EntityID:   entityID,
		ActorID:    actor.ID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Payload:    payload,
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.metrics.IncrEvent("error")
		s.logger.Warn("event publish failed",
			zap.String("type", typ),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return
	}
	s.metrics.IncrEvent("ok")
}

// ============================================================
// Clients
// ============================================================

func (s *CatalogService) ListClients(ctx context.Context, actor *domain.User) ([]domain.Client, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListClients")
	defer span.End()

	if err := requireCatalogRole(actor, "list clients"); err != nil {
		return nil, err
	}
	return s.clients.ListClients(ctx)
}

func normalizeClient(in *domain.ClientInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.CPF = format.UnmaskDigits(in.CPF)
	in.Phone = format.UnmaskDigits(in.Phone)
	if err := required("name", in.Name); err != nil {
		return err
	}
	if in.CPF != "" && len(in.CPF) != 11 {
		return &domain.ErrValidation{Field: "cpf", Message: "CPF deve ter 11 dígitos"}
	}
	return nil
}

func (s *CatalogService) CreateClient(ctx context.Context, actor *domain.User, in *domain.ClientInput) (*domain.Client, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CreateClient")
	defer span.End()

	if err := requireCatalogRole(actor, "create clients"); err != nil {
		return nil, err
	}
	if err := normalizeClient(in); err != nil {
		return nil, err
	}

	c, err := s.clients.CreateClient(ctx, in)
	if err != nil {
		s.logger.Error("failed to create client", zap.Error(err))
		return nil, err
	}
	s.stores.Invalidate(ResourceClients)
	s.logger.Info("client created", zap.String("client_id", c.ID), zap.String("actor_id", actor.ID))
	return c, nil
}

func (s *CatalogService) UpdateClient(ctx context.Context, actor *domain.User, id string, in *domain.ClientInput) (*domain.Client, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.UpdateClient")
	defer span.End()

	if err := requireCatalogRole(actor, "update clients"); err != nil {
		return nil, err
	}
	if err := normalizeClient(in); err != nil {
		return nil, err
	}

	c, err := s.clients.UpdateClient(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.stores.Invalidate(ResourceClients)
	return c, nil
}

func (s *CatalogService) DeleteClient(ctx context.Context, actor *domain.User, id string) error {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.DeleteClient")
	defer span.End()

	if err := requireCatalogRole(actor, "delete clients"); err != nil {
		return err
	}
	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.stores.Invalidate(ResourceClients)
	s.logger.Info("client deleted", zap.String("client_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// ============================================================
// Developments
// ============================================================

func (s *CatalogService) ListDevelopments(ctx context.Context, actor *domain.User) ([]domain.Development, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListDevelopments")
	defer span.End()

	if actor == nil {
		return nil, &domain.ErrUnauthorized{Message: "Usuário não autenticado"}
	}
	// Brokers read developments for the filter selector.
	return s.developments.ListDevelopments(ctx)
}

func (s *CatalogService) CreateDevelopment(ctx context.Context, actor *domain.User, in *domain.DevelopmentInput) (*domain.Development, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CreateDevelopment")
	defer span.End()

	if err := requireCatalogRole(actor, "create developments"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := required("name", in.Name); err != nil {
		return nil, err
	}

	d, err := s.developments.CreateDevelopment(ctx, in)
	if err != nil {
		s.logger.Error("failed to create development", zap.Error(err))
		return nil, err
	}
	s.stores.Invalidate(ResourceDevelopments)
	return d, nil
}

func (s *CatalogService) UpdateDevelopment(ctx context.Context, actor *domain.User, id string, in *domain.DevelopmentInput) (*domain.Development, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.UpdateDevelopment")
	defer span.End()

	if err := requireCatalogRole(actor, "update developments"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := required("name", in.Name); err != nil {
		return nil, err
	}

	d, err := s.developments.UpdateDevelopment(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.stores.Invalidate(ResourceDevelopments)
	return d, nil
}

func (s *CatalogService) DeleteDevelopment(ctx context.Context, actor *domain.User, id string) error {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.DeleteDevelopment")
	defer span.End()

	if err := requireCatalogRole(actor, "delete developments"); err != nil {
		return err
	}
	if err := s.developments.DeleteDevelopment(ctx, id); err != nil {
		return err
	}
	s.stores.Invalidate(ResourceDevelopments)
	return nil
}
