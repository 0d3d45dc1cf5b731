// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations (the remote gateway, postgres,
// redis, rabbitmq).
package port

import (
	"context"
	"time"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string)
}

// ============================================================
// Entity stores
// ============================================================

type ClientStore interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	CreateClient(ctx context.Context, in *domain.ClientInput) (*domain.Client, error)
	UpdateClient(ctx context.Context, id string, in *domain.ClientInput) (*domain.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

type DevelopmentStore interface {
	ListDevelopments(ctx context.Context) ([]domain.Development, error)
	CreateDevelopment(ctx context.Context, in *domain.DevelopmentInput) (*domain.Development, error)
	UpdateDevelopment(ctx context.Context, id string, in *domain.DevelopmentInput) (*domain.Development, error)
	DeleteDevelopment(ctx context.Context, id string) error
}

type SaleStore interface {
	ListSales(ctx context.Context) ([]domain.Sale, error)
	CreateSale(ctx context.Context, in *domain.SaleInput) (*domain.Sale, error)
	UpdateSale(ctx context.Context, id string, in *domain.SaleInput) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	UpdateInstallment(ctx context.Context, saleID string, number int, in *domain.InstallmentUpdate) (*domain.Installment, error)
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, in *domain.UserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in *domain.UserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	ToggleUserStatus(ctx context.Context, id string) (*domain.User, error)
}

// DataBackend bundles every store a backend must provide.
type DataBackend interface {
	ClientStore
	DevelopmentStore
	SaleStore
	UserStore
	AuthGateway
}

// ============================================================
// Auth
// ============================================================

// AuthGateway authenticates against the data backend. ChangePassword acts
// on behalf of userID using the upstream token carried in ctx.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*domain.UpstreamLogin, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	AdminResetPassword(ctx context.Context, userID, newPassword string) error
}

// SessionStore keeps BFA sessions keyed by the access token's jti.
// Get returns (nil, nil) when the session does not exist or expired.
// DeleteByUser revokes every session issued to userID.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// ============================================================
// Events
// ============================================================

// EventPublisher emits domain events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.Event) error
}
