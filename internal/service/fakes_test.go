package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// --- Mocks ---

type fakeBackend struct {
	mu sync.Mutex

	sales        []domain.Sale
	clients      []domain.Client
	developments []domain.Development
	users        []domain.User

	salesErr        error
	clientsErr      error
	developmentsErr error
	writeErr        error

	salesCalls atomic.Int32
	// onListSales, when set, runs once inside the next ListSales call after
	// the rows were read.
	onListSales func()

	login     *domain.UpstreamLogin
	loginErr  error
	passErr   error
	lastReset string

	createdSale   *domain.SaleInput
	createdClient *domain.ClientInput
}

func (f *fakeBackend) ListSales(context.Context) ([]domain.Sale, error) {
	f.salesCalls.Add(1)
	f.mu.Lock()
	sales := append([]domain.Sale(nil), f.sales...)
	hook := f.onListSales
	f.onListSales = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return sales, f.salesErr
}

func (f *fakeBackend) addSale(s domain.Sale) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sales = append(f.sales, s)
}

func (f *fakeBackend) CreateSale(_ context.Context, in *domain.SaleInput) (*domain.Sale, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.mu.Lock()
	f.createdSale = in
	f.mu.Unlock()
	return &domain.Sale{
		ID:              "sale-new",
		ClientID:        in.ClientID,
		DevelopmentID:   in.DevelopmentID,
		BrokerID:        in.BrokerID,
		TotalValue:      in.TotalValue,
		CommissionValue: in.CommissionValue,
		Status:          in.Status,
		PurchaseDate:    in.PurchaseDate,
	}, nil
}

func (f *fakeBackend) UpdateSale(_ context.Context, id string, in *domain.SaleInput) (*domain.Sale, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return &domain.Sale{ID: id, BrokerID: in.BrokerID, Status: in.Status}, nil
}

func (f *fakeBackend) DeleteSale(context.Context, string) error { return f.writeErr }

func (f *fakeBackend) UpdateInstallment(_ context.Context, saleID string, n int, in *domain.InstallmentUpdate) (*domain.Installment, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return &domain.Installment{SaleID: saleID, InstallmentNumber: n, BillIssued: in.BillIssued, BillPaid: in.BillPaid}, nil
}

func (f *fakeBackend) ListClients(context.Context) ([]domain.Client, error) {
	return f.clients, f.clientsErr
}

func (f *fakeBackend) CreateClient(_ context.Context, in *domain.ClientInput) (*domain.Client, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.createdClient = in
	return &domain.Client{ID: "client-new", Name: in.Name, CPF: in.CPF, Phone: in.Phone}, nil
}

func (f *fakeBackend) UpdateClient(_ context.Context, id string, in *domain.ClientInput) (*domain.Client, error) {
	return &domain.Client{ID: id, Name: in.Name}, f.writeErr
}

func (f *fakeBackend) DeleteClient(context.Context, string) error { return f.writeErr }

func (f *fakeBackend) ListDevelopments(context.Context) ([]domain.Development, error) {
	return f.developments, f.developmentsErr
}

func (f *fakeBackend) CreateDevelopment(_ context.Context, in *domain.DevelopmentInput) (*domain.Development, error) {
	return &domain.Development{ID: "dev-new", Name: in.Name}, f.writeErr
}

func (f *fakeBackend) UpdateDevelopment(_ context.Context, id string, in *domain.DevelopmentInput) (*domain.Development, error) {
	return &domain.Development{ID: id, Name: in.Name}, f.writeErr
}

func (f *fakeBackend) DeleteDevelopment(context.Context, string) error { return f.writeErr }

func (f *fakeBackend) ListUsers(context.Context) ([]domain.User, error) { return f.users, nil }

func (f *fakeBackend) CreateUser(_ context.Context, in *domain.UserInput) (*domain.User, error) {
	return &domain.User{ID: "user-new", Name: in.Name, Email: in.Email, Role: in.Role, Active: true}, f.writeErr
}

func (f *fakeBackend) UpdateUser(_ context.Context, id string, in *domain.UserInput) (*domain.User, error) {
	return &domain.User{ID: id, Name: in.Name, Email: in.Email, Role: in.Role}, f.writeErr
}

func (f *fakeBackend) DeleteUser(context.Context, string) error { return f.writeErr }

func (f *fakeBackend) ToggleUserStatus(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, Active: false}, f.writeErr
}

func (f *fakeBackend) Login(context.Context, string, string) (*domain.UpstreamLogin, error) {
	return f.login, f.loginErr
}

func (f *fakeBackend) ChangePassword(context.Context, string, string, string) error {
	return f.passErr
}

func (f *fakeBackend) AdminResetPassword(_ context.Context, userID, _ string) error {
	f.lastReset = userID
	return f.passErr
}

type fakeSessions struct {
	mu    sync.Mutex
	items map[string]*domain.Session
	err   error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{items: map[string]*domain.Session{}}
}

func (f *fakeSessions) Save(_ context.Context, s *domain.Session, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[s.ID] = s
	return nil
}

func (f *fakeSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id], nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeSessions) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.items {
		if s.User.ID == userID {
			delete(f.items, id)
		}
	}
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return f.err
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

var (
	broker = &domain.User{ID: "broker-1", Name: "Ana Souza", Role: domain.RoleBroker, Active: true, CreatedAt: "2024-03-10T12:00:00Z"}
	admin  = &domain.User{ID: "admin-1", Name: "Admin", Role: domain.RoleAdmin, Active: true, CreatedAt: "2023-01-01T12:00:00Z"}
	staff  = &domain.User{ID: "user-1", Name: "Operador", Role: domain.RoleUser, Active: true}
)
