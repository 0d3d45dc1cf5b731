package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

func itemPath(collection, id string) string {
	return fmt.Sprintf("/%s/%s", collection, url.PathEscape(id))
}

// ============================================================
// Clients (implements port.ClientStore)
// ============================================================

func (c *Client) ListClients(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	err := c.do(ctx, call{op: "ListClients", method: http.MethodGet, path: "/clients", resource: "clients", out: &out})
	return out, err
}

func (c *Client) CreateClient(ctx context.Context, in *domain.ClientInput) (*domain.Client, error) {
	var out domain.Client
	if err := c.do(ctx, call{op: "CreateClient", method: http.MethodPost, path: "/clients", resource: "client", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateClient(ctx context.Context, id string, in *domain.ClientInput) (*domain.Client, error) {
	var out domain.Client
	if err := c.do(ctx, call{op: "UpdateClient", method: http.MethodPut, path: itemPath("clients", id), resource: "client", id: id, body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.do(ctx, call{op: "DeleteClient", method: http.MethodDelete, path: itemPath("clients", id), resource: "client", id: id})
}

// ============================================================
// Developments (implements port.DevelopmentStore)
// ============================================================

func (c *Client) ListDevelopments(ctx context.Context) ([]domain.Development, error) {
	var out []domain.Development
	err := c.do(ctx, call{op: "ListDevelopments", method: http.MethodGet, path: "/developments", resource: "developments", out: &out})
	return out, err
}

func (c *Client) CreateDevelopment(ctx context.Context, in *domain.DevelopmentInput) (*domain.Development, error) {
	var out domain.Development
	if err := c.do(ctx, call{op: "CreateDevelopment", method: http.MethodPost, path: "/developments", resource: "development", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDevelopment(ctx context.Context, id string, in *domain.DevelopmentInput) (*domain.Development, error) {
	var out domain.Development
	if err := c.do(ctx, call{op: "UpdateDevelopment", method: http.MethodPut, path: itemPath("developments", id), resource: "development", id: id, body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDevelopment(ctx context.Context, id string) error {
	return c.do(ctx, call{op: "DeleteDevelopment", method: http.MethodDelete, path: itemPath("developments", id), resource: "development", id: id})
}

// ============================================================
// Sales (implements port.SaleStore)
// ============================================================

func (c *Client) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var out []domain.Sale
	err := c.do(ctx, call{op: "ListSales", method: http.MethodGet, path: "/sales", resource: "sales", out: &out})
	return out, err
}

func (c *Client) CreateSale(ctx context.Context, in *domain.SaleInput) (*domain.Sale, error) {
	var out domain.Sale
	if err := c.do(ctx, call{op: "CreateSale", method: http.MethodPost, path: "/sales", resource: "sale", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSale(ctx context.Context, id string, in *domain.SaleInput) (*domain.Sale, error) {
	var out domain.Sale
	if err := c.do(ctx, call{op: "UpdateSale", method: http.MethodPut, path: itemPath("sales", id), resource: "sale", id: id, body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSale(ctx context.Context, id string) error {
	return c.do(ctx, call{op: "DeleteSale", method: http.MethodDelete, path: itemPath("sales", id), resource: "sale", id: id})
}

func (c *Client) UpdateInstallment(ctx context.Context, saleID string, number int, in *domain.InstallmentUpdate) (*domain.Installment, error) {
	out := domain.Installment{SaleID: saleID, InstallmentNumber: number, BillIssued: in.BillIssued, BillPaid: in.BillPaid}
	path := fmt.Sprintf("%s/installments/%d", itemPath("sales", saleID), number)
	if err := c.do(ctx, call{op: "UpdateInstallment", method: http.MethodPatch, path: path, resource: "installment", id: fmt.Sprintf("%s/%d", saleID, number), body: in, out: &out}); err != nil {
		return nil, err
	}
	if out.SaleID == "" {
		out.SaleID = saleID
	}
	if out.InstallmentNumber == 0 {
		out.InstallmentNumber = number
	}
	return &out, nil
}

// ============================================================
// Users (implements port.UserStore)
// ============================================================

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := c.do(ctx, call{op: "ListUsers", method: http.MethodGet, path: "/users", resource: "users", out: &out})
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in *domain.UserInput) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, call{op: "CreateUser", method: http.MethodPost, path: "/users", resource: "user", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in *domain.UserInput) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, call{op: "UpdateUser", method: http.MethodPut, path: itemPath("users", id), resource: "user", id: id, body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, call{op: "DeleteUser", method: http.MethodDelete, path: itemPath("users", id), resource: "user", id: id})
}

func (c *Client) ToggleUserStatus(ctx context.Context, id string) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, call{op: "ToggleUserStatus", method: http.MethodPatch, path: itemPath("users", id) + "/toggle-status", resource: "user", id: id, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
