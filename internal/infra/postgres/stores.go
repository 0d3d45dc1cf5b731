package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// updateByID applies fields to the row with id and reloads it into dst.
func (s *Store) updateByID(ctx context.Context, resource, id string, dst any, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(dst).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return mapError(resource, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return mapError(resource, id, s.db.WithContext(ctx).First(dst, "id = ?", id).Error)
}

func (s *Store) deleteByID(ctx context.Context, resource, id string, model any) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return mapError(resource, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return nil
}

// ============================================================
// Clients
// ============================================================

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	var rows []clientRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, mapError("clients", "", err)
	}
	out := make([]domain.Client, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CreateClient(ctx context.Context, in *domain.ClientInput) (*domain.Client, error) {
	row := clientRow{ID: uuid.NewString(), Name: in.Name, Email: in.Email, CPF: in.CPF, Phone: in.Phone, Address: in.Address}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, mapError("cliente", row.ID, err)
	}
	c := row.toDomain()
	return &c, nil
}

func (s *Store) UpdateClient(ctx context.Context, id string, in *domain.ClientInput) (*domain.Client, error) {
	var row clientRow
	err := s.updateByID(ctx, "client", id, &row, map[string]any{
		"name": in.Name, "email": in.Email, "cpf": in.CPF, "phone": in.Phone, "address": in.Address,
	})
	if err != nil {
		return nil, err
	}
	c := row.toDomain()
	return &c, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "client", id, &clientRow{})
}

// ============================================================
// Developments
// ============================================================

func (s *Store) ListDevelopments(ctx context.Context) ([]domain.Development, error) {
	var rows []developmentRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, mapError("developments", "", err)
	}
	out := make([]domain.Development, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CreateDevelopment(ctx context.Context, in *domain.DevelopmentInput) (*domain.Development, error) {
	row := developmentRow{ID: uuid.NewString(), Name: in.Name, Location: in.Location, Description: in.Description}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, mapError("empreendimento", row.ID, err)
	}
	d := row.toDomain()
	return &d, nil
}

func (s *Store) UpdateDevelopment(ctx context.Context, id string, in *domain.DevelopmentInput) (*domain.Development, error) {
	var row developmentRow
	err := s.updateByID(ctx, "development", id, &row, map[string]any{
		"name": in.Name, "location": in.Location, "description": in.Description,
	})
	if err != nil {
		return nil, err
	}
	d := row.toDomain()
	return &d, nil
}

func (s *Store) DeleteDevelopment(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "development", id, &developmentRow{})
}

// ============================================================
// Sales
// ============================================================

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var rows []saleRow
	if err := s.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, mapError("sales", "", err)
	}
	out := make([]domain.Sale, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CreateSale(ctx context.Context, in *domain.SaleInput) (*domain.Sale, error) {
	row := saleRow{
		ID:                      uuid.NewString(),
		ClientID:                in.ClientID,
		SecondBuyerID:           in.SecondBuyerID,
		DevelopmentID:           in.DevelopmentID,
		BrokerID:                in.BrokerID,
		BlockNumber:             in.BlockNumber,
		LotNumber:               in.LotNumber,
		TotalValue:              in.TotalValue.Decimal(),
		CommissionValue:         in.CommissionValue.Decimal(),
		DownPaymentInstallments: in.DownPaymentInstallments,
		PurchaseDate:            in.PurchaseDate,
		Status:                  string(in.Status),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, mapError("venda", row.ID, err)
	}
	sale := row.toDomain()
	return &sale, nil
}

func (s *Store) UpdateSale(ctx context.Context, id string, in *domain.SaleInput) (*domain.Sale, error) {
	var row saleRow
	if err := s.updateByID(ctx, "sale", id, &row, saleFields(in)); err != nil {
		return nil, err
	}
	sale := row.toDomain()
	return &sale, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "sale", id, &saleRow{})
}

// UpdateInstallment upserts the bill flags of one installment.
func (s *Store) UpdateInstallment(ctx context.Context, saleID string, number int, in *domain.InstallmentUpdate) (*domain.Installment, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&saleRow{}).Where("id = ?", saleID).Count(&count).Error; err != nil {
		return nil, mapError("sale", saleID, err)
	}
	if count == 0 {
		return nil, &domain.ErrNotFound{Resource: "sale", ID: saleID}
	}

	row := installmentRow{SaleID: saleID, InstallmentNumber: number, BillIssued: in.BillIssued, BillPaid: in.BillPaid}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sale_id"}, {Name: "installment_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"bill_issued", "bill_paid", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, mapError("installment", fmt.Sprintf("%s/%d", saleID, number), err)
	}
	return &domain.Installment{SaleID: saleID, InstallmentNumber: number, BillIssued: row.BillIssued, BillPaid: row.BillPaid}, nil
}

// ============================================================
// Users
// ============================================================

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, mapError("users", "", err)
	}
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, in *domain.UserInput) (*domain.User, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	row := userRow{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         string(in.Role),
		Active:       in.Active == nil || *in.Active,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, mapError("usuário", row.ID, err)
	}
	u := row.toDomain()
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, in *domain.UserInput) (*domain.User, error) {
	fields := map[string]any{"name": in.Name, "email": normalizeEmail(in.Email), "role": string(in.Role)}
	if in.Active != nil {
		fields["active"] = *in.Active
	}
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	var row userRow
	if err := s.updateUserFields(ctx, id, &row, fields); err != nil {
		return nil, err
	}
	u := row.toDomain()
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "user", id, &userRow{})
}

func (s *Store) ToggleUserStatus(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, mapError("user", id, err)
	}
	if err := s.updateUserFields(ctx, id, &row, map[string]any{"active": !row.Active}); err != nil {
		return nil, err
	}
	u := row.toDomain()
	return &u, nil
}

// updateUserFields is updateByID without updated_at, which users lack.
func (s *Store) updateUserFields(ctx context.Context, id string, row *userRow, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return mapError("user", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.ErrNotFound{Resource: "user", ID: id}
	}
	return mapError("user", id, s.db.WithContext(ctx).First(row, "id = ?", id).Error)
}
