package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// ============================================================
// Tables
// ============================================================

type userRow struct {
	ID           string     `gorm:"primaryKey;size:36"`
	Name         string     `gorm:"size:255;not null"`
	Email        string     `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string     `gorm:"size:255;not null"`
	Role         string     `gorm:"size:20;not null;index"`
	Active       bool       `gorm:"not null;default:true"`
	CreatedAt    time.Time
	LastLogin    *time.Time
}

func (userRow) TableName() string { return "users" }

type clientRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:255;not null"`
	Email     string `gorm:"size:255"`
	CPF       string `gorm:"column:cpf;size:14;index"`
	Phone     string `gorm:"size:20"`
	Address   string `gorm:"size:500"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (clientRow) TableName() string { return "clients" }

type developmentRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"size:255;not null"`
	Location    string `gorm:"size:255"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (developmentRow) TableName() string { return "developments" }

type saleRow struct {
	ID                      string          `gorm:"primaryKey;size:36"`
	ClientID                string          `gorm:"size:36;not null;index"`
	SecondBuyerID           *string         `gorm:"size:36"`
	DevelopmentID           string          `gorm:"size:36;not null;index"`
	BrokerID                string          `gorm:"size:36;not null;index"`
	BlockNumber             string          `gorm:"size:20"`
	LotNumber               string          `gorm:"size:20"`
	TotalValue              decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CommissionValue         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	DownPaymentInstallments string          `gorm:"size:10"`
	PurchaseDate            string          `gorm:"size:32;index"`
	Status                  string          `gorm:"size:30;not null;index"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (saleRow) TableName() string { return "sales" }

type installmentRow struct {
	SaleID            string `gorm:"primaryKey;size:36"`
	InstallmentNumber int    `gorm:"primaryKey"`
	BillIssued        bool   `gorm:"not null;default:false"`
	BillPaid          bool   `gorm:"not null;default:false"`
	UpdatedAt         time.Time
}

func (installmentRow) TableName() string { return "sale_installments" }

// ============================================================
// Row ↔ domain
// ============================================================

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (r userRow) toDomain() domain.User {
	u := domain.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      domain.Role(r.Role),
		Active:    r.Active,
		CreatedAt: stamp(r.CreatedAt),
	}
	if r.LastLogin != nil {
		u.LastLogin = stamp(*r.LastLogin)
	}
	return u
}

func (r clientRow) toDomain() domain.Client {
	return domain.Client{ID: r.ID, Name: r.Name, Email: r.Email, CPF: r.CPF, Phone: r.Phone, Address: r.Address}
}

func (r developmentRow) toDomain() domain.Development {
	return domain.Development{ID: r.ID, Name: r.Name, Location: r.Location, Description: r.Description}
}

func (r saleRow) toDomain() domain.Sale {
	return domain.Sale{
		ID:                      r.ID,
		ClientID:                r.ClientID,
		SecondBuyerID:           r.SecondBuyerID,
		DevelopmentID:           r.DevelopmentID,
		BrokerID:                r.BrokerID,
		BlockNumber:             r.BlockNumber,
		LotNumber:               r.LotNumber,
		TotalValue:              domain.AmountFromDecimal(r.TotalValue),
		CommissionValue:         domain.AmountFromDecimal(r.CommissionValue),
		DownPaymentInstallments: r.DownPaymentInstallments,
		PurchaseDate:            r.PurchaseDate,
		Status:                  domain.SaleStatus(r.Status),
		UpdatedAt:               stamp(r.UpdatedAt),
	}
}

func saleFields(in *domain.SaleInput) map[string]any {
	return map[string]any{
		"client_id":                 in.ClientID,
		"second_buyer_id":           in.SecondBuyerID,
		"development_id":            in.DevelopmentID,
		"broker_id":                 in.BrokerID,
		"block_number":              in.BlockNumber,
		"lot_number":                in.LotNumber,
		"total_value":               in.TotalValue.Decimal(),
		"commission_value":          in.CommissionValue.Decimal(),
		"down_payment_installments": in.DownPaymentInstallments,
		"purchase_date":             in.PurchaseDate,
		"status":                    string(in.Status),
	}
}
