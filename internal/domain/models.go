// Package domain defines the business entities of the commission console.
// These models mirror the upstream API contract and are shared by the
// gateway client, the postgres backend, the commission engine and the
// HTTP layer.
package domain

// ============================================================
// Roles
// ============================================================

// Role is the access level of a console user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleBroker     Role = "broker"
	RoleTeamLeader Role = "teamLeader"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleBroker, RoleTeamLeader:
		return true
	}
	return false
}

// CanViewCommissions reports whether the role may list its own commission
// records.
func (r Role) CanViewCommissions() bool {
	return r == RoleBroker || r == RoleTeamLeader
}

// CanManageCatalog reports whether the role may edit clients, developments
// and sales.
func (r Role) CanManageCatalog() bool {
	return r == RoleAdmin || r == RoleUser
}

// ============================================================
// Sale status
// ============================================================

// SaleStatus is the lifecycle state of a sale. The string values are the
// wire values used by the upstream API and must not change.
type SaleStatus string

const (
	StatusPaid               SaleStatus = "paid"
	StatusCanceled           SaleStatus = "canceled"
	StatusWaitingContract    SaleStatus = "waiting_contract"
	StatusWaitingDownPayment SaleStatus = "waiting_down_payment"
	StatusWaitingSevenDays   SaleStatus = "waiting_seven_days"
	StatusWaitingInvoice     SaleStatus = "waiting_invoice"
)

// SaleStatuses lists every status in display order.
var SaleStatuses = []SaleStatus{
	StatusPaid,
	StatusCanceled,
	StatusWaitingContract,
	StatusWaitingDownPayment,
	StatusWaitingSevenDays,
	StatusWaitingInvoice,
}

var statusLabels = map[SaleStatus]string{
	StatusPaid:               "Pago",
	StatusCanceled:           "Cancelado",
	StatusWaitingContract:    "Aguardando a Assinatura do Contrato",
	StatusWaitingDownPayment: "Aguardando Pagamento da Entrada",
	StatusWaitingSevenDays:   "Aguardando Prazo de 07 dias",
	StatusWaitingInvoice:     "Aguardando a Emissão de Nota Fiscal",
}

func (s SaleStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the pt-BR label, or the raw value for unknown statuses.
func (s SaleStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ============================================================
// Entities
// ============================================================

// User is a console account. CreatedAt and LastLogin keep the stored
// string form; see package format for how they are interpreted.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
	LastLogin string `json:"lastLogin,omitempty"`
}

type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	CPF     string `json:"cpf"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Development struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Sale is a lot sold to one client (optionally with a second buyer) by a
// broker.
type Sale struct {
	ID                      string     `json:"id"`
	ClientID                string     `json:"clientId"`
	SecondBuyerID           *string    `json:"secondBuyerId"`
	DevelopmentID           string     `json:"developmentId"`
	BrokerID                string     `json:"brokerId"`
	BlockNumber             string     `json:"blockNumber"`
	LotNumber               string     `json:"lotNumber"`
	TotalValue              Amount     `json:"totalValue"`
	CommissionValue         Amount     `json:"commissionValue"`
	DownPaymentInstallments string     `json:"downPaymentInstallments"`
	PurchaseDate            string     `json:"purchaseDate"`
	Status                  SaleStatus `json:"status"`
	UpdatedAt               string     `json:"updatedAt"`
}

// Installment tracks the bill of one down-payment installment of a sale.
type Installment struct {
	SaleID            string `json:"saleId"`
	InstallmentNumber int    `json:"installmentNumber"`
	BillIssued        bool   `json:"billIssued"`
	BillPaid          bool   `json:"billPaid"`
}

// ============================================================
// Write payloads
// ============================================================

type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	CPF     string `json:"cpf"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type DevelopmentInput struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type SaleInput struct {
	ClientID                string     `json:"clientId"`
	SecondBuyerID           *string    `json:"secondBuyerId"`
	DevelopmentID           string     `json:"developmentId"`
	BrokerID                string     `json:"brokerId"`
	BlockNumber             string     `json:"blockNumber"`
	LotNumber               string     `json:"lotNumber"`
	TotalValue              Amount     `json:"totalValue"`
	CommissionValue         Amount     `json:"commissionValue"`
	DownPaymentInstallments string     `json:"downPaymentInstallments"`
	PurchaseDate            string     `json:"purchaseDate"`
	Status                  SaleStatus `json:"status"`
}

// UserInput creates or updates an account. Password is only honoured on
// creation; an empty password on update leaves it unchanged.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
	Active   *bool  `json:"active,omitempty"`
}

type InstallmentUpdate struct {
	BillIssued bool `json:"billIssued"`
	BillPaid   bool `json:"billPaid"`
}
