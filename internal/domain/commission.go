package domain

// ============================================================
// Commission view
// ============================================================

// Placeholders used when a sale references a client or development that
// is not present in the loaded collections.
const (
	ClientNotFound      = "Cliente não encontrado"
	DevelopmentNotFound = "Empreendimento não encontrado"
)

// Sentinel labels for the "no filter" choice of the option lists.
const (
	AllStatusesLabel = "Todos os status"
	AllYearsLabel    = "Todos os anos"

	AllDevelopmentsLabel = "Todos os empreendimentos"
)

// CommissionRecord is the denormalized row shown in the commissions
// table. It is derived from a Sale and never persisted.
type CommissionRecord struct {
	ID              string     `json:"id"`
	ClientName      string     `json:"clientName"`
	DevelopmentName string     `json:"developmentName"`
	DevelopmentID   string     `json:"developmentId"`
	BlockNumber     string     `json:"blockNumber"`
	LotNumber       string     `json:"lotNumber"`
	TotalValue      Amount     `json:"totalValue"`
	CommissionValue Amount     `json:"commissionValue"`
	Status          SaleStatus `json:"status"`
	PurchaseDate    string     `json:"purchaseDate"`
	UpdatedAt       string     `json:"updatedAt"`
}

// CommissionSummary totals a set of records.
type CommissionSummary struct {
	TotalSales       Amount `json:"totalSales"`
	TotalCommissions Amount `json:"totalCommissions"`
	NumberOfSales    int    `json:"numberOfSales"`
}

// Add combines two summaries element-wise.
func (s CommissionSummary) Add(o CommissionSummary) CommissionSummary {
	return CommissionSummary{
		TotalSales:       s.TotalSales.Add(o.TotalSales),
		TotalCommissions: s.TotalCommissions.Add(o.TotalCommissions),
		NumberOfSales:    s.NumberOfSales + o.NumberOfSales,
	}
}

// CommissionFilter holds the four independent criteria of the commissions
// page. Empty fields match everything.
type CommissionFilter struct {
	Search        string `json:"search,omitempty"`
	DevelopmentID string `json:"developmentId,omitempty"`
	Status        string `json:"status,omitempty"`
	Year          string `json:"year,omitempty"`
}

// YearOption is one entry of the year selector.
type YearOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Option is a generic id/label pair for selectors.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SourceStatus mirrors the loading/error flags of one entity collection.
type SourceStatus struct {
	Loaded    bool   `json:"loaded"`
	Error     string `json:"error,omitempty"`
	Count     int    `json:"count"`
	FetchedAt string `json:"fetchedAt,omitempty"`
}

// CommissionReport is returned by GET /v1/commissions.
type CommissionReport struct {
	Records            []CommissionRecord      `json:"records"`
	Summary            CommissionSummary       `json:"summary"`
	TotalOwned         int                     `json:"totalOwned"`
	Filter             CommissionFilter        `json:"filter"`
	DefaultYear        string                  `json:"defaultYear"`
	YearOptions        []YearOption            `json:"yearOptions"`
	StatusOptions      []Option                `json:"statusOptions"`
	DevelopmentOptions []Option                `json:"developmentOptions"`
	Sources            map[string]SourceStatus `json:"sources"`
	Complete           bool                    `json:"complete"`
	GeneratedAt        string                  `json:"generatedAt"`
}
