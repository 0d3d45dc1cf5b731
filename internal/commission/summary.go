package commission

import "github.com/boddenberg/comissoes-bfa/internal/domain"

// Summarize totals sale and commission values over records. The empty
// input yields the zero summary.
func Summarize(records []domain.CommissionRecord) domain.CommissionSummary {
	var s domain.CommissionSummary
	for _, r := range records {
		s.TotalSales = s.TotalSales.Add(r.TotalValue)
		s.TotalCommissions = s.TotalCommissions.Add(r.CommissionValue)
		s.NumberOfSales++
	}
	return s
}
