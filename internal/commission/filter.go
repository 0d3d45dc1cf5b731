package commission

import (
	"strconv"
	"strings"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/format"
)

// Filter keeps the records matching every set criterion, preserving order.
func Filter(records []domain.CommissionRecord, f domain.CommissionFilter) []domain.CommissionRecord {
	out := make([]domain.CommissionRecord, 0, len(records))
	search := strings.ToLower(f.Search)
	for _, r := range records {
		if matches(r, f, search) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record passes the filter.
func Matches(r domain.CommissionRecord, f domain.CommissionFilter) bool {
	return matches(r, f, strings.ToLower(f.Search))
}

func matches(r domain.CommissionRecord, f domain.CommissionFilter, search string) bool {
	if search != "" &&
		!strings.Contains(strings.ToLower(r.ClientName), search) &&
		!strings.Contains(strings.ToLower(r.BlockNumber), search) &&
		!strings.Contains(strings.ToLower(r.LotNumber), search) {
		return false
	}
	if f.DevelopmentID != "" && r.DevelopmentID != f.DevelopmentID {
		return false
	}
	if f.Status != "" && string(r.Status) != f.Status {
		return false
	}
	if f.Year != "" && yearString(r.PurchaseDate) != f.Year {
		return false
	}
	return true
}

func yearString(purchaseDate string) string {
	y := format.YearOf(purchaseDate)
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}
