package commission

import (
	"time"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
)

// Inputs are the snapshots the pipeline runs over. Collections that are
// not loaded (or failed to load) are passed as nil.
type Inputs struct {
	Sales        []domain.Sale
	Clients      []domain.Client
	Developments []domain.Development
	Actor        *domain.User
}

// Report is the outcome of one pipeline run.
type Report struct {
	Records     []domain.CommissionRecord
	Summary     domain.CommissionSummary
	TotalOwned  int
	YearOptions []domain.YearOption
}

// Build runs Join, Filter and Summarize and computes the year options for
// the actor.
func Build(in Inputs, f domain.CommissionFilter, now time.Time) Report {
	owned := Join(in.Sales, in.Clients, in.Developments, in.Actor)
	filtered := Filter(owned, f)

	return Report{
		Records:     filtered,
		Summary:     Summarize(filtered),
		TotalOwned:  len(owned),
		YearOptions: YearOptions(CreationYear(in.Actor, now), now),
	}
}
