// Package commission derives the commission view of a broker from the
// raw entity collections.
//
// Every function here is pure and total: nothing is cached between calls,
// inputs are never mutated, and bad data degrades to placeholders or zero
// instead of an error.
package commission

import "github.com/boddenberg/comissoes-bfa/internal/domain"

// Join builds one CommissionRecord per sale owned by actor, in sales
// order. Dangling client or development references resolve to the
// not-found placeholders. Any empty collection, or a missing actor,
// yields an empty result.
func Join(sales []domain.Sale, clients []domain.Client, developments []domain.Development, actor *domain.User) []domain.CommissionRecord {
	records := []domain.CommissionRecord{}
	if actor == nil || actor.ID == "" || len(sales) == 0 || len(clients) == 0 || len(developments) == 0 {
		return records
	}

	clientNames := make(map[string]string, len(clients))
	for _, c := range clients {
		if _, seen := clientNames[c.ID]; !seen {
			clientNames[c.ID] = c.Name
		}
	}
	developmentNames := make(map[string]string, len(developments))
	for _, d := range developments {
		if _, seen := developmentNames[d.ID]; !seen {
			developmentNames[d.ID] = d.Name
		}
	}

	for _, s := range sales {
		if s.BrokerID != actor.ID {
			continue
		}
		records = append(records, domain.CommissionRecord{
			ID:              s.ID,
			ClientName:      nameOr(clientNames[s.ClientID], domain.ClientNotFound),
			DevelopmentName: nameOr(developmentNames[s.DevelopmentID], domain.DevelopmentNotFound),
			DevelopmentID:   s.DevelopmentID,
			BlockNumber:     s.BlockNumber,
			LotNumber:       s.LotNumber,
			TotalValue:      s.TotalValue,
			CommissionValue: s.CommissionValue,
			Status:          s.Status,
			PurchaseDate:    s.PurchaseDate,
			UpdatedAt:       s.UpdatedAt,
		})
	}
	return records
}

func nameOr(name, placeholder string) string {
	if name == "" {
		return placeholder
	}
	return name
}
