package handler

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/format"
	"github.com/boddenberg/comissoes-bfa/internal/service"
)

// ============================================================
// Comissões: GET /v1/commissions, GET /v1/commissions/summary
// ============================================================

func filterFromQuery(r *http.Request) domain.CommissionFilter {
	q := r.URL.Query()
	return domain.CommissionFilter{
		Search:        q.Get("search"),
		DevelopmentID: strings.TrimSpace(q.Get("developmentId")),
		Status:        strings.TrimSpace(q.Get("status")),
		Year:          strings.TrimSpace(q.Get("year")),
	}
}

type summaryDisplay struct {
	TotalSales       string `json:"totalSales"`
	TotalCommissions string `json:"totalCommissions"`
	NumberOfSales    string `json:"numberOfSales"`
}

func displaySummary(s domain.CommissionSummary) summaryDisplay {
	return summaryDisplay{
		TotalSales:       format.Currency(s.TotalSales.Float64()),
		TotalCommissions: format.Currency(s.TotalCommissions.Float64()),
		NumberOfSales:    format.Number(float64(s.NumberOfSales)),
	}
}

type recordDisplay struct {
	ID              string `json:"id"`
	TotalValue      string `json:"totalValue"`
	CommissionValue string `json:"commissionValue"`
	Status          string `json:"status"`
	PurchaseDate    string `json:"purchaseDate"`
}

type commissionsResponse struct {
	*domain.CommissionReport
	Display struct {
		Summary summaryDisplay  `json:"summary"`
		Records []recordDisplay `json:"records"`
	} `json:"display"`
}

func commissionsHandler(svc *service.CommissionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/commissions")
		defer span.End()

		f := filterFromQuery(r)
		span.SetAttributes(
			attribute.String("filter.year", f.Year),
			attribute.String("filter.status", f.Status),
		)

		report, err := svc.MyCommissions(ctx, ActorFromContext(ctx), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		resp := commissionsResponse{CommissionReport: report}
		resp.Display.Summary = displaySummary(report.Summary)
		resp.Display.Records = make([]recordDisplay, 0, len(report.Records))
		for _, rec := range report.Records {
			resp.Display.Records = append(resp.Display.Records, recordDisplay{
				ID:              rec.ID,
				TotalValue:      format.Currency(rec.TotalValue.Float64()),
				CommissionValue: format.Currency(rec.CommissionValue.Float64()),
				Status:          rec.Status.Label(),
				PurchaseDate:    format.DateDisplay(rec.PurchaseDate),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func commissionsSummaryHandler(svc *service.CommissionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/commissions/summary")
		defer span.End()

		summary, err := svc.Summary(ctx, ActorFromContext(ctx), filterFromQuery(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			*domain.CommissionSummary
			Display summaryDisplay `json:"display"`
		}{summary, displaySummary(*summary)})
	}
}
