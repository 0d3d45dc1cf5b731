package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/format"
)

// ============================================================
// Sales
// ============================================================

func (s *CatalogService) ListSales(ctx context.Context, actor *domain.User) ([]domain.Sale, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.ListSales")
	defer span.End()

	if err := requireCatalogRole(actor, "list sales"); err != nil {
		return nil, err
	}
	return s.sales.ListSales(ctx)
}

func validateSale(in *domain.SaleInput) error {
	for _, f := range []struct{ name, value string }{
		{"clientId", in.ClientID},
		{"developmentId", in.DevelopmentID},
		{"brokerId", in.BrokerID},
		{"blockNumber", in.BlockNumber},
		{"lotNumber", in.LotNumber},
		{"purchaseDate", in.PurchaseDate},
	} {
		if err := required(f.name, f.value); err != nil {
			return err
		}
	}
	if _, ok := format.ParseStored(in.PurchaseDate); !ok {
		return &domain.ErrValidation{Field: "purchaseDate", Message: "data inválida"}
	}
	if in.Status == "" {
		in.Status = domain.StatusWaitingContract
	}
	if !in.Status.Valid() {
		return &domain.ErrValidation{Field: "status", Message: "status inválido"}
	}
	if in.TotalValue.Decimal().IsNegative() || in.CommissionValue.Decimal().IsNegative() {
		return &domain.ErrValidation{Field: "totalValue", Message: "valores não podem ser negativos"}
	}
	if in.SecondBuyerID != nil {
		if v := strings.TrimSpace(*in.SecondBuyerID); v == "" || v == in.ClientID {
			in.SecondBuyerID = nil
		}
	}
	return nil
}

func (s *CatalogService) CreateSale(ctx context.Context, actor *domain.User, in *domain.SaleInput) (*domain.Sale, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.CreateSale")
	defer span.End()

	if err := requireCatalogRole(actor, "create sales"); err != nil {
		return nil, err
	}
	if err := validateSale(in); err != nil {
		return nil, err
	}

	sale, err := s.sales.CreateSale(ctx, in)
	if err != nil {
		s.logger.Error("failed to create sale", zap.String("broker_id", in.BrokerID), zap.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.String("sale.id", sale.ID))

	s.stores.Invalidate(ResourceSales)
	s.publish(ctx, actor, domain.EventSaleCreated, sale.ID, sale)
	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("broker_id", sale.BrokerID),
		zap.String("total_value", sale.TotalValue.String()),
	)
	return sale, nil
}

func (s *CatalogService) UpdateSale(ctx context.Context, actor *domain.User, id string, in *domain.SaleInput) (*domain.Sale, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.UpdateSale")
	defer span.End()

	if err := requireCatalogRole(actor, "update sales"); err != nil {
		return nil, err
	}
	if err := validateSale(in); err != nil {
		return nil, err
	}

	sale, err := s.sales.UpdateSale(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.stores.Invalidate(ResourceSales)
	s.publish(ctx, actor, domain.EventSaleUpdated, sale.ID, sale)
	return sale, nil
}

func (s *CatalogService) DeleteSale(ctx context.Context, actor *domain.User, id string) error {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.DeleteSale")
	defer span.End()

	if err := requireCatalogRole(actor, "delete sales"); err != nil {
		return err
	}
	if err := s.sales.DeleteSale(ctx, id); err != nil {
		return err
	}
	s.stores.Invalidate(ResourceSales)
	s.publish(ctx, actor, domain.EventSaleDeleted, id, nil)
	s.logger.Info("sale deleted", zap.String("sale_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// UpdateInstallment marks the bill of one down-payment installment as
// issued and/or paid.
func (s *CatalogService) UpdateInstallment(ctx context.Context, actor *domain.User, saleID string, number int, in *domain.InstallmentUpdate) (*domain.Installment, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.UpdateInstallment")
	defer span.End()

	if err := requireCatalogRole(actor, "update installments"); err != nil {
		return nil, err
	}
	if number < 1 {
		return nil, &domain.ErrValidation{Field: "installmentNumber", Message: "deve ser maior que zero"}
	}
	if in.BillPaid && !in.BillIssued {
		return nil, &domain.ErrValidation{Field: "billPaid", Message: "boleto precisa ser emitido antes de ser pago"}
	}

	inst, err := s.sales.UpdateInstallment(ctx, saleID, number, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, actor, domain.EventSaleInstallmentUpdated, saleID, inst)
	return inst, nil
}
