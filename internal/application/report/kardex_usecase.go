package report

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// Límite de filas del reporte: páginas más viejas quedan fuera del PDF.
const maxKardexRows = 500

// KardexPDFGenerator puerto para renderizar la tarjeta kardex de un producto.
type KardexPDFGenerator interface {
	GenerateKardexPDF(ctx context.Context, product *entity.Product, currentQuantity int64, movements []*entity.Movement) ([]byte, error)
}

// KardexUseCase arma el reporte kardex: historial de movimientos de un producto
// con su cantidad vigente, renderizado a PDF.
type KardexUseCase struct {
	productRepo  repository.ProductRepository
	stockRepo    repository.StockRecordRepository
	movementRepo repository.MovementRepository
	generator    KardexPDFGenerator
}

// NewKardexUseCase construye el caso de uso del reporte.
func NewKardexUseCase(
	productRepo repository.ProductRepository,
	stockRepo repository.StockRecordRepository,
	movementRepo repository.MovementRepository,
	generator KardexPDFGenerator,
) *KardexUseCase {
	return &KardexUseCase{
		productRepo:  productRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		generator:    generator,
	}
}

// GenerateForProduct genera el PDF del kardex del producto indicado.
func (uc *KardexUseCase) GenerateForProduct(ctx context.Context, accountID, productID string) ([]byte, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	record, err := uc.stockRepo.Get(ctx, accountID, productID)
	if err != nil {
		return nil, err
	}
	movements, err := uc.movementRepo.ListByProduct(ctx, accountID, productID, maxKardexRows, 0)
	if err != nil {
		return nil, err
	}
	return uc.generator.GenerateKardexPDF(ctx, product, record.Quantity, movements)
}
