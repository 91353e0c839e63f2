package catalog

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// Valores por defecto del catálogo (mismos de la app original).
const (
	defaultUnit        = "un"
	defaultCategory    = "limpieza"
	defaultMinQuantity = 5
)

// UseCase operaciones de catálogo: CRUD de productos y consultas por código de
// barras. No toca cantidades directamente: el stock inicial de un producto se
// registra a través del motor de stock como un movimiento "entrada".
type UseCase struct {
	productRepo repository.ProductRepository
	ledgerUC    *ledger.UseCase
}

// NewUseCase construye el caso de uso de catálogo.
func NewUseCase(productRepo repository.ProductRepository, ledgerUC *ledger.UseCase) *UseCase {
	return &UseCase{productRepo: productRepo, ledgerUC: ledgerUC}
}

// Create crea un producto para la cuenta. Barcode único por cuenta.
// Si InitialQuantity > 0, registra el movimiento de entrada inicial.
func (uc *UseCase) Create(ctx context.Context, accountID, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.Name == "" || in.Barcode == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Price.IsNegative() || in.MinQuantity < 0 || in.InitialQuantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.productRepo.GetByAccountAndBarcode(ctx, accountID, in.Barcode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Name:        in.Name,
		Barcode:     in.Barcode,
		Unit:        in.Unit,
		Category:    in.Category,
		Price:       in.Price,
		MinQuantity: in.MinQuantity,
		Description: in.Description,
		SearchName:  NormalizeSearch(in.Name),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Unit == "" {
		product.Unit = defaultUnit
	}
	if product.Category == "" {
		product.Category = defaultCategory
	}
	if product.MinQuantity == 0 {
		product.MinQuantity = defaultMinQuantity
	}
	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	if in.InitialQuantity > 0 {
		_, err := uc.ledgerUC.Increase(ctx, ledger.ChangeInput{
			AccountID: accountID,
			UserID:    userID,
			ProductID: product.ID,
			Amount:    in.InitialQuantity,
			Reason:    "stock inicial",
		})
		if err != nil {
			return nil, err
		}
	}
	return toProductResponse(product), nil
}

// GetByBarcode busca un producto de la cuenta por código de barras.
func (uc *UseCase) GetByBarcode(ctx context.Context, accountID, barcode string) (*dto.ProductResponse, error) {
	if barcode == "" {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByAccountAndBarcode(ctx, accountID, barcode)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// List lista productos de la cuenta en orden alfabético, con búsqueda opcional
// insensible a mayúsculas y tildes.
func (uc *UseCase) List(ctx context.Context, accountID, search string, limit, offset int) (*dto.ProductListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	items, err := uc.productRepo.List(ctx, accountID, NormalizeSearch(search), limit, offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{
		Items: make([]dto.ProductResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}
	for _, p := range items {
		out.Items = append(out.Items, *toProductResponse(p))
	}
	return out, nil
}

// Update modifica los metadatos del producto. El barcode es inmutable y la
// cantidad solo cambia vía movimientos.
func (uc *UseCase) Update(ctx context.Context, accountID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.ownedProduct(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.ErrInvalidInput
		}
		product.Name = *in.Name
		product.SearchName = NormalizeSearch(*in.Name)
	}
	if in.Unit != nil {
		product.Unit = *in.Unit
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		product.Price = *in.Price
	}
	if in.MinQuantity != nil {
		if *in.MinQuantity < 0 {
			return nil, domain.ErrInvalidInput
		}
		product.MinQuantity = *in.MinQuantity
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	product.UpdatedAt = time.Now()
	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Delete elimina un producto de la cuenta. Los movimientos históricos se conservan.
func (uc *UseCase) Delete(ctx context.Context, accountID, id string) error {
	if _, err := uc.ownedProduct(ctx, accountID, id); err != nil {
		return err
	}
	return uc.productRepo.Delete(ctx, accountID, id)
}

// LowStock devuelve los productos con cantidad por debajo de su umbral mínimo.
func (uc *UseCase) LowStock(ctx context.Context, accountID string) ([]dto.LowStockItemResponse, error) {
	items, err := uc.productRepo.ListBelowMinQuantity(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.LowStockItemResponse{
			ProductID:   it.ProductID,
			Barcode:     it.Barcode,
			Name:        it.Name,
			Quantity:    it.Quantity,
			MinQuantity: it.MinQuantity,
		})
	}
	return out, nil
}

// ownedProduct resuelve el producto y valida pertenencia. Producto de otra
// cuenta se reporta como no encontrado.
func (uc *UseCase) ownedProduct(ctx context.Context, accountID, id string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.AccountID != accountID {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// NormalizeSearch pasa a minúsculas y elimina marcas diacríticas (tildes) para
// que "Limón" y "limon" coincidan en búsquedas.
func NormalizeSearch(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		AccountID:   p.AccountID,
		Name:        p.Name,
		Barcode:     p.Barcode,
		Unit:        p.Unit,
		Category:    p.Category,
		Price:       p.Price,
		MinQuantity: p.MinQuantity,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
