package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/kardex-api/internal/application/catalog"
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain"
)

// StockHandler maneja entradas, salidas, ajustes y consultas de stock (protegido).
// Las entradas y salidas resuelven el producto por código de barras (el flujo
// del escáner); los ajustes y consultas van por ID de producto.
type StockHandler struct {
	ledgerUC  *ledger.UseCase
	catalogUC *catalog.UseCase
}

// NewStockHandler construye el handler de stock.
func NewStockHandler(ledgerUC *ledger.UseCase, catalogUC *catalog.UseCase) *StockHandler {
	return &StockHandler{ledgerUC: ledgerUC, catalogUC: catalogUC}
}

// Increase godoc
// @Summary      Entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ChangeStockRequest  true  "barcode, amount, unit_price?, reason?"
// @Success      200   {object}  dto.StockChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/increase [post]
func (h *StockHandler) Increase(c *fiber.Ctx) error {
	return h.change(c, h.ledgerUC.Increase)
}

// Decrease godoc
// @Summary      Salida de stock
// @Description  Falla con 409 INSUFFICIENT_STOCK (y la cantidad disponible) si no alcanza.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ChangeStockRequest  true  "barcode, amount, unit_price?, reason?"
// @Success      200   {object}  dto.StockChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/decrease [post]
func (h *StockHandler) Decrease(c *fiber.Ctx) error {
	return h.change(c, h.ledgerUC.Decrease)
}

// change factoriza entrada y salida: mismo cuerpo, misma resolución por barcode.
func (h *StockHandler) change(c *fiber.Ctx, op func(ctx context.Context, in ledger.ChangeInput) (*ledger.ChangeResult, error)) error {
	accountID, userID := GetAccountID(c), GetUserID(c)
	if accountID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ChangeStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Barcode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "barcode es requerido"})
	}
	product, err := h.catalogUC.GetByBarcode(c.Context(), accountID, in.Barcode)
	if err != nil {
		return stockError(c, err)
	}
	result, err := op(c.Context(), ledger.ChangeInput{
		AccountID: accountID,
		UserID:    userID,
		ProductID: product.ID,
		Amount:    in.Amount,
		UnitPrice: in.UnitPrice,
		Reason:    in.Reason,
	})
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.StockChangeResponse{
		ProductID:   product.ID,
		NewQuantity: result.NewQuantity,
		MovementID:  result.MovementID,
	})
}

// Adjust godoc
// @Summary      Ajuste de stock
// @Description  Aplica un delta con signo (correcciones de conteo). La cantidad resultante no puede ser negativa.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, delta, unit_price?, reason?"
// @Success      200   {object}  dto.StockChangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	accountID, userID := GetAccountID(c), GetUserID(c)
	if accountID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.ledgerUC.Adjust(c.Context(), ledger.AdjustInput{
		AccountID: accountID,
		UserID:    userID,
		ProductID: in.ProductID,
		Delta:     in.Delta,
		UnitPrice: in.UnitPrice,
		Reason:    in.Reason,
	})
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.StockChangeResponse{
		ProductID:   in.ProductID,
		NewQuantity: result.NewQuantity,
		MovementID:  result.MovementID,
	})
}

// GetQuantity godoc
// @Summary      Cantidad actual de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.QuantityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id} [get]
func (h *StockHandler) GetQuantity(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	productID := c.Params("product_id")
	quantity, err := h.ledgerUC.GetCurrentQuantity(c.Context(), accountID, productID)
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(dto.QuantityResponse{ProductID: productID, Quantity: quantity})
}

// ListMovements godoc
// @Summary      Historial de movimientos de un producto
// @Description  Página más reciente primero; before_id pagina hacia atrás (keyset).
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        limit       query  int     false  "tamaño de página (default 20, máx 100)"
// @Param        before_id   query  int     false  "devolver movimientos con ID menor"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	productID := c.Params("product_id")
	limit, _ := strconv.Atoi(c.Query("limit"))
	beforeID, _ := strconv.ParseInt(c.Query("before_id"), 10, 64)

	movements, nextBeforeID, err := h.ledgerUC.ListMovements(c.Context(), accountID, productID, limit, beforeID)
	if err != nil {
		return stockError(c, err)
	}
	items := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		items = append(items, dto.MovementResponse{
			ID:                m.ID,
			ProductID:         m.ProductID,
			UserID:            m.UserID,
			Kind:              m.Kind,
			Delta:             m.Delta,
			ResultingQuantity: m.ResultingQuantity,
			ValueSnapshot:     m.ValueSnapshot,
			Reason:            m.Reason,
			CreatedAt:         m.CreatedAt,
		})
	}
	return c.JSON(dto.MovementListResponse{Items: items, NextBeforeID: nextBeforeID})
}

// stockError mapea errores de dominio de las operaciones de stock a HTTP.
func stockError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		available := insufficient.Available
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:      "INSUFFICIENT_STOCK",
			Message:   "stock insuficiente",
			Available: &available,
		})
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	case errors.Is(err, domain.ErrConflict):
		// Reintentos agotados por contención: el cliente puede volver a intentar.
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de concurrencia, reintente"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
