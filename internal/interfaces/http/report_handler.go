package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/report"
	"github.com/jhoicas/kardex-api/internal/domain"
)

// ReportHandler maneja los reportes en PDF (protegido).
type ReportHandler struct {
	kardexUC *report.KardexUseCase
}

// NewReportHandler construye el handler de reportes.
func NewReportHandler(kardexUC *report.KardexUseCase) *ReportHandler {
	return &ReportHandler{kardexUC: kardexUC}
}

// Kardex godoc
// @Summary      Tarjeta kardex de un producto (PDF)
// @Description  Historial de movimientos con la existencia vigente, renderizado a PDF.
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/kardex.pdf [get]
func (h *ReportHandler) Kardex(c *fiber.Ctx) error {
	accountID := GetAccountID(c)
	if accountID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	pdfBytes, err := h.kardexUC.GenerateForProduct(c.Context(), accountID, c.Params("product_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `inline; filename="kardex.pdf"`)
	return c.Send(pdfBytes)
}
