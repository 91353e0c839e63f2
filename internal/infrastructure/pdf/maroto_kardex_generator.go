// Package pdf implementa la generación de la tarjeta kardex de un producto:
// encabezado con los datos del producto y su existencia actual, seguido de la
// tabla de movimientos (fecha, tipo, delta, saldo, valor) más reciente primero.
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/kardex-api/internal/application/report"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ report.KardexPDFGenerator = (*MarotoKardexGenerator)(nil)

// MarotoKardexGenerator implementa report.KardexPDFGenerator usando Maroto v2.
type MarotoKardexGenerator struct{}

// NewMarotoKardexGenerator construye el generador.
func NewMarotoKardexGenerator() *MarotoKardexGenerator { return &MarotoKardexGenerator{} }

// GenerateKardexPDF genera el PDF y devuelve sus bytes.
func (g *MarotoKardexGenerator) GenerateKardexPDF(
	_ context.Context,
	product *entity.Product,
	currentQuantity int64,
	movements []*entity.Movement,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kardex de producto", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(product, currentQuantity))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, mov := range movements {
		m.AddRows(movementRow(mov))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kardex: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: nombre + código de barras (izq), existencia actual (der).
func headerRow(product *entity.Product, currentQuantity int64) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(product.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Código: "+product.Barcode+"  ·  Categoría: "+product.Category, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(fmt.Sprintf("Existencia: %d %s", currentQuantity, product.Unit), props.Text{
				Style: fontstyle.Bold, Size: 11, Top: 4, Align: align.Right,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	header := props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Align: align.Right}
	return row.New(8).Add(
		col.New(3).Add(text.New("Fecha", header)),
		col.New(2).Add(text.New("Tipo", header)),
		col.New(2).Add(text.New("Delta", headerRight)),
		col.New(2).Add(text.New("Saldo", headerRight)),
		col.New(3).Add(text.New("Valor", headerRight)),
	)
}

func movementRow(m *entity.Movement) core.Row {
	value := "—"
	if m.ValueSnapshot != nil {
		value = m.ValueSnapshot.StringFixed(2)
	}
	return row.New(6).Add(
		col.New(3).Add(text.New(m.CreatedAt.Format("02/01/2006 15:04"), props.Text{Size: 8})),
		col.New(2).Add(text.New(m.Kind, props.Text{Size: 8})),
		col.New(2).Add(text.New(fmt.Sprintf("%+d", m.Delta), props.Text{Size: 8, Align: align.Right})),
		col.New(2).Add(text.New(fmt.Sprintf("%d", m.ResultingQuantity), props.Text{Size: 8, Align: align.Right})),
		col.New(3).Add(text.New(value, props.Text{Size: 8, Align: align.Right, Color: colorGray})),
	)
}
