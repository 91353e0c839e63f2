package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/catalog"
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
)

const (
	testAccountID = "00000000-0000-0000-0000-00000000000a"
	otherAccount  = "00000000-0000-0000-0000-00000000000b"
	testUserID    = "00000000-0000-0000-0000-000000000001"
)

func newCatalog(t *testing.T) (*catalog.UseCase, *ledger.UseCase) {
	t.Helper()
	store := memory.NewStore()
	ledgerUC := ledger.NewUseCase(
		memory.NewTxRunner(store),
		memory.NewProductRepository(store),
		memory.NewStockRecordRepository(store),
		memory.NewMovementRepository(store),
		ledger.Config{MaxRetries: 3, RetryBackoff: time.Millisecond},
	)
	return catalog.NewUseCase(memory.NewProductRepository(store), ledgerUC), ledgerUC
}

func TestCreate_AplicaDefaults(t *testing.T) {
	uc, _ := newCatalog(t)

	p, err := uc.Create(context.Background(), testAccountID, testUserID, dto.CreateProductRequest{
		Name:    "Jabón en polvo",
		Barcode: "7891234567890",
	})
	require.NoError(t, err)
	assert.Equal(t, "un", p.Unit)
	assert.Equal(t, "limpieza", p.Category)
	assert.Equal(t, int64(5), p.MinQuantity)
	assert.NotEmpty(t, p.ID)
}

func TestCreate_ConStockInicial(t *testing.T) {
	uc, ledgerUC := newCatalog(t)

	p, err := uc.Create(context.Background(), testAccountID, testUserID, dto.CreateProductRequest{
		Name:            "Desinfectante",
		Barcode:         "111",
		Price:           decimal.RequireFromString("4.00"),
		InitialQuantity: 12,
	})
	require.NoError(t, err)

	qty, err := ledgerUC.GetCurrentQuantity(context.Background(), testAccountID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), qty)

	movements, _, err := ledgerUC.ListMovements(context.Background(), testAccountID, p.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1, "el stock inicial entra como movimiento")
	assert.Equal(t, "entrada", movements[0].Kind)
	assert.Equal(t, "stock inicial", movements[0].Reason)
}

func TestCreate_BarcodeDuplicadoEnLaCuenta(t *testing.T) {
	uc, _ := newCatalog(t)

	_, err := uc.Create(context.Background(), testAccountID, testUserID, dto.CreateProductRequest{
		Name: "Producto A", Barcode: "222",
	})
	require.NoError(t, err)

	_, err = uc.Create(context.Background(), testAccountID, testUserID, dto.CreateProductRequest{
		Name: "Producto B", Barcode: "222",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// El mismo barcode en otra cuenta sí es válido.
	_, err = uc.Create(context.Background(), otherAccount, testUserID, dto.CreateProductRequest{
		Name: "Producto C", Barcode: "222",
	})
	assert.NoError(t, err)
}

func TestCreate_Validaciones(t *testing.T) {
	uc, _ := newCatalog(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, testAccountID, testUserID, dto.CreateProductRequest{Barcode: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "name requerido")

	_, err = uc.Create(ctx, testAccountID, testUserID, dto.CreateProductRequest{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "barcode requerido")

	_, err = uc.Create(ctx, testAccountID, testUserID, dto.CreateProductRequest{
		Name: "X", Barcode: "1", Price: decimal.RequireFromString("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "precio negativo")

	_, err = uc.Create(ctx, testAccountID, testUserID, dto.CreateProductRequest{
		Name: "X", Barcode: "1", InitialQuantity: -2,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad inicial negativa")
}

func TestGetByBarcode_AisladoPorCuenta(t *testing.T) {
	uc, _ := newCatalog(t)

	_, err := uc.Create(context.Background(), testAccountID, testUserID, dto.CreateProductRequest{
		Name: "Lavandina", Barcode: "333",
	})
	require.NoError(t, err)

	p, err := uc.GetByBarcode(context.Background(), testAccountID, "333")
	require.NoError(t, err)
	assert.Equal(t, "Lavandina", p.Name)

	_, err = uc.GetByBarcode(context.Background(), otherAccount, "333")
	assert.ErrorIs(t, err, domain.ErrNotFound, "otra cuenta no ve el producto")
}

func TestList_BusquedaInsensibleATildes(t *testing.T) {
	uc, _ := newCatalog(t)
	ctx := context.Background()

	for _, name := range []string{"Jabón líquido", "Esponja", "Limpiavidrios"} {
		_, err := uc.Create(ctx, testAccountID, testUserID, dto.CreateProductRequest{
			Name: name, Barcode: name,
		})
		require.NoError(t, err)
	}

	out, err := uc.List(ctx, testAccountID, "jabon", 10, 0)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Jabón líquido", out.Items[0].Name)

	out, err = uc.List(ctx, testAccountID, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, out.Items, 3)
}

func TestUpdate_BarcodeInmutable(t *testing.T) {
	uc, _ := newCatalog(t)

	p, err := uc.Create(context.Background(), testAccountID, testUserID, dto.CreateProductRequest{
		Name: "Cloro", Barcode: "444", Price: decimal.RequireFromString("2.00"),
	})
	require.NoError(t, err)

	newName := "Cloro concentrado"
	newPrice := decimal.RequireFromString("2.75")
	updated, err := uc.Update(context.Background(), testAccountID, p.ID, dto.UpdateProductRequest{
		Name:  &newName,
		Price: &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cloro concentrado", updated.Name)
	assert.True(t, newPrice.Equal(updated.Price))
	assert.Equal(t, "444", updated.Barcode, "el código de barras no cambia")

	_, err = uc.Update(context.Background(), otherAccount, p.ID, dto.UpdateProductRequest{Name: &newName})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_AisladoPorCuenta(t *testing.T) {
	uc, _ := newCatalog(t)

	p, err := uc.Create(context.Background(), testAccountID, testUserID, dto.CreateProductRequest{
		Name: "Trapo", Barcode: "555",
	})
	require.NoError(t, err)

	err = uc.Delete(context.Background(), otherAccount, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, uc.Delete(context.Background(), testAccountID, p.ID))
	_, err = uc.GetByBarcode(context.Background(), testAccountID, "555")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLowStock_SoloBajoElUmbral(t *testing.T) {
	uc, ledgerUC := newCatalog(t)
	ctx := context.Background()

	low, err := uc.Create(ctx, testAccountID, testUserID, dto.CreateProductRequest{
		Name: "Escoba", Barcode: "a", MinQuantity: 10, InitialQuantity: 4,
	})
	require.NoError(t, err)
	_, err = uc.Create(ctx, testAccountID, testUserID, dto.CreateProductRequest{
		Name: "Balde", Barcode: "b", MinQuantity: 3, InitialQuantity: 8,
	})
	require.NoError(t, err)
	// Sin movimientos: cuenta como cantidad 0.
	zero, err := uc.Create(ctx, testAccountID, testUserID, dto.CreateProductRequest{
		Name: "Guantes", Barcode: "c", MinQuantity: 2,
	})
	require.NoError(t, err)

	items, err := uc.LowStock(ctx, testAccountID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	ids := []string{items[0].ProductID, items[1].ProductID}
	assert.Contains(t, ids, low.ID)
	assert.Contains(t, ids, zero.ID)

	// Reponer saca al producto de la lista.
	_, err = ledgerUC.Increase(ctx, ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: low.ID, Amount: 20,
	})
	require.NoError(t, err)
	items, err = uc.LowStock(ctx, testAccountID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, zero.ID, items[0].ProductID)
}

func TestNormalizeSearch(t *testing.T) {
	assert.Equal(t, "jabon liquido", catalog.NormalizeSearch("Jabón Líquido"))
	assert.Equal(t, "cafe", catalog.NormalizeSearch("CAFÉ"))
	assert.Equal(t, "nino", catalog.NormalizeSearch("Niño"))
}
