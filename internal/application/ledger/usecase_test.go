package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testAccountID = "00000000-0000-0000-0000-00000000000a"
	otherAccount  = "00000000-0000-0000-0000-00000000000b"
	testUserID    = "00000000-0000-0000-0000-000000000001"
)

type fixture struct {
	store *memory.Store
	uc    *ledger.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	uc := ledger.NewUseCase(
		memory.NewTxRunner(store),
		memory.NewProductRepository(store),
		memory.NewStockRecordRepository(store),
		memory.NewMovementRepository(store),
		ledger.Config{MaxRetries: 3, RetryBackoff: time.Millisecond},
	)
	return &fixture{store: store, uc: uc}
}

// seedProduct crea un producto directamente en el store y devuelve su ID.
func (f *fixture) seedProduct(t *testing.T, price string) string {
	t.Helper()
	p := &entity.Product{
		ID:        uuid.New().String(),
		AccountID: testAccountID,
		Name:      "Detergente 1L",
		Barcode:   uuid.New().String(),
		Unit:      "un",
		Category:  "limpieza",
		Price:     decimal.RequireFromString(price),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, memory.NewProductRepository(f.store).Create(context.Background(), p))
	return p.ID
}

func (f *fixture) increase(t *testing.T, productID string, amount int64) *ledger.ChangeResult {
	t.Helper()
	res, err := f.uc.Increase(context.Background(), ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: amount,
	})
	require.NoError(t, err)
	return res
}

// ──────────────────────────────────────────────────────────────────────────────
// Operaciones básicas
// ──────────────────────────────────────────────────────────────────────────────

func TestIncrease_CreaRegistroDesdeCero(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "2.50")

	res := f.increase(t, productID, 10)

	assert.Equal(t, int64(10), res.NewQuantity)
	assert.NotZero(t, res.MovementID, "el movimiento debe quedar registrado")

	qty, err := f.uc.GetCurrentQuantity(context.Background(), testAccountID, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)
}

func TestIncrease_MontoInvalido(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "1.00")

	for _, amount := range []int64{0, -3} {
		_, err := f.uc.Increase(context.Background(), ledger.ChangeInput{
			AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: amount,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "amount %d debe rechazarse", amount)
	}
}

func TestDecrease_DescuentaYRegistraSalida(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "2.50")
	f.increase(t, productID, 10)

	res, err := f.uc.Decrease(context.Background(), ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.NewQuantity)

	movements, _, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	// Más reciente primero.
	assert.Equal(t, entity.MovementKindSaida, movements[0].Kind)
	assert.Equal(t, int64(-7), movements[0].Delta)
	assert.Equal(t, int64(3), movements[0].ResultingQuantity)
}

func TestDecrease_StockInsuficiente_NoMutaEstado(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "2.50")
	f.increase(t, productID, 3)

	_, err := f.uc.Decrease(context.Background(), ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 5,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(3), insufficient.Available, "el error debe reportar la cantidad disponible")

	// La operación fallida no deja rastro: ni cantidad ni movimiento.
	qty, err := f.uc.GetCurrentQuantity(context.Background(), testAccountID, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)

	movements, _, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 1, "solo la entrada inicial")
}

func TestAdjust_DeltaNegativoYPositivo(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "0")
	f.increase(t, productID, 10)

	res, err := f.uc.Adjust(context.Background(), ledger.AdjustInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Delta: -4, Reason: "conteo físico",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.NewQuantity)

	res, err = f.uc.Adjust(context.Background(), ledger.AdjustInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Delta: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.NewQuantity)

	_, err = f.uc.Adjust(context.Background(), ledger.AdjustInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Delta: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "delta cero no es un ajuste")

	_, err = f.uc.Adjust(context.Background(), ledger.AdjustInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Delta: -9,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "el ajuste tampoco puede dejar cantidad negativa")
}

func TestProductoInexistente_ODeOtraCuenta(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "1.00")

	_, err := f.uc.Increase(context.Background(), ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: uuid.New().String(), Amount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Otra cuenta no distingue "no existe" de "no es tuyo".
	_, err = f.uc.Increase(context.Background(), ledger.ChangeInput{
		AccountID: otherAccount, UserID: testUserID, ProductID: productID, Amount: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.GetCurrentQuantity(context.Background(), otherAccount, productID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Valor del movimiento
// ──────────────────────────────────────────────────────────────────────────────

func TestValueSnapshot_PrecioDeListaYOverride(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "2.50")

	// Precio de lista: 10 × 2.50 = 25.00
	f.increase(t, productID, 10)
	movements, _, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 10, 0)
	require.NoError(t, err)
	require.NotNil(t, movements[0].ValueSnapshot)
	assert.Equal(t, "25.00", movements[0].ValueSnapshot.StringFixed(2))

	// Override del precio unitario: 4 × 3.00 = 12.00
	override := decimal.RequireFromString("3.00")
	_, err = f.uc.Increase(context.Background(), ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 4, UnitPrice: &override,
	})
	require.NoError(t, err)
	movements, _, err = f.uc.ListMovements(context.Background(), testAccountID, productID, 10, 0)
	require.NoError(t, err)
	require.NotNil(t, movements[0].ValueSnapshot)
	assert.Equal(t, "12.00", movements[0].ValueSnapshot.StringFixed(2))

	// Precio unitario negativo se rechaza.
	negative := decimal.RequireFromString("-1")
	_, err = f.uc.Increase(context.Background(), ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 1, UnitPrice: &negative,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValueSnapshot_SinPrecio(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "0")

	f.increase(t, productID, 5)
	movements, _, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 10, 0)
	require.NoError(t, err)
	assert.Nil(t, movements[0].ValueSnapshot, "sin precio no hay valor que congelar")
}

// ──────────────────────────────────────────────────────────────────────────────
// Historial y paginación
// ──────────────────────────────────────────────────────────────────────────────

func TestListMovements_PaginacionKeyset(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "0")
	for i := 0; i < 5; i++ {
		f.increase(t, productID, 1)
	}

	page1, next, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Greater(t, page1[0].ID, page1[1].ID, "orden descendente por ID")
	require.NotZero(t, next)

	page2, next, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 2, next)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Less(t, page2[0].ID, page1[1].ID, "la segunda página continúa donde terminó la primera")

	page3, next, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 2, next)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Zero(t, next, "página incompleta: no hay más")
}

func TestListMovements_FoldReproduceLaCantidad(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "1.00")

	f.increase(t, productID, 10)
	_, err := f.uc.Decrease(context.Background(), ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 4,
	})
	require.NoError(t, err)
	_, err = f.uc.Adjust(context.Background(), ledger.AdjustInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Delta: 3,
	})
	require.NoError(t, err)

	movements, _, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 100, 0)
	require.NoError(t, err)

	var sum int64
	for _, m := range movements {
		sum += m.Delta
	}
	qty, err := f.uc.GetCurrentQuantity(context.Background(), testAccountID, productID)
	require.NoError(t, err)
	assert.Equal(t, qty, sum, "la suma de deltas debe reconstruir la cantidad actual")

	// Y cada movimiento registra la cantidad que dejó.
	assert.Equal(t, qty, movements[0].ResultingQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// Dos salidas de 5 sobre una existencia de 5: exactamente una debe ganar.
func TestConcurrencia_DosSalidasUnaGana(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "0")
	f.increase(t, productID, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Decrease(context.Background(), ledger.ChangeInput{
				AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 5,
			})
		}(i)
	}
	wg.Wait()

	var oks, insufficients int
	for _, err := range errs {
		switch {
		case err == nil:
			oks++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficients++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, oks, "exactamente una salida debe comprometerse")
	assert.Equal(t, 1, insufficients, "la otra debe fallar por stock insuficiente")

	qty, err := f.uc.GetCurrentQuantity(context.Background(), testAccountID, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
}

// Dos primeras entradas concurrentes sobre un producto sin registro: ambas
// deben comprometerse y quedar las dos en el log.
func TestConcurrencia_PrimerasEntradasNoSePisan(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "0")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Increase(context.Background(), ledger.ChangeInput{
				AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 3,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	qty, err := f.uc.GetCurrentQuantity(context.Background(), testAccountID, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), qty)

	movements, _, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, movements, 2, "ninguna entrada puede perderse")
}

// Carga mixta: N goroutines alternando entradas y salidas. Al final la suma de
// deltas comprometidos debe coincidir con la cantidad y nunca hubo negativo.
func TestConcurrencia_CargaMixta(t *testing.T) {
	f := newFixture(t)
	productID := f.seedProduct(t, "0")
	f.increase(t, productID, 100)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := ledger.ChangeInput{
				AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 7,
			}
			var err error
			if i%2 == 0 {
				_, err = f.uc.Increase(context.Background(), in)
			} else {
				_, err = f.uc.Decrease(context.Background(), in)
			}
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock, "único fallo admisible")
			}
		}(i)
	}
	wg.Wait()

	movements, _, err := f.uc.ListMovements(context.Background(), testAccountID, productID, 100, 0)
	require.NoError(t, err)
	var sum int64
	for _, m := range movements {
		sum += m.Delta
		assert.GreaterOrEqual(t, m.ResultingQuantity, int64(0), "nunca se compromete cantidad negativa")
	}
	qty, err := f.uc.GetCurrentQuantity(context.Background(), testAccountID, productID)
	require.NoError(t, err)
	assert.Equal(t, qty, sum)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reintentos ante conflicto de versión
// ──────────────────────────────────────────────────────────────────────────────

// flakyTxRunner falla las primeras N transacciones con ErrVersionConflict y
// delega el resto, para ejercitar el ciclo de reintentos del motor.
type flakyTxRunner struct {
	inner    ledger.TxRunner
	mu       sync.Mutex
	failures int
}

func (r *flakyTxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movementRepo repository.MovementRepository,
) error) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return domain.ErrVersionConflict
	}
	r.mu.Unlock()
	return r.inner.Run(ctx, fn)
}

func TestReintentos_ConflictoTransitorioSeRecupera(t *testing.T) {
	store := memory.NewStore()
	flaky := &flakyTxRunner{inner: memory.NewTxRunner(store), failures: 2}
	uc := ledger.NewUseCase(
		flaky,
		memory.NewProductRepository(store),
		memory.NewStockRecordRepository(store),
		memory.NewMovementRepository(store),
		ledger.Config{MaxRetries: 3, RetryBackoff: time.Millisecond},
	)
	f := &fixture{store: store, uc: uc}
	productID := f.seedProduct(t, "0")

	// 2 fallos + 1 éxito caben en 3 intentos.
	res, err := uc.Increase(context.Background(), ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 4,
	})
	require.NoError(t, err, "el conflicto transitorio debe resolverse reintentando")
	assert.Equal(t, int64(4), res.NewQuantity)
}

func TestReintentos_AgotadosDevuelveConflict(t *testing.T) {
	store := memory.NewStore()
	flaky := &flakyTxRunner{inner: memory.NewTxRunner(store), failures: 99}
	uc := ledger.NewUseCase(
		flaky,
		memory.NewProductRepository(store),
		memory.NewStockRecordRepository(store),
		memory.NewMovementRepository(store),
		ledger.Config{MaxRetries: 3, RetryBackoff: time.Millisecond},
	)
	f := &fixture{store: store, uc: uc}
	productID := f.seedProduct(t, "0")

	_, err := uc.Increase(context.Background(), ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 4,
	})
	assert.ErrorIs(t, err, domain.ErrConflict, "agotar los reintentos se reporta como conflicto")

	qty, err := uc.GetCurrentQuantity(context.Background(), testAccountID, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty, "nada se comprometió")
}

func TestReintentos_ContextoCanceladoAborta(t *testing.T) {
	store := memory.NewStore()
	flaky := &flakyTxRunner{inner: memory.NewTxRunner(store), failures: 99}
	uc := ledger.NewUseCase(
		flaky,
		memory.NewProductRepository(store),
		memory.NewStockRecordRepository(store),
		memory.NewMovementRepository(store),
		ledger.Config{MaxRetries: 10, RetryBackoff: 50 * time.Millisecond},
	)
	f := &fixture{store: store, uc: uc}
	productID := f.seedProduct(t, "0")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := uc.Increase(ctx, ledger.ChangeInput{
		AccountID: testAccountID, UserID: testUserID, ProductID: productID, Amount: 1,
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
