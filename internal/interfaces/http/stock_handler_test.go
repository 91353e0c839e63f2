package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/auth"
	"github.com/jhoicas/kardex-api/internal/application/catalog"
	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/ledger"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/kardex-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// App de prueba: API completa sobre los repositorios en memoria
// ──────────────────────────────────────────────────────────────────────────────

type testAPI struct {
	app   *fiber.App
	token string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	ledgerUC := ledger.NewUseCase(
		memory.NewTxRunner(store),
		memory.NewProductRepository(store),
		memory.NewStockRecordRepository(store),
		memory.NewMovementRepository(store),
		ledger.Config{MaxRetries: 3, RetryBackoff: time.Millisecond},
	)
	catalogUC := catalog.NewUseCase(memory.NewProductRepository(store), ledgerUC)
	authUC := auth.NewUseCase(
		memory.NewUserRepository(store),
		memory.NewAccountRepository(store),
		auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer},
	)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    authUC,
		CatalogUC: catalogUC,
		LedgerUC:  ledgerUC,
		JWTSecret: testJWTSecret,
	})

	api := &testAPI{app: app}
	api.register(t, "Mi Negocio", "dueno@negocio.com")
	return api
}

func (a *testAPI) register(t *testing.T, accountName, email string) {
	t.Helper()
	status, _ := a.doJSON(t, http.MethodPost, "/api/auth/register", map[string]any{
		"account_name": accountName, "email": email, "password": "supersecreta",
	})
	require.Equal(t, http.StatusCreated, status)

	var login dto.LoginResponse
	status, body := a.doJSON(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email": email, "password": "supersecreta",
	})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &login))
	a.token = "Bearer " + login.Token
}

// doJSON lanza una petición con cuerpo JSON opcional y devuelve status + body.
func (a *testAPI) doJSON(t *testing.T, method, path string, payload any) (int, []byte) {
	t.Helper()
	var reqBody *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", a.token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out.Bytes()
}

func (a *testAPI) createProduct(t *testing.T, name, barcode string, initial int64) dto.ProductResponse {
	t.Helper()
	status, body := a.doJSON(t, http.MethodPost, "/api/products", map[string]any{
		"name": name, "barcode": barcode, "price": "2.50", "initial_quantity": initial,
	})
	require.Equal(t, http.StatusCreated, status, "crear producto: %s", body)
	var p dto.ProductResponse
	require.NoError(t, json.Unmarshal(body, &p))
	return p
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo de stock por la API
// ──────────────────────────────────────────────────────────────────────────────

func TestStockAPI_EntradaSalidaYCantidad(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProduct(t, "Detergente", "779000001", 0)

	status, body := api.doJSON(t, http.MethodPost, "/api/stock/increase", map[string]any{
		"barcode": "779000001", "amount": 10,
	})
	require.Equal(t, http.StatusOK, status, "%s", body)
	var change dto.StockChangeResponse
	require.NoError(t, json.Unmarshal(body, &change))
	assert.Equal(t, p.ID, change.ProductID)
	assert.Equal(t, int64(10), change.NewQuantity)
	assert.NotZero(t, change.MovementID)

	status, body = api.doJSON(t, http.MethodPost, "/api/stock/decrease", map[string]any{
		"barcode": "779000001", "amount": 7,
	})
	require.Equal(t, http.StatusOK, status, "%s", body)
	require.NoError(t, json.Unmarshal(body, &change))
	assert.Equal(t, int64(3), change.NewQuantity)

	status, body = api.doJSON(t, http.MethodGet, "/api/stock/"+p.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var qty dto.QuantityResponse
	require.NoError(t, json.Unmarshal(body, &qty))
	assert.Equal(t, int64(3), qty.Quantity)
}

func TestStockAPI_SalidaInsuficiente_409ConDisponible(t *testing.T) {
	api := newTestAPI(t)
	api.createProduct(t, "Jabón", "779000002", 3)

	status, body := api.doJSON(t, http.MethodPost, "/api/stock/decrease", map[string]any{
		"barcode": "779000002", "amount": 5,
	})
	require.Equal(t, http.StatusConflict, status)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)
	require.NotNil(t, errResp.Available, "la respuesta debe incluir la cantidad disponible")
	assert.Equal(t, int64(3), *errResp.Available)
}

func TestStockAPI_Ajuste(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProduct(t, "Esponja", "779000003", 10)

	status, body := api.doJSON(t, http.MethodPost, "/api/stock/adjust", map[string]any{
		"product_id": p.ID, "delta": -4, "reason": "conteo físico",
	})
	require.Equal(t, http.StatusOK, status, "%s", body)
	var change dto.StockChangeResponse
	require.NoError(t, json.Unmarshal(body, &change))
	assert.Equal(t, int64(6), change.NewQuantity)

	// Delta cero no es un ajuste.
	status, _ = api.doJSON(t, http.MethodPost, "/api/stock/adjust", map[string]any{
		"product_id": p.ID, "delta": 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStockAPI_BarcodeDesconocido_404(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.doJSON(t, http.MethodPost, "/api/stock/increase", map[string]any{
		"barcode": "no-existe", "amount": 1,
	})
	assert.Equal(t, http.StatusNotFound, status)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "NOT_FOUND", errResp.Code)
}

func TestStockAPI_Movimientos_PaginacionYOrden(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProduct(t, "Cloro", "779000004", 0)

	for i := 0; i < 3; i++ {
		status, _ := api.doJSON(t, http.MethodPost, "/api/stock/increase", map[string]any{
			"barcode": "779000004", "amount": 1,
		})
		require.Equal(t, http.StatusOK, status)
	}

	status, body := api.doJSON(t, http.MethodGet, "/api/stock/"+p.ID+"/movements?limit=2", nil)
	require.Equal(t, http.StatusOK, status)
	var page dto.MovementListResponse
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 2)
	assert.Greater(t, page.Items[0].ID, page.Items[1].ID, "más reciente primero")
	require.NotZero(t, page.NextBeforeID)

	path := fmt.Sprintf("/api/stock/%s/movements?limit=2&before_id=%d", p.ID, page.NextBeforeID)
	status, body = api.doJSON(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 1)
	assert.Zero(t, page.NextBeforeID, "última página")
}

func TestStockAPI_RequiereToken(t *testing.T) {
	api := newTestAPI(t)
	api.token = ""

	status, _ := api.doJSON(t, http.MethodPost, "/api/stock/increase", map[string]any{
		"barcode": "x", "amount": 1,
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

// Aislamiento entre cuentas: la cuenta B no ve productos ni stock de la A.
func TestStockAPI_AislamientoEntreCuentas(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProduct(t, "Guantes", "779000005", 5)

	// Segunda cuenta con su propio token.
	api.register(t, "Otro Negocio", "otro@negocio.com")

	status, _ := api.doJSON(t, http.MethodGet, "/api/stock/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, status, "el producto de otra cuenta se reporta como inexistente")

	status, _ = api.doJSON(t, http.MethodPost, "/api/stock/increase", map[string]any{
		"barcode": "779000005", "amount": 1,
	})
	assert.Equal(t, http.StatusNotFound, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo por la API
// ──────────────────────────────────────────────────────────────────────────────

func TestProductAPI_CRUDYLowStock(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProduct(t, "Escoba", "779000006", 2)

	status, body := api.doJSON(t, http.MethodGet, "/api/products/barcode/779000006", nil)
	require.Equal(t, http.StatusOK, status)
	var got dto.ProductResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, p.ID, got.ID)

	// Barcode duplicado en la misma cuenta.
	status, body = api.doJSON(t, http.MethodPost, "/api/products", map[string]any{
		"name": "Otra escoba", "barcode": "779000006",
	})
	assert.Equal(t, http.StatusConflict, status)
	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "BARCODE_EXISTS", errResp.Code)

	// min_quantity por defecto es 5 y la existencia es 2: aparece en low-stock.
	status, body = api.doJSON(t, http.MethodGet, "/api/products/low-stock", nil)
	require.Equal(t, http.StatusOK, status)
	var lows []dto.LowStockItemResponse
	require.NoError(t, json.Unmarshal(body, &lows))
	require.Len(t, lows, 1)
	assert.Equal(t, p.ID, lows[0].ProductID)

	status, body = api.doJSON(t, http.MethodPut, "/api/products/"+p.ID, map[string]any{
		"name": "Escoba reforzada",
	})
	require.Equal(t, http.StatusOK, status, "%s", body)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Escoba reforzada", got.Name)
	assert.Equal(t, "779000006", got.Barcode)

	status, _ = api.doJSON(t, http.MethodDelete, "/api/products/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.doJSON(t, http.MethodGet, "/api/products/barcode/779000006", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
