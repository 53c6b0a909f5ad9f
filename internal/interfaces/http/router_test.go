package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/auth"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/application/reporting"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Kardex-api/internal/interfaces/http"
)

// newTestAPI levanta la API completa sobre la infraestructura en memoria:
// el mismo cableado que cmd/api con driver "memory".
func newTestAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	productRepo := memory.NewProductRepository(store)
	movementRepo := memory.NewStockMovementRepository(store)
	userRepo := memory.NewUserRepository(store)

	ledgerSvc := ledger.NewService(
		memory.NewTxRunner(store),
		productRepo,
		movementRepo,
		auth.NewRolePolicy(),
	)
	reportingUC := reporting.NewUseCase(movementRepo, productRepo)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     testJWTSecret,
		ExpMinutes: testExpMin,
		Issuer:     testIssuer,
	})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:            ledgerSvc,
		Reporting:         reportingUC,
		AuthUC:            authUC,
		JWTSecret:         testJWTSecret,
		LowStockThreshold: 5,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// registerAndLogin registra un usuario con el rol dado y devuelve su token.
func registerAndLogin(t *testing.T, app *fiber.App, username, role string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Username: username,
		Password: "super-secreta-123",
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Username: username,
		Password: "super-secreta-123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	require.NotEmpty(t, login.Token)
	require.Equal(t, role, login.User.Role)
	return login.Token
}

func TestAPI_FlujoCompletoDelKardex(t *testing.T) {
	app := newTestAPI(t)
	adminToken := registerAndLogin(t, app, "admin1", entity.RoleAdmin)

	// Crear producto con stock inicial 10
	resp := doJSON(t, app, http.MethodPost, "/api/products/", adminToken, dto.CreateProductRequest{
		Name:  "Teclado",
		Stock: 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decode[dto.ProductResponse](t, resp)
	require.NotEmpty(t, product.ID)
	assert.EqualValues(t, 10, product.Stock)

	// ENTRADA +5
	resp = doJSON(t, app, http.MethodPost, "/api/stock-movements/", adminToken, dto.RecordMovementRequest{
		ProductID: product.ID,
		Type:      entity.MovementTypeEntrada,
		Quantity:  5,
		Reason:    "compra",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	mov := decode[dto.MovementResponse](t, resp)
	assert.EqualValues(t, 10, mov.StockBefore)
	assert.EqualValues(t, 15, mov.StockAfter)
	assert.Equal(t, "admin1", mov.Username)

	// SALIDA que dejaría stock negativo → 422 INVALID_MOVEMENT
	resp = doJSON(t, app, http.MethodPost, "/api/stock-movements/", adminToken, dto.RecordMovementRequest{
		ProductID: product.ID,
		Type:      entity.MovementTypeSalida,
		Quantity:  -20,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INVALID_MOVEMENT", errBody.Code)

	// Stock actual vía endpoint dedicado
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/stock-movements/product/%s/stock", product.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stockBody := decode[map[string]any](t, resp)
	assert.EqualValues(t, 15, stockBody["stock"])

	// Historial del producto: AJUSTE_INICIAL + ENTRADA
	resp = doJSON(t, app, http.MethodGet, "/api/stock-movements/product/"+product.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]dto.MovementResponse](t, resp)
	require.Len(t, history, 2)
	assert.Equal(t, entity.MovementTypeAjusteInicial, history[0].Type)
	assert.Equal(t, entity.MovementTypeEntrada, history[1].Type)

	// Stats del catálogo
	resp = doJSON(t, app, http.MethodGet, "/api/products/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[dto.ProductStats](t, resp)
	assert.Equal(t, dto.ProductStats{TotalProducts: 1, LowStockProducts: 0}, stats)

	// Resumen del período (últimos 7 días por defecto):
	// el AJUSTE_INICIAL no suma, solo la ENTRADA.
	resp = doJSON(t, app, http.MethodGet, "/api/stock-movements/stats/summary", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[dto.PeriodSummary](t, resp)
	assert.Equal(t, dto.PeriodSummary{TotalEntradas: 5, TotalSalidas: 0}, summary)

	// Conteo por tipo
	resp = doJSON(t, app, http.MethodGet, "/api/stock-movements/stats/movements-by-type", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	types := decode[[]dto.MovementTypeStat](t, resp)
	assert.Contains(t, types, dto.MovementTypeStat{Type: entity.MovementTypeAjusteInicial, Count: 1})
	assert.Contains(t, types, dto.MovementTypeStat{Type: entity.MovementTypeEntrada, Count: 1})

	// Dashboard combinado
	resp = doJSON(t, app, http.MethodGet, "/api/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dashboard := decode[map[string]json.RawMessage](t, resp)
	require.Contains(t, dashboard, "productStats")
	require.Contains(t, dashboard, "movementsByType")
	require.Contains(t, dashboard, "weeklySummary")
	var weekly dto.PeriodSummary
	require.NoError(t, json.Unmarshal(dashboard["weeklySummary"], &weekly))
	assert.Equal(t, summary, weekly)
}

func TestAPI_RolUserEsSoloLectura(t *testing.T) {
	app := newTestAPI(t)
	adminToken := registerAndLogin(t, app, "admin1", entity.RoleAdmin)
	userToken := registerAndLogin(t, app, "lector", entity.RoleUser)

	resp := doJSON(t, app, http.MethodPost, "/api/products/", adminToken, dto.CreateProductRequest{
		Name: "Mouse", Stock: 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decode[dto.ProductResponse](t, resp)

	// Escrituras bloqueadas por el middleware de roles
	resp = doJSON(t, app, http.MethodPost, "/api/products/", userToken, dto.CreateProductRequest{
		Name: "Pad", Stock: 1,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/stock-movements/", userToken, dto.RecordMovementRequest{
		ProductID: product.ID, Type: entity.MovementTypeEntrada, Quantity: 1,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, "/api/products/"+product.ID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Las lecturas sí pasan
	resp = doJSON(t, app, http.MethodGet, "/api/products/", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/stock-movements/", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Sin token no hay lectura
	resp = doJSON(t, app, http.MethodGet, "/api/products/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_ProductoBorradoConservaHistorial(t *testing.T) {
	app := newTestAPI(t)
	adminToken := registerAndLogin(t, app, "admin1", entity.RoleAdmin)

	resp := doJSON(t, app, http.MethodPost, "/api/products/", adminToken, dto.CreateProductRequest{
		Name: "Escáner", Stock: 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	product := decode[dto.ProductResponse](t, resp)

	resp = doJSON(t, app, http.MethodDelete, "/api/products/"+product.ID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// El producto ya no es visible
	resp = doJSON(t, app, http.MethodGet, "/api/products/"+product.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Registrar contra él falla con 404
	resp = doJSON(t, app, http.MethodPost, "/api/stock-movements/", adminToken, dto.RecordMovementRequest{
		ProductID: product.ID, Type: entity.MovementTypeEntrada, Quantity: 1,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Pero su historial sigue disponible para auditoría
	resp = doJSON(t, app, http.MethodGet, "/api/stock-movements/product/"+product.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]dto.MovementResponse](t, resp)
	assert.Len(t, history, 1)
}

func TestAPI_RegistroDuplicado(t *testing.T) {
	app := newTestAPI(t)
	registerAndLogin(t, app, "ana", entity.RoleAdmin)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Username: "ana",
		Password: "otra-clave-larga",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "USERNAME_TAKEN", errBody.Code)
}

func TestAPI_LoginCredencialesInvalidas(t *testing.T) {
	app := newTestAPI(t)
	registerAndLogin(t, app, "ana", entity.RoleUser)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Username: "ana",
		Password: "clave-equivocada",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Username: "no-existe",
		Password: "lo-que-sea",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
