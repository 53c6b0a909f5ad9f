package ledger_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/auth"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	adminActor   = entity.Actor{UserID: "u-1", Username: "ana", Role: entity.RoleAdmin}
	managerActor = entity.Actor{UserID: "u-2", Username: "benito", Role: entity.RoleManager}
	readerActor  = entity.Actor{UserID: "u-3", Username: "carla", Role: entity.RoleUser}
)

// newLedger arma el servicio sobre la infraestructura en memoria.
func newLedger(t *testing.T) *ledger.Service {
	t.Helper()
	store := memory.NewStore()
	return ledger.NewService(
		memory.NewTxRunner(store),
		memory.NewProductRepository(store),
		memory.NewStockMovementRepository(store),
		auth.NewRolePolicy(),
	)
}

// createProduct crea un producto con stock inicial y devuelve su ID.
func createProduct(t *testing.T, svc *ledger.Service, name string, stock int64) string {
	t.Helper()
	p, err := svc.CreateProduct(context.Background(), adminActor, dto.CreateProductRequest{
		Name:  name,
		Price: decimal.NewFromInt(100),
		Stock: stock,
	})
	require.NoError(t, err, "debe poderse crear el producto")
	return p.ID
}

// assertChain verifica los invariantes del kardex sobre el historial de un
// producto: aritmética de cada movimiento, cadena causal y stock cacheado
// igual al stockAfter del último movimiento.
func assertChain(t *testing.T, svc *ledger.Service, productID string) {
	t.Helper()
	ctx := context.Background()
	history, err := svc.GetHistory(ctx, productID)
	require.NoError(t, err)
	require.NotEmpty(t, history, "todo producto tiene al menos el AJUSTE_INICIAL")

	require.Equal(t, entity.MovementTypeAjusteInicial, history[0].Type,
		"el primer movimiento debe ser AJUSTE_INICIAL")
	require.EqualValues(t, 0, history[0].StockBefore,
		"el AJUSTE_INICIAL parte de stock 0")

	for i, m := range history {
		assert.Equal(t, m.StockBefore+m.QuantityChanged, m.StockAfter,
			"stockAfter debe ser stockBefore + quantityChanged en el movimiento %d", i)
		assert.GreaterOrEqual(t, m.StockAfter, int64(0),
			"ningún movimiento deja stock negativo")
		if i > 0 {
			assert.Equal(t, history[i-1].StockAfter, m.StockBefore,
				"la cadena causal no admite huecos entre %d y %d", i-1, i)
		}
	}

	stock, err := svc.GetCurrentStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, history[len(history)-1].StockAfter, stock,
		"el stock cacheado debe coincidir con el stockAfter del último movimiento")
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación y movimiento semilla
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateProduct_GeneraAjusteInicial(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()

	id := createProduct(t, svc, "Teclado", 10)

	history, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)

	seed := history[0]
	assert.Equal(t, entity.MovementTypeAjusteInicial, seed.Type)
	assert.EqualValues(t, 0, seed.StockBefore)
	assert.EqualValues(t, 10, seed.QuantityChanged)
	assert.EqualValues(t, 10, seed.StockAfter)
	assert.Equal(t, "ana", seed.Username)

	assertChain(t, svc, id)
}

func TestCreateProduct_SinPermiso(t *testing.T) {
	svc := newLedger(t)
	_, err := svc.CreateProduct(context.Background(), readerActor, dto.CreateProductRequest{
		Name: "Mouse", Stock: 3,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden, "el rol user es solo lectura")
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordMovement: escenario del kardex y reglas de signo
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_EscenarioEntradaYSalidaRechazada(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	id := createProduct(t, svc, "Monitor", 10)

	// ENTRADA +5 sobre stock 10
	mov, err := svc.RecordMovement(ctx, managerActor, dto.RecordMovementRequest{
		ProductID: id, Type: entity.MovementTypeEntrada, Quantity: 5, Reason: "compra",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 10, mov.StockBefore)
	assert.EqualValues(t, 5, mov.QuantityChanged)
	assert.EqualValues(t, 15, mov.StockAfter)
	assert.Equal(t, "benito", mov.Username)

	stock, err := svc.GetCurrentStock(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 15, stock)

	// SALIDA -20 sobre stock 15: se rechaza y no queda registrada
	before, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)

	_, err = svc.RecordMovement(ctx, managerActor, dto.RecordMovementRequest{
		ProductID: id, Type: entity.MovementTypeSalida, Quantity: -20,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement,
		"una salida que deja stock negativo se rechaza")

	after, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after), "el rechazo no registra nada")

	stock, err = svc.GetCurrentStock(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 15, stock, "el stock no cambia tras el rechazo")

	assertChain(t, svc, id)
}

func TestRecordMovement_ReglasDeSigno(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	id := createProduct(t, svc, "Cable", 50)

	cases := []struct {
		name     string
		movType  string
		quantity int64
	}{
		{"entrada negativa", entity.MovementTypeEntrada, -3},
		{"entrada cero", entity.MovementTypeEntrada, 0},
		{"salida positiva", entity.MovementTypeSalida, 3},
		{"salida cero", entity.MovementTypeSalida, 0},
		{"correccion cero", entity.MovementTypeCorreccion, 0},
		{"ajuste inicial manual", entity.MovementTypeAjusteInicial, 5},
		{"tipo desconocido", "TRASLADO", 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordMovement(ctx, adminActor, dto.RecordMovementRequest{
				ProductID: id, Type: tc.movType, Quantity: tc.quantity,
			})
			assert.ErrorIs(t, err, domain.ErrInvalidMovement)
		})
	}

	// CORRECCION admite ambos signos
	_, err := svc.RecordMovement(ctx, adminActor, dto.RecordMovementRequest{
		ProductID: id, Type: entity.MovementTypeCorreccion, Quantity: -7, Reason: "merma",
	})
	require.NoError(t, err)
	_, err = svc.RecordMovement(ctx, adminActor, dto.RecordMovementRequest{
		ProductID: id, Type: entity.MovementTypeCorreccion, Quantity: 2, Reason: "recuento",
	})
	require.NoError(t, err)

	assertChain(t, svc, id)
}

func TestRecordMovement_ProductoInexistente(t *testing.T) {
	svc := newLedger(t)
	_, err := svc.RecordMovement(context.Background(), adminActor, dto.RecordMovementRequest{
		ProductID: "no-existe", Type: entity.MovementTypeEntrada, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordMovement_SinPermiso(t *testing.T) {
	svc := newLedger(t)
	id := createProduct(t, svc, "Parlante", 4)
	_, err := svc.RecordMovement(context.Background(), readerActor, dto.RecordMovementRequest{
		ProductID: id, Type: entity.MovementTypeEntrada, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// SetAbsoluteStock
// ──────────────────────────────────────────────────────────────────────────────

func TestSetAbsoluteStock_RegistraCorreccion(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	id := createProduct(t, svc, "Impresora", 10)

	mov, err := svc.SetAbsoluteStock(ctx, adminActor, id, 4, "inventario físico")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeCorreccion, mov.Type)
	assert.EqualValues(t, 10, mov.StockBefore)
	assert.EqualValues(t, -6, mov.QuantityChanged)
	assert.EqualValues(t, 4, mov.StockAfter)

	stock, err := svc.GetCurrentStock(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stock)

	assertChain(t, svc, id)
}

func TestSetAbsoluteStock_Invalidos(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	id := createProduct(t, svc, "Router", 8)

	_, err := svc.SetAbsoluteStock(ctx, adminActor, id, 8, "")
	assert.ErrorIs(t, err, domain.ErrInvalidMovement, "sin delta no hay movimiento")

	_, err = svc.SetAbsoluteStock(ctx, adminActor, id, -1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)

	_, err = svc.SetAbsoluteStock(ctx, readerActor, id, 3, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateProduct: el stock se enruta como CORRECCION
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateProduct_StockViaCorreccion(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	id := createProduct(t, svc, "Webcam", 6)

	newName := "Webcam HD"
	newStock := int64(9)
	p, err := svc.UpdateProduct(ctx, adminActor, id, dto.UpdateProductRequest{
		Name:   &newName,
		Stock:  &newStock,
		Reason: "llegó reposición",
	})
	require.NoError(t, err)
	assert.Equal(t, "Webcam HD", p.Name)
	assert.EqualValues(t, 9, p.Stock)

	history, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2, "la edición de stock genera exactamente un movimiento")
	assert.Equal(t, entity.MovementTypeCorreccion, history[1].Type)
	assert.EqualValues(t, 3, history[1].QuantityChanged)

	assertChain(t, svc, id)
}

func TestUpdateProduct_FallaSinEstadoParcial(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	id := createProduct(t, svc, "Original", 6)

	// Un stock objetivo inválido rechaza la edición completa: ni los campos
	// descriptivos ni ningún movimiento quedan persistidos.
	newName := "Renombrado"
	badStock := int64(-1)
	_, err := svc.UpdateProduct(ctx, adminActor, id, dto.UpdateProductRequest{
		Name:  &newName,
		Stock: &badStock,
	})
	require.ErrorIs(t, err, domain.ErrInvalidMovement)

	p, err := svc.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Original", p.Name, "el nombre no cambia si la edición falla")
	assert.EqualValues(t, 6, p.Stock)

	history, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 1, "solo queda el AJUSTE_INICIAL")

	// Un precio negativo también rechaza sin tocar nada.
	badPrice := decimal.NewFromInt(-5)
	_, err = svc.UpdateProduct(ctx, adminActor, id, dto.UpdateProductRequest{
		Name:  &newName,
		Price: &badPrice,
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err = svc.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Original", p.Name)

	assertChain(t, svc, id)
}

// ──────────────────────────────────────────────────────────────────────────────
// Borrado: estado terminal, historial conservado
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteProduct_TerminalConHistorial(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	id := createProduct(t, svc, "Escáner", 5)

	_, err := svc.RecordMovement(ctx, adminActor, dto.RecordMovementRequest{
		ProductID: id, Type: entity.MovementTypeSalida, Quantity: -2,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, adminActor, id))

	// Toda mutación posterior falla con NotFound
	_, err = svc.RecordMovement(ctx, adminActor, dto.RecordMovementRequest{
		ProductID: id, Type: entity.MovementTypeEntrada, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetCurrentStock(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = svc.DeleteProduct(ctx, adminActor, id)
	assert.ErrorIs(t, err, domain.ErrNotFound, "no se puede borrar dos veces")

	// El historial sigue disponible para auditoría
	history, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	// Y el producto ya no aparece en el listado
	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	for _, p := range products {
		assert.NotEqual(t, id, p.ID)
	}
}

func TestDeleteProduct_SinPermiso(t *testing.T) {
	svc := newLedger(t)
	id := createProduct(t, svc, "Dock", 2)
	err := svc.DeleteProduct(context.Background(), readerActor, id)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas idempotentes
// ──────────────────────────────────────────────────────────────────────────────

func TestGetHistory_LecturaIdempotente(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	id := createProduct(t, svc, "SSD", 20)
	_, err := svc.RecordMovement(ctx, adminActor, dto.RecordMovementRequest{
		ProductID: id, Type: entity.MovementTypeSalida, Quantity: -5,
	})
	require.NoError(t, err)

	first, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	second, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, *first[i], *second[i],
			"dos lecturas sin escritura intermedia devuelven lo mismo")
	}
}

func TestGetHistory_GlobalOrdenado(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	idA := createProduct(t, svc, "A", 1)
	idB := createProduct(t, svc, "B", 2)
	_, err := svc.RecordMovement(ctx, adminActor, dto.RecordMovementRequest{
		ProductID: idA, Type: entity.MovementTypeEntrada, Quantity: 3,
	})
	require.NoError(t, err)

	all, err := svc.GetHistory(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].MovementDate.Before(all[i-1].MovementDate),
			"el historial global va en fecha ascendente")
	}
	_ = idB
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia: sin updates perdidos por producto
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_ConcurrenciaSinUpdatesPerdidos(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()
	id := createProduct(t, svc, "Licencia", 100)

	const writers = 30
	var wg sync.WaitGroup
	wg.Add(writers)
	errs := make(chan error, writers)

	// Mitad entradas +3, mitad salidas -2; todos los deltas son válidos en
	// cualquier orden porque el stock nunca puede bajar de cero con ellos.
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			req := dto.RecordMovementRequest{
				ProductID: id,
				Type:      entity.MovementTypeEntrada,
				Quantity:  3,
				Reason:    fmt.Sprintf("op %d", i),
			}
			if i%2 == 1 {
				req.Type = entity.MovementTypeSalida
				req.Quantity = -2
			}
			_, err := svc.RecordMovement(ctx, adminActor, req)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err, "todos los movimientos concurrentes deben aplicarse")
	}

	// 15 entradas de +3 y 15 salidas de -2: 100 + 45 - 30 = 115
	stock, err := svc.GetCurrentStock(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 115, stock, "ningún update se pierde")

	history, err := svc.GetHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, writers+1)

	assertChain(t, svc, id)
}

func TestRecordMovement_ProductosIndependientesEnParalelo(t *testing.T) {
	svc := newLedger(t)
	ctx := context.Background()

	const products = 8
	ids := make([]string, products)
	for i := range ids {
		ids[i] = createProduct(t, svc, fmt.Sprintf("P%d", i), 10)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for j := 0; j < 5; j++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := svc.RecordMovement(ctx, adminActor, dto.RecordMovementRequest{
					ProductID: id, Type: entity.MovementTypeEntrada, Quantity: 1,
				})
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range ids {
		stock, err := svc.GetCurrentStock(ctx, id)
		require.NoError(t, err)
		assert.EqualValues(t, 15, stock)
		assertChain(t, svc, id)
	}
}
