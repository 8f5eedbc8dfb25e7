package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testBatchID  = "batch-1"
	testLocA     = "loc-a"
	testLocB     = "loc-b"
	testUser     = "user-1"
	testProdukID = "prod-1"
)

// newTestEnv levanta un Store en memoria con un producto, un lote y dos
// ubicaciones, y construye el caso de uso sobre él.
func newTestEnv(t *testing.T) (*memory.Store, *inventory.OperationsUseCase) {
	t.Helper()
	store := memory.NewStore()

	store.Products().AddProduct(&entity.Product{ID: testProdukID, SKU: "SKU-1", Name: "Tornillo M6"})
	require.NoError(t, store.Warehouses().Create(&entity.Warehouse{ID: "wh-1", Name: "Central"}))
	require.NoError(t, store.Locations().Create(&entity.Location{ID: testLocA, WarehouseID: "wh-1", Code: "A-01"}))
	require.NoError(t, store.Locations().Create(&entity.Location{ID: testLocB, WarehouseID: "wh-1", Code: "B-01"}))
	require.NoError(t, store.Batches().Create(&entity.StockBatch{ID: testBatchID, ProductID: testProdukID, BatchNo: "L-001"}))

	uc := inventory.NewOperationsUseCase(store, store.Movements(), store.Positions(), store.Batches(), store.Locations())
	return store, uc
}

// receive es un atajo para sembrar stock disponible en una ubicación.
func receive(t *testing.T, uc *inventory.OperationsUseCase, locationID string, qty int64) {
	t.Helper()
	_, err := uc.Receive(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID,
		LocationID:   locationID,
		Quantity:     qty,
		Reference:    "seed",
		UserID:       testUser,
	})
	require.NoError(t, err)
}

func position(t *testing.T, store *memory.Store, locationID string) *entity.InventoryPosition {
	t.Helper()
	pos, err := store.Positions().Get(testBatchID, locationID)
	require.NoError(t, err)
	return pos
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepción y despacho
// ──────────────────────────────────────────────────────────────────────────────

func TestReceive_IncrementaDisponibleYRegistraMovimiento(t *testing.T) {
	store, uc := newTestEnv(t)

	res, err := uc.Receive(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID,
		LocationID:   testLocA,
		Quantity:     10,
		Reference:    "PO-1",
		UserID:       testUser,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Movement)
	assert.False(t, res.Deduplicated)
	assert.Equal(t, entity.MovementTypeReceipt, res.Movement.Type)
	assert.Equal(t, testLocA, res.Movement.ToLocationID)
	assert.Empty(t, res.Movement.FromLocationID, "una recepción no tiene ubicación origen")
	assert.Equal(t, testUser, res.Movement.CreatedBy)

	pos := position(t, store, testLocA)
	assert.Equal(t, int64(10), pos.AvailableQty)
	assert.Equal(t, int64(0), pos.ReservedQty)
}

func TestReceive_CantidadInvalida(t *testing.T) {
	_, uc := newTestEnv(t)

	for _, qty := range []int64{0, -5} {
		_, err := uc.Receive(context.Background(), inventory.MovementInput{
			StockBatchID: testBatchID,
			LocationID:   testLocA,
			Quantity:     qty,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "qty=%d debe rechazarse", qty)
	}
}

func TestReceive_LoteInexistente_NotFound(t *testing.T) {
	_, uc := newTestEnv(t)

	_, err := uc.Receive(context.Background(), inventory.MovementInput{
		StockBatchID: "no-existe",
		LocationID:   testLocA,
		Quantity:     1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound, "referencia inexistente nunca crea el lote implícitamente")
}

func TestDispatch_DescuentaDisponible(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 10)

	res, err := uc.Dispatch(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID,
		LocationID:   testLocA,
		Quantity:     4,
		Reference:    "SO-1",
		UserID:       testUser,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeDispatch, res.Movement.Type)
	assert.Equal(t, testLocA, res.Movement.FromLocationID)

	assert.Equal(t, int64(6), position(t, store, testLocA).AvailableQty)
}

// Un despacho que excede lo disponible se rechaza con las cantidades en el
// error y no deja ningún efecto: ni movimiento ni cambio de posición.
func TestDispatch_StockInsuficiente_SinEfectos(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 3)

	_, err := uc.Dispatch(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID,
		LocationID:   testLocA,
		Quantity:     5,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficientErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(5), insufficientErr.Requested)
	assert.Equal(t, int64(3), insufficientErr.Available)

	assert.Equal(t, int64(3), position(t, store, testLocA).AvailableQty,
		"la posición no debe cambiar tras un despacho rechazado")
	movs, err := store.Movements().ListByBatch(testBatchID, nil, nil, 100, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1, "solo debe existir el movimiento de la recepción inicial")
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia
// ──────────────────────────────────────────────────────────────────────────────

func TestReceive_ReintentoConClave_NoDuplicaEfectos(t *testing.T) {
	store, uc := newTestEnv(t)

	in := inventory.MovementInput{
		StockBatchID:   testBatchID,
		LocationID:     testLocA,
		Quantity:       10,
		Reference:      "PO-1",
		IdempotencyKey: "k1",
		UserID:         testUser,
	}
	first, err := uc.Receive(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, first.Deduplicated)

	second, err := uc.Receive(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated, "el reintento debe marcarse como deduplicado")
	assert.Equal(t, first.Movement.ID, second.Movement.ID, "debe devolverse el movimiento original")

	assert.Equal(t, int64(10), position(t, store, testLocA).AvailableQty,
		"el disponible debe reflejar una sola aplicación")
}

// La misma clave en operaciones de distinto tipo no colisiona: cada tipo de
// movimiento tiene su propio espacio de claves.
func TestIdempotencia_ClaveIndependientePorTipo(t *testing.T) {
	store, uc := newTestEnv(t)

	_, err := uc.Receive(context.Background(), inventory.MovementInput{
		StockBatchID:   testBatchID,
		LocationID:     testLocA,
		Quantity:       10,
		IdempotencyKey: "misma-clave",
	})
	require.NoError(t, err)

	res, err := uc.Dispatch(context.Background(), inventory.MovementInput{
		StockBatchID:   testBatchID,
		LocationID:     testLocA,
		Quantity:       4,
		IdempotencyKey: "misma-clave",
	})
	require.NoError(t, err)
	assert.False(t, res.Deduplicated, "el despacho no debe deduplicarse contra la clave de la recepción")
	assert.Equal(t, int64(6), position(t, store, testLocA).AvailableQty)
}

func TestReceive_SinClave_CadaLlamadaAplica(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 5)
	receive(t, uc, testLocA, 5)

	assert.Equal(t, int64(10), position(t, store, testLocA).AvailableQty)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reserva y liberación
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_IncrementaReservado(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 10)

	res, err := uc.Reserve(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID,
		LocationID:   testLocA,
		Quantity:     4,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeReservation, res.Movement.Type)

	pos := position(t, store, testLocA)
	assert.Equal(t, int64(4), pos.ReservedQty)
	assert.Equal(t, int64(10), pos.AvailableQty, "la reserva es informativa: no descuenta disponible")
}

// La reserva no condiciona el despacho: despachar más de lo no-reservado es válido.
func TestReserve_NoBloqueaDespachos(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 10)

	_, err := uc.Reserve(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID, LocationID: testLocA, Quantity: 8,
	})
	require.NoError(t, err)

	_, err = uc.Dispatch(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID, LocationID: testLocA, Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), position(t, store, testLocA).AvailableQty)
}

func TestRelease_PisoEnCero(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 10)

	_, err := uc.Reserve(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID, LocationID: testLocA, Quantity: 3,
	})
	require.NoError(t, err)

	// Liberar más de lo reservado no deja la posición negativa
	_, err = uc.Release(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID, LocationID: testLocA, Quantity: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), position(t, store, testLocA).ReservedQty)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust_PositivoYNegativo(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 10)

	res, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		StockBatchID: testBatchID,
		LocationID:   testLocA,
		Delta:        5,
		Reference:    "conteo físico",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeAdjustment, res.Movement.Type)
	assert.Equal(t, int64(5), res.Movement.Quantity)
	assert.Equal(t, testLocA, res.Movement.ToLocationID, "delta positivo apunta a destino")
	assert.Equal(t, int64(15), position(t, store, testLocA).AvailableQty)

	res, err = uc.Adjust(context.Background(), inventory.AdjustInput{
		StockBatchID: testBatchID,
		LocationID:   testLocA,
		Delta:        -3,
		Reference:    "merma",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Movement.Quantity, "la cantidad del movimiento siempre es positiva")
	assert.Equal(t, testLocA, res.Movement.FromLocationID, "delta negativo apunta a origen")
	assert.Equal(t, int64(12), position(t, store, testLocA).AvailableQty)
}

func TestAdjust_SinReferencia_Rechazado(t *testing.T) {
	_, uc := newTestEnv(t)

	_, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		StockBatchID: testBatchID,
		LocationID:   testLocA,
		Delta:        5,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "todo ajuste debe quedar justificado con referencia")
}

func TestAdjust_DeltaCero_Rechazado(t *testing.T) {
	_, uc := newTestEnv(t)

	_, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		StockBatchID: testBatchID,
		LocationID:   testLocA,
		Delta:        0,
		Reference:    "nada",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAdjust_NegativoBajoCero_Rechazado(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 2)

	_, err := uc.Adjust(context.Background(), inventory.AdjustInput{
		StockBatchID: testBatchID,
		LocationID:   testLocA,
		Delta:        -5,
		Reference:    "merma",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(2), position(t, store, testLocA).AvailableQty)
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_MueveEntreUbicaciones(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 10)

	res, err := uc.Transfer(context.Background(), inventory.TransferInput{
		StockBatchID:   testBatchID,
		FromLocationID: testLocA,
		ToLocationID:   testLocB,
		Quantity:       4,
	})
	require.NoError(t, err)
	require.NotNil(t, res.OutMovement)
	require.NotNil(t, res.InMovement)
	assert.Equal(t, entity.MovementTypeTransferOut, res.OutMovement.Type)
	assert.Equal(t, entity.MovementTypeTransferIn, res.InMovement.Type)

	assert.Equal(t, int64(6), position(t, store, testLocA).AvailableQty)
	assert.Equal(t, int64(4), position(t, store, testLocB).AvailableQty)
}

func TestTransfer_MismaUbicacion_Rechazado(t *testing.T) {
	_, uc := newTestEnv(t)

	_, err := uc.Transfer(context.Background(), inventory.TransferInput{
		StockBatchID:   testBatchID,
		FromLocationID: testLocA,
		ToLocationID:   testLocA,
		Quantity:       1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Un traslado sin stock suficiente en origen se rechaza sin tocar el destino
// ni escribir movimientos: todo o nada.
func TestTransfer_InsuficienteSinEfectos(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 2)

	_, err := uc.Transfer(context.Background(), inventory.TransferInput{
		StockBatchID:   testBatchID,
		FromLocationID: testLocA,
		ToLocationID:   testLocB,
		Quantity:       5,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(2), position(t, store, testLocA).AvailableQty)
	assert.Equal(t, int64(0), position(t, store, testLocB).AvailableQty)
	movs, err := store.Movements().ListByBatch(testBatchID, nil, nil, 100, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestTransfer_ReintentoConClave_NoDuplica(t *testing.T) {
	store, uc := newTestEnv(t)
	receive(t, uc, testLocA, 10)

	in := inventory.TransferInput{
		StockBatchID:   testBatchID,
		FromLocationID: testLocA,
		ToLocationID:   testLocB,
		Quantity:       4,
		IdempotencyKey: "t1",
	}
	first, err := uc.Transfer(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, first.Deduplicated)

	second, err := uc.Transfer(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.OutMovement.ID, second.OutMovement.ID)

	assert.Equal(t, int64(6), position(t, store, testLocA).AvailableQty)
	assert.Equal(t, int64(4), position(t, store, testLocB).AvailableQty)
}

// ──────────────────────────────────────────────────────────────────────────────
// Posición
// ──────────────────────────────────────────────────────────────────────────────

func TestGetPosition_SinMovimientos_EnCero(t *testing.T) {
	_, uc := newTestEnv(t)

	pos, err := uc.GetPosition(context.Background(), testBatchID, testLocA)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos.AvailableQty)
	assert.Equal(t, int64(0), pos.ReservedQty)
}

func TestGetPosition_UbicacionInexistente_NotFound(t *testing.T) {
	_, uc := newTestEnv(t)

	_, err := uc.GetPosition(context.Background(), testBatchID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
