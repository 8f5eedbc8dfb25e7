package sales_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/sales"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testProductID  = "prod-1"
	testBatchID    = "batch-1"
	testLocationID = "loc-a"
	testCustomerID = "customer-1"
	testUserID     = "user-1"
)

type testEnv struct {
	store  *memory.Store
	uc     *sales.UseCase
	invOps *inventory.OperationsUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()

	store.Products().AddProduct(&entity.Product{ID: testProductID, SKU: "SKU-1", Name: "Tornillo M6"})
	require.NoError(t, store.Warehouses().Create(&entity.Warehouse{ID: "wh-1", Name: "Central"}))
	require.NoError(t, store.Locations().Create(&entity.Location{ID: testLocationID, WarehouseID: "wh-1", Code: "A-01"}))
	require.NoError(t, store.Batches().Create(&entity.StockBatch{ID: testBatchID, ProductID: testProductID, BatchNo: "L-001"}))

	invOps := inventory.NewOperationsUseCase(store, store.Movements(), store.Positions(), store.Batches(), store.Locations())
	uc := sales.NewUseCase(store, store.SalesOrders(), store.Products(), invOps)
	return &testEnv{store: store, uc: uc, invOps: invOps}
}

// seedStock recibe qty unidades en la ubicación de prueba.
func (e *testEnv) seedStock(t *testing.T, qty int64) {
	t.Helper()
	_, err := e.invOps.Receive(context.Background(), inventory.MovementInput{
		StockBatchID: testBatchID,
		LocationID:   testLocationID,
		Quantity:     qty,
		Reference:    "seed",
	})
	require.NoError(t, err)
}

// createApproved crea una orden con una línea de qty unidades y la aprueba.
func (e *testEnv) createApproved(t *testing.T, qty int64) *entity.SalesOrder {
	t.Helper()
	price := decimal.NewFromInt(7)
	so, err := e.uc.Create(context.Background(), sales.CreateInput{
		CustomerID: testCustomerID,
		Items: []sales.CreateItemInput{
			{ProductID: testProductID, StockBatchID: testBatchID, Qty: qty, UnitPrice: &price},
		},
	}, testUserID)
	require.NoError(t, err)
	so, err = e.uc.Submit(context.Background(), so.ID, testUserID)
	require.NoError(t, err)
	return so
}

func (e *testEnv) fulfillLine(t *testing.T, so *entity.SalesOrder, qty int64, idemKey string) (*entity.SalesOrder, error) {
	t.Helper()
	return e.uc.Fulfill(context.Background(), so.ID, []sales.FulfillItemInput{
		{
			ItemID:         so.Items[0].ID,
			StockBatchID:   testBatchID,
			LocationID:     testLocationID,
			QtyToFulfill:   qty,
			IdempotencyKey: idemKey,
		},
	}, testUserID)
}

func (e *testEnv) available(t *testing.T) int64 {
	t.Helper()
	pos, err := e.store.Positions().Get(testBatchID, testLocationID)
	require.NoError(t, err)
	return pos.AvailableQty
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación y submit
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_PendingConTotal(t *testing.T) {
	env := newTestEnv(t)
	price := decimal.NewFromInt(7)

	so, err := env.uc.Create(context.Background(), sales.CreateInput{
		CustomerID: testCustomerID,
		Items: []sales.CreateItemInput{
			{ProductID: testProductID, Qty: 3, UnitPrice: &price},
			{ProductID: testProductID, Qty: 2},
		},
	}, testUserID)
	require.NoError(t, err)

	assert.Equal(t, entity.SoStatusPending, so.Status)
	assert.NotEmpty(t, so.SoNo)
	// 3 * 7 = 21; la línea sin precio aporta cero al total
	assert.True(t, so.TotalAmount.Equal(decimal.NewFromInt(21)),
		"total esperado 21, obtenido %s", so.TotalAmount)
}

func TestCreate_CantidadInvalida(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.Create(context.Background(), sales.CreateInput{
		CustomerID: testCustomerID,
		Items:      []sales.CreateItemInput{{ProductID: testProductID, Qty: 0}},
	}, testUserID)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestSubmit_PendingPasaAApproved(t *testing.T) {
	env := newTestEnv(t)
	so := env.createApproved(t, 5)

	assert.Equal(t, entity.SoStatusApproved, so.Status)
	assert.NotNil(t, so.PlacedAt)
}

func TestSubmit_Repetido_EstadoInvalido(t *testing.T) {
	env := newTestEnv(t)
	so := env.createApproved(t, 5)

	_, err := env.uc.Submit(context.Background(), so.ID, testUserID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// ──────────────────────────────────────────────────────────────────────────────
// Despacho
// ──────────────────────────────────────────────────────────────────────────────

func TestFulfill_Parcial_EstadoProcessing(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	so := env.createApproved(t, 10)

	so, err := env.fulfillLine(t, so, 4, "")
	require.NoError(t, err)

	assert.Equal(t, entity.SoStatusProcessing, so.Status)
	assert.Equal(t, int64(4), so.Items[0].QtyFulfilled)
	assert.Equal(t, int64(16), env.available(t))
}

func TestFulfill_Total_EstadoShipped(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	so := env.createApproved(t, 10)

	so, err := env.fulfillLine(t, so, 4, "")
	require.NoError(t, err)
	so, err = env.fulfillLine(t, so, 6, "")
	require.NoError(t, err)

	assert.Equal(t, entity.SoStatusShipped, so.Status)
	assert.Equal(t, int64(10), so.Items[0].QtyFulfilled)
	assert.Equal(t, int64(10), env.available(t))
}

func TestFulfill_EnPending_EstadoInvalido(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	price := decimal.NewFromInt(7)
	so, err := env.uc.Create(context.Background(), sales.CreateInput{
		CustomerID: testCustomerID,
		Items:      []sales.CreateItemInput{{ProductID: testProductID, Qty: 5, UnitPrice: &price}},
	}, testUserID)
	require.NoError(t, err)

	_, err = env.fulfillLine(t, so, 2, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// El despacho que excede el stock disponible se rechaza con las cantidades en
// el error y sin efectos: orden, línea e inventario quedan como estaban.
func TestFulfill_StockInsuficiente_SinEfectos(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 3)
	so := env.createApproved(t, 10)

	_, err := env.fulfillLine(t, so, 5, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficientErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, int64(5), insufficientErr.Requested)
	assert.Equal(t, int64(3), insufficientErr.Available)

	so, err = env.uc.GetByID(context.Background(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), so.Items[0].QtyFulfilled)
	assert.Equal(t, entity.SoStatusApproved, so.Status)
	assert.Equal(t, int64(3), env.available(t))
}

func TestFulfill_ExcedePendiente_Rechazado(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	so := env.createApproved(t, 10)

	so, err := env.fulfillLine(t, so, 8, "")
	require.NoError(t, err)

	_, err = env.fulfillLine(t, so, 5, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuantityExceeded)

	var qtyErr *domain.QuantityExceededError
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, int64(2), qtyErr.Remaining)
}

// Reintento del despacho con la misma clave: un solo movimiento, un solo
// descuento de stock y la línea avanza una sola vez.
func TestFulfill_ReintentoConClave_NoDuplica(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	so := env.createApproved(t, 10)

	so, err := env.fulfillLine(t, so, 4, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), so.Items[0].QtyFulfilled)

	so, err = env.fulfillLine(t, so, 4, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), so.Items[0].QtyFulfilled, "el reintento no debe duplicar el avance")
	assert.Equal(t, int64(16), env.available(t), "el reintento no debe volver a descontar stock")

	dispatches := 0
	movs, err := env.store.Movements().ListByBatch(testBatchID, nil, nil, 100, 0)
	require.NoError(t, err)
	for _, m := range movs {
		if m.Type == entity.MovementTypeDispatch {
			dispatches++
		}
	}
	assert.Equal(t, 1, dispatches, "debe existir exactamente un movimiento de despacho")
}

// Reintento del despacho completo después de que la orden quedó shipped: el
// reenvío con la misma clave devuelve la orden tal como quedó, sin rechazarla
// por estado y sin volver a mover inventario.
func TestFulfill_ReintentoTotalTrasShipped_DevuelveOriginal(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	so := env.createApproved(t, 10)

	so, err := env.fulfillLine(t, so, 10, "k1")
	require.NoError(t, err)
	require.Equal(t, entity.SoStatusShipped, so.Status)

	so, err = env.fulfillLine(t, so, 10, "k1")
	require.NoError(t, err, "el reenvío completo debe responder con éxito")
	assert.Equal(t, entity.SoStatusShipped, so.Status)
	assert.Equal(t, int64(10), so.Items[0].QtyFulfilled)
	assert.Equal(t, int64(10), env.available(t), "el reenvío no debe volver a descontar stock")

	dispatches := 0
	movs, err := env.store.Movements().ListByBatch(testBatchID, nil, nil, 100, 0)
	require.NoError(t, err)
	for _, m := range movs {
		if m.Type == entity.MovementTypeDispatch {
			dispatches++
		}
	}
	assert.Equal(t, 1, dispatches, "debe existir exactamente un movimiento de despacho")
}

// Dos líneas de la misma tanda contra el mismo ítem se validan acumuladas:
// 6 + 6 sobre un pendiente de 10 se rechaza completo, sin efectos.
func TestFulfill_ItemRepetidoEnTanda_Rechazado(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	so := env.createApproved(t, 10)

	_, err := env.uc.Fulfill(context.Background(), so.ID, []sales.FulfillItemInput{
		{ItemID: so.Items[0].ID, StockBatchID: testBatchID, LocationID: testLocationID, QtyToFulfill: 6},
		{ItemID: so.Items[0].ID, StockBatchID: testBatchID, LocationID: testLocationID, QtyToFulfill: 6},
	}, testUserID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuantityExceeded)

	var qtyErr *domain.QuantityExceededError
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, int64(12), qtyErr.Requested)
	assert.Equal(t, int64(10), qtyErr.Remaining)

	so, err = env.uc.GetByID(context.Background(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), so.Items[0].QtyFulfilled)
	assert.Equal(t, entity.SoStatusApproved, so.Status)
	assert.Equal(t, int64(20), env.available(t))
}

// Una tanda mixta sobre una orden shipped sí se rechaza por estado: solo el
// reenvío puro (todas las líneas ya aplicadas) queda exento del chequeo.
func TestFulfill_TandaMixtaTrasShipped_EstadoInvalido(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	so := env.createApproved(t, 10)

	so, err := env.fulfillLine(t, so, 10, "k1")
	require.NoError(t, err)
	require.Equal(t, entity.SoStatusShipped, so.Status)

	_, err = env.uc.Fulfill(context.Background(), so.ID, []sales.FulfillItemInput{
		{ItemID: so.Items[0].ID, StockBatchID: testBatchID, LocationID: testLocationID, QtyToFulfill: 10, IdempotencyKey: "k1"},
		{ItemID: so.Items[0].ID, StockBatchID: testBatchID, LocationID: testLocationID, QtyToFulfill: 1, IdempotencyKey: "k2"},
	}, testUserID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// La tanda es todo-o-nada: si una línea falla por stock, la línea anterior
// tampoco deja efectos.
func TestFulfill_TandaInvalida_RollbackCompleto(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 5)
	price := decimal.NewFromInt(7)
	so, err := env.uc.Create(context.Background(), sales.CreateInput{
		CustomerID: testCustomerID,
		Items: []sales.CreateItemInput{
			{ProductID: testProductID, Qty: 4, UnitPrice: &price},
			{ProductID: testProductID, Qty: 4, UnitPrice: &price},
		},
	}, testUserID)
	require.NoError(t, err)
	so, err = env.uc.Submit(context.Background(), so.ID, testUserID)
	require.NoError(t, err)

	// 4 + 4 > 5 disponibles: la segunda línea falla y arrastra la primera
	_, err = env.uc.Fulfill(context.Background(), so.ID, []sales.FulfillItemInput{
		{ItemID: so.Items[0].ID, StockBatchID: testBatchID, LocationID: testLocationID, QtyToFulfill: 4},
		{ItemID: so.Items[1].ID, StockBatchID: testBatchID, LocationID: testLocationID, QtyToFulfill: 4},
	}, testUserID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	so, err = env.uc.GetByID(context.Background(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), so.Items[0].QtyFulfilled)
	assert.Equal(t, int64(0), so.Items[1].QtyFulfilled)
	assert.Equal(t, entity.SoStatusApproved, so.Status)
	assert.Equal(t, int64(5), env.available(t))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación y actualización
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_OrdenShipped_Terminal(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	so := env.createApproved(t, 10)
	so, err := env.fulfillLine(t, so, 10, "")
	require.NoError(t, err)
	require.Equal(t, entity.SoStatusShipped, so.Status)

	_, err = env.uc.Cancel(context.Background(), so.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	var stateErr *domain.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, entity.SoStatusShipped, stateErr.Current, "el error debe nombrar el estado actual")
}

func TestCancel_OrdenProcessing_Permitido(t *testing.T) {
	env := newTestEnv(t)
	env.seedStock(t, 20)
	so := env.createApproved(t, 10)
	so, err := env.fulfillLine(t, so, 4, "")
	require.NoError(t, err)

	so, err = env.uc.Cancel(context.Background(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SoStatusCancelled, so.Status)
}

func TestUpdate_PendingRecalculaTotal(t *testing.T) {
	env := newTestEnv(t)
	price := decimal.NewFromInt(7)
	so, err := env.uc.Create(context.Background(), sales.CreateInput{
		CustomerID: testCustomerID,
		Items:      []sales.CreateItemInput{{ProductID: testProductID, Qty: 3, UnitPrice: &price}},
	}, testUserID)
	require.NoError(t, err)

	newQty := int64(6)
	so, err = env.uc.Update(context.Background(), so.ID, sales.UpdateInput{
		Items: []sales.UpdateItemInput{{ItemID: so.Items[0].ID, Qty: &newQty}},
	})
	require.NoError(t, err)
	assert.True(t, so.TotalAmount.Equal(decimal.NewFromInt(42)),
		"total esperado 42, obtenido %s", so.TotalAmount)
}

func TestUpdate_OrdenAprobada_EstadoInvalido(t *testing.T) {
	env := newTestEnv(t)
	so := env.createApproved(t, 5)

	newQty := int64(1)
	_, err := env.uc.Update(context.Background(), so.ID, sales.UpdateInput{
		Items: []sales.UpdateItemInput{{ItemID: so.Items[0].ID, Qty: &newQty}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
