package purchase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/purchase"
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
	testSupplierID = "supplier-1"
	testUserID     = "user-1"
)

type testEnv struct {
	store *memory.Store
	uc    *purchase.UseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()

	store.Products().AddProduct(&entity.Product{ID: testProductID, SKU: "SKU-1", Name: "Tornillo M6"})
	require.NoError(t, store.Warehouses().Create(&entity.Warehouse{ID: "wh-1", Name: "Central"}))
	require.NoError(t, store.Locations().Create(&entity.Location{ID: testLocationID, WarehouseID: "wh-1", Code: "A-01"}))
	require.NoError(t, store.Batches().Create(&entity.StockBatch{ID: testBatchID, ProductID: testProductID, BatchNo: "L-001"}))

	invOps := inventory.NewOperationsUseCase(store, store.Movements(), store.Positions(), store.Batches(), store.Locations())
	uc := purchase.NewUseCase(store, store.PurchaseOrders(), store.Products(), invOps)
	return &testEnv{store: store, uc: uc}
}

// createOrdered crea una orden con una línea de qty unidades y la pasa a ordered.
func (e *testEnv) createOrdered(t *testing.T, qty int64) *entity.PurchaseOrder {
	t.Helper()
	price := decimal.NewFromInt(3)
	po, err := e.uc.Create(context.Background(), purchase.CreateInput{
		SupplierID: testSupplierID,
		Items: []purchase.CreateItemInput{
			{ProductID: testProductID, QtyOrdered: qty, UnitPrice: &price},
		},
	}, testUserID)
	require.NoError(t, err)
	po, err = e.uc.Submit(context.Background(), po.ID, testUserID)
	require.NoError(t, err)
	return po
}

func (e *testEnv) receiveLine(t *testing.T, po *entity.PurchaseOrder, qty int64, idemKey string) (*entity.PurchaseOrder, error) {
	t.Helper()
	return e.uc.Receive(context.Background(), po.ID, []purchase.ReceiveItemInput{
		{
			ItemID:         po.Items[0].ID,
			StockBatchID:   testBatchID,
			LocationID:     testLocationID,
			QtyToReceive:   qty,
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

func TestCreate_BorradorConTotalCalculado(t *testing.T) {
	env := newTestEnv(t)
	price := decimal.NewFromInt(5)

	po, err := env.uc.Create(context.Background(), purchase.CreateInput{
		SupplierID: testSupplierID,
		Notes:      "urgente",
		Items: []purchase.CreateItemInput{
			{ProductID: testProductID, QtyOrdered: 10, UnitPrice: &price},
			{ProductID: testProductID, QtyOrdered: 4},
		},
	}, testUserID)
	require.NoError(t, err)

	assert.Equal(t, entity.PoStatusDraft, po.Status)
	assert.NotEmpty(t, po.PoNo)
	assert.Equal(t, testUserID, po.CreatedBy)
	require.Len(t, po.Items, 2)
	// 10 * 5 = 50; la línea sin precio aporta cero
	assert.True(t, po.TotalAmount.Equal(decimal.NewFromInt(50)),
		"total esperado 50, obtenido %s", po.TotalAmount)
	assert.Nil(t, po.Items[1].LineTotal)
}

func TestCreate_SinLineas_Rechazado(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.Create(context.Background(), purchase.CreateInput{SupplierID: testSupplierID}, testUserID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_ProductoInexistente_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.Create(context.Background(), purchase.CreateInput{
		SupplierID: testSupplierID,
		Items:      []purchase.CreateItemInput{{ProductID: "no-existe", QtyOrdered: 1}},
	}, testUserID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmit_DraftPasaAOrdered(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	assert.Equal(t, entity.PoStatusOrdered, po.Status)
	assert.NotNil(t, po.PlacedAt, "submit debe registrar la fecha de colocación")
}

func TestSubmit_Repetido_EstadoInvalido(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	_, err := env.uc.Submit(context.Background(), po.ID, testUserID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	var stateErr *domain.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, entity.PoStatusOrdered, stateErr.Current)
}

func TestSubmit_SinUsuario_Rechazado(t *testing.T) {
	env := newTestEnv(t)

	price := decimal.NewFromInt(1)
	draft, err := env.uc.Create(context.Background(), purchase.CreateInput{
		SupplierID: testSupplierID,
		Items:      []purchase.CreateItemInput{{ProductID: testProductID, QtyOrdered: 1, UnitPrice: &price}},
	}, testUserID)
	require.NoError(t, err)

	_, err = env.uc.Submit(context.Background(), draft.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepción
// ──────────────────────────────────────────────────────────────────────────────

// Recepción parcial: la línea avanza, el inventario sube y el estado derivado
// queda en partial.
func TestReceive_Parcial_EstadoPartial(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	po, err := env.receiveLine(t, po, 4, "")
	require.NoError(t, err)

	assert.Equal(t, entity.PoStatusPartial, po.Status)
	assert.Equal(t, int64(4), po.Items[0].QtyReceived)
	assert.Equal(t, int64(6), po.Items[0].Remaining())
	assert.Equal(t, int64(4), env.available(t))

	movs, err := env.store.Movements().ListByBatch(testBatchID, nil, nil, 100, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeReceipt, movs[0].Type)
	assert.Equal(t, po.PoNo, movs[0].Reference, "el movimiento referencia el número de orden")
}

// Recepción del saldo: la orden termina en received.
func TestReceive_Total_EstadoReceived(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	po, err := env.receiveLine(t, po, 4, "")
	require.NoError(t, err)
	po, err = env.receiveLine(t, po, 6, "")
	require.NoError(t, err)

	assert.Equal(t, entity.PoStatusReceived, po.Status)
	assert.Equal(t, int64(10), po.Items[0].QtyReceived)
	assert.Equal(t, int64(10), env.available(t))
}

func TestReceive_EnBorrador_EstadoInvalido(t *testing.T) {
	env := newTestEnv(t)
	price := decimal.NewFromInt(1)
	po, err := env.uc.Create(context.Background(), purchase.CreateInput{
		SupplierID: testSupplierID,
		Items:      []purchase.CreateItemInput{{ProductID: testProductID, QtyOrdered: 10, UnitPrice: &price}},
	}, testUserID)
	require.NoError(t, err)

	_, err = env.receiveLine(t, po, 4, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// Recibir más que el pendiente se rechaza con las cantidades en el error y sin
// ningún efecto: ni inventario ni avance de línea.
func TestReceive_ExcedePendiente_SinEfectos(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	po, err := env.receiveLine(t, po, 8, "")
	require.NoError(t, err)

	_, err = env.receiveLine(t, po, 5, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuantityExceeded)

	var qtyErr *domain.QuantityExceededError
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, int64(5), qtyErr.Requested)
	assert.Equal(t, int64(2), qtyErr.Remaining)

	po, err = env.uc.GetByID(context.Background(), po.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), po.Items[0].QtyReceived, "la línea no debe avanzar")
	assert.Equal(t, int64(8), env.available(t), "el inventario no debe cambiar")
}

// La tanda es todo-o-nada: si la segunda línea es inválida, la primera tampoco
// deja efectos.
func TestReceive_TandaInvalida_RollbackCompleto(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	_, err := env.uc.Receive(context.Background(), po.ID, []purchase.ReceiveItemInput{
		{ItemID: po.Items[0].ID, StockBatchID: testBatchID, LocationID: testLocationID, QtyToReceive: 4},
		{ItemID: "linea-inexistente", StockBatchID: testBatchID, LocationID: testLocationID, QtyToReceive: 1},
	}, testUserID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	po, err = env.uc.GetByID(context.Background(), po.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), po.Items[0].QtyReceived)
	assert.Equal(t, entity.PoStatusOrdered, po.Status)
	assert.Equal(t, int64(0), env.available(t))
}

// El reintento con la misma clave de idempotencia no vuelve a mover inventario
// ni a avanzar la línea.
func TestReceive_ReintentoConClave_NoDuplicaAvance(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	po, err := env.receiveLine(t, po, 4, "rcv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), po.Items[0].QtyReceived)

	po, err = env.receiveLine(t, po, 4, "rcv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), po.Items[0].QtyReceived, "el reintento no debe duplicar el avance")
	assert.Equal(t, int64(4), env.available(t), "el reintento no debe duplicar inventario")
	assert.Equal(t, entity.PoStatusPartial, po.Status)
}

// Reintento de la recepción completa después de que la orden quedó received:
// el reenvío con la misma clave devuelve la orden tal como quedó, sin
// rechazarla por estado y sin volver a mover inventario.
func TestReceive_ReintentoTotalTrasRecibida_DevuelveOriginal(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	po, err := env.receiveLine(t, po, 10, "rcv-1")
	require.NoError(t, err)
	require.Equal(t, entity.PoStatusReceived, po.Status)

	po, err = env.receiveLine(t, po, 10, "rcv-1")
	require.NoError(t, err, "el reenvío completo debe responder con éxito")
	assert.Equal(t, entity.PoStatusReceived, po.Status)
	assert.Equal(t, int64(10), po.Items[0].QtyReceived)
	assert.Equal(t, int64(10), env.available(t), "el reenvío no debe duplicar inventario")

	receipts := 0
	movs, err := env.store.Movements().ListByBatch(testBatchID, nil, nil, 100, 0)
	require.NoError(t, err)
	for _, m := range movs {
		if m.Type == entity.MovementTypeReceipt {
			receipts++
		}
	}
	assert.Equal(t, 1, receipts, "debe existir exactamente un movimiento de recepción")
}

// Dos líneas de la misma tanda contra el mismo ítem se validan acumuladas:
// 6 + 6 sobre un pendiente de 10 se rechaza completo, sin efectos.
func TestReceive_ItemRepetidoEnTanda_Rechazado(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	_, err := env.uc.Receive(context.Background(), po.ID, []purchase.ReceiveItemInput{
		{ItemID: po.Items[0].ID, StockBatchID: testBatchID, LocationID: testLocationID, QtyToReceive: 6},
		{ItemID: po.Items[0].ID, StockBatchID: testBatchID, LocationID: testLocationID, QtyToReceive: 6},
	}, testUserID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuantityExceeded)

	var qtyErr *domain.QuantityExceededError
	require.ErrorAs(t, err, &qtyErr)
	assert.Equal(t, int64(12), qtyErr.Requested)
	assert.Equal(t, int64(10), qtyErr.Remaining)

	po, err = env.uc.GetByID(context.Background(), po.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), po.Items[0].QtyReceived)
	assert.Equal(t, entity.PoStatusOrdered, po.Status)
	assert.Equal(t, int64(0), env.available(t))
}

func TestReceive_AsociaLoteALinea(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	po, err := env.receiveLine(t, po, 4, "")
	require.NoError(t, err)
	assert.Equal(t, testBatchID, po.Items[0].StockBatchID,
		"la primera recepción asocia el lote a la línea")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación y actualización
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_OrdenParcial_Permitido(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)
	po, err := env.receiveLine(t, po, 4, "")
	require.NoError(t, err)

	po, err = env.uc.Cancel(context.Background(), po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PoStatusCancelled, po.Status)
}

func TestCancel_OrdenRecibida_Terminal(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)
	po, err := env.receiveLine(t, po, 10, "")
	require.NoError(t, err)
	require.Equal(t, entity.PoStatusReceived, po.Status)

	_, err = env.uc.Cancel(context.Background(), po.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestUpdate_BorradorRecalculaTotal(t *testing.T) {
	env := newTestEnv(t)
	price := decimal.NewFromInt(5)
	po, err := env.uc.Create(context.Background(), purchase.CreateInput{
		SupplierID: testSupplierID,
		Items:      []purchase.CreateItemInput{{ProductID: testProductID, QtyOrdered: 10, UnitPrice: &price}},
	}, testUserID)
	require.NoError(t, err)

	newQty := int64(20)
	po, err = env.uc.Update(context.Background(), po.ID, purchase.UpdateInput{
		Items: []purchase.UpdateItemInput{{ItemID: po.Items[0].ID, QtyOrdered: &newQty}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), po.Items[0].QtyOrdered)
	assert.True(t, po.TotalAmount.Equal(decimal.NewFromInt(100)),
		"total esperado 100, obtenido %s", po.TotalAmount)
}

func TestUpdate_OrdenEnviada_EstadoInvalido(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	newQty := int64(5)
	_, err := env.uc.Update(context.Background(), po.ID, purchase.UpdateInput{
		Items: []purchase.UpdateItemInput{{ItemID: po.Items[0].ID, QtyOrdered: &newQty}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// ──────────────────────────────────────────────────────────────────────────────
// Documento PDF
// ──────────────────────────────────────────────────────────────────────────────

type stubPDFGenerator struct {
	called bool
}

func (g *stubPDFGenerator) GeneratePurchaseOrderPDF(_ context.Context, _ *entity.PurchaseOrder, _ map[string]*entity.Product) ([]byte, error) {
	g.called = true
	return []byte("%PDF-fake"), nil
}

func TestGeneratePDF_DevuelveNombreConPoNo(t *testing.T) {
	env := newTestEnv(t)
	po := env.createOrdered(t, 10)

	gen := &stubPDFGenerator{}
	docs := purchase.NewDocumentUseCase(env.store.PurchaseOrders(), env.store.Products(), gen)

	data, filename, err := docs.GeneratePDF(context.Background(), po.ID)
	require.NoError(t, err)
	assert.True(t, gen.called)
	assert.NotEmpty(t, data)
	assert.Equal(t, po.PoNo+".pdf", filename)
}

func TestGeneratePDF_OrdenInexistente_NotFound(t *testing.T) {
	env := newTestEnv(t)
	docs := purchase.NewDocumentUseCase(env.store.PurchaseOrders(), env.store.Products(), &stubPDFGenerator{})

	_, _, err := docs.GeneratePDF(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
