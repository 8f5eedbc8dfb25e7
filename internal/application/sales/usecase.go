package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/order"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// UseCase workflow de órdenes de venta: creación, submit, despacho (parcial o
// total) descontando inventario, y cancelación.
type UseCase struct {
	txRunner    TxRunner
	soRepo      repository.SalesOrderRepository // atado al pool: lecturas fuera de tx
	productRepo repository.ProductRepository
	invOps      *inventory.OperationsUseCase
}

// NewUseCase construye el workflow de ventas.
func NewUseCase(
	txRunner TxRunner,
	soRepo repository.SalesOrderRepository,
	productRepo repository.ProductRepository,
	invOps *inventory.OperationsUseCase,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		soRepo:      soRepo,
		productRepo: productRepo,
		invOps:      invOps,
	}
}

// CreateItemInput línea para crear una orden de venta.
type CreateItemInput struct {
	ProductID    string
	StockBatchID string
	Qty          int64
	UnitPrice    *decimal.Decimal
}

// CreateInput entrada para crear una orden de venta en estado pending.
type CreateInput struct {
	CustomerID string
	PlacedAt   *time.Time
	Items      []CreateItemInput
}

// FulfillItemInput línea de un despacho: qué línea de la orden, contra qué
// lote y ubicación, y cuánta cantidad.
type FulfillItemInput struct {
	ItemID         string
	StockBatchID   string
	LocationID     string
	QtyToFulfill   int64
	IdempotencyKey string
}

// Create crea una orden de venta con número legible generado.
func (uc *UseCase) Create(ctx context.Context, in CreateInput, userID string) (*entity.SalesOrder, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	so := &entity.SalesOrder{
		ID:         uuid.New().String(),
		SoNo:       generateOrderNo("SO"),
		CustomerID: in.CustomerID,
		Status:     entity.SoStatusPending,
		PlacedAt:   in.PlacedAt,
		CreatedBy:  userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, it := range in.Items {
		if it.Qty <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		p, err := uc.productRepo.GetByID(it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &domain.NotFoundError{Resource: "product", ID: it.ProductID}
		}
		item := &entity.SalesOrderItem{
			ID:           uuid.New().String(),
			SalesOrderID: so.ID,
			ProductID:    it.ProductID,
			StockBatchID: it.StockBatchID,
			Qty:          it.Qty,
			UnitPrice:    it.UnitPrice,
		}
		if it.UnitPrice != nil {
			lt := it.UnitPrice.Mul(decimal.NewFromInt(it.Qty))
			item.LineTotal = &lt
		}
		so.Items = append(so.Items, item)
	}
	so.TotalAmount = orderTotal(so.Items)
	if err := uc.soRepo.Create(so); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, so.ID)
}

// Submit pasa la orden de pending a approved; cualquier otro estado inicial se
// rechaza nombrando el estado requerido.
func (uc *UseCase) Submit(ctx context.Context, id, userID string) (*entity.SalesOrder, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	so, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if so.Status != entity.SoStatusPending {
		return nil, &domain.InvalidStateError{Entity: "sales_order", Current: so.Status, Required: entity.SoStatusPending}
	}
	if err := uc.soRepo.UpdateStatus(id, entity.SoStatusApproved); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// Fulfill aplica una tanda de despachos contra las líneas de la orden.
//
// Validación antes de mutar: si una línea pide más que su pendiente, la tanda
// completa se rechaza con las cantidades en el error y sin efectos. Varias
// líneas de la tanda contra el mismo ítem se validan acumuladas, no una por una.
// La tanda entera se confirma en una sola transacción con la fila de la orden
// bloqueada.
//
// Las claves de idempotencia se resuelven antes de validar: una línea ya
// aplicada no cuenta contra el pendiente ni re-incrementa QtyFulfilled, y un
// reenvío cuyas líneas ya se aplicaron todas devuelve la orden tal como quedó,
// aunque el despacho original la haya dejado en shipped.
func (uc *UseCase) Fulfill(ctx context.Context, soID string, items []FulfillItemInput, userID string) (*entity.SalesOrder, error) {
	if len(items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, it := range items {
		if it.QtyToFulfill <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if err := uc.invOps.EnsureRefs(it.StockBatchID, it.LocationID); err != nil {
			return nil, err
		}
	}

	err := uc.txRunner.RunSales(ctx, func(
		movRepo repository.StockMovementRepository,
		posRepo repository.InventoryPositionRepository,
		soRepo repository.SalesOrderRepository,
	) error {
		so, err := soRepo.GetForUpdate(soID)
		if err != nil {
			return err
		}
		if so == nil {
			return &domain.NotFoundError{Resource: "sales_order", ID: soID}
		}

		lines := make(map[string]*entity.SalesOrderItem, len(so.Items))
		for _, it := range so.Items {
			lines[it.ID] = it
		}

		// Resolver claves de idempotencia: las líneas ya aplicadas quedan fuera
		// de la validación de pendientes y de la aplicación.
		applied := make([]bool, len(items))
		pending := 0
		for i, req := range items {
			if _, ok := lines[req.ItemID]; !ok {
				return &domain.NotFoundError{Resource: "order_item", ID: req.ItemID}
			}
			if req.IdempotencyKey == "" {
				pending++
				continue
			}
			prev, err := movRepo.GetByIdempotencyKey(req.IdempotencyKey, entity.MovementTypeDispatch)
			if err != nil {
				return err
			}
			if prev != nil {
				applied[i] = true
				continue
			}
			pending++
		}
		// Reenvío completo: todas las líneas ya se aplicaron. La orden queda
		// tal como la dejó el despacho original, incluso si ya está shipped.
		if pending == 0 {
			return nil
		}
		if !order.SalesFulfillable(so.Status) {
			return &domain.InvalidStateError{
				Entity:   "sales_order",
				Current:  so.Status,
				Required: entity.SoStatusApproved + " o " + entity.SoStatusProcessing,
			}
		}

		// Validar acumulado por ítem antes de cualquier mutación: dos líneas de
		// la tanda contra el mismo ítem no pueden sumar más que su pendiente.
		requested := make(map[string]int64, len(items))
		for i, req := range items {
			if applied[i] {
				continue
			}
			requested[req.ItemID] += req.QtyToFulfill
			if remaining := lines[req.ItemID].Remaining(); requested[req.ItemID] > remaining {
				return &domain.QuantityExceededError{
					ItemID:    req.ItemID,
					Requested: requested[req.ItemID],
					Remaining: remaining,
				}
			}
		}

		for i, req := range items {
			if applied[i] {
				continue
			}
			res, err := uc.invOps.DispatchInTx(movRepo, posRepo, inventory.MovementInput{
				StockBatchID:   req.StockBatchID,
				LocationID:     req.LocationID,
				Quantity:       req.QtyToFulfill,
				Reference:      so.SoNo,
				IdempotencyKey: req.IdempotencyKey,
				UserID:         userID,
			})
			if err != nil {
				return err
			}
			if res.Deduplicated {
				continue
			}
			if err := soRepo.AddItemFulfilled(req.ItemID, req.QtyToFulfill); err != nil {
				return err
			}
			lines[req.ItemID].QtyFulfilled += req.QtyToFulfill
		}

		progress := make([]order.LineProgress, 0, len(so.Items))
		for _, it := range so.Items {
			progress = append(progress, order.LineProgress{Ordered: it.Qty, Fulfilled: it.QtyFulfilled})
		}
		newStatus := order.SalesStatusFromProgress(so.Status, progress)
		if newStatus != so.Status {
			if err := soRepo.UpdateStatus(soID, newStatus); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, soID)
}

// Cancel cancela la orden; shipped y cancelled son terminales y el error
// devuelve el estado actual.
func (uc *UseCase) Cancel(ctx context.Context, id string) (*entity.SalesOrder, error) {
	so, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.SalesCancellable(so.Status) {
		return nil, &domain.InvalidStateError{
			Entity:   "sales_order",
			Current:  so.Status,
			Required: strings.Join([]string{entity.SoStatusPending, entity.SoStatusApproved, entity.SoStatusProcessing}, ", "),
		}
	}
	if err := uc.soRepo.UpdateStatus(id, entity.SoStatusCancelled); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// UpdateItemInput cambios sobre una línea de una orden pending.
type UpdateItemInput struct {
	ItemID    string
	Qty       *int64
	UnitPrice *decimal.Decimal
}

// UpdateInput cambios sobre una orden pending.
type UpdateInput struct {
	CustomerID *string
	PlacedAt   *time.Time
	Items      []UpdateItemInput
}

// Update modifica una orden pending y recalcula el total.
func (uc *UseCase) Update(ctx context.Context, id string, in UpdateInput) (*entity.SalesOrder, error) {
	so, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if so.Status != entity.SoStatusPending {
		return nil, &domain.InvalidStateError{Entity: "sales_order", Current: so.Status, Required: entity.SoStatusPending}
	}
	lines := make(map[string]*entity.SalesOrderItem, len(so.Items))
	for _, it := range so.Items {
		lines[it.ID] = it
	}
	for _, upd := range in.Items {
		item, ok := lines[upd.ItemID]
		if !ok {
			return nil, &domain.NotFoundError{Resource: "order_item", ID: upd.ItemID}
		}
		if upd.Qty != nil {
			if *upd.Qty <= 0 {
				return nil, domain.ErrInvalidQuantity
			}
			item.Qty = *upd.Qty
		}
		if upd.UnitPrice != nil {
			item.UnitPrice = upd.UnitPrice
		}
		if item.UnitPrice != nil {
			lt := item.UnitPrice.Mul(decimal.NewFromInt(item.Qty))
			item.LineTotal = &lt
		}
		if err := uc.soRepo.UpdateItem(item); err != nil {
			return nil, err
		}
	}
	if err := uc.soRepo.UpdateTotals(id, orderTotal(so.Items)); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// GetByID devuelve la orden con sus líneas, o NotFound.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.SalesOrder, error) {
	so, err := uc.soRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if so == nil {
		return nil, &domain.NotFoundError{Resource: "sales_order", ID: id}
	}
	return so, nil
}

// List lista órdenes con filtros y paginación.
func (uc *UseCase) List(ctx context.Context, filter repository.OrderListFilter) ([]*entity.SalesOrder, int, error) {
	return uc.soRepo.List(filter)
}

// orderTotal suma qty * unitPrice de las líneas con precio; las líneas sin
// precio aportan cero, nunca propagan nil al total.
func orderTotal(items []*entity.SalesOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.UnitPrice != nil {
			total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Qty)))
		}
	}
	return total
}

// generateOrderNo genera un número legible tipo SO-202609-A1B2C3.
func generateOrderNo(prefix string) string {
	now := time.Now()
	rand := strings.ToUpper(uuid.New().String()[:6])
	return fmt.Sprintf("%s-%04d%02d-%s", prefix, now.Year(), int(now.Month()), rand)
}
