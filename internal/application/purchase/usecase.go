package purchase

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

// UseCase workflow de órdenes de compra: creación, submit, recepción
// (parcial o total) con actualización de inventario, y cancelación.
type UseCase struct {
	txRunner    TxRunner
	poRepo      repository.PurchaseOrderRepository // atado al pool: lecturas fuera de tx
	productRepo repository.ProductRepository
	invOps      *inventory.OperationsUseCase
}

// NewUseCase construye el workflow de compras.
func NewUseCase(
	txRunner TxRunner,
	poRepo repository.PurchaseOrderRepository,
	productRepo repository.ProductRepository,
	invOps *inventory.OperationsUseCase,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		poRepo:      poRepo,
		productRepo: productRepo,
		invOps:      invOps,
	}
}

// CreateItemInput línea para crear una orden de compra.
type CreateItemInput struct {
	ProductID  string
	QtyOrdered int64
	UnitPrice  *decimal.Decimal
	Remark     string
}

// CreateInput entrada para crear una orden de compra en borrador.
type CreateInput struct {
	SupplierID      string
	PlacedAt        *time.Time
	ExpectedArrival *time.Time
	Notes           string
	Items           []CreateItemInput
}

// ReceiveItemInput línea de una recepción: qué línea de la orden, contra qué
// lote y ubicación, y cuánta cantidad.
type ReceiveItemInput struct {
	ItemID         string
	StockBatchID   string
	LocationID     string
	QtyToReceive   int64
	IdempotencyKey string
}

// Create crea una orden de compra en borrador con número legible generado.
// El total se calcula como sum(qty * unitPrice) sobre las líneas con precio.
func (uc *UseCase) Create(ctx context.Context, in CreateInput, userID string) (*entity.PurchaseOrder, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	po := &entity.PurchaseOrder{
		ID:              uuid.New().String(),
		PoNo:            generateOrderNo("PO"),
		SupplierID:      in.SupplierID,
		Status:          entity.PoStatusDraft,
		Notes:           in.Notes,
		PlacedAt:        in.PlacedAt,
		ExpectedArrival: in.ExpectedArrival,
		CreatedBy:       userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, it := range in.Items {
		if it.QtyOrdered <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		p, err := uc.productRepo.GetByID(it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &domain.NotFoundError{Resource: "product", ID: it.ProductID}
		}
		item := &entity.PurchaseOrderItem{
			ID:              uuid.New().String(),
			PurchaseOrderID: po.ID,
			ProductID:       it.ProductID,
			QtyOrdered:      it.QtyOrdered,
			UnitPrice:       it.UnitPrice,
			Remark:          it.Remark,
		}
		if it.UnitPrice != nil {
			lt := it.UnitPrice.Mul(decimal.NewFromInt(it.QtyOrdered))
			item.LineTotal = &lt
		}
		po.Items = append(po.Items, item)
	}
	po.TotalAmount = orderTotal(po.Items)
	if err := uc.poRepo.Create(po); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, po.ID)
}

// Submit pasa la orden de draft a ordered. Requiere el usuario que la aprueba.
func (uc *UseCase) Submit(ctx context.Context, id, userID string) (*entity.PurchaseOrder, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	po, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != entity.PoStatusDraft {
		return nil, &domain.InvalidStateError{Entity: "purchase_order", Current: po.Status, Required: entity.PoStatusDraft}
	}
	if err := uc.poRepo.UpdateStatus(id, entity.PoStatusOrdered); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// Receive aplica una tanda de recepciones contra las líneas de la orden.
//
// Toda la validación ocurre antes de mutar: si una línea es inválida, la tanda
// completa se rechaza sin efectos, y varias líneas contra el mismo ítem se
// validan acumuladas. La tanda entera (movimientos, avance de líneas y estado
// derivado) se confirma en una sola transacción; la fila de la orden se bloquea
// para serializar recepciones concurrentes sobre la misma orden.
//
// Las claves de idempotencia se resuelven antes de validar: una línea ya
// aplicada no cuenta contra el pendiente ni re-incrementa QtyReceived, y un
// reenvío cuyas líneas ya se aplicaron todas devuelve la orden tal como quedó,
// aunque la recepción original la haya dejado en received.
func (uc *UseCase) Receive(ctx context.Context, poID string, items []ReceiveItemInput, userID string) (*entity.PurchaseOrder, error) {
	if len(items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, it := range items {
		if it.QtyToReceive <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if err := uc.invOps.EnsureRefs(it.StockBatchID, it.LocationID); err != nil {
			return nil, err
		}
	}

	err := uc.txRunner.RunPurchase(ctx, func(
		movRepo repository.StockMovementRepository,
		posRepo repository.InventoryPositionRepository,
		poRepo repository.PurchaseOrderRepository,
	) error {
		po, err := poRepo.GetForUpdate(poID)
		if err != nil {
			return err
		}
		if po == nil {
			return &domain.NotFoundError{Resource: "purchase_order", ID: poID}
		}

		lines := make(map[string]*entity.PurchaseOrderItem, len(po.Items))
		for _, it := range po.Items {
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
			prev, err := movRepo.GetByIdempotencyKey(req.IdempotencyKey, entity.MovementTypeReceipt)
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
		// tal como la dejó la recepción original, incluso si ya está received.
		if pending == 0 {
			return nil
		}
		if !order.PurchaseReceivable(po.Status) {
			return &domain.InvalidStateError{
				Entity:   "purchase_order",
				Current:  po.Status,
				Required: entity.PoStatusOrdered + " o " + entity.PoStatusPartial,
			}
		}

		// Validar acumulado por ítem antes de cualquier mutación: dos líneas de
		// la tanda contra el mismo ítem no pueden sumar más que su pendiente.
		requested := make(map[string]int64, len(items))
		for i, req := range items {
			if applied[i] {
				continue
			}
			requested[req.ItemID] += req.QtyToReceive
			if remaining := lines[req.ItemID].Remaining(); requested[req.ItemID] > remaining {
				return &domain.QuantityExceededError{
					ItemID:    req.ItemID,
					Requested: requested[req.ItemID],
					Remaining: remaining,
				}
			}
		}

		// Aplicar línea por línea en el orden recibido
		for i, req := range items {
			if applied[i] {
				continue
			}
			item := lines[req.ItemID]
			res, err := uc.invOps.ReceiveInTx(movRepo, posRepo, inventory.MovementInput{
				StockBatchID:   req.StockBatchID,
				LocationID:     req.LocationID,
				Quantity:       req.QtyToReceive,
				Reference:      po.PoNo,
				IdempotencyKey: req.IdempotencyKey,
				UserID:         userID,
			})
			if err != nil {
				return err
			}
			if res.Deduplicated {
				continue
			}
			if err := poRepo.AddItemReceived(req.ItemID, req.QtyToReceive); err != nil {
				return err
			}
			item.QtyReceived += req.QtyToReceive
			if item.StockBatchID == "" {
				item.StockBatchID = req.StockBatchID
				if err := poRepo.UpdateItem(item); err != nil {
					return err
				}
			}
		}

		// Derivar el estado con el avance actualizado de todas las líneas
		progress := make([]order.LineProgress, 0, len(po.Items))
		for _, it := range po.Items {
			progress = append(progress, order.LineProgress{Ordered: it.QtyOrdered, Fulfilled: it.QtyReceived})
		}
		newStatus := order.PurchaseStatusFromProgress(po.Status, progress)
		if newStatus != po.Status {
			if err := poRepo.UpdateStatus(poID, newStatus); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, poID)
}

// Cancel cancela la orden. received y cancelled son terminales.
func (uc *UseCase) Cancel(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.PurchaseCancellable(po.Status) {
		return nil, &domain.InvalidStateError{
			Entity:   "purchase_order",
			Current:  po.Status,
			Required: strings.Join([]string{entity.PoStatusDraft, entity.PoStatusOrdered, entity.PoStatusPartial}, ", "),
		}
	}
	if err := uc.poRepo.UpdateStatus(id, entity.PoStatusCancelled); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// UpdateItemInput cambios sobre una línea de un borrador.
type UpdateItemInput struct {
	ItemID     string
	QtyOrdered *int64
	UnitPrice  *decimal.Decimal
	Remark     *string
}

// UpdateInput cambios sobre una orden en borrador.
type UpdateInput struct {
	SupplierID      *string
	PlacedAt        *time.Time
	ExpectedArrival *time.Time
	Notes           *string
	Items           []UpdateItemInput
}

// Update modifica una orden en borrador y recalcula el total.
func (uc *UseCase) Update(ctx context.Context, id string, in UpdateInput) (*entity.PurchaseOrder, error) {
	po, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != entity.PoStatusDraft {
		return nil, &domain.InvalidStateError{Entity: "purchase_order", Current: po.Status, Required: entity.PoStatusDraft}
	}
	lines := make(map[string]*entity.PurchaseOrderItem, len(po.Items))
	for _, it := range po.Items {
		lines[it.ID] = it
	}
	for _, upd := range in.Items {
		item, ok := lines[upd.ItemID]
		if !ok {
			return nil, &domain.NotFoundError{Resource: "order_item", ID: upd.ItemID}
		}
		if upd.QtyOrdered != nil {
			if *upd.QtyOrdered <= 0 {
				return nil, domain.ErrInvalidQuantity
			}
			item.QtyOrdered = *upd.QtyOrdered
		}
		if upd.UnitPrice != nil {
			item.UnitPrice = upd.UnitPrice
		}
		if upd.Remark != nil {
			item.Remark = *upd.Remark
		}
		if item.UnitPrice != nil {
			lt := item.UnitPrice.Mul(decimal.NewFromInt(item.QtyOrdered))
			item.LineTotal = &lt
		}
		if err := uc.poRepo.UpdateItem(item); err != nil {
			return nil, err
		}
	}
	if err := uc.poRepo.UpdateTotals(id, orderTotal(po.Items)); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, id)
}

// GetByID devuelve la orden con sus líneas, o NotFound.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := uc.poRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, &domain.NotFoundError{Resource: "purchase_order", ID: id}
	}
	return po, nil
}

// List lista órdenes con filtros y paginación.
func (uc *UseCase) List(ctx context.Context, filter repository.OrderListFilter) ([]*entity.PurchaseOrder, int, error) {
	return uc.poRepo.List(filter)
}

// orderTotal suma qty * unitPrice de las líneas con precio; las líneas sin
// precio aportan cero, nunca propagan nil al total.
func orderTotal(items []*entity.PurchaseOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.UnitPrice != nil {
			total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.QtyOrdered)))
		}
	}
	return total
}

// generateOrderNo genera un número legible tipo PO-202609-A1B2C3.
func generateOrderNo(prefix string) string {
	now := time.Now()
	rand := strings.ToUpper(uuid.New().String()[:6])
	return fmt.Sprintf("%s-%04d%02d-%s", prefix, now.Year(), int(now.Month()), rand)
}
