package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// OperationsUseCase aplica las primitivas del motor de inventario (recepción,
// despacho, reserva, liberación, ajuste y traslado) de forma transaccional,
// con bloqueo de fila (SELECT FOR UPDATE) sobre la posición afectada y
// deduplicación por clave de idempotencia.
type OperationsUseCase struct {
	txRunner     TxRunner
	movRepo      repository.StockMovementRepository    // atado al pool: lecturas y releído tras carrera de claves
	posRepo      repository.InventoryPositionRepository // atado al pool: consultas de posición
	batchRepo    repository.StockBatchRepository
	locationRepo repository.LocationRepository
}

// NewOperationsUseCase construye el caso de uso.
func NewOperationsUseCase(
	txRunner TxRunner,
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	batchRepo repository.StockBatchRepository,
	locationRepo repository.LocationRepository,
) *OperationsUseCase {
	return &OperationsUseCase{
		txRunner:     txRunner,
		movRepo:      movRepo,
		posRepo:      posRepo,
		batchRepo:    batchRepo,
		locationRepo: locationRepo,
	}
}

// MovementInput entrada para recepción, despacho, reserva o liberación.
type MovementInput struct {
	StockBatchID   string
	LocationID     string
	Quantity       int64
	Reference      string
	Note           string
	IdempotencyKey string
	UserID         string
}

// AdjustInput entrada para ajustes manuales. Delta puede ser negativo;
// Reference es obligatoria (toda corrección queda justificada en el libro).
type AdjustInput struct {
	StockBatchID   string
	LocationID     string
	Delta          int64
	Reference      string
	Note           string
	IdempotencyKey string
	UserID         string
}

// TransferInput entrada para traslado entre ubicaciones del mismo lote.
type TransferInput struct {
	StockBatchID   string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Note           string
	IdempotencyKey string
	UserID         string
}

// GetPosition devuelve la posición actual de un lote en una ubicación
// (posición en cero si aún no hay movimientos sobre el par).
func (uc *OperationsUseCase) GetPosition(ctx context.Context, stockBatchID, locationID string) (*entity.InventoryPosition, error) {
	if err := uc.EnsureRefs(stockBatchID, locationID); err != nil {
		return nil, err
	}
	return uc.posRepo.Get(stockBatchID, locationID)
}

// Receive incrementa disponible en la ubicación destino y registra un
// movimiento purchase_receipt. Exactamente un movimiento por llamada efectiva;
// cero si la clave de idempotencia ya se había aplicado.
func (uc *OperationsUseCase) Receive(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := uc.EnsureRefs(in.StockBatchID, in.LocationID); err != nil {
		return nil, err
	}
	var res *MovementResult
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, posRepo repository.InventoryPositionRepository) error {
		r, err := uc.ReceiveInTx(movRepo, posRepo, in)
		res = r
		return err
	})
	if err != nil {
		return uc.recoverDuplicate(err, in.IdempotencyKey, entity.MovementTypeReceipt)
	}
	return res, nil
}

// Dispatch descuenta disponible en la ubicación origen y registra un movimiento
// sale_issue. Falla con InsufficientStock si la posición no alcanza.
func (uc *OperationsUseCase) Dispatch(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := uc.EnsureRefs(in.StockBatchID, in.LocationID); err != nil {
		return nil, err
	}
	var res *MovementResult
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, posRepo repository.InventoryPositionRepository) error {
		r, err := uc.DispatchInTx(movRepo, posRepo, in)
		res = r
		return err
	})
	if err != nil {
		return uc.recoverDuplicate(err, in.IdempotencyKey, entity.MovementTypeDispatch)
	}
	return res, nil
}

// Reserve incrementa la cantidad reservada. La reserva es informativa: no
// descuenta disponible ni condiciona despachos (decisión documentada en DESIGN.md).
func (uc *OperationsUseCase) Reserve(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := uc.EnsureRefs(in.StockBatchID, in.LocationID); err != nil {
		return nil, err
	}
	var res *MovementResult
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, posRepo repository.InventoryPositionRepository) error {
		r, err := uc.applyReservation(movRepo, posRepo, in)
		res = r
		return err
	})
	if err != nil {
		return uc.recoverDuplicate(err, in.IdempotencyKey, entity.MovementTypeReservation)
	}
	return res, nil
}

// Release descuenta la cantidad reservada, con piso en cero.
func (uc *OperationsUseCase) Release(ctx context.Context, in MovementInput) (*MovementResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := uc.EnsureRefs(in.StockBatchID, in.LocationID); err != nil {
		return nil, err
	}
	var res *MovementResult
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, posRepo repository.InventoryPositionRepository) error {
		r, err := uc.applyRelease(movRepo, posRepo, in)
		res = r
		return err
	})
	if err != nil {
		return uc.recoverDuplicate(err, in.IdempotencyKey, entity.MovementTypeRelease)
	}
	return res, nil
}

// Adjust aplica una corrección manual. Un delta negativo nunca deja la posición
// por debajo de cero; la referencia es obligatoria.
func (uc *OperationsUseCase) Adjust(ctx context.Context, in AdjustInput) (*MovementResult, error) {
	if in.Delta == 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Reference == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.EnsureRefs(in.StockBatchID, in.LocationID); err != nil {
		return nil, err
	}
	var res *MovementResult
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, posRepo repository.InventoryPositionRepository) error {
		r, err := uc.applyAdjustment(movRepo, posRepo, in)
		res = r
		return err
	})
	if err != nil {
		return uc.recoverDuplicate(err, in.IdempotencyKey, entity.MovementTypeAdjustment)
	}
	return res, nil
}

// Transfer mueve disponible entre dos ubicaciones del mismo lote en una sola
// transacción, registrando el par transfer_out/transfer_in.
func (uc *OperationsUseCase) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.EnsureRefs(in.StockBatchID, in.FromLocationID); err != nil {
		return nil, err
	}
	if _, err := uc.locationOrNotFound(in.ToLocationID); err != nil {
		return nil, err
	}
	var res *TransferResult
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, posRepo repository.InventoryPositionRepository) error {
		r, err := uc.applyTransfer(movRepo, posRepo, in)
		res = r
		return err
	})
	if err != nil {
		if in.IdempotencyKey != "" && errors.Is(err, domain.ErrDuplicate) {
			out, lookupErr := uc.movRepo.GetByIdempotencyKey(in.IdempotencyKey, entity.MovementTypeTransferOut)
			if lookupErr == nil && out != nil {
				inMov, _ := uc.movRepo.GetByIdempotencyKey(in.IdempotencyKey, entity.MovementTypeTransferIn)
				return &TransferResult{OutMovement: out, InMovement: inMov, Deduplicated: true}, nil
			}
		}
		return nil, err
	}
	return res, nil
}

// TransferResult un traslado produce dos movimientos del libro.
type TransferResult struct {
	OutMovement  *entity.StockMovement
	InMovement   *entity.StockMovement
	Deduplicated bool
}

// ── Variantes en transacción, para los workflows de órdenes ─────────────────

// ReceiveInTx ejecuta la recepción usando repositorios de la transacción del
// caller (workflow de órdenes de compra: toda la tanda de líneas comparte tx).
func (uc *OperationsUseCase) ReceiveInTx(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	in MovementInput,
) (*MovementResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return withIdempotency(movRepo, in.IdempotencyKey, entity.MovementTypeReceipt, func() (*entity.StockMovement, error) {
		pos, err := posRepo.GetForUpdate(in.StockBatchID, in.LocationID)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		pos.AvailableQty += in.Quantity
		pos.UpdatedAt = now
		if err := posRepo.Upsert(pos); err != nil {
			return nil, err
		}
		mov := &entity.StockMovement{
			ID:             uuid.New().String(),
			StockBatchID:   in.StockBatchID,
			ToLocationID:   in.LocationID,
			Type:           entity.MovementTypeReceipt,
			Quantity:       in.Quantity,
			Reference:      in.Reference,
			Note:           in.Note,
			IdempotencyKey: in.IdempotencyKey,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		}
		return mov, movRepo.Create(mov)
	})
}

// DispatchInTx ejecuta el despacho usando repositorios de la transacción del
// caller (workflow de órdenes de venta).
func (uc *OperationsUseCase) DispatchInTx(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	in MovementInput,
) (*MovementResult, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return withIdempotency(movRepo, in.IdempotencyKey, entity.MovementTypeDispatch, func() (*entity.StockMovement, error) {
		pos, err := posRepo.GetForUpdate(in.StockBatchID, in.LocationID)
		if err != nil {
			return nil, err
		}
		if pos.AvailableQty < in.Quantity {
			return nil, &domain.InsufficientStockError{
				StockBatchID: in.StockBatchID,
				LocationID:   in.LocationID,
				Requested:    in.Quantity,
				Available:    pos.AvailableQty,
			}
		}
		now := time.Now()
		pos.AvailableQty -= in.Quantity
		pos.UpdatedAt = now
		if err := posRepo.Upsert(pos); err != nil {
			return nil, err
		}
		mov := &entity.StockMovement{
			ID:             uuid.New().String(),
			StockBatchID:   in.StockBatchID,
			FromLocationID: in.LocationID,
			Type:           entity.MovementTypeDispatch,
			Quantity:       in.Quantity,
			Reference:      in.Reference,
			Note:           in.Note,
			IdempotencyKey: in.IdempotencyKey,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		}
		return mov, movRepo.Create(mov)
	})
}

func (uc *OperationsUseCase) applyReservation(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	in MovementInput,
) (*MovementResult, error) {
	return withIdempotency(movRepo, in.IdempotencyKey, entity.MovementTypeReservation, func() (*entity.StockMovement, error) {
		pos, err := posRepo.GetForUpdate(in.StockBatchID, in.LocationID)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		pos.ReservedQty += in.Quantity
		pos.UpdatedAt = now
		if err := posRepo.Upsert(pos); err != nil {
			return nil, err
		}
		mov := &entity.StockMovement{
			ID:             uuid.New().String(),
			StockBatchID:   in.StockBatchID,
			ToLocationID:   in.LocationID,
			Type:           entity.MovementTypeReservation,
			Quantity:       in.Quantity,
			Reference:      in.Reference,
			Note:           in.Note,
			IdempotencyKey: in.IdempotencyKey,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		}
		return mov, movRepo.Create(mov)
	})
}

func (uc *OperationsUseCase) applyRelease(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	in MovementInput,
) (*MovementResult, error) {
	return withIdempotency(movRepo, in.IdempotencyKey, entity.MovementTypeRelease, func() (*entity.StockMovement, error) {
		pos, err := posRepo.GetForUpdate(in.StockBatchID, in.LocationID)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		// Piso en cero: liberar más de lo reservado no deja la posición negativa
		pos.ReservedQty -= in.Quantity
		if pos.ReservedQty < 0 {
			pos.ReservedQty = 0
		}
		pos.UpdatedAt = now
		if err := posRepo.Upsert(pos); err != nil {
			return nil, err
		}
		mov := &entity.StockMovement{
			ID:             uuid.New().String(),
			StockBatchID:   in.StockBatchID,
			FromLocationID: in.LocationID,
			Type:           entity.MovementTypeRelease,
			Quantity:       in.Quantity,
			Reference:      in.Reference,
			Note:           in.Note,
			IdempotencyKey: in.IdempotencyKey,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		}
		return mov, movRepo.Create(mov)
	})
}

func (uc *OperationsUseCase) applyAdjustment(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	in AdjustInput,
) (*MovementResult, error) {
	return withIdempotency(movRepo, in.IdempotencyKey, entity.MovementTypeAdjustment, func() (*entity.StockMovement, error) {
		pos, err := posRepo.GetForUpdate(in.StockBatchID, in.LocationID)
		if err != nil {
			return nil, err
		}
		if in.Delta < 0 && pos.AvailableQty+in.Delta < 0 {
			return nil, &domain.InsufficientStockError{
				StockBatchID: in.StockBatchID,
				LocationID:   in.LocationID,
				Requested:    -in.Delta,
				Available:    pos.AvailableQty,
			}
		}
		now := time.Now()
		pos.AvailableQty += in.Delta
		pos.UpdatedAt = now
		if err := posRepo.Upsert(pos); err != nil {
			return nil, err
		}
		// La cantidad del movimiento siempre es positiva; el sentido del ajuste
		// lo da la ubicación: destino para delta positivo, origen para negativo.
		mov := &entity.StockMovement{
			ID:             uuid.New().String(),
			StockBatchID:   in.StockBatchID,
			Type:           entity.MovementTypeAdjustment,
			Quantity:       abs(in.Delta),
			Reference:      in.Reference,
			Note:           in.Note,
			IdempotencyKey: in.IdempotencyKey,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		}
		if in.Delta > 0 {
			mov.ToLocationID = in.LocationID
		} else {
			mov.FromLocationID = in.LocationID
		}
		return mov, movRepo.Create(mov)
	})
}

func (uc *OperationsUseCase) applyTransfer(
	movRepo repository.StockMovementRepository,
	posRepo repository.InventoryPositionRepository,
	in TransferInput,
) (*TransferResult, error) {
	if in.IdempotencyKey != "" {
		existing, err := movRepo.GetByIdempotencyKey(in.IdempotencyKey, entity.MovementTypeTransferOut)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			inMov, err := movRepo.GetByIdempotencyKey(in.IdempotencyKey, entity.MovementTypeTransferIn)
			if err != nil {
				return nil, err
			}
			return &TransferResult{OutMovement: existing, InMovement: inMov, Deduplicated: true}, nil
		}
	}

	origin, err := posRepo.GetForUpdate(in.StockBatchID, in.FromLocationID)
	if err != nil {
		return nil, err
	}
	if origin.AvailableQty < in.Quantity {
		return nil, &domain.InsufficientStockError{
			StockBatchID: in.StockBatchID,
			LocationID:   in.FromLocationID,
			Requested:    in.Quantity,
			Available:    origin.AvailableQty,
		}
	}
	dest, err := posRepo.GetForUpdate(in.StockBatchID, in.ToLocationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	origin.AvailableQty -= in.Quantity
	origin.UpdatedAt = now
	dest.AvailableQty += in.Quantity
	dest.UpdatedAt = now
	if err := posRepo.Upsert(origin); err != nil {
		return nil, err
	}
	if err := posRepo.Upsert(dest); err != nil {
		return nil, err
	}

	outMov := &entity.StockMovement{
		ID:             uuid.New().String(),
		StockBatchID:   in.StockBatchID,
		FromLocationID: in.FromLocationID,
		Type:           entity.MovementTypeTransferOut,
		Quantity:       in.Quantity,
		Note:           in.Note,
		IdempotencyKey: in.IdempotencyKey,
		CreatedBy:      in.UserID,
		CreatedAt:      now,
	}
	if err := movRepo.Create(outMov); err != nil {
		return nil, err
	}
	inMov := &entity.StockMovement{
		ID:             uuid.New().String(),
		StockBatchID:   in.StockBatchID,
		ToLocationID:   in.ToLocationID,
		Type:           entity.MovementTypeTransferIn,
		Quantity:       in.Quantity,
		Note:           in.Note,
		IdempotencyKey: in.IdempotencyKey,
		CreatedBy:      in.UserID,
		CreatedAt:      now,
	}
	if err := movRepo.Create(inMov); err != nil {
		return nil, err
	}
	return &TransferResult{OutMovement: outMov, InMovement: inMov}, nil
}

// recoverDuplicate convierte la violación de unicidad de la clave de idempotencia
// (dos peticiones concurrentes con la misma clave no vista) en el resultado ya
// confirmado por la petición ganadora.
func (uc *OperationsUseCase) recoverDuplicate(err error, key, movementType string) (*MovementResult, error) {
	if key != "" && errors.Is(err, domain.ErrDuplicate) {
		existing, lookupErr := uc.movRepo.GetByIdempotencyKey(key, movementType)
		if lookupErr == nil && existing != nil {
			return &MovementResult{Movement: existing, Deduplicated: true}, nil
		}
	}
	return nil, err
}

// EnsureRefs confirma que lote y ubicación existen antes de aceptar el movimiento.
// Una referencia inexistente produce NotFound, nunca un alta implícita.
func (uc *OperationsUseCase) EnsureRefs(stockBatchID, locationID string) error {
	batch, err := uc.batchRepo.GetByID(stockBatchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return &domain.NotFoundError{Resource: "stock_batch", ID: stockBatchID}
	}
	_, err = uc.locationOrNotFound(locationID)
	return err
}

func (uc *OperationsUseCase) locationOrNotFound(locationID string) (*entity.Location, error) {
	loc, err := uc.locationRepo.GetByID(locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, &domain.NotFoundError{Resource: "location", ID: locationID}
	}
	return loc, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
