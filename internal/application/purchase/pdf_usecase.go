package purchase

import (
	"context"
	"fmt"

	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// PDFGenerator puerto para la representación imprimible de una orden de compra.
type PDFGenerator interface {
	GeneratePurchaseOrderPDF(ctx context.Context, po *entity.PurchaseOrder, products map[string]*entity.Product) ([]byte, error)
}

// DocumentUseCase genera el documento imprimible de una orden de compra
// (se adjunta al correo al proveedor o se descarga desde la UI).
type DocumentUseCase struct {
	poRepo      repository.PurchaseOrderRepository
	productRepo repository.ProductRepository
	gen         PDFGenerator
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(
	poRepo repository.PurchaseOrderRepository,
	productRepo repository.ProductRepository,
	gen PDFGenerator,
) *DocumentUseCase {
	return &DocumentUseCase{poRepo: poRepo, productRepo: productRepo, gen: gen}
}

// GeneratePDF devuelve los bytes del PDF y un nombre de archivo sugerido.
func (uc *DocumentUseCase) GeneratePDF(ctx context.Context, poID string) ([]byte, string, error) {
	po, err := uc.poRepo.GetByID(poID)
	if err != nil {
		return nil, "", err
	}
	if po == nil {
		return nil, "", &domain.NotFoundError{Resource: "purchase_order", ID: poID}
	}
	products := make(map[string]*entity.Product, len(po.Items))
	for _, it := range po.Items {
		if _, ok := products[it.ProductID]; ok {
			continue
		}
		p, err := uc.productRepo.GetByID(it.ProductID)
		if err != nil {
			return nil, "", err
		}
		if p != nil {
			products[it.ProductID] = p
		}
	}
	data, err := uc.gen.GeneratePurchaseOrderPDF(ctx, po, products)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("%s.pdf", po.PoNo), nil
}
