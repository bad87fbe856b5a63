// Package catalog implementa las operaciones de catálogo de productos y los
// ajustes directos de stock (que delegan en el motor de ledger).
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/almoxarifado-api/internal/application/dto"
	"github.com/jhoicas/almoxarifado-api/internal/application/ledger"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/policy"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

// UseCase casos de uso del catálogo. El código del producto es único; la
// cantidad solo cambia vía ledger; el borrado respeta la guardia referencial
// sobre alocaciones.
type UseCase struct {
	txRunner    ledger.TxRunner
	users       repository.UserRepository
	products    repository.ProductRepository
	movements   repository.StockMovementRepository
	allocations repository.AllocationRepository
	engine      *ledger.Engine
	photos      PhotoStore
	now         func() time.Time
}

// NewUseCase construye el caso de uso. now == nil usa time.Now.
func NewUseCase(
	txRunner ledger.TxRunner,
	users repository.UserRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	allocations repository.AllocationRepository,
	engine *ledger.Engine,
	photos PhotoStore,
	now func() time.Time,
) *UseCase {
	if now == nil {
		now = time.Now
	}
	return &UseCase{
		txRunner:    txRunner,
		users:       users,
		products:    products,
		movements:   movements,
		allocations: allocations,
		engine:      engine,
		photos:      photos,
		now:         now,
	}
}

func (uc *UseCase) actor(actorID string) (*entity.User, error) {
	actor, err := uc.users.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	return actor, nil
}

// Create crea un producto con cantidad 0 y registra el stock inicial como un
// movimiento "add", de modo que el ledger cubre la vida entera del producto.
// Alta y movimiento inicial comparten la misma transacción: si el movimiento
// falla, el producto tampoco queda persistido.
func (uc *UseCase) Create(ctx context.Context, actorID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	actor, err := uc.actor(actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageCatalog(actor) {
		return nil, domain.ErrForbidden
	}
	if in.Code == "" || in.Name == "" || in.Location == "" || in.SupplierName == "" {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidUnit(in.Unit) {
		return nil, domain.ErrInvalidInput
	}
	if in.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}

	existing, err := uc.products.GetByCode(in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateCode
	}

	now := uc.now()
	product := &entity.Product{
		ID:                uuid.New().String(),
		Code:              in.Code,
		Name:              in.Name,
		SupplierReference: in.SupplierReference,
		SupplierName:      in.SupplierName,
		Location:          in.Location,
		Quantity:          0,
		Unit:              in.Unit,
		PhotoFilename:     in.PhotoFilename,
		CreatedAt:         now,
		UpdatedAt:         now,
		CreatedBy:         actor.ID,
	}
	err = uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		_ repository.AllocationRepository,
	) error {
		if err := productRepo.Create(product); err != nil {
			return err
		}
		if in.Quantity == 0 {
			return nil
		}
		_, err := uc.engine.ApplyIn(productRepo, movementRepo, product, actor.ID,
			entity.MovementAdd, in.Quantity, "Producto registrado")
		return err
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update edita los metadatos de un producto (nunca la cantidad). Si llega una
// foto nueva, la anterior se elimina del almacenamiento.
func (uc *UseCase) Update(actorID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	actor, err := uc.actor(actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageCatalog(actor) {
		return nil, domain.ErrForbidden
	}
	product, err := uc.products.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	if in.Code != nil && *in.Code != product.Code {
		if *in.Code == "" {
			return nil, domain.ErrInvalidInput
		}
		existing, err := uc.products.GetByCode(*in.Code)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != product.ID {
			return nil, domain.ErrDuplicateCode
		}
		product.Code = *in.Code
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.SupplierReference != nil {
		product.SupplierReference = *in.SupplierReference
	}
	if in.SupplierName != nil {
		product.SupplierName = *in.SupplierName
	}
	if in.Location != nil {
		product.Location = *in.Location
	}
	if in.Unit != nil {
		if !entity.ValidUnit(*in.Unit) {
			return nil, domain.ErrInvalidInput
		}
		product.Unit = *in.Unit
	}
	if in.PhotoFilename != nil && *in.PhotoFilename != product.PhotoFilename {
		if product.PhotoFilename != "" {
			_ = uc.photos.Delete(product.PhotoFilename)
		}
		product.PhotoFilename = *in.PhotoFilename
	}
	product.UpdatedAt = uc.now()

	if err := uc.products.Update(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Delete elimina un producto. Requiere admin y se rehúsa si existe cualquier
// alocación asociada (guardia referencial explícita, sin cascada).
func (uc *UseCase) Delete(actorID, id string) error {
	actor, err := uc.actor(actorID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteProduct(actor) {
		return domain.ErrForbidden
	}
	product, err := uc.products.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	n, err := uc.allocations.CountByProduct(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrHasAllocations
	}
	if product.PhotoFilename != "" {
		_ = uc.photos.Delete(product.PhotoFilename)
	}
	return uc.products.Delete(id)
}

// GetByID devuelve un producto (cualquier usuario activo).
func (uc *UseCase) GetByID(actorID, id string) (*dto.ProductResponse, error) {
	actor, err := uc.actor(actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, domain.ErrForbidden
	}
	product, err := uc.products.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// List lista productos con búsqueda opcional y paginación. El inventario es
// visible para ambos roles (producción lo necesita para solicitar).
func (uc *UseCase) List(actorID, search string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	actor, err := uc.actor(actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()

	list, total, err := uc.products.List(search, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// SearchByPrefix búsqueda interactiva (autocompletado). Términos de menos de
// dos caracteres devuelven vacío.
func (uc *UseCase) SearchByPrefix(actorID, term string, limit int) ([]dto.ProductResponse, error) {
	actor, err := uc.actor(actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Active {
		return nil, domain.ErrForbidden
	}
	if len(term) < 2 {
		return []dto.ProductResponse{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	list, err := uc.products.SearchByPrefix(term, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return items, nil
}

// AdjustStock ajuste directo (add/remove) del almoxarifado; delega en el
// motor de ledger. "allocation" no es un ajuste válido aquí: esas salidas solo
// nacen de la máquina de estados.
func (uc *UseCase) AdjustStock(ctx context.Context, actorID, productID string, in dto.AdjustStockRequest) (*dto.MovementResponse, error) {
	actor, err := uc.actor(actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAdjustStock(actor) {
		return nil, domain.ErrForbidden
	}
	if in.Type != entity.MovementAdd && in.Type != entity.MovementRemove {
		return nil, domain.ErrInvalidInput
	}
	mov, err := uc.engine.Apply(ctx, productID, actor.ID, in.Type, in.Quantity, in.Notes)
	if err != nil {
		return nil, err
	}
	return toMovementResponse(mov), nil
}

// MovementHistory ledger de un producto, más recientes primero (solo almoxarifado).
func (uc *UseCase) MovementHistory(actorID, productID string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	actor, err := uc.actor(actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAdjustStock(actor) {
		return nil, domain.ErrForbidden
	}
	product, err := uc.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	page.DefaultPage()

	list, total, err := uc.movements.ListByProduct(productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:                p.ID,
		Code:              p.Code,
		Name:              p.Name,
		SupplierReference: p.SupplierReference,
		SupplierName:      p.SupplierName,
		Location:          p.Location,
		Quantity:          p.Quantity,
		Unit:              p.Unit,
		PhotoFilename:     p.PhotoFilename,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toMovementResponse(m *entity.StockMovement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	return &dto.MovementResponse{
		ID:               m.ID,
		ProductID:        m.ProductID,
		UserID:           m.UserID,
		Type:             m.Type,
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
	}
}
