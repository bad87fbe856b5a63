package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

// Engine es el único camino por el que cambia Product.Quantity: cada cambio
// persiste un StockMovement inmutable con la cantidad anterior y la resultante,
// y actualiza la cantidad en la misma transacción con la fila bloqueada
// (SELECT FOR UPDATE), de modo que movimientos concurrentes sobre el mismo
// producto se serializan.
type Engine struct {
	txRunner TxRunner
	now      func() time.Time
}

// NewEngine construye el motor. now == nil usa time.Now (inyectable en tests).
func NewEngine(txRunner TxRunner, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{txRunner: txRunner, now: now}
}

// NewQuantity calcula la cantidad resultante según el tipo de movimiento.
// remove/allocation se recortan en cero en lugar de fallar: la validación de
// suficiencia ocurre en el caller (máquina de estados / ajuste directo), no
// aquí. Esta capa es aritmética pura y siempre tiene éxito con entrada válida.
func NewQuantity(movementType string, previous, quantity int) int {
	switch movementType {
	case entity.MovementAdd:
		return previous + quantity
	case entity.MovementRemove, entity.MovementAllocation:
		if previous-quantity < 0 {
			return 0
		}
		return previous - quantity
	}
	return previous
}

// Apply abre una transacción y registra un movimiento sobre el producto.
// Falla con ErrInvalidInput si la cantidad no es positiva o el tipo es
// desconocido, y con ErrNotFound si el producto no existe.
func (e *Engine) Apply(ctx context.Context, productID, actorID, movementType string, quantity int, notes string) (*entity.StockMovement, error) {
	if quantity <= 0 || !entity.ValidMovementType(movementType) {
		return nil, domain.ErrInvalidInput
	}

	var movement *entity.StockMovement
	err := e.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		_ repository.AllocationRepository,
	) error {
		product, err := productRepo.GetForUpdate(productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		movement, err = e.ApplyIn(productRepo, movementRepo, product, actorID, movementType, quantity, notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// ApplyIn registra un movimiento usando repositorios ya atados a la
// transacción del caller (la máquina de estados lo usa para que movimiento y
// cambio de estado de la solicitud compartan la misma tx). El producto debe
// venir de GetForUpdate dentro de esa tx, o haber sido insertado en ella.
func (e *Engine) ApplyIn(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	product *entity.Product,
	actorID, movementType string,
	quantity int,
	notes string,
) (*entity.StockMovement, error) {
	if quantity <= 0 || !entity.ValidMovementType(movementType) {
		return nil, domain.ErrInvalidInput
	}

	previous := product.Quantity
	newQuantity := NewQuantity(movementType, previous, quantity)

	movement := &entity.StockMovement{
		ID:               uuid.New().String(),
		ProductID:        product.ID,
		UserID:           actorID,
		Type:             movementType,
		Quantity:         quantity,
		PreviousQuantity: previous,
		NewQuantity:      newQuantity,
		Notes:            notes,
		CreatedAt:        e.now(),
	}
	if err := movementRepo.Create(movement); err != nil {
		return nil, err
	}
	if err := productRepo.UpdateQuantity(product.ID, newQuantity); err != nil {
		return nil, err
	}
	product.Quantity = newQuantity
	return movement, nil
}
