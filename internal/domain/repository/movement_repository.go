package repository

import "github.com/jhoicas/almoxarifado-api/internal/domain/entity"

// StockMovementRepository define el puerto de persistencia del ledger.
// El ledger es append-only: no hay Update ni Delete.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	ListByProduct(productID string, limit, offset int) ([]*entity.StockMovement, int, error)
}
