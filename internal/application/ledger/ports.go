package ledger

import (
	"context"

	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que movimiento + cantidad (y, en las
// decisiones, movimiento + estado) se apliquen como una unidad atómica.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		allocationRepo repository.AllocationRepository,
	) error) error
}
