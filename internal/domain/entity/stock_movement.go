package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementAdd        = "add"
	MovementRemove     = "remove"
	MovementAllocation = "allocation"
)

// ValidMovementType indica si el tipo pertenece a la enumeración cerrada.
func ValidMovementType(t string) bool {
	switch t {
	case MovementAdd, MovementRemove, MovementAllocation:
		return true
	}
	return false
}

// StockMovement es un registro inmutable del ledger: un cambio de cantidad de
// un producto, con la cantidad anterior y la resultante. Una vez creado nunca
// se edita ni se borra.
type StockMovement struct {
	ID               string
	ProductID        string
	UserID           string // actor que causó el movimiento
	Type             string // add, remove, allocation
	Quantity         int    // delta solicitado, siempre positivo
	PreviousQuantity int
	NewQuantity      int
	Notes            string
	CreatedAt        time.Time
}
