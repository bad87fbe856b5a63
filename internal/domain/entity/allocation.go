package entity

import "time"

// Estados del ciclo de vida de una Allocation. Las transiciones son
// unidireccionales: pending -> approved o pending -> rejected; los estados
// terminales nunca revierten.
const (
	AllocationPending  = "pending"
	AllocationApproved = "approved"
	AllocationRejected = "rejected"
)

// Allocation es una solicitud de retiro de material para una obra.
// Solo una allocation aprobada causa un StockMovement de tipo "allocation".
type Allocation struct {
	ID          string
	ProductID   string
	UserID      string // solicitante
	WorkNumber  string // identificador de la obra que consume el material
	Quantity    int
	Notes       string
	AllocatedAt time.Time

	// Decisión (nulos hasta que se decide)
	Status        string // pending, approved, rejected
	ApprovedByID  string
	ApprovedAt    *time.Time
	ApprovalNotes string
}

// Decided indica si la solicitud ya alcanzó un estado terminal.
func (a *Allocation) Decided() bool {
	return a.Status != AllocationPending
}
