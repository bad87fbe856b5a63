package dto

import "time"

// CreateAllocationRequest solicitud de alocación de material para una obra.
type CreateAllocationRequest struct {
	ProductID  string `json:"product_id"`
	WorkNumber string `json:"work_number"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

// DecideAllocationRequest decisión sobre una solicitud pendiente.
type DecideAllocationRequest struct {
	Action string `json:"action"` // approved | rejected
	Notes  string `json:"notes"`
}

// AllocationResponse representación de salida de una alocación.
// StockWarning solo se marca al crear una solicitud de producción cuyo
// producto no tiene stock suficiente en ese momento; la solicitud se acepta
// igual porque la aprobación queda diferida al almoxarifado.
type AllocationResponse struct {
	ID            string     `json:"id"`
	ProductID     string     `json:"product_id"`
	UserID        string     `json:"user_id"`
	WorkNumber    string     `json:"work_number"`
	Quantity      int        `json:"quantity"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	ApprovedByID  string     `json:"approved_by_id,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	ApprovalNotes string     `json:"approval_notes,omitempty"`
	AllocatedAt   time.Time  `json:"allocated_at"`
	StockWarning  bool       `json:"stock_warning,omitempty"`
}

// AllocationListResponse página de alocaciones.
type AllocationListResponse struct {
	Items []AllocationResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}
