package dto

import "time"

// CreateProductRequest datos para crear un producto. Quantity es el stock
// inicial y se registra como movimiento "add", no como asignación directa.
type CreateProductRequest struct {
	Code              string `json:"code" form:"code"`
	Name              string `json:"name" form:"name"`
	SupplierReference string `json:"supplier_reference" form:"supplier_reference"`
	SupplierName      string `json:"supplier_name" form:"supplier_name"`
	Location          string `json:"location" form:"location"`
	Unit              string `json:"unit" form:"unit"`
	Quantity          int    `json:"quantity" form:"quantity"`
	// PhotoFilename es la referencia devuelta por el almacenamiento de fotos;
	// el core solo persiste el string.
	PhotoFilename string `json:"-" form:"-"`
}

// UpdateProductRequest datos para editar un producto. Cantidad no editable
// (solo vía movimientos). Campos nil = sin cambio.
type UpdateProductRequest struct {
	Code              *string `json:"code" form:"code"`
	Name              *string `json:"name" form:"name"`
	SupplierReference *string `json:"supplier_reference" form:"supplier_reference"`
	SupplierName      *string `json:"supplier_name" form:"supplier_name"`
	Location          *string `json:"location" form:"location"`
	Unit              *string `json:"unit" form:"unit"`
	PhotoFilename     *string `json:"-" form:"-"`
}

// ProductResponse representación de salida de un producto.
type ProductResponse struct {
	ID                string    `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	SupplierReference string    `json:"supplier_reference,omitempty"`
	SupplierName      string    `json:"supplier_name"`
	Location          string    `json:"location"`
	Quantity          int       `json:"quantity"`
	Unit              string    `json:"unit"`
	PhotoFilename     string    `json:"photo_filename,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProductListResponse página de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// AdjustStockRequest ajuste directo de stock (add o remove).
type AdjustStockRequest struct {
	Type     string `json:"type"` // add | remove
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// MovementResponse registro del ledger de un producto.
type MovementResponse struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	UserID           string    `json:"user_id"`
	Type             string    `json:"type"`
	Quantity         int       `json:"quantity"`
	PreviousQuantity int       `json:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MovementListResponse página del ledger de un producto.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
