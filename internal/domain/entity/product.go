package entity

import "time"

// Unidades de medida válidas para Product.
const (
	UnitUnit        = "unit"
	UnitMeters      = "meters"
	UnitPackage     = "package"
	UnitHundredPack = "hundred-pack"
)

// ValidUnit indica si la unidad pertenece a la enumeración cerrada.
func ValidUnit(unit string) bool {
	switch unit {
	case UnitUnit, UnitMeters, UnitPackage, UnitHundredPack:
		return true
	}
	return false
}

// Product representa un material del almacén. Code es único.
// Quantity nunca se muta directamente: solo el motor de ledger la cambia,
// dejando un StockMovement por cada cambio.
type Product struct {
	ID                string
	Code              string
	Name              string
	SupplierReference string
	SupplierName      string
	Location          string
	Quantity          int // siempre >= 0
	Unit              string
	PhotoFilename     string // referencia al archivo; el almacenamiento es colaborador externo
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CreatedBy         string // UserID
}
