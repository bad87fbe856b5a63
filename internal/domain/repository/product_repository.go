package repository

import "github.com/jhoicas/almoxarifado-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
// UpdateQuantity existe solo para el motor de ledger; el resto del código
// cambia cantidades únicamente a través de movimientos.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByCode(code string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE); solo tiene
	// sentido dentro de una transacción del TxRunner.
	GetForUpdate(id string) (*entity.Product, error)
	Update(product *entity.Product) error
	UpdateQuantity(id string, quantity int) error
	// List filtra por término de búsqueda (código, nombre o referencia del
	// proveedor) y devuelve la página más el total de coincidencias.
	List(search string, limit, offset int) ([]*entity.Product, int, error)
	SearchByPrefix(term string, limit int) ([]*entity.Product, error)
	Delete(id string) error
	Count() (int, error)
	CountLowStock(threshold int) (int, error)
}
