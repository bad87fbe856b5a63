package repository

import "github.com/jhoicas/almoxarifado-api/internal/domain/entity"

// AllocationFilter filtros opcionales para listados de alocaciones.
// UserID y Status vacíos significan "sin filtro".
type AllocationFilter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

// AllocationRepository define el puerto de persistencia para Allocation (DIP).
// CountByProduct y CountByUser son las consultas explícitas de integridad
// referencial que sustituyen la navegación perezosa del ORM original.
type AllocationRepository interface {
	Create(allocation *entity.Allocation) error
	GetByID(id string) (*entity.Allocation, error)
	// GetForUpdate bloquea la fila de la solicitud; solo dentro de una tx.
	GetForUpdate(id string) (*entity.Allocation, error)
	Update(allocation *entity.Allocation) error
	List(filter AllocationFilter) ([]*entity.Allocation, int, error)
	CountByProduct(productID string) (int, error)
	CountByUser(userID string) (int, error)
	CountByStatus(status string) (int, error)
	CountByUserAndStatus(userID, status string) (int, error)
}
