// Package dashboard arma las métricas de los paneles por rol. Cada cifra sale
// de una consulta de conteo explícita, nunca de contar listas en memoria.
package dashboard

import (
	"github.com/jhoicas/almoxarifado-api/internal/application/dto"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/policy"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

// LowStockThreshold cantidad igual o inferior se considera stock bajo.
const LowStockThreshold = 10

// UseCase casos de uso de los paneles.
type UseCase struct {
	users       repository.UserRepository
	products    repository.ProductRepository
	allocations repository.AllocationRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(users repository.UserRepository, products repository.ProductRepository, allocations repository.AllocationRepository) *UseCase {
	return &UseCase{users: users, products: products, allocations: allocations}
}

// Warehouse panel global del almoxarifado.
func (uc *UseCase) Warehouse(actorID string) (*dto.WarehouseDashboardResponse, error) {
	actor, err := uc.users.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !policy.CanViewAllAllocations(actor) {
		return nil, domain.ErrForbidden
	}

	totalProducts, err := uc.products.Count()
	if err != nil {
		return nil, err
	}
	lowStock, err := uc.products.CountLowStock(LowStockThreshold)
	if err != nil {
		return nil, err
	}
	pending, err := uc.allocations.CountByStatus(entity.AllocationPending)
	if err != nil {
		return nil, err
	}
	approved, err := uc.allocations.CountByStatus(entity.AllocationApproved)
	if err != nil {
		return nil, err
	}
	rejected, err := uc.allocations.CountByStatus(entity.AllocationRejected)
	if err != nil {
		return nil, err
	}
	recent, _, err := uc.allocations.List(repository.AllocationFilter{Limit: 5})
	if err != nil {
		return nil, err
	}

	return &dto.WarehouseDashboardResponse{
		TotalProducts:     totalProducts,
		TotalAllocations:  pending + approved + rejected,
		LowStockProducts:  lowStock,
		PendingRequests:   pending,
		RecentAllocations: toResponses(recent),
	}, nil
}

// Production panel personal de producción: solo solicitudes propias.
func (uc *UseCase) Production(actorID string) (*dto.ProductionDashboardResponse, error) {
	actor, err := uc.users.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !actor.Active {
		return nil, domain.ErrForbidden
	}

	pending, err := uc.allocations.CountByUserAndStatus(actor.ID, entity.AllocationPending)
	if err != nil {
		return nil, err
	}
	approved, err := uc.allocations.CountByUserAndStatus(actor.ID, entity.AllocationApproved)
	if err != nil {
		return nil, err
	}
	rejected, err := uc.allocations.CountByUserAndStatus(actor.ID, entity.AllocationRejected)
	if err != nil {
		return nil, err
	}
	recent, _, err := uc.allocations.List(repository.AllocationFilter{UserID: actor.ID, Limit: 10})
	if err != nil {
		return nil, err
	}

	return &dto.ProductionDashboardResponse{
		TotalRequests:     pending + approved + rejected,
		PendingRequests:   pending,
		ApprovedRequests:  approved,
		RejectedRequests:  rejected,
		RecentAllocations: toResponses(recent),
	}, nil
}

func toResponses(list []*entity.Allocation) []dto.AllocationResponse {
	out := make([]dto.AllocationResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.AllocationResponse{
			ID:            a.ID,
			ProductID:     a.ProductID,
			UserID:        a.UserID,
			WorkNumber:    a.WorkNumber,
			Quantity:      a.Quantity,
			Notes:         a.Notes,
			Status:        a.Status,
			ApprovedByID:  a.ApprovedByID,
			ApprovedAt:    a.ApprovedAt,
			ApprovalNotes: a.ApprovalNotes,
			AllocatedAt:   a.AllocatedAt,
		})
	}
	return out
}
