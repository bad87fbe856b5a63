// Package allocation implementa la máquina de estados de las solicitudes de
// material: pending -> approved | rejected, y su interacción con el ledger.
package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/almoxarifado-api/internal/application/dto"
	"github.com/jhoicas/almoxarifado-api/internal/application/ledger"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/policy"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

// UseCase gobierna el ciclo de vida de Allocation. Toda aprobación aplica su
// movimiento de ledger y el cambio de estado dentro de la misma transacción:
// nunca queda un movimiento sin estado actualizado ni al revés.
type UseCase struct {
	txRunner    ledger.TxRunner
	engine      *ledger.Engine
	users       repository.UserRepository
	products    repository.ProductRepository
	allocations repository.AllocationRepository
	now         func() time.Time
}

// NewUseCase construye la máquina de estados. now == nil usa time.Now.
func NewUseCase(
	txRunner ledger.TxRunner,
	engine *ledger.Engine,
	users repository.UserRepository,
	products repository.ProductRepository,
	allocations repository.AllocationRepository,
	now func() time.Time,
) *UseCase {
	if now == nil {
		now = time.Now
	}
	return &UseCase{
		txRunner:    txRunner,
		engine:      engine,
		users:       users,
		products:    products,
		allocations: allocations,
		now:         now,
	}
}

// CreateRequest crea una solicitud de alocación. El estado inicial depende del
// rol del solicitante:
//   - almoxarifado: nace aprobada, con chequeo duro de suficiencia y movimiento
//     de ledger inmediato; stock insuficiente rechaza la operación entera.
//   - producción: nace pendiente, sin movimiento; stock insuficiente no
//     bloquea, solo marca StockWarning (la aprobación queda diferida).
func (uc *UseCase) CreateRequest(ctx context.Context, actorID string, in dto.CreateAllocationRequest) (*dto.AllocationResponse, error) {
	actor, err := uc.users.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if in.Quantity <= 0 || in.ProductID == "" || in.WorkNumber == "" {
		return nil, domain.ErrInvalidInput
	}

	switch {
	case policy.CanAllocateDirectly(actor):
		return uc.createApproved(ctx, actor, in)
	case policy.CanRequestAllocation(actor):
		return uc.createPending(actor, in)
	}
	return nil, domain.ErrForbidden
}

// createApproved: camino directo del almoxarifado. Todo en una transacción
// para que la solicitud aprobada y su movimiento sean una unidad.
func (uc *UseCase) createApproved(ctx context.Context, actor *entity.User, in dto.CreateAllocationRequest) (*dto.AllocationResponse, error) {
	var alloc *entity.Allocation
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		allocationRepo repository.AllocationRepository,
	) error {
		product, err := productRepo.GetForUpdate(in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if product.Quantity < in.Quantity {
			return domain.ErrInsufficientStock
		}

		now := uc.now()
		alloc = &entity.Allocation{
			ID:           uuid.New().String(),
			ProductID:    product.ID,
			UserID:       actor.ID,
			WorkNumber:   in.WorkNumber,
			Quantity:     in.Quantity,
			Notes:        in.Notes,
			AllocatedAt:  now,
			Status:       entity.AllocationApproved,
			ApprovedByID: actor.ID,
			ApprovedAt:   &now,
		}
		if err := allocationRepo.Create(alloc); err != nil {
			return err
		}

		_, err = uc.engine.ApplyIn(productRepo, movementRepo, product, actor.ID,
			entity.MovementAllocation, in.Quantity,
			fmt.Sprintf("Asignado a obra %s", in.WorkNumber))
		return err
	})
	if err != nil {
		return nil, err
	}
	return toResponse(alloc, false), nil
}

// createPending: camino de producción. Un solo insert, sin movimiento.
func (uc *UseCase) createPending(actor *entity.User, in dto.CreateAllocationRequest) (*dto.AllocationResponse, error) {
	product, err := uc.products.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	stockWarning := product.Quantity < in.Quantity

	alloc := &entity.Allocation{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		UserID:      actor.ID,
		WorkNumber:  in.WorkNumber,
		Quantity:    in.Quantity,
		Notes:       in.Notes,
		AllocatedAt: uc.now(),
		Status:      entity.AllocationPending,
	}
	if err := uc.allocations.Create(alloc); err != nil {
		return nil, err
	}
	return toResponse(alloc, stockWarning), nil
}

// Decide aprueba o rechaza una solicitud pendiente. Solo válida sobre estado
// pending: cualquier otro estado falla con ErrAlreadyProcessed y no cambia
// nada (guardia de idempotencia). Al aprobar se re-verifica la suficiencia
// con la fila del producto bloqueada: el stock pudo cambiar desde que se creó
// la solicitud; si no alcanza, la solicitud queda pendiente y el caller puede
// reintentar tras reponer.
func (uc *UseCase) Decide(ctx context.Context, actorID, allocationID string, in dto.DecideAllocationRequest) (*dto.AllocationResponse, error) {
	actor, err := uc.users.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !policy.CanDecideAllocation(actor) {
		return nil, domain.ErrForbidden
	}
	if in.Action != entity.AllocationApproved && in.Action != entity.AllocationRejected {
		return nil, domain.ErrInvalidInput
	}

	var alloc *entity.Allocation
	err = uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
		allocationRepo repository.AllocationRepository,
	) error {
		alloc, err = allocationRepo.GetForUpdate(allocationID)
		if err != nil {
			return err
		}
		if alloc == nil {
			return domain.ErrNotFound
		}
		if alloc.Decided() {
			return domain.ErrAlreadyProcessed
		}

		if in.Action == entity.AllocationApproved {
			product, err := productRepo.GetForUpdate(alloc.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrNotFound
			}
			if product.Quantity < alloc.Quantity {
				return domain.ErrInsufficientStock
			}
			if _, err := uc.engine.ApplyIn(productRepo, movementRepo, product, actor.ID,
				entity.MovementAllocation, alloc.Quantity,
				fmt.Sprintf("Solicitud aprobada - obra %s", alloc.WorkNumber)); err != nil {
				return err
			}
		}

		now := uc.now()
		alloc.Status = in.Action
		alloc.ApprovedByID = actor.ID
		alloc.ApprovedAt = &now
		alloc.ApprovalNotes = in.Notes
		return allocationRepo.Update(alloc)
	})
	if err != nil {
		return nil, err
	}
	return toResponse(alloc, false), nil
}

// List devuelve alocaciones según la visibilidad del actor: el almoxarifado ve
// todas (con filtros opcionales); producción solo las propias, sin importar el
// filtro pedido.
func (uc *UseCase) List(actorID string, filter repository.AllocationFilter) (*dto.AllocationListResponse, error) {
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
	if !policy.CanViewAllAllocations(actor) {
		filter.UserID = actor.ID
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	list, total, err := uc.allocations.List(filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AllocationResponse, 0, len(list))
	for _, a := range list {
		items = append(items, *toResponse(a, false))
	}
	return &dto.AllocationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}, nil
}

// GetByID devuelve una alocación respetando la visibilidad del actor.
func (uc *UseCase) GetByID(actorID, allocationID string) (*dto.AllocationResponse, error) {
	actor, err := uc.users.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	alloc, err := uc.allocations.GetByID(allocationID)
	if err != nil {
		return nil, err
	}
	if alloc == nil {
		return nil, domain.ErrNotFound
	}
	if !policy.CanViewAllocationsOf(actor, alloc.UserID) {
		// Negación genérica: no filtrar la existencia del recurso.
		return nil, domain.ErrForbidden
	}
	return toResponse(alloc, false), nil
}

func toResponse(a *entity.Allocation, stockWarning bool) *dto.AllocationResponse {
	if a == nil {
		return nil
	}
	return &dto.AllocationResponse{
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
		StockWarning:  stockWarning,
	}
}
