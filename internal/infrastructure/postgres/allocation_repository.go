package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

const allocationColumns = `id, product_id, user_id, work_number, quantity, notes, allocated_at, status, approved_by, approved_at, approval_notes`

// AllocationRepo implementación del puerto AllocationRepository sobre PostgreSQL.
type AllocationRepo struct {
	q Querier
}

// NewAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAllocationRepository(q Querier) *AllocationRepo {
	return &AllocationRepo{q: q}
}

// Create persiste una solicitud de alocación.
func (r *AllocationRepo) Create(allocation *entity.Allocation) error {
	query := `
		INSERT INTO allocations (` + allocationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		allocation.ID, allocation.ProductID, allocation.UserID, allocation.WorkNumber,
		allocation.Quantity, nullIfEmpty(allocation.Notes), allocation.AllocatedAt,
		allocation.Status, nullIfEmpty(allocation.ApprovedByID), allocation.ApprovedAt,
		nullIfEmpty(allocation.ApprovalNotes),
	)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

// GetByID obtiene una alocación por ID.
func (r *AllocationRepo) GetByID(id string) (*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1`
	return scanAllocation(r.q.QueryRow(context.Background(), query, id), "get allocation")
}

// GetForUpdate obtiene la alocación y bloquea la fila (SELECT FOR UPDATE).
// Serializa decisiones concurrentes sobre la misma solicitud.
func (r *AllocationRepo) GetForUpdate(id string) (*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1 FOR UPDATE`
	return scanAllocation(r.q.QueryRow(context.Background(), query, id), "get allocation for update")
}

// Update actualiza estado y campos de decisión de una alocación.
func (r *AllocationRepo) Update(allocation *entity.Allocation) error {
	query := `
		UPDATE allocations
		SET status = $2, approved_by = $3, approved_at = $4, approval_notes = $5
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		allocation.ID, allocation.Status, nullIfEmpty(allocation.ApprovedByID),
		allocation.ApprovedAt, nullIfEmpty(allocation.ApprovalNotes),
	)
	if err != nil {
		return fmt.Errorf("update allocation: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista alocaciones con filtros opcionales, más recientes primero, con el
// total de coincidencias.
func (r *AllocationRepo) List(filter repository.AllocationFilter) ([]*entity.Allocation, int, error) {
	var conds []string
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM allocations ` + where
	if err := r.q.QueryRow(context.Background(), countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count allocations: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+allocationColumns+` FROM allocations %s ORDER BY allocated_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var list []*entity.Allocation
	for rows.Next() {
		a, err := scanAllocationRow(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, a)
	}
	return list, total, rows.Err()
}

// CountByProduct alocaciones asociadas a un producto (guardia referencial del borrado).
func (r *AllocationRepo) CountByProduct(productID string) (int, error) {
	return r.count(`SELECT COUNT(*) FROM allocations WHERE product_id = $1`, productID)
}

// CountByUser alocaciones de un usuario (guardia referencial del borrado de funcionarios).
func (r *AllocationRepo) CountByUser(userID string) (int, error) {
	return r.count(`SELECT COUNT(*) FROM allocations WHERE user_id = $1`, userID)
}

// CountByStatus alocaciones por estado (panel del almoxarifado).
func (r *AllocationRepo) CountByStatus(status string) (int, error) {
	return r.count(`SELECT COUNT(*) FROM allocations WHERE status = $1`, status)
}

// CountByUserAndStatus alocaciones propias por estado (panel de producción).
func (r *AllocationRepo) CountByUserAndStatus(userID, status string) (int, error) {
	return r.count(`SELECT COUNT(*) FROM allocations WHERE user_id = $1 AND status = $2`, userID, status)
}

func (r *AllocationRepo) count(query string, args ...any) (int, error) {
	var n int
	if err := r.q.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count allocations: %w", err)
	}
	return n, nil
}

func scanAllocation(row pgx.Row, op string) (*entity.Allocation, error) {
	var a entity.Allocation
	var notes, approvedBy, approvalNotes *string
	err := row.Scan(
		&a.ID, &a.ProductID, &a.UserID, &a.WorkNumber, &a.Quantity, &notes,
		&a.AllocatedAt, &a.Status, &approvedBy, &a.ApprovedAt, &approvalNotes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.Notes = deref(notes)
	a.ApprovedByID = deref(approvedBy)
	a.ApprovalNotes = deref(approvalNotes)
	return &a, nil
}

func scanAllocationRow(rows pgx.Rows) (*entity.Allocation, error) {
	var a entity.Allocation
	var notes, approvedBy, approvalNotes *string
	if err := rows.Scan(
		&a.ID, &a.ProductID, &a.UserID, &a.WorkNumber, &a.Quantity, &notes,
		&a.AllocatedAt, &a.Status, &approvedBy, &a.ApprovedAt, &approvalNotes,
	); err != nil {
		return nil, fmt.Errorf("scan allocation: %w", err)
	}
	a.Notes = deref(notes)
	a.ApprovedByID = deref(approvedBy)
	a.ApprovalNotes = deref(approvalNotes)
	return &a, nil
}
