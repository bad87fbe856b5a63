package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, code, name, supplier_reference, supplier_name, location, quantity, unit, photo_filename, created_at, updated_at, created_by`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.Code, product.Name, product.SupplierReference, product.SupplierName,
		product.Location, product.Quantity, product.Unit, nullIfEmpty(product.PhotoFilename),
		product.CreatedAt, product.UpdatedAt, nullIfEmpty(product.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get product")
}

// GetByCode obtiene un producto por su código único.
func (r *ProductRepo) GetByCode(code string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE code = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, code), "get product by code")
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
// Solo tiene sentido dentro de una transacción del TxRunner.
func (r *ProductRepo) GetForUpdate(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id), "get product for update")
}

// Update actualiza los metadatos de un producto. No toca quantity (solo vía movimientos).
func (r *ProductRepo) Update(product *entity.Product) error {
	query := `
		UPDATE products
		SET code = $2, name = $3, supplier_reference = $4, supplier_name = $5,
		    location = $6, unit = $7, photo_filename = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		product.ID, product.Code, product.Name, product.SupplierReference, product.SupplierName,
		product.Location, product.Unit, nullIfEmpty(product.PhotoFilename), product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateQuantity actualiza solo la cantidad (usado por el motor de ledger).
func (r *ProductRepo) UpdateQuantity(id string, quantity int) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE products SET quantity = $2, updated_at = now() WHERE id = $1`,
		id, quantity,
	)
	if err != nil {
		return fmt.Errorf("update product quantity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos con búsqueda opcional (código, nombre o referencia del
// proveedor) y devuelve la página más el total de coincidencias.
func (r *ProductRepo) List(search string, limit, offset int) ([]*entity.Product, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = `WHERE code ILIKE $1 OR name ILIKE $1 OR supplier_reference ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products ` + where
	if err := r.q.QueryRow(context.Background(), countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+productColumns+` FROM products %s ORDER BY code LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	list, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, rows.Err()
}

// SearchByPrefix búsqueda por prefijo de código o nombre (autocompletado).
func (r *ProductRepo) SearchByPrefix(term string, limit int) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE code ILIKE $1 OR name ILIKE $1
		ORDER BY code LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	list, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	return list, rows.Err()
}

// Delete elimina un producto por ID. La guardia referencial sobre alocaciones
// vive en el caso de uso; aquí solo se ejecuta el borrado.
func (r *ProductRepo) Delete(id string) error {
	cmd, err := r.q.Exec(context.Background(), `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count total de productos.
func (r *ProductRepo) Count() (int, error) {
	var n int
	if err := r.q.QueryRow(context.Background(), `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// CountLowStock productos con cantidad igual o inferior al umbral.
func (r *ProductRepo) CountLowStock(threshold int) (int, error) {
	var n int
	err := r.q.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM products WHERE quantity <= $1`, threshold).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count low stock: %w", err)
	}
	return n, nil
}

func (r *ProductRepo) scanOne(row pgx.Row, op string) (*entity.Product, error) {
	var p entity.Product
	var photo, createdBy *string
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.SupplierReference, &p.SupplierName, &p.Location,
		&p.Quantity, &p.Unit, &photo, &p.CreatedAt, &p.UpdatedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.PhotoFilename = deref(photo)
	p.CreatedBy = deref(createdBy)
	return &p, nil
}

func scanProducts(rows pgx.Rows) ([]*entity.Product, error) {
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		var photo, createdBy *string
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.SupplierReference, &p.SupplierName, &p.Location,
			&p.Quantity, &p.Unit, &photo, &p.CreatedAt, &p.UpdatedAt, &createdBy,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.PhotoFilename = deref(photo)
		p.CreatedBy = deref(createdBy)
		list = append(list, &p)
	}
	return list, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
