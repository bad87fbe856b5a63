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

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, username, email, password_hash, role, is_admin, active, created_at, created_by, reset_token, reset_token_expires`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de usuarios. Pasar pool o tx (Querier).
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario. Username y email tienen constraint único.
func (r *UserRepo) Create(user *entity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
		user.IsAdmin, user.Active, user.CreatedAt, nullIfEmpty(user.CreatedBy),
		nullIfEmpty(user.ResetToken), user.ResetTokenExpires,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueUserError(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.q.QueryRow(context.Background(), query, id), "get user")
}

// GetByUsername obtiene un usuario por username.
func (r *UserRepo) GetByUsername(username string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.q.QueryRow(context.Background(), query, username), "get user by username")
}

// GetByEmail obtiene un usuario por email.
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.q.QueryRow(context.Background(), query, email), "get user by email")
}

// GetByResetToken obtiene el usuario dueño de un token de redefinición.
func (r *UserRepo) GetByResetToken(token string) (*entity.User, error) {
	if token == "" {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1`
	return scanUser(r.q.QueryRow(context.Background(), query, token), "get user by reset token")
}

// Update actualiza un usuario existente.
func (r *UserRepo) Update(user *entity.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, role = $5, is_admin = $6,
		    active = $7, reset_token = $8, reset_token_expires = $9
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
		user.IsAdmin, user.Active, nullIfEmpty(user.ResetToken), user.ResetTokenExpires,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueUserError(err)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve todos los usuarios, ordenados por username.
func (r *UserRepo) List() ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var list []*entity.User
	for rows.Next() {
		var u entity.User
		var createdBy, resetToken *string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
			&u.IsAdmin, &u.Active, &u.CreatedAt, &createdBy, &resetToken, &u.ResetTokenExpires); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedBy = deref(createdBy)
		u.ResetToken = deref(resetToken)
		list = append(list, &u)
	}
	return list, rows.Err()
}

// Delete elimina un usuario por ID.
func (r *UserRepo) Delete(id string) error {
	cmd, err := r.q.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// HasAdmin indica si existe al menos un administrador (seed del arranque).
func (r *UserRepo) HasAdmin() (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM users WHERE is_admin = true)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has admin: %w", err)
	}
	return exists, nil
}

// uniqueUserError traduce la violación de unicidad al sentinel correcto según
// el constraint (username o email).
func uniqueUserError(err error) error {
	name := constraintName(err)
	switch {
	case strings.Contains(name, "email"):
		return domain.ErrEmailAlreadyExists
	case strings.Contains(name, "username"):
		return domain.ErrUsernameExists
	}
	return domain.ErrUsernameExists
}

func scanUser(row pgx.Row, op string) (*entity.User, error) {
	var u entity.User
	var createdBy, resetToken *string
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsAdmin,
		&u.Active, &u.CreatedAt, &createdBy, &resetToken, &u.ResetTokenExpires,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.CreatedBy = deref(createdBy)
	u.ResetToken = deref(resetToken)
	return &u, nil
}
