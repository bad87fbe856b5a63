// Package employee gestiona el alta, edición y baja de funcionarios. Todas las
// operaciones están restringidas a administradores activos.
package employee

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/almoxarifado-api/internal/application/dto"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/policy"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

const minPasswordLen = 6

// UseCase casos de uso de gestión de funcionarios.
type UseCase struct {
	users       repository.UserRepository
	allocations repository.AllocationRepository
	now         func() time.Time
}

// NewUseCase construye el caso de uso. now == nil usa time.Now.
func NewUseCase(users repository.UserRepository, allocations repository.AllocationRepository, now func() time.Time) *UseCase {
	if now == nil {
		now = time.Now
	}
	return &UseCase{users: users, allocations: allocations, now: now}
}

func (uc *UseCase) admin(actorID string) (*entity.User, error) {
	actor, err := uc.users.GetByID(actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if !policy.CanManageEmployees(actor) {
		return nil, domain.ErrForbidden
	}
	return actor, nil
}

// Create crea un funcionario. Username y email son únicos.
func (uc *UseCase) Create(actorID string, in dto.CreateEmployeeRequest) (*dto.UserResponse, error) {
	actor, err := uc.admin(actorID)
	if err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || !entity.ValidRole(in.Role) {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Password) < minPasswordLen {
		return nil, domain.ErrInvalidInput
	}

	if existing, err := uc.users.GetByUsername(in.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrUsernameExists
	}
	if existing, err := uc.users.GetByEmail(in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		IsAdmin:      in.IsAdmin,
		Active:       true,
		CreatedAt:    uc.now(),
		CreatedBy:    actor.ID,
	}
	if err := uc.users.Create(user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Update edita un funcionario. Password vacío conserva el hash actual.
func (uc *UseCase) Update(actorID, id string, in dto.UpdateEmployeeRequest) (*dto.UserResponse, error) {
	if _, err := uc.admin(actorID); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || !entity.ValidRole(in.Role) {
		return nil, domain.ErrInvalidInput
	}

	if in.Username != user.Username {
		if existing, err := uc.users.GetByUsername(in.Username); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, domain.ErrUsernameExists
		}
	}
	if in.Email != user.Email {
		if existing, err := uc.users.GetByEmail(in.Email); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, domain.ErrEmailAlreadyExists
		}
	}

	user.Username = in.Username
	user.Email = in.Email
	user.Role = in.Role
	user.IsAdmin = in.IsAdmin
	user.Active = in.Active
	if in.Password != "" {
		if len(in.Password) < minPasswordLen {
			return nil, domain.ErrInvalidInput
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := uc.users.Update(user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Delete elimina un funcionario. Un admin no puede eliminarse a sí mismo y un
// usuario con alocaciones registradas no se borra (se desactiva vía Update).
func (uc *UseCase) Delete(actorID, id string) error {
	actor, err := uc.admin(actorID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteEmployee(actor, id) {
		return domain.ErrForbidden
	}
	user, err := uc.users.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	n, err := uc.allocations.CountByUser(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrHasAllocations
	}
	return uc.users.Delete(id)
}

// List devuelve todos los funcionarios (solo admin).
func (uc *UseCase) List(actorID string) ([]dto.UserResponse, error) {
	if _, err := uc.admin(actorID); err != nil {
		return nil, err
	}
	users, err := uc.users.List()
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *toUserResponse(u))
	}
	return out, nil
}

// GetByID devuelve un funcionario (solo admin).
func (uc *UseCase) GetByID(actorID, id string) (*dto.UserResponse, error) {
	if _, err := uc.admin(actorID); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserResponse(user), nil
}

// SeedAdmin crea el administrador inicial si no existe ninguno. Se invoca al
// arrancar el servicio; en una instalación ya poblada no hace nada.
func (uc *UseCase) SeedAdmin(username, email, password string) (*dto.UserResponse, error) {
	has, err := uc.users.HasAdmin()
	if err != nil {
		return nil, err
	}
	if has {
		return nil, nil
	}
	if username == "" || email == "" || len(password) < minPasswordLen {
		return nil, domain.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         entity.RoleWarehouse,
		IsAdmin:      true,
		Active:       true,
		CreatedAt:    uc.now(),
	}
	if err := uc.users.Create(user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsAdmin:   u.IsAdmin,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}
