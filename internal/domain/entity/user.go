package entity

import "time"

// Roles válidos para User.
const (
	RoleWarehouse  = "warehouse"  // almoxarifado: gestiona catálogo, stock y aprobaciones
	RoleProduction = "production" // producción: solicita alocaciones de material
)

// ValidRole indica si el rol pertenece a la enumeración cerrada.
func ValidRole(role string) bool {
	return role == RoleWarehouse || role == RoleProduction
}

// User representa un actor del sistema. Username y Email son únicos.
// Role + IsAdmin determinan qué operaciones puede invocar (ver domain/policy).
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         string // warehouse, production
	IsAdmin      bool
	Active       bool
	CreatedAt    time.Time
	CreatedBy    string // UserID del creador; vacío para el admin seed

	// Redefinición de contraseña
	ResetToken        string
	ResetTokenExpires *time.Time
}
