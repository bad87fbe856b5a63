package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Taxonomía: validación, autorización, conflicto y no-encontrado.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicateCode      = errors.New("código de producto duplicado")
	ErrUsernameExists     = errors.New("el nombre de usuario ya existe")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrAlreadyProcessed   = errors.New("la solicitud ya fue procesada")
	ErrHasAllocations     = errors.New("existen alocaciones asociadas")
)
