// Package policy concentra las reglas de autorización como predicados puros
// sobre (actor, operación), sin efectos secundarios. Reemplaza los checks de
// rol dispersos por funciones testeables de forma independiente.
package policy

import "github.com/jhoicas/almoxarifado-api/internal/domain/entity"

// Un actor inactivo no puede ejecutar ninguna operación, sin importar rol o flag admin.

// CanManageCatalog: crear y editar productos (solo almoxarifado).
func CanManageCatalog(actor *entity.User) bool {
	return isActive(actor) && actor.Role == entity.RoleWarehouse
}

// CanDeleteProduct: eliminar productos requiere además el flag admin.
func CanDeleteProduct(actor *entity.User) bool {
	return CanManageCatalog(actor) && actor.IsAdmin
}

// CanAdjustStock: ajustes directos de stock (add/remove), solo almoxarifado.
func CanAdjustStock(actor *entity.User) bool {
	return isActive(actor) && actor.Role == entity.RoleWarehouse
}

// CanAllocateDirectly: alocación directa (nace aprobada), solo almoxarifado.
func CanAllocateDirectly(actor *entity.User) bool {
	return isActive(actor) && actor.Role == entity.RoleWarehouse
}

// CanRequestAllocation: crear solicitudes pendientes, solo producción.
func CanRequestAllocation(actor *entity.User) bool {
	return isActive(actor) && actor.Role == entity.RoleProduction
}

// CanDecideAllocation: aprobar o rechazar solicitudes pendientes, solo almoxarifado.
func CanDecideAllocation(actor *entity.User) bool {
	return isActive(actor) && actor.Role == entity.RoleWarehouse
}

// CanViewAllAllocations: el almoxarifado ve todas; producción solo las propias.
func CanViewAllAllocations(actor *entity.User) bool {
	return isActive(actor) && actor.Role == entity.RoleWarehouse
}

// CanViewAllocationsOf: producción solo puede ver sus propias solicitudes.
func CanViewAllocationsOf(actor *entity.User, ownerID string) bool {
	if !isActive(actor) {
		return false
	}
	if actor.Role == entity.RoleWarehouse {
		return true
	}
	return actor.ID == ownerID
}

// CanManageEmployees: administración de funcionarios requiere rol almoxarifado y flag admin.
func CanManageEmployees(actor *entity.User) bool {
	return isActive(actor) && actor.Role == entity.RoleWarehouse && actor.IsAdmin
}

// CanDeleteEmployee: además de administrar, la auto-eliminación se niega incondicionalmente.
func CanDeleteEmployee(actor *entity.User, targetID string) bool {
	return CanManageEmployees(actor) && actor.ID != targetID
}

func isActive(actor *entity.User) bool {
	return actor != nil && actor.Active
}
