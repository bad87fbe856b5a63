package allocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almoxarifado-api/internal/application/allocation"
	"github.com/jhoicas/almoxarifado-api/internal/application/dto"
	"github.com/jhoicas/almoxarifado-api/internal/application/ledger"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
	"github.com/jhoicas/almoxarifado-api/internal/memrepo"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store *memrepo.Store
	uc    *allocation.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memrepo.NewStore()
	clock := func() time.Time { return fixedNow }
	engine := ledger.NewEngine(store.TxRunner(), clock)
	uc := allocation.NewUseCase(store.TxRunner(), engine, store.Users(), store.Products(), store.Allocations(), clock)

	store.SeedUser(entity.User{ID: "wh-1", Username: "almoxarife", Role: entity.RoleWarehouse, Active: true})
	store.SeedUser(entity.User{ID: "prod-1", Username: "produccion", Role: entity.RoleProduction, Active: true})
	store.SeedProduct(entity.Product{ID: "p-1", Code: "X1", Name: "Tornillo M8", Unit: entity.UnitUnit, Quantity: 100})

	return &fixture{store: store, uc: uc}
}

func request(productID string, qty int) dto.CreateAllocationRequest {
	return dto.CreateAllocationRequest{ProductID: productID, WorkNumber: "W-5", Quantity: qty}
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateRequest
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateRequest_AlmoxarifadoNaceAprobadaConMovimiento(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.CreateRequest(context.Background(), "wh-1", request("p-1", 30))
	require.NoError(t, err)

	assert.Equal(t, entity.AllocationApproved, out.Status)
	assert.Equal(t, "wh-1", out.ApprovedByID, "el aprobador es el propio solicitante")
	require.NotNil(t, out.ApprovedAt)
	assert.Equal(t, fixedNow, *out.ApprovedAt)
	assert.False(t, out.StockWarning)

	p, _ := f.store.Product("p-1")
	assert.Equal(t, 70, p.Quantity)

	movs := f.store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementAllocation, movs[0].Type)
	assert.Equal(t, 100, movs[0].PreviousQuantity)
	assert.Equal(t, 70, movs[0].NewQuantity)
}

func TestCreateRequest_AlmoxarifadoStockInsuficienteRechazaTodo(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.CreateRequest(context.Background(), "wh-1", request("p-1", 150))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Nada creado, nada registrado, cantidad intacta.
	list, total, _ := f.store.Allocations().List(repository.AllocationFilter{})
	assert.Empty(t, list)
	assert.Zero(t, total)
	assert.Empty(t, f.store.Movements())
	p, _ := f.store.Product("p-1")
	assert.Equal(t, 100, p.Quantity)
}

func TestCreateRequest_ProduccionNacePendienteSinMovimiento(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.CreateRequest(context.Background(), "prod-1", request("p-1", 30))
	require.NoError(t, err)

	assert.Equal(t, entity.AllocationPending, out.Status)
	assert.Empty(t, out.ApprovedByID)
	assert.Nil(t, out.ApprovedAt)
	assert.False(t, out.StockWarning)

	assert.Empty(t, f.store.Movements(), "una solicitud pendiente no toca el ledger")
	p, _ := f.store.Product("p-1")
	assert.Equal(t, 100, p.Quantity)
}

func TestCreateRequest_ProduccionInsuficienteAceptaConAdvertencia(t *testing.T) {
	f := newFixture(t)
	f.store.SeedProduct(entity.Product{ID: "p-2", Code: "Y2", Name: "Cinta", Unit: entity.UnitUnit, Quantity: 5})

	out, err := f.uc.CreateRequest(context.Background(), "prod-1", request("p-2", 10))
	require.NoError(t, err, "la insuficiencia no bloquea la creación en el camino de producción")

	assert.Equal(t, entity.AllocationPending, out.Status)
	assert.True(t, out.StockWarning)
	assert.Empty(t, f.store.Movements())
}

func TestCreateRequest_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateRequest(ctx, "prod-1", dto.CreateAllocationRequest{ProductID: "p-1", WorkNumber: "W-5", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.CreateRequest(ctx, "prod-1", dto.CreateAllocationRequest{ProductID: "p-1", WorkNumber: "", Quantity: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.CreateRequest(ctx, "prod-1", request("no-existe", 3))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateRequest_ActorInactivoODesconocido(t *testing.T) {
	f := newFixture(t)
	f.store.SeedUser(entity.User{ID: "off-1", Username: "inactivo", Role: entity.RoleWarehouse, Active: false})

	_, err := f.uc.CreateRequest(context.Background(), "off-1", request("p-1", 1))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.CreateRequest(context.Background(), "fantasma", request("p-1", 1))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// ──────────────────────────────────────────────────────────────────────────────
// Decide
// ──────────────────────────────────────────────────────────────────────────────

// Escenario completo de la historia feliz: producción solicita 30 de 100,
// almoxarifado aprueba, la cantidad queda en 70 con un único movimiento, y
// re-aprobar falla.
func TestDecide_AprobarSolicitudPendiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateRequest(ctx, "prod-1", request("p-1", 30))
	require.NoError(t, err)

	out, err := f.uc.Decide(ctx, "wh-1", created.ID, dto.DecideAllocationRequest{Action: entity.AllocationApproved, Notes: "ok"})
	require.NoError(t, err)

	assert.Equal(t, entity.AllocationApproved, out.Status)
	assert.Equal(t, "wh-1", out.ApprovedByID)
	assert.Equal(t, "ok", out.ApprovalNotes)
	require.NotNil(t, out.ApprovedAt)

	p, _ := f.store.Product("p-1")
	assert.Equal(t, 70, p.Quantity)

	movs := f.store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementAllocation, movs[0].Type)
	assert.Equal(t, 30, movs[0].Quantity)
	assert.Equal(t, 100, movs[0].PreviousQuantity)
	assert.Equal(t, 70, movs[0].NewQuantity)

	// Guardia de idempotencia: la misma solicitud no se decide dos veces.
	_, err = f.uc.Decide(ctx, "wh-1", created.ID, dto.DecideAllocationRequest{Action: entity.AllocationApproved})
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	p, _ = f.store.Product("p-1")
	assert.Equal(t, 70, p.Quantity, "el segundo intento no vuelve a descontar")
	assert.Len(t, f.store.Movements(), 1)
}

func TestDecide_RechazarNoTocaElLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, _ := f.uc.CreateRequest(ctx, "prod-1", request("p-1", 30))
	out, err := f.uc.Decide(ctx, "wh-1", created.ID, dto.DecideAllocationRequest{Action: entity.AllocationRejected, Notes: "sin prioridad"})
	require.NoError(t, err)

	assert.Equal(t, entity.AllocationRejected, out.Status)
	assert.Equal(t, "sin prioridad", out.ApprovalNotes)
	assert.Empty(t, f.store.Movements())
	p, _ := f.store.Product("p-1")
	assert.Equal(t, 100, p.Quantity)

	// Terminal: tampoco se puede re-decidir un rechazo.
	_, err = f.uc.Decide(ctx, "wh-1", created.ID, dto.DecideAllocationRequest{Action: entity.AllocationApproved})
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

// Escenario de insuficiencia diferida: producto con 5, solicitud de 10 creada
// pendiente; la aprobación falla y la solicitud sigue pendiente para reintento.
func TestDecide_AprobarConStockInsuficienteDejaPendiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SeedProduct(entity.Product{ID: "p-2", Code: "Y2", Name: "Cinta", Unit: entity.UnitUnit, Quantity: 5})

	created, err := f.uc.CreateRequest(ctx, "prod-1", request("p-2", 10))
	require.NoError(t, err)
	assert.True(t, created.StockWarning)

	_, err = f.uc.Decide(ctx, "wh-1", created.ID, dto.DecideAllocationRequest{Action: entity.AllocationApproved})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	stored, ok := f.store.Allocation(created.ID)
	require.True(t, ok)
	assert.Equal(t, entity.AllocationPending, stored.Status, "la solicitud permanece pendiente")
	assert.Empty(t, stored.ApprovedByID)
	p, _ := f.store.Product("p-2")
	assert.Equal(t, 5, p.Quantity, "cantidad intacta")
	assert.Empty(t, f.store.Movements())

	// Tras reponer stock, el reintento sí aprueba.
	engineClock := func() time.Time { return fixedNow }
	engine := ledger.NewEngine(f.store.TxRunner(), engineClock)
	_, err = engine.Apply(ctx, "p-2", "wh-1", entity.MovementAdd, 20, "reposición")
	require.NoError(t, err)

	out, err := f.uc.Decide(ctx, "wh-1", created.ID, dto.DecideAllocationRequest{Action: entity.AllocationApproved})
	require.NoError(t, err)
	assert.Equal(t, entity.AllocationApproved, out.Status)
	p, _ = f.store.Product("p-2")
	assert.Equal(t, 15, p.Quantity)
}

// El stock pudo cambiar entre la creación y la decisión: la suficiencia se
// re-verifica al decidir, no al crear.
func TestDecide_ReVerificaSuficienciaAlDecidir(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, _ := f.uc.CreateRequest(ctx, "prod-1", request("p-1", 80))

	// Otra alocación directa consume 50 antes de la decisión.
	_, err := f.uc.CreateRequest(ctx, "wh-1", request("p-1", 50))
	require.NoError(t, err)

	_, err = f.uc.Decide(ctx, "wh-1", created.ID, dto.DecideAllocationRequest{Action: entity.AllocationApproved})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	stored, _ := f.store.Allocation(created.ID)
	assert.Equal(t, entity.AllocationPending, stored.Status)
}

func TestDecide_AutorizacionYValidaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, _ := f.uc.CreateRequest(ctx, "prod-1", request("p-1", 10))

	// Actor desconocido: no autorizado, igual que en el resto de operaciones.
	_, err := f.uc.Decide(ctx, "fantasma", created.ID, dto.DecideAllocationRequest{Action: entity.AllocationApproved})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Producción no decide solicitudes.
	_, err = f.uc.Decide(ctx, "prod-1", created.ID, dto.DecideAllocationRequest{Action: entity.AllocationApproved})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Acción fuera de la enumeración.
	_, err = f.uc.Decide(ctx, "wh-1", created.ID, dto.DecideAllocationRequest{Action: "cancelled"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Solicitud inexistente.
	_, err = f.uc.Decide(ctx, "wh-1", "no-existe", dto.DecideAllocationRequest{Action: entity.AllocationApproved})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, _ := f.store.Allocation(created.ID)
	assert.Equal(t, entity.AllocationPending, stored.Status, "ningún intento fallido cambió el estado")
}

// ──────────────────────────────────────────────────────────────────────────────
// List / GetByID
// ──────────────────────────────────────────────────────────────────────────────

func TestList_VisibilidadPorRol(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SeedUser(entity.User{ID: "prod-2", Username: "produccion2", Role: entity.RoleProduction, Active: true})

	_, err := f.uc.CreateRequest(ctx, "prod-1", request("p-1", 5))
	require.NoError(t, err)
	_, err = f.uc.CreateRequest(ctx, "prod-2", request("p-1", 7))
	require.NoError(t, err)

	// Almoxarifado ve todo.
	all, err := f.uc.List("wh-1", repository.AllocationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Page.Total)

	// Producción solo lo propio, aunque pida otro filtro.
	mine, err := f.uc.List("prod-1", repository.AllocationFilter{UserID: "prod-2"})
	require.NoError(t, err)
	require.Equal(t, 1, mine.Page.Total)
	assert.Equal(t, "prod-1", mine.Items[0].UserID)

	// Filtro por estado para la cola de pendientes.
	pending, err := f.uc.List("wh-1", repository.AllocationFilter{Status: entity.AllocationPending})
	require.NoError(t, err)
	assert.Equal(t, 2, pending.Page.Total)
}

func TestList_ActorDesconocidoNoAutorizado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, _ := f.uc.CreateRequest(ctx, "prod-1", request("p-1", 5))

	_, err := f.uc.List("fantasma", repository.AllocationFilter{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.uc.GetByID("fantasma", created.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetByID_ProduccionNoVeSolicitudAjena(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SeedUser(entity.User{ID: "prod-2", Username: "produccion2", Role: entity.RoleProduction, Active: true})

	created, _ := f.uc.CreateRequest(ctx, "prod-2", request("p-1", 7))

	_, err := f.uc.GetByID("prod-1", created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	out, err := f.uc.GetByID("wh-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, out.ID)
}
