package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almoxarifado-api/internal/application/ledger"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
	"github.com/jhoicas/almoxarifado-api/internal/memrepo"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newEngine(store *memrepo.Store) *ledger.Engine {
	return ledger.NewEngine(store.TxRunner(), func() time.Time { return fixedNow })
}

func seedProduct(store *memrepo.Store, id string, quantity int) {
	store.SeedProduct(entity.Product{
		ID:       id,
		Code:     "X1",
		Name:     "Cabo flexible 2.5mm",
		Unit:     entity.UnitMeters,
		Quantity: quantity,
	})
}

func TestNewQuantity(t *testing.T) {
	cases := []struct {
		name         string
		movementType string
		previous     int
		quantity     int
		want         int
	}{
		{"add suma", entity.MovementAdd, 10, 5, 15},
		{"remove resta", entity.MovementRemove, 10, 4, 6},
		{"allocation resta", entity.MovementAllocation, 100, 30, 70},
		{"remove recorta en cero", entity.MovementRemove, 3, 10, 0},
		{"allocation recorta en cero", entity.MovementAllocation, 1, 2, 0},
		{"remove exacto", entity.MovementRemove, 5, 5, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ledger.NewQuantity(tc.movementType, tc.previous, tc.quantity))
		})
	}
}

func TestApply_AddRegistraMovimientoYActualizaCantidad(t *testing.T) {
	store := memrepo.NewStore()
	seedProduct(store, "prod-1", 10)
	e := newEngine(store)

	mov, err := e.Apply(context.Background(), "prod-1", "user-1", entity.MovementAdd, 5, "reposición")
	require.NoError(t, err)

	assert.Equal(t, 10, mov.PreviousQuantity)
	assert.Equal(t, 15, mov.NewQuantity)
	assert.Equal(t, 5, mov.Quantity)
	assert.Equal(t, entity.MovementAdd, mov.Type)
	assert.Equal(t, "user-1", mov.UserID)
	assert.Equal(t, fixedNow, mov.CreatedAt)
	assert.NotEmpty(t, mov.ID)

	p, _ := store.Product("prod-1")
	assert.Equal(t, 15, p.Quantity)

	movements := store.Movements()
	require.Len(t, movements, 1, "exactamente un registro por movimiento")
	assert.Equal(t, mov.ID, movements[0].ID)
}

func TestApply_RemoveYAllocationRecortanEnCeroSinFallar(t *testing.T) {
	// El recorte en cero es deliberado: esta capa nunca rechaza por
	// insuficiencia, esa validación vive en los callers.
	for _, kind := range []string{entity.MovementRemove, entity.MovementAllocation} {
		t.Run(kind, func(t *testing.T) {
			store := memrepo.NewStore()
			seedProduct(store, "prod-1", 3)
			e := newEngine(store)

			mov, err := e.Apply(context.Background(), "prod-1", "user-1", kind, 10, "")
			require.NoError(t, err)
			assert.Equal(t, 3, mov.PreviousQuantity)
			assert.Equal(t, 0, mov.NewQuantity)

			p, _ := store.Product("prod-1")
			assert.Equal(t, 0, p.Quantity)
		})
	}
}

func TestApply_EntradaInvalida(t *testing.T) {
	store := memrepo.NewStore()
	seedProduct(store, "prod-1", 10)
	e := newEngine(store)

	cases := []struct {
		name     string
		kind     string
		quantity int
	}{
		{"cantidad cero", entity.MovementAdd, 0},
		{"cantidad negativa", entity.MovementAdd, -4},
		{"tipo desconocido", "transfer", 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Apply(context.Background(), "prod-1", "user-1", tc.kind, tc.quantity, "")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	// Sin cambios de estado ni registros
	p, _ := store.Product("prod-1")
	assert.Equal(t, 10, p.Quantity)
	assert.Empty(t, store.Movements())
}

func TestApply_ProductoInexistente(t *testing.T) {
	store := memrepo.NewStore()
	e := newEngine(store)

	_, err := e.Apply(context.Background(), "no-existe", "user-1", entity.MovementAdd, 5, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, store.Movements())
}

func TestApply_SecuenciaDeMovimientosEncadenaCantidades(t *testing.T) {
	store := memrepo.NewStore()
	seedProduct(store, "prod-1", 0)
	e := newEngine(store)
	ctx := context.Background()

	steps := []struct {
		kind string
		qty  int
		want int
	}{
		{entity.MovementAdd, 100, 100},
		{entity.MovementRemove, 20, 80},
		{entity.MovementAllocation, 30, 50},
		{entity.MovementAdd, 10, 60},
	}
	prev := 0
	for _, step := range steps {
		mov, err := e.Apply(ctx, "prod-1", "user-1", step.kind, step.qty, "")
		require.NoError(t, err)
		assert.Equal(t, prev, mov.PreviousQuantity)
		assert.Equal(t, step.want, mov.NewQuantity)
		prev = step.want
	}

	assert.Len(t, store.Movements(), len(steps))
	p, _ := store.Product("prod-1")
	assert.Equal(t, 60, p.Quantity)
}

// failingMovementRepo fuerza el fallo del insert del movimiento para verificar
// que la cantidad del producto no queda actualizada a medias.
type failingMovementRepo struct{}

func (failingMovementRepo) Create(*entity.StockMovement) error {
	return errors.New("insert movement: disco lleno")
}

func (failingMovementRepo) ListByProduct(string, int, int) ([]*entity.StockMovement, int, error) {
	return nil, 0, nil
}

type failingTxRunner struct {
	store *memrepo.Store
}

func (r failingTxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	allocationRepo repository.AllocationRepository,
) error) error {
	return r.store.TxRunner().Run(ctx, func(
		productRepo repository.ProductRepository,
		_ repository.StockMovementRepository,
		allocationRepo repository.AllocationRepository,
	) error {
		return fn(productRepo, failingMovementRepo{}, allocationRepo)
	})
}

func TestApply_FalloEnPersistenciaNoDejaEstadoParcial(t *testing.T) {
	store := memrepo.NewStore()
	seedProduct(store, "prod-1", 10)
	e := ledger.NewEngine(failingTxRunner{store: store}, func() time.Time { return fixedNow })

	_, err := e.Apply(context.Background(), "prod-1", "user-1", entity.MovementAdd, 5, "")
	require.Error(t, err)

	p, _ := store.Product("prod-1")
	assert.Equal(t, 10, p.Quantity, "rollback total: la cantidad no cambia")
	assert.Empty(t, store.Movements())
}
