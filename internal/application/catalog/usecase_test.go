package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almoxarifado-api/internal/application/catalog"
	"github.com/jhoicas/almoxarifado-api/internal/application/dto"
	"github.com/jhoicas/almoxarifado-api/internal/application/ledger"
	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
	"github.com/jhoicas/almoxarifado-api/internal/memrepo"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// fakePhotoStore registra llamadas sin tocar disco.
type fakePhotoStore struct {
	stored  []string
	deleted []string
}

func (f *fakePhotoStore) Store(filename string, _ []byte) (string, error) {
	name := "stored-" + filename
	f.stored = append(f.stored, name)
	return name, nil
}

func (f *fakePhotoStore) Delete(name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

type fixture struct {
	store  *memrepo.Store
	photos *fakePhotoStore
	uc     *catalog.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memrepo.NewStore()
	store.SeedUser(entity.User{ID: "wh-1", Username: "almoxarife", Role: entity.RoleWarehouse, Active: true})
	store.SeedUser(entity.User{ID: "adm-1", Username: "admin", Role: entity.RoleWarehouse, IsAdmin: true, Active: true})
	store.SeedUser(entity.User{ID: "prod-1", Username: "electricista", Role: entity.RoleProduction, Active: true})

	now := func() time.Time { return fixedNow }
	engine := ledger.NewEngine(store.TxRunner(), now)
	photos := &fakePhotoStore{}
	uc := catalog.NewUseCase(store.TxRunner(), store.Users(), store.Products(),
		store.StockMovements(), store.Allocations(), engine, photos, now)
	return &fixture{store: store, photos: photos, uc: uc}
}

// movimientoRotoRunner envuelve el TxRunner del store con un repositorio de
// movimientos que siempre falla al insertar, para verificar el rollback.
type movimientoRotoRunner struct {
	inner ledger.TxRunner
}

type movimientoRotoRepo struct {
	repository.StockMovementRepository
}

func (movimientoRotoRepo) Create(*entity.StockMovement) error {
	return errors.New("insert de movimiento falló")
}

func (r movimientoRotoRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	allocationRepo repository.AllocationRepository,
) error) error {
	return r.inner.Run(ctx, func(
		p repository.ProductRepository,
		m repository.StockMovementRepository,
		a repository.AllocationRepository,
	) error {
		return fn(p, movimientoRotoRepo{m}, a)
	})
}

func validCreate() dto.CreateProductRequest {
	return dto.CreateProductRequest{
		Code:         "X1",
		Name:         "Cabo flexible 2.5mm",
		SupplierName: "Condumex",
		Location:     "A-03",
		Unit:         entity.UnitMeters,
		Quantity:     100,
	}
}

func TestCreate_RegistraStockInicialComoMovimientoAdd(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)
	assert.Equal(t, "X1", res.Code)
	assert.Equal(t, 100, res.Quantity)
	assert.Equal(t, fixedNow, res.CreatedAt)

	movements := f.store.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementAdd, movements[0].Type)
	assert.Equal(t, 0, movements[0].PreviousQuantity)
	assert.Equal(t, 100, movements[0].NewQuantity)
	assert.Equal(t, "wh-1", movements[0].UserID)

	p, ok := f.store.Product(res.ID)
	require.True(t, ok)
	assert.Equal(t, 100, p.Quantity)
}

func TestCreate_MovimientoInicialFallidoNoDejaProducto(t *testing.T) {
	f := newFixture(t)
	roto := catalog.NewUseCase(movimientoRotoRunner{inner: f.store.TxRunner()},
		f.store.Users(), f.store.Products(), f.store.StockMovements(),
		f.store.Allocations(), ledger.NewEngine(f.store.TxRunner(), nil),
		f.photos, nil)

	in := validCreate()
	in.Quantity = 5
	_, err := roto.Create(context.Background(), "wh-1", in)
	require.Error(t, err)

	// Alta y movimiento inicial son una unidad: nada sobrevive al fallo.
	p, err := f.store.Products().GetByCode("X1")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Empty(t, f.store.Movements())
}

func TestCreate_CantidadCeroSinMovimiento(t *testing.T) {
	f := newFixture(t)
	in := validCreate()
	in.Quantity = 0

	res, err := f.uc.Create(context.Background(), "wh-1", in)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Quantity)
	assert.Empty(t, f.store.Movements())
}

func TestCreate_CodigoDuplicado(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	in := validCreate()
	in.Name = "Otro producto"
	_, err = f.uc.Create(context.Background(), "wh-1", in)
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		mutate func(*dto.CreateProductRequest)
	}{
		{"sin código", func(r *dto.CreateProductRequest) { r.Code = "" }},
		{"sin nombre", func(r *dto.CreateProductRequest) { r.Name = "" }},
		{"sin ubicación", func(r *dto.CreateProductRequest) { r.Location = "" }},
		{"sin proveedor", func(r *dto.CreateProductRequest) { r.SupplierName = "" }},
		{"unidad inválida", func(r *dto.CreateProductRequest) { r.Unit = "litros" }},
		{"cantidad negativa", func(r *dto.CreateProductRequest) { r.Quantity = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreate()
			tc.mutate(&in)
			_, err := f.uc.Create(context.Background(), "wh-1", in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreate_ProduccionProhibido(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), "prod-1", validCreate())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdate_CambiaMetadatosNoCantidad(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	name := "Cabo flexible 4mm"
	location := "B-07"
	updated, err := f.uc.Update("wh-1", res.ID, dto.UpdateProductRequest{
		Name:     &name,
		Location: &location,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cabo flexible 4mm", updated.Name)
	assert.Equal(t, "B-07", updated.Location)
	assert.Equal(t, 100, updated.Quantity, "la cantidad no se toca en update")
	assert.Equal(t, "X1", updated.Code)
}

func TestUpdate_CodigoDuplicadoConOtroProducto(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	in2 := validCreate()
	in2.Code = "X2"
	res2, err := f.uc.Create(context.Background(), "wh-1", in2)
	require.NoError(t, err)

	code := "X1"
	_, err = f.uc.Update("wh-1", res2.ID, dto.UpdateProductRequest{Code: &code})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestUpdate_FotoNuevaEliminaLaAnterior(t *testing.T) {
	f := newFixture(t)
	in := validCreate()
	in.PhotoFilename = "foto-vieja.jpg"
	res, err := f.uc.Create(context.Background(), "wh-1", in)
	require.NoError(t, err)

	nueva := "foto-nueva.jpg"
	updated, err := f.uc.Update("wh-1", res.ID, dto.UpdateProductRequest{PhotoFilename: &nueva})
	require.NoError(t, err)
	assert.Equal(t, "foto-nueva.jpg", updated.PhotoFilename)
	assert.Equal(t, []string{"foto-vieja.jpg"}, f.photos.deleted)
}

func TestDelete_RequiereAdmin(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	err = f.uc.Delete("wh-1", res.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.uc.Delete("adm-1", res.ID)
	require.NoError(t, err)
	_, ok := f.store.Product(res.ID)
	assert.False(t, ok)
}

func TestDelete_ConAlocacionesSeRehusa(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	// Cualquier alocación asociada bloquea el borrado, incluso rechazada.
	require.NoError(t, f.store.Allocations().Create(&entity.Allocation{
		ID:        "alloc-1",
		ProductID: res.ID,
		UserID:    "prod-1",
		Status:    entity.AllocationRejected,
	}))

	err = f.uc.Delete("adm-1", res.ID)
	assert.ErrorIs(t, err, domain.ErrHasAllocations)
	_, ok := f.store.Product(res.ID)
	assert.True(t, ok)
}

func TestDelete_EliminaFotoAsociada(t *testing.T) {
	f := newFixture(t)
	in := validCreate()
	in.PhotoFilename = "foto.jpg"
	res, err := f.uc.Create(context.Background(), "wh-1", in)
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete("adm-1", res.ID))
	assert.Equal(t, []string{"foto.jpg"}, f.photos.deleted)
}

func TestList_BuscaYPagina(t *testing.T) {
	f := newFixture(t)
	for _, p := range []struct{ code, name string }{
		{"X1", "Cabo flexible"},
		{"X2", "Cabo rígido"},
		{"Y1", "Tornillo"},
	} {
		in := validCreate()
		in.Code = p.code
		in.Name = p.name
		in.Quantity = 0
		_, err := f.uc.Create(context.Background(), "wh-1", in)
		require.NoError(t, err)
	}

	res, err := f.uc.List("prod-1", "cabo", dto.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page.Total)
	require.Len(t, res.Items, 2)

	paged, err := f.uc.List("wh-1", "", dto.PageRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, paged.Page.Total)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, "Y1", paged.Items[0].Code)
}

func TestSearchByPrefix_TerminoCorto(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	res, err := f.uc.SearchByPrefix("wh-1", "X", 10)
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = f.uc.SearchByPrefix("wh-1", "X1", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "X1", res[0].Code)
}

func TestAdjustStock_AddYRemove(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	mov, err := f.uc.AdjustStock(context.Background(), "wh-1", res.ID, dto.AdjustStockRequest{
		Type: entity.MovementRemove, Quantity: 30, Notes: "merma",
	})
	require.NoError(t, err)
	assert.Equal(t, 100, mov.PreviousQuantity)
	assert.Equal(t, 70, mov.NewQuantity)

	p, _ := f.store.Product(res.ID)
	assert.Equal(t, 70, p.Quantity)
}

func TestAdjustStock_TipoAllocationRechazado(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	_, err = f.uc.AdjustStock(context.Background(), "wh-1", res.ID, dto.AdjustStockRequest{
		Type: entity.MovementAllocation, Quantity: 5,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjustStock_ProduccionProhibido(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	_, err = f.uc.AdjustStock(context.Background(), "prod-1", res.ID, dto.AdjustStockRequest{
		Type: entity.MovementAdd, Quantity: 5,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMovementHistory_MasRecientesPrimero(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.Create(context.Background(), "wh-1", validCreate())
	require.NoError(t, err)

	_, err = f.uc.AdjustStock(context.Background(), "wh-1", res.ID, dto.AdjustStockRequest{
		Type: entity.MovementRemove, Quantity: 10, Notes: "merma",
	})
	require.NoError(t, err)

	hist, err := f.uc.MovementHistory("wh-1", res.ID, dto.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, hist.Page.Total)
	require.Len(t, hist.Items, 2)
	assert.Equal(t, entity.MovementRemove, hist.Items[0].Type)
	assert.Equal(t, entity.MovementAdd, hist.Items[1].Type)

	_, err = f.uc.MovementHistory("prod-1", res.ID, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
