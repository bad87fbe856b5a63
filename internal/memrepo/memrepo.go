// Package memrepo implementa los puertos de persistencia en memoria, con un
// TxRunner que restaura un snapshot si el callback falla. Lo usan los tests de
// aplicación para verificar la semántica transaccional (commit/rollback) sin
// una base de datos real.
package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/almoxarifado-api/internal/domain"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

// Store guarda el estado compartido. Los repositorios devuelven copias para
// evitar aliasing con el estado interno.
type Store struct {
	mu          sync.Mutex
	users       map[string]entity.User
	products    map[string]entity.Product
	movements   []entity.StockMovement
	allocations map[string]entity.Allocation
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		users:       map[string]entity.User{},
		products:    map[string]entity.Product{},
		allocations: map[string]entity.Allocation{},
	}
}

// SeedUser inserta un usuario directamente (para tests).
func (s *Store) SeedUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// SeedProduct inserta un producto directamente (para tests).
func (s *Store) SeedProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// Movements devuelve una copia del ledger completo (para aserciones).
func (s *Store) Movements() []entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.StockMovement, len(s.movements))
	copy(out, s.movements)
	return out
}

// Product devuelve el estado actual de un producto (para aserciones).
func (s *Store) Product(id string) (entity.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

// Allocation devuelve el estado actual de una alocación (para aserciones).
func (s *Store) Allocation(id string) (entity.Allocation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.allocations[id]
	return a, ok
}

type snapshot struct {
	users       map[string]entity.User
	products    map[string]entity.Product
	movements   []entity.StockMovement
	allocations map[string]entity.Allocation
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:       make(map[string]entity.User, len(s.users)),
		products:    make(map[string]entity.Product, len(s.products)),
		movements:   make([]entity.StockMovement, len(s.movements)),
		allocations: make(map[string]entity.Allocation, len(s.allocations)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	copy(snap.movements, s.movements)
	for k, v := range s.allocations {
		snap.allocations[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.products = snap.products
	s.movements = snap.movements
	s.allocations = snap.allocations
}

// TxRunner devuelve un runner que serializa transacciones con el mutex del
// store y deshace todos los cambios si fn devuelve error.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{store: s} }

// TxRunner implementación en memoria del puerto ledger.TxRunner.
type TxRunner struct {
	store *Store
}

// Run ejecuta fn con repositorios sobre el store; rollback total en error.
func (r *TxRunner) Run(_ context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	allocationRepo repository.AllocationRepository,
) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshot()
	err := fn(
		&ProductRepo{store: r.store, inTx: true},
		&MovementRepo{store: r.store, inTx: true},
		&AllocationRepo{store: r.store, inTx: true},
	)
	if err != nil {
		r.store.restore(snap)
	}
	return err
}

func (s *Store) lockUnless(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ──────────────────────────────────────────────────────────────────────────────
// ProductRepo
// ──────────────────────────────────────────────────────────────────────────────

// ProductRepo adaptador en memoria de repository.ProductRepository.
type ProductRepo struct {
	store *Store
	inTx  bool
}

var _ repository.ProductRepository = (*ProductRepo)(nil)

// Products devuelve el repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{store: s} }

func (r *ProductRepo) Create(p *entity.Product) error {
	defer r.store.lockUnless(r.inTx)()
	for _, existing := range r.store.products {
		if existing.Code == p.Code {
			return domain.ErrDuplicateCode
		}
	}
	r.store.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	defer r.store.lockUnless(r.inTx)()
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) GetByCode(code string) (*entity.Product, error) {
	defer r.store.lockUnless(r.inTx)()
	for _, p := range r.store.products {
		if p.Code == code {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (r *ProductRepo) GetForUpdate(id string) (*entity.Product, error) {
	return r.GetByID(id)
}

func (r *ProductRepo) Update(p *entity.Product) error {
	defer r.store.lockUnless(r.inTx)()
	for id, existing := range r.store.products {
		if existing.Code == p.Code && id != p.ID {
			return domain.ErrDuplicateCode
		}
	}
	if _, ok := r.store.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) UpdateQuantity(id string, quantity int) error {
	defer r.store.lockUnless(r.inTx)()
	p, ok := r.store.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Quantity = quantity
	r.store.products[id] = p
	return nil
}

func (r *ProductRepo) List(search string, limit, offset int) ([]*entity.Product, int, error) {
	defer r.store.lockUnless(r.inTx)()
	var all []*entity.Product
	term := strings.ToLower(search)
	for _, p := range r.store.products {
		if term == "" || containsTerm(p, term) {
			out := p
			all = append(all, &out)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	total := len(all)
	return page(all, limit, offset), total, nil
}

func (r *ProductRepo) SearchByPrefix(term string, limit int) ([]*entity.Product, error) {
	defer r.store.lockUnless(r.inTx)()
	t := strings.ToLower(term)
	var out []*entity.Product
	for _, p := range r.store.products {
		if strings.HasPrefix(strings.ToLower(p.Code), t) || strings.HasPrefix(strings.ToLower(p.Name), t) {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ProductRepo) Delete(id string) error {
	defer r.store.lockUnless(r.inTx)()
	if _, ok := r.store.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.products, id)
	return nil
}

func (r *ProductRepo) Count() (int, error) {
	defer r.store.lockUnless(r.inTx)()
	return len(r.store.products), nil
}

func (r *ProductRepo) CountLowStock(threshold int) (int, error) {
	defer r.store.lockUnless(r.inTx)()
	n := 0
	for _, p := range r.store.products {
		if p.Quantity <= threshold {
			n++
		}
	}
	return n, nil
}

func containsTerm(p entity.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Code), term) ||
		strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.SupplierReference), term)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// ──────────────────────────────────────────────────────────────────────────────
// MovementRepo
// ──────────────────────────────────────────────────────────────────────────────

// MovementRepo adaptador en memoria de repository.StockMovementRepository.
type MovementRepo struct {
	store *Store
	inTx  bool
}

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// StockMovements devuelve el repositorio del ledger fuera de transacción.
func (s *Store) StockMovements() *MovementRepo { return &MovementRepo{store: s} }

func (r *MovementRepo) Create(m *entity.StockMovement) error {
	defer r.store.lockUnless(r.inTx)()
	r.store.movements = append(r.store.movements, *m)
	return nil
}

func (r *MovementRepo) ListByProduct(productID string, limit, offset int) ([]*entity.StockMovement, int, error) {
	defer r.store.lockUnless(r.inTx)()
	var all []*entity.StockMovement
	// Más recientes primero
	for i := len(r.store.movements) - 1; i >= 0; i-- {
		if r.store.movements[i].ProductID == productID {
			m := r.store.movements[i]
			all = append(all, &m)
		}
	}
	total := len(all)
	return page(all, limit, offset), total, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// AllocationRepo
// ──────────────────────────────────────────────────────────────────────────────

// AllocationRepo adaptador en memoria de repository.AllocationRepository.
type AllocationRepo struct {
	store *Store
	inTx  bool
}

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// Allocations devuelve el repositorio de alocaciones fuera de transacción.
func (s *Store) Allocations() *AllocationRepo { return &AllocationRepo{store: s} }

func (r *AllocationRepo) Create(a *entity.Allocation) error {
	defer r.store.lockUnless(r.inTx)()
	r.store.allocations[a.ID] = *a
	return nil
}

func (r *AllocationRepo) GetByID(id string) (*entity.Allocation, error) {
	defer r.store.lockUnless(r.inTx)()
	a, ok := r.store.allocations[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *AllocationRepo) GetForUpdate(id string) (*entity.Allocation, error) {
	return r.GetByID(id)
}

func (r *AllocationRepo) Update(a *entity.Allocation) error {
	defer r.store.lockUnless(r.inTx)()
	if _, ok := r.store.allocations[a.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.allocations[a.ID] = *a
	return nil
}

func (r *AllocationRepo) List(filter repository.AllocationFilter) ([]*entity.Allocation, int, error) {
	defer r.store.lockUnless(r.inTx)()
	var all []*entity.Allocation
	for _, a := range r.store.allocations {
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		cp := a
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AllocatedAt.After(all[j].AllocatedAt) })
	total := len(all)
	return page(all, filter.Limit, filter.Offset), total, nil
}

func (r *AllocationRepo) CountByProduct(productID string) (int, error) {
	defer r.store.lockUnless(r.inTx)()
	n := 0
	for _, a := range r.store.allocations {
		if a.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (r *AllocationRepo) CountByUser(userID string) (int, error) {
	defer r.store.lockUnless(r.inTx)()
	n := 0
	for _, a := range r.store.allocations {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *AllocationRepo) CountByStatus(status string) (int, error) {
	defer r.store.lockUnless(r.inTx)()
	n := 0
	for _, a := range r.store.allocations {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *AllocationRepo) CountByUserAndStatus(userID, status string) (int, error) {
	defer r.store.lockUnless(r.inTx)()
	n := 0
	for _, a := range r.store.allocations {
		if a.UserID == userID && a.Status == status {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// UserRepo
// ──────────────────────────────────────────────────────────────────────────────

// UserRepo adaptador en memoria de repository.UserRepository.
type UserRepo struct {
	store *Store
}

var _ repository.UserRepository = (*UserRepo)(nil)

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{store: s} }

func (r *UserRepo) Create(u *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Username == u.Username {
			return domain.ErrUsernameExists
		}
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.store.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(id string) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(username string) (*entity.User, error) {
	return r.findBy(func(u entity.User) bool { return u.Username == username })
}

func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	return r.findBy(func(u entity.User) bool { return u.Email == email })
}

func (r *UserRepo) GetByResetToken(token string) (*entity.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.findBy(func(u entity.User) bool { return u.ResetToken == token })
}

func (r *UserRepo) findBy(match func(entity.User) bool) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Update(u *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, existing := range r.store.users {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username {
			return domain.ErrUsernameExists
		}
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	if _, ok := r.store.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.users[u.ID] = *u
	return nil
}

func (r *UserRepo) List() ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.User
	for _, u := range r.store.users {
		cp := u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *UserRepo) Delete(id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.users, id)
	return nil
}

func (r *UserRepo) HasAdmin() (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}
