// Package memory is an in-process implementation of every store, used by
// tests and by the memory store driver.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Option func(*Store)

// WithClock replaces time.Now for CreatedAt and UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type entry[T any] struct {
	seq int64
	doc T
}

// Store holds every collection behind one mutex.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int64

	products map[primitive.ObjectID]entry[models.Product]
	carts    map[primitive.ObjectID]entry[models.CartItem]
	orders   map[primitive.ObjectID]entry[models.Order]
	users    map[string]models.User
	accounts map[string]models.Account
}

func New(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		products: map[primitive.ObjectID]entry[models.Product]{},
		carts:    map[primitive.ObjectID]entry[models.CartItem]{},
		orders:   map[primitive.ObjectID]entry[models.Order]{},
		users:    map[string]models.User{},
		accounts: map[string]models.Account{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stores exposes s through every store interface.
func (s *Store) Stores() store.Stores {
	return store.Stores{Products: s, Carts: s, Orders: s, Users: s, Accounts: s}
}

func (s *Store) stamp() (int64, models.Timestamp) {
	s.seq++
	return s.seq, models.NewTimestamp(s.now())
}

// sorted returns docs ordered by createdAt, ties broken by insertion order.
func sorted[T any](entries []entry[T], createdAt func(T) time.Time, newestFirst bool) []T {
	sort.Slice(entries, func(i, j int) bool {
		a, b := createdAt(entries[i].doc), createdAt(entries[j].doc)
		if !a.Equal(b) {
			if newestFirst {
				return a.After(b)
			}
			return a.Before(b)
		}
		if newestFirst {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.doc)
	}
	return out
}

func (s *Store) ListProducts(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []entry[models.Product]
	for _, e := range s.products {
		if filter.Match(e.doc) {
			matched = append(matched, e)
		}
	}
	return sorted(matched, func(p models.Product) time.Time { return p.CreatedAt.Time }, true), nil
}

func (s *Store) GetProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p := e.doc
	return &p, nil
}

func (s *Store) CreateProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, now := s.stamp()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = entry[models.Product]{seq: seq, doc: *product}
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, id primitive.ObjectID, update models.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !update.Empty() {
		update.Apply(&e.doc)
		e.doc.UpdatedAt = models.NewTimestamp(s.now())
		s.products[id] = e
	}
	p := e.doc
	return &p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListCart(_ context.Context, userID string) ([]models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []entry[models.CartItem]
	for _, e := range s.carts {
		if e.doc.UserID == userID {
			matched = append(matched, e)
		}
	}
	return sorted(matched, func(c models.CartItem) time.Time { return c.CreatedAt.Time }, false), nil
}

func (s *Store) GetCartItem(_ context.Context, id primitive.ObjectID) (*models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.carts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	item := e.doc
	return &item, nil
}

func (s *Store) FindCartItem(_ context.Context, userID string, productID primitive.ObjectID) (*models.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.carts {
		if e.doc.UserID == userID && e.doc.ProductID == productID {
			item := e.doc
			return &item, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) InsertCartItem(_ context.Context, item *models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, now := s.stamp()
	item.ID = primitive.NewObjectID()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.carts[item.ID] = entry[models.CartItem]{seq: seq, doc: *item}
	return nil
}

func (s *Store) IncrementQuantity(_ context.Context, id primitive.ObjectID, delta int) error {
	return s.updateCartItem(id, func(item *models.CartItem) { item.Quantity += delta })
}

func (s *Store) SetQuantity(_ context.Context, id primitive.ObjectID, quantity int) error {
	return s.updateCartItem(id, func(item *models.CartItem) { item.Quantity = quantity })
}

func (s *Store) updateCartItem(id primitive.ObjectID, mutate func(*models.CartItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[id]
	if !ok {
		return store.ErrNotFound
	}
	mutate(&e.doc)
	e.doc.UpdatedAt = models.NewTimestamp(s.now())
	s.carts[id] = e
	return nil
}

func (s *Store) DeleteCartItem(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.carts, id)
	return nil
}

func (s *Store) ClearCart(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, e := range s.carts {
		if e.doc.UserID == userID {
			delete(s.carts, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) InsertOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, now := s.stamp()
	order.ID = primitive.NewObjectID()
	order.CreatedAt = now
	order.UpdatedAt = now
	s.orders[order.ID] = entry[models.Order]{seq: seq, doc: cloneOrder(*order)}
	return nil
}

// cloneOrder copies the items so callers never share a backing array with the map.
func cloneOrder(order models.Order) models.Order {
	order.Items = append([]models.OrderItem(nil), order.Items...)
	return order
}

func (s *Store) GetOrder(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	order := cloneOrder(e.doc)
	return &order, nil
}

func (s *Store) ListOrders(_ context.Context, filter models.OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []entry[models.Order]
	for _, e := range s.orders {
		if filter.Match(e.doc) {
			matched = append(matched, e)
		}
	}
	orders := sorted(matched, func(o models.Order) time.Time { return o.CreatedAt.Time }, true)
	for i := range orders {
		orders[i] = cloneOrder(orders[i])
	}
	return orders, nil
}

func (s *Store) SubmitPayment(_ context.Context, id primitive.ObjectID, txnID string) (*models.Order, error) {
	return s.updateOrder(id, func(order *models.Order, now models.Timestamp) {
		order.PaymentTxnID = txnID
		order.Status = models.StatusPaymentSubmitted
		order.PaymentSubmittedAt = now
	})
}

func (s *Store) SetStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	return s.updateOrder(id, func(order *models.Order, _ models.Timestamp) {
		order.Status = status
	})
}

func (s *Store) updateOrder(id primitive.ObjectID, mutate func(*models.Order, models.Timestamp)) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := models.NewTimestamp(s.now())
	mutate(&e.doc, now)
	e.doc.UpdatedAt = now
	s.orders[id] = e
	order := cloneOrder(e.doc)
	return &order, nil
}

func (s *Store) OrderStats(_ context.Context) (models.OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.NewOrderStats()
	for _, e := range s.orders {
		stats.Add(e.doc.Status, 1, e.doc.TotalAmount)
	}
	return stats, nil
}

func (s *Store) GetUser(_ context.Context, uid string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.UID]; ok {
		return store.ErrDuplicate
	}
	now := models.NewTimestamp(s.now())
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.UID] = *user
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, uid string, update models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	update.Apply(&user)
	user.UpdatedAt = models.NewTimestamp(s.now())
	s.users[uid] = user
	return &user, nil
}

func (s *Store) SetEmailVerified(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[uid]
	if !ok {
		return store.ErrNotFound
	}
	user.EmailVerified = true
	user.UpdatedAt = models.NewTimestamp(s.now())
	s.users[uid] = user
	return nil
}

func (s *Store) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.UID]; ok {
		return store.ErrDuplicate
	}
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return store.ErrDuplicate
		}
	}
	account.CreatedAt = models.NewTimestamp(s.now())
	s.accounts[account.UID] = *account
	return nil
}

func (s *Store) GetAccount(_ context.Context, uid string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &account, nil
}

func (s *Store) FindAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.Email == email {
			a := account
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) VerifyAccountEmail(_ context.Context, uid string) error {
	return s.updateAccount(uid, func(account *models.Account) { account.EmailVerified = true })
}

func (s *Store) SetAccountRole(_ context.Context, uid, role string) error {
	return s.updateAccount(uid, func(account *models.Account) { account.Role = role })
}

func (s *Store) updateAccount(uid string, mutate func(*models.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[uid]
	if !ok {
		return store.ErrNotFound
	}
	mutate(&account)
	s.accounts[uid] = account
	return nil
}
