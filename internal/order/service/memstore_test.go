package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"order-system/internal/domain"
	"order-system/internal/storage"
)

// memStore is an in-memory storage.Store with the same transactional
// guarantees the Postgres implementation provides: one mutex serializes
// transactions, and the state snapshot taken at Begin is restored when
// the function returns an error, so rollbacks are real.
type memStore struct {
	mu sync.Mutex
	st *memState

	// failOn makes the named repository operation fail once, to test
	// wholesale rollback on unexpected persistence errors.
	failOn string
}

type memState struct {
	products     map[uuid.UUID]*domain.Product
	orders       map[uuid.UUID]*domain.Order
	users        map[uuid.UUID]*domain.UserAnalytics
	productStats map[uuid.UUID]*domain.ProductAnalytics
	days         map[string]*domain.DailyOrderSummary
}

func newMemStore() *memStore {
	return &memStore{st: &memState{
		products:     map[uuid.UUID]*domain.Product{},
		orders:       map[uuid.UUID]*domain.Order{},
		users:        map[uuid.UUID]*domain.UserAnalytics{},
		productStats: map[uuid.UUID]*domain.ProductAnalytics{},
		days:         map[string]*domain.DailyOrderSummary{},
	}}
}

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}

func (s *memState) clone() *memState {
	c := &memState{
		products:     make(map[uuid.UUID]*domain.Product, len(s.products)),
		orders:       make(map[uuid.UUID]*domain.Order, len(s.orders)),
		users:        make(map[uuid.UUID]*domain.UserAnalytics, len(s.users)),
		productStats: make(map[uuid.UUID]*domain.ProductAnalytics, len(s.productStats)),
		days:         make(map[string]*domain.DailyOrderSummary, len(s.days)),
	}
	for k, v := range s.products {
		cp := *v
		c.products[k] = &cp
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range s.users {
		cp := *v
		c.users[k] = &cp
	}
	for k, v := range s.productStats {
		cp := *v
		c.productStats[k] = &cp
	}
	for k, v := range s.days {
		cp := *v
		c.days[k] = &cp
	}
	return c
}

func (s *memStore) addProduct(name string, price decimal.Decimal, stock int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.st.products[id] = &domain.Product{ID: id, Name: name, Price: price, Stock: stock}
	return id
}

func (s *memStore) product(id uuid.UUID) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.st.products[id]
}

func (s *memStore) userAnalytics(id uuid.UUID) (domain.UserAnalytics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return domain.UserAnalytics{}, false
	}
	return *u, true
}

func (s *memStore) productAnalytics(id uuid.UUID) (domain.ProductAnalytics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.productStats[id]
	if !ok {
		return domain.ProductAnalytics{}, false
	}
	return *p, true
}

func (s *memStore) dailySummary(t time.Time) (domain.DailyOrderSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.st.days[dayKey(t)]
	if !ok {
		return domain.DailyOrderSummary{}, false
	}
	return *d, true
}

func (s *memStore) WithinTx(_ context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *memStore) Orders() storage.OrderReader {
	return &memOrders{s: s, locking: true}
}

type memTx struct{ s *memStore }

func (t *memTx) Orders() storage.OrderRepo        { return &memOrders{s: t.s} }
func (t *memTx) Products() storage.ProductRepo    { return &memProducts{s: t.s} }
func (t *memTx) Analytics() storage.AnalyticsRepo { return &memAnalytics{s: t.s} }

func (s *memStore) tripwire(op string) error {
	if s.failOn == op {
		s.failOn = ""
		return &domain.InternalError{Op: op, Err: context.Canceled}
	}
	return nil
}

// memOrders serves both as the tx-scoped repo (already under the store
// lock) and, with locking set, as the pool-backed reader.
type memOrders struct {
	s       *memStore
	locking bool
}

func (r *memOrders) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memOrders) Get(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	defer r.lock()()
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "order", ID: id.String()}
	}
	return copyOrder(o), nil
}

func (r *memOrders) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.Get(ctx, id)
}

func (r *memOrders) List(_ context.Context) ([]domain.Order, error) {
	defer r.lock()()
	out := make([]domain.Order, 0, len(r.s.st.orders))
	for _, o := range r.s.st.orders {
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrders) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Order, error) {
	defer r.lock()()
	var out []domain.Order
	for _, o := range r.s.st.orders {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrders) Create(_ context.Context, o *domain.Order) error {
	if err := r.s.tripwire("orders.create"); err != nil {
		return err
	}
	r.s.st.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *memOrders) UpdateStatus(_ context.Context, id uuid.UUID, status domain.Status) error {
	o, ok := r.s.st.orders[id]
	if !ok {
		return &domain.NotFoundError{Entity: "order", ID: id.String()}
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memOrders) Patch(_ context.Context, id uuid.UUID, p storage.OrderPatch) error {
	o, ok := r.s.st.orders[id]
	if !ok {
		return &domain.NotFoundError{Entity: "order", ID: id.String()}
	}
	if p.UserID != nil {
		o.UserID = *p.UserID
	}
	if p.TableNumber != nil {
		o.TableNumber = p.TableNumber
	}
	if p.Notes != nil {
		o.Notes = p.Notes
	}
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memOrders) UpdateTotal(_ context.Context, id uuid.UUID, total decimal.Decimal) error {
	o, ok := r.s.st.orders[id]
	if !ok {
		return &domain.NotFoundError{Entity: "order", ID: id.String()}
	}
	o.Total = total
	return nil
}

func (r *memOrders) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.st.orders[id]; !ok {
		return &domain.NotFoundError{Entity: "order", ID: id.String()}
	}
	delete(r.s.st.orders, id)
	return nil
}

func (r *memOrders) AddItem(_ context.Context, item *domain.OrderItem) error {
	o, ok := r.s.st.orders[item.OrderID]
	if !ok {
		return &domain.NotFoundError{Entity: "order", ID: item.OrderID.String()}
	}
	o.Items = append(o.Items, *item)
	return nil
}

func (r *memOrders) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	for _, o := range r.s.st.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items[i].Quantity = quantity
				return nil
			}
		}
	}
	return &domain.NotFoundError{Entity: "order item", ID: itemID.String()}
}

func (r *memOrders) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	for _, o := range r.s.st.orders {
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items = append(o.Items[:i], o.Items[i+1:]...)
				return nil
			}
		}
	}
	return &domain.NotFoundError{Entity: "order item", ID: itemID.String()}
}

type memProducts struct{ s *memStore }

func (r *memProducts) Get(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "product", ID: id.String()}
	}
	cp := *p
	return &cp, nil
}

func (r *memProducts) Reserve(_ context.Context, id uuid.UUID, quantity int) (int, error) {
	if err := r.s.tripwire("products.reserve"); err != nil {
		return 0, err
	}
	p, ok := r.s.st.products[id]
	if !ok {
		return 0, &domain.NotFoundError{Entity: "product", ID: id.String()}
	}
	if p.Stock < quantity {
		return 0, &domain.InsufficientStockError{
			ProductID:   id,
			ProductName: p.Name,
			Requested:   quantity,
			Available:   p.Stock,
		}
	}
	p.Stock -= quantity
	return p.Stock, nil
}

func (r *memProducts) Release(_ context.Context, id uuid.UUID, quantity int) (int, error) {
	p, ok := r.s.st.products[id]
	if !ok {
		return 0, &domain.NotFoundError{Entity: "product", ID: id.String()}
	}
	p.Stock += quantity
	return p.Stock, nil
}

type memAnalytics struct{ s *memStore }

func (r *memAnalytics) ApplyOrderCreated(_ context.Context, o *domain.Order) (int, error) {
	if err := r.s.tripwire("analytics.created"); err != nil {
		return 0, err
	}

	key := dayKey(o.CreatedAt)
	day, ok := r.s.st.days[key]
	if !ok {
		day = &domain.DailyOrderSummary{Day: o.Day(), TotalRevenue: decimal.Zero}
		r.s.st.days[key] = day
	}
	day.TotalOrders++
	day.TotalRevenue = day.TotalRevenue.Add(o.Total)
	switch o.Type {
	case domain.OrderTypeDineIn:
		day.DineInOrders++
	case domain.OrderTypeTakeaway:
		day.TakeawayOrders++
	case domain.OrderTypeDelivery:
		day.DeliveryOrders++
	}

	u, ok := r.s.st.users[o.UserID]
	if !ok {
		u = &domain.UserAnalytics{UserID: o.UserID, TotalSpent: decimal.Zero, FirstOrderDate: o.CreatedAt}
		r.s.st.users[o.UserID] = u
	}
	u.TotalOrders++
	u.TotalSpent = u.TotalSpent.Add(o.Total)
	u.AverageOrderValue = u.TotalSpent.Div(decimal.NewFromInt(int64(u.TotalOrders)))
	u.LastOrderDate = o.CreatedAt

	for _, it := range o.Items {
		ps, ok := r.s.st.productStats[it.ProductID]
		if !ok {
			ps = &domain.ProductAnalytics{ProductID: it.ProductID, TotalRevenue: decimal.Zero}
			r.s.st.productStats[it.ProductID] = ps
		}
		ps.TotalSold += it.Quantity
		ps.TotalRevenue = ps.TotalRevenue.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		ps.LastSoldDate = o.CreatedAt
	}

	return day.TotalOrders, nil
}

func (r *memAnalytics) ApplyOrderCancelled(_ context.Context, o *domain.Order) error {
	key := dayKey(o.CreatedAt)
	day, ok := r.s.st.days[key]
	if !ok {
		day = &domain.DailyOrderSummary{Day: o.Day(), TotalRevenue: decimal.Zero}
		r.s.st.days[key] = day
	}
	day.CancelledOrders++
	return nil
}

// fakePublisher records post-commit events.
type fakePublisher struct {
	mu      sync.Mutex
	created []uuid.UUID
	updated []uuid.UUID
	fail    bool
}

func (p *fakePublisher) PublishCreated(_ context.Context, o *domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return context.Canceled
	}
	p.created = append(p.created, o.ID)
	return nil
}

func (p *fakePublisher) PublishUpdated(_ context.Context, o *domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return context.Canceled
	}
	p.updated = append(p.updated, o.ID)
	return nil
}

func (p *fakePublisher) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.created), len(p.updated)
}
