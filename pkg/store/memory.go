package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"restaurant_backend/pkg/models"
)

// MemoryStore keeps every collection in process memory. Used for local
// development (STORE_DRIVER=memory) and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	hub      *Hub
	counter  int64
	menu     map[string]models.MenuItem
	orders   map[string]models.Order
	kitchen  map[string]models.KitchenOrder
	bills    map[string]models.Bill
	staff    map[string]models.Staff
	ratings  map[string]models.Rating
	now      func() time.Time
	failNext map[string]error
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hub:      NewHub(),
		menu:     make(map[string]models.MenuItem),
		orders:   make(map[string]models.Order),
		kitchen:  make(map[string]models.KitchenOrder),
		bills:    make(map[string]models.Bill),
		staff:    make(map[string]models.Staff),
		ratings:  make(map[string]models.Rating),
		now:      time.Now,
		failNext: make(map[string]error),
	}
}

// FailNext makes the next write to collection return err. Test hook.
func (s *MemoryStore) FailNext(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[collection] = err
}

// takeFailure must be called with s.mu held
func (s *MemoryStore) takeFailure(collection string) error {
	if err, ok := s.failNext[collection]; ok {
		delete(s.failNext, collection)
		return err
	}
	return nil
}

func cloneItems(items models.OrderItems) models.OrderItems {
	if items == nil {
		return nil
	}
	out := make(models.OrderItems, len(items))
	copy(out, items)
	return out
}

// ===MENU===

func (s *MemoryStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionMenuItems); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, exists := s.menu[item.ID]; exists {
		s.mu.Unlock()
		return ErrDuplicate
	}
	now := s.now()
	item.CreatedAt, item.UpdatedAt = now, now
	s.menu[item.ID] = *item
	s.mu.Unlock()
	s.notify(models.CollectionMenuItems)
	return nil
}

func (s *MemoryStore) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.menu[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (s *MemoryStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.menuList(), nil
}

func (s *MemoryStore) menuList() []models.MenuItem {
	out := make([]models.MenuItem, 0, len(s.menu))
	for _, item := range s.menu {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *MemoryStore) UpdateMenuItem(ctx context.Context, id string, fields Fields) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionMenuItems); err != nil {
		s.mu.Unlock()
		return err
	}
	item, ok := s.menu[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if err := applyFields(&item, fields); err != nil {
		s.mu.Unlock()
		return err
	}
	item.UpdatedAt = s.now()
	s.menu[id] = item
	s.mu.Unlock()
	s.notify(models.CollectionMenuItems)
	return nil
}

func (s *MemoryStore) DeleteMenuItem(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.menu[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.menu, id)
	s.mu.Unlock()
	s.notify(models.CollectionMenuItems)
	return nil
}

// ===ORDERS===

func (s *MemoryStore) NextOrderNumber(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(models.CollectionCounters); err != nil {
		return 0, err
	}
	s.counter++
	return s.counter, nil
}

func (s *MemoryStore) CreateOrder(ctx context.Context, order *models.Order, ticket *models.KitchenOrder) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionOrders); err != nil {
		s.mu.Unlock()
		return err
	}
	if ticket != nil {
		if err := s.takeFailure(models.CollectionKitchenOrders); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	if _, exists := s.orders[order.ID]; exists {
		s.mu.Unlock()
		return ErrDuplicate
	}
	o := *order
	o.Items = cloneItems(order.Items)
	s.orders[o.ID] = o
	if ticket != nil {
		k := *ticket
		k.Items = cloneItems(ticket.Items)
		s.kitchen[k.OrderID] = k
	}
	s.mu.Unlock()

	s.notify(models.CollectionOrders)
	if ticket != nil {
		s.notify(models.CollectionKitchenOrders)
	}
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Items = cloneItems(o.Items)
	return &o, nil
}

func (s *MemoryStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orderList(filter), nil
}

func (s *MemoryStore) orderList(filter OrderFilter) []models.Order {
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.Match(o) {
			o.Items = cloneItems(o.Items)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OrderTime.After(out[j].OrderTime)
	})
	return out
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, id string, fields Fields) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionOrders); err != nil {
		s.mu.Unlock()
		return err
	}
	o, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	o.Items = cloneItems(o.Items)
	if err := applyFields(&o, fields); err != nil {
		s.mu.Unlock()
		return err
	}
	s.orders[id] = o
	s.mu.Unlock()
	s.notify(models.CollectionOrders)
	return nil
}

// ===KITCHEN===

func (s *MemoryStore) CreateKitchenOrder(ctx context.Context, ticket *models.KitchenOrder) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionKitchenOrders); err != nil {
		s.mu.Unlock()
		return err
	}
	k := *ticket
	k.Items = cloneItems(ticket.Items)
	s.kitchen[k.OrderID] = k
	s.mu.Unlock()
	s.notify(models.CollectionKitchenOrders)
	return nil
}

func (s *MemoryStore) GetKitchenOrder(ctx context.Context, orderID string) (*models.KitchenOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.kitchen[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	k.Items = cloneItems(k.Items)
	return &k, nil
}

func (s *MemoryStore) ListKitchenOrders(ctx context.Context) ([]models.KitchenOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kitchenList(), nil
}

func (s *MemoryStore) kitchenList() []models.KitchenOrder {
	out := make([]models.KitchenOrder, 0, len(s.kitchen))
	for _, k := range s.kitchen {
		k.Items = cloneItems(k.Items)
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OrderTime.Before(out[j].OrderTime)
	})
	return out
}

func (s *MemoryStore) UpdateKitchenOrder(ctx context.Context, orderID string, fields Fields) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionKitchenOrders); err != nil {
		s.mu.Unlock()
		return err
	}
	k, ok := s.kitchen[orderID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	k.Items = cloneItems(k.Items)
	if err := applyFields(&k, fields); err != nil {
		s.mu.Unlock()
		return err
	}
	s.kitchen[orderID] = k
	s.mu.Unlock()
	s.notify(models.CollectionKitchenOrders)
	return nil
}

// ===BILLS===

func (s *MemoryStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionBills); err != nil {
		s.mu.Unlock()
		return err
	}
	b := *bill
	b.Items = cloneItems(bill.Items)
	s.bills[b.ID] = b
	s.mu.Unlock()
	s.notify(models.CollectionBills)
	return nil
}

func (s *MemoryStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bills[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) ListBills(ctx context.Context, filter BillFilter) ([]models.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.billList(filter), nil
}

func (s *MemoryStore) billList(filter BillFilter) []models.Bill {
	out := make([]models.Bill, 0, len(s.bills))
	for _, b := range s.bills {
		if filter.Match(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out
}

// ===STAFF===

func (s *MemoryStore) CreateStaff(ctx context.Context, staff *models.Staff) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionStaff); err != nil {
		s.mu.Unlock()
		return err
	}
	for _, existing := range s.staff {
		if existing.PhoneNumber == staff.PhoneNumber || existing.Email == staff.Email {
			s.mu.Unlock()
			return ErrDuplicate
		}
	}
	s.staff[staff.ID] = *staff
	s.mu.Unlock()
	s.notify(models.CollectionStaff)
	return nil
}

func (s *MemoryStore) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.staff[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

func (s *MemoryStore) FindStaffByPhone(ctx context.Context, phone string) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.staff {
		if st.PhoneNumber == phone {
			return &st, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.staff {
		if st.Email == email {
			return &st, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListStaff(ctx context.Context) ([]models.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.staffList(), nil
}

func (s *MemoryStore) staffList() []models.Staff {
	out := make([]models.Staff, 0, len(s.staff))
	for _, st := range s.staff {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateJoined.Before(out[j].DateJoined)
	})
	return out
}

func (s *MemoryStore) UpdateStaff(ctx context.Context, id string, fields Fields) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionStaff); err != nil {
		s.mu.Unlock()
		return err
	}
	st, ok := s.staff[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if err := applyFields(&st, fields); err != nil {
		s.mu.Unlock()
		return err
	}
	s.staff[id] = st
	s.mu.Unlock()
	s.notify(models.CollectionStaff)
	return nil
}

func (s *MemoryStore) DeleteStaff(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.staff[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.staff, id)
	s.mu.Unlock()
	s.notify(models.CollectionStaff)
	return nil
}

// ===RATINGS===

func (s *MemoryStore) CreateRating(ctx context.Context, rating *models.Rating) error {
	s.mu.Lock()
	if err := s.takeFailure(models.CollectionRatings); err != nil {
		s.mu.Unlock()
		return err
	}
	s.ratings[rating.ID] = *rating
	s.mu.Unlock()
	s.notify(models.CollectionRatings)
	return nil
}

func (s *MemoryStore) ListRatings(ctx context.Context) ([]models.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ratingList(), nil
}

func (s *MemoryStore) ratingList() []models.Rating {
	out := make([]models.Rating, 0, len(s.ratings))
	for _, r := range s.ratings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ===SUBSCRIPTIONS===

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (func(), error) {
	if !IsKnownCollection(collection) {
		return nil, ErrNotFound
	}
	unsubscribe := s.hub.Subscribe(collection, fn)
	fn(s.snapshot(collection))
	return unsubscribe, nil
}

func (s *MemoryStore) snapshot(collection string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Collection: collection, At: s.now()}
	switch collection {
	case models.CollectionMenuItems:
		snap.Records = s.menuList()
	case models.CollectionOrders:
		snap.Records = s.orderList(OrderFilter{})
	case models.CollectionKitchenOrders:
		snap.Records = s.kitchenList()
	case models.CollectionBills:
		snap.Records = s.billList(BillFilter{})
	case models.CollectionStaff:
		snap.Records = s.staffList()
	case models.CollectionRatings:
		snap.Records = s.ratingList()
	}
	return snap
}

func (s *MemoryStore) notify(collection string) {
	if !s.hub.HasSubscribers(collection) {
		return
	}
	s.hub.Publish(s.snapshot(collection))
}

// ===ADMIN===

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.orders = make(map[string]models.Order)
	s.kitchen = make(map[string]models.KitchenOrder)
	s.bills = make(map[string]models.Bill)
	s.ratings = make(map[string]models.Rating)
	s.counter = 0
	s.mu.Unlock()

	for _, c := range []string{
		models.CollectionOrders,
		models.CollectionKitchenOrders,
		models.CollectionBills,
		models.CollectionRatings,
	} {
		s.notify(c)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
