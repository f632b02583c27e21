package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"restaurant_backend/pkg/database"
	"restaurant_backend/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderCounter = "orders"

// GormStore is the PostgreSQL backend. Change notifications are published
// through an in-process Hub after each committed write.
type GormStore struct {
	db  *gorm.DB
	hub *Hub
}

// NewGormStore wraps an open gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, hub: NewHub()}
}

// translate maps gorm errors onto the store sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// update applies a partial write and reports ErrNotFound when no row matched
func (s *GormStore) update(ctx context.Context, model interface{}, where string, id string, fields Fields) error {
	result := s.db.WithContext(ctx).Model(model).Where(where, id).Updates(map[string]interface{}(fields))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ===MENU===

func (s *GormStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return translate(err)
	}
	s.notify(ctx, models.CollectionMenuItems)
	return nil
}

func (s *GormStore) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *GormStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).Order(`"category" ASC, "name" ASC`).Find(&items).Error
	return items, translate(err)
}

func (s *GormStore) UpdateMenuItem(ctx context.Context, id string, fields Fields) error {
	if err := s.update(ctx, &models.MenuItem{}, "id = ?", id, fields); err != nil {
		return err
	}
	s.notify(ctx, models.CollectionMenuItems)
	return nil
}

func (s *GormStore) DeleteMenuItem(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MenuItem{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(ctx, models.CollectionMenuItems)
	return nil
}

// ===ORDERS===

// NextOrderNumber increments the orders counter row in one statement, so two
// concurrent callers never receive the same number.
func (s *GormStore) NextOrderNumber(ctx context.Context) (int64, error) {
	var counter models.Counter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Counter{Name: orderCounter, Value: 0}).Error; err != nil {
			return err
		}
		return tx.Model(&counter).
			Clauses(clause.Returning{}).
			Where("name = ?", orderCounter).
			Update("value", gorm.Expr(`"value" + 1`)).Error
	})
	if err != nil {
		return 0, fmt.Errorf("allocate order number: %w", err)
	}
	return counter.Value, nil
}

func (s *GormStore) CreateOrder(ctx context.Context, order *models.Order, ticket *models.KitchenOrder) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if ticket != nil {
			if err := tx.Create(ticket).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}

	s.notify(ctx, models.CollectionOrders)
	if ticket != nil {
		s.notify(ctx, models.CollectionKitchenOrders)
	}
	return nil
}

func (s *GormStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *GormStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.WaiterID != "" {
		query = query.Where(`"waiterId" = ?`, filter.WaiterID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if !filter.Since.IsZero() {
		query = query.Where(`"orderTime" >= ?`, filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where(`"orderTime" < ?`, filter.Until)
	}

	var orders []models.Order
	err := query.Order(`"orderTime" DESC`).Find(&orders).Error
	return orders, translate(err)
}

func (s *GormStore) UpdateOrder(ctx context.Context, id string, fields Fields) error {
	if err := s.update(ctx, &models.Order{}, "id = ?", id, fields); err != nil {
		return err
	}
	s.notify(ctx, models.CollectionOrders)
	return nil
}

// ===KITCHEN===

func (s *GormStore) CreateKitchenOrder(ctx context.Context, ticket *models.KitchenOrder) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(ticket).Error
	if err != nil {
		return translate(err)
	}
	s.notify(ctx, models.CollectionKitchenOrders)
	return nil
}

func (s *GormStore) GetKitchenOrder(ctx context.Context, orderID string) (*models.KitchenOrder, error) {
	var ticket models.KitchenOrder
	if err := s.db.WithContext(ctx).Where(`"orderId" = ?`, orderID).First(&ticket).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (s *GormStore) ListKitchenOrders(ctx context.Context) ([]models.KitchenOrder, error) {
	var tickets []models.KitchenOrder
	err := s.db.WithContext(ctx).Order(`"orderTime" ASC`).Find(&tickets).Error
	return tickets, translate(err)
}

func (s *GormStore) UpdateKitchenOrder(ctx context.Context, orderID string, fields Fields) error {
	if err := s.update(ctx, &models.KitchenOrder{}, `"orderId" = ?`, orderID, fields); err != nil {
		return err
	}
	s.notify(ctx, models.CollectionKitchenOrders)
	return nil
}

// ===BILLS===

func (s *GormStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if err := s.db.WithContext(ctx).Create(bill).Error; err != nil {
		return translate(err)
	}
	s.notify(ctx, models.CollectionBills)
	return nil
}

func (s *GormStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	var bill models.Bill
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&bill).Error; err != nil {
		return nil, translate(err)
	}
	return &bill, nil
}

func (s *GormStore) ListBills(ctx context.Context, filter BillFilter) ([]models.Bill, error) {
	query := s.db.WithContext(ctx).Model(&models.Bill{})
	if filter.OrderID != "" {
		query = query.Where(`"orderId" = ?`, filter.OrderID)
	}
	if !filter.Since.IsZero() {
		query = query.Where(`"generatedAt" >= ?`, filter.Since)
	}

	var bills []models.Bill
	err := query.Order(`"generatedAt" DESC`).Find(&bills).Error
	return bills, translate(err)
}

// ===STAFF===

func (s *GormStore) CreateStaff(ctx context.Context, staff *models.Staff) error {
	if err := s.db.WithContext(ctx).Create(staff).Error; err != nil {
		return translate(err)
	}
	s.notify(ctx, models.CollectionStaff)
	return nil
}

func (s *GormStore) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	var staff models.Staff
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&staff).Error; err != nil {
		return nil, translate(err)
	}
	return &staff, nil
}

func (s *GormStore) FindStaffByPhone(ctx context.Context, phone string) (*models.Staff, error) {
	var staff models.Staff
	if err := s.db.WithContext(ctx).Where(`"phoneNumber" = ?`, phone).First(&staff).Error; err != nil {
		return nil, translate(err)
	}
	return &staff, nil
}

func (s *GormStore) FindStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	var staff models.Staff
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&staff).Error; err != nil {
		return nil, translate(err)
	}
	return &staff, nil
}

func (s *GormStore) ListStaff(ctx context.Context) ([]models.Staff, error) {
	var staff []models.Staff
	err := s.db.WithContext(ctx).Order(`"dateJoined" ASC`).Find(&staff).Error
	return staff, translate(err)
}

func (s *GormStore) UpdateStaff(ctx context.Context, id string, fields Fields) error {
	if err := s.update(ctx, &models.Staff{}, "id = ?", id, fields); err != nil {
		return err
	}
	s.notify(ctx, models.CollectionStaff)
	return nil
}

func (s *GormStore) DeleteStaff(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Staff{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(ctx, models.CollectionStaff)
	return nil
}

// ===RATINGS===

func (s *GormStore) CreateRating(ctx context.Context, rating *models.Rating) error {
	if err := s.db.WithContext(ctx).Create(rating).Error; err != nil {
		return translate(err)
	}
	s.notify(ctx, models.CollectionRatings)
	return nil
}

func (s *GormStore) ListRatings(ctx context.Context) ([]models.Rating, error) {
	var ratings []models.Rating
	err := s.db.WithContext(ctx).Order(`"createdAt" DESC`).Find(&ratings).Error
	return ratings, translate(err)
}

// ===SUBSCRIPTIONS===

func (s *GormStore) Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (func(), error) {
	if !IsKnownCollection(collection) {
		return nil, ErrNotFound
	}
	snap, err := s.snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}
	unsubscribe := s.hub.Subscribe(collection, fn)
	fn(snap)
	return unsubscribe, nil
}

func (s *GormStore) snapshot(ctx context.Context, collection string) (Snapshot, error) {
	snap := Snapshot{Collection: collection, At: time.Now()}
	var err error
	switch collection {
	case models.CollectionMenuItems:
		snap.Records, err = s.ListMenuItems(ctx)
	case models.CollectionOrders:
		snap.Records, err = s.ListOrders(ctx, OrderFilter{})
	case models.CollectionKitchenOrders:
		snap.Records, err = s.ListKitchenOrders(ctx)
	case models.CollectionBills:
		snap.Records, err = s.ListBills(ctx, BillFilter{})
	case models.CollectionStaff:
		snap.Records, err = s.ListStaff(ctx)
	case models.CollectionRatings:
		snap.Records, err = s.ListRatings(ctx)
	}
	return snap, err
}

// notify reloads collection and publishes it. A failed reload is logged; the
// write it follows has already committed.
func (s *GormStore) notify(ctx context.Context, collection string) {
	if !s.hub.HasSubscribers(collection) {
		return
	}
	snap, err := s.snapshot(context.WithoutCancel(ctx), collection)
	if err != nil {
		log.Printf("⚠️ Failed to reload %s snapshot: %v", collection, err)
		return
	}
	s.hub.Publish(snap)
}

// ===ADMIN===

func (s *GormStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.KitchenOrder{},
			&models.Bill{},
			&models.Rating{},
			&models.Order{},
			&models.Counter{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear database: %w", err)
	}

	for _, c := range []string{
		models.CollectionOrders,
		models.CollectionKitchenOrders,
		models.CollectionBills,
		models.CollectionRatings,
	} {
		s.notify(ctx, c)
	}
	return nil
}

func (s *GormStore) Close() error {
	database.CloseDatabase(s.db)
	return nil
}
