package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"restaurant_backend/pkg/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps each collection as a Firestore collection of the same
// name. Subscribe uses native snapshot listeners.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps a Firestore client
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func translateFirestore(err error) error {
	switch status.Code(err) {
	case codes.OK:
		return err
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrDuplicate
	}
	return err
}

func toUpdates(fields Fields) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	return updates
}

func decodeDocs[T any](docs []*firestore.DocumentSnapshot) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.Ref.Path, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func getDoc[T any](ctx context.Context, ref *firestore.DocumentRef) (*T, error) {
	doc, err := ref.Get(ctx)
	if err != nil {
		return nil, translateFirestore(err)
	}
	var v T
	if err := doc.DataTo(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref.Path, err)
	}
	return &v, nil
}

func queryDocs[T any](ctx context.Context, q firestore.Query) ([]T, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, translateFirestore(err)
	}
	return decodeDocs[T](docs)
}

func (s *FirestoreStore) doc(collection, id string) *firestore.DocumentRef {
	return s.client.Collection(collection).Doc(id)
}

func (s *FirestoreStore) update(ctx context.Context, collection, id string, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := s.doc(collection, id).Update(ctx, toUpdates(fields))
	return translateFirestore(err)
}

func (s *FirestoreStore) delete(ctx context.Context, collection, id string) error {
	ref := s.doc(collection, id)
	if _, err := ref.Get(ctx); err != nil {
		return translateFirestore(err)
	}
	_, err := ref.Delete(ctx)
	return translateFirestore(err)
}

// ===MENU===

func (s *FirestoreStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	_, err := s.doc(models.CollectionMenuItems, item.ID).Create(ctx, item)
	return translateFirestore(err)
}

func (s *FirestoreStore) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	return getDoc[models.MenuItem](ctx, s.doc(models.CollectionMenuItems, id))
}

func (s *FirestoreStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	q := s.client.Collection(models.CollectionMenuItems).OrderBy("category", firestore.Asc).OrderBy("name", firestore.Asc)
	return queryDocs[models.MenuItem](ctx, q)
}

func (s *FirestoreStore) UpdateMenuItem(ctx context.Context, id string, fields Fields) error {
	withTime := Fields{"updatedAt": time.Now()}
	for k, v := range fields {
		withTime[k] = v
	}
	return s.update(ctx, models.CollectionMenuItems, id, withTime)
}

func (s *FirestoreStore) DeleteMenuItem(ctx context.Context, id string) error {
	return s.delete(ctx, models.CollectionMenuItems, id)
}

// ===ORDERS===

func (s *FirestoreStore) NextOrderNumber(ctx context.Context) (int64, error) {
	ref := s.doc(models.CollectionCounters, orderCounter)
	var next int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var counter models.Counter
		doc, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			counter = models.Counter{Name: orderCounter}
		case err != nil:
			return err
		default:
			if err := doc.DataTo(&counter); err != nil {
				return err
			}
		}
		counter.Value++
		next = counter.Value
		return tx.Set(ref, counter)
	})
	if err != nil {
		return 0, fmt.Errorf("allocate order number: %w", err)
	}
	return next, nil
}

func (s *FirestoreStore) CreateOrder(ctx context.Context, order *models.Order, ticket *models.KitchenOrder) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(s.doc(models.CollectionOrders, order.ID), order); err != nil {
			return err
		}
		if ticket != nil {
			return tx.Set(s.doc(models.CollectionKitchenOrders, ticket.OrderID), ticket)
		}
		return nil
	})
	return translateFirestore(err)
}

func (s *FirestoreStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return getDoc[models.Order](ctx, s.doc(models.CollectionOrders, id))
}

func (s *FirestoreStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := s.client.Collection(models.CollectionOrders).Query
	if filter.WaiterID != "" {
		q = q.Where("waiterId", "==", filter.WaiterID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status", "in", filter.Statuses)
	}
	if !filter.Since.IsZero() {
		q = q.Where("orderTime", ">=", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("orderTime", "<", filter.Until)
	}
	return queryDocs[models.Order](ctx, q.OrderBy("orderTime", firestore.Desc))
}

func (s *FirestoreStore) UpdateOrder(ctx context.Context, id string, fields Fields) error {
	return s.update(ctx, models.CollectionOrders, id, fields)
}

// ===KITCHEN===

func (s *FirestoreStore) CreateKitchenOrder(ctx context.Context, ticket *models.KitchenOrder) error {
	_, err := s.doc(models.CollectionKitchenOrders, ticket.OrderID).Set(ctx, ticket)
	return translateFirestore(err)
}

func (s *FirestoreStore) GetKitchenOrder(ctx context.Context, orderID string) (*models.KitchenOrder, error) {
	return getDoc[models.KitchenOrder](ctx, s.doc(models.CollectionKitchenOrders, orderID))
}

func (s *FirestoreStore) ListKitchenOrders(ctx context.Context) ([]models.KitchenOrder, error) {
	q := s.client.Collection(models.CollectionKitchenOrders).OrderBy("orderTime", firestore.Asc)
	return queryDocs[models.KitchenOrder](ctx, q)
}

func (s *FirestoreStore) UpdateKitchenOrder(ctx context.Context, orderID string, fields Fields) error {
	return s.update(ctx, models.CollectionKitchenOrders, orderID, fields)
}

// ===BILLS===

func (s *FirestoreStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	_, err := s.doc(models.CollectionBills, bill.ID).Create(ctx, bill)
	return translateFirestore(err)
}

func (s *FirestoreStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	return getDoc[models.Bill](ctx, s.doc(models.CollectionBills, id))
}

func (s *FirestoreStore) ListBills(ctx context.Context, filter BillFilter) ([]models.Bill, error) {
	q := s.client.Collection(models.CollectionBills).Query
	if filter.OrderID != "" {
		q = q.Where("orderId", "==", filter.OrderID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("generatedAt", ">=", filter.Since)
	}
	return queryDocs[models.Bill](ctx, q.OrderBy("generatedAt", firestore.Desc))
}

// ===STAFF===

func (s *FirestoreStore) CreateStaff(ctx context.Context, staff *models.Staff) error {
	if _, err := s.FindStaffByPhone(ctx, staff.PhoneNumber); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err := s.doc(models.CollectionStaff, staff.ID).Create(ctx, staff)
	return translateFirestore(err)
}

func (s *FirestoreStore) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	return getDoc[models.Staff](ctx, s.doc(models.CollectionStaff, id))
}

func (s *FirestoreStore) findStaff(ctx context.Context, field, value string) (*models.Staff, error) {
	staff, err := queryDocs[models.Staff](ctx, s.client.Collection(models.CollectionStaff).Where(field, "==", value).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(staff) == 0 {
		return nil, ErrNotFound
	}
	return &staff[0], nil
}

func (s *FirestoreStore) FindStaffByPhone(ctx context.Context, phone string) (*models.Staff, error) {
	return s.findStaff(ctx, "phoneNumber", phone)
}

func (s *FirestoreStore) FindStaffByEmail(ctx context.Context, email string) (*models.Staff, error) {
	return s.findStaff(ctx, "email", email)
}

func (s *FirestoreStore) ListStaff(ctx context.Context) ([]models.Staff, error) {
	q := s.client.Collection(models.CollectionStaff).OrderBy("dateJoined", firestore.Asc)
	return queryDocs[models.Staff](ctx, q)
}

func (s *FirestoreStore) UpdateStaff(ctx context.Context, id string, fields Fields) error {
	return s.update(ctx, models.CollectionStaff, id, fields)
}

func (s *FirestoreStore) DeleteStaff(ctx context.Context, id string) error {
	return s.delete(ctx, models.CollectionStaff, id)
}

// ===RATINGS===

func (s *FirestoreStore) CreateRating(ctx context.Context, rating *models.Rating) error {
	_, err := s.doc(models.CollectionRatings, rating.ID).Create(ctx, rating)
	return translateFirestore(err)
}

func (s *FirestoreStore) ListRatings(ctx context.Context) ([]models.Rating, error) {
	q := s.client.Collection(models.CollectionRatings).OrderBy("createdAt", firestore.Desc)
	return queryDocs[models.Rating](ctx, q)
}

// ===SUBSCRIPTIONS===

// Subscribe starts a snapshot listener on collection. The first snapshot
// carries the current content. The listener stops when ctx is done or the
// returned function is called.
func (s *FirestoreStore) Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (func(), error) {
	if !IsKnownCollection(collection) {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(collection).Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled && !errors.Is(err, iterator.Done) && ctx.Err() == nil {
					log.Printf("⚠️ %s listener stopped: %v", collection, err)
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				log.Printf("⚠️ Failed to read %s snapshot: %v", collection, err)
				continue
			}
			records, err := decodeCollection(collection, docs)
			if err != nil {
				log.Printf("⚠️ Failed to decode %s snapshot: %v", collection, err)
				continue
			}
			fn(Snapshot{Collection: collection, At: qs.ReadTime, Records: records})
		}
	}()

	return cancel, nil
}

func decodeCollection(collection string, docs []*firestore.DocumentSnapshot) (interface{}, error) {
	switch collection {
	case models.CollectionMenuItems:
		return decodeDocs[models.MenuItem](docs)
	case models.CollectionOrders:
		return decodeDocs[models.Order](docs)
	case models.CollectionKitchenOrders:
		return decodeDocs[models.KitchenOrder](docs)
	case models.CollectionBills:
		return decodeDocs[models.Bill](docs)
	case models.CollectionStaff:
		return decodeDocs[models.Staff](docs)
	case models.CollectionRatings:
		return decodeDocs[models.Rating](docs)
	}
	return nil, fmt.Errorf("unknown collection %q", collection)
}

// ===ADMIN===

func (s *FirestoreStore) Clear(ctx context.Context) error {
	bw := s.client.BulkWriter(ctx)
	for _, collection := range []string{
		models.CollectionOrders,
		models.CollectionKitchenOrders,
		models.CollectionBills,
		models.CollectionRatings,
		models.CollectionCounters,
	} {
		refs, err := s.client.Collection(collection).DocumentRefs(ctx).GetAll()
		if err != nil {
			bw.End()
			return fmt.Errorf("list %s: %w", collection, err)
		}
		for _, ref := range refs {
			if _, err := bw.Delete(ref); err != nil {
				bw.End()
				return fmt.Errorf("delete %s: %w", ref.Path, err)
			}
		}
	}
	bw.End()
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
