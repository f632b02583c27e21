package orders

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/config"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/store"
)

type recordingNotifier struct {
	created []string
	ready   []string
}

func (n *recordingNotifier) OrderCreated(_ context.Context, o models.Order) error {
	n.created = append(n.created, o.ID)
	return nil
}

func (n *recordingNotifier) OrderReady(_ context.Context, o models.Order) error {
	n.ready = append(n.ready, o.ID)
	return nil
}

var fixedNow = time.Date(2024, 6, 1, 13, 0, 0, 0, time.Local)

func newTestManager(t *testing.T, rates config.Rates) (*Manager, *store.MemoryStore, *recordingNotifier) {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	for _, item := range []models.MenuItem{
		{ID: "burger", Name: "Burger", Price: 10, Category: models.CategoryMainCourse, Available: true, PrepTime: 15},
		{ID: "tea", Name: "Tea", Price: 5, Category: models.CategoryBeverages, Available: true, PrepTime: 5},
		{ID: "soup", Name: "Soup", Price: 7, Category: "Starters", Available: false, PrepTime: 10},
	} {
		item := item
		if err := s.CreateMenuItem(ctx, &item); err != nil {
			t.Fatal(err)
		}
	}
	n := &recordingNotifier{}
	m := NewManager(s, rates, WithNotifier(n), WithClock(func() time.Time { return fixedNow }))
	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Stop)
	return m, s, n
}

func dineInRequest() CreateRequest {
	return CreateRequest{
		Type:         models.OrderTypeDineIn,
		CustomerName: "Asha",
		TableNumber:  "T4",
		WaiterID:     "waiter-1",
		Items: []ItemRequest{
			{MenuItemID: "burger", Quantity: 2},
			{MenuItemID: "tea", Quantity: 1},
		},
	}
}

func checkTotals(t *testing.T, o *models.Order) {
	t.Helper()
	if math.Abs(o.GrandTotal-(o.Total+o.Tax)) > 0.01 {
		t.Errorf("grandTotal %.2f != total %.2f + tax %.2f", o.GrandTotal, o.Total, o.Tax)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	tests := []struct {
		name string
		flow Flow
		req  func() CreateRequest
		kind apperr.Kind
	}{
		{
			name: "noItems",
			flow: FlowWaiter,
			req: func() CreateRequest {
				r := dineInRequest()
				r.Items = nil
				return r
			},
			kind: apperr.KindValidation,
		},
		{
			name: "dineInWithoutTable",
			flow: FlowWaiter,
			req: func() CreateRequest {
				r := dineInRequest()
				r.TableNumber = " "
				return r
			},
			kind: apperr.KindValidation,
		},
		{
			name: "deliveryWithoutAddress",
			flow: FlowCustomer,
			req: func() CreateRequest {
				return CreateRequest{
					Type:          models.OrderTypeDelivery,
					CustomerName:  "Ravi",
					CustomerPhone: "9000000000",
					Items:         []ItemRequest{{MenuItemID: "tea", Quantity: 1}},
				}
			},
			kind: apperr.KindValidation,
		},
		{
			name: "zeroQuantity",
			flow: FlowWaiter,
			req: func() CreateRequest {
				r := dineInRequest()
				r.Items[0].Quantity = 0
				return r
			},
			kind: apperr.KindValidation,
		},
		{
			name: "unknownMenuItem",
			flow: FlowWaiter,
			req: func() CreateRequest {
				r := dineInRequest()
				r.Items[0].MenuItemID = "pizza"
				return r
			},
			kind: apperr.KindNotFound,
		},
		{
			name: "unavailableMenuItem",
			flow: FlowWaiter,
			req: func() CreateRequest {
				r := dineInRequest()
				r.Items[0].MenuItemID = "soup"
				return r
			},
			kind: apperr.KindValidation,
		},
		{
			name: "waiterFlowWithoutWaiter",
			flow: FlowWaiter,
			req: func() CreateRequest {
				r := dineInRequest()
				r.WaiterID = ""
				return r
			},
			kind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateOrder(ctx, tt.flow, tt.req())
			if got := apperr.KindOf(err); got != tt.kind {
				t.Errorf("CreateOrder() error kind = %q (%v), want %q", got, err, tt.kind)
			}
		})
	}

	orders, _ := m.ListOrders(ctx, store.OrderFilter{})
	if len(orders) != 0 {
		t.Errorf("failed creations left %d orders behind", len(orders))
	}
}

func TestCreateOrderCustomerFlow(t *testing.T) {
	m, s, n := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowCustomer, CreateRequest{
		Type:            models.OrderTypeDelivery,
		CustomerName:    "Ravi",
		CustomerPhone:   "9000000000",
		CustomerAddress: "12 Lake Road",
		Items:           []ItemRequest{{MenuItemID: "tea", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	o := res.Order
	if o.ID != "ORD001" {
		t.Errorf("ID = %s, want ORD001", o.ID)
	}
	if o.Status != models.OrderStatusPending {
		t.Errorf("Status = %s, want pending", o.Status)
	}
	if o.Total != 10 || o.Tax != 1 || o.GrandTotal != 11 {
		t.Errorf("totals = %.2f/%.2f/%.2f, want 10/1/11", o.Total, o.Tax, o.GrandTotal)
	}
	if res.Ticket != nil {
		t.Error("customer orders must not get a kitchen ticket")
	}
	if _, err := s.GetKitchenOrder(ctx, o.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetKitchenOrder() error = %v, want ErrNotFound", err)
	}
	if len(n.created) != 1 {
		t.Errorf("created notifications = %d, want 1", len(n.created))
	}
}

func TestCreateOrderSequentialIDs(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	for i, want := range []string{"ORD001", "ORD002", "ORD003"} {
		res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
		if err != nil {
			t.Fatalf("CreateOrder(#%d) error = %v", i, err)
		}
		if res.Order.ID != want {
			t.Errorf("ID = %s, want %s", res.Order.ID, want)
		}
	}
}

func TestCreateOrderPreferences(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	sugar := models.SugarPreferenceSugarless
	spicy := models.SpicyPreferenceSpicy
	req := dineInRequest()
	req.Items = []ItemRequest{
		{MenuItemID: "burger", Quantity: 1, SugarPreference: &sugar, SpicyPreference: &spicy},
		{MenuItemID: "tea", Quantity: 1, SugarPreference: &sugar, SpicyPreference: &spicy},
	}

	res, err := m.CreateOrder(ctx, FlowWaiter, req)
	if err != nil {
		t.Fatal(err)
	}
	burger, tea := res.Order.Items[0], res.Order.Items[1]
	if burger.SugarPreference != nil || burger.SpicyPreference == nil {
		t.Errorf("burger preferences = %v/%v, want only spicy", burger.SugarPreference, burger.SpicyPreference)
	}
	if tea.SpicyPreference != nil || tea.SugarPreference == nil {
		t.Errorf("tea preferences = %v/%v, want only sugar", tea.SugarPreference, tea.SpicyPreference)
	}

	bad := models.SugarPreference("extra")
	req.Items = []ItemRequest{{MenuItemID: "tea", Quantity: 1, SugarPreference: &bad}}
	if _, err := m.CreateOrder(ctx, FlowWaiter, req); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("invalid preference error = %v, want validation", err)
	}
}

func TestCreateOrderPersistenceFailure(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	s.FailNext(models.CollectionKitchenOrders, errors.New("disk full"))
	_, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if !apperr.IsKind(err, apperr.KindPersistence) {
		t.Fatalf("CreateOrder() error = %v, want persistence", err)
	}

	orders, _ := s.ListOrders(ctx, store.OrderFilter{})
	tickets, _ := s.ListKitchenOrders(ctx)
	if len(orders) != 0 || len(tickets) != 0 {
		t.Errorf("partial write left orders=%d tickets=%d", len(orders), len(tickets))
	}
}

func TestDraftConfirmAndReconcile(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	req := dineInRequest()
	req.Draft = true
	res, err := m.CreateOrder(ctx, FlowWaiter, req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Order.Status != models.OrderStatusPending || !res.Order.Draft || res.Ticket != nil {
		t.Fatalf("draft = status %s draft %v ticket %v", res.Order.Status, res.Order.Draft, res.Ticket)
	}

	s.FailNext(models.CollectionKitchenOrders, errors.New("timeout"))
	confirmed, err := m.ConfirmOrder(ctx, res.Order.ID)
	if err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}
	if confirmed.Order.Status != models.OrderStatusConfirmed || confirmed.Warning == "" {
		t.Errorf("ConfirmOrder() = status %s warning %q", confirmed.Order.Status, confirmed.Warning)
	}

	tickets, err := m.KitchenTickets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 1 || tickets[0].Status != models.KitchenStatusPending {
		t.Fatalf("KitchenTickets() = %+v, want one pending ticket", tickets)
	}
	if tickets[0].EstimatedTime != 25 || tickets[0].Priority != models.PriorityHigh {
		t.Errorf("ticket estimate=%d priority=%s, want 25 and high", tickets[0].EstimatedTime, tickets[0].Priority)
	}

	if _, err := m.ConfirmOrder(ctx, res.Order.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("second ConfirmOrder() error = %v, want validation", err)
	}
}

// Total invariant and status monotonicity across a full lifecycle.
func TestLifecycleInvariants(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	id := res.Order.ID
	seen := []models.OrderStatus{res.Order.Status}
	checkTotals(t, res.Order)

	steps := []struct {
		status models.KitchenStatus
		paused bool
	}{
		{models.KitchenStatusInProgress, false},
		{models.KitchenStatusInProgress, false},
		{models.KitchenStatusReady, false},
		{models.KitchenStatusReady, false},
	}
	for _, step := range steps {
		r, err := m.SetKitchenStatus(ctx, id, step.status, step.paused)
		if err != nil {
			t.Fatalf("SetKitchenStatus(%s) error = %v", step.status, err)
		}
		checkTotals(t, r.Order)
		seen = append(seen, r.Order.Status)
	}
	_, billed, err := m.GenerateBill(ctx, BillRequest{OrderID: id, GeneratedBy: "Meera", PaymentMethod: models.PaymentMethodCash})
	if err != nil {
		t.Fatal(err)
	}
	checkTotals(t, billed)
	seen = append(seen, billed.Status)

	last := -1
	for _, s := range seen {
		rank := happyPath[s]
		if rank < last {
			t.Fatalf("status went backwards: %v", seen)
		}
		last = rank
	}
	if billed.Status != models.OrderStatusCompleted {
		t.Errorf("final status = %s, want completed", billed.Status)
	}
}

func TestGenerateBillPaymentForcesCompletion(t *testing.T) {
	tests := []struct {
		name       string
		advance    []models.KitchenStatus
		wantStatus models.OrderStatus
	}{
		{name: "confirmed", advance: nil, wantStatus: models.OrderStatusConfirmed},
		{name: "preparing", advance: []models.KitchenStatus{models.KitchenStatusInProgress}, wantStatus: models.OrderStatusPreparing},
		{name: "ready", advance: []models.KitchenStatus{models.KitchenStatusReady}, wantStatus: models.OrderStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t, config.DefaultRates())
			ctx := context.Background()

			res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
			if err != nil {
				t.Fatal(err)
			}
			for _, k := range tt.advance {
				if _, err := m.SetKitchenStatus(ctx, res.Order.ID, k, false); err != nil {
					t.Fatal(err)
				}
			}

			_, order, err := m.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "Meera", PaymentMethod: models.PaymentMethodCard})
			if err != nil {
				t.Fatalf("GenerateBill() error = %v", err)
			}
			if order.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", order.Status, tt.wantStatus)
			}
			if order.PaymentStatus != models.PaymentStatusPaid {
				t.Errorf("PaymentStatus = %s, want paid", order.PaymentStatus)
			}
			if (order.CompletedTime != nil) != (tt.wantStatus == models.OrderStatusCompleted) {
				t.Errorf("CompletedTime = %v for status %s", order.CompletedTime, order.Status)
			}
		})
	}
}

// laggingStore delivers only the initial snapshot to subscribers, like a
// listener on another instance that has not caught up yet
type laggingStore struct {
	*store.MemoryStore
}

func (s laggingStore) Subscribe(ctx context.Context, collection string, fn func(store.Snapshot)) (func(), error) {
	delivered := false
	return s.MemoryStore.Subscribe(ctx, collection, func(snap store.Snapshot) {
		if delivered {
			return
		}
		delivered = true
		fn(snap)
	})
}

func TestGenerateBillWithStaleCacheCompletesReadyOrder(t *testing.T) {
	kitchen, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	waiter := NewManager(laggingStore{s}, config.DefaultRates(), WithClock(func() time.Time { return fixedNow }))
	if err := waiter.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(waiter.Stop)

	res, err := waiter.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []models.KitchenStatus{models.KitchenStatusInProgress, models.KitchenStatusReady} {
		if _, err := kitchen.SetKitchenStatus(ctx, res.Order.ID, k, false); err != nil {
			t.Fatal(err)
		}
	}
	if o, _ := waiter.cached(res.Order.ID); o.Status != models.OrderStatusConfirmed {
		t.Fatalf("waiter cache status = %s, want stale confirmed", o.Status)
	}

	_, order, err := waiter.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "Meera", PaymentMethod: models.PaymentMethodCash})
	if err != nil {
		t.Fatalf("GenerateBill() error = %v", err)
	}
	if order.Status != models.OrderStatusCompleted {
		t.Errorf("returned status = %s, want completed", order.Status)
	}
	stored, _ := s.GetOrder(ctx, res.Order.ID)
	if stored.Status != models.OrderStatusCompleted || stored.PaymentStatus != models.PaymentStatusPaid || stored.CompletedTime == nil {
		t.Errorf("stored order = %s/%s completedTime %v, want completed/paid", stored.Status, stored.PaymentStatus, stored.CompletedTime)
	}
}

func TestPaidOrderCompletesWhenKitchenReady(t *testing.T) {
	m, _, n := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "Meera", PaymentMethod: models.PaymentMethodUPI}); err != nil {
		t.Fatal(err)
	}

	r, err := m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusReady, false)
	if err != nil {
		t.Fatal(err)
	}
	if r.Order.Status != models.OrderStatusCompleted || r.Order.CompletedTime == nil {
		t.Errorf("Status = %s completedTime %v, want completed", r.Order.Status, r.Order.CompletedTime)
	}
	if len(n.ready) != 0 {
		t.Errorf("ready notifications = %v, want none for a completed order", n.ready)
	}
}

func TestKitchenStatusIdempotence(t *testing.T) {
	m, s, n := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}

	first, err := m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusReady, false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusReady, false)
	if err != nil {
		t.Fatal(err)
	}
	if first.Order.Status != second.Order.Status {
		t.Errorf("repeat changed status: %s then %s", first.Order.Status, second.Order.Status)
	}
	stored, _ := s.GetOrder(ctx, res.Order.ID)
	if stored.Status != models.OrderStatusReady {
		t.Errorf("stored status = %s, want ready", stored.Status)
	}
	if len(n.ready) != 1 {
		t.Errorf("ready notifications = %d, want 1", len(n.ready))
	}

	if _, err := m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusInProgress, false); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("ready -> in-progress error = %v, want validation", err)
	}
}

func TestPauseSemantics(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	id := res.Order.ID

	if _, err := m.SetKitchenStatus(ctx, id, models.KitchenStatusInProgress, false); err != nil {
		t.Fatal(err)
	}
	paused, err := m.SetKitchenStatus(ctx, id, models.KitchenStatusPending, true)
	if err != nil {
		t.Fatal(err)
	}
	if paused.Order.Status != models.OrderStatusConfirmed || !paused.Order.Paused {
		t.Errorf("after pause: status %s paused %v, want confirmed/true", paused.Order.Status, paused.Order.Paused)
	}
	if !paused.Ticket.Paused {
		t.Error("ticket should be paused")
	}

	resumed, err := m.SetKitchenStatus(ctx, id, models.KitchenStatusInProgress, false)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Order.Status != models.OrderStatusPreparing || resumed.Order.Paused {
		t.Errorf("after resume: status %s paused %v, want preparing/false", resumed.Order.Status, resumed.Order.Paused)
	}
	stored, _ := s.GetOrder(ctx, id)
	if stored.Paused {
		t.Error("stored order is still paused")
	}
	ticket, _ := s.GetKitchenOrder(ctx, id)
	if ticket.Paused || ticket.Status != models.KitchenStatusInProgress {
		t.Errorf("stored ticket = %s paused %v", ticket.Status, ticket.Paused)
	}
}

func TestSetKitchenStatusSoftFailure(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}

	s.FailNext(models.CollectionOrders, errors.New("unavailable"))
	r, err := m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusInProgress, false)
	if err != nil {
		t.Fatalf("SetKitchenStatus() error = %v, want soft warning", err)
	}
	if r.Warning != WarnRetry {
		t.Errorf("Warning = %q, want %q", r.Warning, WarnRetry)
	}
	ticket, _ := s.GetKitchenOrder(ctx, res.Order.ID)
	if ticket.Status != models.KitchenStatusInProgress {
		t.Errorf("kitchen write lost: ticket status %s", ticket.Status)
	}

	// retrying applies the derivation
	r, err = m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusInProgress, false)
	if err != nil || r.Warning != "" || r.Order.Status != models.OrderStatusPreparing {
		t.Errorf("retry = %+v, %v", r, err)
	}
}

func TestSetKitchenStatusOrphanTicket(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	if err := s.CreateKitchenOrder(ctx, &models.KitchenOrder{OrderID: "ORD999", Status: models.KitchenStatusPending}); err != nil {
		t.Fatal(err)
	}
	r, err := m.SetKitchenStatus(ctx, "ORD999", models.KitchenStatusReady, false)
	if err != nil {
		t.Fatalf("SetKitchenStatus() error = %v", err)
	}
	if r.Warning != WarnRetry || r.Order != nil {
		t.Errorf("result = %+v, want warning and no order", r)
	}
	if r.Ticket.Status != models.KitchenStatusReady {
		t.Errorf("ticket status = %s, want ready", r.Ticket.Status)
	}
}

func TestSetKitchenStatusErrors(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	if _, err := m.SetKitchenStatus(ctx, "ORD404", models.KitchenStatusReady, false); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing ticket error = %v, want not found", err)
	}
	if _, err := m.SetKitchenStatus(ctx, "ORD404", "done", false); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("bad status error = %v, want validation", err)
	}
}

func TestCancelOrder(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusInProgress, false); err != nil {
		t.Fatal(err)
	}

	cancelled, err := m.CancelOrder(ctx, res.Order.ID)
	if err != nil {
		t.Fatalf("CancelOrder() error = %v", err)
	}
	if cancelled.Status != models.OrderStatusCancelled || cancelled.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("cancelled order = %s/%s", cancelled.Status, cancelled.PaymentStatus)
	}
	ticket, _ := s.GetKitchenOrder(ctx, res.Order.ID)
	if ticket.Status != models.KitchenStatusInProgress {
		t.Errorf("ticket status changed to %s", ticket.Status)
	}

	// the kitchen can still finish the ticket but the order stays cancelled
	r, err := m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusReady, false)
	if err != nil {
		t.Fatal(err)
	}
	if r.Order.Status != models.OrderStatusCancelled {
		t.Errorf("status after kitchen ready = %s, want cancelled", r.Order.Status)
	}

	if _, err := m.CancelOrder(ctx, res.Order.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("second cancel error = %v, want validation", err)
	}
	if _, _, err := m.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "x", PaymentMethod: models.PaymentMethodCash}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("billing cancelled order error = %v, want validation", err)
	}
	if _, err := m.CancelOrder(ctx, "ORD404"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("cancel missing error = %v, want not found", err)
	}
}

func TestCancelCompletedOrderRejected(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusReady, false); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "x", PaymentMethod: models.PaymentMethodCash}); err != nil {
		t.Fatal(err)
	}

	if _, err := m.CancelOrder(ctx, res.Order.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("cancel completed order error = %v, want validation", err)
	}
	stored, _ := s.GetOrder(ctx, res.Order.ID)
	if stored.Status != models.OrderStatusCompleted {
		t.Errorf("stored status = %s, want completed", stored.Status)
	}
}

func TestToggleDeliveryIndependence(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.SetKitchenStatus(ctx, res.Order.ID, models.KitchenStatusReady, false); err != nil {
		t.Fatal(err)
	}
	before, _ := m.GetOrder(ctx, res.Order.ID)

	want := []models.DeliveryStatus{models.DeliveryStatusDelivered, models.DeliveryStatusPending, models.DeliveryStatusDelivered}
	for i, w := range want {
		after, err := m.ToggleDelivery(ctx, res.Order.ID)
		if err != nil {
			t.Fatal(err)
		}
		if after.DeliveryStatus == nil || *after.DeliveryStatus != w {
			t.Errorf("toggle %d: deliveryStatus = %v, want %s", i, after.DeliveryStatus, w)
		}
		if after.Status != before.Status || after.PaymentStatus != before.PaymentStatus ||
			after.Total != before.Total || after.Tax != before.Tax || after.GrandTotal != before.GrandTotal {
			t.Errorf("toggle %d changed other fields: %+v", i, after)
		}
	}
}

func TestUpdateItemStatus(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	itemID := res.Order.Items[0].ID

	order, err := m.UpdateItemStatus(ctx, res.Order.ID, itemID, models.OrderItemStatusReady)
	if err != nil {
		t.Fatal(err)
	}
	if order.Items[0].Status != models.OrderItemStatusReady || order.Status != models.OrderStatusConfirmed {
		t.Errorf("order item %s order status %s", order.Items[0].Status, order.Status)
	}
	ticket, _ := s.GetKitchenOrder(ctx, res.Order.ID)
	if ticket.Items[0].Status != models.OrderItemStatusReady || ticket.Status != models.KitchenStatusPending {
		t.Errorf("ticket item %s ticket status %s", ticket.Items[0].Status, ticket.Status)
	}

	if _, err := m.UpdateItemStatus(ctx, res.Order.ID, "nope", models.OrderItemStatusReady); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("unknown item error = %v, want not found", err)
	}
	if _, err := m.UpdateItemStatus(ctx, res.Order.ID, itemID, "eaten"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("bad item status error = %v, want validation", err)
	}
}

func TestGenerateBillFailures(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	if _, _, err := m.GenerateBill(ctx, BillRequest{OrderID: "ORD404", GeneratedBy: "x", PaymentMethod: models.PaymentMethodCash}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing order error = %v, want not found", err)
	}

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}

	s.FailNext(models.CollectionBills, errors.New("write failed"))
	_, _, err = m.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "x", PaymentMethod: models.PaymentMethodCash})
	if !apperr.IsKind(err, apperr.KindPersistence) {
		t.Fatalf("GenerateBill() error = %v, want persistence", err)
	}
	stored, _ := s.GetOrder(ctx, res.Order.ID)
	if stored.PaymentStatus != models.PaymentStatusPending {
		t.Errorf("order marked %s after failed bill write", stored.PaymentStatus)
	}

	if _, _, err := m.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "x", PaymentMethod: "cheque"}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("bad method error = %v, want validation", err)
	}
	if _, _, err := m.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "x", PaymentMethod: models.PaymentMethodCash, Discount: 500}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("oversized discount error = %v, want validation", err)
	}
}

func TestGenerateBillTwiceCreatesTwoBills(t *testing.T) {
	m, s, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, _, err := m.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "x", PaymentMethod: models.PaymentMethodCash}); err != nil {
			t.Fatal(err)
		}
	}
	bills, _ := s.ListBills(ctx, store.BillFilter{OrderID: res.Order.ID})
	if len(bills) != 2 {
		t.Errorf("bills = %d, want 2", len(bills))
	}
}

func TestGenerateBillServiceChargeAndDiscount(t *testing.T) {
	rates := config.DefaultRates()
	rates.ServiceCharge = 0.10
	m, _, _ := newTestManager(t, rates)
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	bill, _, err := m.GenerateBill(ctx, BillRequest{
		OrderID:            res.Order.ID,
		GeneratedBy:        "Meera",
		PaymentMethod:      models.PaymentMethodCard,
		ApplyServiceCharge: true,
		Discount:           1.25,
	})
	if err != nil {
		t.Fatal(err)
	}
	// 25 + 1.25 tax + 2.50 service - 1.25 discount
	if bill.Total != 27.5 {
		t.Errorf("Total = %.2f, want 27.50", bill.Total)
	}
	if bill.ServiceCharge == nil || *bill.ServiceCharge != 2.5 {
		t.Errorf("ServiceCharge = %v, want 2.50", bill.ServiceCharge)
	}
	if bill.CustomerDetails.TableNumber != "T4" {
		t.Errorf("CustomerDetails.TableNumber = %q, want T4", bill.CustomerDetails.TableNumber)
	}
}

func TestWaiterOrdersScoped(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	if _, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest()); err != nil {
		t.Fatal(err)
	}
	other := dineInRequest()
	other.WaiterID = "waiter-2"
	if _, err := m.CreateOrder(ctx, FlowWaiter, other); err != nil {
		t.Fatal(err)
	}

	mine, err := m.WaiterOrders(ctx, "waiter-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || *mine[0].WaiterID != "waiter-1" {
		t.Errorf("WaiterOrders() = %+v", mine)
	}
}

func TestCacheFollowsStore(t *testing.T) {
	m, _, _ := newTestManager(t, config.DefaultRates())
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.GenerateBill(ctx, BillRequest{OrderID: res.Order.ID, GeneratedBy: "x", PaymentMethod: models.PaymentMethodCash}); err != nil {
		t.Fatal(err)
	}

	if got := len(m.CachedOrders()); got != 1 {
		t.Errorf("CachedOrders() = %d, want 1", got)
	}
	if got := len(m.CachedBills()); got != 1 {
		t.Errorf("CachedBills() = %d, want 1", got)
	}
}

// Dine-in order with two lines at a 10% order rate, through the kitchen to a bill.
func TestEndToEndDineIn(t *testing.T) {
	rates := config.DefaultRates()
	rates.Waiter = 0.10
	m, s, _ := newTestManager(t, rates)
	ctx := context.Background()

	res, err := m.CreateOrder(ctx, FlowWaiter, dineInRequest())
	if err != nil {
		t.Fatal(err)
	}
	o := res.Order
	if o.Total != 25 || o.Tax != 2.5 || o.GrandTotal != 27.5 {
		t.Errorf("totals = %.2f/%.2f/%.2f, want 25/2.50/27.50", o.Total, o.Tax, o.GrandTotal)
	}
	if o.Status != models.OrderStatusConfirmed {
		t.Errorf("Status = %s, want confirmed", o.Status)
	}
	ticket, err := s.GetKitchenOrder(ctx, o.ID)
	if err != nil {
		t.Fatalf("kitchen ticket missing: %v", err)
	}
	if ticket.Status != models.KitchenStatusPending {
		t.Errorf("ticket status = %s, want pending", ticket.Status)
	}

	for _, k := range []models.KitchenStatus{models.KitchenStatusInProgress, models.KitchenStatusReady} {
		if _, err := m.SetKitchenStatus(ctx, o.ID, k, false); err != nil {
			t.Fatal(err)
		}
	}
	bill, final, err := m.GenerateBill(ctx, BillRequest{OrderID: o.ID, GeneratedBy: "Meera", PaymentMethod: models.PaymentMethodCash})
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != models.OrderStatusCompleted || final.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("final = %s/%s, want completed/paid", final.Status, final.PaymentStatus)
	}

	bills, _ := s.ListBills(ctx, store.BillFilter{OrderID: o.ID})
	if len(bills) != 1 {
		t.Fatalf("bills = %d, want 1", len(bills))
	}
	if bill.TaxRate != 0.05 || bill.TaxAmount != 1.25 || bill.Total != 26.25 {
		t.Errorf("bill = rate %.2f tax %.2f total %.2f, want 0.05/1.25/26.25", bill.TaxRate, bill.TaxAmount, bill.Total)
	}
}
