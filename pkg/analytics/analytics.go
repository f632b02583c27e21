// Package analytics computes dashboard aggregates as pure functions over the
// latest orders, bills and ratings snapshots.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"restaurant_backend/pkg/models"
)

// Period selects the revenue trend window
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod validates a period name; empty means week
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodWeek, nil
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Bucket is one point of a revenue trend
type Bucket struct {
	Label   string    `json:"label"`
	Start   time.Time `json:"start"`
	Revenue float64   `json:"revenue"`
	Orders  int       `json:"orders"`
}

// ItemCount is how often a menu item was ordered
type ItemCount struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Revenue    float64 `json:"revenue"`
}

// RatingSummary is the average rating of one menu item
type RatingSummary struct {
	MenuItemID string  `json:"menuItemId"`
	Average    float64 `json:"average"`
	Count      int     `json:"count"`
}

// Overview is the admin dashboard headline
type Overview struct {
	TodaysRevenue   float64                    `json:"todaysRevenue"`
	OrdersToday     int                        `json:"ordersToday"`
	TotalOrders     int                        `json:"totalOrders"`
	ActiveOrders    int                        `json:"activeOrders"`
	StatusBreakdown map[models.OrderStatus]int `json:"statusBreakdown"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func sameDay(t, now time.Time) bool {
	day := startOfDay(now)
	t = t.In(now.Location())
	return !t.Before(day) && t.Before(day.AddDate(0, 0, 1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TodaysRevenue sums Bill.total over bills generated on now's calendar day
// (in now's location)
func TodaysRevenue(bills []models.Bill, now time.Time) float64 {
	var sum float64
	for _, b := range bills {
		if sameDay(MustInstant(b.GeneratedAt), now) {
			sum += b.Total
		}
	}
	return round2(sum)
}

// OrdersToday counts orders placed on now's calendar day, paid or not
func OrdersToday(orders []models.Order, now time.Time) int {
	n := 0
	for _, o := range orders {
		if sameDay(MustInstant(o.OrderTime), now) {
			n++
		}
	}
	return n
}

// RevenueTrend buckets paid orders' grandTotal: daily for a week, weekly for a
// month, monthly for a year and monthly since the first paid order for all.
func RevenueTrend(orders []models.Order, period Period, now time.Time) []Bucket {
	buckets := trendBuckets(orders, period, now)
	if len(buckets) == 0 {
		return buckets
	}
	end := nextStart(buckets[len(buckets)-1].Start, period)

	for _, o := range orders {
		if o.PaymentStatus != models.PaymentStatusPaid {
			continue
		}
		at := MustInstant(o.OrderTime).In(now.Location())
		if at.Before(buckets[0].Start) || !at.Before(end) {
			continue
		}
		// last bucket whose start is not after at
		i := sort.Search(len(buckets), func(i int) bool { return buckets[i].Start.After(at) }) - 1
		buckets[i].Revenue += o.GrandTotal
		buckets[i].Orders++
	}
	for i := range buckets {
		buckets[i].Revenue = round2(buckets[i].Revenue)
	}
	return buckets
}

func trendBuckets(orders []models.Order, period Period, now time.Time) []Bucket {
	today := startOfDay(now)
	var buckets []Bucket
	switch period {
	case PeriodMonth:
		for i := 3; i >= 0; i-- {
			start := today.AddDate(0, 0, -7*i-6)
			buckets = append(buckets, Bucket{Label: "Week of " + start.Format("2006-01-02"), Start: start})
		}
	case PeriodYear:
		month := startOfMonth(now)
		for i := 11; i >= 0; i-- {
			start := month.AddDate(0, -i, 0)
			buckets = append(buckets, Bucket{Label: start.Format("Jan 2006"), Start: start})
		}
	case PeriodAll:
		first := startOfMonth(now)
		for _, o := range orders {
			if o.PaymentStatus != models.PaymentStatusPaid {
				continue
			}
			at := MustInstant(o.OrderTime)
			if at.IsZero() {
				continue
			}
			if m := startOfMonth(at.In(now.Location())); m.Before(first) {
				first = m
			}
		}
		for start := first; !start.After(startOfMonth(now)); start = start.AddDate(0, 1, 0) {
			buckets = append(buckets, Bucket{Label: start.Format("Jan 2006"), Start: start})
		}
	default:
		for i := 6; i >= 0; i-- {
			start := today.AddDate(0, 0, -i)
			buckets = append(buckets, Bucket{Label: start.Format("2006-01-02"), Start: start})
		}
	}
	return buckets
}

func nextStart(start time.Time, period Period) time.Time {
	switch period {
	case PeriodMonth:
		return start.AddDate(0, 0, 7)
	case PeriodYear, PeriodAll:
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 1)
}

// TopItems ranks menu items by quantity ordered across non-cancelled orders
func TopItems(orders []models.Order, n int) []ItemCount {
	counts := make(map[string]*ItemCount)
	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		for _, item := range o.Items {
			c, ok := counts[item.MenuItem.ID]
			if !ok {
				c = &ItemCount{MenuItemID: item.MenuItem.ID, Name: item.MenuItem.Name}
				counts[item.MenuItem.ID] = c
			}
			c.Quantity += item.Quantity
			c.Revenue += item.LineTotal()
		}
	}

	out := make([]ItemCount, 0, len(counts))
	for _, c := range counts {
		c.Revenue = round2(c.Revenue)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// AverageRatings averages stars per menu item, best first
func AverageRatings(ratings []models.Rating) []RatingSummary {
	type acc struct{ sum, count int }
	by := make(map[string]*acc)
	for _, r := range ratings {
		a, ok := by[r.MenuItemID]
		if !ok {
			a = &acc{}
			by[r.MenuItemID] = a
		}
		a.sum += r.Stars
		a.count++
	}

	out := make([]RatingSummary, 0, len(by))
	for id, a := range by {
		out = append(out, RatingSummary{
			MenuItemID: id,
			Average:    round2(float64(a.sum) / float64(a.count)),
			Count:      a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].MenuItemID < out[j].MenuItemID
	})
	return out
}

// StatusBreakdown counts orders per status
func StatusBreakdown(orders []models.Order) map[models.OrderStatus]int {
	out := make(map[models.OrderStatus]int)
	for _, o := range orders {
		out[o.Status]++
	}
	return out
}

// Summarize builds the dashboard overview
func Summarize(orders []models.Order, bills []models.Bill, now time.Time) Overview {
	breakdown := StatusBreakdown(orders)
	return Overview{
		TodaysRevenue:   TodaysRevenue(bills, now),
		OrdersToday:     OrdersToday(orders, now),
		TotalOrders:     len(orders),
		ActiveOrders:    breakdown[models.OrderStatusConfirmed] + breakdown[models.OrderStatusPreparing] + breakdown[models.OrderStatusReady],
		StatusBreakdown: breakdown,
	}
}
