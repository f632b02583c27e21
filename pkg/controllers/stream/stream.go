// Package stream pushes collection snapshots to dashboards over server-sent events.
package stream

import (
	"io"
	"log"
	"time"

	"restaurant_backend/pkg/middleware"
	"restaurant_backend/pkg/store"
	"restaurant_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const keepAlive = 25 * time.Second

// Controller handles /api/stream routes
type Controller struct {
	store store.Store
}

// New creates a stream controller
func New(s store.Store) *Controller {
	return &Controller{store: s}
}

// Subscribe streams a "snapshot" event with the full collection content on
// every change, starting with the current content. Slow clients only get the
// latest snapshot.
func (h *Controller) Subscribe(c *gin.Context) {
	collection := c.Param("collection")
	if !store.IsKnownCollection(collection) {
		utils.NotFoundResponse(c, "Unknown collection "+collection)
		return
	}

	updates := make(chan store.Snapshot, 1)
	push := func(snap store.Snapshot) {
		for {
			select {
			case updates <- snap:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}

	ctx := c.Request.Context()
	unsubscribe, err := h.store.Subscribe(ctx, collection, push)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	defer unsubscribe()

	staff, _ := middleware.CurrentStaff(c)
	log.Printf("📡 %s subscribed to %s", staff.ID, collection)

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap := <-updates:
			c.SSEvent("snapshot", gin.H{
				"collection": snap.Collection,
				"at":         snap.At,
				"records":    snap.Records,
			})
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now()})
			return true
		}
	})
	log.Printf("📡 %s left %s", staff.ID, collection)
}
