// Package menu serves the menu: public reads, and create/update/delete for
// kitchen and admin staff.
package menu

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/store"
	"restaurant_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ImageUploader hosts menu images
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, fileName string) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

// Controller handles menu routes
type Controller struct {
	store  store.MenuItems
	images ImageUploader
}

// New creates a menu controller; images may be nil when no bucket is configured
func New(s store.MenuItems, images ImageUploader) *Controller {
	return &Controller{store: s, images: images}
}

type itemRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"imageUrl"`
	Available   *bool    `json:"available"`
	PrepTime    *int     `json:"prepTime"`
}

func (r itemRequest) fields() (store.Fields, error) {
	fields := store.Fields{}
	if r.Name != nil {
		if strings.TrimSpace(*r.Name) == "" {
			return nil, apperr.Validation("Name cannot be empty")
		}
		fields["name"] = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.Price != nil {
		if *r.Price <= 0 {
			return nil, apperr.Validation("Price must be greater than 0")
		}
		fields["price"] = *r.Price
	}
	if r.Category != nil {
		if strings.TrimSpace(*r.Category) == "" {
			return nil, apperr.Validation("Category cannot be empty")
		}
		fields["category"] = strings.TrimSpace(*r.Category)
	}
	if r.ImageURL != nil {
		fields["imageUrl"] = *r.ImageURL
	}
	if r.Available != nil {
		fields["available"] = *r.Available
	}
	if r.PrepTime != nil {
		if *r.PrepTime <= 0 {
			return nil, apperr.Validation("Prep time must be greater than 0")
		}
		fields["prepTime"] = *r.PrepTime
	}
	return fields, nil
}

func (h *Controller) get(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := h.store.GetMenuItem(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Menu item %s not found", id)
	}
	if err != nil {
		return nil, apperr.Persistence(err, "failed to load menu item %s", id)
	}
	return item, nil
}

// ListMenu returns the menu; ?available=true hides unavailable items and
// ?category= filters by category
func (h *Controller) ListMenu(c *gin.Context) {
	items, err := h.store.ListMenuItems(c.Request.Context())
	if err != nil {
		utils.AbortWithError(c, apperr.Persistence(err, "failed to list menu"))
		return
	}

	onlyAvailable := c.Query("available") == "true"
	category := c.Query("category")
	filtered := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if onlyAvailable && !item.Available {
			continue
		}
		if category != "" && !strings.EqualFold(item.Category, category) {
			continue
		}
		filtered = append(filtered, item)
	}

	c.JSON(http.StatusOK, gin.H{"items": filtered})
}

// GetMenuItem returns one menu item
func (h *Controller) GetMenuItem(c *gin.Context) {
	item, err := h.get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// CreateMenuItem adds an item to the menu
func (h *Controller) CreateMenuItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid menu item")
		return
	}
	if req.Name == nil || req.Price == nil || req.Category == nil || req.PrepTime == nil {
		utils.BadRequestResponse(c, "Name, price, category and prep time are required")
		return
	}
	fields, err := req.fields()
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	item := &models.MenuItem{
		ID:        uuid.NewString(),
		Name:      fields["name"].(string),
		Price:     *req.Price,
		Category:  fields["category"].(string),
		PrepTime:  *req.PrepTime,
		Available: true,
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.ImageURL != nil {
		item.ImageURL = *req.ImageURL
	}
	if req.Available != nil {
		item.Available = *req.Available
	}

	if err := h.store.CreateMenuItem(c.Request.Context(), item); err != nil {
		utils.AbortWithError(c, apperr.Persistence(err, "failed to create menu item"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item created", "item": item})
}

// UpdateMenuItem applies a partial update to a menu item
func (h *Controller) UpdateMenuItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid menu item")
		return
	}
	fields, err := req.fields()
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	h.update(c, c.Param("id"), fields)
}

// SetAvailability toggles whether an item can be ordered
func (h *Controller) SetAvailability(c *gin.Context) {
	var req struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Available is required")
		return
	}
	h.update(c, c.Param("id"), store.Fields{"available": *req.Available})
}

func (h *Controller) update(c *gin.Context, id string, fields store.Fields) {
	if len(fields) == 0 {
		utils.BadRequestResponse(c, "Nothing to update")
		return
	}
	if err := h.store.UpdateMenuItem(c.Request.Context(), id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.AbortWithError(c, apperr.NotFound("Menu item %s not found", id))
			return
		}
		utils.AbortWithError(c, apperr.Persistence(err, "failed to update menu item %s", id))
		return
	}
	item, err := h.get(c.Request.Context(), id)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// DeleteMenuItem removes a menu item and its hosted image. Existing orders
// keep their snapshot.
func (h *Controller) DeleteMenuItem(c *gin.Context) {
	id := c.Param("id")
	item, err := h.get(c.Request.Context(), id)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	if err := h.store.DeleteMenuItem(c.Request.Context(), id); err != nil {
		utils.AbortWithError(c, apperr.Persistence(err, "failed to delete menu item %s", id))
		return
	}
	if h.images != nil && item.ImageURL != "" {
		if err := h.images.Delete(c.Request.Context(), item.ImageURL); err != nil {
			log.Printf("⚠️ Failed to delete image for %s: %v", id, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}

// UploadImage stores the multipart "image" file and sets it on the item
func (h *Controller) UploadImage(c *gin.Context) {
	if h.images == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Image hosting is not configured")
		return
	}
	id := c.Param("id")
	item, err := h.get(c.Request.Context(), id)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "Image file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Could not read image")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		utils.BadRequestResponse(c, "Could not read image")
		return
	}

	url, err := h.images.Upload(c.Request.Context(), data, header.Filename)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}
	if item.ImageURL != "" {
		if err := h.images.Delete(c.Request.Context(), item.ImageURL); err != nil {
			log.Printf("⚠️ Failed to delete old image for %s: %v", id, err)
		}
	}
	h.update(c, id, store.Fields{"imageUrl": url})
}
