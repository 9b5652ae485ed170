package item

import (
	"net/http"
	"time"

	"github.com/parkview-commons/rental-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "item not found")
	ErrInactive = apperror.New(http.StatusBadRequest, "item is not active")
)

// Category is the fixed set of bookable resource kinds.
type Category string

const (
	CategoryRoom   Category = "room"
	CategorySports Category = "sports"
	CategoryGame   Category = "game"
	CategoryOther  Category = "other"
)

// ValidCategories lists all accepted categories for request validation.
var ValidCategories = []Category{CategoryRoom, CategorySports, CategoryGame, CategoryOther}

// Item is a bookable resource with a fixed number of interchangeable units.
// Item metadata is administered outside this service; the booking engine
// treats items as read-only.
type Item struct {
	ID            string
	Name          string
	Category      Category
	Description   *string
	TotalQuantity int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Filter defines parameters for listing items.
type Filter struct {
	Category   string
	ActiveOnly bool
	Page       int
	PageSize   int
}
