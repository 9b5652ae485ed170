package http

import (
	"time"

	"github.com/parkview-commons/rental-booking-backend/internal/item"
	"github.com/parkview-commons/rental-booking-backend/internal/pkg/request"
)

// ItemTag is the minimal item reference embedded in other responses.
type ItemTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListItemsRequest defines query parameters for listing items.
type ListItemsRequest struct {
	request.ListParams
	Category string `form:"category" binding:"omitempty,oneof=room sports game other"`
	All      bool   `form:"all"`
}

type ItemResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Description   *string   `json:"description,omitempty"`
	TotalQuantity int       `json:"total_quantity"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewItemResponse(i *item.Item) ItemResponse {
	return ItemResponse{
		ID:            i.ID,
		Name:          i.Name,
		Category:      string(i.Category),
		Description:   i.Description,
		TotalQuantity: i.TotalQuantity,
		Active:        i.Active,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}
