package http

import (
	"time"

	"github.com/parkview-commons/rental-booking-backend/internal/booking"
	itemHttp "github.com/parkview-commons/rental-booking-backend/internal/item/http"
	"github.com/parkview-commons/rental-booking-backend/internal/pkg/request"
)

// UserTag is the minimal user reference embedded in booking responses.
type UserTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	ItemID      string     `form:"item_id" binding:"omitempty,uuid"`
	RequesterID string     `form:"requester_id" binding:"omitempty,uuid"`
	Status      string     `form:"status" binding:"omitempty,oneof=requested accepted borrowed completed declined cancelled"`
	From        *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy      string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.From != nil && r.To != nil && !r.To.After(*r.From) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

type CreateBookingRequest struct {
	ItemID    string    `json:"item_id" binding:"required,uuid"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Note      string    `json:"note"`
}

// Validate performs custom validation for CreateBookingRequest.
func (r *CreateBookingRequest) Validate() error {
	if !r.EndTime.After(r.StartTime) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

type UpdateBookingRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Quantity  *int       `json:"quantity" binding:"omitempty,min=1"`
	Note      string     `json:"note"`
}

// Validate performs custom validation for UpdateBookingRequest.
func (r *UpdateBookingRequest) Validate() error {
	if r.StartTime != nil && r.EndTime != nil && !r.EndTime.After(*r.StartTime) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted borrowed completed declined cancelled"`
	Note   string `json:"note"`
}

type BlockSlotsRequest struct {
	StartTime time.Time  `json:"start_time" binding:"required"`
	EndTime   time.Time  `json:"end_time" binding:"required"`
	Quantity  int        `json:"quantity" binding:"omitempty,min=1"`
	Reason    string     `json:"reason"`
	Frequency string     `json:"frequency" binding:"omitempty,oneof=none daily weekly biweekly monthly"`
	Until     *time.Time `json:"until"`
}

// Validate performs custom validation for BlockSlotsRequest.
func (r *BlockSlotsRequest) Validate() error {
	if !r.EndTime.After(r.StartTime) {
		return booking.ErrInvalidTimeRange
	}
	if r.Frequency != "" && r.Frequency != string(booking.FreqNone) && r.Until == nil {
		return booking.ErrInvalidRecurrence
	}
	return nil
}

type AvailabilityRequest struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type NoteResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingResponse struct {
	ID           string           `json:"id"`
	Item         itemHttp.ItemTag `json:"item"`
	Requester    UserTag          `json:"requester"`
	AssignedToID *string          `json:"assigned_to_id,omitempty"`
	Quantity     int              `json:"quantity"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
	Status       string           `json:"status"`
	IsBlock      bool             `json:"is_block"`
	LatestNote   *string          `json:"latest_note,omitempty"`
	Notes        []NoteResponse   `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:           b.ID,
		Item:         itemHttp.ItemTag{ID: b.ItemID, Name: b.ItemName},
		Requester:    UserTag{ID: b.RequesterID, Name: b.RequesterName},
		AssignedToID: b.AssignedToID,
		Quantity:     b.Quantity,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Status:       string(b.Status),
		IsBlock:      b.IsBlock(),
		LatestNote:   b.LatestNote,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	for _, n := range b.Notes {
		resp.Notes = append(resp.Notes, NoteResponse{
			ID:        n.ID,
			AuthorID:  n.AuthorID,
			Body:      n.Body,
			CreatedAt: n.CreatedAt,
		})
	}
	return resp
}

type BlockSlotsResponse struct {
	Item         itemHttp.ItemTag  `json:"item"`
	CreatedCount int               `json:"created_count"`
	SkippedCount int               `json:"skipped_count"`
	Created      []BookingResponse `json:"created"`
}
