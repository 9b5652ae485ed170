package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parkview-commons/rental-booking-backend/internal/auth"
	"github.com/parkview-commons/rental-booking-backend/internal/booking"
	itemHttp "github.com/parkview-commons/rental-booking-backend/internal/item/http"
	"github.com/parkview-commons/rental-booking-backend/internal/pkg/request"
	"github.com/parkview-commons/rental-booking-backend/internal/pkg/response"
	"github.com/parkview-commons/rental-booking-backend/internal/user"
)

type Handler struct {
	service     booking.Service
	userService user.Service
}

func NewHandler(service booking.Service, userService user.Service) *Handler {
	return &Handler{
		service:     service,
		userService: userService,
	}
}

// isTeamMember helper checks if the current user can act for the rental team.
func (h *Handler) isTeamMember(c *gin.Context, userID string) bool {
	role, err := h.userService.RoleOf(c.Request.Context(), userID)
	if err != nil {
		return false
	}
	return role.TeamCapable()
}

func (h *Handler) List(c *gin.Context) {
	var query ListBookingsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	if err := query.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	// Access control: regular users only ever see their own bookings,
	// team members may filter by requester or see everything.
	currentUserID := auth.GetUserID(c)
	requesterID := currentUserID
	if h.isTeamMember(c, currentUserID) {
		requesterID = query.RequesterID // can be empty to show all
	}

	filter := booking.Filter{
		ItemID:      query.ItemID,
		RequesterID: requesterID,
		From:        query.From,
		To:          query.To,
		Page:        query.Page,
		PageSize:    query.PageSize,
		SortBy:      query.SortBy,
		SortOrder:   query.SortOrder,
	}
	if query.Status != "" {
		filter.Statuses = []booking.Status{booking.Status(query.Status)}
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, query.Page, query.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Access check: the requester and team members may read a booking.
	userID := auth.GetUserID(c)
	if userID != b.RequesterID && !h.isTeamMember(c, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		ItemID:      body.ItemID,
		RequesterID: userID,
		Quantity:    body.Quantity,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		Note:        body.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.UserUpdate(c.Request.Context(), uri.ID, booking.UpdateRequest{
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Quantity:  body.Quantity,
		Note:      body.Note,
	}, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Transition(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.service.Transition(
		c.Request.Context(), uri.ID, auth.GetUserID(c),
		booking.Status(body.Status), body.Note,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var query AvailabilityRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	bookings, err := h.service.Availability(c.Request.Context(), uri.ID, query.From, query.To)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Block(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body BlockSlotsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	rec := booking.Recurrence{Frequency: booking.FreqNone}
	if body.Frequency != "" {
		rec.Frequency = booking.Frequency(body.Frequency)
	}
	if body.Until != nil {
		rec.Until = *body.Until
	}

	result, err := h.service.Block(c.Request.Context(), booking.BlockRequest{
		ItemID:     uri.ID,
		ActorID:    auth.GetUserID(c),
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
		Quantity:   body.Quantity,
		Reason:     body.Reason,
		Recurrence: rec,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := BlockSlotsResponse{
		Item:         itemHttp.ItemTag{ID: result.Item.ID, Name: result.Item.Name},
		CreatedCount: len(result.Created),
		SkippedCount: result.Skipped,
		Created:      make([]BookingResponse, len(result.Created)),
	}
	for i, b := range result.Created {
		resp.Created[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusCreated, resp)
}
