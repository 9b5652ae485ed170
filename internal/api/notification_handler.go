package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parkview-commons/rental-booking-backend/internal/auth"
	"github.com/parkview-commons/rental-booking-backend/internal/notify"
)

type NotificationHandler struct {
	repo notify.Repository
}

func NewNotificationHandler(repo notify.Repository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// NotificationResponse is one status-change message in API responses.
type NotificationResponse struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Status    string    `json:"status"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /v1/notifications
// Returns the newest notifications addressed to the current user.
func (h *NotificationHandler) ListMine(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.repo.ListForRecipient(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	items := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = NotificationResponse{
			ID:        n.ID,
			BookingID: n.BookingID,
			Status:    n.Status,
			Body:      n.Body,
			CreatedAt: n.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
