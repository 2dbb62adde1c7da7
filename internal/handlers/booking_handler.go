package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// BookingHandler exposes class reservation endpoints.
type BookingHandler struct {
	bookingService *services.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookingService *services.BookingService) (*BookingHandler, error) {
	if bookingService == nil {
		return nil, errors.New("booking handler: booking service is required")
	}
	return &BookingHandler{bookingService: bookingService}, nil
}

// Book reserves the caller a spot on the class.
func (h *BookingHandler) Book(c *gin.Context) {
	result, err := h.bookingService.Book(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyBooked {
		status = http.StatusOK
	}
	response.Success(c, status, result)
}

// Unsubscribe releases the caller's spot.
func (h *BookingHandler) Unsubscribe(c *gin.Context) {
	if err := h.bookingService.Unsubscribe(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unsubscribed": true})
}

// ListMine returns the caller's confirmed bookings.
func (h *BookingHandler) ListMine(c *gin.Context) {
	bookings, err := h.bookingService.ListMine(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, bookings)
}

// ListForSchedule returns the attendee list of a class.
func (h *BookingHandler) ListForSchedule(c *gin.Context) {
	bookings, err := h.bookingService.ListForSchedule(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, bookings)
}
