package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/bookingsvc"
	"rentcal/internal/app/dto"
	"rentcal/internal/domain/booking"
	"rentcal/internal/domain/listings"
)

type BookingHandler struct {
	Service *bookingsvc.Service
}

type createBookingRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	GuestID   string `json:"guest_id" binding:"required"`
	CheckIn   string `json:"check_in" binding:"required"`
	CheckOut  string `json:"check_out" binding:"required"`
	Guests    int    `json:"guests" binding:"required,min=1"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

// Create handles POST /api/v1/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	checkIn, err := time.ParseInLocation(dateLayout, req.CheckIn, time.UTC)
	if err != nil {
		badRequest(c, "check_in must be a date in YYYY-MM-DD form")
		return
	}
	checkOut, err := time.ParseInLocation(dateLayout, req.CheckOut, time.UTC)
	if err != nil {
		badRequest(c, "check_out must be a date in YYYY-MM-DD form")
		return
	}

	b, err := h.Service.Request(c.Request.Context(), bookingsvc.RequestParams{
		ListingID: listings.ListingID(req.ListingID),
		GuestID:   req.GuestID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Guests:    req.Guests,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewBooking(b))
}

// Confirm handles POST /api/v1/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c *gin.Context) {
	b, err := h.Service.Confirm(c.Request.Context(), booking.BookingID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBooking(b))
}

// Cancel handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	b, err := h.Service.Cancel(c.Request.Context(), booking.BookingID(c.Param("id")), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBooking(b))
}

var _ BookingHTTP = (*BookingHandler)(nil)
