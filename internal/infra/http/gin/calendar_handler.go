package ginserver

import (
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/calendarsvc"
	"rentcal/internal/app/dto"
	"rentcal/internal/domain/listings"
)

const dateLayout = "2006-01-02"

type CalendarHandler struct {
	Service *calendarsvc.Service
}

// Calendar handles GET /api/v1/listings/:id/calendar?from=&to=.
func (h *CalendarHandler) Calendar(c *gin.Context) {
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}

	result, err := h.Service.BuildCalendar(c.Request.Context(), listings.ListingID(c.Param("id")), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCalendar(result))
}

// Prices handles GET /api/v1/listings/:id/prices?from=&to=.
func (h *CalendarHandler) Prices(c *gin.Context) {
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}

	prices, err := h.Service.Prices(c.Request.Context(), listings.ListingID(c.Param("id")), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCalendarPrices(c.Param("id"), prices))
}

// Availability handles GET /api/v1/listings/:id/availability?check_in=&check_out=.
func (h *CalendarHandler) Availability(c *gin.Context) {
	checkIn, ok := queryDate(c, "check_in")
	if !ok {
		return
	}
	checkOut, ok := queryDate(c, "check_out")
	if !ok {
		return
	}

	decision, err := h.Service.Evaluate(c.Request.Context(), listings.ListingID(c.Param("id")), checkIn, checkOut, c.Query("exclude_booking"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAvailability(decision))
}

// Quote handles GET /api/v1/listings/:id/quote?check_in=&check_out=&guests=.
func (h *CalendarHandler) Quote(c *gin.Context) {
	checkIn, ok := queryDate(c, "check_in")
	if !ok {
		return
	}
	checkOut, ok := queryDate(c, "check_out")
	if !ok {
		return
	}
	guests, err := strconv.Atoi(c.DefaultQuery("guests", "1"))
	if err != nil {
		badRequest(c, "guests must be an integer")
		return
	}

	quote, err := h.Service.Quote(c.Request.Context(), listings.ListingID(c.Param("id")), checkIn, checkOut, guests)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuote(quote))
}

func queryDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		badRequest(c, name+" is required")
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		badRequest(c, name+" must be a date in YYYY-MM-DD form")
		return time.Time{}, false
	}
	return t, true
}

var _ CalendarHTTP = (*CalendarHandler)(nil)
