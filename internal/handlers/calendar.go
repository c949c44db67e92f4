package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfloor/board/backend/internal/services"
	"github.com/shopfloor/board/backend/pkg/response"
)

type CalendarHandler struct {
	holidays *services.HolidayService
	country  string
}

func NewCalendarHandler(holidays *services.HolidayService, country string) *CalendarHandler {
	return &CalendarHandler{holidays: holidays, country: country}
}

// Countries lists the holiday calendars and the one sprint summaries use
// GET /api/calendar/countries
func (h *CalendarHandler) Countries(c *gin.Context) {
	response.Success(c, gin.H{
		"current":   h.country,
		"countries": h.holidays.GetSupportedCountries(),
	})
}
