package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chenzhe/smart-parking/internal/repository"
	"github.com/chenzhe/smart-parking/internal/service"
)

// StatusHandler exposes the public floor occupancy view.
type StatusHandler struct {
	Svc *service.ReservationService
}

// NewStatusHandler constructs the handler. The service must be non-nil.
func NewStatusHandler(svc *service.ReservationService) *StatusHandler {
	if svc == nil {
		panic("nil service passed to NewStatusHandler")
	}
	return &StatusHandler{Svc: svc}
}

// GetStatus handles GET /v1/parking/status?floor=B1. The floor defaults to
// B1 and is matched case-insensitively. The response is the full derived
// slot grid plus the occupancy counters.
func (h *StatusHandler) GetStatus(c echo.Context) error {
	floor := c.QueryParam("floor")
	if floor == "" {
		floor = "B1"
	}

	view, err := h.Svc.Status(c.Request().Context(), floor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFloor):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"error":   err.Error(),
				"code":    "INVALID_FLOOR",
			})
		case errors.Is(err, repository.ErrNoSnapshot):
			return c.JSON(http.StatusNotFound, echo.Map{
				"success": false,
				"error":   "no parking data for floor " + strings.ToUpper(floor),
				"code":    "NO_DATA",
			})
		default:
			log.Printf("status: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"success": false,
				"error":   "failed to load parking data",
				"code":    "DATA_FETCH_ERROR",
			})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"floor":         view.Floor,
		"floorName":     view.FloorName,
		"rows":          view.Rows,
		"columns":       view.Columns,
		"totalSlots":    view.TotalSlots,
		"freeSlots":     view.FreeSlots,
		"occupiedSlots": view.OccupiedSlots,
		"reservedSlots": view.ReservedSlots,
		"slots":         view.Slots,
		"timestamp":     view.Timestamp,
		"source":        "database",
	})
}
