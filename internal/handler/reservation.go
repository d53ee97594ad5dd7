package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chenzhe/smart-parking/internal/model"
	"github.com/chenzhe/smart-parking/internal/queue"
	"github.com/chenzhe/smart-parking/internal/repository"
	"github.com/chenzhe/smart-parking/internal/service"
)

// ReservationHandler exposes the reserve/cancel/list endpoints on top of
// the coordinator. All routes assume JWT authentication ran first; the
// caller's phone comes from the token unless the body supplies one
// explicitly (the web client sends it, the app relies on the token).
type ReservationHandler struct {
	Svc *service.ReservationService
}

// NewReservationHandler constructs the handler. The service must be non-nil.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc}
}

type reserveReq struct {
	Floor      string `json:"floor"`
	SlotNumber int    `json:"slotNumber"`
	Phone      string `json:"phone"`
}

type cancelReq struct {
	Floor string `json:"floor"`
	Phone string `json:"phone"`
}

// Reserve handles POST /v1/reservations. On success it returns 201 with
// the reservation envelope the original clients expect.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	phone := req.Phone
	if phone == "" {
		p, err := callerPhone(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
		}
		phone = p
	}

	res, err := h.Svc.Reserve(c.Request().Context(), req.Floor, req.SlotNumber, phone)
	if err != nil {
		return reservationError(c, err)
	}

	publishEvent(c, model.ActionReserve, phone, res)
	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"message":     "reservation created",
		"reservation": res,
	})
}

// Cancel handles DELETE /v1/reservations. The floor must be supplied; the
// first reservation matching the caller's phone on that floor is released.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	phone := req.Phone
	if phone == "" {
		p, err := callerPhone(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
		}
		phone = p
	}

	res, err := h.Svc.Cancel(c.Request().Context(), req.Floor, phone)
	if err != nil {
		return reservationError(c, err)
	}

	publishEvent(c, model.ActionCancel, phone, res)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "reservation cancelled",
	})
}

// List handles GET /v1/reservations. An explicit ?phone= overrides the
// token phone so the web client can poll for a number it collected in a
// form before login completed.
func (h *ReservationHandler) List(c echo.Context) error {
	phone := c.QueryParam("phone")
	if phone == "" {
		p, err := callerPhone(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
		}
		phone = p
	}

	items, err := h.Svc.List(c.Request().Context(), phone)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"reservations": items,
	})
}

// reservationError maps coordinator errors onto HTTP statuses, always with
// the {success:false, error} envelope and never leaking store internals.
func reservationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidFloor),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrInvalidSlot):
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error()})
	case errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, repository.ErrNoSnapshot):
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": err.Error()})
	case errors.Is(err, service.ErrAlreadyReserved),
		errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrSlotAlreadyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": err.Error()})
	case errors.Is(err, repository.ErrSnapshotSuperseded):
		return c.JSON(http.StatusConflict, echo.Map{"success": false, "error": "floor state changed, please refresh and retry"})
	default:
		log.Printf("reservation: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "reservation processing failed"})
	}
}

// publishEvent emits the post-commit event. Best-effort: a broker failure
// is logged inside the publisher and otherwise ignored.
func publishEvent(c echo.Context, action, phone string, res *service.Reservation) {
	ev := queue.ReservationEvent{
		Action:     action,
		Floor:      res.Floor,
		SlotNumber: res.SlotNumber,
		Phone:      phone,
		OccurredAt: time.Now().UTC().Format(model.TimeLayout),
	}
	_ = queue.PublishReservationEvent(c.Request().Context(), ev)
}
