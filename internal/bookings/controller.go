package bookings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"seatwave/internal/inventory"
	"seatwave/internal/shared/utils/response"
)

type Controller interface {
	HoldSeats(c *gin.Context)
	ConfirmBooking(c *gin.Context)
	PaymentCallback(c *gin.Context)
	ReleaseHold(c *gin.Context)
	GetBooking(c *gin.Context)
	GetUserBookings(c *gin.Context)
	CancelBooking(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) HoldSeats(c *gin.Context) {
	var req HoldSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	hold, err := ctrl.service.HoldSeats(c.Request.Context(), userID, req)
	if err != nil {
		if unavailable, ok := inventory.IsSeatUnavailable(err); ok {
			response.RespondJSON(c, "error", http.StatusConflict, "Some seats are unavailable", gin.H{
				"conflicts": unavailable.Conflicts,
			}, err.Error())
			return
		}
		response.RespondJSON(c, "error", bookingErrorStatus(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Seats held successfully", hold, nil)
}

func (ctrl *controller) ConfirmBooking(c *gin.Context) {
	var req ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	booking, err := ctrl.service.ConfirmBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondJSON(c, "error", bookingErrorStatus(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Booking confirmed successfully", booking, nil)
}

func (ctrl *controller) PaymentCallback(c *gin.Context) {
	var req PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid callback payload", nil, err.Error())
		return
	}

	booking, err := ctrl.service.PaymentCallback(c.Request.Context(), req)
	if err != nil {
		response.RespondJSON(c, "error", bookingErrorStatus(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payment callback processed", booking, nil)
}

func (ctrl *controller) ReleaseHold(c *gin.Context) {
	var req ReleaseHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	if err := ctrl.service.ReleaseHold(c.Request.Context(), userID, req); err != nil {
		response.RespondJSON(c, "error", bookingErrorStatus(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Hold released successfully", nil, nil)
}

func (ctrl *controller) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.RespondJSON(c, "error", bookingErrorStatus(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (ctrl *controller) GetUserBookings(c *gin.Context) {
	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	list, err := ctrl.service.GetUserBookings(c.Request.Context(), userID, query)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", list, nil)
}

func (ctrl *controller) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	booking, err := ctrl.service.CancelBooking(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.RespondJSON(c, "error", bookingErrorStatus(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking cancelled successfully", booking, nil)
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func bookingErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, inventory.ErrEventNotRegistered),
		errors.Is(err, inventory.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotBookingOwner), errors.Is(err, ErrHoldOwnerMismatch):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, inventory.ErrHoldExpiredOrMissing),
		errors.Is(err, inventory.ErrHoldAlreadyCommitted),
		errors.Is(err, inventory.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrSeatsOrQuantity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
