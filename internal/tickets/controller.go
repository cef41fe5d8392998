package tickets

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"seatwave/internal/shared/middleware"
	"seatwave/internal/shared/utils/response"
)

type Controller interface {
	GetTicket(c *gin.Context)
	ListMyTickets(c *gin.Context)
	ReturnTicket(c *gin.Context)
	VerifyEntry(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// VerifyEntryRequest carries the scanned QR token and the gate's event
type VerifyEntryRequest struct {
	QRToken string `json:"qr_token" binding:"required,len=64,hexadecimal"`
	EventID string `json:"event_id" binding:"required,uuid"`
}

func (ctrl *controller) GetTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("ticketId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid ticket ID", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	role, _ := c.Get("user_role")
	isAdmin := role == middleware.RoleAdmin

	ticket, err := ctrl.service.GetTicket(c.Request.Context(), ticketID, userID, isAdmin)
	if err != nil {
		response.RespondJSON(c, "error", ticketErrorStatus(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ticket retrieved successfully", ticket, nil)
}

func (ctrl *controller) ListMyTickets(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	list, err := ctrl.service.ListUserTickets(c.Request.Context(), userID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Tickets retrieved successfully", list, nil)
}

func (ctrl *controller) ReturnTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("ticketId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid ticket ID", nil, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	result, err := ctrl.service.ReturnTicket(c.Request.Context(), ticketID, userID)
	if err != nil {
		response.RespondJSON(c, "error", ticketErrorStatus(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ticket returned successfully", result, nil)
}

func (ctrl *controller) VerifyEntry(c *gin.Context) {
	var req VerifyEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	ticket, err := ctrl.service.VerifyEntry(c.Request.Context(), req.QRToken, eventID)
	if err != nil {
		response.RespondJSON(c, "error", ticketErrorStatus(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ticket verified successfully", ticket, nil)
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

func ticketErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotTicketOwner):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyUsed),
		errors.Is(err, ErrTicketVoided),
		errors.Is(err, ErrTicketNotActive),
		errors.Is(err, ErrReturnWindowClosed),
		errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
