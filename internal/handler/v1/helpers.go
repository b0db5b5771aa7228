package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinicdesk/internal/domain/appointment"
	"clinicdesk/internal/domain/consultation"
	"clinicdesk/internal/domain/patient"
	"clinicdesk/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// startTime travels as ISO 8601 local time without a zone suffix.
const wireTimeLayout = "2006-01-02T15:04:05"

func parseWireTime(s string) (time.Time, error) {
	return time.ParseInLocation(wireTimeLayout, s, time.Local)
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	var abort *consultation.AbortError
	if errors.As(err, &abort) {
		respondSessionAbort(c, abort)
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrAppointmentNotEditable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "NOT_EDITABLE"})

	case errors.Is(err, appointment.ErrScheduledInPast),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, patient.ErrPatientInactive):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, consultation.ErrNoActiveSession),
		errors.Is(err, consultation.ErrSessionNotActive),
		errors.Is(err, consultation.ErrSessionMismatch):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, consultation.ErrRollbackRejected):
		// the operator stays in the consultation and may retry
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "ROLLBACK_REJECTED"})

	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// respondSessionAbort turns an invalid session open into a redirect-shaped
// payload instead of an error dialog; the client leaves the consultation
// view without ever arming the guard.
func respondSessionAbort(c *gin.Context, abort *consultation.AbortError) {
	status := http.StatusConflict
	if abort.Reason == consultation.AbortNotToday {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{
		"error":      abort.Error(),
		"reason":     abort.Reason.String(),
		"redirectTo": "/appointments/today",
	})
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// callerFromContext reads the authenticated user set by the auth
// middleware. Routes behind the middleware always have both values.
func callerFromContext(c *gin.Context) (uuid.UUID, string) {
	var id uuid.UUID
	if v, ok := c.Get("userID"); ok {
		if u, ok := v.(uuid.UUID); ok {
			id = u
		}
	}
	role := c.GetString("userRole")
	return id, role
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}
