package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdesk/internal/domain/appointment"
	"clinicdesk/internal/domain/consultation"
	"clinicdesk/internal/domain/patient"
	"clinicdesk/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestParseWireTime(t *testing.T) {
	got, err := parseWireTime("2026-03-09T14:30:00")
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 30, got.Minute())

	_, err = parseWireTime("2026-03-09T14:30:00Z")
	assert.Error(t, err, "zone suffix is not part of the wire format")

	_, err = parseWireTime("not-a-time")
	assert.Error(t, err)
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"appointment not found", appointment.ErrAppointmentNotFound, http.StatusNotFound},
		{"patient not found", patient.ErrPatientNotFound, http.StatusNotFound},
		{"not editable", appointment.ErrAppointmentNotEditable, http.StatusConflict},
		{"scheduled in past", appointment.ErrScheduledInPast, http.StatusBadRequest},
		{"invalid duration", appointment.ErrInvalidDuration, http.StatusBadRequest},
		{"invalid transition", appointment.ErrInvalidStatusTransition, http.StatusBadRequest},
		{"inactive patient", patient.ErrPatientInactive, http.StatusBadRequest},
		{"no active session", consultation.ErrNoActiveSession, http.StatusConflict},
		{"session not active", consultation.ErrSessionNotActive, http.StatusConflict},
		{"session mismatch", consultation.ErrSessionMismatch, http.StatusConflict},
		{"rollback rejected", consultation.ErrRollbackRejected, http.StatusBadGateway},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"account locked", service.ErrAccountLocked, http.StatusTooManyRequests},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := testContext()
			respondServiceError(c, tc.err)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestSessionAbortResponses(t *testing.T) {
	c, rec := testContext()
	respondServiceError(c, &consultation.AbortError{Reason: consultation.AbortWrongStatus})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirectTo":"/appointments/today"`)

	c, rec = testContext()
	respondServiceError(c, &consultation.AbortError{Reason: consultation.AbortNotToday})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_today")
}

func TestValidationErrorResponse(t *testing.T) {
	c, rec := testContext()
	respondServiceError(c, &service.ValidationError{Fields: []string{"startTime", "durationMins"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "startTime")
}
