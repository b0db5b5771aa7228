package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinicdesk/internal/domain/consultation"
	"clinicdesk/internal/guard"
	"clinicdesk/internal/service"
)

type ConsultationHandler struct {
	svc *service.ConsultationService
}

func NewConsultationHandler(svc *service.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{svc: svc}
}

type sessionResponse struct {
	SessionID     string            `json:"sessionId"`
	AppointmentID string            `json:"appointmentId"`
	State         string            `json:"state"`
	GuardArmed    bool              `json:"guardArmed"`
	Bootstrap     service.Bootstrap `json:"bootstrap"`
}

// Open starts a consultation session for the appointment in the path.
// Invalid opens come back as redirect-shaped aborts, not errors the client
// should render as dialogs.
func (h *ConsultationHandler) Open(c *gin.Context) {
	appointmentID, ok := parseUUID(c, "appointmentId")
	if !ok {
		return
	}

	callerID, callerRole := callerFromContext(c)
	opened, err := h.svc.Open(c.Request.Context(), appointmentID, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, sessionResponse{
		SessionID:     opened.Session.ID.String(),
		AppointmentID: opened.Session.AppointmentID.String(),
		State:         opened.Session.State.String(),
		GuardArmed:    true,
		Bootstrap:     opened.Bootstrap,
	})
}

// Bootstrap returns the consultation view payload without opening a
// session: the read-only refresh of an already-open tab.
func (h *ConsultationHandler) Bootstrap(c *gin.Context) {
	appointmentID, ok := parseUUID(c, "appointmentId")
	if !ok {
		return
	}

	b, err := h.svc.BootstrapFor(c.Request.Context(), appointmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, b)
}

// confirmedRequest carries the operator's answer to the confirm dialog the
// client already showed. The prompt definitions live server-side; the
// client echoes the decision back.
type confirmedRequest struct {
	Confirmed bool `json:"confirmed"`
}

// matchesActiveSession guards the finalize/rollback endpoints against a
// stale tab operating on an appointment that is no longer the active one.
func (h *ConsultationHandler) matchesActiveSession(c *gin.Context) bool {
	appointmentID, ok := parseUUID(c, "appointmentId")
	if !ok {
		return false
	}
	sess := h.svc.ActiveSession()
	if sess == nil {
		respondServiceError(c, consultation.ErrNoActiveSession)
		return false
	}
	if sess.AppointmentID != appointmentID {
		respondServiceError(c, consultation.ErrSessionMismatch)
		return false
	}
	return true
}

func (h *ConsultationHandler) Finalize(c *gin.Context) {
	if !h.matchesActiveSession(c) {
		return
	}

	var req confirmedRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole := callerFromContext(c)
	proceeded, err := h.svc.Finalize(c.Request.Context(), guard.Decision(req.Confirmed), callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"finalized":  proceeded,
		"navigateTo": navigationTarget(proceeded),
	})
}

func (h *ConsultationHandler) Rollback(c *gin.Context) {
	if !h.matchesActiveSession(c) {
		return
	}

	var req confirmedRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole := callerFromContext(c)
	proceeded, err := h.svc.Rollback(c.Request.Context(), guard.Decision(req.Confirmed), callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"rolledBack": proceeded,
		"navigateTo": navigationTarget(proceeded),
	})
}

func navigationTarget(proceed bool) string {
	if proceed {
		return "/appointments/today"
	}
	return ""
}

type leaveRequest struct {
	Destination string `json:"destination" binding:"required"`
	Confirmed   bool   `json:"confirmed"`
}

// Leave answers a navigation attempt away from the consultation view. When
// no session is active or the exit was intentional the navigation passes
// through; otherwise the guard consumes the operator's decision.
func (h *ConsultationHandler) Leave(c *gin.Context) {
	var req leaveRequest
	if !bindJSON(c, &req) {
		return
	}

	pending, err := h.svc.RequestLeave(c.Request.Context(), req.Destination, guard.Decision(req.Confirmed))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if pending.Committed() {
		respondOK(c, gin.H{"proceed": true, "destination": pending.Destination})
		return
	}
	respondOK(c, gin.H{"proceed": false, "destination": ""})
}

// Active reports the active session, if any, so a reloaded client can
// re-attach instead of opening a second one.
func (h *ConsultationHandler) Active(c *gin.Context) {
	sess := h.svc.ActiveSession()
	if sess == nil {
		respondError(c, http.StatusNotFound, consultation.ErrNoActiveSession.Error())
		return
	}

	respondOK(c, gin.H{
		"sessionId":     sess.ID.String(),
		"appointmentId": sess.AppointmentID.String(),
		"state":         sess.State.String(),
		"unloadWarning": h.svc.UnloadWarning(),
	})
}
