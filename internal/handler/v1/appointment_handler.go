package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"clinicdesk/internal/calendar"
	"clinicdesk/internal/domain/appointment"
	"clinicdesk/internal/schedule"
	"clinicdesk/internal/service"
)

type AppointmentHandler struct {
	svc      *service.AppointmentService
	calendar *calendar.Adapter
}

func NewAppointmentHandler(svc *service.AppointmentService, cal *calendar.Adapter) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, calendar: cal}
}

type createAppointmentRequest struct {
	PatientID    uuid.UUID `json:"patientId" binding:"required"`
	DoctorID     uuid.UUID `json:"employeeId" binding:"required"`
	SpecialtyID  uuid.UUID `json:"doctorSpecialtyId" binding:"required"`
	StartTime    string    `json:"startTime" binding:"required"`
	DurationMins int       `json:"durationMins" binding:"required"`
	Reason       string    `json:"reason"`
}

type updateAppointmentRequest struct {
	PatientID    *uuid.UUID `json:"patientId"`
	DoctorID     *uuid.UUID `json:"employeeId"`
	SpecialtyID  *uuid.UUID `json:"doctorSpecialtyId"`
	StartTime    *string    `json:"startTime"`
	DurationMins *int       `json:"durationMins"`
	Reason       *string    `json:"reason"`
}

type changeStatusRequest struct {
	AppointmentID uuid.UUID `json:"appointmentId" binding:"required"`
	StatusID      int       `json:"statusId" binding:"required"`
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// appointmentWithConflicts is the create/update response: the persisted
// record plus the advisory overlap list for the warning banner.
type appointmentWithConflicts struct {
	Appointment *appointment.Appointment   `json:"appointment"`
	Conflict    bool                       `json:"conflict"`
	Overlapping []*appointment.Appointment `json:"overlapping"`
}

func withConflicts(a *appointment.Appointment, res *schedule.Result) appointmentWithConflicts {
	out := appointmentWithConflicts{Appointment: a, Overlapping: []*appointment.Appointment{}}
	if res != nil {
		out.Conflict = res.Conflict
		out.Overlapping = res.Overlapping
	}
	return out
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	start, err := parseWireTime(req.StartTime)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid startTime: expected "+wireTimeLayout)
		return
	}

	callerID, callerRole := callerFromContext(c)
	cmd := &appointment.CreateAppointmentCommand{
		PatientID:    req.PatientID,
		DoctorID:     req.DoctorID,
		SpecialtyID:  req.SpecialtyID,
		StartTime:    start,
		DurationMins: req.DurationMins,
		Reason:       req.Reason,
		CreatedBy:    callerID,
	}

	a, res, err := h.svc.Schedule(c.Request.Context(), cmd, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, withConflicts(a, res))
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.UpdateAppointmentCommand{
		PatientID:    req.PatientID,
		DoctorID:     req.DoctorID,
		SpecialtyID:  req.SpecialtyID,
		DurationMins: req.DurationMins,
		Reason:       req.Reason,
	}
	if req.StartTime != nil {
		start, err := parseWireTime(*req.StartTime)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid startTime: expected "+wireTimeLayout)
			return
		}
		cmd.StartTime = &start
	}

	callerID, callerRole := callerFromContext(c)
	cmd.UpdatedBy = callerID

	a, res, err := h.svc.Update(c.Request.Context(), id, cmd, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, withConflicts(a, res))
}

func (h *AppointmentHandler) ChangeStatus(c *gin.Context) {
	var req changeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole := callerFromContext(c)
	a, err := h.svc.ChangeStatus(
		c.Request.Context(),
		req.AppointmentID,
		appointment.AppointmentStatus(req.StatusID),
		callerID, callerRole, c.ClientIP(),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req cancelAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole := callerFromContext(c)
	a, err := h.svc.Cancel(c.Request.Context(), id, &appointment.CancelAppointmentCommand{
		Reason:      req.Reason,
		CancelledBy: callerID,
	}, callerID, callerRole, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "pageSize", 20),
	}

	if raw := c.Query("patientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid patientId")
			return
		}
		q.PatientID = &id
	}
	if raw := c.Query("employeeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid employeeId")
			return
		}
		q.DoctorID = &id
	}
	if raw := c.Query("statusId"); raw != "" {
		st := appointment.AppointmentStatus(parseQueryInt(c, "statusId", 0))
		if !st.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid statusId")
			return
		}
		q.Status = &st
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseWireTime(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid from: expected "+wireTimeLayout)
			return
		}
		q.DateFrom = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseWireTime(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid to: expected "+wireTimeLayout)
			return
		}
		q.DateTo = &t
	}

	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"appointments": page.Appointments,
		"totalCount":   page.TotalCount,
		"page":         page.Page,
		"pageSize":     page.PageSize,
		"totalPages":   page.TotalPages,
	})
}

// ListToday backs the daily worklist: the doctor's own appointments for
// the current calendar day. The doctor defaults to the caller's staff
// identity; receptionists pass employeeId explicitly.
func (h *AppointmentHandler) ListToday(c *gin.Context) {
	var doctorID uuid.UUID
	if raw := c.Query("employeeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid employeeId")
			return
		}
		doctorID = id
	} else if v, ok := c.Get("staffID"); ok {
		doctorID, _ = v.(uuid.UUID)
	}
	if doctorID == uuid.Nil {
		respondError(c, http.StatusBadRequest, "employeeId required")
		return
	}

	appts, err := h.svc.ListToday(c.Request.Context(), doctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, appts)
}

type conflictCheckRequest struct {
	DoctorID      uuid.UUID  `json:"employeeId" binding:"required"`
	StartTime     string     `json:"startTime" binding:"required"`
	DurationMins  int        `json:"durationMins" binding:"required"`
	ExcludeApptID *uuid.UUID `json:"excludeAppointmentId"`
}

// CheckConflicts is the dry-run half of the advisory check, hit by the
// scheduling form as the operator picks a slot.
func (h *AppointmentHandler) CheckConflicts(c *gin.Context) {
	var req conflictCheckRequest
	if !bindJSON(c, &req) {
		return
	}

	start, err := parseWireTime(req.StartTime)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid startTime: expected "+wireTimeLayout)
		return
	}
	if req.DurationMins <= 0 {
		respondError(c, http.StatusBadRequest, "durationMins must be positive")
		return
	}

	res, err := h.svc.CheckConflicts(c.Request.Context(), req.DoctorID, start, req.DurationMins, req.ExcludeApptID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, res)
}

// CalendarEvents renders a date window of appointments as calendar events.
func (h *AppointmentHandler) CalendarEvents(c *gin.Context) {
	from, err := parseWireTime(c.Query("from"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid from: expected "+wireTimeLayout)
		return
	}
	to, err := parseWireTime(c.Query("to"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid to: expected "+wireTimeLayout)
		return
	}
	if !to.After(from) {
		respondError(c, http.StatusBadRequest, "to must be after from")
		return
	}

	var doctorID *uuid.UUID
	if raw := c.Query("employeeId"); raw != "" {
		id, uerr := uuid.Parse(raw)
		if uerr != nil {
			respondError(c, http.StatusBadRequest, "invalid employeeId")
			return
		}
		doctorID = &id
	}

	appts, err := h.svc.ListInRange(c.Request.Context(), doctorID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, h.calendar.EventsFrom(appts))
}

type slotSelectionRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// SlotFromSelection converts a dragged calendar range into a booking
// proposal snapped to an allowed duration.
func (h *AppointmentHandler) SlotFromSelection(c *gin.Context) {
	var req slotSelectionRequest
	if !bindJSON(c, &req) {
		return
	}

	start, err := parseWireTime(req.Start)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid start: expected "+wireTimeLayout)
		return
	}
	end, err := parseWireTime(req.End)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid end: expected "+wireTimeLayout)
		return
	}

	respondOK(c, calendar.SlotFromSelection(start, end))
}
