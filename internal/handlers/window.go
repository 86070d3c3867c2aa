package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/models"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/repo"
	"github.com/kbcmdba/ActiveQueryListing-sub000/internal/schedule"
)

// WindowHandler handles scheduled maintenance window CRUD. Ad-hoc windows go
// through SilenceHandler.CreateAdhoc instead.
type WindowHandler struct {
	Repo *repo.WindowRepo
}

// windowView is the JSON shape of one window definition.
type windowView struct {
	ID           int       `json:"id"`
	Type         string    `json:"type"`
	Cadence      string    `json:"cadence,omitempty"`
	TimeWindow   string    `json:"time_window,omitempty"`
	SilenceUntil string    `json:"silence_until,omitempty"`
	Description  string    `json:"description"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newWindowView(w models.MaintenanceWindow) windowView {
	v := windowView{
		ID:          w.ID,
		Type:        string(w.Type),
		Description: w.Description,
		CreatedBy:   w.CreatedBy,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
	if w.Type == models.WindowAdhoc {
		v.SilenceUntil = w.SilenceUntil.Format("2006-01-02 15:04:05")
	} else {
		v.Cadence = w.Cadence
		v.TimeWindow = w.TimeWindow()
	}
	return v
}

// windowInput is the create/update payload for a scheduled window.
type windowInput struct {
	ScheduleType    string `json:"schedule_type"`
	DaysOfWeek      string `json:"days_of_week"`
	DayOfMonth      int    `json:"day_of_month"`
	MonthOfYear     int    `json:"month_of_year"`
	PeriodDays      int    `json:"period_days"`
	PeriodStartDate string `json:"period_start_date"` // YYYY-MM-DD
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Timezone        string `json:"timezone"`
	Description     string `json:"description"`
	HostIDs         []int  `json:"host_ids"`
	GroupIDs        []int  `json:"group_ids"`
}

// validate rejects windows that could never fire, so misconfiguration is
// caught at creation rather than surfacing as a window that never activates.
func (in windowInput) validate() (repo.ScheduledWindowInput, map[string]string) {
	fields := make(map[string]string)

	spec := schedule.Spec{
		Kind:        in.ScheduleType,
		DaysOfWeek:  in.DaysOfWeek,
		DayOfMonth:  in.DayOfMonth,
		MonthOfYear: in.MonthOfYear,
		PeriodDays:  in.PeriodDays,
	}
	if in.PeriodStartDate != "" {
		start, err := time.Parse("2006-01-02", in.PeriodStartDate)
		if err != nil {
			fields["period_start_date"] = "must be YYYY-MM-DD"
		} else {
			spec.PeriodStart = start
		}
	}
	if len(fields) == 0 {
		if err := spec.Validate(); err != nil {
			fields["schedule_type"] = err.Error()
		}
	}

	if (in.StartTime == "") != (in.EndTime == "") {
		fields["start_time"] = "start_time and end_time must both be set or both be empty"
	} else if in.StartTime != "" {
		if _, err := schedule.ParseTimeOfDay(in.StartTime); err != nil {
			fields["start_time"] = "must be HH:MM or HH:MM:SS"
		}
		if _, err := schedule.ParseTimeOfDay(in.EndTime); err != nil {
			fields["end_time"] = "must be HH:MM or HH:MM:SS"
		}
	}

	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			fields["timezone"] = "unknown timezone"
		}
	}

	if len(in.HostIDs) == 0 && len(in.GroupIDs) == 0 {
		fields["host_ids"] = "at least one host or group target is required"
	}

	return repo.ScheduledWindowInput{
		Spec:        spec,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Timezone:    in.Timezone,
		Description: in.Description,
		HostIDs:     in.HostIDs,
		GroupIDs:    in.GroupIDs,
	}, fields
}

// ListWindows returns all window definitions.
func (h *WindowHandler) ListWindows(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repo.ListAll(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	views := make([]windowView, 0, len(list))
	for _, win := range list {
		views = append(views, newWindowView(win))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetWindow returns one window by id.
func (h *WindowHandler) GetWindow(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid window id", http.StatusBadRequest)
		return
	}

	win, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if win == nil {
		JSONError(w, "window not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newWindowView(*win))
}

// CreateWindow creates a scheduled window with its target mappings.
func (h *WindowHandler) CreateWindow(w http.ResponseWriter, r *http.Request) {
	var input windowInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	in, fields := input.validate()
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	id, err := h.Repo.CreateScheduled(r.Context(), in)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	win, err := h.Repo.GetByID(r.Context(), id)
	if err != nil || win == nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, newWindowView(*win))
}

// UpdateWindow rewrites a scheduled window and replaces its target mappings.
func (h *WindowHandler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid window id", http.StatusBadRequest)
		return
	}

	var input windowInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	in, fields := input.validate()
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	if err := h.Repo.UpdateScheduled(r.Context(), id, in); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	win, _ := h.Repo.GetByID(r.Context(), id)
	if win == nil {
		JSONError(w, "window not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newWindowView(*win))
}

// DeleteWindow deletes a window; mappings cascade in the schema.
func (h *WindowHandler) DeleteWindow(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid window id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
