package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/services"
)

type ActivityHandler struct {
	activityService services.ActivityService
	loc             *time.Location
}

// NewActivityHandler parses date query parameters in loc.
func NewActivityHandler(activityService services.ActivityService, loc *time.Location) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		loc:             loc,
	}
}

// Create godoc
// POST /api/circles/{circleId}/activities
// Body: { "title", "description", "location", "notes"?, "date": "YYYY-MM-DD",
// "start_time": "HH:MM", "end_time"?: "HH:MM" }
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	activity, err := h.activityService.Create(r.Context(), user.ID, r.PathValue("circleId"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, activity)
}

// Update godoc
// PUT /api/activities/{id}
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	activity, err := h.activityService.Update(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, activity)
}

// Delete godoc
// DELETE /api/activities/{id}
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.activityService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "activity deleted"})
}

// Get godoc
// GET /api/activities/{id}
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	activity, err := h.activityService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, activity)
}

// ListByCircle godoc
// GET /api/circles/{circleId}/activities?year=2025&month=4
// Defaults to the current month.
func (h *ActivityHandler) ListByCircle(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.parseMonth(w, r)
	if !ok {
		return
	}

	activities, err := h.activityService.ListByMonth(r.Context(), r.PathValue("circleId"), year, month)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, activities)
}

// Weekly godoc
// GET /api/activities/weekly?start=YYYY-MM-DD
// Seven days from start (default today) over every circle of the caller.
func (h *ActivityHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	start := time.Now().In(h.loc)
	if s := r.URL.Query().Get("start"); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, h.loc)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		start = parsed
	}

	week, err := h.activityService.Weekly(r.Context(), user.ID, start)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, week)
}

// Monthly godoc
// GET /api/activities/monthly?year=2025&month=4
func (h *ActivityHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	year, month, ok := h.parseMonth(w, r)
	if !ok {
		return
	}

	activities, err := h.activityService.Monthly(r.Context(), user.ID, year, month)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, activities)
}

// ToggleParticipation godoc
// POST /api/activities/{id}/participation
// Response: { "status": "joined" | "canceled" }
func (h *ActivityHandler) ToggleParticipation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.activityService.ToggleParticipation(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]models.ParticipationStatus{"status": status})
}

// parseMonth reads ?year and ?month, defaulting each to now in h.loc.
func (h *ActivityHandler) parseMonth(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	now := time.Now().In(h.loc)
	year, month := now.Year(), now.Month()

	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "year must be a number")
			return 0, 0, false
		}
		year = parsed
	}
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "month must be a number")
			return 0, 0, false
		}
		month = time.Month(parsed)
	}
	return year, month, true
}
