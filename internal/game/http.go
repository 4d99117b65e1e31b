package game

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tamtam888/TaskMan/internal/auth"
	"github.com/tamtam888/TaskMan/internal/calendar"
	"github.com/tamtam888/TaskMan/internal/task"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// writeEngineErr maps engine errors onto HTTP statuses.
func writeEngineErr(w http.ResponseWriter, err error) {
	var verr *task.ValidationError
	var sfe *calendar.SyncFailedError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "reason": verr.Reason})
	case errors.Is(err, ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyText):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAuthRequired):
		writeErr(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrMissingDeadline):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadySynced), errors.Is(err, ErrSyncPending):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.As(err, &sfe):
		writeErr(w, http.StatusBadGateway, sfe.Message)
	default:
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func emailFromRequest(r *http.Request) (string, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u.Email == "" {
		return "", false
	}
	return u.Email, true
}

func taskIDFromRequest(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GET /api/state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	e, err := h.manager.EngineFor(r.Context(), email)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "could not load state")
		return
	}
	st := e.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"score":    st.Score,
		"level":    st.Level,
		"gameOver": st.AllCompleted,
		"tasks":    e.SortedTasks(),
	})
}

// GET /api/tasks?category=&tab=
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	e, err := h.manager.EngineFor(r.Context(), email)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "could not load tasks")
		return
	}

	tab := r.URL.Query().Get("tab")
	category := r.URL.Query().Get("category")

	out := make([]task.Task, 0)
	for _, t := range e.SortedTasks() {
		if tab == "done" && !t.Completed {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in AddInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	t, err := h.manager.Add(r.Context(), email, in)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// PATCH /api/tasks/{id}
func (h *Handler) EditTask(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := taskIDFromRequest(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var patch task.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	t, err := h.manager.Edit(r.Context(), email, id, patch)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := taskIDFromRequest(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := h.manager.Remove(r.Context(), email, id); err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/tasks/{id}/toggle
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := taskIDFromRequest(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}

	res, err := h.manager.ToggleCompletion(r.Context(), email, id)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/tasks/{id}/sync
func (h *Handler) SyncTask(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := taskIDFromRequest(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	bearer := auth.BearerFromContext(r.Context())

	t, err := h.manager.SyncToCalendar(r.Context(), email, bearer, id)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GET /api/tasks/{id}/ics
func (h *Handler) ExportTaskICS(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := taskIDFromRequest(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid task id")
		return
	}
	e, err := h.manager.EngineFor(r.Context(), email)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "could not load tasks")
		return
	}
	t, err := e.Get(id)
	if err != nil {
		writeEngineErr(w, err)
		return
	}

	ics, err := calendar.BuildTaskICS(t, h.manager.clock.Now())
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="task.ics"`)
	_, _ = w.Write([]byte(ics))
}

// POST /api/restart
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	email, ok := emailFromRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.manager.Restart(r.Context(), email); err != nil {
		writeErr(w, http.StatusInternalServerError, "could not restart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "score": 0, "level": 1})
}
