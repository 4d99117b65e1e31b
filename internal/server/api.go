package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tamtam888/TaskMan/internal/auth"
	"github.com/tamtam888/TaskMan/internal/game"
)

// App holds the wired service layer for the server.
// This makes it obvious what the handlers depend on.
type App struct {
	Auth    *auth.Service
	Manager *game.Manager

	BootNow time.Time
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func RegisterAPIRoutes(mux *http.ServeMux, rr *RouteRegistry, app *App) {
	authAPI := auth.NewHandler(app.Auth)
	gameAPI := game.NewHandler(app.Manager)
	guard := app.Auth.RequireSession

	// Sign-in and session inspection
	Handle(mux, rr, "POST /api/auth/google", "Exchange a Google credential for a session", `{"credential":"<jwt>"}`, authAPI.SignIn)
	Handle(mux, rr, "GET /api/auth/session", "Get the current session user", "", authAPI.Session)
	Handle(mux, rr, "POST /api/auth/logout", "End the current session", "", authAPI.Logout)

	// Board state
	HandleAuthed(mux, rr, guard, "GET /api/state", "Get score, level and game-over status", "", gameAPI.GetState)

	// Tasks
	HandleAuthed(mux, rr, guard, "GET /api/tasks", "List tasks (?tab=done, ?category=)", "", gameAPI.ListTasks)
	HandleAuthed(mux, rr, guard, "POST /api/tasks", "Create a task", `{"text":"buy milk","priority":"high","category":"home","deadline":"2026-09-15"}`, gameAPI.CreateTask)
	HandleAuthed(mux, rr, guard, "PATCH /api/tasks/{id}", "Edit a task", `{"deadline":"15/09/2026"}`, gameAPI.EditTask)
	HandleAuthed(mux, rr, guard, "DELETE /api/tasks/{id}", "Delete a task", "", gameAPI.DeleteTask)
	HandleAuthed(mux, rr, guard, "POST /api/tasks/{id}/toggle", "Toggle completion", "", gameAPI.ToggleTask)

	// Calendar
	HandleAuthed(mux, rr, guard, "POST /api/tasks/{id}/sync", "Sync a task to Google Calendar", "", gameAPI.SyncTask)
	HandleAuthed(mux, rr, guard, "GET /api/tasks/{id}/ics", "Download the task as an .ics file", "", gameAPI.ExportTaskICS)

	// Wipe the board and start over
	HandleAuthed(mux, rr, guard, "POST /api/restart", "Reset tasks, score and level", "", gameAPI.Restart)

	// JSON route list (handy for tooling)
	Handle(mux, rr, "GET /api/routes", "List registered routes", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, rr.List())
	})
}
