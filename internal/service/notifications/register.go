package notifications

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/server"
)

// Registrar ties the notification service into the HTTP router
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the notification service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches the notification routes to the router
func (reg *Registrar) Register(r *mux.Router) {
	r.HandleFunc("/users/{userId}/notifications", reg.list).Methods(http.MethodGet)
	r.HandleFunc("/users/{userId}/notifications/{id}/read", reg.markRead).Methods(http.MethodPost)
	r.HandleFunc("/users/{userId}/notifications/{id}", reg.dismiss).Methods(http.MethodDelete)
}

func (reg *Registrar) list(w http.ResponseWriter, r *http.Request) {
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	notes, err := reg.svc.ListForUser(r.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, notes)
}

func (reg *Registrar) markRead(w http.ResponseWriter, r *http.Request) {
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	id, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.MarkRead(r.Context(), id, userID); err != nil {
		server.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (reg *Registrar) dismiss(w http.ResponseWriter, r *http.Request) {
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	id, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.Dismiss(r.Context(), id, userID); err != nil {
		server.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
