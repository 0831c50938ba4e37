package accounts

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/server"
)

// Registrar ties the account service into the HTTP router
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the account service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches the account routes to the router
func (reg *Registrar) Register(r *mux.Router) {
	r.HandleFunc("/users/{id}", reg.remove).Methods(http.MethodDelete)
}

func (reg *Registrar) remove(w http.ResponseWriter, r *http.Request) {
	id, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.Delete(r.Context(), id); err != nil {
		server.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
