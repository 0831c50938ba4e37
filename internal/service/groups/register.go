package groups

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/studybuddy/studybuddy/internal/app"
	svcErr "github.com/studybuddy/studybuddy/internal/errors"
	"github.com/studybuddy/studybuddy/internal/server"
)

// Registrar ties the group synchronizer into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
	svc    *Service
}

// NewRegistrar creates a new Registrar for the group synchronizer
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx, svc: NewService(appCtx)}
}

// Register attaches the group routes to the router
func (reg *Registrar) Register(r *mux.Router) {
	r.HandleFunc("/groups", reg.create).Methods(http.MethodPost)
	r.HandleFunc("/groups/{id}", reg.get).Methods(http.MethodGet)
	r.HandleFunc("/groups/{id}/sync", reg.sync).Methods(http.MethodPost)
	r.HandleFunc("/groups/{id}/members", reg.addMember).Methods(http.MethodPost)
	r.HandleFunc("/groups/{id}/members/{userId}", reg.removeMember).Methods(http.MethodDelete)
}

func (reg *Registrar) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CreatorID   uint64 `json:"creatorId"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Subject     string `json:"subject"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, svcErr.ErrInvalidInput)
		return
	}

	group, err := reg.svc.Create(r.Context(), req.CreatorID, req.Name, req.Description, req.Subject)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, group)
}

func (reg *Registrar) get(w http.ResponseWriter, r *http.Request) {
	id, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	group, err := reg.svc.groupRepo.FindByID(r.Context(), id)
	if err != nil {
		server.WriteError(w, svcErr.Map(err))
		return
	}
	server.WriteJSON(w, http.StatusOK, group)
}

func (reg *Registrar) sync(w http.ResponseWriter, r *http.Request) {
	id, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.Sync(r.Context(), id); err != nil {
		server.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (reg *Registrar) addMember(w http.ResponseWriter, r *http.Request) {
	id, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}

	var req struct {
		UserID uint64 `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, svcErr.ErrInvalidInput)
		return
	}

	if err := reg.svc.AddMember(r.Context(), id, req.UserID); err != nil {
		server.WriteError(w, err)
		return
	}
	// reconcile pre-existing members into a freshly created chat
	if err := reg.svc.Sync(r.Context(), id); err != nil {
		reg.appCtx.Logger.Warn("roster sync after add failed", "group", id, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (reg *Registrar) removeMember(w http.ResponseWriter, r *http.Request) {
	id, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, err)
		return
	}

	// self-leave unless the caller says otherwise
	actingID := userID
	if raw := r.URL.Query().Get("actorId"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			actingID = parsed
		}
	}

	if err := reg.svc.RemoveMember(r.Context(), id, userID, actingID); err != nil {
		server.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
