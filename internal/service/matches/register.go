package matches

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/db"
	svcErr "github.com/studybuddy/studybuddy/internal/errors"
	"github.com/studybuddy/studybuddy/internal/server"
	"github.com/studybuddy/studybuddy/internal/service/groups"
)

// Registrar ties the match reconciler into the HTTP router. It also holds
// the group synchronizer: a group accept is followed by the membership
// add and a roster re-sync, orchestrated here at the route layer.
type Registrar struct {
	appCtx *app.AppContext
	svc    *Service
	groups *groups.Service
}

// NewRegistrar creates a new Registrar for the match reconciler
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{
		appCtx: appCtx,
		svc:    NewService(appCtx),
		groups: groups.NewService(appCtx),
	}
}

// Register attaches the match routes to the router
func (reg *Registrar) Register(r *mux.Router) {
	r.HandleFunc("/swipes/{id}/status", reg.transition).Methods(http.MethodPatch)
	r.HandleFunc("/users/{userId}/matches", reg.list).Methods(http.MethodGet)
	r.HandleFunc("/users/{userId}/matches/{otherId}", reg.remove).Methods(http.MethodDelete)
}

func (reg *Registrar) transition(w http.ResponseWriter, r *http.Request) {
	id, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, svcErr.ErrInvalidInput)
		return
	}

	swipe, err := reg.svc.TransitionStatus(r.Context(), id, req.Status)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	// accepted group request: mirror the match into the roster and chat
	if req.Status == db.StatusAccepted && swipe.TargetGroupID != nil {
		groupID := *swipe.TargetGroupID
		if err := reg.groups.AddMember(r.Context(), groupID, swipe.UserID); err != nil &&
			!errors.Is(err, svcErr.ErrAlreadyMember) {
			reg.appCtx.Logger.Error("membership add after accept failed", "group", groupID, "err", err)
		}
		if err := reg.groups.Sync(r.Context(), groupID); err != nil {
			reg.appCtx.Logger.Warn("roster sync after accept failed", "group", groupID, "err", err)
		}
	}

	server.WriteJSON(w, http.StatusOK, swipe)
}

func (reg *Registrar) list(w http.ResponseWriter, r *http.Request) {
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	matches, err := reg.svc.ListForUser(r.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, matches)
}

func (reg *Registrar) remove(w http.ResponseWriter, r *http.Request) {
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	otherID, err := server.PathID(r, "otherId")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.Remove(r.Context(), userID, otherID); err != nil {
		server.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
