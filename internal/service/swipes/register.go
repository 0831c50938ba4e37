package swipes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/db"
	svcErr "github.com/studybuddy/studybuddy/internal/errors"
	"github.com/studybuddy/studybuddy/internal/server"
)

// Registrar ties the swipe ledger into the HTTP router
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the swipe ledger
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches the swipe routes to the router
func (reg *Registrar) Register(r *mux.Router) {
	r.HandleFunc("/swipes", reg.record).Methods(http.MethodPost)
	r.HandleFunc("/swipes/status", reg.status).Methods(http.MethodGet)
	r.HandleFunc("/swipes/{id}", reg.withdraw).Methods(http.MethodDelete)
	r.HandleFunc("/users/{userId}/requests", reg.incoming).Methods(http.MethodGet)
	r.HandleFunc("/users/{userId}/requests/count", reg.pendingCount).Methods(http.MethodGet)
}

type recordRequest struct {
	ActorID       uint64 `json:"actorId"`
	TargetUserID  uint64 `json:"targetUserId,omitempty"`
	TargetGroupID uint64 `json:"targetGroupId,omitempty"`
	Direction     string `json:"direction"`
	Message       string `json:"message,omitempty"`
}

func (reg *Registrar) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, svcErr.ErrInvalidInput)
		return
	}
	target, err := targetFrom(req.TargetUserID, req.TargetGroupID)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	swipe, err := reg.svc.Record(r.Context(), req.ActorID, target, req.Direction, req.Message)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, swipe)
}

func (reg *Registrar) status(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	actorID, _ := strconv.ParseUint(q.Get("actorId"), 10, 64)
	targetUser, _ := strconv.ParseUint(q.Get("targetUserId"), 10, 64)
	targetGroup, _ := strconv.ParseUint(q.Get("targetGroupId"), 10, 64)

	if actorID == 0 {
		server.WriteError(w, svcErr.ErrInvalidInput)
		return
	}
	target, err := targetFrom(targetUser, targetGroup)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	state, err := reg.svc.RequestStatus(r.Context(), actorID, target)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]*string{"status": nullable(state)})
}

func (reg *Registrar) withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := server.PathID(r, "id")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	if err := reg.svc.Withdraw(r.Context(), id); err != nil {
		server.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (reg *Registrar) incoming(w http.ResponseWriter, r *http.Request) {
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	swipes, err := reg.svc.ListIncoming(r.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, swipes)
}

func (reg *Registrar) pendingCount(w http.ResponseWriter, r *http.Request) {
	userID, err := server.PathID(r, "userId")
	if err != nil {
		server.WriteError(w, err)
		return
	}
	count, err := reg.svc.PendingCount(r.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// targetFrom enforces the XOR on the two target ids.
func targetFrom(userID, groupID uint64) (db.SwipeTarget, error) {
	switch {
	case userID != 0 && groupID == 0:
		return db.UserTarget(userID), nil
	case groupID != 0 && userID == 0:
		return db.GroupTarget(groupID), nil
	default:
		return db.SwipeTarget{}, svcErr.ErrInvalidInput
	}
}

func nullable(state string) *string {
	if state == StateNone {
		return nil
	}
	return &state
}
