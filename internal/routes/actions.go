package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gitlab.com/arkline/modguard/internal/models"
)

type actionResponse struct {
	Action       *models.ModerationAction `json:"action"`
	CascadeError string                   `json:"cascade_error,omitempty"`
}

// PostAction applies a moderator decision directly, outside any report.
// Side-effect failures come back with the persisted audit action: 409 for
// ban conflicts, 502 when the content store refused a deletion.
func (routes *Routes) PostAction(w http.ResponseWriter, r *http.Request) AppError {
	modH := GetModeratorH(r)

	var req models.ActionRequest
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err}
	}

	action, err := modH.ApplyAction(r.Context(), req)
	if action == nil {
		return fromDomainErr(err, "action target")
	}
	actionsAppliedTotal.WithLabelValues(string(action.ActionType)).Inc()

	status := http.StatusCreated
	resp := actionResponse{Action: action}
	if err != nil {
		cascadeFailuresTotal.Inc()
		resp.CascadeError = err.Error()
		switch {
		case errors.Is(err, models.ErrBanConflict), errors.Is(err, models.ErrNothingToLift):
			status = http.StatusConflict
		case errors.Is(err, models.ErrContentDeleteFailed):
			status = http.StatusBadGateway
		default:
			status = http.StatusInternalServerError
		}
	}
	respondJSON(w, status, resp)
	return nil
}

func (routes *Routes) GetUserActions(w http.ResponseWriter, r *http.Request) AppError {
	modH := GetModeratorH(r)
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		return &ErrBadRequest{Cause: err}
	}
	actions, err := modH.ActionHistory(r.Context(), userID)
	if err != nil {
		return &ErrInternal{Cause: err, Message: "Error listing actions"}
	}
	respondJSON(w, http.StatusOK, actions)
	return nil
}

func (routes *Routes) GetUserBans(w http.ResponseWriter, r *http.Request) AppError {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		return &ErrBadRequest{Cause: err}
	}
	bans, err := routes.db.BanHistory(r.Context(), userID)
	if err != nil {
		return &ErrInternal{Cause: err, Message: "Error listing bans"}
	}
	respondJSON(w, http.StatusOK, bans)
	return nil
}

func (routes *Routes) GetBans(w http.ResponseWriter, r *http.Request) AppError {
	state := models.BanState(r.URL.Query().Get("state"))
	switch state {
	case "", models.BanStateActive, models.BanStateExpired, models.BanStateLifted:
	default:
		return &ErrBadRequest{Cause: models.ErrInvalidFormat}
	}
	bans, err := routes.db.ListBans(r.Context(), state)
	if err != nil {
		return &ErrInternal{Cause: err, Message: "Error listing bans"}
	}
	respondJSON(w, http.StatusOK, bans)
	return nil
}
