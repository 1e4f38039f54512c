package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
	"gitlab.com/arkline/modguard/internal/models"
)

type evaluateRequest struct {
	Text string `json:"text"`
}

func (req evaluateRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Text, validation.Required, validation.Length(1, 50000)),
	)
}

// matchView deliberately omits the matched pattern so callers can't probe
// the banned-word list.
type matchView struct {
	Severity models.Severity `json:"severity"`
	Category string          `json:"category"`
}

type evaluateResponse struct {
	Blocked      bool        `json:"blocked"`
	FilteredText string      `json:"filtered_text"`
	Matches      []matchView `json:"matches"`
}

func (routes *Routes) PostEvaluate(w http.ResponseWriter, r *http.Request) AppError {
	var req evaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err}
	}
	if err := req.Validate(); err != nil {
		return &ErrBadRequest{Cause: err}
	}

	res, err := routes.filter.Evaluate(r.Context(), req.Text)
	if err != nil {
		return &ErrInternal{Cause: err, Message: "Error evaluating text"}
	}
	filterEvaluationsTotal.Inc()
	if res.Blocked {
		filterBlockedTotal.Inc()
	}

	respondJSON(w, http.StatusOK, evaluateResponse{
		Blocked:      res.Blocked,
		FilteredText: res.FilteredText,
		Matches: lo.Map(res.Matches, func(m models.MatchedWord, _ int) matchView {
			return matchView{Severity: m.Severity, Category: m.Category}
		}),
	})
	return nil
}

// GetEnforcement is the precondition check for every content-creation
// path: 204 if the user may post, 403 with the ban details otherwise.
func (routes *Routes) GetEnforcement(w http.ResponseWriter, r *http.Request) AppError {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		return &ErrBadRequest{Cause: err}
	}

	err = routes.db.CheckNotBanned(r.Context(), userID)
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	var blocked *models.Blocked
	if errors.As(err, &blocked) {
		enforcementBlocksTotal.Inc()
		respondJSON(w, http.StatusForbidden, blocked)
		return nil
	}
	return &ErrInternal{Cause: err}
}
