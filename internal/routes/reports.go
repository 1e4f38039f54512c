package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gitlab.com/arkline/modguard/internal/models"
)

type submitReportRequest struct {
	Target      models.TargetRef  `json:"target"`
	Reason      models.ReasonCode `json:"reason"`
	Description *string           `json:"description"`
}

func (routes *Routes) PostReport(w http.ResponseWriter, r *http.Request) AppError {
	identity := GetIdentity(r)

	var req submitReportRequest
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err}
	}

	report, err := routes.db.SubmitReport(r.Context(), identity.UserID, req.Target, req.Reason, req.Description)
	if err != nil {
		return fromDomainErr(err, "report target")
	}
	reportsSubmittedTotal.Inc()
	respondJSON(w, http.StatusCreated, report)
	return nil
}

func (routes *Routes) GetReports(w http.ResponseWriter, r *http.Request) AppError {
	status := models.ReportStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		return &ErrBadRequest{Cause: models.ErrInvalidFormat}
	}
	reports, err := routes.db.ListReports(r.Context(), status)
	if err != nil {
		return &ErrInternal{Cause: err, Message: "Error listing reports"}
	}
	respondJSON(w, http.StatusOK, reports)
	return nil
}

func (routes *Routes) GetReport(w http.ResponseWriter, r *http.Request) AppError {
	reportID, err := strconv.Atoi(chi.URLParam(r, "reportID"))
	if err != nil {
		return &ErrBadRequest{Cause: err}
	}
	report, err := routes.db.GetReport(r.Context(), reportID)
	if err != nil {
		return fromDomainErr(err, "report")
	}
	respondJSON(w, http.StatusOK, report)
	return nil
}

type resolveReportRequest struct {
	Status  models.ReportStatus    `json:"status"`
	Note    string                 `json:"note"`
	Cascade *models.CascadeRequest `json:"cascade"`
}

type resolveReportResponse struct {
	Report       *models.Report           `json:"report"`
	Action       *models.ModerationAction `json:"action,omitempty"`
	CascadeError string                   `json:"cascade_error,omitempty"`
}

// PostResolveReport resolves a report and optionally cascades an
// enforcement action. When the resolution itself succeeds but a side
// effect fails, the response is still 200: the report stays resolved,
// the audit action is included, and cascade_error tells the moderator
// what to retry.
func (routes *Routes) PostResolveReport(w http.ResponseWriter, r *http.Request) AppError {
	modH := GetModeratorH(r)
	reportID, err := strconv.Atoi(chi.URLParam(r, "reportID"))
	if err != nil {
		return &ErrBadRequest{Cause: err}
	}

	var req resolveReportRequest
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err}
	}

	report, action, err := modH.ResolveReport(r.Context(), reportID, req.Status, req.Note, req.Cascade)
	if report == nil {
		return fromDomainErr(err, "report")
	}

	resp := resolveReportResponse{Report: report, Action: action}
	if err != nil {
		cascadeFailuresTotal.Inc()
		resp.CascadeError = err.Error()
	}
	if action != nil {
		actionsAppliedTotal.WithLabelValues(string(action.ActionType)).Inc()
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}
