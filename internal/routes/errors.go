package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/arkline/modguard/internal/models"
)

type AppError interface {
	Status() int
	Msg() string
	Unwrap() error
}

type ErrInternal struct {
	Cause   error
	Message string
}

func (e *ErrInternal) Status() int { return http.StatusInternalServerError }
func (e *ErrInternal) Msg() string {
	if e.Message == "" {
		return "Internal server error"
	}
	return e.Message
}
func (e *ErrInternal) Unwrap() error { return e.Cause }

type ErrBadRequest struct {
	Cause error
}

func (e *ErrBadRequest) Status() int   { return http.StatusBadRequest }
func (e *ErrBadRequest) Msg() string   { return e.Cause.Error() }
func (e *ErrBadRequest) Unwrap() error { return e.Cause }

type ErrUnauthorized struct {
	Cause error
}

func (e *ErrUnauthorized) Status() int   { return http.StatusUnauthorized }
func (e *ErrUnauthorized) Msg() string   { return "Unauthorized" }
func (e *ErrUnauthorized) Unwrap() error { return e.Cause }

type ErrForbidden struct {
	Cause error
}

func (e *ErrForbidden) Status() int   { return http.StatusForbidden }
func (e *ErrForbidden) Msg() string   { return "Forbidden" }
func (e *ErrForbidden) Unwrap() error { return e.Cause }

type ErrNotFound struct {
	Cause error
	Thing string
}

func (e *ErrNotFound) Status() int { return http.StatusNotFound }
func (e *ErrNotFound) Msg() string {
	if e.Thing == "" {
		return "Not found"
	}
	return "Can't find " + e.Thing
}
func (e *ErrNotFound) Unwrap() error { return e.Cause }

type ErrConflict struct {
	Cause error
}

func (e *ErrConflict) Status() int   { return http.StatusConflict }
func (e *ErrConflict) Msg() string   { return e.Cause.Error() }
func (e *ErrConflict) Unwrap() error { return e.Cause }

func (routes *Routes) AppHandler(handler func(w http.ResponseWriter, r *http.Request) AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appErr := handler(w, r)
		if appErr == nil {
			return
		}
		hlog.FromRequest(r).Error().
			Str("request_id", middleware.GetReqID(r.Context())).
			Err(appErr.Unwrap()).
			Msg(appErr.Msg())
		respondJSON(w, appErr.Status(), map[string]string{"error": appErr.Msg()})
	}
}

// fromDomainErr maps the sentinel errors of the db layer onto HTTP
// responses; anything unrecognized is a 500.
func fromDomainErr(err error, thing string) AppError {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return &ErrNotFound{Cause: err, Thing: thing}
	case errors.Is(err, models.ErrAlreadyBanned),
		errors.Is(err, models.ErrDuplicatePending),
		errors.Is(err, models.ErrAlreadyResolved):
		return &ErrConflict{Cause: err}
	case errors.Is(err, models.ErrMissingTarget),
		errors.Is(err, models.ErrInvalidDuration),
		errors.Is(err, models.ErrSelfBan),
		errors.Is(err, models.ErrInvalidFormat),
		errors.Is(err, models.ErrNoActiveBan):
		return &ErrBadRequest{Cause: err}
	case errors.Is(err, models.ErrPermDenied):
		return &ErrForbidden{Cause: err}
	}
	return &ErrInternal{Cause: err}
}
