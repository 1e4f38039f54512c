package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gitlab.com/arkline/modguard/internal/models"
)

func (routes *Routes) WordsRouter(r chi.Router) {
	r.Get("/", routes.AppHandler(routes.GetWords))
	r.Post("/", routes.AppHandler(routes.PostWord))
	r.Patch("/{wordID}", routes.AppHandler(routes.PatchWord))
	r.Delete("/{wordID}", routes.AppHandler(routes.DeleteWord))
}

type createWordRequest struct {
	Pattern     string          `json:"pattern"`
	IsRegex     bool            `json:"is_regex"`
	Severity    models.Severity `json:"severity"`
	Category    string          `json:"category"`
	Replacement *string         `json:"replacement"`
}

func (req createWordRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Pattern, validation.Required, validation.Length(1, 500)),
		validation.Field(&req.Category, validation.Length(0, 100)),
	)
}

func (routes *Routes) GetWords(w http.ResponseWriter, r *http.Request) AppError {
	words, err := routes.db.ListBannedWords(r.Context())
	if err != nil {
		return &ErrInternal{Cause: err, Message: "Error listing banned words"}
	}
	respondJSON(w, http.StatusOK, words)
	return nil
}

func (routes *Routes) PostWord(w http.ResponseWriter, r *http.Request) AppError {
	modH := GetModeratorH(r)

	var req createWordRequest
	if err := decodeJSON(r, &req); err != nil {
		return &ErrBadRequest{Cause: err}
	}
	if err := req.Validate(); err != nil {
		return &ErrBadRequest{Cause: err}
	}

	word := &models.BannedWord{
		Pattern:     req.Pattern,
		IsRegex:     req.IsRegex,
		Severity:    req.Severity,
		Category:    req.Category,
		Replacement: req.Replacement,
		IsActive:    true,
		CreatedBy:   modH.ID(),
	}
	if err := routes.db.CreateBannedWord(r.Context(), word); err != nil {
		return fromDomainErr(err, "banned word")
	}
	routes.filter.Invalidate()
	respondJSON(w, http.StatusCreated, word)
	return nil
}

func (routes *Routes) PatchWord(w http.ResponseWriter, r *http.Request) AppError {
	wordID, err := strconv.Atoi(chi.URLParam(r, "wordID"))
	if err != nil {
		return &ErrBadRequest{Cause: err}
	}

	var upd models.BannedWordUpdate
	if err := decodeJSON(r, &upd); err != nil {
		return &ErrBadRequest{Cause: err}
	}

	word, err := routes.db.UpdateBannedWord(r.Context(), wordID, upd)
	if err != nil {
		return fromDomainErr(err, "banned word")
	}
	routes.filter.Invalidate()
	respondJSON(w, http.StatusOK, word)
	return nil
}

func (routes *Routes) DeleteWord(w http.ResponseWriter, r *http.Request) AppError {
	wordID, err := strconv.Atoi(chi.URLParam(r, "wordID"))
	if err != nil {
		return &ErrBadRequest{Cause: err}
	}
	if err := routes.db.DeleteBannedWord(r.Context(), wordID); err != nil {
		return fromDomainErr(err, "banned word")
	}
	routes.filter.Invalidate()
	w.WriteHeader(http.StatusNoContent)
	return nil
}
