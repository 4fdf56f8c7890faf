package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"study-planner/internal/planner"
	"study-planner/internal/shared/server/middleware"
	"study-planner/internal/shared/server/respond"
)

type sessionResponse struct {
	planner.View
	CanAnalyze       bool     `json:"canAnalyze"`
	APIKeyConfigured bool     `json:"apiKeyConfigured"`
	Warnings         []string `json:"warnings,omitempty"`
}

func (h *Handler) apiSession(c *gin.Context) {
	sess := sessionOrAbort(c)
	if sess == nil {
		return
	}
	respond.OK(c, h.sessionResponse(sess))
}

func (h *Handler) apiUpdateForm(c *gin.Context) {
	sess := sessionOrAbort(c)
	if sess == nil {
		return
	}
	var in planner.FormInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", bindError(err), nil)
		return
	}
	if err := h.Planner.UpdateForm(sess, in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", bindError(err), nil)
		return
	}
	respond.OK(c, h.sessionResponse(sess))
}

func (h *Handler) apiUpload(c *gin.Context) {
	sess := sessionOrAbort(c)
	if sess == nil {
		return
	}
	h.limitBody(c)

	name, data, err := h.readUpload(c)
	if err != nil {
		switch {
		case errors.Is(err, errFileTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", h.tooLargeMessage(), nil)
		default:
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		}
		return
	}
	writeOutcome(c, h.Planner.Upload(c.Request.Context(), sess, name, data))
}

// apiPlan accepts an optional JSON form update applied before generating.
func (h *Handler) apiPlan(c *gin.Context) {
	sess := sessionOrAbort(c)
	if sess == nil {
		return
	}
	if c.Request.ContentLength > 0 {
		var in planner.FormInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", bindError(err), nil)
			return
		}
		if err := h.Planner.UpdateForm(sess, in); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", bindError(err), nil)
			return
		}
	}
	writeOutcome(c, h.Planner.GeneratePlan(c.Request.Context(), sess))
}

func (h *Handler) apiAnalyze(c *gin.Context) {
	sess := sessionOrAbort(c)
	if sess == nil {
		return
	}
	writeOutcome(c, h.Planner.AnalyzeMaterial(c.Request.Context(), sess))
}

func (h *Handler) sessionResponse(sess *planner.Session) sessionResponse {
	view := h.Planner.View(sess)
	return sessionResponse{
		View:             view,
		CanAnalyze:       view.Upload != nil,
		APIKeyConfigured: h.opts.APIKeyConfigured,
		Warnings:         h.opts.Warnings,
	}
}

func writeOutcome(c *gin.Context, out planner.Outcome) {
	c.Set(middleware.OutcomeKey, string(out.Code))
	status := StatusFor(out)
	if out.OK() {
		respond.JSON(c, status, out)
		return
	}
	respond.Error(c, status, string(out.Code), out.Message, gin.H{
		"action": out.Action,
		"level":  out.Level,
	})
}

// StatusFor maps a planner outcome to the JSON API status code.
func StatusFor(out planner.Outcome) int {
	switch out.Code {
	case planner.CodeOK:
		return http.StatusOK
	case planner.CodeValidation, planner.CodeEmptyResult, planner.CodeExtractionFailed:
		return http.StatusUnprocessableEntity
	case planner.CodeBusy, planner.CodeNoUpload:
		return http.StatusConflict
	case planner.CodeGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
