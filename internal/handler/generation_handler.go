package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
	"github.com/noah-isme/obs-timetable-api/pkg/response"
)

type generationSessions interface {
	Create(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, id string) (*dto.SessionResponse, error)
	SetWindow(ctx context.Context, id string, req dto.SetWindowRequest) (*dto.SessionResponse, error)
	AutoFill(ctx context.Context, id string) (*dto.SessionResponse, error)
	Toggle(ctx context.Context, id string, req dto.ToggleRequest) (*dto.SessionResponse, error)
	Reset(ctx context.Context, id string) (*dto.SessionResponse, error)
	Submit(ctx context.Context, id string, req dto.SubmitSessionRequest) (*dto.TimetableResponse, error)
	Delete(ctx context.Context, id string) error
}

// GenerationHandler drives interactive timetable generation sessions.
type GenerationHandler struct {
	service generationSessions
}

// NewGenerationHandler constructs the handler.
func NewGenerationHandler(svc generationSessions) *GenerationHandler {
	return &GenerationHandler{service: svc}
}

// Create godoc
// @Summary Start a generation session
// @Description Loads the candidate proposals and creates an empty selection ledger.
// @Tags Generation
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest false "Session options"
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /generation-sessions [post]
func (h *GenerationHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !bindOptionalJSON(c, &req, "invalid session payload") {
		return
	}
	session, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Get a generation session
// @Tags Generation
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /generation-sessions/{id} [get]
func (h *GenerationHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// SetWindow godoc
// @Summary Set the date window
// @Description Validates the window and, unless autofill=false, selects candidates first-fit until capacity runs out.
// @Tags Generation
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SetWindowRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /generation-sessions/{id}/window [put]
func (h *GenerationHandler) SetWindow(c *gin.Context) {
	var req dto.SetWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid window payload"))
		return
	}
	session, err := h.service.SetWindow(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// AutoFill godoc
// @Summary Recompute the automatic selection
// @Description Overwrites manual toggles with a fresh first-fit selection.
// @Tags Generation
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /generation-sessions/{id}/autofill [post]
func (h *GenerationHandler) AutoFill(c *gin.Context) {
	session, err := h.service.AutoFill(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Toggle godoc
// @Summary Toggle one candidate
// @Tags Generation
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ToggleRequest true "Candidate index"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /generation-sessions/{id}/toggle [post]
func (h *GenerationHandler) Toggle(c *gin.Context) {
	var req dto.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	session, err := h.service.Toggle(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Reset godoc
// @Summary Cancel the current selection
// @Tags Generation
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /generation-sessions/{id}/reset [post]
func (h *GenerationHandler) Reset(c *gin.Context) {
	session, err := h.service.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Submit godoc
// @Summary Submit the selection
// @Description Assembles the timetable, asks the allocation backend for start times and stores the result.
// @Tags Generation
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SubmitSessionRequest false "Submit options"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /generation-sessions/{id}/submit [post]
func (h *GenerationHandler) Submit(c *gin.Context) {
	var req dto.SubmitSessionRequest
	if !bindOptionalJSON(c, &req, "invalid submit payload") {
		return
	}
	timetable, err := h.service.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable)
}

// Delete godoc
// @Summary Discard a generation session
// @Tags Generation
// @Param id path string true "Session ID"
// @Success 204 {string} string ""
// @Router /generation-sessions/{id} [delete]
func (h *GenerationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// bindOptionalJSON tolerates an empty body.
func bindOptionalJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
