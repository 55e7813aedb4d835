package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/models"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
	"github.com/noah-isme/obs-timetable-api/pkg/response"
)

type timetableService interface {
	List(ctx context.Context, query dto.ListTimetablesQuery) ([]models.TimetableSummary, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.TimetableResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateTimetableRequest) (*dto.TimetableResponse, error)
	Delete(ctx context.Context, id string) error
	Events(ctx context.Context, id string) ([]models.CalendarEvent, error)
}

type windowValidator interface {
	ValidateWindow(req dto.ValidateWindowRequest) (*dto.WindowResponse, error)
}

// TimetableHandler serves stored timetables and their calendar view.
type TimetableHandler struct {
	service timetableService
	windows windowValidator
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService, windows windowValidator) *TimetableHandler {
	return &TimetableHandler{service: svc, windows: windows}
}

// ValidateWindow godoc
// @Summary Validate a date window
// @Description Stateless check of a start/end date pair. Returns the window capacity in seconds.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.ValidateWindowRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/validate-window [post]
func (h *TimetableHandler) ValidateWindow(c *gin.Context) {
	var req dto.ValidateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid window payload"))
		return
	}
	window, err := h.windows.ValidateWindow(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// List godoc
// @Summary List timetables
// @Tags Timetables
// @Produce json
// @Param search query string false "Filter by name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column (start_date, end_date, name, created_at)"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.ListTimetablesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Update godoc
// @Summary Update timetable
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.UpdateTimetableRequest true "Timetable payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	var req dto.UpdateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	timetable, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Delete godoc
// @Summary Delete timetable
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204 {string} string ""
// @Router /timetables/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Events godoc
// @Summary Calendar events of a timetable
// @Description Projects every scheduled proposal to a coloured calendar event.
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/events [get]
func (h *TimetableHandler) Events(c *gin.Context) {
	events, err := h.service.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
