package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	"github.com/noah-isme/obs-timetable-api/internal/service"
)

func registeredRoutes(r *gin.Engine) map[string]bool {
	routes := make(map[string]bool)
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}
	return routes
}

func TestHandlersRegisterMountsAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Handlers{
		Proposals:  NewProposalHandler(&proposalServiceMock{}),
		Generation: NewGenerationHandler(&generationServiceMock{}),
		Timetables: NewTimetableHandler(&timetableServiceMock{}, &windowValidatorMock{}),
		Export:     NewExportHandler(&exportServiceMock{}),
		Metrics:    NewMetricsHandler(service.NewMetricsService(), nil),
	}.Register(r.Group("/api/v1"))

	routes := registeredRoutes(r)
	for _, want := range []string{
		"GET /api/v1/proposals",
		"POST /api/v1/generation-sessions",
		"GET /api/v1/generation-sessions/:id",
		"PUT /api/v1/generation-sessions/:id/window",
		"POST /api/v1/generation-sessions/:id/autofill",
		"POST /api/v1/generation-sessions/:id/toggle",
		"POST /api/v1/generation-sessions/:id/reset",
		"POST /api/v1/generation-sessions/:id/submit",
		"DELETE /api/v1/generation-sessions/:id",
		"POST /api/v1/timetables/validate-window",
		"GET /api/v1/timetables",
		"GET /api/v1/timetables/:id",
		"PUT /api/v1/timetables/:id",
		"DELETE /api/v1/timetables/:id",
		"GET /api/v1/timetables/:id/events",
		"POST /api/v1/timetables/:id/exports",
		"GET /api/v1/exports/:id",
		"GET /api/v1/export/:token",
		"GET /api/v1/system/metrics",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}

func TestHandlersRegisterWithoutExports(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Handlers{
		Timetables: NewTimetableHandler(&timetableServiceMock{}, &windowValidatorMock{}),
	}.Register(r.Group("/api/v1"))

	routes := registeredRoutes(r)
	assert.True(t, routes["GET /api/v1/timetables/:id"])
	assert.False(t, routes["POST /api/v1/timetables/:id/exports"])
	assert.False(t, routes["GET /api/v1/export/:token"])
}

func TestValidateWindowRouteDoesNotShadowTimetableID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	windows := &windowValidatorMock{resp: &dto.WindowResponse{DurationSeconds: 86400}}
	svc := &timetableServiceMock{timetable: &dto.TimetableResponse{ID: "validate-window"}}
	Handlers{Timetables: NewTimetableHandler(svc, windows)}.Register(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/timetables/validate-window", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"validate-window"`)
}
