package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obs-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
	"github.com/noah-isme/obs-timetable-api/pkg/response"
)

type generationServiceMock struct {
	session    *dto.SessionResponse
	timetable  *dto.TimetableResponse
	err        error
	lastID     string
	lastWindow dto.SetWindowRequest
	lastToggle dto.ToggleRequest
	lastSubmit dto.SubmitSessionRequest
	deleted    bool
}

func (m *generationServiceMock) Create(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	return m.session, m.err
}

func (m *generationServiceMock) Get(ctx context.Context, id string) (*dto.SessionResponse, error) {
	m.lastID = id
	return m.session, m.err
}

func (m *generationServiceMock) SetWindow(ctx context.Context, id string, req dto.SetWindowRequest) (*dto.SessionResponse, error) {
	m.lastID = id
	m.lastWindow = req
	return m.session, m.err
}

func (m *generationServiceMock) AutoFill(ctx context.Context, id string) (*dto.SessionResponse, error) {
	m.lastID = id
	return m.session, m.err
}

func (m *generationServiceMock) Toggle(ctx context.Context, id string, req dto.ToggleRequest) (*dto.SessionResponse, error) {
	m.lastID = id
	m.lastToggle = req
	return m.session, m.err
}

func (m *generationServiceMock) Reset(ctx context.Context, id string) (*dto.SessionResponse, error) {
	m.lastID = id
	return m.session, m.err
}

func (m *generationServiceMock) Submit(ctx context.Context, id string, req dto.SubmitSessionRequest) (*dto.TimetableResponse, error) {
	m.lastID = id
	m.lastSubmit = req
	return m.timetable, m.err
}

func (m *generationServiceMock) Delete(ctx context.Context, id string) error {
	m.lastID = id
	m.deleted = m.err == nil
	return m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestGenerationHandlerCreateWithoutBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generationServiceMock{session: &dto.SessionResponse{ID: "sess-1"}}
	handler := NewGenerationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/generation-sessions", nil)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	envelope := decodeEnvelope(t, w)
	var session dto.SessionResponse
	require.NoError(t, json.Unmarshal(envelope["data"], &session))
	assert.Equal(t, "sess-1", session.ID)
}

func TestGenerationHandlerCreateRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGenerationHandler(&generationServiceMock{})

	c, w := newGinContext(http.MethodPost, "/generation-sessions", []byte("{"))
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerationHandlerSetWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generationServiceMock{session: &dto.SessionResponse{ID: "sess-1", WindowSeconds: 86400}}
	handler := NewGenerationHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"start_date": "2030-01-01", "end_date": "2030-01-01", "autofill": false})
	c, w := newGinContext(http.MethodPut, "/generation-sessions/sess-1/window", payload)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.SetWindow(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-1", mockSvc.lastID)
	assert.Equal(t, "2030-01-01", mockSvc.lastWindow.StartDate)
	require.NotNil(t, mockSvc.lastWindow.AutoFill)
	assert.False(t, *mockSvc.lastWindow.AutoFill)
}

func TestGenerationHandlerSetWindowPropagatesDateErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generationServiceMock{err: appErrors.ErrStartInPast}
	handler := NewGenerationHandler(mockSvc)

	payload, _ := json.Marshal(dto.SetWindowRequest{StartDate: "2000-01-01", EndDate: "2000-01-02"})
	c, w := newGinContext(http.MethodPut, "/generation-sessions/sess-1/window", payload)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.SetWindow(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "START_IN_PAST", envelope.Error.Code)
}

func TestGenerationHandlerToggle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generationServiceMock{session: &dto.SessionResponse{ID: "sess-1", SelectedCount: 1}}
	handler := NewGenerationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/generation-sessions/sess-1/toggle", []byte(`{"index":2}`))
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Toggle(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastToggle.Index)
	assert.Equal(t, 2, *mockSvc.lastToggle.Index)
}

func TestGenerationHandlerAutoFillWithoutWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGenerationHandler(&generationServiceMock{err: appErrors.ErrEmptyWindow})

	c, w := newGinContext(http.MethodPost, "/generation-sessions/sess-1/autofill", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.AutoFill(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGenerationHandlerReset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generationServiceMock{session: &dto.SessionResponse{ID: "sess-1"}}
	handler := NewGenerationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/generation-sessions/sess-1/reset", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Reset(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-1", mockSvc.lastID)
}

func TestGenerationHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generationServiceMock{timetable: &dto.TimetableResponse{ID: "tt-1", Name: "January"}}
	handler := NewGenerationHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/generation-sessions/sess-1/submit", []byte(`{"name":"January"}`))
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "January", mockSvc.lastSubmit.Name)
}

func TestGenerationHandlerSubmitOverCapacity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGenerationHandler(&generationServiceMock{err: appErrors.ErrOverCapacity})

	c, w := newGinContext(http.MethodPost, "/generation-sessions/sess-1/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Submit(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGenerationHandlerSubmitBackendDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGenerationHandler(&generationServiceMock{err: appErrors.Unavailable(assert.AnError, "allocation backend unavailable")})

	c, w := newGinContext(http.MethodPost, "/generation-sessions/sess-1/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Submit(c)
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerationHandlerGetMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGenerationHandler(&generationServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "session not found")})

	c, w := newGinContext(http.MethodGet, "/generation-sessions/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerationHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generationServiceMock{}
	handler := NewGenerationHandler(mockSvc)

	c, _ := newGinContext(http.MethodDelete, "/generation-sessions/sess-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.True(t, mockSvc.deleted)
}
