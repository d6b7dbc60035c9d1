package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app "github.com/turtacn/MolMatch/internal/application/matching"
	"github.com/turtacn/MolMatch/internal/config"
	domain "github.com/turtacn/MolMatch/internal/domain/matching"
	"github.com/turtacn/MolMatch/internal/testutil"
	"github.com/turtacn/MolMatch/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockMatchService struct{ mock.Mock }

func (m *mockMatchService) Match(ctx context.Context, req app.MatchRequest) (*app.MatchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.MatchResponse), args.Error(1)
}

type mockJobService struct{ mock.Mock }

func (m *mockJobService) SubmitJob(ctx context.Context, req app.JobRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newRouter(h *MatchHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/v1/match", h.Match)
	r.POST("/api/v1/jobs", h.Submit)
	return r
}

func post(r http.Handler, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestMatchHandler_Match_EndToEnd(t *testing.T) {
	svc, err := app.NewService(app.Deps{Config: config.Default().Matching})
	require.NoError(t, err)
	r := newRouter(NewMatchHandler(svc, nil, 1<<20))

	body, err := json.Marshal(app.MatchRequest{
		Query:  app.MoleculeInput{Molecule: testutil.Hydroxyl()},
		Target: app.MoleculeInput{Molecule: testutil.Ethanol()},
	})
	require.NoError(t, err)

	w := post(r, "/api/v1/match", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp app.MatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.StatusComplete, resp.Status)
	require.Len(t, resp.Mappings, 1)
	tgt, ok := resp.Mappings[0].TargetOf(0)
	require.True(t, ok)
	assert.Equal(t, 1, tgt)
}

func TestMatchHandler_Match_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   errors.ErrorCode
		wantMsg    string
	}{
		{"malformed json", `{"query":`, nil, http.StatusBadRequest, errors.ErrCodeBadRequest, "invalid request body"},
		{"empty body", ``, nil, http.StatusBadRequest, errors.ErrCodeBadRequest, "request body is empty"},
		{"bad options", `{}`, errors.Wrap(stderrors.New(`unknown match mode "x"`), errors.ErrCodeMatchConfigInvalid, "invalid mode"),
			http.StatusBadRequest, errors.ErrCodeMatchConfigInvalid, "invalid mode"},
		{"invalid graph", `{}`, errors.New(errors.ErrCodeInvalidGraph, "bond 0 is a self loop on atom 0"),
			http.StatusUnprocessableEntity, errors.ErrCodeInvalidGraph, "bond 0 is a self loop on atom 0"},
		{"unknown molecule", `{}`, errors.New(errors.ErrCodeMoleculeNotFound, "molecule not found").WithDetail("lib/x.mol"),
			http.StatusNotFound, errors.ErrCodeMoleculeNotFound, "molecule not found"},
		{"plain error is masked", `{}`, stderrors.New("dial tcp 10.0.0.1:6379: refused"),
			http.StatusInternalServerError, errors.ErrCodeInternal, "internal server error"},
		{"storage error is masked", `{}`, errors.New(errors.ErrCodeStorageError, "bucket molecules unreachable"),
			http.StatusInternalServerError, errors.ErrCodeStorageError, "object storage error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockMatchService{}
			if tt.svcErr != nil {
				svc.On("Match", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}
			w := post(newRouter(NewMatchHandler(svc, nil, 0)), "/api/v1/match", []byte(tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Message)
			if tt.wantStatus >= 500 {
				assert.Empty(t, resp.Detail)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestMatchHandler_Match_DetailCarriesCause(t *testing.T) {
	svc := &mockMatchService{}
	svc.On("Match", mock.Anything, mock.Anything).Return(nil,
		errors.New(errors.ErrCodeMoleculeNotFound, "molecule not found").WithDetail("lib/x.mol"))
	w := post(newRouter(NewMatchHandler(svc, nil, 0)), "/api/v1/match", []byte(`{}`))
	assert.Equal(t, "lib/x.mol", decodeError(t, w).Detail)
}

func TestMatchHandler_Match_BodyLimit(t *testing.T) {
	svc := &mockMatchService{}
	w := post(newRouter(NewMatchHandler(svc, nil, 16)), "/api/v1/match",
		[]byte(`{"query":{"molfile":"`+strings.Repeat("x", 64)+`"}}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "exceeds 16 bytes")
	svc.AssertNotCalled(t, "Match", mock.Anything, mock.Anything)
}

func TestMatchHandler_Match_PassesOptions(t *testing.T) {
	svc := &mockMatchService{}
	svc.On("Match", mock.Anything, mock.MatchedBy(func(req app.MatchRequest) bool {
		return req.Options.Mode != nil && *req.Options.Mode == "mcs" &&
			req.Options.Timeout != nil && *req.Options.Timeout == "250ms" &&
			req.Query.ObjectKey == "lib/q.mol"
	})).Return(&app.MatchResponse{Status: domain.StatusTimedOut}, nil)

	w := post(newRouter(NewMatchHandler(svc, nil, 0)), "/api/v1/match",
		[]byte(`{"query":{"object_key":"lib/q.mol"},"target":{"object_key":"lib/t.mol"},"options":{"mode":"mcs","timeout":"250ms"}}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"TIMED_OUT"`)
	svc.AssertExpectations(t)
}

func TestMatchHandler_Submit(t *testing.T) {
	jobs := &mockJobService{}
	jobs.On("SubmitJob", mock.Anything, mock.MatchedBy(func(req app.JobRequest) bool {
		return req.TargetPrefix == "lib/" && req.Query.ObjectKey == "q.mol"
	})).Return("job-123", nil)

	w := post(newRouter(NewMatchHandler(&mockMatchService{}, jobs, 0)), "/api/v1/jobs",
		[]byte(`{"query":{"object_key":"q.mol"},"target_prefix":"lib/"}`))
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp JobAccepted
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, JobAccepted{JobID: "job-123", Status: "accepted"}, resp)
	jobs.AssertExpectations(t)
}

func TestMatchHandler_Submit_Errors(t *testing.T) {
	w := post(newRouter(NewMatchHandler(&mockMatchService{}, nil, 0)), "/api/v1/jobs", []byte(`{}`))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, errors.ErrCodeServiceUnavailable, decodeError(t, w).Code)

	jobs := &mockJobService{}
	jobs.On("SubmitJob", mock.Anything, mock.Anything).Return("", errors.New(errors.ErrCodeJobPayloadInvalid, "job has no targets"))
	w = post(newRouter(NewMatchHandler(&mockMatchService{}, jobs, 0)), "/api/v1/jobs", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "job has no targets", decodeError(t, w).Message)
}

func TestHealthHandler(t *testing.T) {
	healthy := NewChecker("redis", func(context.Context) error { return nil })
	broken := NewChecker("minio", func(context.Context) error { return stderrors.New("connection refused") })

	tests := []struct {
		name       string
		checkers   []HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no dependencies", nil, http.StatusOK, "ready"},
		{"all healthy", []HealthChecker{healthy}, http.StatusOK, "ready"},
		{"one unhealthy", []HealthChecker{healthy, broken}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("v1.2.3", tt.checkers...)
			r := gin.New()
			r.GET("/healthz", h.Liveness)
			r.GET("/readyz", h.Readiness)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"version":"v1.2.3"`)

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Len(t, resp.Components, len(tt.checkers))
			if len(tt.checkers) == 2 {
				assert.Equal(t, "connection refused", resp.Components["minio"].Error)
			}
		})
	}
}

func TestHealthHandler_Draining(t *testing.T) {
	var calls atomic.Int32
	h := NewHealthHandler("v1", NewChecker("redis", func(context.Context) error {
		calls.Add(1)
		return nil
	}))
	r := gin.New()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)

	h.SetDraining(true)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"draining"`)
	assert.Zero(t, calls.Load(), "dependencies are not probed while draining")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code, "liveness is unaffected")

	h.SetDraining(false)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), calls.Load())
}

//Personal.AI order the ending
