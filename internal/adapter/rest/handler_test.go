package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/finquest/internal/adapter/mapping"
	adapterrepo "github.com/eslsoft/finquest/internal/adapter/repository"
	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	catalog, err := adapterrepo.LoadCatalog("", "")
	require.NoError(t, err)
	ledger, err := usecase.NewXPLedger(nil, usecase.LevelOverflowExtrapolate)
	require.NoError(t, err)
	evaluator, err := usecase.NewBadgeEvaluator(logger)
	require.NoError(t, err)

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	progress := usecase.NewProgressionUsecase(
		usecase.NewProgressStore(adapterrepo.NewMemoryProgressRepository()),
		catalog,
		catalog,
		ledger,
		evaluator,
		usecase.TimeSourceFunc(func() time.Time { return now }),
		usecase.ProgressionConfig{},
		logger,
	)

	mux := runtime.NewServeMux()
	h := NewHandler(usecase.NewContentUsecase(catalog), progress, logger)
	require.NoError(t, h.Register(mux))

	srv := httptest.NewServer(WithRequestID(AccessLog(logger)(mux)))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestContentRoutes(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/api/stages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stages []entity.Stage
	require.NoError(t, json.Unmarshal(body, &stages))
	assert.NotEmpty(t, stages)

	resp, body = do(t, srv, http.MethodGet, "/api/stages/1/lessons/3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lesson entity.Lesson
	require.NoError(t, json.Unmarshal(body, &lesson))
	assert.Equal(t, 3, lesson.ID)
	assert.Equal(t, entity.BlockSorting, lesson.Content[1].Kind())

	resp, _ = do(t, srv, http.MethodGet, "/api/stages/99", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/api/stages/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompletionFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/api/users/alice/completions", map[string]int{
		"stage_id": 1, "lesson_id": 1, "score": 100,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var result mapping.CompletionResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 20, result.Progress.XP)
	assert.True(t, result.Persisted)
	assert.Equal(t, 20, result.Completion.XPEarned)
	require.NotEmpty(t, result.NewBadges)
	assert.Equal(t, "first_quiz", result.NewBadges[0].ID)

	resp, body = do(t, srv, http.MethodGet, "/api/users/alice/stages/1/lessons", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var states mapping.ListResponse[entity.LessonState]
	require.NoError(t, json.Unmarshal(body, &states))
	require.Len(t, states.Items, 6)
	assert.True(t, states.Items[0].IsCompleted)
	assert.False(t, states.Items[1].IsLocked)
	assert.True(t, states.Items[2].IsLocked)

	resp, body = do(t, srv, http.MethodGet, "/api/users/alice/level", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var level entity.LevelInfo
	require.NoError(t, json.Unmarshal(body, &level))
	assert.Equal(t, 20, level.XP)
	assert.Equal(t, 20, level.ProgressWithinLevel)
}

func TestCompletionValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body any
		want int
	}{
		{"score too high", map[string]int{"stage_id": 1, "lesson_id": 1, "score": 101}, http.StatusBadRequest},
		{"missing score", map[string]int{"stage_id": 1, "lesson_id": 1}, http.StatusBadRequest},
		{"unknown lesson", map[string]int{"stage_id": 1, "lesson_id": 42, "score": 90}, http.StatusNotFound},
		{"malformed json", `{"stage_id": 1,`, http.StatusBadRequest},
		{"unknown field", `{"stage_id": 1, "lesson_id": 1, "score": 50, "bonus": 9}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodPost, "/api/users/bob/completions", tc.body)
			assert.Equal(t, tc.want, resp.StatusCode, string(body))
			var errBody mapping.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errBody))
			assert.NotEmpty(t, errBody.Message)
		})
	}

	resp, _ := do(t, srv, http.MethodPost, "/api/users/bob/xp", map[string]int{"amount": -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionGradesAnswers(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/api/users/carol/submissions", mapping.SubmitLessonRequest{
		StageID:  1,
		LessonID: 1,
		Answers:  []entity.Answer{{BlockIndex: 2, Selected: []int{2}}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var result mapping.CompletionResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 100, result.Completion.Score)

	resp, _ = do(t, srv, http.MethodPost, "/api/users/carol/submissions", mapping.SubmitLessonRequest{
		StageID:  1,
		LessonID: 1,
		Answers:  []entity.Answer{{BlockIndex: 0, Selected: []int{0}}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginAndBadges(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/api/users/dana/logins", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login mapping.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.True(t, login.Recorded)
	assert.Equal(t, 1, login.Progress.StreakDays)

	resp, body = do(t, srv, http.MethodPost, "/api/users/dana/logins", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &login))
	assert.False(t, login.Recorded)

	resp, body = do(t, srv, http.MethodGet, `/api/users/dana/badges?status=locked&filter=category%20%3D%3D%20%22progress%22&order_by=name`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var badges mapping.ListResponse[mapping.BadgeView]
	require.NoError(t, json.Unmarshal(body, &badges))
	require.Equal(t, 2, badges.Total)
	assert.Equal(t, "3 Day Streak", badges.Items[0].Name)
	assert.Equal(t, "XP Champion", badges.Items[1].Name)
	assert.False(t, badges.Items[0].Earned)

	resp, _ = do(t, srv, http.MethodGet, "/api/users/dana/badges?status=shiny", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/api/users/dana/badges?filter=nonsense(", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResetProgressRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, srv, http.MethodPost, "/api/users/erin/xp", map[string]int{"amount": 120})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, srv, http.MethodDelete, "/api/users/erin/progress", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var record entity.ProgressRecord
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Zero(t, record.XP)

	resp, body = do(t, srv, http.MethodGet, "/api/users/erin/progress", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Zero(t, record.XP)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/stages", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
}
