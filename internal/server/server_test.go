package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inhouse-lobby-bot/internal/testutil"
	"inhouse-lobby-bot/internal/worker"
)

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Sessions() []worker.SessionInfo {
	args := m.Called()
	return args.Get(0).([]worker.SessionInfo)
}

func (m *mockSessions) Abort(jobID int64) bool {
	args := m.Called(jobID)
	return args.Bool(0)
}

func (m *mockSessions) Status() worker.Status {
	args := m.Called()
	return args.Get(0).(worker.Status)
}

func serve(t *testing.T, sessions Sessions, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New("127.0.0.1:0", sessions, testutil.NewTestLogger())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_ListSessions(t *testing.T) {
	started := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	sessions := new(mockSessions)
	sessions.On("Sessions").Return([]worker.SessionInfo{
		{JobID: 7, JobName: "finals", BotLogin: "bot1", State: "WAITING_FOR_PLAYERS", StartedAt: started},
	})

	rec := serve(t, sessions, http.MethodGet, "/sessions")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, float64(7), got[0]["job_id"])
	assert.Equal(t, "bot1", got[0]["bot_login"])
	assert.Equal(t, "WAITING_FOR_PLAYERS", got[0]["state"])
}

func TestServer_AbortSession(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		found    bool
		expected int
	}{
		{name: "running session", path: "/sessions/7", found: true, expected: http.StatusAccepted},
		{name: "unknown session", path: "/sessions/8", found: false, expected: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := new(mockSessions)
			sessions.On("Abort", mock.AnythingOfType("int64")).Return(tt.found)

			rec := serve(t, sessions, http.MethodDelete, tt.path)

			assert.Equal(t, tt.expected, rec.Code)
			sessions.AssertNumberOfCalls(t, "Abort", 1)
		})
	}
}

func TestServer_AbortRejectsNonNumericID(t *testing.T) {
	sessions := new(mockSessions)

	rec := serve(t, sessions, http.MethodDelete, "/sessions/abc")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	sessions.AssertNotCalled(t, "Abort", mock.Anything)
}

func TestServer_Status(t *testing.T) {
	sessions := new(mockSessions)
	sessions.On("Status").Return(worker.Status{Paused: true, ActiveSessions: 2, AvailableCredentials: 1})

	rec := serve(t, sessions, http.MethodGet, "/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"paused":true,"active_sessions":2,"available_credentials":1}`, rec.Body.String())
}

func TestServer_HealthAndMetrics(t *testing.T) {
	sessions := new(mockSessions)

	rec := serve(t, sessions, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, sessions, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestServer_WrongMethod(t *testing.T) {
	rec := serve(t, new(mockSessions), http.MethodPost, "/sessions")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
