package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"intervue/internal/ai"
	"intervue/internal/controller"
	"intervue/internal/store"
	"intervue/internal/utils/extractor"
)

type fakeExtractor struct{}

func (fakeExtractor) FromAuthHeader(header string) (extractor.Identity, error) {
	switch header {
	case "Bearer good":
		return extractor.Identity{UserID: "user-1", Email: "user@example.com", Token: "good"}, nil
	case "":
		return extractor.Identity{}, extractor.ErrMissingToken
	default:
		return extractor.Identity{}, extractor.ErrInvalidToken
	}
}

type fakeGateway struct {
	mu        sync.Mutex
	questions int
}

func (g *fakeGateway) GenerateQuestion(ctx context.Context, req ai.QuestionRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.questions++
	return fmt.Sprintf("Question %d about %s", g.questions, req.Subject), nil
}

func (g *fakeGateway) AnalyzeAnswer(ctx context.Context, req ai.AnalyzeRequest) (ai.Analysis, error) {
	return ai.Analysis{Score: 90, Feedback: ai.EmptyFeedback()}, nil
}

func (g *fakeGateway) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return "transcribed text", nil
}

func (g *fakeGateway) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte("mp3"), nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*store.Session
}

func (f *fakeSessions) Create(ctx context.Context, session *store.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, id string) (*store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return session, nil
}

func (f *fakeSessions) Complete(ctx context.Context, id string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[id]; ok {
		session.Status = store.StatusCompleted
		session.CompletedAt = &completedAt
	}
	return nil
}

func (f *fakeSessions) ListByUser(ctx context.Context, userID string) ([]*store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeResponses struct {
	mu        sync.Mutex
	responses []*store.Response
}

func (f *fakeResponses) Create(ctx context.Context, response *store.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, response)
	return nil
}

func (f *fakeResponses) ListBySession(ctx context.Context, sessionID string) ([]*store.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Response
	for _, r := range f.responses {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeProfiles struct {
	profile *store.Profile
}

func (f *fakeProfiles) Get(ctx context.Context, id string) (*store.Profile, error) {
	if f.profile == nil || f.profile.ID != id {
		return nil, store.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeProfiles) Update(ctx context.Context, profile *store.Profile) error {
	if f.profile == nil {
		return errors.New("no row")
	}
	f.profile.FullName = profile.FullName
	if profile.Email != "" {
		f.profile.Email = profile.Email
	}
	return nil
}

type testEnv struct {
	e         *echo.Echo
	sessions  *fakeSessions
	responses *fakeResponses
	profiles  *fakeProfiles
}

func newTestEnv() *testEnv {
	env := &testEnv{
		e:         echo.New(),
		sessions:  &fakeSessions{sessions: map[string]*store.Session{}},
		responses: &fakeResponses{},
		profiles:  &fakeProfiles{profile: &store.Profile{ID: "user-1", FullName: "Ada"}},
	}

	h := New(Options{
		Registry: controller.NewRegistry(zap.NewNop()),
		Store: &store.Store{
			Session:  env.sessions,
			Response: env.responses,
			Profile:  env.profiles,
		},
		Gateway:   &fakeGateway{},
		Extractor: fakeExtractor{},
		Voice:     "alloy",
		Logger:    zap.NewNop(),
	})
	h.Register(env.e)
	return env
}

func (env *testEnv) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStartInterviewValidation(t *testing.T) {
	env := newTestEnv()
	rec := env.request(t, http.MethodPost, "/api/interviews", `{"subjects": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInterviewLifecycle(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodPost, "/api/interviews",
		`{"subjects": ["System Design"], "totalQuestions": 1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var started StartInterviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.NotEmpty(t, started.SessionID)
	assert.Contains(t, started.Question, "System Design")
	assert.Equal(t, int32(1), started.TotalQuestions)

	rec = env.request(t, http.MethodGet, "/api/interviews/"+started.SessionID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap controller.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, controller.StateAwaitingAnswer, snap.State)

	rec = env.request(t, http.MethodPost, "/api/interviews/"+started.SessionID+"/answers",
		`{"answer": "I would start with a load balancer."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var submitted SubmitAnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	assert.Equal(t, int32(90), submitted.Score)
	assert.True(t, submitted.Completed)

	// The completed run is torn down; the live view is gone.
	rec = env.request(t, http.MethodGet, "/api/interviews/"+started.SessionID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Results survive through the store.
	rec = env.request(t, http.MethodGet, "/api/results/"+started.SessionID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var results ResultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results.Responses, 1)
	assert.Equal(t, int32(90), results.AverageScore)
	assert.Equal(t, store.StatusCompleted, results.Session.Status)
}

func TestSubmitEmptyAnswerRejected(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodPost, "/api/interviews",
		`{"subjects": ["DBMS"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var started StartInterviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))

	rec = env.request(t, http.MethodPost, "/api/interviews/"+started.SessionID+"/answers",
		`{"answer": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResultsOwnership(t *testing.T) {
	env := newTestEnv()
	env.sessions.sessions["foreign"] = &store.Session{
		ID:     "foreign",
		UserID: "someone-else",
		Status: store.StatusCompleted,
	}

	rec := env.request(t, http.MethodGet, "/api/results/foreign", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAbandonInterview(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodPost, "/api/interviews", `{"subjects": ["DBMS"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var started StartInterviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))

	rec = env.request(t, http.MethodDelete, "/api/interviews/"+started.SessionID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/interviews/"+started.SessionID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv()

	started := time.Now().UTC().Add(-10 * time.Minute)
	completed := time.Now().UTC()
	env.sessions.sessions["done"] = &store.Session{
		ID:          "done",
		UserID:      "user-1",
		Status:      store.StatusCompleted,
		StartedAt:   started,
		CompletedAt: &completed,
	}
	env.responses.responses = []*store.Response{
		{ID: "r1", SessionID: "done", Score: 80},
		{ID: "r2", SessionID: "done", Score: 90},
	}

	rec := env.request(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var dashboard DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dashboard))
	assert.Equal(t, 1, dashboard.Stats.TotalSessions)
	assert.Equal(t, 1, dashboard.Stats.CompletedSessions)
	assert.Equal(t, 10, dashboard.Stats.PracticeMinutes)
	assert.Equal(t, int32(85), dashboard.Stats.AverageScore)
	require.NotNil(t, dashboard.Profile)
	assert.Equal(t, "Ada", dashboard.Profile.FullName)
}

func TestProfileUpdateValidation(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodPut, "/api/profile", `{"fullName": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPut, "/api/profile",
		`{"fullName": "Grace Hopper", "email": "not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPut, "/api/profile", `{"fullName": "Grace Hopper"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Grace Hopper", env.profiles.profile.FullName)
}

func TestProfileUpdatePersistsEmail(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodPut, "/api/profile",
		`{"fullName": "Grace Hopper", "email": "grace@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Grace Hopper", env.profiles.profile.FullName)
	assert.Equal(t, "grace@example.com", env.profiles.profile.Email)
}

func TestSpeakReturnsAudio(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodPost, "/api/interviews", `{"subjects": ["DBMS"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var started StartInterviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))

	rec = env.request(t, http.MethodPost, "/api/interviews/"+started.SessionID+"/speak", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var speak SpeakResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &speak))
	assert.Equal(t, encodeBase64([]byte("mp3")), speak.Audio)
}

func TestCaptureAndTranscribe(t *testing.T) {
	env := newTestEnv()

	rec := env.request(t, http.MethodPost, "/api/interviews", `{"subjects": ["DBMS"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var started StartInterviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	base := "/api/interviews/" + started.SessionID

	rec = env.request(t, http.MethodPost, base+"/capture/start", `{"streamId": "stream-1"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	chunk := encodeBase64([]byte("webm-bytes"))
	rec = env.request(t, http.MethodPost, base+"/capture/chunks",
		fmt.Sprintf(`{"chunk": %q}`, chunk))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.request(t, http.MethodPost, base+"/capture/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stopped CaptureStopResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stopped))
	assert.Equal(t, encodeBase64([]byte("webm-bytes")), stopped.Audio)

	rec = env.request(t, http.MethodPost, base+"/transcribe",
		fmt.Sprintf(`{"audio": %q}`, stopped.Audio))
	require.Equal(t, http.StatusOK, rec.Code)

	var transcribed TranscribeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcribed))
	assert.Equal(t, "transcribed text", transcribed.Text)

	// Stopping again without a new recording is a client error.
	rec = env.request(t, http.MethodPost, base+"/capture/stop", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
