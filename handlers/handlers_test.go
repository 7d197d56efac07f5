package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/ratelimit"
	"github.com/akinalp/circles/services"
)

func TestMain(m *testing.M) {
	// genai pulls in opencensus, whose stats worker starts at package init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func withUser(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserContextKey, &models.User{ID: id}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) pkg.APIResponse {
	t.Helper()
	var resp pkg.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// Embedding the interface keeps the fakes small; unused methods panic.
type fakeActivities struct {
	services.ActivityService
	weeklyStart time.Time
	year        int
	month       time.Month
}

func (f *fakeActivities) Weekly(_ context.Context, _ string, start time.Time) ([]models.DaySchedule, error) {
	f.weeklyStart = start
	return []models.DaySchedule{}, nil
}

func (f *fakeActivities) Monthly(_ context.Context, _ string, year int, month time.Month) ([]models.Activity, error) {
	f.year, f.month = year, month
	return []models.Activity{}, nil
}

func TestActivityHandler_Weekly(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	fake := &fakeActivities{}
	h := NewActivityHandler(fake, loc)

	rec := httptest.NewRecorder()
	h.Weekly(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/activities/weekly?start=2031-04-07", nil), "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fake.weeklyStart.Equal(time.Date(2031, 4, 7, 0, 0, 0, 0, loc)))
	assert.Equal(t, loc, fake.weeklyStart.Location())

	rec = httptest.NewRecorder()
	h.Weekly(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/activities/weekly?start=04/07", nil), "u1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Weekly(rec, httptest.NewRequest(http.MethodGet, "/api/activities/weekly", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActivityHandler_Monthly(t *testing.T) {
	fake := &fakeActivities{}
	h := NewActivityHandler(fake, time.UTC)

	rec := httptest.NewRecorder()
	h.Monthly(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/activities/monthly?year=2030&month=11", nil), "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2030, fake.year)
	assert.Equal(t, time.November, fake.month)

	rec = httptest.NewRecorder()
	h.Monthly(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/activities/monthly?month=may", nil), "u1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeTopics struct {
	services.TopicService
	created int
}

func (f *fakeTopics) CreateComment(_ context.Context, _, topicID string, req *models.CommentRequest) (*models.Comment, error) {
	f.created++
	return &models.Comment{ID: "c1", TopicID: topicID, Content: req.Content}, nil
}

func TestTopicHandler_PostLimiter(t *testing.T) {
	limiter := ratelimit.NewPostRateLimiter(1, time.Minute, time.Minute)
	t.Cleanup(limiter.Stop)
	fake := &fakeTopics{}
	h := NewTopicHandler(fake, limiter)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/topics/t1/comments", strings.NewReader(`{"content":"hi"}`))
		req.SetPathValue("id", "t1")
		rec := httptest.NewRecorder()
		h.CreateComment(rec, withUser(req, "u1"))
		return rec
	}

	rec := post()
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = post()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, decode(t, rec).Error, "1 minute(s)")
	assert.Equal(t, 1, fake.created)
}

func TestTopicHandler_InvalidBody(t *testing.T) {
	h := NewTopicHandler(&fakeTopics{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/topics/t1/comments", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	h.CreateComment(rec, withUser(req, "u1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode(t, rec).Error)
}

type fakeSuggestions struct {
	services.SuggestionService
	query     string
	threshold float64
}

func (f *fakeSuggestions) Search(_ context.Context, query string, threshold float64) models.Graph {
	f.query, f.threshold = query, threshold
	return models.EmptyGraph()
}

func TestSuggestionHandler_Threshold(t *testing.T) {
	fake := &fakeSuggestions{}
	h := NewSuggestionHandler(fake)

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/suggestions?q=music&threshold=0.8", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "music", fake.query)
	assert.InDelta(t, 0.8, fake.threshold, 1e-9)
	assert.JSONEq(t, `{"success":true,"data":{"nodes":[],"links":[]}}`, rec.Body.String())

	for _, bad := range []string{"abc", "1.5", "-0.1"} {
		rec = httptest.NewRecorder()
		h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/suggestions?q=x&threshold="+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fakeOnline []string

func (o fakeOnline) GetOnlineUserIDs() []string { return o }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(fakePinger{}, fakeOnline{"a", "b"}).Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok","online_users":2}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewHealthHandler(fakePinger{err: errors.New("locked")}, fakeOnline{}).Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
