package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Luismorlan/dailydrop/app_setting"
	"github.com/Luismorlan/dailydrop/classifier"
	"github.com/Luismorlan/dailydrop/cleanup"
	"github.com/Luismorlan/dailydrop/ingester"
	"github.com/Luismorlan/dailydrop/model"
	"github.com/Luismorlan/dailydrop/publisher"
	"github.com/Luismorlan/dailydrop/utils"
	"github.com/Luismorlan/dailydrop/utils/dotenv"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	dotenv.LoadDotEnvsInTests()
}

// offlineLabeler always takes the degraded path, classification falls through
// to the keyword table inside the ingestion service.
type offlineLabeler struct{}

func (offlineLabeler) Classify(ctx context.Context, input classifier.Input) (classifier.Result, error) {
	return classifier.Result{
		Embedding:  classifier.PseudoEmbedding(input.Title),
		IsFallback: true,
	}, nil
}

func (offlineLabeler) Summarize(ctx context.Context, title string, description string) string {
	return classifier.TruncateText(description, 300)
}

func newTestRouter(t *testing.T) (*gin.Engine, *Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, _ := utils.CreateTempDB(t)
	require.NoError(t, utils.SeedTopicCatalogue(db))

	setting := app_setting.DefaultDailyDropAppSetting()
	ing := ingester.NewService(db, nil, offlineLabeler{}, nil, setting)
	generator := publisher.NewDropGenerator(db, setting.DROP_MAX_ITEMS, setting.DROP_LOOKBACK_DAY, setting.DROP_EXCLUSION_WINDOW_DAY)
	pub := publisher.NewDropPublisher(db, generator, nil, nil)
	cleaner := cleanup.NewCleaner(db, setting.RETENTION_DAY, setting.CLEANUP_BATCH_SIZE, 0, setting.CLEANUP_CONTENT_THRESHOLD)

	srv := NewServer(db, nil, ing, pub, cleaner)
	router := gin.New()
	noopGuard := func(c *gin.Context) { c.Next() }
	srv.RegisterRoutes(router, noopGuard)
	return router, srv, db
}

func doJSON(router *gin.Engine, method string, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerTestUser(t *testing.T, router *gin.Engine, email string) UserResponse {
	t.Helper()
	rec := doJSON(router, http.MethodPost, "/api/auth/register", RegisterRequest{
		Email:     email,
		Password:  "hunter2hunter2",
		FirstName: "Ada",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func TestHealthRoutesAlwaysHealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterHealthRoutes(router)

	for _, path := range []string{"/health", "/healthz", "/ready"} {
		rec := doJSON(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	router, _, _ := newTestRouter(t)

	user := registerTestUser(t, router, "Ada@Example.com")
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.False(t, user.IsOnboarded)

	// Duplicate email is rejected.
	rec := doJSON(router, http.MethodPost, "/api/auth/register", RegisterRequest{
		Email:    "ada@example.com",
		Password: "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "ada@example.com",
		Password: "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var loggedIn UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loggedIn))
	assert.NotNil(t, loggedIn.LastLoginAt)

	rec = doJSON(router, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReplacePreferencesIsFullReplace(t *testing.T) {
	router, _, db := newTestRouter(t)
	user := registerTestUser(t, router, "bob@example.com")

	var topics []model.Topic
	require.NoError(t, db.Limit(3).Find(&topics).Error)
	require.Len(t, topics, 3)

	entries := []PreferenceEntry{}
	for _, topic := range topics {
		entries = append(entries, PreferenceEntry{TopicID: topic.Id, Weight: 0.8})
	}
	rec := doJSON(router, http.MethodPost, "/api/users/"+user.Id+"/preferences", ReplacePreferencesRequest{Preferences: entries})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var count int64
	require.NoError(t, db.Model(&model.UserPreference{}).Where("user_id = ?", user.Id).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	var stored model.User
	require.NoError(t, db.First(&stored, "id = ?", user.Id).Error)
	assert.True(t, stored.IsOnboarded)

	// Replacing with the empty set clears everything, it is not a merge.
	rec = doJSON(router, http.MethodPost, "/api/users/"+user.Id+"/preferences", ReplacePreferencesRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, db.Model(&model.UserPreference{}).Where("user_id = ?", user.Id).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSubmissionModerationApprovalIngestsContent(t *testing.T) {
	router, _, db := newTestRouter(t)
	user := registerTestUser(t, router, "carol@example.com")

	rec := doJSON(router, http.MethodPost, "/api/users/"+user.Id+"/submissions", CreateSubmissionRequest{
		Url:         "https://example.com/kubernetes-intro",
		Title:       "Intro to Kubernetes",
		Description: "A gentle introduction to Kubernetes and cloud native infrastructure for beginners.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var submission SubmissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submission))
	assert.Equal(t, model.StatusPending, submission.Status)

	rec = doJSON(router, http.MethodPatch, "/api/admin/submissions/"+submission.Id, ModerateSubmissionRequest{
		Status:          model.StatusApproved,
		ModerationNotes: "good source",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stored model.UserSubmission
	require.NoError(t, db.First(&stored, "id = ?", submission.Id).Error)
	assert.Equal(t, model.StatusApproved, stored.Status)
	require.NotNil(t, stored.ContentID)

	// The approved submission went through the regular ingestion path: an
	// approved content row with an embedding and at least one topic, even with
	// the classifier offline.
	var content model.Content
	require.NoError(t, db.First(&content, "id = ?", *stored.ContentID).Error)
	assert.Equal(t, model.StatusApproved, content.Status)
	assert.Equal(t, model.SourceUserSubmission, content.Source)
	assert.NotEmpty(t, content.Embedding)

	var topicCount int64
	require.NoError(t, db.Model(&model.ContentTopic{}).Where("content_id = ?", content.Id).Count(&topicCount).Error)
	assert.GreaterOrEqual(t, topicCount, int64(1))

	// Moderating twice is refused.
	rec = doJSON(router, http.MethodPatch, "/api/admin/submissions/"+submission.Id, ModerateSubmissionRequest{
		Status: model.StatusRejected,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDailyDropsEndpointAndStatusUpdates(t *testing.T) {
	router, _, db := newTestRouter(t)
	user := registerTestUser(t, router, "dave@example.com")

	content := model.Content{
		Id:          utils.NewUUID(),
		Title:       "Scaling Postgres",
		Summary:     "How to scale Postgres.",
		Url:         "https://example.com/scaling-postgres",
		Source:      model.SourceRSS,
		Status:      model.StatusApproved,
		PublishedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&content).Error)

	dropDate := publisher.UTCMidnight(time.Now().UTC())
	drop := model.DailyDrop{
		Id:         utils.NewUUID(),
		UserID:     user.Id,
		ContentID:  content.Id,
		DropDate:   dropDate,
		MatchScore: 0.42,
	}
	require.NoError(t, db.Create(&drop).Error)

	rec := doJSON(router, http.MethodGet, "/api/users/"+user.Id+"/daily-drops", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var drops []DropResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drops))
	require.Len(t, drops, 1)
	assert.Equal(t, content.Id, drops[0].ContentID)
	assert.False(t, drops[0].WasViewed)

	rec = doJSON(router, http.MethodPost, "/api/users/"+user.Id+"/daily-drops/"+content.Id+"/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/users/"+user.Id+"/daily-drops/"+content.Id+"/bookmark", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.DailyDrop
	require.NoError(t, db.First(&updated, "id = ?", drop.Id).Error)
	assert.True(t, updated.WasViewed)
	assert.True(t, updated.WasBookmarked)

	// Bookmarking pins the content against retention cleanup.
	var pinned model.Content
	require.NoError(t, db.First(&pinned, "id = ?", content.Id).Error)
	assert.True(t, pinned.IsSaved)

	// Unknown drop is a 404.
	rec = doJSON(router, http.MethodPost, "/api/users/"+user.Id+"/daily-drops/nonexistent/view", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminStats(t *testing.T) {
	router, _, _ := newTestRouter(t)
	registerTestUser(t, router, "erin@example.com")

	rec := doJSON(router, http.MethodGet, "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats AdminStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(0), stats.OnboardedUsers)
}
