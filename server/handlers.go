package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/Luismorlan/dailydrop/cleanup"
	"github.com/Luismorlan/dailydrop/ingester"
	"github.com/Luismorlan/dailydrop/model"
	"github.com/Luismorlan/dailydrop/publisher"
	"github.com/Luismorlan/dailydrop/utils"
	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Server bundles the REST handlers with their collaborators. StatusStore may
// be nil when redis is unreachable, handlers then fall back to the DB columns.
type Server struct {
	DB          *gorm.DB
	StatusStore *utils.DropStatusStore
	Ingester    *ingester.Service
	Publisher   *publisher.DropPublisher
	Cleaner     *cleanup.Cleaner
}

func NewServer(db *gorm.DB, store *utils.DropStatusStore, ing *ingester.Service, pub *publisher.DropPublisher, cleaner *cleanup.Cleaner) *Server {
	return &Server{DB: db, StatusStore: store, Ingester: ing, Publisher: pub, Cleaner: cleaner}
}

// RegisterRoutes wires every route onto the router. adminGuard is usually
// middlewares.AdminKey(), tests pass a no-op instead.
func (s *Server) RegisterRoutes(router *gin.Engine, adminGuard gin.HandlerFunc) {
	RegisterHealthRoutes(router)

	api := router.Group("/api")
	{
		api.POST("/auth/register", s.Register)
		api.POST("/auth/login", s.Login)
		api.GET("/topics", s.ListTopics)

		api.GET("/users/:id/preferences", s.GetPreferences)
		api.POST("/users/:id/preferences", s.ReplacePreferences)
		api.GET("/users/:id/daily-drops", s.GetDailyDrops)
		api.POST("/users/:id/daily-drops/:contentId/view", s.MarkDropViewed)
		api.POST("/users/:id/daily-drops/:contentId/bookmark", s.MarkDropBookmarked)
		api.POST("/users/:id/submissions", s.CreateSubmission)

		admin := api.Group("/admin", adminGuard)
		{
			admin.GET("/submissions", s.ListSubmissions)
			admin.PATCH("/submissions/:id", s.ModerateSubmission)
			admin.GET("/stats", s.AdminStats)
			admin.POST("/ingest/rss", s.TriggerRssIngestion)
			admin.POST("/ingest/youtube", s.triggerSocialIngestion(model.SourceYouTube))
			admin.POST("/ingest/twitter", s.triggerSocialIngestion(model.SourceTwitter))
			admin.POST("/ingest/reddit", s.triggerSocialIngestion(model.SourceReddit))
			admin.POST("/ingest/social-media", s.TriggerAllSocialIngestion)
			admin.POST("/rss/daily-drops", s.TriggerDropGeneration)
			admin.GET("/content/storage-stats", s.StorageStats)
			admin.POST("/content/cleanup", s.TriggerCleanup)
			admin.POST("/content/schedule-cleanup", s.TriggerScheduledCleanup)
		}
	}
}

// RegisterHealthRoutes installs the always-200 liveness routes. They are
// registered even when the rest of the app failed to start, a broken DB must
// not take the process out of the load balancer.
func RegisterHealthRoutes(router *gin.Engine) {
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"server":    "running",
		})
	}
	router.GET("/health", health)
	router.GET("/healthz", health)
	router.GET("/ready", health)
}

func abortWithMessage(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}

func (s *Server) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, "fail to hash password")
		return
	}

	user := model.User{
		Id:           utils.NewUUID(),
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         model.RoleUser,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		// The unique index on email is the source of truth for duplicates.
		abortWithMessage(c, http.StatusConflict, "email already registered")
		return
	}

	resp, err := NewUserResponse(&user)
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	var user model.User
	err := s.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error
	if err != nil {
		abortWithMessage(c, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		abortWithMessage(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.DB.Model(&user).Update("last_login_at", now).Error; err != nil {
		Logger.Log.Error("fail to update last login for user ", user.Id, ": ", err)
	}

	resp, err := NewUserResponse(&user)
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListTopics(c *gin.Context) {
	var topics []model.Topic
	if err := s.DB.Order("name asc").Find(&topics).Error; err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]TopicResponse, 0, len(topics))
	for _, topic := range topics {
		resp = append(resp, TopicResponse{Id: topic.Id, Name: topic.Name, Description: topic.Description})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetPreferences(c *gin.Context) {
	userId := c.Param("id")

	var prefs []model.UserPreference
	if err := s.DB.Where("user_id = ?", userId).Find(&prefs).Error; err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]PreferenceResponse, 0, len(prefs))
	for _, pref := range prefs {
		var topic model.Topic
		if err := s.DB.First(&topic, "id = ?", pref.TopicID).Error; err != nil {
			continue
		}
		resp = append(resp, PreferenceResponse{TopicID: pref.TopicID, TopicName: topic.Name, Weight: pref.Weight})
	}
	c.JSON(http.StatusOK, resp)
}

// ReplacePreferences swaps the full preference set. An empty list clears all
// preferences. A non-empty save also marks the user onboarded.
func (s *Server) ReplacePreferences(c *gin.Context) {
	userId := c.Param("id")

	var req ReplacePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	var user model.User
	if err := s.DB.First(&user, "id = ?", userId).Error; err != nil {
		abortWithMessage(c, http.StatusNotFound, "user not found")
		return
	}

	prefs := make([]model.UserPreference, 0, len(req.Preferences))
	for _, entry := range req.Preferences {
		weight := entry.Weight
		if weight <= 0 {
			weight = 1.0
		}
		prefs = append(prefs, model.UserPreference{TopicID: entry.TopicID, Weight: weight})
	}
	if err := model.ReplacePreferences(s.DB, userId, prefs); err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}

	if len(prefs) > 0 && !user.IsOnboarded {
		if err := s.DB.Model(&user).Update("is_onboarded", true).Error; err != nil {
			Logger.Log.Error("fail to mark user onboarded ", userId, ": ", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(prefs)})
}

func (s *Server) GetDailyDrops(c *gin.Context) {
	userId := c.Param("id")

	dropDate := publisher.UTCMidnight(time.Now().UTC())
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			abortWithMessage(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		dropDate = publisher.UTCMidnight(parsed)
	}

	var drops []model.DailyDrop
	err := s.DB.Where("user_id = ? AND drop_date = ?", userId, dropDate).
		Order("match_score desc").Find(&drops).Error
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]DropResponse, 0, len(drops))
	contentIds := make([]string, 0, len(drops))
	for _, drop := range drops {
		var content model.Content
		if err := s.DB.First(&content, "id = ?", drop.ContentID).Error; err != nil {
			continue
		}
		contentIds = append(contentIds, drop.ContentID)
		resp = append(resp, DropResponse{
			ContentID:     content.Id,
			Title:         content.Title,
			Summary:       content.Summary,
			Url:           content.Url,
			Source:        content.Source,
			ContentType:   content.ContentType,
			ImageUrl:      content.ImageUrl,
			DropDate:      drop.DropDate,
			MatchScore:    drop.MatchScore,
			WasViewed:     drop.WasViewed,
			WasBookmarked: drop.WasBookmarked,
		})
	}

	// Overlay the redis fast path on top of the DB columns, redis wins because
	// the write path updates it synchronously while the DB write is async-ish.
	if s.StatusStore != nil && len(contentIds) > 0 {
		viewed, bookmarked, err := s.StatusStore.GetDropStatuses(userId, contentIds)
		if err != nil {
			Logger.Log.Error("fail to read drop statuses from redis: ", err)
		} else {
			for idx := range resp {
				resp[idx].WasViewed = resp[idx].WasViewed || viewed[idx]
				resp[idx].WasBookmarked = resp[idx].WasBookmarked || bookmarked[idx]
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) MarkDropViewed(c *gin.Context) {
	s.markDropStatus(c, "was_viewed", func(userId, contentId string) error {
		return s.StatusStore.MarkDropViewed(userId, contentId)
	})
}

func (s *Server) MarkDropBookmarked(c *gin.Context) {
	s.markDropStatus(c, "was_bookmarked", func(userId, contentId string) error {
		return s.StatusStore.MarkDropBookmarked(userId, contentId)
	})
}

func (s *Server) markDropStatus(c *gin.Context, column string, markRedis func(string, string) error) {
	userId := c.Param("id")
	contentId := c.Param("contentId")

	res := s.DB.Model(&model.DailyDrop{}).
		Where("user_id = ? AND content_id = ?", userId, contentId).
		Update(column, true)
	if res.Error != nil {
		abortWithMessage(c, http.StatusInternalServerError, res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		abortWithMessage(c, http.StatusNotFound, "drop not found")
		return
	}

	// Bookmarking also pins the content against cleanup.
	if column == "was_bookmarked" {
		if err := s.DB.Model(&model.Content{}).Where("id = ?", contentId).Update("is_saved", true).Error; err != nil {
			Logger.Log.Error("fail to pin bookmarked content ", contentId, ": ", err)
		}
	}

	if s.StatusStore != nil {
		if err := markRedis(userId, contentId); err != nil {
			Logger.Log.Error("fail to mark drop status in redis: ", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) CreateSubmission(c *gin.Context) {
	userId := c.Param("id")

	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	submission := model.UserSubmission{
		Id:              utils.NewUUID(),
		UserID:          userId,
		Url:             req.Url,
		Title:           req.Title,
		Description:     req.Description,
		SuggestedTopics: pq.StringArray(req.SuggestedTopics),
		Status:          model.StatusPending,
	}
	if err := s.DB.Create(&submission).Error; err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp, err := NewSubmissionResponse(&submission)
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListSubmissions(c *gin.Context) {
	query := s.DB.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var submissions []model.UserSubmission
	if err := query.Find(&submissions).Error; err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]SubmissionResponse, 0, len(submissions))
	for idx := range submissions {
		item, err := NewSubmissionResponse(&submissions[idx])
		if err != nil {
			abortWithMessage(c, http.StatusInternalServerError, err.Error())
			return
		}
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, resp)
}

// ModerateSubmission approves or rejects a pending submission. Approval runs
// the submission through the regular ingestion path so it ends up classified
// like any other content.
func (s *Server) ModerateSubmission(c *gin.Context) {
	submissionId := c.Param("id")

	var req ModerateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	var submission model.UserSubmission
	if err := s.DB.First(&submission, "id = ?", submissionId).Error; err != nil {
		abortWithMessage(c, http.StatusNotFound, "submission not found")
		return
	}
	if submission.Status != model.StatusPending {
		abortWithMessage(c, http.StatusConflict, "submission already moderated")
		return
	}

	updates := map[string]interface{}{
		"status":           req.Status,
		"moderation_notes": req.ModerationNotes,
	}
	if req.Status == model.StatusApproved {
		content, err := s.Ingester.IngestSubmission(c.Request.Context(), &submission)
		if err != nil {
			abortWithMessage(c, http.StatusInternalServerError, err.Error())
			return
		}
		updates["content_id"] = content.Id
	}
	if err := s.DB.Model(&submission).Updates(updates).Error; err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp, err := NewSubmissionResponse(&submission)
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) AdminStats(c *gin.Context) {
	stats := AdminStatsResponse{}
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, s.DB.Model(&model.User{})},
		{&stats.OnboardedUsers, s.DB.Model(&model.User{}).Where("is_onboarded = ?", true)},
		{&stats.TotalContent, s.DB.Model(&model.Content{})},
		{&stats.TotalDrops, s.DB.Model(&model.DailyDrop{})},
		{&stats.PendingSubmissions, s.DB.Model(&model.UserSubmission{}).Where("status = ?", model.StatusPending)},
		{&stats.ActiveFeeds, s.DB.Model(&model.FeedSource{}).Where("is_active = ?", true)},
	}
	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			abortWithMessage(c, http.StatusInternalServerError, err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) TriggerRssIngestion(c *gin.Context) {
	report, err := s.Ingester.RunDailyIngestion(c.Request.Context())
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) triggerSocialIngestion(platform string) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := s.Ingester.IngestSocial(c.Request.Context(), platform)
		if err != nil {
			abortWithMessage(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func (s *Server) TriggerAllSocialIngestion(c *gin.Context) {
	report, err := s.Ingester.IngestAllSocial(c.Request.Context())
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) TriggerDropGeneration(c *gin.Context) {
	report, err := s.Publisher.GenerateAndSendDailyDrops(c.Request.Context())
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) StorageStats(c *gin.Context) {
	stats, err := s.Cleaner.GetStorageStats()
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) TriggerCleanup(c *gin.Context) {
	result, err := s.Cleaner.CleanupOldContent(c.Request.Context())
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) TriggerScheduledCleanup(c *gin.Context) {
	result, ran, err := s.Cleaner.ScheduleCleanup(c.Request.Context())
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !ran {
		c.JSON(http.StatusOK, gin.H{"ran": false, "message": "below cleanup threshold"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ran": true, "result": result})
}
