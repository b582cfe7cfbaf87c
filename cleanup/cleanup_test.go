package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/Luismorlan/dailydrop/model"
	"github.com/Luismorlan/dailydrop/utils"
	"github.com/Luismorlan/dailydrop/utils/dotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	dotenv.LoadDotEnvsInTests()
}

func newTestCleaner(db *gorm.DB) *Cleaner {
	return NewCleaner(db, 90, 2, 0, 10)
}

func createAgedContent(t *testing.T, db *gorm.DB, id string, ageDays int, saved bool) {
	content := model.Content{
		Id:          id,
		Title:       "content " + id,
		Url:         "https://example.com/" + id,
		Source:      model.SourceRSS,
		Status:      model.StatusApproved,
		IsSaved:     saved,
		PublishedAt: time.Now().UTC().AddDate(0, 0, -ageDays),
	}
	require.NoError(t, db.Create(&content).Error)
	// CreatedAt is managed by gorm, backdate it directly.
	require.NoError(t, db.Model(&model.Content{}).Where("id = ?", id).
		Update("created_at", time.Now().UTC().AddDate(0, 0, -ageDays)).Error)
}

func TestCleanupOldContentDeletesAgedRows(t *testing.T) {
	db, name := utils.CreateTempDB(t)
	t.Log("created temp db:", name)
	require.NoError(t, utils.SeedTopicCatalogue(db))

	createAgedContent(t, db, "old-1", 120, false)
	createAgedContent(t, db, "old-2", 100, false)
	createAgedContent(t, db, "old-3", 95, false)
	createAgedContent(t, db, "fresh", 5, false)

	var topic model.Topic
	require.NoError(t, db.First(&topic).Error)
	require.NoError(t, db.Create(&model.ContentTopic{
		ContentID: "old-1", TopicID: topic.Id, Confidence: 0.8,
	}).Error)

	cleaner := newTestCleaner(db)
	result, err := cleaner.CleanupOldContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.DeletedCount)
	assert.Empty(t, result.Errors)

	var remaining int64
	require.NoError(t, db.Model(&model.Content{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	var danglingTopics int64
	require.NoError(t, db.Model(&model.ContentTopic{}).Where("content_id = ?", "old-1").Count(&danglingTopics).Error)
	assert.Equal(t, int64(0), danglingTopics)
}

func TestCleanupOldContentKeepsSavedRows(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	createAgedContent(t, db, "old-saved", 120, true)
	createAgedContent(t, db, "old-plain", 120, false)

	cleaner := newTestCleaner(db)
	result, err := cleaner.CleanupOldContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Equal(t, 1, result.RetainedSaved)

	var survivor model.Content
	require.NoError(t, db.First(&survivor, "id = ?", "old-saved").Error)
	assert.True(t, survivor.IsSaved)
}

func TestCleanupDetachesApprovedSubmissions(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	user := model.User{Id: utils.NewUUID(), Email: "submitter@example.com"}
	require.NoError(t, db.Create(&user).Error)

	createAgedContent(t, db, "old-sub", 120, false)
	contentId := "old-sub"
	submission := model.UserSubmission{
		Id:        utils.NewUUID(),
		UserID:    user.Id,
		Url:       "https://example.com/old-sub",
		Title:     "an approved submission",
		Status:    model.StatusApproved,
		ContentID: &contentId,
	}
	require.NoError(t, db.Create(&submission).Error)

	cleaner := newTestCleaner(db)
	result, err := cleaner.CleanupOldContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Empty(t, result.Errors)

	var remaining int64
	require.NoError(t, db.Model(&model.Content{}).Count(&remaining).Error)
	assert.Equal(t, int64(0), remaining)

	// The submission survives as moderation history, detached from the row
	// that cleanup removed.
	var stored model.UserSubmission
	require.NoError(t, db.First(&stored, "id = ?", submission.Id).Error)
	assert.Nil(t, stored.ContentID)
	assert.Equal(t, model.StatusApproved, stored.Status)
}

func TestCleanupOldContentIsIdempotent(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	createAgedContent(t, db, "old", 120, false)

	cleaner := newTestCleaner(db)
	first, err := cleaner.CleanupOldContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.DeletedCount)

	second, err := cleaner.CleanupOldContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.DeletedCount)
}

func TestGetStorageStatsBuckets(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	createAgedContent(t, db, "a", 1, false)
	createAgedContent(t, db, "b", 15, true)
	createAgedContent(t, db, "c", 60, false)
	createAgedContent(t, db, "d", 120, false)

	cleaner := newTestCleaner(db)
	stats, err := cleaner.GetStorageStats()
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalContent)
	assert.Equal(t, int64(1), stats.Last7Days)
	assert.Equal(t, int64(2), stats.Last30Days)
	assert.Equal(t, int64(3), stats.Last90Days)
	assert.Equal(t, int64(1), stats.Older)
	assert.Equal(t, int64(1), stats.SavedContent)
	assert.Equal(t, "stable", stats.Recommendation)
}

func TestRecommendationThresholds(t *testing.T) {
	assert.Equal(t, "stable", Recommendation(9999))
	assert.Equal(t, "cleanup recommended soon", Recommendation(10000))
	assert.Equal(t, "cleanup recommended", Recommendation(20000))
	assert.Equal(t, "urgent: run cleanup now", Recommendation(50000))
}

func TestScheduleCleanupBelowThresholdIsNoop(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	createAgedContent(t, db, "old", 120, false)

	cleaner := newTestCleaner(db)
	result, ran, err := cleaner.ScheduleCleanup(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Nil(t, result)

	var remaining int64
	require.NoError(t, db.Model(&model.Content{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
