package publisher

import (
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

func seedDropFixture(t *testing.T, db *gorm.DB) (userId string, topicId string) {
	t.Helper()
	require.NoError(t, utils.SeedTopicCatalogue(db))

	user := model.User{Id: utils.NewUUID(), Email: "drop@example.com", IsOnboarded: true}
	require.NoError(t, db.Create(&user).Error)

	var topic model.Topic
	require.NoError(t, db.First(&topic, "name = ?", "DevOps").Error)
	require.NoError(t, model.ReplacePreferences(db, user.Id, []model.UserPreference{
		{TopicID: topic.Id, Weight: 1.0},
	}))
	return user.Id, topic.Id
}

func seedClassifiedContent(t *testing.T, db *gorm.DB, id string, topicId string, confidence float64) {
	t.Helper()
	content := model.Content{
		Id:          id,
		Title:       "content " + id,
		Url:         "https://example.com/" + id,
		Source:      model.SourceRSS,
		Status:      model.StatusApproved,
		PublishedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&content).Error)
	require.NoError(t, db.Create(&model.ContentTopic{
		ContentID: id, TopicID: topicId, Confidence: confidence,
	}).Error)
}

func TestGenerateUserDailyDropScoresAndPersists(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	userId, topicId := seedDropFixture(t, db)

	seedClassifiedContent(t, db, "c-high", topicId, 0.9)
	seedClassifiedContent(t, db, "c-low", topicId, 0.7)

	generator := NewDropGenerator(db, 3, 7, 30)
	drops, err := generator.GenerateUserDailyDrop(userId)
	require.NoError(t, err)
	require.Len(t, drops, 2)
	assert.Equal(t, "c-high", drops[0].ContentID)
	assert.InDelta(t, 0.9, drops[0].MatchScore, 1e-9)
	assert.Equal(t, UTCMidnight(time.Now()), drops[0].DropDate)
	assert.False(t, drops[0].WasViewed)
}

func TestGenerateUserDailyDropExcludesRecentDrops(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	userId, topicId := seedDropFixture(t, db)

	seedClassifiedContent(t, db, "c-old-drop", topicId, 0.9)
	seedClassifiedContent(t, db, "c-new", topicId, 0.6)

	// Dropped to this user a week ago, inside the 30 day exclusion window.
	require.NoError(t, db.Create(&model.DailyDrop{
		Id:        utils.NewUUID(),
		UserID:    userId,
		ContentID: "c-old-drop",
		DropDate:  UTCMidnight(time.Now().AddDate(0, 0, -7)),
	}).Error)

	generator := NewDropGenerator(db, 3, 7, 30)
	drops, err := generator.GenerateUserDailyDrop(userId)
	require.NoError(t, err)
	require.Len(t, drops, 1)
	assert.Equal(t, "c-new", drops[0].ContentID)
}

func TestGenerateUserDailyDropSameDayRerunCannotDuplicate(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	userId, topicId := seedDropFixture(t, db)

	seedClassifiedContent(t, db, "c-1", topicId, 0.8)

	generator := NewDropGenerator(db, 3, 7, 30)
	first, err := generator.GenerateUserDailyDrop(userId)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A second run the same day is already filtered by the exclusion window,
	// and even a generator with the window disabled bounces off the composite
	// unique index instead of duplicating the row.
	again, err := generator.GenerateUserDailyDrop(userId)
	require.NoError(t, err)
	assert.Empty(t, again)

	noWindow := NewDropGenerator(db, 3, 7, 0)
	forced, err := noWindow.GenerateUserDailyDrop(userId)
	require.NoError(t, err)
	assert.Empty(t, forced)

	var total int64
	require.NoError(t, db.Model(&model.DailyDrop{}).Where("user_id = ?", userId).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestGenerateUserDailyDropNoPreferencesYieldsNothing(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	require.NoError(t, utils.SeedTopicCatalogue(db))

	user := model.User{Id: utils.NewUUID(), Email: "empty@example.com", IsOnboarded: true}
	require.NoError(t, db.Create(&user).Error)

	generator := NewDropGenerator(db, 3, 7, 30)
	drops, err := generator.GenerateUserDailyDrop(user.Id)
	require.NoError(t, err)
	assert.Empty(t, drops)
}
