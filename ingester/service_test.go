package ingester

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Luismorlan/dailydrop/app_setting"
	"github.com/Luismorlan/dailydrop/classifier"
	"github.com/Luismorlan/dailydrop/feedconfig"
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

// fallbackLabeler simulates an unreachable AI backend: pseudo embedding, no
// embedding based labels, so the service has to reach for the keyword table.
type fallbackLabeler struct{}

func (fallbackLabeler) Classify(ctx context.Context, input classifier.Input) (classifier.Result, error) {
	return classifier.Result{
		Embedding:  classifier.PseudoEmbedding(input.Title),
		IsFallback: true,
	}, nil
}

func (fallbackLabeler) Summarize(ctx context.Context, title string, description string) string {
	return classifier.TruncateText(description, 300)
}

func freshFeedBody() string {
	pubDate := time.Now().UTC().Add(-2 * time.Hour).Format(time.RFC1123Z)
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Engineering Blog</title>
    <link>https://example.com</link>
    <item>
      <title>Intro to Kubernetes</title>
      <link>https://example.com/k8s-intro</link>
      <guid>example-k8s-intro</guid>
      <description>Getting started with kubernetes deployments, pods and services in production.</description>
      <pubDate>%s</pubDate>
      <category>devops</category>
    </item>
  </channel>
</rss>`, pubDate)
}

func writeFeedConfig(t *testing.T, feedUrl string) *feedconfig.Loader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.json")
	body := fmt.Sprintf(`[{"name": "Example", "url": %q, "tags": ["engineering"]}]`, feedUrl)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return feedconfig.NewLoader(path, time.Minute)
}

func newTestService(t *testing.T, db *gorm.DB, feedUrl string) *Service {
	t.Helper()
	setting := app_setting.DefaultDailyDropAppSetting()
	return NewService(db, NewRssParser(2, 0), fallbackLabeler{}, writeFeedConfig(t, feedUrl), setting)
}

func TestRunDailyIngestionIsIdempotent(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	require.NoError(t, utils.SeedTopicCatalogue(db))
	server := serveRss(t, freshFeedBody())

	svc := newTestService(t, db, server.URL)
	report, err := svc.RunDailyIngestion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.FeedsProcessed)
	assert.Equal(t, 1, report.Inserted)
	assert.Empty(t, report.Errors)

	var countAfterFirst int64
	require.NoError(t, db.Model(&model.Content{}).Count(&countAfterFirst).Error)

	// A brand new service instance has a cold url cache, the second run must
	// dedup through the DB instead.
	svc2 := newTestService(t, db, server.URL)
	report2, err := svc2.RunDailyIngestion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report2.Inserted)
	assert.Equal(t, 1, report2.SkippedDuplicate)

	var countAfterSecond int64
	require.NoError(t, db.Model(&model.Content{}).Count(&countAfterSecond).Error)
	assert.Equal(t, countAfterFirst, countAfterSecond)

	// The configured feed was upserted exactly once and marked fetched.
	var feeds []model.FeedSource
	require.NoError(t, db.Find(&feeds).Error)
	require.Len(t, feeds, 1)
	assert.Equal(t, "Example", feeds[0].Name)
	assert.NotNil(t, feeds[0].LastFetchedAt)
	assert.Empty(t, feeds[0].LastError)
}

func TestIngestionFallbackRoundTrip(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	require.NoError(t, utils.SeedTopicCatalogue(db))
	server := serveRss(t, freshFeedBody())

	svc := newTestService(t, db, server.URL)
	_, err := svc.RunDailyIngestion(context.Background())
	require.NoError(t, err)

	var content model.Content
	require.NoError(t, db.First(&content, "url = ?", "https://example.com/k8s-intro").Error)
	assert.Equal(t, "Intro to Kubernetes", content.Title)
	assert.Equal(t, model.StatusApproved, content.Status)
	// The degraded path still leaves a pseudo embedding behind.
	assert.NotEmpty(t, content.Embedding)
	assert.NotEmpty(t, content.Summary)

	var classifications []model.ContentTopic
	require.NoError(t, db.Where("content_id = ?", content.Id).Find(&classifications).Error)
	require.NotEmpty(t, classifications)
	for _, classification := range classifications {
		assert.GreaterOrEqual(t, classification.Confidence, 0.5)
		assert.LessOrEqual(t, classification.Confidence, 0.9)
	}

	// Keyword fallback on "kubernetes" should land in DevOps, not the generic
	// catch-all.
	var topic model.Topic
	require.NoError(t, db.First(&topic, "id = ?", classifications[0].TopicID).Error)
	assert.Equal(t, "DevOps", topic.Name)
}

func TestFeedFailureIsRecordedOnFeedSource(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	require.NoError(t, utils.SeedTopicCatalogue(db))

	svc := newTestService(t, db, "http://127.0.0.1:1/feed")
	report, err := svc.RunDailyIngestion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.FeedsFailed)
	assert.NotEmpty(t, report.Errors)

	var feed model.FeedSource
	require.NoError(t, db.First(&feed).Error)
	assert.NotEmpty(t, feed.LastError)
}

func TestIngestSocialStoresTaggedMetadata(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	require.NoError(t, utils.SeedTopicCatalogue(db))

	svc := newTestService(t, db, "http://unused.invalid/feed")
	report, err := svc.IngestSocial(context.Background(), model.SourceYouTube)
	require.NoError(t, err)
	assert.Greater(t, report.Inserted, 0)

	var contents []model.Content
	require.NoError(t, db.Where("source = ?", model.SourceYouTube).Find(&contents).Error)
	require.NotEmpty(t, contents)
	for _, content := range contents {
		assert.Equal(t, "video", content.ContentType)
		meta, err := model.UnmarshalMetadata(content.Metadata)
		require.NoError(t, err)
		require.NotNil(t, meta.YouTube)
		assert.NotEmpty(t, meta.YouTube.Channel)
	}

	// Unknown platforms are refused.
	_, err = svc.IngestSocial(context.Background(), "myspace")
	assert.Error(t, err)
}
