package ingester

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Luismorlan/dailydrop/app_setting"
	"github.com/Luismorlan/dailydrop/classifier"
	"github.com/Luismorlan/dailydrop/feedconfig"
	"github.com/Luismorlan/dailydrop/ingester/instances"
	"github.com/Luismorlan/dailydrop/model"
	"github.com/Luismorlan/dailydrop/utils"
	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Labeler is the slice of the classifier the ingestion service needs, kept as
// an interface so tests can force the fallback path.
type Labeler interface {
	Classify(ctx context.Context, input classifier.Input) (classifier.Result, error)
	Summarize(ctx context.Context, title string, description string) string
}

// RunReport accumulates the outcome of one ingestion run. Per-article and
// per-feed failures land in Errors, they never abort the run.
type RunReport struct {
	FeedsProcessed   int
	FeedsFailed      int
	ArticlesSeen     int
	Inserted         int
	SkippedDuplicate int
	SkippedOld       int
	SkippedShort     int
	Errors           []string
}

// Service orchestrates parse -> dedup -> store -> classify across all
// configured feeds and the mocked social sources.
type Service struct {
	DB      *gorm.DB
	Parser  *RssParser
	Labeler Labeler
	Feeds   *feedconfig.Loader
	Setting app_setting.DailyDropAppSetting

	// Cache of content urls known to exist, to avoid a DB roundtrip per
	// article on re-runs. False negatives are fine, the DB check below is
	// authoritative; the unique index on url is the last line of defense.
	m              sync.RWMutex
	existingUrlMap map[string]bool
}

func NewService(db *gorm.DB, parser *RssParser, labeler Labeler, feeds *feedconfig.Loader, setting app_setting.DailyDropAppSetting) *Service {
	return &Service{
		DB:             db,
		Parser:         parser,
		Labeler:        labeler,
		Feeds:          feeds,
		Setting:        setting,
		existingUrlMap: make(map[string]bool),
	}
}

// RunDailyIngestion executes one full ingestion pass: reload feed config if
// stale, upsert feed rows, parse everything, then store and classify new
// articles feed by feed in fixed size batches.
func (s *Service) RunDailyIngestion(ctx context.Context) (*RunReport, error) {
	report := &RunReport{}

	feeds, err := s.Feeds.Descriptors()
	if err != nil {
		// Unrecoverable setup failure, nothing to iterate over.
		return nil, errors.Wrap(err, "fail to load feed config")
	}

	for _, fd := range feeds {
		if err := s.upsertFeedSource(fd); err != nil {
			Logger.Log.Error("fail to upsert feed source ", fd.Name, ": ", err)
			report.Errors = append(report.Errors, err.Error())
		}
	}

	results := s.Parser.ParseFeeds(ctx, feeds)
	for _, result := range results {
		now := time.Now().UTC()
		if result.Err != nil {
			report.FeedsFailed++
			report.Errors = append(report.Errors, result.Err.Error())
			s.updateFeedStatus(result.Feed.Url, now, result.Err.Error())
			continue
		}
		report.FeedsProcessed++

		s.ingestArticles(ctx, result, report)
		s.updateFeedStatus(result.Feed.Url, now, "")
	}
	return report, nil
}

func (s *Service) ingestArticles(ctx context.Context, result FeedResult, report *RunReport) {
	batchSize := s.Setting.INGEST_BATCH_SIZE
	for start := 0; start < len(result.Articles); start += batchSize {
		end := utils.Min(start+batchSize, len(result.Articles))
		for idx := start; idx < end; idx++ {
			report.ArticlesSeen++
			if err := s.processArticle(ctx, result.Articles[idx], result.Feed, report); err != nil {
				Logger.Log.Error("fail to ingest article '", result.Articles[idx].Title, "': ", err)
				report.Errors = append(report.Errors, err.Error())
			}
		}
	}
}

// processArticle applies the skip rules, dedups by url/guid and stores a new
// Content row together with its classification.
func (s *Service) processArticle(ctx context.Context, article Article, fd feedconfig.FeedDescriptor, report *RunReport) error {
	if article.PublishedAt.Before(time.Now().UTC().AddDate(0, 0, -s.Setting.CONTENT_MAX_AGE_DAY)) {
		report.SkippedOld++
		return nil
	}
	if len(article.Title)+len(article.Description) < s.Setting.MIN_CONTENT_LENGTH {
		report.SkippedShort++
		return nil
	}
	if s.contentExists(article.Url, article.Guid) {
		report.SkippedDuplicate++
		return nil
	}

	metadata, err := model.MarshalMetadata(model.ContentMetadata{
		Source: model.SourceRSS,
		RSS: &model.RSSMetadata{
			FeedName:   fd.Name,
			Author:     article.Author,
			Categories: article.Categories,
		},
	})
	if err != nil {
		return err
	}

	content := model.Content{
		Id:          utils.NewUUID(),
		Title:       article.Title,
		Description: article.Description,
		Url:         article.Url,
		Guid:        article.Guid,
		Source:      model.SourceRSS,
		ContentType: "article",
		Status:      model.StatusApproved,
		PublishedAt: article.PublishedAt,
		ImageUrl:    article.ImageUrl,
		Metadata:    metadata,
	}
	if err := s.DB.Create(&content).Error; err != nil {
		return errors.Wrap(err, "fail to insert content "+article.Url)
	}
	s.markExisting(article.Url)
	report.Inserted++

	return s.classifyAndAttach(ctx, &content, classifier.Input{
		Title:       article.Title,
		Description: article.Description,
		Categories:  article.Categories,
	})
}

// classifyAndAttach runs classification for a stored content row and persists
// embedding, summary and topic associations. Every stored item ends up with
// at least one topic association, the fallback below manufactures one when
// the classifier came back empty.
func (s *Service) classifyAndAttach(ctx context.Context, content *model.Content, input classifier.Input) error {
	result, err := s.Labeler.Classify(ctx, input)
	if err != nil {
		return errors.Wrap(err, "fail to classify content "+content.Id)
	}

	classifications := make([]model.ContentTopic, 0, len(result.Classifications))
	for _, label := range result.Classifications {
		classifications = append(classifications, model.ContentTopic{
			TopicID:    label.TopicID,
			Confidence: label.Confidence,
		})
	}
	if len(classifications) == 0 {
		fallback, err := s.genericAssociation(input)
		if err != nil {
			return err
		}
		classifications = append(classifications, fallback)
	}
	if err := model.ReplaceClassifications(s.DB, content.Id, classifications); err != nil {
		return errors.Wrap(err, "fail to store classifications for "+content.Id)
	}

	updates := map[string]interface{}{
		"summary": s.Labeler.Summarize(ctx, content.Title, content.Description),
	}
	if blob, err := model.MarshalEmbedding(result.Embedding); err == nil {
		updates["embedding"] = blob
	}
	return s.DB.Model(content).Updates(updates).Error
}

// genericAssociation derives a last resort topic association from the keyword
// table, so downstream ranking always has something to match on.
func (s *Service) genericAssociation(input classifier.Input) (model.ContentTopic, error) {
	matches := classifier.MatchKeywords(
		strings.Join(append([]string{input.Title, input.Description}, input.Categories...), " "),
		1,
	)

	var topic model.Topic
	if err := s.DB.Where("name = ?", matches[0].TopicName).First(&topic).Error; err != nil {
		return model.ContentTopic{}, errors.Wrap(err, "fallback topic missing from catalogue: "+matches[0].TopicName)
	}
	return model.ContentTopic{TopicID: topic.Id, Confidence: matches[0].Confidence}, nil
}

// IngestSocial runs one mocked social source through the same storage path as
// RSS content. Platform must be one of the model.Source* social constants.
func (s *Service) IngestSocial(ctx context.Context, platform string) (*RunReport, error) {
	source := instances.SourceFor(platform)
	if source == nil {
		return nil, errors.New("unknown social platform: " + platform)
	}
	report := &RunReport{}
	s.ingestSocialSource(ctx, source, report)
	return report, nil
}

// IngestAllSocial runs every mocked social source.
func (s *Service) IngestAllSocial(ctx context.Context) (*RunReport, error) {
	report := &RunReport{}
	for _, source := range instances.AllSources() {
		s.ingestSocialSource(ctx, source, report)
	}
	return report, nil
}

func (s *Service) ingestSocialSource(ctx context.Context, source instances.SocialSource, report *RunReport) {
	for _, post := range source.Collect() {
		report.ArticlesSeen++
		if err := s.processSocialPost(ctx, post, report); err != nil {
			Logger.Log.Error("fail to ingest ", source.Platform(), " post '", post.Title, "': ", err)
			report.Errors = append(report.Errors, err.Error())
		}
	}
}

func (s *Service) processSocialPost(ctx context.Context, post instances.SocialPost, report *RunReport) error {
	if s.contentExists(post.Url, "") {
		report.SkippedDuplicate++
		return nil
	}

	meta := model.ContentMetadata{Source: post.Platform}
	contentType := "post"
	if post.Platform == model.SourceYouTube {
		contentType = "video"
		meta.YouTube = &model.YouTubeMetadata{Channel: post.Author, ViewCount: post.ViewCount}
	} else {
		meta.Social = &model.SocialMetadata{Platform: post.Platform, Author: post.Author, Likes: post.Likes}
	}
	metadata, err := model.MarshalMetadata(meta)
	if err != nil {
		return err
	}

	content := model.Content{
		Id:          utils.NewUUID(),
		Title:       post.Title,
		Description: post.Description,
		Url:         post.Url,
		Source:      post.Platform,
		ContentType: contentType,
		Status:      model.StatusApproved,
		PublishedAt: post.PublishedAt,
		Metadata:    metadata,
	}
	if err := s.DB.Create(&content).Error; err != nil {
		return errors.Wrap(err, "fail to insert content "+post.Url)
	}
	s.markExisting(post.Url)
	report.Inserted++

	return s.classifyAndAttach(ctx, &content, classifier.Input{
		Title:       post.Title,
		Description: post.Description,
	})
}

// IngestSubmission turns an approved user submission into a stored, classified
// Content row and returns it. Duplicate urls resolve to the already stored row
// instead of an error, moderation approval stays idempotent.
func (s *Service) IngestSubmission(ctx context.Context, submission *model.UserSubmission) (*model.Content, error) {
	if s.contentExists(submission.Url, "") {
		var existing model.Content
		if err := s.DB.Where("url = ?", submission.Url).First(&existing).Error; err != nil {
			return nil, errors.Wrap(err, "fail to load existing content "+submission.Url)
		}
		return &existing, nil
	}

	metadata, err := model.MarshalMetadata(model.ContentMetadata{Source: model.SourceUserSubmission})
	if err != nil {
		return nil, err
	}
	content := model.Content{
		Id:          utils.NewUUID(),
		Title:       submission.Title,
		Description: submission.Description,
		Url:         submission.Url,
		Source:      model.SourceUserSubmission,
		ContentType: "article",
		Status:      model.StatusApproved,
		PublishedAt: submission.CreatedAt,
		Metadata:    metadata,
	}
	if err := s.DB.Create(&content).Error; err != nil {
		return nil, errors.Wrap(err, "fail to insert content "+submission.Url)
	}
	s.markExisting(submission.Url)

	err = s.classifyAndAttach(ctx, &content, classifier.Input{
		Title:       submission.Title,
		Description: submission.Description,
		Categories:  submission.SuggestedTopics,
	})
	return &content, err
}

// contentExists checks the in-memory cache first, then the DB on url or guid.
// A DB hit populates the cache.
func (s *Service) contentExists(url string, guid string) bool {
	s.m.RLock()
	if s.existingUrlMap[url] {
		s.m.RUnlock()
		return true
	}
	s.m.RUnlock()

	query := s.DB.Where("url = ?", url)
	if guid != "" {
		query = s.DB.Where("url = ? OR guid = ?", url, guid)
	}
	var count int64
	query.Model(&model.Content{}).Count(&count)
	if count > 0 {
		s.markExisting(url)
		return true
	}
	return false
}

func (s *Service) markExisting(url string) {
	s.m.Lock()
	s.existingUrlMap[url] = true
	s.m.Unlock()
}

// upsertFeedSource inserts or refreshes the persisted descriptor for a
// configured feed, keyed by url.
func (s *Service) upsertFeedSource(fd feedconfig.FeedDescriptor) error {
	feed := model.FeedSource{
		Id:       utils.NewUUID(),
		Name:     fd.Name,
		Url:      fd.Url,
		Tags:     pq.StringArray(fd.Tags),
		IsActive: true,
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "tags", "is_active"}),
	}).Create(&feed).Error
}

func (s *Service) updateFeedStatus(url string, fetchedAt time.Time, lastError string) {
	err := s.DB.Model(&model.FeedSource{}).Where("url = ?", url).Updates(map[string]interface{}{
		"last_fetched_at": fetchedAt,
		"last_error":      lastError,
	}).Error
	if err != nil {
		Logger.Log.Error("fail to update feed status for ", url, ": ", err)
	}
}
