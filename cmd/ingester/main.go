package main

import (
	"context"
	"os"
	"time"

	"github.com/Luismorlan/dailydrop/app_setting"
	"github.com/Luismorlan/dailydrop/classifier"
	"github.com/Luismorlan/dailydrop/feedconfig"
	"github.com/Luismorlan/dailydrop/ingester"
	"github.com/Luismorlan/dailydrop/utils"
	"github.com/Luismorlan/dailydrop/utils/dotenv"
	. "github.com/Luismorlan/dailydrop/utils/log"
)

// One-shot daily ingestion run over all configured feeds and the mocked
// social sources. Meant to be invoked by an external scheduler.
func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	setting := app_setting.DefaultDailyDropAppSetting()
	if path := os.Getenv("APP_SETTING_PATH"); path != "" {
		setting = app_setting.ParseDailyDropAppSetting(path)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect to DB: ", err)
	}
	utils.DatabaseSetupAndMigration(db)
	if err := utils.SeedTopicCatalogue(db); err != nil {
		Log.Fatal("fail to seed topic catalogue: ", err)
	}

	openAI := classifier.NewOpenAIClient(setting.EMBEDDING_RATE_LIMIT_RPS)
	cache := classifier.NewTopicEmbeddingCache(db, openAI, time.Duration(setting.TOPIC_CACHE_TTL_MINUTE)*time.Minute)
	labeler := classifier.NewClassifier(
		openAI, openAI, cache,
		setting.CLASSIFIER_THRESHOLD,
		setting.CLASSIFIER_BATCH_SIZE,
		time.Duration(setting.CLASSIFIER_BATCH_PAUSE_SECOND)*time.Second,
	)

	feeds := feedconfig.NewLoader(setting.FEED_CONFIG_PATH, time.Duration(setting.FEED_CONFIG_TTL_MINUTE)*time.Minute)
	parser := ingester.NewRssParser(setting.FEED_FETCH_CONCURRENCY, time.Duration(setting.FEED_BATCH_DELAY_SECOND)*time.Second)
	service := ingester.NewService(db, parser, labeler, feeds, setting)

	ctx := context.Background()

	report, err := service.RunDailyIngestion(ctx)
	if err != nil {
		Log.Fatal("ingestion run failed: ", err)
	}
	Log.Info("rss ingestion done, feeds: ", report.FeedsProcessed,
		" failed: ", report.FeedsFailed,
		" inserted: ", report.Inserted,
		" duplicates: ", report.SkippedDuplicate,
		" errors: ", len(report.Errors))

	socialReport, err := service.IngestAllSocial(ctx)
	if err != nil {
		Log.Fatal("social ingestion run failed: ", err)
	}
	Log.Info("social ingestion done, inserted: ", socialReport.Inserted,
		" duplicates: ", socialReport.SkippedDuplicate,
		" errors: ", len(socialReport.Errors))
}
