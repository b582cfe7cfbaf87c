package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Luismorlan/dailydrop/app_setting"
	"github.com/Luismorlan/dailydrop/classifier"
	"github.com/Luismorlan/dailydrop/cleanup"
	"github.com/Luismorlan/dailydrop/feedconfig"
	"github.com/Luismorlan/dailydrop/ingester"
	"github.com/Luismorlan/dailydrop/publisher"
	"github.com/Luismorlan/dailydrop/server"
	"github.com/Luismorlan/dailydrop/server/middlewares"
	"github.com/Luismorlan/dailydrop/utils"
	"github.com/Luismorlan/dailydrop/utils/dotenv"
	. "github.com/Luismorlan/dailydrop/utils/flag"
	. "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	dbConnectAttempts = 3
	dbConnectDelay    = 2 * time.Second
)

func init() {
	Log.Info("api server initialized")
}

func loadAppSetting() app_setting.DailyDropAppSetting {
	path := os.Getenv("APP_SETTING_PATH")
	if path == "" {
		return app_setting.DefaultDailyDropAppSetting()
	}
	return app_setting.ParseDailyDropAppSetting(path)
}

// connectDB retries a few times with fixed delay. On total failure the server
// still comes up serving health checks only, instead of crash looping behind
// the load balancer.
func connectDB() *gorm.DB {
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		db, err := utils.GetDBConnection()
		if err == nil {
			return db
		}
		Log.Error("fail to connect to DB (attempt ", attempt, "): ", err)
		time.Sleep(dbConnectDelay)
	}
	return nil
}

func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
	setting := loadAppSetting()

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())

	db := connectDB()
	if db == nil {
		Log.Error("starting in degraded mode, health checks only")
		server.RegisterHealthRoutes(router)
		router.Run(fmt.Sprintf(":%d", setting.SERVER_PORT))
		return
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
	ingestion := ingester.NewService(db, parser, labeler, feeds, setting)

	generator := publisher.NewDropGenerator(db, setting.DROP_MAX_ITEMS, setting.DROP_LOOKBACK_DAY, setting.DROP_EXCLUSION_WINDOW_DAY)
	drops := publisher.NewDropPublisher(db, generator, cache, nil)

	cleaner := cleanup.NewCleaner(
		db,
		setting.RETENTION_DAY,
		setting.CLEANUP_BATCH_SIZE,
		time.Second,
		setting.CLEANUP_CONTENT_THRESHOLD,
	)

	// Redis is a fast path only, the server runs without it.
	statusStore, err := utils.GetDropStatusStore()
	if err != nil {
		Log.Error("fail to connect to redis, drop status fast path disabled: ", err)
		statusStore = nil
	}

	adminGuard := middlewares.AdminKey()
	if *ByPassAuth {
		if utils.IsProdEnv() {
			Log.Fatal("refusing to bypass admin auth in prod")
		}
		Log.Info("admin auth bypassed by flag, do not use in production")
		adminGuard = func(c *gin.Context) { c.Next() }
	}

	srv := server.NewServer(db, statusStore, ingestion, drops, cleaner)
	srv.RegisterRoutes(router, adminGuard)

	Log.Info("api server starts up on port ", setting.SERVER_PORT)
	router.Run(fmt.Sprintf(":%d", setting.SERVER_PORT))
}
