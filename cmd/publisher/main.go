package main

import (
	"context"
	"os"
	"time"

	"github.com/Luismorlan/dailydrop/app_setting"
	"github.com/Luismorlan/dailydrop/classifier"
	"github.com/Luismorlan/dailydrop/publisher"
	"github.com/Luismorlan/dailydrop/utils"
	"github.com/Luismorlan/dailydrop/utils/dotenv"
	. "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Drain window for in-flight digest events after generation finishes.
const sinkDrainDelay = 2 * time.Second

// One-shot daily drop generation over all onboarded users, digests flow
// through the in-process bus into the email sink. Meant to be invoked by an
// external scheduler.
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

	openAI := classifier.NewOpenAIClient(setting.EMBEDDING_RATE_LIMIT_RPS)
	cache := classifier.NewTopicEmbeddingCache(db, openAI, time.Duration(setting.TOPIC_CACHE_TTL_MINUTE)*time.Minute)

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := publisher.NewEmailSink(bus)
	go func() {
		if err := sink.Run(ctx); err != nil {
			Log.Error("email sink stopped: ", err)
		}
	}()

	generator := publisher.NewDropGenerator(db, setting.DROP_MAX_ITEMS, setting.DROP_LOOKBACK_DAY, setting.DROP_EXCLUSION_WINDOW_DAY)
	drops := publisher.NewDropPublisher(db, generator, cache, bus)

	report, err := drops.GenerateAndSendDailyDrops(ctx)
	if err != nil {
		Log.Fatal("drop generation run failed: ", err)
	}
	Log.Info("drop generation done, users: ", report.UsersProcessed,
		" drops: ", report.DropsCreated,
		" errors: ", len(report.Errors))

	// Give the sink a moment to drain queued digests before shutdown.
	time.Sleep(sinkDrainDelay)
}
