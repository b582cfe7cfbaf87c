package app_setting

import (
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"
)

// DailyDropAppSetting tunes the ingestion/classification/drop pipeline. All
// durations are plain integers in the named unit to keep the yaml obvious.
type DailyDropAppSetting struct {
	// Path pointing to the json feed descriptor catalogue.
	FEED_CONFIG_PATH string `yaml:"FEED_CONFIG_PATH"`
	// Reload the feed config at most this often.
	FEED_CONFIG_TTL_MINUTE int `yaml:"FEED_CONFIG_TTL_MINUTE"`
	// Number of feeds fetched in parallel within one batch.
	FEED_FETCH_CONCURRENCY int `yaml:"FEED_FETCH_CONCURRENCY"`
	// Pause between feed fetch batches, politeness towards origin servers.
	FEED_BATCH_DELAY_SECOND int `yaml:"FEED_BATCH_DELAY_SECOND"`
	// Articles are persisted/classified in groups of this size per feed.
	INGEST_BATCH_SIZE int `yaml:"INGEST_BATCH_SIZE"`
	// Articles older than this are skipped at ingestion time.
	CONTENT_MAX_AGE_DAY int `yaml:"CONTENT_MAX_AGE_DAY"`
	// Articles whose title+description is shorter than this are skipped.
	MIN_CONTENT_LENGTH int `yaml:"MIN_CONTENT_LENGTH"`
	// Cosine similarity floor for an embedding classification to count.
	CLASSIFIER_THRESHOLD float64 `yaml:"CLASSIFIER_THRESHOLD"`
	// Classification group size and pause between groups.
	CLASSIFIER_BATCH_SIZE         int `yaml:"CLASSIFIER_BATCH_SIZE"`
	CLASSIFIER_BATCH_PAUSE_SECOND int `yaml:"CLASSIFIER_BATCH_PAUSE_SECOND"`
	// Topic embedding cache time to live.
	TOPIC_CACHE_TTL_MINUTE int `yaml:"TOPIC_CACHE_TTL_MINUTE"`
	// Embedding API rate limit, requests per second.
	EMBEDDING_RATE_LIMIT_RPS float64 `yaml:"EMBEDDING_RATE_LIMIT_RPS"`
	// Daily drop knobs: max items per user per day, candidate window, and the
	// recently-dropped exclusion window.
	DROP_MAX_ITEMS            int `yaml:"DROP_MAX_ITEMS"`
	DROP_LOOKBACK_DAY         int `yaml:"DROP_LOOKBACK_DAY"`
	DROP_EXCLUSION_WINDOW_DAY int `yaml:"DROP_EXCLUSION_WINDOW_DAY"`
	// Cleanup knobs.
	RETENTION_DAY             int `yaml:"RETENTION_DAY"`
	CLEANUP_BATCH_SIZE        int `yaml:"CLEANUP_BATCH_SIZE"`
	CLEANUP_CONTENT_THRESHOLD int `yaml:"CLEANUP_CONTENT_THRESHOLD"`
	// Port the api server listens on.
	SERVER_PORT int `yaml:"SERVER_PORT"`
}

func ParseDailyDropAppSetting(path string) DailyDropAppSetting {
	c := DefaultDailyDropAppSetting()
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile. get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	return c
}

// DefaultDailyDropAppSetting returns the documented defaults, used directly in
// tests and as the base overwritten by the yaml file.
func DefaultDailyDropAppSetting() DailyDropAppSetting {
	return DailyDropAppSetting{
		FEED_CONFIG_PATH:              "app_config/feeds.json",
		FEED_CONFIG_TTL_MINUTE:        30,
		FEED_FETCH_CONCURRENCY:        5,
		FEED_BATCH_DELAY_SECOND:       1,
		INGEST_BATCH_SIZE:             10,
		CONTENT_MAX_AGE_DAY:           7,
		MIN_CONTENT_LENGTH:            50,
		CLASSIFIER_THRESHOLD:          0.65,
		CLASSIFIER_BATCH_SIZE:         5,
		CLASSIFIER_BATCH_PAUSE_SECOND: 1,
		TOPIC_CACHE_TTL_MINUTE:        60,
		EMBEDDING_RATE_LIMIT_RPS:      2,
		DROP_MAX_ITEMS:                3,
		DROP_LOOKBACK_DAY:             7,
		DROP_EXCLUSION_WINDOW_DAY:     30,
		RETENTION_DAY:                 90,
		CLEANUP_BATCH_SIZE:            1000,
		CLEANUP_CONTENT_THRESHOLD:     10000,
		SERVER_PORT:                   8080,
	}
}
