package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

/*

FeedSource is a persisted RSS/Atom feed descriptor

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Name: display name from the feed config file
Url: feed url, unique, also the upsert key when the config is reloaded
Tags: free form labels from the config file
IsActive: inactive feeds are kept for history but skipped by ingestion
LastFetchedAt: time of the last ingestion attempt for this feed
LastError: error string of the last failed fetch, empty on success

Upserted from the json feed config at the start of every ingestion run.

*/

type FeedSource struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	DeletedAt     gorm.DeletedAt
	Name          string
	Url           string         `gorm:"uniqueIndex"`
	Tags          pq.StringArray `gorm:"type:text[]"`
	IsActive      bool           `gorm:"default:true"`
	LastFetchedAt *time.Time
	LastError     string
}
