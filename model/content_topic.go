package model

import (
	"time"

	"gorm.io/gorm"
)

/*

ContentTopic is a "many-to-many" relation of a content item classified into a topic

ContentID: content id
TopicID: topic id
CreatedAt: time when relation is created
DeletedAt: time when relation is deleted

Confidence: [0, 1] score of how strongly the content matches the topic. Either
		a cosine similarity from the embedding classifier (bounded below by the
		classifier threshold) or a fixed heuristic value from the keyword fallback.

The classification set of a content item is always replaced as a whole on
(re)classification, see ReplaceClassifications.

*/

type ContentTopic struct {
	ContentID  string `gorm:"primaryKey"`
	TopicID    string `gorm:"primaryKey"`
	CreatedAt  time.Time
	DeletedAt  gorm.DeletedAt
	Confidence float64
}

func (ContentTopic) BeforeCreate(db *gorm.DB) error {
	return nil
}
