package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

/*

UserSubmission is a content link suggested by a user, pending moderation

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

UserID / User: submitting user, "belongs-to" relation
Url / Title / Description: the suggested content
SuggestedTopics: topic names picked by the submitter, advisory only, the real
		classification happens when the submission is approved and ingested
Status: moderation status, reuses the content Status* constants
ModerationNotes: free text left by the moderating admin
ContentID / Content: the Content row created on approval, null before that and
		nulled again when retention cleanup removes the content row

Created by a user, mutated only by an admin moderation action.

*/

type UserSubmission struct {
	Id              string `gorm:"primaryKey"`
	CreatedAt       time.Time
	DeletedAt       gorm.DeletedAt
	UserID          string `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	User            User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Url             string
	Title           string
	Description     string
	SuggestedTopics pq.StringArray `gorm:"type:text[]"`
	Status          string         `gorm:"default:pending"`
	ModerationNotes string
	ContentID       *string
	Content         *Content `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}
